package transport

import (
	"testing"

	"github.com/cgcardona/Stori-sub007/internal/logger"
	"github.com/cgcardona/Stori-sub007/internal/transport/transporttest"
	"github.com/cgcardona/Stori-sub007/internal/wire"
	"github.com/cgcardona/Stori-sub007/sdk/contracts"
)

func newFake() (*transporttest.Driver, *Transport) {
	drv := transporttest.New(
		[]contracts.DeviceInfo{transporttest.Endpoint("in:kbd", contracts.Input)},
		[]contracts.DeviceInfo{transporttest.Endpoint("out:synth", contracts.Output)},
	)
	return drv, New(drv, logger.NewNop(), 8)
}

func TestTransport_DecodesIntoQueue(t *testing.T) {
	drv, tr := newFake()
	defer tr.Close()

	if err := tr.Connect("in:kbd"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	drv.FeedVoice("in:kbd", 0x90, 60, 100)
	drv.FeedVoice("in:kbd", 0x80, 60, 0)

	ev := <-tr.Events()
	if ev.Type != contracts.NoteOn || ev.Data1 != 60 || ev.Data2 != 100 {
		t.Fatalf("first event = %+v", ev)
	}
	if ev.Timestamp == 0 {
		t.Error("timestamp not set")
	}
	ev = <-tr.Events()
	if ev.Type != contracts.NoteOff || ev.Data1 != 60 {
		t.Fatalf("second event = %+v", ev)
	}
}

func TestTransport_UnknownWordsDropped(t *testing.T) {
	drv, tr := newFake()
	defer tr.Close()

	if err := tr.Connect("in:kbd"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	drv.Feed("in:kbd", 0x40903C64)                   // non-voice message type
	drv.FeedVoice("in:kbd", 0xA0, 60, 40)            // aftertouch, uninterpreted
	drv.FeedVoice("in:kbd", 0xB0, 1, 42)             // kept

	ev := <-tr.Events()
	if ev.Type != contracts.ControlChange || ev.Data1 != 1 {
		t.Fatalf("got %+v, want the control change only", ev)
	}
	select {
	case ev := <-tr.Events():
		t.Fatalf("unexpected extra event %+v", ev)
	default:
	}
}

func TestTransport_QueueFullRejects(t *testing.T) {
	drv := transporttest.New(
		[]contracts.DeviceInfo{transporttest.Endpoint("in:kbd", contracts.Input)}, nil)
	tr := New(drv, logger.NewNop(), 2)
	defer tr.Close()

	if err := tr.Connect("in:kbd"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	for i := 0; i < 5; i++ {
		drv.FeedVoice("in:kbd", 0x90, byte(60+i), 100)
	}
	if got := len(tr.Events()); got != 2 {
		t.Fatalf("queued = %d, want 2", got)
	}
	if got := tr.Dropped(); got != 3 {
		t.Fatalf("dropped = %d, want 3", got)
	}
}

func TestTransport_UninitializedNoOps(t *testing.T) {
	tr := New(nil, logger.NewNop(), 0)
	defer tr.Close()

	if tr.Ready() {
		t.Fatal("nil driver reported ready")
	}
	if devices := tr.Inputs(); devices != nil {
		t.Errorf("Inputs = %v, want nil", devices)
	}
	if err := tr.Connect("in:anything"); err != nil {
		t.Errorf("Connect returned error: %v", err)
	}
	if err := tr.Send("out:anything", []byte{0x90, 60, 100}); err != nil {
		t.Errorf("Send returned error: %v", err)
	}
}

func TestTransport_CloseIdempotent(t *testing.T) {
	drv, tr := newFake()
	tr.Close()
	tr.Close()
	if got := drv.CloseCount(); got != 1 {
		t.Fatalf("driver closed %d times, want exactly once", got)
	}
}

func TestTransport_SendPassthrough(t *testing.T) {
	drv, tr := newFake()
	defer tr.Close()

	msg := wire.EncodeBytes(contracts.Event{Type: contracts.NoteOn, Data1: 64, Data2: 90})
	if err := tr.Send("out:synth", msg); err != nil {
		t.Fatalf("Send: %v", err)
	}
	sent := drv.SentMessages()
	if len(sent) != 1 || sent[0].ID != "out:synth" {
		t.Fatalf("sent = %+v", sent)
	}
}
