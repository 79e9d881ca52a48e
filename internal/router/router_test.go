package router

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/cgcardona/Stori-sub007/internal/logger"
	"github.com/cgcardona/Stori-sub007/sdk/contracts"
)

// fakeInstrument records every call in order.
type fakeInstrument struct {
	calls []string
}

func (f *fakeInstrument) NoteOn(pitch, velocity uint8) {
	f.calls = append(f.calls, call("on", pitch, velocity))
}

func (f *fakeInstrument) NoteOff(pitch uint8) {
	f.calls = append(f.calls, call("off", pitch, 0))
}

func (f *fakeInstrument) ControlChange(controller, value uint8) {
	f.calls = append(f.calls, call("cc", controller, value))
}

func (f *fakeInstrument) PitchBend(value int16) {
	f.calls = append(f.calls, call("bend", uint8(value>>8), uint8(value)))
}

func (f *fakeInstrument) AllNotesOff() {
	f.calls = append(f.calls, "all-off")
}

func call(kind string, a, b uint8) string {
	return fmt.Sprintf("%s/%d/%d", kind, a, b)
}

type fakeProvider struct {
	instruments map[contracts.TrackID]*fakeInstrument
}

func (p *fakeProvider) Instrument(track contracts.TrackID) contracts.Instrument {
	inst, ok := p.instruments[track]
	if !ok {
		return nil
	}
	return inst
}

func newRouter(tracks ...contracts.TrackID) (*fakeProvider, *Router) {
	p := &fakeProvider{instruments: make(map[contracts.TrackID]*fakeInstrument)}
	for _, t := range tracks {
		p.instruments[t] = &fakeInstrument{}
	}
	return p, New(p, logger.NewNop())
}

func TestSustain_DefersNoteOffUntilPedalRelease(t *testing.T) {
	p, r := newRouter("lead")
	r.SetActiveTrack("lead")

	r.NoteOn(60, 100)
	r.ControlChange(contracts.SustainPedal, 127) // sustain on
	r.NoteOff(60)
	r.ControlChange(contracts.SustainPedal, 0) // sustain off

	want := []string{call("on", 60, 100), call("off", 60, 0)}
	if got := p.instruments["lead"].calls; !reflect.DeepEqual(got, want) {
		t.Fatalf("instrument saw %v, want exactly one on and one deferred off %v", got, want)
	}
}

func TestSustain_HeldNoteSurvivesPedalRelease(t *testing.T) {
	p, r := newRouter("lead")
	r.SetActiveTrack("lead")

	r.NoteOn(60, 100)
	r.ControlChange(contracts.SustainPedal, 127)
	r.ControlChange(contracts.SustainPedal, 0)

	// The key is still down: releasing the pedal must not close it.
	want := []string{call("on", 60, 100)}
	if got := p.instruments["lead"].calls; !reflect.DeepEqual(got, want) {
		t.Fatalf("instrument saw %v, want %v", got, want)
	}
}

func TestSustain_PedalNotForwardedAsControl(t *testing.T) {
	p, r := newRouter("lead")
	r.SetActiveTrack("lead")

	r.ControlChange(contracts.SustainPedal, 127)
	r.ControlChange(1, 42) // mod wheel passes through

	want := []string{call("cc", 1, 42)}
	if got := p.instruments["lead"].calls; !reflect.DeepEqual(got, want) {
		t.Fatalf("instrument saw %v, want %v", got, want)
	}
}

func TestPanic_Idempotent(t *testing.T) {
	p, r := newRouter("lead")
	r.SetActiveTrack("lead")
	r.NoteOn(60, 100)
	r.ControlChange(contracts.SustainPedal, 127)

	r.Panic()
	before := append([]string(nil), p.instruments["lead"].calls...)
	r.Panic()
	after := p.instruments["lead"].calls

	if len(after) != len(before)+1 || after[len(after)-1] != "all-off" {
		t.Fatalf("second panic changed more than a repeated all-off: %v -> %v", before, after)
	}
	// Pedal state is gone: a NoteOff now reaches the instrument directly.
	r.NoteOn(62, 80)
	r.NoteOff(62)
	calls := p.instruments["lead"].calls
	if calls[len(calls)-1] != call("off", 62, 0) {
		t.Fatalf("note off after panic was deferred: %v", calls)
	}
}

func TestSetActiveTrack_ForceReleasesPreviousInstrument(t *testing.T) {
	p, r := newRouter("lead", "bass")
	r.SetActiveTrack("lead")

	r.NoteOn(60, 100)
	r.ControlChange(contracts.SustainPedal, 127)
	r.NoteOff(64) // lands in the sustained set
	r.SetActiveTrack("bass")

	lead := p.instruments["lead"].calls
	offs := 0
	for _, c := range lead {
		if c == call("off", 60, 0) || c == call("off", 64, 0) {
			offs++
		}
	}
	if offs != 2 {
		t.Fatalf("previous instrument calls %v, want releases for 60 and 64", lead)
	}
	if len(p.instruments["bass"].calls) != 0 {
		t.Fatalf("new instrument received stray calls: %v", p.instruments["bass"].calls)
	}
}

func TestDispatch_BypassesSustainBookkeeping(t *testing.T) {
	p, r := newRouter("lead", "drums")
	r.SetActiveTrack("lead")
	r.ControlChange(contracts.SustainPedal, 127)

	// Playback events go straight through even with the live pedal down.
	r.Dispatch("drums", contracts.Event{Type: contracts.NoteOn, Data1: 36, Data2: 110})
	r.Dispatch("drums", contracts.Event{Type: contracts.NoteOff, Data1: 36})

	want := []string{call("on", 36, 110), call("off", 36, 0)}
	if got := p.instruments["drums"].calls; !reflect.DeepEqual(got, want) {
		t.Fatalf("playback path saw %v, want %v", got, want)
	}
}

func TestNoInstrument_SilentNoOp(t *testing.T) {
	_, r := newRouter()
	r.SetActiveTrack("ghost")
	r.NoteOn(60, 100)
	r.NoteOff(60)
	r.PitchBend(100)
	r.Panic() // must never fail
}
