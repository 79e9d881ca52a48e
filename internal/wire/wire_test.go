package wire

import (
	"testing"

	"github.com/cgcardona/Stori-sub007/sdk/contracts"
)

func TestDecodeWord_Voice(t *testing.T) {
	tests := []struct {
		name   string
		status byte
		data1  byte
		data2  byte
		want   contracts.Event
	}{
		{
			name:   "note on",
			status: 0x90, data1: 60, data2: 100,
			want: contracts.Event{Type: contracts.NoteOn, Channel: 0, Data1: 60, Data2: 100},
		},
		{
			name:   "note on velocity zero becomes note off",
			status: 0x93, data1: 64, data2: 0,
			want: contracts.Event{Type: contracts.NoteOff, Channel: 3, Data1: 64, Data2: 0},
		},
		{
			name:   "note off",
			status: 0x81, data1: 72, data2: 40,
			want: contracts.Event{Type: contracts.NoteOff, Channel: 1, Data1: 72, Data2: 40},
		},
		{
			name:   "control change",
			status: 0xB5, data1: 64, data2: 127,
			want: contracts.Event{Type: contracts.ControlChange, Channel: 5, Data1: 64, Data2: 127},
		},
		{
			name:   "program change",
			status: 0xC2, data1: 12, data2: 0,
			want: contracts.Event{Type: contracts.ProgramChange, Channel: 2, Data1: 12},
		},
		{
			name:   "pitch bend center",
			status: 0xE0, data1: 0x00, data2: 0x40,
			want: contracts.Event{Type: contracts.PitchBend, Channel: 0, Data1: 0, Data2: 0x40, Bend: 0},
		},
		{
			name:   "pitch bend minimum",
			status: 0xE0, data1: 0x00, data2: 0x00,
			want: contracts.Event{Type: contracts.PitchBend, Channel: 0, Bend: -8192},
		},
		{
			name:   "pitch bend maximum",
			status: 0xE0, data1: 0x7F, data2: 0x7F,
			want: contracts.Event{Type: contracts.PitchBend, Channel: 0, Data1: 0x7F, Data2: 0x7F, Bend: 8191},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DecodeWord(PackVoice(tt.status, tt.data1, tt.data2))
			if !ok {
				t.Fatalf("DecodeWord rejected %02X %02X %02X", tt.status, tt.data1, tt.data2)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecodeWord_Dropped(t *testing.T) {
	tests := []struct {
		name string
		word uint32
	}{
		{"non-voice message type", 0x40903C64},  // mt=4, not legacy voice
		{"sysex-range status", PackVoice(0xF0, 0, 0)},
		{"aftertouch status", PackVoice(0xA0, 60, 40)},
		{"channel pressure status", PackVoice(0xD3, 15, 0)},
		{"zero word", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if ev, ok := DecodeWord(tt.word); ok {
				t.Errorf("expected drop, got %+v", ev)
			}
		})
	}
}

func TestEncodeBytes_RoundTrip(t *testing.T) {
	events := []contracts.Event{
		{Type: contracts.NoteOn, Channel: 2, Data1: 60, Data2: 90},
		{Type: contracts.ControlChange, Channel: 0, Data1: 64, Data2: 127},
		{Type: contracts.PitchBend, Channel: 4, Bend: -4096},
		{Type: contracts.ProgramChange, Channel: 9, Data1: 30},
	}
	for _, ev := range events {
		t.Run(ev.Type.String(), func(t *testing.T) {
			word, ok := PackBytes(EncodeBytes(ev))
			if !ok {
				t.Fatal("PackBytes rejected encoded message")
			}
			got, ok := DecodeWord(word)
			if !ok {
				t.Fatal("DecodeWord rejected packed word")
			}
			if got.Type != ev.Type || got.Channel != ev.Channel || got.Bend != ev.Bend {
				t.Errorf("round trip %+v -> %+v", ev, got)
			}
		})
	}
}

func TestPackBytes_Rejects(t *testing.T) {
	if _, ok := PackBytes(nil); ok {
		t.Error("empty message accepted")
	}
	if _, ok := PackBytes([]byte{0x10, 0x20}); ok {
		t.Error("data byte in status position accepted")
	}
	if _, ok := PackBytes([]byte{0xF8}); ok {
		t.Error("realtime status accepted")
	}
}
