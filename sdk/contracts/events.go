package contracts

import "fmt"

// EventType identifies the kind of channel-voice event carried by an Event.
type EventType uint8

const (
	// NoteOn is a key-down event with a non-zero velocity.
	NoteOn EventType = iota
	// NoteOff is a key-up event. A wire NoteOn with velocity zero is
	// normalized to NoteOff during decoding.
	NoteOff
	// ControlChange is a controller move (modulation wheel, sustain pedal, ...).
	ControlChange
	// PitchBend is a pitch wheel move, centered at zero.
	PitchBend
	// ProgramChange selects a patch on the receiving channel.
	ProgramChange
)

// String returns a short lowercase name for the event type.
func (t EventType) String() string {
	switch t {
	case NoteOn:
		return "note-on"
	case NoteOff:
		return "note-off"
	case ControlChange:
		return "control-change"
	case PitchBend:
		return "pitch-bend"
	case ProgramChange:
		return "program-change"
	}
	return "unknown"
}

// Event is a decoded channel-voice event. Data1 and Data2 are 7-bit values
// whose meaning depends on Type: pitch/velocity for notes, controller
// number/value for control changes, program number for program changes.
// For PitchBend the two data bytes are combined into Bend, a signed 14-bit
// offset centered at zero, and Data1/Data2 carry the raw bytes.
type Event struct {
	Type      EventType
	Channel   uint8 // 0-15
	Data1     uint8
	Data2     uint8
	Bend      int16
	Timestamp uint64 // nanoseconds, wall clock at decode time
}

// String renders the event as a human-readable log line.
func (e Event) String() string {
	switch e.Type {
	case NoteOn:
		return fmt.Sprintf("note-on ch=%d pitch=%d vel=%d", e.Channel, e.Data1, e.Data2)
	case NoteOff:
		return fmt.Sprintf("note-off ch=%d pitch=%d", e.Channel, e.Data1)
	case ControlChange:
		return fmt.Sprintf("control-change ch=%d cc=%d val=%d", e.Channel, e.Data1, e.Data2)
	case PitchBend:
		return fmt.Sprintf("pitch-bend ch=%d value=%d", e.Channel, e.Bend)
	case ProgramChange:
		return fmt.Sprintf("program-change ch=%d program=%d", e.Channel, e.Data1)
	}
	return fmt.Sprintf("unknown ch=%d", e.Channel)
}

// SustainPedal is the controller number of the sustain (damper) pedal.
const SustainPedal uint8 = 64

// AllNotesOffController is the channel-mode controller that silences every
// sounding note on a channel.
const AllNotesOffController uint8 = 123

// Hooks are optional per-event notification callbacks. All hooks are invoked
// from the engine's state-owner goroutine; they must not block.
type Hooks struct {
	NoteOn          func(Event)
	NoteOff         func(Event)
	ControlChange   func(Event)
	PitchBend       func(Event)
	ProgramChange   func(Event)
	Message         func(string) // raw human-readable log of every decoded event
	TopologyChanged func()
}
