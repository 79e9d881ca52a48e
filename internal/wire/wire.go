// Package wire packs and decodes the 32-bit universal packet words the
// platform transports deliver. Only legacy channel-voice traffic is
// interpreted; every other message type is dropped at decode time, which
// is the forward-compatible behavior for this protocol family.
package wire

import "github.com/cgcardona/Stori-sub007/sdk/contracts"

// Channel-voice status high nibbles.
const (
	StatusNoteOff       = 0x80
	StatusNoteOn        = 0x90
	StatusControlChange = 0xB0
	StatusProgramChange = 0xC0
	StatusPitchBend     = 0xE0
)

// messageTypeVoice is the 4-bit message-type field marking a legacy
// channel-voice word.
const messageTypeVoice = 0x2

// bendCenter is subtracted from the combined 14-bit pitch-bend value so
// that the rest position reads as zero.
const bendCenter = 8192

// PackVoice builds a channel-voice word from a status byte and two 7-bit
// data bytes. Drivers use it to normalize legacy byte streams into words.
func PackVoice(status, data1, data2 byte) uint32 {
	return uint32(messageTypeVoice)<<28 |
		uint32(status)<<16 |
		uint32(data1&0x7F)<<8 |
		uint32(data2&0x7F)
}

// DecodeWord extracts one logical event from a packed word. The second
// return value is false when the word is not channel-voice traffic or
// carries an unrecognized status; such words are ignored, not errors.
//
// DecodeWord runs on the realtime callback thread: it never allocates
// and never blocks.
func DecodeWord(word uint32) (contracts.Event, bool) {
	if word>>28 != messageTypeVoice {
		return contracts.Event{}, false
	}

	status := byte(word >> 16)
	channel := status & 0x0F
	data1 := byte(word>>8) & 0x7F
	data2 := byte(word) & 0x7F

	ev := contracts.Event{Channel: channel, Data1: data1, Data2: data2}

	switch status & 0xF0 {
	case StatusNoteOn:
		// Velocity zero is NoteOff by wire-protocol convention.
		if data2 == 0 {
			ev.Type = contracts.NoteOff
		} else {
			ev.Type = contracts.NoteOn
		}
	case StatusNoteOff:
		ev.Type = contracts.NoteOff
	case StatusControlChange:
		ev.Type = contracts.ControlChange
	case StatusPitchBend:
		ev.Type = contracts.PitchBend
		ev.Bend = int16(int(data2)<<7|int(data1)) - bendCenter
	case StatusProgramChange:
		ev.Type = contracts.ProgramChange
	default:
		return contracts.Event{}, false
	}
	return ev, true
}

// EncodeBytes renders an event as a legacy byte message for sending to an
// output endpoint.
func EncodeBytes(ev contracts.Event) []byte {
	ch := ev.Channel & 0x0F
	switch ev.Type {
	case contracts.NoteOn:
		return []byte{StatusNoteOn | ch, ev.Data1 & 0x7F, ev.Data2 & 0x7F}
	case contracts.NoteOff:
		return []byte{StatusNoteOff | ch, ev.Data1 & 0x7F, 0}
	case contracts.ControlChange:
		return []byte{StatusControlChange | ch, ev.Data1 & 0x7F, ev.Data2 & 0x7F}
	case contracts.PitchBend:
		v := int(ev.Bend) + bendCenter
		if v < 0 {
			v = 0
		} else if v > 0x3FFF {
			v = 0x3FFF
		}
		return []byte{StatusPitchBend | ch, byte(v & 0x7F), byte(v >> 7)}
	case contracts.ProgramChange:
		return []byte{StatusProgramChange | ch, ev.Data1 & 0x7F}
	}
	return nil
}

// PackBytes converts a legacy byte message into a channel-voice word.
// Short or empty messages produce false.
func PackBytes(data []byte) (uint32, bool) {
	if len(data) == 0 {
		return 0, false
	}
	status := data[0]
	if status < 0x80 || status >= 0xF0 {
		return 0, false
	}
	var d1, d2 byte
	if len(data) > 1 {
		d1 = data[1]
	}
	if len(data) > 2 {
		d2 = data[2]
	}
	return PackVoice(status, d1, d2), true
}
