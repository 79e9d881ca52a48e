// Package recording captures live notes, controller moves, and pitch
// bends into quantized regions. All methods run on the engine's
// state-owner goroutine; beat positions are supplied by the caller from
// the host transport clock.
package recording

import (
	"math"

	"github.com/cgcardona/Stori-sub007/sdk/contracts"
)

// MinNoteBeats floors every computed note duration. Notes are never
// stored with zero or negative length.
const MinNoteBeats = 0.01

// pendingNote is an active-note table entry waiting for its NoteOff.
type pendingNote struct {
	startBeat float64
	velocity  uint8
	channel   uint8
}

// Recorder is the per-take capture state. One recorder serves one track
// at a time; Start resets it for a new take unless overdubbing.
type Recorder struct {
	log contracts.Logger

	recording bool
	startBeat float64
	grid      float64 // beat subdivision; 0 disables quantization

	pending  map[uint8]pendingNote
	notes    []contracts.Note
	controls []contracts.ControlPoint
	bends    []contracts.BendPoint
}

// New creates an idle recorder.
func New(log contracts.Logger) *Recorder {
	return &Recorder{
		log:     log,
		pending: make(map[uint8]pendingNote),
	}
}

// SetGrid changes the quantization grid in beats. Zero disables
// quantization.
func (r *Recorder) SetGrid(grid float64) {
	if grid < 0 {
		grid = 0
	}
	r.grid = grid
}

// Grid returns the current quantization grid.
func (r *Recorder) Grid() float64 {
	return r.grid
}

// Recording reports whether a take is in progress.
func (r *Recorder) Recording() bool {
	return r.recording
}

// Start begins a take at the given beat. Without overdub every buffer is
// cleared and the active-note table reset; with overdub an in-progress
// take simply continues, keeping its buffers and original zero
// reference. Either way the call never corrupts state.
func (r *Recorder) Start(atBeat float64, overdub bool) {
	if r.recording && overdub {
		return
	}
	if !overdub {
		r.notes = nil
		r.controls = nil
		r.bends = nil
	}
	clear(r.pending)
	r.startBeat = atBeat
	r.recording = true
	r.log.Info("recording started",
		r.log.Field().Float64("beat", atBeat),
		r.log.Field().Bool("overdub", overdub))
}

// NoteOn stores a pending entry in the active-note table, quantizing the
// start position when a grid is configured. The first pending entry per
// pitch is authoritative: a duplicate NoteOn for an already pending
// pitch is ignored until its matching NoteOff arrives.
func (r *Recorder) NoteOn(pitch, velocity, channel uint8, atBeat float64) {
	if !r.recording {
		return
	}
	if _, pending := r.pending[pitch]; pending {
		return
	}
	r.pending[pitch] = pendingNote{
		startBeat: r.quantize(atBeat - r.startBeat),
		velocity:  velocity,
		channel:   channel,
	}
}

// NoteOff closes the pending entry for the pitch, appending a completed
// note with a floored duration. A NoteOff with no matching entry is
// ignored.
func (r *Recorder) NoteOff(pitch uint8, atBeat float64) {
	if !r.recording {
		return
	}
	entry, pending := r.pending[pitch]
	if !pending {
		return
	}
	delete(r.pending, pitch)
	r.appendNote(pitch, entry, r.quantize(atBeat-r.startBeat))
}

// ControlChange logs a controller value. Continuous data is captured
// unquantized.
func (r *Recorder) ControlChange(controller, value, channel uint8, atBeat float64) {
	if !r.recording {
		return
	}
	r.controls = append(r.controls, contracts.ControlPoint{
		Beat:       atBeat - r.startBeat,
		Controller: controller,
		Value:      value,
		Channel:    channel,
	})
}

// PitchBend logs a pitch-bend value, unquantized.
func (r *Recorder) PitchBend(value int16, channel uint8, atBeat float64) {
	if !r.recording {
		return
	}
	r.bends = append(r.bends, contracts.BendPoint{
		Beat:    atBeat - r.startBeat,
		Value:   value,
		Channel: channel,
	})
}

// Stop ends the take. Notes still pending, held through stop via sustain
// or a stuck key, are force-closed at the stop position. A take that
// captured zero notes yields no region at all rather than an empty
// placeholder.
func (r *Recorder) Stop(atBeat float64) (contracts.Region, bool) {
	if !r.recording {
		return contracts.Region{}, false
	}
	r.recording = false

	end := r.quantize(atBeat - r.startBeat)
	for pitch, entry := range r.pending {
		r.appendNote(pitch, entry, end)
	}
	clear(r.pending)

	if len(r.notes) == 0 {
		r.controls = nil
		r.bends = nil
		r.log.Info("recording stopped with no notes; no region produced")
		return contracts.Region{}, false
	}

	duration := 0.0
	for _, n := range r.notes {
		if e := n.EndBeat(); e > duration {
			duration = e
		}
	}

	region := contracts.Region{
		StartBeat:     r.startBeat,
		DurationBeats: duration,
		Notes:         r.notes,
		Controls:      r.controls,
		Bends:         r.bends,
	}
	r.notes = nil
	r.controls = nil
	r.bends = nil
	r.log.Info("recording committed",
		r.log.Field().Int("notes", len(region.Notes)),
		r.log.Field().Float64("duration", duration))
	return region, true
}

// Cancel discards all buffers without producing a region.
func (r *Recorder) Cancel() {
	r.recording = false
	clear(r.pending)
	r.notes = nil
	r.controls = nil
	r.bends = nil
}

func (r *Recorder) appendNote(pitch uint8, entry pendingNote, endBeat float64) {
	duration := endBeat - entry.startBeat
	if duration < MinNoteBeats {
		duration = MinNoteBeats
	}
	r.notes = append(r.notes, contracts.Note{
		Pitch:         pitch,
		Velocity:      entry.velocity,
		StartBeat:     entry.startBeat,
		DurationBeats: duration,
		Channel:       entry.channel,
	})
}

// quantize snaps a beat position to the nearest grid line.
func (r *Recorder) quantize(beat float64) float64 {
	if r.grid <= 0 {
		return beat
	}
	return math.Round(beat/r.grid) * r.grid
}
