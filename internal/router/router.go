// Package router dispatches decoded events to instruments. The live
// performance path targets the active track's instrument and layers
// held-note and sustain-pedal bookkeeping on top; the playback path
// sends already-scheduled streams straight to a specific track's
// instrument with no bookkeeping at all.
package router

import "github.com/cgcardona/Stori-sub007/sdk/contracts"

const sustainThreshold = 64

// Router maps tracks to instruments. All methods run on the engine's
// state-owner goroutine.
type Router struct {
	log      contracts.Logger
	provider contracts.InstrumentProvider

	// resolved caches provider lookups per track so Panic can reach
	// every instrument that ever played.
	resolved map[contracts.TrackID]contracts.Instrument

	active     contracts.TrackID
	activeInst contracts.Instrument

	held      map[uint8]bool
	sustained map[uint8]bool
	sustainOn bool
}

// New creates a router. provider may be nil, in which case every
// dispatch is a silent no-op.
func New(provider contracts.InstrumentProvider, log contracts.Logger) *Router {
	return &Router{
		log:       log,
		provider:  provider,
		resolved:  make(map[contracts.TrackID]contracts.Instrument),
		held:      make(map[uint8]bool),
		sustained: make(map[uint8]bool),
	}
}

// SetActiveTrack re-resolves the active instrument. Notes held by the
// previous active instrument are force-released first so a selection
// change can never strand a sounding note.
func (r *Router) SetActiveTrack(track contracts.TrackID) {
	if prev := r.activeInst; prev != nil {
		for pitch := range r.held {
			prev.NoteOff(pitch)
		}
		for pitch := range r.sustained {
			prev.NoteOff(pitch)
		}
	}
	clear(r.held)
	clear(r.sustained)
	r.sustainOn = false

	r.active = track
	r.activeInst = r.instrument(track)
}

// ActiveTrack returns the currently selected track.
func (r *Router) ActiveTrack() contracts.TrackID {
	return r.active
}

func (r *Router) instrument(track contracts.TrackID) contracts.Instrument {
	if inst, ok := r.resolved[track]; ok {
		return inst
	}
	if r.provider == nil {
		return nil
	}
	inst := r.provider.Instrument(track)
	if inst != nil {
		r.resolved[track] = inst
	}
	return inst
}

// NoteOn forwards a live note to the active instrument and marks it held.
func (r *Router) NoteOn(pitch, velocity uint8) {
	if r.activeInst == nil {
		return
	}
	r.held[pitch] = true
	delete(r.sustained, pitch)
	r.activeInst.NoteOn(pitch, velocity)
}

// NoteOff releases a live note. While sustain is asserted the release is
// deferred: the pitch moves into the sustained set and the instrument
// hears nothing until the pedal comes up.
func (r *Router) NoteOff(pitch uint8) {
	if r.activeInst == nil {
		return
	}
	if r.sustainOn {
		r.sustained[pitch] = true
		delete(r.held, pitch)
		return
	}
	delete(r.held, pitch)
	r.activeInst.NoteOff(pitch)
}

// ControlChange forwards a controller move. The sustain pedal is
// consumed here: on release, every pitch that is sustained but no longer
// held is flushed as a deferred NoteOff.
func (r *Router) ControlChange(controller, value uint8) {
	if controller == contracts.SustainPedal {
		if value >= sustainThreshold {
			r.sustainOn = true
			return
		}
		r.releaseSustain()
		return
	}
	if r.activeInst != nil {
		r.activeInst.ControlChange(controller, value)
	}
}

func (r *Router) releaseSustain() {
	r.sustainOn = false
	if r.activeInst != nil {
		for pitch := range r.sustained {
			if !r.held[pitch] {
				r.activeInst.NoteOff(pitch)
			}
		}
	}
	clear(r.sustained)
}

// PitchBend forwards a pitch wheel move to the active instrument.
func (r *Router) PitchBend(value int16) {
	if r.activeInst != nil {
		r.activeInst.PitchBend(value)
	}
}

// Dispatch is the playback path: it sends one already-scheduled event to
// a specific track's instrument, bypassing held-note and sustain
// bookkeeping, which would add incorrect state to a deterministic
// stream.
func (r *Router) Dispatch(track contracts.TrackID, ev contracts.Event) {
	inst := r.instrument(track)
	if inst == nil {
		return
	}
	switch ev.Type {
	case contracts.NoteOn:
		inst.NoteOn(ev.Data1, ev.Data2)
	case contracts.NoteOff:
		inst.NoteOff(ev.Data1)
	case contracts.ControlChange:
		inst.ControlChange(ev.Data1, ev.Data2)
	case contracts.PitchBend:
		inst.PitchBend(ev.Bend)
	}
}

// Panic force-releases everything: all-notes-off on every instrument the
// router has ever resolved, and all pedal and held-note state cleared.
// It never fails and calling it twice is the same as calling it once.
func (r *Router) Panic() {
	for _, inst := range r.resolved {
		inst.AllNotesOff()
	}
	clear(r.held)
	clear(r.sustained)
	r.sustainOn = false
	r.log.Info("panic: all notes off")
}
