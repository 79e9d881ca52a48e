package contracts

// Instrument is the capability the engine dispatches decoded events into.
// Implementations are supplied by the host application (synth plugins,
// samplers, external hardware proxies).
type Instrument interface {
	NoteOn(pitch, velocity uint8)
	NoteOff(pitch uint8)
	ControlChange(controller, value uint8)
	PitchBend(value int16)
	AllNotesOff()
}

// InstrumentProvider resolves the instrument bound to a track. A nil
// result means the track currently has no playable instrument.
type InstrumentProvider interface {
	Instrument(track TrackID) Instrument
}

// BeatClock reports the host transport position. CurrentBeat is sampled
// once per operation on the state-owner goroutine; Tempo is in BPM.
type BeatClock interface {
	CurrentBeat() float64
	Tempo() float64
}

// TrackDirectory is a read-only lookup used to name and color produced
// regions.
type TrackDirectory interface {
	TrackName(track TrackID) string
	TrackColor(track TrackID) string
}

// ProjectSink receives committed recordings. Storage format, undo and
// redo integration belong to the host; the engine only hands over
// immutable values. AutomationLane returns the current lane so merge
// policies can be applied; ReplaceAutomationLane installs the merged
// result.
type ProjectSink interface {
	CommitRegion(track TrackID, region Region)
	AutomationLane(track TrackID, param string) []AutomationPoint
	ReplaceAutomationLane(track TrackID, param string, points []AutomationPoint)
}
