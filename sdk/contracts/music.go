package contracts

// TrackID identifies a track in the host project.
type TrackID string

// Note is one captured note. DurationBeats is always greater than zero;
// the recording engine floors computed durations before a note is stored.
type Note struct {
	Pitch         uint8
	Velocity      uint8
	StartBeat     float64 // relative to the owning region's start
	DurationBeats float64
	Channel       uint8
}

// EndBeat returns the beat at which the note stops sounding.
func (n Note) EndBeat() float64 {
	return n.StartBeat + n.DurationBeats
}

// ControlPoint is one captured control-change value. Continuous data is
// never quantized; Beat is the raw capture position relative to the region.
type ControlPoint struct {
	Beat       float64
	Controller uint8
	Value      uint8
	Channel    uint8
}

// BendPoint is one captured pitch-bend value relative to the region start.
type BendPoint struct {
	Beat    float64
	Value   int16
	Channel uint8
}

// Region is a committed recording: notes plus controller and pitch-bend
// logs, all stored relative to StartBeat. Regions are immutable once
// handed to the project sink.
type Region struct {
	Name          string
	Color         string
	StartBeat     float64
	DurationBeats float64
	Notes         []Note
	Controls      []ControlPoint
	Bends         []BendPoint
}

// CurveType selects the interpolation shape between automation points.
type CurveType uint8

const (
	CurveLinear CurveType = iota
	CurveHold
	CurveSmooth
)

// AutomationPoint is one point on an automation lane. Value is normalized
// to [0,1]. Lanes are kept strictly beat-ascending across every merge and
// thinning pass.
type AutomationPoint struct {
	Beat    float64
	Value   float64
	Curve   CurveType
	Tension float64
}

// AutomationMode selects how captured automation interacts with the
// existing lane when the recording stops.
type AutomationMode uint8

const (
	// AutomationOff disables capture entirely.
	AutomationOff AutomationMode = iota
	// AutomationRead plays the lane back without recording.
	AutomationRead
	// AutomationTouch records while touched and returns the parameter to
	// its pre-touch baseline when the touch ends.
	AutomationTouch
	// AutomationLatch records from first touch onward and keeps the last
	// captured value.
	AutomationLatch
	// AutomationWrite replaces the whole lane forward of the record start.
	AutomationWrite
)

// String returns a short lowercase name for the mode.
func (m AutomationMode) String() string {
	switch m {
	case AutomationOff:
		return "off"
	case AutomationRead:
		return "read"
	case AutomationTouch:
		return "touch"
	case AutomationLatch:
		return "latch"
	case AutomationWrite:
		return "write"
	}
	return "unknown"
}

// ParamKey addresses one automation lane: a parameter on a track.
type ParamKey struct {
	Track TrackID
	Param string
}
