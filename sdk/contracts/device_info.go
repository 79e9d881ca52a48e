package contracts

// EndpointID is an opaque identifier for a hardware or virtual MIDI endpoint.
// IDs are stable for as long as the endpoint stays online; they are rebuilt
// from scratch on every topology rescan.
type EndpointID string

// Direction tells whether an endpoint produces or consumes events.
type Direction uint8

const (
	// Input endpoints deliver events into the engine.
	Input Direction = iota
	// Output endpoints accept events sent by the engine.
	Output
)

// String returns "input" or "output".
func (d Direction) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

// DeviceInfo describes a MIDI endpoint as seen at the last topology scan.
// Records are ephemeral: a rescan rebuilds the full list and never diffs
// against a previous one.
type DeviceInfo struct {
	ID           EndpointID
	Name         string
	Manufacturer string
	Direction    Direction
	Online       bool
}
