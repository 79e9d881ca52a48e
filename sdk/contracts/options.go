package contracts

import "time"

// EngineOptions defines the configuration of the MIDI engine. Zero values
// are replaced with defaults when the engine is constructed.
type EngineOptions struct {
	Logger   Logger
	LogLevel LogLevel

	// ClientName is the name registered with the platform MIDI service.
	ClientName string

	// QueueCapacity bounds the realtime-to-state-owner event queue. When
	// the queue is full new events are rejected, never blocked on.
	QueueCapacity int

	// QuantizeGrid is the beat subdivision recorded note timestamps snap
	// to (0.25 = sixteenth notes in 4/4). Zero disables quantization.
	QuantizeGrid float64

	// AutomationInterval is the minimum wall-clock spacing between
	// captured automation points for one (track, parameter) key.
	AutomationInterval time.Duration

	Clock       BeatClock
	Instruments InstrumentProvider
	Tracks      TrackDirectory
	Project     ProjectSink
	Hooks       Hooks
}

// Option is a function that modifies EngineOptions.
type Option func(*EngineOptions)

// WithLogger sets the logger for the engine.
func WithLogger(l Logger) Option {
	return func(opts *EngineOptions) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level for the engine.
func WithLogLevel(level LogLevel) Option {
	return func(opts *EngineOptions) {
		opts.LogLevel = level
	}
}

// WithClientName sets the name the engine registers with the platform
// MIDI service.
func WithClientName(name string) Option {
	return func(opts *EngineOptions) {
		opts.ClientName = name
	}
}

// WithQueueCapacity bounds the realtime event queue.
func WithQueueCapacity(n int) Option {
	return func(opts *EngineOptions) {
		opts.QueueCapacity = n
	}
}

// WithQuantizeGrid sets the recording quantization grid in beats.
// Zero disables quantization.
func WithQuantizeGrid(grid float64) Option {
	return func(opts *EngineOptions) {
		opts.QuantizeGrid = grid
	}
}

// WithAutomationInterval sets the capture throttle for automation points.
func WithAutomationInterval(d time.Duration) Option {
	return func(opts *EngineOptions) {
		opts.AutomationInterval = d
	}
}

// WithBeatClock supplies the host transport position provider.
func WithBeatClock(c BeatClock) Option {
	return func(opts *EngineOptions) {
		opts.Clock = c
	}
}

// WithInstrumentProvider supplies the track-to-instrument lookup.
func WithInstrumentProvider(p InstrumentProvider) Option {
	return func(opts *EngineOptions) {
		opts.Instruments = p
	}
}

// WithTrackDirectory supplies the read-only track metadata lookup.
func WithTrackDirectory(t TrackDirectory) Option {
	return func(opts *EngineOptions) {
		opts.Tracks = t
	}
}

// WithProjectSink supplies the destination for committed regions and
// merged automation lanes.
func WithProjectSink(p ProjectSink) Option {
	return func(opts *EngineOptions) {
		opts.Project = p
	}
}

// WithHooks installs per-event notification callbacks.
func WithHooks(h Hooks) Option {
	return func(opts *EngineOptions) {
		opts.Hooks = h
	}
}
