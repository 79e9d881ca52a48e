// Package engine is the public facade over the MIDI subsystem: device
// transport and directory, instrument routing, note recording, and
// automation capture.
//
// Two execution contexts exist. The platform driver invokes a realtime
// callback whenever a packet arrives; it only decodes and enqueues.
// Everything else — directory, router, recorder, automation — is owned
// by the single state-owner goroutine running inside Run. Public
// operations post closures onto that goroutine and wait, so no mutable
// state is ever touched from two contexts.
package engine

import (
	"context"
	"sync"

	"github.com/cgcardona/Stori-sub007/internal/automation"
	"github.com/cgcardona/Stori-sub007/internal/directory"
	"github.com/cgcardona/Stori-sub007/internal/recording"
	"github.com/cgcardona/Stori-sub007/internal/router"
	"github.com/cgcardona/Stori-sub007/internal/transport"
	"github.com/cgcardona/Stori-sub007/internal/wire"
	"github.com/cgcardona/Stori-sub007/sdk/contracts"
)

// Engine owns every component of the MIDI subsystem. Construct it with
// New, start Run on a dedicated goroutine, and call Close (or cancel the
// context) to tear down.
type Engine struct {
	log   contracts.Logger
	opts  contracts.EngineOptions
	clock contracts.BeatClock
	hooks contracts.Hooks

	transport  *transport.Transport
	directory  *directory.Directory
	router     *router.Router
	recorder   *recording.Recorder
	automation *automation.Capture

	cmds      chan func()
	topo      chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
}

// New creates the engine with the specified options. Hardware driver
// failure is not fatal: the engine comes up uninitialized and every
// device operation quietly no-ops, which is the degraded mode a host
// application keeps running in.
func New(opts ...contracts.Option) (*Engine, error) {
	options := applyDefaultOptions(opts...)

	drv, err := transport.OpenDriver(options.ClientName, options.Logger)
	if err != nil {
		options.Logger.Warn("MIDI driver unavailable; engine starts uninitialized",
			options.Logger.Field().Error("error", err))
		drv = nil
	}
	return newEngine(drv, options), nil
}

// newEngine wires the components over an already-acquired driver. Tests
// inject a fake driver here.
func newEngine(drv transport.Driver, options contracts.EngineOptions) *Engine {
	log := options.Logger
	tr := transport.New(drv, log, options.QueueCapacity)

	e := &Engine{
		log:        log,
		opts:       options,
		clock:      options.Clock,
		hooks:      options.Hooks,
		transport:  tr,
		directory:  directory.New(tr, log),
		router:     router.New(options.Instruments, log),
		recorder:   recording.New(log),
		automation: automation.New(options.Clock, options.Project, options.AutomationInterval, log),
		cmds:       make(chan func()),
		topo:       make(chan struct{}, 1),
		closed:     make(chan struct{}),
	}
	e.recorder.SetGrid(options.QuantizeGrid)
	return e
}

// Run is the state-owner loop. It drains the transport's bounded event
// queue, executes posted operations, and reschedules topology rescans
// away from the watcher goroutine. Run blocks until the context is
// cancelled or Close is called.
func (e *Engine) Run(ctx context.Context) {
	e.directory.Scan()
	e.transport.Watch(func() {
		select {
		case e.topo <- struct{}{}:
		default:
		}
	})

	for {
		select {
		case <-ctx.Done():
			e.Close()
			return
		case <-e.closed:
			return
		case ev := <-e.transport.Events():
			e.handleEvent(ev)
		case <-e.topo:
			e.directory.Scan()
			if e.hooks.TopologyChanged != nil {
				e.hooks.TopologyChanged()
			}
		case cmd := <-e.cmds:
			cmd()
		}
	}
}

// Close tears the engine down: the transport releases its hardware
// handles exactly once and the state-owner loop exits. Safe to call from
// any goroutine, any number of times.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.transport.Close()
		close(e.closed)
	})
}

// do runs fn on the state-owner goroutine and waits for it.
func (e *Engine) do(fn func()) {
	done := make(chan struct{})
	select {
	case e.cmds <- func() { fn(); close(done) }:
	case <-e.closed:
		return
	}
	select {
	case <-done:
	case <-e.closed:
	}
}

// handleEvent fans one decoded event out to hooks, the live router, and
// the recorder. Runs on the state-owner goroutine.
func (e *Engine) handleEvent(ev contracts.Event) {
	if e.hooks.Message != nil {
		e.hooks.Message(ev.String())
	}
	beat := e.clock.CurrentBeat()

	switch ev.Type {
	case contracts.NoteOn:
		if e.hooks.NoteOn != nil {
			e.hooks.NoteOn(ev)
		}
		e.recorder.NoteOn(ev.Data1, ev.Data2, ev.Channel, beat)
		e.router.NoteOn(ev.Data1, ev.Data2)
	case contracts.NoteOff:
		if e.hooks.NoteOff != nil {
			e.hooks.NoteOff(ev)
		}
		e.recorder.NoteOff(ev.Data1, beat)
		e.router.NoteOff(ev.Data1)
	case contracts.ControlChange:
		if e.hooks.ControlChange != nil {
			e.hooks.ControlChange(ev)
		}
		e.recorder.ControlChange(ev.Data1, ev.Data2, ev.Channel, beat)
		e.router.ControlChange(ev.Data1, ev.Data2)
	case contracts.PitchBend:
		if e.hooks.PitchBend != nil {
			e.hooks.PitchBend(ev)
		}
		e.recorder.PitchBend(ev.Bend, ev.Channel, beat)
		e.router.PitchBend(ev.Bend)
	case contracts.ProgramChange:
		if e.hooks.ProgramChange != nil {
			e.hooks.ProgramChange(ev)
		}
	}
}

// Ready reports whether hardware initialization succeeded.
func (e *Engine) Ready() bool {
	return e.transport.Ready()
}

// ScanDevices re-enumerates the full topology and returns fresh records.
func (e *Engine) ScanDevices() []contracts.DeviceInfo {
	var devices []contracts.DeviceInfo
	e.do(func() { devices = e.directory.Scan() })
	return devices
}

// Inputs returns the input endpoints from the last scan.
func (e *Engine) Inputs() []contracts.DeviceInfo {
	var devices []contracts.DeviceInfo
	e.do(func() { devices = e.directory.Inputs() })
	return devices
}

// Outputs returns the output endpoints from the last scan.
func (e *Engine) Outputs() []contracts.DeviceInfo {
	var devices []contracts.DeviceInfo
	e.do(func() { devices = e.directory.Outputs() })
	return devices
}

// Connect attaches an input endpoint to the decode pipeline.
func (e *Engine) Connect(id contracts.EndpointID) error {
	var err error
	e.do(func() { err = e.directory.Connect(id) })
	return err
}

// Disconnect detaches an input endpoint.
func (e *Engine) Disconnect(id contracts.EndpointID) error {
	var err error
	e.do(func() { err = e.directory.Disconnect(id) })
	return err
}

// ConnectAll attaches every known input.
func (e *Engine) ConnectAll() error {
	var err error
	e.do(func() { err = e.directory.ConnectAll() })
	return err
}

// DisconnectAll detaches every connected input.
func (e *Engine) DisconnectAll() error {
	var err error
	e.do(func() { err = e.directory.DisconnectAll() })
	return err
}

// Broadcast is the zero EndpointID; send primitives treat it as "every
// known output".
const Broadcast contracts.EndpointID = ""

// SendNoteOn sends a note-on to one output, or to every output when dest
// is Broadcast.
func (e *Engine) SendNoteOn(dest contracts.EndpointID, channel, pitch, velocity uint8) error {
	return e.send(dest, contracts.Event{Type: contracts.NoteOn, Channel: channel, Data1: pitch, Data2: velocity})
}

// SendNoteOff sends a note-off.
func (e *Engine) SendNoteOff(dest contracts.EndpointID, channel, pitch uint8) error {
	return e.send(dest, contracts.Event{Type: contracts.NoteOff, Channel: channel, Data1: pitch})
}

// SendControlChange sends a controller value.
func (e *Engine) SendControlChange(dest contracts.EndpointID, channel, controller, value uint8) error {
	return e.send(dest, contracts.Event{Type: contracts.ControlChange, Channel: channel, Data1: controller, Data2: value})
}

// SendPitchBend sends a pitch-bend offset centered at zero.
func (e *Engine) SendPitchBend(dest contracts.EndpointID, channel uint8, value int16) error {
	return e.send(dest, contracts.Event{Type: contracts.PitchBend, Channel: channel, Bend: value})
}

// SendProgramChange sends a program select.
func (e *Engine) SendProgramChange(dest contracts.EndpointID, channel, program uint8) error {
	return e.send(dest, contracts.Event{Type: contracts.ProgramChange, Channel: channel, Data1: program})
}

// SendAllNotesOff sends the all-notes-off channel-mode message.
func (e *Engine) SendAllNotesOff(dest contracts.EndpointID, channel uint8) error {
	return e.send(dest, contracts.Event{
		Type:    contracts.ControlChange,
		Channel: channel,
		Data1:   contracts.AllNotesOffController,
	})
}

func (e *Engine) send(dest contracts.EndpointID, ev contracts.Event) error {
	data := wire.EncodeBytes(ev)
	var err error
	e.do(func() {
		if dest != Broadcast {
			err = e.transport.Send(dest, data)
			return
		}
		for _, out := range e.directory.Outputs() {
			if sendErr := e.transport.Send(out.ID, data); sendErr != nil && err == nil {
				err = sendErr
			}
		}
	})
	return err
}

// SelectTrack re-binds the live-performance path to a track's
// instrument. Notes held by the previously active instrument are
// force-released.
func (e *Engine) SelectTrack(track contracts.TrackID) {
	e.do(func() { e.router.SetActiveTrack(track) })
}

// DispatchTrackEvent is the playback path: it delivers one
// already-scheduled event straight to a specific track's instrument,
// with no held-note or sustain bookkeeping.
func (e *Engine) DispatchTrackEvent(track contracts.TrackID, ev contracts.Event) {
	e.do(func() { e.router.Dispatch(track, ev) })
}

// Panic force-releases every note on every registered instrument and
// clears all pedal state. It never fails and is safe to call at any
// time.
func (e *Engine) Panic() {
	e.do(func() { e.router.Panic() })
}

// SetQuantizeGrid changes the recording quantization grid in beats; zero
// disables quantization.
func (e *Engine) SetQuantizeGrid(grid float64) {
	e.do(func() { e.recorder.SetGrid(grid) })
}

// StartRecording begins capturing notes for the active track at the
// current transport position. Without overdub any previous buffers are
// cleared; with overdub an in-progress take continues.
func (e *Engine) StartRecording(overdub bool) {
	e.do(func() { e.recorder.Start(e.clock.CurrentBeat(), overdub) })
}

// StopRecording ends the take. When at least one note was captured the
// region is named and colored after the active track, handed to the
// project sink, and returned; otherwise ok is false and no region
// exists.
func (e *Engine) StopRecording() (region contracts.Region, ok bool) {
	e.do(func() {
		region, ok = e.recorder.Stop(e.clock.CurrentBeat())
		if !ok {
			return
		}
		track := e.router.ActiveTrack()
		if e.opts.Tracks != nil {
			region.Name = e.opts.Tracks.TrackName(track)
			region.Color = e.opts.Tracks.TrackColor(track)
		}
		if e.opts.Project != nil {
			e.opts.Project.CommitRegion(track, region)
		}
	})
	return region, ok
}

// CancelRecording discards the in-progress take.
func (e *Engine) CancelRecording() {
	e.do(func() { e.recorder.Cancel() })
}

// Recording reports whether a take is in progress.
func (e *Engine) Recording() bool {
	var rec bool
	e.do(func() { rec = e.recorder.Recording() })
	return rec
}

// BeginAutomation opens an automation recording for a (track, parameter)
// key. Off and Read modes have no recording effect.
func (e *Engine) BeginAutomation(track contracts.TrackID, param string, mode contracts.AutomationMode, baseline float64, curve contracts.CurveType) {
	e.do(func() { e.automation.Begin(track, param, mode, baseline, curve) })
}

// CaptureAutomationValue records one parameter value, subject to the
// capture throttle.
func (e *Engine) CaptureAutomationValue(track contracts.TrackID, param string, value float64) {
	e.do(func() { e.automation.CaptureValue(track, param, value) })
}

// EndAutomation commits the capture for the key: thinning, the Touch
// baseline return, and the mode's merge policy are applied and the
// merged lane handed to the project sink.
func (e *Engine) EndAutomation(track contracts.TrackID, param string) {
	e.do(func() { e.automation.End(track, param) })
}

// CancelAutomation discards the capture for one key.
func (e *Engine) CancelAutomation(track contracts.TrackID, param string) {
	e.do(func() { e.automation.Cancel(track, param) })
}

// CancelAllAutomation discards every in-flight capture.
func (e *Engine) CancelAllAutomation() {
	e.do(func() { e.automation.CancelAll() })
}
