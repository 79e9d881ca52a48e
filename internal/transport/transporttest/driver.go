// Package transporttest provides an in-memory driver for exercising the
// transport, directory, and engine without hardware.
package transporttest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cgcardona/Stori-sub007/internal/wire"
	"github.com/cgcardona/Stori-sub007/sdk/contracts"
)

// ErrUnknownEndpoint mirrors the real drivers' behavior for bad IDs.
var ErrUnknownEndpoint = errors.New("unknown MIDI endpoint")

// Sent records one message delivered through Send.
type Sent struct {
	ID   contracts.EndpointID
	Data []byte
}

// Driver is a fake hardware driver. Tests seed its endpoint lists, feed
// words into connected sinks, and inspect what was sent.
type Driver struct {
	mu          sync.Mutex
	inputs      []contracts.DeviceInfo
	outputs     []contracts.DeviceInfo
	sinks       map[contracts.EndpointID]func(words []uint32)
	sent        []Sent
	closed      int
	failConnect error
}

// New creates a fake driver with the given input and output endpoints.
func New(inputs, outputs []contracts.DeviceInfo) *Driver {
	return &Driver{
		inputs:  inputs,
		outputs: outputs,
		sinks:   make(map[contracts.EndpointID]func(words []uint32)),
	}
}

// Endpoint builds a DeviceInfo for seeding the fake topology.
func Endpoint(id string, dir contracts.Direction) contracts.DeviceInfo {
	return contracts.DeviceInfo{
		ID:        contracts.EndpointID(id),
		Name:      id,
		Direction: dir,
		Online:    true,
	}
}

// FailConnect makes every subsequent Connect call return err.
func (d *Driver) FailConnect(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failConnect = err
}

// SetInputs replaces the visible input endpoints, simulating topology
// churn.
func (d *Driver) SetInputs(inputs []contracts.DeviceInfo) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inputs = inputs
}

func (d *Driver) Inputs() ([]contracts.DeviceInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]contracts.DeviceInfo(nil), d.inputs...), nil
}

func (d *Driver) Outputs() ([]contracts.DeviceInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]contracts.DeviceInfo(nil), d.outputs...), nil
}

func (d *Driver) Connect(id contracts.EndpointID, sink func(words []uint32)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failConnect != nil {
		return d.failConnect
	}
	for _, in := range d.inputs {
		if in.ID == id {
			d.sinks[id] = sink
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownEndpoint, id)
}

func (d *Driver) Disconnect(id contracts.EndpointID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.sinks, id)
	return nil
}

func (d *Driver) Send(id contracts.EndpointID, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, out := range d.outputs {
		if out.ID == id {
			d.sent = append(d.sent, Sent{ID: id, Data: append([]byte(nil), data...)})
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownEndpoint, id)
}

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed++
	d.sinks = make(map[contracts.EndpointID]func(words []uint32))
	return nil
}

// Connected reports whether an input currently has a sink attached.
func (d *Driver) Connected(id contracts.EndpointID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.sinks[id]
	return ok
}

// CloseCount returns how many times Close was invoked.
func (d *Driver) CloseCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Sent returns every message delivered through Send.
func (d *Driver) SentMessages() []Sent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Sent(nil), d.sent...)
}

// Feed delivers packed words to the sink connected to id, mimicking the
// platform realtime callback.
func (d *Driver) Feed(id contracts.EndpointID, words ...uint32) {
	d.mu.Lock()
	sink := d.sinks[id]
	d.mu.Unlock()
	if sink != nil {
		sink(words)
	}
}

// FeedVoice packs a legacy channel-voice message and feeds it to id.
func (d *Driver) FeedVoice(id contracts.EndpointID, status, data1, data2 byte) {
	d.Feed(id, wire.PackVoice(status, data1, data2))
}
