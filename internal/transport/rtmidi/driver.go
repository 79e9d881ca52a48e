// Package rtmidi is the portable driver used on systems without a native
// backend. It is built on gitlab.com/gomidi/midi/v2 with the rtmidi
// platform driver.
package rtmidi

import (
	"errors"
	"fmt"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // register the platform driver

	"github.com/cgcardona/Stori-sub007/internal/wire"
	"github.com/cgcardona/Stori-sub007/sdk/contracts"
)

// ErrUnknownEndpoint is returned when an endpoint ID does not match any
// currently visible port.
var ErrUnknownEndpoint = errors.New("unknown MIDI endpoint")

// Driver adapts gomidi ports to the transport driver contract.
type Driver struct {
	log contracts.Logger

	mu    sync.Mutex
	stops map[contracts.EndpointID]func()
	sends map[contracts.EndpointID]func(gomidi.Message) error
}

// New prepares the rtmidi driver. Ports are opened lazily on Connect and
// Send.
func New(clientName string, log contracts.Logger) (*Driver, error) {
	log.Info("rtmidi driver created", log.Field().String("name", clientName))
	return &Driver{
		log:   log,
		stops: make(map[contracts.EndpointID]func()),
		sends: make(map[contracts.EndpointID]func(gomidi.Message) error),
	}, nil
}

// Inputs enumerates input ports.
func (d *Driver) Inputs() ([]contracts.DeviceInfo, error) {
	ports := gomidi.GetInPorts()
	devices := make([]contracts.DeviceInfo, len(ports))
	for i, port := range ports {
		devices[i] = contracts.DeviceInfo{
			ID:        contracts.EndpointID("in:" + port.String()),
			Name:      port.String(),
			Direction: contracts.Input,
			Online:    true,
		}
	}
	return devices, nil
}

// Outputs enumerates output ports.
func (d *Driver) Outputs() ([]contracts.DeviceInfo, error) {
	ports := gomidi.GetOutPorts()
	devices := make([]contracts.DeviceInfo, len(ports))
	for i, port := range ports {
		devices[i] = contracts.DeviceInfo{
			ID:        contracts.EndpointID("out:" + port.String()),
			Name:      port.String(),
			Direction: contracts.Output,
			Online:    true,
		}
	}
	return devices, nil
}

// Connect opens the input port and starts listening into sink. The
// listener callback runs on the rtmidi input thread; it packs the raw
// bytes into one word and never blocks.
func (d *Driver) Connect(id contracts.EndpointID, sink func(words []uint32)) error {
	port, err := findInPort(id)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, connected := d.stops[id]; connected {
		return nil
	}

	var buf [1]uint32
	stop, err := gomidi.ListenTo(port, func(msg gomidi.Message, timestampms int32) {
		word, ok := wire.PackBytes(msg)
		if !ok {
			return
		}
		buf[0] = word
		sink(buf[:])
	})
	if err != nil {
		return fmt.Errorf("listening to %q: %w", port.String(), err)
	}
	d.stops[id] = stop
	return nil
}

// Disconnect stops the listener on the input port.
func (d *Driver) Disconnect(id contracts.EndpointID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	stop, connected := d.stops[id]
	if !connected {
		return nil
	}
	stop()
	delete(d.stops, id)
	return nil
}

// Send delivers a raw message to the output port, opening it on first
// use.
func (d *Driver) Send(id contracts.EndpointID, data []byte) error {
	d.mu.Lock()
	send, open := d.sends[id]
	if !open {
		port, err := findOutPort(id)
		if err != nil {
			d.mu.Unlock()
			return err
		}
		send, err = gomidi.SendTo(port)
		if err != nil {
			d.mu.Unlock()
			return fmt.Errorf("opening output %q: %w", port.String(), err)
		}
		d.sends[id] = send
	}
	d.mu.Unlock()
	return send(gomidi.Message(data))
}

// Close stops every listener and releases the platform driver.
func (d *Driver) Close() error {
	d.mu.Lock()
	for id, stop := range d.stops {
		stop()
		delete(d.stops, id)
	}
	d.sends = make(map[contracts.EndpointID]func(gomidi.Message) error)
	d.mu.Unlock()
	gomidi.CloseDriver()
	return nil
}

func findInPort(id contracts.EndpointID) (drivers.In, error) {
	name, ok := trimPrefix(id, "in:")
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEndpoint, id)
	}
	for _, port := range gomidi.GetInPorts() {
		if port.String() == name {
			return port, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownEndpoint, id)
}

func findOutPort(id contracts.EndpointID) (drivers.Out, error) {
	name, ok := trimPrefix(id, "out:")
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEndpoint, id)
	}
	for _, port := range gomidi.GetOutPorts() {
		if port.String() == name {
			return port, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownEndpoint, id)
}

func trimPrefix(id contracts.EndpointID, prefix string) (string, bool) {
	s := string(id)
	if len(s) <= len(prefix) || s[:len(prefix)] != prefix {
		return "", false
	}
	return s[len(prefix):], true
}
