//go:build darwin

// Package coremidi is the native macOS driver, built on CoreMIDI via
// github.com/youpy/go-coremidi.
package coremidi

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/youpy/go-coremidi"

	"github.com/cgcardona/Stori-sub007/internal/wire"
	"github.com/cgcardona/Stori-sub007/sdk/contracts"
)

var (
	// ErrUnknownEndpoint is returned when an endpoint ID does not match
	// any currently visible endpoint.
	ErrUnknownEndpoint = errors.New("unknown MIDI endpoint")
	// ErrCreateInputPort is returned when the input port could not be
	// created on the CoreMIDI client.
	ErrCreateInputPort = errors.New("error creating input port")
)

// Driver owns the CoreMIDI client, one input port shared by every
// connected source, and one output port shared by every destination.
type Driver struct {
	log    contracts.Logger
	client coremidi.Client
	in     coremidi.InputPort
	out    coremidi.OutputPort

	// sinks maps source names to word sinks. Copy-on-write: the packet
	// callback loads it atomically and never takes the mutex.
	sinks atomic.Value // map[string]func([]uint32)

	mu    sync.Mutex
	conns map[contracts.EndpointID]coremidi.PortConnection
}

// New acquires the CoreMIDI client and its ports.
func New(clientName string, log contracts.Logger) (*Driver, error) {
	client, err := coremidi.NewClient(clientName)
	if err != nil {
		return nil, fmt.Errorf("creating CoreMIDI client: %w", err)
	}

	d := &Driver{
		log:    log,
		client: client,
		conns:  make(map[contracts.EndpointID]coremidi.PortConnection),
	}
	d.sinks.Store(map[string]func([]uint32){})

	d.in, err = coremidi.NewInputPort(client, clientName+" In", d.handlePacket)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreateInputPort, err)
	}
	d.out, err = coremidi.NewOutputPort(client, clientName+" Out")
	if err != nil {
		return nil, fmt.Errorf("creating output port: %w", err)
	}

	log.Info("CoreMIDI client created", log.Field().String("name", clientName))
	return d, nil
}

// handlePacket runs on the CoreMIDI realtime thread. It packs the legacy
// byte stream into words and hands them to the sink registered for the
// originating source, without taking any lock.
func (d *Driver) handlePacket(source coremidi.Source, packet coremidi.Packet) {
	sinks, _ := d.sinks.Load().(map[string]func([]uint32))
	sink := sinks[source.Name()]
	if sink == nil {
		return
	}

	var words [8]uint32
	n := 0
	data := packet.Data
	for i := 0; i < len(data); {
		status := data[i]
		if status < 0x80 {
			break
		}
		size := 3
		switch status & 0xF0 {
		case 0xC0, 0xD0:
			size = 2
		}
		if i+size > len(data) {
			break
		}
		var d1, d2 byte
		d1 = data[i+1]
		if size == 3 {
			d2 = data[i+2]
		}
		words[n] = wire.PackVoice(status, d1, d2)
		n++
		if n == len(words) {
			sink(words[:n])
			n = 0
		}
		i += size
	}
	if n > 0 {
		sink(words[:n])
	}
}

// Inputs enumerates the sources currently visible to CoreMIDI.
func (d *Driver) Inputs() ([]contracts.DeviceInfo, error) {
	sources, err := coremidi.AllSources()
	if err != nil {
		return nil, fmt.Errorf("listing MIDI sources: %w", err)
	}
	devices := make([]contracts.DeviceInfo, len(sources))
	for i, source := range sources {
		entity := source.Entity()
		devices[i] = contracts.DeviceInfo{
			ID:           inputID(source.Name()),
			Name:         source.Name(),
			Manufacturer: entity.Manufacturer(),
			Direction:    contracts.Input,
			Online:       true,
		}
	}
	return devices, nil
}

// Outputs enumerates the destinations currently visible to CoreMIDI.
func (d *Driver) Outputs() ([]contracts.DeviceInfo, error) {
	destinations, err := coremidi.AllDestinations()
	if err != nil {
		return nil, fmt.Errorf("listing MIDI destinations: %w", err)
	}
	devices := make([]contracts.DeviceInfo, len(destinations))
	for i, dest := range destinations {
		entity := dest.Entity()
		devices[i] = contracts.DeviceInfo{
			ID:           outputID(dest.Name()),
			Name:         dest.Name(),
			Manufacturer: entity.Manufacturer(),
			Direction:    contracts.Output,
			Online:       true,
		}
	}
	return devices, nil
}

// Connect attaches the sink to the named source through the shared input
// port.
func (d *Driver) Connect(id contracts.EndpointID, sink func(words []uint32)) error {
	name, ok := inputName(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEndpoint, id)
	}
	source, err := findSource(name)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, connected := d.conns[id]; connected {
		return nil
	}
	conn, err := d.in.Connect(source)
	if err != nil {
		return fmt.Errorf("connecting to %q: %w", name, err)
	}
	d.conns[id] = conn
	d.storeSink(name, sink)
	return nil
}

// Disconnect detaches the source and removes its sink.
func (d *Driver) Disconnect(id contracts.EndpointID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	conn, connected := d.conns[id]
	if !connected {
		return nil
	}
	conn.Disconnect()
	delete(d.conns, id)
	if name, ok := inputName(id); ok {
		d.storeSink(name, nil)
	}
	return nil
}

// Send delivers a legacy byte message to the named destination.
func (d *Driver) Send(id contracts.EndpointID, data []byte) error {
	name, ok := outputName(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEndpoint, id)
	}
	destinations, err := coremidi.AllDestinations()
	if err != nil {
		return fmt.Errorf("listing MIDI destinations: %w", err)
	}
	for i := range destinations {
		if destinations[i].Name() == name {
			packet := coremidi.NewPacket(data)
			return packet.Send(&d.out, &destinations[i])
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownEndpoint, id)
}

// Close disconnects every source. CoreMIDI disposes ports together with
// the owning client when the process releases it.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, conn := range d.conns {
		conn.Disconnect()
		delete(d.conns, id)
	}
	d.sinks.Store(map[string]func([]uint32){})
	return nil
}

// storeSink replaces the copy-on-write sink map. Callers hold d.mu.
func (d *Driver) storeSink(name string, sink func(words []uint32)) {
	old, _ := d.sinks.Load().(map[string]func([]uint32))
	next := make(map[string]func([]uint32), len(old)+1)
	for k, v := range old {
		next[k] = v
	}
	if sink == nil {
		delete(next, name)
	} else {
		next[name] = sink
	}
	d.sinks.Store(next)
}

func findSource(name string) (coremidi.Source, error) {
	sources, err := coremidi.AllSources()
	if err != nil {
		return coremidi.Source{}, fmt.Errorf("listing MIDI sources: %w", err)
	}
	for _, source := range sources {
		if source.Name() == name {
			return source, nil
		}
	}
	return coremidi.Source{}, fmt.Errorf("%w: %s", ErrUnknownEndpoint, name)
}

func inputID(name string) contracts.EndpointID {
	return contracts.EndpointID("in:" + name)
}

func outputID(name string) contracts.EndpointID {
	return contracts.EndpointID("out:" + name)
}

func inputName(id contracts.EndpointID) (string, bool) {
	const prefix = "in:"
	s := string(id)
	if len(s) <= len(prefix) || s[:len(prefix)] != prefix {
		return "", false
	}
	return s[len(prefix):], true
}

func outputName(id contracts.EndpointID) (string, bool) {
	const prefix = "out:"
	s := string(id)
	if len(s) <= len(prefix) || s[:len(prefix)] != prefix {
		return "", false
	}
	return s[len(prefix):], true
}
