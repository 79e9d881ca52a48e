// Package directory tracks the MIDI endpoint topology and the set of
// connected inputs. All methods run on the engine's state-owner
// goroutine; rescans triggered by topology notifications are rescheduled
// there, never executed on the realtime thread.
package directory

import (
	"github.com/cgcardona/Stori-sub007/internal/transport"
	"github.com/cgcardona/Stori-sub007/sdk/contracts"
)

// Directory owns the last scan result and the connected-input set.
type Directory struct {
	log       contracts.Logger
	transport *transport.Transport

	devices   []contracts.DeviceInfo
	connected map[contracts.EndpointID]bool
}

// New creates an empty directory over the given transport.
func New(tr *transport.Transport, log contracts.Logger) *Directory {
	return &Directory{
		log:       log,
		transport: tr,
		connected: make(map[contracts.EndpointID]bool),
	}
}

// Scan re-enumerates every endpoint into fresh records. No incremental
// diffing: topology changes are rare, so correctness wins over
// efficiency. A connected input that vanished from the platform simply
// drops out of the result; its connection entry is pruned.
func (d *Directory) Scan() []contracts.DeviceInfo {
	inputs := d.transport.Inputs()
	outputs := d.transport.Outputs()

	devices := make([]contracts.DeviceInfo, 0, len(inputs)+len(outputs))
	devices = append(devices, inputs...)
	devices = append(devices, outputs...)
	d.devices = devices

	online := make(map[contracts.EndpointID]bool, len(inputs))
	for _, in := range inputs {
		online[in.ID] = true
	}
	for id := range d.connected {
		if !online[id] {
			delete(d.connected, id)
			d.log.Info("connected input vanished", d.log.Field().String("endpoint", string(id)))
		}
	}
	return devices
}

// Devices returns the result of the last scan.
func (d *Directory) Devices() []contracts.DeviceInfo {
	return d.devices
}

// Inputs returns the input endpoints from the last scan.
func (d *Directory) Inputs() []contracts.DeviceInfo {
	return d.byDirection(contracts.Input)
}

// Outputs returns the output endpoints from the last scan.
func (d *Directory) Outputs() []contracts.DeviceInfo {
	return d.byDirection(contracts.Output)
}

func (d *Directory) byDirection(dir contracts.Direction) []contracts.DeviceInfo {
	var out []contracts.DeviceInfo
	for _, dev := range d.devices {
		if dev.Direction == dir {
			out = append(out, dev)
		}
	}
	return out
}

// Connect attaches the transport to an input. The connected set is only
// updated after the platform call succeeds, so it never drifts from the
// actual connection state.
func (d *Directory) Connect(id contracts.EndpointID) error {
	if d.connected[id] {
		return nil
	}
	if err := d.transport.Connect(id); err != nil {
		return err
	}
	d.connected[id] = true
	d.log.Info("input connected", d.log.Field().String("endpoint", string(id)))
	return nil
}

// Disconnect detaches an input. Unknown endpoints are a no-op.
func (d *Directory) Disconnect(id contracts.EndpointID) error {
	if !d.connected[id] {
		return nil
	}
	if err := d.transport.Disconnect(id); err != nil {
		return err
	}
	delete(d.connected, id)
	d.log.Info("input disconnected", d.log.Field().String("endpoint", string(id)))
	return nil
}

// ConnectAll connects every input from the last scan, continuing past
// per-endpoint failures and returning the first error seen.
func (d *Directory) ConnectAll() error {
	var first error
	for _, in := range d.Inputs() {
		if err := d.Connect(in.ID); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// DisconnectAll detaches every connected input.
func (d *Directory) DisconnectAll() error {
	var first error
	for id := range d.connected {
		if err := d.Disconnect(id); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Connected reports whether an input is currently attached.
func (d *Directory) Connected(id contracts.EndpointID) bool {
	return d.connected[id]
}

// ConnectedInputs lists the attached inputs.
func (d *Directory) ConnectedInputs() []contracts.EndpointID {
	out := make([]contracts.EndpointID, 0, len(d.connected))
	for id := range d.connected {
		out = append(out, id)
	}
	return out
}
