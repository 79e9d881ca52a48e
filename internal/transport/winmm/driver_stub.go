//go:build !windows

package winmm

import (
	"errors"

	"github.com/cgcardona/Stori-sub007/sdk/contracts"
)

// ErrUnavailable is returned on systems without winmm.
var ErrUnavailable = errors.New("winmm is not available on this platform")

// Driver is the non-windows placeholder; New always fails here.
type Driver struct{}

// New reports that winmm is unavailable.
func New(clientName string, log contracts.Logger) (*Driver, error) {
	return nil, ErrUnavailable
}

func (d *Driver) Inputs() ([]contracts.DeviceInfo, error) { return nil, ErrUnavailable }

func (d *Driver) Outputs() ([]contracts.DeviceInfo, error) { return nil, ErrUnavailable }

func (d *Driver) Connect(id contracts.EndpointID, sink func(words []uint32)) error {
	return ErrUnavailable
}

func (d *Driver) Disconnect(id contracts.EndpointID) error { return ErrUnavailable }

func (d *Driver) Send(id contracts.EndpointID, data []byte) error { return ErrUnavailable }

func (d *Driver) Close() error { return nil }
