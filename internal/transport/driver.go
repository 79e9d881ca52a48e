package transport

import "github.com/cgcardona/Stori-sub007/sdk/contracts"

// Driver is the hardware boundary. Implementations own the platform
// client and port handles and deliver raw packed words from the
// platform's realtime callback thread.
//
// Sinks passed to Connect are invoked on that realtime thread; drivers
// must not wrap them in locks shared with the caller's goroutines.
type Driver interface {
	// Inputs and Outputs enumerate the endpoints currently visible to
	// the platform. Every call re-enumerates from scratch.
	Inputs() ([]contracts.DeviceInfo, error)
	Outputs() ([]contracts.DeviceInfo, error)

	// Connect attaches the sink to an input endpoint. Disconnect detaches
	// it; disconnecting an endpoint that is not connected is a no-op.
	Connect(id contracts.EndpointID, sink func(words []uint32)) error
	Disconnect(id contracts.EndpointID) error

	// Send delivers a raw legacy byte message to an output endpoint.
	Send(id contracts.EndpointID, data []byte) error

	// Close releases every handle the driver owns. It must be idempotent
	// and callable from any goroutine.
	Close() error
}
