package transport

import (
	"runtime"

	"github.com/cgcardona/Stori-sub007/internal/transport/coremidi"
	"github.com/cgcardona/Stori-sub007/internal/transport/rtmidi"
	"github.com/cgcardona/Stori-sub007/internal/transport/winmm"
	"github.com/cgcardona/Stori-sub007/sdk/contracts"
)

// driverInitializers maps OS names to native driver constructors. Systems
// without a native entry fall back to the portable rtmidi driver.
var driverInitializers = map[string]func(clientName string, log contracts.Logger) (Driver, error){
	"darwin": func(name string, log contracts.Logger) (Driver, error) {
		d, err := coremidi.New(name, log)
		if err != nil {
			return nil, err
		}
		return d, nil
	},
	"windows": func(name string, log contracts.Logger) (Driver, error) {
		d, err := winmm.New(name, log)
		if err != nil {
			return nil, err
		}
		return d, nil
	},
}

// OpenDriver acquires the platform MIDI driver for the current OS.
func OpenDriver(clientName string, log contracts.Logger) (Driver, error) {
	if initializer, exists := driverInitializers[runtime.GOOS]; exists {
		return initializer(clientName, log)
	}
	d, err := rtmidi.New(clientName, log)
	if err != nil {
		return nil, err
	}
	return d, nil
}
