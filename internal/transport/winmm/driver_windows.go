//go:build windows

// Package winmm is the native Windows driver, built on winmm.dll via
// golang.org/x/sys/windows.
package winmm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/cgcardona/Stori-sub007/internal/wire"
	"github.com/cgcardona/Stori-sub007/sdk/contracts"
)

// ErrUnknownEndpoint is returned when an endpoint ID does not address a
// currently visible device.
var ErrUnknownEndpoint = errors.New("unknown MIDI endpoint")

const (
	callbackFunction = 0x00030000 // callback parameter is a function
	mimData          = 0x3C3      // MIDI data received
)

// midiInCaps mirrors the MIDIINCAPSW structure.
type midiInCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	dwSupport      uint32
}

// midiOutCaps mirrors the MIDIOUTCAPSW structure.
type midiOutCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	wTechnology    uint16
	wVoices        uint16
	wNotes         uint16
	wChannelMask   uint16
	dwSupport      uint32
}

var (
	winmm                 = windows.NewLazySystemDLL("winmm.dll")
	procMidiInGetNumDevs  = winmm.NewProc("midiInGetNumDevs")
	procMidiInGetDevCaps  = winmm.NewProc("midiInGetDevCapsW")
	procMidiInOpen        = winmm.NewProc("midiInOpen")
	procMidiInStart       = winmm.NewProc("midiInStart")
	procMidiInStop        = winmm.NewProc("midiInStop")
	procMidiInClose       = winmm.NewProc("midiInClose")
	procMidiOutGetNumDevs = winmm.NewProc("midiOutGetNumDevs")
	procMidiOutGetDevCaps = winmm.NewProc("midiOutGetDevCapsW")
	procMidiOutOpen       = winmm.NewProc("midiOutOpen")
	procMidiOutShortMsg   = winmm.NewProc("midiOutShortMsg")
	procMidiOutClose      = winmm.NewProc("midiOutClose")
)

// inConn is one open input device. The struct is pinned in Driver.ins so
// the callback's instance pointer stays valid for the connection's life.
type inConn struct {
	handle windows.Handle
	sink   func(words []uint32)
	buf    [1]uint32
}

// Driver owns winmm input and output device handles.
type Driver struct {
	log contracts.Logger

	mu       sync.Mutex
	ins      map[uint32]*inConn
	outs     map[uint32]windows.Handle
	callback uintptr
}

// New prepares the winmm driver. Device handles are opened lazily on
// Connect and Send.
func New(clientName string, log contracts.Logger) (*Driver, error) {
	d := &Driver{
		log:  log,
		ins:  make(map[uint32]*inConn),
		outs: make(map[uint32]windows.Handle),
	}
	d.callback = windows.NewCallback(midiInCallback)
	log.Info("winmm MIDI driver created", log.Field().String("name", clientName))
	return d, nil
}

// Inputs enumerates input devices.
func (d *Driver) Inputs() ([]contracts.DeviceInfo, error) {
	r0, _, _ := procMidiInGetNumDevs.Call()
	count := uint32(r0)
	devices := make([]contracts.DeviceInfo, 0, count)
	for i := uint32(0); i < count; i++ {
		var caps midiInCaps
		r1, _, _ := procMidiInGetDevCaps.Call(
			uintptr(i),
			uintptr(unsafe.Pointer(&caps)),
			unsafe.Sizeof(caps),
		)
		if r1 != 0 {
			continue
		}
		devices = append(devices, contracts.DeviceInfo{
			ID:           contracts.EndpointID(fmt.Sprintf("in:%d", i)),
			Name:         windows.UTF16ToString(caps.szPname[:]),
			Manufacturer: fmt.Sprintf("MID:%d PID:%d", caps.wMid, caps.wPid),
			Direction:    contracts.Input,
			Online:       true,
		})
	}
	return devices, nil
}

// Outputs enumerates output devices.
func (d *Driver) Outputs() ([]contracts.DeviceInfo, error) {
	r0, _, _ := procMidiOutGetNumDevs.Call()
	count := uint32(r0)
	devices := make([]contracts.DeviceInfo, 0, count)
	for i := uint32(0); i < count; i++ {
		var caps midiOutCaps
		r1, _, _ := procMidiOutGetDevCaps.Call(
			uintptr(i),
			uintptr(unsafe.Pointer(&caps)),
			unsafe.Sizeof(caps),
		)
		if r1 != 0 {
			continue
		}
		devices = append(devices, contracts.DeviceInfo{
			ID:           contracts.EndpointID(fmt.Sprintf("out:%d", i)),
			Name:         windows.UTF16ToString(caps.szPname[:]),
			Manufacturer: fmt.Sprintf("MID:%d PID:%d", caps.wMid, caps.wPid),
			Direction:    contracts.Output,
			Online:       true,
		})
	}
	return devices, nil
}

// Connect opens the input device and starts capture into sink.
func (d *Driver) Connect(id contracts.EndpointID, sink func(words []uint32)) error {
	deviceID, err := parseID(id, "in:")
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, connected := d.ins[deviceID]; connected {
		return nil
	}

	conn := &inConn{sink: sink}
	r1, _, callErr := procMidiInOpen.Call(
		uintptr(unsafe.Pointer(&conn.handle)),
		uintptr(deviceID),
		d.callback,
		uintptr(unsafe.Pointer(conn)),
		callbackFunction,
	)
	if r1 != 0 {
		return fmt.Errorf("opening MIDI input %d: %v", deviceID, callErr)
	}
	r1, _, callErr = procMidiInStart.Call(uintptr(conn.handle))
	if r1 != 0 {
		procMidiInClose.Call(uintptr(conn.handle))
		return fmt.Errorf("starting MIDI input %d: %v", deviceID, callErr)
	}
	d.ins[deviceID] = conn
	return nil
}

// Disconnect stops and closes the input device.
func (d *Driver) Disconnect(id contracts.EndpointID) error {
	deviceID, err := parseID(id, "in:")
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	conn, connected := d.ins[deviceID]
	if !connected {
		return nil
	}
	procMidiInStop.Call(uintptr(conn.handle))
	procMidiInClose.Call(uintptr(conn.handle))
	delete(d.ins, deviceID)
	return nil
}

// Send delivers a short message to the output device, opening it on first
// use.
func (d *Driver) Send(id contracts.EndpointID, data []byte) error {
	deviceID, err := parseID(id, "out:")
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	handle, open := d.outs[deviceID]
	if !open {
		r1, _, callErr := procMidiOutOpen.Call(
			uintptr(unsafe.Pointer(&handle)),
			uintptr(deviceID),
			0, 0, 0,
		)
		if r1 != 0 {
			return fmt.Errorf("opening MIDI output %d: %v", deviceID, callErr)
		}
		d.outs[deviceID] = handle
	}

	msg := uint32(data[0])
	if len(data) > 1 {
		msg |= uint32(data[1]) << 8
	}
	if len(data) > 2 {
		msg |= uint32(data[2]) << 16
	}
	r1, _, callErr := procMidiOutShortMsg.Call(uintptr(handle), uintptr(msg))
	if r1 != 0 {
		return fmt.Errorf("sending to MIDI output %d: %v", deviceID, callErr)
	}
	return nil
}

// Close stops and closes every open device handle.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, conn := range d.ins {
		procMidiInStop.Call(uintptr(conn.handle))
		procMidiInClose.Call(uintptr(conn.handle))
		delete(d.ins, id)
	}
	for id, handle := range d.outs {
		procMidiOutClose.Call(uintptr(handle))
		delete(d.outs, id)
	}
	return nil
}

// midiInCallback runs on the winmm callback thread. It packs the short
// message into a word and hands it to the connection's sink.
func midiInCallback(hMidiIn uintptr, wMsg uint32, dwInstance uintptr, dwParam1 uintptr, dwParam2 uintptr) uintptr {
	if wMsg != mimData {
		return 0
	}
	conn := (*inConn)(unsafe.Pointer(dwInstance))
	if conn == nil || conn.sink == nil {
		return 0
	}
	status := byte(dwParam1 & 0xFF)
	data1 := byte((dwParam1 >> 8) & 0xFF)
	data2 := byte((dwParam1 >> 16) & 0xFF)
	conn.buf[0] = wire.PackVoice(status, data1, data2)
	conn.sink(conn.buf[:])
	return 0
}

func parseID(id contracts.EndpointID, prefix string) (uint32, error) {
	s := string(id)
	if !strings.HasPrefix(s, prefix) {
		return 0, fmt.Errorf("%w: %s", ErrUnknownEndpoint, id)
	}
	n, err := strconv.ParseUint(s[len(prefix):], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrUnknownEndpoint, id)
	}
	return uint32(n), nil
}
