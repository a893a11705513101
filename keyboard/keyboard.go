package keyboard

import (
	"fmt"
	"sync"

	evdev "github.com/gvalkov/golang-evdev"
	"github.com/jbensmann/chordkeys/config"
	log "github.com/sirupsen/logrus"
)

// Processor decides for each key event whether it is suppressed.
type Processor interface {
	ProcessEvent(code uint16, isDown bool) bool
}

// Forwarder emits the key events that are not suppressed.
type Forwarder interface {
	Forward(code uint16, isPress bool)
}

type Device struct {
	deviceName    string
	device        *evdev.InputDevice
	lock          sync.Mutex
	state         DeviceState
	lastOpenError string
	processor     Processor
	forwarder     Forwarder
}

type DeviceState int

const (
	StateNotOpen DeviceState = iota
	StateOpenFailed
	StateOpen
)

func NewKeyboardDevice(device *evdev.InputDevice, processor Processor, forwarder Forwarder) *Device {
	k := Device{
		deviceName: device.Fn,
		device:     device,
		state:      StateNotOpen,
		processor:  processor,
		forwarder:  forwarder,
	}
	return &k
}

// GrabDevice grabs the device exclusively and starts reading from it.
func (k *Device) GrabDevice() error {
	k.lock.Lock()
	defer k.lock.Unlock()

	err := k.device.Grab()
	if err != nil {
		k.state = StateOpenFailed
		k.lastOpenError = err.Error()
		return err
	}

	log.Debugf("Device name: %s (%s)", k.device.Fn, k.device.Name)
	log.Debugf("Evdev protocol version: %d", k.device.EvdevVersion)
	info := fmt.Sprintf("bus 0x%04x, vendor 0x%04x, product 0x%04x, version 0x%04x",
		k.device.Bustype, k.device.Vendor, k.device.Product, k.device.Version)
	log.Debugf("Device info: %s", info)

	k.state = StateOpen
	go k.readKeyboard()
	return nil
}

// readKeyboard reads from the device in an infinite loop.
// If the device disconnects in between this method returns and sets the state to not open.
func (k *Device) readKeyboard() {
	for {
		if !k.IsOpen() {
			return
		}
		events, err := k.device.Read()
		if err != nil {
			if k.IsOpen() {
				log.Warnf("Failed to read keyboard %s: %v", k.deviceName, err)
			}
			k.setState(StateNotOpen)
			return
		}
		for _, event := range events {
			if event.Type != evdev.EV_KEY {
				continue
			}
			// 0 is a release, 1 a press and 2 a repeat
			if event.Value < 0 || event.Value > 2 {
				continue
			}
			k.handleKey(event.Code, event.Value != 0)
		}
	}
}

func (k *Device) handleKey(code uint16, isDown bool) {
	if log.IsLevelEnabled(log.DebugLevel) {
		codeAlias, exists := config.GetKeyAlias(code)
		if !exists {
			codeAlias = "?"
		}
		fmtString := "Pressed:  "
		if !isDown {
			fmtString = "Released: "
		}
		fmtString += "%s (%d)"
		log.Debugf(fmtString, codeAlias, code)
	}

	if !k.processor.ProcessEvent(code, isDown) {
		k.forwarder.Forward(code, isDown)
	}
}

// Close ungrabs and closes the device, which also ends the read loop.
func (k *Device) Close() {
	k.lock.Lock()
	wasOpen := k.state == StateOpen
	k.state = StateNotOpen
	k.lock.Unlock()

	if wasOpen {
		if err := k.device.Release(); err != nil {
			log.Debugf("Failed to release %s: %v", k.deviceName, err)
		}
	}
	if k.device.File != nil {
		_ = k.device.File.Close()
	}
}

func (k *Device) setState(state DeviceState) {
	k.lock.Lock()
	defer k.lock.Unlock()
	k.state = state
}

// DeviceName returns the name of the keyboard device.
func (k *Device) DeviceName() string {
	return k.deviceName
}

// IsOpen returns true if the device has been opened successfully.
func (k *Device) IsOpen() bool {
	k.lock.Lock()
	defer k.lock.Unlock()
	return k.state == StateOpen
}

// LastOpenError returns the last error on opening the device.
func (k *Device) LastOpenError() string {
	k.lock.Lock()
	defer k.lock.Unlock()
	return k.lastOpenError
}
