package keyboard

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	evdev "github.com/gvalkov/golang-evdev"
	log "github.com/sirupsen/logrus"
)

const (
	inputDir = "/dev/input"
	// time for udev to set the permissions of a new device node
	hotplugDelay = 500 * time.Millisecond
)

// Discovery grabs all keyboards, both those present at start and those plugged
// in later.
type Discovery struct {
	configured  []string
	ignoreNames []string
	processor   Processor
	forwarder   Forwarder

	lock    sync.Mutex
	devices map[string]*Device
	closed  bool
}

// NewDiscovery creates a discovery for the configured devices, which are paths
// or device names. If none are configured, every keyboard is taken. Devices with
// one of the ignored names, i.e. our own virtual devices, are never grabbed.
func NewDiscovery(configured []string, ignoreNames []string, processor Processor, forwarder Forwarder) *Discovery {
	return &Discovery{
		configured:  configured,
		ignoreNames: ignoreNames,
		processor:   processor,
		forwarder:   forwarder,
		devices:     make(map[string]*Device),
	}
}

// Run grabs the present keyboards and then watches for new ones until the
// context is done.
func (d *Discovery) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create the device watcher: %w", err)
	}
	defer watcher.Close()
	if err = watcher.Add(inputDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", inputDir, err)
	}

	devices, err := evdev.ListInputDevices(filepath.Join(inputDir, "event*"))
	if err != nil {
		return fmt.Errorf("failed to list the input devices: %w", err)
	}
	for _, dev := range devices {
		if !d.add(dev) {
			_ = dev.File.Close()
		}
	}
	if d.OpenCount() == 0 {
		log.Warnf("No keyboard device could be opened, waiting for new devices")
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasPrefix(filepath.Base(event.Name), "event") {
				continue
			}
			switch {
			case event.Has(fsnotify.Create):
				path := event.Name
				time.AfterFunc(hotplugDelay, func() { d.open(path) })
			case event.Has(fsnotify.Remove):
				d.remove(event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warnf("Device watcher: %v", err)
		}
	}
}

func (d *Discovery) open(path string) {
	dev, err := evdev.Open(path)
	if err != nil {
		log.Debugf("Failed to open %s: %v", path, err)
		return
	}
	if !d.add(dev) {
		_ = dev.File.Close()
	}
}

// add grabs the device if it is a wanted keyboard, and returns true if so.
func (d *Discovery) add(dev *evdev.InputDevice) bool {
	if !IsKeyboard(dev) || !d.wanted(dev) {
		return false
	}

	d.lock.Lock()
	defer d.lock.Unlock()
	if d.closed {
		return false
	}
	if existing, ok := d.devices[dev.Fn]; ok {
		if existing.IsOpen() {
			return false
		}
		existing.Close()
	}

	kd := NewKeyboardDevice(dev, d.processor, d.forwarder)
	d.devices[dev.Fn] = kd
	if err := kd.GrabDevice(); err != nil {
		log.Warnf("Failed to grab %s (%s): %v", dev.Fn, dev.Name, err)
		return true
	}
	log.Infof("Grabbed keyboard %s (%s)", dev.Fn, dev.Name)
	return true
}

func (d *Discovery) remove(path string) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if kd, ok := d.devices[path]; ok {
		log.Infof("Keyboard %s was removed", path)
		kd.Close()
		delete(d.devices, path)
	}
}

// wanted returns true if the device is not ignored and, if devices are
// configured, is one of them.
func (d *Discovery) wanted(dev *evdev.InputDevice) bool {
	if slices.Contains(d.ignoreNames, dev.Name) {
		return false
	}
	if len(d.configured) == 0 {
		return true
	}
	return slices.Contains(d.configured, dev.Fn) || slices.Contains(d.configured, dev.Name)
}

// OpenCount returns the number of keyboards currently grabbed.
func (d *Discovery) OpenCount() int {
	d.lock.Lock()
	defer d.lock.Unlock()
	count := 0
	for _, kd := range d.devices {
		if kd.IsOpen() {
			count++
		}
	}
	return count
}

// Close releases all grabbed keyboards.
func (d *Discovery) Close() {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.closed = true
	for path, kd := range d.devices {
		kd.Close()
		delete(d.devices, path)
	}
}

// IsKeyboard returns true if the device has at least an A key or a keypad 1 key.
func IsKeyboard(dev *evdev.InputDevice) bool {
	for capType, codes := range dev.Capabilities {
		if capType.Type != evdev.EV_KEY {
			continue
		}
		for _, code := range codes {
			if code.Code == evdev.KEY_A || code.Code == evdev.KEY_KP1 {
				return true
			}
		}
	}
	return false
}

// FindKeyboards lists the keyboards that are currently present.
// The returned devices are already closed again.
func FindKeyboards() []*evdev.InputDevice {
	devices, _ := evdev.ListInputDevices(filepath.Join(inputDir, "event*"))

	var keyboardDevices []*evdev.InputDevice
	for _, dev := range devices {
		if IsKeyboard(dev) {
			keyboardDevices = append(keyboardDevices, dev)
		}
		_ = dev.File.Close()
	}

	log.Debugf("Auto detected keyboard devices:")
	for _, dev := range keyboardDevices {
		log.Debugf("- %s: %s", dev.Fn, dev.Name)
	}
	return keyboardDevices
}
