package virtual

import (
	"sync"

	evdev "github.com/gvalkov/golang-evdev"
	"github.com/jbensmann/chordkeys/config"
	"github.com/jbensmann/uinput"
	log "github.com/sirupsen/logrus"
)

// Keyboard is the virtual keyboard all output goes through, both the synthetic
// events of the remap engine and the raw events that are passed through.
//
// Key repeat of held keys is done by the compositor, so the repeatable variants
// emit the same events as Press and Release.
type Keyboard struct {
	lock           sync.Mutex
	uinputKeyboard uinput.Keyboard
	isPressed      map[uint16]bool
	layout         layout
}

// NewKeyboard creates the virtual keyboard. Text is typed with the given
// layout, which has to match the layout of the system.
func NewKeyboard(name string, textLayout string) (*Keyboard, error) {
	var err error
	v := Keyboard{
		isPressed: make(map[uint16]bool),
		layout:    layoutByName(textLayout),
	}
	v.uinputKeyboard, err = uinput.CreateKeyboard("/dev/uinput", []byte(name))
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (v *Keyboard) Press(code uint16) {
	v.lock.Lock()
	defer v.lock.Unlock()
	v.keyDown(code)
}

func (v *Keyboard) Release(code uint16) {
	v.lock.Lock()
	defer v.lock.Unlock()
	v.keyUp(code)
}

func (v *Keyboard) Tap(code uint16) {
	v.lock.Lock()
	defer v.lock.Unlock()
	v.tap(code)
}

func (v *Keyboard) PressRepeatable(code uint16) {
	v.lock.Lock()
	defer v.lock.Unlock()
	v.keyDown(code)
}

func (v *Keyboard) ReleaseRepeatable(code uint16) {
	v.lock.Lock()
	defer v.lock.Unlock()
	v.keyUp(code)
}

// TypeText types the text with the configured layout. Characters that cannot be
// typed are skipped.
func (v *Keyboard) TypeText(text string) {
	v.lock.Lock()
	defer v.lock.Unlock()

	log.Debugf("Keyboard: typing %q", text)
	for _, r := range text {
		stroke, ok := v.layout.strokeFor(r)
		if !ok {
			log.Warnf("Keyboard: cannot type %q", r)
			continue
		}
		// a shift held by the user stays down
		needsShift := stroke.shift && !v.isPressed[evdev.KEY_LEFTSHIFT]
		if needsShift {
			v.keyDown(evdev.KEY_LEFTSHIFT)
		}
		v.tap(stroke.code)
		if needsShift {
			v.keyUp(evdev.KEY_LEFTSHIFT)
		}
	}
}

// Forward emits a raw event that was not suppressed. A repeated press is
// emitted as another press, which the kernel drops while the key is down.
func (v *Keyboard) Forward(code uint16, isPress bool) {
	v.lock.Lock()
	defer v.lock.Unlock()
	if isPress {
		v.keyDown(code)
	} else {
		v.keyUp(code)
	}
}

// ReleaseAll releases every key that is still pressed.
func (v *Keyboard) ReleaseAll() {
	v.lock.Lock()
	defer v.lock.Unlock()
	for code := range v.isPressed {
		v.keyUp(code)
	}
}

// Close releases the keys that are still pressed and removes the device.
func (v *Keyboard) Close() {
	v.lock.Lock()
	defer v.lock.Unlock()
	for code := range v.isPressed {
		v.keyUp(code)
	}
	_ = v.uinputKeyboard.Close()
}

func (v *Keyboard) keyDown(code uint16) {
	log.Debugf("Keyboard: pressing %v (%v)", keyAlias(code), code)
	err := v.uinputKeyboard.KeyDown(int(code))
	if err != nil {
		log.Warnf("Keyboard: failed to press the key %v: %v", code, err)
		return
	}
	v.isPressed[code] = true
}

func (v *Keyboard) keyUp(code uint16) {
	log.Debugf("Keyboard: releasing %v (%v)", keyAlias(code), code)
	err := v.uinputKeyboard.KeyUp(int(code))
	if err != nil {
		log.Warnf("Keyboard: failed to release the key %v: %v", code, err)
	}
	delete(v.isPressed, code)
}

func (v *Keyboard) tap(code uint16) {
	log.Debugf("Keyboard: tapping %v (%v)", keyAlias(code), code)
	err := v.uinputKeyboard.KeyPress(int(code))
	if err != nil {
		log.Warnf("Keyboard: failed to tap the key %v: %v", code, err)
	}
}

func keyAlias(code uint16) string {
	alias, _ := config.GetKeyAlias(code)
	return alias
}
