package remap

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// replacement is a key that always produces another key.
type replacement struct {
	output uint16
	// respectSandS makes the output interact like any other key, so that a held
	// Space acts as Shift for it
	respectSandS bool
}

// replace handles the keys that are unconditionally replaced. The second result
// is false if the key is not one of them.
func (e *Engine) replace(code uint16, isDown bool, now time.Time) (bool, bool) {
	if e.keys.IsCapsLock(code) {
		e.replaceCapsLock(code, isDown, now)
		return true, true
	}

	r, ok := e.replacements[code]
	if !ok {
		return false, false
	}
	if !isDown {
		if rec, ok := e.store.get(code); ok {
			rec.release()
		}
		return true, true
	}
	if rec, ok := e.store.get(code); !ok || !rec.isDown() {
		e.store.observe(code, true, now).phase = KeyPhaseTap
	}
	if r.respectSandS {
		e.interact(code, now)
	}
	log.Debugf("Engine: replacing %s with %s", keyName(code), keyName(r.output))
	e.sink.Tap(r.output)
	return true, true
}

// replaceCapsLock toggles the input method once per physical press.
func (e *Engine) replaceCapsLock(code uint16, isDown bool, now time.Time) {
	rec, ok := e.store.get(code)
	if !isDown {
		if ok {
			rec.release()
		}
		return
	}
	if ok && rec.isDown() {
		return
	}
	e.store.observe(code, true, now).phase = KeyPhaseTap
	log.Debugf("Engine: %s toggles the input method", keyName(code))
	e.sink.Tap(e.keys.IMEToggle)
}
