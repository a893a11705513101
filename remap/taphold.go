package remap

import (
	"slices"
	"time"

	log "github.com/sirupsen/logrus"
)

// modifierKey is a dual-role key that becomes a modifier when held.
type modifierKey struct {
	key      uint16
	modifier uint16
}

func (e *Engine) modifierKeys() [2]modifierKey {
	return [2]modifierKey{
		{key: e.keys.D, modifier: e.keys.LeftControl},
		{key: e.keys.K, modifier: e.keys.RightControl},
	}
}

// pressDualRole handles the first press of Space, D, K or Tab. The key stays
// undecided until it is released or another key is pressed.
func (e *Engine) pressDualRole(code uint16, now time.Time) bool {
	e.interact(code, now)
	return true
}

// interact resolves the pending dual-role keys because another key went down.
// It returns true if the other key was taken by the arrow layer.
//
// Taps are emitted before Shift is asserted, so that a key pressed before
// Space keeps its face value.
func (e *Engine) interact(other uint16, now time.Time) bool {
	if e.layerOnOtherKeyDown(other) {
		return true
	}

	for _, code := range e.undecidedTapHoldKeys(other) {
		rec, _ := e.store.get(code)
		delete(e.pending, code)
		if now.Sub(rec.pressedAt) < e.tapGrace {
			// pressed only shortly before, so this is fast typing
			log.Debugf("Engine: %s pressed within the tap grace, tapping", keyName(code))
			e.sink.Tap(code)
			rec.phase = KeyPhaseTap
			rec.outputSent = true
			if e.isRepeatKey(code) {
				rec.lastTapAt = now
			}
			continue
		}
		rec.phase = KeyPhaseHold
		if modifier, ok := e.modifierFor(code); ok {
			log.Debugf("Engine: %s held, pressing %s", keyName(code), keyName(modifier))
			e.sink.Press(modifier)
		} else {
			log.Debugf("Engine: %s held, activating the layer", keyName(code))
		}
	}

	// the layer activator does not decide space
	if other != e.keys.Space && other != e.keys.Tab {
		e.chordSpace()
	}
	return false
}

// undecidedTapHoldKeys returns D, K and Tab if they are waiting for a decision,
// in press order.
func (e *Engine) undecidedTapHoldKeys(other uint16) []uint16 {
	var codes []uint16
	for _, code := range []uint16{e.keys.D, e.keys.K, e.keys.Tab} {
		if code == other {
			continue
		}
		if rec, ok := e.store.get(code); ok && rec.undecided() {
			codes = append(codes, code)
		}
	}
	slices.SortStableFunc(codes, func(a, b uint16) int {
		ra, _ := e.store.get(a)
		rb, _ := e.store.get(b)
		return ra.pressedAt.Compare(rb.pressedAt)
	})
	return codes
}

func (e *Engine) modifierFor(code uint16) (uint16, bool) {
	for _, m := range e.modifierKeys() {
		if m.key == code {
			return m.modifier, true
		}
	}
	return 0, false
}

// chordSpace turns an undecided Space into a held Shift.
func (e *Engine) chordSpace() {
	rec, ok := e.store.get(e.keys.Space)
	if !ok || !rec.undecided() {
		return
	}
	log.Debugf("Engine: space held with another key, pressing %s", keyName(e.keys.Shift))
	e.sink.Press(e.keys.Shift)
	rec.phase = KeyPhaseHold
	delete(e.pending, e.keys.Space)
}

func (e *Engine) releaseDualRole(code uint16, rec *keyRecord, now time.Time) {
	held := now.Sub(rec.pressedAt)

	switch code {
	case e.keys.Space:
		switch {
		case rec.phase == KeyPhaseHold:
			e.flushPending(now, true)
			e.sink.Release(e.keys.Shift)
		case rec.decided():
		case held >= e.holdThreshold:
			e.sink.Press(e.keys.Shift)
			e.sink.Tap(e.keys.Space)
			e.sink.Release(e.keys.Shift)
		default:
			e.sink.Tap(e.keys.Space)
		}

	case e.keys.Tab:
		switch {
		case rec.phase == KeyPhaseHold:
			e.layerOnActivatorUp()
		case rec.decided():
		case held < e.holdThreshold:
			e.sink.Tap(e.keys.Tab)
		default:
			// held without using the layer
			log.Debugf("Engine: tab held for %v without a layer key", held)
		}

	default:
		for _, m := range e.modifierKeys() {
			if m.key != code {
				continue
			}
			switch {
			case rec.phase == KeyPhaseHold:
				e.flushPending(now, true)
				e.sink.Release(m.modifier)
			case rec.decided():
			case held >= e.holdThreshold:
				e.sink.Tap(m.modifier)
			default:
				e.sink.Tap(m.key)
				rec.lastTapAt = now
			}
			return
		}
	}
}
