package remap

import (
	"slices"

	log "github.com/sirupsen/logrus"
)

// layerActive returns true if Tab is down and was not resolved to a tap.
func (e *Engine) layerActive() bool {
	rec, ok := e.store.get(e.keys.Tab)
	return ok && rec.isDown() && rec.phase != KeyPhaseTap
}

// layerWouldMap returns true if a press of the key would be turned into an arrow.
func (e *Engine) layerWouldMap(code uint16) bool {
	if !e.layerActive() {
		return false
	}
	_, ok := e.arrows[code]
	return ok
}

// layerOnOtherKeyDown maps the key to its arrow while the layer is active.
// The arrow is remembered so that it is released with the key, even if the
// layer ends in between.
func (e *Engine) layerOnOtherKeyDown(code uint16) bool {
	if !e.layerWouldMap(code) {
		return false
	}
	if rec, ok := e.store.get(code); ok {
		rec.phase = KeyPhaseTap
		rec.repeatPassthrough = false
	}
	delete(e.pending, code)
	if tab, ok := e.store.get(e.keys.Tab); ok {
		tab.phase = KeyPhaseHold
	}

	arrow, ok := e.layerMap[code]
	if !ok {
		arrow = e.arrows[code]
		e.layerMap[code] = arrow
	}
	log.Debugf("Engine: layer maps %s to %s", keyName(code), keyName(arrow))
	e.sink.PressRepeatable(arrow)
	return true
}

// layerOnOtherKeyUp releases the arrow the key was mapped to, if any.
func (e *Engine) layerOnOtherKeyUp(code uint16) bool {
	arrow, ok := e.layerMap[code]
	if !ok {
		return false
	}
	e.sink.ReleaseRepeatable(arrow)
	delete(e.layerMap, code)
	return true
}

// layerOnActivatorUp releases all arrows that are still pressed.
func (e *Engine) layerOnActivatorUp() {
	codes := make([]uint16, 0, len(e.layerMap))
	for code := range e.layerMap {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	for _, code := range codes {
		e.sink.ReleaseRepeatable(e.layerMap[code])
		delete(e.layerMap, code)
	}
}
