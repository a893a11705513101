package remap

import (
	"fmt"
	"sync"
	"time"

	"github.com/jbensmann/chordkeys/config"
	log "github.com/sirupsen/logrus"
)

// Engine decides for every raw key event whether it is suppressed and which
// synthetic events are emitted instead.
//
// ProcessEvent and Tick may be called from different goroutines, they are
// serialized by a single lock. A synthetic modifier that is still asserted when
// the engine is abandoned is not released by the engine, the caller has to
// release all keys of the sink on shutdown.
type Engine struct {
	mu  sync.Mutex
	now func() time.Time

	keys            config.Keymap
	holdThreshold   time.Duration
	tapGrace        time.Duration
	comboWindow     time.Duration
	doubleTapWindow time.Duration

	sink   Sink
	cursor CursorMover

	store    *keyStore
	recent   []recentDown
	pending  map[uint16]time.Time
	layerMap map[uint16]uint16

	combos       []combo
	comboKeys    map[uint16]struct{}
	repeatKeys   map[uint16]struct{}
	arrows       map[uint16]uint16
	replacements map[uint16]replacement
}

// New creates an engine for the given configuration. The cursor mover may be nil,
// in which case the cursor combos only consume their keys.
func New(conf *config.Config, sink Sink, cursor CursorMover) *Engine {
	k := conf.Keys
	e := Engine{
		now:             time.Now,
		keys:            k,
		holdThreshold:   time.Duration(conf.HoldThreshold) * time.Millisecond,
		tapGrace:        time.Duration(conf.TapGrace) * time.Millisecond,
		comboWindow:     time.Duration(conf.ComboWindow) * time.Millisecond,
		doubleTapWindow: time.Duration(conf.DoubleTapWindow) * time.Millisecond,
		sink:            sink,
		cursor:          cursor,
		store:           newKeyStore(),
		pending:         make(map[uint16]time.Time),
		layerMap:        make(map[uint16]uint16),
		combos:          newComboTable(k),
		comboKeys: keySet(k.J, k.W, k.E, k.I, k.O, k.One, k.Two, k.Three, k.Four,
			k.A, k.S, k.Z, k.H, k.L, k.C, k.M, k.Comma, k.Period),
		repeatKeys: keySet(k.D, k.K, k.H, k.J, k.L),
		arrows: map[uint16]uint16{
			k.H: k.Left,
			k.J: k.Down,
			k.K: k.Up,
			k.L: k.Right,
		},
		replacements: map[uint16]replacement{
			k.Muhenkan: {output: k.Backspace, respectSandS: true},
			k.Henkan:   {output: k.Enter, respectSandS: true},
		},
	}
	return &e
}

// ProcessEvent handles a single raw key event and returns true if it must be
// suppressed. A key repeat is reported as another press.
func (e *Engine) ProcessEvent(code uint16, isDown bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.now()

	if suppress, ok := e.replace(code, isDown, now); ok {
		return suppress
	}

	if isDown {
		if rec, ok := e.store.get(code); ok && rec.isDown() {
			return e.handleRepeat(code, rec)
		}
		log.Debugf("Engine: pressed %s", keyName(code))
		return e.handlePress(code, now)
	}
	log.Debugf("Engine: released %s", keyName(code))
	return e.handleRelease(code, now)
}

// Tick resolves buffered combo candidates whose combo window has elapsed.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.flushPending(e.now(), false)
}

// KeyPhase returns the current decision state of the given key.
func (e *Engine) KeyPhase(code uint16) KeyPhase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.phase(code)
}

func (e *Engine) handleRepeat(code uint16, rec *keyRecord) bool {
	if arrow, ok := e.layerMap[code]; ok {
		e.sink.PressRepeatable(arrow)
		return true
	}
	if rec.repeatPassthrough {
		return false
	}
	if e.isDualRole(code) || e.isComboKey(code) {
		return true
	}
	return !rec.forwarded
}

func (e *Engine) handlePress(code uint16, now time.Time) bool {
	rec := e.store.observe(code, true, now)

	// a quick second press of a repeat key lets the key through untouched,
	// unless the arrow layer claims it
	if e.isRepeatKey(code) && e.doubleTapped(rec, now) && !e.layerWouldMap(code) {
		log.Debugf("Engine: double tap of %s, enabling repeat passthrough", keyName(code))
		rec.phase = KeyPhaseTap
		rec.repeatPassthrough = true
		rec.forwarded = true
		e.interact(code, now)
		return false
	}

	e.pushRecent(code, now)
	if e.tryMatch(now) {
		return true
	}

	switch {
	case e.isComboKey(code):
		if e.interact(code, now) {
			return true
		}
		log.Debugf("Engine: buffering combo candidate %s", keyName(code))
		e.pending[code] = now
		return true
	case e.isDualRole(code):
		return e.pressDualRole(code, now)
	default:
		e.interact(code, now)
		rec.phase = KeyPhaseTap
		rec.forwarded = true
		return false
	}
}

func (e *Engine) handleRelease(code uint16, now time.Time) bool {
	rec, ok := e.store.get(code)
	if !ok || !rec.isDown() {
		// the press was never seen, e.g. it happened before the device was grabbed
		log.Debugf("Engine: passing through release of %s without press", keyName(code))
		return false
	}
	defer rec.release()

	if rec.repeatPassthrough {
		rec.lastTapAt = now
		return false
	}
	if _, ok := e.pending[code]; ok {
		delete(e.pending, code)
		if !rec.outputSent {
			log.Debugf("Engine: combo candidate %s released, tapping", keyName(code))
			e.sink.Tap(code)
			rec.outputSent = true
			rec.lastTapAt = now
		}
		return true
	}
	if e.layerOnOtherKeyUp(code) {
		return true
	}
	if e.isDualRole(code) {
		e.releaseDualRole(code, rec, now)
	}
	return !rec.forwarded
}

func (e *Engine) isDualRole(code uint16) bool {
	return code == e.keys.Space || code == e.keys.D || code == e.keys.K || code == e.keys.Tab
}

func (e *Engine) isComboKey(code uint16) bool {
	_, ok := e.comboKeys[code]
	return ok
}

func (e *Engine) isRepeatKey(code uint16) bool {
	_, ok := e.repeatKeys[code]
	return ok
}

func (e *Engine) doubleTapped(rec *keyRecord, now time.Time) bool {
	if rec.lastTapAt.IsZero() {
		return false
	}
	since := now.Sub(rec.lastTapAt)
	return since >= 0 && since <= e.doubleTapWindow
}

func keySet(codes ...uint16) map[uint16]struct{} {
	set := make(map[uint16]struct{}, len(codes))
	for _, c := range codes {
		set[c] = struct{}{}
	}
	return set
}

func keyName(code uint16) string {
	if alias, ok := config.GetKeyAlias(code); ok {
		return alias
	}
	return fmt.Sprintf("%d", code)
}
