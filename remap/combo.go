package remap

import (
	"time"

	"github.com/jbensmann/chordkeys/config"
	log "github.com/sirupsen/logrus"
)

const (
	// the number of most recent presses considered for a combo
	comboCandidates = 3
	// upper bound of the recent-downs window, presses beyond are dropped
	maxRecent = 32
)

// combo is a pair of keys that, pressed together, trigger an action.
type combo struct {
	first  uint16
	second uint16

	taps   []uint16
	text   string
	anchor Anchor
}

func (c combo) String() string {
	return keyName(c.first) + "+" + keyName(c.second)
}

type recentDown struct {
	code uint16
	at   time.Time
}

// newComboTable returns the combos in the order they are evaluated.
func newComboTable(k config.Keymap) []combo {
	return []combo{
		{first: k.J, second: k.K, taps: []uint16{k.Muhenkan, k.Escape}},
		{first: k.W, second: k.E, taps: []uint16{k.Q}},
		{first: k.I, second: k.O, taps: []uint16{k.P}},
		{first: k.One, second: k.Two, anchor: AnchorTopLeft},
		{first: k.Two, second: k.Three, anchor: AnchorTitleCenter},
		{first: k.Three, second: k.Four, anchor: AnchorTopRight},
		{first: k.One, second: k.Four, anchor: AnchorCenter},
		{first: k.One, second: k.Three, anchor: AnchorBottomLeft},
		{first: k.Two, second: k.Four, anchor: AnchorBottomRight},
		{first: k.D, second: k.C, taps: []uint16{k.Muhenkan}},
		{first: k.S, second: k.D, taps: []uint16{k.Delete}},
		{first: k.K, second: k.M, taps: []uint16{k.Henkan}},
		{first: k.Comma, second: k.Period, text: "_"},
		{first: k.A, second: k.Z, text: "exit"},
	}
}

func (e *Engine) pushRecent(code uint16, now time.Time) {
	e.recent = append(e.recent, recentDown{code: code, at: now})
	e.trimRecent(now)
}

// trimRecent drops the presses that are older than the hold threshold.
func (e *Engine) trimRecent(now time.Time) {
	drop := 0
	for drop < len(e.recent) && now.Sub(e.recent[drop].at) > e.holdThreshold {
		drop++
	}
	if len(e.recent)-drop > maxRecent {
		drop = len(e.recent) - maxRecent
	}
	if drop > 0 {
		e.recent = append(e.recent[:0], e.recent[drop:]...)
	}
}

func (e *Engine) removeRecent(code uint16) {
	kept := e.recent[:0]
	for _, r := range e.recent {
		if r.code != code {
			kept = append(kept, r)
		}
	}
	e.recent = kept
}

// tryMatch checks the most recent presses against the combo table and the
// pair-order rule, and executes the first match. It returns true if the latest
// press was consumed.
func (e *Engine) tryMatch(now time.Time) bool {
	e.trimRecent(now)
	if len(e.recent) == 0 {
		return false
	}
	latest := e.recent[len(e.recent)-1]

	// the arrow layer wins over any combo
	if e.layerWouldMap(latest.code) {
		return false
	}

	candidates := e.recent[max(0, len(e.recent)-comboCandidates):]
	for _, c := range e.combos {
		if latest.code != c.first && latest.code != c.second {
			continue
		}
		if e.comboLive(c.first, candidates, now) && e.comboLive(c.second, candidates, now) {
			log.Debugf("Engine: combo %v", c)
			e.consume(c.first)
			e.consume(c.second)
			e.runCombo(c)
			return true
		}
	}

	return e.stabilizePair(latest, candidates, now)
}

// comboLive returns true if the key is among the candidates, was pressed within
// the combo window and is still waiting for a decision.
func (e *Engine) comboLive(code uint16, candidates []recentDown, now time.Time) bool {
	inWindow := false
	for _, r := range candidates {
		if r.code == code && now.Sub(r.at) <= e.comboWindow {
			inWindow = true
			break
		}
	}
	if !inWindow {
		return false
	}
	rec, ok := e.store.get(code)
	return ok && rec.undecided() && !rec.repeatPassthrough
}

func (e *Engine) runCombo(c combo) {
	for _, code := range c.taps {
		e.sink.Tap(code)
	}
	if c.text != "" {
		e.sink.TypeText(c.text)
	}
	if c.anchor != AnchorNone && e.cursor != nil {
		e.cursor.MoveCursor(c.anchor)
	}
}

// stabilizePair keeps the output order of two quickly pressed keys when one of
// them was held back. Both keys are tapped in press order and consumed.
func (e *Engine) stabilizePair(latest recentDown, candidates []recentDown, now time.Time) bool {
	var prior recentDown
	found := false
	for i := len(candidates) - 2; i >= 0; i-- {
		r := candidates[i]
		if r.code != latest.code && now.Sub(r.at) <= e.comboWindow {
			prior = r
			found = true
			break
		}
	}
	if !found {
		return false
	}

	priorHeld := e.heldBack(prior.code)
	if !priorHeld && !e.heldBack(latest.code) {
		return false
	}
	if e.inPassthrough(prior.code) || e.inPassthrough(latest.code) {
		return false
	}

	log.Debugf("Engine: keeping order of %s and %s", keyName(prior.code), keyName(latest.code))
	if priorHeld {
		e.sink.Tap(prior.code)
	}
	e.sink.Tap(latest.code)
	e.consumeTapped(prior.code, now)
	e.consumeTapped(latest.code, now)
	return true
}

// heldBack returns true if no output was produced for the key so far, either
// because it is buffered for a combo or because it is an undecided dual-role key.
func (e *Engine) heldBack(code uint16) bool {
	if _, ok := e.pending[code]; ok {
		return true
	}
	return e.isDualRole(code) && e.store.phase(code) == KeyPhaseUndecided
}

func (e *Engine) inPassthrough(code uint16) bool {
	rec, ok := e.store.get(code)
	return ok && rec.repeatPassthrough
}

// consume marks the key as decided, so that neither the flush nor its release
// produces any further output.
func (e *Engine) consume(code uint16) {
	if rec, ok := e.store.get(code); ok && rec.isDown() {
		rec.phase = KeyPhaseTap
		rec.outputSent = true
	}
	delete(e.pending, code)
	e.removeRecent(code)
}

func (e *Engine) consumeTapped(code uint16, now time.Time) {
	e.consume(code)
	if rec, ok := e.store.get(code); ok && e.isRepeatKey(code) {
		rec.lastTapAt = now
	}
}
