package remap

import (
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
)

// flushPending taps the buffered combo candidates in press order, either only
// those whose combo window has elapsed or, if all is set, every one of them.
// Space is only ever dropped from the buffer, it is resolved on release.
func (e *Engine) flushPending(now time.Time, all bool) {
	if len(e.pending) == 0 {
		return
	}
	buffered := make([]recentDown, 0, len(e.pending))
	for code, at := range e.pending {
		buffered = append(buffered, recentDown{code: code, at: at})
	}
	sort.Slice(buffered, func(i, j int) bool {
		if buffered[i].at.Equal(buffered[j].at) {
			return buffered[i].code < buffered[j].code
		}
		return buffered[i].at.Before(buffered[j].at)
	})

	for _, b := range buffered {
		if b.code == e.keys.Space {
			delete(e.pending, b.code)
			continue
		}
		if !all && now.Sub(b.at) <= e.comboWindow {
			continue
		}
		delete(e.pending, b.code)
		rec, ok := e.store.get(b.code)
		if ok && rec.outputSent {
			// resolved by something else already, the buffer entry is stale
			continue
		}
		log.Debugf("Engine: flushing %s", keyName(b.code))
		e.sink.Tap(b.code)
		if !ok {
			continue
		}
		if rec.isDown() {
			rec.phase = KeyPhaseTap
		}
		rec.outputSent = true
		if e.isRepeatKey(b.code) {
			rec.lastTapAt = now
		}
	}
}
