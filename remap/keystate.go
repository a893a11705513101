package remap

import "time"

// KeyPhase is the decision state of a single key.
type KeyPhase int

const (
	// KeyPhaseIdle means the key is up.
	KeyPhaseIdle KeyPhase = iota
	// KeyPhaseUndecided means the key is down and its output is not known yet.
	KeyPhaseUndecided
	// KeyPhaseTap means the key is down and was resolved to its tap output,
	// consumed by a combo or forwarded unchanged.
	KeyPhaseTap
	// KeyPhaseHold means the key is down and its hold output is asserted.
	KeyPhaseHold
)

func (p KeyPhase) String() string {
	switch p {
	case KeyPhaseIdle:
		return "idle"
	case KeyPhaseUndecided:
		return "undecided"
	case KeyPhaseTap:
		return "tap"
	case KeyPhaseHold:
		return "hold"
	}
	return "unknown"
}

type keyRecord struct {
	phase     KeyPhase
	pressedAt time.Time
	lastTapAt time.Time

	// forwarded is set if the original press was passed through, in which case
	// the release is passed through as well
	forwarded bool
	// outputSent is set if a synthetic output was emitted earlier in this press
	outputSent bool
	// repeatPassthrough lets press, auto-repeat and release flow unmodified
	repeatPassthrough bool
}

func (r *keyRecord) isDown() bool {
	return r.phase != KeyPhaseIdle
}

func (r *keyRecord) decided() bool {
	return r.phase == KeyPhaseTap || r.phase == KeyPhaseHold
}

func (r *keyRecord) undecided() bool {
	return r.phase == KeyPhaseUndecided
}

func (r *keyRecord) release() {
	r.phase = KeyPhaseIdle
	r.forwarded = false
	r.repeatPassthrough = false
}

// keyStore holds one record per key code ever seen.
type keyStore struct {
	records map[uint16]*keyRecord
}

func newKeyStore() *keyStore {
	return &keyStore{records: make(map[uint16]*keyRecord)}
}

// observe returns the record of the key, creating it on first use.
// On a press, the per-press fields are reset.
func (s *keyStore) observe(code uint16, isDown bool, now time.Time) *keyRecord {
	r, ok := s.records[code]
	if !ok {
		r = &keyRecord{}
		s.records[code] = r
	}
	if isDown {
		r.phase = KeyPhaseUndecided
		r.pressedAt = now
		r.forwarded = false
		r.outputSent = false
	}
	return r
}

func (s *keyStore) get(code uint16) (*keyRecord, bool) {
	r, ok := s.records[code]
	return r, ok
}

// phase returns the phase of the key, which is idle for keys never seen.
func (s *keyStore) phase(code uint16) KeyPhase {
	if r, ok := s.records[code]; ok {
		return r.phase
	}
	return KeyPhaseIdle
}
