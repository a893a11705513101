package remap

import (
	"testing"
	"time"
)

func TestUnmapped(t *testing.T) {
	tests := [][]string{
		{"Px Rx", "=Px =Rx"}, // keys without a role are passed through
		{"Px Py Rx Ry", "=Px =Py =Rx =Ry"},
		{"Px Px Px Rx", "=Px =Px =Px =Rx"},
		{"Rx", "=Rx"}, // release without a press
	}
	testEngine(t, "", tests)
}

func TestSpaceAndShift(t *testing.T) {
	tests := [][]string{
		{"Pspace Rspace", "Tspace"},
		{"Pspace 100 Rspace", "Tspace"},
		{"Pspace 200 Rspace", "Pleftshift Tspace Rleftshift"}, // long solitary hold
		{"Pspace 60 Px Rx Rspace", "Pleftshift =Px =Rx Rleftshift"},
		{"Pspace 60 Px Rspace Rx", "Pleftshift =Px Rleftshift =Rx"},
		{"Pspace 200 Px Rx Rspace", "Pleftshift =Px =Rx Rleftshift"},
		{"Pspace 20 Px Rx Rspace", "Tspace Tx"}, // rolled over too fast, order is kept
		{"Pspace Pspace Pspace Rspace", "Tspace"},
	}
	testEngine(t, "", tests)
}

func TestControlKeys(t *testing.T) {
	tests := [][]string{
		{"Pd Rd", "Td"},
		{"Pd 100 Rd", "Td"},
		{"Pd 200 Rd", "Tleftctrl"},
		{"Pk 200 Rk", "Trightctrl"},
		{"Pd 140 Px Rx Rd", "Pleftctrl =Px =Rx Rleftctrl"},
		{"Pk 140 Px Rx Rk", "Prightctrl =Px =Rx Rrightctrl"},
		{"Pd 60 Px Rx Rd", "Td =Px =Rx"}, // within the tap grace
		{"Pd 60 Px Rd Rx", "Td =Px =Rx"},
		{"Pd 50 Pk Rk Rd", "Td Tk"},
		{"Pd 60 Pk 10 Rk Rd", "Td Tk"},
		{"Pd 140 Pk 10 Rk Rd", "Pleftctrl Tk Rleftctrl"},
		{"Pd 140 Pj 10 Rd Rj", "Pleftctrl Tj Rleftctrl"}, // buffered key is flushed before the modifier goes up
	}
	testEngine(t, "", tests)
}

func TestSpaceWithControlKeys(t *testing.T) {
	tests := [][]string{
		{"Pspace 60 Pd 10 Rd Rspace", "Pleftshift Td Rleftshift"},
		{"Pspace 60 Pd 200 Px Rx Rd Rspace", "Pleftshift Pleftctrl =Px =Rx Rleftctrl Rleftshift"},
		{"Pd 60 Pspace 60 Px Rx Rspace Rd", "Td Pleftshift =Px =Rx Rleftshift"}, // d keeps its face value
		{"Pd 60 Pspace Rspace Rd", "Td Tspace"},
		{"Pd 140 Pspace 60 Px Rx Rspace Rd", "Pleftctrl Pleftshift =Px =Rx Rleftshift Rleftctrl"},
	}
	testEngine(t, "", tests)
}

func TestDoubleTapRepeat(t *testing.T) {
	tests := [][]string{
		{"Pd Rd 50 Pd Rd", "Td =Pd =Rd"},
		{"Pd Rd 50 Pd Pd Pd Rd", "Td =Pd =Pd =Pd =Rd"},
		{"Pd Rd 250 Pd Rd", "Td Td"}, // too slow
		{"Pk Rk 100 Pk Pk Rk", "Tk =Pk =Pk =Rk"},
		{"Pj Rj 50 Pj Pj Rj", "Tj =Pj =Pj =Rj"},
		{"Pj 100 Rj 50 Pj Pj Rj", "Tj =Pj =Pj =Rj"}, // flushed taps count as well
		{"Pd 200 Rd 50 Pd Rd", "Tleftctrl Td"},    // a hold is no tap
		{"Px Rx 50 Px Rx", "=Px =Rx =Px =Rx"},
	}
	testEngine(t, "", tests)
}

func TestRepeatPassthroughIsKept(t *testing.T) {
	tests := [][]string{
		{"Pj Rj 50 Pj 10 Px Rx Rj", "Tj =Pj =Px =Rx =Rj"},
		{"Pj Rj 20 Pj 10 Px Rx Rj", "Tj =Pj =Px =Rx =Rj"},
		{"Pj Rj 50 Pj 10 Pk Rk Rj", "Tj =Pj Tk =Rj"},
		{"Pj Rj 20 Pj 10 Pk Rk Rj", "Tj =Pj Tk =Rj"}, // no escape combo
		{"Pj Rj 20 Pj 10 Pd Rd Rj", "Tj =Pj Td =Rj"}, // j is not tapped again
		{"Pj Rj 20 Pj 10 Pw Rw Rj", "Tj =Pj Tw =Rj"},
	}
	testEngine(t, "", tests)
}

func TestThresholdsFromConfig(t *testing.T) {
	configStr := `
holdThreshold: 300
tapGrace: 250
`
	tests := [][]string{
		{"Pspace 200 Rspace", "Tspace"},
		{"Pspace 320 Rspace", "Pleftshift Tspace Rleftshift"},
		{"Pd 200 Px Rx Rd", "Td =Px =Rx"},
	}
	testEngine(t, configStr, tests)
}

func TestKeyPhase(t *testing.T) {
	conf := parseTestConfig(t, "")
	engine, _, clock := newTestEngine(conf)
	d := parseKey(t, "d")
	x := parseKey(t, "x")

	if phase := engine.KeyPhase(d); phase != KeyPhaseIdle {
		t.Errorf("expected idle but got %v", phase)
	}
	engine.ProcessEvent(d, true)
	if phase := engine.KeyPhase(d); phase != KeyPhaseUndecided {
		t.Errorf("expected undecided but got %v", phase)
	}
	advance(engine, clock, 140*time.Millisecond)
	engine.ProcessEvent(x, true)
	if phase := engine.KeyPhase(d); phase != KeyPhaseHold {
		t.Errorf("expected hold but got %v", phase)
	}
	if phase := engine.KeyPhase(x); phase != KeyPhaseTap {
		t.Errorf("expected tap but got %v", phase)
	}
	engine.ProcessEvent(d, false)
	if phase := engine.KeyPhase(d); phase != KeyPhaseIdle {
		t.Errorf("expected idle but got %v", phase)
	}
}
