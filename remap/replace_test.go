package remap

import (
	"testing"
)

func TestReplacements(t *testing.T) {
	tests := [][]string{
		{"Pcapslock Rcapslock", "Tzenkakuhankaku"},
		{"Pcapslock Pcapslock Pcapslock Rcapslock", "Tzenkakuhankaku"}, // once per press
		{"Pcapslock Rcapslock Pcapslock Rcapslock", "Tzenkakuhankaku Tzenkakuhankaku"},
		{"Pmuhenkan Rmuhenkan", "Tbackspace"},
		{"Pmuhenkan Pmuhenkan Rmuhenkan", "Tbackspace Tbackspace"},
		{"Phenkan Rhenkan", "Tenter"},
		{"Pspace 60 Phenkan Rhenkan Rspace", "Pleftshift Tenter Rleftshift"},
		{"Pspace 60 Pmuhenkan Rmuhenkan 200 Rspace", "Pleftshift Tbackspace Rleftshift"},
		{"Pd 60 Pmuhenkan Rmuhenkan Rd", "Td Tbackspace"},
		{"Pd 60 Pspace 60 Phenkan Rhenkan Rspace Rd", "Td Pleftshift Tenter Rleftshift"},
	}
	testEngine(t, "", tests)
}

func TestAlternativeCapsLock(t *testing.T) {
	configStr := `
altCapsLock:
- grave
- '58'
keys:
  imeToggle: hiragana
`
	tests := [][]string{
		{"Pgrave Rgrave", "Thiragana"},
		{"Pcapslock Rcapslock", "Thiragana"},
		{"Pgrave Pcapslock Rgrave Rcapslock", "Thiragana Thiragana"},
	}
	testEngine(t, configStr, tests)
}
