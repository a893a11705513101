package remap

import (
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jbensmann/chordkeys/config"
)

// the clock advances in steps of this size, with a tick after each step
const tickStep = 5 * time.Millisecond

// sinkRecorder records the synthetic output of the engine as tokens:
// Pkey/Rkey/Tkey for press/release/tap, +key/-key for the repeatable variants,
// S:text for typed text and C:anchor for cursor moves.
type sinkRecorder struct {
	events []string
}

func (s *sinkRecorder) Press(code uint16)             { s.add("P", code) }
func (s *sinkRecorder) Release(code uint16)           { s.add("R", code) }
func (s *sinkRecorder) Tap(code uint16)               { s.add("T", code) }
func (s *sinkRecorder) PressRepeatable(code uint16)   { s.add("+", code) }
func (s *sinkRecorder) ReleaseRepeatable(code uint16) { s.add("-", code) }

func (s *sinkRecorder) TypeText(text string) {
	s.events = append(s.events, "S:"+text)
}

func (s *sinkRecorder) MoveCursor(anchor Anchor) {
	s.events = append(s.events, "C:"+anchor.String())
}

func (s *sinkRecorder) add(prefix string, code uint16) {
	s.events = append(s.events, prefix+keyName(code))
}

type testClock struct {
	now time.Time
}

func newTestEngine(conf *config.Config) (*Engine, *sinkRecorder, *testClock) {
	clock := &testClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	sink := &sinkRecorder{}
	engine := New(conf, sink, sink)
	engine.now = func() time.Time { return clock.now }
	return engine, sink, clock
}

func parseTestConfig(t *testing.T, configStr string) *config.Config {
	conf, err := config.ParseConfig([]byte(configStr))
	if err != nil {
		t.Fatalf("Error parsing config: %v", err)
	}
	return conf
}

func testEngine(t *testing.T, configStr string, tests [][]string) {
	conf := parseTestConfig(t, configStr)
	for _, test := range tests {
		testCase(t, conf, test[0], test[1])
	}
}

// testCase feeds the events into a new engine and compares the output.
// A raw event that is not suppressed shows up as =Pkey or =Rkey.
func testCase(t *testing.T, conf *config.Config, events string, expected string) {
	engine, sink, clock := newTestEngine(conf)
	feedEventsIn(t, engine, sink, clock, events)

	actual := joinEvents(sink)
	if actual != expected {
		t.Errorf("expected '%s' but got '%s' for events '%s'", expected, actual, events)
	}
}

func joinEvents(sink *sinkRecorder) string {
	return strings.Join(sink.events, " ")
}

func feedEventsIn(t *testing.T, engine *Engine, sink *sinkRecorder, clock *testClock, events string) {
	for _, s := range strings.Fields(events) {
		if s[0] == 'P' || s[0] == 'R' {
			code := parseKey(t, s[1:])
			isDown := s[0] == 'P'
			if !engine.ProcessEvent(code, isDown) {
				sink.add("="+s[:1], code)
			}
			continue
		}
		ms, err := strconv.ParseUint(s, 10, 16)
		if err != nil {
			t.Fatalf("failed to parse milliseconds: %s", s)
		}
		advance(engine, clock, time.Duration(ms)*time.Millisecond)
	}
}

// advance moves the clock forward and ticks the engine like the timer would.
func advance(engine *Engine, clock *testClock, d time.Duration) {
	for d > 0 {
		step := min(d, tickStep)
		clock.now = clock.now.Add(step)
		d -= step
		engine.Tick()
	}
}

func parseKey(t *testing.T, alias string) uint16 {
	code, ok := config.GetKeyCode(alias)
	if !ok {
		t.Fatal(fmt.Sprintf("unknown key alias: %s", alias))
	}
	return code
}
