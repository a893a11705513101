package config

import (
	"os"
	"path/filepath"
	"testing"

	evdev "github.com/gvalkov/golang-evdev"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	conf, err := ParseConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, int64(5), conf.TickInterval)
	assert.Equal(t, int64(175), conf.HoldThreshold)
	assert.Equal(t, int64(130), conf.TapGrace)
	assert.Equal(t, int64(50), conf.ComboWindow)
	assert.Equal(t, int64(200), conf.DoubleTapWindow)
	assert.Equal(t, int32(1920), conf.ScreenWidth)
	assert.Equal(t, int32(1080), conf.ScreenHeight)
	assert.Equal(t, defaultWindowGeometryCommand, conf.WindowGeometryCommand)
	assert.Equal(t, TextLayoutUS, conf.TextLayout)
	assert.Equal(t, DefaultKeymap(), conf.Keys)
	assert.Empty(t, conf.Devices)
}

func TestParseYAML(t *testing.T) {
	configStr := `
devices:
- /dev/input/event3
debug: true
logFile: /tmp/chordkeys.log
holdThreshold: 200
tapGrace: 100
comboWindow: 40
doubleTapWindow: 250
screen:
  width: 2560
  height: 1440
windowGeometryCommand: ""
textLayout: JIS
keys:
  space: muhenkan
  shift: rightshift
  imeToggle: "0x29"
altCapsLock:
- leftmeta
`
	conf, err := ParseConfig([]byte(configStr))
	require.NoError(t, err)

	assert.Equal(t, []string{"/dev/input/event3"}, conf.Devices)
	assert.True(t, conf.Debug)
	assert.Equal(t, "/tmp/chordkeys.log", conf.LogFile)
	assert.Equal(t, int64(200), conf.HoldThreshold)
	assert.Equal(t, int64(100), conf.TapGrace)
	assert.Equal(t, int64(40), conf.ComboWindow)
	assert.Equal(t, int64(250), conf.DoubleTapWindow)
	assert.Equal(t, int32(2560), conf.ScreenWidth)
	assert.Equal(t, int32(1440), conf.ScreenHeight)
	assert.Equal(t, "", conf.WindowGeometryCommand)
	assert.Equal(t, TextLayoutJIS, conf.TextLayout)

	assert.Equal(t, uint16(evdev.KEY_MUHENKAN), conf.Keys.Space)
	assert.Equal(t, uint16(evdev.KEY_RIGHTSHIFT), conf.Keys.Shift)
	assert.Equal(t, uint16(evdev.KEY_GRAVE), conf.Keys.IMEToggle)
	assert.Equal(t, uint16(evdev.KEY_D), conf.Keys.D)
	assert.True(t, conf.Keys.IsCapsLock(evdev.KEY_CAPSLOCK))
	assert.True(t, conf.Keys.IsCapsLock(evdev.KEY_LEFTMETA))
	assert.False(t, conf.Keys.IsCapsLock(evdev.KEY_A))
}

func TestParseTOML(t *testing.T) {
	configStr := `
holdThreshold = 190
altCapsLock = ["grave"]

[screen]
width = 1280

[keys]
tab = "capslock"
`
	conf, err := ParseTOMLConfig([]byte(configStr))
	require.NoError(t, err)

	assert.Equal(t, int64(190), conf.HoldThreshold)
	assert.Equal(t, int32(1280), conf.ScreenWidth)
	assert.Equal(t, int32(1080), conf.ScreenHeight)
	assert.Equal(t, uint16(evdev.KEY_CAPSLOCK), conf.Keys.Tab)
	assert.Equal(t, []uint16{evdev.KEY_GRAVE}, conf.Keys.AltCapsLock)
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"unknown role":    "keys:\n  x: y\n",
		"unknown key":     "keys:\n  space: nokey\n",
		"tap grace":       "holdThreshold: 100\ntapGrace: 150\n",
		"alt caps lock":   "altCapsLock:\n- nokey\n",
		"malformed input": "keys: [",
		"text layout":     "textLayout: dvorak\n",
	}
	for name, configStr := range tests {
		_, err := ParseConfig([]byte(configStr))
		assert.Error(t, err, name)
	}
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()

	conf, err := ReadConfig(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, int64(175), conf.HoldThreshold)

	yamlFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(yamlFile, []byte("comboWindow: 60\n"), 0o644))
	conf, err = ReadConfig(yamlFile)
	require.NoError(t, err)
	assert.Equal(t, int64(60), conf.ComboWindow)

	tomlFile := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(tomlFile, []byte("comboWindow = 70\n"), 0o644))
	conf, err = ReadConfig(tomlFile)
	require.NoError(t, err)
	assert.Equal(t, int64(70), conf.ComboWindow)
}

func TestKeyAliases(t *testing.T) {
	code, ok := GetKeyCode("escape")
	assert.True(t, ok)
	assert.Equal(t, uint16(evdev.KEY_ESC), code)

	alias, ok := GetKeyAlias(evdev.KEY_ESC)
	assert.True(t, ok)
	assert.Equal(t, "esc", alias)

	alias, ok = GetKeyAlias(evdev.KEY_DOT)
	assert.True(t, ok)
	assert.Equal(t, "dot", alias)

	_, ok = GetKeyCode("nokey")
	assert.False(t, ok)

	// every alias maps back to itself
	for a, c := range keyAliases {
		back, ok := GetKeyAlias(c)
		assert.True(t, ok, a)
		assert.Equal(t, a, back)
	}
}

func TestParseKey(t *testing.T) {
	code, err := parseKey(" 30 ")
	require.NoError(t, err)
	assert.Equal(t, uint16(30), code)

	code, err = parseKey(",")
	require.NoError(t, err)
	assert.Equal(t, uint16(evdev.KEY_COMMA), code)

	_, err = parseKey("70000")
	assert.Error(t, err)
}
