package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	evdev "github.com/gvalkov/golang-evdev"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

const (
	defaultTickInterval          = 5
	defaultHoldThreshold         = 175
	defaultTapGrace              = 130
	defaultComboWindow           = 50
	defaultDoubleTapWindow       = 200
	defaultScreenWidth           = 1920
	defaultScreenHeight          = 1080
	defaultWindowGeometryCommand = "xdotool getactivewindow getwindowgeometry --shell"
)

// The keyboard layouts the system may use to turn key codes into characters.
const (
	TextLayoutUS  = "us"
	TextLayoutJIS = "jis"
)

// RawConfig defines the structure of the config file.
type RawConfig struct {
	Devices               []string          `yaml:"devices" toml:"devices"`
	Debug                 bool              `yaml:"debug" toml:"debug"`
	LogFile               string            `yaml:"logFile" toml:"logFile"`
	TickInterval          int64             `yaml:"tickInterval" toml:"tickInterval"`
	HoldThreshold         int64             `yaml:"holdThreshold" toml:"holdThreshold"`
	TapGrace              int64             `yaml:"tapGrace" toml:"tapGrace"`
	ComboWindow           int64             `yaml:"comboWindow" toml:"comboWindow"`
	DoubleTapWindow       int64             `yaml:"doubleTapWindow" toml:"doubleTapWindow"`
	Screen                RawScreen         `yaml:"screen" toml:"screen"`
	WindowGeometryCommand *string           `yaml:"windowGeometryCommand" toml:"windowGeometryCommand"`
	TextLayout            string            `yaml:"textLayout" toml:"textLayout"`
	Keys                  map[string]string `yaml:"keys" toml:"keys"`
	AltCapsLock           []string          `yaml:"altCapsLock" toml:"altCapsLock"`
}

type RawScreen struct {
	Width  int32 `yaml:"width" toml:"width"`
	Height int32 `yaml:"height" toml:"height"`
}

// Config is the parsed form of RawConfig.
// All durations are in milliseconds.
type Config struct {
	Devices               []string
	Debug                 bool
	LogFile               string
	TickInterval          int64
	HoldThreshold         int64
	TapGrace              int64
	ComboWindow           int64
	DoubleTapWindow       int64
	ScreenWidth           int32
	ScreenHeight          int32
	WindowGeometryCommand string
	// TextLayout is the layout of the system, used to type text
	TextLayout string
	Keys       Keymap
}

// Keymap holds the identity of every key the remap engine refers to by role.
type Keymap struct {
	// dual-role keys and their hold outputs
	Space        uint16
	Shift        uint16
	D            uint16
	LeftControl  uint16
	K            uint16
	RightControl uint16
	Tab          uint16

	// arrow layer
	H     uint16
	J     uint16
	L     uint16
	Left  uint16
	Down  uint16
	Up    uint16
	Right uint16

	// combo participants and outputs
	W      uint16
	E      uint16
	Q      uint16
	I      uint16
	O      uint16
	P      uint16
	One    uint16
	Two    uint16
	Three  uint16
	Four   uint16
	A      uint16
	S      uint16
	Z      uint16
	C      uint16
	M      uint16
	Comma  uint16
	Period uint16
	Escape uint16
	Delete uint16

	// simple replacements
	CapsLock    uint16
	AltCapsLock []uint16
	IMEToggle   uint16
	Muhenkan    uint16
	Henkan      uint16
	Backspace   uint16
	Enter       uint16
}

// DefaultKeymap returns the keymap of a Japanese (JIS) keyboard, which also
// works on ANSI/ISO keyboards apart from the replacement keys.
func DefaultKeymap() Keymap {
	return Keymap{
		Space:        evdev.KEY_SPACE,
		Shift:        evdev.KEY_LEFTSHIFT,
		D:            evdev.KEY_D,
		LeftControl:  evdev.KEY_LEFTCTRL,
		K:            evdev.KEY_K,
		RightControl: evdev.KEY_RIGHTCTRL,
		Tab:          evdev.KEY_TAB,
		H:            evdev.KEY_H,
		J:            evdev.KEY_J,
		L:            evdev.KEY_L,
		Left:         evdev.KEY_LEFT,
		Down:         evdev.KEY_DOWN,
		Up:           evdev.KEY_UP,
		Right:        evdev.KEY_RIGHT,
		W:            evdev.KEY_W,
		E:            evdev.KEY_E,
		Q:            evdev.KEY_Q,
		I:            evdev.KEY_I,
		O:            evdev.KEY_O,
		P:            evdev.KEY_P,
		One:          evdev.KEY_1,
		Two:          evdev.KEY_2,
		Three:        evdev.KEY_3,
		Four:         evdev.KEY_4,
		A:            evdev.KEY_A,
		S:            evdev.KEY_S,
		Z:            evdev.KEY_Z,
		C:            evdev.KEY_C,
		M:            evdev.KEY_M,
		Comma:        evdev.KEY_COMMA,
		Period:       evdev.KEY_DOT,
		Escape:       evdev.KEY_ESC,
		Delete:       evdev.KEY_DELETE,
		CapsLock:     evdev.KEY_CAPSLOCK,
		IMEToggle:    evdev.KEY_ZENKAKUHANKAKU,
		Muhenkan:     evdev.KEY_MUHENKAN,
		Henkan:       evdev.KEY_HENKAN,
		Backspace:    evdev.KEY_BACKSPACE,
		Enter:        evdev.KEY_ENTER,
	}
}

// roles returns the keymap fields by the name used in the config file.
func (k *Keymap) roles() map[string]*uint16 {
	return map[string]*uint16{
		"space":        &k.Space,
		"shift":        &k.Shift,
		"d":            &k.D,
		"leftControl":  &k.LeftControl,
		"k":            &k.K,
		"rightControl": &k.RightControl,
		"tab":          &k.Tab,
		"h":            &k.H,
		"j":            &k.J,
		"l":            &k.L,
		"left":         &k.Left,
		"down":         &k.Down,
		"up":           &k.Up,
		"right":        &k.Right,
		"w":            &k.W,
		"e":            &k.E,
		"q":            &k.Q,
		"i":            &k.I,
		"o":            &k.O,
		"p":            &k.P,
		"1":            &k.One,
		"2":            &k.Two,
		"3":            &k.Three,
		"4":            &k.Four,
		"a":            &k.A,
		"s":            &k.S,
		"z":            &k.Z,
		"c":            &k.C,
		"m":            &k.M,
		"comma":        &k.Comma,
		"period":       &k.Period,
		"escape":       &k.Escape,
		"delete":       &k.Delete,
		"capsLock":     &k.CapsLock,
		"imeToggle":    &k.IMEToggle,
		"muhenkan":     &k.Muhenkan,
		"henkan":       &k.Henkan,
		"backspace":    &k.Backspace,
		"enter":        &k.Enter,
	}
}

// IsCapsLock returns true if the code is the caps lock key or one of its alternates.
func (k *Keymap) IsCapsLock(code uint16) bool {
	if code == k.CapsLock {
		return true
	}
	for _, c := range k.AltCapsLock {
		if c == code {
			return true
		}
	}
	return false
}

// ReadConfig reads and parses the configuration from the given file.
// A file ending in .toml is parsed as TOML, anything else as YAML.
// If the file does not exist, the default configuration is returned.
func ReadConfig(fileName string) (*Config, error) {
	// read the file
	configFile, err := os.Open(fileName)
	if errors.Is(err, fs.ErrNotExist) {
		log.Infof("Config file %s does not exist, using the defaults", fileName)
		return ParseConfig(nil)
	}
	if err != nil {
		return nil, err
	}
	defer configFile.Close()

	configString, err := io.ReadAll(configFile)
	if err != nil {
		return nil, err
	}

	if strings.EqualFold(filepath.Ext(fileName), ".toml") {
		return ParseTOMLConfig(configString)
	}
	return ParseConfig(configString)
}

// ParseConfig parses the given YAML configuration.
func ParseConfig(configBytes []byte) (*Config, error) {
	var rawConfig RawConfig
	err := yaml.Unmarshal(configBytes, &rawConfig)
	if err != nil {
		return nil, err
	}
	return parseRawConfig(rawConfig)
}

// ParseTOMLConfig parses the given TOML configuration.
func ParseTOMLConfig(configBytes []byte) (*Config, error) {
	var rawConfig RawConfig
	_, err := toml.Decode(string(configBytes), &rawConfig)
	if err != nil {
		return nil, err
	}
	return parseRawConfig(rawConfig)
}

func parseRawConfig(rawConfig RawConfig) (*Config, error) {
	config := Config{
		Devices:               rawConfig.Devices,
		Debug:                 rawConfig.Debug,
		LogFile:               rawConfig.LogFile,
		TickInterval:          positiveOr(rawConfig.TickInterval, defaultTickInterval),
		HoldThreshold:         positiveOr(rawConfig.HoldThreshold, defaultHoldThreshold),
		TapGrace:              positiveOr(rawConfig.TapGrace, defaultTapGrace),
		ComboWindow:           positiveOr(rawConfig.ComboWindow, defaultComboWindow),
		DoubleTapWindow:       positiveOr(rawConfig.DoubleTapWindow, defaultDoubleTapWindow),
		ScreenWidth:           defaultScreenWidth,
		ScreenHeight:          defaultScreenHeight,
		WindowGeometryCommand: defaultWindowGeometryCommand,
		TextLayout:            TextLayoutUS,
		Keys:                  DefaultKeymap(),
	}
	if rawConfig.Screen.Width > 0 {
		config.ScreenWidth = rawConfig.Screen.Width
	}
	if rawConfig.Screen.Height > 0 {
		config.ScreenHeight = rawConfig.Screen.Height
	}
	// an empty command disables the window lookup, so only nil means default
	if rawConfig.WindowGeometryCommand != nil {
		config.WindowGeometryCommand = *rawConfig.WindowGeometryCommand
	}

	switch layout := strings.ToLower(rawConfig.TextLayout); layout {
	case "":
	case TextLayoutUS, TextLayoutJIS:
		config.TextLayout = layout
	default:
		return nil, fmt.Errorf("unknown textLayout '%v'", rawConfig.TextLayout)
	}

	if config.TapGrace > config.HoldThreshold {
		return nil, fmt.Errorf("tapGrace (%d) must not be larger than holdThreshold (%d)",
			config.TapGrace, config.HoldThreshold)
	}

	roles := config.Keys.roles()
	for role, key := range rawConfig.Keys {
		field, ok := roles[role]
		if !ok {
			return nil, fmt.Errorf("unknown key role '%v'", role)
		}
		code, err := parseKey(key)
		if err != nil {
			return nil, fmt.Errorf("failed to parse the key '%v' of role '%v': %w", key, role, err)
		}
		*field = code
	}
	for _, key := range rawConfig.AltCapsLock {
		code, err := parseKey(key)
		if err != nil {
			return nil, fmt.Errorf("failed to parse the alternative caps lock key '%v': %w", key, err)
		}
		config.Keys.AltCapsLock = append(config.Keys.AltCapsLock, code)
	}

	log.Debugf("config: %+v", config)
	return &config, nil
}

func positiveOr(value, def int64) int64 {
	if value > 0 {
		return value
	}
	return def
}

// parseKey parses a single key, which can be either the code itself or an alias.
func parseKey(key string) (code uint16, err error) {
	key = strings.TrimSpace(key)

	if code, ok := GetKeyCode(key); ok {
		return code, nil
	}

	if code, err := strconv.ParseUint(key, 0, 16); err == nil {
		return uint16(code), nil
	}

	return 0, fmt.Errorf("neither an integer nor a key alias")
}
