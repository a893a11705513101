package config

import (
	evdev "github.com/gvalkov/golang-evdev"
)

// keyAliases maps the canonical name of a key to its evdev code.
// Every code appears exactly once so that the reverse lookup is unambiguous.
var keyAliases = map[string]uint16{
	"esc":        evdev.KEY_ESC,
	"1":          evdev.KEY_1,
	"2":          evdev.KEY_2,
	"3":          evdev.KEY_3,
	"4":          evdev.KEY_4,
	"5":          evdev.KEY_5,
	"6":          evdev.KEY_6,
	"7":          evdev.KEY_7,
	"8":          evdev.KEY_8,
	"9":          evdev.KEY_9,
	"0":          evdev.KEY_0,
	"minus":      evdev.KEY_MINUS,
	"equal":      evdev.KEY_EQUAL,
	"backspace":  evdev.KEY_BACKSPACE,
	"tab":        evdev.KEY_TAB,
	"q":          evdev.KEY_Q,
	"w":          evdev.KEY_W,
	"e":          evdev.KEY_E,
	"r":          evdev.KEY_R,
	"t":          evdev.KEY_T,
	"y":          evdev.KEY_Y,
	"u":          evdev.KEY_U,
	"i":          evdev.KEY_I,
	"o":          evdev.KEY_O,
	"p":          evdev.KEY_P,
	"leftbrace":  evdev.KEY_LEFTBRACE,
	"rightbrace": evdev.KEY_RIGHTBRACE,
	"enter":      evdev.KEY_ENTER,
	"leftctrl":   evdev.KEY_LEFTCTRL,
	"a":          evdev.KEY_A,
	"s":          evdev.KEY_S,
	"d":          evdev.KEY_D,
	"f":          evdev.KEY_F,
	"g":          evdev.KEY_G,
	"h":          evdev.KEY_H,
	"j":          evdev.KEY_J,
	"k":          evdev.KEY_K,
	"l":          evdev.KEY_L,
	"semicolon":  evdev.KEY_SEMICOLON,
	"apostrophe": evdev.KEY_APOSTROPHE,
	"grave":      evdev.KEY_GRAVE,
	"leftshift":  evdev.KEY_LEFTSHIFT,
	"backslash":  evdev.KEY_BACKSLASH,
	"z":          evdev.KEY_Z,
	"x":          evdev.KEY_X,
	"c":          evdev.KEY_C,
	"v":          evdev.KEY_V,
	"b":          evdev.KEY_B,
	"n":          evdev.KEY_N,
	"m":          evdev.KEY_M,
	"comma":      evdev.KEY_COMMA,
	"dot":        evdev.KEY_DOT,
	"slash":      evdev.KEY_SLASH,
	"rightshift": evdev.KEY_RIGHTSHIFT,
	"leftalt":    evdev.KEY_LEFTALT,
	"space":      evdev.KEY_SPACE,
	"capslock":   evdev.KEY_CAPSLOCK,
	"f1":         evdev.KEY_F1,
	"f2":         evdev.KEY_F2,
	"f3":         evdev.KEY_F3,
	"f4":         evdev.KEY_F4,
	"f5":         evdev.KEY_F5,
	"f6":         evdev.KEY_F6,
	"f7":         evdev.KEY_F7,
	"f8":         evdev.KEY_F8,
	"f9":         evdev.KEY_F9,
	"f10":        evdev.KEY_F10,
	"f11":        evdev.KEY_F11,
	"f12":        evdev.KEY_F12,

	"zenkakuhankaku":   evdev.KEY_ZENKAKUHANKAKU,
	"102nd":            evdev.KEY_102ND,
	"ro":               evdev.KEY_RO,
	"katakana":         evdev.KEY_KATAKANA,
	"hiragana":         evdev.KEY_HIRAGANA,
	"henkan":           evdev.KEY_HENKAN,
	"katakanahiragana": evdev.KEY_KATAKANAHIRAGANA,
	"muhenkan":         evdev.KEY_MUHENKAN,
	"yen":              evdev.KEY_YEN,

	"rightctrl": evdev.KEY_RIGHTCTRL,
	"rightalt":  evdev.KEY_RIGHTALT,
	"home":      evdev.KEY_HOME,
	"up":        evdev.KEY_UP,
	"pageup":    evdev.KEY_PAGEUP,
	"left":      evdev.KEY_LEFT,
	"right":     evdev.KEY_RIGHT,
	"end":       evdev.KEY_END,
	"down":      evdev.KEY_DOWN,
	"pagedown":  evdev.KEY_PAGEDOWN,
	"insert":    evdev.KEY_INSERT,
	"delete":    evdev.KEY_DELETE,
	"leftmeta":  evdev.KEY_LEFTMETA,
	"rightmeta": evdev.KEY_RIGHTMETA,
	"compose":   evdev.KEY_COMPOSE,
}

// keySynonyms are accepted when parsing, but never returned by GetKeyAlias.
var keySynonyms = map[string]string{
	"escape":  "esc",
	"return":  "enter",
	"ctrl":    "leftctrl",
	"shift":   "leftshift",
	"alt":     "leftalt",
	"meta":    "leftmeta",
	"period":  "dot",
	",":       "comma",
	".":       "dot",
	"-":       "minus",
	"del":     "delete",
	"caps":    "capslock",
	"kanji":   "zenkakuhankaku",
	"convert": "henkan",
}

var keyAliasesReversed map[uint16]string

func init() {
	keyAliasesReversed = make(map[uint16]string, len(keyAliases))
	for alias, code := range keyAliases {
		keyAliasesReversed[code] = alias
	}
}

// GetKeyCode returns the code of the given key alias or synonym.
func GetKeyCode(alias string) (uint16, bool) {
	if canonical, ok := keySynonyms[alias]; ok {
		alias = canonical
	}
	code, ok := keyAliases[alias]
	return code, ok
}

// GetKeyAlias returns the canonical alias of the given key code.
func GetKeyAlias(code uint16) (string, bool) {
	alias, ok := keyAliasesReversed[code]
	return alias, ok
}
