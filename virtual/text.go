package virtual

import (
	evdev "github.com/gvalkov/golang-evdev"
	"github.com/jbensmann/chordkeys/config"
)

type stroke struct {
	code  uint16
	shift bool
}

// layout maps the printable characters other than letters to their keys.
type layout map[rune]stroke

var layouts = map[string]layout{
	config.TextLayoutUS:  usLayout,
	config.TextLayoutJIS: jisLayout,
}

// usLayout maps the printable characters of the US layout to their keys.
var usLayout = layout{
	' ':  {evdev.KEY_SPACE, false},
	'\n': {evdev.KEY_ENTER, false},
	'\t': {evdev.KEY_TAB, false},

	'1':  {evdev.KEY_1, false},
	'!':  {evdev.KEY_1, true},
	'2':  {evdev.KEY_2, false},
	'@':  {evdev.KEY_2, true},
	'3':  {evdev.KEY_3, false},
	'#':  {evdev.KEY_3, true},
	'4':  {evdev.KEY_4, false},
	'$':  {evdev.KEY_4, true},
	'5':  {evdev.KEY_5, false},
	'%':  {evdev.KEY_5, true},
	'6':  {evdev.KEY_6, false},
	'^':  {evdev.KEY_6, true},
	'7':  {evdev.KEY_7, false},
	'&':  {evdev.KEY_7, true},
	'8':  {evdev.KEY_8, false},
	'*':  {evdev.KEY_8, true},
	'9':  {evdev.KEY_9, false},
	'(':  {evdev.KEY_9, true},
	'0':  {evdev.KEY_0, false},
	')':  {evdev.KEY_0, true},
	'-':  {evdev.KEY_MINUS, false},
	'_':  {evdev.KEY_MINUS, true},
	'=':  {evdev.KEY_EQUAL, false},
	'+':  {evdev.KEY_EQUAL, true},
	'[':  {evdev.KEY_LEFTBRACE, false},
	'{':  {evdev.KEY_LEFTBRACE, true},
	']':  {evdev.KEY_RIGHTBRACE, false},
	'}':  {evdev.KEY_RIGHTBRACE, true},
	';':  {evdev.KEY_SEMICOLON, false},
	':':  {evdev.KEY_SEMICOLON, true},
	'\'': {evdev.KEY_APOSTROPHE, false},
	'"':  {evdev.KEY_APOSTROPHE, true},
	'`':  {evdev.KEY_GRAVE, false},
	'~':  {evdev.KEY_GRAVE, true},
	'\\': {evdev.KEY_BACKSLASH, false},
	'|':  {evdev.KEY_BACKSLASH, true},
	',':  {evdev.KEY_COMMA, false},
	'<':  {evdev.KEY_COMMA, true},
	'.':  {evdev.KEY_DOT, false},
	'>':  {evdev.KEY_DOT, true},
	'/':  {evdev.KEY_SLASH, false},
	'?':  {evdev.KEY_SLASH, true},
}

// jisLayout maps the printable characters of the Japanese layout to their keys.
var jisLayout = layout{
	' ':  {evdev.KEY_SPACE, false},
	'\n': {evdev.KEY_ENTER, false},
	'\t': {evdev.KEY_TAB, false},

	'1':  {evdev.KEY_1, false},
	'!':  {evdev.KEY_1, true},
	'2':  {evdev.KEY_2, false},
	'"':  {evdev.KEY_2, true},
	'3':  {evdev.KEY_3, false},
	'#':  {evdev.KEY_3, true},
	'4':  {evdev.KEY_4, false},
	'$':  {evdev.KEY_4, true},
	'5':  {evdev.KEY_5, false},
	'%':  {evdev.KEY_5, true},
	'6':  {evdev.KEY_6, false},
	'&':  {evdev.KEY_6, true},
	'7':  {evdev.KEY_7, false},
	'\'': {evdev.KEY_7, true},
	'8':  {evdev.KEY_8, false},
	'(':  {evdev.KEY_8, true},
	'9':  {evdev.KEY_9, false},
	')':  {evdev.KEY_9, true},
	'0':  {evdev.KEY_0, false},
	'-':  {evdev.KEY_MINUS, false},
	'=':  {evdev.KEY_MINUS, true},
	'^':  {evdev.KEY_EQUAL, false},
	'~':  {evdev.KEY_EQUAL, true},
	'|':  {evdev.KEY_YEN, true},
	'@':  {evdev.KEY_LEFTBRACE, false},
	'`':  {evdev.KEY_LEFTBRACE, true},
	'[':  {evdev.KEY_RIGHTBRACE, false},
	'{':  {evdev.KEY_RIGHTBRACE, true},
	';':  {evdev.KEY_SEMICOLON, false},
	'+':  {evdev.KEY_SEMICOLON, true},
	':':  {evdev.KEY_APOSTROPHE, false},
	'*':  {evdev.KEY_APOSTROPHE, true},
	']':  {evdev.KEY_BACKSLASH, false},
	'}':  {evdev.KEY_BACKSLASH, true},
	',':  {evdev.KEY_COMMA, false},
	'<':  {evdev.KEY_COMMA, true},
	'.':  {evdev.KEY_DOT, false},
	'>':  {evdev.KEY_DOT, true},
	'/':  {evdev.KEY_SLASH, false},
	'?':  {evdev.KEY_SLASH, true},
	'\\': {evdev.KEY_RO, false},
	'_':  {evdev.KEY_RO, true},
}

var letterKeys = [26]uint16{
	evdev.KEY_A, evdev.KEY_B, evdev.KEY_C, evdev.KEY_D, evdev.KEY_E, evdev.KEY_F,
	evdev.KEY_G, evdev.KEY_H, evdev.KEY_I, evdev.KEY_J, evdev.KEY_K, evdev.KEY_L,
	evdev.KEY_M, evdev.KEY_N, evdev.KEY_O, evdev.KEY_P, evdev.KEY_Q, evdev.KEY_R,
	evdev.KEY_S, evdev.KEY_T, evdev.KEY_U, evdev.KEY_V, evdev.KEY_W, evdev.KEY_X,
	evdev.KEY_Y, evdev.KEY_Z,
}

// layoutByName returns the layout with the given name, or the US layout if
// there is none.
func layoutByName(name string) layout {
	if l, ok := layouts[name]; ok {
		return l
	}
	return usLayout
}

// strokeFor returns the key and shift state that types the character.
func (l layout) strokeFor(r rune) (stroke, bool) {
	switch {
	case r >= 'a' && r <= 'z':
		return stroke{letterKeys[r-'a'], false}, true
	case r >= 'A' && r <= 'Z':
		return stroke{letterKeys[r-'A'], true}, true
	}
	s, ok := l[r]
	return s, ok
}
