package remap

// Sink receives the synthetic key events produced by the engine.
//
// Press, Release, Tap and TypeText emit events that are marked as injected, so
// that they never reach the engine again. PressRepeatable and ReleaseRepeatable
// emit unmarked events that are subject to the normal key repeat of the system;
// they are used for the arrow layer.
//
// All methods are called while the engine holds its lock and must not block.
type Sink interface {
	Press(code uint16)
	Release(code uint16)
	Tap(code uint16)
	TypeText(text string)
	PressRepeatable(code uint16)
	ReleaseRepeatable(code uint16)
}

// CursorMover moves the mouse cursor to an anchor of the foreground window.
type CursorMover interface {
	MoveCursor(anchor Anchor)
}

type Anchor int

const (
	AnchorNone Anchor = iota
	AnchorTopLeft
	AnchorTopRight
	AnchorBottomLeft
	AnchorBottomRight
	AnchorTitleCenter
	AnchorCenter
)

func (a Anchor) String() string {
	switch a {
	case AnchorTopLeft:
		return "top-left"
	case AnchorTopRight:
		return "top-right"
	case AnchorBottomLeft:
		return "bottom-left"
	case AnchorBottomRight:
		return "bottom-right"
	case AnchorTitleCenter:
		return "title-center"
	case AnchorCenter:
		return "center"
	default:
		return "none"
	}
}
