package virtual

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jbensmann/chordkeys/config"
	"github.com/jbensmann/chordkeys/remap"
	"github.com/jbensmann/uinput"
	log "github.com/sirupsen/logrus"
)

const geometryCommandTimeout = time.Second

// Rect is a rectangle on the screen in pixels.
type Rect struct {
	X      int32
	Y      int32
	Width  int32
	Height int32
}

// Pointer moves the mouse cursor to anchors of the foreground window through
// an absolute pointing device.
type Pointer struct {
	uinputTouchPad uinput.TouchPad

	screen          Rect
	geometryCommand string

	lock      sync.Mutex
	isRunning bool
	moves     chan remap.Anchor
}

func NewPointer(conf *config.Config, name string) (*Pointer, error) {
	var err error
	p := Pointer{
		screen:          Rect{Width: conf.ScreenWidth, Height: conf.ScreenHeight},
		geometryCommand: conf.WindowGeometryCommand,
		moves:           make(chan remap.Anchor, 1),
	}
	p.uinputTouchPad, err = uinput.CreateTouchPad("/dev/uinput", []byte(name),
		0, conf.ScreenWidth-1, 0, conf.ScreenHeight-1)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// MoveCursor queues a move to the anchor. A move that is still queued is
// replaced, so the caller never blocks.
func (p *Pointer) MoveCursor(anchor remap.Anchor) {
	for {
		select {
		case p.moves <- anchor:
			return
		default:
		}
		select {
		case <-p.moves:
		default:
		}
	}
}

// Run executes the queued moves until the context is done.
func (p *Pointer) Run(ctx context.Context) {
	p.lock.Lock()
	p.isRunning = true
	p.lock.Unlock()

	for {
		select {
		case <-ctx.Done():
			return
		case anchor := <-p.moves:
			p.moveTo(ctx, anchor)
		}
	}
}

func (p *Pointer) moveTo(ctx context.Context, anchor remap.Anchor) {
	window, err := p.activeWindow(ctx)
	if err != nil {
		log.Debugf("Pointer: %v, using the whole screen", err)
		window = p.screen
	}
	x, y := anchorPoint(window, anchor)
	x, y = clampToScreen(p.screen, x, y)

	p.lock.Lock()
	defer p.lock.Unlock()
	if !p.isRunning {
		return
	}
	log.Debugf("Pointer: move to %v at %d %d", anchor, x, y)
	err = p.uinputTouchPad.MoveTo(x, y)
	if err != nil {
		log.Warnf("Pointer: move failed: %v", err)
	}
}

// activeWindow asks the configured command for the geometry of the foreground window.
func (p *Pointer) activeWindow(ctx context.Context) (Rect, error) {
	if p.geometryCommand == "" {
		return Rect{}, fmt.Errorf("no window geometry command")
	}
	ctx, cancel := context.WithTimeout(ctx, geometryCommandTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "sh", "-c", p.geometryCommand).Output()
	if err != nil {
		return Rect{}, fmt.Errorf("window geometry command failed: %w", err)
	}
	return parseGeometry(string(out))
}

func (p *Pointer) Close() {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.isRunning = false
	_ = p.uinputTouchPad.Close()
}

// parseGeometry parses the shell variables X, Y, WIDTH and HEIGHT as printed by
// "xdotool getwindowgeometry --shell".
func parseGeometry(out string) (Rect, error) {
	var rect Rect
	seen := 0
	for _, line := range strings.Split(out, "\n") {
		name, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		var field *int32
		switch name {
		case "X":
			field = &rect.X
		case "Y":
			field = &rect.Y
		case "WIDTH":
			field = &rect.Width
		case "HEIGHT":
			field = &rect.Height
		default:
			continue
		}
		v, err := strconv.ParseInt(value, 10, 32)
		if err != nil {
			return Rect{}, fmt.Errorf("invalid window geometry %s=%s: %w", name, value, err)
		}
		*field = int32(v)
		seen++
	}
	if seen < 4 || rect.Width <= 0 || rect.Height <= 0 {
		return Rect{}, fmt.Errorf("incomplete window geometry: %q", out)
	}
	return rect, nil
}

// anchorPoint returns the position of the anchor within the window.
// Corners are moved inwards by 2 pixels so that the cursor stays on the window.
// The title bar is assumed to be centered 15 pixels below the top edge.
func anchorPoint(window Rect, anchor remap.Anchor) (int32, int32) {
	left := window.X + 2
	top := window.Y + 2
	right := window.X + window.Width - 2
	bottom := window.Y + window.Height - 2
	centerX := window.X + window.Width/2
	centerY := window.Y + window.Height/2

	switch anchor {
	case remap.AnchorTopLeft:
		return left, top
	case remap.AnchorTopRight:
		return right, top
	case remap.AnchorBottomLeft:
		return left, bottom
	case remap.AnchorBottomRight:
		return right, bottom
	case remap.AnchorTitleCenter:
		return centerX, window.Y + 15
	default:
		return centerX, centerY
	}
}

func clampToScreen(screen Rect, x, y int32) (int32, int32) {
	x = min(max(x, screen.X), screen.X+screen.Width-1)
	y = min(max(y, screen.Y), screen.Y+screen.Height-1)
	return x, y
}
