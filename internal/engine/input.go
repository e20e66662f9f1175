package engine

import (
	"strings"

	"github.com/driftboard/driftboard/backend-go/internal/document"
)

// Button numbers follow the DOM MouseEvent.button convention.
type Button int

const (
	ButtonPrimary   Button = 0
	ButtonMiddle    Button = 1
	ButtonSecondary Button = 2
)

const (
	wheelZoomFactor  = 0.001
	wheelScrollSpeed = 1.2
)

// PointerEvent is a normalised pointer record in viewport coordinates.
type PointerEvent struct {
	ClientX float64 `json:"clientX"`
	ClientY float64 `json:"clientY"`
	Button  Button  `json:"button"`
}

func (ev PointerEvent) Point() document.Point {
	return document.Pt(ev.ClientX, ev.ClientY)
}

type WheelEvent struct {
	ClientX float64 `json:"clientX"`
	ClientY float64 `json:"clientY"`
	DeltaX  float64 `json:"deltaX"`
	DeltaY  float64 `json:"deltaY"`
	Ctrl    bool    `json:"ctrlKey"`
	Meta    bool    `json:"metaKey"`
}

// KeyEvent carries the DOM key (character) and code (physical key).
type KeyEvent struct {
	Key   string `json:"key"`
	Code  string `json:"code"`
	Ctrl  bool   `json:"ctrlKey"`
	Meta  bool   `json:"metaKey"`
	Shift bool   `json:"shiftKey"`
}

// Touch is one active touch point.
type Touch struct {
	ClientX float64 `json:"clientX"`
	ClientY float64 `json:"clientY"`
}

// Wheel zooms around the cursor when ctrl or meta is held and scrolls the
// view otherwise. It always consumes the event.
func (e *Engine) Wheel(ev WheelEvent) bool {
	if ev.Ctrl || ev.Meta {
		focal := document.Pt(ev.ClientX, ev.ClientY)
		e.view = e.view.Zoom(focal, 1-ev.DeltaY*wheelZoomFactor)
	} else {
		e.view = e.view.Pan(-ev.DeltaX*wheelScrollSpeed, -ev.DeltaY*wheelScrollSpeed)
	}
	e.redraw()
	return true
}

// KeyDown handles the global shortcuts and the space pan override. It
// reports whether the event was consumed.
func (e *Engine) KeyDown(ev KeyEvent) bool {
	if ev.Code == "Space" {
		e.session.spaceHeld = true
	}
	if !ev.Ctrl && !ev.Meta {
		return false
	}

	switch strings.ToLower(ev.Key) {
	case "z":
		if ev.Shift {
			e.Redo()
		} else {
			e.Undo()
		}
		return true
	case "y":
		e.Redo()
		return true
	}
	return false
}

func (e *Engine) KeyUp(ev KeyEvent) bool {
	if ev.Code == "Space" {
		e.session.spaceHeld = false
	}
	return false
}

// SpaceHeld reports whether the pan override is active.
func (e *Engine) SpaceHeld() bool { return e.session.spaceHeld }

// --- Touch adaptation ---

// TouchStart maps a single touch to a primary-button press. Multi-touch is
// ignored.
func (e *Engine) TouchStart(touches []Touch) {
	if len(touches) != 1 {
		return
	}
	e.PointerDown(touchEvent(touches[0]))
}

func (e *Engine) TouchMove(touches []Touch) {
	if len(touches) != 1 {
		return
	}
	e.PointerMove(touchEvent(touches[0]))
}

func (e *Engine) TouchEnd(changed []Touch) {
	e.PointerUp(lastTouchEvent(changed))
}

func (e *Engine) TouchCancel(changed []Touch) {
	e.PointerCancel(lastTouchEvent(changed))
}

func touchEvent(t Touch) PointerEvent {
	return PointerEvent{ClientX: t.ClientX, ClientY: t.ClientY, Button: ButtonPrimary}
}

func lastTouchEvent(changed []Touch) PointerEvent {
	if len(changed) == 0 {
		return PointerEvent{Button: ButtonPrimary}
	}
	return touchEvent(changed[len(changed)-1])
}
