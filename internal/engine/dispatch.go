package engine

import "fmt"

// Input event kinds, named after the DOM events they come from.
const (
	EventPointerDown   = "pointerdown"
	EventPointerMove   = "pointermove"
	EventPointerUp     = "pointerup"
	EventPointerCancel = "pointercancel"
	EventWheel         = "wheel"
	EventKeyDown       = "keydown"
	EventKeyUp         = "keyup"
	EventTouchStart    = "touchstart"
	EventTouchMove     = "touchmove"
	EventTouchEnd      = "touchend"
	EventTouchCancel   = "touchcancel"
	EventResize        = "resize"
)

// InputEvent is the wire form of any input event. Only the fields relevant
// to Kind are read.
type InputEvent struct {
	Kind string `json:"kind"`

	ClientX float64 `json:"clientX,omitempty"`
	ClientY float64 `json:"clientY,omitempty"`
	Button  Button  `json:"button,omitempty"`

	DeltaX float64 `json:"deltaX,omitempty"`
	DeltaY float64 `json:"deltaY,omitempty"`

	Key   string `json:"key,omitempty"`
	Code  string `json:"code,omitempty"`
	Ctrl  bool   `json:"ctrlKey,omitempty"`
	Meta  bool   `json:"metaKey,omitempty"`
	Shift bool   `json:"shiftKey,omitempty"`

	Touches []Touch `json:"touches,omitempty"`

	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
}

// Dispatch routes ev to the matching intake method. consumed reports whether
// a host should suppress the event's default action.
func (e *Engine) Dispatch(ev InputEvent) (consumed bool, err error) {
	pointer := PointerEvent{ClientX: ev.ClientX, ClientY: ev.ClientY, Button: ev.Button}
	key := KeyEvent{Key: ev.Key, Code: ev.Code, Ctrl: ev.Ctrl, Meta: ev.Meta, Shift: ev.Shift}

	switch ev.Kind {
	case EventPointerDown:
		e.PointerDown(pointer)
	case EventPointerMove:
		e.PointerMove(pointer)
	case EventPointerUp:
		e.PointerUp(pointer)
	case EventPointerCancel:
		e.PointerCancel(pointer)
	case EventWheel:
		return e.Wheel(WheelEvent{
			ClientX: ev.ClientX,
			ClientY: ev.ClientY,
			DeltaX:  ev.DeltaX,
			DeltaY:  ev.DeltaY,
			Ctrl:    ev.Ctrl,
			Meta:    ev.Meta,
		}), nil
	case EventKeyDown:
		return e.KeyDown(key), nil
	case EventKeyUp:
		return e.KeyUp(key), nil
	case EventTouchStart:
		e.TouchStart(ev.Touches)
	case EventTouchMove:
		e.TouchMove(ev.Touches)
	case EventTouchEnd:
		e.TouchEnd(ev.Touches)
	case EventTouchCancel:
		e.TouchCancel(ev.Touches)
	case EventResize:
		if err := e.Resize(ev.Width, ev.Height); err != nil {
			return false, err
		}
	default:
		return false, fmt.Errorf("unknown input event %q", ev.Kind)
	}
	return true, nil
}
