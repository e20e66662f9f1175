package engine

import (
	"math"
	"slices"
	"strings"

	"github.com/driftboard/driftboard/backend-go/internal/document"
)

const (
	// Auto-pan kicks in this close to a viewport edge while drawing.
	autoPanMargin = 80.0
	autoPanSpeed  = 10.0

	// eraseRadiusFactor times the stroke width gives the eraser's screen radius.
	eraseRadiusFactor = 12.0
)

type gestureState int

const (
	stateIdle gestureState = iota
	statePanning
	stateDrawing
	stateErasing
)

func (s gestureState) String() string {
	switch s {
	case statePanning:
		return "panning"
	case stateDrawing:
		return "drawing"
	case stateErasing:
		return "erasing"
	default:
		return "idle"
	}
}

// toolSession is the ephemeral state of the current gesture. spaceHeld
// outlives gestures; everything else is reset when a gesture ends.
type toolSession struct {
	state gestureState

	// draft is the element under construction; meaningful only in stateDrawing.
	draft document.Element

	anchor    document.Point // world point where the gesture began
	last      document.Point // last screen point, for pan deltas
	spaceHeld bool
}

func (s *toolSession) reset() {
	s.state = stateIdle
	s.draft = document.Element{}
	s.anchor = document.Point{}
	s.last = document.Point{}
}

// PointerDown starts a gesture. The middle button or a held space key pans
// with any tool; otherwise only the primary button acts.
func (e *Engine) PointerDown(ev PointerEvent) {
	screen := ev.Point()

	if e.session.state != stateIdle {
		e.log.Debug("pointer down during gesture, discarding it", "gesture", e.session.state)
		e.session.reset()
	}

	if ev.Button == ButtonMiddle || e.session.spaceHeld {
		e.session.state = statePanning
		e.session.last = screen
		return
	}
	if ev.Button != ButtonPrimary {
		return
	}

	world := e.view.ToWorld(screen)
	e.session.anchor = world

	switch e.tool {
	case ToolPen:
		e.beginDrawing(document.NewStroke(e.newID(), world, e.style()))
	case ToolRectangle:
		e.beginDrawing(document.NewRectangle(e.newID(), world, e.style()))
	case ToolCircle:
		e.beginDrawing(document.NewCircle(e.newID(), world, e.style()))
	case ToolLine:
		e.beginDrawing(document.NewSegment(e.newID(), document.ElementLine, world, e.style()))
	case ToolArrow:
		e.beginDrawing(document.NewSegment(e.newID(), document.ElementArrow, world, e.style()))
	case ToolText:
		e.requestText(world, screen)
	case ToolSticky:
		e.placeSticky(world, screen)
	case ToolEraser:
		e.session.state = stateErasing
	case ToolSelect:
		// no-op
	}
}

// PointerMove advances the active gesture, if any.
func (e *Engine) PointerMove(ev PointerEvent) {
	screen := ev.Point()

	switch e.session.state {
	case statePanning:
		dx, dy := screen.X-e.session.last.X, screen.Y-e.session.last.Y
		e.session.last = screen
		e.view = e.view.Pan(dx, dy)
		e.redraw()

	case stateErasing:
		e.eraseAt(e.view.ToWorld(screen))

	case stateDrawing:
		e.session.draft = extendDraft(e.session.draft, e.session.anchor, e.view.ToWorld(screen))
		e.autoPan(screen)
		e.redraw()
	}
}

// PointerUp ends the active gesture. A finished drawing is committed only
// when valid; it is discarded either way.
func (e *Engine) PointerUp(PointerEvent) {
	state, draft := e.session.state, e.session.draft
	e.session.reset()

	if state != stateDrawing {
		return
	}
	if draft.Valid() {
		e.commit(append(e.currentElements(), draft))
		return
	}
	e.log.Debug("discard invalid element", "type", draft.Type)
	e.redraw()
}

// PointerCancel resolves the active gesture exactly like PointerUp.
func (e *Engine) PointerCancel(ev PointerEvent) {
	e.PointerUp(ev)
}

func (e *Engine) beginDrawing(el document.Element) {
	e.session.state = stateDrawing
	e.session.draft = el
	e.redraw()
}

func (e *Engine) requestText(world, screen document.Point) {
	req := TextRequest{World: world, Screen: screen}
	e.pendingText = &req
	if e.onText != nil {
		e.onText(req)
	}
}

func (e *Engine) placeSticky(world, screen document.Point) {
	bg := document.StickyPalette[e.randN(len(document.StickyPalette))]

	if e.prompt != nil {
		text, ok := e.prompt()
		if !ok {
			return
		}
		el := document.NewSticky(e.newID(), world, text, bg)
		e.commit(append(e.currentElements(), el))
		return
	}

	if e.pendingSticky != nil {
		e.log.Debug("sticky request already pending")
		return
	}
	req := StickyRequest{World: world, Screen: screen, BgColor: bg}
	e.pendingSticky = &req
	if e.onSticky != nil {
		e.onSticky(req)
	}
}

// eraseAt removes everything under the eraser and commits when something
// went. The radius is in world units so its screen footprint is constant.
func (e *Engine) eraseAt(world document.Point) {
	r := e.strokeWidth * eraseRadiusFactor / e.view.Scale
	kept, removed := EraseAt(e.elements, world, r)
	if removed {
		e.commit(kept)
	}
}

func (e *Engine) autoPan(screen document.Point) {
	w, h := float64(e.viewport.Width), float64(e.viewport.Height)
	if w <= 0 || h <= 0 {
		return
	}

	var dx, dy float64
	if screen.Y > h-autoPanMargin {
		dy = autoPanSpeed
	} else if screen.Y < autoPanMargin {
		dy = -autoPanSpeed
	}
	if screen.X > w-autoPanMargin {
		dx = autoPanSpeed
	} else if screen.X < autoPanMargin {
		dx = -autoPanSpeed
	}
	if dx != 0 || dy != 0 {
		e.view = e.view.Pan(dx, dy)
	}
}

// extendDraft returns a new draft updated for pointer position p. The input
// value is never modified and the result shares no point storage with it.
func extendDraft(el document.Element, anchor, p document.Point) document.Element {
	switch el.Type {
	case document.ElementStroke:
		el.Points = append(slices.Clip(el.Points), p)
	case document.ElementRectangle:
		el.X, el.Y = min(anchor.X, p.X), min(anchor.Y, p.Y)
		el.Width, el.Height = math.Abs(p.X-anchor.X), math.Abs(p.Y-anchor.Y)
	case document.ElementCircle:
		el.CX, el.CY = (anchor.X+p.X)/2, (anchor.Y+p.Y)/2
		el.RX, el.RY = math.Abs(p.X-anchor.X)/2, math.Abs(p.Y-anchor.Y)/2
	case document.ElementLine, document.ElementArrow:
		el.X2, el.Y2 = p.X, p.Y
	}
	return el
}

func trimText(s string) string {
	return strings.TrimSpace(s)
}
