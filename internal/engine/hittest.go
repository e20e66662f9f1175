package engine

import (
	"math"

	"github.com/driftboard/driftboard/backend-go/internal/document"
)

// HitElement reports whether the eraser at world point p with radius r
// touches el. The shapes are intentionally loose approximations.
func HitElement(el document.Element, p document.Point, r float64) bool {
	switch el.Type {
	case document.ElementStroke:
		for _, pt := range el.Points {
			if math.Hypot(pt.X-p.X, pt.Y-p.Y) < r {
				return true
			}
		}
		return false

	case document.ElementRectangle:
		cx, cy := el.X+el.Width/2, el.Y+el.Height/2
		return math.Abs(p.X-cx) <= el.Width/2+r && math.Abs(p.Y-cy) <= el.Height/2+r

	case document.ElementCircle:
		nx := (p.X - el.CX) / (math.Abs(el.RX) + r)
		ny := (p.Y - el.CY) / (math.Abs(el.RY) + r)
		return nx*nx+ny*ny <= 1

	case document.ElementLine, document.ElementArrow:
		return DistToSegment(p, document.Pt(el.X1, el.Y1), document.Pt(el.X2, el.Y2)) <= r

	case document.ElementText:
		box := TextBox(el)
		return PointInRect(p, box.X, box.Y, box.Width, box.Height, r)

	case document.ElementSticky:
		return PointInRect(p, el.X, el.Y, el.Width, el.Height, r)
	}
	return false
}

// EraseAt returns the elements not hit at p, and whether anything was removed.
func EraseAt(elements []document.Element, p document.Point, r float64) ([]document.Element, bool) {
	kept := make([]document.Element, 0, len(elements))
	for _, el := range elements {
		if !HitElement(el, p, r) {
			kept = append(kept, el)
		}
	}
	return kept, len(kept) != len(elements)
}

// HitTest returns the ID of the topmost element within r of p, or "".
func HitTest(elements []document.Element, p document.Point, r float64) string {
	for i := len(elements) - 1; i >= 0; i-- {
		if HitElement(elements[i], p, r) {
			return elements[i].ID
		}
	}
	return ""
}
