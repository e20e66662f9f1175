package engine

import (
	"math"

	"github.com/driftboard/driftboard/backend-go/internal/document"
)

// DistToSegment returns the distance from p to the segment ab.
func DistToSegment(p, a, b document.Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		length = 1e-6
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / (length * length)
	t = max(0, min(1, t))
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}

// PointInRect reports whether p lies in the rectangle (x, y, w, h) grown by
// pad on every side.
func PointInRect(p document.Point, x, y, w, h, pad float64) bool {
	return p.X >= x-pad && p.X <= x+w+pad && p.Y >= y-pad && p.Y <= y+h+pad
}
