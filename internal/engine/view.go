package engine

import (
	"math"

	"github.com/driftboard/driftboard/backend-go/internal/document"
)

const (
	MinScale = 0.05
	MaxScale = 10.0
)

// ViewTransform maps world coordinates to screen coordinates with a uniform
// scale followed by an offset.
type ViewTransform struct {
	Scale   float64 `json:"scale"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

// DefaultView is the identity view a new page starts with.
func DefaultView() ViewTransform {
	return ViewTransform{Scale: 1}
}

// ClampScale limits s to [MinScale, MaxScale]. NaN maps to 1.
func ClampScale(s float64) float64 {
	if math.IsNaN(s) {
		return 1
	}
	return max(MinScale, min(MaxScale, s))
}

// ToWorld converts a screen point to world coordinates.
func (v ViewTransform) ToWorld(s document.Point) document.Point {
	return document.Point{
		X: (s.X - v.OffsetX) / v.Scale,
		Y: (s.Y - v.OffsetY) / v.Scale,
	}
}

// ToScreen converts a world point to screen coordinates.
func (v ViewTransform) ToScreen(w document.Point) document.Point {
	return document.Point{
		X: w.X*v.Scale + v.OffsetX,
		Y: w.Y*v.Scale + v.OffsetY,
	}
}

// Zoom multiplies the scale by factor, clamped, keeping the world point under
// focal fixed on screen.
func (v ViewTransform) Zoom(focal document.Point, factor float64) ViewTransform {
	return v.ZoomTo(focal, v.Scale*factor)
}

// ZoomTo sets the scale, clamped, keeping the world point under focal fixed
// on screen.
func (v ViewTransform) ZoomTo(focal document.Point, scale float64) ViewTransform {
	next := ClampScale(scale)
	ratio := next / v.Scale
	return ViewTransform{
		Scale:   next,
		OffsetX: focal.X - ratio*(focal.X-v.OffsetX),
		OffsetY: focal.Y - ratio*(focal.Y-v.OffsetY),
	}
}

// Pan shifts the view by a screen-space delta.
func (v ViewTransform) Pan(dx, dy float64) ViewTransform {
	v.OffsetX += dx
	v.OffsetY += dy
	return v
}

// ZoomPercent is the scale as a rounded percentage.
func (v ViewTransform) ZoomPercent() int {
	return int(math.Round(v.Scale * 100))
}

// Matrix returns the world-to-screen matrix.
func (v ViewTransform) Matrix() Matrix2D {
	return Matrix2D{v.Scale, 0, 0, v.Scale, v.OffsetX, v.OffsetY}
}

// Normalize returns v with its scale clamped.
func (v ViewTransform) Normalize() ViewTransform {
	v.Scale = ClampScale(v.Scale)
	return v
}
