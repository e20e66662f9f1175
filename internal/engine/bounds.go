package engine

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/driftboard/driftboard/backend-go/internal/document"
)

// Rect represents an axis-aligned bounding box.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IsEmpty checks if the rect has zero or negative area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Union returns the smallest rect containing both rects.
func (r Rect) Union(other Rect) Rect {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}

	minX := min(r.X, other.X)
	minY := min(r.Y, other.Y)
	maxX := max(r.X+r.Width, other.X+other.Width)
	maxY := max(r.Y+r.Height, other.Y+other.Height)

	return Rect{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX,
		Height: maxY - minY,
	}
}

// Center returns the center point of the rect.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Inflate grows the rect by d on every side.
func (r Rect) Inflate(d float64) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, Width: r.Width + 2*d, Height: r.Height + 2*d}
}

// TextBox approximates the extent of a text element without glyph metrics:
// 0.6 em per rune across, 1.4 em down.
func TextBox(el document.Element) Rect {
	return Rect{
		X:      el.X,
		Y:      el.Y,
		Width:  float64(utf8.RuneCountInString(el.Text)) * el.FontSize * 0.6,
		Height: el.FontSize * 1.4,
	}
}

// ElementBounds returns the world-space box covering an element's geometry
// including half its line width. Multi-line text uses its longest line.
func ElementBounds(el document.Element) Rect {
	pad := el.LineWidth / 2
	switch el.Type {
	case document.ElementStroke:
		if len(el.Points) == 0 {
			return Rect{}
		}
		minX, minY := math.Inf(1), math.Inf(1)
		maxX, maxY := math.Inf(-1), math.Inf(-1)
		for _, p := range el.Points {
			minX, maxX = min(minX, p.X), max(maxX, p.X)
			minY, maxY = min(minY, p.Y), max(maxY, p.Y)
		}
		return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}.Inflate(pad)
	case document.ElementRectangle:
		return Rect{X: el.X, Y: el.Y, Width: el.Width, Height: el.Height}.Inflate(pad)
	case document.ElementCircle:
		rx, ry := math.Abs(el.RX), math.Abs(el.RY)
		return Rect{X: el.CX - rx, Y: el.CY - ry, Width: 2 * rx, Height: 2 * ry}.Inflate(pad)
	case document.ElementLine, document.ElementArrow:
		if el.Type == document.ElementArrow {
			pad += arrowHeadLength(el.LineWidth)
		}
		return Rect{
			X:      min(el.X1, el.X2),
			Y:      min(el.Y1, el.Y2),
			Width:  math.Abs(el.X2 - el.X1),
			Height: math.Abs(el.Y2 - el.Y1),
		}.Inflate(pad)
	case document.ElementText:
		lines := strings.Split(el.Text, "\n")
		longest := 0
		for _, l := range lines {
			longest = max(longest, utf8.RuneCountInString(l))
		}
		return Rect{
			X:      el.X,
			Y:      el.Y,
			Width:  float64(longest) * el.FontSize * 0.6,
			Height: float64(len(lines)) * el.FontSize * 1.4,
		}
	case document.ElementSticky:
		return Rect{X: el.X, Y: el.Y, Width: el.Width, Height: el.Height}
	}
	return Rect{}
}

// ContentBounds returns the union of all element bounds.
func ContentBounds(elements []document.Element) Rect {
	var r Rect
	for _, el := range elements {
		r = r.Union(ElementBounds(el))
	}
	return r
}
