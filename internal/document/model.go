package document

import (
	"slices"
	"strings"
)

// Point is a position in world coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Mid returns the midpoint between p and q.
func (p Point) Mid(q Point) Point {
	return Point{X: (p.X + q.X) / 2, Y: (p.Y + q.Y) / 2}
}

type ElementType string

const (
	ElementStroke    ElementType = "stroke"
	ElementRectangle ElementType = "rectangle"
	ElementCircle    ElementType = "circle"
	ElementLine      ElementType = "line"
	ElementArrow     ElementType = "arrow"
	ElementText      ElementType = "text"
	ElementSticky    ElementType = "sticky"
)

// Known reports whether t names one of the drawable variants.
func (t ElementType) Known() bool {
	switch t {
	case ElementStroke, ElementRectangle, ElementCircle, ElementLine,
		ElementArrow, ElementText, ElementSticky:
		return true
	}
	return false
}

const (
	DefaultColor       = "#f8fafc"
	DefaultStrokeWidth = 3.0
	DefaultFontSize    = 20.0
	Background         = "#1a1a2e"

	StickyWidth  = 180.0
	StickyHeight = 160.0

	// MinRectangleSize is the extent below which a released rectangle is a click.
	MinRectangleSize = 2.0
)

// StickyPalette holds the background colors a new sticky note can draw from.
var StickyPalette = []string{"#fef08a", "#86efac", "#93c5fd", "#f9a8d4", "#fdba74"}

// Element is one drawable item on a page. Only the fields of its Type are
// meaningful; the rest stay zero.
type Element struct {
	ID        string      `json:"id"`
	Type      ElementType `json:"type"`
	Color     string      `json:"color,omitempty"`
	LineWidth float64     `json:"lineWidth,omitempty"`
	Fill      *string     `json:"fill,omitempty"`
	Opacity   float64     `json:"opacity"`

	// stroke
	Points []Point `json:"points,omitempty"`

	// rectangle, text, sticky
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`

	// circle
	CX float64 `json:"cx,omitempty"`
	CY float64 `json:"cy,omitempty"`
	RX float64 `json:"rx,omitempty"`
	RY float64 `json:"ry,omitempty"`

	// line, arrow
	X1 float64 `json:"x1,omitempty"`
	Y1 float64 `json:"y1,omitempty"`
	X2 float64 `json:"x2,omitempty"`
	Y2 float64 `json:"y2,omitempty"`

	// text, sticky
	Text     string  `json:"text,omitempty"`
	FontSize float64 `json:"fontSize,omitempty"`
	BgColor  string  `json:"bgColor,omitempty"`
}

// Style carries the tool settings a new element is created with.
type Style struct {
	Color     string
	LineWidth float64
	Fill      *string
	FontSize  float64
}

func NewStroke(id string, p Point, s Style) Element {
	return Element{
		ID:        id,
		Type:      ElementStroke,
		Color:     s.Color,
		LineWidth: s.LineWidth,
		Opacity:   1,
		Points:    []Point{p},
	}
}

func NewRectangle(id string, p Point, s Style) Element {
	return Element{
		ID:        id,
		Type:      ElementRectangle,
		Color:     s.Color,
		LineWidth: s.LineWidth,
		Fill:      cloneFill(s.Fill),
		Opacity:   1,
		X:         p.X,
		Y:         p.Y,
	}
}

func NewCircle(id string, p Point, s Style) Element {
	return Element{
		ID:        id,
		Type:      ElementCircle,
		Color:     s.Color,
		LineWidth: s.LineWidth,
		Fill:      cloneFill(s.Fill),
		Opacity:   1,
		CX:        p.X,
		CY:        p.Y,
	}
}

// NewSegment creates a zero-length line or arrow anchored at p.
func NewSegment(id string, t ElementType, p Point, s Style) Element {
	return Element{
		ID:        id,
		Type:      t,
		Color:     s.Color,
		LineWidth: s.LineWidth,
		Opacity:   1,
		X1:        p.X,
		Y1:        p.Y,
		X2:        p.X,
		Y2:        p.Y,
	}
}

func NewText(id string, p Point, text string, s Style) Element {
	return Element{
		ID:       id,
		Type:     ElementText,
		Color:    s.Color,
		Opacity:  1,
		X:        p.X,
		Y:        p.Y,
		Text:     text,
		FontSize: s.FontSize,
	}
}

func NewSticky(id string, p Point, text, bgColor string) Element {
	return Element{
		ID:      id,
		Type:    ElementSticky,
		Opacity: 1,
		X:       p.X,
		Y:       p.Y,
		Width:   StickyWidth,
		Height:  StickyHeight,
		Text:    text,
		BgColor: bgColor,
	}
}

// TranslucentFill derives the fill color used for filled shapes: the stroke
// color at 0x33 alpha.
func TranslucentFill(color string) *string {
	fill := color + "33"
	return &fill
}

// Clone returns a deep copy that shares no slices or pointers with e.
func (e Element) Clone() Element {
	e.Points = slices.Clone(e.Points)
	e.Fill = cloneFill(e.Fill)
	return e
}

// Valid reports whether a finished element may enter the committed list.
func (e Element) Valid() bool {
	switch e.Type {
	case ElementStroke:
		return len(e.Points) >= 2
	case ElementRectangle:
		if e.Width < 0 || e.Height < 0 {
			return false
		}
		return e.Width >= MinRectangleSize || e.Height >= MinRectangleSize
	case ElementCircle:
		return e.RX >= 0 && e.RY >= 0
	case ElementText:
		return strings.TrimSpace(e.Text) != ""
	default:
		return e.Type.Known()
	}
}

// CloneElements deep-copies a list of elements.
func CloneElements(elements []Element) []Element {
	if elements == nil {
		return []Element{}
	}
	out := make([]Element, len(elements))
	for i, e := range elements {
		out[i] = e.Clone()
	}
	return out
}

func cloneFill(fill *string) *string {
	if fill == nil {
		return nil
	}
	f := *fill
	return &f
}
