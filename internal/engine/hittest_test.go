package engine

import (
	"testing"

	"github.com/driftboard/driftboard/backend-go/internal/document"
)

func TestDistToSegment(t *testing.T) {
	tests := []struct {
		name    string
		p, a, b document.Point
		want    float64
	}{
		{"on segment", document.Pt(5, 0), document.Pt(0, 0), document.Pt(10, 0), 0},
		{"above middle", document.Pt(5, 3), document.Pt(0, 0), document.Pt(10, 0), 3},
		{"past end clamps", document.Pt(13, 4), document.Pt(0, 0), document.Pt(10, 0), 5},
		{"before start clamps", document.Pt(-3, -4), document.Pt(0, 0), document.Pt(10, 0), 5},
		{"degenerate", document.Pt(3, 4), document.Pt(0, 0), document.Pt(0, 0), 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DistToSegment(tt.p, tt.a, tt.b); !near(got, tt.want) {
				t.Errorf("DistToSegment() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPointInRect(t *testing.T) {
	tests := []struct {
		p    document.Point
		pad  float64
		want bool
	}{
		{document.Pt(5, 5), 0, true},
		{document.Pt(10, 10), 0, true},
		{document.Pt(12, 5), 0, false},
		{document.Pt(12, 5), 2, true},
		{document.Pt(-3, -3), 2, false},
	}
	for _, tt := range tests {
		if got := PointInRect(tt.p, 0, 0, 10, 10, tt.pad); got != tt.want {
			t.Errorf("PointInRect(%v, pad %v) = %v, want %v", tt.p, tt.pad, got, tt.want)
		}
	}
}

func TestHitElement(t *testing.T) {
	style := document.Style{Color: "#ffffff", LineWidth: 3, FontSize: 20}

	stroke := document.NewStroke("s", document.Pt(0, 0), style)
	stroke.Points = append(stroke.Points, document.Pt(10, 10), document.Pt(20, 5))

	rect := document.NewRectangle("r", document.Pt(0, 0), style)
	rect.Width, rect.Height = 50, 50

	circle := document.NewCircle("c", document.Pt(100, 100), style)
	circle.RX, circle.RY = 20, 10

	negCircle := circle
	negCircle.RX, negCircle.RY = -20, -10

	line := document.NewSegment("l", document.ElementLine, document.Pt(0, 0), style)
	line.X2, line.Y2 = 100, 0

	text := document.NewText("t", document.Pt(0, 0), "hello", style) // 60 x 28

	sticky := document.NewSticky("n", document.Pt(0, 0), "", document.StickyPalette[0])

	tests := []struct {
		name string
		el   document.Element
		p    document.Point
		r    float64
		want bool
	}{
		{"stroke near point", stroke, document.Pt(10, 12), 3, true},
		{"stroke at exact radius misses", stroke, document.Pt(10, 13), 3, false},
		{"stroke far", stroke, document.Pt(50, 50), 3, false},
		{"rect center with pad", rect, document.Pt(25, 25), 30, true},
		{"rect far", rect, document.Pt(1000, 1000), 5, false},
		{"rect edge of padding", rect, document.Pt(55, 25), 5, true},
		{"rect just outside padding", rect, document.Pt(55.1, 25), 5, false},
		{"circle inside", circle, document.Pt(110, 100), 0, true},
		{"circle on padded boundary", circle, document.Pt(125, 100), 5, true},
		{"circle outside", circle, document.Pt(100, 116), 5, false},
		{"circle negative radii", negCircle, document.Pt(110, 100), 0, true},
		{"line within radius", line, document.Pt(50, 4), 4, true},
		{"line outside radius", line, document.Pt(50, 5), 4, false},
		{"text inside box", text, document.Pt(59, 27), 0, true},
		{"text beyond box", text, document.Pt(61, 10), 0, false},
		{"text beyond box within pad", text, document.Pt(61, 10), 2, true},
		{"sticky inside", sticky, document.Pt(179, 159), 0, true},
		{"sticky outside", sticky, document.Pt(185, 80), 4, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HitElement(tt.el, tt.p, tt.r); got != tt.want {
				t.Errorf("HitElement() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEraseAtAndHitTest(t *testing.T) {
	a, b := rectEl("a"), rectEl("b")
	b.X = 100

	kept, removed := EraseAt([]document.Element{a, b}, document.Pt(5, 5), 1)
	if !removed || len(kept) != 1 || kept[0].ID != "b" {
		t.Errorf("EraseAt() = %v, %v; want [b], true", kept, removed)
	}

	_, removed = EraseAt([]document.Element{a, b}, document.Pt(500, 500), 1)
	if removed {
		t.Error("EraseAt() far away removed something")
	}

	top := rectEl("top")
	if got := HitTest([]document.Element{a, top}, document.Pt(5, 5), 0); got != "top" {
		t.Errorf("HitTest() = %q, want top", got)
	}
}

func TestElementBounds(t *testing.T) {
	style := document.Style{Color: "#ffffff", LineWidth: 2, FontSize: 10}

	circle := document.NewCircle("c", document.Pt(0, 0), style)
	circle.RX, circle.RY = 10, 5
	if got := ElementBounds(circle); got != (Rect{X: -11, Y: -6, Width: 22, Height: 12}) {
		t.Errorf("circle bounds = %+v", got)
	}

	text := document.NewText("t", document.Pt(0, 0), "ab\nabcd", style)
	got := ElementBounds(text)
	if !near(got.Width, 24) || !near(got.Height, 28) {
		t.Errorf("text bounds = %+v, want 24x28", got)
	}

	all := ContentBounds([]document.Element{circle, text})
	if all.X != -11 || all.Y != -6 {
		t.Errorf("ContentBounds origin = (%v,%v), want (-11,-6)", all.X, all.Y)
	}
}
