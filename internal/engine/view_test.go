package engine

import (
	"math"
	"testing"

	"github.com/driftboard/driftboard/backend-go/internal/document"
)

const eps = 1e-9

func near(a, b float64) bool {
	return math.Abs(a-b) <= eps*max(1, math.Abs(a), math.Abs(b))
}

func nearPoint(a, b document.Point) bool {
	return near(a.X, b.X) && near(a.Y, b.Y)
}

func TestViewRoundTrip(t *testing.T) {
	views := []ViewTransform{
		DefaultView(),
		{Scale: 2, OffsetX: -100, OffsetY: -100},
		{Scale: 0.05, OffsetX: 13.5, OffsetY: -7.25},
		{Scale: 10, OffsetX: 1e4, OffsetY: -3e3},
		{Scale: 0.333, OffsetX: 0.1, OffsetY: 0.2},
	}
	points := []document.Point{document.Pt(0, 0), document.Pt(100, 100), document.Pt(-50.5, 1234.75), document.Pt(1920, 1080)}

	for _, v := range views {
		for _, s := range points {
			got := v.ToScreen(v.ToWorld(s))
			if !nearPoint(got, s) {
				t.Errorf("ToScreen(ToWorld(%v)) under %+v = %v", s, v, got)
			}
		}
	}
}

func TestZoomKeepsFocalPoint(t *testing.T) {
	tests := []struct {
		name   string
		view   ViewTransform
		focal  document.Point
		factor float64
	}{
		{"in from identity", DefaultView(), document.Pt(100, 100), 2},
		{"out", ViewTransform{Scale: 3, OffsetX: 40, OffsetY: -20}, document.Pt(640, 360), 0.5},
		{"clamped high", ViewTransform{Scale: 8, OffsetX: 5, OffsetY: 5}, document.Pt(10, 900), 4},
		{"clamped low", ViewTransform{Scale: 0.1, OffsetX: -300, OffsetY: 12}, document.Pt(0, 0), 0.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.view.ToWorld(tt.focal)
			next := tt.view.Zoom(tt.focal, tt.factor)
			after := next.ToWorld(tt.focal)
			if !nearPoint(before, after) {
				t.Errorf("world under focal moved from %v to %v", before, after)
			}
			if next.Scale < MinScale || next.Scale > MaxScale {
				t.Errorf("Scale = %v, outside [%v, %v]", next.Scale, MinScale, MaxScale)
			}
		})
	}
}

func TestZoomToDoubleFromIdentity(t *testing.T) {
	v := DefaultView().Zoom(document.Pt(100, 100), 2)

	want := ViewTransform{Scale: 2, OffsetX: -100, OffsetY: -100}
	if v != want {
		t.Fatalf("Zoom() = %+v, want %+v", v, want)
	}
	if got := v.ToScreen(document.Pt(100, 100)); got != document.Pt(100, 100) {
		t.Errorf("ToScreen(100,100) = %v, want (100,100)", got)
	}
}

func TestPanIgnoresScale(t *testing.T) {
	v := ViewTransform{Scale: 4, OffsetX: 1, OffsetY: 2}.Pan(10, -5)
	if v.OffsetX != 11 || v.OffsetY != -3 || v.Scale != 4 {
		t.Errorf("Pan() = %+v, want {4 11 -3}", v)
	}
}

func TestClampScale(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{1, 1},
		{0.01, MinScale},
		{-3, MinScale},
		{11, MaxScale},
		{math.NaN(), 1},
	}
	for _, tt := range tests {
		if got := ClampScale(tt.in); got != tt.want {
			t.Errorf("ClampScale(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestZoomPercent(t *testing.T) {
	tests := []struct {
		scale float64
		want  int
	}{
		{1, 100},
		{0.05, 5},
		{1.234, 123},
		{10, 1000},
	}
	for _, tt := range tests {
		if got := (ViewTransform{Scale: tt.scale}).ZoomPercent(); got != tt.want {
			t.Errorf("ZoomPercent() at %v = %d, want %d", tt.scale, got, tt.want)
		}
	}
}

func TestMatrixAgreesWithView(t *testing.T) {
	v := ViewTransform{Scale: 1.5, OffsetX: 30, OffsetY: -12}
	m := v.Matrix()
	p := document.Pt(17, 42)

	x, y := m.TransformPoint(p.X, p.Y)
	if !nearPoint(document.Pt(x, y), v.ToScreen(p)) {
		t.Errorf("Matrix().TransformPoint = (%v,%v), want %v", x, y, v.ToScreen(p))
	}

	if back := v.ToWorld(document.Pt(x, y)); !nearPoint(back, p) {
		t.Errorf("ToWorld round trip = %v, want %v", back, p)
	}

	g := m.GG()
	if g.A != 1.5 || g.E != 1.5 || g.C != 30 || g.F != -12 || g.B != 0 || g.D != 0 {
		t.Errorf("GG() = %+v", g)
	}
}

func TestFitRect(t *testing.T) {
	src := Rect{X: 100, Y: 100, Width: 200, Height: 100}
	dst := Rect{Width: 600, Height: 600}

	m := FitRect(src, dst, 50)
	got := m.TransformRect(src)

	if !near(got.Width, 500) {
		t.Errorf("fitted width = %v, want 500", got.Width)
	}
	if !near(got.X, 50) {
		t.Errorf("fitted x = %v, want 50", got.X)
	}
	if cx, cy := got.Center(); !near(cx, 300) || !near(cy, 300) {
		t.Errorf("fitted center = (%v,%v), want (300,300)", cx, cy)
	}
}

func TestTransformRectNormalizes(t *testing.T) {
	m := ViewTransform{Scale: 2, OffsetX: 10, OffsetY: 20}.Matrix()

	// a rectangle dragged up and to the left
	got := m.TransformRect(Rect{X: 50, Y: 40, Width: -30, Height: -10})
	want := Rect{X: 50, Y: 80, Width: 60, Height: 20}
	if !near(got.X, want.X) || !near(got.Y, want.Y) || !near(got.Width, want.Width) || !near(got.Height, want.Height) {
		t.Errorf("TransformRect() = %+v, want %+v", got, want)
	}
}
