package document

import (
	"encoding/json"
	"testing"
)

func TestElementValid(t *testing.T) {
	style := Style{Color: DefaultColor, LineWidth: DefaultStrokeWidth, FontSize: DefaultFontSize}

	twoPoint := NewStroke("a", Pt(0, 0), style)
	twoPoint.Points = append(twoPoint.Points, Pt(1, 1))

	wide := NewRectangle("b", Pt(0, 0), style)
	wide.Width, wide.Height = 2, 0

	tall := NewRectangle("c", Pt(0, 0), style)
	tall.Width, tall.Height = 1, 5

	click := NewRectangle("d", Pt(0, 0), style)
	click.Width, click.Height = 1, 1

	flipped := NewRectangle("k", Pt(0, 0), style)
	flipped.Width, flipped.Height = -20, 10

	inverted := NewCircle("l", Pt(0, 0), style)
	inverted.RX, inverted.RY = 5, -5

	tests := []struct {
		name string
		el   Element
		want bool
	}{
		{"single point stroke", NewStroke("s", Pt(0, 0), style), false},
		{"two point stroke", twoPoint, true},
		{"wide rectangle", wide, true},
		{"tall rectangle", tall, true},
		{"click rectangle", click, false},
		{"zero circle", NewCircle("e", Pt(3, 3), style), true},
		{"zero line", NewSegment("f", ElementLine, Pt(3, 3), style), true},
		{"zero arrow", NewSegment("g", ElementArrow, Pt(3, 3), style), true},
		{"negative width rectangle", flipped, false},
		{"negative radius circle", inverted, false},
		{"text", NewText("h", Pt(0, 0), "hi", style), true},
		{"blank text", NewText("m", Pt(0, 0), " \n\t", style), false},
		{"empty text", NewText("n", Pt(0, 0), "", style), false},
		{"sticky", NewSticky("i", Pt(0, 0), "", StickyPalette[0]), true},
		{"unknown", Element{ID: "j", Type: "blob"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.el.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	style := Style{Color: "#ffffff", LineWidth: 2, Fill: TranslucentFill("#ffffff")}
	orig := NewRectangle("r", Pt(0, 0), style)
	orig.Points = []Point{{1, 1}}

	c := orig.Clone()
	c.Points[0].X = 99
	*c.Fill = "#000000"

	if orig.Points[0].X != 1 {
		t.Errorf("clone shares points: orig.Points[0].X = %v", orig.Points[0].X)
	}
	if *orig.Fill != "#ffffff33" {
		t.Errorf("clone shares fill: orig.Fill = %q", *orig.Fill)
	}
}

func TestNewStickyDefaults(t *testing.T) {
	s := NewSticky("n", Pt(10, 20), "todo", "#86efac")
	if s.Width != 180 || s.Height != 160 {
		t.Errorf("sticky size = %vx%v, want 180x160", s.Width, s.Height)
	}
	if s.Opacity != 1 {
		t.Errorf("Opacity = %v, want 1", s.Opacity)
	}
	if s.Color != "" {
		t.Errorf("Color = %q, want empty for sticky", s.Color)
	}
}

func TestElementJSONUsesTypeDiscriminator(t *testing.T) {
	el := NewSegment("x", ElementArrow, Pt(1, 2), Style{Color: "#f8fafc", LineWidth: 3})
	el.X2, el.Y2 = 5, 6

	data, err := json.Marshal(el)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if raw["type"] != "arrow" {
		t.Errorf("type = %v, want arrow", raw["type"])
	}
	if _, ok := raw["points"]; ok {
		t.Error("arrow JSON carries stroke points")
	}
	if _, ok := raw["fill"]; ok {
		t.Error("arrow JSON carries fill")
	}
}

func TestSampleElementsAreValid(t *testing.T) {
	elements := NewSampleElements()
	seen := make(map[ElementType]bool)
	for _, el := range elements {
		if !el.Valid() {
			t.Errorf("sample element %s (%s) is invalid", el.ID, el.Type)
		}
		seen[el.Type] = true
	}
	if len(seen) != 7 {
		t.Errorf("sample covers %d kinds, want 7", len(seen))
	}
}
