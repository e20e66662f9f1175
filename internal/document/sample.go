package document

import "github.com/driftboard/driftboard/backend-go/internal/typeid"

// NewSampleElements returns a small board showing every element kind.
func NewSampleElements() []Element {
	style := Style{Color: DefaultColor, LineWidth: DefaultStrokeWidth, FontSize: DefaultFontSize}

	stroke := NewStroke(typeid.NewElementID(), Pt(80, 260), style)
	stroke.Points = append(stroke.Points, Pt(120, 230), Pt(160, 270), Pt(200, 235), Pt(240, 262))

	rect := NewRectangle(typeid.NewElementID(), Pt(80, 80), Style{
		Color:     "#93c5fd",
		LineWidth: DefaultStrokeWidth,
		Fill:      TranslucentFill("#93c5fd"),
	})
	rect.Width, rect.Height = 160, 100

	circle := NewCircle(typeid.NewElementID(), Pt(380, 130), Style{Color: "#f9a8d4", LineWidth: DefaultStrokeWidth})
	circle.RX, circle.RY = 70, 50

	line := NewSegment(typeid.NewElementID(), ElementLine, Pt(300, 260), style)
	line.X2, line.Y2 = 460, 260

	arrow := NewSegment(typeid.NewElementID(), ElementArrow, Pt(260, 130), Style{Color: "#fdba74", LineWidth: DefaultStrokeWidth})
	arrow.X2, arrow.Y2 = 305, 130

	title := NewText(typeid.NewElementID(), Pt(80, 20), "Driftboard\ninfinite canvas", style)

	note := NewSticky(typeid.NewElementID(), Pt(520, 80), "Pan with space or the middle button.", StickyPalette[0])

	return []Element{stroke, rect, circle, line, arrow, title, note}
}
