package engine

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strings"
	"sync"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/driftboard/driftboard/backend-go/internal/document"
)

const (
	gridSpacing = 40.0

	arrowHeadAngle = math.Pi / 6

	stickyFontSize   = 13.0
	stickyPadding    = 10.0
	stickyHeaderSize = 24.0
)

var (
	backgroundColor   = gg.Hex(document.Background)
	gridColor         = gg.RGBA{R: 1, G: 1, B: 1, A: 0.04}
	stickyHeaderColor = gg.RGBA{R: 0, G: 0, B: 0, A: 0.1}
	stickyTextColor   = gg.Hex("#1a1a2e")
)

var regularFont = sync.OnceValues(func() (*text.FontSource, error) {
	return text.NewFontSource(goregular.TTF)
})

// Surface is the raster target one engine draws its frames into.
type Surface struct {
	dc    *gg.Context
	faces map[float64]text.Face
}

// NewSurface allocates a surface of the given pixel size.
func NewSurface(width, height int) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid surface size %dx%d", width, height)
	}
	return &Surface{
		dc:    gg.NewContext(width, height),
		faces: make(map[float64]text.Face),
	}, nil
}

func (s *Surface) Width() int  { return s.dc.Width() }
func (s *Surface) Height() int { return s.dc.Height() }

// Resize reallocates the backing pixels. The content is lost until the next draw.
func (s *Surface) Resize(width, height int) error {
	return s.dc.Resize(width, height)
}

// Close releases the rasterizer state.
func (s *Surface) Close() error {
	return s.dc.Close()
}

// Image returns the last drawn frame.
func (s *Surface) Image() image.Image {
	return s.dc.Image()
}

// Draw renders one frame: background, grid, then elements in list order
// under the view transform. Sticky notes are laid over everything else.
// Drawing continues past element failures, which are joined into the result.
func (s *Surface) Draw(elements []document.Element, view ViewTransform) error {
	dc := s.dc
	dc.Identity()
	dc.ClearPath()
	dc.ClearWithColor(backgroundColor)

	var errs []error
	errs = append(errs, s.drawGrid(view))

	dc.SetTransform(view.Matrix().GG())
	for _, el := range elements {
		if el.Type == document.ElementSticky {
			continue
		}
		if err := s.drawElement(el, view); err != nil {
			errs = append(errs, fmt.Errorf("draw %s %s: %w", el.Type, el.ID, err))
		}
	}
	for _, el := range elements {
		if el.Type != document.ElementSticky {
			continue
		}
		if err := s.drawSticky(el, view); err != nil {
			errs = append(errs, fmt.Errorf("draw sticky %s: %w", el.ID, err))
		}
	}
	dc.Identity()

	return errors.Join(errs...)
}

func (s *Surface) drawGrid(view ViewTransform) error {
	dc := s.dc
	size := gridSpacing * view.Scale
	w, h := float64(dc.Width()), float64(dc.Height())

	dc.SetColor(gridColor.Color())
	dc.SetLineWidth(1)
	for x := math.Mod(view.OffsetX, size); x < w; x += size {
		dc.MoveTo(x, 0)
		dc.LineTo(x, h)
	}
	for y := math.Mod(view.OffsetY, size); y < h; y += size {
		dc.MoveTo(0, y)
		dc.LineTo(w, y)
	}
	return dc.Stroke()
}

func (s *Surface) drawElement(el document.Element, view ViewTransform) error {
	dc := s.dc
	stroke := withOpacity(gg.Hex(el.Color), el.Opacity)

	dc.SetLineWidth(el.LineWidth)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)

	switch el.Type {
	case document.ElementStroke:
		if len(el.Points) < 2 {
			return nil
		}
		pts := el.Points
		dc.MoveTo(pts[0].X, pts[0].Y)
		for i := 1; i < len(pts)-1; i++ {
			mid := pts[i].Mid(pts[i+1])
			dc.QuadraticTo(pts[i].X, pts[i].Y, mid.X, mid.Y)
		}
		last := pts[len(pts)-1]
		dc.LineTo(last.X, last.Y)
		dc.SetColor(stroke.Color())
		return dc.Stroke()

	case document.ElementRectangle:
		if el.Fill != nil {
			dc.DrawRectangle(el.X, el.Y, el.Width, el.Height)
			dc.SetColor(withOpacity(gg.Hex(*el.Fill), el.Opacity).Color())
			if err := dc.Fill(); err != nil {
				return err
			}
		}
		dc.DrawRectangle(el.X, el.Y, el.Width, el.Height)
		dc.SetColor(stroke.Color())
		return dc.Stroke()

	case document.ElementCircle:
		rx, ry := math.Abs(el.RX), math.Abs(el.RY)
		if rx == 0 && ry == 0 {
			return nil
		}
		if el.Fill != nil {
			dc.DrawEllipse(el.CX, el.CY, rx, ry)
			dc.SetColor(withOpacity(gg.Hex(*el.Fill), el.Opacity).Color())
			if err := dc.Fill(); err != nil {
				return err
			}
		}
		dc.DrawEllipse(el.CX, el.CY, rx, ry)
		dc.SetColor(stroke.Color())
		return dc.Stroke()

	case document.ElementLine:
		dc.DrawLine(el.X1, el.Y1, el.X2, el.Y2)
		dc.SetColor(stroke.Color())
		return dc.Stroke()

	case document.ElementArrow:
		dc.DrawLine(el.X1, el.Y1, el.X2, el.Y2)
		dc.SetColor(stroke.Color())
		if err := dc.Stroke(); err != nil {
			return err
		}
		head := ArrowHead(el)
		dc.MoveTo(head[0].X, head[0].Y)
		dc.LineTo(head[1].X, head[1].Y)
		dc.LineTo(head[2].X, head[2].Y)
		dc.ClosePath()
		return dc.Fill()

	case document.ElementText:
		return s.drawText(el.Text, document.Pt(el.X, el.Y), el.FontSize, stroke, view)
	}
	return nil
}

// drawSticky paints a note body, a header strip and its text.
func (s *Surface) drawSticky(el document.Element, view ViewTransform) error {
	dc := s.dc
	dc.DrawRectangle(el.X, el.Y, el.Width, el.Height)
	dc.SetColor(withOpacity(gg.Hex(el.BgColor), el.Opacity).Color())
	if err := dc.Fill(); err != nil {
		return err
	}

	dc.DrawRectangle(el.X, el.Y, el.Width, stickyHeaderSize)
	dc.SetColor(withOpacity(stickyHeaderColor, el.Opacity).Color())
	if err := dc.Fill(); err != nil {
		return err
	}

	if el.Text == "" {
		return nil
	}
	origin := document.Pt(el.X+stickyPadding, el.Y+stickyHeaderSize+stickyPadding/2)
	return s.drawText(el.Text, origin, stickyFontSize, withOpacity(stickyTextColor, el.Opacity), view)
}

// drawText draws top-anchored lines. Glyphs are rasterised in screen space at
// the scaled size since text drawing bypasses the path transform.
func (s *Surface) drawText(str string, topLeft document.Point, fontSize float64, col gg.RGBA, view ViewTransform) error {
	px := fontSize * view.Scale
	if px < 1 {
		return nil
	}
	face, err := s.face(px)
	if err != nil {
		return err
	}

	dc := s.dc
	dc.SetFont(face)
	dc.SetColor(col.Color())
	ascent := face.Metrics().Ascent
	for i, line := range strings.Split(str, "\n") {
		if line == "" {
			continue
		}
		origin := view.ToScreen(document.Pt(topLeft.X, topLeft.Y+float64(i)*fontSize*1.4))
		dc.DrawString(line, origin.X, origin.Y+ascent)
	}
	return nil
}

func (s *Surface) face(size float64) (text.Face, error) {
	size = math.Round(size*4) / 4
	if f, ok := s.faces[size]; ok {
		return f, nil
	}
	src, err := regularFont()
	if err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}
	f := src.Face(size)
	s.faces[size] = f
	return f, nil
}

func arrowHeadLength(lineWidth float64) float64 {
	return 16 + lineWidth*2
}

// ArrowHead returns the tip and the two barbs of an arrow's head in world
// coordinates.
func ArrowHead(el document.Element) [3]document.Point {
	angle := math.Atan2(el.Y2-el.Y1, el.X2-el.X1)
	l := arrowHeadLength(el.LineWidth)
	return [3]document.Point{
		{X: el.X2, Y: el.Y2},
		{X: el.X2 - l*math.Cos(angle-arrowHeadAngle), Y: el.Y2 - l*math.Sin(angle-arrowHeadAngle)},
		{X: el.X2 - l*math.Cos(angle+arrowHeadAngle), Y: el.Y2 - l*math.Sin(angle+arrowHeadAngle)},
	}
}

func withOpacity(c gg.RGBA, opacity float64) gg.RGBA {
	c.A *= max(0, min(1, opacity))
	return c
}

// --- Engine wiring ---

// AttachSurface creates the backing surface at the given viewport size and
// draws the first frame.
func (e *Engine) AttachSurface(width, height int) error {
	s, err := NewSurface(width, height)
	if err != nil {
		return fmt.Errorf("attach surface: %w", err)
	}
	if e.surface != nil {
		e.surface.Close()
	}
	e.viewport = Size{Width: width, Height: height}
	e.surface = s
	e.redraw()
	return nil
}

// DetachSurface drops the backing surface; rendering and export stop.
func (e *Engine) DetachSurface() {
	if e.surface == nil {
		return
	}
	if err := e.surface.Close(); err != nil {
		e.log.Warn("close surface", "error", err)
	}
	e.surface = nil
}

// HasSurface reports whether a backing surface is attached.
func (e *Engine) HasSurface() bool { return e.surface != nil }

// Resize records a new viewport size, resizes the surface if attached and
// redraws.
func (e *Engine) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("resize: invalid size %dx%d", width, height)
	}
	e.viewport = Size{Width: width, Height: height}
	if e.surface == nil {
		return nil
	}
	if err := e.surface.Resize(width, height); err != nil {
		return fmt.Errorf("resize surface: %w", err)
	}
	e.redraw()
	return nil
}

// Frame returns the most recently rendered frame, or nil without a surface.
func (e *Engine) Frame() image.Image {
	if e.surface == nil {
		return nil
	}
	return e.surface.Image()
}

// Render redraws the current state. It is a no-op without a surface.
func (e *Engine) Render() {
	e.redraw()
}

// frameElements is the committed list with the in-progress element on top.
func (e *Engine) frameElements() []document.Element {
	if e.session.state != stateDrawing {
		return e.elements
	}
	out := make([]document.Element, 0, len(e.elements)+1)
	out = append(out, e.elements...)
	return append(out, e.session.draft)
}

func (e *Engine) redraw() {
	if e.surface == nil {
		return
	}
	if err := e.surface.Draw(e.frameElements(), e.view); err != nil {
		e.log.Warn("render frame", "error", err)
	}
}
