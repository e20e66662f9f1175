package export

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/gogpu/gg"
	"github.com/jung-kurt/gofpdf"

	"github.com/driftboard/driftboard/backend-go/internal/document"
	"github.com/driftboard/driftboard/backend-go/internal/engine"
)

const (
	pdfMargin = 36.0 // half an inch, in points

	// maxPDFScale stops a single small element from filling the page.
	maxPDFScale = 4.0

	// ascentRatio approximates Helvetica's ascent as a fraction of its size.
	ascentRatio = 0.8

	stickyFontSize   = 13.0
	stickyPadding    = 10.0
	stickyHeaderSize = 24.0
	lineHeight       = 1.4
)

// PDFOptions controls the PDF page.
type PDFOptions struct {
	// Orientation is "L" or "P". Defaults to landscape.
	Orientation string
	// Size is a gofpdf page size name such as "A4" or "Letter".
	Size  string
	Title string
}

// WritePDF renders elements as vector shapes on one page, scaled to fit.
// Sticky notes are drawn after everything else, as on screen.
func WritePDF(w io.Writer, elements []document.Element, opts PDFOptions) error {
	if opts.Orientation == "" {
		opts.Orientation = "L"
	}
	if opts.Size == "" {
		opts.Size = "A4"
	}

	pdf := gofpdf.New(opts.Orientation, "pt", opts.Size, "")
	pdf.SetAutoPageBreak(false, 0)
	if opts.Title != "" {
		pdf.SetTitle(opts.Title, true)
	}
	pdf.SetCreator("driftboard", true)
	pdf.AddPage()

	pw, ph := pdf.GetPageSize()
	page := engine.Rect{Width: pw, Height: ph}

	setFill(pdf, gg.Hex(document.Background))
	pdf.Rect(0, 0, pw, ph, "F")

	p := &pdfPainter{
		pdf: pdf,
		m:   fitContent(engine.ContentBounds(elements), page),
		tr:  pdf.UnicodeTranslatorFromDescriptor(""),
	}
	p.k = p.m.ScaleFactor()

	for _, el := range elements {
		if el.Type != document.ElementSticky {
			p.element(el)
		}
	}
	for _, el := range elements {
		if el.Type == document.ElementSticky {
			p.sticky(el)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// fitContent maps content bounds into the page, never enlarging beyond
// maxPDFScale.
func fitContent(content, page engine.Rect) engine.Matrix2D {
	if content.IsEmpty() {
		return engine.Translate(pdfMargin, pdfMargin)
	}
	availW, availH := page.Width-2*pdfMargin, page.Height-2*pdfMargin
	if k := min(availW/content.Width, availH/content.Height); k > maxPDFScale {
		cx, cy := content.Center()
		w, h := availW/maxPDFScale, availH/maxPDFScale
		content = engine.Rect{X: cx - w/2, Y: cy - h/2, Width: w, Height: h}
	}
	return engine.FitRect(content, page, pdfMargin)
}

type pdfPainter struct {
	pdf *gofpdf.Fpdf
	m   engine.Matrix2D
	k   float64
	tr  func(string) string
}

func (p *pdfPainter) pt(x, y float64) (float64, float64) {
	return p.m.TransformPoint(x, y)
}

func (p *pdfPainter) element(el document.Element) {
	pdf := p.pdf
	stroke := gg.Hex(el.Color)
	stroke.A *= opacity(el.Opacity)

	pdf.SetLineWidth(el.LineWidth * p.k)
	pdf.SetLineCapStyle("round")
	pdf.SetLineJoinStyle("round")
	setDraw(pdf, stroke)

	switch el.Type {
	case document.ElementStroke:
		if len(el.Points) < 2 {
			return
		}
		pts := el.Points
		pdf.MoveTo(p.pt(pts[0].X, pts[0].Y))
		for i := 1; i < len(pts)-1; i++ {
			mid := pts[i].Mid(pts[i+1])
			cx, cy := p.pt(pts[i].X, pts[i].Y)
			x, y := p.pt(mid.X, mid.Y)
			pdf.CurveTo(cx, cy, x, y)
		}
		last := pts[len(pts)-1]
		pdf.LineTo(p.pt(last.X, last.Y))
		pdf.DrawPath("D")

	case document.ElementRectangle:
		r := p.m.TransformRect(engine.Rect{X: el.X, Y: el.Y, Width: el.Width, Height: el.Height})
		if el.Fill != nil {
			p.fillWith(gg.Hex(*el.Fill), el.Opacity)
			pdf.Rect(r.X, r.Y, r.Width, r.Height, "F")
			setDraw(pdf, stroke)
		}
		pdf.Rect(r.X, r.Y, r.Width, r.Height, "D")

	case document.ElementCircle:
		cx, cy := p.pt(el.CX, el.CY)
		rx, ry := math.Abs(el.RX)*p.k, math.Abs(el.RY)*p.k
		if rx == 0 && ry == 0 {
			return
		}
		if el.Fill != nil {
			p.fillWith(gg.Hex(*el.Fill), el.Opacity)
			pdf.Ellipse(cx, cy, rx, ry, 0, "F")
			setDraw(pdf, stroke)
		}
		pdf.Ellipse(cx, cy, rx, ry, 0, "D")

	case document.ElementLine:
		x1, y1 := p.pt(el.X1, el.Y1)
		x2, y2 := p.pt(el.X2, el.Y2)
		pdf.Line(x1, y1, x2, y2)

	case document.ElementArrow:
		x1, y1 := p.pt(el.X1, el.Y1)
		x2, y2 := p.pt(el.X2, el.Y2)
		pdf.Line(x1, y1, x2, y2)

		head := engine.ArrowHead(el)
		poly := make([]gofpdf.PointType, len(head))
		for i, h := range head {
			poly[i].X, poly[i].Y = p.pt(h.X, h.Y)
		}
		setFill(pdf, stroke)
		pdf.Polygon(poly, "F")

	case document.ElementText:
		p.text(el.Text, el.X, el.Y, el.FontSize, stroke)
	}
	pdf.SetAlpha(1, "Normal")
}

func (p *pdfPainter) sticky(el document.Element) {
	pdf := p.pdf
	x, y := p.pt(el.X, el.Y)
	w := el.Width * p.k

	p.fillWith(gg.Hex(el.BgColor), el.Opacity)
	pdf.Rect(x, y, w, el.Height*p.k, "F")

	p.fillWith(gg.RGBA{A: 0.1}, el.Opacity)
	pdf.Rect(x, y, w, stickyHeaderSize*p.k, "F")

	if el.Text != "" {
		col := gg.Hex("#1a1a2e")
		col.A *= opacity(el.Opacity)
		p.text(el.Text, el.X+stickyPadding, el.Y+stickyHeaderSize+stickyPadding/2, stickyFontSize, col)
	}
	pdf.SetAlpha(1, "Normal")
}

// text draws top-anchored lines starting at world point (x, y).
func (p *pdfPainter) text(s string, x, y, fontSize float64, col gg.RGBA) {
	size := fontSize * p.k
	if size < 1 {
		return
	}
	pdf := p.pdf
	pdf.SetFont("Helvetica", "", size)
	pdf.SetTextColor(channel(col.R), channel(col.G), channel(col.B))
	pdf.SetAlpha(col.A, "Normal")

	for i, line := range strings.Split(s, "\n") {
		if line == "" {
			continue
		}
		px, py := p.pt(x, y+float64(i)*fontSize*lineHeight)
		pdf.Text(px, py+size*ascentRatio, p.tr(line))
	}
}

func (p *pdfPainter) fillWith(c gg.RGBA, op float64) {
	c.A *= opacity(op)
	setFill(p.pdf, c)
}

func setDraw(pdf *gofpdf.Fpdf, c gg.RGBA) {
	pdf.SetDrawColor(channel(c.R), channel(c.G), channel(c.B))
	pdf.SetAlpha(c.A, "Normal")
}

func setFill(pdf *gofpdf.Fpdf, c gg.RGBA) {
	pdf.SetFillColor(channel(c.R), channel(c.G), channel(c.B))
	pdf.SetAlpha(c.A, "Normal")
}

func channel(v float64) int {
	return int(math.Round(max(0, min(1, v)) * 255))
}

func opacity(o float64) float64 {
	return max(0, min(1, o))
}
