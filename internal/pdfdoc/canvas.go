package pdfdoc

import (
	"bytes"
	"fmt"

	"codeberg.org/go-pdf/fpdf"
	"github.com/Lllllllleong/yearbookflow/internal/layout"
)

// Color is an RGB triple with components in [0,1].
type Color struct {
	R, G, B float64
}

// Gray returns the gray level v.
func Gray(v float64) Color {
	return Color{R: v, G: v, B: v}
}

var (
	Black = Gray(0)
	White = Gray(1)
)

func (c Color) rgb() (int, int, int) {
	return channel(c.R), channel(c.G), channel(c.B)
}

func channel(v float64) int {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return int(v*255 + 0.5)
	}
}

// FontFace is a TrueType font that can be embedded. A nil FontFace selects Helvetica.
type FontFace interface {
	Name() string
	TTF() []byte
}

// TextStyle controls how DrawText renders a string.
type TextStyle struct {
	Face  FontFace
	Size  float64
	Color Color
	// Rotate is counter-clockwise degrees around the text origin.
	Rotate float64
}

// RectStyle controls DrawRect. A nil Fill or Border skips that part.
type RectStyle struct {
	Fill        *Color
	Border      *Color
	BorderWidth float64
	// FillOpacity and BorderOpacity default to opaque when zero.
	FillOpacity   float64
	BorderOpacity float64
}

// surface is the fpdf instance shared by every page of one output document.
type surface struct {
	pdf    *fpdf.Fpdf
	fonts  map[string]bool
	images map[string]bool
	// cp1252 converts UTF-8 for the core Helvetica font.
	cp1252 func(string) string
}

func newSurface() *surface {
	pdf := fpdf.New("P", "pt", "", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	return &surface{
		pdf:    pdf,
		fonts:  make(map[string]bool),
		images: make(map[string]bool),
		cp1252: pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

func (s *surface) canvas(size layout.Size) *Canvas {
	return &Canvas{s: s, size: size}
}

func (s *surface) output() ([]byte, error) {
	var buf bytes.Buffer
	if err := s.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// Canvas draws onto one page. Coordinates are bottom-left based and converted to fpdf's
// top-left space here.
type Canvas struct {
	s    *surface
	size layout.Size
}

// Size is the page size.
func (c *Canvas) Size() layout.Size {
	return c.size
}

func (c *Canvas) flipY(y float64) float64 {
	return c.size.H - y
}

// DrawRect fills and/or strokes r.
func (c *Canvas) DrawRect(r layout.Rect, st RectStyle) {
	pdf := c.s.pdf
	top := c.flipY(r.Y + r.H)
	if st.Fill != nil {
		pdf.SetFillColor(st.Fill.rgb())
		withAlpha(pdf, st.FillOpacity, func() {
			pdf.Rect(r.X, top, r.W, r.H, "F")
		})
	}
	if st.Border != nil {
		pdf.SetDrawColor(st.Border.rgb())
		pdf.SetLineWidth(st.BorderWidth)
		withAlpha(pdf, st.BorderOpacity, func() {
			pdf.Rect(r.X, top, r.W, r.H, "D")
		})
	}
}

// DrawLine strokes a straight segment.
func (c *Canvas) DrawLine(from, to layout.Point, width float64, col Color) {
	pdf := c.s.pdf
	pdf.SetDrawColor(col.rgb())
	pdf.SetLineWidth(width)
	pdf.Line(from.X, c.flipY(from.Y), to.X, c.flipY(to.Y))
}

// DrawImage scales img into r, rotated counter-clockwise by rotate degrees around the
// bottom-left corner of r.
func (c *Canvas) DrawImage(img Image, r layout.Rect, rotate float64) error {
	pdf := c.s.pdf
	opts := fpdf.ImageOptions{ImageType: string(img.Format)}
	if !c.s.images[img.Name] {
		pdf.RegisterImageOptionsReader(img.Name, opts, bytes.NewReader(img.Data))
		if err := pdf.Error(); err != nil {
			return fmt.Errorf("failed to embed image %s: %w", img.Name, err)
		}
		c.s.images[img.Name] = true
	}

	rotated(pdf, rotate, r.X, c.flipY(r.Y), func() {
		pdf.ImageOptions(img.Name, r.X, c.flipY(r.Y+r.H), r.W, r.H, false, opts, 0, "")
	})
	return pdf.Error()
}

// DrawText writes s with its baseline starting at at.
func (c *Canvas) DrawText(s string, at layout.Point, st TextStyle) error {
	pdf := c.s.pdf
	if err := c.setFont(st); err != nil {
		return err
	}
	if st.Face == nil {
		s = c.s.cp1252(s)
	}
	pdf.SetTextColor(st.Color.rgb())

	y := c.flipY(at.Y)
	rotated(pdf, st.Rotate, at.X, y, func() {
		pdf.Text(at.X, y, s)
	})
	return pdf.Error()
}

func (c *Canvas) setFont(st TextStyle) error {
	pdf := c.s.pdf
	family := "Helvetica"
	if st.Face != nil {
		family = st.Face.Name()
		if !c.s.fonts[family] {
			pdf.AddUTF8FontFromBytes(family, "", st.Face.TTF())
			if err := pdf.Error(); err != nil {
				return fmt.Errorf("failed to embed font %s: %w", family, err)
			}
			c.s.fonts[family] = true
		}
	}
	pdf.SetFont(family, "", st.Size)
	return nil
}

func rotated(pdf *fpdf.Fpdf, deg, x, y float64, draw func()) {
	if deg == 0 {
		draw()
		return
	}
	pdf.TransformBegin()
	pdf.TransformRotate(deg, x, y)
	draw()
	pdf.TransformEnd()
}

func withAlpha(pdf *fpdf.Fpdf, alpha float64, draw func()) {
	if alpha <= 0 || alpha >= 1 {
		draw()
		return
	}
	pdf.SetAlpha(alpha, "Normal")
	draw()
	pdf.SetAlpha(1, "Normal")
}
