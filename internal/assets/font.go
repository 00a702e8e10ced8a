package assets

import (
	"fmt"

	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// Font is a parsed TrueType font that can measure text and be embedded in a PDF.
// It is safe for concurrent use.
type Font struct {
	name string
	ttf  []byte
	f    *sfnt.Font
	upem float64
}

// ParseFont parses ttf and registers it under name.
func ParseFont(name string, ttf []byte) (*Font, error) {
	f, err := sfnt.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", name, err)
	}
	return &Font{name: name, ttf: ttf, f: f, upem: float64(f.UnitsPerEm())}, nil
}

// Name is the family name the font is embedded under.
func (f *Font) Name() string { return f.name }

// TTF returns the raw font file.
func (f *Font) TTF() []byte { return f.ttf }

// ppem equal to the units per em makes every 26.6 measurement a design unit count.
func (f *Font) ppem() fixed.Int26_6 {
	return fixed.I(int(f.upem))
}

// TextWidth is the advance width of s at size points, kerning included. Runes missing
// from the font measure as the notdef glyph.
func (f *Font) TextWidth(s string, size float64) float64 {
	var (
		buf   sfnt.Buffer
		total fixed.Int26_6
		prev  sfnt.GlyphIndex
		ppem  = f.ppem()
	)
	for i, r := range []rune(s) {
		idx, err := f.f.GlyphIndex(&buf, r)
		if err != nil {
			idx = 0
		}
		if i > 0 {
			if k, err := f.f.Kern(&buf, prev, idx, ppem, font.HintingNone); err == nil {
				total += k
			}
		}
		adv, err := f.f.GlyphAdvance(&buf, idx, ppem, font.HintingNone)
		if err == nil {
			total += adv
		}
		prev = idx
	}
	return float64(total) / 64 * size / f.upem
}

// HeightAtSize is ascent plus descent at size points.
func (f *Font) HeightAtSize(size float64) float64 {
	var buf sfnt.Buffer
	m, err := f.f.Metrics(&buf, f.ppem(), font.HintingNone)
	if err != nil {
		return size
	}
	return float64(m.Ascent+m.Descent) / 64 * size / f.upem
}
