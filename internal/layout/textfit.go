package layout

import (
	"math"
	"math/rand"
	"strings"
)

const (
	// LineHeightFactor times the font size gives the baseline-to-baseline distance.
	LineHeightFactor = 1.5
	// TextMargin is subtracted from the box width when packing a line.
	TextMargin = 20.0
	// ShrinkFactor is applied to both box dimensions after every packing pass.
	ShrinkFactor = 0.95
	// GrowFactor is applied once after the loop to give back part of the last shrink.
	GrowFactor = 1.05
	// OverflowFactor bounds how far text may exceed the final box before it is flagged.
	OverflowFactor = 1.1
	// TextRotation is the fixed counter-clockwise rotation of every paragraph line, degrees.
	TextRotation = 5.0
	// MaxTilt is the largest tilt of the torn paper background, degrees.
	MaxTilt = 5.0
)

// Measurer reports the rendered width of a string at a font size.
type Measurer interface {
	TextWidth(s string, size float64) float64
}

// TextLayout is the result of fitting a paragraph into a box.
type TextLayout struct {
	Lines      []string
	Box        Size    // final box after the grow step
	WrapWidth  float64 // box width of the last packing pass; every line is < WrapWidth-TextMargin
	LineHeight float64
	TextHeight float64
	// Offset centres the text block vertically inside Box.
	Offset float64
	// Overflow is set when the text is taller than OverflowFactor times the box.
	Overflow bool
	// MinWidthReached is set when shrinking stopped at half the initial width rather
	// than because the text became dense enough.
	MinWidthReached bool
}

// FitText word-wraps paragraph into box, shrinking the box by 5% per pass while the
// packed text fills less than half its height and the width is above half the initial
// width. The box left after the last shrink is then grown by 5%. Stopping on the width
// bound leaves 0.95^14 of the initial size, so the grown box stays above half of box.
func FitText(m Measurer, paragraph string, box Size, fontSize float64) TextLayout {
	lineHeight := fontSize * LineHeightFactor
	out := TextLayout{
		Box:        box,
		WrapWidth:  box.W,
		LineHeight: lineHeight,
	}

	words := strings.Fields(paragraph)
	if len(words) == 0 {
		out.Offset = box.H/2 - TextMargin
		return out
	}

	minW := box.W / 2
	w, h := box.W, box.H
	var lines []string
	for lineHeight*float64(len(lines)) < h/2 && w > minW {
		lines = wrapWords(m, words, w-TextMargin, fontSize)
		out.WrapWidth = w
		w *= ShrinkFactor
		h *= ShrinkFactor
	}
	out.MinWidthReached = w <= minW

	w *= GrowFactor
	h *= GrowFactor

	out.Lines = lines
	out.Box = Size{W: w, H: h}
	out.TextHeight = float64(len(lines)) * lineHeight
	out.Offset = (h-out.TextHeight)/2 - TextMargin
	out.Overflow = out.TextHeight > h*OverflowFactor
	return out
}

// wrapWords packs words greedily so that every line measures strictly less than limit.
// A word that is wider than limit on its own gets a line to itself.
func wrapWords(m Measurer, words []string, limit, fontSize float64) []string {
	var lines []string
	current := ""
	for _, word := range words {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if m.TextWidth(candidate, fontSize) < limit {
			current = candidate
			continue
		}
		if current != "" {
			lines = append(lines, current)
		}
		current = word
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

// Tilt maps u in [0,1) to 5*e^(-10u) degrees. The distribution is heavily biased
// toward zero: P(tilt > 0.1°) = ln(50)/10 ≈ 0.39 and P(tilt > 1°) = ln(5)/10 ≈ 0.16.
func Tilt(u float64) float64 {
	return MaxTilt * math.Exp(-10*u)
}

// SampleTilt draws one tilt from r.
func SampleTilt(r *rand.Rand) float64 {
	return Tilt(r.Float64())
}

// ParagraphFrame is where a fitted paragraph and its torn paper background go in a slot.
type ParagraphFrame struct {
	Box        Rect    // the fitted box, centred in the slot
	Background Rect    // the torn paper image before rotation
	Tilt       float64 // background rotation, degrees
	Baselines  []Point // one start point per line
}

// FrameParagraph centres the fitted box in slot and computes the line start points.
// The vertical centring uses the box width, as the original layout did; for the square
// default boxes this is the same as centring by height.
func FrameParagraph(slot Rect, fit TextLayout, tilt float64) ParagraphFrame {
	x := slot.X + (slot.W-fit.Box.W)/2
	y := slot.Y + (slot.H-fit.Box.W)/2

	frame := ParagraphFrame{
		Box:        Rect{X: x, Y: y, W: fit.Box.W, H: fit.Box.H},
		Background: Rect{X: x - 15, Y: y - 10, W: fit.Box.W * 1.2, H: fit.Box.H * 1.2},
		Tilt:       tilt,
		Baselines:  make([]Point, 0, len(fit.Lines)),
	}

	sin := math.Sin(tilt * math.Pi / 180)
	lineY := y + fit.Box.H - 15 - fit.Offset
	for range fit.Lines {
		frame.Baselines = append(frame.Baselines, Point{
			X: x + 25 - (lineY-y)*sin,
			Y: lineY,
		})
		lineY -= fit.LineHeight
	}
	return frame
}
