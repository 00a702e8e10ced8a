// Package testutil builds the fixtures shared by the package tests: template PDFs,
// encoded images and fonts. Nothing here touches the network or the filesystem.
package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"codeberg.org/go-pdf/fpdf"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// SectionPageSize matches the page the slot grids are designed for.
const (
	SectionPageW = 850.0
	SectionPageH = 820.0
)

// TemplatePDF returns a PDF with pages pages of w x h points, each filled with a light
// background so imported pages are not empty.
func TemplatePDF(t *testing.T, w, h float64, pages int) []byte {
	t.Helper()

	pdf := fpdf.New("P", "pt", "", "")
	pdf.SetAutoPageBreak(false, 0)
	for i := 0; i < pages; i++ {
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})
		pdf.SetFillColor(245, 235, 210)
		pdf.Rect(0, 0, w, h, "F")
		pdf.SetDrawColor(120, 90, 60)
		pdf.Rect(10, 10, w-20, h-20, "D")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("Failed to build template pdf: %v", err)
	}
	return buf.Bytes()
}

// SectionTemplate is a one page template at the section page size.
func SectionTemplate(t *testing.T) []byte {
	t.Helper()
	return TemplatePDF(t, SectionPageW, SectionPageH, 1)
}

func fill(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 160, A: 255})
		}
	}
	return img
}

// PNG encodes a w x h gradient.
func PNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, fill(w, h)); err != nil {
		t.Fatalf("Failed to encode png: %v", err)
	}
	return buf.Bytes()
}

// JPEG encodes a w x h gradient.
func JPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, fill(w, h), nil); err != nil {
		t.Fatalf("Failed to encode jpeg: %v", err)
	}
	return buf.Bytes()
}

// BodyTTF and DisplayTTF stand in for the handwriting and headline fonts.
func BodyTTF() []byte {
	return goregular.TTF
}

func DisplayTTF() []byte {
	return gobold.TTF
}
