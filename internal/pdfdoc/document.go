// Package pdfdoc is the byte level PDF layer of the section engine. A Document is an
// immutable PDF plus its page sizes; every change (replicating a template page, drawing
// onto one page) produces a new Document by re-importing the pages with gofpdi and
// writing fresh bytes with fpdf. pdfcpu is used for inspection, optimization and merging.
//
// Drawing coordinates are PDF user space (points, bottom-left origin) so they line up
// with the geometry in internal/layout.
package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"
	"github.com/Lllllllleong/yearbookflow/internal/layout"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var (
	ErrNoPages          = errors.New("pdfdoc: document has no pages")
	ErrPageOutOfRange   = errors.New("pdfdoc: page index out of range")
	ErrInvalidCount     = errors.New("pdfdoc: page count must be at least 1")
	ErrUnsupportedImage = errors.New("pdfdoc: unsupported image format")
)

func init() {
	// pdfcpu otherwise writes a config directory under the user's home on first use.
	api.DisableConfigDir()
}

// relaxedConfig is the pdfcpu configuration used for every read. Templates come from
// design tools that rarely produce strictly valid files.
func relaxedConfig() *model.Configuration {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	return cfg
}

// Document is a PDF held in memory. The zero value has no pages.
type Document struct {
	data  []byte
	pages []layout.Size
}

// Load inspects data with pdfcpu and returns it as a Document.
func Load(data []byte) (Document, error) {
	if len(data) == 0 {
		return Document{}, ErrNoPages
	}
	dims, err := api.PageDims(bytes.NewReader(data), relaxedConfig())
	if err != nil {
		return Document{}, fmt.Errorf("failed to read page dimensions: %w", err)
	}
	if len(dims) == 0 {
		return Document{}, ErrNoPages
	}
	pages := make([]layout.Size, len(dims))
	for i, d := range dims {
		pages[i] = layout.Size{W: d.Width, H: d.Height}
	}
	return Document{data: data, pages: pages}, nil
}

// Bytes returns the serialized PDF. Callers must not modify the slice.
func (d Document) Bytes() []byte {
	return d.data
}

// PageCount is the number of pages.
func (d Document) PageCount() int {
	return len(d.pages)
}

// PageSize returns the media box size of the 0-based page i.
func (d Document) PageSize(i int) (layout.Size, error) {
	if i < 0 || i >= len(d.pages) {
		return layout.Size{}, fmt.Errorf("page %d of %d: %w", i, len(d.pages), ErrPageOutOfRange)
	}
	return d.pages[i], nil
}

// Replicate builds a new document made of count copies of template's first page.
func Replicate(template Document, count int) (Document, error) {
	if template.PageCount() == 0 {
		return Document{}, ErrNoPages
	}
	if count < 1 {
		return Document{}, fmt.Errorf("replicate %d pages: %w", count, ErrInvalidCount)
	}

	pages := make([]sourcePage, count)
	sizes := make([]layout.Size, count)
	for i := range pages {
		pages[i] = sourcePage{number: 1, size: template.pages[0]}
		sizes[i] = template.pages[0]
	}
	out, err := rebuild(template.data, pages, nil)
	if err != nil {
		return Document{}, fmt.Errorf("failed to replicate template page: %w", err)
	}
	return Document{data: out, pages: sizes}, nil
}

// Edit re-renders d and calls draw with a canvas over the 0-based page pageIndex.
// d is left untouched; the edited copy is returned.
func (d Document) Edit(pageIndex int, draw func(c *Canvas) error) (Document, error) {
	if pageIndex < 0 || pageIndex >= len(d.pages) {
		return Document{}, fmt.Errorf("edit page %d of %d: %w", pageIndex, len(d.pages), ErrPageOutOfRange)
	}

	pages := make([]sourcePage, len(d.pages))
	for i, size := range d.pages {
		pages[i] = sourcePage{number: i + 1, size: size}
	}
	out, err := rebuild(d.data, pages, func(i int, c *Canvas) error {
		if i != pageIndex {
			return nil
		}
		return draw(c)
	})
	if err != nil {
		return Document{}, err
	}
	return Document{data: out, pages: d.pages}, nil
}

// sourcePage is a 1-based page of the source document and the size it is laid out at.
type sourcePage struct {
	number int
	size   layout.Size
}

// rebuild writes one output page per entry in pages, each backed by the imported source
// page, and hands every page to draw after its background is in place.
func rebuild(src []byte, pages []sourcePage, draw func(i int, c *Canvas) error) (out []byte, err error) {
	// gofpdi panics on object trees it cannot parse.
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("failed to import pdf pages: %v", r)
		}
	}()

	s := newSurface()
	importer := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(src))
	templates := make(map[int]int)

	for i, p := range pages {
		s.pdf.AddPageFormat("P", fpdf.SizeType{Wd: p.size.W, Ht: p.size.H})
		tpl, ok := templates[p.number]
		if !ok {
			tpl = importer.ImportPageFromStream(s.pdf, &rs, p.number, "/MediaBox")
			templates[p.number] = tpl
		}
		importer.UseImportedTemplate(s.pdf, tpl, 0, 0, p.size.W, p.size.H)

		if draw != nil {
			if err := draw(i, s.canvas(p.size)); err != nil {
				return nil, err
			}
		}
		if err := s.pdf.Error(); err != nil {
			return nil, fmt.Errorf("failed to draw page %d: %w", i+1, err)
		}
	}
	return s.output()
}

// Compose writes a new document page by page with no imported background.
func Compose(build func(w *Writer) error) (Document, error) {
	w := &Writer{s: newSurface()}
	if err := build(w); err != nil {
		return Document{}, err
	}
	if len(w.pages) == 0 {
		return Document{}, ErrNoPages
	}
	out, err := w.s.output()
	if err != nil {
		return Document{}, err
	}
	return Document{data: out, pages: w.pages}, nil
}

// Writer appends blank pages to a document being composed.
type Writer struct {
	s     *surface
	pages []layout.Size
}

// AddPage starts a new page of the given size and returns its canvas.
func (w *Writer) AddPage(size layout.Size) *Canvas {
	w.s.pdf.AddPageFormat("P", fpdf.SizeType{Wd: size.W, Ht: size.H})
	w.pages = append(w.pages, size)
	return w.s.canvas(size)
}

// Optimize runs the pdfcpu optimizer over d, dropping duplicate fonts and images that
// repeated page imports leave behind.
func Optimize(d Document) (Document, error) {
	if d.PageCount() == 0 {
		return Document{}, ErrNoPages
	}
	var buf bytes.Buffer
	if err := api.Optimize(bytes.NewReader(d.data), &buf, relaxedConfig()); err != nil {
		return Document{}, fmt.Errorf("failed to optimize pdf: %w", err)
	}
	return Document{data: buf.Bytes(), pages: d.pages}, nil
}

// Merge concatenates docs in order.
func Merge(docs ...Document) (Document, error) {
	readers := make([]io.ReadSeeker, 0, len(docs))
	var (
		pages []layout.Size
		last  Document
	)
	for _, d := range docs {
		if d.PageCount() == 0 {
			continue
		}
		readers = append(readers, bytes.NewReader(d.data))
		pages = append(pages, d.pages...)
		last = d
	}
	switch len(readers) {
	case 0:
		return Document{}, ErrNoPages
	case 1:
		return last, nil
	}

	var buf bytes.Buffer
	if err := api.MergeRaw(readers, &buf, false, relaxedConfig()); err != nil {
		return Document{}, fmt.Errorf("failed to merge %d documents: %w", len(readers), err)
	}
	return Document{data: buf.Bytes(), pages: pages}, nil
}

// Validate checks data with pdfcpu in relaxed mode.
func Validate(data []byte) error {
	if err := api.Validate(bytes.NewReader(data), relaxedConfig()); err != nil {
		return fmt.Errorf("invalid pdf: %w", err)
	}
	return nil
}
