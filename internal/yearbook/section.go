package yearbook

import (
	"context"
	"errors"
	"fmt"

	"github.com/Lllllllleong/yearbookflow/internal/layout"
	"github.com/Lllllllleong/yearbookflow/internal/pdfdoc"
)

// ErrEmptySection is returned for a section with neither images nor texts.
var ErrEmptySection = errors.New("yearbook: section has no images and no texts")

// SectionStyle holds the sizes a section is drawn with.
type SectionStyle struct {
	HeadingSize   float64
	HeadingMargin float64
	ImageMax      layout.Size
	ParagraphBox  layout.Size
	FontSize      float64
}

// DefaultSectionStyle is the look every generated section uses.
func DefaultSectionStyle() SectionStyle {
	return SectionStyle{
		HeadingSize:   45,
		HeadingMargin: 5,
		ImageMax:      layout.Size{W: 400, H: 300},
		ParagraphBox:  layout.Size{W: 300, H: 300},
		FontSize:      12,
	}
}

// SectionRequest is one section to render. A zero Style means DefaultSectionStyle.
type SectionRequest struct {
	Title  string
	Images []string
	Texts  []string
	Style  SectionStyle
}

// SectionResult is a rendered section.
type SectionResult struct {
	Document   pdfdoc.Document
	Pages      int
	Placements []layout.Placement
	// Overflows has one entry per text, in input order.
	Overflows []bool
}

// OverflowCount is the number of paragraphs that did not fit their box.
func (r *SectionResult) OverflowCount() int {
	n := 0
	for _, o := range r.Overflows {
		if o {
			n++
		}
	}
	return n
}

// Plan returns where every item of a section with the given queue lengths lands,
// without rendering anything.
func Plan(images, texts int) []layout.Placement {
	return layout.Schedule(images, texts)
}

// GenerateSection replicates the template for the section's page count, places the
// title and then every image and text in schedule order. Any failure aborts the
// section; no partial document is returned.
func GenerateSection(ctx context.Context, rc *RenderContext, req SectionRequest) (*SectionResult, error) {
	items := len(req.Images) + len(req.Texts)
	if items == 0 {
		return nil, ErrEmptySection
	}
	style := req.Style
	if style == (SectionStyle{}) {
		style = DefaultSectionStyle()
	}
	logCtx := rc.Logger.With("section", req.Title)

	pages := layout.PageCount(items)
	doc, err := pdfdoc.Replicate(rc.Kit.Template, pages)
	if err != nil {
		return nil, fmt.Errorf("failed to create section document: %w", err)
	}
	if doc, err = PlaceHeading(rc, doc, req.Title, style.HeadingSize, style.HeadingMargin); err != nil {
		return nil, err
	}

	placements := Plan(len(req.Images), len(req.Texts))
	overflows := make([]bool, len(req.Texts))
	for _, p := range placements {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		switch p.Kind {
		case layout.ImageItem:
			doc, err = PlaceImage(ctx, rc, doc, req.Images[p.Index], p.Rect, style.ImageMax, p.Page-1)
			if err != nil {
				return nil, fmt.Errorf("image %d: %w", p.Index+1, err)
			}
		case layout.TextItem:
			var fit layout.TextLayout
			doc, fit, err = PlaceParagraph(rc, doc, req.Texts[p.Index], p.Rect, style.ParagraphBox, style.FontSize, p.Page-1)
			if err != nil {
				return nil, fmt.Errorf("text %d: %w", p.Index+1, err)
			}
			overflows[p.Index] = fit.Overflow
		}
	}

	res := &SectionResult{
		Document:   doc,
		Pages:      pages,
		Placements: placements,
		Overflows:  overflows,
	}
	logCtx.Info("Section generated.", "pages", pages, "images", len(req.Images), "texts", len(req.Texts), "overflows", res.OverflowCount())
	return res, nil
}
