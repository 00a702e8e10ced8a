package yearbook

import (
	"context"
	"fmt"

	"github.com/Lllllllleong/yearbookflow/internal/layout"
	"github.com/Lllllllleong/yearbookflow/internal/pdfdoc"
)

// HeadingHeightFactor scales the font's line height down to the visual cap height used
// to size the title box.
const HeadingHeightFactor = 0.75

// PlaceHeading draws title centred at the top of the first page over the banner image.
func PlaceHeading(rc *RenderContext, doc pdfdoc.Document, title string, fontSize, margin float64) (pdfdoc.Document, error) {
	page, err := doc.PageSize(0)
	if err != nil {
		return pdfdoc.Document{}, fmt.Errorf("failed to place heading: %w", err)
	}

	display := rc.Kit.Display
	text := layout.Size{
		W: display.TextWidth(title, fontSize),
		H: display.HeightAtSize(fontSize) * HeadingHeightFactor,
	}
	h := layout.HeadingBox(page, text, margin)

	out, err := doc.Edit(0, func(c *pdfdoc.Canvas) error {
		if err := c.DrawImage(rc.Kit.Banner, h.Banner, 0); err != nil {
			return err
		}
		return c.DrawText(title, h.Text, pdfdoc.TextStyle{Face: display, Size: fontSize, Color: pdfdoc.Black})
	})
	if err != nil {
		return pdfdoc.Document{}, fmt.Errorf("failed to place heading %q: %w", title, err)
	}
	rc.Logger.Debug("Placed section heading.", "title", title, "box", h.Box)
	return out, nil
}

// PlaceImage fetches ref, scales it into maxSize and mounts it centred in slot on page
// pageIndex.
func PlaceImage(ctx context.Context, rc *RenderContext, doc pdfdoc.Document, ref string, slot layout.Rect, maxSize layout.Size, pageIndex int) (pdfdoc.Document, error) {
	if _, err := pdfdoc.FormatOf(ref); err != nil {
		return pdfdoc.Document{}, err
	}
	data, err := rc.Images.Open(ctx, ref)
	if err != nil {
		return pdfdoc.Document{}, fmt.Errorf("failed to read image: %w", err)
	}
	img, native, err := pdfdoc.NewImage(ref, data)
	if err != nil {
		return pdfdoc.Document{}, err
	}

	fitted := layout.FitImage(native, maxSize)
	mount, photo := layout.PolaroidFrame(slot, fitted)

	out, err := doc.Edit(pageIndex, func(c *pdfdoc.Canvas) error {
		white := pdfdoc.White
		black := pdfdoc.Black
		c.DrawRect(mount, pdfdoc.RectStyle{Fill: &white, Border: &black, BorderWidth: layout.FrameBorder})
		return c.DrawImage(img, photo, 0)
	})
	if err != nil {
		return pdfdoc.Document{}, fmt.Errorf("failed to place image %s: %w", ref, err)
	}
	rc.Logger.Debug("Placed image.", "ref", ref, "page", pageIndex+1, "photo", photo)
	return out, nil
}

// PlaceParagraph fits text into box and draws it on a torn paper background centred in
// slot. Overflow is logged and reported in the returned layout, never returned as an
// error.
func PlaceParagraph(rc *RenderContext, doc pdfdoc.Document, text string, slot layout.Rect, box layout.Size, fontSize float64, pageIndex int) (pdfdoc.Document, layout.TextLayout, error) {
	body := rc.Kit.Body
	fit := layout.FitText(body, text, box, fontSize)
	if fit.Overflow {
		rc.Logger.Warn("Text is too large to fit inside the box.",
			"page", pageIndex+1,
			"lines", len(fit.Lines),
			"textHeight", fit.TextHeight,
			"boxHeight", fit.Box.H,
		)
	}

	frame := layout.FrameParagraph(slot, fit, layout.SampleTilt(rc.Rand))
	style := pdfdoc.TextStyle{Face: body, Size: fontSize, Color: pdfdoc.Black, Rotate: layout.TextRotation}

	out, err := doc.Edit(pageIndex, func(c *pdfdoc.Canvas) error {
		if err := c.DrawImage(rc.Kit.TornPaper, frame.Background, frame.Tilt); err != nil {
			return err
		}
		for i, line := range fit.Lines {
			if err := c.DrawText(line, frame.Baselines[i], style); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return pdfdoc.Document{}, layout.TextLayout{}, fmt.Errorf("failed to place paragraph: %w", err)
	}
	rc.Logger.Debug("Placed paragraph.", "page", pageIndex+1, "lines", len(fit.Lines), "tilt", frame.Tilt)
	return out, fit, nil
}
