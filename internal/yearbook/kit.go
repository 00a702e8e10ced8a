// Package yearbook renders yearbook sections: a replicated template page carrying a
// title banner, then photos and paragraphs tiled onto a 2x2 grid in a fixed
// image, text, text, image rhythm. It also renders the message book.
//
// Every placement is one read-modify-write over the document bytes; the Kit and
// RenderContext carry what stays constant across placements.
package yearbook

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/Lllllllleong/yearbookflow/internal/assets"
	"github.com/Lllllllleong/yearbookflow/internal/pdfdoc"
)

// Family names the kit fonts are embedded under.
const (
	DisplayFamily = "YearbookDisplay"
	BodyFamily    = "YearbookBody"
)

// AssetConfig names the shared assets of every section.
type AssetConfig struct {
	Template    string // PDF, first page is the section background
	DisplayFont string // TTF for titles
	BodyFont    string // TTF for paragraphs and messages
	Banner      string // PNG behind the section title
	TornPaper   string // PNG behind each paragraph
}

// Kit holds the loaded shared assets. It is read-only after LoadKit and may be shared by
// concurrent section runs.
type Kit struct {
	Template  pdfdoc.Document
	Display   *assets.Font
	Body      *assets.Font
	Banner    pdfdoc.Image
	TornPaper pdfdoc.Image
}

// LoadKit reads and parses every asset in cfg from src. Any missing asset is fatal.
func LoadKit(ctx context.Context, src assets.Source, cfg AssetConfig) (*Kit, error) {
	read := func(what, ref string) ([]byte, error) {
		if ref == "" {
			return nil, fmt.Errorf("no %s configured", what)
		}
		data, err := src.Open(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", what, err)
		}
		return data, nil
	}

	var kit Kit

	data, err := read("template", cfg.Template)
	if err != nil {
		return nil, err
	}
	if kit.Template, err = pdfdoc.Load(data); err != nil {
		return nil, fmt.Errorf("failed to load template %s: %w", cfg.Template, err)
	}

	if data, err = read("display font", cfg.DisplayFont); err != nil {
		return nil, err
	}
	if kit.Display, err = assets.ParseFont(DisplayFamily, data); err != nil {
		return nil, err
	}
	if data, err = read("body font", cfg.BodyFont); err != nil {
		return nil, err
	}
	if kit.Body, err = assets.ParseFont(BodyFamily, data); err != nil {
		return nil, err
	}

	if data, err = read("banner", cfg.Banner); err != nil {
		return nil, err
	}
	if kit.Banner, _, err = pdfdoc.NewImage(cfg.Banner, data); err != nil {
		return nil, err
	}
	if data, err = read("torn paper", cfg.TornPaper); err != nil {
		return nil, err
	}
	if kit.TornPaper, _, err = pdfdoc.NewImage(cfg.TornPaper, data); err != nil {
		return nil, err
	}
	return &kit, nil
}

// RenderContext is what one section run needs besides the document: the kit, where
// photos come from, the tilt random source and a logger.
type RenderContext struct {
	Kit    *Kit
	Images assets.Source
	Rand   *rand.Rand
	Logger *slog.Logger
}

// NewRenderContext seeds the tilt source with seed so a run can be reproduced.
func NewRenderContext(kit *Kit, images assets.Source, seed int64) *RenderContext {
	return &RenderContext{
		Kit:    kit,
		Images: images,
		Rand:   rand.New(rand.NewSource(seed)),
		Logger: slog.Default(),
	}
}
