package services

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/yearbookflow/internal/assets"
	"github.com/Lllllllleong/yearbookflow/internal/gcp"
	"github.com/Lllllllleong/yearbookflow/internal/yearbook"
	"github.com/dustin/go-humanize"
)

// loadAssetConfig reads the shared section assets from the environment. Relative
// references resolve under ASSETS_DIR, which is deployed next to the function binary.
func loadAssetConfig() (yearbook.AssetConfig, string) {
	return yearbook.AssetConfig{
		Template:    gcp.GetEnv("TEMPLATE_PDF", "base_bg.pdf"),
		DisplayFont: gcp.GetEnv("DISPLAY_FONT", "PragerHeadlines.ttf"),
		BodyFont:    gcp.GetEnv("BODY_FONT", "Angelos.ttf"),
		Banner:      gcp.GetEnv("BANNER_IMAGE", "title.png"),
		TornPaper:   gcp.GetEnv("TORN_PAPER_IMAGE", "torn-paper.png"),
	}, gcp.GetEnv("ASSETS_DIR", "assets")
}

// newAssetRouter resolves local paths, http(s) URLs and gs:// URIs.
func newAssetRouter(storageClient *storage.Client, assetsDir string) assets.Router {
	return assets.Router{
		Local: assets.FileSource{Root: assetsDir},
		HTTP:  assets.NewHTTPSource(),
		GCS:   assets.GCSSource{Client: storageClient},
	}
}

// loadKit loads the section kit once per function instance.
func loadKit(ctx context.Context, src assets.Source, cfg yearbook.AssetConfig) (*yearbook.Kit, error) {
	kit, err := yearbook.LoadKit(ctx, src, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load section assets: %w", err)
	}
	slog.Info("Section assets loaded.",
		"template", cfg.Template,
		"templatePages", kit.Template.PageCount(),
		"templateSize", humanize.Bytes(uint64(len(kit.Template.Bytes()))),
	)
	return kit, nil
}
