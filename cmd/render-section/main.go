// Command render-section renders one yearbook section from local files, for trying out
// templates and photos without deploying the functions.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/Lllllllleong/yearbookflow/internal/assets"
	"github.com/Lllllllleong/yearbookflow/internal/pdfdoc"
	"github.com/Lllllllleong/yearbookflow/internal/preview"
	"github.com/Lllllllleong/yearbookflow/internal/yearbook"
	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is fine; flags and the environment still apply.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Rendering failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config) error {
	router := assets.Router{
		Local: assets.FileSource{Root: cfg.AssetsDir},
		HTTP:  assets.NewHTTPSource(),
	}
	kit, err := yearbook.LoadKit(ctx, router, cfg.Assets)
	if err != nil {
		return err
	}

	texts, err := readParagraphs(cfg.TextsFile)
	if err != nil {
		return err
	}

	// Photos on the command line are relative to the working directory, not the assets dir.
	photos := assets.Router{Local: assets.FileSource{}, HTTP: router.HTTP}
	rc := yearbook.NewRenderContext(kit, photos, cfg.Seed)
	res, err := yearbook.GenerateSection(ctx, rc, yearbook.SectionRequest{
		Title:  cfg.Title,
		Images: cfg.Images,
		Texts:  texts,
	})
	if err != nil {
		return err
	}

	doc := res.Document
	if cfg.Optimize {
		if doc, err = pdfdoc.Optimize(doc); err != nil {
			return err
		}
	}
	if err := os.WriteFile(cfg.Out, doc.Bytes(), 0o644); err != nil {
		return err
	}
	slog.Info("Section written.",
		"out", cfg.Out,
		"pages", res.Pages,
		"overflows", res.OverflowCount(),
		"seed", cfg.Seed,
		"size", humanize.Bytes(uint64(len(doc.Bytes()))),
	)

	if cfg.Preview != "" {
		png, err := preview.FirstPagePNG(doc.Bytes(), preview.DefaultDPI)
		if err != nil {
			return err
		}
		if err := os.WriteFile(cfg.Preview, png, 0o644); err != nil {
			return err
		}
		slog.Info("Preview written.", "out", cfg.Preview)
	}
	return nil
}
