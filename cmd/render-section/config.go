package main

import (
	"errors"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/Lllllllleong/yearbookflow/internal/gcp"
	"github.com/Lllllllleong/yearbookflow/internal/yearbook"
)

type config struct {
	Assets    yearbook.AssetConfig
	AssetsDir string
	Title     string
	Images    []string
	TextsFile string
	Out       string
	Preview   string
	Seed      int64
	Optimize  bool
}

// parseFlags reads the command line. Asset flags fall back to the same environment
// variables the deployed functions use.
func parseFlags(args []string) (config, error) {
	var (
		cfg    config
		images string
	)

	fs := flag.NewFlagSet("render-section", flag.ContinueOnError)

	fs.StringVar(&cfg.AssetsDir, "assets", gcp.GetEnv("ASSETS_DIR", "assets"), "Directory relative asset paths resolve against")
	fs.StringVar(&cfg.Assets.Template, "template", gcp.GetEnv("TEMPLATE_PDF", "base_bg.pdf"), "Section background PDF")
	fs.StringVar(&cfg.Assets.DisplayFont, "display-font", gcp.GetEnv("DISPLAY_FONT", "PragerHeadlines.ttf"), "Title font (TTF)")
	fs.StringVar(&cfg.Assets.BodyFont, "body-font", gcp.GetEnv("BODY_FONT", "Angelos.ttf"), "Paragraph font (TTF)")
	fs.StringVar(&cfg.Assets.Banner, "banner", gcp.GetEnv("BANNER_IMAGE", "title.png"), "Image behind the title")
	fs.StringVar(&cfg.Assets.TornPaper, "torn-paper", gcp.GetEnv("TORN_PAPER_IMAGE", "torn-paper.png"), "Image behind each paragraph")

	fs.StringVar(&cfg.Title, "title", "", "Section title")
	fs.StringVar(&images, "images", "", "Comma separated photo paths or URLs, in order")
	fs.StringVar(&cfg.TextsFile, "texts", "", "File of paragraphs separated by blank lines")
	fs.StringVar(&cfg.Out, "out", "section.pdf", "Output PDF")
	fs.StringVar(&cfg.Preview, "preview", "", "Optional PNG of the first page")
	fs.Int64Var(&cfg.Seed, "seed", time.Now().UnixNano(), "Seed for paragraph tilt")
	fs.BoolVar(&cfg.Optimize, "optimize", true, "Run the PDF optimizer on the result")

	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	if cfg.Title == "" {
		return config{}, errors.New("-title is required")
	}
	for _, img := range strings.Split(images, ",") {
		if img = strings.TrimSpace(img); img != "" {
			cfg.Images = append(cfg.Images, img)
		}
	}
	if len(cfg.Images) == 0 && cfg.TextsFile == "" {
		return config{}, errors.New("at least one of -images or -texts is required")
	}
	return cfg, nil
}

// readParagraphs loads a texts file. Paragraphs are separated by one or more blank lines.
func readParagraphs(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return splitParagraphs(string(data)), nil
}

func splitParagraphs(s string) []string {
	var out, cur []string
	flush := func() {
		if len(cur) > 0 {
			out = append(out, strings.Join(cur, "\n"))
			cur = nil
		}
	}
	for _, line := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		cur = append(cur, line)
	}
	flush()
	return out
}
