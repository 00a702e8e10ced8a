package yearbook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/Lllllllleong/yearbookflow/internal/assets"
	"github.com/Lllllllleong/yearbookflow/internal/layout"
	"github.com/Lllllllleong/yearbookflow/internal/pdfdoc"
	"github.com/Lllllllleong/yearbookflow/internal/testutil"
)

// memSource serves assets from memory and counts reads.
type memSource struct {
	files map[string][]byte
	reads int
}

func (m *memSource) Open(_ context.Context, ref string) ([]byte, error) {
	m.reads++
	data, ok := m.files[ref]
	if !ok {
		return nil, fmt.Errorf("%s: %w", ref, assets.ErrNotFound)
	}
	return data, nil
}

var testAssets = AssetConfig{
	Template:    "base_bg.pdf",
	DisplayFont: "display.ttf",
	BodyFont:    "body.ttf",
	Banner:      "title.png",
	TornPaper:   "torn-paper.png",
}

func kitFiles(t *testing.T) map[string][]byte {
	t.Helper()
	return map[string][]byte{
		"base_bg.pdf":    testutil.SectionTemplate(t),
		"display.ttf":    testutil.DisplayTTF(),
		"body.ttf":       testutil.BodyTTF(),
		"title.png":      testutil.PNG(t, 60, 20),
		"torn-paper.png": testutil.PNG(t, 50, 50),
	}
}

func newKit(t *testing.T) *Kit {
	t.Helper()
	kit, err := LoadKit(context.Background(), &memSource{files: kitFiles(t)}, testAssets)
	if err != nil {
		t.Fatalf("LoadKit: %v", err)
	}
	return kit
}

func newRenderContext(t *testing.T, photos map[string][]byte) (*RenderContext, *bytes.Buffer) {
	t.Helper()
	rc := NewRenderContext(newKit(t), &memSource{files: photos}, 42)
	var logs bytes.Buffer
	rc.Logger = slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return rc, &logs
}

func photos(t *testing.T) map[string][]byte {
	t.Helper()
	return map[string][]byte{
		"people.jpg": testutil.JPEG(t, 800, 600),
		"party.jpg":  testutil.JPEG(t, 300, 600),
		"group.png":  testutil.PNG(t, 900, 300),
	}
}

const lorem = "Lorem ipsum dolor sit amet, consectetur adipiscing elit. Suspendisse tellus tortor, sodales nec risus at, porta pretium eros. Sed sodales egestas quam. Morbi ultrices quam neque, eu efficitur nisl ullamcorper vitae."

func TestLoadKit(t *testing.T) {
	kit := newKit(t)
	if kit.Template.PageCount() != 1 {
		t.Errorf("Expected a one page template, got %d", kit.Template.PageCount())
	}
	if kit.Display.Name() != DisplayFamily || kit.Body.Name() != BodyFamily {
		t.Errorf("Unexpected font names %s, %s", kit.Display.Name(), kit.Body.Name())
	}
	if kit.Banner.Format != pdfdoc.PNG || kit.TornPaper.Format != pdfdoc.PNG {
		t.Error("Expected PNG decorations")
	}
}

func TestLoadKit_MissingAsset(t *testing.T) {
	for _, missing := range []string{"base_bg.pdf", "display.ttf", "body.ttf", "title.png", "torn-paper.png"} {
		files := kitFiles(t)
		delete(files, missing)
		_, err := LoadKit(context.Background(), &memSource{files: files}, testAssets)
		if !errors.Is(err, assets.ErrNotFound) {
			t.Errorf("Without %s: expected ErrNotFound, got %v", missing, err)
		}
	}

	cfg := testAssets
	cfg.BodyFont = ""
	if _, err := LoadKit(context.Background(), &memSource{files: kitFiles(t)}, cfg); err == nil {
		t.Error("Expected an error for an unconfigured font")
	}
}

func TestPlaceHeading(t *testing.T) {
	rc, _ := newRenderContext(t, nil)
	doc, err := pdfdoc.Replicate(rc.Kit.Template, 2)
	if err != nil {
		t.Fatalf("Replicate: %v", err)
	}

	out, err := PlaceHeading(rc, doc, "How I Met Your Mother", 45, 5)
	if err != nil {
		t.Fatalf("PlaceHeading: %v", err)
	}
	if out.PageCount() != 2 {
		t.Errorf("Expected 2 pages, got %d", out.PageCount())
	}
	if bytes.Equal(out.Bytes(), doc.Bytes()) {
		t.Error("Expected the heading to change the document")
	}
	if _, err := pdfdoc.Load(out.Bytes()); err != nil {
		t.Errorf("Result does not reload: %v", err)
	}

	if _, err := PlaceHeading(rc, pdfdoc.Document{}, "x", 45, 5); !errors.Is(err, pdfdoc.ErrPageOutOfRange) {
		t.Errorf("Expected ErrPageOutOfRange on an empty document, got %v", err)
	}
}

func TestPlaceImage(t *testing.T) {
	rc, _ := newRenderContext(t, photos(t))
	doc, err := pdfdoc.Replicate(rc.Kit.Template, 1)
	if err != nil {
		t.Fatalf("Replicate: %v", err)
	}

	slot := layout.FirstPageGrid.Slot(0)
	for _, ref := range []string{"people.jpg", "party.jpg", "group.png"} {
		doc, err = PlaceImage(context.Background(), rc, doc, ref, slot, layout.Size{W: 400, H: 300}, 0)
		if err != nil {
			t.Fatalf("PlaceImage(%s): %v", ref, err)
		}
	}
	if doc.PageCount() != 1 {
		t.Errorf("Expected 1 page, got %d", doc.PageCount())
	}
}

func TestPlaceImage_Errors(t *testing.T) {
	rc, _ := newRenderContext(t, map[string][]byte{
		"clip.gif":    []byte("GIF89a"),
		"corrupt.png": []byte("not a png"),
		"ok.jpg":      testutil.JPEG(t, 10, 10),
	})
	src := rc.Images.(*memSource)
	doc, err := pdfdoc.Replicate(rc.Kit.Template, 1)
	if err != nil {
		t.Fatalf("Replicate: %v", err)
	}
	slot := layout.FirstPageGrid.Slot(0)
	ctx := context.Background()

	if _, err := PlaceImage(ctx, rc, doc, "clip.gif", slot, layout.Size{W: 400, H: 300}, 0); !errors.Is(err, pdfdoc.ErrUnsupportedImage) {
		t.Errorf("Expected ErrUnsupportedImage, got %v", err)
	}
	if src.reads != 0 {
		t.Errorf("Expected unsupported images to be rejected before reading, got %d reads", src.reads)
	}
	if _, err := PlaceImage(ctx, rc, doc, "missing.jpg", slot, layout.Size{W: 400, H: 300}, 0); !errors.Is(err, assets.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := PlaceImage(ctx, rc, doc, "corrupt.png", slot, layout.Size{W: 400, H: 300}, 0); err == nil {
		t.Error("Expected a decode error")
	}
	if _, err := PlaceImage(ctx, rc, doc, "ok.jpg", slot, layout.Size{W: 400, H: 300}, 3); !errors.Is(err, pdfdoc.ErrPageOutOfRange) {
		t.Errorf("Expected ErrPageOutOfRange, got %v", err)
	}
}

func TestPlaceParagraph(t *testing.T) {
	rc, logs := newRenderContext(t, nil)
	doc, err := pdfdoc.Replicate(rc.Kit.Template, 1)
	if err != nil {
		t.Fatalf("Replicate: %v", err)
	}

	out, fit, err := PlaceParagraph(rc, doc, lorem, layout.FirstPageGrid.Slot(1), layout.Size{W: 300, H: 300}, 12, 0)
	if err != nil {
		t.Fatalf("PlaceParagraph: %v", err)
	}
	if len(fit.Lines) == 0 {
		t.Error("Expected wrapped lines")
	}
	if fit.Overflow {
		t.Error("Did not expect a short paragraph to overflow")
	}
	for _, line := range fit.Lines {
		if w := rc.Kit.Body.TextWidth(line, 12); w >= fit.WrapWidth-layout.TextMargin && len(strings.Fields(line)) > 1 {
			t.Errorf("Line %q measures %v, limit %v", line, w, fit.WrapWidth-layout.TextMargin)
		}
	}
	if out.PageCount() != 1 {
		t.Errorf("Expected 1 page, got %d", out.PageCount())
	}
	if strings.Contains(logs.String(), "too large") {
		t.Error("Did not expect an overflow warning")
	}
}

func TestPlaceParagraph_OverflowIsLoggedNotFatal(t *testing.T) {
	rc, logs := newRenderContext(t, nil)
	doc, err := pdfdoc.Replicate(rc.Kit.Template, 1)
	if err != nil {
		t.Fatalf("Replicate: %v", err)
	}

	long := strings.Repeat(lorem+" ", 12)
	_, fit, err := PlaceParagraph(rc, doc, long, layout.FirstPageGrid.Slot(2), layout.Size{W: 300, H: 300}, 12, 0)
	if err != nil {
		t.Fatalf("Expected overflow to be recoverable, got %v", err)
	}
	if len(fit.Lines) == 0 || !fit.Overflow {
		t.Errorf("Expected lines and the overflow flag, got %d lines overflow=%v", len(fit.Lines), fit.Overflow)
	}
	if !strings.Contains(logs.String(), "Text is too large to fit inside the box.") {
		t.Errorf("Expected an overflow warning, logs: %s", logs.String())
	}
}

func TestGenerateSection(t *testing.T) {
	rc, _ := newRenderContext(t, photos(t))
	req := SectionRequest{
		Title:  "How I Met Your Mother",
		Images: []string{"people.jpg", "party.jpg", "group.png"},
		Texts:  []string{"A small sentence", lorem, lorem, "", strings.Repeat(lorem+" ", 12)},
	}

	res, err := GenerateSection(context.Background(), rc, req)
	if err != nil {
		t.Fatalf("GenerateSection: %v", err)
	}
	if res.Pages != 2 || res.Document.PageCount() != 2 {
		t.Errorf("Expected 2 pages, got %d (document %d)", res.Pages, res.Document.PageCount())
	}
	reloaded, err := pdfdoc.Load(res.Document.Bytes())
	if err != nil {
		t.Fatalf("Section does not reload: %v", err)
	}
	if reloaded.PageCount() != 2 {
		t.Errorf("Expected 2 pages on disk, got %d", reloaded.PageCount())
	}
	if len(res.Placements) != 8 {
		t.Errorf("Expected 8 placements, got %d", len(res.Placements))
	}
	if len(res.Overflows) != 5 {
		t.Fatalf("Expected one overflow flag per text, got %d", len(res.Overflows))
	}
	if !res.Overflows[4] || res.OverflowCount() != 1 {
		t.Errorf("Expected only the last text to overflow, got %v", res.Overflows)
	}
}

func TestGenerateSection_Empty(t *testing.T) {
	rc, _ := newRenderContext(t, nil)
	if _, err := GenerateSection(context.Background(), rc, SectionRequest{Title: "Nothing"}); !errors.Is(err, ErrEmptySection) {
		t.Errorf("Expected ErrEmptySection, got %v", err)
	}
}

func TestGenerateSection_AbortsOnBadImage(t *testing.T) {
	rc, _ := newRenderContext(t, photos(t))
	req := SectionRequest{
		Title:  "Broken",
		Images: []string{"people.jpg", "missing.jpg"},
		Texts:  []string{lorem},
	}
	res, err := GenerateSection(context.Background(), rc, req)
	if !errors.Is(err, assets.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if res != nil {
		t.Error("Expected no partial result")
	}
}

func TestGenerateSection_Cancelled(t *testing.T) {
	rc, _ := newRenderContext(t, photos(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := GenerateSection(ctx, rc, SectionRequest{Title: "t", Images: []string{"people.jpg"}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestPlan(t *testing.T) {
	plan := Plan(4, 0)
	if len(plan) != 4 {
		t.Fatalf("Expected 4 placements, got %d", len(plan))
	}
	for i, p := range plan {
		if p.Kind != layout.ImageItem || p.Page != 1 || p.Slot != i {
			t.Errorf("Placement %d: unexpected %+v", i, p)
		}
	}
}

func TestDefaultSectionStyle(t *testing.T) {
	s := DefaultSectionStyle()
	if s.HeadingSize != 45 || s.HeadingMargin != 5 || s.FontSize != 12 {
		t.Errorf("Unexpected style %+v", s)
	}
	if s.ImageMax != (layout.Size{W: 400, H: 300}) || s.ParagraphBox != (layout.Size{W: 300, H: 300}) {
		t.Errorf("Unexpected boxes %+v", s)
	}
}
