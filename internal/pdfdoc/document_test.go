package pdfdoc

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/Lllllllleong/yearbookflow/internal/layout"
	"github.com/Lllllllleong/yearbookflow/internal/testutil"
)

type testFace struct {
	name string
	ttf  []byte
}

func (f testFace) Name() string { return f.name }
func (f testFace) TTF() []byte  { return f.ttf }

func loadTemplate(t *testing.T) Document {
	t.Helper()
	doc, err := Load(testutil.SectionTemplate(t))
	if err != nil {
		t.Fatalf("Failed to load template: %v", err)
	}
	return doc
}

func sameSize(a, b layout.Size) bool {
	return math.Abs(a.W-b.W) < 0.01 && math.Abs(a.H-b.H) < 0.01
}

func TestLoad(t *testing.T) {
	doc := loadTemplate(t)
	if doc.PageCount() != 1 {
		t.Fatalf("Expected 1 page, got %d", doc.PageCount())
	}
	size, err := doc.PageSize(0)
	if err != nil {
		t.Fatalf("PageSize: %v", err)
	}
	if !sameSize(size, layout.Size{W: testutil.SectionPageW, H: testutil.SectionPageH}) {
		t.Errorf("Expected %vx%v, got %+v", testutil.SectionPageW, testutil.SectionPageH, size)
	}
	if _, err := doc.PageSize(1); !errors.Is(err, ErrPageOutOfRange) {
		t.Errorf("Expected ErrPageOutOfRange, got %v", err)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(nil); !errors.Is(err, ErrNoPages) {
		t.Errorf("Expected ErrNoPages for empty input, got %v", err)
	}
	if _, err := Load([]byte("definitely not a pdf")); err == nil {
		t.Error("Expected an error for garbage input")
	}
}

func TestReplicate(t *testing.T) {
	template := loadTemplate(t)

	for _, count := range []int{1, 3, 6} {
		doc, err := Replicate(template, count)
		if err != nil {
			t.Fatalf("Replicate(%d): %v", count, err)
		}
		if doc.PageCount() != count {
			t.Errorf("Expected %d pages, got %d", count, doc.PageCount())
		}

		reloaded, err := Load(doc.Bytes())
		if err != nil {
			t.Fatalf("Failed to reload replicated document: %v", err)
		}
		if reloaded.PageCount() != count {
			t.Errorf("Expected %d pages on disk, got %d", count, reloaded.PageCount())
		}
		for i := 0; i < reloaded.PageCount(); i++ {
			size, _ := reloaded.PageSize(i)
			if !sameSize(size, template.pages[0]) {
				t.Errorf("Page %d: expected template size %+v, got %+v", i, template.pages[0], size)
			}
		}
	}
}

func TestReplicate_UsesFirstPageOnly(t *testing.T) {
	template, err := Load(testutil.TemplatePDF(t, 300, 200, 3))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	doc, err := Replicate(template, 2)
	if err != nil {
		t.Fatalf("Replicate: %v", err)
	}
	if doc.PageCount() != 2 {
		t.Errorf("Expected 2 pages, got %d", doc.PageCount())
	}
}

func TestReplicate_Errors(t *testing.T) {
	if _, err := Replicate(Document{}, 2); !errors.Is(err, ErrNoPages) {
		t.Errorf("Expected ErrNoPages, got %v", err)
	}
	template := loadTemplate(t)
	for _, count := range []int{0, -1} {
		if _, err := Replicate(template, count); !errors.Is(err, ErrInvalidCount) {
			t.Errorf("Replicate(%d): expected ErrInvalidCount, got %v", count, err)
		}
	}
}

func TestEdit(t *testing.T) {
	doc, err := Replicate(loadTemplate(t), 2)
	if err != nil {
		t.Fatalf("Replicate: %v", err)
	}
	before := append([]byte(nil), doc.Bytes()...)

	img, size, err := NewImage("photo.png", testutil.PNG(t, 40, 30))
	if err != nil {
		t.Fatalf("NewImage: %v", err)
	}
	face := testFace{name: "GoRegular", ttf: testutil.BodyTTF()}

	var drawn bool
	edited, err := doc.Edit(1, func(c *Canvas) error {
		drawn = true
		if got := c.Size(); !sameSize(got, layout.Size{W: testutil.SectionPageW, H: testutil.SectionPageH}) {
			t.Errorf("Unexpected canvas size %+v", got)
		}
		white := White
		c.DrawRect(layout.Rect{X: 10, Y: 10, W: 100, H: 80}, RectStyle{Fill: &white, Border: &Black, BorderWidth: 2})
		c.DrawLine(layout.Point{X: 0, Y: 0}, layout.Point{X: 100, Y: 100}, 1, Gray(.7))
		if err := c.DrawImage(img, layout.Rect{X: 20, Y: 20, W: size.W, H: size.H}, 3); err != nil {
			return err
		}
		if err := c.DrawText("héllo wörld", layout.Point{X: 50, Y: 400}, TextStyle{Face: face, Size: 12, Rotate: 5}); err != nil {
			return err
		}
		return c.DrawText("(core font)", layout.Point{X: 50, Y: 300}, TextStyle{Size: 10, Color: Gray(.5)})
	})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if !drawn {
		t.Fatal("Expected the draw callback to run")
	}
	if edited.PageCount() != 2 {
		t.Errorf("Expected 2 pages, got %d", edited.PageCount())
	}
	if !bytes.Equal(doc.Bytes(), before) {
		t.Error("Expected the source document to stay untouched")
	}
	if bytes.Equal(edited.Bytes(), before) {
		t.Error("Expected the edited document to differ")
	}
	if _, err := Load(edited.Bytes()); err != nil {
		t.Errorf("Edited document does not reload: %v", err)
	}
}

func TestEdit_Errors(t *testing.T) {
	doc := loadTemplate(t)
	if _, err := doc.Edit(1, func(*Canvas) error { return nil }); !errors.Is(err, ErrPageOutOfRange) {
		t.Errorf("Expected ErrPageOutOfRange, got %v", err)
	}

	boom := errors.New("boom")
	if _, err := doc.Edit(0, func(*Canvas) error { return boom }); !errors.Is(err, boom) {
		t.Errorf("Expected the draw error to propagate, got %v", err)
	}
}

func TestEdit_BadImageData(t *testing.T) {
	doc := loadTemplate(t)
	img := Image{Name: "broken.png", Data: []byte("not a png"), Format: PNG}
	_, err := doc.Edit(0, func(c *Canvas) error {
		return c.DrawImage(img, layout.Rect{W: 10, H: 10}, 0)
	})
	if err == nil {
		t.Error("Expected an error for undecodable image data")
	}
}

func TestCompose(t *testing.T) {
	page := layout.Size{W: 595, H: 842}
	doc, err := Compose(func(w *Writer) error {
		for i := 0; i < 3; i++ {
			c := w.AddPage(page)
			if err := c.DrawText("page", layout.Point{X: 50, Y: 700}, TextStyle{Size: 24}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	reloaded, err := Load(doc.Bytes())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if reloaded.PageCount() != 3 {
		t.Errorf("Expected 3 pages, got %d", reloaded.PageCount())
	}

	if _, err := Compose(func(*Writer) error { return nil }); !errors.Is(err, ErrNoPages) {
		t.Errorf("Expected ErrNoPages for an empty composition, got %v", err)
	}
}

func TestMerge(t *testing.T) {
	a, err := Replicate(loadTemplate(t), 2)
	if err != nil {
		t.Fatalf("Replicate: %v", err)
	}
	b, err := Load(testutil.TemplatePDF(t, 595, 842, 3))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	merged, err := Merge(a, Document{}, b)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if merged.PageCount() != 5 {
		t.Errorf("Expected 5 pages, got %d", merged.PageCount())
	}
	reloaded, err := Load(merged.Bytes())
	if err != nil {
		t.Fatalf("Load merged: %v", err)
	}
	if reloaded.PageCount() != 5 {
		t.Errorf("Expected 5 pages on disk, got %d", reloaded.PageCount())
	}
	last, _ := reloaded.PageSize(4)
	if !sameSize(last, layout.Size{W: 595, H: 842}) {
		t.Errorf("Expected the last page from the second document, got %+v", last)
	}

	if _, err := Merge(); !errors.Is(err, ErrNoPages) {
		t.Errorf("Expected ErrNoPages, got %v", err)
	}
	single, err := Merge(Document{}, a)
	if err != nil || single.PageCount() != 2 {
		t.Errorf("Expected the single document back, got %d pages, err %v", single.PageCount(), err)
	}
}

func TestOptimizeAndValidate(t *testing.T) {
	doc, err := Replicate(loadTemplate(t), 4)
	if err != nil {
		t.Fatalf("Replicate: %v", err)
	}
	opt, err := Optimize(doc)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if opt.PageCount() != 4 {
		t.Errorf("Expected 4 pages, got %d", opt.PageCount())
	}
	if err := Validate(opt.Bytes()); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if err := Validate([]byte("%PDF-1.4 nope")); err == nil {
		t.Error("Expected validation to fail for a truncated file")
	}
	if _, err := Optimize(Document{}); !errors.Is(err, ErrNoPages) {
		t.Errorf("Expected ErrNoPages, got %v", err)
	}
}
