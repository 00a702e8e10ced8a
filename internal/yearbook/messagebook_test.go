package yearbook

import (
	"strings"
	"testing"
	"time"

	"github.com/Lllllllleong/yearbookflow/internal/pdfdoc"
)

type runeMeasurer struct{}

func (runeMeasurer) TextWidth(s string, size float64) float64 {
	return float64(len([]rune(s))) * size * 0.5
}

func TestWrapMessage(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  float64
		want []string
	}{
		{"empty", "", 100, nil},
		{"fits", "one two", 100, []string{"one two"}},
		// at 12pt each rune is 6pt: "one two" is 42pt, "one two three" is 78pt
		{"breaks when wider", "one two three", 60, []string{"one two", "three"}},
		{"exact width stays", "aaaaa bbbb", 60, []string{"aaaaa bbbb"}},
		{"long word alone", "supercalifragilistic a", 30, []string{"supercalifragilistic", "a"}},
		{"collapses spaces", "  a   b  ", 100, []string{"a b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapMessage(runeMeasurer{}, tt.text, 12, tt.max)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestTimestampLayout(t *testing.T) {
	ts := time.Date(2024, 5, 3, 14, 7, 9, 0, time.UTC)
	if got := ts.Format(TimestampLayout); got != "5/3/2024, 2:07:09 PM" {
		t.Errorf("Unexpected timestamp %q", got)
	}
}

func TestBuildMessageBook(t *testing.T) {
	kit := newKit(t)
	base := time.Date(2024, 11, 20, 9, 30, 0, 0, time.UTC)

	var many []Message
	for i := 0; i < 12; i++ {
		many = append(many, Message{Text: "hello", Timestamp: base.Add(time.Duration(i) * time.Hour)})
	}
	senders := []Sender{
		{Name: "Alex", Email: "alex@example.com", Messages: []Message{{Text: lorem, Timestamp: base}}},
		{Name: "Sam Lee", Email: "sam@example.com", Messages: many},
	}

	doc, err := BuildMessageBook(kit, senders, nil)
	if err != nil {
		t.Fatalf("BuildMessageBook: %v", err)
	}
	// Title page, one page for Alex, two for Sam: eleven one-line messages use up the
	// first page (712 - 11*60 < 100).
	if doc.PageCount() != 4 {
		t.Errorf("Expected 4 pages, got %d", doc.PageCount())
	}
	reloaded, err := pdfdoc.Load(doc.Bytes())
	if err != nil {
		t.Fatalf("Message book does not reload: %v", err)
	}
	size, _ := reloaded.PageSize(0)
	if size.W < 594 || size.W > 596 || size.H < 841 || size.H > 843 {
		t.Errorf("Expected A4 pages, got %+v", size)
	}
}

func TestBuildMessageBook_NoSenders(t *testing.T) {
	doc, err := BuildMessageBook(newKit(t), nil, time.UTC)
	if err != nil {
		t.Fatalf("BuildMessageBook: %v", err)
	}
	if doc.PageCount() != 1 {
		t.Errorf("Expected only the title page, got %d", doc.PageCount())
	}
}
