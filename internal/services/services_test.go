package services

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/Lllllllleong/yearbookflow/internal/layout"
	"github.com/Lllllllleong/yearbookflow/internal/models"
	"github.com/Lllllllleong/yearbookflow/internal/yearbook"
)

func TestGroupSections(t *testing.T) {
	req := &models.SectionGeneratorRequest{
		Email: "alex@example.com",
		Images: []models.ImageEntry{
			{URL: "https://img/1.jpg", Caption: "Day one", Headtitle: "Camp"},
			{URL: "https://img/2.jpg", Headtitle: "Formal"},
			{URL: "https://img/3.jpg", Caption: "Lost"},
			{URL: "https://img/4.jpg", Caption: "Day two", Headtitle: "Camp"},
		},
		Messages: []models.FormattedMessage{
			{FormattedMessage: "Have a great summer!"},
			{FormattedMessage: ""},
			{FormattedMessage: "See you around."},
		},
	}

	got := groupSections(req)
	want := []yearbook.SectionRequest{
		{Title: "Camp", Images: []string{"https://img/1.jpg", "https://img/4.jpg"}, Texts: []string{"Day one", "Day two"}},
		{Title: "Formal", Images: []string{"https://img/2.jpg"}, Texts: []string{""}},
		{Title: DefaultHeadtitle, Images: []string{"https://img/3.jpg"}, Texts: []string{"Lost"}},
		{Title: "alex@example.com", Texts: []string{"Have a great summer!", "See you around."}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("groupSections mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestGroupSections_KeepsCaptionsBesideTheirPhotos(t *testing.T) {
	req := &models.SectionGeneratorRequest{
		Email: "alex@example.com",
		Images: []models.ImageEntry{
			{URL: "https://img/1.jpg", Headtitle: "Camp"},
			{URL: "https://img/2.jpg", Caption: "second photo", Headtitle: "Camp"},
		},
	}

	got := groupSections(req)
	if len(got) != 1 {
		t.Fatalf("Expected one section, got %d", len(got))
	}
	if want := []string{"", "second photo"}; !reflect.DeepEqual(got[0].Texts, want) {
		t.Fatalf("Expected texts %q, got %q", want, got[0].Texts)
	}

	// The second caption is the second text, placed after the first photo's empty one.
	placements := yearbook.Plan(len(got[0].Images), len(got[0].Texts))
	var textOrder []int
	for _, p := range placements {
		if p.Kind == layout.TextItem {
			textOrder = append(textOrder, p.Index)
		}
	}
	if !reflect.DeepEqual(textOrder, []int{0, 1}) {
		t.Errorf("Expected both texts to be placed in order, got %v", textOrder)
	}
}

func TestGroupSections_SkipsEmpty(t *testing.T) {
	req := &models.SectionGeneratorRequest{
		Email:  "sam@example.com",
		Images: []models.ImageEntry{{Headtitle: "Ghost"}},
	}
	if got := groupSections(req); len(got) != 0 {
		t.Errorf("Expected no sections, got %+v", got)
	}
}

func TestSectionObjectName(t *testing.T) {
	got := sectionObjectName("alex@example.com", "Camp Week!", "1234")
	if got != "alex@example.com/camp_week-1234.pdf" {
		t.Errorf("Unexpected object name %q", got)
	}
	if got := sectionObjectName("alex@example.com", "???", "1234"); got != "alex@example.com/section-1234.pdf" {
		t.Errorf("Expected a fallback name, got %q", got)
	}
	if got := previewObjectName("alex@example.com/camp_week-1234.pdf"); got != "alex@example.com/camp_week-1234.png" {
		t.Errorf("Unexpected preview name %q", got)
	}
}

func TestMessageBookObjectName(t *testing.T) {
	now := time.Unix(1700000000, 0)
	got := messageBookObjectName("jo.lee@example.com", now)
	if got != "message_pdfs/messages_jo_lee_1700000000.pdf" {
		t.Errorf("Unexpected object name %q", got)
	}
	if !strings.HasPrefix(got, "message_pdfs/") {
		t.Errorf("Expected the message_pdfs prefix, got %q", got)
	}
}

func TestToSenders(t *testing.T) {
	ts := time.Date(2024, 6, 1, 15, 4, 5, 0, time.UTC)
	in := []models.MessageSender{{
		SenderName:  "Sam",
		SenderEmail: "sam@example.com",
		Messages:    []models.BookMessage{{Text: "Hi", Timestamp: ts}},
	}}
	want := []yearbook.Sender{{
		Name:     "Sam",
		Email:    "sam@example.com",
		Messages: []yearbook.Message{{Text: "Hi", Timestamp: ts}},
	}}
	if got := toSenders(in); !reflect.DeepEqual(got, want) {
		t.Errorf("toSenders mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv("TEST_PARALLELISM", "8")
	if got := envInt("TEST_PARALLELISM", 4); got != 8 {
		t.Errorf("Expected 8, got %d", got)
	}
	t.Setenv("TEST_PARALLELISM", "zero")
	if got := envInt("TEST_PARALLELISM", 4); got != 4 {
		t.Errorf("Expected the fallback for garbage, got %d", got)
	}
	t.Setenv("TEST_PARALLELISM", "-1")
	if got := envInt("TEST_PARALLELISM", 4); got != 4 {
		t.Errorf("Expected the fallback for a negative value, got %d", got)
	}
}
