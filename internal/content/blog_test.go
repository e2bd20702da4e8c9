package content_test

import (
	"context"
	"strings"
	"testing"

	"realty-listings/internal/content"
	"realty-listings/internal/models"
	"realty-listings/internal/testutil"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Buying Your First Home", "buying-your-first-home"},
		{"  RERA: What's New in 2024?  ", "rera-what-s-new-in-2024"},
		{"Café Société", "cafe-societe"},
		{"---", ""},
	}
	for _, tt := range tests {
		if got := content.Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPlainText(t *testing.T) {
	got, err := content.PlainText(`<h1>Title</h1><p>Hello   <b>world</b></p><script>alert(1)</script>`)
	if err != nil {
		t.Fatalf("PlainText() error = %v", err)
	}
	if got != "TitleHello world" && got != "Title Hello world" {
		t.Errorf("PlainText() = %q", got)
	}
	if strings.Contains(got, "alert") {
		t.Errorf("script text leaked: %q", got)
	}
}

func TestExcerpt(t *testing.T) {
	if got := content.Excerpt("short text", 160); got != "short text" {
		t.Errorf("Excerpt(short) = %q", got)
	}
	long := strings.Repeat("word ", 100)
	got := content.Excerpt(long, 50)
	if !strings.HasSuffix(got, "…") {
		t.Errorf("Excerpt(long) = %q, want ellipsis", got)
	}
	if len([]rune(got)) > 51 {
		t.Errorf("Excerpt(long) has %d runes", len([]rune(got)))
	}
}

func TestReadingMinutes(t *testing.T) {
	tests := []struct {
		words int
		want  int
	}{
		{0, 1}, {10, 1}, {200, 1}, {201, 2}, {1000, 5},
	}
	for _, tt := range tests {
		text := strings.Repeat("w ", tt.words)
		if got := content.ReadingMinutes(text); got != tt.want {
			t.Errorf("ReadingMinutes(%d words) = %d, want %d", tt.words, got, tt.want)
		}
	}
}

func TestPrepare(t *testing.T) {
	b := &models.Blog{Title: " Home Loans Explained ", Content: "<p>" + strings.Repeat("loan ", 450) + "</p>"}
	if err := content.Prepare(b); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if b.Slug != "home-loans-explained" {
		t.Errorf("slug = %q", b.Slug)
	}
	if b.Excerpt == "" || strings.Contains(b.Excerpt, "<p>") {
		t.Errorf("excerpt = %q", b.Excerpt)
	}
	if b.ReadMinutes != 3 {
		t.Errorf("read minutes = %d, want 3", b.ReadMinutes)
	}

	kept := &models.Blog{Title: "X", Excerpt: "Custom", Content: "<p>body</p>"}
	_ = content.Prepare(kept)
	if kept.Excerpt != "Custom" {
		t.Errorf("explicit excerpt overwritten: %q", kept.Excerpt)
	}
}

func TestUniqueSlug(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	first := models.Blog{Title: "Guide", Slug: "guide"}
	db.Create(&first)
	db.Create(&models.Blog{Title: "Guide", Slug: "guide-2"})

	got, err := content.UniqueSlug(ctx, db, "guide", 0)
	if err != nil {
		t.Fatalf("UniqueSlug() error = %v", err)
	}
	if got != "guide-3" {
		t.Errorf("UniqueSlug() = %q, want guide-3", got)
	}

	got, _ = content.UniqueSlug(ctx, db, "guide", first.ID)
	if got != "guide" {
		t.Errorf("UniqueSlug(own) = %q, want guide", got)
	}
}
