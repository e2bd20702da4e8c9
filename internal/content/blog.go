// Package content derives blog metadata from article HTML.
package content

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"

	"realty-listings/internal/models"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

const (
	wordsPerMinute = 200
	excerptLength  = 160
)

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s, strips accents and joins words with "-"
func Slugify(s string) string {
	var b strings.Builder
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return strings.Trim(nonSlug.ReplaceAllString(b.String(), "-"), "-")
}

// PlainText returns the visible text of an HTML fragment with whitespace collapsed
func PlainText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find("script, style").Remove()
	return strings.Join(strings.Fields(doc.Text()), " "), nil
}

// Excerpt cuts text to at most max runes on a word boundary
func Excerpt(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	cut := string(runes[:max])
	if i := strings.LastIndexAny(cut, " \t\n"); i > max/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}

// ReadingMinutes estimates reading time, at least one minute
func ReadingMinutes(text string) int {
	words := len(strings.Fields(text))
	return max(1, int(math.Ceil(float64(words)/wordsPerMinute)))
}

// Prepare fills the derived blog fields: slug from the title when empty,
// excerpt from the content when empty, and reading time.
func Prepare(b *models.Blog) error {
	b.Title = strings.TrimSpace(b.Title)
	if b.Slug == "" {
		b.Slug = Slugify(b.Title)
	} else {
		b.Slug = Slugify(b.Slug)
	}

	text, err := PlainText(b.Content)
	if err != nil {
		return err
	}
	if strings.TrimSpace(b.Excerpt) == "" {
		b.Excerpt = Excerpt(text, excerptLength)
	}
	b.ReadMinutes = ReadingMinutes(text)
	return nil
}

// UniqueSlug appends -2, -3, ... to slug until no other blog uses it
func UniqueSlug(ctx context.Context, db *gorm.DB, slug string, excludeID uint) (string, error) {
	if slug == "" {
		slug = "post"
	}
	candidate := slug
	for n := 2; ; n++ {
		var existing models.Blog
		err := db.WithContext(ctx).Select("id").Where("slug = ?", candidate).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && existing.ID == excludeID) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = fmt.Sprintf("%s-%d", slug, n)
	}
}
