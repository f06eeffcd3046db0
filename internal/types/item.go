package types

import (
	"encoding/json"
	"time"
)

// ContentType classifies a source URL.
type ContentType string

const (
	ContentArticle  ContentType = "article"
	ContentVideo    ContentType = "video"
	ContentBlogPost ContentType = "blog_post"
	ContentOther    ContentType = "other"
)

// Valid reports whether c is one of the known content types.
func (c ContentType) Valid() bool {
	switch c {
	case ContentArticle, ContentVideo, ContentBlogPost, ContentOther:
		return true
	}
	return false
}

// ArchivedItem is the persisted unit of the archive.
type ArchivedItem struct {
	// ID is assigned by the persistence gateway.
	ID int64

	// Slug is the unique, URL-safe identifier. Preserved on re-ingestion.
	Slug string

	Title string

	// SourceURL is the natural key used for idempotent re-ingestion.
	SourceURL string

	// ThumbnailURL is an absolute URL or a data URI placeholder. Empty means null.
	ThumbnailURL string

	ContentType ContentType

	// ShortSummary never exceeds 200 characters.
	ShortSummary    string
	ExtendedSummary string

	// RawMarkdown is present only for web content.
	RawMarkdown string

	// Transcript is present only when a video's captions were retrievable.
	Transcript string

	// WeekBucket is the Monday (YYYY-MM-DD) of the ingestion week.
	WeekBucket string

	// Tags are normalized, unique and at most ten.
	Tags []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ToJSON serializes the item for dry-run output.
func (i *ArchivedItem) ToJSON() ([]byte, error) {
	return json.Marshal(struct {
		Slug            string      `json:"slug"`
		Title           string      `json:"title"`
		SourceURL       string      `json:"source_url"`
		ThumbnailURL    *string     `json:"thumbnail_url"`
		ContentType     ContentType `json:"content_type"`
		ShortSummary    string      `json:"short_summary"`
		ExtendedSummary string      `json:"extended_summary"`
		RawMarkdown     *string     `json:"raw_markdown"`
		Transcript      *string     `json:"transcript"`
		WeekBucket      string      `json:"week_bucket"`
		Tags            []string    `json:"tags"`
	}{
		Slug:            i.Slug,
		Title:           i.Title,
		SourceURL:       i.SourceURL,
		ThumbnailURL:    nullable(i.ThumbnailURL),
		ContentType:     i.ContentType,
		ShortSummary:    i.ShortSummary,
		ExtendedSummary: i.ExtendedSummary,
		RawMarkdown:     nullable(i.RawMarkdown),
		Transcript:      nullable(i.Transcript),
		WeekBucket:      i.WeekBucket,
		Tags:            i.Tags,
	})
}

// Clone creates a deep copy of the item.
func (i *ArchivedItem) Clone() *ArchivedItem {
	clone := *i
	clone.Tags = append([]string(nil), i.Tags...)
	return &clone
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
