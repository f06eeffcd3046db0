package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/IshaanNene/linkarchive/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// gateways returns every backend available in this environment.
func gateways(t *testing.T) map[string]Gateway {
	t.Helper()
	ctx := context.Background()

	sqliteGW, err := NewSQLiteGateway(ctx, ":memory:", testLogger)
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	t.Cleanup(func() { sqliteGW.Close() })

	out := map[string]Gateway{
		"sqlite": sqliteGW,
		"memory": NewMemoryGateway(testLogger),
	}

	if uri := os.Getenv("LINKARCHIVE_TEST_MONGO_URI"); uri != "" && !testing.Short() {
		db := fmt.Sprintf("linkarchive_test_%d", time.Now().UnixNano())
		mongoGW, err := NewMongoGateway(ctx, uri, db, testLogger)
		if err != nil {
			t.Fatalf("mongodb: %v", err)
		}
		t.Cleanup(func() {
			_ = mongoGW.client.Database(db).Drop(context.Background())
			mongoGW.Close()
		})
		out["mongodb"] = mongoGW
	}
	return out
}

func sampleItem(url, slug string) *types.ArchivedItem {
	return &types.ArchivedItem{
		Slug:            slug,
		Title:           "Title for " + slug,
		SourceURL:       url,
		ThumbnailURL:    "https://example.com/thumb.jpg",
		ContentType:     types.ContentArticle,
		ShortSummary:    "short",
		ExtendedSummary: "extended",
		RawMarkdown:     "# Heading",
		WeekBucket:      "2024-03-04",
	}
}

func TestFindMissing(t *testing.T) {
	for name, gw := range gateways(t) {
		t.Run(name, func(t *testing.T) {
			_, err := gw.FindBySourceURL(context.Background(), "https://nowhere.example")
			if !errors.Is(err, types.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestUpsertInsertThenUpdate(t *testing.T) {
	ctx := context.Background()
	for name, gw := range gateways(t) {
		t.Run(name, func(t *testing.T) {
			id, err := gw.Upsert(ctx, sampleItem("https://example.com/a", "first-slug"))
			if err != nil {
				t.Fatalf("insert: %v", err)
			}

			got, err := gw.FindBySourceURL(ctx, "https://example.com/a")
			if err != nil {
				t.Fatalf("find: %v", err)
			}
			if got.ID != id || got.Slug != "first-slug" || got.RawMarkdown != "# Heading" {
				t.Errorf("unexpected stored item: %+v", got)
			}
			if got.Transcript != "" {
				t.Errorf("transcript should be null, got %q", got.Transcript)
			}
			created := got.CreatedAt

			update := sampleItem("https://example.com/a", "other-slug")
			update.Title = "New title"
			update.ShortSummary = "new short"
			update.RawMarkdown = ""
			id2, err := gw.Upsert(ctx, update)
			if err != nil {
				t.Fatalf("update: %v", err)
			}
			if id2 != id {
				t.Errorf("update changed identity: %d -> %d", id, id2)
			}

			got, _ = gw.FindBySourceURL(ctx, "https://example.com/a")
			if got.Slug != "first-slug" {
				t.Errorf("slug = %q, want preserved first-slug", got.Slug)
			}
			if got.Title != "New title" || got.ShortSummary != "new short" {
				t.Errorf("content not refreshed: %+v", got)
			}
			if got.RawMarkdown != "" {
				t.Errorf("raw markdown = %q, want cleared", got.RawMarkdown)
			}
			if !got.CreatedAt.Equal(created) {
				t.Errorf("created_at changed: %v -> %v", created, got.CreatedAt)
			}

			slugs, err := gw.ListAllSlugs(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if len(slugs) != 1 {
				t.Errorf("slugs = %v, want exactly one", slugs)
			}
		})
	}
}

func TestTagsRelinkReplaces(t *testing.T) {
	ctx := context.Background()
	for name, gw := range gateways(t) {
		t.Run(name, func(t *testing.T) {
			id, err := gw.Upsert(ctx, sampleItem("https://example.com/t", "tagged"))
			if err != nil {
				t.Fatal(err)
			}

			link := func(names ...string) {
				ids := make([]int64, 0, len(names))
				for _, n := range names {
					tagID, err := gw.GetOrCreateTag(ctx, n)
					if err != nil {
						t.Fatalf("GetOrCreateTag(%q): %v", n, err)
					}
					ids = append(ids, tagID)
				}
				if err := gw.RelinkTags(ctx, id, ids); err != nil {
					t.Fatalf("RelinkTags: %v", err)
				}
			}

			link("go", "databases", "testing")
			got, _ := gw.FindBySourceURL(ctx, "https://example.com/t")
			if strings.Join(got.Tags, ",") != "go,databases,testing" {
				t.Errorf("tags = %v", got.Tags)
			}

			link("rust", "go")
			got, _ = gw.FindBySourceURL(ctx, "https://example.com/t")
			if strings.Join(got.Tags, ",") != "rust,go" {
				t.Errorf("tags after relink = %v, want [rust go]", got.Tags)
			}

			link()
			got, _ = gw.FindBySourceURL(ctx, "https://example.com/t")
			if len(got.Tags) != 0 {
				t.Errorf("tags after empty relink = %v", got.Tags)
			}
		})
	}
}

func TestGetOrCreateTagIsStable(t *testing.T) {
	ctx := context.Background()
	for name, gw := range gateways(t) {
		t.Run(name, func(t *testing.T) {
			var wg sync.WaitGroup
			ids := make([]int64, 8)
			errs := make([]error, 8)
			for i := range ids {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					ids[i], errs[i] = gw.GetOrCreateTag(ctx, "shared")
				}(i)
			}
			wg.Wait()

			for i := range ids {
				if errs[i] != nil {
					t.Fatalf("GetOrCreateTag: %v", errs[i])
				}
				if ids[i] != ids[0] {
					t.Errorf("tag ids differ: %v", ids)
				}
			}

			other, _ := gw.GetOrCreateTag(ctx, "other")
			if other == ids[0] {
				t.Error("distinct tags share an id")
			}
		})
	}
}

func TestSQLiteUniqueSlug(t *testing.T) {
	ctx := context.Background()
	gw, err := NewSQLiteGateway(ctx, ":memory:", testLogger)
	if err != nil {
		t.Fatal(err)
	}
	defer gw.Close()

	if _, err := gw.Upsert(ctx, sampleItem("https://example.com/1", "dup")); err != nil {
		t.Fatal(err)
	}
	_, err = gw.Upsert(ctx, sampleItem("https://example.com/2", "dup"))
	var perr *types.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PersistenceError for duplicate slug, got %v", err)
	}
}

func TestSQLitePersistsToFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "archive.db")

	gw, err := NewSQLiteGateway(ctx, path, testLogger)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := gw.Upsert(ctx, sampleItem("https://example.com/p", "persisted")); err != nil {
		t.Fatal(err)
	}
	gw.Close()

	reopened, err := NewSQLiteGateway(ctx, path, testLogger)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	slugs, err := reopened.ListAllSlugs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := slugs["persisted"]; !ok {
		t.Errorf("slug not found after reopen: %v", slugs)
	}
}

func TestDecodeContentType(t *testing.T) {
	tests := []struct {
		stored string
		want   types.ContentType
	}{
		{"article", types.ContentArticle},
		{"video", types.ContentVideo},
		{"blog_post", types.ContentBlogPost},
		{"other", types.ContentOther},
		{"podcast", types.ContentOther},
		{"", types.ContentOther},
	}
	for _, tt := range tests {
		if got := decodeContentType(tt.stored); got != tt.want {
			t.Errorf("decodeContentType(%q) = %q, want %q", tt.stored, got, tt.want)
		}
	}
}

func TestSQLiteUnknownContentTypeReadsAsOther(t *testing.T) {
	ctx := context.Background()
	g, err := NewSQLiteGateway(ctx, ":memory:", testLogger)
	if err != nil {
		t.Fatal(err)
	}
	defer g.Close()

	const u = "https://example.com/legacy"
	if _, err := g.Upsert(ctx, sampleItem(u, "legacy")); err != nil {
		t.Fatal(err)
	}
	if _, err := g.db.ExecContext(ctx, `UPDATE articles SET content_type = 'podcast' WHERE source_url = ?`, u); err != nil {
		t.Fatal(err)
	}

	item, err := g.FindBySourceURL(ctx, u)
	if err != nil {
		t.Fatal(err)
	}
	if item.ContentType != types.ContentOther {
		t.Errorf("content type = %q, want %q", item.ContentType, types.ContentOther)
	}
}
