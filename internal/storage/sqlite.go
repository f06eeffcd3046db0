package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/IshaanNene/linkarchive/internal/types"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS articles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	slug TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL,
	source_url TEXT NOT NULL UNIQUE,
	thumbnail_url TEXT,
	content_type TEXT NOT NULL,
	short_summary TEXT NOT NULL,
	extended_summary TEXT NOT NULL,
	raw_markdown TEXT,
	transcript TEXT,
	week_bucket TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tags (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS article_tags (
	article_id INTEGER NOT NULL,
	tag_id INTEGER NOT NULL,
	position INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (article_id, tag_id),
	FOREIGN KEY (article_id) REFERENCES articles(id) ON DELETE CASCADE,
	FOREIGN KEY (tag_id) REFERENCES tags(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_articles_week_bucket ON articles(week_bucket);
`

// SQLiteGateway stores the archive in a SQLite database.
type SQLiteGateway struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewSQLiteGateway opens (or creates) the database at path and ensures the
// schema exists. Use ":memory:" for a throwaway database.
func NewSQLiteGateway(ctx context.Context, path string, logger *slog.Logger) (*SQLiteGateway, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection: SQLite has a single writer, and each :memory:
	// connection would otherwise see its own empty database.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return &SQLiteGateway{
		db:     db,
		path:   path,
		logger: logger.With("component", "sqlite_gateway"),
	}, nil
}

// Name returns the backend identifier.
func (g *SQLiteGateway) Name() string { return "sqlite" }

// FindBySourceURL loads an article and its tags.
func (g *SQLiteGateway) FindBySourceURL(ctx context.Context, sourceURL string) (*types.ArchivedItem, error) {
	row := g.db.QueryRowContext(ctx, `
		SELECT id, slug, title, source_url, thumbnail_url, content_type, short_summary,
		       extended_summary, raw_markdown, transcript, week_bucket, created_at, updated_at
		FROM articles WHERE source_url = ?`, sourceURL)

	var (
		item                        types.ArchivedItem
		contentType                 string
		thumb, markdown, transcript sql.NullString
		createdAt, updatedAt        string
	)
	err := row.Scan(&item.ID, &item.Slug, &item.Title, &item.SourceURL, &thumb, &contentType,
		&item.ShortSummary, &item.ExtendedSummary, &markdown, &transcript, &item.WeekBucket,
		&createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(sourceURL)
	}
	if err != nil {
		return nil, g.wrap("find", err)
	}

	item.ContentType = decodeContentType(contentType)
	item.ThumbnailURL = thumb.String
	item.RawMarkdown = markdown.String
	item.Transcript = transcript.String
	item.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	item.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)

	tags, err := g.tagsFor(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	item.Tags = tags
	return &item, nil
}

func (g *SQLiteGateway) tagsFor(ctx context.Context, itemID int64) ([]string, error) {
	rows, err := g.db.QueryContext(ctx, `
		SELECT t.name FROM article_tags l
		JOIN tags t ON t.id = l.tag_id
		WHERE l.article_id = ?
		ORDER BY l.position`, itemID)
	if err != nil {
		return nil, g.wrap("find tags", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, g.wrap("find tags", err)
		}
		names = append(names, name)
	}
	return names, g.wrap("find tags", rows.Err())
}

// Upsert inserts the article or updates the row with the same source_url.
// slug and created_at of an existing row are left untouched.
func (g *SQLiteGateway) Upsert(ctx context.Context, item *types.ArchivedItem) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	var id int64
	err := g.db.QueryRowContext(ctx, `
		INSERT INTO articles (slug, title, source_url, thumbnail_url, content_type, short_summary,
		                      extended_summary, raw_markdown, transcript, week_bucket, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_url) DO UPDATE SET
			title = excluded.title,
			thumbnail_url = excluded.thumbnail_url,
			content_type = excluded.content_type,
			short_summary = excluded.short_summary,
			extended_summary = excluded.extended_summary,
			raw_markdown = excluded.raw_markdown,
			transcript = excluded.transcript,
			week_bucket = excluded.week_bucket,
			updated_at = excluded.updated_at
		RETURNING id`,
		item.Slug, item.Title, item.SourceURL, nullString(item.ThumbnailURL), string(item.ContentType),
		item.ShortSummary, item.ExtendedSummary, nullString(item.RawMarkdown), nullString(item.Transcript),
		item.WeekBucket, now, now,
	).Scan(&id)
	if err != nil {
		return 0, g.wrap("upsert", err)
	}

	g.logger.Debug("article upserted", "id", id, "source_url", item.SourceURL)
	return id, nil
}

// GetOrCreateTag returns the id of the named tag, inserting it if missing.
func (g *SQLiteGateway) GetOrCreateTag(ctx context.Context, name string) (int64, error) {
	if _, err := g.db.ExecContext(ctx, `INSERT INTO tags (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name); err != nil {
		return 0, g.wrap("create tag", err)
	}
	var id int64
	if err := g.db.QueryRowContext(ctx, `SELECT id FROM tags WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, g.wrap("find tag", err)
	}
	return id, nil
}

// RelinkTags deletes every link of itemID, then links tagIDs in order.
// The two steps are not wrapped in a transaction.
func (g *SQLiteGateway) RelinkTags(ctx context.Context, itemID int64, tagIDs []int64) error {
	if _, err := g.db.ExecContext(ctx, `DELETE FROM article_tags WHERE article_id = ?`, itemID); err != nil {
		return g.wrap("unlink tags", err)
	}
	for pos, tagID := range tagIDs {
		_, err := g.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO article_tags (article_id, tag_id, position) VALUES (?, ?, ?)`,
			itemID, tagID, pos)
		if err != nil {
			return g.wrap("link tag", err)
		}
	}
	return nil
}

// ListAllSlugs returns the set of slugs in use.
func (g *SQLiteGateway) ListAllSlugs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := g.db.QueryContext(ctx, `SELECT slug FROM articles`)
	if err != nil {
		return nil, g.wrap("list slugs", err)
	}
	defer rows.Close()

	slugs := make(map[string]struct{})
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, g.wrap("list slugs", err)
		}
		slugs[s] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, g.wrap("list slugs", err)
	}
	return slugs, nil
}

// Close closes the database.
func (g *SQLiteGateway) Close() error {
	return g.db.Close()
}

func (g *SQLiteGateway) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &types.PersistenceError{Backend: g.Name(), Op: op, Err: err}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
