package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IshaanNene/linkarchive/internal/config"
	"github.com/IshaanNene/linkarchive/internal/types"
)

// Gateway is the persistence boundary of the archive. Implementations are
// single-writer; cross-process races are not handled.
type Gateway interface {
	// FindBySourceURL returns the archived item for sourceURL, or an error
	// wrapping types.ErrNotFound.
	FindBySourceURL(ctx context.Context, sourceURL string) (*types.ArchivedItem, error)

	// Upsert updates the item with the same source URL in place, keeping its
	// id, slug and creation time, or inserts a new one. It returns the item id.
	Upsert(ctx context.Context, item *types.ArchivedItem) (int64, error)

	// GetOrCreateTag returns the id of the tag called name, creating it if needed.
	GetOrCreateTag(ctx context.Context, name string) (int64, error)

	// RelinkTags replaces every tag link of itemID with tagIDs, in order.
	RelinkTags(ctx context.Context, itemID int64, tagIDs []int64) error

	// ListAllSlugs returns every slug currently in use.
	ListAllSlugs(ctx context.Context) (map[string]struct{}, error)

	// Close releases resources.
	Close() error

	// Name returns the backend identifier.
	Name() string
}

// New opens the gateway selected by cfg.Type.
func New(ctx context.Context, cfg *config.StorageConfig, logger *slog.Logger) (Gateway, error) {
	switch cfg.Type {
	case "sqlite":
		return NewSQLiteGateway(ctx, cfg.SQLitePath, logger)
	case "mongodb":
		return NewMongoGateway(ctx, cfg.MongoURI, cfg.MongoDB, logger)
	case "memory":
		return NewMemoryGateway(logger), nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q", cfg.Type)
	}
}

// decodeContentType maps a stored value back to a ContentType. Values written
// by other tools fall back to ContentOther.
func decodeContentType(s string) types.ContentType {
	ct := types.ContentType(s)
	if !ct.Valid() {
		return types.ContentOther
	}
	return ct
}

func notFound(sourceURL string) error {
	return fmt.Errorf("article %s: %w", sourceURL, types.ErrNotFound)
}
