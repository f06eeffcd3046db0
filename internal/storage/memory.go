package storage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/IshaanNene/linkarchive/internal/types"
)

// MemoryGateway keeps the archive in process memory. Used for dry runs and tests.
type MemoryGateway struct {
	mu       sync.Mutex
	items    map[int64]*types.ArchivedItem
	byURL    map[string]int64
	tags     map[string]int64
	tagNames map[int64]string
	links    map[int64][]int64
	nextItem int64
	nextTag  int64
	logger   *slog.Logger
}

// NewMemoryGateway creates an empty in-memory gateway.
func NewMemoryGateway(logger *slog.Logger) *MemoryGateway {
	return &MemoryGateway{
		items:    make(map[int64]*types.ArchivedItem),
		byURL:    make(map[string]int64),
		tags:     make(map[string]int64),
		tagNames: make(map[int64]string),
		links:    make(map[int64][]int64),
		logger:   logger.With("component", "memory_gateway"),
	}
}

// Name returns the backend identifier.
func (g *MemoryGateway) Name() string { return "memory" }

// FindBySourceURL returns a copy of the stored item with its tags.
func (g *MemoryGateway) FindBySourceURL(_ context.Context, sourceURL string) (*types.ArchivedItem, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, ok := g.byURL[sourceURL]
	if !ok {
		return nil, notFound(sourceURL)
	}
	item := g.items[id].Clone()
	item.Tags = nil
	for _, tagID := range g.links[id] {
		item.Tags = append(item.Tags, g.tagNames[tagID])
	}
	return item, nil
}

// Upsert stores a copy of item keyed by source URL.
func (g *MemoryGateway) Upsert(_ context.Context, item *types.ArchivedItem) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now().UTC()
	if id, ok := g.byURL[item.SourceURL]; ok {
		prev := g.items[id]
		updated := item.Clone()
		updated.ID = id
		updated.Slug = prev.Slug
		updated.CreatedAt = prev.CreatedAt
		updated.UpdatedAt = now
		g.items[id] = updated
		return id, nil
	}

	g.nextItem++
	stored := item.Clone()
	stored.ID = g.nextItem
	stored.CreatedAt = now
	stored.UpdatedAt = now
	g.items[stored.ID] = stored
	g.byURL[item.SourceURL] = stored.ID
	return stored.ID, nil
}

// GetOrCreateTag returns the id for name, allocating one if needed.
func (g *MemoryGateway) GetOrCreateTag(_ context.Context, name string) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if id, ok := g.tags[name]; ok {
		return id, nil
	}
	g.nextTag++
	g.tags[name] = g.nextTag
	g.tagNames[g.nextTag] = name
	return g.nextTag, nil
}

// RelinkTags replaces the links of itemID.
func (g *MemoryGateway) RelinkTags(_ context.Context, itemID int64, tagIDs []int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.links[itemID] = append([]int64(nil), tagIDs...)
	return nil
}

// ListAllSlugs returns the set of slugs in use.
func (g *MemoryGateway) ListAllSlugs(_ context.Context) (map[string]struct{}, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	slugs := make(map[string]struct{}, len(g.items))
	for _, item := range g.items {
		slugs[item.Slug] = struct{}{}
	}
	return slugs, nil
}

// Count returns the number of stored items.
func (g *MemoryGateway) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.items)
}

// TagCount returns the number of distinct tags.
func (g *MemoryGateway) TagCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.tags)
}

// Close is a no-op.
func (g *MemoryGateway) Close() error {
	g.logger.Debug("memory gateway closing", "items", len(g.items))
	return nil
}
