package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IshaanNene/linkarchive/internal/types"
)

// MongoGateway stores the archive in MongoDB. Numeric ids come from a
// counters collection so items and tags keep int64 identities.
type MongoGateway struct {
	client   *mongo.Client
	articles *mongo.Collection
	tags     *mongo.Collection
	counters *mongo.Collection
	logger   *slog.Logger
}

type articleDoc struct {
	ID              int64     `bson:"_id"`
	Slug            string    `bson:"slug"`
	Title           string    `bson:"title"`
	SourceURL       string    `bson:"source_url"`
	ThumbnailURL    *string   `bson:"thumbnail_url"`
	ContentType     string    `bson:"content_type"`
	ShortSummary    string    `bson:"short_summary"`
	ExtendedSummary string    `bson:"extended_summary"`
	RawMarkdown     *string   `bson:"raw_markdown"`
	Transcript      *string   `bson:"transcript"`
	WeekBucket      string    `bson:"week_bucket"`
	TagIDs          []int64   `bson:"tag_ids"`
	CreatedAt       time.Time `bson:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at"`
}

type tagDoc struct {
	ID   int64  `bson:"_id"`
	Name string `bson:"name"`
}

// NewMongoGateway connects to uri and prepares the collections of database.
func NewMongoGateway(ctx context.Context, uri, database string, logger *slog.Logger) (*MongoGateway, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	db := client.Database(database)
	g := &MongoGateway{
		client:   client,
		articles: db.Collection("articles"),
		tags:     db.Collection("tags"),
		counters: db.Collection("counters"),
		logger:   logger.With("component", "mongo_gateway"),
	}
	if err := g.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return g, nil
}

func (g *MongoGateway) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	_, err := g.articles.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "source_url", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "week_bucket", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("mongodb article indexes: %w", err)
	}
	_, err = g.tags.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: unique,
	})
	if err != nil {
		return fmt.Errorf("mongodb tag indexes: %w", err)
	}
	return nil
}

// Name returns the backend identifier.
func (g *MongoGateway) Name() string { return "mongodb" }

// FindBySourceURL loads an article and resolves its tag names.
func (g *MongoGateway) FindBySourceURL(ctx context.Context, sourceURL string) (*types.ArchivedItem, error) {
	var doc articleDoc
	err := g.articles.FindOne(ctx, bson.M{"source_url": sourceURL}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(sourceURL)
	}
	if err != nil {
		return nil, g.wrap("find", err)
	}

	names, err := g.tagNames(ctx, doc.TagIDs)
	if err != nil {
		return nil, err
	}

	return &types.ArchivedItem{
		ID:              doc.ID,
		Slug:            doc.Slug,
		Title:           doc.Title,
		SourceURL:       doc.SourceURL,
		ThumbnailURL:    deref(doc.ThumbnailURL),
		ContentType:     decodeContentType(doc.ContentType),
		ShortSummary:    doc.ShortSummary,
		ExtendedSummary: doc.ExtendedSummary,
		RawMarkdown:     deref(doc.RawMarkdown),
		Transcript:      deref(doc.Transcript),
		WeekBucket:      doc.WeekBucket,
		Tags:            names,
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
	}, nil
}

func (g *MongoGateway) tagNames(ctx context.Context, ids []int64) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := g.tags.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, g.wrap("find tags", err)
	}
	var docs []tagDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, g.wrap("find tags", err)
	}

	byID := make(map[int64]string, len(docs))
	for _, d := range docs {
		byID[d.ID] = d.Name
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := byID[id]; ok {
			names = append(names, name)
		}
	}
	return names, nil
}

// Upsert updates the article with the same source_url, or inserts it with a
// fresh id. slug and created_at of an existing article are left untouched.
func (g *MongoGateway) Upsert(ctx context.Context, item *types.ArchivedItem) (int64, error) {
	now := time.Now().UTC()

	var existing struct {
		ID int64 `bson:"_id"`
	}
	err := g.articles.FindOne(ctx, bson.M{"source_url": item.SourceURL},
		options.FindOne().SetProjection(bson.M{"_id": 1})).Decode(&existing)
	switch {
	case err == nil:
		_, err := g.articles.UpdateByID(ctx, existing.ID, bson.M{"$set": bson.M{
			"title":            item.Title,
			"thumbnail_url":    ptr(item.ThumbnailURL),
			"content_type":     string(item.ContentType),
			"short_summary":    item.ShortSummary,
			"extended_summary": item.ExtendedSummary,
			"raw_markdown":     ptr(item.RawMarkdown),
			"transcript":       ptr(item.Transcript),
			"week_bucket":      item.WeekBucket,
			"updated_at":       now,
		}})
		if err != nil {
			return 0, g.wrap("update", err)
		}
		return existing.ID, nil
	case !errors.Is(err, mongo.ErrNoDocuments):
		return 0, g.wrap("find", err)
	}

	id, err := g.nextID(ctx, "articles")
	if err != nil {
		return 0, err
	}
	_, err = g.articles.InsertOne(ctx, articleDoc{
		ID:              id,
		Slug:            item.Slug,
		Title:           item.Title,
		SourceURL:       item.SourceURL,
		ThumbnailURL:    ptr(item.ThumbnailURL),
		ContentType:     string(item.ContentType),
		ShortSummary:    item.ShortSummary,
		ExtendedSummary: item.ExtendedSummary,
		RawMarkdown:     ptr(item.RawMarkdown),
		Transcript:      ptr(item.Transcript),
		WeekBucket:      item.WeekBucket,
		TagIDs:          []int64{},
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		return 0, g.wrap("insert", err)
	}
	g.logger.Debug("article inserted", "id", id, "source_url", item.SourceURL)
	return id, nil
}

// GetOrCreateTag returns the id of the named tag, inserting it if missing.
func (g *MongoGateway) GetOrCreateTag(ctx context.Context, name string) (int64, error) {
	var doc tagDoc
	err := g.tags.FindOne(ctx, bson.M{"name": name}).Decode(&doc)
	if err == nil {
		return doc.ID, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return 0, g.wrap("find tag", err)
	}

	id, err := g.nextID(ctx, "tags")
	if err != nil {
		return 0, err
	}
	if _, err := g.tags.InsertOne(ctx, tagDoc{ID: id, Name: name}); err != nil {
		if !mongo.IsDuplicateKeyError(err) {
			return 0, g.wrap("create tag", err)
		}
		// Lost a race with a concurrent insert of the same name.
		if err := g.tags.FindOne(ctx, bson.M{"name": name}).Decode(&doc); err != nil {
			return 0, g.wrap("find tag", err)
		}
		return doc.ID, nil
	}
	return id, nil
}

// RelinkTags replaces the article's tag id list.
func (g *MongoGateway) RelinkTags(ctx context.Context, itemID int64, tagIDs []int64) error {
	if tagIDs == nil {
		tagIDs = []int64{}
	}
	_, err := g.articles.UpdateByID(ctx, itemID, bson.M{"$set": bson.M{"tag_ids": tagIDs}})
	return g.wrap("relink tags", err)
}

// ListAllSlugs returns the set of slugs in use.
func (g *MongoGateway) ListAllSlugs(ctx context.Context) (map[string]struct{}, error) {
	cur, err := g.articles.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"slug": 1}))
	if err != nil {
		return nil, g.wrap("list slugs", err)
	}
	defer cur.Close(ctx)

	slugs := make(map[string]struct{})
	for cur.Next(ctx) {
		var doc struct {
			Slug string `bson:"slug"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, g.wrap("list slugs", err)
		}
		slugs[doc.Slug] = struct{}{}
	}
	if err := cur.Err(); err != nil {
		return nil, g.wrap("list slugs", err)
	}
	return slugs, nil
}

// Close disconnects the client.
func (g *MongoGateway) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.client.Disconnect(ctx)
}

func (g *MongoGateway) nextID(ctx context.Context, name string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := g.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, g.wrap("next id", err)
	}
	return counter.Seq, nil
}

func (g *MongoGateway) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &types.PersistenceError{Backend: g.Name(), Op: op, Err: err}
}

func ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
