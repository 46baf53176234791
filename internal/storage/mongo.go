package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"regexp"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IshaanNene/NewsHound/internal/config"
	"github.com/IshaanNene/NewsHound/internal/types"
)

// MongoStore writes articles and keywords to MongoDB collections.
type MongoStore struct {
	client   *mongo.Client
	articles *mongo.Collection
	keywords *mongo.Collection
	timeout  time.Duration
	logger   *slog.Logger
}

type keywordDoc struct {
	Keyword   string    `bson:"keyword"`
	CreatedAt time.Time `bson:"created_at"`
}

// NewMongoStore connects to cfg.MongoURI and ensures the unique indexes on
// article URL and keyword exist.
func NewMongoStore(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (*MongoStore, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, mongoErr("connect", err)
	}
	if err := client.Ping(cctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, mongoErr("ping", err)
	}

	db := client.Database(cfg.MongoDatabase)
	s := &MongoStore{
		client:   client,
		articles: db.Collection("articles"),
		keywords: db.Collection("keywords"),
		timeout:  timeout,
		logger:   logger.With("component", "mongo_storage"),
	}
	if err := s.ensureIndexes(cctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.articles.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "url", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "pub_date", Value: -1}, {Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return mongoErr("create article indexes", err)
	}
	_, err = s.keywords.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "keyword", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return mongoErr("create keyword index", err)
	}
	return nil
}

func (s *MongoStore) Name() string { return "mongodb" }

func (s *MongoStore) Save(ctx context.Context, rec *types.ArticleRecord) (bool, error) {
	if err := validateRecord(rec); err != nil {
		return false, err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.articles.InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			s.logger.Debug("article already stored", "url", rec.URL)
			return false, nil
		}
		return false, mongoErr("insert article", err)
	}
	return true, nil
}

func (s *MongoStore) QueryByDate(ctx context.Context, date string) ([]types.ArticleRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	return s.find(ctx, bson.M{"pub_date": date}, opts)
}

// bsonDateRange returns a filter bounding pub_date inclusively. An upper
// bound excludes undated articles.
func bsonDateRange(from, to string) bson.M {
	filter := bson.M{}
	dates := bson.M{}
	if from != "" {
		dates["$gte"] = from
	}
	if to != "" {
		dates["$lte"] = to
		dates["$gt"] = ""
	}
	if len(dates) > 0 {
		filter["pub_date"] = dates
	}
	return filter
}

// withFilter copies base and adds the fields of extra.
func withFilter(base, extra bson.M) bson.M {
	out := make(bson.M, len(base)+len(extra))
	maps.Copy(out, base)
	maps.Copy(out, extra)
	return out
}

func (s *MongoStore) Search(ctx context.Context, f Filter) ([]types.ArticleRecord, error) {
	filter := bsonDateRange(f.From, f.To)
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Keyword != "" {
		filter["keyword"] = f.Keyword
	}
	if f.Query != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Query), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": re},
			bson.M{"english_title": re},
			bson.M{"content": re},
		}
	}

	opts := options.Find().SetSort(bson.D{
		{Key: "pub_date", Value: -1},
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	return s.find(ctx, filter, opts)
}

func (s *MongoStore) find(ctx context.Context, filter any, opts *options.FindOptions) ([]types.ArticleRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cur, err := s.articles.Find(ctx, filter, opts)
	if err != nil {
		return nil, mongoErr("find articles", err)
	}
	var out []types.ArticleRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, mongoErr("decode articles", err)
	}
	return out, nil
}

func (s *MongoStore) Stats(ctx context.Context, from, to string) (Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	st := Stats{ByCategory: make(map[string]int)}
	where := bsonDateRange(from, to)

	total, err := s.articles.CountDocuments(ctx, where)
	if err != nil {
		return st, mongoErr("count articles", err)
	}
	st.Total = int(total)

	estimated, err := s.articles.CountDocuments(ctx, withFilter(where, bson.M{"date_estimated": true}))
	if err != nil {
		return st, mongoErr("count estimated", err)
	}
	st.Estimated = int(estimated)

	sources, err := s.articles.Distinct(ctx, "source", withFilter(where, bson.M{"source": bson.M{"$ne": ""}}))
	if err != nil {
		return st, mongoErr("distinct sources", err)
	}
	st.Sources = len(sources)

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: withFilter(where, bson.M{"category": bson.M{"$nin": bson.A{"", nil}}})}},
		{{Key: "$group", Value: bson.M{"_id": "$category", "n": bson.M{"$sum": 1}}}},
	}
	cur, err := s.articles.Aggregate(ctx, pipeline)
	if err != nil {
		return st, mongoErr("category counts", err)
	}
	var groups []struct {
		Category string `bson:"_id"`
		N        int    `bson:"n"`
	}
	if err := cur.All(ctx, &groups); err != nil {
		return st, mongoErr("decode category counts", err)
	}
	for _, g := range groups {
		st.ByCategory[g.Category] = g.N
	}
	st.Categories = len(st.ByCategory)

	if st.Earliest, err = s.edgeDate(ctx, from, to, 1); err != nil {
		return st, err
	}
	if st.Latest, err = s.edgeDate(ctx, from, to, -1); err != nil {
		return st, err
	}
	return st, nil
}

// edgeDate returns the smallest (dir 1) or largest (dir -1) non-empty pub
// date within [from, to].
func (s *MongoStore) edgeDate(ctx context.Context, from, to string, dir int) (string, error) {
	var doc struct {
		PubDate string `bson:"pub_date"`
	}
	dates := bson.M{"$gt": ""}
	if from != "" {
		dates["$gte"] = from
	}
	if to != "" {
		dates["$lte"] = to
	}
	err := s.articles.FindOne(ctx,
		bson.M{"pub_date": dates},
		options.FindOne().SetSort(bson.D{{Key: "pub_date", Value: dir}}).SetProjection(bson.M{"pub_date": 1}),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	}
	if err != nil {
		return "", mongoErr("pub date range", err)
	}
	return doc.PubDate, nil
}

func (s *MongoStore) Categories(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	vals, err := s.articles.Distinct(ctx, "category", bson.M{"category": bson.M{"$ne": ""}})
	if err != nil {
		return nil, mongoErr("distinct categories", err)
	}
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if c, ok := v.(string); ok && c != "" {
			out = append(out, c)
		}
	}
	slices.Sort(out)
	return out, nil
}

func (s *MongoStore) Delete(ctx context.Context, url string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.articles.DeleteOne(ctx, bson.M{"url": url})
	if err != nil {
		return false, mongoErr("delete article", err)
	}
	return res.DeletedCount > 0, nil
}

func (s *MongoStore) ListKeywords(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cur, err := s.keywords.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, mongoErr("find keywords", err)
	}
	var docs []keywordDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mongoErr("decode keywords", err)
	}
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Keyword
	}
	return out, nil
}

func (s *MongoStore) AddKeyword(ctx context.Context, kw string) (bool, error) {
	kw, err := normalizeKeyword(kw)
	if err != nil {
		return false, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.keywords.UpdateOne(ctx,
		bson.M{"keyword": kw},
		bson.M{"$setOnInsert": keywordDoc{Keyword: kw, CreatedAt: time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, mongoErr("upsert keyword", err)
	}
	return res.UpsertedCount > 0, nil
}

func (s *MongoStore) RemoveKeyword(ctx context.Context, kw string) (bool, error) {
	kw, err := normalizeKeyword(kw)
	if err != nil {
		return false, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.keywords.DeleteOne(ctx, bson.M{"keyword": kw})
	if err != nil {
		return false, mongoErr("delete keyword", err)
	}
	return res.DeletedCount > 0, nil
}

func (s *MongoStore) Close() error {
	s.logger.Debug("mongodb storage closing")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func mongoErr(op string, err error) error {
	return &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("%s: %w", op, err)}
}
