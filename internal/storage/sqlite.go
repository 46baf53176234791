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

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/IshaanNene/NewsHound/internal/types"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS articles (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	url            TEXT    NOT NULL UNIQUE,
	title          TEXT    NOT NULL,
	source         TEXT    NOT NULL DEFAULT '',
	keyword        TEXT    NOT NULL DEFAULT '',
	journalist     TEXT    NOT NULL DEFAULT '',
	pub_date       TEXT    NOT NULL DEFAULT '',
	date_estimated INTEGER NOT NULL DEFAULT 0,
	category       TEXT    NOT NULL DEFAULT '',
	english_title  TEXT    NOT NULL DEFAULT '',
	synopsis       TEXT    NOT NULL DEFAULT '',
	stakeholders   TEXT    NOT NULL DEFAULT '',
	content        TEXT    NOT NULL DEFAULT '',
	created_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_articles_pub_date ON articles(pub_date);
CREATE INDEX IF NOT EXISTS idx_articles_category ON articles(category);
CREATE TABLE IF NOT EXISTS keywords (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	keyword    TEXT    NOT NULL UNIQUE,
	created_at INTEGER NOT NULL
);`

var articleColumns = []string{
	"id", "url", "title", "source", "keyword", "journalist", "pub_date",
	"date_estimated", "category", "english_title", "synopsis", "stakeholders",
	"content", "created_at",
}

// SQLiteStore keeps articles in a single SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	sb     sq.StatementBuilderType
	path   string
	logger *slog.Logger
}

// NewSQLiteStore opens (creating if needed) the database at path and
// applies the schema.
func NewSQLiteStore(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, sqliteErr("create data dir", err)
		}
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, sqliteErr("open", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, sqliteErr("apply schema", err)
	}

	return &SQLiteStore{
		db:     db,
		sb:     sq.StatementBuilder.PlaceholderFormat(sq.Question),
		path:   path,
		logger: logger.With("component", "sqlite_storage", "path", path),
	}, nil
}

func (s *SQLiteStore) Name() string { return "sqlite" }

func (s *SQLiteStore) Save(ctx context.Context, rec *types.ArticleRecord) (bool, error) {
	if err := validateRecord(rec); err != nil {
		return false, err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	query, args, err := s.sb.Insert("articles").
		Columns(articleColumns[1:]...).
		Values(
			rec.URL, rec.Title, rec.Source, rec.Keyword, rec.Journalist, rec.PubDate,
			rec.DateEstimated, string(rec.Category), rec.EnglishTitle, rec.Synopsis,
			rec.Stakeholders, rec.Content, rec.CreatedAt.UnixMicro(),
		).
		Suffix("ON CONFLICT(url) DO NOTHING").
		ToSql()
	if err != nil {
		return false, sqliteErr("build insert", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, sqliteErr("insert article", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, sqliteErr("rows affected", err)
	}
	if n == 0 {
		s.logger.Debug("article already stored", "url", rec.URL)
		return false, nil
	}
	if id, err := res.LastInsertId(); err == nil {
		rec.ID = id
	}
	return true, nil
}

func (s *SQLiteStore) QueryByDate(ctx context.Context, date string) ([]types.ArticleRecord, error) {
	return s.query(ctx, s.sb.Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"pub_date": date}).
		OrderBy("created_at DESC", "id DESC"))
}

func (s *SQLiteStore) Search(ctx context.Context, f Filter) ([]types.ArticleRecord, error) {
	q := s.sb.Select(articleColumns...).From("articles")
	if r := sqlDateRange(f.From, f.To); len(r) > 0 {
		q = q.Where(r)
	}
	if f.Category != "" {
		q = q.Where(sq.Eq{"category": f.Category})
	}
	if f.Keyword != "" {
		q = q.Where(sq.Eq{"keyword": f.Keyword})
	}
	if f.Query != "" {
		pattern := "%" + f.Query + "%"
		q = q.Where(sq.Or{
			sq.Like{"title": pattern},
			sq.Like{"english_title": pattern},
			sq.Like{"content": pattern},
		})
	}
	q = q.OrderBy("pub_date DESC", "created_at DESC", "id DESC")
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	return s.query(ctx, q)
}

func (s *SQLiteStore) query(ctx context.Context, b sq.SelectBuilder) ([]types.ArticleRecord, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, sqliteErr("build select", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, sqliteErr("query articles", err)
	}
	defer rows.Close()

	var out []types.ArticleRecord
	for rows.Next() {
		var (
			rec      types.ArticleRecord
			category string
			created  int64
		)
		if err := rows.Scan(
			&rec.ID, &rec.URL, &rec.Title, &rec.Source, &rec.Keyword, &rec.Journalist,
			&rec.PubDate, &rec.DateEstimated, &category, &rec.EnglishTitle, &rec.Synopsis,
			&rec.Stakeholders, &rec.Content, &created,
		); err != nil {
			return nil, sqliteErr("scan article", err)
		}
		rec.Category = types.Category(category)
		rec.CreatedAt = time.UnixMicro(created).UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, sqliteErr("rows iteration", err)
	}
	return out, nil
}

// sqlDateRange bounds pub_date inclusively; empty bounds are open. Any
// bound excludes undated articles.
func sqlDateRange(from, to string) sq.And {
	var r sq.And
	if from != "" {
		r = append(r, sq.GtOrEq{"pub_date": from})
	}
	if to != "" {
		r = append(r, sq.LtOrEq{"pub_date": to}, sq.NotEq{"pub_date": ""})
	}
	return r
}

func (s *SQLiteStore) Stats(ctx context.Context, from, to string) (Stats, error) {
	st := Stats{ByCategory: make(map[string]int)}
	where := sqlDateRange(from, to)

	stats := s.sb.Select(
		"COUNT(*)",
		"COUNT(DISTINCT NULLIF(category, ''))",
		"COUNT(DISTINCT NULLIF(source, ''))",
		"COALESCE(MIN(NULLIF(pub_date, '')), '')",
		"COALESCE(MAX(NULLIF(pub_date, '')), '')",
		"COALESCE(SUM(date_estimated), 0)",
	).From("articles")
	if len(where) > 0 {
		stats = stats.Where(where)
	}
	query, args, err := stats.ToSql()
	if err != nil {
		return st, sqliteErr("build stats", err)
	}
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&st.Total, &st.Categories, &st.Sources, &st.Earliest, &st.Latest, &st.Estimated,
	); err != nil {
		return st, sqliteErr("stats", err)
	}

	counts := s.sb.Select("category", "COUNT(*)").
		From("articles").
		Where(sq.NotEq{"category": ""})
	if len(where) > 0 {
		counts = counts.Where(where)
	}
	query, args, err = counts.GroupBy("category").ToSql()
	if err != nil {
		return st, sqliteErr("build category counts", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return st, sqliteErr("category counts", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cat string
			n   int
		)
		if err := rows.Scan(&cat, &n); err != nil {
			return st, sqliteErr("scan category count", err)
		}
		st.ByCategory[cat] = n
	}
	return st, sqliteErr("rows iteration", rows.Err())
}

func (s *SQLiteStore) Categories(ctx context.Context) ([]string, error) {
	query, args, err := s.sb.Select("DISTINCT category").
		From("articles").
		Where(sq.NotEq{"category": ""}).
		OrderBy("category").
		ToSql()
	if err != nil {
		return nil, sqliteErr("build categories", err)
	}
	return s.scanStrings(ctx, query, args)
}

func (s *SQLiteStore) Delete(ctx context.Context, url string) (bool, error) {
	return s.exec(ctx, "delete article", s.sb.Delete("articles").Where(sq.Eq{"url": url}))
}

func (s *SQLiteStore) ListKeywords(ctx context.Context) ([]string, error) {
	query, args, err := s.sb.Select("keyword").From("keywords").OrderBy("id").ToSql()
	if err != nil {
		return nil, sqliteErr("build keywords", err)
	}
	return s.scanStrings(ctx, query, args)
}

func (s *SQLiteStore) AddKeyword(ctx context.Context, kw string) (bool, error) {
	kw, err := normalizeKeyword(kw)
	if err != nil {
		return false, err
	}
	return s.exec(ctx, "insert keyword", s.sb.Insert("keywords").
		Columns("keyword", "created_at").
		Values(kw, time.Now().UTC().UnixMicro()).
		Suffix("ON CONFLICT(keyword) DO NOTHING"))
}

func (s *SQLiteStore) RemoveKeyword(ctx context.Context, kw string) (bool, error) {
	kw, err := normalizeKeyword(kw)
	if err != nil {
		return false, err
	}
	return s.exec(ctx, "delete keyword", s.sb.Delete("keywords").Where(sq.Eq{"keyword": kw}))
}

func (s *SQLiteStore) Close() error {
	s.logger.Debug("sqlite storage closing")
	return s.db.Close()
}

// exec runs b and reports whether any row changed.
func (s *SQLiteStore) exec(ctx context.Context, op string, b sq.Sqlizer) (bool, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return false, sqliteErr("build "+op, err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, sqliteErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, sqliteErr(op, err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) scanStrings(ctx context.Context, query string, args []any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, sqliteErr("query", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, sqliteErr("scan", err)
		}
		out = append(out, v)
	}
	return out, sqliteErr("rows iteration", rows.Err())
}

// sqliteErr wraps err as a StorageError. A nil err stays nil.
func sqliteErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *types.StorageError
	if errors.As(err, &se) {
		return err
	}
	return &types.StorageError{Backend: "sqlite", Err: fmt.Errorf("%s: %w", op, err)}
}
