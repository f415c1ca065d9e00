// Package sqlite keeps the audit trail in a local file for single-node setups.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	domain "github.com/bryanwahyu/reason3/internal/domain/analysis"
)

// timeLayout is fixed-width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const schema = `
CREATE TABLE IF NOT EXISTS analyses (
  id              TEXT    PRIMARY KEY,
  flavor          TEXT    NOT NULL,
  status          TEXT    NOT NULL,
  media_type      TEXT    NOT NULL,
  target_url      TEXT    NOT NULL DEFAULT '',
  content_excerpt TEXT    NOT NULL DEFAULT '',
  image_url       TEXT    NOT NULL DEFAULT '',
  model           TEXT    NOT NULL DEFAULT '',
  raw_response    TEXT    NOT NULL DEFAULT '',
  result_json     TEXT    NOT NULL,
  duration_ms     INTEGER NOT NULL,
  created_at      TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analyses_flavor_created ON analyses (flavor, created_at);`

// Open opens or creates the database at path and initializes the schema.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer; also keeps ":memory:" on a single connection
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return db, nil
}

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

const columns = `id, flavor, status, media_type, target_url, content_excerpt, image_url,
  model, raw_response, result_json, duration_ms, created_at`

func (r *AnalysisRepository) Save(ctx context.Context, a *domain.Record) error {
	const q = `
INSERT INTO analyses (` + columns + `)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
ON CONFLICT (id) DO UPDATE SET
  status=excluded.status,
  raw_response=excluded.raw_response,
  result_json=excluded.result_json;`

	result := a.ResultJSON
	if strings.TrimSpace(result) == "" {
		result = "{}"
	}
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		a.ID, string(a.Flavor), string(a.Status), string(a.MediaType), a.TargetURL, a.ContentExcerpt, a.ImageURL,
		a.Model, a.RawResponse, result, a.DurationMS, createdAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

func (r *AnalysisRepository) Get(ctx context.Context, id string) (*domain.Record, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM analyses WHERE id=?`, id)
	a, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return a, err
}

func (r *AnalysisRepository) Paginate(ctx context.Context, flavor domain.Flavor, page, pageSize int) ([]*domain.Record, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	const q = `SELECT ` + columns + `
FROM analyses
WHERE (?1 = '' OR flavor = ?1)
ORDER BY created_at DESC, id DESC
LIMIT ?2 OFFSET ?3;`
	rows, err := r.db.QueryContext(ctx, q, string(flavor), pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("querying analyses: %w", err)
	}
	defer rows.Close()

	var out []*domain.Record
	for rows.Next() {
		a, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AnalysisRepository) Count(ctx context.Context, flavor domain.Flavor) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM analyses WHERE (?1 = '' OR flavor = ?1)`, string(flavor)).Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*domain.Record, error) {
	var (
		a       domain.Record
		created string
	)
	if err := s.Scan(
		&a.ID, &a.Flavor, &a.Status, &a.MediaType, &a.TargetURL, &a.ContentExcerpt, &a.ImageURL,
		&a.Model, &a.RawResponse, &a.ResultJSON, &a.DurationMS, &created,
	); err != nil {
		return nil, err
	}
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	a.CreatedAt = t
	return &a, nil
}
