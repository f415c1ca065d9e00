package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/bryanwahyu/reason3/internal/domain/analysis"
)

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

const columns = `id, flavor, status, media_type, target_url, content_excerpt, image_url,
  model, raw_response, result_json, duration_ms, created_at`

// Save inserts or updates an audit record
func (r *AnalysisRepository) Save(ctx context.Context, a *domain.Record) error {
	const q = `
INSERT INTO analyses
  (` + columns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (id) DO UPDATE SET
  status=EXCLUDED.status,
  raw_response=EXCLUDED.raw_response,
  result_json=EXCLUDED.result_json;
`
	result := a.ResultJSON
	if strings.TrimSpace(result) == "" {
		result = "{}"
	}
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		a.ID, a.Flavor, a.Status, a.MediaType, a.TargetURL, a.ContentExcerpt, a.ImageURL,
		a.Model, a.RawResponse, result, a.DurationMS, createdAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

func (r *AnalysisRepository) Get(ctx context.Context, id string) (*domain.Record, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM analyses WHERE id=$1`, id)
	a, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return a, err
}

// Paginate returns a page of audit records ordered by created_at desc
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
WHERE ($1 = '' OR flavor = $1)
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3;`
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
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM analyses WHERE ($1 = '' OR flavor = $1)`, string(flavor)).Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*domain.Record, error) {
	var a domain.Record
	if err := s.Scan(
		&a.ID, &a.Flavor, &a.Status, &a.MediaType, &a.TargetURL, &a.ContentExcerpt, &a.ImageURL,
		&a.Model, &a.RawResponse, &a.ResultJSON, &a.DurationMS, &a.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}
