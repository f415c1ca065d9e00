package mysql

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

// Save inserts an audit record
func (r *AnalysisRepository) Save(ctx context.Context, a *domain.Record) error {
	const q = `
INSERT INTO analyses
  (` + columns + `)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  status=VALUES(status), raw_response=VALUES(raw_response), result_json=VALUES(result_json);
`
	// result_json column requires valid JSON; use empty object
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
	row := r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM analyses WHERE id=?`, id)
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

	q := `SELECT ` + columns + `
FROM analyses
WHERE (? = '' OR flavor = ?)
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?;`
	rows, err := r.db.QueryContext(ctx, q, flavor, flavor, pageSize, offset)
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
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM analyses WHERE (? = '' OR flavor = ?)`, flavor, flavor).Scan(&n)
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
