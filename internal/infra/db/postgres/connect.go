package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS analyses (
  id              TEXT        PRIMARY KEY,
  flavor          TEXT        NOT NULL,
  status          TEXT        NOT NULL,
  media_type      TEXT        NOT NULL,
  target_url      TEXT        NOT NULL DEFAULT '',
  content_excerpt TEXT        NOT NULL DEFAULT '',
  image_url       TEXT        NOT NULL DEFAULT '',
  model           TEXT        NOT NULL DEFAULT '',
  raw_response    TEXT        NOT NULL DEFAULT '',
  result_json     JSONB       NOT NULL,
  duration_ms     BIGINT      NOT NULL,
  created_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analyses_flavor_created ON analyses (flavor, created_at DESC);`

// EnsureSchema creates the analyses table when missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
