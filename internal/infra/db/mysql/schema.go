package mysql

import (
	"context"
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS analyses (
  id              CHAR(36)     NOT NULL PRIMARY KEY,
  flavor          VARCHAR(32)  NOT NULL,
  status          VARCHAR(32)  NOT NULL,
  media_type      VARCHAR(16)  NOT NULL,
  target_url      TEXT         NOT NULL,
  content_excerpt TEXT         NOT NULL,
  image_url       TEXT         NOT NULL,
  model           VARCHAR(128) NOT NULL,
  raw_response    MEDIUMTEXT   NOT NULL,
  result_json     JSON         NOT NULL,
  duration_ms     BIGINT       NOT NULL,
  created_at      DATETIME(6)  NOT NULL,
  KEY idx_analyses_flavor_created (flavor, created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`

// EnsureSchema creates the analyses table when missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
