package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS aggregates (
        location_key TEXT NOT NULL,
        time_bucket TEXT NOT NULL,
        crash_count BIGINT NOT NULL,
        severity_mean DOUBLE PRECISION,
        camera_violation_count BIGINT NOT NULL,
        crashes_with_camera BIGINT NOT NULL,
        congestion_mean DOUBLE PRECISION,
        crashes_with_congestion BIGINT NOT NULL,
        PRIMARY KEY (location_key, time_bucket)
    )`,
	`CREATE TABLE IF NOT EXISTS hotspots (
        location_key TEXT PRIMARY KEY,
        crash_count BIGINT NOT NULL,
        z_score DOUBLE PRECISION NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS drop_summary (
        key TEXT PRIMARY KEY,
        count BIGINT NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS cleaned_rows (
        dataset TEXT NOT NULL,
        row_no INTEGER NOT NULL,
        data JSONB NOT NULL,
        PRIMARY KEY (dataset, row_no)
    )`,
}

// EnsureSchema creates the output tables when they do not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}
