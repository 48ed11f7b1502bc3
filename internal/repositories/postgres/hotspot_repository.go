package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chrisdamba/crashlens/internal/models"
)

type HotspotRepository struct {
	pool *pgxpool.Pool
}

func NewHotspotRepository(pool *pgxpool.Pool) *HotspotRepository {
	return &HotspotRepository{pool: pool}
}

func (r *HotspotRepository) ReplaceAll(ctx context.Context, hotspots []models.Hotspot) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM hotspots"); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, h := range hotspots {
		batch.Queue(
			"INSERT INTO hotspots (location_key, crash_count, z_score) VALUES ($1, $2, $3)",
			h.LocationKey, h.CrashCount, h.ZScore,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *HotspotRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM hotspots").Scan(&count)
	return count, err
}
