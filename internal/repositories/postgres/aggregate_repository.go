package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chrisdamba/crashlens/internal/models"
)

var aggregateColumns = []string{
	"location_key", "time_bucket", "crash_count", "severity_mean",
	"camera_violation_count", "crashes_with_camera", "congestion_mean", "crashes_with_congestion",
}

type AggregateRepository struct {
	pool *pgxpool.Pool
}

func NewAggregateRepository(pool *pgxpool.Pool) *AggregateRepository {
	return &AggregateRepository{pool: pool}
}

// ReplaceAll swaps the table contents for aggregates in one transaction.
func (r *AggregateRepository) ReplaceAll(ctx context.Context, aggregates []models.Aggregate) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM aggregates"); err != nil {
		return err
	}

	_, err = tx.CopyFrom(ctx, pgx.Identifier{"aggregates"}, aggregateColumns,
		pgx.CopyFromSlice(len(aggregates), func(i int) ([]any, error) {
			a := aggregates[i]
			return []any{
				a.LocationKey,
				a.TimeBucket,
				a.CrashCount,
				a.SeverityMean,
				a.CameraViolationCount,
				a.CrashesWithCamera,
				a.CongestionMean,
				a.CrashesWithCongestion,
			}, nil
		}),
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *AggregateRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM aggregates").Scan(&count)
	return count, err
}
