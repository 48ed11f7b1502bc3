package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chrisdamba/crashlens/internal/models"
)

type DropSummaryRepository struct {
	pool *pgxpool.Pool
}

func NewDropSummaryRepository(pool *pgxpool.Pool) *DropSummaryRepository {
	return &DropSummaryRepository{pool: pool}
}

func (r *DropSummaryRepository) ReplaceAll(ctx context.Context, rows []models.AuditRow) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM drop_summary"); err != nil {
		return err
	}

	_, err = tx.CopyFrom(ctx, pgx.Identifier{"drop_summary"}, []string{"key", "count"},
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			return []any{rows[i].Key, rows[i].Count}, nil
		}),
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *DropSummaryRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM drop_summary").Scan(&count)
	return count, err
}
