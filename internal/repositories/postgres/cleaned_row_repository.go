package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CleanedRowRepository struct {
	pool *pgxpool.Pool
}

func NewCleanedRowRepository(pool *pgxpool.Pool) *CleanedRowRepository {
	return &CleanedRowRepository{pool: pool}
}

func (r *CleanedRowRepository) ReplaceDataset(ctx context.Context, dataset string, header []string, rows [][]string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM cleaned_rows WHERE dataset = $1", dataset); err != nil {
		return err
	}

	_, err = tx.CopyFrom(ctx, pgx.Identifier{"cleaned_rows"}, []string{"dataset", "row_no", "data"},
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			doc := make(map[string]string, len(header))
			for j, column := range header {
				if j < len(rows[i]) {
					doc[column] = rows[i][j]
				}
			}
			data, err := json.Marshal(doc)
			if err != nil {
				return nil, err
			}
			return []any{dataset, i + 1, data}, nil
		}),
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *CleanedRowRepository) Count(ctx context.Context, dataset string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM cleaned_rows WHERE dataset = $1", dataset).Scan(&count)
	return count, err
}
