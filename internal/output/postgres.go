package output

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/chrisdamba/crashlens/internal/loader"
	"github.com/chrisdamba/crashlens/internal/models"
	"github.com/chrisdamba/crashlens/internal/repositories"
	"github.com/chrisdamba/crashlens/internal/repositories/postgres"
)

// PostgresOutput replaces the contents of the output tables on every run.
type PostgresOutput struct {
	pool        *pgxpool.Pool
	aggregates  repositories.AggregateRepository
	hotspots    repositories.HotspotRepository
	dropSummary repositories.DropSummaryRepository
	cleanedRows repositories.CleanedRowRepository
}

func NewPostgresOutput(ctx context.Context, config models.DatabaseConfig) (*PostgresOutput, error) {
	pool, err := pgxpool.New(ctx, config.ConnString())
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}

	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	log.Info().Str("host", config.Host).Str("dbname", config.DBName).Msg("Connected to database")
	return &PostgresOutput{
		pool:        pool,
		aggregates:  postgres.NewAggregateRepository(pool),
		hotspots:    postgres.NewHotspotRepository(pool),
		dropSummary: postgres.NewDropSummaryRepository(pool),
		cleanedRows: postgres.NewCleanedRowRepository(pool),
	}, nil
}

func (p *PostgresOutput) WriteAggregates(ctx context.Context, aggregates []models.Aggregate) error {
	if err := p.aggregates.ReplaceAll(ctx, aggregates); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", DatasetAggregates, err)
	}
	return verifyCount(ctx, DatasetAggregates, len(aggregates), p.aggregates.Count)
}

func (p *PostgresOutput) WriteHotspots(ctx context.Context, hotspots []models.Hotspot) error {
	if err := p.hotspots.ReplaceAll(ctx, hotspots); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", DatasetHotspots, err)
	}
	return verifyCount(ctx, DatasetHotspots, len(hotspots), p.hotspots.Count)
}

func (p *PostgresOutput) WriteDropSummary(ctx context.Context, rows []models.AuditRow) error {
	if err := p.dropSummary.ReplaceAll(ctx, rows); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", DatasetDropSummary, err)
	}
	return verifyCount(ctx, DatasetDropSummary, len(rows), p.dropSummary.Count)
}

func (p *PostgresOutput) WriteTable(ctx context.Context, name string, table *loader.Table) error {
	if err := p.cleanedRows.ReplaceDataset(ctx, name, table.Header, table.Rows); err != nil {
		return fmt.Errorf("failed to insert %s rows: %w", name, err)
	}
	return verifyCount(ctx, name, table.Len(), func(ctx context.Context) (int, error) {
		return p.cleanedRows.Count(ctx, name)
	})
}

func (p *PostgresOutput) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

// verifyCount reads back how many rows a dataset holds after it was replaced.
func verifyCount(ctx context.Context, dataset string, written int, count func(context.Context) (int, error)) error {
	stored, err := count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count %s rows: %w", dataset, err)
	}
	if stored != written {
		return fmt.Errorf("%s holds %d rows after writing %d", dataset, stored, written)
	}
	log.Debug().Str("dataset", dataset).Int("rows", stored).Msg("Stored rows")
	return nil
}
