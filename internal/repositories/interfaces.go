package repositories

import (
	"context"

	"github.com/chrisdamba/crashlens/internal/models"
)

type AggregateRepository interface {
	ReplaceAll(ctx context.Context, aggregates []models.Aggregate) error
	Count(ctx context.Context) (int, error)
}

type HotspotRepository interface {
	ReplaceAll(ctx context.Context, hotspots []models.Hotspot) error
	Count(ctx context.Context) (int, error)
}

type DropSummaryRepository interface {
	ReplaceAll(ctx context.Context, rows []models.AuditRow) error
	Count(ctx context.Context) (int, error)
}

// CleanedRowRepository stores cleaned source tables as JSON documents keyed
// by dataset and row number.
type CleanedRowRepository interface {
	ReplaceDataset(ctx context.Context, dataset string, header []string, rows [][]string) error
	Count(ctx context.Context, dataset string) (int, error)
}
