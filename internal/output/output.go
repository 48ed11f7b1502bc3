package output

import (
	"context"
	"fmt"
	"os"

	"github.com/chrisdamba/crashlens/internal/loader"
	"github.com/chrisdamba/crashlens/internal/models"
)

// Dataset names. Each becomes a file, topic or table depending on the sink.
const (
	DatasetAggregates  = "aggregates"
	DatasetHotspots    = "hotspots"
	DatasetDropSummary = "drop_summary"

	DatasetCrashesClean    = "crashes_clean"
	DatasetCamerasClean    = "cameras_clean"
	DatasetCongestionClean = "congestion_clean"
)

// Destination receives the tables produced by a pipeline run.
type Destination interface {
	WriteAggregates(ctx context.Context, aggregates []models.Aggregate) error
	WriteHotspots(ctx context.Context, hotspots []models.Hotspot) error
	WriteDropSummary(ctx context.Context, rows []models.AuditRow) error
	WriteTable(ctx context.Context, name string, table *loader.Table) error
	Close() error
}

// New picks the destination for the configured output format.
func New(ctx context.Context, cfg *models.Config) (Destination, error) {
	switch cfg.Output.Format {
	case "csv":
		return NewCSVOutput(cfg.Output.Path, cfg.Output.Folder), nil
	case "json":
		return NewJSONOutput(cfg.Output.Path, cfg.Output.Folder), nil
	case "parquet":
		return NewParquetOutput(ctx, cfg)
	case "kafka":
		return NewKafkaOutput(cfg.Kafka)
	case "postgres":
		return NewPostgresOutput(ctx, cfg.Database)
	case "console":
		return NewConsoleOutput(os.Stdout), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", cfg.Output.Format)
	}
}

// tableRecords turns each row into a column name to value map.
func tableRecords(table *loader.Table) []map[string]string {
	records := make([]map[string]string, 0, table.Len())
	for _, row := range table.Rows {
		record := make(map[string]string, len(table.Header))
		for _, column := range table.Header {
			record[column] = table.Value(row, column)
		}
		records = append(records, record)
	}
	return records
}
