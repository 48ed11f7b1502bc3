package output

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/chrisdamba/crashlens/internal/loader"
	"github.com/chrisdamba/crashlens/internal/models"
)

// ConsoleOutput prints every record as "[dataset] json".
type ConsoleOutput struct {
	w io.Writer
}

func NewConsoleOutput(w io.Writer) *ConsoleOutput {
	return &ConsoleOutput{w: w}
}

func (c *ConsoleOutput) WriteAggregates(_ context.Context, aggregates []models.Aggregate) error {
	return printRecords(c.w, DatasetAggregates, aggregates)
}

func (c *ConsoleOutput) WriteHotspots(_ context.Context, hotspots []models.Hotspot) error {
	return printRecords(c.w, DatasetHotspots, hotspots)
}

func (c *ConsoleOutput) WriteDropSummary(_ context.Context, rows []models.AuditRow) error {
	return printRecords(c.w, DatasetDropSummary, rows)
}

func (c *ConsoleOutput) WriteTable(_ context.Context, name string, table *loader.Table) error {
	return printRecords(c.w, name, tableRecords(table))
}

func (c *ConsoleOutput) Close() error {
	return nil
}

func printRecords[T any](w io.Writer, dataset string, records []T) error {
	for _, record := range records {
		msg, err := json.Marshal(record)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "[%s] %s\n", dataset, msg); err != nil {
			return fmt.Errorf("failed to write to console: %w", err)
		}
	}
	return nil
}
