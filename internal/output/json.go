package output

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/chrisdamba/crashlens/internal/loader"
	"github.com/chrisdamba/crashlens/internal/models"
)

// JSONOutput writes one newline delimited JSON file per dataset.
type JSONOutput struct {
	basePath string
	folder   string
}

func NewJSONOutput(basePath, folder string) *JSONOutput {
	return &JSONOutput{basePath: basePath, folder: folder}
}

func (j *JSONOutput) WriteAggregates(_ context.Context, aggregates []models.Aggregate) error {
	return writeJSONLines(j, DatasetAggregates, aggregates)
}

func (j *JSONOutput) WriteHotspots(_ context.Context, hotspots []models.Hotspot) error {
	return writeJSONLines(j, DatasetHotspots, hotspots)
}

func (j *JSONOutput) WriteDropSummary(_ context.Context, rows []models.AuditRow) error {
	return writeJSONLines(j, DatasetDropSummary, rows)
}

func (j *JSONOutput) WriteTable(_ context.Context, name string, table *loader.Table) error {
	return writeJSONLines(j, name, tableRecords(table))
}

func (j *JSONOutput) Close() error {
	return nil
}

func writeJSONLines[T any](j *JSONOutput, name string, records []T) error {
	dir := filepath.Join(j.basePath, j.folder)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return err
	}
	file, err := os.Create(filepath.Join(dir, name+".json"))
	if err != nil {
		return err
	}
	defer file.Close()

	// Encoder terminates every value with a newline
	enc := json.NewEncoder(file)
	for _, record := range records {
		if err := enc.Encode(record); err != nil {
			return err
		}
	}
	return file.Close()
}
