package output

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/chrisdamba/crashlens/internal/loader"
	"github.com/chrisdamba/crashlens/internal/models"
)

// CSVOutput writes one file per dataset under basePath/folder.
type CSVOutput struct {
	basePath string
	folder   string
}

func NewCSVOutput(basePath, folder string) *CSVOutput {
	return &CSVOutput{basePath: basePath, folder: folder}
}

func (c *CSVOutput) WriteAggregates(_ context.Context, aggregates []models.Aggregate) error {
	return c.marshal(DatasetAggregates, &aggregates)
}

func (c *CSVOutput) WriteHotspots(_ context.Context, hotspots []models.Hotspot) error {
	return c.marshal(DatasetHotspots, &hotspots)
}

func (c *CSVOutput) WriteDropSummary(_ context.Context, rows []models.AuditRow) error {
	return c.marshal(DatasetDropSummary, &rows)
}

func (c *CSVOutput) WriteTable(_ context.Context, name string, table *loader.Table) error {
	file, err := c.create(name)
	if err != nil {
		return err
	}
	defer file.Close()

	w := gocsv.DefaultCSVWriter(file)
	if err := w.Write(table.Header); err != nil {
		return err
	}
	for _, row := range table.Rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return file.Close()
}

func (c *CSVOutput) Close() error {
	return nil
}

func (c *CSVOutput) marshal(name string, records interface{}) error {
	file, err := c.create(name)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := gocsv.Marshal(records, file); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return file.Close()
}

func (c *CSVOutput) create(name string) (*os.File, error) {
	dir := filepath.Join(c.basePath, c.folder)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, err
	}
	return os.Create(filepath.Join(dir, name+".csv"))
}
