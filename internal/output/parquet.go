package output

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/chrisdamba/crashlens/internal/cloudwriter"
	"github.com/chrisdamba/crashlens/internal/loader"
	"github.com/chrisdamba/crashlens/internal/models"
)

const parquetParallelism = 4

// ParquetOutput writes one parquet file per dataset, either below
// basePath/folder or as objects in a cloud bucket.
type ParquetOutput struct {
	ctx                context.Context
	basePath           string
	folder             string
	cloudWriterFactory cloudwriter.CloudWriterFactory
	cloudBucketName    string
}

func NewParquetOutput(ctx context.Context, config *models.Config) (*ParquetOutput, error) {
	p := &ParquetOutput{
		ctx:      ctx,
		basePath: config.Output.Path,
		folder:   config.Output.Folder,
	}

	if config.Output.Destination != "" && config.Output.Destination != "local" {
		factory, err := cloudwriter.NewFactory(ctx, config.CloudStorage.Provider, config.CloudStorage.Region, config.CloudStorage.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to create cloud writer factory: %w", err)
		}
		p.cloudWriterFactory = factory
		p.cloudBucketName = config.CloudStorage.BucketName
	}

	return p, nil
}

// NewCloudParquetOutput writes through an existing factory.
func NewCloudParquetOutput(ctx context.Context, factory cloudwriter.CloudWriterFactory, bucket, folder string) *ParquetOutput {
	return &ParquetOutput{
		ctx:                ctx,
		folder:             folder,
		cloudWriterFactory: factory,
		cloudBucketName:    bucket,
	}
}

func (p *ParquetOutput) WriteAggregates(_ context.Context, aggregates []models.Aggregate) error {
	return writeParquetStructs(p, DatasetAggregates, new(models.Aggregate), aggregates)
}

func (p *ParquetOutput) WriteHotspots(_ context.Context, hotspots []models.Hotspot) error {
	return writeParquetStructs(p, DatasetHotspots, new(models.Hotspot), hotspots)
}

func (p *ParquetOutput) WriteDropSummary(_ context.Context, rows []models.AuditRow) error {
	return writeParquetStructs(p, DatasetDropSummary, new(models.AuditRow), rows)
}

// WriteTable stores every column as an optional UTF8 string. Blank cells
// become nulls.
func (p *ParquetOutput) WriteTable(_ context.Context, name string, table *loader.Table) error {
	fw, err := p.createFile(name)
	if err != nil {
		return err
	}

	metadata := make([]string, len(table.Header))
	for i, column := range table.Header {
		metadata[i] = fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL", columnName(column))
	}

	pw, err := writer.NewCSVWriter(metadata, fw, parquetParallelism)
	if err != nil {
		fw.Close()
		return fmt.Errorf("failed to create CSV parquet writer: %w", err)
	}

	for _, row := range table.Rows {
		record := make([]*string, len(table.Header))
		for i, column := range table.Header {
			if v := table.Value(row, column); v != "" {
				record[i] = &v
			}
		}
		if err := pw.WriteString(record); err != nil {
			fw.Close()
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	return finishParquet(name, pw, fw)
}

func (p *ParquetOutput) Close() error {
	return nil
}

func writeParquetStructs[T any](p *ParquetOutput, name string, schema *T, records []T) error {
	fw, err := p.createFile(name)
	if err != nil {
		return err
	}

	pw, err := writer.NewParquetWriter(fw, schema, parquetParallelism)
	if err != nil {
		fw.Close()
		return fmt.Errorf("failed to create ParquetWriter: %w", err)
	}

	for i := range records {
		if err := pw.Write(records[i]); err != nil {
			fw.Close()
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	return finishParquet(name, pw, fw)
}

type parquetStopper interface {
	WriteStop() error
}

func finishParquet(name string, pw parquetStopper, fw source.ParquetFile) error {
	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return fmt.Errorf("failed to finish %s: %w", name, err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	log.Debug().Str("dataset", name).Msg("Wrote parquet file")
	return nil
}

func (p *ParquetOutput) createFile(name string) (source.ParquetFile, error) {
	if p.cloudWriterFactory != nil {
		objectPath := path.Join(p.folder, name+".parquet")
		cloudWriter, err := p.cloudWriterFactory.NewWriter(p.ctx, p.cloudBucketName, objectPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create cloud file writer: %w", err)
		}
		return NewCloudParquetFile(cloudWriter), nil
	}

	dir := filepath.Join(p.basePath, p.folder)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, err
	}
	fw, err := local.NewLocalFileWriter(filepath.Join(dir, name+".parquet"))
	if err != nil {
		return nil, fmt.Errorf("failed to create local file writer: %w", err)
	}
	return fw, nil
}

// columnName turns a raw header such as "CAMERA ID" into camera_id.
func columnName(header string) string {
	return strings.ToLower(strings.Join(strings.Fields(header), "_"))
}

// CloudParquetFile adapts a CloudWriter to the write-only subset of
// source.ParquetFile the parquet writer needs.
type CloudParquetFile struct {
	cloudWriter cloudwriter.CloudWriter
	offset      int64
}

func NewCloudParquetFile(cloudWriter cloudwriter.CloudWriter) *CloudParquetFile {
	return &CloudParquetFile{cloudWriter: cloudWriter}
}

func (c *CloudParquetFile) Open(name string) (source.ParquetFile, error) {
	return c, nil
}

func (c *CloudParquetFile) Create(name string) (source.ParquetFile, error) {
	return c, nil
}

func (c *CloudParquetFile) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		c.offset = offset
	case io.SeekCurrent:
		c.offset += offset
	case io.SeekEnd:
		return 0, fmt.Errorf("seek from end not supported for cloud storage")
	}
	return c.offset, nil
}

func (c *CloudParquetFile) Read(p []byte) (n int, err error) {
	return 0, fmt.Errorf("read not supported for cloud storage")
}

func (c *CloudParquetFile) Write(p []byte) (n int, err error) {
	n, err = c.cloudWriter.Write(p)
	c.offset += int64(n)
	return n, err
}

func (c *CloudParquetFile) Close() error {
	return c.cloudWriter.Close()
}
