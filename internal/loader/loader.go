package loader

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/chrisdamba/crashlens/internal/models"
	"github.com/rs/zerolog/log"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Table is a raw delimited file held in memory. Rows keep every original
// column, cleaning happens later.
type Table struct {
	Name   string
	Path   string
	Header []string
	Rows   [][]string

	columns map[string]int
}

// NewTable builds a table from an already split header and rows.
func NewTable(name string, header []string, rows [][]string) *Table {
	t := &Table{
		Name:    name,
		Header:  header,
		Rows:    rows,
		columns: make(map[string]int, len(header)),
	}
	for i, col := range header {
		t.columns[col] = i
	}
	return t
}

// Index returns the position of a column, or -1 when the column is absent.
// Lookups are exact first and then case-insensitive.
func (t *Table) Index(column string) int {
	if i, ok := t.columns[column]; ok {
		return i
	}
	want := models.NormalizeKey(column)
	for i, col := range t.Header {
		if models.NormalizeKey(col) == want {
			return i
		}
	}
	return -1
}

// Value returns the trimmed cell for a column, "" when the column or the cell is missing.
func (t *Table) Value(row []string, column string) string {
	i := t.Index(column)
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (t *Table) Len() int {
	return len(t.Rows)
}

// Options tune how files are parsed.
type Options struct {
	Delimiter rune
}

// Load reads a delimited file with a header row. Any problem with the file
// itself is returned as a *models.DataSourceError.
func Load(ctx context.Context, name, path string, opts Options) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &models.DataSourceError{Source: name, Path: path, Err: err}
	}

	table, err := Parse(name, bytes.NewReader(data), opts)
	if err != nil {
		return nil, &models.DataSourceError{Source: name, Path: path, Err: err}
	}
	table.Path = path

	log.Info().
		Str("source", name).
		Str("file", path).
		Int("columns", len(table.Header)).
		Int("rows", table.Len()).
		Msg("Loaded file")

	return table, nil
}

// Parse reads a table from r. Rows with a different field count than the
// header are kept as they are so the cleaner can count them.
func Parse(name string, r io.Reader, opts Options) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, models.ErrInvalidEncoding
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, models.ErrMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	seen := make(map[string]bool, len(header))
	for i, col := range header {
		col = strings.TrimSpace(col)
		if col == "" {
			return nil, fmt.Errorf("%w: column %d has no name", models.ErrMissingHeader, i+1)
		}
		if seen[col] {
			return nil, fmt.Errorf("%w: %q", models.ErrDuplicateColumn, col)
		}
		seen[col] = true
		header[i] = col
	}

	var rows [][]string
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, fields)
	}

	return NewTable(name, header, rows), nil
}

// Sources are the raw tables of one analysis run. CameraLocations is nil when
// no reference file was configured.
type Sources struct {
	Crashes         *Table
	Cameras         *Table
	CameraLocations *Table
	Congestion      *Table
}

// LoadSources reads every configured input. The first unusable file aborts.
func LoadSources(ctx context.Context, paths models.SourcePaths) (*Sources, error) {
	opts := Options{}
	if paths.Delimiter != "" {
		opts.Delimiter, _ = utf8.DecodeRuneInString(paths.Delimiter)
	}

	required := []struct {
		name string
		path string
	}{
		{models.SourceCrashes, paths.Crashes},
		{models.SourceCameras, paths.Cameras},
		{models.SourceCongestion, paths.Congestion},
	}
	for _, src := range required {
		if src.path == "" {
			return nil, &models.DataSourceError{Source: src.name, Path: src.path, Err: errors.New("no path configured")}
		}
	}

	var (
		sources Sources
		err     error
	)
	if sources.Crashes, err = Load(ctx, models.SourceCrashes, paths.Crashes, opts); err != nil {
		return nil, err
	}
	if sources.Cameras, err = Load(ctx, models.SourceCameras, paths.Cameras, opts); err != nil {
		return nil, err
	}
	if paths.CameraLocations != "" {
		if sources.CameraLocations, err = Load(ctx, models.SourceCameraLocations, paths.CameraLocations, opts); err != nil {
			return nil, err
		}
	}
	if sources.Congestion, err = Load(ctx, models.SourceCongestion, paths.Congestion, opts); err != nil {
		return nil, err
	}

	return &sources, nil
}
