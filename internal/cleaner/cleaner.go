package cleaner

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chrisdamba/crashlens/internal/loader"
	"github.com/chrisdamba/crashlens/internal/models"
	"github.com/rs/zerolog/log"
)

// timeLayouts are tried in order. Layouts without a zone are read in the
// configured timezone.
var timeLayouts = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"01/02/2006 03:04:05 PM",
	"01/02/2006 15:04",
	"2006-01-02",
	"01/02/2006",
}

var errMissingValue = errors.New("missing value")

type Cleaner struct {
	tz             *time.Location
	bounds         models.Bounds
	pedestrianOnly bool
}

func New(cfg models.CleanConfig) (*Cleaner, error) {
	tz, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return &Cleaner{
		tz:             tz,
		bounds:         cfg.Bounds,
		pedestrianOnly: cfg.PedestrianOnly,
	}, nil
}

// Result holds the cleaned collections of one run plus the audit of what was removed.
type Result struct {
	Crashes         []models.CrashRecord
	Cameras         []models.CameraViolationRecord
	CameraLocations []models.CameraLocation
	Congestion      []models.CongestionSegmentRecord
	Summary         *models.DropSummary
}

// Clean normalizes every source table. Only a table that lacks a required
// column fails the run; bad rows are dropped and counted.
func (c *Cleaner) Clean(sources *loader.Sources) (*Result, error) {
	result := &Result{Summary: &models.DropSummary{}}

	crashes, crashAudit, err := c.CleanCrashes(sources.Crashes)
	if err != nil {
		return nil, err
	}
	result.Crashes = crashes
	result.Summary.Add(crashAudit)

	var refs []models.CameraLocation
	if sources.CameraLocations != nil {
		var refAudit *models.SourceAudit
		refs, refAudit, err = c.CleanCameraLocations(sources.CameraLocations)
		if err != nil {
			return nil, err
		}
		result.Summary.Add(refAudit)
	}

	cameras, locations, cameraAudit, err := c.CleanCameras(sources.Cameras, refs)
	if err != nil {
		return nil, err
	}
	result.Cameras = cameras
	result.CameraLocations = locations
	result.Summary.Add(cameraAudit)

	congestion, congestionAudit, err := c.CleanCongestion(sources.Congestion)
	if err != nil {
		return nil, err
	}
	result.Congestion = congestion
	result.Summary.Add(congestionAudit)

	for _, audit := range result.Summary.Sources {
		log.Info().
			Str("source", audit.Source).
			Int("input", audit.Input).
			Int("kept", audit.Kept).
			Int("dropped", audit.TotalDropped()).
			Int("unresolved", audit.Unresolved).
			Msg("Cleaned source")
	}

	return result, nil
}

// rowFilter applies the rules every source shares and keeps the audit.
type rowFilter struct {
	table *loader.Table
	audit *models.SourceAudit
	seen  map[string]struct{}
}

func newRowFilter(table *loader.Table) *rowFilter {
	return &rowFilter{
		table: table,
		audit: models.NewSourceAudit(table.Name, table.Len()),
		seen:  make(map[string]struct{}, table.Len()),
	}
}

// wellFormed checks the field count against the header.
func (f *rowFilter) wellFormed(i int, row []string) bool {
	if len(row) == len(f.table.Header) {
		return true
	}
	f.reject(&models.RowValidationError{
		Source: f.table.Name,
		Row:    i + 1,
		Reason: models.DropMalformedRow,
		Err:    fmt.Errorf("%d fields, header has %d", len(row), len(f.table.Header)),
	})
	return false
}

// unique reports whether the canonical row has not been seen before,
// counting it as a duplicate otherwise. Rows are compared after cleaning so
// exports that differ only in formatting collapse to one record.
func (f *rowFilter) unique(i int, canonical []string) bool {
	key := strings.Join(canonical, "\x1f")
	if _, ok := f.seen[key]; ok {
		f.reject(&models.RowValidationError{Source: f.table.Name, Row: i + 1, Reason: models.DropDuplicate})
		return false
	}
	f.seen[key] = struct{}{}
	return true
}

func (f *rowFilter) reject(rowErr *models.RowValidationError) {
	f.audit.Drop(rowErr.Reason)
	log.Debug().Err(rowErr).Msg("Dropped row")
}

func (f *rowFilter) keep() {
	f.audit.Kept++
}

func requireColumns(table *loader.Table, columns ...string) error {
	var missing []string
	for _, col := range columns {
		if table.Index(col) < 0 {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &models.DataSourceError{
			Source: table.Name,
			Path:   table.Path,
			Err:    fmt.Errorf("missing required columns: %s", strings.Join(missing, ", ")),
		}
	}
	return nil
}

// firstColumn returns the first of the candidate columns present in the table.
func firstColumn(table *loader.Table, candidates ...string) string {
	for _, col := range candidates {
		if table.Index(col) >= 0 {
			return col
		}
	}
	return candidates[0]
}

func (c *Cleaner) parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errMissingValue
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.In(c.tz), nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, raw, c.tz); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", raw)
}

// parseLocation returns the drop reason alongside the error so callers can count it.
func (c *Cleaner) parseLocation(rawLat, rawLon string) (models.Location, string, error) {
	if rawLat == "" || rawLon == "" {
		return models.Location{}, models.DropCoordinatesMissing, errMissingValue
	}
	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil {
		return models.Location{}, models.DropCoordinatesInvalid, err
	}
	lon, err := strconv.ParseFloat(rawLon, 64)
	if err != nil {
		return models.Location{}, models.DropCoordinatesInvalid, err
	}

	loc := models.Location{Lat: lat, Lon: lon}
	if !loc.InRange() || !c.bounds.Contains(loc) {
		return models.Location{}, models.DropCoordinatesOutOfRange, fmt.Errorf("%s outside study area", loc)
	}
	return loc, "", nil
}

func parseCount(raw string) (int, error) {
	if raw == "" {
		return 0, errMissingValue
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("%q is not a whole number", raw)
	}
	return int(f), nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}
