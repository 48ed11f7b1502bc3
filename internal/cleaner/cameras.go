package cleaner

import (
	"fmt"
	"sort"

	"github.com/chrisdamba/crashlens/internal/loader"
	"github.com/chrisdamba/crashlens/internal/models"
)

const (
	colCameraID      = "CAMERA ID"
	colLocationID    = "LOCATION ID"
	colAddress       = "ADDRESS"
	colViolationDate = "VIOLATION DATE"
	colViolations    = "VIOLATIONS"
)

var cameraColumns = []string{colCameraID, colAddress, colViolationDate, colViolations, colLatitude, colLongitude}

// CleanCameraLocations reads the fixed camera reference file. Later rows for
// an id that is already known are counted as duplicates.
func (c *Cleaner) CleanCameraLocations(table *loader.Table) ([]models.CameraLocation, *models.SourceAudit, error) {
	idColumn := firstColumn(table, colLocationID, colCameraID)
	if err := requireColumns(table, idColumn, colLatitude, colLongitude); err != nil {
		return nil, nil, err
	}

	filter := newRowFilter(table)
	known := make(map[string]struct{})
	var locations []models.CameraLocation

	for i, row := range table.Rows {
		if !filter.wellFormed(i, row) {
			continue
		}

		id := models.NormalizeKey(table.Value(row, idColumn))
		if id == "" {
			filter.reject(&models.RowValidationError{
				Source: table.Name, Row: i + 1, Column: idColumn, Reason: models.DropUnknownCamera,
			})
			continue
		}

		loc, reason, err := c.parseLocation(table.Value(row, colLatitude), table.Value(row, colLongitude))
		if err != nil {
			filter.reject(&models.RowValidationError{
				Source: table.Name, Row: i + 1, Column: colLatitude, Reason: reason, Err: err,
			})
			continue
		}

		if _, ok := known[id]; ok {
			filter.reject(&models.RowValidationError{
				Source: table.Name, Row: i + 1, Column: idColumn, Reason: models.DropDuplicate,
			})
			continue
		}
		known[id] = struct{}{}

		locations = append(locations, models.CameraLocation{
			CameraID: id,
			Address:  models.NormalizeKey(table.Value(row, colAddress)),
			Location: loc,
		})
		filter.keep()
	}

	return locations, filter.audit, nil
}

// CleanCameras turns the violation export into violation records placed at
// their fixed camera location. When refs is empty the reference set is taken
// from the first in-range coordinate each camera reports.
func (c *Cleaner) CleanCameras(table *loader.Table, refs []models.CameraLocation) ([]models.CameraViolationRecord, []models.CameraLocation, *models.SourceAudit, error) {
	if err := requireColumns(table, colCameraID, colViolationDate, colViolations); err != nil {
		return nil, nil, nil, err
	}

	if len(refs) == 0 {
		refs = c.deriveCameraLocations(table)
	}
	reference := make(map[string]models.CameraLocation, len(refs))
	for _, ref := range refs {
		reference[ref.CameraID] = ref
	}

	filter := newRowFilter(table)
	records := make([]models.CameraViolationRecord, 0, table.Len())

	for i, row := range table.Rows {
		if !filter.wellFormed(i, row) {
			continue
		}

		id := models.NormalizeKey(table.Value(row, colCameraID))
		ref, ok := reference[id]
		if !ok {
			filter.reject(&models.RowValidationError{
				Source: table.Name, Row: i + 1, Column: colCameraID, Reason: models.DropUnknownCamera,
				Err: fmt.Errorf("camera %q has no known location", id),
			})
			continue
		}

		at, err := c.parseTime(table.Value(row, colViolationDate))
		if err != nil {
			filter.reject(&models.RowValidationError{
				Source: table.Name, Row: i + 1, Column: colViolationDate, Reason: models.DropTimestampInvalid, Err: err,
			})
			continue
		}

		violations, err := parseCount(table.Value(row, colViolations))
		if err == nil && violations < 0 {
			err = fmt.Errorf("negative count %d", violations)
		}
		if err != nil {
			filter.reject(&models.RowValidationError{
				Source: table.Name, Row: i + 1, Column: colViolations, Reason: models.DropViolationsInvalid, Err: err,
			})
			continue
		}

		// rows may omit coordinates, the reference set places them, but
		// coordinates that are present must be usable
		rawLat, rawLon := table.Value(row, colLatitude), table.Value(row, colLongitude)
		if rawLat != "" || rawLon != "" {
			if _, reason, err := c.parseLocation(rawLat, rawLon); err != nil && reason != models.DropCoordinatesMissing {
				filter.reject(&models.RowValidationError{
					Source: table.Name, Row: i + 1, Column: colLatitude, Reason: reason, Err: err,
				})
				continue
			}
		}

		address := models.NormalizeKey(table.Value(row, colAddress))
		if address == "" {
			address = ref.Address
		}

		record := models.CameraViolationRecord{
			CameraID:   id,
			Address:    address,
			Time:       at,
			Violations: violations,
			Location:   ref.Location,
		}
		if !filter.unique(i, cameraRow(record)) {
			continue
		}

		records = append(records, record)
		filter.keep()
	}

	return records, sortedLocations(reference), filter.audit, nil
}

func (c *Cleaner) deriveCameraLocations(table *loader.Table) []models.CameraLocation {
	seen := make(map[string]struct{})
	var locations []models.CameraLocation

	for _, row := range table.Rows {
		if len(row) != len(table.Header) {
			continue
		}
		id := models.NormalizeKey(table.Value(row, colCameraID))
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		loc, _, err := c.parseLocation(table.Value(row, colLatitude), table.Value(row, colLongitude))
		if err != nil {
			continue
		}
		seen[id] = struct{}{}
		locations = append(locations, models.CameraLocation{
			CameraID: id,
			Address:  models.NormalizeKey(table.Value(row, colAddress)),
			Location: loc,
		})
	}

	return locations
}

func sortedLocations(reference map[string]models.CameraLocation) []models.CameraLocation {
	locations := make([]models.CameraLocation, 0, len(reference))
	for _, loc := range reference {
		locations = append(locations, loc)
	}
	sort.Slice(locations, func(i, j int) bool {
		return locations[i].CameraID < locations[j].CameraID
	})
	return locations
}
