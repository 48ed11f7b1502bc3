package cleaner

import (
	"strconv"

	"github.com/chrisdamba/crashlens/internal/loader"
	"github.com/chrisdamba/crashlens/internal/models"
)

const (
	colSegmentID      = "SEGMENT_ID"
	colTime           = "TIME"
	colSpeed          = "SPEED"
	colStreet         = "STREET"
	colDirection      = "DIRECTION"
	colFromStreet     = "FROM_STREET"
	colToStreet       = "TO_STREET"
	colStartLatitude  = "START_LATITUDE"
	colStartLongitude = "START_LONGITUDE"
	colEndLatitude    = "END_LATITUDE"
	colEndLongitude   = "END_LONGITUDE"
)

var congestionColumns = []string{
	colSegmentID, colTime, colSpeed, colStreet, colDirection, colFromStreet, colToStreet,
	colStartLatitude, colStartLongitude, colEndLatitude, colEndLongitude,
}

type geometryStatus int

const (
	geometryAbsent geometryStatus = iota
	geometryValid
	geometryOutOfRange
	geometryInvalid
)

// CleanCongestion turns the segment congestion export into records. Segments
// that never report a usable geometry are kept with a nil Geometry and
// counted as unresolved.
func (c *Cleaner) CleanCongestion(table *loader.Table) ([]models.CongestionSegmentRecord, *models.SourceAudit, error) {
	if err := requireColumns(table, colSegmentID, colTime); err != nil {
		return nil, nil, err
	}

	geometries := c.resolveGeometries(table)
	filter := newRowFilter(table)
	records := make([]models.CongestionSegmentRecord, 0, table.Len())

	for i, row := range table.Rows {
		if !filter.wellFormed(i, row) {
			continue
		}

		id := table.Value(row, colSegmentID)
		if id == "" {
			filter.reject(&models.RowValidationError{
				Source: table.Name, Row: i + 1, Column: colSegmentID, Reason: models.DropSegmentMissing,
			})
			continue
		}

		at, err := c.parseTime(table.Value(row, colTime))
		if err != nil {
			filter.reject(&models.RowValidationError{
				Source: table.Name, Row: i + 1, Column: colTime, Reason: models.DropTimestampInvalid, Err: err,
			})
			continue
		}

		if _, status, err := c.rowGeometry(table, row); status == geometryOutOfRange || status == geometryInvalid {
			reason := models.DropCoordinatesOutOfRange
			if status == geometryInvalid {
				reason = models.DropCoordinatesInvalid
			}
			filter.reject(&models.RowValidationError{
				Source: table.Name, Row: i + 1, Column: colStartLatitude, Reason: reason, Err: err,
			})
			continue
		}

		record := models.CongestionSegmentRecord{
			SegmentID:  id,
			Time:       at,
			Speed:      parseSpeed(table.Value(row, colSpeed)),
			Street:     models.NormalizeKey(table.Value(row, colStreet)),
			Direction:  models.NormalizeKey(table.Value(row, colDirection)),
			FromStreet: models.NormalizeKey(table.Value(row, colFromStreet)),
			ToStreet:   models.NormalizeKey(table.Value(row, colToStreet)),
		}
		if geometry, ok := geometries[id]; ok {
			g := geometry
			record.Geometry = &g
		}
		if !filter.unique(i, congestionRow(record)) {
			continue
		}
		if !record.Resolved() {
			filter.audit.Unresolved++
		}

		records = append(records, record)
		filter.keep()
	}

	return records, filter.audit, nil
}

// resolveGeometries maps each segment id to the first usable geometry in file order.
func (c *Cleaner) resolveGeometries(table *loader.Table) map[string]models.Segment {
	geometries := make(map[string]models.Segment)
	for _, row := range table.Rows {
		if len(row) != len(table.Header) {
			continue
		}
		id := table.Value(row, colSegmentID)
		if id == "" {
			continue
		}
		if _, ok := geometries[id]; ok {
			continue
		}
		if segment, status, _ := c.rowGeometry(table, row); status == geometryValid {
			geometries[id] = segment
		}
	}
	return geometries
}

func (c *Cleaner) rowGeometry(table *loader.Table, row []string) (models.Segment, geometryStatus, error) {
	start, startReason, err := c.parseLocation(table.Value(row, colStartLatitude), table.Value(row, colStartLongitude))
	if status := geometryStatusOf(startReason); status != geometryValid && status != geometryAbsent {
		return models.Segment{}, status, err
	}
	end, endReason, err := c.parseLocation(table.Value(row, colEndLatitude), table.Value(row, colEndLongitude))
	if status := geometryStatusOf(endReason); status != geometryValid && status != geometryAbsent {
		return models.Segment{}, status, err
	}
	if startReason != "" || endReason != "" {
		return models.Segment{}, geometryAbsent, nil
	}
	return models.Segment{Start: start, End: end}, geometryValid, nil
}

func geometryStatusOf(reason string) geometryStatus {
	switch reason {
	case "":
		return geometryValid
	case models.DropCoordinatesOutOfRange:
		return geometryOutOfRange
	case models.DropCoordinatesInvalid:
		return geometryInvalid
	default:
		return geometryAbsent
	}
}

// parseSpeed returns nil for blanks and for the -1 the feed uses when no
// estimate was made.
func parseSpeed(raw string) *float64 {
	if raw == "" {
		return nil
	}
	speed, err := strconv.ParseFloat(raw, 64)
	if err != nil || speed < 0 {
		return nil
	}
	return &speed
}
