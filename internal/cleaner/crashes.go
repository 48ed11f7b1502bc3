package cleaner

import (
	"fmt"
	"strings"

	"github.com/chrisdamba/crashlens/internal/loader"
	"github.com/chrisdamba/crashlens/internal/models"
)

const (
	colCrashID          = "CRASH_RECORD_ID"
	colCrashDate        = "CRASH_DATE"
	colLatitude         = "LATITUDE"
	colLongitude        = "LONGITUDE"
	colStreetNo         = "STREET_NO"
	colStreetDirection  = "STREET_DIRECTION"
	colStreetName       = "STREET_NAME"
	colContributing     = "PRIM_CONTRIBUTORY_CAUSE"
	colMostSevereInjury = "MOST_SEVERE_INJURY"
	colFirstCrashType   = "FIRST_CRASH_TYPE"
	colInjuriesTotal    = "INJURIES_TOTAL"
	colDamage           = "DAMAGE"
	colPostedSpeedLimit = "POSTED_SPEED_LIMIT"
	colWeather          = "WEATHER_CONDITION"
)

var crashColumns = []string{
	colCrashID, colCrashDate, colLatitude, colLongitude,
	colStreetNo, colStreetDirection, colStreetName,
	colContributing, colMostSevereInjury, colFirstCrashType,
	colInjuriesTotal, colDamage, colPostedSpeedLimit, colWeather,
}

// CleanCrashes turns the raw crash export into crash records.
func (c *Cleaner) CleanCrashes(table *loader.Table) ([]models.CrashRecord, *models.SourceAudit, error) {
	if err := requireColumns(table, colCrashDate, colLatitude, colLongitude); err != nil {
		return nil, nil, err
	}
	if c.pedestrianOnly {
		if err := requireColumns(table, colFirstCrashType); err != nil {
			return nil, nil, err
		}
	}

	filter := newRowFilter(table)
	crashes := make([]models.CrashRecord, 0, table.Len())

	for i, row := range table.Rows {
		if !filter.wellFormed(i, row) {
			continue
		}

		crashType := models.NormalizeKey(table.Value(row, colFirstCrashType))
		if c.pedestrianOnly && crashType != models.CrashTypePedestrian {
			filter.reject(&models.RowValidationError{
				Source: table.Name, Row: i + 1, Column: colFirstCrashType, Reason: models.DropNotPedestrian,
			})
			continue
		}

		at, err := c.parseTime(table.Value(row, colCrashDate))
		if err != nil {
			filter.reject(&models.RowValidationError{
				Source: table.Name, Row: i + 1, Column: colCrashDate, Reason: models.DropTimestampInvalid, Err: err,
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

		rawID := table.Value(row, colCrashID)
		id := rawID
		if id == "" {
			id = fmt.Sprintf("%s-%d", table.Name, i+1)
		}

		streetNo := table.Value(row, colStreetNo)
		streetDirection := models.NormalizeKey(table.Value(row, colStreetDirection))
		street := models.NormalizeKey(table.Value(row, colStreetName))
		severity := models.NormalizeSeverity(table.Value(row, colMostSevereInjury))
		damage := models.NormalizeKey(table.Value(row, colDamage))
		// unparsable counts are treated as zero, they only feed the tier
		injuries, _ := parseCount(table.Value(row, colInjuriesTotal))
		speedLimit, _ := parseCount(table.Value(row, colPostedSpeedLimit))

		crash := models.CrashRecord{
			ID:                 id,
			Time:               at,
			Location:           loc,
			StreetNo:           streetNo,
			StreetDirection:    streetDirection,
			Street:             street,
			FullAddress:        fullAddress(streetNo, streetDirection, street),
			ContributingFactor: models.NormalizeContributingFactor(table.Value(row, colContributing)),
			Severity:           severity,
			SeverityTier:       models.SeverityTier(severity, injuries, damage),
			CrashType:          crashType,
			InjuriesTotal:      injuries,
			Damage:             damage,
			PostedSpeedLimit:   speedLimit,
			Weather:            models.NormalizeKey(table.Value(row, colWeather)),
			DayOfWeek:          at.Weekday().String(),
			TimeOfDay:          models.TimeOfDay(at.Hour()),
		}

		// the generated id is row specific, so compare on the id as exported
		key := crashRow(crash)
		key[0] = rawID
		if !filter.unique(i, key) {
			continue
		}

		crashes = append(crashes, crash)
		filter.keep()
	}

	return crashes, filter.audit, nil
}

func fullAddress(parts ...string) string {
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}
