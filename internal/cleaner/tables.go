package cleaner

import (
	"strconv"

	"github.com/chrisdamba/crashlens/internal/loader"
	"github.com/chrisdamba/crashlens/internal/models"
)

// The functions below write cleaned records back out in the raw column
// layout. Cleaning their output again keeps every row as it is. The same
// canonical rows are what duplicates are detected on.

func CrashTable(crashes []models.CrashRecord) *loader.Table {
	rows := make([][]string, 0, len(crashes))
	for _, crash := range crashes {
		rows = append(rows, crashRow(crash))
	}
	return loader.NewTable(models.SourceCrashes, append([]string(nil), crashColumns...), rows)
}

func CameraTable(cameras []models.CameraViolationRecord) *loader.Table {
	rows := make([][]string, 0, len(cameras))
	for _, camera := range cameras {
		rows = append(rows, cameraRow(camera))
	}
	return loader.NewTable(models.SourceCameras, append([]string(nil), cameraColumns...), rows)
}

func CongestionTable(records []models.CongestionSegmentRecord) *loader.Table {
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, congestionRow(record))
	}
	return loader.NewTable(models.SourceCongestion, append([]string(nil), congestionColumns...), rows)
}

// crashRow follows the order of crashColumns.
func crashRow(crash models.CrashRecord) []string {
	return []string{
		crash.ID,
		formatTime(crash.Time),
		formatFloat(crash.Location.Lat),
		formatFloat(crash.Location.Lon),
		crash.StreetNo,
		crash.StreetDirection,
		crash.Street,
		crash.ContributingFactor,
		crash.Severity,
		crash.CrashType,
		strconv.Itoa(crash.InjuriesTotal),
		crash.Damage,
		strconv.Itoa(crash.PostedSpeedLimit),
		crash.Weather,
	}
}

func cameraRow(camera models.CameraViolationRecord) []string {
	return []string{
		camera.CameraID,
		camera.Address,
		formatTime(camera.Time),
		strconv.Itoa(camera.Violations),
		formatFloat(camera.Location.Lat),
		formatFloat(camera.Location.Lon),
	}
}

func congestionRow(record models.CongestionSegmentRecord) []string {
	speed := ""
	if record.Speed != nil {
		speed = formatFloat(*record.Speed)
	}
	var startLat, startLon, endLat, endLon string
	if record.Geometry != nil {
		startLat = formatFloat(record.Geometry.Start.Lat)
		startLon = formatFloat(record.Geometry.Start.Lon)
		endLat = formatFloat(record.Geometry.End.Lat)
		endLon = formatFloat(record.Geometry.End.Lon)
	}
	return []string{
		record.SegmentID,
		formatTime(record.Time),
		speed,
		record.Street,
		record.Direction,
		record.FromStreet,
		record.ToStreet,
		startLat, startLon, endLat, endLon,
	}
}
