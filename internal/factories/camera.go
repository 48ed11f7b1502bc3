package factories

import (
	"strconv"
	"time"

	"github.com/jaswdr/faker"

	"github.com/chrisdamba/crashlens/internal/models"
)

// CameraLocationRow mirrors the speed camera location file.
type CameraLocationRow struct {
	CameraID  string `csv:"CAMERA ID"`
	Address   string `csv:"ADDRESS"`
	Latitude  string `csv:"LATITUDE"`
	Longitude string `csv:"LONGITUDE"`
}

// CameraViolationRow mirrors one line of the daily violation export.
type CameraViolationRow struct {
	Address       string `csv:"ADDRESS"`
	CameraID      string `csv:"CAMERA ID"`
	ViolationDate string `csv:"VIOLATION DATE"`
	Violations    string `csv:"VIOLATIONS"`
	Latitude      string `csv:"LATITUDE"`
	Longitude     string `csv:"LONGITUDE"`
}

type CameraFactory struct {
	fake faker.Faker
}

func NewCameraFactory(seed int64) *CameraFactory {
	return &CameraFactory{fake: newFaker(seed)}
}

func (cf *CameraFactory) CreateCamera(s Scenario, n int) models.CameraLocation {
	return models.CameraLocation{
		CameraID: "CHI" + leftPad(strconv.Itoa(n+1), 3),
		Address:  strconv.Itoa(cf.fake.IntBetween(1, 120)*100) + " " + streetName(cf.fake),
		Location: randomLocation(cf.fake, s),
	}
}

func (cf *CameraFactory) LocationRow(camera models.CameraLocation) CameraLocationRow {
	return CameraLocationRow{
		CameraID:  camera.CameraID,
		Address:   camera.Address,
		Latitude:  formatCoordinate(camera.Location.Lat),
		Longitude: formatCoordinate(camera.Location.Lon),
	}
}

// CreateViolations returns one row per day of the scenario. Some rows leave
// out the coordinates, as the export does.
func (cf *CameraFactory) CreateViolations(s Scenario, camera models.CameraLocation) []CameraViolationRow {
	base := cf.fake.IntBetween(5, 60)
	rows := make([]CameraViolationRow, 0, s.Days)
	for day := 0; day < s.Days; day++ {
		at := s.Start.AddDate(0, 0, day)
		count := base + cf.fake.IntBetween(-5, 5)
		if at.Weekday() == time.Saturday || at.Weekday() == time.Sunday {
			count += 10
		}
		if count < 0 {
			count = 0
		}

		row := CameraViolationRow{
			Address:       camera.Address,
			CameraID:      camera.CameraID,
			ViolationDate: at.Format("2006-01-02T15:04:05.000"),
			Violations:    strconv.Itoa(count),
			Latitude:      formatCoordinate(camera.Location.Lat),
			Longitude:     formatCoordinate(camera.Location.Lon),
		}
		if dirty(cf.fake, s) {
			row.Latitude, row.Longitude = "", ""
		}
		rows = append(rows, row)
	}
	return rows
}

func leftPad(s string, width int) string {
	for len(s) < width {
		s = "0" + s
	}
	return s
}
