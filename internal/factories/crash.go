package factories

import (
	"strconv"

	"github.com/jaswdr/faker"
	"github.com/lucsky/cuid"

	"github.com/chrisdamba/crashlens/internal/models"
)

// CrashRow mirrors one line of the traffic crash export.
type CrashRow struct {
	ID                 string `csv:"CRASH_RECORD_ID"`
	Date               string `csv:"CRASH_DATE"`
	Latitude           string `csv:"LATITUDE"`
	Longitude          string `csv:"LONGITUDE"`
	StreetNo           string `csv:"STREET_NO"`
	StreetDirection    string `csv:"STREET_DIRECTION"`
	StreetName         string `csv:"STREET_NAME"`
	ContributingFactor string `csv:"PRIM_CONTRIBUTORY_CAUSE"`
	Severity           string `csv:"MOST_SEVERE_INJURY"`
	CrashType          string `csv:"FIRST_CRASH_TYPE"`
	InjuriesTotal      string `csv:"INJURIES_TOTAL"`
	Damage             string `csv:"DAMAGE"`
	PostedSpeedLimit   string `csv:"POSTED_SPEED_LIMIT"`
	Weather            string `csv:"WEATHER_CONDITION"`
}

var (
	crashCauses = []string{
		"FAILING TO YIELD RIGHT-OF-WAY",
		"FAILING TO REDUCE SPEED TO AVOID CRASH",
		"DISREGARDING TRAFFIC SIGNALS",
		"EXCEEDING AUTHORIZED SPEED LIMIT",
		"DISTRACTION - FROM INSIDE VEHICLE",
		"UNABLE TO DETERMINE",
		"NOT APPLICABLE",
	}
	otherCrashTypes = []string{"REAR END", "TURNING", "ANGLE", "SIDESWIPE SAME DIRECTION", "PARKED MOTOR VEHICLE", "PEDALCYCLIST"}
	damageClasses   = []string{"$500 OR LESS", "$501 - $1,500", "OVER $1,500"}
	weather         = []string{"CLEAR", "CLEAR", "CLEAR", "RAIN", "SNOW", "CLOUDY/OVERCAST", "UNKNOWN"}
	speedLimits     = []string{"20", "25", "30", "30", "30", "35"}
)

type CrashFactory struct {
	fake faker.Faker
}

func NewCrashFactory(seed int64) *CrashFactory {
	return &CrashFactory{fake: newFaker(seed)}
}

func (cf *CrashFactory) CreateCrash(s Scenario) CrashRow {
	fake := cf.fake
	loc := randomLocation(fake, s)

	crashType := models.CrashTypePedestrian
	if float64(fake.IntBetween(0, 999)) >= s.PedestrianShare*1000 {
		crashType = fake.RandomStringElement(otherCrashTypes)
	}

	severity := cf.severity()
	injuries := 0
	switch severity {
	case models.SeverityFatal, models.SeverityIncapacitating, models.SeverityNonIncapacitating:
		injuries = fake.IntBetween(1, 3)
	case models.SeverityReported:
		injuries = 1
	}

	row := CrashRow{
		ID:                 cuid.New(),
		Date:               randomTime(fake, s).Format("01/02/2006 03:04:05 PM"),
		Latitude:           formatCoordinate(loc.Lat),
		Longitude:          formatCoordinate(loc.Lon),
		StreetNo:           strconv.Itoa(fake.IntBetween(1, 120) * 100),
		StreetDirection:    fake.RandomStringElement([]string{"N", "S", "E", "W"}),
		StreetName:         streetName(fake),
		ContributingFactor: fake.RandomStringElement(crashCauses),
		Severity:           severity,
		CrashType:          crashType,
		InjuriesTotal:      strconv.Itoa(injuries),
		Damage:             fake.RandomStringElement(damageClasses),
		PostedSpeedLimit:   fake.RandomStringElement(speedLimits),
		Weather:            fake.RandomStringElement(weather),
	}

	if dirty(fake, s) {
		switch fake.IntBetween(0, 2) {
		case 0:
			row.Latitude, row.Longitude = "", ""
		case 1:
			row.Latitude, row.Longitude = "0", "0"
		default:
			row.Date = "N/A"
		}
	}

	return row
}

// severity draws MOST_SEVERE_INJURY roughly in the proportions of the
// pedestrian crash export.
func (cf *CrashFactory) severity() string {
	r := cf.fake.IntBetween(0, 99)
	switch {
	case r < 2:
		return models.SeverityFatal
	case r < 12:
		return models.SeverityIncapacitating
	case r < 45:
		return models.SeverityNonIncapacitating
	case r < 70:
		return models.SeverityReported
	case r < 97:
		return models.SeverityNoIndication
	default:
		return ""
	}
}
