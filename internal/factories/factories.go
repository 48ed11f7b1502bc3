package factories

import (
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/jaswdr/faker"

	"github.com/chrisdamba/crashlens/internal/models"
)

// Scenario describes a synthetic study area. All three sources share its
// centre, radius and time span so the joiner finds matches.
type Scenario struct {
	Center                 models.Location
	RadiusM                float64
	Start                  time.Time
	Days                   int
	Crashes                int
	Cameras                int
	Segments               int
	ObservationsPerSegment int
	PedestrianShare        float64
	// DirtyShare is the fraction of rows damaged the way real exports are
	DirtyShare float64
	Seed       int64
}

// DefaultScenario is a 3km circle around the Loop covering one quarter.
func DefaultScenario() Scenario {
	chicago, _ := time.LoadLocation("America/Chicago")
	return Scenario{
		Center:                 models.Location{Lat: 41.8781, Lon: -87.6298},
		RadiusM:                3000,
		Start:                  time.Date(2023, 1, 1, 0, 0, 0, 0, chicago),
		Days:                   90,
		Crashes:                500,
		Cameras:                20,
		Segments:               40,
		ObservationsPerSegment: 24,
		PedestrianShare:        0.6,
		DirtyShare:             0.05,
		Seed:                   1,
	}
}

func newFaker(seed int64) faker.Faker {
	return faker.NewWithSeed(rand.NewSource(seed))
}

// randomLocation picks a point uniformly inside the scenario circle.
func randomLocation(fake faker.Faker, s Scenario) models.Location {
	r := s.RadiusM * math.Sqrt(float64(fake.IntBetween(0, 1_000_000))/1_000_000)
	theta := 2 * math.Pi * float64(fake.IntBetween(0, 1_000_000)) / 1_000_000
	return s.Center.Offset(r*math.Cos(theta), r*math.Sin(theta))
}

func randomTime(fake faker.Faker, s Scenario) time.Time {
	end := s.Start.AddDate(0, 0, s.Days)
	return fake.Time().TimeBetween(s.Start, end).In(s.Start.Location()).Truncate(time.Minute)
}

func dirty(fake faker.Faker, s Scenario) bool {
	return float64(fake.IntBetween(0, 9999)) < s.DirtyShare*10000
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func streetName(fake faker.Faker) string {
	name := strings.ToUpper(fake.Address().StreetName())
	suffix := fake.RandomStringElement([]string{"ST", "AVE", "BLVD", "RD", "DR"})
	return name + " " + suffix
}
