package factories

import (
	"sort"
	"strconv"
	"time"

	"github.com/jaswdr/faker"
)

// CongestionRow mirrors one line of the segment congestion export.
type CongestionRow struct {
	SegmentID      string `csv:"SEGMENT_ID"`
	Time           string `csv:"TIME"`
	Speed          string `csv:"SPEED"`
	Street         string `csv:"STREET"`
	Direction      string `csv:"DIRECTION"`
	FromStreet     string `csv:"FROM_STREET"`
	ToStreet       string `csv:"TO_STREET"`
	StartLatitude  string `csv:"START_LATITUDE"`
	StartLongitude string `csv:"START_LONGITUDE"`
	EndLatitude    string `csv:"END_LATITUDE"`
	EndLongitude   string `csv:"END_LONGITUDE"`
}

type CongestionFactory struct {
	fake faker.Faker
}

func NewCongestionFactory(seed int64) *CongestionFactory {
	return &CongestionFactory{fake: newFaker(seed)}
}

// CreateSegment returns the observations of one straight segment, ordered by
// time. A speed of -1 means no estimate was published.
func (cf *CongestionFactory) CreateSegment(s Scenario, n int) []CongestionRow {
	fake := cf.fake
	start := randomLocation(fake, s)
	length := float64(fake.IntBetween(200, 800))

	var end = start.Offset(length, 0)
	direction := "NB"
	if fake.Boolean().Bool() {
		end = start.Offset(0, length)
		direction = "EB"
	}

	street := streetName(fake)
	from, to := streetName(fake), streetName(fake)
	freeFlow := float64(fake.IntBetween(20, 35))

	times := make([]time.Time, s.ObservationsPerSegment)
	for i := range times {
		times[i] = randomTime(fake, s)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	rows := make([]CongestionRow, 0, len(times))
	for _, at := range times {
		speed := "-1"
		if fake.IntBetween(0, 9) > 0 {
			speed = strconv.FormatFloat(freeFlow*rushHourFactor(at)+fake.Float64(1, -3, 3), 'f', 1, 64)
		}
		rows = append(rows, CongestionRow{
			SegmentID:      strconv.Itoa(n + 1),
			Time:           at.Format("01/02/2006 03:04:05 PM"),
			Speed:          speed,
			Street:         street,
			Direction:      direction,
			FromStreet:     from,
			ToStreet:       to,
			StartLatitude:  formatCoordinate(start.Lat),
			StartLongitude: formatCoordinate(start.Lon),
			EndLatitude:    formatCoordinate(end.Lat),
			EndLongitude:   formatCoordinate(end.Lon),
		})
	}
	return rows
}

func rushHourFactor(at time.Time) float64 {
	switch h := at.Hour(); {
	case h >= 7 && h < 10, h >= 16 && h < 19:
		return 0.6
	case h < 6:
		return 1.1
	default:
		return 0.9
	}
}
