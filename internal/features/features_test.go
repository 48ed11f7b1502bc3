package features

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisdamba/crashlens/internal/models"
)

var (
	loop    = models.Location{Lat: 41.8781, Lon: -87.6298}
	chicago = mustLoad("America/Chicago")
	cfg     = models.FeatureConfig{
		LocationKey: models.LocationKeyGrid,
		CellSizeM:   500,
		TimeBucket:  models.TimeBucketMonth,
		Timezone:    "America/Chicago",
	}
)

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func ptr(v float64) *float64 { return &v }

func observation(id string, loc models.Location, at time.Time, severity string) models.JoinedObservation {
	return models.JoinedObservation{Crash: models.CrashRecord{
		ID:          id,
		Location:    loc,
		Time:        at,
		Severity:    severity,
		FullAddress: "100 W MADISON ST",
		Street:      "MADISON ST",
	}}
}

func fixture() []models.JoinedObservation {
	// 23:30 local on 31 May is already June in UTC
	lateMay := time.Date(2023, 5, 31, 23, 30, 0, 0, chicago)

	a := observation("a", loop, lateMay, models.SeverityFatal)
	a.Camera = &models.CameraMatch{Cameras: 1, Violations: 12}
	a.Congestion = &models.CongestionMatch{SegmentID: "S1", Speed: ptr(20)}

	b := observation("b", loop.Offset(10, 10), time.Date(2023, 5, 2, 8, 0, 0, 0, chicago), models.SeverityNoIndication)
	b.Camera = &models.CameraMatch{Cameras: 1, Violations: 0}
	b.Congestion = &models.CongestionMatch{SegmentID: "S1", MeanSpeed: ptr(30)}

	c := observation("c", loop, time.Date(2023, 5, 15, 12, 0, 0, 0, chicago), models.Unknown)
	c.Congestion = &models.CongestionMatch{SegmentID: "S2"}

	d := observation("d", loop.Offset(3000, 0), time.Date(2023, 6, 1, 1, 0, 0, 0, chicago), models.SeverityIncapacitating)
	d.Crash.FullAddress = ""
	d.Crash.Street = "state st"

	return []models.JoinedObservation{a, b, c, d}
}

func TestBuildGridByMonth(t *testing.T) {
	aggs, err := Build(fixture(), cfg)
	require.NoError(t, err)
	require.Len(t, aggs, 2)

	loopCell := LocationKey(models.CrashRecord{Location: loop}, cfg)
	var may models.Aggregate
	for _, agg := range aggs {
		if agg.LocationKey == loopCell {
			may = agg
		}
	}

	assert.Equal(t, "2023-05", may.TimeBucket)
	assert.Equal(t, int64(3), may.CrashCount)
	require.NotNil(t, may.SeverityMean)
	assert.Equal(t, 2.0, *may.SeverityMean) // FATAL and NO INDICATION, UNKNOWN unscored
	assert.Equal(t, int64(12), may.CameraViolationCount)
	assert.Equal(t, int64(2), may.CrashesWithCamera)
	require.NotNil(t, may.CongestionMean)
	assert.Equal(t, 25.0, *may.CongestionMean)
	assert.Equal(t, int64(3), may.CrashesWithCongestion)

	assert.True(t, aggs[0].LocationKey < aggs[1].LocationKey)
}

func TestBuildAbsentMeans(t *testing.T) {
	obs := []models.JoinedObservation{observation("x", loop, time.Date(2023, 1, 1, 12, 0, 0, 0, chicago), models.Unknown)}

	aggs, err := Build(obs, cfg)
	require.NoError(t, err)
	require.Len(t, aggs, 1)
	assert.Nil(t, aggs[0].SeverityMean)
	assert.Nil(t, aggs[0].CongestionMean)
	assert.Zero(t, aggs[0].CrashesWithCamera)
}

func TestBuildStreetByWeekAndDay(t *testing.T) {
	street := cfg
	street.LocationKey = models.LocationKeyStreet
	street.TimeBucket = models.TimeBucketWeek

	aggs, err := Build(fixture(), street)
	require.NoError(t, err)

	var keys []string
	for _, agg := range aggs {
		keys = append(keys, agg.LocationKey+"|"+agg.TimeBucket)
	}
	assert.Equal(t, []string{
		"100 W MADISON ST|2023-W18",
		"100 W MADISON ST|2023-W20",
		"100 W MADISON ST|2023-W22",
		"STATE ST|2023-W22",
	}, keys)

	street.TimeBucket = models.TimeBucketDay
	aggs, err = Build(fixture(), street)
	require.NoError(t, err)
	assert.Equal(t, "2023-05-02", aggs[0].TimeBucket)
	assert.Len(t, aggs, 4)
}

func TestBuildIsDeterministic(t *testing.T) {
	first, err := Build(fixture(), cfg)
	require.NoError(t, err)
	second, err := Build(fixture(), cfg)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestBuildRejectsBadConfig(t *testing.T) {
	bad := cfg
	bad.TimeBucket = "fortnight"

	_, err := Build(fixture(), bad)
	var cfgErr *models.JoinConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "features.time_bucket", cfgErr.Param)
}

func TestHotspots(t *testing.T) {
	aggs := []models.Aggregate{
		{LocationKey: "A", CrashCount: 1},
		{LocationKey: "B", CrashCount: 1},
		{LocationKey: "C", CrashCount: 1},
		{LocationKey: "D", CrashCount: 10},
		{LocationKey: "D", CrashCount: 5},
	}

	hotspots, err := Hotspots(aggs, 1.5)
	require.NoError(t, err)
	require.Len(t, hotspots, 1)
	assert.Equal(t, "D", hotspots[0].LocationKey)
	assert.Equal(t, int64(15), hotspots[0].CrashCount)
	assert.InDelta(t, math.Sqrt(3), hotspots[0].ZScore, 1e-9)

	none, err := Hotspots(aggs[:3], 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLocationTotalsSumsAcrossBuckets(t *testing.T) {
	totals, err := locationTotals([]models.Aggregate{
		{LocationKey: "100 W MADISON ST", TimeBucket: "2023-03", CrashCount: 2},
		{LocationKey: "100 W MADISON ST", TimeBucket: "2023-04", CrashCount: 3},
		{LocationKey: "G500_-14510_9319", TimeBucket: "2023-03", CrashCount: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{
		"100 W MADISON ST": 5,
		"G500_-14510_9319": 1,
	}, totals)

	hotspots, err := Hotspots(nil, 0)
	require.NoError(t, err)
	assert.Empty(t, hotspots)
}

func TestDataFrame(t *testing.T) {
	aggs, err := Build(fixture(), cfg)
	require.NoError(t, err)

	df := DataFrame(aggs)
	require.NoError(t, df.Err)
	assert.Equal(t, len(aggs), df.Nrow())
	assert.Equal(t, []string{
		"location_key", "time_bucket", "crash_count", "severity_mean",
		"camera_violation_count", "crashes_with_camera", "congestion_mean", "crashes_with_congestion",
	}, df.Names())

	total := 0
	for _, v := range df.Col("crash_count").Float() {
		total += int(v)
	}
	assert.Equal(t, 4, total)
}
