package cleaner

import (
	"strings"
	"testing"
	"time"

	"github.com/chrisdamba/crashlens/internal/loader"
	"github.com/chrisdamba/crashlens/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const crashHeader = "CRASH_RECORD_ID,CRASH_DATE,LATITUDE,LONGITUDE,STREET_NO,STREET_DIRECTION,STREET_NAME,PRIM_CONTRIBUTORY_CAUSE,MOST_SEVERE_INJURY,FIRST_CRASH_TYPE,INJURIES_TOTAL,DAMAGE,POSTED_SPEED_LIMIT,WEATHER_CONDITION"

func parseTable(t *testing.T, name, content string) *loader.Table {
	t.Helper()
	table, err := loader.Parse(name, strings.NewReader(content), loader.Options{})
	require.NoError(t, err)
	return table
}

func newTestCleaner(t *testing.T) *Cleaner {
	t.Helper()
	c, err := New(models.CleanConfig{
		Timezone:       "America/Chicago",
		PedestrianOnly: true,
		Bounds:         models.Bounds{MinLat: 41.6, MaxLat: 42.1, MinLon: -88.0, MaxLon: -87.5},
	})
	require.NoError(t, err)
	return c
}

func crashFixture() string {
	return strings.Join([]string{
		crashHeader,
		// kept
		`a1,03/15/2023 08:30:00 PM,41.881,-87.623,100,W,madison st,FAILING TO YIELD RIGHT-OF-WAY,FATAL,PEDESTRIAN,1,"OVER $1,500",30,CLEAR`,
		// kept, ISO timestamp, unknown codes
		`a2,2023-03-16T07:05:00.000,41.90,-87.65,22,N,STATE ST,UNABLE TO DETERMINE,SOMETHING ODD,PEDESTRIAN,0,"$500 OR LESS",25,RAIN`,
		// exact duplicate of a1
		`a1,03/15/2023 08:30:00 PM,41.881,-87.623,100,W,madison st,FAILING TO YIELD RIGHT-OF-WAY,FATAL,PEDESTRIAN,1,"OVER $1,500",30,CLEAR`,
		// not a pedestrian crash
		`a3,2023-03-16,41.90,-87.65,1,N,STATE ST,WEATHER,NO INDICATION OF INJURY,REAR END,0,,30,CLEAR`,
		// bad timestamp
		`a4,yesterday,41.90,-87.65,1,N,STATE ST,WEATHER,NO INDICATION OF INJURY,PEDESTRIAN,0,,30,CLEAR`,
		// missing coordinates
		`a5,2023-03-16,,,1,N,STATE ST,WEATHER,NO INDICATION OF INJURY,PEDESTRIAN,0,,30,CLEAR`,
		// null island
		`a6,2023-03-16,0,0,1,N,STATE ST,WEATHER,NO INDICATION OF INJURY,PEDESTRIAN,0,,30,CLEAR`,
		// outside the study area
		`a7,2023-03-16,40.7,-74.0,1,N,STATE ST,WEATHER,NO INDICATION OF INJURY,PEDESTRIAN,0,,30,CLEAR`,
		// too few fields
		`a8,2023-03-16,41.9`,
	}, "\n") + "\n"
}

func TestCleanCrashes(t *testing.T) {
	c := newTestCleaner(t)
	table := parseTable(t, models.SourceCrashes, crashFixture())

	crashes, audit, err := c.CleanCrashes(table)
	require.NoError(t, err)
	require.Len(t, crashes, 2)

	chicago, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)

	first := crashes[0]
	assert.Equal(t, "a1", first.ID)
	assert.True(t, first.Time.Equal(time.Date(2023, 3, 15, 20, 30, 0, 0, chicago)))
	assert.Equal(t, chicago.String(), first.Time.Location().String())
	assert.Equal(t, models.Location{Lat: 41.881, Lon: -87.623}, first.Location)
	assert.Equal(t, "MADISON ST", first.Street)
	assert.Equal(t, "100 W MADISON ST", first.FullAddress)
	assert.Equal(t, models.SeverityFatal, first.Severity)
	assert.Equal(t, models.TierFatal, first.SeverityTier)
	assert.Equal(t, "FAILING TO YIELD RIGHT-OF-WAY", first.ContributingFactor)
	assert.Equal(t, "Wednesday", first.DayOfWeek)
	assert.Equal(t, models.TimeOfDayEvening, first.TimeOfDay)

	second := crashes[1]
	assert.Equal(t, models.Unknown, second.Severity)
	assert.Equal(t, models.Unknown, second.ContributingFactor)
	assert.Equal(t, models.TierMinor, second.SeverityTier)
	assert.Equal(t, models.TimeOfDayMorning, second.TimeOfDay)

	assert.Equal(t, 9, audit.Input)
	assert.Equal(t, 2, audit.Kept)
	assert.Equal(t, map[string]int{
		models.DropDuplicate:             1,
		models.DropNotPedestrian:         1,
		models.DropTimestampInvalid:      1,
		models.DropCoordinatesMissing:    1,
		models.DropCoordinatesOutOfRange: 2,
		models.DropMalformedRow:          1,
	}, audit.Dropped)
	assert.True(t, audit.Balanced())
}

func TestCleanCrashesAllTypes(t *testing.T) {
	c, err := New(models.CleanConfig{Timezone: "UTC"})
	require.NoError(t, err)

	table := parseTable(t, models.SourceCrashes, crashFixture())
	crashes, audit, err := c.CleanCrashes(table)
	require.NoError(t, err)

	// without the pedestrian filter and the bounding box a3 and a7 are kept too
	assert.Len(t, crashes, 4)
	assert.Zero(t, audit.Dropped[models.DropNotPedestrian])
	assert.True(t, audit.Balanced())
}

func TestCleanCrashesMissingColumn(t *testing.T) {
	c := newTestCleaner(t)
	table := parseTable(t, models.SourceCrashes, "CRASH_DATE,LATITUDE\n2023-01-01,41.9\n")

	_, _, err := c.CleanCrashes(table)

	var dsErr *models.DataSourceError
	require.ErrorAs(t, err, &dsErr)
	assert.Contains(t, err.Error(), "LONGITUDE")
}

func TestCleanCrashesIsIdempotent(t *testing.T) {
	c := newTestCleaner(t)
	first, _, err := c.CleanCrashes(parseTable(t, models.SourceCrashes, crashFixture()))
	require.NoError(t, err)

	second, audit, err := c.CleanCrashes(CrashTable(first))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Empty(t, audit.Dropped)
	assert.Equal(t, len(first), audit.Kept)
}

const cameraFixture = `ADDRESS,CAMERA ID,VIOLATION DATE,VIOLATIONS,LATITUDE,LONGITUDE
3450 W 71ST ST,CHI003,2023-03-14,12,41.7635,-87.7106
3450 W 71ST ST,CHI003,2023-03-15,9,,
3450 W 71ST ST,CHI003,2023-03-15,9,,
1 N DAMEN,CHI999,2023-03-15,4,,
3450 W 71ST ST,CHI003,not a date,4,,
3450 W 71ST ST,CHI003,2023-03-16,-2,,
3450 W 71ST ST,CHI003,2023-03-17,1.5,,
3450 W 71ST ST,CHI003,2023-03-18,3,45.0,-80.0
`

func TestCleanCamerasDerivesReference(t *testing.T) {
	c := newTestCleaner(t)
	table := parseTable(t, models.SourceCameras, cameraFixture)

	records, locations, audit, err := c.CleanCameras(table, nil)
	require.NoError(t, err)

	require.Len(t, records, 2)
	require.Len(t, locations, 1)
	assert.Equal(t, "CHI003", locations[0].CameraID)
	for _, r := range records {
		assert.Equal(t, locations[0].Location, r.Location)
	}
	assert.Equal(t, 9, records[1].Violations)

	assert.Equal(t, map[string]int{
		models.DropDuplicate:             1,
		models.DropUnknownCamera:         1,
		models.DropTimestampInvalid:      1,
		models.DropViolationsInvalid:     2,
		models.DropCoordinatesOutOfRange: 1,
	}, audit.Dropped)
	assert.True(t, audit.Balanced())
}

func TestCleanCamerasUsesLocationFile(t *testing.T) {
	c := newTestCleaner(t)
	refTable := parseTable(t, models.SourceCameraLocations, `LOCATION ID,ADDRESS,LATITUDE,LONGITUDE
CHI999,1 N DAMEN,41.88,-87.67
CHI999,1 N DAMEN,41.89,-87.68
,NOWHERE,41.88,-87.67
CHI100,FAR AWAY,10,10
`)
	refs, refAudit, err := c.CleanCameraLocations(refTable)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.True(t, refAudit.Balanced())
	assert.Equal(t, 1, refAudit.Dropped[models.DropDuplicate])

	records, _, audit, err := c.CleanCameras(parseTable(t, models.SourceCameras, cameraFixture), refs)
	require.NoError(t, err)

	// CHI003 is not in the reference file so only the CHI999 row survives
	require.Len(t, records, 1)
	assert.Equal(t, "CHI999", records[0].CameraID)
	assert.Equal(t, models.Location{Lat: 41.88, Lon: -87.67}, records[0].Location)
	assert.True(t, audit.Balanced())
}

func TestCleanCamerasIsIdempotent(t *testing.T) {
	c := newTestCleaner(t)
	first, _, _, err := c.CleanCameras(parseTable(t, models.SourceCameras, cameraFixture), nil)
	require.NoError(t, err)

	second, _, audit, err := c.CleanCameras(CameraTable(first), nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Empty(t, audit.Dropped)
}

const congestionFixture = `SEGMENT_ID,TIME,SPEED,STREET,DIRECTION,FROM_STREET,TO_STREET,START_LATITUDE,START_LONGITUDE,END_LATITUDE,END_LONGITUDE
7,03/15/2023 08:40:00 PM,24,Madison,EB,Wells,LaSalle,41.8819,-87.6339,41.8819,-87.6323
7,03/15/2023 08:50:00 PM,-1,Madison,EB,Wells,LaSalle,,,,
8,03/15/2023 08:50:00 PM,17,State,NB,Monroe,Madison,,,,
,03/15/2023 08:50:00 PM,17,State,NB,Monroe,Madison,,,,
9,bogus,17,State,NB,Monroe,Madison,,,,
10,03/15/2023 08:50:00 PM,17,State,NB,Monroe,Madison,10,10,10,10
8,03/15/2023 08:50:00 PM,17,State,NB,Monroe,Madison,,,,
`

func TestCleanCongestion(t *testing.T) {
	c := newTestCleaner(t)
	records, audit, err := c.CleanCongestion(parseTable(t, models.SourceCongestion, congestionFixture))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "7", records[0].SegmentID)
	require.NotNil(t, records[0].Speed)
	assert.Equal(t, 24.0, *records[0].Speed)
	require.NotNil(t, records[0].Geometry)

	// the second observation of segment 7 borrows the geometry from the first
	assert.Nil(t, records[1].Speed)
	require.NotNil(t, records[1].Geometry)
	assert.Equal(t, *records[0].Geometry, *records[1].Geometry)

	// segment 8 never reports coordinates: kept but unresolved
	assert.Equal(t, "8", records[2].SegmentID)
	assert.False(t, records[2].Resolved())

	assert.Equal(t, 1, audit.Unresolved)
	assert.Equal(t, map[string]int{
		models.DropSegmentMissing:        1,
		models.DropTimestampInvalid:      1,
		models.DropCoordinatesOutOfRange: 1,
		models.DropDuplicate:             1,
	}, audit.Dropped)
	assert.True(t, audit.Balanced())
}

func TestCleanCongestionIsIdempotent(t *testing.T) {
	c := newTestCleaner(t)
	first, _, err := c.CleanCongestion(parseTable(t, models.SourceCongestion, congestionFixture))
	require.NoError(t, err)

	second, audit, err := c.CleanCongestion(CongestionTable(first))
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Empty(t, audit.Dropped)
}

func TestCleanConservesRows(t *testing.T) {
	c := newTestCleaner(t)
	result, err := c.Clean(&loader.Sources{
		Crashes:    parseTable(t, models.SourceCrashes, crashFixture()),
		Cameras:    parseTable(t, models.SourceCameras, cameraFixture),
		Congestion: parseTable(t, models.SourceCongestion, congestionFixture),
	})
	require.NoError(t, err)
	require.Len(t, result.Summary.Sources, 3)

	for _, audit := range result.Summary.Sources {
		assert.Equal(t, audit.Input, audit.Kept+audit.TotalDropped(), audit.Source)
	}
	assert.Equal(t, len(result.Crashes), result.Summary.Source(models.SourceCrashes).Kept)
	assert.Equal(t, 2, result.Summary.Counts()["crashes.kept"])
}

func TestParseTimeLayouts(t *testing.T) {
	c, err := New(models.CleanConfig{Timezone: "UTC"})
	require.NoError(t, err)

	want := time.Date(2023, 3, 15, 20, 30, 0, 0, time.UTC)
	for _, raw := range []string{
		"2023-03-15T20:30:00.000",
		"2023-03-15T20:30:00",
		"2023-03-15 20:30:00",
		"03/15/2023 08:30:00 PM",
		"03/15/2023 20:30",
		"2023-03-15T20:30:00Z",
		"2023-03-15T15:30:00-05:00",
	} {
		got, err := c.parseTime(raw)
		require.NoError(t, err, raw)
		assert.True(t, want.Equal(got), raw)
	}

	_, err = c.parseTime("")
	assert.Error(t, err)
}

func TestCleanCrashesCollapsesFormattingVariants(t *testing.T) {
	c := newTestCleaner(t)
	table := parseTable(t, models.SourceCrashes, strings.Join([]string{
		crashHeader,
		`a1,03/15/2023 08:30:00 PM,41.881,-87.623,100,W,madison st,FAILING TO YIELD RIGHT-OF-WAY,FATAL,PEDESTRIAN,1,"OVER $1,500",30,CLEAR`,
		`a1,2023-03-15 20:30:00,41.881,-87.623,100,w,MADISON  ST,failing to yield right-of-way,Fatal,pedestrian,1,"over $1,500",30,clear`,
		`,2023-03-16,41.90,-87.65,22,N,STATE ST,WEATHER,FATAL,PEDESTRIAN,0,,25,RAIN`,
		`,03/16/2023,41.90,-87.65,22,N,state st,WEATHER,FATAL,PEDESTRIAN,0,,25,RAIN`,
	}, "\n")+"\n")

	first, audit, err := c.CleanCrashes(table)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "a1", first[0].ID)
	assert.Equal(t, "crashes-3", first[1].ID)
	assert.Equal(t, map[string]int{models.DropDuplicate: 2}, audit.Dropped)
	assert.True(t, audit.Balanced())

	second, audit, err := c.CleanCrashes(CrashTable(first))
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Empty(t, audit.Dropped)
}

func TestCleanCamerasCollapsesFormattingVariants(t *testing.T) {
	c := newTestCleaner(t)
	table := parseTable(t, models.SourceCameras, `ADDRESS,CAMERA ID,VIOLATION DATE,VIOLATIONS,LATITUDE,LONGITUDE
3450 W 71ST ST,CHI003,2023-03-14,12,41.7635,-87.7106
3450 W 71st St,CHI003,03/15/2023,9,,
,chi003,2023-03-15,9,,
`)

	first, _, audit, err := c.CleanCameras(table, nil)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "3450 W 71ST ST", first[1].Address)
	assert.Equal(t, map[string]int{models.DropDuplicate: 1}, audit.Dropped)

	second, _, audit, err := c.CleanCameras(CameraTable(first), nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Empty(t, audit.Dropped)
}

func TestCleanCongestionCollapsesGeometryVariants(t *testing.T) {
	c := newTestCleaner(t)
	table := parseTable(t, models.SourceCongestion, `SEGMENT_ID,TIME,SPEED,STREET,DIRECTION,FROM_STREET,TO_STREET,START_LATITUDE,START_LONGITUDE,END_LATITUDE,END_LONGITUDE
7,03/15/2023 08:40:00 PM,24,Madison,EB,Wells,LaSalle,41.8819,-87.6339,41.8819,-87.6323
7,2023-03-15 20:40:00,24.0,MADISON,eb,WELLS,LASALLE,,,,
`)

	first, audit, err := c.CleanCongestion(table)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.True(t, first[0].Resolved())
	assert.Zero(t, audit.Unresolved)
	assert.Equal(t, map[string]int{models.DropDuplicate: 1}, audit.Dropped)

	second, audit, err := c.CleanCongestion(CongestionTable(first))
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Empty(t, audit.Dropped)
}

func TestCleanCountsInvalidCoordinates(t *testing.T) {
	c := newTestCleaner(t)

	_, crashAudit, err := c.CleanCrashes(parseTable(t, models.SourceCrashes, strings.Join([]string{
		crashHeader,
		`b1,2023-03-16,abc,-87.65,1,N,STATE ST,WEATHER,FATAL,PEDESTRIAN,0,,30,CLEAR`,
		`b2,2023-03-16,,,1,N,STATE ST,WEATHER,FATAL,PEDESTRIAN,0,,30,CLEAR`,
	}, "\n")+"\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		models.DropCoordinatesInvalid: 1,
		models.DropCoordinatesMissing: 1,
	}, crashAudit.Dropped)

	_, _, cameraAudit, err := c.CleanCameras(parseTable(t, models.SourceCameras, `ADDRESS,CAMERA ID,VIOLATION DATE,VIOLATIONS,LATITUDE,LONGITUDE
3450 W 71ST ST,CHI003,2023-03-14,12,41.7635,-87.7106
3450 W 71ST ST,CHI003,2023-03-15,9,n/a,n/a
`), nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{models.DropCoordinatesInvalid: 1}, cameraAudit.Dropped)

	records, congestionAudit, err := c.CleanCongestion(parseTable(t, models.SourceCongestion, `SEGMENT_ID,TIME,SPEED,STREET,DIRECTION,FROM_STREET,TO_STREET,START_LATITUDE,START_LONGITUDE,END_LATITUDE,END_LONGITUDE
7,2023-03-15 20:40:00,24,Madison,EB,Wells,LaSalle,x,-87.6339,41.8819,-87.6323
8,2023-03-15 20:40:00,24,State,NB,Monroe,Madison,,,,
`))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, congestionAudit.Unresolved)
	assert.Equal(t, map[string]int{models.DropCoordinatesInvalid: 1}, congestionAudit.Dropped)
}
