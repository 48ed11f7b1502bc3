package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisdamba/crashlens/internal/loader"
	"github.com/chrisdamba/crashlens/internal/models"
	"github.com/chrisdamba/crashlens/internal/output"
)

const crashesCSV = `CRASH_RECORD_ID,CRASH_DATE,LATITUDE,LONGITUDE,STREET_NO,STREET_DIRECTION,STREET_NAME,PRIM_CONTRIBUTORY_CAUSE,MOST_SEVERE_INJURY,FIRST_CRASH_TYPE,INJURIES_TOTAL,DAMAGE,POSTED_SPEED_LIMIT,WEATHER_CONDITION
c1,03/15/2023 08:45:00 PM,41.8820,-87.6330,100,W,MADISON ST,FAILING TO YIELD RIGHT-OF-WAY,FATAL,PEDESTRIAN,1,"OVER $1,500",30,CLEAR
c2,03/20/2023 09:00:00 AM,41.8821,-87.6331,100,W,MADISON ST,WEATHER,NO INDICATION OF INJURY,PEDESTRIAN,0,"$500 OR LESS",30,RAIN
c3,04/02/2023 06:00:00 PM,41.9500,-87.7000,4100,N,PULASKI RD,UNABLE TO DETERMINE,INCAPACITATING INJURY,PEDESTRIAN,2,,35,CLEAR
c4,03/15/2023 08:45:00 PM,41.8820,-87.6330,100,W,MADISON ST,WEATHER,NO INDICATION OF INJURY,REAR END,0,,30,CLEAR
c5,not a date,41.8820,-87.6330,100,W,MADISON ST,WEATHER,NO INDICATION OF INJURY,PEDESTRIAN,0,,30,CLEAR
`

const camerasCSV = `ADDRESS,CAMERA ID,VIOLATION DATE,VIOLATIONS,LATITUDE,LONGITUDE
100 W MADISON,CHI001,2023-03-15,14,41.8822,-87.6332
100 W MADISON,CHI001,2023-03-16,9,41.8822,-87.6332
100 W MADISON,CHI001,2023-06-01,40,41.8822,-87.6332
4100 N PULASKI,CHI002,2023-03-15,3,41.9700,-87.7000
`

const congestionCSV = `SEGMENT_ID,TIME,SPEED,STREET,DIRECTION,FROM_STREET,TO_STREET,START_LATITUDE,START_LONGITUDE,END_LATITUDE,END_LONGITUDE
7,03/15/2023 08:40:00 PM,24,Madison,EB,Wells,LaSalle,41.8819,-87.6339,41.8819,-87.6323
7,03/20/2023 09:10:00 AM,18,Madison,EB,Wells,LaSalle,41.8819,-87.6339,41.8819,-87.6323
8,03/15/2023 08:50:00 PM,17,State,NB,Monroe,Madison,,,,
`

type recorder struct {
	aggregates []models.Aggregate
	hotspots   []models.Hotspot
	audit      []models.AuditRow
	tables     map[string]*loader.Table
}

func (r *recorder) WriteAggregates(_ context.Context, aggregates []models.Aggregate) error {
	r.aggregates = aggregates
	return nil
}

func (r *recorder) WriteHotspots(_ context.Context, hotspots []models.Hotspot) error {
	r.hotspots = hotspots
	return nil
}

func (r *recorder) WriteDropSummary(_ context.Context, rows []models.AuditRow) error {
	r.audit = rows
	return nil
}

func (r *recorder) WriteTable(_ context.Context, name string, table *loader.Table) error {
	if r.tables == nil {
		r.tables = make(map[string]*loader.Table)
	}
	r.tables[name] = table
	return nil
}

func (r *recorder) Close() error {
	return nil
}

func writeInputs(t *testing.T) models.SourcePaths {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}
	return models.SourcePaths{
		Crashes:    write("crashes.csv", crashesCSV),
		Cameras:    write("cameras.csv", camerasCSV),
		Congestion: write("congestion.csv", congestionCSV),
		Delimiter:  ",",
	}
}

func testConfig(t *testing.T) *models.Config {
	t.Helper()
	return &models.Config{
		Sources: writeInputs(t),
		Clean: models.CleanConfig{
			Timezone:       "America/Chicago",
			PedestrianOnly: true,
			Bounds:         models.Bounds{MinLat: 41.6, MaxLat: 42.1, MinLon: -88.0, MaxLon: -87.5},
		},
		Join: models.JoinConfig{
			RadiusM:        201.168,
			Window:         168 * time.Hour,
			SegmentRadiusM: 500,
			TieToleranceM:  0.5,
			Workers:        1,
		},
		Features: models.FeatureConfig{
			LocationKey: models.LocationKeyStreet,
			CellSizeM:   500,
			TimeBucket:  models.TimeBucketMonth,
			HotspotZ:    2,
			Timezone:    "America/Chicago",
		},
		Output: models.OutputConfig{WriteCleaned: true},
		Quiet:  true,
	}
}

func TestRun(t *testing.T) {
	dest := &recorder{}
	p, err := New(testConfig(t), dest)
	require.NoError(t, err)

	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Observations)
	counts := report.Summary.Counts()
	assert.Equal(t, 5, counts["crashes.input"])
	assert.Equal(t, 3, counts["crashes.kept"])
	assert.Equal(t, 1, counts["crashes.not_pedestrian"])
	assert.Equal(t, 1, counts["crashes.timestamp_invalid"])
	assert.Equal(t, 1, counts["congestion.unresolved"])

	require.Len(t, dest.aggregates, 2)
	madisonMarch := dest.aggregates[0]
	assert.Equal(t, "100 W MADISON ST", madisonMarch.LocationKey)
	assert.Equal(t, "2023-03", madisonMarch.TimeBucket)
	assert.Equal(t, int64(2), madisonMarch.CrashCount)
	// both crashes see the two March records, June is outside the window
	assert.Equal(t, int64(46), madisonMarch.CameraViolationCount)
	assert.Equal(t, int64(2), madisonMarch.CrashesWithCamera)
	require.NotNil(t, madisonMarch.CongestionMean)
	assert.Equal(t, 21.0, *madisonMarch.CongestionMean)

	pulaski := dest.aggregates[1]
	assert.Equal(t, "4100 N PULASKI RD", pulaski.LocationKey)
	assert.Equal(t, int64(0), pulaski.CrashesWithCamera)
	assert.Nil(t, pulaski.CongestionMean)

	assert.Equal(t, report.Summary.Rows(), dest.audit)
	assert.Empty(t, dest.hotspots)

	require.Contains(t, dest.tables, output.DatasetCrashesClean)
	assert.Equal(t, 3, dest.tables[output.DatasetCrashesClean].Len())
	assert.Equal(t, 4, dest.tables[output.DatasetCamerasClean].Len())
	assert.Equal(t, 3, dest.tables[output.DatasetCongestionClean].Len())
}

func TestRunIsDeterministic(t *testing.T) {
	cfg := testConfig(t)
	cfg.Features.LocationKey = models.LocationKeyGrid

	run := func(workers int) []byte {
		cfg.Join.Workers = workers
		dest := &recorder{}
		p, err := New(cfg, dest)
		require.NoError(t, err)
		_, err = p.Run(context.Background())
		require.NoError(t, err)

		data, err := json.Marshal(dest.aggregates)
		require.NoError(t, err)
		return data
	}

	first := run(1)
	assert.Equal(t, string(first), string(run(1)))
	assert.Equal(t, string(first), string(run(3)))
}

func TestNewRejectsJoinConfigBeforeReading(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sources = models.SourcePaths{Crashes: "/does/not/exist.csv"}
	cfg.Join.RadiusM = -1

	_, err := New(cfg, &recorder{})
	var cfgErr *models.JoinConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "join.radius_m", cfgErr.Param)
}

func TestRunReportsFailingStage(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sources.Cameras = filepath.Join(t.TempDir(), "missing.csv")

	p, err := New(cfg, &recorder{})
	require.NoError(t, err)

	_, err = p.Run(context.Background())
	var stageErr *models.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageLoad, stageErr.Stage)

	var srcErr *models.DataSourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, models.SourceCameras, srcErr.Source)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunMissingColumnFailsClean(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "congestion.csv")
	require.NoError(t, os.WriteFile(path, []byte("SEGMENT_ID,SPEED\n7,20\n"), 0o644))
	cfg.Sources.Congestion = path

	p, err := New(cfg, &recorder{})
	require.NoError(t, err)

	_, err = p.Run(context.Background())
	var stageErr *models.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageClean, stageErr.Stage)
	assert.ErrorContains(t, err, "TIME")
}

func TestRunBucketsInCleaningTimezone(t *testing.T) {
	cfg := testConfig(t)
	cfg.Features.Timezone = ""
	cfg.Features.TimeBucket = models.TimeBucketDay

	dest := &recorder{}
	p, err := New(cfg, dest)
	require.NoError(t, err)
	_, err = p.Run(context.Background())
	require.NoError(t, err)

	// c1 happens at 20:45 in Chicago, already the next day in UTC
	require.Len(t, dest.aggregates, 3)
	assert.Equal(t, "100 W MADISON ST", dest.aggregates[0].LocationKey)
	assert.Equal(t, "2023-03-15", dest.aggregates[0].TimeBucket)
	assert.Equal(t, "2023-03-20", dest.aggregates[1].TimeBucket)
	assert.Equal(t, "2023-04-02", dest.aggregates[2].TimeBucket)
	assert.Empty(t, cfg.Features.Timezone)
}
