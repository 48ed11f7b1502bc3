package features

import (
	"math"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/chrisdamba/crashlens/internal/models"
)

// DataFrame exposes the aggregate table to modeling code. Absent means are NaN
// so gota reports them as NA.
func DataFrame(aggregates []models.Aggregate) dataframe.DataFrame {
	n := len(aggregates)
	locations := make([]string, n)
	buckets := make([]string, n)
	crashes := make([]int, n)
	severity := make([]float64, n)
	violations := make([]int, n)
	withCamera := make([]int, n)
	congestion := make([]float64, n)
	withCongestion := make([]int, n)

	for i, agg := range aggregates {
		locations[i] = agg.LocationKey
		buckets[i] = agg.TimeBucket
		crashes[i] = int(agg.CrashCount)
		severity[i] = valueOrNaN(agg.SeverityMean)
		violations[i] = int(agg.CameraViolationCount)
		withCamera[i] = int(agg.CrashesWithCamera)
		congestion[i] = valueOrNaN(agg.CongestionMean)
		withCongestion[i] = int(agg.CrashesWithCongestion)
	}

	return dataframe.New(
		series.New(locations, series.String, "location_key"),
		series.New(buckets, series.String, "time_bucket"),
		series.New(crashes, series.Int, "crash_count"),
		series.New(severity, series.Float, "severity_mean"),
		series.New(violations, series.Int, "camera_violation_count"),
		series.New(withCamera, series.Int, "crashes_with_camera"),
		series.New(congestion, series.Float, "congestion_mean"),
		series.New(withCongestion, series.Int, "crashes_with_congestion"),
	)
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
