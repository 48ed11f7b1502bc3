package features

import (
	"fmt"
	"sort"
	"time"

	"github.com/chrisdamba/crashlens/internal/models"
	"github.com/chrisdamba/crashlens/internal/spatial"
)

type bucketKey struct {
	location string
	bucket   string
}

type accumulator struct {
	crashes               int
	severitySum           float64
	severityN             int
	violations            int
	crashesWithCamera     int
	congestionSum         float64
	congestionN           int
	crashesWithCongestion int
}

// Build groups joined observations by location key and time bucket. The
// output is sorted by location key then bucket, so identical input always
// produces identical output.
func Build(observations []models.JoinedObservation, cfg models.FeatureConfig) ([]models.Aggregate, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tz, err := models.CleanConfig{Timezone: cfg.Timezone}.Location()
	if err != nil {
		return nil, err
	}

	groups := make(map[bucketKey]*accumulator)
	for _, obs := range observations {
		key := bucketKey{
			location: LocationKey(obs.Crash, cfg),
			bucket:   TimeBucket(obs.Crash.Time.In(tz), cfg.TimeBucket),
		}
		acc, ok := groups[key]
		if !ok {
			acc = &accumulator{}
			groups[key] = acc
		}
		acc.add(obs)
	}

	keys := make([]bucketKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].location != keys[j].location {
			return keys[i].location < keys[j].location
		}
		return keys[i].bucket < keys[j].bucket
	})

	aggregates := make([]models.Aggregate, 0, len(keys))
	for _, key := range keys {
		aggregates = append(aggregates, groups[key].aggregate(key))
	}
	return aggregates, nil
}

func (a *accumulator) add(obs models.JoinedObservation) {
	a.crashes++
	if score, ok := obs.Crash.SeverityScore(); ok {
		a.severitySum += score
		a.severityN++
	}
	if obs.Camera != nil {
		a.crashesWithCamera++
		a.violations += obs.Camera.Violations
	}
	if obs.Congestion != nil {
		a.crashesWithCongestion++
		if speed := congestionEstimate(obs.Congestion); speed != nil {
			a.congestionSum += *speed
			a.congestionN++
		}
	}
}

func (a *accumulator) aggregate(key bucketKey) models.Aggregate {
	agg := models.Aggregate{
		LocationKey:           key.location,
		TimeBucket:            key.bucket,
		CrashCount:            int64(a.crashes),
		CameraViolationCount:  int64(a.violations),
		CrashesWithCamera:     int64(a.crashesWithCamera),
		CrashesWithCongestion: int64(a.crashesWithCongestion),
	}
	if a.severityN > 0 {
		mean := a.severitySum / float64(a.severityN)
		agg.SeverityMean = &mean
	}
	if a.congestionN > 0 {
		mean := a.congestionSum / float64(a.congestionN)
		agg.CongestionMean = &mean
	}
	return agg
}

// congestionEstimate is the speed observed closest to the crash, or the
// segment mean when that observation had no estimate.
func congestionEstimate(match *models.CongestionMatch) *float64 {
	if match.Speed != nil {
		return match.Speed
	}
	return match.MeanSpeed
}

func LocationKey(crash models.CrashRecord, cfg models.FeatureConfig) string {
	if cfg.LocationKey == models.LocationKeyStreet {
		key := models.NormalizeKey(crash.FullAddress)
		if key == "" {
			key = models.NormalizeKey(crash.Street)
		}
		if key == "" {
			return models.Unknown
		}
		return key
	}
	return spatial.CellID(crash.Location, cfg.CellSizeM)
}

// TimeBucket formats t, already in the reporting timezone, for the bucket size.
func TimeBucket(t time.Time, size string) string {
	switch size {
	case models.TimeBucketDay:
		return t.Format("2006-01-02")
	case models.TimeBucketWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	default:
		return t.Format("2006-01")
	}
}
