package features

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-gota/gota/dataframe"
	"github.com/montanaflynn/stats"

	"github.com/chrisdamba/crashlens/internal/models"
)

// Hotspots returns the locations whose total crash count has a z-score above
// threshold, highest first. Fewer than two locations or identical totals
// yield no hotspots.
func Hotspots(aggregates []models.Aggregate, threshold float64) ([]models.Hotspot, error) {
	if len(aggregates) == 0 {
		return nil, nil
	}
	totals, err := locationTotals(aggregates)
	if err != nil {
		return nil, err
	}
	if len(totals) < 2 {
		return nil, nil
	}

	keys := make([]string, 0, len(totals))
	for key := range totals {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	counts := make(stats.Float64Data, len(keys))
	for i, key := range keys {
		counts[i] = float64(totals[key])
	}

	mean, err := counts.Mean()
	if err != nil {
		return nil, err
	}
	sd, err := counts.StandardDeviationPopulation()
	if err != nil {
		return nil, err
	}
	if sd == 0 {
		return nil, nil
	}

	var hotspots []models.Hotspot
	for i, key := range keys {
		z := (counts[i] - mean) / sd
		if z > threshold {
			hotspots = append(hotspots, models.Hotspot{LocationKey: key, CrashCount: totals[key], ZScore: z})
		}
	}

	sort.SliceStable(hotspots, func(i, j int) bool {
		return hotspots[i].ZScore > hotspots[j].ZScore
	})
	return hotspots, nil
}

// locationTotals sums the crash counts of every location across buckets on
// the aggregate frame.
func locationTotals(aggregates []models.Aggregate) (map[string]int64, error) {
	grouped := DataFrame(aggregates).
		GroupBy("location_key").
		Aggregation([]dataframe.AggregationType{dataframe.Aggregation_SUM}, []string{"crash_count"})
	if grouped.Err != nil {
		return nil, fmt.Errorf("grouping aggregates by location: %w", grouped.Err)
	}

	keys := grouped.Col("location_key").Records()
	sums := grouped.Col(fmt.Sprintf("crash_count_%s", dataframe.Aggregation_SUM)).Float()
	if len(keys) != len(sums) {
		return nil, fmt.Errorf("grouping aggregates by location: %d keys but %d sums", len(keys), len(sums))
	}

	totals := make(map[string]int64, len(keys))
	for i, key := range keys {
		totals[key] = int64(math.Round(sums[i]))
	}
	return totals, nil
}
