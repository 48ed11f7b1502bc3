package joiner

import (
	"sort"
	"time"

	"github.com/chrisdamba/crashlens/internal/models"
	"github.com/chrisdamba/crashlens/internal/spatial"
)

// cameraSite is one fixed camera with its violation records in time order.
type cameraSite struct {
	id       string
	location models.Location
	records  []models.CameraViolationRecord
}

// within returns the records whose time is no more than window away from at.
func (c *cameraSite) within(at time.Time, window time.Duration) []models.CameraViolationRecord {
	from, to := at.Add(-window), at.Add(window)
	start := sort.Search(len(c.records), func(i int) bool {
		return !c.records[i].Time.Before(from)
	})
	end := start
	for end < len(c.records) && !c.records[end].Time.After(to) {
		end++
	}
	return c.records[start:end]
}

func buildCameraIndex(records []models.CameraViolationRecord, cellSizeM float64) *spatial.Grid[*cameraSite] {
	byID := make(map[string]*cameraSite)
	for _, record := range records {
		site, ok := byID[record.CameraID]
		if !ok {
			site = &cameraSite{id: record.CameraID, location: record.Location}
			byID[record.CameraID] = site
		}
		site.records = append(site.records, record)
	}

	sites := make([]*cameraSite, 0, len(byID))
	for _, site := range byID {
		sort.SliceStable(site.records, func(i, j int) bool {
			return site.records[i].Time.Before(site.records[j].Time)
		})
		sites = append(sites, site)
	}
	sort.Slice(sites, func(i, j int) bool { return sites[i].id < sites[j].id })

	return spatial.NewGrid(cellSizeM, sites, func(s *cameraSite) spatial.Box {
		return spatial.PointBox(s.location)
	})
}

type observation struct {
	at    time.Time
	speed *float64
}

// roadSegment gathers every observation of one resolved congestion segment.
type roadSegment struct {
	id           string
	street       string
	geometry     models.Segment
	observations []observation
	meanSpeed    *float64
}

// nearestInTime picks the observation closest to at, the earlier one on a tie.
func (s *roadSegment) nearestInTime(at time.Time) observation {
	i := sort.Search(len(s.observations), func(i int) bool {
		return !s.observations[i].at.Before(at)
	})
	switch {
	case i == 0:
		return s.observations[0]
	case i == len(s.observations):
		return s.observations[i-1]
	}
	before, after := s.observations[i-1], s.observations[i]
	if after.at.Sub(at) < at.Sub(before.at) {
		return after
	}
	return before
}

func buildSegmentIndex(records []models.CongestionSegmentRecord, cellSizeM float64) *spatial.Grid[*roadSegment] {
	byID := make(map[string]*roadSegment)
	for _, record := range records {
		if !record.Resolved() {
			continue
		}
		segment, ok := byID[record.SegmentID]
		if !ok {
			segment = &roadSegment{id: record.SegmentID, street: record.Street, geometry: *record.Geometry}
			byID[record.SegmentID] = segment
		}
		segment.observations = append(segment.observations, observation{at: record.Time, speed: record.Speed})
	}

	segments := make([]*roadSegment, 0, len(byID))
	for _, segment := range byID {
		sort.SliceStable(segment.observations, func(i, j int) bool {
			return segment.observations[i].at.Before(segment.observations[j].at)
		})

		var sum float64
		var n int
		for _, obs := range segment.observations {
			if obs.speed != nil {
				sum += *obs.speed
				n++
			}
		}
		if n > 0 {
			mean := sum / float64(n)
			segment.meanSpeed = &mean
		}
		segments = append(segments, segment)
	}
	sort.Slice(segments, func(i, j int) bool { return segments[i].id < segments[j].id })

	return spatial.NewGrid(cellSizeM, segments, func(s *roadSegment) spatial.Box {
		return spatial.SegmentBox(s.geometry)
	})
}
