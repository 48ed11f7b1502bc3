package joiner

import (
	"context"
	"io"
	"math"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/sourcegraph/conc/pool"

	"github.com/chrisdamba/crashlens/internal/models"
	"github.com/chrisdamba/crashlens/internal/spatial"
)

type Joiner struct {
	cfg      models.JoinConfig
	progress io.Writer
}

type Option func(*Joiner)

// WithProgress reports join progress to w.
func WithProgress(w io.Writer) Option {
	return func(j *Joiner) {
		j.progress = w
	}
}

// New checks the join parameters. Nothing is read until Join is called.
func New(cfg models.JoinConfig, opts ...Option) (*Joiner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	j := &Joiner{cfg: cfg}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

// Join produces exactly one observation per crash, in crash order. The
// camera and segment indexes are built once and shared by all workers.
func (j *Joiner) Join(ctx context.Context, crashes []models.CrashRecord, cameras []models.CameraViolationRecord, congestion []models.CongestionSegmentRecord) ([]models.JoinedObservation, error) {
	cameraIndex := buildCameraIndex(cameras, j.cfg.RadiusM)
	segmentIndex := buildSegmentIndex(congestion, j.cfg.SegmentRadiusM)

	log.Debug().
		Int("cameras", cameraIndex.Len()).
		Int("camera_cells", cameraIndex.CellCount()).
		Int("segments", segmentIndex.Len()).
		Int("segment_cells", segmentIndex.CellCount()).
		Msg("Built spatial indexes")

	bar := j.newBar(len(crashes))
	defer bar.Finish()

	out := make([]models.JoinedObservation, len(crashes))
	joinRange := func(ctx context.Context, start, end int) error {
		for i := start; i < end; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = models.JoinedObservation{
				Crash:      crashes[i],
				Camera:     j.matchCameras(cameraIndex, crashes[i]),
				Congestion: j.matchSegment(segmentIndex, crashes[i]),
			}
		}
		_ = bar.Add(end - start)
		return nil
	}

	workers := j.cfg.Workers
	if workers <= 1 || len(crashes) < 2 {
		if err := joinRange(ctx, 0, len(crashes)); err != nil {
			return nil, err
		}
		return out, nil
	}

	// each worker owns a contiguous slice of out, so no locking is needed
	p := pool.New().WithContext(ctx).WithCancelOnError().WithMaxGoroutines(workers)
	chunk := (len(crashes) + workers - 1) / workers
	for start := 0; start < len(crashes); start += chunk {
		start, end := start, min(start+chunk, len(crashes))
		p.Go(func(ctx context.Context) error {
			return joinRange(ctx, start, end)
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

func (j *Joiner) newBar(total int) *progressbar.ProgressBar {
	if j.progress == nil {
		return progressbar.DefaultSilent(int64(total))
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(j.progress),
		progressbar.OptionSetDescription("joining crashes"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionOnCompletion(func() { _, _ = io.WriteString(j.progress, "\n") }),
	)
}

func (j *Joiner) matchCameras(index *spatial.Grid[*cameraSite], crash models.CrashRecord) *models.CameraMatch {
	var links []models.CameraLink
	index.Visit(crash.Location, j.cfg.RadiusM, func(site *cameraSite) {
		distance := crash.Location.DistanceMeters(site.location)
		if distance > j.cfg.RadiusM {
			return
		}
		for _, record := range site.within(crash.Time, j.cfg.Window) {
			links = append(links, models.CameraLink{
				CameraID:   site.id,
				Time:       record.Time,
				Violations: record.Violations,
				DistanceM:  distance,
			})
		}
	})
	if len(links) == 0 {
		return nil
	}

	sort.SliceStable(links, func(a, b int) bool {
		if links[a].CameraID != links[b].CameraID {
			return links[a].CameraID < links[b].CameraID
		}
		return links[a].Time.Before(links[b].Time)
	})

	match := &models.CameraMatch{Links: links}
	for i, link := range links {
		if i == 0 || links[i-1].CameraID != link.CameraID {
			match.Cameras++
		}
		match.Violations += link.Violations
	}
	return match
}

type segmentCandidate struct {
	segment  *roadSegment
	distance float64
}

func (j *Joiner) matchSegment(index *spatial.Grid[*roadSegment], crash models.CrashRecord) *models.CongestionMatch {
	var candidates []segmentCandidate
	nearest := math.Inf(1)
	index.Visit(crash.Location, j.cfg.SegmentRadiusM, func(segment *roadSegment) {
		distance := segment.geometry.DistanceMeters(crash.Location)
		if distance > j.cfg.SegmentRadiusM {
			return
		}
		candidates = append(candidates, segmentCandidate{segment: segment, distance: distance})
		nearest = math.Min(nearest, distance)
	})
	if len(candidates) == 0 {
		return nil
	}

	// everything within the tolerance of the nearest distance counts as a tie
	var best *segmentCandidate
	for i := range candidates {
		c := &candidates[i]
		if c.distance-nearest > j.cfg.TieToleranceM {
			continue
		}
		if best == nil || c.segment.id < best.segment.id {
			best = c
		}
	}

	obs := best.segment.nearestInTime(crash.Time)
	return &models.CongestionMatch{
		SegmentID:  best.segment.id,
		Street:     best.segment.street,
		DistanceM:  best.distance,
		ObservedAt: obs.at,
		Speed:      copyFloat(obs.speed),
		MeanSpeed:  copyFloat(best.segment.meanSpeed),
	}
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
