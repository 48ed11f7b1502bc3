package pipeline

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/chrisdamba/crashlens/internal/cleaner"
	"github.com/chrisdamba/crashlens/internal/features"
	"github.com/chrisdamba/crashlens/internal/joiner"
	"github.com/chrisdamba/crashlens/internal/loader"
	"github.com/chrisdamba/crashlens/internal/models"
	"github.com/chrisdamba/crashlens/internal/output"
)

const (
	StageLoad     = "load"
	StageClean    = "clean"
	StageJoin     = "join"
	StageFeatures = "features"
	StageWrite    = "write"
)

// Report describes a finished run.
type Report struct {
	Summary      *models.DropSummary
	Observations int
	Aggregates   []models.Aggregate
	Hotspots     []models.Hotspot
	Duration     time.Duration
}

type Pipeline struct {
	cfg      *models.Config
	features models.FeatureConfig
	dest     output.Destination
	cleaner  *cleaner.Cleaner
	joiner   *joiner.Joiner
}

// New validates every parameter that can be checked without reading input,
// so a bad join radius fails before any file is opened.
func New(cfg *models.Config, dest output.Destination) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c, err := cleaner.New(cfg.Clean)
	if err != nil {
		return nil, err
	}

	var opts []joiner.Option
	if !cfg.Quiet {
		opts = append(opts, joiner.WithProgress(os.Stderr))
	}
	j, err := joiner.New(cfg.Join, opts...)
	if err != nil {
		return nil, err
	}

	// buckets are always cut in the timezone the timestamps were read in
	featureCfg := cfg.Features
	featureCfg.Timezone = cfg.Clean.Timezone

	return &Pipeline{cfg: cfg, features: featureCfg, dest: dest, cleaner: c, joiner: j}, nil
}

// Run executes load, clean, join, features and write in order. A failure is
// returned as a *models.StageError naming the stage.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	started := time.Now()

	sources, err := loader.LoadSources(ctx, p.cfg.Sources)
	if err != nil {
		return nil, &models.StageError{Stage: StageLoad, Err: err}
	}

	cleaned, err := p.cleaner.Clean(sources)
	if err != nil {
		return nil, &models.StageError{Stage: StageClean, Err: err}
	}

	if p.cfg.Output.WriteCleaned {
		if err := p.writeCleaned(ctx, cleaned); err != nil {
			return nil, &models.StageError{Stage: StageWrite, Err: err}
		}
	}

	observations, err := p.joiner.Join(ctx, cleaned.Crashes, cleaned.Cameras, cleaned.Congestion)
	if err != nil {
		return nil, &models.StageError{Stage: StageJoin, Err: err}
	}

	aggregates, err := features.Build(observations, p.features)
	if err != nil {
		return nil, &models.StageError{Stage: StageFeatures, Err: err}
	}
	hotspots, err := features.Hotspots(aggregates, p.features.HotspotZ)
	if err != nil {
		return nil, &models.StageError{Stage: StageFeatures, Err: err}
	}

	if err := p.writeResults(ctx, aggregates, hotspots, cleaned.Summary); err != nil {
		return nil, &models.StageError{Stage: StageWrite, Err: err}
	}

	report := &Report{
		Summary:      cleaned.Summary,
		Observations: len(observations),
		Aggregates:   aggregates,
		Hotspots:     hotspots,
		Duration:     time.Since(started),
	}

	for _, row := range cleaned.Summary.Rows() {
		log.Info().Str("key", row.Key).Int64("count", row.Count).Msg("Drop summary")
	}
	log.Info().
		Int("observations", report.Observations).
		Int("aggregates", len(aggregates)).
		Int("hotspots", len(hotspots)).
		Dur("duration", report.Duration).
		Msg("Pipeline finished")

	return report, nil
}

func (p *Pipeline) writeCleaned(ctx context.Context, cleaned *cleaner.Result) error {
	tables := []struct {
		name  string
		table *loader.Table
	}{
		{output.DatasetCrashesClean, cleaner.CrashTable(cleaned.Crashes)},
		{output.DatasetCamerasClean, cleaner.CameraTable(cleaned.Cameras)},
		{output.DatasetCongestionClean, cleaner.CongestionTable(cleaned.Congestion)},
	}
	for _, t := range tables {
		if err := p.dest.WriteTable(ctx, t.name, t.table); err != nil {
			return err
		}
		log.Debug().Str("dataset", t.name).Int("rows", t.table.Len()).Msg("Wrote cleaned table")
	}
	return nil
}

func (p *Pipeline) writeResults(ctx context.Context, aggregates []models.Aggregate, hotspots []models.Hotspot, summary *models.DropSummary) error {
	if err := p.dest.WriteAggregates(ctx, aggregates); err != nil {
		return err
	}
	if err := p.dest.WriteHotspots(ctx, hotspots); err != nil {
		return err
	}
	return p.dest.WriteDropSummary(ctx, summary.Rows())
}
