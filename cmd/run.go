package cmd

import (
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/chrisdamba/crashlens/internal/output"
	"github.com/chrisdamba/crashlens/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the load, clean, join and aggregate pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		dest, err := output.New(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := dest.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close output")
			}
		}()

		p, err := pipeline.New(cfg, dest)
		if err != nil {
			return err
		}

		report, err := p.Run(ctx)
		if err != nil {
			return err
		}

		for _, hotspot := range report.Hotspots {
			log.Info().
				Str("location", hotspot.LocationKey).
				Int64("crashes", hotspot.CrashCount).
				Float64("z", hotspot.ZScore).
				Msg("Hotspot")
		}
		return nil
	},
}

func init() {
	flags := runCmd.Flags()
	flags.String("crashes", "", "Crash records file")
	flags.String("cameras", "", "Speed camera violations file")
	flags.String("camera-locations", "", "Speed camera locations file (optional)")
	flags.String("congestion", "", "Congestion segments file")
	flags.Float64("radius", 201.168, "Camera join radius in metres")
	flags.Duration("window", 0, "Camera join time window, e.g. 168h")
	flags.Int("workers", 1, "Number of join workers")
	flags.String("location-key", "grid", "Aggregate location key (grid or street)")
	flags.String("time-bucket", "month", "Aggregate time bucket (month, week or day)")
	flags.String("format", "csv", "Output format (csv, json, parquet, kafka, postgres, console)")
	flags.String("output", "output", "Output base path")
	flags.Bool("write-cleaned", false, "Also write the cleaned source tables")

	bindFlags(flags, map[string]string{
		"crashes":          "sources.crashes",
		"cameras":          "sources.cameras",
		"camera-locations": "sources.camera_locations",
		"congestion":       "sources.congestion",
		"radius":           "join.radius_m",
		"window":           "join.window",
		"workers":          "join.workers",
		"location-key":     "features.location_key",
		"time-bucket":      "features.time_bucket",
		"format":           "output.format",
		"output":           "output.path",
		"write-cleaned":    "output.write_cleaned",
	})
}
