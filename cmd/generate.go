package cmd

import (
	"github.com/spf13/cobra"

	"github.com/chrisdamba/crashlens/internal/factories"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write synthetic crash, camera and congestion files",
	Long: `generate writes raw input files shaped like the municipal exports,
including the kinds of damaged rows the cleaner has to deal with. It is meant
for demos and load testing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig(); err != nil {
			return err
		}

		flags := cmd.Flags()
		dir, _ := flags.GetString("dir")

		s := factories.DefaultScenario()
		s.Crashes, _ = flags.GetInt("crashes")
		s.Cameras, _ = flags.GetInt("cameras")
		s.Segments, _ = flags.GetInt("segments")
		s.Days, _ = flags.GetInt("days")
		s.Seed, _ = flags.GetInt64("seed")
		s.DirtyShare, _ = flags.GetFloat64("dirty")

		_, err := factories.Generate(dir, s)
		return err
	},
}

func init() {
	defaults := factories.DefaultScenario()
	flags := generateCmd.Flags()
	flags.String("dir", "data", "Directory to write the files to")
	flags.Int("crashes", defaults.Crashes, "Number of crash records")
	flags.Int("cameras", defaults.Cameras, "Number of speed cameras")
	flags.Int("segments", defaults.Segments, "Number of congestion segments")
	flags.Int("days", defaults.Days, "Number of days covered")
	flags.Int64("seed", defaults.Seed, "Random seed")
	flags.Float64("dirty", defaults.DirtyShare, "Share of damaged rows")
}
