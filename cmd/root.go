package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/chrisdamba/crashlens/internal/models"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "crashlens",
	Short: "Joins pedestrian crashes with speed camera and congestion data",
	Long: `crashlens loads the municipal crash, speed camera violation and traffic
congestion exports, cleans them, links every crash to nearby cameras and road
segments, and writes per-location, per-period aggregates for modeling.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./crashlens.yaml)")
	rootCmd.PersistentFlags().Bool("quiet", false, "Disable the progress bar")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "Log format (console or json)")

	bindFlags(rootCmd.PersistentFlags(), map[string]string{
		"quiet":      "quiet",
		"log-level":  "log.level",
		"log-format": "log.format",
	})

	rootCmd.AddCommand(runCmd, generateCmd, validateConfigCmd)
}

// loadConfig reads the configuration and sets up the global logger from it.
func loadConfig() (*models.Config, error) {
	cfg, err := models.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	setupLogging(cfg.Log)
	if used := viper.ConfigFileUsed(); used != "" {
		log.Info().Str("file", used).Msg("Using config file")
	}
	return cfg, nil
}

func setupLogging(cfg models.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

// bindFlags maps command line flags onto configuration keys so that a flag
// set on the command line overrides the file and the environment.
func bindFlags(flags *pflag.FlagSet, keys map[string]string) {
	for flag, key := range keys {
		cobra.CheckErr(viper.BindPFlag(key, flags.Lookup(flag)))
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
