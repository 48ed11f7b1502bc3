package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	_ "time/tzdata"
)

type SourcePaths struct {
	Crashes         string `mapstructure:"crashes"`
	Cameras         string `mapstructure:"cameras"`
	CameraLocations string `mapstructure:"camera_locations"`
	Congestion      string `mapstructure:"congestion"`
	Delimiter       string `mapstructure:"delimiter"`
}

type CleanConfig struct {
	Timezone       string `mapstructure:"timezone"`
	PedestrianOnly bool   `mapstructure:"pedestrian_only"`
	Bounds         Bounds `mapstructure:"bounds"`
}

// Location loads the configured IANA timezone.
func (c CleanConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

type JoinConfig struct {
	RadiusM        float64       `mapstructure:"radius_m"`
	Window         time.Duration `mapstructure:"window"`
	SegmentRadiusM float64       `mapstructure:"segment_radius_m"`
	TieToleranceM  float64       `mapstructure:"tie_tolerance_m"`
	Workers        int           `mapstructure:"workers"`
}

func (c JoinConfig) Validate() error {
	switch {
	case !(c.RadiusM > 0):
		return &JoinConfigurationError{Param: "join.radius_m", Value: c.RadiusM, Rule: "must be greater than zero"}
	case c.Window <= 0:
		return &JoinConfigurationError{Param: "join.window", Value: c.Window, Rule: "must be greater than zero"}
	case !(c.SegmentRadiusM > 0):
		return &JoinConfigurationError{Param: "join.segment_radius_m", Value: c.SegmentRadiusM, Rule: "must be greater than zero"}
	case !(c.TieToleranceM >= 0):
		return &JoinConfigurationError{Param: "join.tie_tolerance_m", Value: c.TieToleranceM, Rule: "must not be negative"}
	case c.Workers < 1:
		return &JoinConfigurationError{Param: "join.workers", Value: c.Workers, Rule: "must be at least 1"}
	}
	return nil
}

const (
	LocationKeyGrid   = "grid"
	LocationKeyStreet = "street"

	TimeBucketMonth = "month"
	TimeBucketWeek  = "week"
	TimeBucketDay   = "day"
)

type FeatureConfig struct {
	LocationKey string  `mapstructure:"location_key"`
	CellSizeM   float64 `mapstructure:"cell_size_m"`
	TimeBucket  string  `mapstructure:"time_bucket"`
	HotspotZ    float64 `mapstructure:"hotspot_z"`
	Timezone    string  `mapstructure:"-"`
}

func (c FeatureConfig) Validate() error {
	switch c.LocationKey {
	case LocationKeyGrid:
		if !(c.CellSizeM > 0) {
			return &JoinConfigurationError{Param: "features.cell_size_m", Value: c.CellSizeM, Rule: "must be greater than zero"}
		}
	case LocationKeyStreet:
	default:
		return &JoinConfigurationError{Param: "features.location_key", Value: c.LocationKey, Rule: "must be grid or street"}
	}
	switch c.TimeBucket {
	case TimeBucketMonth, TimeBucketWeek, TimeBucketDay:
	default:
		return &JoinConfigurationError{Param: "features.time_bucket", Value: c.TimeBucket, Rule: "must be month, week or day"}
	}
	return nil
}

type OutputConfig struct {
	Format       string `mapstructure:"format"`
	Path         string `mapstructure:"path"`
	Folder       string `mapstructure:"folder"`
	Destination  string `mapstructure:"destination"`
	WriteCleaned bool   `mapstructure:"write_cleaned"`
}

type CloudStorageConfig struct {
	Provider   string `mapstructure:"provider"`
	BucketName string `mapstructure:"bucket_name"`
	Region     string `mapstructure:"region"`
	Endpoint   string `mapstructure:"endpoint"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

type KafkaConfig struct {
	BrokerList  string `mapstructure:"broker_list"`
	TopicPrefix string `mapstructure:"topic_prefix"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Config struct {
	Sources      SourcePaths        `mapstructure:"sources"`
	Clean        CleanConfig        `mapstructure:"clean"`
	Join         JoinConfig         `mapstructure:"join"`
	Features     FeatureConfig      `mapstructure:"features"`
	Output       OutputConfig       `mapstructure:"output"`
	CloudStorage CloudStorageConfig `mapstructure:"cloud_storage"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Kafka        KafkaConfig        `mapstructure:"kafka"`
	Log          LogConfig          `mapstructure:"log"`
	Quiet        bool               `mapstructure:"quiet"`
}

// Validate checks everything that can be checked before a file is opened.
func (cfg *Config) Validate() error {
	if err := cfg.Join.Validate(); err != nil {
		return err
	}
	if err := cfg.Features.Validate(); err != nil {
		return err
	}
	if _, err := cfg.Clean.Location(); err != nil {
		return err
	}
	if len([]rune(cfg.Sources.Delimiter)) > 1 {
		return fmt.Errorf("sources.delimiter must be a single character, got %q", cfg.Sources.Delimiter)
	}
	return nil
}

// SetDefaults registers the defaults used when neither the config file nor the
// environment sets a key. The bounding box is the City of Chicago.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("sources.delimiter", ",")
	v.SetDefault("clean.timezone", "America/Chicago")
	v.SetDefault("clean.pedestrian_only", true)
	v.SetDefault("clean.bounds.min_lat", 41.6)
	v.SetDefault("clean.bounds.max_lat", 42.1)
	v.SetDefault("clean.bounds.min_lon", -88.0)
	v.SetDefault("clean.bounds.max_lon", -87.5)
	v.SetDefault("join.radius_m", 201.168) // 1/8 mile child safety zone
	v.SetDefault("join.window", "168h")
	v.SetDefault("join.segment_radius_m", 500.0)
	v.SetDefault("join.tie_tolerance_m", 0.5)
	v.SetDefault("join.workers", 1)
	v.SetDefault("features.location_key", LocationKeyGrid)
	v.SetDefault("features.cell_size_m", 500.0)
	v.SetDefault("features.time_bucket", TimeBucketMonth)
	v.SetDefault("features.hotspot_z", 2.0)
	v.SetDefault("output.format", "csv")
	v.SetDefault("output.path", "output")
	v.SetDefault("output.folder", "crashlens")
	v.SetDefault("output.destination", "local")
	v.SetDefault("kafka.broker_list", "localhost:9092")
	v.SetDefault("kafka.topic_prefix", "crashlens")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// LoadConfig initializes and reads the configuration using the global Viper
// instance, which is where the CLI flags are bound.
func LoadConfig(cfgFile string) (*Config, error) {
	return LoadConfigWith(viper.GetViper(), cfgFile)
}

func LoadConfigWith(v *viper.Viper, cfgFile string) (*Config, error) {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("examples")
		v.SetConfigName("crashlens")
	}

	v.SetEnvPrefix("CRASHLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	decoderConfigOption := viper.DecoderConfigOption(func(config *mapstructure.DecoderConfig) {
		config.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			config.DecodeHook,
			mapstructure.StringToTimeDurationHookFunc(),
		)
	})
	if err := v.Unmarshal(&config, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	config.Features.Timezone = config.Clean.Timezone

	return &config, nil
}
