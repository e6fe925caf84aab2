package config

import (
	"os"
	"path/filepath"

	"github.com/Jay1/budsctl/internal/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultInterval   = 10
	DefaultStorageDir = "/var/lib/budsctl"
)

type Config struct {
	Interval       int    `mapstructure:"interval"`
	Debug          bool   `mapstructure:"debug"`
	Verbose        bool   `mapstructure:"verbose"`
	StorageDir     string `mapstructure:"storage_dir"`
	Telemetry      bool   `mapstructure:"telemetry"`
	TelemetryDB    string `mapstructure:"telemetry_db"`
	ScannerCommand string `mapstructure:"scanner_command"`

	Intelligence IntelligenceConfig `mapstructure:"intelligence"`
}

// IntelligenceConfig carries the estimator tunables. Zero values are
// replaced with defaults during Load.
type IntelligenceConfig struct {
	LearningEnabled         bool `mapstructure:"learning_enabled"`
	MinBatteryChange        int  `mapstructure:"min_battery_change"`
	MinTimeGapMinutes       int  `mapstructure:"min_time_gap_minutes"`
	MaxEvents               int  `mapstructure:"max_events"`
	HighConfidenceMinutes   int  `mapstructure:"high_confidence_minutes"`
	MediumConfidenceMinutes int  `mapstructure:"medium_confidence_minutes"`
	LowConfidenceMinutes    int  `mapstructure:"low_confidence_minutes"`
}

func Load() (*Config, error) {
	errFactory := errors.New()
	viper.Reset()
	flags := pflag.NewFlagSet("budsctl", pflag.ContinueOnError)

	debugFlag := flags.Bool("debug", false, "Enable debugging mode")
	verboseFlag := flags.Bool("verbose", false, "Enable verbose logging")
	flags.Int("interval", DefaultInterval, "Seconds between estimate refreshes")
	flags.String("storage-dir", DefaultStorageDir, "Directory for battery profile storage")
	flags.Bool("telemetry", false, "Enable estimate telemetry recording")
	flags.String("telemetry-db", "", "Path to the telemetry database")
	flags.String("scanner-command", "", "Helper command producing advertisement JSON (stdin when empty)")

	if err := flags.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	viper.SetDefault("interval", DefaultInterval)
	viper.SetDefault("storage_dir", DefaultStorageDir)
	viper.SetDefault("intelligence.learning_enabled", true)
	viper.SetDefault("intelligence.min_battery_change", 5)
	viper.SetDefault("intelligence.min_time_gap_minutes", 5)
	viper.SetDefault("intelligence.max_events", 200)
	viper.SetDefault("intelligence.high_confidence_minutes", 5)
	viper.SetDefault("intelligence.medium_confidence_minutes", 30)
	viper.SetDefault("intelligence.low_confidence_minutes", 60)

	viper.SetConfigName("budsctl")
	viper.SetConfigType("toml")
	viper.AddConfigPath("/etc")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "budsctl"))
	}
	viper.SetEnvPrefix("BUDSCTL")
	viper.AutomaticEnv()

	if explicit := os.Getenv("BUDSCTL_CONFIG"); explicit != "" {
		viper.SetConfigFile(explicit)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	// Command line flags override the config file
	viper.Set("debug", *debugFlag)
	viper.Set("verbose", *verboseFlag)
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "storage-dir":
			viper.Set("storage_dir", f.Value.String())
		case "telemetry-db":
			viper.Set("telemetry_db", f.Value.String())
		case "scanner-command":
			viper.Set("scanner_command", f.Value.String())
		default:
			viper.Set(f.Name, f.Value.String())
		}
	})

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if config.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else if config.Verbose {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}

	return config, nil
}

func (c *Config) Validate() error {
	errFactory := errors.New()

	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}
	if c.StorageDir == "" {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "storage_dir must not be empty")
	}
	if c.Telemetry && c.TelemetryDB == "" {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "telemetry_db required when telemetry is enabled")
	}
	if c.Intelligence.MaxEvents <= 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "intelligence.max_events must be positive")
	}
	if c.Intelligence.MinTimeGapMinutes <= 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "intelligence.min_time_gap_minutes must be positive")
	}

	return nil
}
