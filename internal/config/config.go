// Package config loads nwbtrials settings from a YAML file, NWBTRIALS_*
// environment variables and built-in defaults, in that order of precedence
// after explicit flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eflab/nwbtrials/internal/trials"
	"github.com/eflab/nwbtrials/pkg/logger"
	"github.com/eflab/nwbtrials/pkg/nwbtrials"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. NWBTRIALS_SESSION_REFERENCE_TRIAL.
const EnvPrefix = "NWBTRIALS"

// Config represents the complete nwbtrials configuration
type Config struct {
	Session SessionConfig `mapstructure:"session"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// SessionConfig controls how series are grouped and annotated
type SessionConfig struct {
	// ReferenceTrial anchors all timestamps (default: 1)
	ReferenceTrial int `mapstructure:"reference_trial"`
	// Channels is the recognised channel vocabulary
	Channels []string `mapstructure:"channels"`
	// StimulusTable names the interval table joined onto trials
	StimulusTable string `mapstructure:"stimulus_table"`
	// Features are the stimulus columns joined by default
	Features []string `mapstructure:"features"`
	// IntervalOrder is "table" or "start_time"
	IntervalOrder string `mapstructure:"interval_order"`
	// SegmentationKey is the plane used when no key is given
	SegmentationKey string `mapstructure:"segmentation_key"`
}

// LoggingConfig controls log output
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string `mapstructure:"level"`
}

// Default returns a Config with the built-in defaults
func Default() *Config {
	return &Config{
		Session: SessionConfig{
			ReferenceTrial:  trials.DefaultReferenceTrial,
			Channels:        append([]string(nil), trials.DefaultChannels...),
			StimulusTable:   nwbtrials.DefaultStimulusTable,
			Features:        append([]string(nil), trials.DefaultStimulusFeatures...),
			IntervalOrder:   trials.TableOrder.String(),
			SegmentationKey: nwbtrials.DefaultSegmentationKey,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// SetDefaults registers the defaults on v
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("session.reference_trial", defaults.Session.ReferenceTrial)
	v.SetDefault("session.channels", defaults.Session.Channels)
	v.SetDefault("session.stimulus_table", defaults.Session.StimulusTable)
	v.SetDefault("session.features", defaults.Session.Features)
	v.SetDefault("session.interval_order", defaults.Session.IntervalOrder)
	v.SetDefault("session.segmentation_key", defaults.Session.SegmentationKey)

	v.SetDefault("logging.level", defaults.Logging.Level)
}

// New returns a viper instance with defaults and environment overrides bound.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile merges the YAML file at path into v. An empty path falls back to
// ConfigFile and a missing default file is not an error.
func ReadFile(v *viper.Viper, path string) error {
	explicit := path != ""
	if !explicit {
		path = ConfigFile()
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	return nil
}

// Load reads the configuration from v into a Config struct and validates it
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errs
	}

	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "nwbtrials")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".nwbtrials"
	}
	return filepath.Join(home, ".config", "nwbtrials")
}

// ConfigFile returns the path to the default config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// LogLevel returns the parsed logging level. Validate guarantees it parses.
func (c *Config) LogLevel() logger.LogLevel {
	level, _ := logger.ParseLevel(c.Logging.Level)
	return level
}

// Options translates the session settings into session options.
func (c *Config) Options() []nwbtrials.Option {
	order, _ := trials.ParseIntervalOrder(c.Session.IntervalOrder)
	return []nwbtrials.Option{
		nwbtrials.WithReferenceTrial(c.Session.ReferenceTrial),
		nwbtrials.WithChannels(c.Session.Channels...),
		nwbtrials.WithStimulusTable(c.Session.StimulusTable),
		nwbtrials.WithStimulusFeatures(c.Session.Features...),
		nwbtrials.WithIntervalOrder(order),
	}
}
