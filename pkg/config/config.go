// Package config loads the YAML settings file shared by the CLI, the server and the TUI.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BrokenLinc/single-saberize/pkg/beatmap"
	"github.com/goccy/go-yaml"
)

// DefaultFile is read from the working directory when no --config is given
const DefaultFile = "single-saberize.yaml"

// TierOverride replaces the rules of one tier. Unset fields keep the built-in value.
type TierOverride struct {
	TimingThreshold *float64 `yaml:"timing_threshold"`
	QuantumDivisor  *float64 `yaml:"quantum_divisor"`
}

// Config holds every setting that can come from the config file
type Config struct {
	SongsDir        string                  `yaml:"songs_dir"`
	Prefix          string                  `yaml:"prefix"`
	NameSuffix      string                  `yaml:"name_suffix"`
	GenerateMissing bool                    `yaml:"generate_missing"`
	DropUnmerged    bool                    `yaml:"drop_unmerged"`
	Jobs            int                     `yaml:"jobs"`
	LogLevel        string                  `yaml:"log_level"`
	Tiers           map[string]TierOverride `yaml:"tiers"`
}

// Default returns the settings used when no file is present
func Default() *Config {
	return &Config{
		Prefix:       "__SingleSaber__ ",
		NameSuffix:   " (Single Saber)",
		DropUnmerged: true,
		Jobs:         4,
		LogLevel:     "debug",
	}
}

// Load reads path on top of the defaults. An empty path tries DefaultFile and
// falls back to the defaults when it does not exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.UnmarshalWithOptions(data, cfg, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values the YAML decoder cannot
func (c *Config) Validate() error {
	if c.Jobs <= 0 {
		return fmt.Errorf("jobs must be positive, got %d", c.Jobs)
	}
	if strings.TrimSpace(c.Prefix) == "" {
		return errors.New("prefix must not be empty")
	}
	for name, o := range c.Tiers {
		if _, err := beatmap.ParseDifficulty(name); err != nil {
			return err
		}
		if o.TimingThreshold != nil && *o.TimingThreshold < 0 {
			return fmt.Errorf("tier %s: timing_threshold must not be negative", name)
		}
		if o.QuantumDivisor != nil && *o.QuantumDivisor < 0 {
			return fmt.Errorf("tier %s: quantum_divisor must not be negative", name)
		}
	}
	return nil
}

// TierTable returns the built-in tiers with the configured overrides applied
func (c *Config) TierTable() (*beatmap.TierTable, error) {
	tt := beatmap.DefaultTiers()
	for name, o := range c.Tiers {
		d, err := beatmap.ParseDifficulty(name)
		if err != nil {
			return nil, err
		}
		threshold, divisor := -1.0, -1.0
		if o.TimingThreshold != nil {
			threshold = *o.TimingThreshold
		}
		if o.QuantumDivisor != nil {
			divisor = *o.QuantumDivisor
		}
		if err := tt.Override(d, threshold, divisor); err != nil {
			return nil, err
		}
	}
	return tt, nil
}
