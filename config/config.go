// Package config loads the run configuration of arimaeval.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sartorproj/arimagrid/grid"
	"github.com/sartorproj/arimagrid/walkforward"
)

// Environment variables that override file values.
const (
	EnvDataDir    = "ARIMAEVAL_DATA_DIR"
	EnvResultsDir = "ARIMAEVAL_RESULTS_DIR"
	EnvWorkers    = "ARIMAEVAL_WORKERS"
	EnvLogLevel   = "ARIMAEVAL_LOG_LEVEL"
	EnvLogFormat  = "ARIMAEVAL_LOG_FORMAT"
)

var ErrInvalid = errors.New("invalid configuration")

// Config is the complete run configuration.
type Config struct {
	Data    DataConfig    `yaml:"data"`
	Results ResultsConfig `yaml:"results"`
	Search  SearchConfig  `yaml:"search"`
	Log     LogConfig     `yaml:"log"`
}

// DataConfig locates the input datasets.
type DataConfig struct {
	Dir string `yaml:"dir"`
}

// ResultsConfig controls what is written next to the results log.
type ResultsConfig struct {
	Dir     string `yaml:"dir"`
	Summary bool   `yaml:"summary"`
	Chart   bool   `yaml:"chart"`
	Table   bool   `yaml:"table"`
}

// SearchConfig holds the candidate grid and evaluation settings.
type SearchConfig struct {
	grid.Candidates `yaml:",inline"`
	TrainRatio      float64 `yaml:"train_ratio"`
	Workers         int     `yaml:"workers"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // console | json
}

// Default returns the reference configuration.
func Default() *Config {
	return &Config{
		Data: DataConfig{Dir: "Datasets"},
		Results: ResultsConfig{
			Dir:     "Results_Forecast",
			Summary: true,
			Table:   true,
		},
		Search: SearchConfig{
			Candidates: grid.ReferenceCandidates(),
			TrainRatio: walkforward.DefaultTrainRatio,
			Workers:    1,
		},
		Log: LogConfig{Level: "info", Format: "console"},
	}
}

// Load reads the YAML file at path on top of the defaults, then applies
// environment overrides. A .env file in the working directory is loaded
// first if present. An empty path uses the defaults only.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values a search cannot run without.
func (c *Config) Validate() error {
	if r := c.Search.TrainRatio; !(r > 0 && r < 1) {
		return fmt.Errorf("%w: train_ratio %v must be in (0, 1)", ErrInvalid, r)
	}
	if c.Search.Workers < 1 {
		return fmt.Errorf("%w: workers %d must be at least 1", ErrInvalid, c.Search.Workers)
	}
	if err := c.Search.Candidates.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: log format %q", ErrInvalid, c.Log.Format)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.Data.Dir = v
	}
	if v := os.Getenv(EnvResultsDir); v != "" {
		cfg.Results.Dir = v
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %w", ErrInvalid, EnvWorkers, v, err)
		}
		cfg.Search.Workers = n
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.Log.Format = v
	}
	return nil
}

// setDefaults fills values a file may have blanked out.
func setDefaults(cfg *Config) {
	if cfg.Data.Dir == "" {
		cfg.Data.Dir = "Datasets"
	}
	if cfg.Results.Dir == "" {
		cfg.Results.Dir = "Results_Forecast"
	}
	if cfg.Search.TrainRatio == 0 {
		cfg.Search.TrainRatio = walkforward.DefaultTrainRatio
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
}
