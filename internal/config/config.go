// Package config holds the solver settings. Values come from built-in
// defaults, then an optional YAML file, then SUBSTSOLVE_* environment
// variables; command line flags are applied on top by the caller before
// Validate.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jmccarv/substsolve/internal/logging"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	// Corpus is the n-gram frequency file.
	Corpus          string  `yaml:"corpus" env:"SUBSTSOLVE_CORPUS" validate:"required"`
	FloorPercentage float64 `yaml:"floor_percentage" env:"SUBSTSOLVE_FLOOR_PERCENTAGE" validate:"gt=0"`
	TopNgrams       int     `yaml:"top_ngrams" env:"SUBSTSOLVE_TOP_NGRAMS" validate:"gte=1"`
	ExactMean       bool    `yaml:"exact_mean" env:"SUBSTSOLVE_EXACT_MEAN"`

	Patience    int    `yaml:"patience" env:"SUBSTSOLVE_PATIENCE" validate:"gte=1"`
	ReportEvery uint64 `yaml:"report_every" env:"SUBSTSOLVE_REPORT_EVERY" validate:"gte=1"`
	// ProgressInterval drops progress reports closer together than this.
	ProgressInterval time.Duration `yaml:"progress_interval" env:"SUBSTSOLVE_PROGRESS_INTERVAL" validate:"gte=0"`
	// Seed 0 picks a seed from the clock.
	Seed    uint64 `yaml:"seed" env:"SUBSTSOLVE_SEED"`
	Workers int    `yaml:"workers" env:"SUBSTSOLVE_WORKERS" validate:"gte=1"`

	MaxRuntime  time.Duration `yaml:"max_runtime" env:"SUBSTSOLVE_MAX_RUNTIME" validate:"gte=0"`
	MaxRestarts uint64        `yaml:"max_restarts" env:"SUBSTSOLVE_MAX_RESTARTS"`
	MaxAttempts uint64        `yaml:"max_attempts" env:"SUBSTSOLVE_MAX_ATTEMPTS"`

	TopN        int           `yaml:"topn" env:"SUBSTSOLVE_TOPN" validate:"gte=1"`
	LogLevel    logging.Level `yaml:"log_level" env:"SUBSTSOLVE_LOG_LEVEL" validate:"gte=0,lte=4"`
	MetricsAddr string        `yaml:"metrics_addr" env:"SUBSTSOLVE_METRICS_ADDR" validate:"omitempty,hostname_port"`
}

func Default() *Config {
	return &Config{
		Corpus:          "english_quadgrams.txt",
		FloorPercentage: 0.01,
		TopNgrams:       826,
		Patience:        1000,
		ReportEvery:     50000,
		Workers:         1,
		TopN:            3,
		LogLevel:        logging.LevelWarn,
	}
}

// Load returns the defaults overlaid with the YAML file at path, if path is
// not empty, and then with the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
		}
	}

	// Unset variables leave the field alone.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("%w: environment: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
