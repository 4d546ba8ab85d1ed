// Package config defines the validated configuration surface for the
// discovery engine: scoring weights, dictionary extensions, cache
// bounds, and inversion limits. Configuration is checked once at
// construction; components never re-validate at call time.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	bberrors "github.com/babelseek/babelseek/pkg/errors"
	"github.com/babelseek/babelseek/pkg/score"
)

// Eviction policies for the page cache.
const (
	EvictionLRU = "lru"
	Eviction2Q  = "2q"
)

// Config is the complete babelseek configuration.
type Config struct {
	Search    SearchConfig    `yaml:"search" json:"search"`
	Scoring   ScoringConfig   `yaml:"scoring" json:"scoring"`
	Cache     CacheConfig     `yaml:"cache" json:"cache"`
	Inversion InversionConfig `yaml:"inversion" json:"inversion"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

// SearchConfig configures search defaults.
type SearchConfig struct {
	// DefaultMaxCandidates is used when a request leaves the cap unset.
	DefaultMaxCandidates int `yaml:"default_max_candidates" json:"default_max_candidates"`

	// DefaultMinCoherence is the default composite score floor.
	DefaultMinCoherence float64 `yaml:"default_min_coherence" json:"default_min_coherence"`

	// Workers bounds the parallel generate/score fan-out.
	// 0 means one worker per CPU.
	Workers int `yaml:"workers" json:"workers"`
}

// ScoringConfig configures the coherence scorer.
type ScoringConfig struct {
	// Weights are the submetric weights. Must be non-negative and sum
	// to 1.0.
	Weights score.Weights `yaml:"weights" json:"weights"`

	// DictionaryExtensions are extra words added to the base dictionary.
	DictionaryExtensions []string `yaml:"dictionary_extensions" json:"dictionary_extensions"`

	// NGramSize is the n-gram length for partial phrase credit.
	NGramSize int `yaml:"ngram_size" json:"ngram_size"`
}

// CacheConfig configures the bounded page cache.
type CacheConfig struct {
	// Size is the maximum number of cached pages.
	Size int `yaml:"size" json:"size"`

	// Eviction selects the eviction policy: "lru" or "2q".
	Eviction string `yaml:"eviction" json:"eviction"`
}

// InversionConfig bounds the brute-force inversion scan.
type InversionConfig struct {
	// MaxIterations is the hard cap on seeds tested per scan.
	MaxIterations int `yaml:"max_iterations" json:"max_iterations"`

	// MaxMatches caps matches collected per scan.
	MaxMatches int `yaml:"max_matches" json:"max_matches"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" json:"level"`

	// FilePath is the log file path. Empty means stderr only.
	FilePath string `yaml:"file_path" json:"file_path"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Search: SearchConfig{
			DefaultMaxCandidates: 50,
			DefaultMinCoherence:  30.0,
			Workers:              0,
		},
		Scoring: ScoringConfig{
			Weights:   score.DefaultWeights(),
			NGramSize: 3,
		},
		Cache: CacheConfig{
			Size:     1024,
			Eviction: EvictionLRU,
		},
		Inversion: InversionConfig{
			MaxIterations: 4096,
			MaxMatches:    8,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML config file, layering it over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, bberrors.New(bberrors.ErrCodeConfigNotFound,
				fmt.Sprintf("config file %q not found", path), err)
		}
		return cfg, bberrors.Wrap(bberrors.ErrCodeConfigInvalid, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, bberrors.New(bberrors.ErrCodeConfigInvalid,
			fmt.Sprintf("parse config %q: %v", path, err), err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration. Weight validation is delegated to
// the scorer so the two can never disagree.
func (c Config) Validate() error {
	if err := c.Scoring.Weights.Validate(); err != nil {
		return err
	}
	if c.Search.DefaultMaxCandidates <= 0 {
		return bberrors.Newf(bberrors.ErrCodeConfigInvalid,
			"default_max_candidates must be positive, got %d", c.Search.DefaultMaxCandidates)
	}
	if c.Search.DefaultMinCoherence < 0 || c.Search.DefaultMinCoherence > 100 {
		return bberrors.Newf(bberrors.ErrCodeConfigInvalid,
			"default_min_coherence must be in [0,100], got %g", c.Search.DefaultMinCoherence)
	}
	if c.Cache.Size <= 0 {
		return bberrors.Newf(bberrors.ErrCodeConfigInvalid,
			"cache size must be positive, got %d", c.Cache.Size)
	}
	switch c.Cache.Eviction {
	case EvictionLRU, Eviction2Q:
	default:
		return bberrors.Newf(bberrors.ErrCodeConfigInvalid,
			"unknown eviction policy %q (want %q or %q)", c.Cache.Eviction, EvictionLRU, Eviction2Q)
	}
	if c.Inversion.MaxIterations <= 0 {
		return bberrors.Newf(bberrors.ErrCodeConfigInvalid,
			"inversion max_iterations must be positive, got %d", c.Inversion.MaxIterations)
	}
	if c.Inversion.MaxMatches <= 0 {
		return bberrors.Newf(bberrors.ErrCodeConfigInvalid,
			"inversion max_matches must be positive, got %d", c.Inversion.MaxMatches)
	}
	return nil
}
