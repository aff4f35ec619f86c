// Package config holds the run configuration: a YAML file provides
// defaults, CLI flags override. Environment variables in the file are
// expanded before parsing.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Malformed-clock policies. The tolerant default scores an unreadable clock
// as zero seconds; the strict policy drops the whole game.
const (
	ClockPolicyZero   = "zero"
	ClockPolicyReject = "reject"
)

// Config is the full configuration surface of a run.
type Config struct {
	// Source is a comma-separated list of archive paths, URLs or
	// directories.
	Source string `yaml:"source"`
	// ChunkSize is the streaming read size in bytes.
	ChunkSize int `yaml:"chunk_size"`
	// MaxLines caps the number of processed lines; zero is unlimited.
	MaxLines int64 `yaml:"max_lines"`
	// FlushRows is the buffered-row threshold before output is written.
	FlushRows int `yaml:"flush_rows"`

	Filter FilterConfig `yaml:"filter"`
	Output OutputConfig `yaml:"output"`

	// Profile enables CPU profiling for the run.
	Profile bool `yaml:"profile"`
	// Verbose switches logging to the development console encoder.
	Verbose bool `yaml:"verbose"`
}

// FilterConfig holds the per-game inclusion rules.
type FilterConfig struct {
	MinElo           int    `yaml:"min_elo"`
	RequireClockEval *bool  `yaml:"require_clock_and_eval"`
	ExcludeAbandoned *bool  `yaml:"exclude_abandoned"`
	OnMalformedClock string `yaml:"on_malformed_clock"`
}

// OutputConfig holds output routing.
type OutputConfig struct {
	// Path is the single output file. Empty derives
	// <archive-stem>_<min-elo>.csv from the first source.
	Path string `yaml:"path"`
	// Dir is the destination directory for derived and bucketed names.
	Dir string `yaml:"dir"`
	// BucketByTimeControl writes one file per distinct TimeControl tag.
	BucketByTimeControl bool `yaml:"bucket_by_time_control"`
}

// Default returns the baseline configuration: the full lichess monthly
// archive, 1 MiB chunks, 2000 minimum rating, 5000-row flush threshold,
// tolerant clock handling.
func Default() *Config {
	t := true
	return &Config{
		Source:    "https://database.lichess.org/standard/lichess_db_standard_rated_2018-01.pgn.zst",
		ChunkSize: 1 << 20,
		FlushRows: 5000,
		Filter: FilterConfig{
			MinElo:           2000,
			RequireClockEval: &t,
			ExcludeAbandoned: &t,
			OnMalformedClock: ClockPolicyZero,
		},
		Output: OutputConfig{
			Dir: "output",
		},
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("cannot read config file %q: %w", path, err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the pipeline cannot honor.
func (c *Config) Validate() error {
	if c.ChunkSize < 0 {
		return fmt.Errorf("chunk_size must be non-negative, got %d", c.ChunkSize)
	}
	if c.FlushRows < 0 {
		return fmt.Errorf("flush_rows must be non-negative, got %d", c.FlushRows)
	}
	switch c.Filter.OnMalformedClock {
	case "", ClockPolicyZero, ClockPolicyReject:
	default:
		return fmt.Errorf("on_malformed_clock must be %q or %q, got %q",
			ClockPolicyZero, ClockPolicyReject, c.Filter.OnMalformedClock)
	}
	return nil
}

// RequireClockEvalValue resolves the pointer with its documented default (true).
func (f FilterConfig) RequireClockEvalValue() bool {
	return f.RequireClockEval == nil || *f.RequireClockEval
}

// ExcludeAbandonedValue resolves the pointer with its documented default (true).
func (f FilterConfig) ExcludeAbandonedValue() bool {
	return f.ExcludeAbandoned == nil || *f.ExcludeAbandoned
}

// RejectOnBadClock reports whether the strict clock policy is selected.
func (f FilterConfig) RejectOnBadClock() bool {
	return f.OnMalformedClock == ClockPolicyReject
}
