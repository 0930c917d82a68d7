// Package config provides seisflow configuration: defaults overridden by
// an optional YAML file, overridden in turn by CLI flags.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all seisflow configuration.
type Config struct {
	// Catalog is the path of the segment catalog CSV.
	Catalog string `yaml:"catalog"`

	// CacheDir is the local waveform/inventory cache root. Empty
	// disables caching.
	CacheDir string `yaml:"cache_dir"`

	Fetch    FetchConfig    `yaml:"fetch"`
	Grouping GroupingConfig `yaml:"grouping"`
	Synth    SynthConfig    `yaml:"synth"`
}

// FetchConfig controls the remote fetch transport.
type FetchConfig struct {
	// TimeoutSeconds bounds a single fetch. A timeout is handled like
	// any other fetch failure: logged, row skipped.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// Timeout returns the fetch timeout as a duration.
func (f FetchConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSeconds) * time.Second
}

// GroupingConfig selects the grouping variant.
type GroupingConfig struct {
	// WithInventory enables the station-first variant that resolves a
	// shared station inventory per group and skips stations whose
	// inventory is unavailable.
	WithInventory bool `yaml:"with_inventory"`
}

// SynthConfig controls multi-event synthesis.
type SynthConfig struct {
	// Class is the class label of the single-event recordings to
	// combine.
	Class string `yaml:"class"`

	// Count is the number of composites per waveform pair.
	Count int `yaml:"count"`

	// Seed for the offset random source. Zero means seeded from the
	// clock.
	Seed int64 `yaml:"seed"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Catalog: "urls.csv",
		Fetch: FetchConfig{
			TimeoutSeconds: 30,
		},
		Synth: SynthConfig{
			Class: "urb_single",
			Count: 1,
		},
	}
}

// Load returns DefaultConfig overridden by the YAML file at path. A
// missing file is not an error: the defaults apply. An empty path skips
// the file entirely.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
