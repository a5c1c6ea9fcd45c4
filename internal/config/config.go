// Package config loads tunable query policy from an optional YAML file.
// Connection settings stay in the environment (.env.local); this file covers
// the knobs that are policy rather than code: the buffer radius, the
// unfiltered candidate cap, autocomplete minimum lengths, and the geocode
// confidence ranking (whose authoritative ordering is not crisply defined
// upstream, so it must stay configurable).
package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Config is the full policy configuration.
type Config struct {
	// BufferRadiusMeters is the radius of the derived circular buffer around
	// each school point.
	BufferRadiusMeters float64 `yaml:"buffer_radius_meters"`

	// ProximityCandidateCap bounds the candidates considered by an
	// unfiltered "initial load" radius search.
	ProximityCandidateCap int `yaml:"proximity_candidate_cap"`

	// DefaultQueryTimeoutMS is the per-request deadline applied when the
	// caller does not supply one.
	DefaultQueryTimeoutMS int `yaml:"default_query_timeout_ms"`

	// MaxQueryTimeoutMS caps caller-supplied deadlines.
	MaxQueryTimeoutMS int `yaml:"max_query_timeout_ms"`

	// AutocompleteMinLength is the minimum query length per suggestion kind.
	AutocompleteMinLength map[string]int `yaml:"autocomplete_min_length"`

	// ConfidenceRanking orders geocode confidence codes from least to most
	// trustworthy.
	ConfidenceRanking []string `yaml:"confidence_ranking"`

	// RequestsPerSecond and Burst configure the API rate limiter.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// Default returns the compiled-in policy, matching the source system's
// documented behaviour.
func Default() Config {
	return Config{
		BufferRadiusMeters:    5000,
		ProximityCandidateCap: 1000,
		DefaultQueryTimeoutMS: 10000,
		MaxQueryTimeoutMS:     30000,
		AutocompleteMinLength: map[string]int{
			"street":   2,
			"suburb":   2,
			"postcode": 2,
			"school":   3,
		},
		ConfidenceRanking: []string{"none", "low", "medium", "high", "very-high"},
		RequestsPerSecond: 50,
		Burst:             100,
	}
}

// Load reads the YAML file at path, overlaying it on the defaults. A missing
// file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromEnv loads the file named by CONFIG_FILE, defaulting to config.yaml.
func LoadFromEnv() (Config, error) {
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}
	return Load(path)
}

func (c Config) validate() error {
	if c.BufferRadiusMeters <= 0 {
		return fmt.Errorf("buffer_radius_meters must be positive, got %v", c.BufferRadiusMeters)
	}
	if c.ProximityCandidateCap <= 0 {
		return fmt.Errorf("proximity_candidate_cap must be positive, got %d", c.ProximityCandidateCap)
	}
	if len(c.ConfidenceRanking) == 0 {
		return fmt.Errorf("confidence_ranking must not be empty")
	}
	seen := make(map[string]bool, len(c.ConfidenceRanking))
	for _, code := range c.ConfidenceRanking {
		if seen[code] {
			return fmt.Errorf("confidence_ranking repeats %q", code)
		}
		seen[code] = true
	}
	return nil
}

// MinLength returns the minimum autocomplete query length for kind,
// defaulting to 2 for kinds the file does not mention.
func (c Config) MinLength(kind string) int {
	if n, ok := c.AutocompleteMinLength[kind]; ok && n > 0 {
		return n
	}
	return 2
}
