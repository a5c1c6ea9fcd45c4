package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestLoad_MissingFileReturnsDefaults: no config file means the compiled-in
// policy, not an error.
func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BufferRadiusMeters != 5000 {
		t.Errorf("buffer radius = %v, want 5000", cfg.BufferRadiusMeters)
	}
	if cfg.ProximityCandidateCap != 1000 {
		t.Errorf("candidate cap = %d, want 1000", cfg.ProximityCandidateCap)
	}
	if got := cfg.MinLength("school"); got != 3 {
		t.Errorf("school min length = %d, want 3", got)
	}
	if got := cfg.MinLength("suburb"); got != 2 {
		t.Errorf("suburb min length = %d, want 2", got)
	}
}

// TestLoad_OverlaysFileOnDefaults: the file overrides only the keys it sets.
func TestLoad_OverlaysFileOnDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("buffer_radius_meters: 3000\nautocomplete_min_length:\n  school: 4\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BufferRadiusMeters != 3000 {
		t.Errorf("buffer radius = %v, want 3000", cfg.BufferRadiusMeters)
	}
	if cfg.ProximityCandidateCap != 1000 {
		t.Errorf("candidate cap = %d, want default 1000", cfg.ProximityCandidateCap)
	}
	if got := cfg.MinLength("school"); got != 4 {
		t.Errorf("school min length = %d, want 4", got)
	}
}

// TestLoad_RejectsInvalidRanking: duplicate confidence codes are a config
// error, not silently accepted.
func TestLoad_RejectsInvalidRanking(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("confidence_ranking: [low, low, high]\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for duplicated confidence code")
	}
}

// TestLoad_RejectsNonPositiveRadius.
func TestLoad_RejectsNonPositiveRadius(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("buffer_radius_meters: -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for negative buffer radius")
	}
}
