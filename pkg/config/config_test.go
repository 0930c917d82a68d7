package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Catalog != "urls.csv" {
		t.Errorf("unexpected default catalog: %s", cfg.Catalog)
	}
	if cfg.CacheDir != "" {
		t.Errorf("caching should be off by default, got %s", cfg.CacheDir)
	}
	if cfg.Fetch.Timeout() != 30*time.Second {
		t.Errorf("unexpected default fetch timeout: %s", cfg.Fetch.Timeout())
	}
	if cfg.Synth.Class != "urb_single" || cfg.Synth.Count != 1 {
		t.Errorf("unexpected synth defaults: %+v", cfg.Synth)
	}
	if cfg.Grouping.WithInventory {
		t.Error("inventory variant should be off by default")
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seisflow.yaml")
	doc := `catalog: data/segments.csv
cache_dir: /var/cache/seisflow
fetch:
  timeout_seconds: 5
grouping:
  with_inventory: true
synth:
  class: urb_multi
  count: 3
  seed: 42
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Catalog != "data/segments.csv" {
		t.Errorf("catalog not loaded: %s", cfg.Catalog)
	}
	if cfg.CacheDir != "/var/cache/seisflow" {
		t.Errorf("cache_dir not loaded: %s", cfg.CacheDir)
	}
	if cfg.Fetch.Timeout() != 5*time.Second {
		t.Errorf("timeout not loaded: %s", cfg.Fetch.Timeout())
	}
	if !cfg.Grouping.WithInventory {
		t.Error("with_inventory not loaded")
	}
	if cfg.Synth.Class != "urb_multi" || cfg.Synth.Count != 3 || cfg.Synth.Seed != 42 {
		t.Errorf("synth not loaded: %+v", cfg.Synth)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seisflow.yaml")
	if err := os.WriteFile(path, []byte("catalog: other.csv\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Catalog != "other.csv" {
		t.Errorf("override not applied: %s", cfg.Catalog)
	}
	if cfg.Fetch.TimeoutSeconds != 30 {
		t.Errorf("untouched fields must keep their defaults, got %d", cfg.Fetch.TimeoutSeconds)
	}
}

func TestLoad_MissingFileIsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("a missing config file must not be an error: %v", err)
	}
	if cfg.Catalog != DefaultConfig().Catalog {
		t.Error("expected defaults for a missing file")
	}
}

func TestLoad_EmptyPathIsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Synth.Count != 1 {
		t.Error("expected defaults for an empty path")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seisflow.yaml")
	if err := os.WriteFile(path, []byte("catalog: [unclosed\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected a parse error")
	}
}
