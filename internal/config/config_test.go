package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Upstream.APIBase != "https://api.github.com" {
		t.Errorf("APIBase = %q", cfg.Upstream.APIBase)
	}
	if cfg.Upstream.Owner != "astral-sh" || cfg.Upstream.Repo != "python-build-standalone" {
		t.Errorf("Upstream = %s/%s, want astral-sh/python-build-standalone", cfg.Upstream.Owner, cfg.Upstream.Repo)
	}
}

func TestLoad(t *testing.T) {
	content := `
upstream:
  api_base: https://github.example.internal/api/v3
  owner: mirror
cache:
  db_path: /tmp/listing.db
`
	path := filepath.Join(t.TempDir(), "pybootstrap.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Upstream.APIBase != "https://github.example.internal/api/v3" {
		t.Errorf("APIBase = %q", cfg.Upstream.APIBase)
	}
	if cfg.Upstream.Owner != "mirror" {
		t.Errorf("Owner = %q, want mirror", cfg.Upstream.Owner)
	}
	// Defaults survive partial overrides.
	if cfg.Upstream.Repo != "python-build-standalone" {
		t.Errorf("Repo = %q, want default python-build-standalone", cfg.Upstream.Repo)
	}
	if cfg.Cache.DBPath != "/tmp/listing.db" {
		t.Errorf("DBPath = %q", cfg.Cache.DBPath)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("upstream: ["), 0644); err != nil {
		t.Fatalf("writing config fixture: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}
