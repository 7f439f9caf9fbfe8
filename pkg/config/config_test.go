package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "output_dir: /tmp/agg\ncustom_ignore: /tmp/my_ignore\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OutputDir != "/tmp/agg" {
		t.Errorf("OutputDir = %q, want /tmp/agg", cfg.OutputDir)
	}
	if cfg.CustomIgnore != "/tmp/my_ignore" {
		t.Errorf("CustomIgnore = %q", cfg.CustomIgnore)
	}
}

func TestLoadMissingFileIsError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load of a missing explicit path must fail")
	}
}

func TestLoadDefaultFallsBackToDefaults(t *testing.T) {
	// Run from an empty directory so no project config is found.
	dir := t.TempDir()
	oldWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(oldWd)
	t.Setenv("HOME", dir)

	cfg, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	if cfg.OutputDir == "" {
		t.Error("OutputDir default must be populated")
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("output_dir: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load must reject malformed YAML")
	}
}
