package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := New()

	if cfg.LogLevel != "info" {
		t.Errorf("expected info, got %q", cfg.LogLevel)
	}
	if cfg.Devtools.Address() != "localhost:6360" {
		t.Errorf("unexpected devtools address %q", cfg.Devtools.Address())
	}
	if cfg.MaxFlushRounds != DefaultMaxFlushRounds {
		t.Errorf("unexpected maxFlushRounds %d", cfg.MaxFlushRounds)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.Path() != "" {
		t.Errorf("expected empty path for defaults, got %q", cfg.Path())
	}
	if cfg.Devtools.Port != DefaultDevtoolsPort {
		t.Errorf("expected default port, got %d", cfg.Devtools.Port)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	data := `{"logLevel":"debug","devtools":{"port":7000},"bench":{"chainDepth":8}}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("expected debug, got %q", cfg.LogLevel)
	}
	if cfg.Devtools.Port != 7000 {
		t.Errorf("expected port 7000, got %d", cfg.Devtools.Port)
	}
	// Unset fields keep their defaults.
	if cfg.Devtools.Host != DefaultDevtoolsHost {
		t.Errorf("expected default host, got %q", cfg.Devtools.Host)
	}
	if cfg.Bench.ChainDepth != 8 {
		t.Errorf("expected chainDepth 8, got %d", cfg.Bench.ChainDepth)
	}
	if cfg.Bench.Fanout != 100 {
		t.Errorf("expected default fanout, got %d", cfg.Bench.Fanout)
	}
	if cfg.Path() != path {
		t.Errorf("expected path %q, got %q", path, cfg.Path())
	}
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(dir); err == nil {
		t.Error("expected error for malformed file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GLINT_LOG_LEVEL", "warn")
	t.Setenv("GLINT_DEVTOOLS_PORT", "9000")
	t.Setenv("GLINT_MAX_FLUSH_ROUNDS", "5")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if cfg.LogLevel != "warn" {
		t.Errorf("expected warn, got %q", cfg.LogLevel)
	}
	if cfg.Devtools.Port != 9000 {
		t.Errorf("expected 9000, got %d", cfg.Devtools.Port)
	}
	if cfg.MaxFlushRounds != 5 {
		t.Errorf("expected 5, got %d", cfg.MaxFlushRounds)
	}
}

func TestValidate(t *testing.T) {
	cfg := New()
	cfg.LogLevel = "loud"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for bad log level")
	}

	cfg = New()
	cfg.Devtools.Port = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for bad port")
	}
}
