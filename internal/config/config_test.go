package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, _, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
	if cfg.Scan.ArpRounds != 2 {
		t.Errorf("Scan.ArpRounds = %d, want 2", cfg.Scan.ArpRounds)
	}
	if cfg.Monitor.DefaultInterval != 5*time.Minute {
		t.Errorf("Monitor.DefaultInterval = %v, want 5m", cfg.Monitor.DefaultInterval)
	}
	if cfg.Store.DSN != "netvigil.db" {
		t.Errorf("Store.DSN = %q, want netvigil.db", cfg.Store.DSN)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = false, want true")
	}
	if cfg.Metrics.Addr != ":9091" {
		t.Errorf("Metrics.Addr = %q, want :9091", cfg.Metrics.Addr)
	}
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load with missing file: %v", err)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netvigil.yaml")
	contents := "logging:\n  level: debug\nscan:\n  arp_rounds: 5\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Scan.ArpRounds != 5 {
		t.Errorf("Scan.ArpRounds = %d, want 5", cfg.Scan.ArpRounds)
	}
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("NETVIGIL_LOGGING_LEVEL", "warn")
	cfg, _, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
}
