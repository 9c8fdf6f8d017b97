package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host: got %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.Addr() != "0.0.0.0:8080" {
		t.Errorf("Server.Addr: got %q", cfg.Server.Addr())
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "text")
	}
	if cfg.Session.TTL != 30*time.Minute {
		t.Errorf("Session.TTL: got %s, want 30m", cfg.Session.TTL)
	}
	if cfg.Session.SweepInterval != time.Minute {
		t.Errorf("Session.SweepInterval: got %s, want 1m", cfg.Session.SweepInterval)
	}

	if len(cfg.Datasets) != 2 {
		t.Fatalf("Datasets: got %d, want 2", len(cfg.Datasets))
	}
	risk := cfg.Datasets[0]
	if risk.Name != "risk" || !risk.Percent || risk.Columns.Country != "Country" {
		t.Errorf("risk dataset: got %+v", risk)
	}
	if risk.Defaults.Indicator != "ROAA" || len(risk.Defaults.Periods) != 3 {
		t.Errorf("risk defaults: got %+v", risk.Defaults)
	}
	if st := cfg.Datasets[1]; st.Columns.Date != "Date" || st.Columns.Country != "" {
		t.Errorf("statements columns: got %+v", st.Columns)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("RATIODASH_SERVER_PORT", "9191")
	t.Setenv("RATIODASH_LOGGING_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("Server.Port: got %d, want 9191", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "debug")
	}
}

// ── LoadFromFile ──

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "test_config.yaml")
	content := []byte(`
server:
  port: 9090
  cors_origins: ["http://localhost:3000"]
logging:
  level: "debug"
  format: "json"
session:
  ttl: "5m"
datasets:
  - name: "ratios"
    kind: "risk"
    path: "/data/ratios.csv"
    percent: true
    drop_off_cycle: true
    columns:
      country: "Pais"
      bank: "Banco"
      period: "Periodo"
    defaults:
      countries: ["Guatemala"]
      indicator: "ROAE"
`)
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port: got %d, want 9090", cfg.Server.Port)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "http://localhost:3000" {
		t.Errorf("Server.CORSOrigins: got %v", cfg.Server.CORSOrigins)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "json")
	}
	if cfg.Session.TTL != 5*time.Minute {
		t.Errorf("Session.TTL: got %s, want 5m", cfg.Session.TTL)
	}
	// Unset keys keep their defaults.
	if cfg.Session.SweepInterval != time.Minute {
		t.Errorf("Session.SweepInterval: got %s, want 1m", cfg.Session.SweepInterval)
	}

	if len(cfg.Datasets) != 1 {
		t.Fatalf("Datasets: got %d, want 1", len(cfg.Datasets))
	}
	d := cfg.Datasets[0]
	if d.Name != "ratios" || d.Kind != "risk" || !d.Percent || !d.DropOffCycle {
		t.Errorf("dataset: got %+v", d)
	}
	if d.Columns.Bank != "Banco" || d.Columns.Period != "Periodo" || d.Columns.Country != "Pais" {
		t.Errorf("dataset columns: got %+v", d.Columns)
	}
	if d.Defaults.Indicator != "ROAE" || len(d.Defaults.Countries) != 1 {
		t.Errorf("dataset defaults: got %+v", d.Defaults)
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("LoadFromFile() with nonexistent path should return error")
	}
}

// ── Validate ──

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Host: "127.0.0.1", Port: 8080},
			Logging:  LoggingConfig{Level: "info", Format: "text"},
			Session:  SessionConfig{TTL: time.Minute, SweepInterval: time.Second},
			Datasets: DefaultDatasets(),
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"zero ttl", func(c *Config) { c.Session.TTL = 0 }, "session.ttl"},
		{"duplicate dataset", func(c *Config) { c.Datasets[1].Name = "risk" }, "duplicate"},
		{"no path", func(c *Config) { c.Datasets[0].Path = "" }, "path"},
		{"period and date", func(c *Config) { c.Datasets[0].Columns.Date = "Date" }, "exactly one"},
		{"no period source", func(c *Config) { c.Datasets[1].Columns.Date = "" }, "exactly one"},
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate(): got %v, want error containing %q", err, tt.want)
			}
		})
	}
}
