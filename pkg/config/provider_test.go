package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseYAMLKeepsDefaults(t *testing.T) {
	cfg, err := parseYAML([]byte(`
server:
  listen_addr: "127.0.0.1:9000"
dashboard:
  station: Dongsi
  preferred_year: 2014
session:
  ttl: 2h
`))
	if err != nil {
		t.Fatalf("parseYAML() error = %v", err)
	}

	if cfg.Server.ListenAddr != "127.0.0.1:9000" {
		t.Errorf("ListenAddr = %q, want 127.0.0.1:9000", cfg.Server.ListenAddr)
	}
	if cfg.Dashboard.Station != "Dongsi" {
		t.Errorf("Station = %q, want Dongsi", cfg.Dashboard.Station)
	}
	if cfg.Dashboard.PreferredYear != 2014 {
		t.Errorf("PreferredYear = %d, want 2014", cfg.Dashboard.PreferredYear)
	}
	if cfg.Session.TTL != 2*time.Hour {
		t.Errorf("TTL = %v, want 2h", cfg.Session.TTL)
	}

	// untouched keys keep their defaults
	if cfg.Dashboard.DataFile != "main_data.csv" {
		t.Errorf("DataFile = %q, want main_data.csv", cfg.Dashboard.DataFile)
	}
	if cfg.Dashboard.PreviewRows != 100 {
		t.Errorf("PreviewRows = %d, want 100", cfg.Dashboard.PreviewRows)
	}
	if cfg.Session.CookieName != "pm10dash_session" {
		t.Errorf("CookieName = %q, want pm10dash_session", cfg.Session.CookieName)
	}
}

func TestParseYAMLRejectsUnknownKeys(t *testing.T) {
	if _, err := parseYAML([]byte("dashboard:\n  stashun: typo\n")); err == nil {
		t.Error("expected an error for an unknown key")
	}
}

func TestYAMLProviderMissingFile(t *testing.T) {
	p := NewYAMLProvider(filepath.Join(t.TempDir(), "nope.yaml"))
	if _, err := p.LoadConfig(); err == nil {
		t.Error("expected an error for a missing file")
	}
	if !p.IsReadOnly() {
		t.Error("YAML provider should be read-only")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("PM10DASH_SERVER_LISTEN_ADDR", ":9999")
	t.Setenv("PM10DASH_DASHBOARD_PREVIEW_ROWS", "25")
	t.Setenv("PM10DASH_SESSION_TTL", "90m")

	cfg := Defaults()
	cfg.Dashboard.Station = "Dongsi"
	if err := ApplyEnv(cfg); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}

	if cfg.Server.ListenAddr != ":9999" {
		t.Errorf("ListenAddr = %q, want :9999", cfg.Server.ListenAddr)
	}
	if cfg.Dashboard.PreviewRows != 25 {
		t.Errorf("PreviewRows = %d, want 25", cfg.Dashboard.PreviewRows)
	}
	if cfg.Session.TTL != 90*time.Minute {
		t.Errorf("TTL = %v, want 90m", cfg.Session.TTL)
	}
	if cfg.Dashboard.Station != "Dongsi" {
		t.Errorf("Station = %q; unset variables must not clobber file values", cfg.Dashboard.Station)
	}
}

func TestApplyEnvBadValue(t *testing.T) {
	t.Setenv("PM10DASH_DASHBOARD_PREFERRED_YEAR", "twenty-fifteen")
	if err := ApplyEnv(Defaults()); err == nil {
		t.Error("expected an error for a non-numeric year")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ConfigData)
		wantErr bool
	}{
		{"defaults", func(*ConfigData) {}, false},
		{"port only", func(c *ConfigData) { c.Server.ListenAddr = ":8080" }, false},
		{"missing port", func(c *ConfigData) { c.Server.ListenAddr = "localhost" }, true},
		{"empty data file", func(c *ConfigData) { c.Dashboard.DataFile = "" }, true},
		{"zero preview rows", func(c *ConfigData) { c.Dashboard.PreviewRows = 0 }, true},
		{"cert without key", func(c *ConfigData) { c.Server.Cert = "server.crt" }, true},
		{"cert and key", func(c *ConfigData) { c.Server.Cert, c.Server.Key = "server.crt", "server.key" }, false},
		{"negative ttl", func(c *ConfigData) { c.Session.TTL = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("dashboard:\n  preview_rows: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(NewYAMLProvider(path)); err == nil {
		t.Error("Load() should reject preview_rows: 0")
	}

	t.Setenv("PM10DASH_DASHBOARD_PREVIEW_ROWS", "10")
	cfg, err := Load(NewYAMLProvider(path))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Dashboard.PreviewRows != 10 {
		t.Errorf("PreviewRows = %d, want 10 from the environment", cfg.Dashboard.PreviewRows)
	}
}
