package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formwizard/pkg/validation"
)

func envMap(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestParseOverlaysDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader(`
server:
  addr: "127.0.0.1:9000"
  base_path: /wizard/
storage:
  driver: sqlite
  dsn: "file:slots.db"
lookup:
  source: live
  cache_ttl: 30m
wizard:
  display_formatting: formatted
  reset_on_confirm: true
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	want := Default()
	want.Server.Addr = "127.0.0.1:9000"
	want.Server.BasePath = "/wizard"
	want.Storage.Driver = DriverSQLite
	want.Storage.DSN = "file:slots.db"
	want.Lookup.Source = SourceLive
	want.Lookup.CacheTTL = 30 * time.Minute
	want.Wizard.Formatting = validation.FormattingFormatted
	want.Wizard.ResetOnConfirm = true
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	if _, err := Parse(strings.NewReader("storage:\n  drivr: redis\n")); err == nil {
		t.Fatalf("expected unknown key error")
	}
	cfg, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("empty input should yield defaults: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	cfg.ApplyEnv(envMap(map[string]string{
		"FORMWIZARD_ADDR":               ":9999",
		"FORMWIZARD_STORAGE_DRIVER":     "redis",
		"FORMWIZARD_REDIS_URL":          "redis://localhost:6379/0",
		"FORMWIZARD_STORAGE_TTL":        "2h",
		"RAPIDAPI_KEY":                  "fallback",
		"FORMWIZARD_DISPLAY_FORMATTING": "formatted",
		"FORMWIZARD_STRICT_LOCATION":    "true",
		"FORMWIZARD_LOG_FORMAT":         "json",
		"FORMWIZARD_SESSION_TTL":        "ignored",
	}))

	if cfg.Server.Addr != ":9999" || cfg.Storage.Driver != DriverRedis || cfg.Storage.TTL != 2*time.Hour {
		t.Fatalf("unexpected overrides: %#v", cfg)
	}
	if cfg.Lookup.APIKey != "fallback" {
		t.Fatalf("expected RAPIDAPI_KEY fallback, got %q", cfg.Lookup.APIKey)
	}
	if cfg.Wizard.Formatting != validation.FormattingFormatted || !cfg.Wizard.StrictLocation {
		t.Fatalf("wizard overrides not applied: %#v", cfg.Wizard)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	cfg.ApplyEnv(envMap(map[string]string{
		"RAPIDAPI_KEY":              "fallback",
		"FORMWIZARD_LOOKUP_API_KEY": "primary",
	}))
	if cfg.Lookup.APIKey != "primary" {
		t.Fatalf("FORMWIZARD_LOOKUP_API_KEY should win, got %q", cfg.Lookup.APIKey)
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := Default()
	cfg.Storage.Driver = "postgres"
	cfg.Lookup.Source = "carrier-pigeon"
	cfg.Wizard.Formatting = "fancy"
	cfg.Logging.Level = "loud"
	cfg.Session.Secret = " "

	err := cfg.Validate()
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	for _, fragment := range []string{"storage.dsn", "lookup.source", "display_formatting", "logging.level", "session.secret"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Errorf("missing %q in %v", fragment, err)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "formwizard.yaml")
	if err := os.WriteFile(path, []byte("storage:\n  driver: file\n  dir: "+dir+"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("FORMWIZARD_LOG_LEVEL", "DEBUG")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != DriverFile || cfg.Storage.Dir != dir || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected config: %#v", cfg)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("an explicit missing file should fail")
	}
}
