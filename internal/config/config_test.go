package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := validate(Default()); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
data_dir: /srv/dfe
starts_min_threshold: 5
always_show_providers: ["SOME PROVIDER"]
adjustments:
  SOME PROVIDER:
    "2024-25 Q1": 2
excluded_providers: []
fields:
  provider_name: provider
watch:
  debounce_ms: 250
  reports: [starts]
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataDir != "/srv/dfe" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.StartsMinThreshold != 5 {
		t.Errorf("StartsMinThreshold = %d", cfg.StartsMinThreshold)
	}
	if len(cfg.AlwaysShowProviders) != 1 || cfg.AlwaysShowProviders[0] != "SOME PROVIDER" {
		t.Errorf("AlwaysShowProviders = %v", cfg.AlwaysShowProviders)
	}
	if got := cfg.Adjustments["SOME PROVIDER"]["2024-25 Q1"]; got != 2 {
		t.Errorf("adjustment = %d", got)
	}
	if len(cfg.ExcludedProviders) != 0 {
		t.Errorf("ExcludedProviders should be overridable to empty, got %v", cfg.ExcludedProviders)
	}
	if cfg.Fields.ProviderName != "provider" {
		t.Errorf("Fields.ProviderName = %q", cfg.Fields.ProviderName)
	}
	if cfg.Fields.Year != "year" {
		t.Errorf("unset fields keep defaults, Year = %q", cfg.Fields.Year)
	}
	if cfg.Watch.DebounceMS != 250 {
		t.Errorf("DebounceMS = %d", cfg.Watch.DebounceMS)
	}
	if cfg.Watch.Format != "markdown" {
		t.Errorf("unset watch format keeps default, got %q", cfg.Watch.Format)
	}
}

func TestLoadEnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("default_standard_code: ST0999\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("APP_DATA_STANDARD_CODE", "ST0116")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DefaultStandardCode != "ST0116" {
		t.Errorf("DefaultStandardCode = %q, want env value", cfg.DefaultStandardCode)
	}
}

func TestLoadStrictFailsOnBrokenFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("{invalid"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("APP_DATA_STRICT_CONFIG", "1")

	if _, err := Load(path); err == nil {
		t.Fatal("expected strict mode to surface the parse error")
	}
}

func TestLoadLenientIgnoresMissingFile(t *testing.T) {
	t.Setenv("APP_DATA_STRICT_CONFIG", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("lenient load should not fail: %v", err)
	}
	if cfg.DefaultStandardCode != "ST0116" {
		t.Errorf("expected defaults, got %q", cfg.DefaultStandardCode)
	}
}
