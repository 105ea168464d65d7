package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(databaseDSNEnv, "")

	cfg := Load()

	if cfg.Scheduler.CronExpression != "0 */6 * * *" {
		t.Errorf("cron = %q", cfg.Scheduler.CronExpression)
	}
	if cfg.Collector.NameOnlyWindowDays != 90 {
		t.Errorf("name-only window = %d", cfg.Collector.NameOnlyWindowDays)
	}
	if cfg.Collector.MinImageBytes != 15360 {
		t.Errorf("min image bytes = %d", cfg.Collector.MinImageBytes)
	}
	if got := cfg.Collector.Budget(); got != 2*time.Hour {
		t.Errorf("budget = %v", got)
	}
	if len(cfg.Sources) == 0 {
		t.Fatal("expected default sources")
	}
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	raw := `
scheduler:
  cronExpression: "30 4 * * *"
collector:
  banPatterns: ["*-tabloid"]
  listingOnly: true
  maxAgeDays: 3
logging:
  level: debug
sources:
  - slug: lougheed-chapel
    family: chapel
    baseUrl: https://lougheed.example.com/obituaries
    pageBudget: 2
    minInterval: 5s
    enabled: true
    cityHint: Sudbury
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(configPathEnv, path)
	t.Setenv(databaseDSNEnv, "postgres://env-wins@localhost/obits")

	cfg := Load()

	if cfg.Database.DSN != "postgres://env-wins@localhost/obits" {
		t.Errorf("dsn = %q", cfg.Database.DSN)
	}
	if cfg.Scheduler.CronExpression != "30 4 * * *" {
		t.Errorf("cron = %q", cfg.Scheduler.CronExpression)
	}
	if !cfg.Collector.ListingOnly {
		t.Error("listingOnly not applied")
	}
	if cfg.Collector.MaxAgeDays != 3 {
		t.Errorf("maxAgeDays = %d", cfg.Collector.MaxAgeDays)
	}
	// Untouched keys keep their defaults.
	if cfg.Collector.DisableAfterFailures != 5 {
		t.Errorf("disableAfterFailures = %d", cfg.Collector.DisableAfterFailures)
	}
	if len(cfg.Sources) != 1 || cfg.Sources[0].Slug != "lougheed-chapel" {
		t.Fatalf("sources = %+v", cfg.Sources)
	}
}

func TestToSourceDefaults(t *testing.T) {
	src := SourceConfig{Slug: " lougheed-chapel ", Family: "chapel", BaseURL: "https://x.example.com", Enabled: true}.ToSource()

	if src.Slug != "lougheed-chapel" {
		t.Errorf("slug = %q", src.Slug)
	}
	if src.PageBudget != 3 {
		t.Errorf("page budget = %d", src.PageBudget)
	}
	if src.MinInterval != 2*time.Second {
		t.Errorf("min interval = %v", src.MinInterval)
	}
}

func TestBudgetFallsBackOnGarbage(t *testing.T) {
	if got := (CollectorConfig{RunBudget: "soon"}).Budget(); got != 2*time.Hour {
		t.Errorf("budget = %v", got)
	}
}
