package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stock-analyst/internal/analysis"
)

func TestLoadCreatesTemplateOnMissing(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(dir)
	if err == nil {
		t.Fatal("expected error on first load with no config file")
	}
	if !strings.Contains(err.Error(), "created template") {
		t.Fatalf("expected template creation notice, got: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "config.toml")); err != nil {
		t.Fatalf("template was not written: %v", err)
	}

	// Second load reads the template and succeeds with defaults.
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load after template creation: %v", err)
	}
	if cfg.Indicators.SMAShort != 20 || cfg.Indicators.SMALong != 50 {
		t.Errorf("unexpected SMA defaults: %d/%d", cfg.Indicators.SMAShort, cfg.Indicators.SMALong)
	}
	if cfg.Model.Trees != 100 {
		t.Errorf("Model.Trees = %d, want 100", cfg.Model.Trees)
	}
	if cfg.Store.Path == "" {
		t.Error("Store.Path default not applied")
	}
}

func TestLoadMergesPartialFile(t *testing.T) {
	dir := t.TempDir()
	partial := "[model]\ntrees = 25\n\n[levels]\ntolerance = 0.02\n"
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(partial), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Model.Trees != 25 {
		t.Errorf("Model.Trees = %d, want 25 from file", cfg.Model.Trees)
	}
	if cfg.Levels.Tolerance != 0.02 {
		t.Errorf("Levels.Tolerance = %g, want 0.02 from file", cfg.Levels.Tolerance)
	}
	// Untouched sections keep their defaults.
	if cfg.Model.MaxDepth != 10 {
		t.Errorf("Model.MaxDepth = %d, want default 10", cfg.Model.MaxDepth)
	}
	if cfg.Scoring.BuyThreshold != 0.20 {
		t.Errorf("Scoring.BuyThreshold = %g, want default 0.20", cfg.Scoring.BuyThreshold)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(""), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("STOCK_ANALYST_DB", "/tmp/override.db")
	t.Setenv("STOCK_ANALYST_LOG_LEVEL", "debug")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Path != "/tmp/override.db" {
		t.Errorf("Store.Path = %q, want env override", cfg.Store.Path)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want env override", cfg.Logging.Level)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *Config)
	}{
		{"bad log level", func(cfg *Config) { cfg.Logging.Level = "loud" }},
		{"empty store path", func(cfg *Config) { cfg.Store.Path = "" }},
		{"zero trees", func(cfg *Config) { cfg.Model.Trees = 0 }},
		{"inverted thresholds", func(cfg *Config) {
			cfg.Scoring.BuyThreshold = -0.5
			cfg.Scoring.SellThreshold = 0.5
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadDefaults(t)
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestEngineMappingBuildsAnalyzer(t *testing.T) {
	cfg := loadDefaults(t)

	engineCfg := cfg.Engine()
	if engineCfg.Trend.ShortPeriod != cfg.Indicators.SMAShort {
		t.Errorf("Trend.ShortPeriod = %d, want %d", engineCfg.Trend.ShortPeriod, cfg.Indicators.SMAShort)
	}
	if engineCfg.Features.Horizon != cfg.Model.Horizon {
		t.Errorf("Features.Horizon = %d, want %d", engineCfg.Features.Horizon, cfg.Model.Horizon)
	}
	if engineCfg.Scoring.Weights.Trend != cfg.Scoring.TrendWeight {
		t.Errorf("Scoring weight mismatch: %g", engineCfg.Scoring.Weights.Trend)
	}

	// The mapped config must pass the analyzer's eager validation.
	if _, err := analysis.New(engineCfg); err != nil {
		t.Fatalf("analysis.New rejected mapped defaults: %v", err)
	}
}

func TestInit(t *testing.T) {
	dir := t.TempDir()

	path, err := Init(dir, false)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if filepath.Base(path) != "config.toml" {
		t.Errorf("unexpected template path %q", path)
	}

	if _, err := Init(dir, false); err == nil {
		t.Error("expected error when config already exists")
	}

	if _, err := Init(dir, true); err != nil {
		t.Errorf("Init with force: %v", err)
	}
}

func loadDefaults(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(""), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load defaults: %v", err)
	}
	return cfg
}
