package config_test

import (
	"path/filepath"
	"testing"

	"github.com/jihwankim/precice-case-generate/pkg/config"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := config.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}
}

func TestLoadMissingPathReturnsDefaults(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}
	if len(cfg.CaseGen.UniquifierPool) != len(config.DefaultUniquifierPool) {
		t.Errorf("expected default uniquifier pool, got %d entries", len(cfg.CaseGen.UniquifierPool))
	}

	cfg2, err := config.Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load on a nonexistent file should fall back to defaults, got: %v", err)
	}
	if cfg2.CaseGen.MaxIterations != cfg.CaseGen.MaxIterations {
		t.Error("nonexistent config file should yield the same defaults")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.CaseGen.MaxTime = 5.0
	cfg.Validator.Enabled = false

	path := filepath.Join(t.TempDir(), "tool-config.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.CaseGen.MaxTime != 5.0 {
		t.Errorf("MaxTime = %v, want 5.0", loaded.CaseGen.MaxTime)
	}
	if loaded.Validator.Enabled {
		t.Error("Validator.Enabled should round-trip as false")
	}
}

func TestValidateRejectsEmptyUniquifierPool(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.CaseGen.UniquifierPool = nil
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error for an empty uniquifier pool")
	}
}

func TestValidateRejectsNonPositiveLayoutBudgets(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.CaseGen.LineWrapWidth = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error for a zero line_wrap_width")
	}

	cfg = config.DefaultConfig()
	cfg.CaseGen.AttributeWrapThreshold = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error for a negative attribute_wrap_threshold")
	}
}

func TestValidateRejectsNegativeKeepLastN(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Reporting.KeepLastN = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error for a negative reporting.keep_last_n")
	}
}
