package config

import (
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_DSN", "host=localhost user=test password=test dbname=test port=5432 sslmode=disable")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.APIPort != 8080 {
		t.Errorf("APIPort = %d, want 8080", cfg.APIPort)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %s, want info", cfg.LogLevel)
	}
	if cfg.FirstCutoffHour != 8 {
		t.Errorf("FirstCutoffHour = %d, want 8", cfg.FirstCutoffHour)
	}
	if cfg.SecondCutoffHour != 12 {
		t.Errorf("SecondCutoffHour = %d, want 12", cfg.SecondCutoffHour)
	}
	if cfg.TZOffsetHours != 3 {
		t.Errorf("TZOffsetHours = %d, want 3", cfg.TZOffsetHours)
	}
	if !cfg.SchedulerEnabled {
		t.Error("SchedulerEnabled should default to true")
	}
	if cfg.BillNumberTemplate != "DB-{YY}{MM}-{SEQ5}" {
		t.Errorf("BillNumberTemplate = %s, want DB-{YY}{MM}-{SEQ5}", cfg.BillNumberTemplate)
	}
	if cfg.DefaultFirm != "general" {
		t.Errorf("DefaultFirm = %s, want general", cfg.DefaultFirm)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("API_PORT", "9090")
	t.Setenv("FIRST_CUTOFF_HOUR", "7")
	t.Setenv("SECOND_CUTOFF_HOUR", "13")
	t.Setenv("SCHEDULER_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.APIPort != 9090 {
		t.Errorf("APIPort = %d, want 9090", cfg.APIPort)
	}
	if cfg.FirstCutoffHour != 7 {
		t.Errorf("FirstCutoffHour = %d, want 7", cfg.FirstCutoffHour)
	}
	if cfg.SecondCutoffHour != 13 {
		t.Errorf("SecondCutoffHour = %d, want 13", cfg.SecondCutoffHour)
	}
	if cfg.SchedulerEnabled {
		t.Error("SchedulerEnabled should be false")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_DSN", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing required env vars, got nil")
	}
}

func TestLoad_RejectsInvalidCutoffs(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("FIRST_CUTOFF_HOUR", "14")
	t.Setenv("SECOND_CUTOFF_HOUR", "12")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for inverted cutoff hours")
	}
}

func TestLoad_RejectsInvalidOffset(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TZ_OFFSET_HOURS", "20")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for out-of-range offset")
	}
}

func TestFirmsByCategory(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("FIRM_CATEGORY_MAP", "dairy=lacto, Greens=verde")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	firms, err := cfg.FirmsByCategory()
	if err != nil {
		t.Fatalf("FirmsByCategory() error = %v", err)
	}
	if firms["dairy"] != "lacto" {
		t.Errorf("dairy firm = %s, want lacto", firms["dairy"])
	}
	if firms["greens"] != "verde" {
		t.Errorf("greens firm = %s, want verde (keys are lowercased)", firms["greens"])
	}
}

func TestFirmsByCategoryRejectsMalformedPair(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("FIRM_CATEGORY_MAP", "dairy")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed mapping")
	}
}
