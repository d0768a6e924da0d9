package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "token-123")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REPORT_TIME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DatabaseURL != "time_ledger.db" {
		t.Errorf("DatabaseURL = %q, want default time_ledger.db", cfg.DatabaseURL)
	}
	if cfg.ReportTime != "21:00" {
		t.Errorf("ReportTime = %q, want default 21:00", cfg.ReportTime)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", " token-123 ")
	t.Setenv("DATABASE_URL", "data/ledger.db")
	t.Setenv("REPORT_TIME", "22:30")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TelegramToken != "token-123" {
		t.Errorf("TelegramToken = %q, want trimmed token-123", cfg.TelegramToken)
	}
	if cfg.DatabaseURL != "data/ledger.db" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.ReportTime != "22:30" {
		t.Errorf("ReportTime = %q", cfg.ReportTime)
	}
}

func TestLoad_MissingToken(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REPORT_TIME", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing TELEGRAM_TOKEN")
	}
}
