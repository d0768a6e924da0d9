package config

import (
	"fmt"
	"os"
	"strings"
)

// Config keeps runtime settings for the bot.
type Config struct {
	TelegramToken string
	DatabaseURL   string
	ReportTime    string // HH:MM local time for the evening report
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		TelegramToken: strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		ReportTime:    strings.TrimSpace(os.Getenv("REPORT_TIME")),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "time_ledger.db"
	}

	if cfg.ReportTime == "" {
		cfg.ReportTime = "21:00"
	}

	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	return cfg, nil
}
