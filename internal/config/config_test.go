package config

import "testing"

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Addr != ":8080" {
		t.Errorf("expected default addr :8080, got %s", cfg.Addr)
	}
	if cfg.DatabasePath != "dealhub.db" {
		t.Errorf("expected default database path dealhub.db, got %s", cfg.DatabasePath)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level info, got %s", cfg.LogLevel)
	}
}

func TestTelegramEnabled(t *testing.T) {
	cfg := Default()
	if cfg.TelegramEnabled() {
		t.Error("expected telegram disabled without a token")
	}

	cfg.TelegramToken = "123:abc"
	if !cfg.TelegramEnabled() {
		t.Error("expected telegram enabled with a token")
	}
}
