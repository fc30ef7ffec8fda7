package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("listen addr = %q", cfg.Server.ListenAddr)
	}
	if cfg.CacheTTL() != 24*time.Hour {
		t.Errorf("cache ttl = %v", cfg.CacheTTL())
	}
	if cfg.RetentionPeriod() != 180*24*time.Hour {
		t.Errorf("retention = %v", cfg.RetentionPeriod())
	}
	if cfg.Batch.Workers != 4 || cfg.Schedule.DigestCron != "0 0 8 * * *" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.TelegramEnabled() {
		t.Error("telegram should be disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_addr: "127.0.0.1:9000"
cache:
  redis_addr: "localhost:6379"
  ttl_minutes: 30
batch:
  workers: 8
`)
	t.Setenv("BATCH_WORKERS", "2")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/deals")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.ListenAddr != "127.0.0.1:9000" || cfg.Cache.RedisAddr != "localhost:6379" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.CacheTTL() != 30*time.Minute {
		t.Errorf("cache ttl = %v", cfg.CacheTTL())
	}
	if cfg.Batch.Workers != 2 {
		t.Errorf("expected env override 2 workers, got %d", cfg.Batch.Workers)
	}
	if cfg.Database.PostgresURL == "" {
		t.Error("expected DATABASE_URL override")
	}
}

func TestLoad_BadEnvInt(t *testing.T) {
	t.Setenv("RETENTION_DAYS", "forever")
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for non-numeric RETENTION_DAYS")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad listen addr", func(c *Config) { c.Server.ListenAddr = "8080" }},
		{"negative ttl", func(c *Config) { c.Cache.TTLMinutes = -1 }},
		{"negative retention", func(c *Config) { c.Retention.Days = -5 }},
		{"no workers", func(c *Config) { c.Batch.Workers = 0 }},
		{"token without chat", func(c *Config) { c.Telegram.BotToken = "abc" }},
		{"chat without token", func(c *Config) { c.Telegram.ChatID = "42" }},
	}
	for _, tt := range tests {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		tt.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}
