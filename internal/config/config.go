package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"server"`
	Tables struct {
		Path string `yaml:"path"`
	} `yaml:"tables"`
	Database struct {
		SQLitePath  string `yaml:"sqlite_path"`
		PostgresURL string `yaml:"postgres_url"`
	} `yaml:"database"`
	Cache struct {
		RedisAddr  string `yaml:"redis_addr"`
		TTLMinutes int    `yaml:"ttl_minutes"`
	} `yaml:"cache"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		DigestCron string `yaml:"digest_cron"`
		PruneCron  string `yaml:"prune_cron"`
	} `yaml:"schedule"`
	Retention struct {
		Days int `yaml:"days"`
	} `yaml:"retention"`
	Batch struct {
		Workers int `yaml:"workers"`
	} `yaml:"batch"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	envString("LISTEN_ADDR", &cfg.Server.ListenAddr)
	envString("TABLES_PATH", &cfg.Tables.Path)
	envString("SQLITE_PATH", &cfg.Database.SQLitePath)
	envString("DATABASE_URL", &cfg.Database.PostgresURL)
	envString("REDIS_ADDR", &cfg.Cache.RedisAddr)
	envString("TELEGRAM_BOT_TOKEN", &cfg.Telegram.BotToken)
	envString("TELEGRAM_CHAT_ID", &cfg.Telegram.ChatID)
	envString("CRON_DIGEST", &cfg.Schedule.DigestCron)
	envString("CRON_PRUNE", &cfg.Schedule.PruneCron)
	envString("HTTPS_PROXY", &cfg.Proxy)
	if err := envInt("CACHE_TTL_MINUTES", &cfg.Cache.TTLMinutes); err != nil {
		return nil, err
	}
	if err := envInt("RETENTION_DAYS", &cfg.Retention.Days); err != nil {
		return nil, err
	}
	if err := envInt("BATCH_WORKERS", &cfg.Batch.Workers); err != nil {
		return nil, err
	}

	// Defaults
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/deal_sentinel.db"
	}
	if cfg.Cache.TTLMinutes == 0 {
		cfg.Cache.TTLMinutes = 1440
	}
	if cfg.Schedule.DigestCron == "" {
		cfg.Schedule.DigestCron = "0 0 8 * * *"
	}
	if cfg.Schedule.PruneCron == "" {
		cfg.Schedule.PruneCron = "0 30 3 * * 0"
	}
	if cfg.Retention.Days == 0 {
		cfg.Retention.Days = 180
	}
	if cfg.Batch.Workers == 0 {
		cfg.Batch.Workers = 4
	}

	return cfg, nil
}

// Validate checks that the loaded values are usable.
func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.Server.ListenAddr); err != nil {
		return fmt.Errorf("server.listen_addr %q: %w", c.Server.ListenAddr, err)
	}
	if c.Cache.TTLMinutes < 0 {
		return fmt.Errorf("cache.ttl_minutes must not be negative")
	}
	if c.Retention.Days < 0 {
		return fmt.Errorf("retention.days must not be negative")
	}
	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be at least 1")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// TelegramEnabled reports whether alerts and commands are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// CacheTTL returns the cache entry lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLMinutes) * time.Minute
}

// RetentionPeriod returns how long evaluations are kept.
func (c *Config) RetentionPeriod() time.Duration {
	return time.Duration(c.Retention.Days) * 24 * time.Hour
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return fmt.Errorf("parse %s=%q: %w", key, v, err)
	}
	*dst = n
	return nil
}
