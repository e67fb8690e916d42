package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"OISentinel/internal/strategy"
)

// DefaultSourceURL is the coinalyze screener filtered and ordered by 24h open interest change.
const DefaultSourceURL = "https://coinalyze.net/?filter=bl9ndF8zMDAwMDAwMA&columns=YiZuJmMmZCZlJnMmZyZoJnImaiZxJmwmbQ&order_by=oi_24h_pchange&order_dir=desc"

// Config holds all application configuration. It is built once at startup
// and not modified afterwards.
type Config struct {
	Telegram struct {
		BotToken      string `yaml:"bot_token" validate:"required"`
		GroupChatID   int64  `yaml:"group_chat_id" validate:"required"`
		PrivateChatID int64  `yaml:"private_chat_id" validate:"required"`
	} `yaml:"telegram"`
	Source struct {
		URL               string        `yaml:"url" validate:"required,url"`
		PageParam         string        `yaml:"page_param" validate:"required"`
		UserAgent         string        `yaml:"user_agent"`
		Timeout           time.Duration `yaml:"timeout" validate:"gt=0"`
		RequestsPerSecond float64       `yaml:"requests_per_second" validate:"gte=0"`
		MaxPages          int           `yaml:"max_pages" validate:"gte=0"`
		OI24hTitle        string        `yaml:"oi_24h_title" validate:"required"`
		OI4hTitle         string        `yaml:"oi_4h_title" validate:"required"`
	} `yaml:"source"`
	Thresholds strategy.Thresholds `yaml:"thresholds"`
	History    struct {
		Backend string `yaml:"backend" validate:"oneof=file sqlite badger memory"`
		Path    string `yaml:"path" validate:"required_unless=Backend memory"`
		Key     string `yaml:"key" validate:"required_if=Backend badger"`
	} `yaml:"history"`
	Notify struct {
		Async      bool `yaml:"async"`
		QueueSize  int  `yaml:"queue_size" validate:"gte=0"`
		MaxRetries int  `yaml:"max_retries" validate:"gte=0"`
	} `yaml:"notify"`
	Schedule struct {
		Cron string `yaml:"cron"` // empty runs once and exits
	} `yaml:"schedule"`
	Proxy    string `yaml:"proxy"`
	LogLevel string `yaml:"log_level" validate:"oneof=trace debug info warn error"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	// Set before parsing so an explicit 0 in the file is kept.
	cfg := &Config{Thresholds: strategy.DefaultThresholds}
	cfg.Notify.QueueSize = 64
	cfg.Notify.MaxRetries = 3

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
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if err := envInt64("TELEGRAM_GROUP_CHAT_ID", &cfg.Telegram.GroupChatID); err != nil {
		return nil, err
	}
	if err := envInt64("TELEGRAM_PRIVATE_CHAT_ID", &cfg.Telegram.PrivateChatID); err != nil {
		return nil, err
	}
	if v := os.Getenv("SOURCE_URL"); v != "" {
		cfg.Source.URL = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("HISTORY_BACKEND"); v != "" {
		cfg.History.Backend = v
	}
	if v := os.Getenv("HISTORY_PATH"); v != "" {
		cfg.History.Path = v
	}
	if v := os.Getenv("SCHEDULE_CRON"); v != "" {
		cfg.Schedule.Cron = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	// Defaults
	if cfg.Source.URL == "" {
		cfg.Source.URL = DefaultSourceURL
	}
	if cfg.Source.PageParam == "" {
		cfg.Source.PageParam = "p"
	}
	if cfg.Source.UserAgent == "" {
		cfg.Source.UserAgent = "Mozilla/5.0"
	}
	if cfg.Source.Timeout == 0 {
		cfg.Source.Timeout = 30 * time.Second
	}
	if cfg.Source.RequestsPerSecond == 0 {
		cfg.Source.RequestsPerSecond = 1
	}
	if cfg.Source.OI24hTitle == "" {
		cfg.Source.OI24hTitle = "Open Interest Change % 24H"
	}
	if cfg.Source.OI4hTitle == "" {
		cfg.Source.OI4hTitle = "Open Interest Change % 4H"
	}
	if cfg.History.Backend == "" {
		cfg.History.Backend = "file"
	}
	if cfg.History.Path == "" {
		switch cfg.History.Backend {
		case "sqlite":
			cfg.History.Path = "data/oi_sentinel.db"
		case "badger":
			cfg.History.Path = "data/badger"
		default:
			cfg.History.Path = "data/coinanalyzer-cache.json"
		}
	}
	if cfg.History.Key == "" {
		cfg.History.Key = "coinanalyzer-cache"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

func envInt64(key string, dst *int64) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*dst = n
	return nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	t := c.Thresholds
	if t.NotableRise24h >= t.Critical24h {
		return fmt.Errorf("thresholds.notable_rise_24h must be below thresholds.critical_24h")
	}
	if t.Escalation4h <= 0 {
		return fmt.Errorf("thresholds.escalation_4h must be positive")
	}
	return nil
}
