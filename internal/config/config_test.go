package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OISentinel/internal/strategy"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultSourceURL, cfg.Source.URL)
	assert.Equal(t, "p", cfg.Source.PageParam)
	assert.Equal(t, 30*time.Second, cfg.Source.Timeout)
	assert.Equal(t, "Open Interest Change % 24H", cfg.Source.OI24hTitle)
	assert.Equal(t, "file", cfg.History.Backend)
	assert.Equal(t, "data/coinanalyzer-cache.json", cfg.History.Path)
	assert.Equal(t, strategy.DefaultThresholds, cfg.Thresholds)
	assert.Equal(t, 3, cfg.Notify.MaxRetries)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Schedule.Cron)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
telegram:
  bot_token: file-token
  group_chat_id: -1001
  private_chat_id: 7
source:
  timeout: 10s
  max_pages: 20
thresholds:
  critical_24h: 300
history:
  backend: sqlite
schedule:
  cron: "0 */15 * * * *"
`)
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("TELEGRAM_PRIVATE_CHAT_ID", "99")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Telegram.BotToken)
	assert.Equal(t, int64(-1001), cfg.Telegram.GroupChatID)
	assert.Equal(t, int64(99), cfg.Telegram.PrivateChatID)
	assert.Equal(t, 10*time.Second, cfg.Source.Timeout)
	assert.Equal(t, 20, cfg.Source.MaxPages)
	assert.Equal(t, 300.0, cfg.Thresholds.Critical24h)
	// thresholds not in the file keep their defaults
	assert.Equal(t, 70.0, cfg.Thresholds.NotableRise24h)
	assert.Equal(t, "data/oi_sentinel.db", cfg.History.Path)
	assert.Equal(t, "0 */15 * * * *", cfg.Schedule.Cron)

	require.NoError(t, cfg.Validate())
}

func TestLoad_ZeroRetriesAndQueueKept(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
notify:
  async: true
  queue_size: 0
  max_retries: 0
`))
	require.NoError(t, err)
	assert.True(t, cfg.Notify.Async)
	assert.Equal(t, 0, cfg.Notify.MaxRetries)
	assert.Equal(t, 0, cfg.Notify.QueueSize)

	cfg, err = Load(writeConfig(t, "notify:\n  async: true\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Notify.MaxRetries)
	assert.Equal(t, 64, cfg.Notify.QueueSize)
}

func TestLoad_BadChatID(t *testing.T) {
	t.Setenv("TELEGRAM_GROUP_CHAT_ID", "group")
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "telegram: [oops"))
	assert.Error(t, err)
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	cfg.Telegram.BotToken = "token"
	cfg.Telegram.GroupChatID = -1
	cfg.Telegram.PrivateChatID = 1
	return cfg
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig(t).Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing token", func(c *Config) { c.Telegram.BotToken = "" }},
		{"missing private chat", func(c *Config) { c.Telegram.PrivateChatID = 0 }},
		{"bad backend", func(c *Config) { c.History.Backend = "gcs" }},
		{"bad url", func(c *Config) { c.Source.URL = "not a url" }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
		{"negative max pages", func(c *Config) { c.Source.MaxPages = -1 }},
		{"inverted tiers", func(c *Config) { c.Thresholds.NotableRise24h = 500 }},
		{"zero escalation", func(c *Config) { c.Thresholds.Escalation4h = 0 }},
	}
	for _, tt := range tests {
		cfg := validConfig(t)
		tt.mutate(cfg)
		assert.Error(t, cfg.Validate(), tt.name)
	}
}
