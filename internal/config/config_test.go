package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, []string{"BTC-USDT", "ETH-USDT", "XRP-USDT"}, cfg.DataSource.Symbols)
	assert.Equal(t, map[string]float64{"1": 40, "2": 70}, cfg.Plans)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "0 */5 * * * *", cfg.Schedule.TickCron)
	assert.Equal(t, "0 0 4 * * *", cfg.Schedule.DailyCron)
	assert.Equal(t, "data/signal_sentry.db", cfg.Database.SQLitePath)
}

func TestLoad_FromYAML(t *testing.T) {
	path := writeConfig(t, `
telegram:
  bot_token: tg-token
payments:
  api_key: np-key
  ipn_secret: np-secret
  callback_url: https://bot.example/ipn
server:
  port: 8080
data_source:
  symbols: ["SOL-USDT"]
plans:
  "1": 25
database:
  sqlite_path: /tmp/bot.db
  analytics_path: /tmp/analytics.db
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tg-token", cfg.Telegram.BotToken)
	assert.Equal(t, "np-key", cfg.Payments.APIKey)
	assert.Equal(t, "np-secret", cfg.Payments.IPNSecret)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"SOL-USDT"}, cfg.DataSource.Symbols)
	assert.Equal(t, map[string]float64{"1": 25}, cfg.Plans)
	assert.Equal(t, "/tmp/analytics.db", cfg.Database.AnalyticsPath)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
telegram:
  bot_token: from-file
server:
  port: 8080
`)
	t.Setenv("TELEGRAM_TOKEN", "from-env")
	t.Setenv("NOWPAYMENTS_API_KEY", "env-key")
	t.Setenv("NOWPAYMENTS_IPN_SECRET", "env-secret")
	t.Setenv("PORT", "9090")
	t.Setenv("SQLITE_PATH", "/tmp/env.db")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Telegram.BotToken)
	assert.Equal(t, "env-key", cfg.Payments.APIKey)
	assert.Equal(t, "env-secret", cfg.Payments.IPNSecret)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/tmp/env.db", cfg.Database.SQLitePath)
}

func TestLoad_BadPortEnvIgnored(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bot_token")

	cfg.Telegram.BotToken = "t"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key")

	cfg.Payments.APIKey = "k"
	cfg.Payments.IPNSecret = "s"
	assert.NoError(t, cfg.Validate())

	cfg.Plans["1"] = -1
	assert.Error(t, cfg.Validate())
}
