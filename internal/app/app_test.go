package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coredatabase "github.com/groupcal/calbot/core/database"
	"github.com/groupcal/calbot/migrations"

	tele "gopkg.in/telebot.v4"
)

const minimalYAML = `
telegram:
  token: "123:abc"
  admin_ids: [42]
database:
  driver: sqlite
  path: %s
calendar:
  token_file: %s
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, fmt.Sprintf(minimalYAML, filepath.Join(dir, "bot.db"), filepath.Join(dir, "token.json")))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "longpoll", cfg.Telegram.RunMode)
	assert.Equal(t, 1000, cfg.RateLimit.IntervalMS)
	assert.Equal(t, 1, cfg.Database.MaxConnections)
	assert.Equal(t, DefaultLanguage, cfg.I18n.DefaultLanguage)
	assert.Len(t, cfg.I18n.Languages, 2)
	assert.Equal(t, "primary", cfg.Calendar.CalendarID)
	assert.Equal(t, "Europe/Moscow", cfg.Calendar.TimeZone)
	assert.Equal(t, 10, cfg.Calendar.CacheTTLSeconds)
	assert.Contains(t, cfg.AdminSet(), int64(42))
	assert.Same(t, &cfg.Config, cfg.CoreConfig())
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, fmt.Sprintf(minimalYAML, filepath.Join(dir, "bot.db"), filepath.Join(dir, "token.json")))
	t.Setenv("DEFAULT_LANGUAGE", "en")
	t.Setenv("GOOGLE_CLIENT_ID", "client-id")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "en", cfg.I18n.DefaultLanguage)
	assert.Equal(t, "client-id", cfg.Calendar.ClientID)
}

func TestLoadRejectsUnknownDefaultLanguage(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, fmt.Sprintf(minimalYAML, filepath.Join(dir, "bot.db"), filepath.Join(dir, "token.json"))+`
i18n:
  default_language: de
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "de")
}

func TestLoadRequiresTokenFile(t *testing.T) {
	path := writeConfig(t, fmt.Sprintf(minimalYAML, filepath.Join(t.TempDir(), "bot.db"), `""`))
	_, err := Load(path)
	require.Error(t, err)
}

func TestBuildWiresRuntime(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, fmt.Sprintf(minimalYAML, filepath.Join(dir, "bot.db"), filepath.Join(dir, "token.json")))
	cfg, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, coredatabase.RunMigrations(cfg.Database, migrations.FS))
	db, err := coredatabase.Connect(context.Background(), cfg.Database, time.Second)
	require.NoError(t, err)

	a, err := build(cfg, db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	opts, err := a.TelegramRunOptions()
	require.NoError(t, err)

	var names []string
	for _, mw := range opts.Middlewares {
		names = append(names, mw.Name)
	}
	assert.Equal(t, []string{"recover", "logger", "rate_limit", "metrics", "session"}, names)

	endpoints := map[any]bool{}
	for _, r := range opts.Routes {
		endpoints[r.Endpoint] = true
	}
	for _, want := range []string{"/start", "/help", "/calendar", "/stats", "/broadcast", tele.OnText, tele.OnCallback} {
		assert.True(t, endpoints[want], want)
	}
	assert.NotNil(t, opts.OnStart)
}
