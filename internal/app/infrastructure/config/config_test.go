package config

import (
	"encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func readFile(t *testing.T, path string) Config {
	t.Helper()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var cfg Config
	require.NoError(t, json.Unmarshal(raw, &cfg))
	return cfg
}

func TestNew_WritesDefaultWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	m, err := New(path)
	require.NoError(t, err)

	cfg := m.Get()
	assert.Equal(t, "irc.chat.twitch.tv", cfg.IRC.Host)
	assert.Equal(t, 6697, cfg.IRC.Port)
	assert.Equal(t, 30*time.Second, cfg.IRC.ReconnectDelay)
	assert.Equal(t, "!", cfg.Commands.Trigger)
	assert.Equal(t, Level(RoleModerator), cfg.Commands.Rules["ping"].Role)

	onDisk := readFile(t, path)
	assert.Equal(t, cfg.IRC.Host, onDisk.IRC.Host)
}

func TestNew_RejectsInvalidFile(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "broken json", body: `{"irc": `},
		{name: "bad transport", body: `{"irc": {"host": "h", "transport": "pigeon"}}`},
		{name: "no host", body: `{"irc": {"transport": "tls"}}`},
		{name: "long trigger", body: `{"irc": {"host": "h"}, "commands": {"trigger": "!!"}}`},
		{name: "role out of range", body: `{"irc": {"host": "h"}, "commands": {"rules": {"ping": {"role": 7}}}}`},
		{name: "half limiter", body: `{"irc": {"host": "h"}, "limiter": {"requests": 3}}`},
		{name: "bad log level", body: `{"app": {"log_level": "loud"}, "irc": {"host": "h"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0644))

			_, err := New(path)
			assert.Error(t, err)
		})
	}
}

func TestNew_FillsOptionalDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"irc": {"host": "h"}}`), 0644))

	m, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, "!", m.Get().Commands.Trigger)
	assert.NotNil(t, m.Get().Commands.Rules)
}

func TestNew_RuleWithoutRoleKeepsRoleUnset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"irc": {"host": "h"}, "commands": {"rules": {"say": {"whitelist": ["x"]}}}}`), 0644))

	m, err := New(path)
	require.NoError(t, err)

	rule := m.Get().Commands.Rules["say"]
	require.NotNil(t, rule)
	assert.Nil(t, rule.Role)
	assert.Equal(t, []string{"x"}, rule.Whitelist)
}

func TestManager_Update(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	m, err := New(path)
	require.NoError(t, err)

	require.NoError(t, m.Update(func(cfg *Config) {
		cfg.Commands.Rules["ping"].Whitelist = append(cfg.Commands.Rules["ping"].Whitelist, "friend")
	}))
	assert.Equal(t, []string{"friend"}, m.Get().Commands.Rules["ping"].Whitelist)
	assert.Equal(t, []string{"friend"}, readFile(t, path).Commands.Rules["ping"].Whitelist)

	err = m.Update(func(cfg *Config) { cfg.Commands.Rules["ping"].Role = Level(9) })
	require.Error(t, err)
	assert.Equal(t, Level(RoleModerator), m.Get().Commands.Rules["ping"].Role, "rejected update must not leak")
	assert.Equal(t, Level(RoleModerator), readFile(t, path).Commands.Rules["ping"].Role)
}

func TestManager_EnvOverridesAreNotPersisted(t *testing.T) {
	t.Setenv(EnvOAuthToken, "oauth:secret")
	t.Setenv(EnvNick, "MyBot")
	t.Setenv(EnvChannels, "a, #b,")

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"irc": {"host": "h", "nick": "filebot", "channels": ["x"]}}`), 0644))

	m, err := New(path)
	require.NoError(t, err)

	cfg := m.Get()
	assert.Equal(t, "secret", cfg.IRC.OAuth)
	assert.Equal(t, "mybot", cfg.IRC.Nick)
	assert.Equal(t, []string{"a", "#b"}, cfg.IRC.Channels)

	require.NoError(t, m.Update(func(cfg *Config) { cfg.App.LogLevel = "debug" }))

	onDisk := readFile(t, path)
	assert.Equal(t, "debug", onDisk.App.LogLevel)
	assert.Empty(t, onDisk.IRC.OAuth)
	assert.Equal(t, "filebot", onDisk.IRC.Nick)
	assert.Equal(t, []string{"x"}, onDisk.IRC.Channels)
	assert.Equal(t, "secret", m.Get().IRC.OAuth)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("TWITCHBOT_TEST_VALUE=from-file\n"), 0600))
	t.Setenv("TWITCHBOT_TEST_VALUE", "")
	require.NoError(t, os.Unsetenv("TWITCHBOT_TEST_VALUE"))

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), envFile))
	assert.Equal(t, "from-file", os.Getenv("TWITCHBOT_TEST_VALUE"))
}

func TestLoadDotEnv_DefaultsToWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TWITCH_BOT_USERNAME=EnvBot\n"), 0600))
	t.Chdir(dir)
	t.Setenv("TWITCH_BOT_USERNAME", "")
	require.NoError(t, os.Unsetenv("TWITCH_BOT_USERNAME"))

	require.NoError(t, LoadDotEnv())
	assert.Equal(t, "EnvBot", os.Getenv("TWITCH_BOT_USERNAME"))

	m, err := New(filepath.Join(dir, "config.json"))
	require.NoError(t, err)
	assert.Equal(t, "envbot", m.Get().IRC.Nick)
}

func TestLoadDotEnv_MissingDefaultFile(t *testing.T) {
	t.Chdir(t.TempDir())
	assert.NoError(t, LoadDotEnv())
}
