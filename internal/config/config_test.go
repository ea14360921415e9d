package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, StoreNone, cfg.StoreDriver)
	assert.Empty(t, cfg.RedisAddr)

	opts := cfg.GameOptions()
	assert.Equal(t, 120, opts.GameDuration)
	assert.Equal(t, time.Second, opts.TickInterval)
	assert.Equal(t, time.Second, opts.RevealDelay)
	assert.Equal(t, 30*time.Second, opts.EvictionGrace)
	assert.Equal(t, 8, opts.FaceCount)
	assert.Equal(t, 2, opts.DefaultMaxPlayers)
	assert.Equal(t, 5, opts.DefaultTokenEntry)
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("MEMEMATCH_GAME_DURATION", "60")
	t.Setenv("MEMEMATCH_REVEAL_DELAY", "500ms")
	t.Setenv("MEMEMATCH_ALLOWED_ORIGINS", "localhost:5173,example.com")
	t.Setenv("MEMEMATCH_STORE", "sqlite")
	t.Setenv("MEMEMATCH_LOG_FORMAT", "json")
	t.Setenv("MEMEMATCH_LOG_LEVEL", "debug")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.GameDuration)
	assert.Equal(t, 500*time.Millisecond, cfg.RevealDelay)
	assert.Equal(t, []string{"localhost:5173", "example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, StoreSQLite, cfg.StoreDriver)

	log := cfg.NewLogger()
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
}

func TestParseRejects(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown store":     {"MEMEMATCH_STORE": "mongo"},
		"postgres no url":   {"MEMEMATCH_STORE": "postgres"},
		"max players":       {"MEMEMATCH_DEFAULT_MAX_PLAYERS": "5"},
		"negative entry":    {"MEMEMATCH_DEFAULT_TOKEN_ENTRY": "-1"},
		"bad duration":      {"MEMEMATCH_TICK_INTERVAL": "soon"},
		"bad log level":     {"MEMEMATCH_LOG_LEVEL": "loud"},
		"bad log format":    {"MEMEMATCH_LOG_FORMAT": "xml"},
		"non-numeric count": {"MEMEMATCH_FACE_COUNT": "eight"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := Parse()
			assert.Error(t, err)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("MEMEMATCH_LISTEN_ADDR=:9999\nMEMEMATCH_REDIS_DB=3\n"), 0o600))
	// godotenv sets process env directly; register cleanup for what it writes.
	t.Setenv("MEMEMATCH_LISTEN_ADDR", "")
	os.Unsetenv("MEMEMATCH_LISTEN_ADDR")
	t.Setenv("MEMEMATCH_REDIS_DB", "")
	os.Unsetenv("MEMEMATCH_REDIS_DB")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, 3, cfg.RedisDB)
}

func TestLoadEnvWinsOverDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("MEMEMATCH_LISTEN_ADDR=:9999\n"), 0o600))
	t.Setenv("MEMEMATCH_LISTEN_ADDR", ":7000")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.ListenAddr)
}

func TestLoadMissingDotEnv(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}
