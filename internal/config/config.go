// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/jason-s-yu/memematch/internal/game"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Store drivers.
const (
	StoreNone     = "none"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Config holds every MEMEMATCH_* setting.
type Config struct {
	ListenAddr     string   `env:"MEMEMATCH_LISTEN_ADDR" envDefault:":8080"`
	AllowedOrigins []string `env:"MEMEMATCH_ALLOWED_ORIGINS" envSeparator:","`
	LogLevel       string   `env:"MEMEMATCH_LOG_LEVEL" envDefault:"info"`
	LogFormat      string   `env:"MEMEMATCH_LOG_FORMAT" envDefault:"text"`

	GameDuration      int           `env:"MEMEMATCH_GAME_DURATION" envDefault:"120"`
	TickInterval      time.Duration `env:"MEMEMATCH_TICK_INTERVAL" envDefault:"1s"`
	RevealDelay       time.Duration `env:"MEMEMATCH_REVEAL_DELAY" envDefault:"1s"`
	EvictionGrace     time.Duration `env:"MEMEMATCH_EVICTION_GRACE" envDefault:"30s"`
	FaceCount         int           `env:"MEMEMATCH_FACE_COUNT" envDefault:"8"`
	DefaultMaxPlayers int           `env:"MEMEMATCH_DEFAULT_MAX_PLAYERS" envDefault:"2"`
	DefaultTokenEntry int           `env:"MEMEMATCH_DEFAULT_TOKEN_ENTRY" envDefault:"5"`

	StoreDriver string `env:"MEMEMATCH_STORE" envDefault:"none"`
	DatabaseURL string `env:"MEMEMATCH_DATABASE_URL"`
	SQLitePath  string `env:"MEMEMATCH_SQLITE_PATH" envDefault:"data/memematch.db"`

	RedisAddr     string `env:"MEMEMATCH_REDIS_ADDR"`
	RedisPassword string `env:"MEMEMATCH_REDIS_PASSWORD"`
	RedisDB       int    `env:"MEMEMATCH_REDIS_DB" envDefault:"0"`

	TreasuryAddress string `env:"MEMEMATCH_TREASURY_ADDRESS" envDefault:"memematch-treasury"`
	TreasuryBalance int64  `env:"MEMEMATCH_TREASURY_BALANCE" envDefault:"1000000"`
}

// Load reads an optional .env file, then parses the environment.
// Variables already set in the environment win over .env entries.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads the configuration from the environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case StoreNone, StoreSQLite:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("MEMEMATCH_DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	if c.DefaultMaxPlayers < 2 || c.DefaultMaxPlayers > 4 {
		return fmt.Errorf("default max players must be between 2 and 4, got %d", c.DefaultMaxPlayers)
	}
	if c.DefaultTokenEntry < 0 {
		return fmt.Errorf("default token entry must not be negative, got %d", c.DefaultTokenEntry)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	return nil
}

// GameOptions converts the room tunables.
func (c Config) GameOptions() game.Options {
	return game.Options{
		GameDuration:      c.GameDuration,
		TickInterval:      c.TickInterval,
		RevealDelay:       c.RevealDelay,
		EvictionGrace:     c.EvictionGrace,
		FaceCount:         c.FaceCount,
		DefaultMaxPlayers: c.DefaultMaxPlayers,
		DefaultTokenEntry: c.DefaultTokenEntry,
	}
}

// NewLogger builds the process logger from the log settings.
func (c Config) NewLogger() *logrus.Logger {
	log := logrus.New()
	if lvl, err := logrus.ParseLevel(c.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	if c.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}
