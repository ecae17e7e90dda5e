// Package config reads server settings from the environment, loading a
// local .env file first when one exists.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Config struct {
	Addr     string
	AppEnv   string
	LogLevel string

	RoomStore   string
	DatabaseURL string

	Ledger    string
	LedgerDSN string

	MemoryRevealDelay time.Duration
	QuizRevealDelay   time.Duration
	ReportTimeout     time.Duration
}

// Load reads .env (if present) and then the process environment. Values
// already set in the environment win over the file.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, applying defaults for
// anything unset.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		Addr:        get("ADDR", ":8080"),
		AppEnv:      get("APP_ENV", "development"),
		LogLevel:    get("LOG_LEVEL", "info"),
		RoomStore:   get("ROOM_STORE", StoreMemory),
		DatabaseURL: getenv("DATABASE_URL"),
		Ledger:      get("LEDGER", StoreMemory),
		LedgerDSN:   get("LEDGER_DSN", getenv("DATABASE_URL")),
	}

	var err error
	if cfg.MemoryRevealDelay, err = duration(get("MEMORY_REVEAL_DELAY", "1s")); err != nil {
		return Config{}, fmt.Errorf("MEMORY_REVEAL_DELAY: %w", err)
	}
	if cfg.QuizRevealDelay, err = duration(get("QUIZ_REVEAL_DELAY", "2s")); err != nil {
		return Config{}, fmt.Errorf("QUIZ_REVEAL_DELAY: %w", err)
	}
	if cfg.ReportTimeout, err = duration(get("REPORT_TIMEOUT", "5s")); err != nil {
		return Config{}, fmt.Errorf("REPORT_TIMEOUT: %w", err)
	}

	return cfg, cfg.validate()
}

func duration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", s)
	}
	return d, nil
}

func (c Config) validate() error {
	switch c.RoomStore {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("ROOM_STORE=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown ROOM_STORE %q", c.RoomStore)
	}

	switch c.Ledger {
	case StoreMemory:
	case StorePostgres:
		if c.LedgerDSN == "" {
			return errors.New("LEDGER=postgres requires LEDGER_DSN or DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown LEDGER %q", c.Ledger)
	}
	return nil
}
