// internal/config/config.go
//
// Environment configuration shared by the server and orderlyctl.
// Load reads .env (if present) through godotenv and then the process
// environment, falling back to defaults for anything unset.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/orderlygame/orderly/internal/daily"
	"github.com/orderlygame/orderly/internal/game"
)

type Config struct {
	Port           string
	LogLevel       zerolog.Level
	DBPath         string // empty: in-memory repository
	CacheDir       string // empty: in-memory snapshot cache
	JWTSecret      string
	JWTExpiresDays int
	ClientOrigin   string
	CookieName     string
	SecureCookie   bool
	MaxChecks      int
	Epoch          time.Time
	SeedFile       string // empty: embedded default puzzles
}

// Load builds a Config from .env and the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(get func(string) string) (Config, error) {
	env := func(k, def string) string {
		if v := get(k); v != "" {
			return v
		}
		return def
	}
	c := Config{
		Port:         env("PORT", "5175"),
		DBPath:       env("DB_PATH", "./data/orderly.db"),
		CacheDir:     env("CACHE_DIR", "./data/cache"),
		JWTSecret:    env("JWT_SECRET", "dev-secret-change-me"),
		ClientOrigin: env("CLIENT_ORIGIN", "http://localhost:5173"),
		CookieName:   env("COOKIE_NAME", "orderly_token"),
		SecureCookie: env("NODE_ENV", "") == "production",
		SeedFile:     env("SEED_FILE", ""),
	}
	if c.DBPath == ":memory:" {
		c.DBPath = ""
	}
	if c.CacheDir == ":memory:" {
		c.CacheDir = ""
	}

	lvl, err := zerolog.ParseLevel(env("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	c.LogLevel = lvl

	if c.JWTExpiresDays, err = envInt(env, "JWT_EXPIRES_DAYS", 14); err != nil {
		return Config{}, err
	}
	if c.MaxChecks, err = envInt(env, "MAX_CHECKS", game.DefaultMaxChecks); err != nil {
		return Config{}, err
	}
	c.Epoch = daily.DefaultEpoch
	if v := get("PUZZLE_EPOCH"); v != "" {
		if c.Epoch, err = time.Parse(time.RFC3339, v); err != nil {
			return Config{}, fmt.Errorf("PUZZLE_EPOCH: %w", err)
		}
	}
	return c, nil
}

func envInt(env func(k, def string) string, k string, def int) (int, error) {
	v := env(k, strconv.Itoa(def))
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s: want a positive integer, got %q", k, v)
	}
	return n, nil
}

// JWTTTL is the lifetime of issued admin tokens.
func (c Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTExpiresDays) * 24 * time.Hour
}
