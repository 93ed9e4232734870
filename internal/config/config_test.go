package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/orderlygame/orderly/internal/daily"
)

func lookup(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	c, err := FromEnv(lookup(nil))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if c.Port != "5175" || c.MaxChecks != 5 || c.LogLevel != zerolog.InfoLevel {
		t.Errorf("defaults = %+v", c)
	}
	if !c.Epoch.Equal(daily.DefaultEpoch) || c.JWTTTL() != 14*24*time.Hour {
		t.Errorf("epoch %v ttl %v", c.Epoch, c.JWTTTL())
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	c, err := FromEnv(lookup(map[string]string{
		"PORT":         "8080",
		"LOG_LEVEL":    "debug",
		"DB_PATH":      ":memory:",
		"MAX_CHECKS":   "3",
		"PUZZLE_EPOCH": "2026-01-01T00:00:00Z",
		"NODE_ENV":     "production",
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if c.Port != "8080" || c.LogLevel != zerolog.DebugLevel || c.DBPath != "" || c.MaxChecks != 3 || !c.SecureCookie {
		t.Errorf("config = %+v", c)
	}
	if c.Epoch.Year() != 2026 {
		t.Errorf("epoch = %v", c.Epoch)
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	for _, env := range []map[string]string{
		{"MAX_CHECKS": "zero"},
		{"MAX_CHECKS": "-1"},
		{"LOG_LEVEL": "loud"},
		{"PUZZLE_EPOCH": "yesterday"},
	} {
		if _, err := FromEnv(lookup(env)); err == nil {
			t.Errorf("FromEnv(%v) accepted invalid input", env)
		}
	}
}
