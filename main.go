package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/orderlygame/orderly/internal/auth"
	"github.com/orderlygame/orderly/internal/authoring"
	"github.com/orderlygame/orderly/internal/cache"
	"github.com/orderlygame/orderly/internal/config"
	"github.com/orderlygame/orderly/internal/daily"
	"github.com/orderlygame/orderly/internal/httpserver"
	"github.com/orderlygame/orderly/internal/repo"
	"github.com/orderlygame/orderly/internal/seed"
	"github.com/orderlygame/orderly/internal/store"
)

const sessionIdle = 6 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)

	db, err := openRepo(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("failed to open puzzle repository")
	}
	defer db.Close()

	var snapshots cache.Store = cache.NewMemory()
	if cfg.CacheDir != "" {
		snapshots = cache.NewFileStore(cfg.CacheDir)
	}

	days := daily.NewResolver(cfg.Epoch, nil)
	authoringSvc := authoring.New(db, days)

	ctx := context.Background()
	if _, err := seed.IfEmpty(ctx, db, authoringSvc, cfg.SeedFile); err != nil {
		log.Fatal().Err(err).Msg("failed to seed puzzles")
	}

	sessions := store.NewMemoryStore()
	go pruneSessions(ctx, sessions)

	srv := httpserver.New(httpserver.Deps{
		Sessions:  sessions,
		Repo:      db,
		Authoring: authoringSvc,
		Auth: auth.New(db, auth.Config{
			Secret:       []byte(cfg.JWTSecret),
			TTL:          cfg.JWTTTL(),
			CookieName:   cfg.CookieName,
			SecureCookie: cfg.SecureCookie,
		}),
		Cache:        snapshots,
		Days:         days,
		MaxChecks:    cfg.MaxChecks,
		ClientOrigin: cfg.ClientOrigin,
		SecureCookie: cfg.SecureCookie,
	})
	log.Info().Str("port", cfg.Port).Int("day", days.Today(daily.Overrides{})).Msg("starting orderly server")
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func openRepo(cfg config.Config) (repo.Store, error) {
	if cfg.DBPath == "" {
		log.Warn().Msg("DB_PATH=:memory: puzzles will not survive a restart")
		return repo.NewMemory(), nil
	}
	return repo.OpenSQLite(cfg.DBPath)
}

// pruneSessions drops idle in-memory games; players resume from the cache.
func pruneSessions(ctx context.Context, s store.Store) {
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Prune(ctx, now.Add(-sessionIdle)); n > 0 {
				log.Debug().Int("sessions", n).Msg("pruned idle sessions")
			}
		}
	}
}
