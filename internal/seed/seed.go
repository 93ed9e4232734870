// internal/seed/seed.go
//
// Bootstrap puzzle set for an empty repository.
//
// Responsibilities:
//   - Load puzzles from a JSON file (SEED_FILE) or fall back to the set
//     embedded in assets/puzzles.json.
//   - Upload them through the authoring service when the repository holds
//     no puzzles yet, so a fresh install is immediately playable.
//
// File format: a JSON array of puzzle records (the same shape the admin API
// and `orderlyctl upload` accept).
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/orderlygame/orderly/assets"
	"github.com/orderlygame/orderly/internal/authoring"
	"github.com/orderlygame/orderly/internal/puzzle"
	"github.com/orderlygame/orderly/internal/repo"
)

// Load reads puzzles from path, or the embedded default set when path is empty.
func Load(path string) ([]puzzle.Record, error) {
	var (
		raw []byte
		err error
	)
	if path == "" {
		raw, err = assets.DefaultPuzzles()
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read seed puzzles: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a JSON array of puzzle records.
func Parse(raw []byte) ([]puzzle.Record, error) {
	var recs []puzzle.Record
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, fmt.Errorf("decode seed puzzles: %w", err)
	}
	return recs, nil
}

// IfEmpty uploads the puzzles at path when r has none. It reports whether
// anything was written.
func IfEmpty(ctx context.Context, r repo.Repository, svc *authoring.Service, path string) (bool, error) {
	existing, err := r.List(ctx)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}
	recs, err := Load(path)
	if err != nil {
		return false, err
	}
	v, err := svc.Upload(ctx, recs, authoring.DefaultAuthor)
	if err != nil {
		return false, err
	}
	log.Info().Int("puzzles", len(recs)).Int64("version", v).Msg("seeded empty repository")
	return true, nil
}
