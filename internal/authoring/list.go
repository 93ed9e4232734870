package authoring

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/orderlygame/orderly/internal/puzzle"
)

// Entry is one row of the admin listing.
type Entry struct {
	puzzle.Record
	Locked   bool   `json:"locked"`
	Hidden   bool   `json:"hidden"`
	TestLink string `json:"testLink,omitempty"`
}

// Listing is the admin view of the whole schedule.
type Listing struct {
	Version int64   `json:"version"`
	Today   int     `json:"today"`
	Entries []Entry `json:"entries"`
}

// List returns every puzzle as seen by viewer. Unlocked puzzles written by
// someone else are hidden: only day, author and timestamp are kept.
func (s *Service) List(ctx context.Context, viewer string) (Listing, error) {
	v, err := s.repo.Version(ctx)
	if err != nil {
		return Listing{}, err
	}
	all, err := s.repo.List(ctx)
	if err != nil {
		return Listing{}, err
	}
	today := s.Today()
	viewer = strings.ToLower(strings.TrimSpace(viewer))
	entries := lo.Map(all, func(r puzzle.Record, _ int) Entry {
		e := Entry{Record: r, Locked: r.Day <= today}
		e.Hidden = !e.Locked && r.Author != viewer
		if e.Hidden {
			e.Record = puzzle.Record{Day: r.Day, Author: r.Author, LastModified: r.LastModified}
			return e
		}
		e.TestLink = TestLink(r.Question)
		return e
	})
	return Listing{Version: v, Today: today, Entries: entries}, nil
}

// TestLink encodes a question for the `test` query parameter.
func TestLink(question string) string {
	return base64.StdEncoding.EncodeToString([]byte(question))
}

// DecodeTestLink reverses TestLink. URL-safe encodings are accepted too.
func DecodeTestLink(encoded string) (string, error) {
	encoded = strings.TrimSpace(encoded)
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.URLEncoding, base64.RawStdEncoding, base64.RawURLEncoding} {
		if b, err := enc.DecodeString(encoded); err == nil {
			return string(b), nil
		}
	}
	return "", &puzzle.ValidationError{Field: "test", Message: "test link is not valid base64"}
}

// FindByQuestion resolves a test link to the puzzle whose question matches
// exactly, regardless of whether it has been published.
func (s *Service) FindByQuestion(ctx context.Context, encoded string) (puzzle.Record, error) {
	q, err := DecodeTestLink(encoded)
	if err != nil {
		return puzzle.Record{}, err
	}
	all, err := s.repo.List(ctx)
	if err != nil {
		return puzzle.Record{}, err
	}
	r, ok := lo.Find(all, func(r puzzle.Record) bool { return r.Question == q })
	if !ok {
		return puzzle.Record{}, fmt.Errorf("%w: no puzzle with that question", puzzle.ErrNotFound)
	}
	return r, nil
}

// Watch polls the repository version every interval and calls onChange with
// the new version whenever it differs from the last one seen, starting from
// known. Read errors are logged and polling continues. Watch returns when ctx
// is cancelled.
func (s *Service) Watch(ctx context.Context, interval time.Duration, known int64, onChange func(int64)) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			v, err := s.repo.Version(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Warn().Err(err).Msg("version poll failed")
				continue
			}
			if v != known {
				known = v
				onChange(v)
			}
		}
	}
}
