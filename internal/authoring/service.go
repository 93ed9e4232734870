// internal/authoring/service.go
//
// Puzzle Authoring Service used by the admin HTTP routes and orderlyctl.
// Responsibilities:
//   - Add / Edit / Move / Delete puzzles under optimistic concurrency: every
//     call carries the version the caller last read and fails with
//     puzzle.ErrConcurrentEdit if somebody else wrote in between.
//   - Keep days contiguous (delete renumbers later days, move swaps neighbours).
//   - Protect published puzzles: any day at or before today is locked.
//   - Restrict edits and deletes to the puzzle's author.
//
// All writes go through repo.Repository.Update, which checks and bumps the
// version in the same transaction as the writes.
package authoring

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/orderlygame/orderly/internal/daily"
	"github.com/orderlygame/orderly/internal/puzzle"
	"github.com/orderlygame/orderly/internal/repo"
)

// DefaultAuthor is assigned to uploaded puzzles that carry no author.
const DefaultAuthor = "amp"

// Direction is the way a puzzle moves in the schedule.
type Direction string

const (
	Up   Direction = "up"   // towards day 1
	Down Direction = "down" // towards later days
)

// ParseDirection accepts "up" or "down" in any case.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case Up, Down:
		return d, nil
	}
	return "", &puzzle.ValidationError{Field: "direction", Message: "direction must be up or down"}
}

// Service implements the authoring operations on top of a repository.
type Service struct {
	repo repo.Repository
	days *daily.Resolver
}

// New returns a Service. days decides which puzzles are already published
// and supplies the clock for lastModified stamps.
func New(r repo.Repository, days *daily.Resolver) *Service {
	return &Service{repo: r, days: days}
}

func (s *Service) now() time.Time { return s.days.Clock.Now() }

// Today returns the current puzzle day.
func (s *Service) Today() int { return s.days.Today(daily.Overrides{}) }

// Locked reports whether day has already been shown to players.
func (s *Service) Locked(day int) bool { return day <= s.Today() }

// Version returns the repository version callers must echo on writes.
func (s *Service) Version(ctx context.Context) (int64, error) {
	return s.repo.Version(ctx)
}

// Add appends rec after the current last day. The author falls back to
// author when rec has none.
func (s *Service) Add(ctx context.Context, expected int64, rec puzzle.Record, author string) (puzzle.Record, int64, error) {
	r := rec.Clone()
	if strings.TrimSpace(r.Author) == "" {
		r.Author = author
	}
	if err := r.Normalize(); err != nil {
		return puzzle.Record{}, 0, err
	}
	v, err := s.repo.Update(ctx, expected, func(tx repo.Tx) error {
		all, err := tx.List(ctx)
		if err != nil {
			return err
		}
		r.Day = 1
		if n := len(all); n > 0 {
			r.Day = all[n-1].Day + 1
		}
		r.Touch(s.now())
		return tx.Put(ctx, r)
	})
	if err != nil {
		return puzzle.Record{}, 0, err
	}
	return r, v, nil
}

// Edit replaces the content of day with rec. Only the author of an unlocked
// puzzle may edit it; day and author are kept from the stored record.
func (s *Service) Edit(ctx context.Context, expected int64, day int, rec puzzle.Record, editor string) (puzzle.Record, int64, error) {
	r := rec.Clone()
	if err := r.Normalize(); err != nil {
		return puzzle.Record{}, 0, err
	}
	v, err := s.repo.Update(ctx, expected, func(tx repo.Tx) error {
		cur, err := tx.Get(ctx, day)
		if err != nil {
			return err
		}
		if err := s.checkWritable(cur, editor); err != nil {
			return err
		}
		r.Day = cur.Day
		r.Author = cur.Author
		r.Touch(s.now())
		return tx.Put(ctx, r)
	})
	if err != nil {
		return puzzle.Record{}, 0, err
	}
	return r, v, nil
}

// Move swaps day with its neighbour in direction dir. Neither day may be
// locked and the moving puzzle must belong to editor.
func (s *Service) Move(ctx context.Context, expected int64, day int, dir Direction, editor string) (int64, error) {
	target := day - 1
	if dir == Down {
		target = day + 1
	}
	return s.repo.Update(ctx, expected, func(tx repo.Tx) error {
		cur, err := tx.Get(ctx, day)
		if err != nil {
			return err
		}
		if err := s.checkWritable(cur, editor); err != nil {
			return err
		}
		if target < 1 {
			return fmt.Errorf("%w: day %d cannot move %s", puzzle.ErrAtBoundary, day, dir)
		}
		other, err := tx.Get(ctx, target)
		if err != nil {
			return fmt.Errorf("%w: day %d cannot move %s", puzzle.ErrAtBoundary, day, dir)
		}
		if s.Locked(target) {
			return fmt.Errorf("%w: day %d", puzzle.ErrLocked, target)
		}
		now := s.now()
		cur.Day, other.Day = other.Day, cur.Day
		cur.Touch(now)
		other.Touch(now)
		if err := tx.Put(ctx, cur); err != nil {
			return err
		}
		return tx.Put(ctx, other)
	})
}

// Delete removes day and shifts every later day down by one.
func (s *Service) Delete(ctx context.Context, expected int64, day int, editor string) (int64, error) {
	return s.repo.Update(ctx, expected, func(tx repo.Tx) error {
		cur, err := tx.Get(ctx, day)
		if err != nil {
			return err
		}
		if err := s.checkWritable(cur, editor); err != nil {
			return err
		}
		all, err := tx.List(ctx)
		if err != nil {
			return err
		}
		if err := tx.Delete(ctx, day); err != nil {
			return err
		}
		now := s.now()
		for _, r := range all {
			if r.Day <= day {
				continue
			}
			old := r.Day
			r.Day--
			r.Touch(now)
			if err := tx.Put(ctx, r); err != nil {
				return err
			}
			if err := tx.Delete(ctx, old); err != nil {
				return err
			}
		}
		return nil
	})
}

// Upload replaces every stored puzzle with recs. Days must run 1..n without
// gaps; puzzles without an author get defaultAuthor. The version check is
// skipped: an upload is a reset.
func (s *Service) Upload(ctx context.Context, recs []puzzle.Record, defaultAuthor string) (int64, error) {
	if defaultAuthor = strings.TrimSpace(defaultAuthor); defaultAuthor == "" {
		defaultAuthor = DefaultAuthor
	}
	byDay := make(map[int]puzzle.Record, len(recs))
	for i, rec := range recs {
		r := rec.Clone()
		if strings.TrimSpace(r.Author) == "" {
			r.Author = defaultAuthor
		}
		if err := r.Normalize(); err != nil {
			return 0, fmt.Errorf("puzzle %d (day %d): %w", i+1, rec.Day, err)
		}
		if _, dup := byDay[r.Day]; dup {
			return 0, &puzzle.ValidationError{Field: "day", Message: fmt.Sprintf("day %d appears twice", r.Day)}
		}
		byDay[r.Day] = r
	}
	for d := 1; d <= len(recs); d++ {
		if _, ok := byDay[d]; !ok {
			return 0, &puzzle.ValidationError{Field: "day", Message: fmt.Sprintf("days must run 1..%d without gaps, day %d is missing", len(recs), d)}
		}
	}
	now := s.now()
	return s.repo.Update(ctx, repo.AnyVersion, func(tx repo.Tx) error {
		if err := tx.DeleteAll(ctx); err != nil {
			return err
		}
		for d := 1; d <= len(recs); d++ {
			r := byDay[d]
			r.Touch(now)
			if err := tx.Put(ctx, r); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Service) checkWritable(r puzzle.Record, editor string) error {
	if s.Locked(r.Day) {
		return fmt.Errorf("%w: day %d", puzzle.ErrLocked, r.Day)
	}
	if !strings.EqualFold(strings.TrimSpace(editor), r.Author) {
		return fmt.Errorf("%w: day %d is by %s", puzzle.ErrNotOwner, r.Day, r.Author)
	}
	return nil
}
