package game

import (
	"errors"
	"fmt"
	"slices"

	"github.com/bits-and-blooms/bitset"
)

// ErrSnapshotMismatch means a cached snapshot no longer fits the puzzle it
// is restored against, typically because the puzzle was edited.
var ErrSnapshotMismatch = errors.New("game: snapshot does not match puzzle")

// Snapshot is the serialisable form of a game kept in the per-day cache.
type Snapshot struct {
	Day            int            `json:"day"`
	Status         Status         `json:"status"`
	Current        []string       `json:"current"`
	Guesses        []Column       `json:"guesses"`
	Solved         *bitset.BitSet `json:"solved"`
	WordGuessCount []int          `json:"wordGuessCount"`
}

// Snapshot captures the game's progress.
func (g *Game) Snapshot() Snapshot {
	guesses := make([]Column, len(g.Guesses))
	for i, c := range g.Guesses {
		guesses[i] = slices.Clone(c)
	}
	return Snapshot{
		Day:            g.Puzzle.Day,
		Status:         g.Status(),
		Current:        g.Current.Texts(),
		Guesses:        guesses,
		Solved:         g.Solved.Clone(),
		WordGuessCount: slices.Clone(g.WordGuessCount),
	}
}

// Restore rebuilds a game from a snapshot taken on the same puzzle.
func Restore(p *Puzzle, s Snapshot, opts Options) (*Game, error) {
	g := New(p, opts)
	if err := check(p, s, g.MaxChecks); err != nil {
		return nil, err
	}
	g.Current = ColumnOf(s.Current)
	g.Guesses = s.Guesses
	if s.Solved != nil {
		g.Solved = s.Solved.Clone()
	}
	g.WordGuessCount = slices.Clone(s.WordGuessCount)
	st, err := g.reconcile(s.Status)
	if err != nil {
		return nil, err
	}
	g.fsm.SetState(string(st))
	if st.Terminal() {
		g.finish(st == StatusWin)
	}
	return g, nil
}

// reconcile checks the stored status tag against the restored progress.
// A give-up is only visible in the tag, so lose is accepted whenever the
// progress is not a win. A smaller check budget than the one the game was
// played with turns an open game with no checks left into a loss.
func (g *Game) reconcile(stored Status) (Status, error) {
	derived := g.derive(len(g.Guesses) >= g.MaxChecks)
	switch {
	case stored == StatusLose && derived != StatusWin:
		return StatusLose, nil
	case derived == StatusLose && !stored.Terminal():
		return StatusLose, nil
	case stored != derived:
		return "", fmt.Errorf("%w: status %q but progress says %q", ErrSnapshotMismatch, stored, derived)
	}
	return derived, nil
}

func check(p *Puzzle, s Snapshot, maxChecks int) error {
	switch {
	case s.Day != p.Day:
		return fmt.Errorf("%w: day %d against %d", ErrSnapshotMismatch, s.Day, p.Day)
	case !s.Status.valid():
		return fmt.Errorf("%w: status %q", ErrSnapshotMismatch, s.Status)
	case !samePermutation(s.Current, p.Intended):
		return fmt.Errorf("%w: current column", ErrSnapshotMismatch)
	case len(s.Guesses) > maxChecks:
		return fmt.Errorf("%w: %d checks", ErrSnapshotMismatch, len(s.Guesses))
	case len(s.WordGuessCount) != len(p.Blanks):
		return fmt.Errorf("%w: %d word counters", ErrSnapshotMismatch, len(s.WordGuessCount))
	}
	for _, c := range s.Guesses {
		if !samePermutation(c.Texts(), p.Intended) {
			return fmt.Errorf("%w: guess history", ErrSnapshotMismatch)
		}
	}
	if s.Solved != nil {
		if last, ok := s.Solved.NextSet(uint(len(p.Blanks))); ok {
			return fmt.Errorf("%w: solved blank %d", ErrSnapshotMismatch, last)
		}
	}
	return nil
}

func samePermutation(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x, y := slices.Clone(a), slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(x, y)
}
