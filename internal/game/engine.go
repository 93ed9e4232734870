// internal/game/engine.go
//
// Core game engine for a single Orderly session.
// Responsibilities:
//   - Hold the current card column, ranking-check history and solved blanks.
//   - Grade word submissions against answers and synonyms with progressive reveal.
//   - Enforce the ranking-check budget and the per-word guess budget.
//   - Drive state transitions through an FSM: active → solvedPrompt/solvedRanking → win|lose.
//
// Notes:
//   - Win and lose are terminal; entering either produces the shareable Outcome.
//   - The engine is not safe for concurrent use; callers serialise access per session.
package game

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/bits-and-blooms/bitset"
	"github.com/looplab/fsm"
)

const (
	// DefaultMaxChecks bounds the number of ranking checks per game.
	DefaultMaxChecks = 5
	// revealAfterChecks is the check count at which the first letter of every
	// answer is shown.
	revealAfterChecks = 2
)

var (
	ErrGameFinished  = errors.New("game is over")
	ErrNoChecksLeft  = errors.New("no ranking checks left")
	ErrRankingSolved = errors.New("ranking is already solved")
	ErrUnknownBlank  = errors.New("unknown blank")
)

// WordResult is the outcome of a word submission.
//   - accepted:       the word matched and the blank is now solved.
//   - already_solved: the blank was solved before; nothing changed.
//   - rejected:       wrong word; the blank's guess counter went up.
//   - exhausted:      the blank has no guesses left until the next ranking check.
//   - finished:       the game is over; nothing changed.
type WordResult string

const (
	WordAccepted      WordResult = "accepted"
	WordAlreadySolved WordResult = "already_solved"
	WordRejected      WordResult = "rejected"
	WordExhausted     WordResult = "exhausted"
	WordFinished      WordResult = "finished"
)

// FSM event names.
const (
	evPromptSolved  = "promptSolved"
	evRankingSolved = "rankingSolved"
	evWon           = "won"
	evLost          = "lost"
)

// Options tune a new game.
type Options struct {
	MaxChecks int
	Picker    Picker
}

// Game holds the state of a single game session.
type Game struct {
	ID             string
	Puzzle         *Puzzle
	Current        Column
	Guesses        []Column
	Solved         *bitset.BitSet // blank indices solved by the player
	WordGuessCount []int          // wrong submissions per blank index
	MaxChecks      int
	Outcome        *Outcome // set once the game reaches win or lose

	pick Picker
	fsm  *fsm.FSM
}

// New starts a fresh game on p with the starting order as the current column.
func New(p *Puzzle, opts Options) *Game {
	if opts.MaxChecks <= 0 {
		opts.MaxChecks = DefaultMaxChecks
	}
	if opts.Picker == nil {
		opts.Picker = RandomPicker()
	}
	g := &Game{
		Puzzle:         p,
		Current:        ColumnOf(p.Starting),
		Solved:         bitset.New(uint(len(p.Blanks))),
		WordGuessCount: make([]int, len(p.Blanks)),
		MaxChecks:      opts.MaxChecks,
		pick:           opts.Picker,
	}
	g.fsm = fsm.NewFSM(
		string(StatusActive),
		transitions(),
		fsm.Callbacks{
			"enter_" + string(StatusWin):  func(_ context.Context, _ *fsm.Event) { g.finish(true) },
			"enter_" + string(StatusLose): func(_ context.Context, _ *fsm.Event) { g.finish(false) },
		},
	)
	return g
}

func transitions() fsm.Events {
	open := []string{string(StatusActive), string(StatusSolvedPrompt), string(StatusSolvedRanking)}
	return fsm.Events{
		{Name: evPromptSolved, Src: []string{string(StatusActive)}, Dst: string(StatusSolvedPrompt)},
		{Name: evRankingSolved, Src: []string{string(StatusActive)}, Dst: string(StatusSolvedRanking)},
		{Name: evWon, Src: open, Dst: string(StatusWin)},
		{Name: evLost, Src: open, Dst: string(StatusLose)},
	}
}

// Status reports the current tagged state.
func (g *Game) Status() Status { return Status(g.fsm.Current()) }

// RankingSolved reports whether the latest ranking check was fully correct.
func (g *Game) RankingSolved() bool {
	return len(g.Guesses) > 0 && g.Guesses[len(g.Guesses)-1].AllCorrect()
}

// AllWordsSolved reports whether every blank has been filled.
func (g *Game) AllWordsSolved() bool {
	return g.Solved.Count() == uint(len(g.Puzzle.Blanks))
}

// ChecksLeft is the number of ranking checks still available.
func (g *Game) ChecksLeft() int { return g.MaxChecks - len(g.Guesses) }

// CanCheck reports whether CheckRanking would be accepted.
func (g *Game) CanCheck() bool {
	return !g.Status().Terminal() && !g.RankingSolved() && len(g.Guesses) < g.MaxChecks
}

// RevealCount is how many leading letters of each answer are shown.
func (g *Game) RevealCount() int {
	if len(g.Guesses) >= revealAfterChecks {
		return 1
	}
	return 0
}

// WordAllowance is the number of submissions blank i may use in total, or -1
// when submissions are unlimited because the ranking has been solved.
func (g *Game) WordAllowance(i int) int {
	if g.RankingSolved() {
		return -1
	}
	return len(g.Guesses) + 1
}

// SubmitWord grades text against blank index i.
func (g *Game) SubmitWord(i int, text string) (WordResult, error) {
	if g.Status().Terminal() {
		return WordFinished, nil
	}
	if i < 0 || i >= len(g.Puzzle.Blanks) {
		return "", fmt.Errorf("%w: %d", ErrUnknownBlank, i)
	}
	if g.Solved.Test(uint(i)) {
		return WordAlreadySolved, nil
	}
	if allow := g.WordAllowance(i); allow >= 0 && g.WordGuessCount[i] >= allow {
		return WordExhausted, nil
	}
	if !g.matches(g.Puzzle.Blanks[i], text) {
		g.WordGuessCount[i]++
		return WordRejected, nil
	}
	g.Solved.Set(uint(i))
	if err := g.evaluate(false); err != nil {
		return "", err
	}
	return WordAccepted, nil
}

// matches compares the unrevealed suffix of the answer and of each synonym
// with text, ignoring case and surrounding space. Once a one-letter word is
// fully revealed its suffix is empty, so empty input matches it.
func (g *Game) matches(b Blank, text string) bool {
	in := strings.TrimSpace(text)
	n := g.RevealCount()
	if strings.EqualFold(in, dropRunes(b.Answer, n)) {
		return true
	}
	for _, s := range b.Synonyms {
		if strings.EqualFold(in, dropRunes(s, n)) {
			return true
		}
	}
	return false
}

func dropRunes(s string, n int) string {
	for ; n > 0 && s != ""; n-- {
		_, size := utf8.DecodeRuneInString(s)
		s = s[size:]
	}
	return s
}

// CheckRanking scores the current column, appends it to the history and
// re-evaluates the game state.
func (g *Game) CheckRanking() (Column, error) {
	switch {
	case g.Status().Terminal():
		return nil, ErrGameFinished
	case g.RankingSolved():
		return nil, ErrRankingSolved
	case len(g.Guesses) >= g.MaxChecks:
		return nil, ErrNoChecksLeft
	}
	scored, err := Score(g.Current, g.Puzzle.Intended, g.pick)
	if err != nil {
		return nil, err
	}
	g.Guesses = append(g.Guesses, scored)
	exhausted := len(g.Guesses) >= g.MaxChecks && !scored.AllCorrect()
	if err := g.evaluate(exhausted); err != nil {
		return nil, err
	}
	return scored, nil
}

// Reorder moves the card fromText into the position held by toText. It
// returns false when nothing moved.
func (g *Game) Reorder(fromText, toText string) bool {
	if g.Status().Terminal() {
		return false
	}
	i, j := g.Current.indexOf(fromText), g.Current.indexOf(toText)
	if i < 0 || j < 0 || i == j {
		return false
	}
	it := g.Current[i]
	g.Current = slices.Insert(slices.Delete(g.Current, i, i+1), j, it)
	return true
}

// GiveUp forfeits the game.
func (g *Game) GiveUp() error {
	if g.Status().Terminal() {
		return ErrGameFinished
	}
	return g.fire(evLost)
}

// evaluate applies the terminal rules after a word success or a ranking check.
func (g *Game) evaluate(checksExhausted bool) error {
	switch g.derive(checksExhausted) {
	case StatusWin:
		return g.fire(evWon)
	case StatusLose:
		return g.fire(evLost)
	case StatusSolvedPrompt:
		return g.fire(evPromptSolved)
	case StatusSolvedRanking:
		return g.fire(evRankingSolved)
	}
	return nil
}

// derive computes the status the recorded progress implies. An exhausted
// check budget loses even when every word is already solved. A puzzle without
// blanks never reports solvedPrompt.
func (g *Game) derive(checksExhausted bool) Status {
	words, ranking := g.AllWordsSolved(), g.RankingSolved()
	switch {
	case words && ranking:
		return StatusWin
	case checksExhausted && !ranking:
		return StatusLose
	case words && len(g.Puzzle.Blanks) > 0:
		return StatusSolvedPrompt
	case ranking:
		return StatusSolvedRanking
	}
	return StatusActive
}

func (g *Game) fire(event string) error {
	if !g.fsm.Can(event) {
		return nil
	}
	return g.fsm.Event(context.Background(), event)
}

func (g *Game) finish(won bool) {
	g.Outcome = g.outcome(won)
}
