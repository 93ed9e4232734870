package game

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

var (
	// ErrUnknownItem is an invariant violation: the guess holds a card that the
	// intended order does not.
	ErrUnknownItem = errors.New("game: guess item missing from intended order")
	// ErrColumnMismatch is an invariant violation on column size or duplicates.
	ErrColumnMismatch = errors.New("game: guess does not match intended order")
)

// Picker chooses an index in [0, n).
type Picker func(n int) int

// RandomPicker picks uniformly using the runtime's random source.
func RandomPicker() Picker {
	return func(n int) int { return rand.IntN(n) }
}

// Score grades guess against the intended order.
//
// Each card gets HintCorrect when it sits at its intended index, HintUp when
// it belongs nearer the top and HintDown when it belongs nearer the bottom.
// Only one incorrect card keeps its directional hint, chosen by pick; the
// other incorrect cards are left unset. A fully correct guess never calls pick.
func Score(guess Column, intended []string, pick Picker) (Column, error) {
	if len(guess) != len(intended) {
		return nil, fmt.Errorf("%w: %d cards against %d", ErrColumnMismatch, len(guess), len(intended))
	}
	pos := make(map[string]int, len(intended))
	for j, t := range intended {
		pos[t] = j
	}

	out := make(Column, len(guess))
	seen := make(map[string]bool, len(guess))
	var wrong []int
	for i, it := range guess {
		j, ok := pos[it.Text]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownItem, it.Text)
		}
		if seen[it.Text] {
			return nil, fmt.Errorf("%w: %q appears twice", ErrColumnMismatch, it.Text)
		}
		seen[it.Text] = true

		h := HintCorrect
		switch {
		case j < i:
			h = HintUp
		case j > i:
			h = HintDown
		}
		out[i] = Item{Text: it.Text, Hint: h}
		if h != HintCorrect {
			wrong = append(wrong, i)
		}
	}
	if len(wrong) == 0 {
		return out, nil
	}

	k := pick(len(wrong))
	if k < 0 || k >= len(wrong) {
		return nil, fmt.Errorf("game: picker returned %d for %d candidates", k, len(wrong))
	}
	keep := wrong[k]
	for _, i := range wrong {
		if i != keep {
			out[i].Hint = HintNone
		}
	}
	return out, nil
}
