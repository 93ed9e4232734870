// internal/game/types.go
//
// Core type definitions for the ranking game engine.
// Defines:
//   - Hint: per-card feedback from a ranking check (correct/up/down/unset).
//   - Item, Column: cards and an ordered column of cards.
//   - Status: the tagged game state driven by the engine's FSM.

package game

// Hint is the feedback attached to one card after a ranking check.
//   - "correct": card is in its intended position.
//   - "up":      card belongs closer to the highest end.
//   - "down":    card belongs closer to the lowest end.
//   - "":        no hint revealed for this card.
type Hint string

const (
	HintNone    Hint = ""
	HintCorrect Hint = "correct"
	HintUp      Hint = "up"
	HintDown    Hint = "down"
)

// Item is one card. Identity is by Text.
type Item struct {
	Text string `json:"text"`
	Hint Hint   `json:"hint,omitempty"`
}

// Column is an ordered ranking of cards, highest first.
type Column []Item

// ColumnOf builds a hint-less column from item texts.
func ColumnOf(texts []string) Column {
	c := make(Column, len(texts))
	for i, t := range texts {
		c[i] = Item{Text: t}
	}
	return c
}

// Texts returns the item texts in order.
func (c Column) Texts() []string {
	out := make([]string, len(c))
	for i, it := range c {
		out[i] = it.Text
	}
	return out
}

// AllCorrect reports whether every card carries HintCorrect.
func (c Column) AllCorrect() bool {
	if len(c) == 0 {
		return false
	}
	for _, it := range c {
		if it.Hint != HintCorrect {
			return false
		}
	}
	return true
}

func (c Column) indexOf(text string) int {
	for i, it := range c {
		if it.Text == text {
			return i
		}
	}
	return -1
}

// Status is the tagged state of a game.
type Status string

const (
	StatusActive        Status = "active"
	StatusSolvedPrompt  Status = "solvedPrompt"
	StatusSolvedRanking Status = "solvedRanking"
	StatusWin           Status = "win"
	StatusLose          Status = "lose"
)

// Terminal reports whether no further guesses are accepted.
func (s Status) Terminal() bool {
	return s == StatusWin || s == StatusLose
}

func (s Status) valid() bool {
	switch s {
	case StatusActive, StatusSolvedPrompt, StatusSolvedRanking, StatusWin, StatusLose:
		return true
	}
	return false
}
