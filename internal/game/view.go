package game

import (
	"unicode/utf8"

	"github.com/samber/lo"

	"github.com/orderlygame/orderly/internal/question"
)

// BlankView describes one input box. Answer is only filled when the blank is
// solved or the game is over.
type BlankView struct {
	Index   int    `json:"index"`
	Prefix  string `json:"prefix"`
	Length  int    `json:"length"`
	Solved  bool   `json:"solved"`
	Answer  string `json:"answer,omitempty"`
	Used    int    `json:"used"`
	Allowed int    `json:"allowed"`
}

// SegmentView is one piece of the question; Blank is set for blank segments.
type SegmentView struct {
	Text  string     `json:"text,omitempty"`
	Blank *BlankView `json:"blank,omitempty"`
}

// View is the client-facing rendering of a game.
type View struct {
	ID          string        `json:"id"`
	Day         int           `json:"day"`
	Status      Status        `json:"status"`
	Segments    []SegmentView `json:"segments"`
	Current     Column        `json:"current"`
	Guesses     []Column      `json:"guesses"`
	ChecksLeft  int           `json:"checksLeft"`
	CanCheck    bool          `json:"canCheck"`
	RevealCount int           `json:"revealCount"`
	HighestText string        `json:"highestText"`
	LowestText  string        `json:"lowestText"`
	Outcome     *Outcome      `json:"outcome,omitempty"`
}

// View renders the game for clients without leaking unsolved answers.
func (g *Game) View() View {
	reveal := g.RevealCount()
	over := g.Status().Terminal()
	next := 0
	segs := lo.Map(g.Puzzle.Segments, func(s question.Segment, _ int) SegmentView {
		if !s.IsBlank {
			return SegmentView{Text: s.Text}
		}
		b := g.Puzzle.Blanks[next]
		next++
		solved := g.Solved.Test(uint(b.Index))
		bv := &BlankView{
			Index:   b.Index,
			Prefix:  prefix(b.Answer, reveal),
			Length:  utf8.RuneCountInString(b.Answer),
			Solved:  solved,
			Used:    g.WordGuessCount[b.Index],
			Allowed: g.WordAllowance(b.Index),
		}
		if solved || over {
			bv.Answer = b.Answer
		}
		return SegmentView{Blank: bv}
	})
	guesses := g.Guesses
	if guesses == nil {
		guesses = []Column{}
	}
	return View{
		ID:          g.ID,
		Day:         g.Puzzle.Day,
		Status:      g.Status(),
		Segments:    segs,
		Current:     g.Current,
		Guesses:     guesses,
		ChecksLeft:  g.ChecksLeft(),
		CanCheck:    g.CanCheck(),
		RevealCount: reveal,
		HighestText: g.Puzzle.HighestText,
		LowestText:  g.Puzzle.LowestText,
		Outcome:     g.Outcome,
	}
}

func prefix(s string, n int) string {
	return s[:len(s)-len(dropRunes(s, n))]
}
