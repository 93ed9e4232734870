package game

import (
	"fmt"
	"strings"
)

var hintSymbols = map[Hint]string{
	HintCorrect: "✓",
	HintUp:      "▲",
	HintDown:    "▼",
	HintNone:    "□",
}

// Solution reveals the intended order and the question without blank markers.
type Solution struct {
	Order    []string `json:"order"`
	Question string   `json:"question"`
}

// Outcome is produced once when a game reaches win or lose.
type Outcome struct {
	Won      bool      `json:"won"`
	Share    string    `json:"share"`
	Solution *Solution `json:"solution,omitempty"`
}

func (g *Game) outcome(won bool) *Outcome {
	o := &Outcome{Won: won, Share: ShareText(g.Puzzle.Day, g.Guesses, g.MaxChecks, won)}
	if !won {
		o.Solution = g.Puzzle.Solution()
	}
	return o
}

// ShareText renders the spoiler-free result grid: a title line followed by one
// row per card position with one symbol per ranking check.
func ShareText(day int, guesses []Column, maxChecks int, won bool) string {
	score := "X"
	if won {
		score = fmt.Sprint(len(guesses))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Orderly #%d %s/%d", day, score, maxChecks)
	if len(guesses) == 0 {
		return b.String()
	}
	for row := range guesses[0] {
		b.WriteByte('\n')
		for _, col := range guesses {
			sym := hintSymbols[HintNone]
			if row < len(col) {
				sym = hintSymbols[col[row].Hint]
			}
			b.WriteString(sym)
		}
	}
	return b.String()
}
