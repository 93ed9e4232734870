package game

import (
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/orderlygame/orderly/internal/puzzle"
	"github.com/orderlygame/orderly/internal/question"
)

// shuffleSalt keeps day-seeded starting orders from being a trivial function
// of the day number alone.
const shuffleSalt = 0x6f726465726c79

// Blank is one fill-in word of the question.
type Blank struct {
	Index    int
	Answer   string
	Synonyms []string
}

// Puzzle is the read-only snapshot of a day's record that a game plays against.
type Puzzle struct {
	Day         int
	Question    string
	Segments    []question.Segment
	Blanks      []Blank
	Intended    []string
	Starting    []string
	HighestText string
	LowestText  string
}

// NewPuzzle derives a playable puzzle from a repository record. The record is
// normalised on a copy, so invalid records are rejected rather than played.
func NewPuzzle(rec puzzle.Record) (*Puzzle, error) {
	r := rec.Clone()
	if err := r.Normalize(); err != nil {
		return nil, err
	}
	p := &Puzzle{
		Day:         r.Day,
		Question:    r.Question,
		Segments:    question.Parse(r.Question),
		Intended:    r.IntendedOrder,
		HighestText: r.HighestText,
		LowestText:  r.LowestText,
	}
	for _, s := range p.Segments {
		if !s.IsBlank {
			continue
		}
		answer := strings.TrimSpace(s.Text)
		p.Blanks = append(p.Blanks, Blank{
			Index:    len(p.Blanks),
			Answer:   answer,
			Synonyms: r.AlsoAccepts[answer],
		})
	}
	if len(r.StartingOrder) > 0 {
		p.Starting = r.StartingOrder
	} else {
		p.Starting = StartingOrder(r.Day, r.IntendedOrder)
	}
	return p, nil
}

// StartingOrder shuffles intended deterministically for the given day, so
// every player sees the same first column. The result never equals intended
// when there is more than one item.
func StartingOrder(day int, intended []string) []string {
	out := slices.Clone(intended)
	r := rand.New(rand.NewPCG(uint64(day), shuffleSalt))
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if len(out) > 1 && slices.Equal(out, intended) {
		out = append(out[1:], out[0])
	}
	return out
}

// Solution returns the intended order and the question without markers.
func (p *Puzzle) Solution() *Solution {
	return &Solution{
		Order:    slices.Clone(p.Intended),
		Question: question.Plain(p.Question),
	}
}
