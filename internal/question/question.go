// internal/question/question.go
//
// Parsing of puzzle prompts into literal text and blanks.
// A blank is written as $$word$$ inside the question; the word between the
// markers is the keyword the player has to guess.
package question

import (
	"errors"
	"regexp"
	"strings"
)

// Marker delimits a blank on both sides.
const Marker = "$$"

var blankRe = regexp.MustCompile(`\$\$[^$]+\$\$`)

// ErrMalformed reports markers that do not pair up into non-empty blanks.
var ErrMalformed = errors.New("question: malformed blank markers")

// Segment is one piece of a parsed question.
type Segment struct {
	Text    string `json:"text"`
	IsBlank bool   `json:"isBlank"`
}

// Parse splits q into literal and blank segments. Markers are stripped from
// blank segments and zero-length segments are dropped. Blank text is kept
// verbatim so that Join(Parse(q)) == q.
func Parse(q string) []Segment {
	var out []Segment
	last := 0
	for _, loc := range blankRe.FindAllStringIndex(q, -1) {
		if loc[0] > last {
			out = append(out, Segment{Text: q[last:loc[0]]})
		}
		inner := q[loc[0]+len(Marker) : loc[1]-len(Marker)]
		out = append(out, Segment{Text: inner, IsBlank: true})
		last = loc[1]
	}
	if last < len(q) {
		out = append(out, Segment{Text: q[last:]})
	}
	return out
}

// Join reassembles segments into a question string, re-wrapping blanks.
func Join(segs []Segment) string {
	var b strings.Builder
	for _, s := range segs {
		if s.IsBlank {
			b.WriteString(Marker)
			b.WriteString(s.Text)
			b.WriteString(Marker)
			continue
		}
		b.WriteString(s.Text)
	}
	return b.String()
}

// Keywords returns the trimmed text of each blank in order of appearance.
func Keywords(q string) []string {
	var out []string
	for _, s := range Parse(q) {
		if s.IsBlank {
			out = append(out, strings.TrimSpace(s.Text))
		}
	}
	return out
}

// Plain returns q with the blank markers removed.
func Plain(q string) string {
	var b strings.Builder
	for _, s := range Parse(q) {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Validate rejects questions whose markers are unbalanced, empty ($$$$ or
// $$   $$), or otherwise left over after the blanks have been extracted.
func Validate(q string) error {
	for _, s := range Parse(q) {
		if s.IsBlank {
			if strings.TrimSpace(s.Text) == "" {
				return ErrMalformed
			}
			continue
		}
		if strings.Contains(s.Text, Marker) {
			return ErrMalformed
		}
	}
	return nil
}
