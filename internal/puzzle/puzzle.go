// internal/puzzle/puzzle.go
//
// Puzzle records as stored in the repository and authored in the admin tool.
// Defines:
//   - Record: one day's puzzle (question, intended ranking, accepted synonyms).
//   - Normalize/Validate: the checks every authoring write runs before touching storage.
//   - Error taxonomy shared by the repository and the authoring service.
package puzzle

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/orderlygame/orderly/internal/question"
)

// ItemCount is the number of cards in every ranking.
const ItemCount = 6

const (
	DefaultHighestText = "most"
	DefaultLowestText  = "least"
)

var (
	// ErrConcurrentEdit means the repository version moved since the caller read it.
	ErrConcurrentEdit = errors.New("database has been modified, please refresh and try again")
	ErrNotFound       = errors.New("puzzle not found")
	ErrAtBoundary     = errors.New("puzzle is already at the edge of the schedule")
	ErrLocked         = errors.New("puzzle has already been published")
	ErrNotOwner       = errors.New("puzzle belongs to another author")
)

// ValidationError carries a user-facing message about a rejected puzzle.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Record is the authoritative description of one day's puzzle.
type Record struct {
	Day           int                 `json:"day"`
	Question      string              `json:"question"`
	IntendedOrder []string            `json:"intendedOrder"`
	StartingOrder []string            `json:"startingOrder,omitempty"`
	AlsoAccepts   map[string][]string `json:"alsoAccepts"`
	HighestText   string              `json:"highestText,omitempty"`
	LowestText    string              `json:"lowestText,omitempty"`
	Author        string              `json:"author"`
	LastModified  int64               `json:"lastModified,omitempty"`
}

// Clone returns a deep copy so callers can mutate without aliasing storage.
func (r Record) Clone() Record {
	out := r
	out.IntendedOrder = append([]string(nil), r.IntendedOrder...)
	if r.StartingOrder != nil {
		out.StartingOrder = append([]string(nil), r.StartingOrder...)
	}
	out.AlsoAccepts = make(map[string][]string, len(r.AlsoAccepts))
	for k, v := range r.AlsoAccepts {
		out.AlsoAccepts[k] = append([]string{}, v...)
	}
	return out
}

// Touch stamps LastModified with t in epoch milliseconds.
func (r *Record) Touch(t time.Time) {
	r.LastModified = t.UnixMilli()
}

// Keywords returns the blank keywords of the question.
func (r Record) Keywords() []string {
	return question.Keywords(r.Question)
}

// Normalize trims and defaults a record in place and validates it:
//   - question markers must be well formed;
//   - exactly ItemCount non-empty, distinct, well-formed items;
//   - startingOrder, when given, must be a permutation of intendedOrder;
//   - alsoAccepts is reduced to exactly the question's keywords, each present
//     (possibly empty), with blank synonyms dropped;
//   - highest/lowest text default to most/least and author is lowercased.
func (r *Record) Normalize() error {
	r.Question = strings.TrimSpace(r.Question)
	if r.Question == "" {
		return invalid("question", "question is required")
	}
	if err := question.Validate(r.Question); err != nil {
		return invalid("question", "use $$word$$ syntax for blanks")
	}

	items := lo.Filter(lo.Map(r.IntendedOrder, func(s string, _ int) string {
		return strings.TrimSpace(s)
	}), func(s string, _ int) bool { return s != "" })
	if len(items) != ItemCount {
		return invalid("intendedOrder", "please provide exactly %d items in the intended order", ItemCount)
	}
	if dups := lo.FindDuplicates(items); len(dups) > 0 {
		return invalid("intendedOrder", "duplicate item %q", dups[0])
	}
	for _, it := range items {
		if err := ValidateItem(it); err != nil {
			return err
		}
	}
	r.IntendedOrder = items

	if len(r.StartingOrder) > 0 {
		start := lo.Map(r.StartingOrder, func(s string, _ int) string { return strings.TrimSpace(s) })
		if len(start) != ItemCount || len(lo.Uniq(start)) != ItemCount || len(lo.Without(start, items...)) > 0 {
			return invalid("startingOrder", "starting order must contain the same %d items", ItemCount)
		}
		r.StartingOrder = start
	} else {
		r.StartingOrder = nil
	}

	accepts := make(map[string][]string)
	for _, kw := range r.Keywords() {
		syns := lo.Uniq(lo.Filter(lo.Map(r.AlsoAccepts[kw], func(s string, _ int) string {
			return strings.TrimSpace(s)
		}), func(s string, _ int) bool { return s != "" }))
		accepts[kw] = syns
	}
	r.AlsoAccepts = accepts

	r.HighestText = strings.TrimSpace(r.HighestText)
	if r.HighestText == "" {
		r.HighestText = DefaultHighestText
	}
	r.LowestText = strings.TrimSpace(r.LowestText)
	if r.LowestText == "" {
		r.LowestText = DefaultLowestText
	}
	r.Author = strings.ToLower(strings.TrimSpace(r.Author))
	return nil
}
