package authoring

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/orderlygame/orderly/internal/daily"
	"github.com/orderlygame/orderly/internal/puzzle"
	"github.com/orderlygame/orderly/internal/repo"
)

type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *stepClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func rec(q string) puzzle.Record {
	return puzzle.Record{
		Question:      q + " $$size$$",
		IntendedOrder: []string{"a", "b", "c", "d", "e", "f"},
		AlsoAccepts:   map[string][]string{"size": {"bulk"}},
	}
}

// newService seeds days 1..n by author amp with today = today.
func newService(t *testing.T, n, today int) (*Service, repo.Repository, *stepClock) {
	t.Helper()
	clk := &stepClock{t: daily.DefaultEpoch.Add(time.Duration(today-1)*24*time.Hour + time.Hour)}
	r := repo.NewMemory()
	s := New(r, daily.NewResolver(daily.DefaultEpoch, clk))
	if n > 0 {
		recs := make([]puzzle.Record, n)
		for i := range recs {
			recs[i] = rec(fmt.Sprintf("q%d", i+1))
			recs[i].Day = i + 1
		}
		if _, err := s.Upload(context.Background(), recs, "AMP"); err != nil {
			t.Fatalf("Upload: %v", err)
		}
	}
	return s, r, clk
}

func questions(t *testing.T, r repo.Repository) []string {
	t.Helper()
	all, err := r.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	out := make([]string, len(all))
	for i, x := range all {
		if x.Day != i+1 {
			t.Fatalf("days not contiguous: %d at index %d", x.Day, i)
		}
		out[i] = x.Question
	}
	return out
}

func TestAdd_StaleVersionThenRetry(t *testing.T) {
	ctx := context.Background()
	s, r, _ := newService(t, 1, 0)
	for v := int64(1); v < 4; v++ {
		if _, _, err := s.Add(ctx, v, rec(fmt.Sprintf("extra%d", v)), "amp"); err != nil {
			t.Fatalf("Add at version %d: %v", v, err)
		}
	}
	before := questions(t, r)

	_, _, err := s.Add(ctx, 3, rec("late"), "amp")
	if !errors.Is(err, puzzle.ErrConcurrentEdit) {
		t.Fatalf("stale Add err = %v, want ErrConcurrentEdit", err)
	}
	if got := questions(t, r); len(got) != len(before) {
		t.Fatalf("stale Add wrote: %v", got)
	}

	added, v, err := s.Add(ctx, 4, rec("late"), "Bob")
	if err != nil {
		t.Fatalf("retry Add: %v", err)
	}
	if v != 5 {
		t.Errorf("version = %d, want 5", v)
	}
	if added.Day != 5 || added.Author != "bob" {
		t.Errorf("added = day %d author %q", added.Day, added.Author)
	}
}

func TestAdd_ValidationWritesNothing(t *testing.T) {
	ctx := context.Background()
	s, r, _ := newService(t, 0, 0)
	bad := rec("q")
	bad.IntendedOrder = bad.IntendedOrder[:5]
	_, _, err := s.Add(ctx, 0, bad, "amp")
	var ve *puzzle.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if v, _ := r.Version(ctx); v != 0 {
		t.Errorf("version moved to %d", v)
	}
}

func TestDelete_Renumbers(t *testing.T) {
	ctx := context.Background()
	s, r, clk := newService(t, 4, 0)
	later := clk.Now().Add(time.Hour)
	clk.Set(later)

	if _, err := s.Delete(ctx, 1, 2, "amp"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	all, _ := r.List(ctx)
	want := []string{"q1 $$size$$", "q3 $$size$$", "q4 $$size$$"}
	if got := questions(t, r); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("questions = %v, want %v", got, want)
	}
	if all[0].LastModified == later.UnixMilli() {
		t.Error("day 1 was restamped")
	}
	for _, x := range all[1:] {
		if x.LastModified != later.UnixMilli() {
			t.Errorf("day %d lastModified = %d, want %d", x.Day, x.LastModified, later.UnixMilli())
		}
	}
	if _, err := s.Delete(ctx, 2, 9, "amp"); !errors.Is(err, puzzle.ErrNotFound) {
		t.Errorf("Delete missing = %v", err)
	}
}

func TestMove(t *testing.T) {
	ctx := context.Background()
	s, r, _ := newService(t, 5, 2)

	v, err := s.Move(ctx, 1, 4, Up, "amp")
	if err != nil {
		t.Fatalf("Move up: %v", err)
	}
	want := []string{"q1 $$size$$", "q2 $$size$$", "q4 $$size$$", "q3 $$size$$", "q5 $$size$$"}
	if got := questions(t, r); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("after move = %v", got)
	}

	tests := []struct {
		name   string
		day    int
		dir    Direction
		editor string
		want   error
	}{
		{"into locked day", 3, Up, "amp", puzzle.ErrLocked},
		{"locked day", 2, Down, "amp", puzzle.ErrLocked},
		{"past the end", 5, Down, "amp", puzzle.ErrAtBoundary},
		{"other author", 4, Down, "bob", puzzle.ErrNotOwner},
		{"missing", 8, Up, "amp", puzzle.ErrNotFound},
	}
	for _, tt := range tests {
		if _, err := s.Move(ctx, v, tt.day, tt.dir, tt.editor); !errors.Is(err, tt.want) {
			t.Errorf("%s: err = %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestEdit(t *testing.T) {
	ctx := context.Background()
	s, r, _ := newService(t, 3, 1)

	changed := rec("new")
	changed.Author = "someone else"
	got, v, err := s.Edit(ctx, 1, 3, changed, "Amp")
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if got.Day != 3 || got.Author != "amp" || v != 2 {
		t.Errorf("edited = day %d author %q version %d", got.Day, got.Author, v)
	}
	stored, _ := r.Get(ctx, 3)
	if stored.Question != "new $$size$$" {
		t.Errorf("stored question = %q", stored.Question)
	}

	tests := []struct {
		name   string
		day    int
		editor string
		want   error
	}{
		{"locked", 1, "amp", puzzle.ErrLocked},
		{"not owner", 2, "bob", puzzle.ErrNotOwner},
		{"missing", 7, "amp", puzzle.ErrNotFound},
	}
	for _, tt := range tests {
		if _, _, err := s.Edit(ctx, v, tt.day, rec("x"), tt.editor); !errors.Is(err, tt.want) {
			t.Errorf("%s: err = %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestUpload_RequiresContiguousDays(t *testing.T) {
	s, _, _ := newService(t, 0, 0)
	a, b := rec("a"), rec("b")
	a.Day, b.Day = 1, 3
	_, err := s.Upload(context.Background(), []puzzle.Record{a, b}, "")
	var ve *puzzle.ValidationError
	if !errors.As(err, &ve) || ve.Field != "day" {
		t.Errorf("err = %v, want day ValidationError", err)
	}
}

func TestUpload_DefaultAuthor(t *testing.T) {
	ctx := context.Background()
	s, r, _ := newService(t, 0, 0)
	a := rec("a")
	a.Day = 1
	if _, err := s.Upload(ctx, []puzzle.Record{a}, ""); err != nil {
		t.Fatal(err)
	}
	got, _ := r.Get(ctx, 1)
	if got.Author != DefaultAuthor {
		t.Errorf("author = %q", got.Author)
	}
}

func TestParseDirection(t *testing.T) {
	for in, want := range map[string]Direction{"up": Up, " DOWN ": Down} {
		if got, err := ParseDirection(in); err != nil || got != want {
			t.Errorf("ParseDirection(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseDirection("left"); err == nil {
		t.Error("expected error for left")
	}
}
