package puzzle

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func validRecord() Record {
	return Record{
		Question:      "Likeliness to cause a $$fire$$ in the $$kitchen$$",
		IntendedOrder: []string{"gas stove", "toaster", "candle", "kettle", "fridge", "spoon"},
		AlsoAccepts: map[string][]string{
			"fire":    {"blaze", " ", "blaze", "flame "},
			"stale":   {"gone"},
			"kitchen": nil,
		},
		Author: "  AMP ",
	}
}

func TestNormalize_Defaults(t *testing.T) {
	r := validRecord()
	if err := r.Normalize(); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if r.HighestText != DefaultHighestText || r.LowestText != DefaultLowestText {
		t.Errorf("defaults not applied: %q/%q", r.HighestText, r.LowestText)
	}
	if r.Author != "amp" {
		t.Errorf("author = %q, want amp", r.Author)
	}
	want := map[string][]string{"fire": {"blaze", "flame"}, "kitchen": {}}
	if !reflect.DeepEqual(r.AlsoAccepts, want) {
		t.Errorf("alsoAccepts = %#v, want %#v", r.AlsoAccepts, want)
	}
}

func TestNormalize_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Record)
		field string
	}{
		{"empty question", func(r *Record) { r.Question = "  " }, "question"},
		{"broken marker", func(r *Record) { r.Question = "a $$fire" }, "question"},
		{"five items", func(r *Record) { r.IntendedOrder = r.IntendedOrder[:5] }, "intendedOrder"},
		{"blank item", func(r *Record) { r.IntendedOrder[2] = "   " }, "intendedOrder"},
		{"duplicate", func(r *Record) { r.IntendedOrder[5] = "toaster" }, "intendedOrder"},
		{"bad link", func(r *Record) { r.IntendedOrder[0] = "link::https://x.test" }, "intendedOrder"},
		{"starting order mismatch", func(r *Record) {
			r.StartingOrder = []string{"gas stove", "toaster", "candle", "kettle", "fridge", "fork"}
		}, "startingOrder"},
	}
	for _, tt := range tests {
		r := validRecord()
		tt.edit(&r)
		err := r.Normalize()
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("%s: got %v, want ValidationError", tt.name, err)
			continue
		}
		if ve.Field != tt.field {
			t.Errorf("%s: field = %q, want %q", tt.name, ve.Field, tt.field)
		}
	}
}

func TestNormalize_TrimsItemsAndKeepsSixOfSeven(t *testing.T) {
	r := validRecord()
	r.IntendedOrder = []string{" a ", "b", "", "c", "d", "e", "f"}
	if err := r.Normalize(); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if want := []string{"a", "b", "c", "d", "e", "f"}; !reflect.DeepEqual(r.IntendedOrder, want) {
		t.Errorf("items = %v, want %v", r.IntendedOrder, want)
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	r := validRecord()
	c := r.Clone()
	c.IntendedOrder[0] = "changed"
	c.AlsoAccepts["fire"][0] = "changed"
	if r.IntendedOrder[0] == "changed" || r.AlsoAccepts["fire"][0] == "changed" {
		t.Error("Clone shares backing storage with the original")
	}
}

func TestTouch(t *testing.T) {
	var r Record
	ts := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	r.Touch(ts)
	if r.LastModified != ts.UnixMilli() {
		t.Errorf("LastModified = %d", r.LastModified)
	}
}

func TestParseItem(t *testing.T) {
	tests := []struct {
		in   string
		want Item
	}{
		{"plain", Item{Raw: "plain", Kind: KindText, Value: "plain"}},
		{"img::https://x.test/a.png", Item{Raw: "img::https://x.test/a.png", Kind: KindImage, Value: "https://x.test/a.png"}},
		{"link::https://x.test text::Example", Item{Raw: "link::https://x.test text::Example", Kind: KindLink, Value: "https://x.test", Label: "Example"}},
		{"html::<b>bold</b>", Item{Raw: "html::<b>bold</b>", Kind: KindHTML, Value: "<b>bold</b>"}},
	}
	for _, tt := range tests {
		if got := ParseItem(tt.in); got != tt.want {
			t.Errorf("ParseItem(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}
