package question

import (
	"errors"
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want []Segment
	}{
		{"", nil},
		{"no blanks here", []Segment{{Text: "no blanks here"}}},
		{"$$only$$", []Segment{{Text: "only", IsBlank: true}}},
		{
			"Likeliness to cause a $$fire$$ in a $$kitchen$$!",
			[]Segment{
				{Text: "Likeliness to cause a "},
				{Text: "fire", IsBlank: true},
				{Text: " in a "},
				{Text: "kitchen", IsBlank: true},
				{Text: "!"},
			},
		},
		{
			"$$new$$$$puzzle$$",
			[]Segment{{Text: "new", IsBlank: true}, {Text: "puzzle", IsBlank: true}},
		},
	}
	for _, tt := range tests {
		if got := Parse(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Parse(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

func TestJoinIsInverseOfParse(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		"$$a$$",
		"This is my $$new$$ $$puzzle$$",
		"  leading $$ spaced $$ trailing  ",
		"$$first$$ middle $$last$$",
		"price in $ and $$money$$",
	}
	for _, in := range inputs {
		if got := Join(Parse(in)); got != in {
			t.Errorf("Join(Parse(%q)) = %q", in, got)
		}
	}
}

func TestKeywords(t *testing.T) {
	got := Keywords("This is my $$new$$ $$ puzzle $$")
	want := []string{"new", "puzzle"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Keywords = %v, want %v", got, want)
	}
	if got := Keywords("nothing"); got != nil {
		t.Errorf("Keywords without blanks = %v, want nil", got)
	}
}

func TestPlain(t *testing.T) {
	if got := Plain("Most $$fire$$ risk"); got != "Most fire risk" {
		t.Errorf("Plain = %q", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"fine $$word$$", true},
		{"no blanks", true},
		{"single $ sign", true},
		{"unclosed $$word", false},
		{"empty $$$$ blank", false},
		{"blank $$   $$ of spaces", false},
		{"$$one$$ and $$two", false},
	}
	for _, tt := range tests {
		err := Validate(tt.in)
		if tt.valid && err != nil {
			t.Errorf("Validate(%q) = %v, want nil", tt.in, err)
		}
		if !tt.valid && !errors.Is(err, ErrMalformed) {
			t.Errorf("Validate(%q) = %v, want ErrMalformed", tt.in, err)
		}
	}
}
