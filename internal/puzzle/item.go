package puzzle

import (
	"regexp"
	"strings"
)

// ItemKind is the rendering format encoded in an item's text prefix.
type ItemKind string

const (
	KindText  ItemKind = "text"
	KindImage ItemKind = "image"
	KindLink  ItemKind = "link"
	KindHTML  ItemKind = "html"
)

const (
	imagePrefix = "img::"
	linkPrefix  = "link::"
	htmlPrefix  = "html::"
)

var linkRe = regexp.MustCompile(`^link::(.+?)(?:\s+)?text::(.+)$`)

// Item is the decoded form of an item descriptor's text. Only presentation
// code cares about anything but Raw; the core compares items by Raw.
type Item struct {
	Raw   string   `json:"raw"`
	Kind  ItemKind `json:"kind"`
	Value string   `json:"value"`
	Label string   `json:"label,omitempty"`
}

// ParseItem decodes the format prefix of an item text.
func ParseItem(text string) Item {
	switch {
	case strings.HasPrefix(text, imagePrefix):
		return Item{Raw: text, Kind: KindImage, Value: strings.TrimPrefix(text, imagePrefix)}
	case strings.HasPrefix(text, linkPrefix):
		if m := linkRe.FindStringSubmatch(text); m != nil {
			return Item{Raw: text, Kind: KindLink, Value: strings.TrimSpace(m[1]), Label: strings.TrimSpace(m[2])}
		}
		return Item{Raw: text, Kind: KindLink, Value: strings.TrimPrefix(text, linkPrefix)}
	case strings.HasPrefix(text, htmlPrefix):
		return Item{Raw: text, Kind: KindHTML, Value: strings.TrimPrefix(text, htmlPrefix)}
	}
	return Item{Raw: text, Kind: KindText, Value: text}
}

// ValidateItem rejects descriptors whose prefix payload is unusable.
func ValidateItem(text string) error {
	it := ParseItem(text)
	switch it.Kind {
	case KindLink:
		if it.Label == "" || it.Value == "" {
			return invalid("intendedOrder", "link items need the form link::<url> text::<label>")
		}
	case KindImage, KindHTML:
		if strings.TrimSpace(it.Value) == "" {
			return invalid("intendedOrder", "%s item has no content", it.Kind)
		}
	}
	return nil
}
