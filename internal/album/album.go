// Package album validates media groups and decides whether two albums
// are close enough for a partial in-place update.
package album

import (
	"fmt"

	"github.com/chatnav/chatnav/internal/nav"
)

// Config holds the album bounds and the set of types that may blend
// inside one group.
type Config struct {
	Floor   int
	Ceiling int
	Blend   map[nav.MediaType]bool
}

// DefaultConfig returns the stock bounds: 2..10 items, photos and
// videos blendable.
func DefaultConfig() Config {
	return Config{
		Floor:   2,
		Ceiling: 10,
		Blend:   map[nav.MediaType]bool{nav.MediaPhoto: true, nav.MediaVideo: true},
	}
}

// Validate checks a group against the send rules: size within bounds,
// known item types, and no mixing of audio or documents with anything
// else.
func (c Config) Validate(items []nav.MediaItem) error {
	var reasons []string
	if len(items) < c.Floor || len(items) > c.Ceiling {
		reasons = append(reasons, fmt.Sprintf("group size %d outside [%d, %d]", len(items), c.Floor, c.Ceiling))
	}
	audio, document, other := 0, 0, 0
	for _, item := range items {
		if !item.Type.Valid() {
			reasons = append(reasons, fmt.Sprintf("unknown media type %q", item.Type))
			continue
		}
		switch item.Type {
		case nav.MediaAudio:
			audio++
		case nav.MediaDocument:
			document++
		default:
			other++
		}
	}
	if audio > 0 && audio != len(items) {
		reasons = append(reasons, "audio cannot mix with other media")
	}
	if document > 0 && document != len(items) {
		reasons = append(reasons, "documents cannot mix with other media")
	}
	_ = other
	if len(reasons) > 0 {
		return &nav.MediaGroupError{Reasons: reasons}
	}
	return nil
}

// Compatible reports whether the new album can be applied onto the old
// one item by item: same length, and the type regimes line up
// (all-audio stays all-audio, all-document stays all-document, and
// anything else requires every new type to be blendable).
func (c Config) Compatible(old, new []nav.MediaItem) bool {
	if len(old) != len(new) || len(old) == 0 {
		return false
	}
	if uniform(old, nav.MediaAudio) {
		return uniform(new, nav.MediaAudio)
	}
	if uniform(old, nav.MediaDocument) {
		return uniform(new, nav.MediaDocument)
	}
	for _, item := range new {
		if !c.Blend[item.Type] {
			return false
		}
	}
	return true
}

func uniform(items []nav.MediaItem, t nav.MediaType) bool {
	for _, item := range items {
		if item.Type != t {
			return false
		}
	}
	return true
}
