// Package extras filters the optional per-call metadata of a payload
// down to the fields the gateway accepts, and validates text entities.
package extras

import (
	"fmt"
	"log/slog"

	"github.com/chatnav/chatnav/internal/nav"
)

// Extra keys recognized on text and caption targets.
const (
	KeyMode     = "mode"
	KeyEntities = "entities"
	KeyEffect   = "message_effect_id"
	KeyPosition = "show_caption_above_media"
)

var textKeys = map[string]struct{}{
	KeyMode:     {},
	KeyEntities: {},
	KeyEffect:   {},
}

var mediaKeys = map[string]struct{}{
	"spoiler":            {},
	KeyPosition:          {},
	"start":              {},
	"thumb":              {},
	"title":              {},
	"performer":          {},
	"duration":           {},
	"width":              {},
	"height":             {},
	"cover":              {},
	"supports_streaming": {},
}

// boolKeys are media keys whose value must be a bool; a mismatch is fatal.
var boolKeys = map[string]struct{}{
	"spoiler":            {},
	KeyPosition:          {},
	"supports_streaming": {},
}

// Sanitized is the structured mapping of admissible fields per target:
// text-level, caption-level, media-level, and the send-time effect.
type Sanitized struct {
	Text    map[string]any
	Caption map[string]any
	Media   map[string]any
	Effect  map[string]any
}

// Sanitizer applies the whitelist and entity validation rules. It is
// stateless apart from its logger.
type Sanitizer struct {
	logger *slog.Logger
}

// NewSanitizer creates a Sanitizer.
func NewSanitizer(log *slog.Logger) *Sanitizer {
	if log == nil {
		log = slog.Default()
	}
	return &Sanitizer{logger: log.With(slog.String("service", "extras"))}
}

// ForSend filters extra for a send call. captionLen is the length of
// the text or caption the entities will annotate; isMedia selects the
// caption target over the text target.
func (s *Sanitizer) ForSend(scope nav.Scope, extra map[string]any, captionLen int, isMedia bool) (Sanitized, error) {
	return s.filter(scope, extra, captionLen, isMedia, false)
}

// ForEdit filters extra for an edit call. Effects are a send-time
// concern and are always dropped here.
func (s *Sanitizer) ForEdit(scope nav.Scope, extra map[string]any, captionLen int, isMedia bool) (Sanitized, error) {
	return s.filter(scope, extra, captionLen, isMedia, true)
}

func (s *Sanitizer) filter(scope nav.Scope, extra map[string]any, captionLen int, isMedia, editing bool) (Sanitized, error) {
	out := Sanitized{
		Text:    map[string]any{},
		Caption: map[string]any{},
		Media:   map[string]any{},
		Effect:  map[string]any{},
	}
	for key, value := range extra {
		if _, ok := textKeys[key]; ok {
			if err := s.filterText(scope, &out, key, value, captionLen, isMedia, editing); err != nil {
				return Sanitized{}, err
			}
			continue
		}
		if _, ok := mediaKeys[key]; ok {
			if err := filterMedia(&out, key, value); err != nil {
				return Sanitized{}, err
			}
			continue
		}
		return Sanitized{}, &nav.ExtraForbiddenError{Key: key}
	}
	return out, nil
}

func (s *Sanitizer) filterText(scope nav.Scope, out *Sanitized, key string, value any, captionLen int, isMedia, editing bool) error {
	target := out.Text
	if isMedia {
		target = out.Caption
	}
	switch key {
	case KeyMode:
		mode, ok := value.(string)
		if !ok {
			return &nav.ExtraForbiddenError{Key: key, Reason: "mode must be a string"}
		}
		if mode != "HTML" && mode != "MarkdownV2" {
			s.logger.Warn("unknown parse mode dropped", slog.String("mode", mode))
			return nil
		}
		if captionLen == 0 {
			return nil
		}
		target[KeyMode] = mode
	case KeyEntities:
		if captionLen == 0 {
			return nil
		}
		kept, dropped := s.validEntities(value, captionLen)
		if dropped > 0 {
			s.logger.Warn("invalid entities dropped", slog.Int("count", dropped))
		}
		if len(kept) == 0 {
			return nil
		}
		target[KeyEntities] = kept
	case KeyEffect:
		effect, ok := value.(string)
		if !ok {
			return &nav.ExtraForbiddenError{Key: key, Reason: "message_effect_id must be a string"}
		}
		if editing || scope.Category != nav.CategoryPrivate {
			s.logger.Debug("message effect dropped",
				slog.Bool("editing", editing),
				slog.String("category", string(scope.Category)))
			return nil
		}
		out.Effect[KeyEffect] = effect
	}
	return nil
}

func filterMedia(out *Sanitized, key string, value any) error {
	if _, mustBool := boolKeys[key]; mustBool {
		if _, ok := value.(bool); !ok {
			return &nav.ExtraForbiddenError{Key: key, Reason: fmt.Sprintf("%s must be a bool", key)}
		}
	}
	out.Media[key] = value
	return nil
}

// Merged flattens the sanitized fields back into one extra map, which
// feeds downstream gateway calls and re-sanitizes to itself.
func (s Sanitized) Merged() map[string]any {
	out := map[string]any{}
	for _, part := range []map[string]any{s.Text, s.Caption, s.Media, s.Effect} {
		for k, v := range part {
			out[k] = v
		}
	}
	return out
}
