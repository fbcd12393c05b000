// Package decision holds the pure transition decision function: given
// the previously rendered view and a new payload, pick the minimal
// gateway operation that transforms one into the other.
package decision

import (
	"encoding/json"
	"strings"

	"github.com/chatnav/chatnav/internal/extras"
	"github.com/chatnav/chatnav/internal/nav"
)

// Verdict is the closed set of transition operations.
type Verdict int

const (
	NoChange Verdict = iota
	Resend
	EditText
	EditMedia
	EditMediaCaption
	EditMarkup
	DeleteSend
)

var verdictNames = map[Verdict]string{
	NoChange:         "no_change",
	Resend:           "resend",
	EditText:         "edit_text",
	EditMedia:        "edit_media",
	EditMediaCaption: "edit_media_caption",
	EditMarkup:       "edit_markup",
	DeleteSend:       "delete_send",
}

func (v Verdict) String() string {
	if name, ok := verdictNames[v]; ok {
		return name
	}
	return "unknown"
}

// Config carries the single decision knob: whether a thumbnail
// presence flip forces full media replacement.
type Config struct {
	ThumbGuard bool
}

// View is the normalized form of a previously rendered message that
// the decision function compares against.
type View struct {
	Text    string
	Media   *nav.MediaItem
	Group   []nav.MediaItem
	Reply   *nav.Markup
	Preview *nav.Preview
	Extra   map[string]any
}

// ViewOf builds a View from a history message.
func ViewOf(m nav.Message) View {
	return View{
		Text:    m.Text,
		Media:   m.Media,
		Group:   m.Group,
		Reply:   m.Markup,
		Preview: m.Preview,
		Extra:   m.Extra,
	}
}

// EffectiveCaption resolves the caption the view shows, "" when none.
func (v View) EffectiveCaption() string {
	text := strings.TrimSpace(v.Text)
	if text != "" {
		return text
	}
	if v.Media != nil {
		return strings.TrimSpace(v.Media.Caption)
	}
	return ""
}

// Decide maps (old view, new payload) to a verdict. It is
// deterministic, total, and performs no I/O. The payload must already
// be normalized.
func Decide(prev *View, next nav.Payload, cfg Config) Verdict {
	if prev == nil {
		return Resend
	}
	if len(prev.Group) > 0 || len(next.Group) > 0 {
		// Partial album updates are handled one level above; once the
		// decision is consulted, groups force full replacement.
		return DeleteSend
	}
	if prev.Media != nil && prev.Media.Type.Irreplaceable() {
		return DeleteSend
	}
	if next.Media != nil && next.Media.Type.Irreplaceable() {
		return DeleteSend
	}
	if (prev.Media != nil) != (next.Media != nil) {
		return DeleteSend
	}
	if prev.Media == nil {
		return decideText(prev, next)
	}
	return decideMedia(prev, next, cfg)
}

func decideText(prev *View, next nav.Payload) Verdict {
	if strings.TrimSpace(prev.Text) != strings.TrimSpace(next.Text) {
		return EditText
	}
	if !TextExtrasEqual(prev.Extra, next.Extra) || !nav.PreviewEqual(prev.Preview, next.Preview) {
		return EditText
	}
	if nav.MarkupEqual(prev.Reply, next.Reply) {
		return NoChange
	}
	return EditMarkup
}

func decideMedia(prev *View, next nav.Payload, cfg Config) Verdict {
	if !sameFile(prev.Media, next.Media) {
		return EditMedia
	}
	if !MediaAffectingEqual(prev.Extra, next.Extra, cfg.ThumbGuard) {
		return EditMedia
	}
	if captionChanged(prev, next) {
		return EditMediaCaption
	}
	if nav.MarkupEqual(prev.Reply, next.Reply) {
		return NoChange
	}
	return EditMarkup
}

// sameFile reports whether the new payload keeps the backing file of
// the old message. History paths are always file ids; the new path
// counts only when it is file-id shaped itself.
func sameFile(old, new *nav.MediaItem) bool {
	if !new.IsFileID(false) {
		return false
	}
	return old.Path == new.Path
}

func captionChanged(prev *View, next nav.Payload) bool {
	newCaption := next.EffectiveCaption()
	if newCaption != nil && *newCaption != prev.EffectiveCaption() {
		return true
	}
	if !TextExtrasEqual(prev.Extra, next.Extra) {
		return true
	}
	return !PositionEqual(prev.Extra, next.Extra)
}

// TextExtrasEqual compares the text-level extras that affect rendering:
// mode and entities. The message effect is a send-time concern and is
// excluded from comparison.
func TextExtrasEqual(a, b map[string]any) bool {
	return canonical(pick(a, extras.KeyMode, extras.KeyEntities)) ==
		canonical(pick(b, extras.KeyMode, extras.KeyEntities))
}

// PositionEqual compares the caption position flag.
func PositionEqual(a, b map[string]any) bool {
	return canonical(pick(a, extras.KeyPosition)) == canonical(pick(b, extras.KeyPosition))
}

// MediaAffectingEqual compares spoiler and start, plus thumbnail
// presence when the thumb guard is on.
func MediaAffectingEqual(a, b map[string]any, thumbGuard bool) bool {
	if canonical(pick(a, "spoiler", "start")) != canonical(pick(b, "spoiler", "start")) {
		return false
	}
	if !thumbGuard {
		return true
	}
	_, aThumb := a["thumb"]
	_, bThumb := b["thumb"]
	return aThumb == bThumb
}

func pick(m map[string]any, keys ...string) map[string]any {
	out := map[string]any{}
	for _, key := range keys {
		if value, ok := m[key]; ok {
			out[key] = value
		}
	}
	return out
}

func canonical(m map[string]any) string {
	if len(m) == 0 {
		return ""
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(raw)
}
