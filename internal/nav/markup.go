package nav

import "encoding/json"

// Recognized markup kinds.
const (
	MarkupInlineKeyboard      = "inline_keyboard"
	MarkupReplyKeyboard       = "reply_keyboard"
	MarkupReplyKeyboardRemove = "reply_keyboard_remove"
	MarkupForceReply          = "force_reply"
)

// Markup is the opaque serialization envelope of a reply markup: a kind
// tag plus the nested mapping the backend codec understands.
type Markup struct {
	Kind string         `json:"kind"`
	Data map[string]any `json:"data"`
}

// Canonical returns the deterministic JSON form of the markup used for
// equality checks. encoding/json writes map keys sorted, which makes
// the output canonical. A nil markup canonicalizes to the empty string.
func (m *Markup) Canonical() string {
	if m == nil {
		return ""
	}
	raw, err := json.Marshal(map[string]any{"kind": m.Kind, "data": m.Data})
	if err != nil {
		return m.Kind
	}
	return string(raw)
}

// MarkupEqual reports whether two markups are semantically equal,
// treating nil and nil as equal.
func MarkupEqual(a, b *Markup) bool {
	if a == nil && b == nil {
		return true
	}
	return a.Canonical() == b.Canonical()
}

// Preview holds link-preview options for a text message.
type Preview struct {
	URL      string `json:"url,omitempty"`
	Small    bool   `json:"small,omitempty"`
	Large    bool   `json:"large,omitempty"`
	Above    bool   `json:"above,omitempty"`
	Disabled bool   `json:"disabled,omitempty"`
}

// PreviewEqual reports whether two previews are equal field by field,
// treating nil and nil as equal.
func PreviewEqual(a, b *Preview) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
