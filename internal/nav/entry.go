package nav

import (
	"encoding/json"
	"strings"
	"time"
)

// Message is one rendered message recorded in history. Media paths are
// always backend-assigned file ids here; Extras lists the additional
// ids a send produced (the album tail).
type Message struct {
	ID        int            `json:"id"`
	Text      string         `json:"text,omitempty"`
	Media     *MediaItem     `json:"media,omitempty"`
	Group     []MediaItem    `json:"group,omitempty"`
	Markup    *Markup        `json:"markup,omitempty"`
	Preview   *Preview       `json:"preview,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
	Extras    []int          `json:"extras,omitempty"`
	Inline    string         `json:"inline_id,omitempty"`
	Automated bool           `json:"automated"`
	TS        time.Time      `json:"ts"`
}

// MarshalJSON pins the timestamp to millisecond precision in UTC so
// entries round-trip identically through any store adapter.
func (m Message) MarshalJSON() ([]byte, error) {
	type alias Message
	a := alias(m)
	a.TS = m.TS.UTC().Truncate(time.Millisecond)
	return json.Marshal(a)
}

// AllIDs returns the message id followed by its extras with duplicates
// removed, in insertion order. This is the delete dispatch set.
func (m Message) AllIDs() []int {
	ids := make([]int, 0, 1+len(m.Extras))
	seen := map[int]struct{}{m.ID: {}}
	ids = append(ids, m.ID)
	for _, id := range m.Extras {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// EffectiveCaption resolves the caption the message currently shows:
// non-blank text wins over the media caption; blank resolves to nil.
func (m Message) EffectiveCaption() *string {
	text := strings.TrimSpace(m.Text)
	if text != "" {
		return &text
	}
	var caption string
	if m.Media != nil {
		caption = strings.TrimSpace(m.Media.Caption)
	}
	if caption != "" {
		return &caption
	}
	return nil
}

// Entry is one atomic screen: its FSM state, the key of the view
// factory that can rebuild it, and the ordered messages composing it.
// Root marks the first-of-session anchor pinned during trimming.
// Entry is a value; mutation helpers return copies.
type Entry struct {
	State    string    `json:"state,omitempty"`
	View     string    `json:"view,omitempty"`
	Root     bool      `json:"root"`
	Messages []Message `json:"messages"`
}

// Head returns the first message of the entry.
func (e Entry) Head() (Message, bool) {
	if len(e.Messages) == 0 {
		return Message{}, false
	}
	return e.Messages[0], true
}

// HeadID returns the id of the head message, or 0 when empty.
func (e Entry) HeadID() int {
	if len(e.Messages) == 0 {
		return 0
	}
	return e.Messages[0].ID
}

// WithMessages returns a copy of the entry carrying the given messages.
func (e Entry) WithMessages(messages []Message) Entry {
	e.Messages = append([]Message(nil), messages...)
	return e
}

// WithHeadID returns a copy of the entry whose head message id is
// rewritten to id. Used by rebase.
func (e Entry) WithHeadID(id int) Entry {
	if len(e.Messages) == 0 {
		return e
	}
	messages := append([]Message(nil), e.Messages...)
	messages[0].ID = id
	e.Messages = messages
	return e
}

// AllIDs returns every backend id referenced by the entry's messages,
// duplicates removed, in order.
func (e Entry) AllIDs() []int {
	seen := map[int]struct{}{}
	var ids []int
	for _, m := range e.Messages {
		for _, id := range m.AllIDs() {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

// EncodeEntries serializes a history snapshot in the wire schema.
func EncodeEntries(entries []Entry) ([]byte, error) {
	if entries == nil {
		entries = []Entry{}
	}
	return json.Marshal(entries)
}

// DecodeEntries parses a history snapshot from the wire schema.
func DecodeEntries(raw []byte) ([]Entry, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
