package nav

import "strings"

// Payload is the input to a render: what one message of the new screen
// should look like. Erase distinguishes "leave the caption alone" from
// "clear the caption to empty" when Text is blank.
type Payload struct {
	Text    string
	Media   *MediaItem
	Group   []MediaItem
	Reply   *Markup
	Preview *Preview
	Extra   map[string]any
	Erase   bool
}

// Empty reports whether the payload carries no content at all.
func (p Payload) Empty() bool {
	return strings.TrimSpace(p.Text) == "" && p.Media == nil && len(p.Group) == 0
}

// Normalize applies the payload normalization rules: a single-element
// group collapses to a plain media, group and media together are
// rejected, and Erase is meaningless next to a group. Normalize is
// idempotent.
func (p Payload) Normalize() (Payload, error) {
	if len(p.Group) > 0 && p.Media != nil {
		return p, &MediaGroupError{Reasons: []string{"payload carries both media and group"}}
	}
	if len(p.Group) == 1 {
		item := p.Group[0]
		p.Media = &item
		p.Group = nil
	}
	if len(p.Group) > 0 {
		p.Erase = false
	}
	return p, nil
}

// EffectiveCaption resolves the caption a media payload carries: a
// non-blank Text overrides the media's own caption; a blank Text with
// Erase set is an explicit clear (empty string); otherwise nil means
// "leave the caption as is".
func (p Payload) EffectiveCaption() *string {
	text := strings.TrimSpace(p.Text)
	if text != "" {
		return &text
	}
	var caption string
	if p.Media != nil {
		caption = strings.TrimSpace(p.Media.Caption)
	}
	if caption != "" {
		return &caption
	}
	if p.Erase {
		empty := ""
		return &empty
	}
	return nil
}
