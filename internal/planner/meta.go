package planner

import (
	"fmt"
	"strings"

	"github.com/chatnav/chatnav/internal/decision"
	"github.com/chatnav/chatnav/internal/gateway"
	"github.com/chatnav/chatnav/internal/nav"
)

// materialize turns a gateway result into the history message and meta
// of the rendered screen slot. Boolean-only results (caption and
// markup edits) are reconstructed from the previous message and the
// payload.
func (pl *Planner) materialize(v decision.Verdict, scope nav.Scope, old *nav.Message, p nav.Payload, res gateway.Result) (nav.Message, Meta, error) {
	switch res.Kind {
	case gateway.KindText, gateway.KindMedia, gateway.KindGroup:
		return pl.fromResult(scope, p, res), metaFromResult(res), nil
	case gateway.KindBool:
		if old == nil {
			return nav.Message{}, Meta{}, fmt.Errorf("boolean result without a previous message")
		}
		message := pl.reconstruct(v, *old, p)
		return message, metaOf(message), nil
	default:
		return nav.Message{}, Meta{}, fmt.Errorf("unknown result kind %q", res.Kind)
	}
}

func (pl *Planner) fromResult(scope nav.Scope, p nav.Payload, res gateway.Result) nav.Message {
	message := nav.Message{
		ID:        res.ID,
		Extras:    res.Extra,
		Markup:    p.Reply,
		Preview:   p.Preview,
		Extra:     p.Extra,
		Inline:    firstNonEmpty(res.Inline, scope.Inline),
		Automated: true,
		TS:        pl.nowFunc().UTC(),
	}
	switch res.Kind {
	case gateway.KindText:
		message.Text = res.Text
	case gateway.KindMedia:
		message.Media = &nav.MediaItem{Type: res.Medium, Path: res.File, Caption: res.Caption}
	case gateway.KindGroup:
		message.Group = clustersToItems(res.Clusters)
	}
	return message
}

// reconstruct carries the previous message forward through an edit
// whose backend response was a bare boolean.
func (pl *Planner) reconstruct(v decision.Verdict, old nav.Message, p nav.Payload) nav.Message {
	message := old
	message.Markup = p.Reply
	message.Automated = true
	message.TS = pl.nowFunc().UTC()
	switch v {
	case decision.EditText:
		message.Text = p.Text
		message.Preview = p.Preview
		message.Extra = mergeTextExtras(message.Extra, p.Extra)
		return message
	case decision.EditMedia:
		if p.Media != nil {
			media := *p.Media
			message.Media = &media
			message.Group = nil
			message.Text = ""
			message.Extra = p.Extra
		}
		return message
	case decision.EditMediaCaption:
	default:
		return message
	}
	caption := p.EffectiveCaption()
	if caption == nil {
		return message
	}
	if message.Media != nil {
		media := *message.Media
		media.Caption = *caption
		message.Media = &media
		message.Text = ""
	} else if len(message.Group) > 0 {
		group := append([]nav.MediaItem(nil), message.Group...)
		group[0].Caption = *caption
		for i := 1; i < len(group); i++ {
			group[i].Caption = ""
		}
		message.Group = group
	}
	message.Extra = mergeTextExtras(message.Extra, p.Extra)
	return message
}

// mergeTextExtras carries the caption-level extras of the payload onto
// the stored message while keeping its media-level ones.
func mergeTextExtras(old, new map[string]any) map[string]any {
	out := map[string]any{}
	for k, v := range old {
		out[k] = v
	}
	for _, key := range []string{"mode", "entities", "show_caption_above_media"} {
		if v, ok := new[key]; ok {
			out[key] = v
		} else {
			delete(out, key)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func metaFromResult(res gateway.Result) Meta {
	return Meta{
		Kind:     res.Kind,
		Medium:   res.Medium,
		File:     res.File,
		Caption:  res.Caption,
		Text:     res.Text,
		Clusters: res.Clusters,
		Inline:   res.Inline,
	}
}

// metaOf derives the meta record of a message already in history.
func metaOf(m nav.Message) Meta {
	switch {
	case len(m.Group) > 0:
		clusters := make([]gateway.Cluster, 0, len(m.Group))
		for _, item := range m.Group {
			clusters = append(clusters, gateway.Cluster{Medium: item.Type, File: item.Path, Caption: item.Caption})
		}
		return Meta{Kind: gateway.KindGroup, Clusters: clusters, Inline: m.Inline}
	case m.Media != nil:
		return Meta{
			Kind:    gateway.KindMedia,
			Medium:  m.Media.Type,
			File:    m.Media.Path,
			Caption: m.Media.Caption,
			Inline:  m.Inline,
		}
	default:
		return Meta{Kind: gateway.KindText, Text: m.Text, Inline: m.Inline}
	}
}

func clustersToItems(clusters []gateway.Cluster) []nav.MediaItem {
	items := make([]nav.MediaItem, 0, len(clusters))
	for _, c := range clusters {
		items = append(items, nav.MediaItem{Type: c.Medium, Path: c.File, Caption: c.Caption})
	}
	return items
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
