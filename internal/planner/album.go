package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chatnav/chatnav/internal/decision"
	"github.com/chatnav/chatnav/internal/nav"
)

// partialAlbum updates a compatible album in place: at most one head
// caption edit, one markup edit, and one media edit per item. An
// edit-forbidden response aborts the partial pass and replaces the
// whole head with delete-and-send.
func (pl *Planner) partialAlbum(ctx context.Context, scope nav.Scope, old nav.Message, p nav.Payload) (nav.Message, Meta, bool, error) {
	ids := old.AllIDs()
	if len(ids) < len(old.Group) {
		// History lost track of the album tail ids; the only safe
		// move is full replacement.
		return pl.replaceAlbum(ctx, scope, old, p)
	}

	changed := false
	capPayload := captionPayload(p)
	newCaption := capPayload.EffectiveCaption()

	if captionDrifted(old, p, newCaption) {
		done, fellBack, err := pl.albumEdit(ctx, scope, decision.EditMediaCaption, ids[0], capPayload)
		if err != nil {
			return nav.Message{}, Meta{}, false, err
		}
		if fellBack {
			return pl.replaceAlbum(ctx, scope, old, p)
		}
		changed = changed || done
	}

	if !nav.MarkupEqual(old.Markup, p.Reply) {
		done, fellBack, err := pl.albumEdit(ctx, scope, decision.EditMarkup, ids[0], p)
		if err != nil {
			return nav.Message{}, Meta{}, false, err
		}
		if fellBack {
			return pl.replaceAlbum(ctx, scope, old, p)
		}
		changed = changed || done
	}

	extrasFlip := !decision.MediaAffectingEqual(old.Extra, p.Extra, pl.decide.ThumbGuard)
	group := make([]nav.MediaItem, len(p.Group))

	for i, newItem := range p.Group {
		oldItem := old.Group[i]
		keepFile := newItem.IsFileID(false) && newItem.Path == oldItem.Path

		file := oldItem.Path
		if newItem.IsFileID(false) {
			file = newItem.Path
		}

		if !keepFile || extrasFlip {
			item := newItem
			if i == 0 && newCaption != nil {
				item.Caption = *newCaption
			}
			itemPayload := nav.Payload{Media: &item, Extra: p.Extra}
			res, err := pl.exec.Edit(ctx, scope, decision.EditMedia, ids[i], itemPayload)
			switch {
			case err == nil:
				changed = true
				if res.File != "" {
					file = res.File
				}
			case errors.Is(err, nav.ErrMessageUnchanged):
			case errors.Is(err, nav.ErrEditForbidden):
				return pl.replaceAlbum(ctx, scope, old, p)
			default:
				return nav.Message{}, Meta{}, false, fmt.Errorf("album item %d: %w", i, err)
			}
		}

		group[i] = nav.MediaItem{Type: newItem.Type, Path: file}
	}

	if newCaption != nil {
		group[0].Caption = *newCaption
	} else if len(old.Group) > 0 {
		group[0].Caption = old.Group[0].Caption
	}

	message := old
	message.Group = group
	message.Markup = p.Reply
	message.Extra = p.Extra
	if changed {
		message.TS = pl.nowFunc().UTC()
	}
	return message, metaOf(message), changed, nil
}

// albumEdit issues one head-level edit. fellBack reports that the edit
// is forbidden and the caller must replace the whole album.
func (pl *Planner) albumEdit(ctx context.Context, scope nav.Scope, v decision.Verdict, id int, p nav.Payload) (bool, bool, error) {
	_, err := pl.exec.Edit(ctx, scope, v, id, p)
	switch {
	case err == nil:
		return true, false, nil
	case errors.Is(err, nav.ErrMessageUnchanged):
		return false, false, nil
	case errors.Is(err, nav.ErrEditForbidden):
		return false, true, nil
	case errors.Is(err, nav.ErrCaptionOverflow), errors.Is(err, nav.ErrTextOverflow):
		pl.logger.Warn("album head edit skipped", slog.String("verdict", v.String()), slog.Any("error", err))
		return false, false, nil
	default:
		return false, false, fmt.Errorf("album head %s: %w", v, err)
	}
}

// replaceAlbum falls back to delete-and-send for the whole head.
func (pl *Planner) replaceAlbum(ctx context.Context, scope nav.Scope, old nav.Message, p nav.Payload) (nav.Message, Meta, bool, error) {
	outcome, err := pl.exec.Apply(ctx, scope, decision.DeleteSend, &old, p)
	if err != nil {
		return nav.Message{}, Meta{}, false, err
	}
	if outcome.Result == nil {
		return old, metaOf(old), false, nil
	}
	message, meta, err := pl.materialize(decision.DeleteSend, scope, &old, outcome.Payload, *outcome.Result)
	if err != nil {
		return nav.Message{}, Meta{}, false, err
	}
	return message, meta, true, nil
}

// captionPayload narrows an album payload to its caption carrier: the
// payload text or the head item's caption.
func captionPayload(p nav.Payload) nav.Payload {
	out := nav.Payload{Text: p.Text, Reply: p.Reply, Extra: p.Extra, Erase: p.Erase}
	if len(p.Group) > 0 {
		head := p.Group[0]
		out.Media = &head
	}
	return out
}

func captionDrifted(old nav.Message, p nav.Payload, newCaption *string) bool {
	oldCaption := ""
	if len(old.Group) > 0 {
		oldCaption = strings.TrimSpace(old.Group[0].Caption)
	}
	if newCaption != nil && *newCaption != oldCaption {
		return true
	}
	if !decision.TextExtrasEqual(old.Extra, p.Extra) {
		return true
	}
	return !decision.PositionEqual(old.Extra, p.Extra)
}
