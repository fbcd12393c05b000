package telegram

import (
	"encoding/json"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/chatnav/chatnav/internal/gateway"
	"github.com/chatnav/chatnav/internal/nav"
)

func parseMode(extra map[string]any) string {
	if extra == nil {
		return ""
	}
	if mode, ok := extra["mode"].(string); ok {
		return mode
	}
	return ""
}

// messageEntities converts the sanitized entity list into the wire type
// via a JSON round trip, which tolerates both map and struct inputs.
func messageEntities(extra map[string]any) []tgbotapi.MessageEntity {
	if extra == nil {
		return nil
	}
	raw, ok := extra["entities"]
	if !ok {
		return nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var entities []tgbotapi.MessageEntity
	if err := json.Unmarshal(data, &entities); err != nil {
		return nil
	}
	return entities
}

func replyMarkup(m *nav.Markup) interface{} {
	if m == nil {
		return nil
	}
	data, err := json.Marshal(m.Data)
	if err != nil {
		return nil
	}
	switch m.Kind {
	case nav.MarkupInlineKeyboard:
		var kb tgbotapi.InlineKeyboardMarkup
		if json.Unmarshal(data, &kb) == nil {
			return kb
		}
	case nav.MarkupReplyKeyboard:
		var kb tgbotapi.ReplyKeyboardMarkup
		if json.Unmarshal(data, &kb) == nil {
			return kb
		}
	case nav.MarkupReplyKeyboardRemove:
		var rm tgbotapi.ReplyKeyboardRemove
		if json.Unmarshal(data, &rm) == nil {
			return rm
		}
	case nav.MarkupForceReply:
		var fr tgbotapi.ForceReply
		if json.Unmarshal(data, &fr) == nil {
			return fr
		}
	}
	return nil
}

// inlineKeyboard narrows a markup to the only kind edits accept.
func inlineKeyboard(m *nav.Markup) (*tgbotapi.InlineKeyboardMarkup, bool) {
	if m == nil || m.Kind != nav.MarkupInlineKeyboard {
		return nil, false
	}
	data, err := json.Marshal(m.Data)
	if err != nil {
		return nil, false
	}
	var kb tgbotapi.InlineKeyboardMarkup
	if err := json.Unmarshal(data, &kb); err != nil {
		return nil, false
	}
	return &kb, true
}

func requestFile(item nav.MediaItem) tgbotapi.RequestFileData {
	switch {
	case item.IsURL():
		return tgbotapi.FileURL(item.Path)
	case item.IsLocal():
		return tgbotapi.FilePath(item.Path)
	default:
		return tgbotapi.FileID(item.Path)
	}
}

func mediaChattable(chatID int64, item nav.MediaItem, caption string, p nav.Payload) (tgbotapi.Chattable, error) {
	file := requestFile(item)
	mode := parseMode(p.Extra)
	entities := messageEntities(p.Extra)
	markup := replyMarkup(p.Reply)

	switch item.Type {
	case nav.MediaPhoto:
		c := tgbotapi.NewPhoto(chatID, file)
		c.Caption, c.ParseMode, c.CaptionEntities, c.ReplyMarkup = caption, mode, entities, markup
		return c, nil
	case nav.MediaVideo:
		c := tgbotapi.NewVideo(chatID, file)
		c.Caption, c.ParseMode, c.CaptionEntities, c.ReplyMarkup = caption, mode, entities, markup
		return c, nil
	case nav.MediaAnimation:
		c := tgbotapi.NewAnimation(chatID, file)
		c.Caption, c.ParseMode, c.CaptionEntities, c.ReplyMarkup = caption, mode, entities, markup
		return c, nil
	case nav.MediaAudio:
		c := tgbotapi.NewAudio(chatID, file)
		c.Caption, c.ParseMode, c.CaptionEntities, c.ReplyMarkup = caption, mode, entities, markup
		return c, nil
	case nav.MediaDocument:
		c := tgbotapi.NewDocument(chatID, file)
		c.Caption, c.ParseMode, c.CaptionEntities, c.ReplyMarkup = caption, mode, entities, markup
		return c, nil
	case nav.MediaVoice:
		c := tgbotapi.NewVoice(chatID, file)
		c.Caption, c.ParseMode, c.ReplyMarkup = caption, mode, markup
		return c, nil
	case nav.MediaVideoNote:
		c := tgbotapi.NewVideoNote(chatID, 0, file)
		c.ReplyMarkup = markup
		return c, nil
	default:
		return nil, fmt.Errorf("telegram: unsupported media type %q", item.Type)
	}
}

func inputMedia(item nav.MediaItem, caption string, extra map[string]any) (interface{}, error) {
	file := requestFile(item)
	base := tgbotapi.BaseInputMedia{
		Type:            string(item.Type),
		Media:           file,
		Caption:         caption,
		ParseMode:       parseMode(extra),
		CaptionEntities: messageEntities(extra),
	}
	switch item.Type {
	case nav.MediaPhoto:
		return tgbotapi.InputMediaPhoto{BaseInputMedia: base}, nil
	case nav.MediaVideo:
		return tgbotapi.InputMediaVideo{BaseInputMedia: base}, nil
	case nav.MediaAnimation:
		return tgbotapi.InputMediaAnimation{BaseInputMedia: base}, nil
	case nav.MediaAudio:
		return tgbotapi.InputMediaAudio{BaseInputMedia: base}, nil
	case nav.MediaDocument:
		return tgbotapi.InputMediaDocument{BaseInputMedia: base}, nil
	default:
		return nil, fmt.Errorf("telegram: media type %q cannot join a group or edit", item.Type)
	}
}

// resultOf extracts the reusable meta from a sent or edited message.
func resultOf(m tgbotapi.Message) gateway.Result {
	r := gateway.Result{ID: m.MessageID}
	switch {
	case m.Photo != nil && len(m.Photo) > 0:
		best := m.Photo[len(m.Photo)-1]
		r.Kind, r.Medium, r.File = gateway.KindMedia, nav.MediaPhoto, best.FileID
	case m.Video != nil:
		r.Kind, r.Medium, r.File = gateway.KindMedia, nav.MediaVideo, m.Video.FileID
	case m.Animation != nil:
		r.Kind, r.Medium, r.File = gateway.KindMedia, nav.MediaAnimation, m.Animation.FileID
	case m.Audio != nil:
		r.Kind, r.Medium, r.File = gateway.KindMedia, nav.MediaAudio, m.Audio.FileID
	case m.Document != nil:
		r.Kind, r.Medium, r.File = gateway.KindMedia, nav.MediaDocument, m.Document.FileID
	case m.Voice != nil:
		r.Kind, r.Medium, r.File = gateway.KindMedia, nav.MediaVoice, m.Voice.FileID
	case m.VideoNote != nil:
		r.Kind, r.Medium, r.File = gateway.KindMedia, nav.MediaVideoNote, m.VideoNote.FileID
	default:
		r.Kind, r.Text = gateway.KindText, m.Text
	}
	if r.Kind == gateway.KindMedia {
		r.Caption = m.Caption
	}
	return r
}

func groupResult(sent []tgbotapi.Message) gateway.Result {
	if len(sent) == 0 {
		return gateway.Result{Kind: gateway.KindGroup}
	}
	head := resultOf(sent[0])
	r := gateway.Result{
		ID:      head.ID,
		Kind:    gateway.KindGroup,
		Caption: head.Caption,
	}
	for _, m := range sent {
		item := resultOf(m)
		r.Clusters = append(r.Clusters, gateway.Cluster{
			Medium:  item.Medium,
			File:    item.File,
			Caption: item.Caption,
		})
		if m.MessageID != head.ID {
			r.Extra = append(r.Extra, m.MessageID)
		}
	}
	return r
}

// responseResult decodes a raw edit response, which carries either the
// updated message or a bare true for inline targets.
func responseResult(scope nav.Scope, resp *tgbotapi.APIResponse) (gateway.Result, error) {
	if scope.IsInline() {
		return gateway.Result{Kind: gateway.KindBool, Inline: scope.Inline}, nil
	}
	var m tgbotapi.Message
	if err := json.Unmarshal(resp.Result, &m); err == nil && m.MessageID != 0 {
		return resultOf(m), nil
	}
	return gateway.Result{Kind: gateway.KindBool}, nil
}
