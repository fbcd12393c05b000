// Package telegram adapts the gateway port onto the Telegram Bot API.
// All backend error-string matching is confined here; the core only
// sees the shared error taxonomy.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/chatnav/chatnav/internal/gateway"
	"github.com/chatnav/chatnav/internal/nav"
)

const maxChunk = 100

// Config holds the adapter knobs.
type Config struct {
	// Chunk bounds one delete batch; the backend caps it at 100.
	Chunk int
	// DeleteDelay is the pause between delete batches.
	DeleteDelay time.Duration
}

// Adapter implements gateway.Gateway over tgbotapi.
type Adapter struct {
	bot    *tgbotapi.BotAPI
	cfg    Config
	logger *slog.Logger
}

// New creates an Adapter over a connected bot.
func New(log *slog.Logger, bot *tgbotapi.BotAPI, cfg Config) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Chunk <= 0 || cfg.Chunk > maxChunk {
		cfg.Chunk = maxChunk
	}
	if cfg.DeleteDelay <= 0 {
		cfg.DeleteDelay = 50 * time.Millisecond
	}
	return &Adapter{
		bot:    bot,
		cfg:    cfg,
		logger: log.With(slog.String("adapter", "telegram")),
	}
}

func (a *Adapter) Send(ctx context.Context, scope nav.Scope, p nav.Payload) (gateway.Result, error) {
	chatID, err := chatOf(scope)
	if err != nil {
		return gateway.Result{}, err
	}
	if len(p.Group) > 0 {
		return a.sendGroup(chatID, p)
	}
	if p.Media != nil {
		return a.sendMedia(chatID, p)
	}
	return a.sendText(chatID, p)
}

func (a *Adapter) sendText(chatID int64, p nav.Payload) (gateway.Result, error) {
	msg := tgbotapi.NewMessage(chatID, p.Text)
	msg.ParseMode = parseMode(p.Extra)
	msg.Entities = messageEntities(p.Extra)
	msg.ReplyMarkup = replyMarkup(p.Reply)
	if p.Preview != nil && p.Preview.Disabled {
		msg.DisableWebPagePreview = true
	}
	sent, err := a.bot.Send(msg)
	if err != nil {
		return gateway.Result{}, mapError(err)
	}
	return resultOf(sent), nil
}

func (a *Adapter) sendMedia(chatID int64, p nav.Payload) (gateway.Result, error) {
	caption := ""
	if c := p.EffectiveCaption(); c != nil {
		caption = *c
	}
	chattable, err := mediaChattable(chatID, *p.Media, caption, p)
	if err != nil {
		return gateway.Result{}, err
	}
	sent, err := a.bot.Send(chattable)
	if err != nil {
		return gateway.Result{}, mapError(err)
	}
	return resultOf(sent), nil
}

func (a *Adapter) sendGroup(chatID int64, p nav.Payload) (gateway.Result, error) {
	caption := ""
	if c := p.EffectiveCaption(); c != nil {
		caption = *c
	}
	media := make([]interface{}, 0, len(p.Group))
	for i, item := range p.Group {
		itemCaption := ""
		if i == 0 {
			itemCaption = caption
		}
		input, err := inputMedia(item, itemCaption, p.Extra)
		if err != nil {
			return gateway.Result{}, err
		}
		media = append(media, input)
	}
	sent, err := a.bot.SendMediaGroup(tgbotapi.NewMediaGroup(chatID, media))
	if err != nil {
		return gateway.Result{}, mapError(err)
	}
	return groupResult(sent), nil
}

func (a *Adapter) Rewrite(ctx context.Context, scope nav.Scope, id int, p nav.Payload) (gateway.Result, error) {
	edit := tgbotapi.EditMessageTextConfig{
		BaseEdit: a.baseEdit(scope, id, p.Reply),
		Text:     p.Text,
	}
	edit.ParseMode = parseMode(p.Extra)
	edit.Entities = messageEntities(p.Extra)
	if p.Preview != nil && p.Preview.Disabled {
		edit.DisableWebPagePreview = true
	}
	return a.edit(scope, edit)
}

func (a *Adapter) Recast(ctx context.Context, scope nav.Scope, id int, p nav.Payload) (gateway.Result, error) {
	if p.Media == nil {
		return gateway.Result{}, nav.ErrEmptyPayload
	}
	caption := ""
	if c := p.EffectiveCaption(); c != nil {
		caption = *c
	}
	input, err := inputMedia(*p.Media, caption, p.Extra)
	if err != nil {
		return gateway.Result{}, err
	}
	edit := tgbotapi.EditMessageMediaConfig{
		BaseEdit: a.baseEdit(scope, id, p.Reply),
		Media:    input,
	}
	return a.edit(scope, edit)
}

func (a *Adapter) Retitle(ctx context.Context, scope nav.Scope, id int, p nav.Payload) (gateway.Result, error) {
	caption := ""
	if c := p.EffectiveCaption(); c != nil {
		caption = *c
	}
	// The high-level caption config drops empty captions, so an
	// explicit clear goes through raw params.
	params := tgbotapi.Params{"caption": caption}
	a.applyEditTarget(params, scope, id)
	if mode := parseMode(p.Extra); mode != "" {
		params.AddNonEmpty("parse_mode", mode)
	}
	if entities := messageEntities(p.Extra); len(entities) != 0 {
		if err := params.AddInterface("caption_entities", entities); err != nil {
			return gateway.Result{}, err
		}
	}
	if markup := replyMarkup(p.Reply); markup != nil {
		if err := params.AddInterface("reply_markup", markup); err != nil {
			return gateway.Result{}, err
		}
	}
	resp, err := a.bot.MakeRequest("editMessageCaption", params)
	if err != nil {
		return gateway.Result{}, mapError(err)
	}
	return responseResult(scope, resp)
}

func (a *Adapter) Remap(ctx context.Context, scope nav.Scope, id int, p nav.Payload) (gateway.Result, error) {
	base := a.baseEdit(scope, id, p.Reply)
	if base.ReplyMarkup == nil {
		// An explicit empty keyboard removes the markup.
		base.ReplyMarkup = &tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
	}
	return a.edit(scope, tgbotapi.EditMessageReplyMarkupConfig{BaseEdit: base})
}

// edit sends an edit config. Inline edits answer with a bare boolean,
// so they go through Request; chat edits return the updated message.
func (a *Adapter) edit(scope nav.Scope, c tgbotapi.Chattable) (gateway.Result, error) {
	if scope.IsInline() {
		if _, err := a.bot.Request(c); err != nil {
			return gateway.Result{}, mapError(err)
		}
		return gateway.Result{Kind: gateway.KindBool, Inline: scope.Inline}, nil
	}
	sent, err := a.bot.Send(c)
	if err != nil {
		return gateway.Result{}, mapError(err)
	}
	return resultOf(sent), nil
}

func (a *Adapter) Delete(ctx context.Context, scope nav.Scope, ids []int) error {
	if scope.IsInline() && scope.Business == "" {
		return nav.ErrInlineUnsupported
	}
	var chatID int64
	if scope.Business == "" {
		var err error
		chatID, err = chatOf(scope)
		if err != nil {
			return err
		}
	}
	for start := 0; start < len(ids); start += a.cfg.Chunk {
		end := min(start+a.cfg.Chunk, len(ids))
		if scope.Business != "" {
			if err := a.deleteBusiness(scope.Business, ids[start:end]); err != nil {
				return err
			}
		} else {
			for _, id := range ids[start:end] {
				if _, err := a.bot.Request(tgbotapi.NewDeleteMessage(chatID, id)); err != nil {
					if softIgnorable(err) {
						a.logger.Debug("delete ignored", slog.Int("id", id), slog.Any("error", err))
						continue
					}
					return mapError(err)
				}
			}
		}
		if end < len(ids) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(a.cfg.DeleteDelay):
			}
		}
	}
	return nil
}

// deleteBusiness removes one batch of messages sent over a business
// connection. The chat-bound delete config cannot carry the connection
// id, so the batch goes through raw params.
func (a *Adapter) deleteBusiness(connection string, ids []int) error {
	params := tgbotapi.Params{"business_connection_id": connection}
	if err := params.AddInterface("message_ids", ids); err != nil {
		return err
	}
	if _, err := a.bot.MakeRequest("deleteBusinessMessages", params); err != nil {
		if softIgnorable(err) {
			a.logger.Debug("delete ignored", slog.Any("error", err))
			return nil
		}
		return mapError(err)
	}
	return nil
}

func (a *Adapter) Alert(ctx context.Context, scope nav.Scope, text string) error {
	chatID, err := chatOf(scope)
	if err != nil {
		return err
	}
	if _, err := a.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return mapError(err)
	}
	return nil
}

func (a *Adapter) baseEdit(scope nav.Scope, id int, markup *nav.Markup) tgbotapi.BaseEdit {
	base := tgbotapi.BaseEdit{}
	if scope.IsInline() {
		base.InlineMessageID = scope.Inline
	} else if scope.Chat != nil {
		base.ChatID = *scope.Chat
		base.MessageID = id
	}
	if keyboard, ok := inlineKeyboard(markup); ok {
		base.ReplyMarkup = keyboard
	}
	return base
}

func (a *Adapter) applyEditTarget(params tgbotapi.Params, scope nav.Scope, id int) {
	if scope.IsInline() {
		params["inline_message_id"] = scope.Inline
		return
	}
	if scope.Chat != nil {
		params.AddNonZero64("chat_id", *scope.Chat)
		params.AddNonZero("message_id", id)
	}
}

func chatOf(scope nav.Scope) (int64, error) {
	if scope.Chat == nil {
		return 0, fmt.Errorf("telegram: %w: chat id is required", nav.ErrInlineUnsupported)
	}
	return *scope.Chat, nil
}
