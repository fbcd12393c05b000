package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/fx"

	"github.com/chatnav/chatnav/internal/nav"
	"github.com/chatnav/chatnav/internal/navigator"
	"github.com/chatnav/chatnav/internal/views"
)

// provideLedger registers the built-in demo screens. Real deployments
// register their own view factories here.
func provideLedger() *views.Ledger {
	ledger := views.NewLedger()
	ledger.MustRegister("home", func(ctx context.Context, c views.Context) ([]nav.Payload, error) {
		name, _ := c["name"].(string)
		if name == "" {
			name = "there"
		}
		return []nav.Payload{{
			Text:  fmt.Sprintf("Hi %s! Pick a screen.", name),
			Reply: menuMarkup("menu"),
		}}, nil
	}, "name")
	ledger.MustRegister("menu", func(ctx context.Context, c views.Context) ([]nav.Payload, error) {
		return []nav.Payload{{
			Text:  "Menu screen. Use Back to return.",
			Reply: menuMarkup("back"),
		}}, nil
	})
	return ledger
}

func menuMarkup(action string) *nav.Markup {
	label := "Open menu"
	if action == "back" {
		label = "Back"
	}
	return &nav.Markup{
		Kind: nav.MarkupInlineKeyboard,
		Data: map[string]any{
			"inline_keyboard": []any{
				[]any{map[string]any{"text": label, "callback_data": "nav:" + action}},
			},
		},
	}
}

func startBot(lc fx.Lifecycle, log *slog.Logger, bot *tgbotapi.BotAPI, ledger *views.Ledger, svc *navigator.Service) {
	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("bot starting", slog.String("username", bot.Self.UserName))
			go func() {
				defer close(done)
				loop(runCtx, log, bot, ledger, svc)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			bot.StopReceivingUpdates()
			select {
			case <-done:
			case <-ctx.Done():
			}
			return nil
		},
	})
}

func loop(ctx context.Context, log *slog.Logger, bot *tgbotapi.BotAPI, ledger *views.Ledger, svc *navigator.Service) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	for update := range bot.GetUpdatesChan(u) {
		if ctx.Err() != nil {
			return
		}
		if err := handle(ctx, ledger, svc, update); err != nil {
			log.Error("update failed", slog.Any("error", err))
		}
	}
}

func handle(ctx context.Context, ledger *views.Ledger, svc *navigator.Service, update tgbotapi.Update) error {
	switch {
	case update.Message != nil && update.Message.IsCommand():
		scope := scopeOf(update.Message.Chat.ID, update.Message.From)
		if update.Message.Command() != "start" {
			return nil
		}
		payloads, err := screen(ctx, ledger, "home", views.Context{"name": update.Message.From.FirstName})
		if err != nil {
			return err
		}
		return svc.Add(ctx, scope, payloads, "home", true)

	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		scope := scopeOf(update.CallbackQuery.Message.Chat.ID, update.CallbackQuery.From)
		action := strings.TrimPrefix(update.CallbackQuery.Data, "nav:")
		switch action {
		case "back":
			return svc.Back(ctx, scope, nil)
		default:
			if !ledger.Has(action) {
				return nil
			}
			payloads, err := screen(ctx, ledger, action, nil)
			if err != nil {
				return err
			}
			return svc.Add(ctx, scope, payloads, action, false)
		}
	}
	return nil
}

func screen(ctx context.Context, ledger *views.Ledger, key string, c views.Context) ([]nav.Payload, error) {
	reg, ok := ledger.Get(key)
	if !ok {
		return nil, fmt.Errorf("unknown view %q", key)
	}
	return reg.Factory(ctx, c)
}

func scopeOf(chatID int64, from *tgbotapi.User) nav.Scope {
	scope := nav.Scope{Chat: &chatID}
	if from != nil {
		scope.Lang = from.LanguageCode
	}
	return scope
}
