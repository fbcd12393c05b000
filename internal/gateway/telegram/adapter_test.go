package telegram

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/chatnav/chatnav/internal/nav"
)

// fakeHTTP intercepts Bot API calls and answers every method with a
// successful boolean result.
type fakeHTTP struct {
	methods []string
	forms   []url.Values
}

func (f *fakeHTTP) Do(req *http.Request) (*http.Response, error) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	form, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, err
	}
	f.methods = append(f.methods, path.Base(req.URL.Path))
	f.forms = append(f.forms, form)
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(`{"ok":true,"result":true}`)),
	}, nil
}

func newTestAdapter(cfg Config) (*Adapter, *fakeHTTP) {
	client := &fakeHTTP{}
	bot := &tgbotapi.BotAPI{Token: "42:token", Client: client, Buffer: 1}
	bot.SetAPIEndpoint(tgbotapi.APIEndpoint)
	return New(nil, bot, cfg), client
}

func TestDeleteBusinessScope(t *testing.T) {
	a, client := newTestAdapter(Config{})
	scope := nav.Scope{Inline: "inline-7", Business: "biz-1"}

	if err := a.Delete(context.Background(), scope, []int{1, 2, 3}); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if len(client.methods) != 1 || client.methods[0] != "deleteBusinessMessages" {
		t.Fatalf("methods = %v, want one deleteBusinessMessages", client.methods)
	}
	form := client.forms[0]
	if got := form.Get("business_connection_id"); got != "biz-1" {
		t.Errorf("business_connection_id = %q", got)
	}
	if got := form.Get("message_ids"); got != "[1,2,3]" {
		t.Errorf("message_ids = %q", got)
	}
	if form.Has("chat_id") {
		t.Error("business delete must not carry a chat id")
	}
}

func TestDeleteBusinessChunks(t *testing.T) {
	a, client := newTestAdapter(Config{Chunk: 2, DeleteDelay: time.Millisecond})

	chat := int64(5)
	scope := nav.Scope{Chat: &chat, Business: "biz-1"}
	if err := a.Delete(context.Background(), scope, []int{1, 2, 3}); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if len(client.methods) != 2 {
		t.Fatalf("methods = %v, want two batches", client.methods)
	}
	if client.forms[0].Get("message_ids") != "[1,2]" || client.forms[1].Get("message_ids") != "[3]" {
		t.Errorf("batches = %q, %q", client.forms[0].Get("message_ids"), client.forms[1].Get("message_ids"))
	}
}

func TestDeleteChatScope(t *testing.T) {
	a, client := newTestAdapter(Config{})

	chat := int64(9)
	scope := nav.Scope{Chat: &chat}
	if err := a.Delete(context.Background(), scope, []int{4, 5}); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if len(client.methods) != 2 {
		t.Fatalf("methods = %v, want two deleteMessage calls", client.methods)
	}
	for i, method := range client.methods {
		if method != "deleteMessage" {
			t.Errorf("methods[%d] = %q", i, method)
		}
		if got := client.forms[i].Get("chat_id"); got != "9" {
			t.Errorf("chat_id = %q", got)
		}
	}
}

func TestDeleteInlineWithoutBusiness(t *testing.T) {
	a, client := newTestAdapter(Config{})

	err := a.Delete(context.Background(), nav.Scope{Inline: "inline-7"}, []int{1})
	if !errors.Is(err, nav.ErrInlineUnsupported) {
		t.Errorf("err = %v, want inline unsupported", err)
	}
	if len(client.methods) != 0 {
		t.Errorf("no backend call expected, got %v", client.methods)
	}
}
