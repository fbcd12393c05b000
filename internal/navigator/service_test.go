package navigator

import (
	"context"
	"errors"
	"testing"

	"github.com/chatnav/chatnav/internal/album"
	"github.com/chatnav/chatnav/internal/decision"
	"github.com/chatnav/chatnav/internal/execute"
	"github.com/chatnav/chatnav/internal/extras"
	"github.com/chatnav/chatnav/internal/gateway"
	"github.com/chatnav/chatnav/internal/inline"
	"github.com/chatnav/chatnav/internal/lock"
	"github.com/chatnav/chatnav/internal/nav"
	"github.com/chatnav/chatnav/internal/planner"
	"github.com/chatnav/chatnav/internal/store"
	"github.com/chatnav/chatnav/internal/views"
)

const fileID = "AgACAgIAAxkBAAIBY2Zn8wABTq"

// fakeGateway is a scripted chat backend shared by the verb tests.
type fakeGateway struct {
	calls   []string
	deleted [][]int
	alerts  []string
	nextID  int
}

func newFakeGateway() *fakeGateway { return &fakeGateway{nextID: 100} }

func (f *fakeGateway) count(op string) int {
	n := 0
	for _, c := range f.calls {
		if c == op {
			n++
		}
	}
	return n
}

func (f *fakeGateway) Send(ctx context.Context, scope nav.Scope, p nav.Payload) (gateway.Result, error) {
	f.calls = append(f.calls, "send")
	f.nextID++
	res := gateway.Result{ID: f.nextID, Kind: gateway.KindText, Text: p.Text}
	if p.Media != nil {
		res.Kind = gateway.KindMedia
		res.Medium = p.Media.Type
		res.File = fileID
		if c := p.EffectiveCaption(); c != nil {
			res.Caption = *c
		}
	}
	return res, nil
}

func (f *fakeGateway) Rewrite(ctx context.Context, scope nav.Scope, id int, p nav.Payload) (gateway.Result, error) {
	f.calls = append(f.calls, "rewrite")
	if scope.IsInline() {
		return gateway.Result{Kind: gateway.KindBool, Inline: scope.Inline}, nil
	}
	return gateway.Result{ID: id, Kind: gateway.KindText, Text: p.Text}, nil
}

func (f *fakeGateway) Recast(ctx context.Context, scope nav.Scope, id int, p nav.Payload) (gateway.Result, error) {
	f.calls = append(f.calls, "recast")
	return gateway.Result{ID: id, Kind: gateway.KindMedia, Medium: p.Media.Type, File: p.Media.Path}, nil
}

func (f *fakeGateway) Retitle(ctx context.Context, scope nav.Scope, id int, p nav.Payload) (gateway.Result, error) {
	f.calls = append(f.calls, "retitle")
	return gateway.Result{ID: id, Kind: gateway.KindBool}, nil
}

func (f *fakeGateway) Remap(ctx context.Context, scope nav.Scope, id int, p nav.Payload) (gateway.Result, error) {
	f.calls = append(f.calls, "remap")
	return gateway.Result{ID: id, Kind: gateway.KindBool}, nil
}

func (f *fakeGateway) Delete(ctx context.Context, scope nav.Scope, ids []int) error {
	f.calls = append(f.calls, "delete")
	f.deleted = append(f.deleted, ids)
	return nil
}

func (f *fakeGateway) Alert(ctx context.Context, scope nav.Scope, text string) error {
	f.calls = append(f.calls, "alert")
	f.alerts = append(f.alerts, text)
	return nil
}

type fixture struct {
	svc    *Service
	gw     *fakeGateway
	stores *store.MemoryProvider
	ledger *views.Ledger
}

func newFixture(cfg Config) *fixture {
	gw := newFakeGateway()
	exec := execute.New(nil, gw, extras.NewSanitizer(nil), execute.Config{
		TextLimit:    4096,
		CaptionLimit: 1024,
		Album:        album.DefaultConfig(),
	})
	pl := planner.New(nil, exec, inline.New(nil, true), album.DefaultConfig(), decision.Config{})
	ledger := views.NewLedger()
	stores := store.NewMemoryProvider()
	svc := NewService(nil, stores, lock.NewMemoryProvider(), pl, views.NewRestorer(nil, ledger), gw, cfg)
	return &fixture{svc: svc, gw: gw, stores: stores, ledger: ledger}
}

func chatScope() nav.Scope {
	chat := int64(11)
	return nav.Scope{Chat: &chat, Category: nav.CategoryPrivate}
}

func (fx *fixture) history(t *testing.T, scope nav.Scope) []nav.Entry {
	t.Helper()
	st, err := fx.stores.For(context.Background(), scope)
	if err != nil {
		t.Fatalf("stores.For() error: %v", err)
	}
	history, err := st.Recall(context.Background())
	if err != nil {
		t.Fatalf("Recall() error: %v", err)
	}
	return history
}

func TestAddAppendsEntry(t *testing.T) {
	fx := newFixture(Config{HistoryLimit: 10})
	ctx := context.Background()
	scope := chatScope()

	if err := fx.svc.Assign(ctx, scope, "menu"); err != nil {
		t.Fatalf("Assign() error: %v", err)
	}
	if err := fx.svc.Add(ctx, scope, []nav.Payload{{Text: "welcome"}}, "main", true); err != nil {
		t.Fatalf("Add() error: %v", err)
	}

	history := fx.history(t, scope)
	if len(history) != 1 {
		t.Fatalf("history = %d entries, want 1", len(history))
	}
	entry := history[0]
	if entry.State != "menu" || entry.View != "main" || !entry.Root {
		t.Errorf("entry = %+v", entry)
	}
	if len(entry.Messages) != 1 || entry.Messages[0].Text != "welcome" {
		t.Errorf("messages = %+v", entry.Messages)
	}

	st, _ := fx.stores.For(ctx, scope)
	latest, _ := st.Peek(ctx)
	if latest == nil || *latest != entry.HeadID() {
		t.Errorf("latest marker = %v, want head id %d", latest, entry.HeadID())
	}
}

func TestAddIdenticalSkipsHistory(t *testing.T) {
	fx := newFixture(Config{HistoryLimit: 10})
	ctx := context.Background()
	scope := chatScope()

	if err := fx.svc.Add(ctx, scope, []nav.Payload{{Text: "same"}}, "v", false); err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if err := fx.svc.Add(ctx, scope, []nav.Payload{{Text: "same"}}, "v", false); err != nil {
		t.Fatalf("second Add() error: %v", err)
	}
	if got := len(fx.history(t, scope)); got != 1 {
		t.Errorf("identical screen should not stack, history = %d", got)
	}
	if fx.gw.count("send") != 1 {
		t.Errorf("sends = %d, want 1", fx.gw.count("send"))
	}
}

func TestReplaceEditsInPlace(t *testing.T) {
	fx := newFixture(Config{HistoryLimit: 10})
	ctx := context.Background()
	scope := chatScope()

	if err := fx.svc.Add(ctx, scope, []nav.Payload{{Text: "v1"}}, "screen", false); err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	firstID := fx.history(t, scope)[0].HeadID()

	if err := fx.svc.Replace(ctx, scope, []nav.Payload{{Text: "v2"}}); err != nil {
		t.Fatalf("Replace() error: %v", err)
	}
	history := fx.history(t, scope)
	if len(history) != 1 {
		t.Fatalf("replace must not grow history, got %d", len(history))
	}
	if history[0].HeadID() != firstID {
		t.Errorf("head id changed: %d -> %d", firstID, history[0].HeadID())
	}
	if history[0].Messages[0].Text != "v2" {
		t.Errorf("text = %q", history[0].Messages[0].Text)
	}
	if history[0].View != "screen" {
		t.Error("replace must keep the view key")
	}
	if fx.gw.count("rewrite") != 1 {
		t.Errorf("rewrites = %d, want 1", fx.gw.count("rewrite"))
	}
}

func TestReplaceEmptyHistory(t *testing.T) {
	fx := newFixture(Config{})
	err := fx.svc.Replace(context.Background(), chatScope(), []nav.Payload{{Text: "x"}})
	if !errors.Is(err, nav.ErrHistoryEmpty) {
		t.Errorf("err = %v, want history empty", err)
	}
}

func TestBackRestoresPrevious(t *testing.T) {
	fx := newFixture(Config{HistoryLimit: 10})
	ctx := context.Background()
	scope := chatScope()

	if err := fx.svc.Assign(ctx, scope, "menu"); err != nil {
		t.Fatal(err)
	}
	if err := fx.svc.Add(ctx, scope, []nav.Payload{{Text: "menu screen"}}, "menu", true); err != nil {
		t.Fatal(err)
	}
	if err := fx.svc.Assign(ctx, scope, "detail"); err != nil {
		t.Fatal(err)
	}
	if err := fx.svc.Add(ctx, scope, []nav.Payload{{Text: "detail screen"}}, "detail", false); err != nil {
		t.Fatal(err)
	}

	if err := fx.svc.Back(ctx, scope, nil); err != nil {
		t.Fatalf("Back() error: %v", err)
	}

	history := fx.history(t, scope)
	if len(history) != 1 {
		t.Fatalf("history = %d entries, want 1", len(history))
	}
	if history[0].Messages[0].Text != "menu screen" {
		t.Errorf("restored text = %q", history[0].Messages[0].Text)
	}

	st, _ := fx.stores.For(ctx, scope)
	state, _ := st.Status(ctx)
	if state != "menu" {
		t.Errorf("state = %q, want menu", state)
	}
}

func TestBackNeedsTwoEntries(t *testing.T) {
	fx := newFixture(Config{})
	ctx := context.Background()
	scope := chatScope()
	if err := fx.svc.Add(ctx, scope, []nav.Payload{{Text: "only"}}, "v", false); err != nil {
		t.Fatal(err)
	}
	if err := fx.svc.Back(ctx, scope, nil); !errors.Is(err, nav.ErrHistoryEmpty) {
		t.Errorf("err = %v, want history empty", err)
	}
}

func TestBackUsesRegisteredFactory(t *testing.T) {
	fx := newFixture(Config{HistoryLimit: 10})
	ctx := context.Background()
	scope := chatScope()

	fx.ledger.MustRegister("menu", func(ctx context.Context, c views.Context) ([]nav.Payload, error) {
		total, _ := c["cart_total"].(int)
		if total > 0 {
			return []nav.Payload{{Text: "menu with cart"}}, nil
		}
		return []nav.Payload{{Text: "menu"}}, nil
	}, "cart_total")

	if err := fx.svc.Add(ctx, scope, []nav.Payload{{Text: "menu"}}, "menu", false); err != nil {
		t.Fatal(err)
	}
	if err := fx.svc.Add(ctx, scope, []nav.Payload{{Text: "detail"}}, "detail", false); err != nil {
		t.Fatal(err)
	}

	st, _ := fx.stores.For(ctx, scope)
	st.(*store.Memory).Put("cart_total", 2)

	if err := fx.svc.Back(ctx, scope, nil); err != nil {
		t.Fatalf("Back() error: %v", err)
	}
	history := fx.history(t, scope)
	if history[0].Messages[0].Text != "menu with cart" {
		t.Errorf("factory output ignored, text = %q", history[0].Messages[0].Text)
	}
}

func TestBackDeletesDroppedTail(t *testing.T) {
	fx := newFixture(Config{HistoryLimit: 10, TailPolicy: TailDelete})
	ctx := context.Background()
	scope := nav.Scope{Inline: "inline-7", Business: "biz-1", Category: nav.CategoryPrivate}

	st, err := fx.stores.For(ctx, scope)
	if err != nil {
		t.Fatalf("stores.For() error: %v", err)
	}
	if err := st.Archive(ctx, []nav.Entry{
		{View: "menu", Messages: []nav.Message{{ID: 9, Text: "menu screen"}}},
		{View: "detail", Messages: []nav.Message{
			{ID: 9, Text: "detail screen"},
			{ID: 10, Text: "detail extra"},
			{ID: 11, Text: "detail more"},
		}},
	}); err != nil {
		t.Fatalf("Archive() error: %v", err)
	}

	if err := fx.svc.Back(ctx, scope, nil); err != nil {
		t.Fatalf("Back() error: %v", err)
	}
	if fx.gw.count("rewrite") != 1 {
		t.Errorf("rewrites = %d, want 1", fx.gw.count("rewrite"))
	}
	if len(fx.gw.deleted) != 1 || len(fx.gw.deleted[0]) != 2 ||
		fx.gw.deleted[0][0] != 10 || fx.gw.deleted[0][1] != 11 {
		t.Errorf("deleted = %v, want [[10 11]]", fx.gw.deleted)
	}

	history := fx.history(t, scope)
	if len(history) != 1 || history[0].Messages[0].Text != "menu screen" {
		t.Errorf("history = %+v", history)
	}
}

func TestBackKeepPolicySkipsTailDelete(t *testing.T) {
	fx := newFixture(Config{HistoryLimit: 10})
	ctx := context.Background()
	scope := nav.Scope{Inline: "inline-7", Business: "biz-1", Category: nav.CategoryPrivate}

	st, err := fx.stores.For(ctx, scope)
	if err != nil {
		t.Fatalf("stores.For() error: %v", err)
	}
	if err := st.Archive(ctx, []nav.Entry{
		{View: "menu", Messages: []nav.Message{{ID: 9, Text: "menu screen"}}},
		{View: "detail", Messages: []nav.Message{
			{ID: 9, Text: "detail screen"},
			{ID: 10, Text: "detail extra"},
		}},
	}); err != nil {
		t.Fatalf("Archive() error: %v", err)
	}

	if err := fx.svc.Back(ctx, scope, nil); err != nil {
		t.Fatalf("Back() error: %v", err)
	}
	if len(fx.gw.deleted) != 0 {
		t.Errorf("keep policy must not delete, got %v", fx.gw.deleted)
	}
}

func TestSetRewindsToState(t *testing.T) {
	fx := newFixture(Config{HistoryLimit: 10})
	ctx := context.Background()
	scope := chatScope()

	for _, step := range []struct{ state, text string }{
		{"menu", "menu screen"},
		{"list", "list screen"},
		{"detail", "detail screen"},
	} {
		if err := fx.svc.Assign(ctx, scope, step.state); err != nil {
			t.Fatal(err)
		}
		if err := fx.svc.Add(ctx, scope, []nav.Payload{{Text: step.text}}, step.state, false); err != nil {
			t.Fatal(err)
		}
	}

	if err := fx.svc.Set(ctx, scope, "menu", nil); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	history := fx.history(t, scope)
	if len(history) != 1 {
		t.Fatalf("history = %d entries, want 1", len(history))
	}
	if history[0].State != "menu" || history[0].Messages[0].Text != "menu screen" {
		t.Errorf("entry = %+v", history[0])
	}

	st, _ := fx.stores.For(ctx, scope)
	state, _ := st.Status(ctx)
	if state != "menu" {
		t.Errorf("state = %q, want menu", state)
	}
}

func TestSetUnknownStateAlerts(t *testing.T) {
	fx := newFixture(Config{})
	ctx := context.Background()
	scope := chatScope()
	scope.Lang = "ru"

	if err := fx.svc.Add(ctx, scope, []nav.Payload{{Text: "menu"}}, "menu", false); err != nil {
		t.Fatal(err)
	}
	if err := fx.svc.Set(ctx, scope, "missing", nil); err != nil {
		t.Fatalf("Set() with unknown state must not fail: %v", err)
	}
	if len(fx.gw.alerts) != 1 || fx.gw.alerts[0] != "Экран не найден" {
		t.Errorf("alerts = %v", fx.gw.alerts)
	}
	if got := len(fx.history(t, scope)); got != 1 {
		t.Errorf("history must be untouched, got %d entries", got)
	}
}

func TestPopClampsAndDrops(t *testing.T) {
	fx := newFixture(Config{HistoryLimit: 10})
	ctx := context.Background()
	scope := chatScope()

	for _, text := range []string{"a", "b", "c"} {
		if err := fx.svc.Add(ctx, scope, []nav.Payload{{Text: text}}, text, false); err != nil {
			t.Fatal(err)
		}
	}

	if err := fx.svc.Pop(ctx, scope, 1); err != nil {
		t.Fatalf("Pop() error: %v", err)
	}
	if got := len(fx.history(t, scope)); got != 2 {
		t.Fatalf("history = %d, want 2", got)
	}

	// Over-popping leaves the first entry standing.
	if err := fx.svc.Pop(ctx, scope, 99); err != nil {
		t.Fatalf("Pop() error: %v", err)
	}
	history := fx.history(t, scope)
	if len(history) != 1 || history[0].Messages[0].Text != "a" {
		t.Errorf("history = %+v", history)
	}

	if err := fx.svc.Pop(ctx, scope, 0); err != nil {
		t.Fatalf("Pop(0) is a no-op: %v", err)
	}
}

func TestTailEdit(t *testing.T) {
	fx := newFixture(Config{HistoryLimit: 10})
	ctx := context.Background()
	scope := chatScope()

	if err := fx.svc.Add(ctx, scope, []nav.Payload{{Text: "before"}}, "v", false); err != nil {
		t.Fatal(err)
	}
	if err := fx.svc.TailEdit(ctx, scope, nav.Payload{Text: "after"}); err != nil {
		t.Fatalf("TailEdit() error: %v", err)
	}
	history := fx.history(t, scope)
	if len(history) != 1 || history[0].Messages[0].Text != "after" {
		t.Errorf("history = %+v", history)
	}
	if fx.gw.count("rewrite") != 1 {
		t.Errorf("rewrites = %d, want 1", fx.gw.count("rewrite"))
	}
}

func TestRebase(t *testing.T) {
	fx := newFixture(Config{HistoryLimit: 10})
	ctx := context.Background()
	scope := chatScope()

	if err := fx.svc.Add(ctx, scope, []nav.Payload{{Text: "screen"}}, "v", false); err != nil {
		t.Fatal(err)
	}
	st, _ := fx.stores.For(ctx, scope)
	if err := st.Stash(ctx, []int{1, 2, 3}); err != nil {
		t.Fatal(err)
	}

	if err := fx.svc.Rebase(ctx, scope, 777); err != nil {
		t.Fatalf("Rebase() error: %v", err)
	}
	history := fx.history(t, scope)
	if history[0].HeadID() != 777 {
		t.Errorf("head id = %d, want 777", history[0].HeadID())
	}
	latest, _ := st.Peek(ctx)
	if latest == nil || *latest != 777 {
		t.Errorf("latest marker = %v, want 777", latest)
	}
	ids, _ := st.Collect(ctx)
	if len(ids) != 0 {
		t.Errorf("transient buffer should be cleared, got %v", ids)
	}
	if len(fx.gw.calls) != 1 || fx.gw.calls[0] != "send" {
		t.Errorf("rebase is store-only, calls = %v", fx.gw.calls)
	}
}

func TestAssignRecordsTransitions(t *testing.T) {
	fx := newFixture(Config{})
	ctx := context.Background()
	scope := chatScope()

	for _, state := range []string{"menu", "detail", "menu"} {
		if err := fx.svc.Assign(ctx, scope, state); err != nil {
			t.Fatalf("Assign(%s) error: %v", state, err)
		}
	}
	st, _ := fx.stores.For(ctx, scope)
	g, err := st.Diagram(ctx)
	if err != nil {
		t.Fatalf("Diagram() error: %v", err)
	}
	if len(g.Nodes) != 2 {
		t.Errorf("nodes = %v", g.Nodes)
	}
	if len(g.Edges["menu"]) != 1 || g.Edges["menu"][0] != "detail" {
		t.Errorf("edges = %v", g.Edges)
	}
}

func TestHistoryLimitPinsRoot(t *testing.T) {
	fx := newFixture(Config{HistoryLimit: 3})
	ctx := context.Background()
	scope := chatScope()

	if err := fx.svc.Add(ctx, scope, []nav.Payload{{Text: "root"}}, "root", true); err != nil {
		t.Fatal(err)
	}
	for _, text := range []string{"a", "b", "c", "d"} {
		if err := fx.svc.Add(ctx, scope, []nav.Payload{{Text: text}}, text, false); err != nil {
			t.Fatal(err)
		}
	}
	history := fx.history(t, scope)
	if len(history) != 3 {
		t.Fatalf("history = %d, want 3", len(history))
	}
	if !history[0].Root || history[0].Messages[0].Text != "root" {
		t.Errorf("root anchor lost: %+v", history[0])
	}
	if history[1].Messages[0].Text != "c" || history[2].Messages[0].Text != "d" {
		t.Errorf("kept entries = %q %q", history[1].Messages[0].Text, history[2].Messages[0].Text)
	}
}
