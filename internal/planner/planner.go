// Package planner renders a new screen against the previously rendered
// one: it walks per-message pairs, consults the decision function,
// runs partial album updates on the head, and settles the tail by
// deleting or appending messages.
package planner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chatnav/chatnav/internal/album"
	"github.com/chatnav/chatnav/internal/decision"
	"github.com/chatnav/chatnav/internal/execute"
	"github.com/chatnav/chatnav/internal/gateway"
	"github.com/chatnav/chatnav/internal/inline"
	"github.com/chatnav/chatnav/internal/nav"
)

// Meta is the structured outcome recorded per produced message.
type Meta struct {
	Kind     string
	Medium   nav.MediaType
	File     string
	Caption  string
	Text     string
	Clusters []gateway.Cluster
	Inline   string
}

// Node is the outcome of one render: the ids and extra ids of the
// screen's messages, their metas, the rebuilt history messages, and
// whether any backend mutation happened.
type Node struct {
	IDs      []int
	Extras   []int
	Metas    []Meta
	Messages []nav.Message
	Changed  bool
}

// Planner coordinates decision, executor, inline strategy, and album
// rules for one render.
type Planner struct {
	exec    *execute.Executor
	inl     *inline.Strategy
	albums  album.Config
	decide  decision.Config
	logger  *slog.Logger
	nowFunc func() time.Time
}

// New creates a Planner.
func New(log *slog.Logger, exec *execute.Executor, inl *inline.Strategy, albums album.Config, decide decision.Config) *Planner {
	if log == nil {
		log = slog.Default()
	}
	return &Planner{
		exec:    exec,
		inl:     inl,
		albums:  albums,
		decide:  decide,
		logger:  log.With(slog.String("service", "planner")),
		nowFunc: time.Now,
	}
}

// Render transforms the previous entry into the new payloads. It
// returns nil when nothing could be rendered at all.
func (pl *Planner) Render(ctx context.Context, scope nav.Scope, payloads []nav.Payload, prev *nav.Entry) (*Node, error) {
	normalized, err := normalizeAll(payloads)
	if err != nil {
		return nil, err
	}
	if scope.IsInline() {
		normalized = pl.collapseInline(normalized)
	}
	if len(normalized) == 0 {
		return nil, nav.ErrEmptyPayload
	}

	var old []nav.Message
	if prev != nil {
		old = prev.Messages
	}

	node := &Node{}
	start := 0

	// Partial album head: both sides carry a compatible group.
	if !scope.IsInline() && len(old) > 0 && len(old[0].Group) > 0 && len(normalized[0].Group) > 0 &&
		pl.albums.Compatible(old[0].Group, normalized[0].Group) {
		message, meta, changed, err := pl.partialAlbum(ctx, scope, old[0], normalized[0])
		if err != nil {
			return nil, err
		}
		node.append(message, meta)
		node.Changed = node.Changed || changed
		start = 1
	}

	// Element-wise over the overlapping prefix.
	pairs := min(len(old), len(normalized))
	for i := start; i < pairs; i++ {
		message, meta, changed, ok, err := pl.renderPair(ctx, scope, old[i], normalized[i])
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		node.append(message, meta)
		node.Changed = node.Changed || changed
	}

	// Tail deletes: surplus old messages go away.
	if len(old) > len(normalized) && !scope.IsInline() {
		var surplus []int
		for _, m := range old[len(normalized):] {
			surplus = append(surplus, m.AllIDs()...)
		}
		if err := pl.exec.Remove(ctx, scope, surplus); err != nil {
			return nil, fmt.Errorf("delete surplus messages: %w", err)
		}
		node.Changed = true
	}

	// Tail appends: surplus new payloads are sent fresh.
	if len(normalized) > len(old) && !scope.IsInline() {
		for _, p := range normalized[len(old):] {
			outcome, err := pl.exec.Apply(ctx, scope, decision.Resend, nil, p)
			if err != nil {
				return nil, err
			}
			if outcome.Result == nil {
				continue
			}
			message, meta, err := pl.materialize(decision.Resend, scope, nil, outcome.Payload, *outcome.Result)
			if err != nil {
				return nil, err
			}
			node.append(message, meta)
			node.Changed = true
		}
	}

	if len(node.Messages) == 0 {
		return nil, nil
	}
	return node, nil
}

// renderPair reconciles one old message with one new payload. ok is
// false when the step produced nothing to keep (inline skip of a
// message that cannot be represented).
func (pl *Planner) renderPair(ctx context.Context, scope nav.Scope, old nav.Message, p nav.Payload) (nav.Message, Meta, bool, bool, error) {
	view := decision.ViewOf(old)
	verdict := decision.Decide(&view, p, pl.decide)

	if scope.IsInline() {
		remapped, payload, ok := pl.inl.Remap(verdict, &view, p)
		if !ok {
			// Keep what is on screen; the next render will retry.
			return old, metaOf(old), false, true, nil
		}
		verdict = remapped
		p = payload
	}

	if verdict == decision.NoChange {
		return old, metaOf(old), false, true, nil
	}

	outcome, err := pl.exec.Apply(ctx, scope, verdict, &old, p)
	if err != nil {
		return nav.Message{}, Meta{}, false, false, err
	}
	if outcome.Result == nil {
		return old, metaOf(old), false, true, nil
	}
	message, meta, err := pl.materialize(verdict, scope, &old, outcome.Payload, *outcome.Result)
	if err != nil {
		return nav.Message{}, Meta{}, false, false, err
	}
	return message, meta, true, true, nil
}

// collapseInline enforces the single-message constraint of inline
// scopes: extra payloads are dropped and an album collapses to its
// first item.
func (pl *Planner) collapseInline(payloads []nav.Payload) []nav.Payload {
	if len(payloads) == 0 {
		return payloads
	}
	if dropped := len(payloads) - 1; dropped > 0 {
		pl.logger.Warn("inline render keeps a single message", slog.Int("dropped", dropped))
	}
	head := payloads[0]
	if len(head.Group) > 0 {
		item := head.Group[0]
		head.Media = &item
		head.Group = nil
	}
	return []nav.Payload{head}
}

func normalizeAll(payloads []nav.Payload) ([]nav.Payload, error) {
	out := make([]nav.Payload, 0, len(payloads))
	for _, p := range payloads {
		normalized, err := p.Normalize()
		if err != nil {
			return nil, err
		}
		out = append(out, normalized)
	}
	return out, nil
}

func (n *Node) append(message nav.Message, meta Meta) {
	n.Messages = append(n.Messages, message)
	n.Metas = append(n.Metas, meta)
	n.IDs = append(n.IDs, message.ID)
	n.Extras = append(n.Extras, message.Extras...)
}
