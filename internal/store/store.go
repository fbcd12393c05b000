// Package store defines the per-conversation state port of the
// navigation engine and its in-memory implementation. Adapters own the
// persisted layout; keys prefixed "nav" are reserved and never leak
// through Payload.
package store

import (
	"context"

	"github.com/chatnav/chatnav/internal/nav"
)

// ReservedPrefix marks the keys the engine owns inside the backing
// key-value state.
const ReservedPrefix = "nav"

// State is the full per-conversation state port: history snapshot, FSM
// state, latest-id marker, transient id buffer, arbitrary FSM data,
// and the transition graph.
type State interface {
	// Recall returns the history snapshot.
	Recall(ctx context.Context) ([]nav.Entry, error)
	// Archive replaces the history snapshot.
	Archive(ctx context.Context, entries []nav.Entry) error

	// Status returns the current FSM state tag, or "" when unset.
	Status(ctx context.Context) (string, error)
	// Assign sets the current FSM state tag.
	Assign(ctx context.Context, state string) error

	// Peek returns the latest-id marker, the head id of the last entry.
	Peek(ctx context.Context) (*int, error)
	// Mark sets (or clears, with nil) the latest-id marker.
	Mark(ctx context.Context, id *int) error

	// Collect returns the transient id buffer.
	Collect(ctx context.Context) ([]int, error)
	// Stash replaces the transient id buffer.
	Stash(ctx context.Context, ids []int) error

	// Payload returns the FSM data not owned by the engine (keys not
	// prefixed with the reserved namespace).
	Payload(ctx context.Context) (map[string]any, error)

	// Diagram returns the transition graph.
	Diagram(ctx context.Context) (*nav.Graph, error)
	// Capture replaces the transition graph.
	Capture(ctx context.Context, graph *nav.Graph) error
}

// Provider yields the State of one conversation, keyed by the scope's
// conversation key.
type Provider interface {
	For(ctx context.Context, scope nav.Scope) (State, error)
}

// Prune trims a history snapshot to limit entries. When the first
// entry is a root anchor it stays pinned and overflow is removed from
// index 1; otherwise the oldest entries go first.
func Prune(history []nav.Entry, limit int) []nav.Entry {
	if limit <= 0 || len(history) <= limit {
		return history
	}
	overflow := len(history) - limit
	if history[0].Root {
		trimmed := make([]nav.Entry, 0, limit)
		trimmed = append(trimmed, history[0])
		trimmed = append(trimmed, history[1+overflow:]...)
		return trimmed
	}
	return history[overflow:]
}
