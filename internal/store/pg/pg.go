// Package pg persists per-conversation navigation state in PostgreSQL.
// One row per conversation key; history, the transient id buffer, the
// transition graph, and FSM data live in jsonb columns.
package pg

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chatnav/chatnav/internal/db"
	"github.com/chatnav/chatnav/internal/nav"
	"github.com/chatnav/chatnav/internal/store"
)

// Provider hands out row-backed states keyed by conversation.
type Provider struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewProvider(logger *slog.Logger, pool *pgxpool.Pool) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{pool: pool, logger: logger.With(slog.String("store", "pg"))}
}

// For ensures the conversation row exists and returns its state.
func (p *Provider) For(ctx context.Context, scope nav.Scope) (store.State, error) {
	key := scope.Key()
	_, err := p.pool.Exec(ctx,
		`INSERT INTO nav_state (conversation_key) VALUES ($1)`, key)
	if err != nil && !db.IsUniqueViolation(err) {
		return nil, fmt.Errorf("ensure conversation %q: %w", key, err)
	}
	return &State{pool: p.pool, key: key}, nil
}

// State is the row-backed store.State of one conversation.
type State struct {
	pool *pgxpool.Pool
	key  string
}

func (s *State) Recall(ctx context.Context) ([]nav.Entry, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT history FROM nav_state WHERE conversation_key = $1`, s.key).Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("recall %q: %w", s.key, err)
	}
	entries, err := nav.DecodeEntries(raw)
	if err != nil {
		return nil, fmt.Errorf("recall %q: %w", s.key, err)
	}
	return entries, nil
}

func (s *State) Archive(ctx context.Context, entries []nav.Entry) error {
	raw, err := nav.EncodeEntries(entries)
	if err != nil {
		return fmt.Errorf("archive %q: %w", s.key, err)
	}
	return s.update(ctx, "history", raw)
}

func (s *State) Status(ctx context.Context) (string, error) {
	var state *string
	err := s.pool.QueryRow(ctx,
		`SELECT state FROM nav_state WHERE conversation_key = $1`, s.key).Scan(&state)
	if err != nil {
		return "", fmt.Errorf("status %q: %w", s.key, err)
	}
	if state == nil {
		return "", nil
	}
	return *state, nil
}

func (s *State) Assign(ctx context.Context, state string) error {
	// Empty means unset; keep the column NULL for that.
	var value *string
	if state != "" {
		value = &state
	}
	return s.update(ctx, "state", value)
}

func (s *State) Peek(ctx context.Context) (*int, error) {
	var id *int
	err := s.pool.QueryRow(ctx,
		`SELECT last_id FROM nav_state WHERE conversation_key = $1`, s.key).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("peek %q: %w", s.key, err)
	}
	return id, nil
}

func (s *State) Mark(ctx context.Context, id *int) error {
	return s.update(ctx, "last_id", id)
}

func (s *State) Collect(ctx context.Context) ([]int, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT temp FROM nav_state WHERE conversation_key = $1`, s.key).Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("collect %q: %w", s.key, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var ids []int
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("collect %q: %w", s.key, err)
	}
	return ids, nil
}

func (s *State) Stash(ctx context.Context, ids []int) error {
	if ids == nil {
		return s.update(ctx, "temp", nil)
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("stash %q: %w", s.key, err)
	}
	return s.update(ctx, "temp", raw)
}

func (s *State) Payload(ctx context.Context) (map[string]any, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM nav_state WHERE conversation_key = $1`, s.key).Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("payload %q: %w", s.key, err)
	}
	data := map[string]any{}
	if len(raw) != 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("payload %q: %w", s.key, err)
		}
	}
	for key := range data {
		if len(key) >= len(store.ReservedPrefix) && key[:len(store.ReservedPrefix)] == store.ReservedPrefix {
			delete(data, key)
		}
	}
	return data, nil
}

// Put merges one FSM data key into the row.
func (s *State) Put(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(map[string]any{key: value})
	if err != nil {
		return fmt.Errorf("put %q: %w", s.key, err)
	}
	_, err = s.pool.Exec(ctx,
		`UPDATE nav_state SET data = COALESCE(data, '{}'::jsonb) || $2, updated_at = now()
		 WHERE conversation_key = $1`, s.key, raw)
	if err != nil {
		return fmt.Errorf("put %q: %w", s.key, err)
	}
	return nil
}

func (s *State) Diagram(ctx context.Context) (*nav.Graph, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT graph FROM nav_state WHERE conversation_key = $1`, s.key).Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("diagram %q: %w", s.key, err)
	}
	if len(raw) == 0 {
		return nav.NewGraph(), nil
	}
	graph := nav.NewGraph()
	if err := json.Unmarshal(raw, graph); err != nil {
		return nil, fmt.Errorf("diagram %q: %w", s.key, err)
	}
	return graph, nil
}

func (s *State) Capture(ctx context.Context, graph *nav.Graph) error {
	if graph == nil {
		return s.update(ctx, "graph", nil)
	}
	raw, err := json.Marshal(graph)
	if err != nil {
		return fmt.Errorf("capture %q: %w", s.key, err)
	}
	return s.update(ctx, "graph", raw)
}

func (s *State) update(ctx context.Context, column string, value any) error {
	_, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE nav_state SET %s = $2, updated_at = now() WHERE conversation_key = $1`, column),
		s.key, value)
	if err != nil {
		return fmt.Errorf("update %s of %q: %w", column, s.key, err)
	}
	return nil
}
