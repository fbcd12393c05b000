package store

import (
	"context"
	"strings"
	"sync"

	"github.com/chatnav/chatnav/internal/nav"
)

// Memory is an in-process State implementation. One instance holds the
// state of a single conversation; MemoryProvider hands them out per
// scope key.
type Memory struct {
	mu      sync.RWMutex
	history []nav.Entry
	state   string
	lastID  *int
	temp    []int
	graph   *nav.Graph
	data    map[string]any
}

// NewMemory creates an empty in-memory conversation state.
func NewMemory() *Memory {
	return &Memory{data: map[string]any{}}
}

func (m *Memory) Recall(ctx context.Context) ([]nav.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]nav.Entry(nil), m.history...), nil
}

func (m *Memory) Archive(ctx context.Context, entries []nav.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append([]nav.Entry(nil), entries...)
	return nil
}

func (m *Memory) Status(ctx context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state, nil
}

func (m *Memory) Assign(ctx context.Context, state string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
	return nil
}

func (m *Memory) Peek(ctx context.Context) (*int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.lastID == nil {
		return nil, nil
	}
	id := *m.lastID
	return &id, nil
}

func (m *Memory) Mark(ctx context.Context, id *int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == nil {
		m.lastID = nil
		return nil
	}
	value := *id
	m.lastID = &value
	return nil
}

func (m *Memory) Collect(ctx context.Context) ([]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]int(nil), m.temp...), nil
}

func (m *Memory) Stash(ctx context.Context, ids []int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.temp = append([]int(nil), ids...)
	return nil
}

func (m *Memory) Payload(ctx context.Context) (map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := map[string]any{}
	for k, v := range m.data {
		if strings.HasPrefix(k, ReservedPrefix) {
			continue
		}
		out[k] = v
	}
	return out, nil
}

// Put stores an FSM data value for consumption by view factories.
func (m *Memory) Put(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

func (m *Memory) Diagram(ctx context.Context) (*nav.Graph, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.graph.Clone(), nil
}

func (m *Memory) Capture(ctx context.Context, graph *nav.Graph) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.graph = graph.Clone()
	return nil
}

// MemoryProvider keeps one Memory per conversation key.
type MemoryProvider struct {
	mu     sync.Mutex
	states map[string]*Memory
}

// NewMemoryProvider creates an empty provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{states: map[string]*Memory{}}
}

// For returns the conversation state for the scope, creating it on
// first use.
func (p *MemoryProvider) For(ctx context.Context, scope nav.Scope) (State, error) {
	key := scope.Key()
	p.mu.Lock()
	defer p.mu.Unlock()
	state, ok := p.states[key]
	if !ok {
		state = NewMemory()
		p.states[key] = state
	}
	return state, nil
}
