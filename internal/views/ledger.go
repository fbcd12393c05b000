// Package views holds the registry of view factories and the restorer
// that rebuilds payloads for a history entry, either dynamically
// through a registered factory or statically from the recorded
// messages.
package views

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chatnav/chatnav/internal/nav"
)

// Context carries the data a navigation verb offers to view factories.
type Context map[string]any

// Factory rebuilds the payloads of a screen from context data.
type Factory func(ctx context.Context, c Context) ([]nav.Payload, error)

// Registration binds a factory to its declared parameter list: the
// restorer passes only the context keys a factory names.
type Registration struct {
	Factory Factory
	Params  []string
}

// Ledger is the process-wide mapping from view keys to factories. It
// is populated at bootstrap and read-only afterwards.
type Ledger struct {
	mu      sync.RWMutex
	entries map[string]Registration
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{entries: map[string]Registration{}}
}

// Register binds key to a factory. Params declares the context keys
// the factory consumes. Duplicate keys are rejected.
func (l *Ledger) Register(key string, factory Factory, params ...string) error {
	if key == "" {
		return errors.New("view key is required")
	}
	if factory == nil {
		return errors.New("view factory is nil")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.entries[key]; exists {
		return fmt.Errorf("view key already registered: %s", key)
	}
	l.entries[key] = Registration{Factory: factory, Params: params}
	return nil
}

// MustRegister calls Register and panics on error.
func (l *Ledger) MustRegister(key string, factory Factory, params ...string) {
	if err := l.Register(key, factory, params...); err != nil {
		panic(err)
	}
}

// Get returns the registration for key.
func (l *Ledger) Get(key string) (Registration, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	reg, ok := l.entries[key]
	return reg, ok
}

// Has reports whether key is registered.
func (l *Ledger) Has(key string) bool {
	_, ok := l.Get(key)
	return ok
}
