package lock

import (
	"context"
	"sync"
)

// MemoryProvider implements per-key latches inside one process. Each
// key owns a one-slot semaphore so Acquire can respect context
// cancellation while waiting.
type MemoryProvider struct {
	mu      sync.Mutex
	latches map[string]*latch
}

type latch struct {
	slot chan struct{}
	refs int
}

// NewMemoryProvider creates an empty provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{latches: map[string]*latch{}}
}

// Acquire blocks until the key's latch is free or ctx is done.
func (p *MemoryProvider) Acquire(ctx context.Context, key string) (Release, error) {
	p.mu.Lock()
	l, ok := p.latches[key]
	if !ok {
		l = &latch{slot: make(chan struct{}, 1)}
		p.latches[key] = l
	}
	l.refs++
	p.mu.Unlock()

	select {
	case l.slot <- struct{}{}:
	case <-ctx.Done():
		p.release(key, l, false)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			p.release(key, l, true)
		})
		return nil
	}, nil
}

func (p *MemoryProvider) release(key string, l *latch, held bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if held {
		<-l.slot
	}
	l.refs--
	if l.refs == 0 {
		delete(p.latches, key)
	}
}
