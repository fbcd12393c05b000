// Package lock serializes renders per conversation. A provider yields
// a latch keyed by the conversation key; every navigation verb holds
// the latch from history read to history write.
package lock

import "context"

// Release frees an acquired latch. It must be called on every exit
// path of the critical section.
type Release func(ctx context.Context) error

// Provider hands out mutual-exclusion latches by key.
type Provider interface {
	Acquire(ctx context.Context, key string) (Release, error)
}
