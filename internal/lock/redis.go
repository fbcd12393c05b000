package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultTTL bounds how long a crashed holder keeps a lease.
	DefaultTTL = 20 * time.Second
	// DefaultAcquireTimeout bounds how long Acquire polls for a lease.
	DefaultAcquireTimeout = 5 * time.Second

	pollInterval = 50 * time.Millisecond
	keyPrefix    = "chatnav:lock:"
)

// releaseScript frees the lease only when the caller still owns it.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisProvider implements distributed latches as redis leases with a
// TTL: SET NX PX to acquire, a compare-token script to release.
type RedisProvider struct {
	client         *redis.Client
	ttl            time.Duration
	acquireTimeout time.Duration
}

// NewRedisProvider creates a provider over an existing client. Zero
// durations fall back to the defaults.
func NewRedisProvider(client *redis.Client, ttl, acquireTimeout time.Duration) *RedisProvider {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if acquireTimeout <= 0 {
		acquireTimeout = DefaultAcquireTimeout
	}
	return &RedisProvider{client: client, ttl: ttl, acquireTimeout: acquireTimeout}
}

// Acquire polls for the lease until it is granted, the acquire timeout
// passes, or ctx is done.
func (p *RedisProvider) Acquire(ctx context.Context, key string) (Release, error) {
	token := uuid.NewString()
	full := keyPrefix + key

	deadline := time.NewTimer(p.acquireTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		ok, err := p.client.SetNX(ctx, full, token, p.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			return func(releaseCtx context.Context) error {
				if err := releaseScript.Run(releaseCtx, p.client, []string{full}, token).Err(); err != nil && err != redis.Nil {
					return fmt.Errorf("release lock %s: %w", key, err)
				}
				return nil
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, fmt.Errorf("acquire lock %s: timeout after %s", key, p.acquireTimeout)
		case <-ticker.C:
		}
	}
}
