// Package redis provides a Locker shared by every subwave instance pointed at
// the same Redis server.
package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/subwave/lock"
)

// DefaultPrefix namespaces lock keys.
const DefaultPrefix = "subwave:lock:"

const (
	defaultRetryInterval = 50 * time.Millisecond
	defaultTTL           = 30 * time.Second
)

var _ lock.Locker = (*Lock)(nil)

var luaUnlock = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)

// Lock implements lock.Locker with SET NX PX and a token-checked unlock.
type Lock struct {
	client        goredis.UniversalClient
	prefix        string
	retryInterval time.Duration
}

// Option configures a Lock.
type Option func(*Lock)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(l *Lock) { l.prefix = prefix }
}

// WithRetryInterval sets the delay between acquisition attempts.
func WithRetryInterval(d time.Duration) Option {
	return func(l *Lock) { l.retryInterval = d }
}

// New creates a Redis lock over an existing client.
func New(client goredis.UniversalClient, opts ...Option) *Lock {
	l := &Lock{
		client:        client,
		prefix:        DefaultPrefix,
		retryInterval: defaultRetryInterval,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Acquire retries SET NX until it wins or ctx is done. A non-positive ttl
// falls back to 30s so a crashed holder never blocks a key forever.
func (l *Lock) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	redisKey := l.prefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.retryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, ttl).Result()
		if err != nil && ctx.Err() == nil {
			return nil, fmt.Errorf("subwave/redis: acquire %s: %w", key, err)
		}
		if ok {
			break
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire lock for %s: %w", key, ctx.Err())
		}
	}

	var releaseOnce sync.Once
	return func() {
		releaseOnce.Do(func() {
			// The caller's context may already be canceled.
			_ = luaUnlock.Run(context.Background(), l.client, []string{redisKey}, token).Err() //nolint:errcheck // expiry reclaims the key
		})
	}, nil
}
