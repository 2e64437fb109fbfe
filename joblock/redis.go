package joblock

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/booking"
	"github.com/xraph/booking/backoff"
)

// releaseScript deletes the lock key only if it still holds our token.
var releaseScript = goredis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisOption configures a RedisLocker.
type RedisOption func(*RedisLocker)

// WithBackoff sets the retry delay strategy.
func WithBackoff(s backoff.Strategy) RedisOption {
	return func(l *RedisLocker) { l.backoff = s }
}

// WithMaxAttempts sets the acquisition attempt budget.
func WithMaxAttempts(n int) RedisOption {
	return func(l *RedisLocker) { l.maxAttempts = n }
}

// RedisLocker implements Locker over a Redis SET NX lease, shared by every
// process mutating the same booking store.
type RedisLocker struct {
	client      goredis.UniversalClient
	prefix      string
	backoff     backoff.Strategy
	maxAttempts int
}

var _ Locker = (*RedisLocker)(nil)

// NewRedisLocker creates a RedisLocker on the given client.
func NewRedisLocker(client goredis.UniversalClient, opts ...RedisOption) *RedisLocker {
	l := &RedisLocker{
		client:      client,
		prefix:      "booking:lock:",
		backoff:     backoff.DefaultStrategy(),
		maxAttempts: 10,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Acquire implements Locker.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error) {
	redisKey := l.prefix + key
	tok := token()

	for attempt := 1; ; attempt++ {
		ok, err := l.client.SetNX(ctx, redisKey, tok, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("booking/joblock: setnx: %w", err)
		}
		if ok {
			return &redisLease{client: l.client, key: redisKey, token: tok}, nil
		}
		if attempt >= l.maxAttempts {
			return nil, booking.ErrLockNotAcquired
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.backoff.Delay(attempt)):
		}
	}
}

type redisLease struct {
	client goredis.UniversalClient
	key    string
	token  string
}

// Release implements Lease via a compare-and-delete script.
func (r *redisLease) Release(ctx context.Context) error {
	err := releaseScript.Run(ctx, r.client, []string{r.key}, r.token).Err()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("booking/joblock: release: %w", err)
	}
	return nil
}
