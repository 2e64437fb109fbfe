package joblock

import (
	"context"
	"sync"
	"time"

	"github.com/xraph/booking"
	"github.com/xraph/booking/backoff"
)

// MemoryLocker implements Locker with an in-process table. Suitable for
// single-process deployments and tests; multi-process deployments need the
// Redis locker.
type MemoryLocker struct {
	mu          sync.Mutex
	held        map[string]memoryEntry
	backoff     backoff.Strategy
	maxAttempts int
	now         booking.Clock
}

type memoryEntry struct {
	token     string
	expiresAt time.Time
}

var _ Locker = (*MemoryLocker)(nil)

// MemoryOption configures a MemoryLocker.
type MemoryOption func(*MemoryLocker)

// WithMemoryBackoff sets the retry delay strategy.
func WithMemoryBackoff(s backoff.Strategy) MemoryOption {
	return func(l *MemoryLocker) { l.backoff = s }
}

// WithMemoryMaxAttempts sets the acquisition attempt budget.
func WithMemoryMaxAttempts(n int) MemoryOption {
	return func(l *MemoryLocker) { l.maxAttempts = n }
}

// WithMemoryClock sets the time source used for lease expiry.
func WithMemoryClock(c booking.Clock) MemoryOption {
	return func(l *MemoryLocker) { l.now = c }
}

// NewMemoryLocker creates an in-process locker.
func NewMemoryLocker(opts ...MemoryOption) *MemoryLocker {
	l := &MemoryLocker{
		held:        make(map[string]memoryEntry),
		backoff:     backoff.DefaultStrategy(),
		maxAttempts: 10,
		now:         booking.SystemClock,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Acquire implements Locker.
func (l *MemoryLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error) {
	tok := token()

	for attempt := 1; ; attempt++ {
		if l.tryAcquire(key, tok, ttl) {
			return &memoryLease{locker: l, key: key, token: tok}, nil
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

func (l *MemoryLocker) tryAcquire(key, tok string, ttl time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, ok := l.held[key]; ok && e.expiresAt.After(now) {
		return false
	}
	l.held[key] = memoryEntry{token: tok, expiresAt: now.Add(ttl)}
	return true
}

func (l *MemoryLocker) release(key, tok string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.held[key]; ok && e.token == tok {
		delete(l.held, key)
	}
}

type memoryLease struct {
	locker *MemoryLocker
	key    string
	token  string
}

// Release implements Lease.
func (m *memoryLease) Release(_ context.Context) error {
	m.locker.release(m.key, m.token)
	return nil
}
