// Package joblock provides short-lived per-booking leases. The engine takes
// a lease around multi-step mutations (cancellation, admin updates) so that
// concurrent writers to the same booking serialize; the claim path itself
// relies on the store's atomic ClaimJob and does not need a lease.
package joblock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"
)

// Lease is a held lock on one booking.
type Lease interface {
	// Release frees the lease. Releasing an expired lease is a no-op.
	Release(ctx context.Context) error
}

// Locker acquires per-booking leases.
type Locker interface {
	// Acquire obtains the lease for the key, retrying with backoff until it
	// succeeds, the attempt budget runs out, or ctx is done. Returns
	// booking.ErrLockNotAcquired when the budget runs out.
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}

// token returns a random value identifying one lease holder, so a slow
// holder cannot release a successor's lease.
func token() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic("joblock: rand: " + err.Error())
	}
	return hex.EncodeToString(b)
}
