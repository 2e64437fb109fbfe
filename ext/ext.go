// Package ext defines the extension system for the booking core.
// Extensions are notified of lifecycle events (booking created, claimed,
// cancelled, etc.) and can react to them — logging, metrics, outbound
// sync, etc.
//
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
package ext

import (
	"context"
	"time"

	"github.com/xraph/booking/id"
	"github.com/xraph/booking/job"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// ──────────────────────────────────────────────────
// Booking lifecycle hooks
// ──────────────────────────────────────────────────

// JobCreated is called after a booking is successfully created.
type JobCreated interface {
	OnJobCreated(ctx context.Context, j *job.Job) error
}

// JobClaimed is called after a translator wins the claim on a booking.
type JobClaimed interface {
	OnJobClaimed(ctx context.Context, j *job.Job, translatorID id.TranslatorID) error
}

// JobCancelled is called after a booking is cancelled by either party.
type JobCancelled interface {
	OnJobCancelled(ctx context.Context, j *job.Job, byTranslator bool) error
}

// JobReopened is called when a timed-out booking returns to the pool.
type JobReopened interface {
	OnJobReopened(ctx context.Context, j *job.Job) error
}

// JobExpired is called when the sweeper times out an unclaimed booking.
type JobExpired interface {
	OnJobExpired(ctx context.Context, j *job.Job) error
}

// SessionEnded is called after an interpretation session is recorded as
// completed, with the measured session length.
type SessionEnded interface {
	OnSessionEnded(ctx context.Context, j *job.Job, sessionTime time.Duration) error
}

// ──────────────────────────────────────────────────
// Other lifecycle hooks
// ──────────────────────────────────────────────────

// NotificationSent is called after a notification batch is delivered on
// some channel.
type NotificationSent interface {
	OnNotificationSent(ctx context.Context, channel string, recipients int) error
}

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
