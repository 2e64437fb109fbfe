// Package audit records the change history of bookings. Every mutation the
// engine performs appends one entry; the trail answers "who changed what,
// when" for support and dispute handling.
package audit

import (
	"context"
	"log/slog"

	"github.com/xraph/booking"
	"github.com/xraph/booking/id"
)

// Action names the kind of change an entry records.
type Action string

const (
	ActionCreated           Action = "created"
	ActionClaimed           Action = "claimed"
	ActionStatusChanged     Action = "status_changed"
	ActionTranslatorChanged Action = "translator_changed"
	ActionDueChanged        Action = "due_changed"
	ActionLanguageChanged   Action = "language_changed"
	ActionCancelled         Action = "cancelled"
	ActionExpired           Action = "expired"
	ActionSessionEnded      Action = "session_ended"
	ActionReopened          Action = "reopened"
)

// Actor names the party responsible for a change.
type Actor string

const (
	ActorCustomer   Actor = "customer"
	ActorTranslator Actor = "translator"
	ActorAdmin      Actor = "admin"
	ActorSystem     Actor = "system"
)

// Entry is one recorded change on a booking.
type Entry struct {
	booking.Entity

	ID     id.AuditID `json:"id"`
	JobID  id.JobID   `json:"job_id"`
	Action Action     `json:"action"`
	Actor  Actor      `json:"actor"`

	// OldValue and NewValue capture the changed field's before/after form,
	// rendered as strings.
	OldValue string `json:"old_value,omitempty"`
	NewValue string `json:"new_value,omitempty"`
}

// Store defines the persistence contract for audit entries.
type Store interface {
	// AppendAudit persists a new entry. Entries are append-only.
	AppendAudit(ctx context.Context, e *Entry) error

	// AuditTrail returns the job's entries in append order.
	AuditTrail(ctx context.Context, jobID id.JobID) ([]*Entry, error)
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithLogger sets the recorder's logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Recorder) { r.logger = l }
}

// WithClock sets the recorder's time source.
func WithClock(c booking.Clock) Option {
	return func(r *Recorder) { r.clock = c }
}

// Recorder appends audit entries and mirrors them to the structured log.
// Append failures are logged and swallowed: a booking mutation never fails
// because its audit write did.
type Recorder struct {
	store  Store
	logger *slog.Logger
	clock  booking.Clock
}

// NewRecorder creates a Recorder over the given store.
func NewRecorder(store Store, opts ...Option) *Recorder {
	r := &Recorder{
		store:  store,
		logger: slog.Default(),
		clock:  booking.SystemClock,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record appends one entry for the job.
func (r *Recorder) Record(ctx context.Context, jobID id.JobID, action Action, actor Actor, oldValue, newValue string) {
	e := &Entry{
		ID:       id.NewAuditID(),
		JobID:    jobID,
		Action:   action,
		Actor:    actor,
		OldValue: oldValue,
		NewValue: newValue,
	}
	now := r.clock()
	e.CreatedAt = now
	e.UpdatedAt = now

	if err := r.store.AppendAudit(ctx, e); err != nil {
		r.logger.Error("audit append failed",
			slog.String("job_id", jobID.String()),
			slog.String("action", string(action)),
			slog.String("error", err.Error()),
		)
		return
	}
	r.logger.Info("booking changed",
		slog.String("job_id", jobID.String()),
		slog.String("action", string(action)),
		slog.String("actor", string(actor)),
		slog.String("old", oldValue),
		slog.String("new", newValue),
	)
}

// Trail returns the job's change history.
func (r *Recorder) Trail(ctx context.Context, jobID id.JobID) ([]*Entry, error) {
	return r.store.AuditTrail(ctx, jobID)
}
