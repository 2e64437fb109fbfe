package ext

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/booking/id"
	"github.com/xraph/booking/job"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time. This avoids type-asserting back to
// Extension inside the emit methods.
type jobCreatedEntry struct {
	name string
	hook JobCreated
}

type jobClaimedEntry struct {
	name string
	hook JobClaimed
}

type jobCancelledEntry struct {
	name string
	hook JobCancelled
}

type jobReopenedEntry struct {
	name string
	hook JobReopened
}

type jobExpiredEntry struct {
	name string
	hook JobExpired
}

type sessionEndedEntry struct {
	name string
	hook SessionEnded
}

type notificationSentEntry struct {
	name string
	hook NotificationSent
}

type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	// Type-cached slices for each lifecycle hook.
	jobCreated       []jobCreatedEntry
	jobClaimed       []jobClaimedEntry
	jobCancelled     []jobCancelledEntry
	jobReopened      []jobReopenedEntry
	jobExpired       []jobExpiredEntry
	sessionEnded     []sessionEndedEntry
	notificationSent []notificationSentEntry
	shutdown         []shutdownEntry
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(JobCreated); ok {
		r.jobCreated = append(r.jobCreated, jobCreatedEntry{name, h})
	}
	if h, ok := e.(JobClaimed); ok {
		r.jobClaimed = append(r.jobClaimed, jobClaimedEntry{name, h})
	}
	if h, ok := e.(JobCancelled); ok {
		r.jobCancelled = append(r.jobCancelled, jobCancelledEntry{name, h})
	}
	if h, ok := e.(JobReopened); ok {
		r.jobReopened = append(r.jobReopened, jobReopenedEntry{name, h})
	}
	if h, ok := e.(JobExpired); ok {
		r.jobExpired = append(r.jobExpired, jobExpiredEntry{name, h})
	}
	if h, ok := e.(SessionEnded); ok {
		r.sessionEnded = append(r.sessionEnded, sessionEndedEntry{name, h})
	}
	if h, ok := e.(NotificationSent); ok {
		r.notificationSent = append(r.notificationSent, notificationSentEntry{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// ──────────────────────────────────────────────────
// Booking event emitters
// ──────────────────────────────────────────────────

// EmitJobCreated notifies all extensions that implement JobCreated.
func (r *Registry) EmitJobCreated(ctx context.Context, j *job.Job) {
	for _, e := range r.jobCreated {
		if err := e.hook.OnJobCreated(ctx, j); err != nil {
			r.logHookError("OnJobCreated", e.name, err)
		}
	}
}

// EmitJobClaimed notifies all extensions that implement JobClaimed.
func (r *Registry) EmitJobClaimed(ctx context.Context, j *job.Job, translatorID id.TranslatorID) {
	for _, e := range r.jobClaimed {
		if err := e.hook.OnJobClaimed(ctx, j, translatorID); err != nil {
			r.logHookError("OnJobClaimed", e.name, err)
		}
	}
}

// EmitJobCancelled notifies all extensions that implement JobCancelled.
func (r *Registry) EmitJobCancelled(ctx context.Context, j *job.Job, byTranslator bool) {
	for _, e := range r.jobCancelled {
		if err := e.hook.OnJobCancelled(ctx, j, byTranslator); err != nil {
			r.logHookError("OnJobCancelled", e.name, err)
		}
	}
}

// EmitJobReopened notifies all extensions that implement JobReopened.
func (r *Registry) EmitJobReopened(ctx context.Context, j *job.Job) {
	for _, e := range r.jobReopened {
		if err := e.hook.OnJobReopened(ctx, j); err != nil {
			r.logHookError("OnJobReopened", e.name, err)
		}
	}
}

// EmitJobExpired notifies all extensions that implement JobExpired.
func (r *Registry) EmitJobExpired(ctx context.Context, j *job.Job) {
	for _, e := range r.jobExpired {
		if err := e.hook.OnJobExpired(ctx, j); err != nil {
			r.logHookError("OnJobExpired", e.name, err)
		}
	}
}

// EmitSessionEnded notifies all extensions that implement SessionEnded.
func (r *Registry) EmitSessionEnded(ctx context.Context, j *job.Job, sessionTime time.Duration) {
	for _, e := range r.sessionEnded {
		if err := e.hook.OnSessionEnded(ctx, j, sessionTime); err != nil {
			r.logHookError("OnSessionEnded", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Other event emitters
// ──────────────────────────────────────────────────

// EmitNotificationSent notifies all extensions that implement NotificationSent.
func (r *Registry) EmitNotificationSent(ctx context.Context, channel string, recipients int) {
	for _, e := range r.notificationSent {
		if err := e.hook.OnNotificationSent(ctx, channel, recipients); err != nil {
			r.logHookError("OnNotificationSent", e.name, err)
		}
	}
}

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated — they must not block a mutation.
func (r *Registry) logHookError(hook, extName string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
