package job

import (
	"context"
	"time"

	"github.com/xraph/booking/id"
)

// MatchFilter narrows pending-job queries to bookings a translator could
// serve. Gender, certification, town, and blacklist constraints are applied
// by the matcher on top of this coarse filter.
type MatchFilter struct {
	// Type restricts to one booking type. Empty means all types.
	Type Type
	// Languages restricts to bookings in any of these source languages.
	// Empty means all languages.
	Languages []LanguageID
}

// Store defines the persistence contract for jobs and assignments.
type Store interface {
	// CreateJob persists a new booking.
	CreateJob(ctx context.Context, j *Job) error

	// GetJob retrieves a booking by ID.
	GetJob(ctx context.Context, jobID id.JobID) (*Job, error)

	// UpdateJob persists changes to an existing booking.
	UpdateJob(ctx context.Context, j *Job) error

	// ListJobsByStatus returns bookings with the given status.
	ListJobsByStatus(ctx context.Context, status Status) ([]*Job, error)

	// ListPendingJobs returns pending bookings matching the filter.
	ListPendingJobs(ctx context.Context, f MatchFilter) ([]*Job, error)

	// ExpiredPendingJobs returns pending bookings whose WillExpireAt has
	// passed at the given instant.
	ExpiredPendingJobs(ctx context.Context, now time.Time) ([]*Job, error)

	// ClaimJob atomically flips a pending booking to assigned and creates
	// the given assignment as its active translator relation. Exactly one
	// of any set of concurrent claims succeeds; the rest receive
	// booking.ErrAlreadyClaimed and leave no partial state behind.
	ClaimJob(ctx context.Context, jobID id.JobID, a *Assignment) error

	// CreateAssignment persists a new assignment without touching job status.
	CreateAssignment(ctx context.Context, a *Assignment) error

	// UpdateAssignment persists changes to an existing assignment.
	UpdateAssignment(ctx context.Context, a *Assignment) error

	// ActiveAssignment returns the assignment with neither CancelAt nor
	// CompletedAt set, or booking.ErrAssignmentNotFound if the job has none.
	ActiveAssignment(ctx context.Context, jobID id.JobID) (*Assignment, error)

	// LatestCompletedAssignment returns the most recently completed
	// assignment for the job, or booking.ErrAssignmentNotFound.
	LatestCompletedAssignment(ctx context.Context, jobID id.JobID) (*Assignment, error)

	// AssignmentsForJob returns every assignment ever created for the job.
	AssignmentsForJob(ctx context.Context, jobID id.JobID) ([]*Assignment, error)

	// HasAssignmentAt reports whether the translator holds an active
	// assignment on a booking whose session overlaps the [from, to)
	// window.
	HasAssignmentAt(ctx context.Context, translatorID id.TranslatorID, from, to time.Time) (bool, error)

	// CancelActiveAssignments stamps CancelAt on every active assignment
	// of the job.
	CancelActiveAssignments(ctx context.Context, jobID id.JobID, at time.Time) error
}
