package job

import (
	"time"

	"github.com/xraph/booking"
	"github.com/xraph/booking/id"
)

// Assignment links one translator to one job at a point in time.
// Assignments are never deleted: cancellation stamps CancelAt and session
// end stamps CompletedAt, preserving the full history of a booking.
type Assignment struct {
	booking.Entity

	ID           id.AssignmentID `json:"id"`
	JobID        id.JobID        `json:"job_id"`
	TranslatorID id.TranslatorID `json:"translator_id"`
	CancelAt     *time.Time      `json:"cancel_at,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`

	// CompletedBy records who ended the session — the customer or the
	// translator, whichever party the ender was not.
	CompletedBy id.AnyID `json:"completed_by,omitempty"`
}

// Active reports whether this assignment is the live translator relation
// for its job. The store guarantees at most one active assignment per job.
func (a *Assignment) Active() bool {
	return a.CancelAt == nil && a.CompletedAt == nil
}

// Cancel stamps the assignment cancelled at the given time.
func (a *Assignment) Cancel(at time.Time) {
	t := at
	a.CancelAt = &t
}

// Complete stamps the assignment completed at the given time by the given party.
func (a *Assignment) Complete(at time.Time, by id.AnyID) {
	t := at
	a.CompletedAt = &t
	a.CompletedBy = by
}
