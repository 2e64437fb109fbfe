// Package memory provides a fully in-memory store.Store implementation.
// Safe for concurrent access. Intended for unit testing and development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xraph/booking"
	"github.com/xraph/booking/audit"
	"github.com/xraph/booking/id"
	"github.com/xraph/booking/job"
)

// Ensure Store implements store.Store at compile time.
// We can't import store here (import cycle), so we verify each subsystem.
var (
	_ job.Store   = (*Store)(nil)
	_ audit.Store = (*Store)(nil)
)

// Store is a fully in-memory implementation of store.Store.
type Store struct {
	mu sync.RWMutex

	jobs        map[string]*job.Job
	assignments map[string]*job.Assignment
	audits      []*audit.Entry
}

// New returns a new empty Store.
func New() *Store {
	return &Store{
		jobs:        make(map[string]*job.Job),
		assignments: make(map[string]*job.Assignment),
	}
}

// ──────────────────────────────────────────────────
// Lifecycle — Migrate / Ping / Close
// ──────────────────────────────────────────────────

// Migrate is a no-op for the memory store.
func (m *Store) Migrate(_ context.Context) error { return nil }

// Ping always succeeds for the memory store.
func (m *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (m *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// Job Store
// ──────────────────────────────────────────────────

// CreateJob persists a new booking.
func (m *Store) CreateJob(_ context.Context, j *job.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *j
	m.jobs[j.ID.String()] = &cp
	return nil
}

// GetJob retrieves a booking by ID.
func (m *Store) GetJob(_ context.Context, jobID id.JobID) (*job.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	j, ok := m.jobs[jobID.String()]
	if !ok {
		return nil, booking.ErrJobNotFound
	}
	cp := *j
	return &cp, nil
}

// UpdateJob persists changes to an existing booking.
func (m *Store) UpdateJob(_ context.Context, j *job.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := j.ID.String()
	if _, ok := m.jobs[key]; !ok {
		return booking.ErrJobNotFound
	}
	cp := *j
	cp.UpdatedAt = time.Now().UTC()
	m.jobs[key] = &cp
	return nil
}

// ListJobsByStatus returns bookings matching the given status.
func (m *Store) ListJobsByStatus(_ context.Context, status job.Status) ([]*job.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*job.Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		if j.Status != status {
			continue
		}
		cp := *j
		result = append(result, &cp)
	}
	sortJobs(result)
	return result, nil
}

// ListPendingJobs returns pending bookings matching the filter.
func (m *Store) ListPendingJobs(_ context.Context, f job.MatchFilter) ([]*job.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	langSet := make(map[job.LanguageID]struct{}, len(f.Languages))
	for _, l := range f.Languages {
		langSet[l] = struct{}{}
	}

	result := make([]*job.Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		if j.Status != job.StatusPending {
			continue
		}
		if f.Type != "" && j.Type != f.Type {
			continue
		}
		if len(langSet) > 0 {
			if _, ok := langSet[j.FromLanguage]; !ok {
				continue
			}
		}
		cp := *j
		result = append(result, &cp)
	}
	sortJobs(result)
	return result, nil
}

// ExpiredPendingJobs returns pending bookings whose expiry has passed.
func (m *Store) ExpiredPendingJobs(_ context.Context, now time.Time) ([]*job.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*job.Job, 0)
	for _, j := range m.jobs {
		if j.Status != job.StatusPending {
			continue
		}
		if j.WillExpireAt.After(now) {
			continue
		}
		cp := *j
		result = append(result, &cp)
	}
	sortJobs(result)
	return result, nil
}

// ClaimJob atomically flips a pending booking to assigned and records the
// assignment. The single store mutex makes the check-and-set atomic.
func (m *Store) ClaimJob(_ context.Context, jobID id.JobID, a *job.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[jobID.String()]
	if !ok {
		return booking.ErrJobNotFound
	}
	if j.Status != job.StatusPending {
		return booking.ErrAlreadyClaimed
	}

	j.Status = job.StatusAssigned
	j.UpdatedAt = time.Now().UTC()

	cp := *a
	m.assignments[a.ID.String()] = &cp
	return nil
}

// ──────────────────────────────────────────────────
// Assignments
// ──────────────────────────────────────────────────

// CreateAssignment persists a new assignment without touching job status.
func (m *Store) CreateAssignment(_ context.Context, a *job.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *a
	m.assignments[a.ID.String()] = &cp
	return nil
}

// UpdateAssignment persists changes to an existing assignment.
func (m *Store) UpdateAssignment(_ context.Context, a *job.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := a.ID.String()
	if _, ok := m.assignments[key]; !ok {
		return booking.ErrAssignmentNotFound
	}
	cp := *a
	cp.UpdatedAt = time.Now().UTC()
	m.assignments[key] = &cp
	return nil
}

// ActiveAssignment returns the live translator relation for a job.
func (m *Store) ActiveAssignment(_ context.Context, jobID id.JobID) (*job.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, a := range m.assignments {
		if a.JobID == jobID && a.Active() {
			cp := *a
			return &cp, nil
		}
	}
	return nil, booking.ErrAssignmentNotFound
}

// LatestCompletedAssignment returns the most recently completed assignment.
func (m *Store) LatestCompletedAssignment(_ context.Context, jobID id.JobID) (*job.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *job.Assignment
	for _, a := range m.assignments {
		if a.JobID != jobID || a.CompletedAt == nil {
			continue
		}
		if latest == nil || a.CompletedAt.After(*latest.CompletedAt) {
			latest = a
		}
	}
	if latest == nil {
		return nil, booking.ErrAssignmentNotFound
	}
	cp := *latest
	return &cp, nil
}

// AssignmentsForJob returns every assignment ever created for the job.
func (m *Store) AssignmentsForJob(_ context.Context, jobID id.JobID) ([]*job.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*job.Assignment, 0)
	for _, a := range m.assignments {
		if a.JobID != jobID {
			continue
		}
		cp := *a
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, k int) bool {
		return result[i].CreatedAt.Before(result[k].CreatedAt)
	})
	return result, nil
}

// HasAssignmentAt reports whether the translator holds an active assignment
// on a booking whose session overlaps the [from, to) window.
func (m *Store) HasAssignmentAt(_ context.Context, translatorID id.TranslatorID, from, to time.Time) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, a := range m.assignments {
		if a.TranslatorID != translatorID || !a.Active() {
			continue
		}
		j, ok := m.jobs[a.JobID.String()]
		if !ok {
			continue
		}
		if j.Due.Before(to) && j.Due.Add(j.Duration).After(from) {
			return true, nil
		}
	}
	return false, nil
}

// CancelActiveAssignments stamps CancelAt on every active assignment of the job.
func (m *Store) CancelActiveAssignments(_ context.Context, jobID id.JobID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.assignments {
		if a.JobID == jobID && a.Active() {
			a.Cancel(at)
			a.UpdatedAt = time.Now().UTC()
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Audit Store
// ──────────────────────────────────────────────────

// AppendAudit persists a new audit entry.
func (m *Store) AppendAudit(_ context.Context, e *audit.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *e
	m.audits = append(m.audits, &cp)
	return nil
}

// AuditTrail returns the job's entries in append order.
func (m *Store) AuditTrail(_ context.Context, jobID id.JobID) ([]*audit.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*audit.Entry, 0)
	for _, e := range m.audits {
		if e.JobID != jobID {
			continue
		}
		cp := *e
		result = append(result, &cp)
	}
	return result, nil
}

// sortJobs orders by CreatedAt for deterministic output.
func sortJobs(jobs []*job.Job) {
	sort.Slice(jobs, func(i, k int) bool {
		return jobs[i].CreatedAt.Before(jobs[k].CreatedAt)
	})
}
