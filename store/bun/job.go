package bunstore

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/xraph/booking"
	"github.com/xraph/booking/id"
	"github.com/xraph/booking/job"
)

// CreateJob persists a new booking.
func (s *Store) CreateJob(ctx context.Context, j *job.Job) error {
	m := toJobModel(j)
	_, err := s.db.NewInsert().Model(m).Exec(ctx)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("booking/bun: create job: duplicate id %s", j.ID)
		}
		return fmt.Errorf("booking/bun: create job: %w", err)
	}
	return nil
}

// GetJob retrieves a booking by ID.
func (s *Store) GetJob(ctx context.Context, jobID id.JobID) (*job.Job, error) {
	m := new(jobModel)
	err := s.db.NewSelect().Model(m).
		Where("id = ?", jobID.String()).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, booking.ErrJobNotFound
		}
		return nil, fmt.Errorf("booking/bun: get job: %w", err)
	}
	return fromJobModel(m)
}

// UpdateJob persists changes to an existing booking.
func (s *Store) UpdateJob(ctx context.Context, j *job.Job) error {
	m := toJobModel(j)
	m.UpdatedAt = time.Now().UTC()
	res, err := s.db.NewUpdate().Model(m).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("booking/bun: update job: %w", err)
	}
	rows, _ := res.RowsAffected() //nolint:errcheck // driver always returns nil
	if rows == 0 {
		return booking.ErrJobNotFound
	}
	return nil
}

// ListJobsByStatus returns bookings matching the given status.
func (s *Store) ListJobsByStatus(ctx context.Context, status job.Status) ([]*job.Job, error) {
	var models []jobModel
	err := s.db.NewSelect().Model(&models).
		Where("status = ?", string(status)).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("booking/bun: list jobs by status: %w", err)
	}
	return convertJobs(models)
}

// ListPendingJobs returns pending bookings matching the filter.
func (s *Store) ListPendingJobs(ctx context.Context, f job.MatchFilter) ([]*job.Job, error) {
	var models []jobModel
	q := s.db.NewSelect().Model(&models).
		Where("status = ?", string(job.StatusPending))

	if f.Type != "" {
		q = q.Where("job_type = ?", string(f.Type))
	}
	if len(f.Languages) > 0 {
		langs := make([]int64, len(f.Languages))
		for i, l := range f.Languages {
			langs[i] = int64(l)
		}
		q = q.Where("from_language_id IN (?)", bun.In(langs))
	}

	if err := q.Order("created_at ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("booking/bun: list pending jobs: %w", err)
	}
	return convertJobs(models)
}

// ExpiredPendingJobs returns pending bookings whose expiry has passed.
func (s *Store) ExpiredPendingJobs(ctx context.Context, now time.Time) ([]*job.Job, error) {
	var models []jobModel
	err := s.db.NewSelect().Model(&models).
		Where("status = ?", string(job.StatusPending)).
		Where("will_expire_at <= ?", now).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("booking/bun: expired pending jobs: %w", err)
	}
	return convertJobs(models)
}

// ClaimJob atomically flips a pending booking to assigned and creates the
// assignment inside one transaction. The conditional UPDATE guarantees
// exactly one of any set of concurrent claims wins.
func (s *Store) ClaimJob(ctx context.Context, jobID id.JobID, a *job.Assignment) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*jobModel)(nil)).
			Set("status = ?", string(job.StatusAssigned)).
			Set("updated_at = ?", time.Now().UTC()).
			Where("id = ?", jobID.String()).
			Where("status = ?", string(job.StatusPending)).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("booking/bun: claim job update: %w", err)
		}
		rows, _ := res.RowsAffected() //nolint:errcheck // driver always returns nil
		if rows == 0 {
			exists, err := tx.NewSelect().
				Model((*jobModel)(nil)).
				Where("id = ?", jobID.String()).
				Exists(ctx)
			if err != nil {
				return fmt.Errorf("booking/bun: claim job exists: %w", err)
			}
			if !exists {
				return booking.ErrJobNotFound
			}
			return booking.ErrAlreadyClaimed
		}

		if _, err := tx.NewInsert().Model(toAssignmentModel(a)).Exec(ctx); err != nil {
			return fmt.Errorf("booking/bun: claim job assignment: %w", err)
		}
		return nil
	})
}

// ──────────────────────────────────────────────────
// Assignments
// ──────────────────────────────────────────────────

// CreateAssignment persists a new assignment without touching job status.
func (s *Store) CreateAssignment(ctx context.Context, a *job.Assignment) error {
	_, err := s.db.NewInsert().Model(toAssignmentModel(a)).Exec(ctx)
	if err != nil {
		return fmt.Errorf("booking/bun: create assignment: %w", err)
	}
	return nil
}

// UpdateAssignment persists changes to an existing assignment.
func (s *Store) UpdateAssignment(ctx context.Context, a *job.Assignment) error {
	m := toAssignmentModel(a)
	m.UpdatedAt = time.Now().UTC()
	res, err := s.db.NewUpdate().Model(m).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("booking/bun: update assignment: %w", err)
	}
	rows, _ := res.RowsAffected() //nolint:errcheck // driver always returns nil
	if rows == 0 {
		return booking.ErrAssignmentNotFound
	}
	return nil
}

// ActiveAssignment returns the live translator relation for a job.
func (s *Store) ActiveAssignment(ctx context.Context, jobID id.JobID) (*job.Assignment, error) {
	m := new(assignmentModel)
	err := s.db.NewSelect().Model(m).
		Where("job_id = ?", jobID.String()).
		Where("cancel_at IS NULL").
		Where("completed_at IS NULL").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, booking.ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("booking/bun: active assignment: %w", err)
	}
	return fromAssignmentModel(m)
}

// LatestCompletedAssignment returns the most recently completed assignment.
func (s *Store) LatestCompletedAssignment(ctx context.Context, jobID id.JobID) (*job.Assignment, error) {
	m := new(assignmentModel)
	err := s.db.NewSelect().Model(m).
		Where("job_id = ?", jobID.String()).
		Where("completed_at IS NOT NULL").
		Order("completed_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, booking.ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("booking/bun: latest completed assignment: %w", err)
	}
	return fromAssignmentModel(m)
}

// AssignmentsForJob returns every assignment ever created for the job.
func (s *Store) AssignmentsForJob(ctx context.Context, jobID id.JobID) ([]*job.Assignment, error) {
	var models []assignmentModel
	err := s.db.NewSelect().Model(&models).
		Where("job_id = ?", jobID.String()).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("booking/bun: assignments for job: %w", err)
	}

	list := make([]*job.Assignment, 0, len(models))
	for i := range models {
		a, convErr := fromAssignmentModel(&models[i])
		if convErr != nil {
			return nil, convErr
		}
		list = append(list, a)
	}
	return list, nil
}

// HasAssignmentAt reports whether the translator holds an active assignment
// on a booking whose session overlaps the [from, to) window. Durations are
// stored as nanoseconds.
func (s *Store) HasAssignmentAt(ctx context.Context, translatorID id.TranslatorID, from, to time.Time) (bool, error) {
	exists, err := s.db.NewSelect().
		Model((*assignmentModel)(nil)).
		Join("JOIN booking_jobs AS j ON j.id = assignment_model.job_id").
		Where("assignment_model.translator_id = ?", translatorID.String()).
		Where("assignment_model.cancel_at IS NULL").
		Where("assignment_model.completed_at IS NULL").
		Where("j.due < ?", to).
		Where("j.due + make_interval(secs => j.duration / 1000000000.0) > ?", from).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("booking/bun: has assignment at: %w", err)
	}
	return exists, nil
}

// CancelActiveAssignments stamps CancelAt on every active assignment of the job.
func (s *Store) CancelActiveAssignments(ctx context.Context, jobID id.JobID, at time.Time) error {
	_, err := s.db.NewUpdate().
		Model((*assignmentModel)(nil)).
		Set("cancel_at = ?", at).
		Set("updated_at = ?", time.Now().UTC()).
		Where("job_id = ?", jobID.String()).
		Where("cancel_at IS NULL").
		Where("completed_at IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("booking/bun: cancel active assignments: %w", err)
	}
	return nil
}

// convertJobs converts model rows to domain jobs.
func convertJobs(models []jobModel) ([]*job.Job, error) {
	jobs := make([]*job.Job, 0, len(models))
	for i := range models {
		j, err := fromJobModel(&models[i])
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}
