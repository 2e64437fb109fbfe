package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/xraph/booking"
	"github.com/xraph/booking/id"
	"github.com/xraph/booking/job"
)

const jobColumns = `
	id, customer_id, status, from_language_id, due, immediate, duration,
	gender, certification, job_type, phone_booking, physical_booking,
	town, address, instructions, customer_email, reference, admin_comments,
	by_admin, will_expire_at, withdraw_at, end_at, session_time,
	created_at, updated_at`

// CreateJob persists a new booking.
func (s *Store) CreateJob(ctx context.Context, j *job.Job) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO booking_jobs (
			id, customer_id, status, from_language_id, due, immediate, duration,
			gender, certification, job_type, phone_booking, physical_booking,
			town, address, instructions, customer_email, reference, admin_comments,
			by_admin, will_expire_at, withdraw_at, end_at, session_time,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18,
			$19, $20, $21, $22, $23,
			$24, $25
		)`,
		j.ID.String(), j.CustomerID.String(), string(j.Status),
		int64(j.FromLanguage), j.Due, j.Immediate, j.Duration.Nanoseconds(),
		string(j.Gender), string(j.Certification), string(j.Type),
		j.PhoneBooking, j.PhysicalBooking,
		j.Town, j.Address, j.Instructions, j.CustomerEmail, j.Reference, j.AdminComments,
		j.ByAdmin, j.WillExpireAt, j.WithdrawAt, j.EndAt, j.SessionTime.Nanoseconds(),
		j.CreatedAt, j.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("booking/postgres: create job: duplicate id %s", j.ID)
		}
		return fmt.Errorf("booking/postgres: create job: %w", err)
	}
	return nil
}

// GetJob retrieves a booking by ID.
func (s *Store) GetJob(ctx context.Context, jobID id.JobID) (*job.Job, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM booking_jobs WHERE id = $1`,
		jobID.String(),
	)

	j, err := scanJob(row)
	if err != nil {
		if isNoRows(err) {
			return nil, booking.ErrJobNotFound
		}
		return nil, fmt.Errorf("booking/postgres: get job: %w", err)
	}
	return j, nil
}

// UpdateJob persists changes to an existing booking.
func (s *Store) UpdateJob(ctx context.Context, j *job.Job) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE booking_jobs SET
			customer_id = $2, status = $3, from_language_id = $4, due = $5,
			immediate = $6, duration = $7, gender = $8, certification = $9,
			job_type = $10, phone_booking = $11, physical_booking = $12,
			town = $13, address = $14, instructions = $15, customer_email = $16,
			reference = $17, admin_comments = $18, by_admin = $19,
			will_expire_at = $20, withdraw_at = $21, end_at = $22,
			session_time = $23, created_at = $24, updated_at = NOW()
		WHERE id = $1`,
		j.ID.String(), j.CustomerID.String(), string(j.Status),
		int64(j.FromLanguage), j.Due,
		j.Immediate, j.Duration.Nanoseconds(), string(j.Gender), string(j.Certification),
		string(j.Type), j.PhoneBooking, j.PhysicalBooking,
		j.Town, j.Address, j.Instructions, j.CustomerEmail,
		j.Reference, j.AdminComments, j.ByAdmin,
		j.WillExpireAt, j.WithdrawAt, j.EndAt,
		j.SessionTime.Nanoseconds(), j.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("booking/postgres: update job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return booking.ErrJobNotFound
	}
	return nil
}

// ListJobsByStatus returns bookings matching the given status.
func (s *Store) ListJobsByStatus(ctx context.Context, status job.Status) ([]*job.Job, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM booking_jobs WHERE status = $1 ORDER BY created_at ASC`,
		string(status),
	)
	if err != nil {
		return nil, fmt.Errorf("booking/postgres: list jobs by status: %w", err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

// ListPendingJobs returns pending bookings matching the filter.
func (s *Store) ListPendingJobs(ctx context.Context, f job.MatchFilter) ([]*job.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM booking_jobs WHERE status = 'pending'`
	args := []interface{}{}
	argIdx := 1

	if f.Type != "" {
		query += fmt.Sprintf(" AND job_type = $%d", argIdx)
		args = append(args, string(f.Type))
		argIdx++
	}
	if len(f.Languages) > 0 {
		langs := make([]int64, len(f.Languages))
		for i, l := range f.Languages {
			langs[i] = int64(l)
		}
		query += fmt.Sprintf(" AND from_language_id = ANY($%d)", argIdx)
		args = append(args, langs)
	}

	query += " ORDER BY created_at ASC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("booking/postgres: list pending jobs: %w", err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

// ExpiredPendingJobs returns pending bookings whose expiry has passed.
func (s *Store) ExpiredPendingJobs(ctx context.Context, now time.Time) ([]*job.Job, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM booking_jobs
		 WHERE status = 'pending' AND will_expire_at <= $1
		 ORDER BY created_at ASC`,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("booking/postgres: expired pending jobs: %w", err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

// ClaimJob atomically flips a pending booking to assigned and creates the
// assignment. The conditional UPDATE guarantees exactly one of any set of
// concurrent claims wins; losers see zero rows affected.
func (s *Store) ClaimJob(ctx context.Context, jobID id.JobID, a *job.Assignment) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("booking/postgres: claim job begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	tag, err := tx.Exec(ctx, `
		UPDATE booking_jobs
		SET status = 'assigned', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`,
		jobID.String(),
	)
	if err != nil {
		return fmt.Errorf("booking/postgres: claim job update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM booking_jobs WHERE id = $1)`,
			jobID.String(),
		).Scan(&exists); err != nil {
			return fmt.Errorf("booking/postgres: claim job exists: %w", err)
		}
		if !exists {
			return booking.ErrJobNotFound
		}
		return booking.ErrAlreadyClaimed
	}

	if err := insertAssignment(ctx, tx, a); err != nil {
		return fmt.Errorf("booking/postgres: claim job assignment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("booking/postgres: claim job commit: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Assignments
// ──────────────────────────────────────────────────

const assignmentColumns = `
	id, job_id, translator_id, cancel_at, completed_at, completed_by,
	created_at, updated_at`

func insertAssignment(ctx context.Context, tx pgx.Tx, a *job.Assignment) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO booking_assignments (
			id, job_id, translator_id, cancel_at, completed_at, completed_by,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID.String(), a.JobID.String(), a.TranslatorID.String(),
		a.CancelAt, a.CompletedAt, a.CompletedBy.String(),
		a.CreatedAt, a.UpdatedAt,
	)
	return err
}

// CreateAssignment persists a new assignment without touching job status.
func (s *Store) CreateAssignment(ctx context.Context, a *job.Assignment) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO booking_assignments (
			id, job_id, translator_id, cancel_at, completed_at, completed_by,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID.String(), a.JobID.String(), a.TranslatorID.String(),
		a.CancelAt, a.CompletedAt, a.CompletedBy.String(),
		a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("booking/postgres: create assignment: %w", err)
	}
	return nil
}

// UpdateAssignment persists changes to an existing assignment.
func (s *Store) UpdateAssignment(ctx context.Context, a *job.Assignment) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE booking_assignments SET
			cancel_at = $2, completed_at = $3, completed_by = $4, updated_at = NOW()
		WHERE id = $1`,
		a.ID.String(), a.CancelAt, a.CompletedAt, a.CompletedBy.String(),
	)
	if err != nil {
		return fmt.Errorf("booking/postgres: update assignment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return booking.ErrAssignmentNotFound
	}
	return nil
}

// ActiveAssignment returns the live translator relation for a job.
func (s *Store) ActiveAssignment(ctx context.Context, jobID id.JobID) (*job.Assignment, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+assignmentColumns+` FROM booking_assignments
		 WHERE job_id = $1 AND cancel_at IS NULL AND completed_at IS NULL`,
		jobID.String(),
	)

	a, err := scanAssignment(row)
	if err != nil {
		if isNoRows(err) {
			return nil, booking.ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("booking/postgres: active assignment: %w", err)
	}
	return a, nil
}

// LatestCompletedAssignment returns the most recently completed assignment.
func (s *Store) LatestCompletedAssignment(ctx context.Context, jobID id.JobID) (*job.Assignment, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+assignmentColumns+` FROM booking_assignments
		 WHERE job_id = $1 AND completed_at IS NOT NULL
		 ORDER BY completed_at DESC
		 LIMIT 1`,
		jobID.String(),
	)

	a, err := scanAssignment(row)
	if err != nil {
		if isNoRows(err) {
			return nil, booking.ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("booking/postgres: latest completed assignment: %w", err)
	}
	return a, nil
}

// AssignmentsForJob returns every assignment ever created for the job.
func (s *Store) AssignmentsForJob(ctx context.Context, jobID id.JobID) ([]*job.Assignment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+assignmentColumns+` FROM booking_assignments
		 WHERE job_id = $1 ORDER BY created_at ASC`,
		jobID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("booking/postgres: assignments for job: %w", err)
	}
	defer rows.Close()

	var list []*job.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("booking/postgres: scan assignment row: %w", err)
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("booking/postgres: iterate assignment rows: %w", err)
	}
	return list, nil
}

// HasAssignmentAt reports whether the translator holds an active assignment
// on a booking whose session overlaps the [from, to) window. Durations are
// stored as nanoseconds.
func (s *Store) HasAssignmentAt(ctx context.Context, translatorID id.TranslatorID, from, to time.Time) (bool, error) {
	var busy bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1
			FROM booking_assignments a
			JOIN booking_jobs j ON j.id = a.job_id
			WHERE a.translator_id = $1
			  AND a.cancel_at IS NULL
			  AND a.completed_at IS NULL
			  AND j.due < $3
			  AND j.due + make_interval(secs => j.duration / 1000000000.0) > $2
		)`,
		translatorID.String(), from, to,
	).Scan(&busy)
	if err != nil {
		return false, fmt.Errorf("booking/postgres: has assignment at: %w", err)
	}
	return busy, nil
}

// CancelActiveAssignments stamps CancelAt on every active assignment of the job.
func (s *Store) CancelActiveAssignments(ctx context.Context, jobID id.JobID, at time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE booking_assignments
		SET cancel_at = $2, updated_at = NOW()
		WHERE job_id = $1 AND cancel_at IS NULL AND completed_at IS NULL`,
		jobID.String(), at,
	)
	if err != nil {
		return fmt.Errorf("booking/postgres: cancel active assignments: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Row scanning
// ──────────────────────────────────────────────────

// scanJob scans a single booking row.
func scanJob(row pgx.Row) (*job.Job, error) {
	var (
		j          job.Job
		idStr      string
		custStr    string
		statusStr  string
		langID     int64
		durationNs int64
		genderStr  string
		certStr    string
		typeStr    string
		sessionNs  int64
	)
	err := row.Scan(
		&idStr, &custStr, &statusStr, &langID, &j.Due, &j.Immediate, &durationNs,
		&genderStr, &certStr, &typeStr, &j.PhoneBooking, &j.PhysicalBooking,
		&j.Town, &j.Address, &j.Instructions, &j.CustomerEmail, &j.Reference, &j.AdminComments,
		&j.ByAdmin, &j.WillExpireAt, &j.WithdrawAt, &j.EndAt, &sessionNs,
		&j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	j.Status = job.Status(statusStr)
	j.FromLanguage = job.LanguageID(langID)
	j.Duration = time.Duration(durationNs)
	j.Gender = job.Gender(genderStr)
	j.Certification = job.Certification(certStr)
	j.Type = job.Type(typeStr)
	j.SessionTime = time.Duration(sessionNs)

	parsedID, parseErr := id.ParseJobID(idStr)
	if parseErr != nil {
		return nil, fmt.Errorf("booking/postgres: parse job id %q: %w", idStr, parseErr)
	}
	j.ID = parsedID

	parsedCust, custErr := id.ParseCustomerID(custStr)
	if custErr != nil {
		return nil, fmt.Errorf("booking/postgres: parse customer id %q: %w", custStr, custErr)
	}
	j.CustomerID = parsedCust

	return &j, nil
}

// scanAssignment scans a single assignment row.
func scanAssignment(row pgx.Row) (*job.Assignment, error) {
	var (
		a            job.Assignment
		idStr        string
		jobStr       string
		trStr        string
		completedStr string
	)
	err := row.Scan(
		&idStr, &jobStr, &trStr, &a.CancelAt, &a.CompletedAt, &completedStr,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	parsedID, parseErr := id.ParseAssignmentID(idStr)
	if parseErr != nil {
		return nil, fmt.Errorf("booking/postgres: parse assignment id %q: %w", idStr, parseErr)
	}
	a.ID = parsedID

	parsedJob, jobErr := id.ParseJobID(jobStr)
	if jobErr != nil {
		return nil, fmt.Errorf("booking/postgres: parse job id %q: %w", jobStr, jobErr)
	}
	a.JobID = parsedJob

	parsedTr, trErr := id.ParseTranslatorID(trStr)
	if trErr != nil {
		return nil, fmt.Errorf("booking/postgres: parse translator id %q: %w", trStr, trErr)
	}
	a.TranslatorID = parsedTr

	if completedStr != "" {
		parsedBy, byErr := id.Parse(completedStr)
		if byErr == nil {
			a.CompletedBy = parsedBy
		}
	}

	return &a, nil
}

// collectJobs collects all bookings from query rows.
func collectJobs(rows pgx.Rows) ([]*job.Job, error) {
	var jobs []*job.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("booking/postgres: scan job row: %w", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("booking/postgres: iterate job rows: %w", err)
	}
	return jobs, nil
}
