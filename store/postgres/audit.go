package postgres

import (
	"context"
	"fmt"

	"github.com/xraph/booking/audit"
	"github.com/xraph/booking/id"
)

// AppendAudit persists a new audit entry.
func (s *Store) AppendAudit(ctx context.Context, e *audit.Entry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO booking_audit (
			id, job_id, action, actor, old_value, new_value, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID.String(), e.JobID.String(), string(e.Action), string(e.Actor),
		e.OldValue, e.NewValue, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("booking/postgres: append audit: %w", err)
	}
	return nil
}

// AuditTrail returns the job's entries in append order.
func (s *Store) AuditTrail(ctx context.Context, jobID id.JobID) ([]*audit.Entry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, job_id, action, actor, old_value, new_value, created_at, updated_at
		FROM booking_audit
		WHERE job_id = $1
		ORDER BY created_at ASC, id ASC`,
		jobID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("booking/postgres: audit trail: %w", err)
	}
	defer rows.Close()

	var entries []*audit.Entry
	for rows.Next() {
		var (
			e         audit.Entry
			idStr     string
			jobStr    string
			actionStr string
			actorStr  string
		)
		if err := rows.Scan(&idStr, &jobStr, &actionStr, &actorStr,
			&e.OldValue, &e.NewValue, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("booking/postgres: scan audit row: %w", err)
		}

		parsedID, parseErr := id.ParseAuditID(idStr)
		if parseErr != nil {
			return nil, fmt.Errorf("booking/postgres: parse audit id %q: %w", idStr, parseErr)
		}
		e.ID = parsedID

		parsedJob, jobErr := id.ParseJobID(jobStr)
		if jobErr != nil {
			return nil, fmt.Errorf("booking/postgres: parse job id %q: %w", jobStr, jobErr)
		}
		e.JobID = parsedJob

		e.Action = audit.Action(actionStr)
		e.Actor = audit.Actor(actorStr)
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("booking/postgres: iterate audit rows: %w", err)
	}
	return entries, nil
}
