package bunstore

import (
	"context"
	"fmt"

	"github.com/xraph/booking/audit"
	"github.com/xraph/booking/id"
)

// AppendAudit persists a new audit entry.
func (s *Store) AppendAudit(ctx context.Context, e *audit.Entry) error {
	_, err := s.db.NewInsert().Model(toAuditModel(e)).Exec(ctx)
	if err != nil {
		return fmt.Errorf("booking/bun: append audit: %w", err)
	}
	return nil
}

// AuditTrail returns the job's entries in append order.
func (s *Store) AuditTrail(ctx context.Context, jobID id.JobID) ([]*audit.Entry, error) {
	var models []auditModel
	err := s.db.NewSelect().Model(&models).
		Where("job_id = ?", jobID.String()).
		Order("created_at ASC").
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("booking/bun: audit trail: %w", err)
	}

	entries := make([]*audit.Entry, 0, len(models))
	for i := range models {
		e, convErr := fromAuditModel(&models[i])
		if convErr != nil {
			return nil, convErr
		}
		entries = append(entries, e)
	}
	return entries, nil
}
