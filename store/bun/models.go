package bunstore

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/xraph/booking"
	"github.com/xraph/booking/audit"
	"github.com/xraph/booking/id"
	"github.com/xraph/booking/job"
)

// ── Job model ─────────────────────────────────────────────────────

type jobModel struct {
	bun.BaseModel `bun:"table:booking_jobs"`

	ID              string     `bun:"id,pk"`
	CustomerID      string     `bun:"customer_id,notnull"`
	Status          string     `bun:"status,notnull,default:'pending'"`
	FromLanguageID  int64      `bun:"from_language_id,notnull"`
	Due             time.Time  `bun:"due,notnull"`
	Immediate       bool       `bun:"immediate,notnull,default:false"`
	Duration        int64      `bun:"duration,notnull,default:0"`
	Gender          string     `bun:"gender"`
	Certification   string     `bun:"certification"`
	JobType         string     `bun:"job_type,notnull"`
	PhoneBooking    bool       `bun:"phone_booking,notnull,default:false"`
	PhysicalBooking bool       `bun:"physical_booking,notnull,default:false"`
	Town            string     `bun:"town"`
	Address         string     `bun:"address"`
	Instructions    string     `bun:"instructions"`
	CustomerEmail   string     `bun:"customer_email"`
	Reference       string     `bun:"reference"`
	AdminComments   string     `bun:"admin_comments"`
	ByAdmin         bool       `bun:"by_admin,notnull,default:false"`
	WillExpireAt    time.Time  `bun:"will_expire_at,notnull"`
	WithdrawAt      *time.Time `bun:"withdraw_at"`
	EndAt           *time.Time `bun:"end_at"`
	SessionTime     int64      `bun:"session_time,notnull,default:0"`
	CreatedAt       time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt       time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
}

func toJobModel(j *job.Job) *jobModel {
	return &jobModel{
		ID:              j.ID.String(),
		CustomerID:      j.CustomerID.String(),
		Status:          string(j.Status),
		FromLanguageID:  int64(j.FromLanguage),
		Due:             j.Due,
		Immediate:       j.Immediate,
		Duration:        j.Duration.Nanoseconds(),
		Gender:          string(j.Gender),
		Certification:   string(j.Certification),
		JobType:         string(j.Type),
		PhoneBooking:    j.PhoneBooking,
		PhysicalBooking: j.PhysicalBooking,
		Town:            j.Town,
		Address:         j.Address,
		Instructions:    j.Instructions,
		CustomerEmail:   j.CustomerEmail,
		Reference:       j.Reference,
		AdminComments:   j.AdminComments,
		ByAdmin:         j.ByAdmin,
		WillExpireAt:    j.WillExpireAt,
		WithdrawAt:      j.WithdrawAt,
		EndAt:           j.EndAt,
		SessionTime:     j.SessionTime.Nanoseconds(),
		CreatedAt:       j.CreatedAt,
		UpdatedAt:       j.UpdatedAt,
	}
}

func fromJobModel(m *jobModel) (*job.Job, error) {
	parsedID, err := id.ParseJobID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("booking/bun: parse job id %q: %w", m.ID, err)
	}
	parsedCust, err := id.ParseCustomerID(m.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("booking/bun: parse customer id %q: %w", m.CustomerID, err)
	}

	return &job.Job{
		Entity: booking.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:              parsedID,
		CustomerID:      parsedCust,
		Status:          job.Status(m.Status),
		FromLanguage:    job.LanguageID(m.FromLanguageID),
		Due:             m.Due,
		Immediate:       m.Immediate,
		Duration:        time.Duration(m.Duration),
		Gender:          job.Gender(m.Gender),
		Certification:   job.Certification(m.Certification),
		Type:            job.Type(m.JobType),
		PhoneBooking:    m.PhoneBooking,
		PhysicalBooking: m.PhysicalBooking,
		Town:            m.Town,
		Address:         m.Address,
		Instructions:    m.Instructions,
		CustomerEmail:   m.CustomerEmail,
		Reference:       m.Reference,
		AdminComments:   m.AdminComments,
		ByAdmin:         m.ByAdmin,
		WillExpireAt:    m.WillExpireAt,
		WithdrawAt:      m.WithdrawAt,
		EndAt:           m.EndAt,
		SessionTime:     time.Duration(m.SessionTime),
	}, nil
}

// ── Assignment model ──────────────────────────────────────────────

type assignmentModel struct {
	bun.BaseModel `bun:"table:booking_assignments"`

	ID           string     `bun:"id,pk"`
	JobID        string     `bun:"job_id,notnull"`
	TranslatorID string     `bun:"translator_id,notnull"`
	CancelAt     *time.Time `bun:"cancel_at"`
	CompletedAt  *time.Time `bun:"completed_at"`
	CompletedBy  string     `bun:"completed_by"`
	CreatedAt    time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt    time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
}

func toAssignmentModel(a *job.Assignment) *assignmentModel {
	return &assignmentModel{
		ID:           a.ID.String(),
		JobID:        a.JobID.String(),
		TranslatorID: a.TranslatorID.String(),
		CancelAt:     a.CancelAt,
		CompletedAt:  a.CompletedAt,
		CompletedBy:  a.CompletedBy.String(),
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func fromAssignmentModel(m *assignmentModel) (*job.Assignment, error) {
	parsedID, err := id.ParseAssignmentID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("booking/bun: parse assignment id %q: %w", m.ID, err)
	}
	parsedJob, err := id.ParseJobID(m.JobID)
	if err != nil {
		return nil, fmt.Errorf("booking/bun: parse job id %q: %w", m.JobID, err)
	}
	parsedTr, err := id.ParseTranslatorID(m.TranslatorID)
	if err != nil {
		return nil, fmt.Errorf("booking/bun: parse translator id %q: %w", m.TranslatorID, err)
	}

	a := &job.Assignment{
		Entity: booking.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:           parsedID,
		JobID:        parsedJob,
		TranslatorID: parsedTr,
		CancelAt:     m.CancelAt,
		CompletedAt:  m.CompletedAt,
	}
	if m.CompletedBy != "" {
		if parsedBy, byErr := id.Parse(m.CompletedBy); byErr == nil {
			a.CompletedBy = parsedBy
		}
	}
	return a, nil
}

// ── Audit model ───────────────────────────────────────────────────

type auditModel struct {
	bun.BaseModel `bun:"table:booking_audit"`

	ID        string    `bun:"id,pk"`
	JobID     string    `bun:"job_id,notnull"`
	Action    string    `bun:"action,notnull"`
	Actor     string    `bun:"actor,notnull"`
	OldValue  string    `bun:"old_value"`
	NewValue  string    `bun:"new_value"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

func toAuditModel(e *audit.Entry) *auditModel {
	return &auditModel{
		ID:        e.ID.String(),
		JobID:     e.JobID.String(),
		Action:    string(e.Action),
		Actor:     string(e.Actor),
		OldValue:  e.OldValue,
		NewValue:  e.NewValue,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func fromAuditModel(m *auditModel) (*audit.Entry, error) {
	parsedID, err := id.ParseAuditID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("booking/bun: parse audit id %q: %w", m.ID, err)
	}
	parsedJob, err := id.ParseJobID(m.JobID)
	if err != nil {
		return nil, fmt.Errorf("booking/bun: parse job id %q: %w", m.JobID, err)
	}

	return &audit.Entry{
		Entity: booking.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:       parsedID,
		JobID:    parsedJob,
		Action:   audit.Action(m.Action),
		Actor:    audit.Actor(m.Actor),
		OldValue: m.OldValue,
		NewValue: m.NewValue,
	}, nil
}
