package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/booking"
	"github.com/xraph/booking/audit"
	"github.com/xraph/booking/id"
	"github.com/xraph/booking/job"
	"github.com/xraph/booking/notify"
)

// CreateRequest carries the fields of a new booking.
type CreateRequest struct {
	CustomerID   id.CustomerID
	FromLanguage job.LanguageID

	// Due is required unless Immediate is set; immediate bookings are due
	// ImmediateLeadTime from now and are forced to phone sessions.
	Due       time.Time
	Immediate bool
	Duration  time.Duration

	Gender        job.Gender
	Certification job.Certification

	PhoneBooking    bool
	PhysicalBooking bool
	Town            string
	Address         string
	Instructions    string

	// CustomerEmail overrides the customer profile address for this booking.
	CustomerEmail string
	Reference     string

	// ByAdmin marks bookings entered by back-office staff on a customer's
	// behalf.
	ByAdmin bool
}

// Create validates the request, persists a new pending booking, and
// announces it: confirmation email to the customer, push fan-out to
// eligible translators, SMS to those with a mobile number.
func (e *Engine) Create(ctx context.Context, req CreateRequest) (*job.Job, error) {
	cust, err := e.dir.Customer(ctx, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("booking/engine: create: %w", err)
	}

	jobType, ok := job.TypeForConsumer(cust.ConsumerCategory)
	if !ok {
		return nil, &booking.ValidationError{Field: "consumer_category"}
	}
	if req.FromLanguage == 0 {
		return nil, &booking.ValidationError{Field: "from_language_id"}
	}
	if req.Duration <= 0 {
		return nil, &booking.ValidationError{Field: "duration"}
	}

	now := e.clock()
	due := req.Due
	phone, physical := req.PhoneBooking, req.PhysicalBooking

	if req.Immediate {
		due = now.Add(e.cfg.ImmediateLeadTime)
		phone = true
	} else {
		if due.IsZero() {
			return nil, &booking.ValidationError{Field: "due"}
		}
		if !phone && !physical {
			return nil, &booking.ValidationError{Field: "customer_phone_type"}
		}
		// The due time must lie strictly in the future.
		if !due.After(now) {
			return nil, booking.ErrPastDue
		}
	}

	j := &job.Job{
		ID:              id.NewJobID(),
		CustomerID:      req.CustomerID,
		Status:          job.StatusPending,
		FromLanguage:    req.FromLanguage,
		Due:             due,
		Immediate:       req.Immediate,
		Duration:        req.Duration,
		Gender:          req.Gender,
		Certification:   req.Certification,
		Type:            jobType,
		PhoneBooking:    phone,
		PhysicalBooking: physical,
		Town:            req.Town,
		Address:         req.Address,
		Instructions:    req.Instructions,
		CustomerEmail:   req.CustomerEmail,
		Reference:       req.Reference,
		ByAdmin:         req.ByAdmin,
		WillExpireAt:    job.WillExpireAt(due, now),
	}
	j.Touch(now)

	if err := e.store.CreateJob(ctx, j); err != nil {
		return nil, fmt.Errorf("booking/engine: create: %w", err)
	}

	actor := audit.ActorCustomer
	if req.ByAdmin {
		actor = audit.ActorAdmin
	}
	e.recorder.Record(ctx, j.ID, audit.ActionCreated, actor, "", string(job.StatusPending))
	e.extensions.EmitJobCreated(ctx, j)

	if err := e.Announce(ctx, j); err != nil {
		e.logger.Error("announce failed",
			slog.String("job_id", j.ID.String()),
			slog.String("error", err.Error()),
		)
	}
	return j, nil
}

// Announce notifies the world of a pending booking: confirmation email to
// the customer, suitable-job push fan-out to eligible translators, and an
// SMS to each of them. Safe to call again, for example after a reopen.
func (e *Engine) Announce(ctx context.Context, j *job.Job) error {
	cust, err := e.dir.Customer(ctx, j.CustomerID)
	if err != nil {
		return fmt.Errorf("booking/engine: announce: %w", err)
	}
	language := e.languageName(ctx, j.FromLanguage)

	params := e.baseParams(ctx, j)
	params["customer_name"] = cust.Name
	if j.Address != "" {
		params["address"] = j.Address
	}
	town := j.Town
	if town == "" {
		town = cust.Town
	}
	if town != "" {
		params["town"] = town
	}
	e.dispatcher.Email(ctx, customerAddress(j, cust), cust.Name, notify.KeyJobCreated, params)

	if err := e.dispatcher.FanOutNewJob(ctx, j, language, id.TranslatorID{}); err != nil {
		return err
	}

	eligible, err := e.matcher.Eligible(ctx, j)
	if err != nil {
		return fmt.Errorf("booking/engine: announce: %w", err)
	}
	e.dispatcher.SmsFanOut(ctx, j, cust.Town, eligible)
	return nil
}
