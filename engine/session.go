package engine

import (
	"context"
	"fmt"

	"github.com/xraph/booking/audit"
	"github.com/xraph/booking/id"
	"github.com/xraph/booking/job"
	"github.com/xraph/booking/notify"
)

// StartSession marks an assigned booking's session underway.
func (e *Engine) StartSession(ctx context.Context, jobID id.JobID) (*job.Job, error) {
	j, err := e.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("booking/engine: start session: %w", err)
	}
	if j.Status != job.StatusAssigned {
		return nil, fmt.Errorf("booking/engine: start session: booking %s is %s, not assigned", jobID, j.Status)
	}

	now := e.clock()
	j.Status = job.StatusStarted
	j.UpdatedAt = now
	if err := e.store.UpdateJob(ctx, j); err != nil {
		return nil, fmt.Errorf("booking/engine: start session: %w", err)
	}

	e.recorder.Record(ctx, jobID, audit.ActionStatusChanged, audit.ActorTranslator,
		string(job.StatusAssigned), string(job.StatusStarted))
	return j, nil
}

// End completes a started session. The recorded session length is the
// span from the due time to now. The assignment is stamped completed,
// attributed to the counterpart of whoever ended it, and both parties get
// a session summary email: invoice-style for the customer, payout-style
// for the translator.
func (e *Engine) End(ctx context.Context, jobID id.JobID, endedBy id.AnyID) (*job.Job, error) {
	j, err := e.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("booking/engine: end: %w", err)
	}
	if j.Status != job.StatusStarted {
		return nil, fmt.Errorf("booking/engine: end: booking %s is %s, not started", jobID, j.Status)
	}
	active, err := e.store.ActiveAssignment(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("booking/engine: end: %w", err)
	}

	// Resolve before the assignment loses its active flag.
	parties := e.resolveParties(ctx, j, id.TranslatorID{}, id.TranslatorID{})

	now := e.clock()
	sessionTime := now.Sub(j.Due)
	if sessionTime < 0 {
		sessionTime = 0
	}

	j.Status = job.StatusCompleted
	end := now
	j.EndAt = &end
	j.SessionTime = sessionTime
	j.UpdatedAt = now
	if err := e.store.UpdateJob(ctx, j); err != nil {
		return nil, fmt.Errorf("booking/engine: end: %w", err)
	}

	counterpart := id.AnyID(active.TranslatorID)
	if endedBy == active.TranslatorID {
		counterpart = j.CustomerID
	}
	active.Complete(now, counterpart)
	active.UpdatedAt = now
	if err := e.store.UpdateAssignment(ctx, active); err != nil {
		return nil, fmt.Errorf("booking/engine: end: %w", err)
	}

	actor := audit.ActorCustomer
	if endedBy == active.TranslatorID {
		actor = audit.ActorTranslator
	}
	e.recorder.Record(ctx, jobID, audit.ActionSessionEnded, actor,
		string(job.StatusStarted), string(job.StatusCompleted))
	e.extensions.EmitSessionEnded(ctx, j, sessionTime)

	rendered := notify.FormatDuration(sessionTime)
	custParams := e.baseParams(ctx, j)
	custParams["session_time"] = rendered
	custParams["for_text"] = "invoice"
	trParams := e.baseParams(ctx, j)
	trParams["session_time"] = rendered
	trParams["for_text"] = "payout"

	e.dispatchIntents(ctx, j, parties, []notify.Intent{
		{Channel: notify.ChannelEmail, Audience: notify.AudienceCustomer, Key: notify.KeySessionEnded, Params: custParams},
		{Channel: notify.ChannelEmail, Audience: notify.AudienceActiveTranslator, Key: notify.KeySessionEnded, Params: trParams},
	})
	return j, nil
}

// CustomerNoShow closes a booking whose customer never turned up. The
// translator reports it; the assignment completes with the translator as
// the attributed party and no session summary goes out.
func (e *Engine) CustomerNoShow(ctx context.Context, jobID id.JobID) (*job.Job, error) {
	j, err := e.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("booking/engine: no-show: %w", err)
	}
	if j.Status != job.StatusAssigned && j.Status != job.StatusStarted {
		return nil, fmt.Errorf("booking/engine: no-show: booking %s is %s", jobID, j.Status)
	}
	active, err := e.store.ActiveAssignment(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("booking/engine: no-show: %w", err)
	}

	now := e.clock()
	oldStatus := j.Status
	j.Status = job.StatusNotCarriedOutCustomer
	j.UpdatedAt = now
	if err := e.store.UpdateJob(ctx, j); err != nil {
		return nil, fmt.Errorf("booking/engine: no-show: %w", err)
	}

	active.Complete(now, active.TranslatorID)
	active.UpdatedAt = now
	if err := e.store.UpdateAssignment(ctx, active); err != nil {
		return nil, fmt.Errorf("booking/engine: no-show: %w", err)
	}

	e.recorder.Record(ctx, jobID, audit.ActionStatusChanged, audit.ActorTranslator,
		string(oldStatus), string(job.StatusNotCarriedOutCustomer))
	return j, nil
}
