package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/booking"
	"github.com/xraph/booking/audit"
	"github.com/xraph/booking/id"
	"github.com/xraph/booking/job"
	"github.com/xraph/booking/notify"
)

// CancelByCustomer withdraws a booking on the customer's behalf. With 24
// hours or more to the due time the booking ends as withdrawbefore24,
// inside the window as withdrawafter24. Any active assignment is cancelled
// and its translator notified.
func (e *Engine) CancelByCustomer(ctx context.Context, jobID id.JobID) (*job.Job, error) {
	lease, err := e.locker.Acquire(ctx, lockKey(jobID), e.cfg.LockTTL)
	if err != nil {
		return nil, err
	}
	defer e.releaseLease(ctx, lease, jobID)

	j, err := e.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("booking/engine: cancel: %w", err)
	}
	if j.Status.Terminal() {
		return nil, fmt.Errorf("booking/engine: cancel: booking %s is already %s", jobID, j.Status)
	}

	now := e.clock()
	oldStatus := j.Status
	hadTranslator := oldStatus == job.StatusAssigned || oldStatus == job.StatusStarted

	target := job.StatusWithdrawAfter24
	if j.Due.Sub(now) >= e.cfg.CancellationWindow {
		target = job.StatusWithdrawBefore24
	}

	// Resolve the active translator before the assignment is stamped
	// cancelled, so the notification still reaches them.
	parties := e.resolveParties(ctx, j, id.TranslatorID{}, id.TranslatorID{})

	j.Status = target
	w := now
	j.WithdrawAt = &w
	j.UpdatedAt = now
	if err := e.store.UpdateJob(ctx, j); err != nil {
		return nil, fmt.Errorf("booking/engine: cancel: %w", err)
	}
	if err := e.store.CancelActiveAssignments(ctx, jobID, now); err != nil {
		e.logger.Error("cancel assignments failed",
			slog.String("job_id", jobID.String()),
			slog.String("error", err.Error()),
		)
	}

	e.recorder.Record(ctx, jobID, audit.ActionCancelled, audit.ActorCustomer,
		string(oldStatus), string(target))
	e.extensions.EmitJobCancelled(ctx, j, false)

	if hadTranslator {
		params := e.baseParams(ctx, j)
		e.dispatchIntents(ctx, j, parties, []notify.Intent{
			{Channel: notify.ChannelEmail, Audience: notify.AudienceActiveTranslator, Key: notify.KeyJobCancelledTranslator, Params: params},
			{Channel: notify.ChannelPush, Audience: notify.AudienceActiveTranslator, Key: notify.PushJobCancelled, Params: params},
		})
	}
	return j, nil
}

// CancelByTranslator releases an assigned booking back to the pool. With
// 24 hours or less to the due time the translator may no longer cancel
// through the system and gets booking.ErrWithinCancellationWindow. With
// more lead than that, the booking
// returns to pending with a fresh expiry clock and the remaining
// translator pool is re-notified, excluding the canceller.
func (e *Engine) CancelByTranslator(ctx context.Context, jobID id.JobID, translatorID id.TranslatorID) (*job.Job, error) {
	lease, err := e.locker.Acquire(ctx, lockKey(jobID), e.cfg.LockTTL)
	if err != nil {
		return nil, err
	}
	defer e.releaseLease(ctx, lease, jobID)

	j, err := e.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("booking/engine: cancel: %w", err)
	}
	active, err := e.store.ActiveAssignment(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("booking/engine: cancel: %w", err)
	}
	if active.TranslatorID != translatorID {
		return nil, booking.ErrAssignmentNotFound
	}

	// Exactly 24h of lead is already inside the window: cancellation
	// needs strictly more.
	now := e.clock()
	if j.Due.Sub(now) <= e.cfg.CancellationWindow {
		return nil, booking.ErrWithinCancellationWindow
	}

	oldStatus := j.Status
	j.Status = job.StatusPending
	j.CreatedAt = now
	j.WillExpireAt = job.WillExpireAt(j.Due, now)
	j.UpdatedAt = now
	if err := e.store.UpdateJob(ctx, j); err != nil {
		return nil, fmt.Errorf("booking/engine: cancel: %w", err)
	}
	if err := e.store.CancelActiveAssignments(ctx, jobID, now); err != nil {
		return nil, fmt.Errorf("booking/engine: cancel: %w", err)
	}

	e.recorder.Record(ctx, jobID, audit.ActionCancelled, audit.ActorTranslator,
		string(oldStatus), string(job.StatusPending))
	e.extensions.EmitJobCancelled(ctx, j, true)

	parties := e.resolveParties(ctx, j, id.TranslatorID{}, id.TranslatorID{})
	params := e.baseParams(ctx, j)
	e.dispatchIntents(ctx, j, parties, []notify.Intent{
		{Channel: notify.ChannelEmail, Audience: notify.AudienceCustomer, Key: notify.KeyStatusChangedCustomer, Params: params},
	})

	language := e.languageName(ctx, j.FromLanguage)
	if err := e.dispatcher.FanOutNewJob(ctx, j, language, translatorID); err != nil {
		e.logger.Error("re-announce fan-out failed",
			slog.String("job_id", jobID.String()),
			slog.String("error", err.Error()),
		)
	}
	return j, nil
}
