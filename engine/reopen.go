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

// Reopen puts a booking back on the market. A booking that has not timed
// out is reset in place: its active assignment is cancelled and the
// pending clock restarts. A timed-out booking is duplicated instead — the
// original keeps its timedout status for the books and a fresh pending
// copy goes out to the translator pool.
func (e *Engine) Reopen(ctx context.Context, jobID id.JobID) (*job.Job, error) {
	lease, err := e.locker.Acquire(ctx, lockKey(jobID), e.cfg.LockTTL)
	if err != nil {
		return nil, err
	}
	defer e.releaseLease(ctx, lease, jobID)

	j, err := e.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("booking/engine: reopen: %w", err)
	}

	now := e.clock()
	if j.Due.Before(now) {
		return nil, booking.ErrPastDue
	}

	oldStatus := j.Status

	var reopened *job.Job
	if j.Status == job.StatusTimedOut {
		dup := *j
		dup.ID = id.NewJobID()
		dup.Status = job.StatusPending
		dup.WillExpireAt = job.WillExpireAt(dup.Due, now)
		dup.WithdrawAt = nil
		dup.EndAt = nil
		dup.SessionTime = 0
		dup.AdminComments = fmt.Sprintf("This booking is a reopening of booking #%s", j.ID)
		dup.CreatedAt = now
		dup.UpdatedAt = now
		if err := e.store.CreateJob(ctx, &dup); err != nil {
			return nil, fmt.Errorf("booking/engine: reopen: %w", err)
		}
		reopened = &dup
	} else {
		if err := e.store.CancelActiveAssignments(ctx, jobID, now); err != nil {
			return nil, fmt.Errorf("booking/engine: reopen: %w", err)
		}
		j.Status = job.StatusPending
		j.CreatedAt = now
		j.WillExpireAt = job.WillExpireAt(j.Due, now)
		j.WithdrawAt = nil
		j.UpdatedAt = now
		if err := e.store.UpdateJob(ctx, j); err != nil {
			return nil, fmt.Errorf("booking/engine: reopen: %w", err)
		}
		reopened = j
	}

	e.recorder.Record(ctx, jobID, audit.ActionReopened, audit.ActorAdmin,
		string(oldStatus), reopened.ID.String())
	e.extensions.EmitJobReopened(ctx, reopened)

	parties := e.resolveParties(ctx, reopened, id.TranslatorID{}, id.TranslatorID{})
	e.dispatchIntents(ctx, reopened, parties, []notify.Intent{
		{Channel: notify.ChannelEmail, Audience: notify.AudienceCustomer, Key: notify.KeyJobReopened, Params: e.baseParams(ctx, reopened)},
	})

	language := e.languageName(ctx, reopened.FromLanguage)
	if err := e.dispatcher.FanOutNewJob(ctx, reopened, language, id.TranslatorID{}); err != nil {
		e.logger.Error("reopen fan-out failed",
			slog.String("job_id", reopened.ID.String()),
			slog.String("error", err.Error()),
		)
	}
	return reopened, nil
}

// Expire times out one pending booking. It is the sweeper's callback and
// is also callable directly for admin-forced expiry.
func (e *Engine) Expire(ctx context.Context, j *job.Job) error {
	if j.Status != job.StatusPending {
		return nil
	}

	now := e.clock()
	j.Status = job.StatusTimedOut
	j.UpdatedAt = now
	if err := e.store.UpdateJob(ctx, j); err != nil {
		return fmt.Errorf("booking/engine: expire: %w", err)
	}

	e.recorder.Record(ctx, j.ID, audit.ActionExpired, audit.ActorSystem,
		string(job.StatusPending), string(job.StatusTimedOut))
	e.extensions.EmitJobExpired(ctx, j)

	parties := e.resolveParties(ctx, j, id.TranslatorID{}, id.TranslatorID{})
	e.dispatchIntents(ctx, j, parties, []notify.Intent{
		{Channel: notify.ChannelPush, Audience: notify.AudienceCustomer, Key: notify.PushJobExpired, Params: e.baseParams(ctx, j)},
	})
	return nil
}
