package engine

import (
	"context"
	"fmt"

	"github.com/xraph/booking"
	"github.com/xraph/booking/audit"
	"github.com/xraph/booking/id"
	"github.com/xraph/booking/job"
	"github.com/xraph/booking/notify"
)

// Accept claims a pending booking for a translator. The store's claim is
// atomic: of any set of concurrent accepts exactly one wins, the rest get
// booking.ErrAlreadyClaimed. A translator whose active assignments overlap
// the booking's session window gets booking.ErrDoubleBooked before the
// claim is even attempted.
func (e *Engine) Accept(ctx context.Context, jobID id.JobID, translatorID id.TranslatorID) (*job.Job, error) {
	if _, err := e.dir.Profile(ctx, translatorID); err != nil {
		return nil, fmt.Errorf("booking/engine: accept: %w", err)
	}
	j, err := e.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("booking/engine: accept: %w", err)
	}

	busy, err := e.store.HasAssignmentAt(ctx, translatorID, j.Due, j.Due.Add(j.Duration))
	if err != nil {
		return nil, fmt.Errorf("booking/engine: accept: %w", err)
	}
	if busy {
		return nil, booking.ErrDoubleBooked
	}

	now := e.clock()
	a := &job.Assignment{
		ID:           id.NewAssignmentID(),
		JobID:        jobID,
		TranslatorID: translatorID,
	}
	a.Touch(now)

	if err := e.store.ClaimJob(ctx, jobID, a); err != nil {
		return nil, err
	}
	j.Status = job.StatusAssigned
	j.UpdatedAt = now

	e.recorder.Record(ctx, jobID, audit.ActionClaimed, audit.ActorTranslator,
		string(job.StatusPending), translatorID.String())
	e.extensions.EmitJobClaimed(ctx, j, translatorID)

	parties := e.resolveParties(ctx, j, id.TranslatorID{}, translatorID)
	params := e.baseParams(ctx, j)
	e.dispatchIntents(ctx, j, parties, []notify.Intent{
		{Channel: notify.ChannelEmail, Audience: notify.AudienceCustomer, Key: notify.KeyJobAccepted, Params: params},
		{Channel: notify.ChannelEmail, Audience: notify.AudienceNewTranslator, Key: notify.KeyJobAccepted, Params: params},
		{Channel: notify.ChannelPush, Audience: notify.AudienceCustomer, Key: notify.PushJobAccepted, Params: params},
	})
	return j, nil
}
