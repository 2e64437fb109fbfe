package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/booking"
	"github.com/xraph/booking/audit"
	"github.com/xraph/booking/id"
	"github.com/xraph/booking/job"
	"github.com/xraph/booking/lifecycle"
	"github.com/xraph/booking/notify"
)

// UpdateRequest is an administrative edit of one booking. Zero-valued
// fields are left untouched.
type UpdateRequest struct {
	// Status requests a lifecycle transition. Unlisted or guarded-out
	// transitions are silent no-ops, matching the back-office form's
	// retry-friendly behaviour.
	Status       job.Status
	AdminComment string
	// SessionTime is the supplied session length for an administrative
	// started → completed transition.
	SessionTime time.Duration

	// TranslatorID or TranslatorEmail reassigns the booking. The email
	// form exists for back-office screens that paste an address.
	TranslatorID    id.TranslatorID
	TranslatorEmail string

	Due          *time.Time
	FromLanguage *job.LanguageID

	Reference     *string
	AdminComments *string
}

// Update applies an administrative edit under the booking's lease:
// optional reassignment, due/language changes, free-field edits, and a
// lifecycle transition, in that order. Notifications go out only when the
// saved due time still lies ahead; edits that leave a booking in the past
// are bookkeeping and stay silent.
func (e *Engine) Update(ctx context.Context, jobID id.JobID, req UpdateRequest) (*job.Job, error) {
	lease, err := e.locker.Acquire(ctx, lockKey(jobID), e.cfg.LockTTL)
	if err != nil {
		return nil, err
	}
	defer e.releaseLease(ctx, lease, jobID)

	j, err := e.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("booking/engine: update: %w", err)
	}

	now := e.clock()

	oldTranslator, newTranslator, translatorChanged, err := e.reassign(ctx, j, req, now)
	if err != nil {
		return nil, err
	}

	var (
		oldDue      time.Time
		dueChanged  bool
		oldLang     job.LanguageID
		langChanged bool
	)
	if req.Due != nil && !req.Due.Equal(j.Due) {
		oldDue = j.Due
		j.Due = *req.Due
		if j.Status == job.StatusPending {
			j.WillExpireAt = job.WillExpireAt(j.Due, j.CreatedAt)
		}
		dueChanged = true
		e.recorder.Record(ctx, jobID, audit.ActionDueChanged, audit.ActorAdmin,
			oldDue.Format(time.RFC3339), j.Due.Format(time.RFC3339))
	}
	if req.FromLanguage != nil && *req.FromLanguage != j.FromLanguage {
		oldLang = j.FromLanguage
		j.FromLanguage = *req.FromLanguage
		langChanged = true
		e.recorder.Record(ctx, jobID, audit.ActionLanguageChanged, audit.ActorAdmin,
			fmt.Sprintf("%d", oldLang), fmt.Sprintf("%d", j.FromLanguage))
	}
	if req.Reference != nil {
		j.Reference = *req.Reference
	}
	if req.AdminComments != nil {
		j.AdminComments = *req.AdminComments
	}

	outcome := lifecycle.Outcome{}
	if req.Status != "" && req.Status != j.Status {
		outcome = lifecycle.Apply(j, lifecycle.Request{
			Target:            req.Status,
			AdminComment:      req.AdminComment,
			SessionTime:       req.SessionTime,
			TranslatorChanged: translatorChanged,
			Now:               now,
		})
		if outcome.Changed {
			e.recorder.Record(ctx, jobID, audit.ActionStatusChanged, audit.ActorAdmin,
				string(outcome.OldStatus), string(outcome.NewStatus))
		} else {
			e.logger.Info("status change rejected",
				slog.String("job_id", jobID.String()),
				slog.String("from", string(outcome.OldStatus)),
				slog.String("to", string(outcome.NewStatus)),
			)
		}
	}

	j.UpdatedAt = now
	if err := e.store.UpdateJob(ctx, j); err != nil {
		return nil, fmt.Errorf("booking/engine: update: %w", err)
	}

	// Suppression keys off the due time as saved: an edit that moves a
	// past booking back into the future notifies as usual.
	pastDue := j.Due.Before(now)

	// Resolve recipients before a completing transition stamps the
	// assignment inactive.
	var parties notify.Parties
	if !pastDue {
		parties = e.resolveParties(ctx, j, oldTranslator, newTranslator)
	}

	if outcome.Changed {
		if err := e.settleAssignment(ctx, jobID, outcome.NewStatus, now); err != nil {
			return nil, err
		}
		switch outcome.NewStatus {
		case job.StatusCompleted:
			e.extensions.EmitSessionEnded(ctx, j, j.SessionTime)
		case job.StatusPending:
			e.extensions.EmitJobReopened(ctx, j)
		}
	}

	if pastDue {
		return j, nil
	}

	var intents []notify.Intent

	if translatorChanged {
		params := e.baseParams(ctx, j)
		intents = append(intents,
			notify.Intent{Channel: notify.ChannelEmail, Audience: notify.AudienceCustomer, Key: notify.KeyChangedTranslatorCust, Params: params},
			notify.Intent{Channel: notify.ChannelEmail, Audience: notify.AudienceOldTranslator, Key: notify.KeyChangedTranslatorOld, Params: params},
			notify.Intent{Channel: notify.ChannelEmail, Audience: notify.AudienceNewTranslator, Key: notify.KeyChangedTranslatorNew, Params: params},
		)
	}
	if dueChanged {
		params := e.baseParams(ctx, j)
		params["old_time"] = oldDue.Format("2006-01-02 15:04")
		intents = append(intents,
			notify.Intent{Channel: notify.ChannelEmail, Audience: notify.AudienceCustomer, Key: notify.KeyChangedDate, Params: params},
			notify.Intent{Channel: notify.ChannelEmail, Audience: notify.AudienceActiveTranslator, Key: notify.KeyChangedDate, Params: params},
		)
	}
	if langChanged {
		params := e.baseParams(ctx, j)
		params["old_lang"] = e.languageName(ctx, oldLang)
		intents = append(intents,
			notify.Intent{Channel: notify.ChannelEmail, Audience: notify.AudienceCustomer, Key: notify.KeyChangedLang, Params: params},
			notify.Intent{Channel: notify.ChannelEmail, Audience: notify.AudienceActiveTranslator, Key: notify.KeyChangedLang, Params: params},
		)
	}
	intents = append(intents, outcome.Intents...)
	e.dispatchIntents(ctx, j, parties, intents)

	if outcome.Rematch {
		language := e.languageName(ctx, j.FromLanguage)
		if err := e.dispatcher.FanOutNewJob(ctx, j, language, id.TranslatorID{}); err != nil {
			e.logger.Error("rematch fan-out failed",
				slog.String("job_id", jobID.String()),
				slog.String("error", err.Error()),
			)
		}
	}
	return j, nil
}

// settleAssignment reconciles the booking's active assignment with a
// lifecycle transition applied through Update. A completion stamps the
// assignment completed with its translator as the attributed party; any
// other departure from assigned/started cancels it, matching the
// dedicated cancel and reopen paths.
func (e *Engine) settleAssignment(ctx context.Context, jobID id.JobID, target job.Status, now time.Time) error {
	switch target {
	case job.StatusAssigned, job.StatusStarted:
		return nil
	case job.StatusCompleted:
		active, err := e.store.ActiveAssignment(ctx, jobID)
		if errors.Is(err, booking.ErrAssignmentNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("booking/engine: update: %w", err)
		}
		active.Complete(now, id.AnyID(active.TranslatorID))
		active.UpdatedAt = now
		if err := e.store.UpdateAssignment(ctx, active); err != nil {
			return fmt.Errorf("booking/engine: update: %w", err)
		}
		return nil
	default:
		if err := e.store.CancelActiveAssignments(ctx, jobID, now); err != nil {
			return fmt.Errorf("booking/engine: update: %w", err)
		}
		return nil
	}
}

// reassign swaps the booking's translator when the request names one. The
// current active assignment (if any) is cancelled and a fresh one
// created; the booking keeps its status, the lifecycle transition in
// Update decides what the reassignment means.
func (e *Engine) reassign(ctx context.Context, j *job.Job, req UpdateRequest, now time.Time) (oldID, newID id.TranslatorID, changed bool, err error) {
	if req.TranslatorID.IsNil() && req.TranslatorEmail == "" {
		return id.TranslatorID{}, id.TranslatorID{}, false, nil
	}

	target := req.TranslatorID
	if target.IsNil() {
		p, lookupErr := e.dir.ProfileByEmail(ctx, req.TranslatorEmail)
		if lookupErr != nil {
			return id.TranslatorID{}, id.TranslatorID{}, false,
				fmt.Errorf("booking/engine: update: resolve translator %q: %w", req.TranslatorEmail, lookupErr)
		}
		target = p.ID
	} else if _, lookupErr := e.dir.Profile(ctx, target); lookupErr != nil {
		return id.TranslatorID{}, id.TranslatorID{}, false,
			fmt.Errorf("booking/engine: update: %w", lookupErr)
	}

	current, aerr := e.store.ActiveAssignment(ctx, j.ID)
	switch {
	case aerr == nil:
		if current.TranslatorID == target {
			// Same translator: nothing to swap.
			return id.TranslatorID{}, id.TranslatorID{}, false, nil
		}
		oldID = current.TranslatorID
		if cancelErr := e.store.CancelActiveAssignments(ctx, j.ID, now); cancelErr != nil {
			return id.TranslatorID{}, id.TranslatorID{}, false,
				fmt.Errorf("booking/engine: update: %w", cancelErr)
		}
	case errors.Is(aerr, booking.ErrAssignmentNotFound):
		// No active assignment: plain assignment rather than a swap.
	default:
		return id.TranslatorID{}, id.TranslatorID{}, false,
			fmt.Errorf("booking/engine: update: %w", aerr)
	}

	a := &job.Assignment{
		ID:           id.NewAssignmentID(),
		JobID:        j.ID,
		TranslatorID: target,
	}
	a.Touch(now)
	if err := e.store.CreateAssignment(ctx, a); err != nil {
		return id.TranslatorID{}, id.TranslatorID{}, false,
			fmt.Errorf("booking/engine: update: %w", err)
	}

	e.recorder.Record(ctx, j.ID, audit.ActionTranslatorChanged, audit.ActorAdmin,
		oldID.String(), target.String())
	return oldID, target, true, nil
}
