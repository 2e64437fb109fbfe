// Package lifecycle validates and applies booking status transitions.
//
// The machine is an explicit table keyed by (current, requested) status.
// Each entry pairs a guard with an effect; effects mutate the booking
// snapshot and return notification intents, they perform no I/O. A request
// whose (current, requested) pair is not in the table — or whose guard
// fails — leaves the booking unchanged and is reported as "no status
// change", not as an error: such calls are safely retryable.
package lifecycle

import (
	"time"

	"github.com/xraph/booking/job"
	"github.com/xraph/booking/notify"
)

// Request is one transition request against a booking snapshot.
type Request struct {
	Target job.Status

	// AdminComment is required by several guards (forced timeouts,
	// administrative corrections).
	AdminComment string

	// SessionTime is the supplied session length for an administrative
	// started → completed transition.
	SessionTime time.Duration

	// TranslatorChanged records that a reassignment accompanied this
	// update; pending/timedout → assigned require it.
	TranslatorChanged bool

	// Now is the caller's clock reading.
	Now time.Time
}

// Outcome reports what a transition did.
type Outcome struct {
	// Changed is false when the request was a no-op: same status,
	// unlisted pair, or failed guard. Nothing may be persisted or sent.
	Changed bool

	// Intents are the notifications to dispatch after the mutation is
	// committed.
	Intents []notify.Intent

	// Rematch signals that the booking returned to pending and the
	// translator pool must be re-notified.
	Rematch bool

	// OldStatus and NewStatus feed the audit change log.
	OldStatus job.Status
	NewStatus job.Status
}

type guardFunc func(j *job.Job, r Request) bool

type effectFunc func(j *job.Job, r Request) ([]notify.Intent, bool)

type transition struct {
	guard  guardFunc
	effect effectFunc
}

type pair struct {
	from job.Status
	to   job.Status
}

// commentRequired rejects transitions missing an admin comment.
func commentRequired(_ *job.Job, r Request) bool { return r.AdminComment != "" }

// always admits the transition unconditionally.
func always(_ *job.Job, _ Request) bool { return true }

// table is the complete transition relation. Pairs absent from the table
// are silent no-ops.
var table = map[pair]transition{
	{job.StatusPending, job.StatusAssigned}: {
		guard:  func(_ *job.Job, r Request) bool { return r.TranslatorChanged },
		effect: effectAssigned,
	},
	{job.StatusPending, job.StatusTimedOut}: {
		guard:  commentRequired,
		effect: effectForcedTimeout,
	},
	{job.StatusTimedOut, job.StatusPending}: {
		guard:  always,
		effect: effectReopen,
	},
	{job.StatusTimedOut, job.StatusAssigned}: {
		guard:  func(_ *job.Job, r Request) bool { return r.TranslatorChanged },
		effect: effectLateAssign,
	},
	{job.StatusStarted, job.StatusCompleted}: {
		guard: func(_ *job.Job, r Request) bool {
			return r.AdminComment != "" && r.SessionTime > 0
		},
		effect: effectAdminComplete,
	},
	{job.StatusCompleted, job.StatusTimedOut}: {
		guard:  commentRequired,
		effect: effectSilentCorrection,
	},
	{job.StatusWithdrawAfter24, job.StatusTimedOut}: {
		guard:  commentRequired,
		effect: effectSilentCorrection,
	},
	{job.StatusAssigned, job.StatusWithdrawBefore24}: {
		guard:  always,
		effect: effectWithdraw,
	},
	{job.StatusAssigned, job.StatusWithdrawAfter24}: {
		guard:  always,
		effect: effectWithdraw,
	},
	{job.StatusAssigned, job.StatusTimedOut}: {
		guard:  commentRequired,
		effect: effectSilentCorrection,
	},
}

// Allowed reports whether the (from, to) pair exists in the table.
// Guards may still reject an allowed pair at apply time.
func Allowed(from, to job.Status) bool {
	_, ok := table[pair{from, to}]
	return ok
}

// Apply validates the request against the table and, when admitted,
// mutates the snapshot and returns the resulting intents. The caller
// persists the snapshot and dispatches the intents afterwards.
func Apply(j *job.Job, r Request) Outcome {
	out := Outcome{OldStatus: j.Status, NewStatus: r.Target}

	if r.Target == j.Status {
		return out
	}
	t, ok := table[pair{j.Status, r.Target}]
	if !ok {
		return out
	}
	if !t.guard(j, r) {
		return out
	}

	j.Status = r.Target
	intents, rematch := t.effect(j, r)
	out.Changed = true
	out.Intents = intents
	out.Rematch = rematch
	return out
}

// ──────────────────────────────────────────────────
// Effects
// ──────────────────────────────────────────────────

func baseParams(j *job.Job) map[string]string {
	return map[string]string{"job_id": j.ID.String()}
}

// effectAssigned confirms a pending booking that gained a translator:
// acceptance email to the customer, assignment email to the new
// translator, and session-start reminders to both.
func effectAssigned(j *job.Job, _ Request) ([]notify.Intent, bool) {
	return []notify.Intent{
		{Channel: notify.ChannelEmail, Audience: notify.AudienceCustomer, Key: notify.KeyJobAccepted, Params: baseParams(j)},
		{Channel: notify.ChannelEmail, Audience: notify.AudienceNewTranslator, Key: notify.KeyChangedTranslatorNew, Params: baseParams(j)},
		{Channel: notify.ChannelPush, Audience: notify.AudienceCustomer, Key: notify.PushSessionStartRemind, Params: baseParams(j)},
		{Channel: notify.ChannelPush, Audience: notify.AudienceNewTranslator, Key: notify.PushSessionStartRemind, Params: baseParams(j)},
	}, false
}

// effectForcedTimeout times out a pending booking by admin decision.
func effectForcedTimeout(j *job.Job, r Request) ([]notify.Intent, bool) {
	j.AdminComments = r.AdminComment
	return []notify.Intent{
		{Channel: notify.ChannelEmail, Audience: notify.AudienceCustomer, Key: notify.KeyStatusChangedCustomer, Params: baseParams(j)},
	}, false
}

// effectReopen returns a timed-out booking to the pool: the pending clock
// restarts, expiry is recomputed, and matching re-runs.
func effectReopen(j *job.Job, r Request) ([]notify.Intent, bool) {
	j.CreatedAt = r.Now
	j.WillExpireAt = job.WillExpireAt(j.Due, r.Now)
	return []notify.Intent{
		{Channel: notify.ChannelEmail, Audience: notify.AudienceCustomer, Key: notify.KeyJobReopened, Params: baseParams(j)},
	}, true
}

// effectLateAssign acknowledges a translator assigned concurrently with
// the timeout: confirmation email only.
func effectLateAssign(j *job.Job, _ Request) ([]notify.Intent, bool) {
	return []notify.Intent{
		{Channel: notify.ChannelEmail, Audience: notify.AudienceCustomer, Key: notify.KeyJobAccepted, Params: baseParams(j)},
	}, false
}

// effectAdminComplete closes a started session with a supplied length,
// sending the invoice-style summary to the customer and the payout-style
// summary to the translator.
func effectAdminComplete(j *job.Job, r Request) ([]notify.Intent, bool) {
	j.AdminComments = r.AdminComment
	end := r.Now
	j.EndAt = &end
	j.SessionTime = r.SessionTime

	sessionTime := notify.FormatDuration(r.SessionTime)
	custParams := baseParams(j)
	custParams["session_time"] = sessionTime
	custParams["for_text"] = "invoice"
	trParams := baseParams(j)
	trParams["session_time"] = sessionTime
	trParams["for_text"] = "payout"

	return []notify.Intent{
		{Channel: notify.ChannelEmail, Audience: notify.AudienceCustomer, Key: notify.KeySessionEnded, Params: custParams},
		{Channel: notify.ChannelEmail, Audience: notify.AudienceActiveTranslator, Key: notify.KeySessionEnded, Params: trParams},
	}, false
}

// effectSilentCorrection is a purely administrative status fix.
func effectSilentCorrection(j *job.Job, r Request) ([]notify.Intent, bool) {
	j.AdminComments = r.AdminComment
	return nil, false
}

// effectWithdraw cancels an assigned booking on the customer's behalf,
// with distinct templates for customer and active translator.
func effectWithdraw(j *job.Job, r Request) ([]notify.Intent, bool) {
	if r.AdminComment != "" {
		j.AdminComments = r.AdminComment
	}
	w := r.Now
	j.WithdrawAt = &w
	return []notify.Intent{
		{Channel: notify.ChannelEmail, Audience: notify.AudienceCustomer, Key: notify.KeyStatusChangedCustomer, Params: baseParams(j)},
		{Channel: notify.ChannelEmail, Audience: notify.AudienceActiveTranslator, Key: notify.KeyJobCancelledTranslator, Params: baseParams(j)},
	}, false
}
