package lifecycle

import (
	"testing"
	"time"

	"github.com/xraph/booking/id"
	"github.com/xraph/booking/job"
	"github.com/xraph/booking/notify"
)

func testJob(status job.Status) *job.Job {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	j := &job.Job{
		ID:           id.NewJobID(),
		CustomerID:   id.NewCustomerID(),
		Status:       status,
		FromLanguage: 7,
		Due:          now.Add(48 * time.Hour),
		Duration:     time.Hour,
	}
	j.CreatedAt = now
	j.WillExpireAt = job.WillExpireAt(j.Due, now)
	return j
}

func TestApplySameStatusIsNoop(t *testing.T) {
	j := testJob(job.StatusPending)
	out := Apply(j, Request{Target: job.StatusPending, Now: time.Now()})
	if out.Changed {
		t.Fatal("same-status request must not change the job")
	}
	if j.Status != job.StatusPending {
		t.Fatalf("status mutated to %q", j.Status)
	}
}

func TestApplyUnlistedPairIsNoop(t *testing.T) {
	j := testJob(job.StatusCompleted)
	out := Apply(j, Request{Target: job.StatusPending, Now: time.Now()})
	if out.Changed {
		t.Fatal("completed -> pending must be rejected")
	}
	if j.Status != job.StatusCompleted {
		t.Fatalf("status mutated to %q", j.Status)
	}
}

func TestApplyGuardFailureLeavesJobUntouched(t *testing.T) {
	j := testJob(job.StatusPending)
	out := Apply(j, Request{Target: job.StatusTimedOut, Now: time.Now()})
	if out.Changed {
		t.Fatal("forced timeout without admin comment must be rejected")
	}
	if j.Status != job.StatusPending || j.AdminComments != "" {
		t.Fatal("guard failure must leave the snapshot untouched")
	}
}

func TestForcedTimeoutRequiresComment(t *testing.T) {
	j := testJob(job.StatusPending)
	out := Apply(j, Request{
		Target:       job.StatusTimedOut,
		AdminComment: "no translator available",
		Now:          time.Now(),
	})
	if !out.Changed {
		t.Fatal("expected transition to apply")
	}
	if j.Status != job.StatusTimedOut {
		t.Fatalf("status = %q, want timedout", j.Status)
	}
	if j.AdminComments != "no translator available" {
		t.Fatalf("admin comments = %q", j.AdminComments)
	}
	if len(out.Intents) != 1 || out.Intents[0].Audience != notify.AudienceCustomer {
		t.Fatalf("expected one customer intent, got %+v", out.Intents)
	}
}

func TestPendingToAssignedRequiresTranslatorChange(t *testing.T) {
	j := testJob(job.StatusPending)
	if out := Apply(j, Request{Target: job.StatusAssigned, Now: time.Now()}); out.Changed {
		t.Fatal("assignment without a translator change must be rejected")
	}

	out := Apply(j, Request{
		Target:            job.StatusAssigned,
		TranslatorChanged: true,
		Now:               time.Now(),
	})
	if !out.Changed {
		t.Fatal("expected transition to apply")
	}
	var emails, pushes int
	for _, in := range out.Intents {
		switch in.Channel {
		case notify.ChannelEmail:
			emails++
		case notify.ChannelPush:
			pushes++
		}
	}
	if emails != 2 || pushes != 2 {
		t.Fatalf("intents = %d emails, %d pushes; want 2 and 2", emails, pushes)
	}
}

func TestReopenRestartsPendingClock(t *testing.T) {
	j := testJob(job.StatusTimedOut)
	oldExpiry := j.WillExpireAt
	now := time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)

	out := Apply(j, Request{Target: job.StatusPending, Now: now})
	if !out.Changed {
		t.Fatal("expected reopen to apply")
	}
	if !out.Rematch {
		t.Fatal("reopen must request a rematch")
	}
	if !j.CreatedAt.Equal(now) {
		t.Fatalf("created at = %v, want %v", j.CreatedAt, now)
	}
	if j.WillExpireAt.Equal(oldExpiry) {
		t.Fatal("expiry must be recomputed on reopen")
	}
}

func TestAdminCompleteRequiresCommentAndSessionTime(t *testing.T) {
	now := time.Now()

	for _, r := range []Request{
		{Target: job.StatusCompleted, SessionTime: time.Hour, Now: now},
		{Target: job.StatusCompleted, AdminComment: "done", Now: now},
	} {
		j := testJob(job.StatusStarted)
		if out := Apply(j, r); out.Changed {
			t.Fatalf("request %+v must be rejected", r)
		}
	}

	j := testJob(job.StatusStarted)
	out := Apply(j, Request{
		Target:       job.StatusCompleted,
		AdminComment: "session ran over",
		SessionTime:  90 * time.Minute,
		Now:          now,
	})
	if !out.Changed {
		t.Fatal("expected transition to apply")
	}
	if j.SessionTime != 90*time.Minute {
		t.Fatalf("session time = %v", j.SessionTime)
	}
	if j.EndAt == nil || !j.EndAt.Equal(now) {
		t.Fatalf("end at = %v, want %v", j.EndAt, now)
	}
	if len(out.Intents) != 2 {
		t.Fatalf("expected customer and translator summaries, got %d intents", len(out.Intents))
	}
	for _, in := range out.Intents {
		if in.Params["session_time"] != "01h 30min" {
			t.Fatalf("session_time param = %q", in.Params["session_time"])
		}
	}
	if out.Intents[0].Params["for_text"] != "invoice" || out.Intents[1].Params["for_text"] != "payout" {
		t.Fatalf("for_text params = %q, %q",
			out.Intents[0].Params["for_text"], out.Intents[1].Params["for_text"])
	}
}

func TestWithdrawNotifiesBothParties(t *testing.T) {
	for _, target := range []job.Status{job.StatusWithdrawBefore24, job.StatusWithdrawAfter24} {
		j := testJob(job.StatusAssigned)
		now := time.Now()
		out := Apply(j, Request{Target: target, Now: now})
		if !out.Changed {
			t.Fatalf("assigned -> %s must apply", target)
		}
		if j.WithdrawAt == nil || !j.WithdrawAt.Equal(now) {
			t.Fatalf("withdraw at = %v", j.WithdrawAt)
		}
		if len(out.Intents) != 2 {
			t.Fatalf("expected two intents, got %d", len(out.Intents))
		}
		if out.Intents[0].Audience != notify.AudienceCustomer ||
			out.Intents[1].Audience != notify.AudienceActiveTranslator {
			t.Fatalf("unexpected audiences: %+v", out.Intents)
		}
	}
}

func TestSilentCorrectionsEmitNoIntents(t *testing.T) {
	cases := []struct {
		from job.Status
		to   job.Status
	}{
		{job.StatusCompleted, job.StatusTimedOut},
		{job.StatusWithdrawAfter24, job.StatusTimedOut},
		{job.StatusAssigned, job.StatusTimedOut},
	}
	for _, c := range cases {
		j := testJob(c.from)
		out := Apply(j, Request{Target: c.to, AdminComment: "correction", Now: time.Now()})
		if !out.Changed {
			t.Fatalf("%s -> %s must apply with comment", c.from, c.to)
		}
		if len(out.Intents) != 0 {
			t.Fatalf("%s -> %s must be silent, got %+v", c.from, c.to, out.Intents)
		}
	}
}

func TestAllowed(t *testing.T) {
	if !Allowed(job.StatusTimedOut, job.StatusPending) {
		t.Fatal("timedout -> pending must be allowed")
	}
	if Allowed(job.StatusPending, job.StatusCompleted) {
		t.Fatal("pending -> completed must not be allowed")
	}
	if Allowed(job.StatusNotCarriedOutCustomer, job.StatusPending) {
		t.Fatal("no transition may leave not_carried_out_customer")
	}
}
