package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/booking"
	"github.com/xraph/booking/job"
	"github.com/xraph/booking/notify"
)

func TestCancelByCustomerOutsideWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	j := f.createJob(t) // due in 48h
	f.acceptJob(t, j, f.translator)
	f.mail.reset()
	f.push.reset()

	got, err := f.eng.CancelByCustomer(ctx, j.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != job.StatusWithdrawBefore24 {
		t.Errorf("status = %s, want withdrawbefore24", got.Status)
	}
	if got.WithdrawAt == nil || !got.WithdrawAt.Equal(f.clock()) {
		t.Errorf("WithdrawAt = %v, want %v", got.WithdrawAt, f.clock())
	}

	if _, err := f.store.ActiveAssignment(ctx, j.ID); !errors.Is(err, booking.ErrAssignmentNotFound) {
		t.Errorf("active assignment should be cancelled, got err = %v", err)
	}

	cancels := f.mail.byKey(notify.KeyJobCancelledTranslator)
	if len(cancels) != 1 || cancels[0].To != f.translator.Email {
		t.Fatalf("cancellation emails = %+v, want one to the translator", cancels)
	}
	if got := f.push.byType(notify.PushJobCancelled); len(got) != 1 {
		t.Errorf("cancellation pushes = %d, want 1", len(got))
	}
}

func TestCancelByCustomerInsideWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	j := f.createJob(t)
	f.acceptJob(t, j, f.translator)

	f.advance(47 * time.Hour) // 1h to due

	got, err := f.eng.CancelByCustomer(ctx, j.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != job.StatusWithdrawAfter24 {
		t.Errorf("status = %s, want withdrawafter24", got.Status)
	}
}

func TestCancelByCustomerPendingStaysSilentForTranslator(t *testing.T) {
	f := newFixture(t)
	j := f.createJob(t)
	f.mail.reset()

	if _, err := f.eng.CancelByCustomer(context.Background(), j.ID); err != nil {
		t.Fatal(err)
	}
	if got := f.mail.byKey(notify.KeyJobCancelledTranslator); len(got) != 0 {
		t.Errorf("pending booking has no translator to notify, got %d emails", len(got))
	}
}

func TestCancelByCustomerTerminalRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	j := f.createJob(t)

	if _, err := f.eng.CancelByCustomer(ctx, j.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.eng.CancelByCustomer(ctx, j.ID); err == nil {
		t.Fatal("cancelling a withdrawn booking should fail")
	}
}

func TestCancelByTranslatorInsideWindowRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	j := f.createJob(t)
	f.acceptJob(t, j, f.translator)

	f.advance(30 * time.Hour) // 18h to due

	_, err := f.eng.CancelByTranslator(ctx, j.ID, f.translator.ID)
	if !errors.Is(err, booking.ErrWithinCancellationWindow) {
		t.Fatalf("CancelByTranslator() error = %v, want ErrWithinCancellationWindow", err)
	}

	got, err := f.store.GetJob(ctx, j.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != job.StatusAssigned {
		t.Errorf("status = %s, want assigned (rejected cancellation must not mutate)", got.Status)
	}
}

func TestCancelByTranslatorExactWindowBoundaryRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	j := f.createJob(t)
	f.acceptJob(t, j, f.translator)

	f.advance(24 * time.Hour) // exactly 24h to due

	_, err := f.eng.CancelByTranslator(ctx, j.ID, f.translator.ID)
	if !errors.Is(err, booking.ErrWithinCancellationWindow) {
		t.Fatalf("CancelByTranslator() error = %v, want ErrWithinCancellationWindow", err)
	}
}

func TestCancelByTranslatorReturnsToPool(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	j := f.createJob(t)
	f.acceptJob(t, j, f.translator)
	f.mail.reset()
	f.push.reset()

	f.advance(2 * time.Hour) // 46h to due, outside the window

	got, err := f.eng.CancelByTranslator(ctx, j.ID, f.translator.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != job.StatusPending {
		t.Errorf("status = %s, want pending", got.Status)
	}
	// The pending clock restarted: 46h lead falls in the 16h-window branch.
	wantExpire := f.clock().Add(16 * time.Hour)
	if !got.WillExpireAt.Equal(wantExpire) {
		t.Errorf("WillExpireAt = %v, want %v", got.WillExpireAt, wantExpire)
	}

	if _, err := f.store.ActiveAssignment(ctx, j.ID); !errors.Is(err, booking.ErrAssignmentNotFound) {
		t.Errorf("assignment should be cancelled, got err = %v", err)
	}

	if got := f.mail.byKey(notify.KeyStatusChangedCustomer); len(got) != 1 {
		t.Errorf("customer cancellation emails = %d, want 1", len(got))
	}

	// The fan-out excludes the canceller.
	fanOuts := f.push.byType(notify.PushSuitableJob)
	if len(fanOuts) != 1 {
		t.Fatalf("fan-out pushes = %d, want 1", len(fanOuts))
	}
	for _, email := range filterEmails(fanOuts[0].Filter) {
		if email == f.translator.Email {
			t.Errorf("fan-out includes the cancelling translator %q", email)
		}
	}
}

func TestCancelByTranslatorWrongTranslator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	j := f.createJob(t)
	f.acceptJob(t, j, f.translator)

	_, err := f.eng.CancelByTranslator(ctx, j.ID, f.other.ID)
	if !errors.Is(err, booking.ErrAssignmentNotFound) {
		t.Fatalf("CancelByTranslator() error = %v, want ErrAssignmentNotFound", err)
	}
}
