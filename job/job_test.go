package job_test

import (
	"testing"
	"time"

	"github.com/xraph/booking/id"
	"github.com/xraph/booking/job"
)

func TestStatusTerminal(t *testing.T) {
	terminal := []job.Status{
		job.StatusCompleted,
		job.StatusWithdrawBefore24,
		job.StatusWithdrawAfter24,
		job.StatusNotCarriedOutCustomer,
	}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}

	open := []job.Status{job.StatusPending, job.StatusAssigned, job.StatusStarted, job.StatusTimedOut}
	for _, s := range open {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestStatusValid(t *testing.T) {
	if job.Status("cancelled").Valid() {
		t.Error("unknown status should not be valid")
	}
	if !job.StatusTimedOut.Valid() {
		t.Error("timedout should be valid")
	}
}

func TestTypeForConsumer(t *testing.T) {
	tests := []struct {
		category string
		want     job.Type
		ok       bool
	}{
		{"paid", job.TypePaid, true},
		{"rwsconsumer", job.TypeRWS, true},
		{"ngo", job.TypeUnpaid, true},
		{"unknown", "", false},
	}
	for _, tt := range tests {
		got, ok := job.TypeForConsumer(tt.category)
		if got != tt.want || ok != tt.ok {
			t.Errorf("TypeForConsumer(%q) = (%q, %v), want (%q, %v)", tt.category, got, ok, tt.want, tt.ok)
		}
	}
}

func TestPhysicalOnly(t *testing.T) {
	j := &job.Job{PhysicalBooking: true}
	if !j.PhysicalOnly() {
		t.Error("physical without phone should be physical-only")
	}
	j.PhoneBooking = true
	if j.PhysicalOnly() {
		t.Error("physical with phone fallback is not physical-only")
	}
}

func TestAssignmentActive(t *testing.T) {
	a := &job.Assignment{
		ID:           id.NewAssignmentID(),
		JobID:        id.NewJobID(),
		TranslatorID: id.NewTranslatorID(),
	}
	if !a.Active() {
		t.Fatal("fresh assignment should be active")
	}

	a.Cancel(time.Now())
	if a.Active() {
		t.Error("cancelled assignment should not be active")
	}
	if a.CancelAt == nil {
		t.Error("Cancel should stamp CancelAt")
	}

	b := &job.Assignment{ID: id.NewAssignmentID()}
	by := id.NewTranslatorID()
	b.Complete(time.Now(), by)
	if b.Active() {
		t.Error("completed assignment should not be active")
	}
	if b.CompletedBy != by {
		t.Error("Complete should record the completing party")
	}
}

func TestWillExpireAt(t *testing.T) {
	created := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		due  time.Time
		want time.Time
	}{
		{
			name: "short lead expires at due",
			due:  created.Add(30 * time.Minute),
			want: created.Add(30 * time.Minute),
		},
		{
			name: "same-day lead expires 90min after creation",
			due:  created.Add(10 * time.Hour),
			want: created.Add(90 * time.Minute),
		},
		{
			name: "multi-day lead expires 16h after creation",
			due:  created.Add(48 * time.Hour),
			want: created.Add(16 * time.Hour),
		},
		{
			name: "long lead expires 48h before due",
			due:  created.Add(200 * time.Hour),
			want: created.Add(200*time.Hour - 48*time.Hour),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := job.WillExpireAt(tt.due, created)
			if !got.Equal(tt.want) {
				t.Errorf("WillExpireAt = %v, want %v", got, tt.want)
			}
		})
	}
}
