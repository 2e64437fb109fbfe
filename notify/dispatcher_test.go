package notify_test

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/xraph/booking"
	"github.com/xraph/booking/id"
	"github.com/xraph/booking/job"
	"github.com/xraph/booking/notify"
	"github.com/xraph/booking/translator"
)

type capturePush struct {
	mu   sync.Mutex
	sent []struct {
		Filter  notify.TagFilter
		Payload notify.PushPayload
		After   *time.Time
	}
}

func (p *capturePush) Send(_ context.Context, filter notify.TagFilter, payload notify.PushPayload, after *time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, struct {
		Filter  notify.TagFilter
		Payload notify.PushPayload
		After   *time.Time
	}{filter, payload, after})
	return nil
}

type fakeMatcher struct {
	eligible  []*translator.Profile
	potential map[string][]*job.Job
}

func (m *fakeMatcher) Eligible(context.Context, *job.Job) ([]*translator.Profile, error) {
	return m.eligible, nil
}

func (m *fakeMatcher) PotentialJobs(_ context.Context, translatorID id.TranslatorID) ([]*job.Job, error) {
	return m.potential[translatorID.String()], nil
}

func filterEmails(f notify.TagFilter) []string {
	out := make([]string, 0, len(f))
	for _, c := range f {
		out = append(out, c.Value)
	}
	return out
}

func dayClock() booking.Clock {
	return func() time.Time { return time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC) }
}

func nightClock() booking.Clock {
	return func() time.Time { return time.Date(2024, 5, 6, 23, 0, 0, 0, time.UTC) }
}

func testJob() *job.Job {
	return &job.Job{
		ID:           id.NewJobID(),
		CustomerID:   id.NewCustomerID(),
		Status:       job.StatusPending,
		FromLanguage: 7,
		Due:          time.Date(2024, 5, 8, 10, 0, 0, 0, time.UTC),
		Duration:     time.Hour,
		Type:         job.TypePaid,
		PhoneBooking: true,
	}
}

// ──────────────────────────────────────────────────
// Formatting
// ──────────────────────────────────────────────────

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{10 * time.Minute, "10min"},
		{59 * time.Minute, "59min"},
		{time.Hour, "1h"},
		{90 * time.Minute, "01h 30min"},
		{150 * time.Minute, "02h 30min"},
		{10*time.Hour + 5*time.Minute, "10h 05min"},
	}
	for _, tc := range tests {
		if got := notify.FormatDuration(tc.d); got != tc.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}

func TestSmsBody(t *testing.T) {
	base := testJob()

	phone := *base
	physical := *base
	physical.PhoneBooking = false
	physical.PhysicalBooking = true
	physical.Town = "Uppsala"
	fallback := physical
	fallback.Town = ""
	both := physical
	both.PhoneBooking = true
	neither := *base
	neither.PhoneBooking = false

	tests := []struct {
		name string
		j    *job.Job
		want string
	}{
		{"phone", &phone, "New phone booking"},
		{"physical names the town", &physical, "on-site booking in Uppsala"},
		{"physical falls back to customer town", &fallback, "on-site booking in Stockholm"},
		{"both prefers phone", &both, "New phone booking"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := notify.SmsBody(tc.j, "Stockholm")
			if !strings.Contains(got, tc.want) {
				t.Errorf("SmsBody() = %q, want containing %q", got, tc.want)
			}
		})
	}

	if got := notify.SmsBody(&neither, "Stockholm"); got != "" {
		t.Errorf("SmsBody() = %q, want empty for neither-phone-nor-physical", got)
	}
}

// ──────────────────────────────────────────────────
// Tag filters
// ──────────────────────────────────────────────────

func TestEmailTagFilterLowercases(t *testing.T) {
	f := notify.EmailTagFilter([]string{"Jean@Example.com"})
	if len(f) != 1 || f[0].Value != "jean@example.com" {
		t.Fatalf("filter = %+v", f)
	}
}

func TestTagFilterMarshalInterleavesOR(t *testing.T) {
	f := notify.EmailTagFilter([]string{"a@x.se", "b@x.se", "c@x.se"})
	data, err := json.Marshal(f)
	if err != nil {
		t.Fatal(err)
	}

	var raw []map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if len(raw) != 5 {
		t.Fatalf("elements = %d, want 3 conditions + 2 operators", len(raw))
	}
	for i, el := range raw {
		if i%2 == 1 {
			if el["operator"] != "OR" {
				t.Errorf("element %d = %v, want OR operator", i, el)
			}
		} else if el["key"] != "email" {
			t.Errorf("element %d = %v, want email condition", i, el)
		}
	}
}

// ──────────────────────────────────────────────────
// Push policy
// ──────────────────────────────────────────────────

func TestPushHonoursOptOuts(t *testing.T) {
	push := &capturePush{}
	d := notify.New(booking.DefaultConfig(), &fakeMatcher{},
		notify.WithPushSender(push),
		notify.WithClock(dayClock()),
	)

	targets := []notify.Target{
		{Email: "all@x.se", Prefs: translator.Prefs{OptOutAll: true}},
		{Email: "emergency@x.se", Prefs: translator.Prefs{OptOutEmergency: true}},
		{Email: "plain@x.se"},
	}

	d.Push(context.Background(), targets, notify.PushPayload{Type: notify.PushSuitableJob}, true)

	if len(push.sent) != 1 {
		t.Fatalf("batches = %d, want 1", len(push.sent))
	}
	emails := filterEmails(push.sent[0].Filter)
	if len(emails) != 1 || emails[0] != "plain@x.se" {
		t.Errorf("recipients = %v, want only the un-opted-out target", emails)
	}
}

func TestPushEmergencyOptOutOnlyBindsUrgent(t *testing.T) {
	push := &capturePush{}
	d := notify.New(booking.DefaultConfig(), &fakeMatcher{},
		notify.WithPushSender(push),
		notify.WithClock(dayClock()),
	)

	targets := []notify.Target{{Email: "emergency@x.se", Prefs: translator.Prefs{OptOutEmergency: true}}}
	d.Push(context.Background(), targets, notify.PushPayload{Type: notify.PushSuitableJob}, false)

	if len(push.sent) != 1 {
		t.Fatalf("batches = %d, want 1 (non-urgent push ignores emergency opt-out)", len(push.sent))
	}
}

func TestPushNightDelayBucketing(t *testing.T) {
	push := &capturePush{}
	d := notify.New(booking.DefaultConfig(), &fakeMatcher{},
		notify.WithPushSender(push),
		notify.WithClock(nightClock()),
	)

	targets := []notify.Target{
		{Email: "night@x.se", Prefs: translator.Prefs{OptOutNight: true}},
		{Email: "awake@x.se"},
	}
	d.Push(context.Background(), targets, notify.PushPayload{Type: notify.PushSuitableJob}, false)

	if len(push.sent) != 2 {
		t.Fatalf("batches = %d, want an immediate and a delayed batch", len(push.sent))
	}

	var immediate, delayed *struct {
		Filter  notify.TagFilter
		Payload notify.PushPayload
		After   *time.Time
	}
	for i := range push.sent {
		if push.sent[i].After == nil {
			immediate = &push.sent[i]
		} else {
			delayed = &push.sent[i]
		}
	}
	if immediate == nil || delayed == nil {
		t.Fatal("expected one immediate and one delayed batch")
	}
	if got := filterEmails(immediate.Filter); len(got) != 1 || got[0] != "awake@x.se" {
		t.Errorf("immediate recipients = %v", got)
	}
	if got := filterEmails(delayed.Filter); len(got) != 1 || got[0] != "night@x.se" {
		t.Errorf("delayed recipients = %v", got)
	}
	// Deferred to the next business open: 09:00 the following day.
	want := time.Date(2024, 5, 7, 9, 0, 0, 0, time.UTC)
	if !delayed.After.Equal(want) {
		t.Errorf("sendAfter = %v, want %v", delayed.After, want)
	}
}

func TestPushSoundSelection(t *testing.T) {
	push := &capturePush{}
	d := notify.New(booking.DefaultConfig(), &fakeMatcher{},
		notify.WithPushSender(push),
		notify.WithClock(dayClock()),
	)
	targets := []notify.Target{{Email: "t@x.se"}}

	d.Push(context.Background(), targets, notify.PushPayload{Type: notify.PushSuitableJob}, true)
	d.Push(context.Background(), targets, notify.PushPayload{Type: notify.PushSuitableJob}, false)

	if got := push.sent[0].Payload.AndroidSound; got != "emergency_booking" {
		t.Errorf("urgent android sound = %q", got)
	}
	if got := push.sent[1].Payload.IOSSound; got != "normal_booking.mp3" {
		t.Errorf("normal ios sound = %q", got)
	}
}

// ──────────────────────────────────────────────────
// Fan-out
// ──────────────────────────────────────────────────

func TestFanOutStaleMatchGuard(t *testing.T) {
	j := testJob()
	fresh := &translator.Profile{ID: id.NewTranslatorID(), Email: "fresh@x.se", Active: true}
	stale := &translator.Profile{ID: id.NewTranslatorID(), Email: "stale@x.se", Active: true}

	push := &capturePush{}
	d := notify.New(booking.DefaultConfig(), &fakeMatcher{
		eligible: []*translator.Profile{fresh, stale},
		potential: map[string][]*job.Job{
			fresh.ID.String(): {j},
			stale.ID.String(): {}, // job vanished from the stale candidate's feed
		},
	},
		notify.WithPushSender(push),
		notify.WithClock(dayClock()),
	)

	if err := d.FanOutNewJob(context.Background(), j, "French", id.TranslatorID{}); err != nil {
		t.Fatal(err)
	}
	if len(push.sent) != 1 {
		t.Fatalf("batches = %d, want 1", len(push.sent))
	}
	emails := filterEmails(push.sent[0].Filter)
	if len(emails) != 1 || emails[0] != "fresh@x.se" {
		t.Errorf("recipients = %v, want only the still-matching translator", emails)
	}
}

func TestFanOutExcludesCanceller(t *testing.T) {
	j := testJob()
	canceller := &translator.Profile{ID: id.NewTranslatorID(), Email: "cancel@x.se", Active: true}
	other := &translator.Profile{ID: id.NewTranslatorID(), Email: "other@x.se", Active: true}

	push := &capturePush{}
	d := notify.New(booking.DefaultConfig(), &fakeMatcher{
		eligible: []*translator.Profile{canceller, other},
		potential: map[string][]*job.Job{
			canceller.ID.String(): {j},
			other.ID.String():     {j},
		},
	},
		notify.WithPushSender(push),
		notify.WithClock(dayClock()),
	)

	if err := d.FanOutNewJob(context.Background(), j, "French", canceller.ID); err != nil {
		t.Fatal(err)
	}
	if len(push.sent) != 1 {
		t.Fatalf("batches = %d, want 1", len(push.sent))
	}
	emails := filterEmails(push.sent[0].Filter)
	if len(emails) != 1 || emails[0] != "other@x.se" {
		t.Errorf("recipients = %v, want the canceller excluded", emails)
	}
}

// ──────────────────────────────────────────────────
// SMS fan-out
// ──────────────────────────────────────────────────

type captureSms struct {
	sent []string
}

func (s *captureSms) Send(_ context.Context, _, to, _ string) (notify.DeliveryStatus, error) {
	s.sent = append(s.sent, to)
	return notify.DeliveryAccepted, nil
}

func TestSmsFanOutSkipsMissingMobile(t *testing.T) {
	j := testJob()
	sms := &captureSms{}
	d := notify.New(booking.DefaultConfig(), &fakeMatcher{},
		notify.WithSmsSender(sms, "+46100000000"),
	)

	sent := d.SmsFanOut(context.Background(), j, "Stockholm", []*translator.Profile{
		{Email: "a@x.se", Mobile: "+46700000001"},
		{Email: "b@x.se"}, // no mobile
		{Email: "c@x.se", Mobile: "+46700000003"},
	})
	if sent != 2 {
		t.Errorf("sent = %d, want 2", sent)
	}
	if len(sms.sent) != 2 {
		t.Errorf("sms calls = %d, want 2", len(sms.sent))
	}
}

func TestSmsFanOutNothingToSay(t *testing.T) {
	j := testJob()
	j.PhoneBooking = false // neither phone nor physical

	sms := &captureSms{}
	d := notify.New(booking.DefaultConfig(), &fakeMatcher{},
		notify.WithSmsSender(sms, "+46100000000"),
	)
	sent := d.SmsFanOut(context.Background(), j, "", []*translator.Profile{
		{Email: "a@x.se", Mobile: "+46700000001"},
	})
	if sent != 0 || len(sms.sent) != 0 {
		t.Errorf("sent = %d / %d calls, want none", sent, len(sms.sent))
	}
}
