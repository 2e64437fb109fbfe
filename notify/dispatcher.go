package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/booking"
	"github.com/xraph/booking/id"
	"github.com/xraph/booking/job"
	"github.com/xraph/booking/translator"
)

// Target is a resolved push recipient: a translator or a customer.
type Target struct {
	ID    id.AnyID
	Email string
	Prefs translator.Prefs
}

// TranslatorTarget adapts a profile to a push target.
func TranslatorTarget(p *translator.Profile) Target {
	return Target{ID: p.ID, Email: p.Email, Prefs: p.Prefs}
}

// CustomerTarget adapts a customer to a push target.
func CustomerTarget(c *translator.Customer) Target {
	return Target{ID: c.ID, Email: c.Email, Prefs: c.Prefs}
}

// Parties are the resolved users an intent audience may refer to.
type Parties struct {
	Customer *translator.Customer
	Active   *translator.Profile
	New      *translator.Profile
	Old      *translator.Profile
}

// Emitter receives a hook after each batch of sends. ext.Registry
// satisfies this interface.
type Emitter interface {
	EmitNotificationSent(ctx context.Context, channel string, recipients int)
}

// Matcher is the slice of the matching engine the dispatcher needs for the
// stale-match guard during fan-out.
type Matcher interface {
	Eligible(ctx context.Context, j *job.Job) ([]*translator.Profile, error)
	PotentialJobs(ctx context.Context, translatorID id.TranslatorID) ([]*job.Job, error)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher's logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithClock sets the time source used for the night-window decision.
func WithClock(c booking.Clock) Option {
	return func(d *Dispatcher) { d.clock = c }
}

// WithMessenger sets the email sender.
func WithMessenger(m Messenger) Option {
	return func(d *Dispatcher) { d.messenger = m }
}

// WithSmsSender sets the SMS sender and origin number.
func WithSmsSender(s SmsSender, fromNumber string) Option {
	return func(d *Dispatcher) {
		d.sms = s
		d.smsFrom = fromNumber
	}
}

// WithPushSender sets the push sender.
func WithPushSender(p PushSender) Option {
	return func(d *Dispatcher) { d.push = p }
}

// WithEmitter sets the lifecycle-hook emitter.
func WithEmitter(e Emitter) Option {
	return func(d *Dispatcher) { d.emitter = e }
}

// Dispatcher resolves notification intents into channel sends. Senders
// left unconfigured silently disable their channel. All delivery errors
// are logged and swallowed: a state mutation never fails because a
// notification did.
type Dispatcher struct {
	cfg       booking.Config
	matcher   Matcher
	messenger Messenger
	sms       SmsSender
	smsFrom   string
	push      PushSender
	emitter   Emitter
	logger    *slog.Logger
	clock     booking.Clock
}

// New creates a Dispatcher with the given policy config and matcher.
func New(cfg booking.Config, matcher Matcher, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		cfg:     cfg,
		matcher: matcher,
		logger:  slog.Default(),
		clock:   booking.SystemClock,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ──────────────────────────────────────────────────
// Email
// ──────────────────────────────────────────────────

// Email sends one templated email. Failures are logged, never returned.
func (d *Dispatcher) Email(ctx context.Context, address, name string, key MessageKey, params map[string]string) {
	if d.messenger == nil || address == "" {
		return
	}
	subject := subjectFor(key, params)
	if err := d.messenger.Send(ctx, address, name, subject, key, params); err != nil {
		d.logger.Error("email delivery failed",
			slog.String("address", address),
			slog.String("template", string(key)),
			slog.String("error", err.Error()),
		)
		return
	}
	d.emitSent(ctx, string(ChannelEmail), 1)
}

// subjectFor derives a neutral subject line from the template key. The
// importing application localizes the body; the subject carries the
// booking reference.
func subjectFor(key MessageKey, params map[string]string) string {
	jobID := params["job_id"]
	switch key {
	case KeyJobCreated:
		return fmt.Sprintf("We have received your booking #%s", jobID)
	case KeyJobAccepted:
		return fmt.Sprintf("Confirmation - a translator accepted booking #%s", jobID)
	case KeyJobReopened:
		return fmt.Sprintf("Your booking #%s has been reopened", jobID)
	case KeySessionEnded:
		return fmt.Sprintf("Summary of completed session for booking #%s", jobID)
	case KeyStatusChangedCustomer, KeyJobCancelledTranslator:
		return fmt.Sprintf("Cancellation of booking #%s", jobID)
	case KeyChangedTranslatorCust, KeyChangedTranslatorOld, KeyChangedTranslatorNew:
		return fmt.Sprintf("Translator change for booking #%s", jobID)
	case KeyChangedDate, KeyChangedLang:
		return fmt.Sprintf("Booking #%s has been changed", jobID)
	}
	return fmt.Sprintf("Update for booking #%s", jobID)
}

// ──────────────────────────────────────────────────
// Push
// ──────────────────────────────────────────────────

// needSend reports whether the target accepts this push at all.
func needSend(t Target, urgent bool) bool {
	if t.Prefs.OptOutAll {
		return false
	}
	if urgent && t.Prefs.OptOutEmergency {
		return false
	}
	return true
}

// needDelay reports whether delivery should defer to the next business time.
func (d *Dispatcher) needDelay(t Target) bool {
	return d.cfg.IsNight(d.clock()) && t.Prefs.OptOutNight
}

// Push sends a payload to the given targets, honouring opt-outs and the
// night-window delay policy. Targets are bucketed into an immediate and a
// deferred batch, one provider call each.
func (d *Dispatcher) Push(ctx context.Context, targets []Target, payload PushPayload, urgent bool) {
	if d.push == nil || len(targets) == 0 {
		return
	}

	var now, delayed []string
	for _, t := range targets {
		if !needSend(t, urgent) {
			continue
		}
		if d.needDelay(t) {
			delayed = append(delayed, t.Email)
		} else {
			now = append(now, t.Email)
		}
	}

	if payload.Type == PushSuitableJob {
		if urgent {
			payload.AndroidSound = "emergency_booking"
			payload.IOSSound = "emergency_booking.mp3"
		} else {
			payload.AndroidSound = "normal_booking"
			payload.IOSSound = "normal_booking.mp3"
		}
	}

	if len(now) > 0 {
		d.sendPush(ctx, EmailTagFilter(now), payload, nil)
	}
	if len(delayed) > 0 {
		after := d.cfg.NextBusinessTime(d.clock())
		d.sendPush(ctx, EmailTagFilter(delayed), payload, &after)
	}
}

func (d *Dispatcher) sendPush(ctx context.Context, filter TagFilter, payload PushPayload, after *time.Time) {
	if err := d.push.Send(ctx, filter, payload, after); err != nil {
		d.logger.Error("push delivery failed",
			slog.String("job_id", payload.JobID),
			slog.String("type", payload.Type),
			slog.Int("recipients", len(filter)),
			slog.String("error", err.Error()),
		)
		return
	}
	d.logger.Info("push sent",
		slog.String("job_id", payload.JobID),
		slog.String("type", payload.Type),
		slog.Int("recipients", len(filter)),
		slog.Bool("delayed", after != nil),
	)
	d.emitSent(ctx, string(ChannelPush), len(filter))
}

// FanOutNewJob pushes a "suitable job" alert to every eligible translator,
// except the excluded one (the translator who just cancelled). Each
// candidate's potential-job set is recomputed and must still contain the
// booking, guarding against stale matches.
func (d *Dispatcher) FanOutNewJob(ctx context.Context, j *job.Job, language string, exclude id.TranslatorID) error {
	eligible, err := d.matcher.Eligible(ctx, j)
	if err != nil {
		return fmt.Errorf("booking/notify: fan-out match: %w", err)
	}

	targets := make([]Target, 0, len(eligible))
	for _, p := range eligible {
		if !exclude.IsNil() && p.ID == exclude {
			continue
		}
		if !needSend(TranslatorTarget(p), j.Immediate) {
			continue
		}
		potential, err := d.matcher.PotentialJobs(ctx, p.ID)
		if err != nil {
			d.logger.Error("potential jobs lookup failed",
				slog.String("translator_id", p.ID.String()),
				slog.String("error", err.Error()),
			)
			continue
		}
		current := false
		for _, pj := range potential {
			if pj.ID == j.ID {
				current = true
				break
			}
		}
		if !current {
			continue
		}
		targets = append(targets, TranslatorTarget(p))
	}

	contents := fmt.Sprintf("New booking for %s translator, %s", language, FormatDuration(j.Duration))
	if !j.Immediate {
		contents += ", " + j.Due.Format("2006-01-02 15:04")
	}

	d.Push(ctx, targets, PushPayload{
		Type:     PushSuitableJob,
		JobID:    j.ID.String(),
		Title:    "New booking",
		Contents: map[string]string{"en": contents},
	}, j.Immediate)
	return nil
}

// ──────────────────────────────────────────────────
// SMS
// ──────────────────────────────────────────────────

// SmsFanOut texts every given translator about the booking and returns how
// many sends were attempted. The template depends on the session kind:
// on-site bookings name the town; bookings with a phone option use the
// phone template (phone takes precedence when both flags are set).
func (d *Dispatcher) SmsFanOut(ctx context.Context, j *job.Job, townFallback string, translators []*translator.Profile) int {
	if d.sms == nil {
		return 0
	}

	body := SmsBody(j, townFallback)
	if body == "" {
		// Neither phone nor physical: nothing sensible to say.
		return 0
	}

	sent := 0
	for _, p := range translators {
		if p.Mobile == "" {
			continue
		}
		status, err := d.sms.Send(ctx, d.smsFrom, p.Mobile, body)
		if err != nil {
			d.logger.Error("sms delivery failed",
				slog.String("to", p.Email),
				slog.String("error", err.Error()),
			)
			continue
		}
		d.logger.Info("sms sent",
			slog.String("to", p.Email),
			slog.String("status", string(status)),
		)
		sent++
	}
	if sent > 0 {
		d.emitSent(ctx, string(ChannelSMS), sent)
	}
	return sent
}

// SmsBody renders the SMS text for a booking. Returns the empty string for
// the defensive neither-phone-nor-physical case.
func SmsBody(j *job.Job, townFallback string) string {
	date := j.Due.Format("2006-01-02")
	clock := j.Due.Format("15:04")
	duration := FormatDuration(j.Duration)

	switch {
	case j.PhoneBooking:
		// Phone template also covers the both-flags case.
		return fmt.Sprintf("New phone booking %s at %s, %s, booking %s", date, clock, duration, j.ID)
	case j.PhysicalBooking:
		town := j.Town
		if town == "" {
			town = townFallback
		}
		return fmt.Sprintf("New on-site booking in %s, %s at %s, %s, booking %s", town, date, clock, duration, j.ID)
	default:
		return ""
	}
}

// FormatDuration renders a session length as "Nmin", "1h", or "XXh YYmin".
func FormatDuration(d time.Duration) string {
	mins := int(d.Minutes())
	if mins < 60 {
		return fmt.Sprintf("%dmin", mins)
	}
	if mins == 60 {
		return "1h"
	}
	return fmt.Sprintf("%02dh %02dmin", mins/60, mins%60)
}

func (d *Dispatcher) emitSent(ctx context.Context, channel string, recipients int) {
	if d.emitter != nil {
		d.emitter.EmitNotificationSent(ctx, channel, recipients)
	}
}
