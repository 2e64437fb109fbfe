package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/booking/id"
	"github.com/xraph/booking/job"
	"github.com/xraph/booking/notify"
	"github.com/xraph/booking/translator"
)

// resolveParties loads the users an intent audience may refer to. Lookups
// that fail leave the party nil; dispatch then skips intents addressed to
// it. Notification resolution is best-effort, a committed mutation is
// never rolled back over it.
func (e *Engine) resolveParties(ctx context.Context, j *job.Job, oldID, newID id.TranslatorID) notify.Parties {
	var p notify.Parties

	cust, err := e.dir.Customer(ctx, j.CustomerID)
	if err != nil {
		e.logger.Warn("customer lookup failed",
			slog.String("job_id", j.ID.String()),
			slog.String("error", err.Error()),
		)
	} else {
		p.Customer = cust
	}

	if a, err := e.store.ActiveAssignment(ctx, j.ID); err == nil {
		p.Active = e.profileOrNil(ctx, a.TranslatorID)
	}
	if !oldID.IsNil() {
		p.Old = e.profileOrNil(ctx, oldID)
	}
	if !newID.IsNil() {
		p.New = e.profileOrNil(ctx, newID)
	}
	return p
}

func (e *Engine) profileOrNil(ctx context.Context, translatorID id.TranslatorID) *translator.Profile {
	p, err := e.dir.Profile(ctx, translatorID)
	if err != nil {
		e.logger.Warn("translator lookup failed",
			slog.String("translator_id", translatorID.String()),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return p
}

// customerAddress returns the address emails to the customer go to: the
// booking-level override when set, the profile address otherwise.
func customerAddress(j *job.Job, c *translator.Customer) string {
	if j.CustomerEmail != "" {
		return j.CustomerEmail
	}
	if c != nil {
		return c.Email
	}
	return ""
}

// dispatchIntents resolves each intent's audience against the parties and
// sends it on its channel. Intents addressed to an unresolved party are
// dropped with a log line.
func (e *Engine) dispatchIntents(ctx context.Context, j *job.Job, parties notify.Parties, intents []notify.Intent) {
	for _, in := range intents {
		params := in.Params
		if params == nil {
			params = map[string]string{"job_id": j.ID.String()}
		}

		switch in.Channel {
		case notify.ChannelEmail:
			addr, name, ok := e.emailTarget(j, parties, in.Audience)
			if !ok {
				e.logger.Warn("intent dropped, audience unresolved",
					slog.String("job_id", j.ID.String()),
					slog.String("audience", string(in.Audience)),
					slog.String("template", string(in.Key)),
				)
				continue
			}
			e.dispatcher.Email(ctx, addr, name, in.Key, params)

		case notify.ChannelPush:
			target, ok := pushTarget(parties, in.Audience)
			if !ok {
				continue
			}
			e.dispatcher.Push(ctx, []notify.Target{target}, pushPayload(j, string(in.Key)), in.Urgent)
		}
	}
}

func (e *Engine) emailTarget(j *job.Job, parties notify.Parties, aud notify.Audience) (addr, name string, ok bool) {
	switch aud {
	case notify.AudienceCustomer:
		addr = customerAddress(j, parties.Customer)
		if parties.Customer != nil {
			name = parties.Customer.Name
		}
		return addr, name, addr != ""
	case notify.AudienceActiveTranslator:
		if parties.Active == nil {
			return "", "", false
		}
		return parties.Active.Email, parties.Active.Name, true
	case notify.AudienceNewTranslator:
		if parties.New == nil {
			return "", "", false
		}
		return parties.New.Email, parties.New.Name, true
	case notify.AudienceOldTranslator:
		if parties.Old == nil {
			return "", "", false
		}
		return parties.Old.Email, parties.Old.Name, true
	}
	return "", "", false
}

func pushTarget(parties notify.Parties, aud notify.Audience) (notify.Target, bool) {
	switch aud {
	case notify.AudienceCustomer:
		if parties.Customer == nil {
			return notify.Target{}, false
		}
		return notify.CustomerTarget(parties.Customer), true
	case notify.AudienceActiveTranslator:
		if parties.Active == nil {
			return notify.Target{}, false
		}
		return notify.TranslatorTarget(parties.Active), true
	case notify.AudienceNewTranslator:
		if parties.New == nil {
			return notify.Target{}, false
		}
		return notify.TranslatorTarget(parties.New), true
	case notify.AudienceOldTranslator:
		if parties.Old == nil {
			return notify.Target{}, false
		}
		return notify.TranslatorTarget(parties.Old), true
	}
	return notify.Target{}, false
}

// pushPayload builds a provider payload for one booking event push.
func pushPayload(j *job.Job, pushType string) notify.PushPayload {
	var title, contents string
	due := j.Due.Format("2006-01-02 15:04")

	switch pushType {
	case notify.PushJobAccepted:
		title = "Booking accepted"
		contents = fmt.Sprintf("A translator accepted booking %s, %s", j.ID, due)
	case notify.PushJobCancelled:
		title = "Booking cancelled"
		contents = fmt.Sprintf("Booking %s at %s has been cancelled", j.ID, due)
	case notify.PushJobExpired:
		title = "Booking expired"
		contents = fmt.Sprintf("No translator accepted booking %s before %s", j.ID, due)
	case notify.PushSessionStartRemind:
		kind := "phone"
		if j.PhysicalOnly() {
			kind = "on-site"
		}
		title = "Session reminder"
		contents = fmt.Sprintf("Reminder: %s interpretation session for booking %s at %s, %s",
			kind, j.ID, due, notify.FormatDuration(j.Duration))
	default:
		title = "Booking update"
		contents = fmt.Sprintf("Booking %s has been updated", j.ID)
	}

	return notify.PushPayload{
		Type:     pushType,
		JobID:    j.ID.String(),
		Title:    title,
		Contents: map[string]string{"en": contents},
	}
}

// baseParams builds the common template parameter set for a booking.
func (e *Engine) baseParams(ctx context.Context, j *job.Job) map[string]string {
	params := map[string]string{
		"job_id":   j.ID.String(),
		"due":      j.Due.Format("2006-01-02 15:04"),
		"duration": notify.FormatDuration(j.Duration),
	}
	if name, err := e.dir.LanguageName(ctx, j.FromLanguage); err == nil {
		params["language"] = name
	}
	return params
}

// languageName resolves the booking language for notification text,
// falling back to the numeric ID when the directory cannot resolve it.
func (e *Engine) languageName(ctx context.Context, lang job.LanguageID) string {
	name, err := e.dir.LanguageName(ctx, lang)
	if err != nil {
		e.logger.Warn("language lookup failed",
			slog.Int64("language_id", int64(lang)),
			slog.String("error", err.Error()),
		)
		return fmt.Sprintf("#%d", lang)
	}
	return name
}
