package notify

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// Messenger sends templated email. Implementations live in the importing
// application (SMTP, SES, ...).
type Messenger interface {
	Send(ctx context.Context, address, displayName, subject string, key MessageKey, params map[string]string) error
}

// DeliveryStatus is the transport's verdict on one SMS.
type DeliveryStatus string

const (
	DeliveryAccepted DeliveryStatus = "accepted"
	DeliveryRejected DeliveryStatus = "rejected"
)

// SmsSender sends one text message.
type SmsSender interface {
	Send(ctx context.Context, fromNumber, toNumber, body string) (DeliveryStatus, error)
}

// PushSender delivers a push payload to every device matching the tag
// filter. A non-nil sendAfter defers delivery until that instant.
type PushSender interface {
	Send(ctx context.Context, filter TagFilter, payload PushPayload, sendAfter *time.Time) error
}

// TagCondition matches one provider-side user tag.
type TagCondition struct {
	Key      string `json:"key"`
	Relation string `json:"relation"`
	Value    string `json:"value"`
}

// TagFilter is an OR-combination of tag conditions. It serializes in the
// push provider's filter grammar: conditions interleaved with
// {"operator":"OR"} objects.
type TagFilter []TagCondition

// EmailTagFilter builds a filter matching any of the given addresses on
// the "email" tag, lower-cased.
func EmailTagFilter(addresses []string) TagFilter {
	f := make(TagFilter, 0, len(addresses))
	for _, a := range addresses {
		f = append(f, TagCondition{Key: "email", Relation: "=", Value: strings.ToLower(a)})
	}
	return f
}

// MarshalJSON interleaves OR operators between conditions.
func (f TagFilter) MarshalJSON() ([]byte, error) {
	type operator struct {
		Operator string `json:"operator"`
	}
	out := make([]any, 0, 2*len(f))
	for i, c := range f {
		if i > 0 {
			out = append(out, operator{Operator: "OR"})
		}
		out = append(out, c)
	}
	return json.Marshal(out)
}

// PushPayload is the provider-agnostic push message body.
type PushPayload struct {
	Type         string            `json:"notification_type"`
	JobID        string            `json:"job_id"`
	Title        string            `json:"title"`
	Contents     map[string]string `json:"contents"`
	Data         map[string]string `json:"data,omitempty"`
	AndroidSound string            `json:"android_sound,omitempty"`
	IOSSound     string            `json:"ios_sound,omitempty"`
}
