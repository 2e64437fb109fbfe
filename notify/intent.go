package notify

// MessageKey identifies a message template. Template text and localization
// live in the importing application; the core only selects keys and
// supplies parameters.
type MessageKey string

// Email template keys.
const (
	KeyJobCreated               MessageKey = "job-created"
	KeyJobAccepted              MessageKey = "job-accepted"
	KeyJobReopened              MessageKey = "job-change-status-to-customer"
	KeySessionEnded             MessageKey = "session-ended"
	KeyStatusChangedCustomer    MessageKey = "status-changed-from-pending-or-assigned-customer"
	KeyJobCancelledTranslator   MessageKey = "job-cancel-translator"
	KeyChangedTranslatorCust    MessageKey = "job-changed-translator-customer"
	KeyChangedTranslatorOld     MessageKey = "job-changed-translator-old-translator"
	KeyChangedTranslatorNew     MessageKey = "job-changed-translator-new-translator"
	KeyChangedDate              MessageKey = "job-changed-date"
	KeyChangedLang              MessageKey = "job-changed-lang"
)

// Push notification types.
const (
	PushSuitableJob        = "suitable_job"
	PushJobAccepted        = "job_accepted"
	PushJobCancelled       = "job_cancelled"
	PushJobExpired         = "job_expired"
	PushSessionStartRemind = "session_start_remind"
)

// Channel selects the transport for an intent.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPush  Channel = "push"
	ChannelSMS   Channel = "sms"
)

// Audience names the recipient role of an intent relative to the booking.
// The engine resolves roles to concrete users before dispatch.
type Audience string

const (
	// AudienceCustomer is the booking's requesting customer.
	AudienceCustomer Audience = "customer"
	// AudienceActiveTranslator is the translator on the active assignment.
	AudienceActiveTranslator Audience = "active_translator"
	// AudienceNewTranslator is the incoming translator of a reassignment.
	AudienceNewTranslator Audience = "new_translator"
	// AudienceOldTranslator is the outgoing translator of a reassignment.
	AudienceOldTranslator Audience = "old_translator"
	// AudienceEligibleTranslators fans out to every matching translator.
	AudienceEligibleTranslators Audience = "eligible_translators"
)

// Intent is a transient instruction to notify an audience. Lifecycle
// transitions return intents instead of performing I/O; the dispatcher
// resolves and sends them after the state change is committed.
type Intent struct {
	Channel  Channel
	Audience Audience
	Key      MessageKey
	Params   map[string]string

	// Urgent marks immediate-booking alerts, which respect the
	// recipient's emergency opt-out.
	Urgent bool
}
