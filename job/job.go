package job

import (
	"time"

	"github.com/xraph/booking"
	"github.com/xraph/booking/id"
)

// Status represents the lifecycle status of a booking.
type Status string

const (
	// StatusPending means the booking is open and waiting for a translator.
	StatusPending Status = "pending"
	// StatusAssigned means a translator has claimed the booking.
	StatusAssigned Status = "assigned"
	// StatusStarted means the interpretation session is underway.
	StatusStarted Status = "started"
	// StatusCompleted means the session finished and was recorded.
	StatusCompleted Status = "completed"
	// StatusWithdrawBefore24 means the customer cancelled with 24h or more to spare.
	StatusWithdrawBefore24 Status = "withdrawbefore24"
	// StatusWithdrawAfter24 means the customer cancelled inside the 24h window.
	StatusWithdrawAfter24 Status = "withdrawafter24"
	// StatusTimedOut means no translator accepted before the expiry time.
	StatusTimedOut Status = "timedout"
	// StatusNotCarriedOutCustomer means the customer never showed for the session.
	StatusNotCarriedOutCustomer Status = "not_carried_out_customer"
)

// Terminal reports whether no further lifecycle transitions are expected.
// Timed-out bookings are not terminal: admins may reopen them.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusWithdrawBefore24, StatusWithdrawAfter24, StatusNotCarriedOutCustomer:
		return true
	}
	return false
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAssigned, StatusStarted, StatusCompleted,
		StatusWithdrawBefore24, StatusWithdrawAfter24, StatusTimedOut,
		StatusNotCarriedOutCustomer:
		return true
	}
	return false
}

// Type classifies who pays for a booking. It is derived from the
// requesting customer's consumer category at creation time.
type Type string

const (
	// TypePaid bookings are served by professional translators.
	TypePaid Type = "paid"
	// TypeRWS bookings are served by RWS translators.
	TypeRWS Type = "rws"
	// TypeUnpaid bookings are served by volunteers.
	TypeUnpaid Type = "unpaid"
)

// TypeForConsumer maps a customer's consumer category to the booking type.
// The second return value is false for unknown categories.
func TypeForConsumer(category string) (Type, bool) {
	switch category {
	case "paid":
		return TypePaid, true
	case "rwsconsumer":
		return TypeRWS, true
	case "ngo":
		return TypeUnpaid, true
	}
	return "", false
}

// Gender is an optional translator-gender requirement on a booking.
// The empty value means no requirement.
type Gender string

const (
	GenderAny    Gender = ""
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Certification is the optional certification requirement on a booking.
// The empty value means any level is acceptable.
type Certification string

const (
	CertAny          Certification = ""
	CertNormal       Certification = "normal"
	CertCertified    Certification = "certified"
	CertLaw          Certification = "law"
	CertHealth       Certification = "health"
	CertBoth         Certification = "both"
	CertNormalLaw    Certification = "n_law"
	CertNormalHealth Certification = "n_health"
)

// LanguageID identifies the source language of a booking.
type LanguageID int64

// Job represents a single interpretation booking.
type Job struct {
	booking.Entity

	ID           id.JobID      `json:"id"`
	CustomerID   id.CustomerID `json:"customer_id"`
	Status       Status        `json:"status"`
	FromLanguage LanguageID    `json:"from_language_id"`
	Due          time.Time     `json:"due"`
	Immediate    bool          `json:"immediate"`
	Duration     time.Duration `json:"duration"`

	// Matching constraints.
	Gender        Gender        `json:"gender,omitempty"`
	Certification Certification `json:"certification,omitempty"`
	Type          Type          `json:"job_type"`

	// Phone vs on-site session. Both may be set; phone then takes
	// precedence for SMS template selection.
	PhoneBooking    bool   `json:"customer_phone_type"`
	PhysicalBooking bool   `json:"customer_physical_type"`
	Town            string `json:"town,omitempty"`
	Address         string `json:"address,omitempty"`
	Instructions    string `json:"instructions,omitempty"`

	// CustomerEmail overrides the customer profile address when set.
	CustomerEmail string `json:"customer_email,omitempty"`
	Reference     string `json:"reference,omitempty"`
	AdminComments string `json:"admin_comments,omitempty"`
	ByAdmin       bool   `json:"by_admin,omitempty"`

	// WillExpireAt is when an unclaimed pending booking times out. It is
	// recomputed whenever the booking returns to pending.
	WillExpireAt time.Time  `json:"will_expire_at"`
	WithdrawAt   *time.Time `json:"withdraw_at,omitempty"`
	EndAt        *time.Time `json:"end_at,omitempty"`

	// SessionTime is the recorded session length after completion.
	SessionTime time.Duration `json:"session_time,omitempty"`
}

// PhysicalOnly reports whether the booking has no phone fallback, in which
// case translators outside the booking's town are excluded from matching.
func (j *Job) PhysicalOnly() bool {
	return j.PhysicalBooking && !j.PhoneBooking
}
