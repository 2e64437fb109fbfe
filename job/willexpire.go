package job

import "time"

// Expiry policy thresholds. A booking created close to its due time stays
// open until the due time itself; one created further out gets a shorter
// claim window so unclaimed bookings surface to admins early.
const (
	expireShortLead  = 90 * time.Minute
	expireMediumLead = 24 * time.Hour
	expireLongLead   = 72 * time.Hour
)

// WillExpireAt returns the instant an unclaimed pending booking times out,
// as a function of its due time and the moment it (re)entered pending.
//
//	lead <= 90min        -> due
//	lead <= 24h          -> createdAt + 90min
//	lead <= 72h          -> createdAt + 16h
//	otherwise            -> due - 48h
func WillExpireAt(due, createdAt time.Time) time.Time {
	lead := due.Sub(createdAt)
	switch {
	case lead <= expireShortLead:
		return due
	case lead <= expireMediumLead:
		return createdAt.Add(90 * time.Minute)
	case lead <= expireLongLead:
		return createdAt.Add(16 * time.Hour)
	default:
		return due.Add(-48 * time.Hour)
	}
}
