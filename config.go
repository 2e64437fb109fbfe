package booking

import "time"

// Config holds the business-policy knobs for the booking core.
type Config struct {
	// ImmediateLeadTime is how far ahead an immediate booking is due.
	ImmediateLeadTime time.Duration

	// CancellationWindow is the period before the due time within which a
	// translator may no longer cancel through the system.
	CancellationWindow time.Duration

	// NightStartHour and NightEndHour bound the local night-time window
	// [NightStartHour, 24) ∪ [0, NightEndHour) in which delayable pushes
	// are deferred for opted-out recipients.
	NightStartHour int
	NightEndHour   int

	// BusinessOpenHour is the local hour delayed pushes are scheduled for:
	// the next occurrence of BusinessOpenHour:00.
	BusinessOpenHour int

	// SweepSchedule is the cron expression for the expiry sweeper.
	SweepSchedule string

	// LockTTL is the lease duration for per-job mutation locks.
	LockTTL time.Duration
}

// DefaultConfig returns a Config with the production policy defaults.
func DefaultConfig() Config {
	return Config{
		ImmediateLeadTime:  5 * time.Minute,
		CancellationWindow: 24 * time.Hour,
		NightStartHour:     22,
		NightEndHour:       6,
		BusinessOpenHour:   9,
		SweepSchedule:      "@every 1m",
		LockTTL:            15 * time.Second,
	}
}

// IsNight reports whether t falls inside the configured night-time window.
func (c Config) IsNight(t time.Time) bool {
	h := t.Hour()
	if c.NightStartHour > c.NightEndHour {
		return h >= c.NightStartHour || h < c.NightEndHour
	}
	return h >= c.NightStartHour && h < c.NightEndHour
}

// NextBusinessTime returns the next occurrence of BusinessOpenHour:00
// strictly after t.
func (c Config) NextBusinessTime(t time.Time) time.Time {
	next := time.Date(t.Year(), t.Month(), t.Day(), c.BusinessOpenHour, 0, 0, 0, t.Location())
	if !next.After(t) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
