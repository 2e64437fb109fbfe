package booking

import "time"

// Clock supplies the current time. Injected so business-rule windows
// (24h cancellation, night-time delay, expiry) are testable.
type Clock func() time.Time

// SystemClock returns time.Now in UTC.
func SystemClock() time.Time { return time.Now().UTC() }
