package booking

import (
	"errors"
	"fmt"
)

var (
	// Store errors.
	ErrNoStore     = errors.New("booking: no store configured")
	ErrNoDirectory = errors.New("booking: no translator directory configured")
	ErrStoreClosed = errors.New("booking: store closed")

	// Not found errors.
	ErrJobNotFound        = errors.New("booking: job not found")
	ErrAssignmentNotFound = errors.New("booking: assignment not found")
	ErrTranslatorNotFound = errors.New("booking: translator not found")

	// Claim errors.
	ErrAlreadyClaimed = errors.New("booking: job already claimed by another translator")
	ErrDoubleBooked   = errors.New("booking: translator already has a booking at that time")

	// Lifecycle errors.
	ErrPastDue                  = errors.New("booking: due time already elapsed")
	ErrWithinCancellationWindow = errors.New("booking: cancellation inside the 24h window requires support")

	// Lock errors.
	ErrLockNotAcquired = errors.New("booking: job lock not acquired")
)

// ValidationError reports a missing or malformed booking field.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("booking: invalid or missing field %q", e.Field)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
