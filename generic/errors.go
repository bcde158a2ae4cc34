/*
errors.go - Centralized error types for the engine

PURPOSE:

	All error types in one place for consistency and discoverability.
	Most "nothing found" outcomes are NOT errors: a missing member resolves
	to a nil cost, a missing availability row to an UNKNOWN workload. The
	errors below cover contract violations and malformed stored data.

ERROR CATEGORIES:
 1. Contract errors - month outside 1-12, inverted period range
 2. Data errors - serialized month lists that cannot be parsed
 3. Lookup errors - used by the admin surface, never by the core

USAGE:

	if errors.Is(err, generic.ErrInvalidMonth) {
	    // 400 to the caller
	}

SEE ALSO:
  - period.go: Returns PeriodParseError
  - workload/calculator.go: Records PeriodParseError per skipped assignment
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidMonth is returned when a month is outside 1-12.
	ErrInvalidMonth = errors.New("invalid month")

	// ErrInvalidPeriod is returned for a malformed period key or a range whose end is before its start.
	ErrInvalidPeriod = errors.New("invalid period")

	// ErrMalformedPeriods is returned when an assignment's serialized month list cannot be parsed.
	ErrMalformedPeriods = errors.New("malformed assignment months")

	// ErrInvalidRate is returned when a daily rate is negative or unparsable.
	ErrInvalidRate = errors.New("invalid daily rate")

	// ErrMemberNotFound is returned by admin operations on a missing member.
	ErrMemberNotFound = errors.New("project member not found")

	// ErrPartnerNotFound is returned by admin operations on a missing partner.
	ErrPartnerNotFound = errors.New("partner not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidMonthError reports the offending month value.
type InvalidMonthError struct {
	Month int
}

func (e *InvalidMonthError) Error() string {
	return fmt.Sprintf("invalid month %d: must be between 1 and 12", e.Month)
}

func (e *InvalidMonthError) Unwrap() error { return ErrInvalidMonth }

// PeriodParseError reports a serialized month list that could not be decoded.
type PeriodParseError struct {
	Raw string
	Err error
}

func (e *PeriodParseError) Error() string {
	return fmt.Sprintf("malformed months %q: %v", e.Raw, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *PeriodParseError) Unwrap() []error { return []error{ErrMalformedPeriods, e.Err} }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidMonth) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrMalformedPeriods) ||
		errors.Is(err, ErrInvalidRate)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrMemberNotFound) ||
		errors.Is(err, ErrPartnerNotFound)
}
