/*
errors.go - Centralized error types for the leave engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages wrap these errors with additional context.

ERROR CATEGORIES:
  1. Input errors - Rejected before anything is counted or stored
     (InvalidRange, RangeTooLong, OutsideWindow, MalformedDate,
     UnknownCategory, InvalidSettings)
  2. Lookup errors - Missing sessions or records
  3. Degraded errors - Holiday lookups that failed; callers log them
     and carry on with an empty holiday set

NOT AN ERROR:
  A valid range whose days are all weekends or holidays charges nothing.
  Submissions report that as a result, not as an error. Only bulk edits
  reject it (ErrZeroChargeableDays) because the edit would otherwise
  persist a zero-day record.

USAGE:
  if errors.Is(err, generic.ErrInvalidRange) {
      // 400, nothing was counted
  }

SEE ALSO:
  - leave/service.go: Wraps these errors with record context
  - api/handlers.go: Maps them to HTTP statuses
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
	// ErrInvalidRange is returned when an end date precedes its start date.
	ErrInvalidRange = errors.New("invalid range: end before start")

	// ErrOutsideWindow is returned when a date falls outside the validity
	// window of the reference year (Jan 1 N through Mar 31 N+1).
	ErrOutsideWindow = errors.New("date outside validity window")

	// ErrMalformedDate is returned when a date is missing or cannot be parsed.
	ErrMalformedDate = errors.New("malformed date")

	// ErrUnknownCategory is returned for a leave category outside the fixed set.
	ErrUnknownCategory = errors.New("unknown leave category")

	// ErrRangeTooLong is returned when an ad-hoc count spans more days than
	// the counter accepts.
	ErrRangeTooLong = errors.New("range too long")

	// ErrZeroChargeableDays is returned when an edit would store a record
	// that charges no working day.
	ErrZeroChargeableDays = errors.New("no chargeable day in range")

	// ErrInvalidSettings is returned for an unusable reference year or a
	// negative granted entitlement.
	ErrInvalidSettings = errors.New("invalid settings")

	// ErrRecordNotFound is returned for an out-of-range ledger index.
	ErrRecordNotFound = errors.New("leave record not found")

	// ErrSessionNotFound is returned when a session ID is unknown to the store.
	ErrSessionNotFound = errors.New("session not found")

	// ErrHolidayLookup is returned by holiday sources. The provider swallows it.
	ErrHolidayLookup = errors.New("holiday lookup failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// RangeError reports a range whose end precedes its start.
type RangeError struct {
	Start Date
	End   Date
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid range: end %s is before start %s", e.End, e.Start)
}

func (e *RangeError) Unwrap() error { return ErrInvalidRange }

// WindowError reports a date outside the accepted booking window.
type WindowError struct {
	Date   Date
	Window Period
}

func (e *WindowError) Error() string {
	return fmt.Sprintf("date %s outside validity window %s", e.Date, e.Window)
}

func (e *WindowError) Unwrap() error { return ErrOutsideWindow }

// DateError reports a date that is missing or unparseable.
type DateError struct {
	Input string
	Err   error
}

func (e *DateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed date %q: %v", e.Input, e.Err)
	}
	return fmt.Sprintf("malformed date %q", e.Input)
}

func (e *DateError) Unwrap() error { return ErrMalformedDate }

// IndexError reports a ledger position that does not exist.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("leave record not found: index %d (ledger has %d records)", e.Index, e.Len)
}

func (e *IndexError) Unwrap() error { return ErrRecordNotFound }

// HolidayLookupError details a failed holiday fetch.
type HolidayLookupError struct {
	Year       int
	Source     string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *HolidayLookupError) Error() string {
	msg := fmt.Sprintf("holiday lookup failed for %d from %s", e.Year, e.Source)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *HolidayLookupError) Unwrap() error { return ErrHolidayLookup }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrRangeTooLong) ||
		errors.Is(err, ErrOutsideWindow) ||
		errors.Is(err, ErrMalformedDate) ||
		errors.Is(err, ErrUnknownCategory) ||
		errors.Is(err, ErrInvalidSettings) ||
		errors.Is(err, ErrZeroChargeableDays)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound) ||
		errors.Is(err, ErrSessionNotFound)
}
