package leave

import (
	"fmt"
	"time"

	"github.com/Gonosen60/gestion-conges-app/generic"
)

// Reference years outside this range are rejected by Settings.Validate.
const (
	MinReferenceYear = 2000
	MaxReferenceYear = 2100
)

// MaxPreviewDays caps a count that is not tied to a session: two full
// years, enough for any validity window plus context.
const MaxPreviewDays = 731

// SupportedDates spans every day a reference year can book, from the
// first day of MinReferenceYear to the end of MaxReferenceYear+1.
func SupportedDates() generic.Period {
	return generic.Period{
		Start: generic.StartOfYear(MinReferenceYear),
		End:   generic.EndOfYear(MaxReferenceYear + 1),
	}
}

// CheckPreview bounds an ad-hoc count: p must be valid, lie within
// SupportedDates and span at most MaxPreviewDays.
func CheckPreview(p generic.Period) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := CheckWindow(p, SupportedDates()); err != nil {
		return err
	}
	if n := p.Len(); n > MaxPreviewDays {
		return fmt.Errorf("%w: %d days, at most %d", generic.ErrRangeTooLong, n, MaxPreviewDays)
	}
	return nil
}

// ValidityWindow is the booking window of reference year N:
// January 1 of N through March 31 of N+1.
func ValidityWindow(referenceYear int) generic.Period {
	return generic.Period{
		Start: generic.StartOfYear(referenceYear),
		End:   generic.NewDate(referenceYear+1, time.March, 31),
	}
}

// CheckWindow returns a *generic.WindowError for the first bound of p
// outside window.
func CheckWindow(p, window generic.Period) error {
	for _, d := range []generic.Date{p.Start, p.End} {
		if !window.Contains(d) {
			return &generic.WindowError{Date: d, Window: window}
		}
	}
	return nil
}
