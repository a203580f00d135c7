package generic

// =============================================================================
// PERIOD - Inclusive calendar range
// =============================================================================

// Period is the closed range [Start, End]. Every leave record, season window
// and validity window in the system is a Period.
type Period struct {
	Start Date
	End   Date
}

// NewPeriod builds a validated period.
func NewPeriod(start, end Date) (Period, error) {
	p := Period{Start: start, End: end}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// Validate rejects missing bounds and ranges ending before they start.
func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() {
		return &DateError{Input: p.String()}
	}
	if p.End.Before(p.Start) {
		return &RangeError{Start: p.Start, End: p.End}
	}
	return nil
}

// Contains returns true if d is within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Len is the number of calendar days in the period, 0 when invalid.
func (p Period) Len() int {
	if p.Validate() != nil {
		return 0
	}
	return DaysBetween(p.Start, p.End) + 1
}

// Days returns every day of the period in chronological order.
func (p Period) Days() []Date {
	n := p.Len()
	days := make([]Date, 0, n)
	for i := 0; i < n; i++ {
		days = append(days, p.Start.AddDays(i))
	}
	return days
}

// Intersect returns the overlap of two periods and whether there is one.
func (p Period) Intersect(other Period) (Period, bool) {
	start, end := p.Start, p.End
	if other.Start.After(start) {
		start = other.Start
	}
	if other.End.Before(end) {
		end = other.End
	}
	if end.Before(start) {
		return Period{}, false
	}
	return Period{Start: start, End: end}, true
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
