package generic

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// DATE - Civil calendar day (leave is always booked in whole days)
// =============================================================================

// Date is a calendar day without time-of-day or zone. The zero value is
// "no date" and is rejected by Validate on anything that holds one.
type Date struct {
	t time.Time
}

// Layouts accepted by ParseDate.
const (
	LayoutISO    = "2006-01-02"
	LayoutFrench = "02/01/2006"
)

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf drops the time-of-day of t, keeping the calendar day as seen in t's location.
func DateOf(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	return NewDate(t.Year(), t.Month(), t.Day())
}

func Today() Date { return DateOf(time.Now()) }

// ParseDate accepts ISO (2025-07-14) and French display (14/07/2025) dates.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, &DateError{Input: s}
	}
	layout := LayoutISO
	if strings.Contains(s, "/") {
		layout = LayoutFrench
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return Date{}, &DateError{Input: s, Err: err}
	}
	return DateOf(t), nil
}

// ParseISODate only accepts YYYY-MM-DD.
func ParseISODate(s string) (Date, error) {
	t, err := time.Parse(LayoutISO, strings.TrimSpace(s))
	if err != nil {
		return Date{}, &DateError{Input: s, Err: err}
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// Properties
func (d Date) Time() time.Time       { return d.t }
func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) IsZero() bool          { return d.t.IsZero() }

func (d Date) Format(layout string) string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(layout)
}

func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func (d Date) String() string { return d.Format(LayoutISO) }

// French returns the DD/MM/YYYY form used on screens and in exports.
func (d Date) French() string { return d.Format(LayoutFrench) }

// GoString keeps test failure output readable.
func (d Date) GoString() string { return fmt.Sprintf("generic.Date(%s)", d) }

// =============================================================================
// TIME UTILITIES
// =============================================================================

// DaysBetween returns to - from in whole days (negative when to precedes from).
// Dates are UTC midnights, so Unix seconds divide evenly; time.Duration
// would saturate past ~292 years.
func DaysBetween(from, to Date) int { return int((to.t.Unix() - from.t.Unix()) / 86400) }

func StartOfYear(year int) Date { return NewDate(year, time.January, 1) }
func EndOfYear(year int) Date   { return NewDate(year, time.December, 31) }
