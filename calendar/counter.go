/*
counter.go - Working-day counter

PURPOSE:
  Turns a requested date range into the number of days it charges against
  a leave balance.

CLASSIFICATION (first match wins):
  1. Saturday or Sunday    -> weekend, not chargeable
  2. Member of HolidaySet  -> holiday, not chargeable
  3. Anything else         -> working day, chargeable
     (annotated with the school break it falls in, if any)

ZERO IS VALID:
  A range made only of weekends and holidays counts 0. That is a normal
  "nothing to charge" outcome, not an error. Only a range whose end
  precedes its start is rejected.

DEGRADED HOLIDAYS:
  When the holiday lookup failed the set is empty and holidays count as
  working days. The counter cannot tell the difference and does not try.

SEE ALSO:
  - holidays.go: HolidaySet
  - holiday/provider.go: Where holiday sets come from
  - leave/service.go: Calls Count before creating a record
*/
package calendar

import (
	"github.com/Gonosen60/gestion-conges-app/generic"
)

// =============================================================================
// DAY CLASSIFICATION
// =============================================================================

type DayKind int

const (
	DayWorking DayKind = iota
	DayWeekend
	DayHoliday
)

func (k DayKind) String() string {
	switch k {
	case DayWeekend:
		return "weekend"
	case DayHoliday:
		return "holiday"
	default:
		return "working day"
	}
}

// DayClassification is the verdict for one day of a counted range.
type DayClassification struct {
	Date        generic.Date
	Kind        DayKind
	HolidayName string // set for DayHoliday when the source named it
	SchoolBreak string // set for DayWorking inside a school break
}

func (c DayClassification) Chargeable() bool { return c.Kind == DayWorking }

// Label is the display label, e.g. "working day (Toussaint)".
func (c DayClassification) Label() string {
	if c.Kind == DayWorking && c.SchoolBreak != "" {
		return c.Kind.String() + " (" + c.SchoolBreak + ")"
	}
	return c.Kind.String()
}

// CountResult is the outcome of counting one range.
type CountResult struct {
	Period     generic.Period
	Chargeable int
	Days       []DayClassification
}

// NothingToCharge reports a valid range without a single working day.
func (r CountResult) NothingToCharge() bool { return r.Chargeable == 0 }

// Breakdown returns how many days of each kind the range holds.
func (r CountResult) Breakdown() map[DayKind]int {
	out := map[DayKind]int{DayWorking: 0, DayWeekend: 0, DayHoliday: 0}
	for _, d := range r.Days {
		out[d.Kind]++
	}
	return out
}

// =============================================================================
// COUNTER
// =============================================================================

// Counter counts chargeable days. It holds no per-call state and is safe
// for concurrent use.
type Counter struct {
	breaks SchoolBreaks
}

// NewCounter creates a counter that annotates working days with breaks.
// A nil table disables annotations.
func NewCounter(breaks SchoolBreaks) *Counter {
	return &Counter{breaks: breaks}
}

// Classify returns the verdict for a single day.
func (c *Counter) Classify(d generic.Date, holidays HolidaySet) DayClassification {
	if d.IsWeekend() {
		return DayClassification{Date: d, Kind: DayWeekend}
	}
	if name, ok := holidays.Name(d); ok {
		return DayClassification{Date: d, Kind: DayHoliday, HolidayName: name}
	}
	dc := DayClassification{Date: d, Kind: DayWorking}
	if c != nil {
		dc.SchoolBreak, _ = c.breaks.Lookup(d)
	}
	return dc
}

// Count walks p day by day. It returns a *generic.RangeError (or a
// *generic.DateError for missing bounds) without counting anything when
// p is not a valid range.
func (c *Counter) Count(p generic.Period, holidays HolidaySet) (CountResult, error) {
	if err := p.Validate(); err != nil {
		return CountResult{}, err
	}

	result := CountResult{Period: p, Days: make([]DayClassification, 0, p.Len())}
	for _, d := range p.Days() {
		dc := c.Classify(d, holidays)
		if dc.Chargeable() {
			result.Chargeable++
		}
		result.Days = append(result.Days, dc)
	}
	return result, nil
}
