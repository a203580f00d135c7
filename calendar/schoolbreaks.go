package calendar

import (
	"time"

	"github.com/Gonosen60/gestion-conges-app/generic"
)

// SchoolBreak is a named school holiday window. It only annotates counts.
type SchoolBreak struct {
	Period generic.Period
	Label  string
}

// SchoolBreaks is an ordered reference table of breaks.
type SchoolBreaks []SchoolBreak

// zoneB is the Zone B (Amiens academy) calendar for the 2024-2025 and
// 2025-2026 school years. Static reference data, not computed.
var zoneB = SchoolBreaks{
	{Period: span(2025, time.February, 8, 2025, time.February, 24), Label: "Hiver"},
	{Period: span(2025, time.April, 5, 2025, time.April, 22), Label: "Printemps"},
	{Period: span(2025, time.July, 5, 2025, time.September, 1), Label: "Été"},
	{Period: span(2025, time.October, 18, 2025, time.November, 3), Label: "Toussaint"},
	{Period: span(2025, time.December, 20, 2026, time.January, 5), Label: "Noël"},
	{Period: span(2026, time.February, 14, 2026, time.March, 2), Label: "Hiver"},
	{Period: span(2026, time.April, 11, 2026, time.April, 27), Label: "Printemps"},
}

// DefaultSchoolBreaks returns a copy of the Zone B reference table.
func DefaultSchoolBreaks() SchoolBreaks {
	out := make(SchoolBreaks, len(zoneB))
	copy(out, zoneB)
	return out
}

// Lookup returns the label of the first break containing d.
func (b SchoolBreaks) Lookup(d generic.Date) (string, bool) {
	for _, br := range b {
		if br.Period.Contains(d) {
			return br.Label, true
		}
	}
	return "", false
}

func span(y1 int, m1 time.Month, d1 int, y2 int, m2 time.Month, d2 int) generic.Period {
	return generic.Period{Start: generic.NewDate(y1, m1, d1), End: generic.NewDate(y2, m2, d2)}
}
