// Package calendar classifies calendar days for leave counting: public
// holidays, school breaks and the working-day counter itself.
package calendar

import (
	"sort"

	"github.com/Gonosen60/gestion-conges-app/generic"
)

// HolidaySet is an immutable set of public holidays, possibly spanning
// several years. It also knows which years it covers: a year whose lookup
// failed is absent from the set, not merely empty. The zero value is an
// empty set covering no year.
type HolidaySet struct {
	days  map[generic.Date]string
	known map[int]bool
}

// NewHolidaySet copies names (date -> holiday name) into a new set that
// covers the years of its dates. Use Covering for a year with no holiday.
func NewHolidaySet(names map[generic.Date]string) HolidaySet {
	days := make(map[generic.Date]string, len(names))
	known := make(map[int]bool)
	for d, name := range names {
		if d.IsZero() {
			continue
		}
		days[d] = name
		known[d.Year()] = true
	}
	return HolidaySet{days: days, known: known}
}

// HolidaysOn builds a set from bare dates.
func HolidaysOn(dates ...generic.Date) HolidaySet {
	names := make(map[generic.Date]string, len(dates))
	for _, d := range dates {
		names[d] = ""
	}
	return NewHolidaySet(names)
}

func (s HolidaySet) Contains(d generic.Date) bool {
	_, ok := s.days[d]
	return ok
}

// Name returns the holiday name for d, if d is a holiday.
func (s HolidaySet) Name(d generic.Date) (string, bool) {
	name, ok := s.days[d]
	return name, ok
}

func (s HolidaySet) Len() int { return len(s.days) }

// Covering returns a copy of s that also covers years.
func (s HolidaySet) Covering(years ...int) HolidaySet {
	known := make(map[int]bool, len(s.known)+len(years))
	for y := range s.known {
		known[y] = true
	}
	for _, y := range years {
		known[y] = true
	}
	return HolidaySet{days: s.days, known: known}
}

// CoversYear reports whether the holidays of year were actually obtained.
func (s HolidaySet) CoversYear(year int) bool { return s.known[year] }

// Covers reports whether every year touched by p is covered.
func (s HolidaySet) Covers(p generic.Period) bool {
	if p.Validate() != nil {
		return false
	}
	for y := p.Start.Year(); y <= p.End.Year(); y++ {
		if !s.known[y] {
			return false
		}
	}
	return true
}

// Dates returns the holidays in chronological order.
func (s HolidaySet) Dates() []generic.Date {
	dates := make([]generic.Date, 0, len(s.days))
	for d := range s.days {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// Year restricts the set to one calendar year.
func (s HolidaySet) Year(year int) HolidaySet {
	names := make(map[generic.Date]string)
	for d, name := range s.days {
		if d.Year() == year {
			names[d] = name
		}
	}
	known := make(map[int]bool, 1)
	if s.known[year] {
		known[year] = true
	}
	return HolidaySet{days: names, known: known}
}

// Merge returns the union of s and others. On a shared date the first
// non-empty name wins.
func (s HolidaySet) Merge(others ...HolidaySet) HolidaySet {
	names := make(map[generic.Date]string, len(s.days))
	known := make(map[int]bool, len(s.known))
	for d, name := range s.days {
		names[d] = name
	}
	for y := range s.known {
		known[y] = true
	}
	for _, o := range others {
		for d, name := range o.days {
			if existing, ok := names[d]; !ok || existing == "" {
				names[d] = name
			}
		}
		for y := range o.known {
			known[y] = true
		}
	}
	return HolidaySet{days: names, known: known}
}
