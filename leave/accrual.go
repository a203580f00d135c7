/*
accrual.go - Split-leave bonus (jours de fractionnement)

RULE:
  The high season runs from May 1 to October 31 of the reference year,
  both inclusive. Every calendar day of an annual-leave (CA) record that
  falls outside it counts toward the bonus:

    days outside >= 8   -> +2 days
    days outside 5..7   -> +1 day
    otherwise           ->  0

  The window is anchored to the reference year whatever year a record's
  dates fall in, so a record in N+1 counts entirely as outside.

RAW CALENDAR DAYS:
  The scan covers the stored range, weekends and holidays included. It
  does not re-derive working days: ChargedDays already did that at entry
  time, and the bonus deliberately keeps the simpler raw-day reading.

PURITY:
  ComputeBonus depends only on its arguments. A record whose dates are
  missing or inverted is skipped and reported in BonusResult.Skipped; the
  rest of the computation carries on.
*/
package leave

import (
	"time"

	"github.com/Gonosen60/gestion-conges-app/generic"
)

// Bonus thresholds.
const (
	FullBonusThreshold    = 8
	PartialBonusThreshold = 5

	FullBonus    = 2
	PartialBonus = 1
)

// BonusResult is the outcome of ComputeBonus.
type BonusResult struct {
	Bonus                 int
	DaysOutsideHighSeason int
	// IDs of records skipped because of malformed dates.
	Skipped []string
}

// HighSeason returns May 1 .. Oct 31 of year.
func HighSeason(year int) generic.Period {
	return generic.Period{
		Start: generic.NewDate(year, time.May, 1),
		End:   generic.NewDate(year, time.October, 31),
	}
}

// BonusForDays maps a count of days taken outside the high season to the
// bonus it earns.
func BonusForDays(daysOutside int) int {
	switch {
	case daysOutside >= FullBonusThreshold:
		return FullBonus
	case daysOutside >= PartialBonusThreshold:
		return PartialBonus
	default:
		return 0
	}
}

// ComputeBonus derives the split-leave bonus from records. Only annual
// leave counts; other categories are ignored.
func ComputeBonus(records []Record, referenceYear int) BonusResult {
	season := HighSeason(referenceYear)
	var result BonusResult

	for _, r := range records {
		if r.Category != CategoryAnnualLeave {
			continue
		}
		p := r.Period()
		if p.Validate() != nil {
			result.Skipped = append(result.Skipped, r.ID)
			continue
		}
		result.DaysOutsideHighSeason += daysOutside(p, season)
	}

	result.Bonus = BonusForDays(result.DaysOutsideHighSeason)
	return result
}

// daysOutside counts the days of p not covered by season.
func daysOutside(p, season generic.Period) int {
	overlap, ok := p.Intersect(season)
	if !ok {
		return p.Len()
	}
	return p.Len() - overlap.Len()
}
