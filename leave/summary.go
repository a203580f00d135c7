/*
summary.go - Entitlement summary projection

PURPOSE:
  Recompute turns a ledger into the per-category balances shown to the
  user. It is a pure function: same ledger, year, holidays and
  entitlements always give the same Summary, and nothing is persisted.

BALANCES:
  granted   = configured entitlement (FRAC: the computed bonus)
  taken     = sum of ChargedDays in the category
  remaining = granted - taken, may go negative (over-drawn)

STALE RECORDS:
  ChargedDays is fixed when a record is created. When the holiday set
  given to Recompute would count a record differently (a holiday lookup
  that was degraded at entry time, for instance) the record is listed in
  Summary.Stale. Totals still use the stored value. A record is only
  checked when the holiday set covers every year it touches, so a
  degraded lookup never flags a correct record.
*/
package leave

import (
	"fmt"
	"sort"

	"github.com/Gonosen60/gestion-conges-app/calendar"
	"github.com/Gonosen60/gestion-conges-app/generic"
)

// =============================================================================
// ENTITLEMENTS
// =============================================================================

// Entitlements are the granted days per category for one reference year.
// The split-leave bonus is never read from here.
type Entitlements map[Category]generic.Amount

// DefaultEntitlements returns CA 25, RTT 15 and 0 for RC, CET and RTTI.
func DefaultEntitlements() Entitlements {
	return Entitlements{
		CategoryAnnualLeave:    generic.NewAmountFromInt(25),
		CategoryRTT:            generic.NewAmountFromInt(15),
		CategorySeniorityLeave: generic.NewAmountFromInt(0),
		CategoryTimeSavings:    generic.NewAmountFromInt(0),
		CategoryRTTI:           generic.NewAmountFromInt(0),
	}
}

// Granted returns the entitlement of c, 0 when unset.
func (e Entitlements) Granted(c Category) generic.Amount {
	if a, ok := e[c]; ok {
		return a
	}
	return generic.NewAmountFromInt(0)
}

// Clone returns a copy that can be modified independently.
func (e Entitlements) Clone() Entitlements {
	out := make(Entitlements, len(e))
	for c, a := range e {
		out[c] = a
	}
	return out
}

// Validate rejects unknown categories, a FRAC entry and negative values.
func (e Entitlements) Validate() error {
	for c, a := range e {
		if !c.Valid() {
			return fmt.Errorf("entitlement %q: %w", c, generic.ErrUnknownCategory)
		}
		if c == CategorySplitLeaveBonus {
			return fmt.Errorf("%w: %s is computed, not granted", generic.ErrInvalidSettings, c)
		}
		if a.IsNegative() {
			return fmt.Errorf("%w: negative entitlement %s for %s", generic.ErrInvalidSettings, a, c)
		}
	}
	return nil
}

// =============================================================================
// SUMMARY
// =============================================================================

type Balance struct {
	Category  Category
	Granted   generic.Amount
	Taken     generic.Amount
	Remaining generic.Amount
}

func (b Balance) Overdrawn() bool { return b.Remaining.IsNegative() }

// StaleRecord is a record whose stored ChargedDays differs from a recount.
type StaleRecord struct {
	ID        string
	Stored    int
	Recounted int
}

// Summary is the EntitlementSummary of one ledger for one reference year.
type Summary struct {
	ReferenceYear         int
	Window                generic.Period
	Balances              []Balance // display order, see Categories
	SplitLeaveBonus       int
	DaysOutsideHighSeason int
	Skipped               []string
	Stale                 []StaleRecord
}

// Balance returns the balance of c.
func (s Summary) Balance(c Category) (Balance, bool) {
	for _, b := range s.Balances {
		if b.Category == c {
			return b, true
		}
	}
	return Balance{}, false
}

// Recompute derives the Summary of ledger. holidays is only used to flag
// stale records and should cover the years of the records (see
// LedgerYears).
func Recompute(ledger *Ledger, referenceYear int, holidays calendar.HolidaySet, entitlements Entitlements) Summary {
	if ledger == nil {
		ledger = NewLedger()
	}
	records := ledger.Records()
	bonus := ComputeBonus(records, referenceYear)
	taken := ledger.TotalsByCategory()

	s := Summary{
		ReferenceYear:         referenceYear,
		Window:                ValidityWindow(referenceYear),
		Balances:              make([]Balance, 0, len(categories)),
		SplitLeaveBonus:       bonus.Bonus,
		DaysOutsideHighSeason: bonus.DaysOutsideHighSeason,
		Skipped:               bonus.Skipped,
	}

	for _, c := range categories {
		granted := entitlements.Granted(c)
		if c == CategorySplitLeaveBonus {
			granted = generic.NewAmountFromInt(bonus.Bonus)
		}
		t := generic.NewAmountFromInt(taken[c])
		s.Balances = append(s.Balances, Balance{
			Category:  c,
			Granted:   granted,
			Taken:     t,
			Remaining: granted.Sub(t),
		})
	}

	s.Stale = staleRecords(records, holidays)
	return s
}

// LedgerYears lists, in order, the calendar years touched by valid
// records. Years outside SupportedDates are left out.
func LedgerYears(records []Record) []int {
	supported := SupportedDates()
	seen := make(map[int]bool)
	var years []int
	for _, r := range records {
		p := r.Period()
		if p.Validate() != nil {
			continue
		}
		for y := p.Start.Year(); y <= p.End.Year(); y++ {
			if seen[y] || y < supported.Start.Year() || y > supported.End.Year() {
				continue
			}
			seen[y] = true
			years = append(years, y)
		}
	}
	sort.Ints(years)
	return years
}

func staleRecords(records []Record, holidays calendar.HolidaySet) []StaleRecord {
	counter := calendar.NewCounter(nil)
	var stale []StaleRecord
	for _, r := range records {
		if !holidays.Covers(r.Period()) {
			continue
		}
		res, err := counter.Count(r.Period(), holidays)
		if err != nil {
			continue
		}
		if res.Chargeable != r.ChargedDays {
			stale = append(stale, StaleRecord{ID: r.ID, Stored: r.ChargedDays, Recounted: res.Chargeable})
		}
	}
	return stale
}
