// Package leave holds the leave ledger and everything derived from it:
// per-category totals, the split-leave bonus and the entitlement summary.
//
// Derived values are never stored. Recompute rebuilds the whole summary
// from the records each time it is asked.
package leave

import (
	"fmt"
	"strings"
	"time"

	"github.com/Gonosen60/gestion-conges-app/generic"
)

// =============================================================================
// CATEGORY
// =============================================================================

// Category is one of the fixed leave kinds a record can charge.
type Category string

const (
	CategoryAnnualLeave     Category = "CA"
	CategoryRTT             Category = "RTT"
	CategorySeniorityLeave  Category = "RC"
	CategoryTimeSavings     Category = "CET"
	CategoryRTTI            Category = "RTTI"
	CategorySplitLeaveBonus Category = "FRAC"
)

// summary display order
var categories = []Category{
	CategoryAnnualLeave,
	CategoryRTT,
	CategorySeniorityLeave,
	CategorySplitLeaveBonus,
	CategoryTimeSavings,
	CategoryRTTI,
}

var labels = map[Category]string{
	CategoryAnnualLeave:     "Congés annuels",
	CategoryRTT:             "Réduction du temps de travail",
	CategorySeniorityLeave:  "Congés d'ancienneté",
	CategoryTimeSavings:     "Compte épargne-temps",
	CategoryRTTI:            "RTT individuels",
	CategorySplitLeaveBonus: "Jours de fractionnement",
}

// Categories returns every category in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

func (c Category) Valid() bool {
	_, ok := labels[c]
	return ok
}

func (c Category) Label() string {
	if l, ok := labels[c]; ok {
		return l
	}
	return string(c)
}

func (c Category) String() string { return string(c) }

// ParseCategory accepts a code in any case ("ca", "Rtt").
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", generic.ErrUnknownCategory, s)
	}
	return c, nil
}

// =============================================================================
// RECORD
// =============================================================================

// Record is one approved leave request.
//
// ChargedDays is computed by the working-day counter when the record is
// created and is read-only afterwards.
type Record struct {
	ID          string
	Category    Category
	Start       generic.Date
	End         generic.Date
	ChargedDays int
	CreatedAt   time.Time
}

func (r Record) Period() generic.Period {
	return generic.Period{Start: r.Start, End: r.End}
}

// Validate checks the category and the date range. It does not recount.
func (r Record) Validate() error {
	if !r.Category.Valid() {
		return fmt.Errorf("record %s: %w: %q", r.ID, generic.ErrUnknownCategory, r.Category)
	}
	if err := r.Period().Validate(); err != nil {
		return fmt.Errorf("record %s: %w", r.ID, err)
	}
	return nil
}
