/*
ledger.go - Ordered collection of leave records

PURPOSE:
  The Ledger is the one place leave records live while a session is being
  worked on. Totals, the split-leave bonus and the summary are all derived
  from it on demand; none of them is stored next to the records.

OWNERSHIP:
  A Ledger is an explicit value owned by its caller. There is no global
  or per-process ledger. The Service loads one per session from the
  Repository, mutates it, and saves it back under a per-session lock.
  A Ledger itself is not safe for concurrent use.

EDITING:
  Add        Appends one record (already counted by the caller)
  ReplaceAll Bulk edit from an external editor, accepted as-is
  Remove     Deletes by position, immediately (no soft delete)
  Reset      Drops everything

  ReplaceAll does not recount anything. Service.ReplaceRecords is the
  entry point that recounts edited records before calling it.

SEE ALSO:
  - accrual.go: ComputeBonus reads the annual-leave records
  - summary.go: Recompute turns a ledger into an EntitlementSummary
*/
package leave

import (
	"sort"

	"github.com/Gonosen60/gestion-conges-app/generic"
)

type Ledger struct {
	records []Record
}

// NewLedger creates a ledger holding a copy of records, in order.
func NewLedger(records ...Record) *Ledger {
	l := &Ledger{}
	l.ReplaceAll(records)
	return l
}

func (l *Ledger) Add(r Record) {
	l.records = append(l.records, r)
}

// ReplaceAll swaps the whole collection for records.
func (l *Ledger) ReplaceAll(records []Record) {
	l.records = append([]Record(nil), records...)
}

// Remove deletes the record at index (ledger order) and returns it.
func (l *Ledger) Remove(index int) (Record, error) {
	if index < 0 || index >= len(l.records) {
		return Record{}, &generic.IndexError{Index: index, Len: len(l.records)}
	}
	removed := l.records[index]
	l.records = append(l.records[:index:index], l.records[index+1:]...)
	return removed, nil
}

func (l *Ledger) Reset() { l.records = nil }

func (l *Ledger) Len() int { return len(l.records) }

// Records returns a copy of the records in ledger order.
func (l *Ledger) Records() []Record {
	return append([]Record(nil), l.records...)
}

// ByCategory returns the records of one category, in ledger order.
func (l *Ledger) ByCategory(c Category) []Record {
	var out []Record
	for _, r := range l.records {
		if r.Category == c {
			out = append(out, r)
		}
	}
	return out
}

// TotalsByCategory sums ChargedDays per category. Every category is
// present in the result, at 0 when nothing was taken.
func (l *Ledger) TotalsByCategory() map[Category]int {
	totals := make(map[Category]int, len(categories))
	for _, c := range categories {
		totals[c] = 0
	}
	for _, r := range l.records {
		totals[r.Category] += r.ChargedDays
	}
	return totals
}

// History returns the records sorted by start date, newest first. Records
// starting the same day keep their ledger order.
func (l *Ledger) History() []Record {
	out := l.Records()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.After(out[j].Start)
	})
	return out
}
