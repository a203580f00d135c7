package leave_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Gonosen60/gestion-conges-app/generic"
	"github.com/Gonosen60/gestion-conges-app/leave"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(year int, month time.Month, day int) generic.Date {
	return generic.NewDate(year, month, day)
}

func annual(id string, start, end generic.Date, charged int) leave.Record {
	return leave.Record{ID: id, Category: leave.CategoryAnnualLeave, Start: start, End: end, ChargedDays: charged}
}

// =============================================================================
// BONUS TESTS
// =============================================================================

func TestBonusForDays_Thresholds(t *testing.T) {
	cases := map[int]int{0: 0, 4: 0, 5: 1, 6: 1, 7: 1, 8: 2, 20: 2}
	for days, want := range cases {
		assert.Equal(t, want, leave.BonusForDays(days), "days outside = %d", days)
	}
}

func TestComputeBonus_NovemberWeek(t *testing.T) {
	// GIVEN: reference year 2025, one CA record Nov 10..14 2025
	records := []leave.Record{annual("r1", date(2025, time.November, 10), date(2025, time.November, 14), 4)}

	// WHEN
	res := leave.ComputeBonus(records, 2025)

	// THEN: 5 calendar days after Oct 31, bonus 1
	assert.Equal(t, 5, res.DaysOutsideHighSeason)
	assert.Equal(t, 1, res.Bonus)
	assert.Empty(t, res.Skipped)
}

func TestComputeBonus_CountsRawCalendarDays(t *testing.T) {
	// Fri Dec 19 .. Mon Dec 29 2025 holds two weekends and Christmas:
	// 11 calendar days, all of them counted.
	res := leave.ComputeBonus([]leave.Record{annual("r1", date(2025, time.December, 19), date(2025, time.December, 29), 6)}, 2025)
	assert.Equal(t, 11, res.DaysOutsideHighSeason)
	assert.Equal(t, 2, res.Bonus)
}

func TestComputeBonus_RecordStraddlingSeasonStart(t *testing.T) {
	// Apr 28 .. May 5: only Apr 28, 29, 30 are outside.
	res := leave.ComputeBonus([]leave.Record{annual("r1", date(2025, time.April, 28), date(2025, time.May, 5), 5)}, 2025)
	assert.Equal(t, 3, res.DaysOutsideHighSeason)
	assert.Equal(t, 0, res.Bonus)
}

func TestComputeBonus_RecordStraddlingSeasonEnd(t *testing.T) {
	// Oct 30 .. Nov 4: Nov 1..4 are outside.
	res := leave.ComputeBonus([]leave.Record{annual("r1", date(2025, time.October, 30), date(2025, time.November, 4), 4)}, 2025)
	assert.Equal(t, 4, res.DaysOutsideHighSeason)
}

func TestComputeBonus_WindowAnchoredToReferenceYear(t *testing.T) {
	// A July 2026 record is outside the 2025 high season.
	res := leave.ComputeBonus([]leave.Record{annual("r1", date(2026, time.July, 6), date(2026, time.July, 10), 5)}, 2025)
	assert.Equal(t, 5, res.DaysOutsideHighSeason)
	assert.Equal(t, 1, res.Bonus)
}

func TestComputeBonus_InsideSeasonAndOtherCategoriesIgnored(t *testing.T) {
	records := []leave.Record{
		annual("summer", date(2025, time.July, 7), date(2025, time.July, 25), 15),
		{ID: "rtt", Category: leave.CategoryRTT, Start: date(2025, time.January, 6), End: date(2025, time.January, 17), ChargedDays: 10},
	}
	res := leave.ComputeBonus(records, 2025)
	assert.Equal(t, 0, res.DaysOutsideHighSeason)
	assert.Equal(t, 0, res.Bonus)
}

func TestComputeBonus_SkipsMalformedRecords(t *testing.T) {
	// GIVEN: one valid record and two with unusable dates
	records := []leave.Record{
		{ID: "missing", Category: leave.CategoryAnnualLeave},
		annual("inverted", date(2025, time.February, 10), date(2025, time.February, 3), 5),
		annual("ok", date(2025, time.February, 3), date(2025, time.February, 9), 5),
	}

	// WHEN
	res := leave.ComputeBonus(records, 2025)

	// THEN: the valid one still counts
	assert.Equal(t, 7, res.DaysOutsideHighSeason)
	assert.Equal(t, 1, res.Bonus)
	assert.Equal(t, []string{"missing", "inverted"}, res.Skipped)
}

func TestComputeBonus_IsPure(t *testing.T) {
	records := []leave.Record{
		annual("a", date(2025, time.February, 17), date(2025, time.February, 21), 5),
		annual("b", date(2025, time.December, 22), date(2025, time.December, 24), 3),
	}
	first := leave.ComputeBonus(records, 2025)
	second := leave.ComputeBonus(records, 2025)
	assert.Equal(t, first, second)
	assert.Equal(t, 8, first.DaysOutsideHighSeason)
	assert.Equal(t, 2, first.Bonus)
}

func TestHighSeasonAndWindow(t *testing.T) {
	season := leave.HighSeason(2025)
	assert.True(t, season.Contains(date(2025, time.May, 1)))
	assert.True(t, season.Contains(date(2025, time.October, 31)))
	assert.False(t, season.Contains(date(2025, time.November, 1)))

	window := leave.ValidityWindow(2025)
	assert.Equal(t, date(2025, time.January, 1), window.Start)
	assert.Equal(t, date(2026, time.March, 31), window.End)

	err := leave.CheckWindow(generic.Period{Start: date(2026, time.March, 30), End: date(2026, time.April, 2)}, window)
	assert.ErrorIs(t, err, generic.ErrOutsideWindow)
	assert.NoError(t, leave.CheckWindow(window, window))
}
