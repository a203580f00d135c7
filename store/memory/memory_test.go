package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gonosen60/gestion-conges-app/calendar"
	"github.com/Gonosen60/gestion-conges-app/generic"
	"github.com/Gonosen60/gestion-conges-app/leave"
	"github.com/Gonosen60/gestion-conges-app/store/memory"
)

func TestMemory_SessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := memory.New()

	require.NoError(t, m.CreateSession(ctx, leave.Session{ID: "s1", Settings: leave.DefaultSettings(2025)}))

	got, err := m.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2025, got.Settings.ReferenceYear)

	// Mutating the returned entitlements must not leak into the store.
	got.Settings.Entitlements[leave.CategoryAnnualLeave] = generic.NewAmountFromInt(1)
	again, _ := m.GetSession(ctx, "s1")
	assert.True(t, again.Settings.Entitlements.Granted(leave.CategoryAnnualLeave).Equal(generic.NewAmountFromInt(25)))
}

func TestMemory_UnknownSession(t *testing.T) {
	ctx := context.Background()
	m := memory.New()

	_, err := m.GetSession(ctx, "nope")
	assert.ErrorIs(t, err, generic.ErrSessionNotFound)
	assert.ErrorIs(t, m.SaveRecords(ctx, "nope", nil), generic.ErrSessionNotFound)
	_, err = m.LoadRecords(ctx, "nope")
	assert.ErrorIs(t, err, generic.ErrSessionNotFound)
}

func TestMemory_RecordsKeepOrderAndAreCopied(t *testing.T) {
	ctx := context.Background()
	m := memory.New()
	require.NoError(t, m.CreateSession(ctx, leave.Session{ID: "s1", Settings: leave.DefaultSettings(2025)}))

	recs := []leave.Record{
		{ID: "b", Category: leave.CategoryRTT, Start: generic.NewDate(2025, time.March, 3), End: generic.NewDate(2025, time.March, 3), ChargedDays: 1},
		{ID: "a", Category: leave.CategoryAnnualLeave, Start: generic.NewDate(2025, time.January, 6), End: generic.NewDate(2025, time.January, 10), ChargedDays: 5},
	}
	require.NoError(t, m.SaveRecords(ctx, "s1", recs))
	recs[0].ID = "mutated"

	got, err := m.LoadRecords(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "a", got[1].ID)
}

func TestMemory_HolidayCache(t *testing.T) {
	ctx := context.Background()
	m := memory.New()

	_, found, err := m.LoadHolidays(ctx, 2025)
	require.NoError(t, err)
	assert.False(t, found)

	set := calendar.HolidaysOn(generic.NewDate(2025, time.July, 14))
	require.NoError(t, m.SaveHolidays(ctx, 2025, set))

	got, found, err := m.LoadHolidays(ctx, 2025)
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, got.Contains(generic.NewDate(2025, time.July, 14)))
}
