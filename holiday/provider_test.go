package holiday_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gonosen60/gestion-conges-app/calendar"
	"github.com/Gonosen60/gestion-conges-app/generic"
	"github.com/Gonosen60/gestion-conges-app/holiday"
)

// =============================================================================
// TEST SETUP
// =============================================================================

const payload2025 = `{
  "2025-01-01": "1er janvier",
  "2025-04-21": "Lundi de Pâques",
  "2025-05-01": "1er mai",
  "2025-05-08": "8 mai",
  "2025-05-29": "Ascension",
  "2025-06-09": "Lundi de Pentecôte",
  "2025-07-14": "14 juillet",
  "2025-08-15": "Assomption",
  "2025-11-01": "Toussaint",
  "2025-11-11": "11 novembre",
  "2025-12-25": "Jour de Noël"
}`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newHolidayAPI serves payload for /metropole/2025.json and 404 otherwise.
func newHolidayAPI(t *testing.T, hits *atomic.Int32) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/metropole/2025.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, payload2025)
	}))
	t.Cleanup(srv.Close)
	return srv
}

type fakeCache struct {
	mu    sync.Mutex
	sets  map[int]calendar.HolidaySet
	saves int
	err   error
}

func (c *fakeCache) LoadHolidays(_ context.Context, year int) (calendar.HolidaySet, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return calendar.HolidaySet{}, false, c.err
	}
	set, ok := c.sets[year]
	return set, ok, nil
}

func (c *fakeCache) SaveHolidays(_ context.Context, year int, set calendar.HolidaySet) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sets == nil {
		c.sets = make(map[int]calendar.HolidaySet)
	}
	c.sets[year] = set
	c.saves++
	return nil
}

// =============================================================================
// API SOURCE
// =============================================================================

func TestAPISource_ParsesPayload(t *testing.T) {
	var hits atomic.Int32
	srv := newHolidayAPI(t, &hits)

	src := holiday.NewAPISource(srv.URL, "", time.Second)
	set, err := src.Holidays(context.Background(), 2025)
	require.NoError(t, err)

	assert.Equal(t, 11, set.Len())
	name, ok := set.Name(generic.NewDate(2025, time.July, 14))
	assert.True(t, ok)
	assert.Equal(t, "14 juillet", name)
}

func TestAPISource_NonOKStatus(t *testing.T) {
	var hits atomic.Int32
	srv := newHolidayAPI(t, &hits)

	_, err := holiday.NewAPISource(srv.URL, "metropole", time.Second).Holidays(context.Background(), 1999)

	require.Error(t, err)
	assert.ErrorIs(t, err, generic.ErrHolidayLookup)
	var lookupErr *generic.HolidayLookupError
	require.True(t, errors.As(err, &lookupErr))
	assert.Equal(t, http.StatusNotFound, lookupErr.StatusCode)
}

func TestAPISource_MalformedPayload(t *testing.T) {
	for name, body := range map[string]string{
		"not json":     `<html>maintenance</html>`,
		"bad date key": `{"14/07/2025": "14 juillet"}`,
		"array":        `["2025-07-14"]`,
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, body)
			}))
			defer srv.Close()

			_, err := holiday.NewAPISource(srv.URL, "", time.Second).Holidays(context.Background(), 2025)
			assert.ErrorIs(t, err, generic.ErrHolidayLookup)
		})
	}
}

// =============================================================================
// PROVIDER
// =============================================================================

func TestProvider_CachesPerYear(t *testing.T) {
	var hits atomic.Int32
	srv := newHolidayAPI(t, &hits)
	p := holiday.NewProvider(holiday.NewAPISource(srv.URL, "", time.Second), nil, quietLogger())

	first := p.Fetch(context.Background(), 2025)
	second := p.Fetch(context.Background(), 2025)

	assert.Equal(t, 11, first.Len())
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), hits.Load(), "second fetch must come from cache")
}

func TestProvider_UnreachableEndpoint_DegradesToEmpty(t *testing.T) {
	// GIVEN: a holiday endpoint that is down
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p := holiday.NewProvider(holiday.NewAPISource(url, "", 200*time.Millisecond), nil, quietLogger())

	// WHEN: fetching holidays
	set := p.Fetch(context.Background(), 2025)

	// THEN: empty set, no panic, no error
	assert.Equal(t, 0, set.Len())

	// AND: counting Jul 14 2025 charges it as a working day
	day := generic.NewDate(2025, time.July, 14)
	res, err := calendar.NewCounter(nil).Count(generic.Period{Start: day, End: day}, set)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Chargeable)
}

func TestProvider_FailureIsNotCached(t *testing.T) {
	var hits atomic.Int32
	srv := newHolidayAPI(t, &hits)
	p := holiday.NewProvider(holiday.NewAPISource(srv.URL, "", time.Second), nil, quietLogger())

	assert.Equal(t, 0, p.Fetch(context.Background(), 1999).Len())
	assert.Equal(t, 0, p.Fetch(context.Background(), 1999).Len())
	assert.Equal(t, int32(2), hits.Load())
}

func TestProvider_DegradedYearIsNotCovered(t *testing.T) {
	var hits atomic.Int32
	srv := newHolidayAPI(t, &hits)
	p := holiday.NewProvider(holiday.NewAPISource(srv.URL, "", time.Second), nil, quietLogger())

	// WHEN: 2025 is served, 1999 fails
	set := p.ForYears(context.Background(), 2025, 1999)

	// THEN: only the year actually obtained is covered
	assert.True(t, set.CoversYear(2025))
	assert.False(t, set.CoversYear(1999))
	assert.True(t, set.Covers(generic.Period{Start: generic.NewDate(2025, time.July, 14), End: generic.NewDate(2025, time.July, 18)}))
	assert.False(t, set.Covers(generic.Period{Start: generic.NewDate(1999, time.December, 30), End: generic.NewDate(2025, time.January, 2)}))
}

func TestProvider_ForReferenceYearMergesNextYear(t *testing.T) {
	p := holiday.NewProvider(holiday.NewBuiltinSource(), nil, quietLogger())

	set := p.ForReferenceYear(context.Background(), 2025)

	assert.True(t, set.Contains(generic.NewDate(2025, time.July, 14)))
	assert.True(t, set.Contains(generic.NewDate(2026, time.January, 1)))
	assert.False(t, set.Contains(generic.NewDate(2027, time.January, 1)))
}

func TestProvider_UsesPersistentCache(t *testing.T) {
	var hits atomic.Int32
	srv := newHolidayAPI(t, &hits)
	cache := &fakeCache{}

	// First provider fetches from the API and fills the cache.
	first := holiday.NewProvider(holiday.NewAPISource(srv.URL, "", time.Second), cache, quietLogger())
	assert.Equal(t, 11, first.Fetch(context.Background(), 2025).Len())
	assert.Equal(t, 1, cache.saves)

	// A fresh provider (new process) reads from the cache only.
	second := holiday.NewProvider(holiday.NewAPISource(srv.URL, "", time.Second), cache, quietLogger())
	assert.Equal(t, 11, second.Fetch(context.Background(), 2025).Len())
	assert.Equal(t, int32(1), hits.Load())
}

func TestProvider_CacheReadErrorFallsBackToSource(t *testing.T) {
	var hits atomic.Int32
	srv := newHolidayAPI(t, &hits)
	cache := &fakeCache{err: errors.New("disk full")}

	p := holiday.NewProvider(holiday.NewAPISource(srv.URL, "", time.Second), cache, quietLogger())
	assert.Equal(t, 11, p.Fetch(context.Background(), 2025).Len())
	assert.Equal(t, int32(1), hits.Load())
}

func TestProvider_ConcurrentFetchesAgree(t *testing.T) {
	var hits atomic.Int32
	srv := newHolidayAPI(t, &hits)
	p := holiday.NewProvider(holiday.NewAPISource(srv.URL, "", time.Second), nil, quietLogger())

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = p.Fetch(context.Background(), 2025).Len()
		}(i)
	}
	wg.Wait()

	for _, n := range results {
		assert.Equal(t, 11, n)
	}
	assert.GreaterOrEqual(t, hits.Load(), int32(1))
}

// =============================================================================
// BUILTIN SOURCE
// =============================================================================

func TestBuiltinSource_FixedAndMovableFeasts(t *testing.T) {
	set, err := holiday.NewBuiltinSource().Holidays(context.Background(), 2025)
	require.NoError(t, err)

	for _, d := range []generic.Date{
		generic.NewDate(2025, time.January, 1),
		generic.NewDate(2025, time.April, 21), // Easter Monday
		generic.NewDate(2025, time.May, 1),
		generic.NewDate(2025, time.May, 8),
		generic.NewDate(2025, time.July, 14),
		generic.NewDate(2025, time.August, 15),
		generic.NewDate(2025, time.November, 1),
		generic.NewDate(2025, time.November, 11),
		generic.NewDate(2025, time.December, 25),
	} {
		assert.True(t, set.Contains(d), d.String())
	}
	assert.False(t, set.Contains(generic.NewDate(2025, time.July, 15)))
}
