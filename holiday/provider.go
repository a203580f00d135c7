/*
provider.go - Cached, failure-tolerant holiday lookup

PURPOSE:
  Public holidays of a past or current year never change, so each year is
  looked up once and kept for the life of the process. A persistent Cache
  (the SQLite store) can also keep them across restarts.

LOOKUP ORDER:
  1. In-memory map
  2. Persistent Cache (optional)
  3. Source (network or builtin), single attempt, no retry

FAILURE POLICY:
  Fetch never returns an error. A failed lookup is logged and yields an
  empty set: holidays then count as working days (degraded, accepted).
  That set does not cover the year (HolidaySet.CoversYear), so callers
  can tell "no holiday" from "unknown". Failures are not cached, so the
  next call tries the source again.

CONCURRENCY:
  HTTP handlers may ask for the same year at the same time. singleflight
  collapses those into one outbound call.
*/
package holiday

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/Gonosen60/gestion-conges-app/calendar"
)

// Cache persists holiday sets between runs.
type Cache interface {
	// LoadHolidays returns (set, true, nil) when year was stored before.
	LoadHolidays(ctx context.Context, year int) (calendar.HolidaySet, bool, error)
	SaveHolidays(ctx context.Context, year int, set calendar.HolidaySet) error
}

// Provider is safe for concurrent use.
type Provider struct {
	source Source
	cache  Cache
	logger *slog.Logger

	mu    sync.RWMutex
	years map[int]calendar.HolidaySet
	group singleflight.Group
}

// NewProvider creates a provider. cache and logger may be nil.
func NewProvider(source Source, cache Cache, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		source: source,
		cache:  cache,
		logger: logger.With("component", "holiday", "source", source.Name()),
		years:  make(map[int]calendar.HolidaySet),
	}
}

// Fetch returns the holidays of year, or an empty set if they cannot be
// obtained.
func (p *Provider) Fetch(ctx context.Context, year int) calendar.HolidaySet {
	p.mu.RLock()
	set, ok := p.years[year]
	p.mu.RUnlock()
	if ok {
		return set
	}

	v, _, _ := p.group.Do(strconv.Itoa(year), func() (any, error) {
		set, ok := p.lookup(ctx, year)
		if ok {
			p.mu.Lock()
			p.years[year] = set
			p.mu.Unlock()
		}
		return set, nil
	})
	return v.(calendar.HolidaySet)
}

// ForYears merges the holidays of several years.
func (p *Provider) ForYears(ctx context.Context, years ...int) calendar.HolidaySet {
	var merged calendar.HolidaySet
	for _, y := range years {
		merged = merged.Merge(p.Fetch(ctx, y))
	}
	return merged
}

// ForReferenceYear covers the booking window of reference year N, which
// runs into N+1.
func (p *Provider) ForReferenceYear(ctx context.Context, year int) calendar.HolidaySet {
	return p.ForYears(ctx, year, year+1)
}

// Forget drops a year from the in-memory cache.
func (p *Provider) Forget(year int) {
	p.mu.Lock()
	delete(p.years, year)
	p.mu.Unlock()
}

func (p *Provider) lookup(ctx context.Context, year int) (calendar.HolidaySet, bool) {
	if p.cache != nil {
		set, found, err := p.cache.LoadHolidays(ctx, year)
		switch {
		case err != nil:
			p.logger.WarnContext(ctx, "holiday cache read failed", "year", year, "error", err)
		case found:
			p.logger.DebugContext(ctx, "holidays loaded from cache", "year", year, "count", set.Len())
			return set.Covering(year), true
		}
	}

	set, err := p.source.Holidays(ctx, year)
	if err != nil {
		p.logger.WarnContext(ctx, "holiday lookup degraded to empty set", "year", year, "error", err)
		return calendar.HolidaySet{}, false
	}
	set = set.Covering(year)
	p.logger.InfoContext(ctx, "holidays fetched", "year", year, "count", set.Len())

	if p.cache != nil {
		if err := p.cache.SaveHolidays(ctx, year, set); err != nil {
			p.logger.WarnContext(ctx, "holiday cache write failed", "year", year, "error", err)
		}
	}
	return set, true
}
