// Package memory provides in-memory implementations of leave.Repository
// and holiday.Cache, for tests and STORE=memory deployments.
package memory

import (
	"context"
	"sync"

	"github.com/Gonosen60/gestion-conges-app/calendar"
	"github.com/Gonosen60/gestion-conges-app/generic"
	"github.com/Gonosen60/gestion-conges-app/leave"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	sessions map[string]leave.Session
	records  map[string][]leave.Record
	holidays map[int]calendar.HolidaySet
}

func New() *Memory {
	return &Memory{
		sessions: make(map[string]leave.Session),
		records:  make(map[string][]leave.Record),
		holidays: make(map[int]calendar.HolidaySet),
	}
}

// ===== Sessions =====

func (m *Memory) CreateSession(_ context.Context, s leave.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.Settings.Entitlements = s.Settings.Entitlements.Clone()
	m.sessions[s.ID] = s
	return nil
}

func (m *Memory) GetSession(_ context.Context, id string) (leave.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return leave.Session{}, generic.ErrSessionNotFound
	}
	s.Settings.Entitlements = s.Settings.Entitlements.Clone()
	return s, nil
}

func (m *Memory) SaveSettings(_ context.Context, id string, settings leave.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return generic.ErrSessionNotFound
	}
	s.Settings = leave.Settings{ReferenceYear: settings.ReferenceYear, Entitlements: settings.Entitlements.Clone()}
	m.sessions[id] = s
	return nil
}

// ===== Records =====

func (m *Memory) LoadRecords(_ context.Context, id string) ([]leave.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.sessions[id]; !ok {
		return nil, generic.ErrSessionNotFound
	}
	result := make([]leave.Record, len(m.records[id]))
	copy(result, m.records[id])
	return result, nil
}

// SaveRecords replaces the ledger of id. Atomic by construction.
func (m *Memory) SaveRecords(_ context.Context, id string, records []leave.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return generic.ErrSessionNotFound
	}
	m.records[id] = append([]leave.Record(nil), records...)
	return nil
}

// ===== Holiday cache =====

func (m *Memory) LoadHolidays(_ context.Context, year int) (calendar.HolidaySet, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set, ok := m.holidays[year]
	return set, ok, nil
}

func (m *Memory) SaveHolidays(_ context.Context, year int, set calendar.HolidaySet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holidays[year] = set
	return nil
}
