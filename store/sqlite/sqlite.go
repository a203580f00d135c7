/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Persists sessions, their leave ledgers and the holiday cache so that a
  restarted server (or the CLI) picks up where it left off.

INTERFACES IMPLEMENTED:
  leave.Repository: Sessions, settings and ledgers
  holiday.Cache:    Holiday sets per year

KEY TABLES:
  sessions:       One row per session (reference year)
  entitlements:   Granted days per session and category
  leave_records:  Ledger rows, ordered by position
  holiday_years:  Years already fetched
  holidays:       Holiday dates and names per year

LEDGER WRITES:
  SaveRecords replaces a session's ledger inside one SQL transaction:
  delete all rows, insert the new ones with their position. A failed
  insert rolls the whole ledger back.

MALFORMED DATES:
  A stored date that no longer parses is loaded as the zero Date and
  logged at WARN with the row's session and record IDs. The record stays
  in the ledger and ComputeBonus skips it; loading does not fail.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety, and a single connection so that
  ":memory:" databases are shared by every query.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

MIGRATION:
  Schema is versioned under migrations/ and applied on New() with
  golang-migrate (embedded iofs source, sqlite3 driver).

USAGE:
  store, err := sqlite.New("./data/conges.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - leave/service.go: Repository interface
  - holiday/provider.go: Cache interface
  - store/memory/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Gonosen60/gestion-conges-app/calendar"
	"github.com/Gonosen60/gestion-conges-app/generic"
	"github.com/Gonosen60/gestion-conges-app/leave"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store implements leave.Repository and holiday.Cache using SQLite.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used to report unreadable rows.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger.With("component", "sqlite")
		}
	}
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db, logger: slog.Default()}
	for _, opt := range opts {
		opt(store)
	}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate applies every pending migration. The migrate instance is not
// closed: its sqlite3 driver would close s.db with it.
func (s *Store) migrate() error {
	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// =============================================================================
// SESSIONS (leave.Repository)
// =============================================================================

func (s *Store) CreateSession(ctx context.Context, sess leave.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO sessions (id, reference_year, created_at) VALUES (?, ?, ?)`,
			sess.ID, sess.Settings.ReferenceYear, formatTime(sess.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		return writeEntitlements(ctx, tx, sess.ID, sess.Settings.Entitlements)
	})
}

func (s *Store) GetSession(ctx context.Context, id string) (leave.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		sess      = leave.Session{ID: id}
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT reference_year, created_at FROM sessions WHERE id = ?`, id,
	).Scan(&sess.Settings.ReferenceYear, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return leave.Session{}, generic.ErrSessionNotFound
	}
	if err != nil {
		return leave.Session{}, fmt.Errorf("query session: %w", err)
	}
	sess.CreatedAt = parseTime(createdAt)

	sess.Settings.Entitlements, err = s.readEntitlements(ctx, id)
	if err != nil {
		return leave.Session{}, err
	}
	return sess, nil
}

func (s *Store) SaveSettings(ctx context.Context, id string, settings leave.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE sessions SET reference_year = ? WHERE id = ?`, settings.ReferenceYear, id)
		if err != nil {
			return fmt.Errorf("update session: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return generic.ErrSessionNotFound
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM entitlements WHERE session_id = ?`, id); err != nil {
			return fmt.Errorf("clear entitlements: %w", err)
		}
		return writeEntitlements(ctx, tx, id, settings.Entitlements)
	})
}

func writeEntitlements(ctx context.Context, tx *sql.Tx, id string, ents leave.Entitlements) error {
	for c, a := range ents {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO entitlements (session_id, category, granted) VALUES (?, ?, ?)`,
			id, string(c), a.String(),
		)
		if err != nil {
			return fmt.Errorf("insert entitlement %s: %w", c, err)
		}
	}
	return nil
}

func (s *Store) readEntitlements(ctx context.Context, id string) (leave.Entitlements, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT category, granted FROM entitlements WHERE session_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("query entitlements: %w", err)
	}
	defer rows.Close()

	ents := leave.Entitlements{}
	for rows.Next() {
		var category, granted string
		if err := rows.Scan(&category, &granted); err != nil {
			return nil, fmt.Errorf("scan entitlement: %w", err)
		}
		amount, err := generic.ParseAmount(granted)
		if err != nil {
			return nil, fmt.Errorf("entitlement %s: %w", category, err)
		}
		ents[leave.Category(category)] = amount
	}
	return ents, rows.Err()
}

// =============================================================================
// LEDGER (leave.Repository)
// =============================================================================

func (s *Store) LoadRecords(ctx context.Context, id string) ([]leave.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.requireSession(ctx, s.db, id); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category, start_date, end_date, charged_days, created_at
		FROM leave_records
		WHERE session_id = ?
		ORDER BY position ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []leave.Record
	for rows.Next() {
		var (
			r                         leave.Record
			category, start, end, cAt string
		)
		if err := rows.Scan(&r.ID, &category, &start, &end, &r.ChargedDays, &cAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r.Category = leave.Category(category)
		r.Start = s.storedDate(ctx, id, r.ID, "start_date", start)
		r.End = s.storedDate(ctx, id, r.ID, "end_date", end)
		r.CreatedAt = parseTime(cAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

// SaveRecords replaces the ledger of id in one transaction.
func (s *Store) SaveRecords(ctx context.Context, id string, records []leave.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.requireSession(ctx, tx, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM leave_records WHERE session_id = ?`, id); err != nil {
			return fmt.Errorf("clear records: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO leave_records (session_id, id, position, category, start_date, end_date, charged_days, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for i, r := range records {
			_, err := stmt.ExecContext(ctx,
				id, r.ID, i, string(r.Category),
				r.Start.String(), r.End.String(),
				r.ChargedDays, formatTime(r.CreatedAt),
			)
			if err != nil {
				return fmt.Errorf("insert record %s: %w", r.ID, err)
			}
		}
		return nil
	})
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) requireSession(ctx context.Context, q queryer, id string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return generic.ErrSessionNotFound
	}
	return err
}

// =============================================================================
// HOLIDAY CACHE (holiday.Cache)
// =============================================================================

func (s *Store) LoadHolidays(ctx context.Context, year int) (calendar.HolidaySet, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM holiday_years WHERE year = ?`, year).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return calendar.HolidaySet{}, false, nil
	}
	if err != nil {
		return calendar.HolidaySet{}, false, fmt.Errorf("query holiday year: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT day, name FROM holidays WHERE year = ? ORDER BY day ASC`, year)
	if err != nil {
		return calendar.HolidaySet{}, false, fmt.Errorf("query holidays: %w", err)
	}
	defer rows.Close()

	names := make(map[generic.Date]string)
	for rows.Next() {
		var day, name string
		if err := rows.Scan(&day, &name); err != nil {
			return calendar.HolidaySet{}, false, fmt.Errorf("scan holiday: %w", err)
		}
		d, err := generic.ParseISODate(day)
		if err != nil {
			continue
		}
		names[d] = name
	}
	if err := rows.Err(); err != nil {
		return calendar.HolidaySet{}, false, err
	}
	return calendar.NewHolidaySet(names), true, nil
}

// SaveHolidays stores the holidays of year, replacing any previous set.
func (s *Store) SaveHolidays(ctx context.Context, year int, set calendar.HolidaySet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM holidays WHERE year = ?`, year); err != nil {
			return fmt.Errorf("clear holidays: %w", err)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO holiday_years (year, fetched_at) VALUES (?, ?)
			ON CONFLICT(year) DO UPDATE SET fetched_at = excluded.fetched_at
		`, year, formatTime(time.Now()))
		if err != nil {
			return fmt.Errorf("upsert holiday year: %w", err)
		}
		for _, d := range set.Dates() {
			name, _ := set.Name(d)
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO holidays (year, day, name) VALUES (?, ?, ?)`, year, d.String(), name,
			); err != nil {
				return fmt.Errorf("insert holiday %s: %w", d, err)
			}
		}
		return nil
	})
}

// =============================================================================
// HELPERS
// =============================================================================

// withTx runs fn in a transaction. Callers hold s.mu.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(sqlTx); err != nil {
		return err
	}
	return sqlTx.Commit()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// storedDate parses a date column, logging and returning the zero Date
// when the stored value is unreadable.
func (s *Store) storedDate(ctx context.Context, sessionID, recordID, column, value string) generic.Date {
	d, err := generic.ParseISODate(value)
	if err != nil {
		s.logger.WarnContext(ctx, "stored record has a malformed date",
			"session_id", sessionID, "record_id", recordID, "column", column, "value", value, "error", err)
		return generic.Date{}
	}
	return d
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
