/*
service.go - Session-scoped leave operations

PURPOSE:
  The Service is what the HTTP API and the CLI call. It loads a session's
  ledger from the Repository, applies one operation, saves it back and
  returns the result. Counting and summaries go through calendar.Counter
  and Recompute; the Service adds validation, IDs, timestamps and logging.

SUBMISSION FLOW:
  1. Category must be known                  -> ErrUnknownCategory
  2. End must not precede start              -> ErrInvalidRange (nothing counted)
  3. Both dates inside the validity window   -> ErrOutsideWindow
  4. Count against holidays of the range's years
  5. Zero chargeable days                    -> result with Created=false
  6. Otherwise append the record and persist

EDIT POLICY (ReplaceRecords):
  ChargedDays is read-only for clients. A record keeps its stored value
  when its ID and dates match the stored record; a new record or one whose
  dates changed is recounted with the current holidays. An edit that
  leaves a record with no chargeable day is rejected as a whole
  (ErrZeroChargeableDays), so no zero-day record is ever persisted.

CONCURRENCY:
  Mutations of one session are serialized with a per-session mutex.
  Different sessions never block each other.
*/
package leave

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Gonosen60/gestion-conges-app/calendar"
	"github.com/Gonosen60/gestion-conges-app/generic"
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Repository persists sessions and their ledgers.
type Repository interface {
	CreateSession(ctx context.Context, s Session) error
	// GetSession returns generic.ErrSessionNotFound for an unknown id.
	GetSession(ctx context.Context, id string) (Session, error)
	SaveSettings(ctx context.Context, id string, settings Settings) error
	// LoadRecords returns the ledger in insertion order.
	LoadRecords(ctx context.Context, id string) ([]Record, error)
	// SaveRecords replaces the whole ledger atomically.
	SaveRecords(ctx context.Context, id string, records []Record) error
}

// HolidayProvider is satisfied by *holiday.Provider.
type HolidayProvider interface {
	ForYears(ctx context.Context, years ...int) calendar.HolidaySet
}

// =============================================================================
// SESSION
// =============================================================================

// Settings are the per-session parameters.
type Settings struct {
	ReferenceYear int
	Entitlements  Entitlements
}

// DefaultSettings returns the default entitlements for referenceYear.
func DefaultSettings(referenceYear int) Settings {
	return Settings{ReferenceYear: referenceYear, Entitlements: DefaultEntitlements()}
}

func (s Settings) Validate() error {
	if s.ReferenceYear < MinReferenceYear || s.ReferenceYear > MaxReferenceYear {
		return fmt.Errorf("%w: reference year %d not in [%d, %d]",
			generic.ErrInvalidSettings, s.ReferenceYear, MinReferenceYear, MaxReferenceYear)
	}
	return s.Entitlements.Validate()
}

// Session is one user's workspace: settings plus a ledger in the Repository.
type Session struct {
	ID        string
	Settings  Settings
	CreatedAt time.Time
}

// Request is a leave request as typed by the user.
type Request struct {
	Category Category
	Start    generic.Date
	End      generic.Date
}

func (r Request) Period() generic.Period {
	return generic.Period{Start: r.Start, End: r.End}
}

// SubmitResult reports a submission. Created is false when the range holds
// no working day; Record is then the zero value and Index is -1.
type SubmitResult struct {
	Record  Record
	Index   int // ledger position of Record, taken under the session lock
	Count   calendar.CountResult
	Created bool
}

// =============================================================================
// SERVICE
// =============================================================================

type Service struct {
	repo     Repository
	holidays HolidayProvider
	counter  *calendar.Counter
	logger   *slog.Logger

	now   func() time.Time
	newID func() string
	locks sync.Map // session id -> *sync.Mutex
}

// NewService wires a service. logger may be nil.
func NewService(repo Repository, holidays HolidayProvider, counter *calendar.Counter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		holidays: holidays,
		counter:  counter,
		logger:   logger.With("component", "leave"),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// WithClock replaces time.Now, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) lock(id string) func() {
	m, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// ===== Sessions =====

func (s *Service) CreateSession(ctx context.Context, settings Settings) (Session, error) {
	if settings.Entitlements == nil {
		settings.Entitlements = DefaultEntitlements()
	}
	if err := settings.Validate(); err != nil {
		return Session{}, err
	}
	sess := Session{
		ID:        s.newID(),
		Settings:  Settings{ReferenceYear: settings.ReferenceYear, Entitlements: settings.Entitlements.Clone()},
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.CreateSession(ctx, sess); err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	s.logger.InfoContext(ctx, "session created", "session_id", sess.ID, "reference_year", settings.ReferenceYear)
	return sess, nil
}

// OpenSession returns session id, creating it with settings on first use.
// The CLI keeps one named ledger per user this way.
func (s *Service) OpenSession(ctx context.Context, id string, settings Settings) (Session, error) {
	if id == "" {
		return Session{}, fmt.Errorf("%w: empty session id", generic.ErrInvalidSettings)
	}
	defer s.lock(id)()

	sess, err := s.repo.GetSession(ctx, id)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, generic.ErrSessionNotFound) {
		return Session{}, err
	}

	if settings.Entitlements == nil {
		settings.Entitlements = DefaultEntitlements()
	}
	if err := settings.Validate(); err != nil {
		return Session{}, err
	}
	sess = Session{
		ID:        id,
		Settings:  Settings{ReferenceYear: settings.ReferenceYear, Entitlements: settings.Entitlements.Clone()},
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.CreateSession(ctx, sess); err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	s.logger.InfoContext(ctx, "session opened", "session_id", id, "reference_year", settings.ReferenceYear)
	return sess, nil
}

func (s *Service) Session(ctx context.Context, id string) (Session, error) {
	return s.repo.GetSession(ctx, id)
}

// UpdateSettings replaces the reference year and entitlements. Existing
// records are kept even if they now fall outside the new window.
func (s *Service) UpdateSettings(ctx context.Context, id string, settings Settings) (Session, error) {
	if err := settings.Validate(); err != nil {
		return Session{}, err
	}
	defer s.lock(id)()

	sess, err := s.repo.GetSession(ctx, id)
	if err != nil {
		return Session{}, err
	}
	sess.Settings = Settings{ReferenceYear: settings.ReferenceYear, Entitlements: settings.Entitlements.Clone()}
	if err := s.repo.SaveSettings(ctx, id, sess.Settings); err != nil {
		return Session{}, fmt.Errorf("save settings: %w", err)
	}
	s.logger.InfoContext(ctx, "settings updated", "session_id", id, "reference_year", settings.ReferenceYear)
	return sess, nil
}

// ===== Counting =====

// Preview counts p without touching any ledger. Working days are annotated
// with school breaks. CheckPreview bounds p so one call never fans out
// into more than a few holiday lookups.
func (s *Service) Preview(ctx context.Context, p generic.Period) (calendar.CountResult, error) {
	if err := CheckPreview(p); err != nil {
		return calendar.CountResult{}, err
	}
	return s.counter.Count(p, s.holidaysFor(ctx, p))
}

func (s *Service) holidaysFor(ctx context.Context, p generic.Period) calendar.HolidaySet {
	years := make([]int, 0, 2)
	for y := p.Start.Year(); y <= p.End.Year(); y++ {
		years = append(years, y)
	}
	return s.holidays.ForYears(ctx, years...)
}

// ===== Ledger mutations =====

// Submit validates, counts and, when at least one day is chargeable,
// records a leave request.
func (s *Service) Submit(ctx context.Context, id string, req Request) (SubmitResult, error) {
	if !req.Category.Valid() {
		return SubmitResult{}, fmt.Errorf("%w: %q", generic.ErrUnknownCategory, req.Category)
	}
	p := req.Period()
	if err := p.Validate(); err != nil {
		return SubmitResult{}, err
	}

	defer s.lock(id)()

	sess, err := s.repo.GetSession(ctx, id)
	if err != nil {
		return SubmitResult{}, err
	}
	if err := CheckWindow(p, ValidityWindow(sess.Settings.ReferenceYear)); err != nil {
		return SubmitResult{}, err
	}

	count, err := s.counter.Count(p, s.holidaysFor(ctx, p))
	if err != nil {
		return SubmitResult{}, err
	}
	if count.NothingToCharge() {
		s.logger.InfoContext(ctx, "nothing to charge", "session_id", id, "category", req.Category, "period", p.String())
		return SubmitResult{Index: -1, Count: count}, nil
	}

	records, err := s.repo.LoadRecords(ctx, id)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("load records: %w", err)
	}
	ledger := NewLedger(records...)

	rec := Record{
		ID:          s.newID(),
		Category:    req.Category,
		Start:       req.Start,
		End:         req.End,
		ChargedDays: count.Chargeable,
		CreatedAt:   s.now().UTC(),
	}
	ledger.Add(rec)
	index := ledger.Len() - 1

	if err := s.repo.SaveRecords(ctx, id, ledger.Records()); err != nil {
		return SubmitResult{}, fmt.Errorf("save records: %w", err)
	}
	s.logger.InfoContext(ctx, "leave recorded",
		"session_id", id, "record_id", rec.ID, "category", rec.Category, "charged_days", rec.ChargedDays)
	return SubmitResult{Record: rec, Index: index, Count: count, Created: true}, nil
}

// ReplaceRecords applies a bulk edit. See EDIT POLICY above.
func (s *Service) ReplaceRecords(ctx context.Context, id string, edited []Record) ([]Record, error) {
	defer s.lock(id)()

	sess, err := s.repo.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	current, err := s.repo.LoadRecords(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	stored := make(map[string]Record, len(current))
	for _, r := range current {
		stored[r.ID] = r
	}

	window := ValidityWindow(sess.Settings.ReferenceYear)
	out := make([]Record, 0, len(edited))
	recounted := 0
	for i, r := range edited {
		if r.ID != "" {
			if _, dup := seen(out, r.ID); dup {
				r.ID = ""
			}
		}
		if r.ID == "" {
			r.ID = s.newID()
		}
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if err := CheckWindow(r.Period(), window); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}

		if prev, ok := stored[r.ID]; ok && prev.Start.Equal(r.Start) && prev.End.Equal(r.End) {
			r.ChargedDays = prev.ChargedDays
			r.CreatedAt = prev.CreatedAt
		} else {
			count, err := s.counter.Count(r.Period(), s.holidaysFor(ctx, r.Period()))
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			if count.NothingToCharge() {
				return nil, fmt.Errorf("row %d %s: %w", i, r.Period(), generic.ErrZeroChargeableDays)
			}
			r.ChargedDays = count.Chargeable
			if ok {
				r.CreatedAt = prev.CreatedAt
			} else {
				r.CreatedAt = s.now().UTC()
			}
			recounted++
		}
		out = append(out, r)
	}

	ledger := NewLedger()
	ledger.ReplaceAll(out)
	if err := s.repo.SaveRecords(ctx, id, ledger.Records()); err != nil {
		return nil, fmt.Errorf("save records: %w", err)
	}
	s.logger.InfoContext(ctx, "ledger replaced",
		"session_id", id, "records", ledger.Len(), "recounted", recounted, "removed", len(current)-countKept(current, out))
	return ledger.Records(), nil
}

// RemoveRecord deletes the record at index (ledger order).
func (s *Service) RemoveRecord(ctx context.Context, id string, index int) (Record, error) {
	defer s.lock(id)()

	ledger, err := s.ledger(ctx, id)
	if err != nil {
		return Record{}, err
	}
	removed, err := ledger.Remove(index)
	if err != nil {
		return Record{}, err
	}
	if err := s.repo.SaveRecords(ctx, id, ledger.Records()); err != nil {
		return Record{}, fmt.Errorf("save records: %w", err)
	}
	s.logger.InfoContext(ctx, "leave removed", "session_id", id, "record_id", removed.ID, "index", index)
	return removed, nil
}

// Reset empties the ledger. Settings are kept.
func (s *Service) Reset(ctx context.Context, id string) error {
	defer s.lock(id)()

	if _, err := s.repo.GetSession(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SaveRecords(ctx, id, nil); err != nil {
		return fmt.Errorf("save records: %w", err)
	}
	s.logger.InfoContext(ctx, "ledger reset", "session_id", id)
	return nil
}

// ===== Queries =====

// Records returns the ledger in insertion order.
func (s *Service) Records(ctx context.Context, id string) ([]Record, error) {
	ledger, err := s.ledger(ctx, id)
	if err != nil {
		return nil, err
	}
	return ledger.Records(), nil
}

// History returns the ledger newest first.
func (s *Service) History(ctx context.Context, id string) ([]Record, error) {
	ledger, err := s.ledger(ctx, id)
	if err != nil {
		return nil, err
	}
	return ledger.History(), nil
}

func (s *Service) Summary(ctx context.Context, id string) (Summary, error) {
	sess, err := s.repo.GetSession(ctx, id)
	if err != nil {
		return Summary{}, err
	}
	ledger, err := s.ledger(ctx, id)
	if err != nil {
		return Summary{}, err
	}

	// Each record is checked against the holidays of its own years, which
	// may predate the current reference year.
	var holidays calendar.HolidaySet
	if years := LedgerYears(ledger.Records()); len(years) > 0 {
		holidays = s.holidays.ForYears(ctx, years...)
	}
	sum := Recompute(ledger, sess.Settings.ReferenceYear, holidays, sess.Settings.Entitlements)
	for _, rid := range sum.Skipped {
		s.logger.WarnContext(ctx, "record skipped in bonus computation: malformed dates", "session_id", id, "record_id", rid)
	}
	return sum, nil
}

// Export writes the ledger as CSV in ledger order.
func (s *Service) Export(ctx context.Context, id string, w io.Writer, style DateStyle) error {
	ledger, err := s.ledger(ctx, id)
	if err != nil {
		return err
	}
	return WriteCSV(w, ledger.Records(), style)
}

func (s *Service) ledger(ctx context.Context, id string) (*Ledger, error) {
	if _, err := s.repo.GetSession(ctx, id); err != nil {
		return nil, err
	}
	records, err := s.repo.LoadRecords(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	return NewLedger(records...), nil
}

func seen(records []Record, id string) (int, bool) {
	for i, r := range records {
		if r.ID == id {
			return i, true
		}
	}
	return -1, false
}

func countKept(before, after []Record) int {
	n := 0
	for _, r := range before {
		if _, ok := seen(after, r.ID); ok {
			n++
		}
	}
	return n
}
