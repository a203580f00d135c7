/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Session creation and settings updates
- Request submission (created, nothing to charge, rejected input)
- Ledger listing, removal, bulk edit and reset
- Summary, CSV export and reference data endpoints
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gonosen60/gestion-conges-app/calendar"
	"github.com/Gonosen60/gestion-conges-app/generic"
	"github.com/Gonosen60/gestion-conges-app/leave"
	"github.com/Gonosen60/gestion-conges-app/logging"
	"github.com/Gonosen60/gestion-conges-app/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type fixedHolidays struct {
	set calendar.HolidaySet
}

func (f fixedHolidays) ForYears(_ context.Context, _ ...int) calendar.HolidaySet { return f.set }

func (f fixedHolidays) Fetch(_ context.Context, year int) calendar.HolidaySet { return f.set.Year(year) }

func day(year int, month time.Month, d int) generic.Date {
	return generic.NewDate(year, month, d)
}

func frenchHolidays() calendar.HolidaySet {
	return calendar.NewHolidaySet(map[generic.Date]string{
		day(2025, time.January, 1):   "1er janvier",
		day(2025, time.April, 21):    "Lundi de Pâques",
		day(2025, time.May, 1):       "1er mai",
		day(2025, time.May, 8):       "8 mai",
		day(2025, time.May, 29):      "Ascension",
		day(2025, time.June, 9):      "Lundi de Pentecôte",
		day(2025, time.July, 14):     "14 juillet",
		day(2025, time.August, 15):   "Assomption",
		day(2025, time.November, 1):  "Toussaint",
		day(2025, time.November, 11): "11 novembre",
		day(2025, time.December, 25): "Jour de Noël",
		day(2026, time.January, 1):   "1er janvier",
	})
}

type testServer struct {
	t      *testing.T
	router http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := logging.Discard()
	holidays := fixedHolidays{set: frenchHolidays()}
	breaks := calendar.DefaultSchoolBreaks()

	tick := time.Date(2025, time.October, 1, 9, 0, 0, 0, time.UTC)
	svc := leave.NewService(memory.New(), holidays, calendar.NewCounter(breaks), logger).
		WithClock(func() time.Time {
			tick = tick.Add(time.Minute)
			return tick
		})

	h := NewHandler(svc, holidays, breaks, leave.DefaultSettings(2025), logger)
	return &testServer{t: t, router: NewRouter(h, nil)}
}

func (s *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (s *testServer) createSession() string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/sessions", nil)
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[SessionDTO](s.t, rec).ID
}

func (s *testServer) submit(sid, category, start, end string) *httptest.ResponseRecorder {
	s.t.Helper()
	return s.do(http.MethodPost, "/api/sessions/"+sid+"/requests",
		SubmitLeaveRequest{Category: category, Start: start, End: end})
}

// =============================================================================
// SESSION TESTS
// =============================================================================

func TestCreateSession_Defaults(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(http.MethodPost, "/api/sessions", nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	sess := decode[SessionDTO](t, rec)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, 2025, sess.ReferenceYear)
	assert.Equal(t, "2025-01-01", sess.Window.Start)
	assert.Equal(t, "2026-03-31", sess.Window.End)
	assert.Equal(t, 25.0, sess.Entitlements["CA"])
	assert.Equal(t, 15.0, sess.Entitlements["RTT"])
}

func TestCreateSession_WithSettings(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(http.MethodPost, "/api/sessions", SettingsRequest{
		ReferenceYear: 2026,
		Entitlements:  map[string]float64{"ca": 27, "cet": 3.5},
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sess := decode[SessionDTO](t, rec)
	assert.Equal(t, 2026, sess.ReferenceYear)
	assert.Equal(t, 27.0, sess.Entitlements["CA"])
	assert.Equal(t, 3.5, sess.Entitlements["CET"])
}

func TestCreateSession_InvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		body SettingsRequest
	}{
		{name: "year too old", body: SettingsRequest{ReferenceYear: 1990}},
		{name: "unknown category", body: SettingsRequest{ReferenceYear: 2025, Entitlements: map[string]float64{"XYZ": 1}}},
		{name: "frac is computed", body: SettingsRequest{ReferenceYear: 2025, Entitlements: map[string]float64{"FRAC": 2}}},
		{name: "negative entitlement", body: SettingsRequest{ReferenceYear: 2025, Entitlements: map[string]float64{"CA": -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t)
			rec := srv.do(http.MethodPost, "/api/sessions", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestGetSession_NotFound(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(http.MethodGet, "/api/sessions/unknown", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, decode[ErrorResponse](t, rec).Error)
}

func TestUpdateSettings_KeepsEntitlementsWhenOmitted(t *testing.T) {
	srv := newTestServer(t)
	sid := srv.createSession()

	rec := srv.do(http.MethodPut, "/api/sessions/"+sid+"/settings", SettingsRequest{ReferenceYear: 2026})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sess := decode[SessionDTO](t, rec)
	assert.Equal(t, 2026, sess.ReferenceYear)
	assert.Equal(t, 25.0, sess.Entitlements["CA"])
	assert.Equal(t, "2027-03-31", sess.Window.End)
}

// =============================================================================
// SUBMISSION TESTS
// =============================================================================

func TestSubmitRequest_SkipsHoliday(t *testing.T) {
	// GIVEN: a week holding Armistice day (Tuesday Nov 11)
	srv := newTestServer(t)
	sid := srv.createSession()

	// WHEN
	rec := srv.submit(sid, "CA", "2025-11-10", "14/11/2025")

	// THEN
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[SubmitResponse](t, rec)
	assert.True(t, resp.Created)
	require.NotNil(t, resp.Record)
	assert.Equal(t, 4, resp.Record.ChargedDays)
	assert.Equal(t, 0, resp.Record.Index)
	assert.Equal(t, "10/11/2025", resp.Record.StartDisplay)
	assert.Equal(t, 5, resp.Count.CalendarDays)
	assert.Equal(t, 1, resp.Count.Breakdown["holiday"])
	assert.Equal(t, "11 novembre", resp.Count.Days[1].HolidayName)

	// AND: the next record reports its own ledger position
	next := decode[SubmitResponse](t, srv.submit(sid, "RTT", "2025-12-01", "2025-12-01"))
	require.NotNil(t, next.Record)
	assert.Equal(t, 1, next.Record.Index)
}

func TestSubmitRequest_NothingToCharge(t *testing.T) {
	// GIVEN: a weekend
	srv := newTestServer(t)
	sid := srv.createSession()

	// WHEN
	rec := srv.submit(sid, "RTT", "2025-11-15", "2025-11-16")

	// THEN: not an error, but nothing stored
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[SubmitResponse](t, rec)
	assert.False(t, resp.Created)
	assert.Nil(t, resp.Record)
	assert.True(t, resp.Count.NothingToCharge)
	assert.NotEmpty(t, resp.Message)

	list := srv.do(http.MethodGet, "/api/sessions/"+sid+"/records", nil)
	assert.Empty(t, decode[[]RecordDTO](t, list))
}

func TestSubmitRequest_Rejected(t *testing.T) {
	tests := []struct {
		name       string
		category   string
		start, end string
	}{
		{name: "end before start", category: "CA", start: "2025-11-14", end: "2025-11-10"},
		{name: "outside window", category: "CA", start: "2026-03-30", end: "2026-04-02"},
		{name: "before window", category: "CA", start: "2024-12-30", end: "2025-01-03"},
		{name: "unknown category", category: "SICK", start: "2025-11-10", end: "2025-11-10"},
		{name: "empty category", category: "", start: "2025-11-10", end: "2025-11-10"},
		{name: "impossible date", category: "CA", start: "31/02/2025", end: "2025-03-03"},
		{name: "missing date", category: "CA", start: "", end: "2025-03-03"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t)
			sid := srv.createSession()

			rec := srv.submit(sid, tt.category, tt.start, tt.end)

			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			list := srv.do(http.MethodGet, "/api/sessions/"+sid+"/records", nil)
			assert.Empty(t, decode[[]RecordDTO](t, list))
		})
	}
}

func TestSubmitRequest_UnknownSession(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.submit("nope", "CA", "2025-11-10", "2025-11-14")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitRequest_InvalidBody(t *testing.T) {
	srv := newTestServer(t)
	sid := srv.createSession()

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+sid+"/requests", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", decode[ErrorResponse](t, rec).Error)
}

func TestCount_AnnotatesSchoolBreaks(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(http.MethodPost, "/api/count", PeriodRequest{Start: "2025-10-31", End: "2025-11-03"})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[CountResponse](t, rec)
	// Fri Oct 31 working (Toussaint break), Sat Nov 1 weekend (and holiday),
	// Sun weekend, Mon Nov 3 working (last day of the break).
	assert.Equal(t, 2, resp.Chargeable)
	require.Len(t, resp.Days, 4)
	assert.Equal(t, "working day (Toussaint)", resp.Days[0].Label)
	assert.Equal(t, "weekend", resp.Days[1].Kind)
	assert.Equal(t, "Toussaint", resp.Days[3].SchoolBreak)
}

func TestCount_InvalidRange(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(http.MethodPost, "/api/count", PeriodRequest{Start: "2025-11-03", End: "2025-11-01"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCount_RejectsUnboundedRange(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(http.MethodPost, "/api/count", PeriodRequest{Start: "1700-01-01", End: "2100-12-31"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = srv.do(http.MethodPost, "/api/count", PeriodRequest{Start: "2025-01-01", End: "2027-06-30"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
}

// =============================================================================
// LEDGER TESTS
// =============================================================================

func TestListRecords_HistoryOrderKeepsLedgerIndex(t *testing.T) {
	srv := newTestServer(t)
	sid := srv.createSession()
	require.Equal(t, http.StatusCreated, srv.submit(sid, "CA", "2025-02-17", "2025-02-21").Code)
	require.Equal(t, http.StatusCreated, srv.submit(sid, "RTT", "2025-11-17", "2025-11-17").Code)

	ledger := decode[[]RecordDTO](t, srv.do(http.MethodGet, "/api/sessions/"+sid+"/records", nil))
	history := decode[[]RecordDTO](t, srv.do(http.MethodGet, "/api/sessions/"+sid+"/records?order=history", nil))

	require.Len(t, ledger, 2)
	require.Len(t, history, 2)
	assert.Equal(t, "CA", ledger[0].Category)
	assert.Equal(t, 0, ledger[0].Index)
	assert.Equal(t, "RTT", history[0].Category)
	assert.Equal(t, 1, history[0].Index)
	assert.Equal(t, "Réduction du temps de travail", history[0].CategoryLabel)

	bad := srv.do(http.MethodGet, "/api/sessions/"+sid+"/records?order=random", nil)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestRemoveRecord(t *testing.T) {
	srv := newTestServer(t)
	sid := srv.createSession()
	require.Equal(t, http.StatusCreated, srv.submit(sid, "CA", "2025-02-17", "2025-02-21").Code)
	require.Equal(t, http.StatusCreated, srv.submit(sid, "RTT", "2025-11-17", "2025-11-17").Code)

	// Out of range index
	rec := srv.do(http.MethodDelete, "/api/sessions/"+sid+"/records/2", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = srv.do(http.MethodDelete, "/api/sessions/"+sid+"/records/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Valid index
	rec = srv.do(http.MethodDelete, "/api/sessions/"+sid+"/records/0", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "CA", decode[RecordDTO](t, rec).Category)

	left := decode[[]RecordDTO](t, srv.do(http.MethodGet, "/api/sessions/"+sid+"/records", nil))
	require.Len(t, left, 1)
	assert.Equal(t, "RTT", left[0].Category)
	assert.Equal(t, 0, left[0].Index)
}

func TestResetRecords(t *testing.T) {
	srv := newTestServer(t)
	sid := srv.createSession()
	require.Equal(t, http.StatusCreated, srv.submit(sid, "CA", "2025-02-17", "2025-02-21").Code)

	rec := srv.do(http.MethodDelete, "/api/sessions/"+sid+"/records", nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, decode[[]RecordDTO](t, srv.do(http.MethodGet, "/api/sessions/"+sid+"/records", nil)))

	sess := srv.do(http.MethodGet, "/api/sessions/"+sid, nil)
	assert.Equal(t, http.StatusOK, sess.Code, "settings survive a reset")
}

func TestReplaceRecords_KeepsAndRecounts(t *testing.T) {
	srv := newTestServer(t)
	sid := srv.createSession()
	created := decode[SubmitResponse](t, srv.submit(sid, "CA", "2025-11-10", "2025-11-14"))
	require.NotNil(t, created.Record)

	// WHEN: the existing record changes category with a bogus count, and a
	// new row is added
	rec := srv.do(http.MethodPut, "/api/sessions/"+sid+"/records", ReplaceRecordsRequest{Records: []RecordInput{
		{ID: created.Record.ID, Category: "RTT", Start: "2025-11-10", End: "2025-11-14", ChargedDays: 99},
		{Category: "CA", Start: "14/07/2025", End: "18/07/2025"},
	}})

	// THEN
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	records := decode[[]RecordDTO](t, rec)
	require.Len(t, records, 2)
	assert.Equal(t, created.Record.ID, records[0].ID)
	assert.Equal(t, "RTT", records[0].Category)
	assert.Equal(t, 4, records[0].ChargedDays, "stored count kept")
	assert.NotEmpty(t, records[1].ID)
	assert.Equal(t, 4, records[1].ChargedDays, "new row counted without Jul 14")
	assert.Equal(t, 1, records[1].Index)
}

func TestReplaceRecords_ZeroDayRowRejectsWholeEdit(t *testing.T) {
	srv := newTestServer(t)
	sid := srv.createSession()
	require.Equal(t, http.StatusCreated, srv.submit(sid, "CA", "2025-11-10", "2025-11-14").Code)

	rec := srv.do(http.MethodPut, "/api/sessions/"+sid+"/records", ReplaceRecordsRequest{Records: []RecordInput{
		{Category: "RTT", Start: "2025-11-15", End: "2025-11-16"},
	}})

	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	left := decode[[]RecordDTO](t, srv.do(http.MethodGet, "/api/sessions/"+sid+"/records", nil))
	require.Len(t, left, 1)
	assert.Equal(t, "CA", left[0].Category)
}

func TestReplaceRecords_BadRow(t *testing.T) {
	srv := newTestServer(t)
	sid := srv.createSession()

	rec := srv.do(http.MethodPut, "/api/sessions/"+sid+"/records", ReplaceRecordsRequest{Records: []RecordInput{
		{Category: "CA", Start: "not a date", End: "2025-11-14"},
	}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Error, "row 0")
}

// =============================================================================
// SUMMARY / EXPORT TESTS
// =============================================================================

func TestGetSummary_SplitLeaveBonus(t *testing.T) {
	// GIVEN: two weeks of CA outside May-October
	srv := newTestServer(t)
	sid := srv.createSession()
	require.Equal(t, http.StatusCreated, srv.submit(sid, "CA", "2025-02-17", "2025-02-21").Code)
	require.Equal(t, http.StatusCreated, srv.submit(sid, "CA", "2025-11-17", "2025-11-21").Code)
	require.Equal(t, http.StatusCreated, srv.submit(sid, "RTT", "2025-12-01", "2025-12-01").Code)

	// WHEN
	rec := srv.do(http.MethodGet, "/api/sessions/"+sid+"/summary", nil)

	// THEN
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sum := decode[SummaryDTO](t, rec)
	assert.Equal(t, 10, sum.DaysOutsideHighSeason)
	assert.Equal(t, 2, sum.SplitLeaveBonus)
	assert.Equal(t, "2025-05-01", sum.HighSeason.Start)
	require.Len(t, sum.Balances, len(leave.Categories()))

	byCat := map[string]BalanceDTO{}
	for _, b := range sum.Balances {
		byCat[b.Category] = b
	}
	assert.Equal(t, 10.0, byCat["CA"].Taken)
	assert.Equal(t, 15.0, byCat["CA"].Remaining)
	assert.Equal(t, 14.0, byCat["RTT"].Remaining)
	assert.Equal(t, 2.0, byCat["FRAC"].Granted)
	assert.Equal(t, 2.0, byCat["FRAC"].Remaining)
	assert.False(t, byCat["CA"].Overdrawn)
	assert.Empty(t, sum.SkippedRecords)
	assert.Empty(t, sum.StaleRecords)
}

func TestExportCSV(t *testing.T) {
	srv := newTestServer(t)
	sid := srv.createSession()
	require.Equal(t, http.StatusCreated, srv.submit(sid, "CA", "2025-11-10", "2025-11-14").Code)

	rec := srv.do(http.MethodGet, "/api/sessions/"+sid+"/export.csv?dates=fr", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Equal(t, "Type,Début,Fin,Jours\nCA,10/11/2025,14/11/2025,4\n", rec.Body.String())

	iso := srv.do(http.MethodGet, "/api/sessions/"+sid+"/export.csv", nil)
	assert.Contains(t, iso.Body.String(), "CA,2025-11-10,2025-11-14,4")

	bad := srv.do(http.MethodGet, "/api/sessions/"+sid+"/export.csv?dates=us", nil)
	assert.Equal(t, http.StatusBadRequest, bad.Code)

	missing := srv.do(http.MethodGet, "/api/sessions/nope/export.csv", nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

// =============================================================================
// REFERENCE DATA TESTS
// =============================================================================

func TestListHolidays(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(http.MethodGet, "/api/holidays/2025", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[HolidaysResponse](t, rec)
	assert.Equal(t, 2025, resp.Year)
	require.Len(t, resp.Holidays, 11)
	assert.Equal(t, "2025-01-01", resp.Holidays[0].Date)
	assert.Equal(t, "14/07/2025", resp.Holidays[6].Display)

	assert.Equal(t, http.StatusBadRequest, srv.do(http.MethodGet, "/api/holidays/abc", nil).Code)
	assert.Equal(t, http.StatusBadRequest, srv.do(http.MethodGet, "/api/holidays/1800", nil).Code)
}

func TestListSchoolBreaksAndCategories(t *testing.T) {
	srv := newTestServer(t)

	breaks := decode[[]SchoolBreakDTO](t, srv.do(http.MethodGet, "/api/school-breaks", nil))
	require.Len(t, breaks, len(calendar.DefaultSchoolBreaks()))
	assert.Equal(t, "Hiver", breaks[0].Label)

	cats := decode[[]CategoryDTO](t, srv.do(http.MethodGet, "/api/categories", nil))
	require.Len(t, cats, 6)
	assert.Equal(t, "CA", cats[0].Code)
	assert.Equal(t, "FRAC", cats[3].Code)
}
