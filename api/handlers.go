/*
handlers.go - HTTP API handlers for the leave tracker

PURPOSE:
  Exposes the leave service via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the leave package.

ENDPOINTS:
  Sessions:
    POST   /api/sessions                        Create session (settings optional)
    GET    /api/sessions/{sid}                  Session settings and window
    PUT    /api/sessions/{sid}/settings         Replace reference year and entitlements

  Requests:
    POST   /api/count                           Count working days, no session
    POST   /api/sessions/{sid}/requests         Count and record a leave request

  Ledger:
    GET    /api/sessions/{sid}/records          Ledger (?order=history for newest first)
    PUT    /api/sessions/{sid}/records          Bulk edit
    DELETE /api/sessions/{sid}/records          Reset ledger
    DELETE /api/sessions/{sid}/records/{index}  Remove one record
    GET    /api/sessions/{sid}/summary          Balances and split-leave bonus
    GET    /api/sessions/{sid}/export.csv       CSV download (?dates=iso|fr)

  Reference data:
    GET    /api/categories                      Leave categories
    GET    /api/holidays/{year}                 Public holidays
    GET    /api/school-breaks                   School break table

  Scenarios:
    GET    /api/scenarios                       List demo scenarios
    POST   /api/sessions/{sid}/scenario         Load a demo scenario into a session

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Service: session-scoped leave operations
  - Holidays: holiday lookups for the reference endpoint
  - Breaks: school break table
  - Defaults: settings for sessions created without a body

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed body or date, invalid range, outside window,
         unknown category, invalid settings, zero-day edit
  - 404: Unknown session or record index
  - 500: Storage errors

  A request whose range holds no working day is not an error: the
  response is 200 with "created": false.

SECURITY NOTE:
  No authentication. A session id is the only key to a ledger.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Gonosen60/gestion-conges-app/calendar"
	"github.com/Gonosen60/gestion-conges-app/generic"
	"github.com/Gonosen60/gestion-conges-app/leave"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// HolidayLister is satisfied by *holiday.Provider.
type HolidayLister interface {
	Fetch(ctx context.Context, year int) calendar.HolidaySet
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service  *leave.Service
	Holidays HolidayLister
	Breaks   calendar.SchoolBreaks
	Defaults leave.Settings
	Logger   *slog.Logger
}

// NewHandler creates a new handler. logger may be nil.
func NewHandler(svc *leave.Service, holidays HolidayLister, breaks calendar.SchoolBreaks, defaults leave.Settings, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Service:  svc,
		Holidays: holidays,
		Breaks:   breaks,
		Defaults: defaults,
		Logger:   logger.With("component", "api"),
	}
}

// =============================================================================
// SESSION HANDLERS
// =============================================================================

// CreateSession creates a session. An empty body uses the defaults.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	settings := leave.Settings{
		ReferenceYear: h.Defaults.ReferenceYear,
		Entitlements:  h.Defaults.Entitlements.Clone(),
	}

	if r.ContentLength != 0 {
		var req SettingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
		if req.ReferenceYear != 0 {
			settings.ReferenceYear = req.ReferenceYear
		}
		if req.Entitlements != nil {
			ents, err := parseEntitlements(req.Entitlements)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid entitlements", err)
				return
			}
			settings.Entitlements = ents
		}
	}

	sess, err := h.Service.CreateSession(r.Context(), settings)
	if err != nil {
		h.writeServiceError(w, r, "Failed to create session", err)
		return
	}
	writeJSON(w, http.StatusCreated, toSessionDTO(sess))
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Service.Session(r.Context(), chi.URLParam(r, "sid"))
	if err != nil {
		h.writeServiceError(w, r, "Session not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionDTO(sess))
}

// UpdateSettings replaces the settings. Omitted entitlements keep the
// session's current ones.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")

	var req SettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	current, err := h.Service.Session(r.Context(), sid)
	if err != nil {
		h.writeServiceError(w, r, "Session not found", err)
		return
	}
	settings := leave.Settings{ReferenceYear: req.ReferenceYear, Entitlements: current.Settings.Entitlements}
	if req.Entitlements != nil {
		ents, err := parseEntitlements(req.Entitlements)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid entitlements", err)
			return
		}
		settings.Entitlements = ents
	}

	sess, err := h.Service.UpdateSettings(r.Context(), sid, settings)
	if err != nil {
		h.writeServiceError(w, r, "Failed to update settings", err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionDTO(sess))
}

// =============================================================================
// COUNT / SUBMIT HANDLERS
// =============================================================================

// Count previews a range without a session.
func (h *Handler) Count(w http.ResponseWriter, r *http.Request) {
	var req PeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	p, err := parsePeriod(req.Start, req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	res, err := h.Service.Preview(r.Context(), p)
	if err != nil {
		h.writeServiceError(w, r, "Failed to count days", err)
		return
	}
	writeJSON(w, http.StatusOK, toCountResponse(res))
}

// SubmitRequest counts a range and records it when at least one day is
// chargeable.
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")

	var req SubmitLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	category, err := leave.ParseCategory(req.Category)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid category", err)
		return
	}
	p, err := parsePeriod(req.Start, req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	res, err := h.Service.Submit(r.Context(), sid, leave.Request{Category: category, Start: p.Start, End: p.End})
	if err != nil {
		h.writeServiceError(w, r, "Failed to submit request", err)
		return
	}

	resp := SubmitResponse{Created: res.Created, Count: toCountResponse(res.Count)}
	if !res.Created {
		resp.Message = fmt.Sprintf("Aucun jour ouvré à décompter du %s au %s", p.Start.French(), p.End.French())
		writeJSON(w, http.StatusOK, resp)
		return
	}

	dto := toRecordDTO(res.Index, res.Record)
	resp.Record = &dto
	resp.Message = fmt.Sprintf("%d jour(s) de %s enregistré(s)", res.Record.ChargedDays, category)
	writeJSON(w, http.StatusCreated, resp)
}

// =============================================================================
// LEDGER HANDLERS
// =============================================================================

// ListRecords returns the ledger. Index is always the ledger position, so
// it can be passed to DELETE even when ?order=history.
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")

	records, err := h.Service.Records(r.Context(), sid)
	if err != nil {
		h.writeServiceError(w, r, "Failed to load records", err)
		return
	}
	positions := make(map[string]int, len(records))
	for i, rec := range records {
		positions[rec.ID] = i
	}

	ordered := records
	switch order := r.URL.Query().Get("order"); order {
	case "", "ledger":
	case "history":
		ordered = leave.NewLedger(records...).History()
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid order: %s", order), nil)
		return
	}

	dtos := make([]RecordDTO, len(ordered))
	for i, rec := range ordered {
		dtos[i] = toRecordDTO(positions[rec.ID], rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ReplaceRecords applies a bulk edit and returns the new ledger.
func (h *Handler) ReplaceRecords(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")

	var req ReplaceRecordsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	edited := make([]leave.Record, 0, len(req.Records))
	for i, in := range req.Records {
		category, err := leave.ParseCategory(in.Category)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid category in row %d", i), err)
			return
		}
		p, err := parsePeriod(in.Start, in.End)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid date in row %d", i), err)
			return
		}
		edited = append(edited, leave.Record{ID: in.ID, Category: category, Start: p.Start, End: p.End})
	}

	records, err := h.Service.ReplaceRecords(r.Context(), sid, edited)
	if err != nil {
		h.writeServiceError(w, r, "Failed to save records", err)
		return
	}
	dtos := make([]RecordDTO, len(records))
	for i, rec := range records {
		dtos[i] = toRecordDTO(i, rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) ResetRecords(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Reset(r.Context(), chi.URLParam(r, "sid")); err != nil {
		h.writeServiceError(w, r, "Failed to reset records", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveRecord deletes the record at a ledger index.
func (h *Handler) RemoveRecord(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid index", err)
		return
	}

	removed, err := h.Service.RemoveRecord(r.Context(), sid, index)
	if err != nil {
		h.writeServiceError(w, r, "Failed to remove record", err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTO(index, removed))
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Service.Summary(r.Context(), chi.URLParam(r, "sid"))
	if err != nil {
		h.writeServiceError(w, r, "Failed to compute summary", err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(sum))
}

// ExportCSV streams the ledger as a CSV attachment.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")
	style, err := leave.ParseDateStyle(r.URL.Query().Get("dates"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date style", err)
		return
	}

	// Resolve the session first so a 404 is still JSON.
	if _, err := h.Service.Session(r.Context(), sid); err != nil {
		h.writeServiceError(w, r, "Session not found", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="conges-%s.csv"`, time.Now().Format("2006-01-02")))
	if err := h.Service.Export(r.Context(), sid, w, style); err != nil {
		h.Logger.ErrorContext(r.Context(), "csv export failed", "session_id", sid, "error", err)
	}
}

// =============================================================================
// REFERENCE DATA HANDLERS
// =============================================================================

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats := leave.Categories()
	dtos := make([]CategoryDTO, len(cats))
	for i, c := range cats {
		dtos[i] = CategoryDTO{Code: string(c), Label: c.Label()}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListHolidays returns the holidays of one year. A failed lookup yields an
// empty list, like everywhere else.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < leave.MinReferenceYear || year > leave.MaxReferenceYear+1 {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}

	set := h.Holidays.Fetch(r.Context(), year)
	resp := HolidaysResponse{Year: year, Holidays: make([]HolidayDTO, 0, set.Len())}
	for _, d := range set.Dates() {
		name, _ := set.Name(d)
		resp.Holidays = append(resp.Holidays, HolidayDTO{Date: d.String(), Display: d.French(), Name: name})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) ListSchoolBreaks(w http.ResponseWriter, r *http.Request) {
	dtos := make([]SchoolBreakDTO, len(h.Breaks))
	for i, b := range h.Breaks {
		dtos[i] = SchoolBreakDTO{Label: b.Label, Start: b.Period.Start.String(), End: b.Period.End.String()}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

func parsePeriod(start, end string) (generic.Period, error) {
	s, err := generic.ParseDate(start)
	if err != nil {
		return generic.Period{}, err
	}
	e, err := generic.ParseDate(end)
	if err != nil {
		return generic.Period{}, err
	}
	return generic.Period{Start: s, End: e}, nil
}

func parseEntitlements(in map[string]float64) (leave.Entitlements, error) {
	ents := make(leave.Entitlements, len(in))
	for code, days := range in {
		c, err := leave.ParseCategory(code)
		if err != nil {
			return nil, err
		}
		ents[c] = generic.NewAmount(days)
	}
	return ents, ents.Validate()
}

// writeServiceError maps domain errors to a status. Unknown errors are
// logged and reported as 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, message string, err error) {
	switch {
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.Logger.ErrorContext(r.Context(), message, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
