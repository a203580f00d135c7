/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built ledgers that show specific behaviors of the
	tracker: the split-leave bonus thresholds, holidays inside a range
	and the summer-only case that earns nothing.

AVAILABLE SCENARIOS:

	full-split:     10 days outside May-October, earns 2 FRAC days
	partial-split:  5 days outside May-October, earns 1 FRAC day
	summer-only:    All leave in the high season, no bonus
	holiday-weeks:  Ranges crossing Ascension and Armistice
	mixed:          Every category used once, RTT overdrawn

HOW SCENARIOS WORK:
 1. Reset the session ledger
 2. Set the session's reference year to the scenario's
 3. Submit each request through the normal service path
    (counting, window checks and holidays apply as for a user)

USAGE VIA API:

	POST /api/sessions/{sid}/scenario
	{"scenario_id": "full-split"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description and requests
 2. Keep requests inside the reference year's validity window

NOTE:

	Loading a scenario erases the session's ledger.

SEE ALSO:
  - handlers.go: Other session endpoints
  - leave/accrual.go: Bonus thresholds the scenarios exercise
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Gonosen60/gestion-conges-app/generic"
	"github.com/Gonosen60/gestion-conges-app/leave"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// Scenario is a named set of requests replayed into a session.
type Scenario struct {
	ID            string
	Name          string
	Description   string
	ReferenceYear int
	Requests      []leave.Request
}

type ScenarioDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	ReferenceYear int    `json:"reference_year"`
	Requests      int    `json:"requests"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

type LoadScenarioResponse struct {
	Scenario ScenarioDTO `json:"scenario"`
	Records  []RecordDTO `json:"records"`
	Summary  SummaryDTO  `json:"summary"`
}

func req(c leave.Category, y1 int, m1 time.Month, d1 int, y2 int, m2 time.Month, d2 int) leave.Request {
	return leave.Request{Category: c, Start: generic.NewDate(y1, m1, d1), End: generic.NewDate(y2, m2, d2)}
}

var scenarios = []Scenario{
	{
		ID:            "full-split",
		Name:          "Fractionnement complet",
		Description:   "Une semaine en février et une en novembre: 10 jours hors période, 2 jours FRAC",
		ReferenceYear: 2025,
		Requests: []leave.Request{
			req(leave.CategoryAnnualLeave, 2025, time.February, 17, 2025, time.February, 21),
			req(leave.CategoryAnnualLeave, 2025, time.July, 21, 2025, time.August, 1),
			req(leave.CategoryAnnualLeave, 2025, time.November, 17, 2025, time.November, 21),
		},
	},
	{
		ID:            "partial-split",
		Name:          "Fractionnement partiel",
		Description:   "Trois semaines en été et une en novembre: 5 jours hors période, 1 jour FRAC",
		ReferenceYear: 2025,
		Requests: []leave.Request{
			req(leave.CategoryAnnualLeave, 2025, time.July, 7, 2025, time.July, 25),
			req(leave.CategoryAnnualLeave, 2025, time.November, 17, 2025, time.November, 21),
		},
	},
	{
		ID:            "summer-only",
		Name:          "Été uniquement",
		Description:   "Tous les congés entre mai et octobre: aucun jour FRAC",
		ReferenceYear: 2025,
		Requests: []leave.Request{
			req(leave.CategoryAnnualLeave, 2025, time.July, 7, 2025, time.August, 1),
		},
	},
	{
		ID:            "holiday-weeks",
		Name:          "Semaines avec jours fériés",
		Description:   "Pont de l'Ascension et semaine du 11 novembre: les fériés ne sont pas décomptés",
		ReferenceYear: 2025,
		Requests: []leave.Request{
			req(leave.CategoryRTT, 2025, time.May, 29, 2025, time.May, 30),
			req(leave.CategoryAnnualLeave, 2025, time.November, 10, 2025, time.November, 14),
		},
	},
	{
		ID:            "mixed",
		Name:          "Toutes catégories",
		Description:   "Une pose par catégorie et des RTT en dépassement",
		ReferenceYear: 2025,
		Requests: []leave.Request{
			req(leave.CategoryAnnualLeave, 2025, time.August, 4, 2025, time.August, 15),
			req(leave.CategoryRTT, 2025, time.March, 3, 2025, time.March, 28),
			req(leave.CategorySeniorityLeave, 2025, time.June, 2, 2025, time.June, 2),
			req(leave.CategoryTimeSavings, 2025, time.December, 22, 2025, time.December, 24),
			req(leave.CategoryRTTI, 2026, time.January, 5, 2026, time.January, 5),
		},
	},
}

func findScenario(id string) (Scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return Scenario{}, false
}

func (s Scenario) dto() ScenarioDTO {
	return ScenarioDTO{
		ID:            s.ID,
		Name:          s.Name,
		Description:   s.Description,
		ReferenceYear: s.ReferenceYear,
		Requests:      len(s.Requests),
	}
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		dtos[i] = s.dto()
	}
	writeJSON(w, http.StatusOK, dtos)
}

// LoadScenario replaces a session's ledger with a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")

	var body LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	sc, ok := findScenario(body.ScenarioID)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Unknown scenario: %s", body.ScenarioID), nil)
		return
	}

	if err := h.loadScenario(r.Context(), sid, sc); err != nil {
		h.writeServiceError(w, r, "Failed to load scenario", err)
		return
	}

	records, err := h.Service.Records(r.Context(), sid)
	if err != nil {
		h.writeServiceError(w, r, "Failed to load records", err)
		return
	}
	sum, err := h.Service.Summary(r.Context(), sid)
	if err != nil {
		h.writeServiceError(w, r, "Failed to compute summary", err)
		return
	}

	resp := LoadScenarioResponse{Scenario: sc.dto(), Records: make([]RecordDTO, len(records)), Summary: toSummaryDTO(sum)}
	for i, rec := range records {
		resp.Records[i] = toRecordDTO(i, rec)
	}
	h.Logger.InfoContext(r.Context(), "scenario loaded", "session_id", sid, "scenario", sc.ID, "records", len(records))
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) loadScenario(ctx context.Context, sid string, sc Scenario) error {
	sess, err := h.Service.Session(ctx, sid)
	if err != nil {
		return err
	}
	if err := h.Service.Reset(ctx, sid); err != nil {
		return err
	}
	if sess.Settings.ReferenceYear != sc.ReferenceYear {
		settings := leave.Settings{ReferenceYear: sc.ReferenceYear, Entitlements: sess.Settings.Entitlements}
		if _, err := h.Service.UpdateSettings(ctx, sid, settings); err != nil {
			return err
		}
	}
	for i, rq := range sc.Requests {
		if _, err := h.Service.Submit(ctx, sid, rq); err != nil {
			return fmt.Errorf("scenario %s request %d: %w", sc.ID, i, err)
		}
	}
	return nil
}
