/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

DATES:
  Requests accept ISO (2025-07-14) or French (14/07/2025) dates.
  Responses always carry ISO dates, plus a "display" French variant
  where a table shows them.

AMOUNTS:
  Granted, taken and remaining days are JSON numbers. Internally they are
  decimals (generic.Amount); conversion happens here only.

VALIDATION:
  Validation is done in handlers and in the leave service, not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/Gonosen60/gestion-conges-app/calendar"
	"github.com/Gonosen60/gestion-conges-app/leave"
)

// =============================================================================
// SESSIONS
// =============================================================================

type SessionDTO struct {
	ID            string             `json:"id"`
	ReferenceYear int                `json:"reference_year"`
	Window        WindowDTO          `json:"window"`
	Entitlements  map[string]float64 `json:"entitlements"`
	CreatedAt     string             `json:"created_at"`
}

type WindowDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// SettingsRequest creates a session or replaces its settings. Omitted
// entitlements take the server defaults.
type SettingsRequest struct {
	ReferenceYear int                `json:"reference_year"`
	Entitlements  map[string]float64 `json:"entitlements,omitempty"`
}

// =============================================================================
// COUNTING / SUBMISSION
// =============================================================================

type PeriodRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type SubmitLeaveRequest struct {
	Category string `json:"category"`
	Start    string `json:"start"`
	End      string `json:"end"`
}

type DayDTO struct {
	Date        string `json:"date"`
	Weekday     string `json:"weekday"`
	Kind        string `json:"kind"`
	Label       string `json:"label"`
	Chargeable  bool   `json:"chargeable"`
	HolidayName string `json:"holiday_name,omitempty"`
	SchoolBreak string `json:"school_break,omitempty"`
}

type CountResponse struct {
	Start           string         `json:"start"`
	End             string         `json:"end"`
	CalendarDays    int            `json:"calendar_days"`
	Chargeable      int            `json:"chargeable"`
	NothingToCharge bool           `json:"nothing_to_charge"`
	Breakdown       map[string]int `json:"breakdown"`
	Days            []DayDTO       `json:"days"`
}

type SubmitResponse struct {
	Created bool          `json:"created"`
	Message string        `json:"message"`
	Record  *RecordDTO    `json:"record,omitempty"`
	Count   CountResponse `json:"count"`
}

// =============================================================================
// RECORDS
// =============================================================================

type RecordDTO struct {
	Index         int    `json:"index"`
	ID            string `json:"id"`
	Category      string `json:"category"`
	CategoryLabel string `json:"category_label"`
	Start         string `json:"start"`
	End           string `json:"end"`
	StartDisplay  string `json:"start_display"`
	EndDisplay    string `json:"end_display"`
	ChargedDays   int    `json:"charged_days"`
	CreatedAt     string `json:"created_at,omitempty"`
}

// RecordInput is one row of a bulk edit. ChargedDays is ignored: the
// service keeps or recounts it.
type RecordInput struct {
	ID          string `json:"id,omitempty"`
	Category    string `json:"category"`
	Start       string `json:"start"`
	End         string `json:"end"`
	ChargedDays int    `json:"charged_days,omitempty"`
}

type ReplaceRecordsRequest struct {
	Records []RecordInput `json:"records"`
}

// =============================================================================
// SUMMARY
// =============================================================================

type BalanceDTO struct {
	Category  string  `json:"category"`
	Label     string  `json:"label"`
	Granted   float64 `json:"granted"`
	Taken     float64 `json:"taken"`
	Remaining float64 `json:"remaining"`
	Overdrawn bool    `json:"overdrawn"`
}

type StaleRecordDTO struct {
	ID        string `json:"id"`
	Stored    int    `json:"stored"`
	Recounted int    `json:"recounted"`
}

type SummaryDTO struct {
	ReferenceYear         int              `json:"reference_year"`
	Window                WindowDTO        `json:"window"`
	HighSeason            WindowDTO        `json:"high_season"`
	Balances              []BalanceDTO     `json:"balances"`
	SplitLeaveBonus       int              `json:"split_leave_bonus"`
	DaysOutsideHighSeason int              `json:"days_outside_high_season"`
	SkippedRecords        []string         `json:"skipped_records"`
	StaleRecords          []StaleRecordDTO `json:"stale_records"`
}

// =============================================================================
// REFERENCE DATA
// =============================================================================

type HolidayDTO struct {
	Date    string `json:"date"`
	Display string `json:"display"`
	Name    string `json:"name"`
}

type HolidaysResponse struct {
	Year     int          `json:"year"`
	Holidays []HolidayDTO `json:"holidays"`
}

type SchoolBreakDTO struct {
	Label string `json:"label"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type CategoryDTO struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toSessionDTO(s leave.Session) SessionDTO {
	ents := make(map[string]float64, len(s.Settings.Entitlements))
	for c, a := range s.Settings.Entitlements {
		ents[string(c)] = a.Float64()
	}
	w := leave.ValidityWindow(s.Settings.ReferenceYear)
	return SessionDTO{
		ID:            s.ID,
		ReferenceYear: s.Settings.ReferenceYear,
		Window:        WindowDTO{Start: w.Start.String(), End: w.End.String()},
		Entitlements:  ents,
		CreatedAt:     s.CreatedAt.Format(time.RFC3339),
	}
}

func toCountResponse(res calendar.CountResult) CountResponse {
	breakdown := make(map[string]int, 3)
	for kind, n := range res.Breakdown() {
		breakdown[kind.String()] = n
	}
	days := make([]DayDTO, len(res.Days))
	for i, d := range res.Days {
		days[i] = DayDTO{
			Date:        d.Date.String(),
			Weekday:     d.Date.Weekday().String(),
			Kind:        d.Kind.String(),
			Label:       d.Label(),
			Chargeable:  d.Chargeable(),
			HolidayName: d.HolidayName,
			SchoolBreak: d.SchoolBreak,
		}
	}
	return CountResponse{
		Start:           res.Period.Start.String(),
		End:             res.Period.End.String(),
		CalendarDays:    res.Period.Len(),
		Chargeable:      res.Chargeable,
		NothingToCharge: res.NothingToCharge(),
		Breakdown:       breakdown,
		Days:            days,
	}
}

func toRecordDTO(index int, r leave.Record) RecordDTO {
	dto := RecordDTO{
		Index:         index,
		ID:            r.ID,
		Category:      string(r.Category),
		CategoryLabel: r.Category.Label(),
		Start:         r.Start.String(),
		End:           r.End.String(),
		StartDisplay:  r.Start.French(),
		EndDisplay:    r.End.French(),
		ChargedDays:   r.ChargedDays,
	}
	if !r.CreatedAt.IsZero() {
		dto.CreatedAt = r.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

func toSummaryDTO(s leave.Summary) SummaryDTO {
	season := leave.HighSeason(s.ReferenceYear)
	dto := SummaryDTO{
		ReferenceYear:         s.ReferenceYear,
		Window:                WindowDTO{Start: s.Window.Start.String(), End: s.Window.End.String()},
		HighSeason:            WindowDTO{Start: season.Start.String(), End: season.End.String()},
		Balances:              make([]BalanceDTO, len(s.Balances)),
		SplitLeaveBonus:       s.SplitLeaveBonus,
		DaysOutsideHighSeason: s.DaysOutsideHighSeason,
		SkippedRecords:        append([]string{}, s.Skipped...),
		StaleRecords:          make([]StaleRecordDTO, len(s.Stale)),
	}
	for i, b := range s.Balances {
		dto.Balances[i] = BalanceDTO{
			Category:  string(b.Category),
			Label:     b.Category.Label(),
			Granted:   b.Granted.Float64(),
			Taken:     b.Taken.Float64(),
			Remaining: b.Remaining.Float64(),
			Overdrawn: b.Overdrawn(),
		}
	}
	for i, st := range s.Stale {
		dto.StaleRecords[i] = StaleRecordDTO{ID: st.ID, Stored: st.Stored, Recounted: st.Recounted}
	}
	return dto
}
