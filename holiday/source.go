// Package holiday supplies public-holiday sets per year.
//
// A Source performs one lookup and reports failures. The Provider wraps a
// Source with per-year caching and turns every failure into an empty set,
// so counting never stops because the holiday service is down.
package holiday

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Gonosen60/gestion-conges-app/calendar"
	"github.com/Gonosen60/gestion-conges-app/generic"
)

// Source returns the public holidays of one year.
type Source interface {
	Holidays(ctx context.Context, year int) (calendar.HolidaySet, error)
	Name() string
}

// =============================================================================
// API SOURCE - calendrier.api.gouv.fr
// =============================================================================

const (
	DefaultAPIURL = "https://calendrier.api.gouv.fr/jours-feries"
	DefaultZone   = "metropole"
)

// APISource queries the French government holiday API:
//
//	GET {BaseURL}/{Zone}/{year}.json -> {"2025-01-01": "1er janvier", ...}
type APISource struct {
	BaseURL string
	Zone    string
	Client  *http.Client
}

// NewAPISource creates an API source. Empty arguments take the defaults.
func NewAPISource(baseURL, zone string, timeout time.Duration) *APISource {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	if zone == "" {
		zone = DefaultZone
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &APISource{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Zone:    zone,
		Client:  &http.Client{Timeout: timeout},
	}
}

func (s *APISource) Name() string { return "api:" + s.Zone }

func (s *APISource) url(year int) string {
	return fmt.Sprintf("%s/%s/%d.json", s.BaseURL, s.Zone, year)
}

// Holidays performs a single GET. Any transport error, non-200 status or
// payload that is not an object keyed by ISO dates is a *generic.HolidayLookupError.
func (s *APISource) Holidays(ctx context.Context, year int) (calendar.HolidaySet, error) {
	url := s.url(year)
	fail := func(status int, err error) (calendar.HolidaySet, error) {
		return calendar.HolidaySet{}, &generic.HolidayLookupError{Year: year, Source: url, StatusCode: status, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fail(0, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return fail(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fail(resp.StatusCode, nil)
	}

	var payload map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fail(resp.StatusCode, fmt.Errorf("decode payload: %w", err))
	}

	names := make(map[generic.Date]string, len(payload))
	for key, name := range payload {
		d, err := generic.ParseISODate(key)
		if err != nil {
			return fail(resp.StatusCode, fmt.Errorf("payload key: %w", err))
		}
		names[d] = name
	}
	return calendar.NewHolidaySet(names), nil
}
