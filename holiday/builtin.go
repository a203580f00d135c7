package holiday

import (
	"context"

	cal "github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/fr"

	"github.com/Gonosen60/gestion-conges-app/calendar"
	"github.com/Gonosen60/gestion-conges-app/generic"
)

// BuiltinSource computes metropolitan French holidays locally, for
// deployments without outbound network access.
type BuiltinSource struct {
	holidays []*cal.Holiday
}

func NewBuiltinSource() *BuiltinSource {
	return &BuiltinSource{holidays: fr.Holidays}
}

func (s *BuiltinSource) Name() string { return "builtin:fr" }

func (s *BuiltinSource) Holidays(_ context.Context, year int) (calendar.HolidaySet, error) {
	names := make(map[generic.Date]string, len(s.holidays))
	for _, h := range s.holidays {
		actual, _ := h.Calc(year)
		if actual.IsZero() {
			continue
		}
		names[generic.DateOf(actual)] = h.Name
	}
	return calendar.NewHolidaySet(names), nil
}
