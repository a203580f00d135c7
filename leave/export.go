package leave

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Gonosen60/gestion-conges-app/generic"
)

// DateStyle selects how dates are written in exports and listings.
type DateStyle int

const (
	DatesISO    DateStyle = iota // 2025-07-14
	DatesFrench                  // 14/07/2025
)

// ParseDateStyle accepts "iso" (or empty) and "fr".
func ParseDateStyle(s string) (DateStyle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "iso":
		return DatesISO, nil
	case "fr", "french":
		return DatesFrench, nil
	default:
		return DatesISO, fmt.Errorf("unknown date style %q (want iso or fr)", s)
	}
}

func (s DateStyle) Format(d generic.Date) string {
	if s == DatesFrench {
		return d.French()
	}
	return d.String()
}

// ExportHeader is the first CSV row.
var ExportHeader = []string{"Type", "Début", "Fin", "Jours"}

// WriteCSV writes records as UTF-8 CSV with ExportHeader.
func WriteCSV(w io.Writer, records []Record, style DateStyle) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		row := []string{
			string(r.Category),
			style.Format(r.Start),
			style.Format(r.End),
			strconv.Itoa(r.ChargedDays),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write record %s: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
