// Package export renders the diary retention window as the plain-text
// report shared with the local health authority. The format is
// compatibility-sensitive: for a fixed clock and fixed rows the output is
// byte-stable, and the golden test pins it.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/exposurekit/contactdiary/internal/store"
)

// disclaimer is the fixed legal line below the header. Do not reword.
const disclaimer = "Die nachfolgende Liste dient dem zuständigen Gesundheitsamt zur Kontaktnachverfolgung gem. § 25 IfSG."

// FromStore renders the report for the store's current day view.
func FromStore(s *store.Store) (string, error) {
	days := s.Days()
	if len(days) == 0 {
		return "", fmt.Errorf("export: empty day view")
	}
	return Render(days), nil
}

// Render produces the report for a day view snapshot, newest day first as
// published by the store:
//
//	Kontakte der letzten <N> Tage (<start> - <end>)
//	<disclaimer>
//
//	DD.MM.YYYY <name>   (selected persons of the day, then locations)
//	...
//
// with a blank line at the end. Dates are locale-formatted as DD.MM.YYYY.
func Render(days []store.DiaryDay) string {
	var b strings.Builder

	end := displayDate(days[0].Date)
	start := displayDate(days[len(days)-1].Date)
	fmt.Fprintf(&b, "Kontakte der letzten %d Tage (%s - %s)\n", len(days), start, end)
	b.WriteString(disclaimer + "\n\n")

	for _, day := range days {
		date := displayDate(day.Date)
		for _, entry := range day.Entries {
			if !entry.Selected {
				continue
			}
			fmt.Fprintf(&b, "%s %s\n", date, entry.Name)
		}
	}

	b.WriteString("\n")
	return b.String()
}

// displayDate reformats an ISO date as DD.MM.YYYY. Unparseable dates are
// passed through so one malformed row cannot sink the whole report.
func displayDate(iso string) string {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return iso
	}
	return t.Format("02.01.2006")
}
