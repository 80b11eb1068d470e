package summary

import (
	"strings"

	"github.com/dukerupert/lightfamily/internal/model"
	"github.com/dukerupert/lightfamily/internal/progress"
)

const (
	Header       = "--- Light Family Study Summary ---\n\n"
	noDays       = "No days logged"
	completeMark = " (Complete! ✨)"
)

// Export renders the weekly report copied to the clipboard by the Export action.
func Export(members []model.FamilyMember) string {
	lines := make([]string, 0, len(members))
	for _, m := range members {
		lines = append(lines, Line(m))
	}
	return Header + strings.Join(lines, "\n")
}

// Line renders one member's row. Completed days appear in week order with
// their note in parentheses; the row always keeps the space before the
// completion mark, even when the mark is absent.
func Line(m model.FamilyMember) string {
	var details []string
	for _, d := range model.Days {
		sd := m.Progress[d]
		if !sd.Completed {
			continue
		}
		if sd.Note != "" {
			details = append(details, string(d)+" ("+sd.Note+")")
		} else {
			details = append(details, string(d))
		}
	}

	text := noDays
	if len(details) > 0 {
		text = strings.Join(details, ", ")
	}

	suffix := ""
	if progress.AllCompleted(m.Progress) {
		suffix = completeMark
	}
	return m.Name + ": " + text + " " + suffix
}
