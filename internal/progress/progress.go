package progress

import "github.com/dukerupert/lightfamily/internal/model"

// New returns a week with every day incomplete and no notes.
func New() model.StudyProgress {
	p := make(model.StudyProgress, len(model.Days))
	for _, d := range model.Days {
		p[d] = model.StudyDay{}
	}
	return p
}

// Clone returns an independent copy of p.
func Clone(p model.StudyProgress) model.StudyProgress {
	out := make(model.StudyProgress, len(p))
	for d, sd := range p {
		out[d] = sd
	}
	return out
}

// AllCompleted reports whether every day of the week is checked.
func AllCompleted(p model.StudyProgress) bool {
	for _, d := range model.Days {
		if !p[d].Completed {
			return false
		}
	}
	return true
}

// CompletedCount returns the number of checked days.
func CompletedCount(p model.StudyProgress) int {
	n := 0
	for _, d := range model.Days {
		if p[d].Completed {
			n++
		}
	}
	return n
}
