package model

// Day is one of the seven fixed keys of a study week, which starts on Sabbath.
type Day string

const (
	Sabbath   Day = "Sab"
	Sunday    Day = "Sun"
	Monday    Day = "Mon"
	Tuesday   Day = "Tue"
	Wednesday Day = "Wed"
	Thursday  Day = "Thu"
	Friday    Day = "Fri"
)

// Days lists the study week in display order.
var Days = []Day{Sabbath, Sunday, Monday, Tuesday, Wednesday, Thursday, Friday}

// ParseDay reports whether s names one of the seven week days.
func ParseDay(s string) (Day, bool) {
	for _, d := range Days {
		if string(d) == s {
			return d, true
		}
	}
	return "", false
}

// StudyDay is one day of a member's week: whether they read, and what.
type StudyDay struct {
	Completed bool   `json:"completed"`
	Note      string `json:"note"`
}

// StudyProgress maps every day of the week to its study record.
type StudyProgress map[Day]StudyDay
