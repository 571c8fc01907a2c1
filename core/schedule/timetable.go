package schedule

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrInvalidTimetable = errors.New("invalid timetable")

	// any digit run around a colon is handed to ParseTimeOfDay, which rejects what is not H:MM
	timetableTimeRegex = regexp.MustCompile(`(\d+(?::\d+)+)(?:\s*-\s*(\d+(?::\d+)+))?`)
	timetableWordRegex = regexp.MustCompile(`\pL+`)
)

// Timetable is a free-text weekly schedule such as "Lun y Mie 19:00" or "Lun-Vie 9:00-12:00".
type Timetable struct {
	Days  []Weekday  `json:"days"`
	Start TimeOfDay  `json:"start"`
	End   *TimeOfDay `json:"end,omitempty"`
}

// ParseTimetable extracts the week days and the time range of a schedule text.
// Day names may be english or spanish, full or abbreviated; "Lun-Vie" expands to every
// day in between. The first H:MM (optionally followed by "-H:MM") is the time range.
func ParseTimetable(s string) (Timetable, error) {
	loc := timetableTimeRegex.FindStringSubmatchIndex(s)
	if loc == nil {
		return Timetable{}, errors.Wrapf(ErrInvalidTimetable, "%q has no H:MM time", s)
	}

	var tt Timetable
	var err error
	if tt.Start, err = ParseTimeOfDay(s[loc[2]:loc[3]]); err != nil {
		return Timetable{}, err
	}
	if loc[4] >= 0 {
		end, err := ParseTimeOfDay(s[loc[4]:loc[5]])
		if err != nil {
			return Timetable{}, err
		}
		if _, err = Between(tt.Start, end); err != nil {
			return Timetable{}, err
		}
		tt.End = &end
	}

	tt.Days = parseTimetableDays(s[:loc[0]] + " " + s[loc[1]:])
	if len(tt.Days) == 0 {
		return Timetable{}, errors.Wrapf(ErrInvalidTimetable, "%q has no day of week", s)
	}
	return tt, nil
}

func parseTimetableDays(text string) []Weekday {
	seen := make(map[Weekday]bool, daysPerWeek)

	var prev Weekday
	prevEnd := -1
	for _, w := range timetableWordRegex.FindAllStringIndex(text, -1) {
		d, err := ParseWeekday(text[w[0]:w[1]])
		if err != nil {
			continue // connectors: "y", "and", "de"...
		}
		if prevEnd >= 0 && strings.Contains(text[prevEnd:w[0]], "-") {
			for i := 1; i < dayOffset(d, prev); i++ {
				seen[Weekday((int(prev)+i)%daysPerWeek)] = true
			}
		}
		seen[d] = true
		prev, prevEnd = d, w[1]
	}

	days := make([]Weekday, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days
}

// Duration returns the length of the session in minutes when the timetable has an end time.
func (tt Timetable) Duration() (int, bool) {
	if tt.End == nil {
		return 0, false
	}
	mins, err := Between(tt.Start, *tt.End)
	return mins, err == nil
}

// Next resolves the earliest upcoming session over all the timetable's days.
// It reports false when until is set and either precedes ref or precedes that session.
func (tt Timetable) Next(ref time.Time, until *time.Time) (Occurrence, bool) {
	if until != nil && until.Before(ref) {
		return Occurrence{}, false
	}

	var next Occurrence
	var found bool
	for _, d := range tt.Days {
		occ := NextOccurrence(d, tt.Start, ref)
		if !found || occ.Date.Before(next.Date) {
			next, found = occ, true
		}
	}
	if !found {
		return Occurrence{}, false
	}
	if until != nil && next.Start(ref.Location()).After(*until) {
		return Occurrence{}, false
	}
	return next, true
}

func (tt Timetable) String() string {
	names := make([]string, 0, len(tt.Days))
	for _, d := range tt.Days {
		names = append(names, d.String())
	}
	s := strings.Join(names, ", ") + " " + tt.Start.String()
	if tt.End != nil {
		s += "-" + tt.End.String()
	}
	return s
}
