package schedule

import "time"

// Occurrence is the resolved next session of a weekly class.
type Occurrence struct {
	Date      Date      `json:"date"`
	TimeOfDay TimeOfDay `json:"time"`
	// MinutesUntilStart is set only when the occurrence is on the reference date.
	MinutesUntilStart *int `json:"minutes_until_start"`
}

// IsToday reports whether the occurrence falls on the reference date.
func (o Occurrence) IsToday() bool { return o.MinutesUntilStart != nil }

// Start returns the occurrence as an instant in loc.
func (o Occurrence) Start(loc *time.Location) time.Time {
	return o.TimeOfDay.On(o.Date, loc)
}

// NextOccurrence resolves the next session of a class held every week on day at at,
// relative to the wall clock of ref.
//
// A session starting exactly at ref counts as already started and resolves to next week.
func NextOccurrence(day Weekday, at TimeOfDay, ref time.Time) Occurrence {
	offset := dayOffset(day, WeekdayOf(ref))
	now := TimeOfDayOf(ref)

	if offset == 0 && hasStarted(at, now) {
		offset = daysPerWeek
	}

	occ := Occurrence{
		Date:      DateOf(ref).AddDays(offset),
		TimeOfDay: at,
	}
	if offset == 0 {
		mins := at.minutes - now.minutes
		occ.MinutesUntilStart = &mins
	}
	return occ
}

// dayOffset returns how many days ahead target is from now, in [0, 6].
// Out of range weekdays are taken modulo the week.
func dayOffset(target, now Weekday) int {
	return ((int(target)-int(now))%daysPerWeek + daysPerWeek) % daysPerWeek
}

// hasStarted applies the closed cutoff: equal hour and minute counts as started.
func hasStarted(at, now TimeOfDay) bool {
	return now.Hour() > at.Hour() || (now.Hour() == at.Hour() && now.Minute() >= at.Minute())
}
