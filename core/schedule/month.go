package schedule

import (
	"time"

	"github.com/pkg/errors"
	"github.com/teambition/rrule-go"
)

var rruleWeekdays = [daysPerWeek]rrule.Weekday{
	rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA,
}

// DatesInMonth lists every date of year/month falling on day, in order.
func DatesInMonth(day Weekday, year int, month time.Month) ([]Date, error) {
	if !day.Valid() {
		return nil, errors.Wrapf(ErrUnknownWeekday, "%d", int(day))
	}
	if month < time.January || month > time.December {
		return nil, errors.Errorf("invalid month %d", int(month))
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: []rrule.Weekday{rruleWeekdays[day]},
		Dtstart:   first,
	})
	if err != nil {
		return nil, errors.Wrap(err, "building weekly rule")
	}

	occurrences := rule.Between(first, last, true)
	dates := make([]Date, 0, len(occurrences))
	for _, t := range occurrences {
		dates = append(dates, DateOf(t))
	}
	return dates, nil
}
