// Package schedule parses wall-clock times and resolves weekly class recurrences.
//
// Everything in here is pure: callers pass the reference instant explicitly and
// nothing reads the system clock.
package schedule

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

const (
	minutesPerHour = 60
	minutesPerDay  = 24 * minutesPerHour
)

var timeOfDayRegex = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// TimeOfDay is a validated wall-clock time with minute precision and no date.
// The zero value is midnight.
type TimeOfDay struct {
	minutes int // [0, 1439]
}

// ParseTimeOfDay parses "H:MM" or "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if s == "" {
		return TimeOfDay{}, &InvalidFormatError{Input: s, Reason: "empty or non-string value"}
	}
	m := timeOfDayRegex.FindStringSubmatch(s)
	if m == nil {
		return TimeOfDay{}, &InvalidFormatError{Input: s, Reason: s + " does not match HH:MM"}
	}

	hours, _ := strconv.Atoi(m[1])   // the regex guarantees digits
	minutes, _ := strconv.Atoi(m[2]) // idem
	if hours > 23 {
		return TimeOfDay{}, &OutOfRangeError{Unit: "hours", Value: hours, Min: 0, Max: 23}
	}
	if minutes > 59 {
		return TimeOfDay{}, &OutOfRangeError{Unit: "minutes", Value: minutes, Min: 0, Max: 59}
	}
	return TimeOfDay{minutes: hours*minutesPerHour + minutes}, nil
}

// MustParseTimeOfDay is like ParseTimeOfDay but panics on error. Meant for constants and tests.
func MustParseTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(fmt.Sprintf("schedule: MustParseTimeOfDay(%q): %v", s, err))
	}
	return t
}

// TimeOfDayOf returns the wall-clock time of t, truncated to the minute.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay{minutes: t.Hour()*minutesPerHour + t.Minute()}
}

func (t TimeOfDay) Hour() int         { return t.minutes / minutesPerHour }
func (t TimeOfDay) Minute() int       { return t.minutes % minutesPerHour }
func (t TimeOfDay) TotalMinutes() int { return t.minutes }

func (t TimeOfDay) Before(u TimeOfDay) bool { return t.minutes < u.minutes }
func (t TimeOfDay) After(u TimeOfDay) bool  { return t.minutes > u.minutes }
func (t TimeOfDay) Equal(u TimeOfDay) bool  { return t.minutes == u.minutes }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// On returns the instant at which t happens on date d in loc.
func (t TimeOfDay) On(d Date, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, t.Hour(), t.Minute(), 0, 0, loc)
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	parsed, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return &InvalidFormatError{Input: string(b), Reason: "empty or non-string value"}
	}
	return t.UnmarshalText([]byte(s))
}

// Value implements driver.Valuer; times are stored as "HH:MM" text.
func (t TimeOfDay) Value() (driver.Value, error) {
	return t.String(), nil
}

// Scan implements sql.Scanner.
func (t *TimeOfDay) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		return t.UnmarshalText([]byte(v))
	case []byte:
		return t.UnmarshalText(v)
	case nil:
		return &InvalidFormatError{Reason: "empty or non-string value"}
	default:
		return errors.Errorf("schedule: cannot scan %T into TimeOfDay", src)
	}
}
