package schedule

import (
	"database/sql/driver"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
)

// Weekday numbering follows time.Weekday: Sunday = 0 ... Saturday = 6.
type Weekday int

const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

const daysPerWeek = 7

var ErrUnknownWeekday = errors.New("unknown day of week")

var weekdayNames = map[string]Weekday{
	// english
	"sunday": Sunday, "sun": Sunday,
	"monday": Monday, "mon": Monday,
	"tuesday": Tuesday, "tue": Tuesday,
	"wednesday": Wednesday, "wed": Wednesday,
	"thursday": Thursday, "thu": Thursday,
	"friday": Friday, "fri": Friday,
	"saturday": Saturday, "sat": Saturday,

	// spanish (DiaSemana)
	"domingo": Sunday, "dom": Sunday,
	"lunes": Monday, "lun": Monday,
	"martes": Tuesday, "mar": Tuesday,
	"miercoles": Wednesday, "miércoles": Wednesday, "mie": Wednesday, "mié": Wednesday,
	"jueves": Thursday, "jue": Thursday,
	"viernes": Friday, "vie": Friday,
	"sabado": Saturday, "sábado": Saturday, "sab": Saturday, "sáb": Saturday,
}

// WeekdayOf is the only place where a calendar instant is turned into a Weekday.
func WeekdayOf(t time.Time) Weekday {
	return Weekday(t.Weekday())
}

// Weekdays returns all days, Sunday first.
func Weekdays() []Weekday {
	return []Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}
}

// ParseWeekday accepts english and spanish day names or their 3-letter abbreviations, in any case.
func ParseWeekday(s string) (Weekday, error) {
	if d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return d, nil
	}
	if hint, ok := suggestWeekday(s); ok {
		return 0, errors.Wrapf(ErrUnknownWeekday, "%q (did you mean %q?)", s, hint)
	}
	return 0, errors.Wrapf(ErrUnknownWeekday, "%q", s)
}

// minSuggestRatio is how similar a misspelled day must be to a full day name to be suggested.
const minSuggestRatio = 0.75

// suggestWeekday returns the full day name closest to s, if any is close enough.
func suggestWeekday(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", false
	}

	names := make([]string, 0, len(weekdayNames))
	for name := range weekdayNames {
		if len([]rune(name)) > 3 { // skip abbreviations
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var best string
	var bestRatio float64
	for _, name := range names {
		ratio := difflib.NewMatcher(strings.Split(s, ""), strings.Split(name, "")).Ratio()
		if ratio > bestRatio {
			best, bestRatio = name, ratio
		}
	}
	return best, bestRatio >= minSuggestRatio
}

func (d Weekday) Valid() bool { return d >= Sunday && d <= Saturday }

func (d Weekday) String() string {
	if !d.Valid() {
		return "Weekday(" + strconv.Itoa(int(d)) + ")"
	}
	return time.Weekday(d).String()
}

func (d Weekday) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, errors.Wrapf(ErrUnknownWeekday, "%d", int(d))
	}
	return []byte(strings.ToLower(d.String())), nil
}

func (d *Weekday) UnmarshalText(b []byte) error {
	parsed, err := ParseWeekday(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Weekday) MarshalJSON() ([]byte, error) {
	b, err := d.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(b))
}

func (d *Weekday) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.Wrap(ErrUnknownWeekday, "expected a string")
	}
	return d.UnmarshalText([]byte(s))
}

// Value implements driver.Valuer; days are stored as their Sunday-based ordinal.
func (d Weekday) Value() (driver.Value, error) {
	if !d.Valid() {
		return nil, errors.Wrapf(ErrUnknownWeekday, "%d", int(d))
	}
	return int64(d), nil
}

// Scan implements sql.Scanner.
func (d *Weekday) Scan(src interface{}) error {
	var n int64
	switch v := src.(type) {
	case int64:
		n = v
	case int32:
		n = int64(v)
	case int:
		n = int64(v)
	default:
		return errors.Errorf("schedule: cannot scan %T into Weekday", src)
	}
	if w := Weekday(n); w.Valid() {
		*d = w
		return nil
	}
	return errors.Wrapf(ErrUnknownWeekday, "%d", n)
}
