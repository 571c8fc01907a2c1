package group

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/tutoria/core"
	"github.com/trezcool/tutoria/core/schedule"
)

// Group is a class group that meets once a week.
type Group struct {
	ID           uuid.UUID          `json:"id" db:"id"`
	Name         string             `json:"name" db:"name"`
	Code         string             `json:"code" db:"code"`
	TeacherName  string             `json:"teacher_name" db:"teacher_name"`
	TeacherEmail string             `json:"teacher_email" db:"teacher_email"`
	Day          schedule.Weekday   `json:"day" db:"day"`
	StartTime    schedule.TimeOfDay `json:"start_time" db:"start_time"`
	EndTime      schedule.TimeOfDay `json:"end_time" db:"end_time"`
	Capacity     int                `json:"capacity" db:"capacity"`
	MeetLink     string             `json:"meet_link" db:"meet_link"`
	IsActive     bool               `json:"is_active" db:"is_active"`
	EndsOn       *schedule.Date     `json:"ends_on" db:"ends_on"`
	CreatedAt    time.Time          `json:"created_at" db:"created_at"` // UTC
	UpdatedAt    time.Time          `json:"updated_at" db:"updated_at"` // UTC
}

// DurationMinutes is the length of one session.
func (g Group) DurationMinutes() (int, error) {
	return schedule.Between(g.StartTime, g.EndTime)
}

// RunsOn reports whether the group still meets on date d.
func (g Group) RunsOn(d schedule.Date) bool {
	return g.IsActive && (g.EndsOn == nil || !d.After(*g.EndsOn))
}

// NextClass resolves the next session of the group relative to ref.
// It is nil for inactive groups and for groups that end before that session.
func (g Group) NextClass(ref time.Time) *NextClass {
	occ := schedule.NextOccurrence(g.Day, g.StartTime, ref)
	if !g.RunsOn(occ.Date) {
		return nil
	}
	return &NextClass{Occurrence: occ, StartsAt: occ.Start(ref.Location())}
}

// NextClass is an occurrence of a group, with its start instant.
type NextClass struct {
	schedule.Occurrence
	StartsAt time.Time `json:"starts_at"`
}

// Detail is a Group along with its derived schedule information.
type Detail struct {
	Group
	DurationMinutes int        `json:"duration_minutes"`
	NextClass       *NextClass `json:"next_class"`
}

// UpcomingClass is the next session of a given group.
type UpcomingClass struct {
	Group Group `json:"group"`
	NextClass
}

// ClassDate is one session of a group within a calendar month.
type ClassDate struct {
	Date      schedule.Date      `json:"date"`
	StartTime schedule.TimeOfDay `json:"start_time"`
	EndTime   schedule.TimeOfDay `json:"end_time"`
	GroupID   uuid.UUID          `json:"group_id"`
	Name      string             `json:"name"`
	Code      string             `json:"code"`
	MeetLink  string             `json:"meet_link"`
}

// NewGroup contains information needed to create a new Group.
type NewGroup struct {
	Name         string `json:"name" validate:"notblank,max=100"`
	Code         string `json:"code" validate:"required,max=20,code"`
	TeacherName  string `json:"teacher_name" validate:"notblank,max=100"`
	TeacherEmail string `json:"teacher_email" validate:"omitempty,email"`
	Day          string `json:"day" validate:"required,weekday"`
	StartTime    string `json:"start_time" validate:"required,timeofday"`
	EndTime      string `json:"end_time" validate:"required,timeofday"`
	Capacity     int    `json:"capacity" validate:"gte=0"`
	MeetLink     string `json:"meet_link" validate:"omitempty,url"`
	EndsOn       string `json:"ends_on" validate:"omitempty,datetime=2006-01-02"`
}

func (ng *NewGroup) clean() {
	ng.Name = core.CleanString(ng.Name)
	ng.Code = core.CleanString(ng.Code)
	ng.TeacherName = core.CleanString(ng.TeacherName)
	ng.TeacherEmail = core.CleanString(ng.TeacherEmail, true /* lower */)
	ng.Day = core.CleanString(ng.Day)
	ng.StartTime = core.CleanString(ng.StartTime)
	ng.EndTime = core.CleanString(ng.EndTime)
	ng.MeetLink = core.CleanString(ng.MeetLink)
	ng.EndsOn = core.CleanString(ng.EndsOn)
}

func (ng *NewGroup) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	ng.clean()
	if err := validate.Struct(ng); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, ng.Code)
}

// UpdateGroup defines what information may be provided to modify an existing Group.
// Empty fields keep their current value.
type UpdateGroup struct {
	Name         string  `json:"name" validate:"omitempty,max=100"`
	Code         string  `json:"code" validate:"omitempty,max=20,code"`
	TeacherName  string  `json:"teacher_name" validate:"omitempty,max=100"`
	TeacherEmail string  `json:"teacher_email" validate:"omitempty,email"`
	Day          string  `json:"day" validate:"omitempty,weekday"`
	StartTime    string  `json:"start_time" validate:"omitempty,timeofday"`
	EndTime      string  `json:"end_time" validate:"omitempty,timeofday"`
	Capacity     *int    `json:"capacity" validate:"omitempty,gte=0"`
	MeetLink     string  `json:"meet_link" validate:"omitempty,url"`
	IsActive     *bool   `json:"is_active"`
	EndsOn       *string `json:"ends_on"` // "" clears the end date
}

// Validate fills the empty fields of uu from orig before validating, so that
// the time range is always checked on the resulting group.
func (uu *UpdateGroup) Validate(ctx context.Context, orig Group, validate *validator.Validate, svc *Service) error {
	keep := func(val *string, origVal string, lower ...bool) {
		if cleaned := core.CleanString(*val, lower...); cleaned != "" {
			*val = cleaned
		} else {
			*val = origVal
		}
	}
	keep(&uu.Name, orig.Name)
	keep(&uu.Code, orig.Code)
	keep(&uu.TeacherName, orig.TeacherName)
	keep(&uu.TeacherEmail, orig.TeacherEmail, true /* lower */)
	keep(&uu.Day, orig.Day.String())
	keep(&uu.StartTime, orig.StartTime.String())
	keep(&uu.EndTime, orig.EndTime.String())
	keep(&uu.MeetLink, orig.MeetLink)

	if err := validate.Struct(uu); err != nil {
		return err
	}
	if uu.EndsOn != nil && *uu.EndsOn != "" {
		if _, err := schedule.ParseDate(*uu.EndsOn); err != nil {
			return core.NewValidationError(err, core.FieldError{Field: "ends_on", Error: "invalid date, expected YYYY-MM-DD"})
		}
	}
	return svc.CheckUniqueness(ctx, uu.Code, orig.ID)
}

// apply copies the validated update onto g.
func (uu UpdateGroup) apply(g *Group) error {
	day, start, end, err := parseSlot(uu.Day, uu.StartTime, uu.EndTime)
	if err != nil {
		return err
	}
	g.Name = uu.Name
	g.Code = uu.Code
	g.TeacherName = uu.TeacherName
	g.TeacherEmail = uu.TeacherEmail
	g.Day = day
	g.StartTime = start
	g.EndTime = end
	g.MeetLink = uu.MeetLink
	if uu.Capacity != nil {
		g.Capacity = *uu.Capacity
	}
	if uu.IsActive != nil {
		g.IsActive = *uu.IsActive
	}
	if uu.EndsOn != nil {
		if g.EndsOn, err = parseOptionalDate(*uu.EndsOn); err != nil {
			return err
		}
	}
	return nil
}

func parseSlot(day, start, end string) (schedule.Weekday, schedule.TimeOfDay, schedule.TimeOfDay, error) {
	var s, e schedule.TimeOfDay
	d, err := schedule.ParseWeekday(day)
	if err != nil {
		return d, s, e, core.NewFieldValidationError("day", err)
	}
	if s, err = schedule.ParseTimeOfDay(start); err != nil {
		return d, s, e, core.NewFieldValidationError("start_time", err)
	}
	if e, err = schedule.ParseTimeOfDay(end); err != nil {
		return d, s, e, core.NewFieldValidationError("end_time", err)
	}
	if _, err = schedule.Between(s, e); err != nil {
		return d, s, e, core.NewFieldValidationError("end_time", err)
	}
	return d, s, e, nil
}

func parseOptionalDate(s string) (*schedule.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := schedule.ParseDate(s)
	if err != nil {
		return nil, errors.Wrap(err, "parsing ends_on")
	}
	return &d, nil
}

type QueryFilter struct {
	Search       string   `query:"search"` // name, code or teacher name
	Days         []string `query:"day"`
	TeacherEmail string   `query:"teacher_email"`
	IsActive     *bool    `query:"is_active"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && len(qf.Days) == 0 && qf.TeacherEmail == "" && qf.IsActive == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.TeacherEmail = core.CleanString(qf.TeacherEmail, true /* lower */)
}

// Weekdays returns the filtered days, ignoring unknown ones.
func (qf *QueryFilter) Weekdays() []schedule.Weekday {
	days := make([]schedule.Weekday, 0, len(qf.Days))
	for _, s := range qf.Days {
		if d, err := schedule.ParseWeekday(s); err == nil {
			days = append(days, d)
		}
	}
	return days
}
