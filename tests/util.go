package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/tutoria/core"
	"github.com/trezcool/tutoria/core/group"
	"github.com/trezcool/tutoria/core/schedule"
)

// NewValidator returns a validator with every application validator registered.
func NewValidator() (*validator.Validate, func(validator.FieldError) string) {
	translator := core.NewTranslator()
	validate := core.NewValidator(translator)
	group.InitValidators(validate, translator)
	return validate, func(fe validator.FieldError) string { return fe.Translate(translator) }
}

// CreateGroup stores an active group meeting every week on day, from start to end ("HH:MM").
func CreateGroup(
	t *testing.T,
	repo group.Repository,
	name, code string,
	day schedule.Weekday,
	start, end string,
	opts ...func(*group.Group),
) group.Group {
	now := time.Now().UTC()
	grp := group.Group{
		Name:         name,
		Code:         code,
		TeacherName:  "Teacher " + name,
		TeacherEmail: "teacher." + code + "@test.cd",
		Day:          day,
		StartTime:    schedule.MustParseTimeOfDay(start),
		EndTime:      schedule.MustParseTimeOfDay(end),
		Capacity:     20,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, opt := range opts {
		opt(&grp)
	}
	grp, err := repo.CreateGroup(context.Background(), grp)
	if err != nil {
		t.Fatalf("CreateGroup() failed: %v", err)
	}
	return grp
}

// Inactive marks a group created by CreateGroup as inactive.
func Inactive(grp *group.Group) { grp.IsActive = false }

// EndsOn sets the last day a group created by CreateGroup meets.
func EndsOn(d schedule.Date) func(*group.Group) {
	return func(grp *group.Group) { grp.EndsOn = &d }
}
