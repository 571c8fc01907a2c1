package group_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/tutoria/core"
	"github.com/trezcool/tutoria/core/group"
	"github.com/trezcool/tutoria/core/schedule"
	"github.com/trezcool/tutoria/storage/database/inmem"
	"github.com/trezcool/tutoria/tests"
)

// ref is Wednesday 2024-03-06 18:00 UTC.
var ref = time.Date(2024, time.March, 6, 18, 0, 0, 0, time.UTC)

func setup() (*group.Service, group.Repository) {
	repo := inmemdb.NewGroupRepository(inmemdb.Open())
	return group.NewService(repo, core.FixedClock{T: ref}), repo
}

func TestNewGroup_Validate(t *testing.T) {
	ctx := context.Background()
	svc, repo := setup()
	validate, translate := testutil.NewValidator()
	testutil.CreateGroup(t, repo, "Math", "MAT-101", schedule.Monday, "19:00", "21:00")

	valid := func() group.NewGroup {
		return group.NewGroup{
			Name: " Physics ", Code: "PHY-101", TeacherName: "Ada", TeacherEmail: "ADA@test.cd",
			Day: "Miércoles", StartTime: "8:00", EndTime: "10:30", EndsOn: "2024-06-30",
		}
	}

	t.Run("valid", func(t *testing.T) {
		ng := valid()
		require.NoError(t, ng.Validate(ctx, validate, svc))
		assert.Equal(t, "Physics", ng.Name)
		assert.Equal(t, "ada@test.cd", ng.TeacherEmail)

		grp, err := svc.Create(ctx, ng)
		require.NoError(t, err)
		assert.Equal(t, schedule.Wednesday, grp.Day)
		assert.Equal(t, "08:00", grp.StartTime.String())
		assert.True(t, grp.IsActive)
		require.NotNil(t, grp.EndsOn)
		assert.Equal(t, "2024-06-30", grp.EndsOn.String())
		assert.True(t, ref.Equal(grp.CreatedAt), grp.CreatedAt)
		assert.True(t, ref.Equal(grp.UpdatedAt), grp.UpdatedAt)
	})

	fieldErrors := func(t *testing.T, err error) map[string]string {
		var vErrs validator.ValidationErrors
		require.ErrorAs(t, err, &vErrs)
		got := make(map[string]string, len(vErrs))
		for _, vErr := range vErrs {
			got[vErr.Field()] = translate(vErr)
		}
		return got
	}

	t.Run("end before start", func(t *testing.T) {
		ng := valid()
		ng.StartTime, ng.EndTime = "10:00", "09:00"
		assert.Equal(t, map[string]string{
			"end_time": "end time 09:00 precedes start time 10:00; crossing midnight is not supported",
		}, fieldErrors(t, ng.Validate(ctx, validate, svc)))
	})

	t.Run("bad fields", func(t *testing.T) {
		ng := valid()
		ng.Day, ng.StartTime, ng.MeetLink, ng.EndsOn = "funday", "24:00", "not a link", "30/06/2024"
		got := fieldErrors(t, ng.Validate(ctx, validate, svc))
		assert.Equal(t, "unknown day of week", got["day"])
		assert.Equal(t, "hours 24 out of range 0-23", got["start_time"])
		assert.Contains(t, got, "meet_link")
		assert.Contains(t, got, "ends_on")
	})

	t.Run("code taken", func(t *testing.T) {
		ng := valid()
		ng.Code = "mat-101"
		err := ng.Validate(ctx, validate, svc)
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, []core.FieldError{{Field: "code", Error: group.ErrCodeExists.Error()}}, vErr.Fields)
	})
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	svc, repo := setup()
	validate, translate := testutil.NewValidator()
	endsOn := schedule.Date{Year: 2024, Month: time.June, Day: 30}
	grp := testutil.CreateGroup(t, repo, "Math", "MAT-101", schedule.Monday, "19:00", "21:00", testutil.EndsOn(endsOn))
	other := testutil.CreateGroup(t, repo, "Physics", "PHY-101", schedule.Monday, "08:00", "10:00")

	t.Run("start after current end", func(t *testing.T) {
		uu := group.UpdateGroup{StartTime: "21:30"}
		err := uu.Validate(ctx, grp, validate, svc)
		var vErrs validator.ValidationErrors
		require.ErrorAs(t, err, &vErrs)
		require.Len(t, vErrs, 1)
		assert.Equal(t, "end_time", vErrs[0].Field())
		assert.Equal(t, "end time 21:00 precedes start time 21:30; crossing midnight is not supported", translate(vErrs[0]))
	})

	t.Run("code taken by another group", func(t *testing.T) {
		uu := group.UpdateGroup{Code: other.Code}
		var vErr *core.ValidationError
		require.ErrorAs(t, uu.Validate(ctx, grp, validate, svc), &vErr)
	})

	t.Run("partial update keeps the rest", func(t *testing.T) {
		inactive, clear := false, ""
		uu := group.UpdateGroup{Day: "martes", EndTime: "22:00", IsActive: &inactive, EndsOn: &clear}
		require.NoError(t, uu.Validate(ctx, grp, validate, svc))

		got, err := svc.Update(ctx, grp.ID.String(), uu)
		require.NoError(t, err)
		assert.Equal(t, grp.Code, got.Code)
		assert.Equal(t, schedule.Tuesday, got.Day)
		assert.Equal(t, "19:00", got.StartTime.String())
		assert.Equal(t, "22:00", got.EndTime.String())
		assert.False(t, got.IsActive)
		assert.Nil(t, got.EndsOn)
		assert.Equal(t, grp.Capacity, got.Capacity)
		assert.True(t, grp.CreatedAt.Equal(got.CreatedAt))
		assert.True(t, ref.Equal(got.UpdatedAt), got.UpdatedAt)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := svc.Update(ctx, "lol", group.UpdateGroup{})
		assert.ErrorIs(t, err, group.ErrNotFound)
	})
}

func TestService_Detail(t *testing.T) {
	ctx := context.Background()
	svc, repo := setup()

	tonight := testutil.CreateGroup(t, repo, "Math", "MAT-101", schedule.Wednesday, "19:00", "20:30")
	started := testutil.CreateGroup(t, repo, "Physics", "PHY-101", schedule.Wednesday, "18:00", "19:00")
	inactive := testutil.CreateGroup(t, repo, "Chemistry", "CHE-101", schedule.Friday, "10:00", "11:00", testutil.Inactive)
	ended := testutil.CreateGroup(t, repo, "Biology", "BIO-101", schedule.Friday, "10:00", "11:00",
		testutil.EndsOn(schedule.Date{Year: 2024, Month: time.March, Day: 7}))

	d, err := svc.Detail(ctx, tonight.ID.String(), ref)
	require.NoError(t, err)
	assert.Equal(t, 90, d.DurationMinutes)
	require.NotNil(t, d.NextClass)
	assert.Equal(t, "2024-03-06", d.NextClass.Date.String())
	require.NotNil(t, d.NextClass.MinutesUntilStart)
	assert.Equal(t, 60, *d.NextClass.MinutesUntilStart)
	assert.Equal(t, ref.Add(time.Hour), d.NextClass.StartsAt)

	// a class starting right now has started: next week
	d, err = svc.Detail(ctx, started.ID.String(), ref)
	require.NoError(t, err)
	require.NotNil(t, d.NextClass)
	assert.Equal(t, "2024-03-13", d.NextClass.Date.String())
	assert.Nil(t, d.NextClass.MinutesUntilStart)

	for _, grp := range []group.Group{inactive, ended} {
		d, err = svc.Detail(ctx, grp.ID.String(), ref)
		require.NoError(t, err)
		assert.Nil(t, d.NextClass, grp.Code)
	}

	_, err = svc.Detail(ctx, "not-a-uuid", ref)
	assert.ErrorIs(t, err, group.ErrNotFound)
}

func TestService_Upcoming(t *testing.T) {
	ctx := context.Background()
	svc, repo := setup()

	testutil.CreateGroup(t, repo, "Math", "MAT-101", schedule.Monday, "19:00", "21:00")
	testutil.CreateGroup(t, repo, "Physics", "PHY-101", schedule.Wednesday, "19:00", "20:00")
	testutil.CreateGroup(t, repo, "History", "HIS-101", schedule.Wednesday, "17:00", "18:30")
	testutil.CreateGroup(t, repo, "Chemistry", "CHE-101", schedule.Thursday, "07:00", "08:00", testutil.Inactive)

	classes, err := svc.Upcoming(ctx, ref, group.QueryFilter{})
	require.NoError(t, err)
	got := make([]string, 0, len(classes))
	for _, c := range classes {
		got = append(got, c.Group.Code+"@"+c.Date.String())
	}
	// HIS-101 started an hour ago: next week
	assert.Equal(t, []string{"PHY-101@2024-03-06", "MAT-101@2024-03-11", "HIS-101@2024-03-13"}, got)

	classes, err = svc.Upcoming(ctx, ref, group.QueryFilter{Search: "math"})
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "MAT-101", classes[0].Group.Code)
}

func TestService_TodayAndImminent(t *testing.T) {
	ctx := context.Background()
	svc, repo := setup()

	testutil.CreateGroup(t, repo, "Late", "LAT-101", schedule.Wednesday, "20:00", "21:00")
	testutil.CreateGroup(t, repo, "Soon", "SOO-101", schedule.Wednesday, "19:00", "20:00")
	testutil.CreateGroup(t, repo, "Begun", "BEG-101", schedule.Wednesday, "17:50", "19:00")
	testutil.CreateGroup(t, repo, "Gone", "GON-101", schedule.Wednesday, "17:49", "19:00")
	testutil.CreateGroup(t, repo, "Off", "OFF-101", schedule.Wednesday, "18:30", "19:00", testutil.Inactive)
	testutil.CreateGroup(t, repo, "Ended", "END-101", schedule.Wednesday, "18:30", "19:00",
		testutil.EndsOn(schedule.Date{Year: 2024, Month: time.March, Day: 5}))
	testutil.CreateGroup(t, repo, "Tomorrow", "TOM-101", schedule.Thursday, "18:30", "19:00")

	codes := func(groups []group.Group) []string {
		cs := make([]string, 0, len(groups))
		for _, g := range groups {
			cs = append(cs, g.Code)
		}
		return cs
	}

	today, err := svc.Today(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []string{"GON-101", "BEG-101", "SOO-101", "LAT-101"}, codes(today))

	imminent, err := svc.Imminent(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []string{"BEG-101", "SOO-101"}, codes(imminent))
}

func TestService_Calendar(t *testing.T) {
	ctx := context.Background()
	svc, repo := setup()

	testutil.CreateGroup(t, repo, "Evening", "EVE-101", schedule.Wednesday, "19:00", "20:00")
	testutil.CreateGroup(t, repo, "Morning", "MOR-101", schedule.Wednesday, "08:00", "09:00",
		testutil.EndsOn(schedule.Date{Year: 2024, Month: time.February, Day: 14}))
	testutil.CreateGroup(t, repo, "Friday", "FRI-101", schedule.Friday, "10:00", "11:00", testutil.Inactive)

	dates, err := svc.Calendar(ctx, 2024, time.February)
	require.NoError(t, err)
	got := make([]string, 0, len(dates))
	for _, d := range dates {
		got = append(got, d.Date.String()+" "+d.Code)
	}
	assert.Equal(t, []string{
		"2024-02-07 MOR-101",
		"2024-02-07 EVE-101",
		"2024-02-14 MOR-101",
		"2024-02-14 EVE-101",
		"2024-02-21 EVE-101",
		"2024-02-28 EVE-101",
	}, got)

	_, err = svc.Calendar(ctx, 2024, time.Month(13))
	var vErr *core.ValidationError
	assert.ErrorAs(t, err, &vErr)
}
