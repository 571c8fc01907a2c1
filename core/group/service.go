package group

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/tutoria/core"
	"github.com/trezcool/tutoria/core/schedule"
)

var (
	// errors
	ErrNotFound   = errors.New("group not found")
	ErrCodeExists = errors.New("a group with this code already exists")

	// orderings accepted by Query, mapped to Group columns
	OrderingFields = map[string]string{
		"name":       "name",
		"code":       "code",
		"teacher":    "teacher_name",
		"day":        "day",
		"start_time": "start_time",
		"created_at": "created_at",
	}
	defaultOrdering = []core.DBOrdering{
		{Field: "day", Ascending: true},
		{Field: "start_time", Ascending: true},
		{Field: "code", Ascending: true},
	}
)

type (
	Repository interface {
		CheckCodeUniqueness(ctx context.Context, code string, excludedIDs []uuid.UUID, exec ...core.DBExecutor) error
		CreateGroup(ctx context.Context, grp Group, exec ...core.DBExecutor) (Group, error)
		GetGroup(ctx context.Context, id uuid.UUID, exec ...core.DBExecutor) (Group, error)
		// FilterGroups applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Group.Name, Group.Code or Group.TeacherName.
		FilterGroups(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Group, error)
		UpdateGroup(ctx context.Context, grp Group, exec ...core.DBExecutor) (Group, error)
		DeleteGroupsByID(ctx context.Context, ids []uuid.UUID, exec ...core.DBExecutor) (int, error)
	}

	Service struct {
		repo  Repository
		clock core.Clock // stamps CreatedAt and UpdatedAt
	}
)

func NewService(repo Repository, clock core.Clock) *Service {
	if clock == nil {
		clock = core.SystemClock{}
	}
	return &Service{repo: repo, clock: clock}
}

// CheckUniqueness reports a taken code as a validation error on the "code" field.
func (svc *Service) CheckUniqueness(ctx context.Context, code string, excludedIDs ...uuid.UUID) error {
	if err := svc.repo.CheckCodeUniqueness(ctx, code, excludedIDs); err != nil {
		if errors.Is(err, ErrCodeExists) {
			return core.NewValidationError(err, core.FieldError{Field: "code", Error: err.Error()})
		}
		return errors.Wrap(err, "checking code uniqueness")
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, ng NewGroup) (Group, error) {
	day, start, end, err := parseSlot(ng.Day, ng.StartTime, ng.EndTime)
	if err != nil {
		return Group{}, err
	}
	endsOn, err := parseOptionalDate(ng.EndsOn)
	if err != nil {
		return Group{}, core.NewFieldValidationError("ends_on", err)
	}

	now := svc.clock.Now().UTC()
	grp := Group{
		Name:         ng.Name,
		Code:         ng.Code,
		TeacherName:  ng.TeacherName,
		TeacherEmail: ng.TeacherEmail,
		Day:          day,
		StartTime:    start,
		EndTime:      end,
		Capacity:     ng.Capacity,
		MeetLink:     ng.MeetLink,
		IsActive:     true,
		EndsOn:       endsOn,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	grp, err = svc.repo.CreateGroup(ctx, grp)
	return grp, errors.Wrap(err, "creating group")
}

// Get returns the Group with the given ID; a malformed ID is not found.
func (svc *Service) Get(ctx context.Context, id string) (Group, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return Group{}, ErrNotFound
	}
	return svc.repo.GetGroup(ctx, uid)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Group, error) {
	filter.Clean()
	if len(filter.Days) > 0 && len(filter.Weekdays()) == 0 {
		return []Group{}, nil // only unknown days
	}
	ordering = core.MapOrderings(ordering, OrderingFields)
	if len(ordering) == 0 {
		ordering = core.MapOrderings(defaultOrdering, OrderingFields)
	}
	groups, err := svc.repo.FilterGroups(ctx, filter, ordering)
	return groups, errors.Wrap(err, "filtering groups")
}

// Update applies a validated UpdateGroup to the Group with the given ID.
func (svc *Service) Update(ctx context.Context, id string, uu UpdateGroup) (Group, error) {
	grp, err := svc.Get(ctx, id)
	if err != nil {
		return Group{}, err
	}
	if err = uu.apply(&grp); err != nil {
		return Group{}, err
	}
	grp.UpdatedAt = svc.clock.Now().UTC()
	return svc.repo.UpdateGroup(ctx, grp)
}

func (svc *Service) Delete(ctx context.Context, ids ...uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	cnt, err := svc.repo.DeleteGroupsByID(ctx, ids)
	return cnt, errors.Wrap(err, "deleting groups")
}

// Detail returns the group along with its session length and next class relative to ref.
func (svc *Service) Detail(ctx context.Context, id string, ref time.Time) (Detail, error) {
	grp, err := svc.Get(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	mins, err := grp.DurationMinutes()
	if err != nil {
		return Detail{}, errors.Wrapf(err, "group %s", grp.Code)
	}
	return Detail{Group: grp, DurationMinutes: mins, NextClass: grp.NextClass(ref)}, nil
}

func (svc *Service) activeGroups(ctx context.Context, filter QueryFilter) ([]Group, error) {
	active := true
	filter.IsActive = &active
	return svc.Query(ctx, filter, nil)
}

// Upcoming returns the next class of every active group matching filter, soonest first.
func (svc *Service) Upcoming(ctx context.Context, ref time.Time, filter QueryFilter) ([]UpcomingClass, error) {
	groups, err := svc.activeGroups(ctx, filter)
	if err != nil {
		return nil, err
	}
	classes := make([]UpcomingClass, 0, len(groups))
	for _, grp := range groups {
		if next := grp.NextClass(ref); next != nil {
			classes = append(classes, UpcomingClass{Group: grp, NextClass: *next})
		}
	}
	sort.SliceStable(classes, func(i, j int) bool {
		return classes[i].StartsAt.Before(classes[j].StartsAt)
	})
	return classes, nil
}

// Today returns the active groups meeting on ref's date, by start time.
func (svc *Service) Today(ctx context.Context, ref time.Time) ([]Group, error) {
	today := schedule.DateOf(ref)
	groups, err := svc.activeGroups(ctx, QueryFilter{Days: []string{today.Weekday().String()}})
	if err != nil {
		return nil, err
	}
	todays := make([]Group, 0, len(groups))
	for _, grp := range groups {
		if grp.RunsOn(today) {
			todays = append(todays, grp)
		}
	}
	sort.SliceStable(todays, func(i, j int) bool {
		return todays[i].StartTime.Before(todays[j].StartTime)
	})
	return todays, nil
}

// Imminent returns today's groups starting within the hour or started less than ten minutes ago.
func (svc *Service) Imminent(ctx context.Context, ref time.Time) ([]Group, error) {
	todays, err := svc.Today(ctx, ref)
	if err != nil {
		return nil, err
	}
	imminent := make([]Group, 0, len(todays))
	for _, grp := range todays {
		if schedule.IsImminent(grp.StartTime, ref) {
			imminent = append(imminent, grp)
		}
	}
	return imminent, nil
}

// Calendar lists every session of every active group in the given month, by date then start time.
func (svc *Service) Calendar(ctx context.Context, year int, month time.Month) ([]ClassDate, error) {
	if month < time.January || month > time.December {
		return nil, core.NewFieldValidationError("month", errors.Errorf("month %d out of range 1-12", month))
	}
	groups, err := svc.activeGroups(ctx, QueryFilter{})
	if err != nil {
		return nil, err
	}

	var dates []ClassDate
	for _, grp := range groups {
		days, err := schedule.DatesInMonth(grp.Day, year, month)
		if err != nil {
			return nil, errors.Wrapf(err, "expanding group %s", grp.Code)
		}
		for _, d := range days {
			if !grp.RunsOn(d) {
				continue
			}
			dates = append(dates, ClassDate{
				Date:      d,
				StartTime: grp.StartTime,
				EndTime:   grp.EndTime,
				GroupID:   grp.ID,
				Name:      grp.Name,
				Code:      grp.Code,
				MeetLink:  grp.MeetLink,
			})
		}
	}
	sort.SliceStable(dates, func(i, j int) bool {
		if !dates[i].Date.Equal(dates[j].Date) {
			return dates[i].Date.Before(dates[j].Date)
		}
		return dates[i].StartTime.Before(dates[j].StartTime)
	})
	return dates, nil
}
