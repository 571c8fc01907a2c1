package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/tutoria/core"
	"github.com/trezcool/tutoria/core/group"
	"github.com/trezcool/tutoria/core/schedule"
)

type groupRepository struct {
	db *groupTable
}

var _ group.Repository = (*groupRepository)(nil) // interface compliance check

func NewGroupRepository(db *DB) group.Repository {
	return &groupRepository{db: db.group}
}

func (repo *groupRepository) query() []group.Group {
	groups := make([]group.Group, 0, len(repo.db.table))
	for _, g := range repo.db.table {
		groups = append(groups, *g)
	}
	return groups
}

func (repo *groupRepository) CheckCodeUniqueness(_ context.Context, code string, excludedIDs []uuid.UUID, _ ...core.DBExecutor) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, grp := range repo.db.table {
		if strings.EqualFold(grp.Code, code) && !isExcluded(grp.ID, excludedIDs) {
			return group.ErrCodeExists
		}
	}
	return nil
}

func (repo *groupRepository) CreateGroup(_ context.Context, grp group.Group, _ ...core.DBExecutor) (group.Group, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	grp.ID = uuid.New()
	repo.db.table[grp.ID] = &grp
	return grp, nil
}

func (repo *groupRepository) GetGroup(_ context.Context, id uuid.UUID, _ ...core.DBExecutor) (group.Group, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if grp, ok := repo.db.table[id]; ok {
		return *grp, nil
	}
	return group.Group{}, group.ErrNotFound
}

func (repo *groupRepository) FilterGroups(_ context.Context, filter group.QueryFilter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]group.Group, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	search := strings.ToLower(filter.Search)
	days := filter.Weekdays()

	groups := make([]group.Group, 0, len(repo.db.table))
	for _, grp := range repo.query() {
		if search != "" &&
			!strings.Contains(strings.ToLower(grp.Name), search) &&
			!strings.Contains(strings.ToLower(grp.Code), search) &&
			!strings.Contains(strings.ToLower(grp.TeacherName), search) {
			continue
		}
		if len(days) > 0 && !containsDay(days, grp.Day) {
			continue
		}
		if filter.TeacherEmail != "" && grp.TeacherEmail != filter.TeacherEmail {
			continue
		}
		if filter.IsActive != nil && grp.IsActive != *filter.IsActive {
			continue
		}
		groups = append(groups, grp)
	}

	sortGroups(groups, ordering)
	return groups, nil
}

func (repo *groupRepository) UpdateGroup(_ context.Context, grp group.Group, _ ...core.DBExecutor) (group.Group, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[grp.ID]
	if !ok {
		return group.Group{}, group.ErrNotFound
	}
	grp.CreatedAt = orig.CreatedAt
	repo.db.table[grp.ID] = &grp
	return grp, nil
}

func (repo *groupRepository) DeleteGroupsByID(_ context.Context, ids []uuid.UUID, _ ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			cnt++
		}
	}
	return cnt, nil
}

func isExcluded(id uuid.UUID, excludedIDs []uuid.UUID) bool {
	for _, exclID := range excludedIDs {
		if exclID == id {
			return true
		}
	}
	return false
}

func containsDay(days []schedule.Weekday, day schedule.Weekday) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}

// sortGroups orders groups by the given columns, falling back on the ID for a stable result.
func sortGroups(groups []group.Group, ordering []core.DBOrdering) {
	sort.Slice(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		for _, ord := range ordering {
			c := compareColumn(a, b, ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return a.ID.String() < b.ID.String()
	})
}

// compareColumn compares a and b on a Group column and returns -1, 0 or 1.
func compareColumn(a, b group.Group, column string) int {
	switch column {
	case "name":
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case "code":
		return strings.Compare(strings.ToLower(a.Code), strings.ToLower(b.Code))
	case "teacher_name":
		return strings.Compare(strings.ToLower(a.TeacherName), strings.ToLower(b.TeacherName))
	case "day":
		return compareInts(int(a.Day), int(b.Day))
	case "start_time":
		return compareInts(a.StartTime.TotalMinutes(), b.StartTime.TotalMinutes())
	case "created_at":
		switch {
		case a.CreatedAt.Before(b.CreatedAt):
			return -1
		case a.CreatedAt.After(b.CreatedAt):
			return 1
		}
	}
	return 0
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
