package sqlxrepos

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/tutoria/core"
	"github.com/trezcool/tutoria/core/group"
)

const (
	groupTable   = "class_group"
	groupColumns = "id, name, code, teacher_name, teacher_email, day, start_time, end_time, " +
		"capacity, meet_link, is_active, ends_on, created_at, updated_at"
)

type groupRepository struct {
	exec core.DBExecutor
}

var _ group.Repository = (*groupRepository)(nil) // interface compliance check

func NewGroupRepository(exec core.DBExecutor) *groupRepository {
	return &groupRepository{exec: exec}
}

func (repo groupRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

// selectGroups runs a "?" bound query, expanding slice args.
func (repo groupRepository) selectGroups(ctx context.Context, exec core.DBExecutor, query string, args ...interface{}) ([]group.Group, error) {
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "expanding query args")
	}
	rows, err := exec.QueryContext(ctx, sqlx.Rebind(sqlx.DOLLAR, query), args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	groups := make([]group.Group, 0)
	if err = sqlx.StructScan(rows, &groups); err != nil {
		return nil, errors.Wrap(err, "scanning groups")
	}
	return groups, nil
}

func (repo groupRepository) CheckCodeUniqueness(ctx context.Context, code string, excludedIDs []uuid.UUID, exec ...core.DBExecutor) error {
	query := "SELECT EXISTS(SELECT 1 FROM " + groupTable + " WHERE lower(code) = lower(?)"
	args := []interface{}{code}
	if len(excludedIDs) > 0 {
		query += " AND id NOT IN (?)"
		args = append(args, excludedIDs)
	}
	query += ")"

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return errors.Wrap(err, "expanding query args")
	}
	var exists bool
	if err = repo.getExec(exec).QueryRowContext(ctx, sqlx.Rebind(sqlx.DOLLAR, query), args...).Scan(&exists); err != nil {
		return errors.Wrap(err, "checking group code uniqueness")
	}
	if exists {
		return group.ErrCodeExists
	}
	return nil
}

func (repo groupRepository) CreateGroup(ctx context.Context, grp group.Group, exec ...core.DBExecutor) (group.Group, error) {
	grp.ID = uuid.New()
	query := "INSERT INTO " + groupTable + " (" + groupColumns + ") " +
		"VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)"
	_, err := repo.getExec(exec).ExecContext(ctx, query,
		grp.ID, grp.Name, grp.Code, grp.TeacherName, grp.TeacherEmail, grp.Day, grp.StartTime, grp.EndTime,
		grp.Capacity, grp.MeetLink, grp.IsActive, grp.EndsOn, grp.CreatedAt.UTC(), grp.UpdatedAt.UTC())
	if err != nil {
		return group.Group{}, errors.Wrap(err, "inserting group")
	}
	return grp, nil
}

func (repo groupRepository) GetGroup(ctx context.Context, id uuid.UUID, exec ...core.DBExecutor) (group.Group, error) {
	groups, err := repo.selectGroups(ctx, repo.getExec(exec), "SELECT "+groupColumns+" FROM "+groupTable+" WHERE id = ?", id)
	if err != nil {
		return group.Group{}, errors.Wrap(err, "finding group by ID")
	}
	if len(groups) == 0 {
		return group.Group{}, group.ErrNotFound
	}
	return groups[0], nil
}

func (repo groupRepository) FilterGroups(ctx context.Context, filter group.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]group.Group, error) {
	query, args := buildFilterQuery(filter, ordering)
	groups, err := repo.selectGroups(ctx, repo.getExec(exec), query, args...)
	return groups, errors.Wrap(err, "querying groups")
}

// buildFilterQuery returns the "?" bound SELECT for filter and ordering.
// ordering fields must already be column names.
func buildFilterQuery(filter group.QueryFilter, ordering []core.DBOrdering) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)

	// groups with Name, Code or TeacherName matching the search keyword
	if filter.Search != "" {
		val := "%" + filter.Search + "%"
		where = append(where, "(name ILIKE ? OR code ILIKE ? OR teacher_name ILIKE ?)")
		args = append(args, val, val, val)
	}
	if days := filter.Weekdays(); len(days) > 0 {
		where = append(where, "day IN (?)")
		args = append(args, days)
	}
	if filter.TeacherEmail != "" {
		where = append(where, "teacher_email = ?")
		args = append(args, filter.TeacherEmail)
	}
	if filter.IsActive != nil {
		where = append(where, "is_active = ?")
		args = append(args, *filter.IsActive)
	}

	b := new(strings.Builder)
	b.WriteString("SELECT " + groupColumns + " FROM " + groupTable)
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		b.WriteString(" ORDER BY " + strings.Join(orderList, ", "))
	}
	return b.String(), args
}

func (repo groupRepository) UpdateGroup(ctx context.Context, grp group.Group, exec ...core.DBExecutor) (group.Group, error) {
	query := "UPDATE " + groupTable + " SET name = $2, code = $3, teacher_name = $4, teacher_email = $5, day = $6, " +
		"start_time = $7, end_time = $8, capacity = $9, meet_link = $10, is_active = $11, ends_on = $12, updated_at = $13 " +
		"WHERE id = $1"
	res, err := repo.getExec(exec).ExecContext(ctx, query,
		grp.ID, grp.Name, grp.Code, grp.TeacherName, grp.TeacherEmail, grp.Day, grp.StartTime, grp.EndTime,
		grp.Capacity, grp.MeetLink, grp.IsActive, grp.EndsOn, grp.UpdatedAt.UTC())
	if err != nil {
		return group.Group{}, errors.Wrap(err, "updating group")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return group.Group{}, group.ErrNotFound
	}
	return grp, nil
}

func (repo groupRepository) DeleteGroupsByID(ctx context.Context, ids []uuid.UUID, exec ...core.DBExecutor) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In("DELETE FROM "+groupTable+" WHERE id IN (?)", ids)
	if err != nil {
		return 0, errors.Wrap(err, "expanding query args")
	}
	res, err := repo.getExec(exec).ExecContext(ctx, sqlx.Rebind(sqlx.DOLLAR, query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting groups")
	}
	cnt, err := res.RowsAffected()
	return int(cnt), errors.Wrap(err, "counting deleted groups")
}
