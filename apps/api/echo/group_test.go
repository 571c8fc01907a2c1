package echoapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/tutoria/core"
	"github.com/trezcool/tutoria/core/group"
	"github.com/trezcool/tutoria/core/schedule"
	"github.com/trezcool/tutoria/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

func TestGroupAPI_auth(t *testing.T) {
	srv, _, _ := setup(t)
	student := getToken(t, core.RoleStudent)
	teacher := getToken(t, core.RoleTeacher)
	principal := getToken(t, core.RoleAdminPrincipal)

	tests := []httpTest{
		{name: "no token", method: http.MethodGet, path: "/v1/groups", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{name: "bad token", method: http.MethodGet, path: "/v1/groups", token: "lol", wantCode: http.StatusUnauthorized},
		{name: "student reads", method: http.MethodGet, path: "/v1/groups", token: student, wantCode: http.StatusOK, wantData: []byte(`[]`)},
		{
			name: "student cannot create", method: http.MethodPost, path: "/v1/groups", token: student,
			body: []byte(`{}`), wantCode: http.StatusForbidden, wantData: marshalObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "student cannot delete", method: http.MethodDelete, path: "/v1/groups?id=" + "00000000-0000-0000-0000-000000000000",
			token: student, wantCode: http.StatusForbidden,
		},
		{
			name: "teacher cannot update", method: http.MethodPut, path: "/v1/groups/00000000-0000-0000-0000-000000000000",
			token: teacher, body: []byte(`{}`), wantCode: http.StatusForbidden, wantData: marshalObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "any admin role passes", method: http.MethodDelete, path: "/v1/groups/00000000-0000-0000-0000-000000000000",
			token: principal, wantCode: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, run(t, srv, tt))
		})
	}
}

func TestGroupAPI_create(t *testing.T) {
	srv, repo, _ := setup(t)
	admin := getToken(t, core.RoleAdminOwner)
	testutil.CreateGroup(t, repo, "Math", "MAT-101", schedule.Monday, "19:00", "21:00")

	newGroup := func(mod func(*group.NewGroup)) []byte {
		ng := group.NewGroup{
			Name: "Physics", Code: "PHY-101", TeacherName: "Ada", TeacherEmail: "ada@test.cd",
			Day: "miercoles", StartTime: "19:00", EndTime: "20:30", Capacity: 12,
		}
		if mod != nil {
			mod(&ng)
		}
		return marshalObj(t, ng)
	}

	tests := []httpTest{
		{
			name: "end before start", body: newGroup(func(ng *group.NewGroup) { ng.StartTime, ng.EndTime = "20:00", "19:00" }),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"end_time": "end time 19:00 precedes start time 20:00; crossing midnight is not supported"}`),
		},
		{
			name: "invalid fields", body: newGroup(func(ng *group.NewGroup) { ng.Name, ng.Code, ng.Day = " ", "PHY 101", "funday" }),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{
				"name": "this field cannot be blank",
				"code": "only alphanumeric characters, dashes and underscores are allowed",
				"day": "unknown day of week"
			}`),
		},
		{
			name: "duplicate code", body: newGroup(func(ng *group.NewGroup) { ng.Code = "mat-101" }),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"code": "a group with this code already exists"}`),
		},
		{name: "valid", body: newGroup(nil), wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method, tt.path, tt.token = http.MethodPost, "/v1/groups", admin
			rec := run(t, srv, tt)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusCreated {
				var grp group.Group
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &grp))
				assert.Equal(t, schedule.Wednesday, grp.Day)
				assert.True(t, grp.IsActive)

				stored, err := repo.GetGroup(context.Background(), grp.ID)
				require.NoError(t, err)
				assert.Equal(t, "PHY-101", stored.Code)
			}
		})
	}
}

func TestGroupAPI_retrieve(t *testing.T) {
	srv, repo, _ := setup(t)
	token := getToken(t, core.RoleTeacher)
	tonight := testutil.CreateGroup(t, repo, "Math", "MAT-101", schedule.Wednesday, "19:00", "20:30")
	monday := testutil.CreateGroup(t, repo, "Physics", "PHY-101", schedule.Monday, "08:00", "10:00")

	type detail struct {
		Code            string `json:"code"`
		DurationMinutes int    `json:"duration_minutes"`
		NextClass       *struct {
			Date              string `json:"date"`
			MinutesUntilStart *int   `json:"minutes_until_start"`
			StartsAt          string `json:"starts_at"`
		} `json:"next_class"`
	}
	get := func(t *testing.T, id string) detail {
		rec := run(t, srv, httpTest{method: http.MethodGet, path: "/v1/groups/" + id, token: token})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var d detail
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
		return d
	}

	t.Run("same day", func(t *testing.T) {
		d := get(t, tonight.ID.String())
		assert.Equal(t, 90, d.DurationMinutes)
		require.NotNil(t, d.NextClass)
		assert.Equal(t, "2024-03-06", d.NextClass.Date)
		require.NotNil(t, d.NextClass.MinutesUntilStart)
		assert.Equal(t, 60, *d.NextClass.MinutesUntilStart)
		assert.Equal(t, "2024-03-06T19:00:00Z", d.NextClass.StartsAt)
	})

	t.Run("another day", func(t *testing.T) {
		d := get(t, monday.ID.String())
		require.NotNil(t, d.NextClass)
		assert.Equal(t, "2024-03-11", d.NextClass.Date)
		assert.Nil(t, d.NextClass.MinutesUntilStart)
	})

	t.Run("not found", func(t *testing.T) {
		for _, id := range []string{"lol", "00000000-0000-0000-0000-000000000000"} {
			tt := httpTest{
				method: http.MethodGet, path: "/v1/groups/" + id, token: token,
				wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: group.ErrNotFound.Error()}),
			}
			checkCodeAndData(t, tt, run(t, srv, tt))
		}
	})
}

func TestGroupAPI_query(t *testing.T) {
	srv, repo, _ := setup(t)
	token := getToken(t)
	testutil.CreateGroup(t, repo, "Math", "MAT-101", schedule.Monday, "19:00", "21:00")
	testutil.CreateGroup(t, repo, "Physics", "PHY-101", schedule.Wednesday, "08:00", "10:00")
	testutil.CreateGroup(t, repo, "History", "HIS-101", schedule.Wednesday, "07:00", "08:00", testutil.Inactive)

	codes := func(t *testing.T, path string) []string {
		rec := run(t, srv, httpTest{method: http.MethodGet, path: path, token: token})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var groups []group.Group
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &groups))
		cs := make([]string, 0, len(groups))
		for _, g := range groups {
			cs = append(cs, g.Code)
		}
		return cs
	}

	assert.Equal(t, []string{"MAT-101", "HIS-101", "PHY-101"}, codes(t, "/v1/groups"))
	assert.Equal(t, []string{"PHY-101", "MAT-101", "HIS-101"}, codes(t, "/v1/groups?ordering=-code"))
	assert.Equal(t, []string{"HIS-101", "PHY-101"}, codes(t, "/v1/groups?day=miercoles"))
	assert.Equal(t, []string{"PHY-101"}, codes(t, "/v1/groups?day=wednesday&is_active=true"))
	assert.Equal(t, []string{"MAT-101"}, codes(t, "/v1/groups?search=math"))
	assert.Empty(t, codes(t, "/v1/groups?day=funday"))
}

func TestGroupAPI_updateAndDelete(t *testing.T) {
	srv, repo, _ := setup(t)
	admin := getToken(t, core.RoleAdmin)
	grp := testutil.CreateGroup(t, repo, "Math", "MAT-101", schedule.Monday, "19:00", "21:00")
	other := testutil.CreateGroup(t, repo, "Physics", "PHY-101", schedule.Monday, "08:00", "10:00")
	third := testutil.CreateGroup(t, repo, "History", "HIS-101", schedule.Friday, "08:00", "10:00")
	path := "/v1/groups/" + grp.ID.String()

	tests := []httpTest{
		{
			name: "start after current end", method: http.MethodPut, path: path, body: []byte(`{"start_time": "21:30"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"end_time": "end time 21:00 precedes start time 21:30; crossing midnight is not supported"}`),
		},
		{
			name: "bad end date", method: http.MethodPut, path: path, body: []byte(`{"ends_on": "30/06/2024"}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"ends_on": "invalid date, expected YYYY-MM-DD"}`),
		},
		{name: "partial", method: http.MethodPut, path: path, body: []byte(`{"day": "martes", "is_active": false}`), wantCode: http.StatusOK},
		{name: "update unknown", method: http.MethodPut, path: "/v1/groups/lol", body: []byte(`{}`), wantCode: http.StatusNotFound},
		{name: "delete one", method: http.MethodDelete, path: "/v1/groups/" + other.ID.String(), wantCode: http.StatusNoContent},
		{name: "delete one again", method: http.MethodDelete, path: "/v1/groups/" + other.ID.String(), wantCode: http.StatusNotFound},
		{
			name: "delete bad id", method: http.MethodDelete, path: "/v1/groups?id=lol",
			wantCode: http.StatusBadRequest, wantData: []byte(`{"id": "invalid group ID \"lol\""}`),
		},
		{
			name: "delete multiple", method: http.MethodDelete,
			path:     "/v1/groups?" + strings.Join([]string{"id=" + grp.ID.String(), "id=" + third.ID.String(), "id=" + other.ID.String()}, "&"),
			wantCode: http.StatusOK, wantData: []byte(`{"deleted": 2}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.token = admin
			checkCodeAndData(t, tt, run(t, srv, tt))

			if tt.name == "partial" {
				got, err := repo.GetGroup(context.Background(), grp.ID)
				require.NoError(t, err)
				assert.Equal(t, schedule.Tuesday, got.Day)
				assert.False(t, got.IsActive)
				assert.Equal(t, "19:00", got.StartTime.String())
				assert.Equal(t, grp.CreatedAt, got.CreatedAt)
			}
		})
	}
}

func TestGroupAPI_schedules(t *testing.T) {
	srv, repo, _ := setup(t)
	token := getToken(t)
	testutil.CreateGroup(t, repo, "Soon", "SOO-101", schedule.Wednesday, "18:30", "19:30")
	testutil.CreateGroup(t, repo, "Later", "LAT-101", schedule.Wednesday, "20:00", "21:00")
	testutil.CreateGroup(t, repo, "Monday", "MON-101", schedule.Monday, "08:00", "09:00",
		testutil.EndsOn(schedule.Date{Year: 2024, Month: time.March, Day: 18}))

	get := func(t *testing.T, path string, v interface{}) int {
		rec := run(t, srv, httpTest{method: http.MethodGet, path: path, token: token})
		if rec.Code == http.StatusOK {
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
		}
		return rec.Code
	}

	t.Run("upcoming", func(t *testing.T) {
		var classes []group.UpcomingClass
		require.Equal(t, http.StatusOK, get(t, "/v1/groups/upcoming", &classes))
		got := make([]string, 0, len(classes))
		for _, c := range classes {
			got = append(got, c.Group.Code+"@"+c.Date.String())
		}
		assert.Equal(t, []string{"SOO-101@2024-03-06", "LAT-101@2024-03-06", "MON-101@2024-03-11"}, got)
	})

	t.Run("today and imminent", func(t *testing.T) {
		var today, imminent []group.Group
		require.Equal(t, http.StatusOK, get(t, "/v1/groups/today", &today))
		assert.Len(t, today, 2)
		require.Equal(t, http.StatusOK, get(t, "/v1/groups/imminent", &imminent))
		require.Len(t, imminent, 1)
		assert.Equal(t, "SOO-101", imminent[0].Code)
	})

	t.Run("calendar", func(t *testing.T) {
		var dates []group.ClassDate
		require.Equal(t, http.StatusOK, get(t, "/v1/groups/calendar?year=2024&month=3", &dates))
		var mondays int
		for _, d := range dates {
			if d.Code == "MON-101" {
				mondays++
			}
		}
		assert.Equal(t, 3, mondays) // 4, 11, 18; the group ends on the 18th
		assert.Len(t, dates, 3+4+4)

		assert.Equal(t, http.StatusBadRequest, get(t, "/v1/groups/calendar?year=2024&month=13", &dates))
		assert.Equal(t, http.StatusBadRequest, get(t, "/v1/groups/calendar?month=march", &dates))
	})
}
