package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/tutoria/core"
	"github.com/trezcool/tutoria/core/schedule"
)

type (
	scheduleAPI struct {
		deps ServerDeps
	}

	DurationResponse struct {
		Minutes int `json:"minutes"`
	}

	TimetableResponse struct {
		Timetable       schedule.Timetable  `json:"timetable"`
		DurationMinutes *int                `json:"duration_minutes"`
		NextClass       schedule.Occurrence `json:"next_class"`
	}
)

func registerScheduleAPI(g *echo.Group, deps ServerDeps) {
	api := scheduleAPI{deps: deps}

	sg := g.Group("/schedule")
	sg.GET("/duration", api.duration)
	sg.GET("/next", api.next)
	sg.GET("/timetable", api.timetable)
}

func (api scheduleAPI) duration(ctx echo.Context) error {
	mins, err := schedule.DurationMinutes(ctx.QueryParam("start"), ctx.QueryParam("end"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, DurationResponse{Minutes: mins})
}

func (api scheduleAPI) next(ctx echo.Context) error {
	day, err := schedule.ParseWeekday(ctx.QueryParam("day"))
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "day", Error: schedule.ErrUnknownWeekday.Error()})
	}
	at, err := schedule.ParseTimeOfDay(ctx.QueryParam("time"))
	if err != nil {
		return err
	}
	ref, err := parseAt(ctx, "at", api.deps)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, schedule.NextOccurrence(day, at, ref))
}

func (api scheduleAPI) timetable(ctx echo.Context) error {
	tt, err := schedule.ParseTimetable(ctx.QueryParam("horario"))
	if err != nil {
		if schedule.IsScheduleError(err) {
			return err
		}
		return core.NewFieldValidationError("horario", err)
	}
	ref, err := parseAt(ctx, "at", api.deps)
	if err != nil {
		return err
	}
	var until *time.Time
	if ctx.QueryParam("until") != "" {
		u, err := parseAt(ctx, "until", api.deps)
		if err != nil {
			return err
		}
		until = &u
	}

	occ, ok := tt.Next(ref, until)
	if !ok {
		return errHttpNotFound
	}

	resp := TimetableResponse{Timetable: tt, NextClass: occ}
	if mins, ok := tt.Duration(); ok {
		resp.DurationMinutes = &mins
	}
	return ctx.JSON(http.StatusOK, resp)
}
