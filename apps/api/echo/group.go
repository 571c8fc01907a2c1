package echoapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tutoria/core"
	"github.com/trezcool/tutoria/core/group"
)

type (
	groupAPI struct {
		deps ServerDeps
	}

	DestroyMultipleRequest struct {
		IDs []string `query:"id"`
	}

	DeletedResponse struct {
		Deleted int `json:"deleted"`
	}
)

func registerGroupAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := groupAPI{deps: deps}

	gg := g.Group("/groups", jwt)
	gg.GET("", api.query)
	gg.POST("", api.create, requireRole(core.RoleAdmin))
	gg.DELETE("", api.destroyMultiple, requireRole(core.RoleAdmin))
	gg.GET("/upcoming", api.upcoming)
	gg.GET("/today", api.today)
	gg.GET("/imminent", api.imminent)
	gg.GET("/calendar", api.calendar)
	gg.GET("/:id", api.retrieve)
	gg.PUT("/:id", api.update, requireRole(core.RoleAdmin))
	gg.DELETE("/:id", api.destroy, requireRole(core.RoleAdmin))
}

func (api groupAPI) query(ctx echo.Context) error {
	var filter group.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return err
	}
	var ord Ordering
	ord.Bind(ctx)

	groups, err := api.deps.GroupSvc.Query(ctx.Request().Context(), filter, ord.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying groups")
	}
	return ctx.JSON(http.StatusOK, groups)
}

func (api groupAPI) create(ctx echo.Context) error {
	var ng group.NewGroup
	if err := ctx.Bind(&ng); err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	if err := ng.Validate(reqCtx, api.deps.Validate, api.deps.GroupSvc); err != nil {
		return err
	}

	grp, err := api.deps.GroupSvc.Create(reqCtx, ng)
	if err != nil {
		return errors.Wrap(err, "creating group")
	}
	return ctx.JSON(http.StatusCreated, grp)
}

func (api groupAPI) retrieve(ctx echo.Context) error {
	detail, err := api.deps.GroupSvc.Detail(ctx.Request().Context(), ctx.Param("id"), api.deps.now())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, detail)
}

func (api groupAPI) update(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	grp, err := api.deps.GroupSvc.Get(reqCtx, ctx.Param("id"))
	if err != nil {
		return err
	}

	var uu group.UpdateGroup
	if err = ctx.Bind(&uu); err != nil {
		return err
	}
	if err = uu.Validate(reqCtx, grp, api.deps.Validate, api.deps.GroupSvc); err != nil {
		return err
	}

	grp, err = api.deps.GroupSvc.Update(reqCtx, grp.ID.String(), uu)
	if err != nil {
		return errors.Wrap(err, "updating group")
	}
	return ctx.JSON(http.StatusOK, grp)
}

func (api groupAPI) destroy(ctx echo.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}
	cnt, err := api.deps.GroupSvc.Delete(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "deleting group")
	}
	if cnt == 0 {
		return errHttpNotFound
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api groupAPI) destroyMultiple(ctx echo.Context) error {
	var req DestroyMultipleRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, s := range req.IDs {
		id, err := uuid.Parse(s)
		if err != nil {
			return core.NewValidationError(err, core.FieldError{Field: "id", Error: "invalid group ID " + strconv.Quote(s)})
		}
		ids = append(ids, id)
	}

	cnt, err := api.deps.GroupSvc.Delete(ctx.Request().Context(), ids...)
	if err != nil {
		return errors.Wrap(err, "deleting groups")
	}
	return ctx.JSON(http.StatusOK, DeletedResponse{Deleted: cnt})
}

func (api groupAPI) upcoming(ctx echo.Context) error {
	var filter group.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return err
	}
	classes, err := api.deps.GroupSvc.Upcoming(ctx.Request().Context(), api.deps.now(), filter)
	if err != nil {
		return errors.Wrap(err, "listing upcoming classes")
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api groupAPI) today(ctx echo.Context) error {
	groups, err := api.deps.GroupSvc.Today(ctx.Request().Context(), api.deps.now())
	if err != nil {
		return errors.Wrap(err, "listing today's groups")
	}
	return ctx.JSON(http.StatusOK, groups)
}

func (api groupAPI) imminent(ctx echo.Context) error {
	groups, err := api.deps.GroupSvc.Imminent(ctx.Request().Context(), api.deps.now())
	if err != nil {
		return errors.Wrap(err, "listing imminent groups")
	}
	return ctx.JSON(http.StatusOK, groups)
}

// calendar defaults to the current month.
func (api groupAPI) calendar(ctx echo.Context) error {
	now := api.deps.now()
	year, month := now.Year(), int(now.Month())

	var err error
	if s := ctx.QueryParam("year"); s != "" {
		if year, err = strconv.Atoi(s); err != nil {
			return core.NewValidationError(err, core.FieldError{Field: "year", Error: "invalid year"})
		}
	}
	if s := ctx.QueryParam("month"); s != "" {
		if month, err = strconv.Atoi(s); err != nil {
			return core.NewValidationError(err, core.FieldError{Field: "month", Error: "invalid month"})
		}
	}

	dates, err := api.deps.GroupSvc.Calendar(ctx.Request().Context(), year, time.Month(month))
	if err != nil {
		return err
	}
	if dates == nil {
		dates = []group.ClassDate{}
	}
	return ctx.JSON(http.StatusOK, dates)
}
