package echoapi

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/tutoria/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// parseAt reads an optional RFC3339 query param, defaulting to the server clock.
// An explicit value keeps its own offset as the wall clock.
func parseAt(ctx echo.Context, param string, deps ServerDeps) (time.Time, error) {
	val := strings.TrimSpace(ctx.QueryParam(param))
	if val == "" {
		return deps.now(), nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, core.NewValidationError(err, core.FieldError{Field: param, Error: "invalid timestamp, expected RFC3339"})
	}
	return t, nil
}
