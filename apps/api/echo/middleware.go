package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tutoria/core"
)

// requireRole lets through callers holding a role under any of prefixes,
// so core.RoleAdmin admits every admin:* role.
func requireRole(prefixes ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			for _, prefix := range prefixes {
				if core.HasRolePrefix(claims.Roles, prefix) {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}

// requestFields describes the request for log entries.
func requestFields(ctx echo.Context) map[string]interface{} {
	fields := map[string]interface{}{
		"method": ctx.Request().Method,
		"path":   ctx.Request().URL.Path,
	}
	if route := ctx.Path(); route != "" {
		fields["route"] = route
	}
	if id := ctx.Param("id"); id != "" {
		fields["group"] = id
	}
	return fields
}
