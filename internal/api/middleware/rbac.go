package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gatherly/community-service/internal/core/domain"
	"github.com/gatherly/community-service/internal/core/ports"
)

// RequireRole gates a route group behind a minimum role. The role is
// resolved from the directory on every request rather than trusted from
// the token, so demotions and blocks take effect immediately.
func RequireRole(authz ports.Authorizer, min domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, _ := c.Get("user_id").(string)
			role := authz.RoleOf(c.Request().Context(), userID)
			if !role.AtLeast(min) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
