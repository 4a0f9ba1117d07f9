package middleware

import (
	"net/http"

	"storefront/internal/identity"

	"github.com/labstack/echo/v4"
)

//contextに入っているroleがADMINかどうかを確認します。

func AdminRoleGuard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := identity.FromContext(c.Request().Context())
			if !ok {
				return unauthorized(c)
			}

			//USERは拒否、ADMINだけ許可
			if !id.IsAdmin() {
				return c.JSON(http.StatusForbidden, errorResponse{Error: "admin only", Code: "Forbidden"})
			}

			return next(c)
		}
	}
}
