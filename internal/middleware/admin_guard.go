package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/distal/internal/models"
)

// AdminGuard ensures only admin users can access admin routes
func AdminGuard(users RoleLookup) echo.MiddlewareFunc {
	return RequireRoles(users, models.RoleAdmin)
}
