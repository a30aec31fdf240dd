package middleware

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/distal/internal/apperr"
	"github.com/sudo-init-do/distal/internal/models"
)

// RoleLookup loads the current role; tokens carry only the user id.
type RoleLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// RequireRoles ensures the requester's role is one of the allowed roles.
// Must run after JWTMiddleware.
func RequireRoles(users RoleLookup, roles ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, err := users.GetByID(c.Request().Context(), UserID(c))
			if err != nil {
				if apperr.IsCode(err, apperr.CodeNotFound) {
					return apperr.New(apperr.CodeUnauthorized, "Invalid or expired token")
				}
				return err
			}
			for _, r := range roles {
				if u.Role == r {
					c.Set("role", u.Role)
					return next(c)
				}
			}
			return apperr.New(apperr.CodeForbidden, "access denied")
		}
	}
}
