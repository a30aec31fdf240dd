package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/distal/internal/middleware"
)

// Me returns the currently authenticated user
func (h *Handler) Me(c echo.Context) error {
	u, err := h.users.GetByID(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}
