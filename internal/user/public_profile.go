package user

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// GET /api/users/:id
func (h *Handler) GetPublicProfile(c echo.Context) error {
	u, err := h.users.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u.Public())
}
