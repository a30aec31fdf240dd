package admin

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// GET /api/admin/stats
func (h *Handler) Stats(c echo.Context) error {
	s, err := h.repos.Stats.Snapshot(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s)
}
