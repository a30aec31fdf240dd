package admin

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// POST /api/admin/payments/reconcile
func (h *Handler) ReconcilePayments(c echo.Context) error {
	ids, err := h.reconciler.Run(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"failed": ids, "count": len(ids)})
}
