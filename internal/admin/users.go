package admin

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sudo-init-do/distal/internal/middleware"
	"github.com/sudo-init-do/distal/internal/models"
)

// GET /api/admin/users
func (h *Handler) ListUsers(c echo.Context) error {
	users, err := h.repos.Users.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

type SetRoleRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=client provider admin"`
}

// PUT /api/admin/users/role
func (h *Handler) SetRole(c echo.Context) error {
	req := new(SetRoleRequest)
	if err := middleware.BindAndValidate(c, req); err != nil {
		return err
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := h.repos.Users.SetRole(c.Request().Context(), email, models.Role(req.Role)); err != nil {
		return err
	}
	h.log.Info("role changed", zap.String("email", email), zap.String("role", req.Role),
		zap.String("by", middleware.UserID(c)))
	return c.JSON(http.StatusOK, echo.Map{"message": "Role updated", "email": email, "role": req.Role})
}
