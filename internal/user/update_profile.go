package user

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/distal/internal/middleware"
	"github.com/sudo-init-do/distal/internal/models"
)

type UpdateProfileRequest struct {
	Name      string `json:"name" validate:"max=120,singleline"`
	Specialty string `json:"specialty" validate:"max=200"`
	Bio       string `json:"bio" validate:"max=4000"`
}

// PATCH /api/users/me
// Empty fields keep their current value.
func (h *Handler) UpdateProfile(c echo.Context) error {
	req := new(UpdateProfileRequest)
	if err := middleware.BindAndValidate(c, req); err != nil {
		return err
	}

	u, err := h.users.UpdateProfile(c.Request().Context(), middleware.UserID(c), models.ProfileUpdate{
		Name:      strings.TrimSpace(req.Name),
		Specialty: strings.TrimSpace(req.Specialty),
		Bio:       strings.TrimSpace(req.Bio),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}
