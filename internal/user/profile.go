package user

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/distal/internal/models"
	"github.com/sudo-init-do/distal/internal/repository"
)

type Handler struct {
	users repository.UserRepository
}

func NewHandler(users repository.UserRepository) *Handler {
	return &Handler{users: users}
}

func (h *Handler) Register(api *echo.Group, requireAuth echo.MiddlewareFunc) {
	api.GET("/providers", h.ListProviders)
	api.GET("/users/:id", h.GetPublicProfile)
	api.PATCH("/users/me", h.UpdateProfile, requireAuth)
}

// GET /api/providers
func (h *Handler) ListProviders(c echo.Context) error {
	users, err := h.users.ListProviders(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]models.PublicProfile, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return c.JSON(http.StatusOK, out)
}
