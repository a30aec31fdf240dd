package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/sudo-init-do/distal/internal/apperr"
	"github.com/sudo-init-do/distal/internal/middleware"
)

// dummyHash is compared against when the email is unknown so both failure paths cost one bcrypt run.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("distal-not-a-password"), bcrypt.DefaultCost)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ===== Login =====
func (h *Handler) Login(c echo.Context) error {
	req := new(LoginRequest)
	if err := middleware.BindAndValidate(c, req); err != nil {
		return err
	}

	u, err := h.users.GetByEmail(c.Request().Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if !apperr.IsCode(err, apperr.CodeNotFound) {
			return err
		}
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(req.Password))
		return apperr.InvalidCredentials()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return apperr.InvalidCredentials()
	}

	token, err := h.tokens.Issue(u.ID)
	if err != nil {
		return apperr.Internal(err, "token generation failed")
	}
	return c.JSON(http.StatusOK, AuthResponse{Token: token, User: u})
}
