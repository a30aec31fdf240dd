package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/sudo-init-do/distal/internal/alerts"
	"github.com/sudo-init-do/distal/internal/apperr"
	"github.com/sudo-init-do/distal/internal/middleware"
	"github.com/sudo-init-do/distal/internal/models"
	"github.com/sudo-init-do/distal/internal/repository"
)

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

type Handler struct {
	users    repository.UserRepository
	tokens   TokenIssuer
	notifier alerts.Notifier
	log      *zap.Logger
}

func NewHandler(users repository.UserRepository, tokens TokenIssuer, notifier alerts.Notifier, log *zap.Logger) *Handler {
	return &Handler{users: users, tokens: tokens, notifier: notifier, log: log.Named("auth")}
}

// Register mounts the auth routes; protected routes get the jwt middleware.
func (h *Handler) Register(g *echo.Group, requireAuth echo.MiddlewareFunc) {
	g.POST("/register", h.Signup)
	g.POST("/login", h.Login)
	g.GET("/me", h.Me, requireAuth)
}

type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required,singleline"`
	Role     string `json:"role" validate:"omitempty,oneof=client provider"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// ===== Signup =====
func (h *Handler) Signup(c echo.Context) error {
	req := new(SignupRequest)
	if err := middleware.BindAndValidate(c, req); err != nil {
		return err
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return apperr.Validation("name is required")
	}
	role := models.RoleClient
	if req.Role != "" {
		role = models.Role(req.Role)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Internal(err, "hash password")
	}

	u := &models.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: string(hashed),
		Name:         req.Name,
		Role:         role,
	}
	ctx := c.Request().Context()
	if err := h.users.Create(ctx, u); err != nil {
		return err
	}

	token, err := h.tokens.Issue(u.ID)
	if err != nil {
		return apperr.Internal(err, "token generation failed")
	}

	h.welcome(ctx, u)
	return c.JSON(http.StatusCreated, AuthResponse{Token: token, User: u})
}

func (h *Handler) welcome(ctx context.Context, u *models.User) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := h.notifier.Welcome(ctx, alerts.Recipient{ID: u.ID, Name: u.Name, Email: u.Email}); err != nil {
		h.log.Warn("welcome email failed", zap.String("user_id", u.ID), zap.Error(err))
	}
}
