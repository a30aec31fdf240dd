package admin

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sudo-init-do/distal/internal/repository"
)

// Reconciler runs one payment reconciliation pass.
type Reconciler interface {
	Run(ctx context.Context) ([]string, error)
}

type Handler struct {
	repos      *repository.Repositories
	reconciler Reconciler
	log        *zap.Logger
}

func NewHandler(repos *repository.Repositories, reconciler Reconciler, log *zap.Logger) *Handler {
	return &Handler{repos: repos, reconciler: reconciler, log: log.Named("admin")}
}

// Register mounts /api/admin; every route requires an authenticated admin.
func (h *Handler) Register(api *echo.Group, requireAuth, adminOnly echo.MiddlewareFunc) {
	g := api.Group("/admin", requireAuth, adminOnly)
	g.GET("/stats", h.Stats)
	g.GET("/users", h.ListUsers)
	g.PUT("/users/role", h.SetRole)
	g.POST("/payments/reconcile", h.ReconcilePayments)
}
