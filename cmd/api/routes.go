package main

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sudo-init-do/distal/internal/admin"
	"github.com/sudo-init-do/distal/internal/alerts"
	"github.com/sudo-init-do/distal/internal/auth"
	"github.com/sudo-init-do/distal/internal/config"
	"github.com/sudo-init-do/distal/internal/marketplace"
	"github.com/sudo-init-do/distal/internal/messaging"
	"github.com/sudo-init-do/distal/internal/metrics"
	"github.com/sudo-init-do/distal/internal/middleware"
	"github.com/sudo-init-do/distal/internal/payments"
	"github.com/sudo-init-do/distal/internal/repository"
	"github.com/sudo-init-do/distal/internal/storage"
	"github.com/sudo-init-do/distal/internal/user"
	"github.com/sudo-init-do/distal/internal/utils"
)

type serverDeps struct {
	cfg        *config.Config
	log        *zap.Logger
	pool       *pgxpool.Pool
	repos      *repository.Repositories
	signer     *utils.TokenSigner
	notifier   alerts.Notifier
	files      storage.Store
	hub        *messaging.Hub
	checkout   payments.Checkout
	reconciler *payments.Reconciler
	metrics    *metrics.Metrics
}

// jsonBodyLimit applies to everything except deliverable uploads, which get their own limit.
const jsonBodyLimit = "1M"

func newServer(d serverDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = middleware.NewValidator()
	e.HTTPErrorHandler = middleware.HTTPErrorHandler(d.log, d.cfg.IsDevelopment())

	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())
	e.Use(d.metrics.Middleware())
	e.Use(middleware.RequestLogger(d.log))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{d.cfg.CORSOrigin},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(echomw.BodyLimitWithConfig(echomw.BodyLimitConfig{
		Limit: jsonBodyLimit,
		Skipper: func(c echo.Context) bool {
			return c.Request().Method == http.MethodPost && strings.HasSuffix(c.Path(), "/deliverables")
		},
	}))

	e.GET("/metrics", echo.WrapHandler(d.metrics.Handler()))

	api := e.Group("/api")
	api.GET("/health", health)
	api.GET("/ready", ready(d.pool))

	requireAuth := middleware.JWTMiddleware(d.signer)
	uploadLimit := echomw.BodyLimit(bodyLimitString(d.cfg.MaxUploadBytes))

	authGroup := api.Group("/auth", echomw.RateLimiter(echomw.NewRateLimiterMemoryStoreWithConfig(
		echomw.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(d.cfg.AuthRateLimit),
			Burst:     int(d.cfg.AuthRateLimit),
			ExpiresIn: 3 * time.Minute,
		},
	)))
	auth.NewHandler(d.repos.Users, d.signer, d.notifier, d.log).Register(authGroup, requireAuth)

	user.NewHandler(d.repos.Users).Register(api, requireAuth)
	marketplace.NewHandler(d.repos, d.files, d.cfg.MaxUploadBytes, d.log).Register(api, requireAuth, uploadLimit)
	messaging.NewHandler(d.repos, d.hub, d.notifier, d.metrics, d.log).Register(api, requireAuth)
	payments.NewHandler(d.repos, d.checkout, d.cfg.StripeWebhookSecret, d.notifier, d.metrics, d.log).Register(api, requireAuth)
	admin.NewHandler(d.repos, d.reconciler, d.log).Register(api, requireAuth, middleware.AdminGuard(d.repos.Users))

	return e
}

// GET /api/health
func health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)})
}

// GET /api/ready
func ready(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), readyTimeout)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db unreachable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	}
}

// bodyLimitString renders n bytes in the unit syntax echo's BodyLimit expects.
func bodyLimitString(n int64) string {
	switch {
	case n%(1<<20) == 0:
		return strconv.FormatInt(n>>20, 10) + "M"
	case n%(1<<10) == 0:
		return strconv.FormatInt(n>>10, 10) + "K"
	default:
		return strconv.FormatInt(n, 10)
	}
}
