package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sudo-init-do/distal/internal/alerts"
	"github.com/sudo-init-do/distal/internal/config"
	"github.com/sudo-init-do/distal/internal/db"
	"github.com/sudo-init-do/distal/internal/logger"
	"github.com/sudo-init-do/distal/internal/messaging"
	"github.com/sudo-init-do/distal/internal/metrics"
	"github.com/sudo-init-do/distal/internal/payments"
	"github.com/sudo-init-do/distal/internal/repository"
	"github.com/sudo-init-do/distal/internal/storage"
	"github.com/sudo-init-do/distal/internal/utils"
)

func main() {
	cfg := config.MustLoad()

	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("api stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Open(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	if _, err := db.Migrate(pool, log); err != nil {
		return err
	}

	repos := repository.NewPostgres(pool)
	m := metrics.New()

	files, err := storage.New(cfg, log)
	if err != nil {
		return err
	}

	hub := messaging.NewHub(repos.Messages, cfg.CORSOrigin, m, log)

	var notifier alerts.Notifier
	if cfg.RedisAddr != "" {
		queue := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer queue.Close()
		notifier = alerts.NewQueue(queue, cfg.FrontendURL)

		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		hub.UseBroker(messaging.NewRedisBroker(rdb, log))
		log.Info("email queue and relay fan-out use redis", zap.String("addr", cfg.RedisAddr))
	} else {
		notifier = alerts.NewDirect(alerts.NewMailer(cfg, log), cfg.FrontendURL, log)
		log.Warn("REDIS_ADDR not set, sending email inline and relaying in-process")
	}

	go func() {
		if err := hub.Run(ctx); err != nil {
			log.Error("relay broker stopped", zap.Error(err))
		}
	}()

	var checkout payments.Checkout
	if cfg.StripeEnabled() {
		checkout = payments.NewStripeCheckout(cfg.StripeSecretKey, cfg.FrontendURL)
	} else {
		log.Warn("STRIPE_SECRET_KEY not set, hosted checkout disabled")
	}
	reconciler := payments.NewReconciler(repos.Payments, cfg.ReconcileAfter, m, log)

	e := newServer(serverDeps{
		cfg:        cfg,
		log:        log,
		pool:       pool,
		repos:      repos,
		signer:     utils.NewTokenSigner(cfg.JWTSecret, cfg.TokenTTL),
		notifier:   notifier,
		files:      files,
		hub:        hub,
		checkout:   checkout,
		reconciler: reconciler,
		metrics:    m,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("api listening", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// readyTimeout bounds the database ping behind /api/ready.
const readyTimeout = 2 * time.Second
