package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/sudo-init-do/distal/internal/alerts"
	"github.com/sudo-init-do/distal/internal/config"
	"github.com/sudo-init-do/distal/internal/db"
	"github.com/sudo-init-do/distal/internal/logger"
	"github.com/sudo-init-do/distal/internal/metrics"
	"github.com/sudo-init-do/distal/internal/payments"
	"github.com/sudo-init-do/distal/internal/repository"
)

func main() {
	cfg := config.MustLoad()

	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("worker stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	if cfg.RedisAddr == "" {
		return errors.New("REDIS_ADDR is required for the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Open(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	repos := repository.NewPostgres(pool)
	reconciler := payments.NewReconciler(repos.Payments, cfg.ReconcileAfter, metrics.New(), log)

	redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			alerts.QueueEmails: 6,
			"default":          3,
		},
		ShutdownTimeout: cfg.ShutdownTimeout,
		Logger:          log.Named("asynq").Sugar(),
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
			log.Error("task failed", zap.String("type", task.Type()), zap.Error(err))
		}),
	})

	mux := asynq.NewServeMux()
	alerts.NewProcessor(alerts.NewMailer(cfg, log), log).Register(mux)
	mux.Handle(payments.TaskReconcile, reconciler)

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Location: time.UTC,
		Logger:   log.Named("scheduler").Sugar(),
	})
	entryID, err := scheduler.Register(cfg.ReconcileSchedule, payments.NewReconcileTask())
	if err != nil {
		return err
	}
	log.Info("scheduled reconciliation", zap.String("entry_id", entryID), zap.String("schedule", cfg.ReconcileSchedule))

	if err := srv.Start(mux); err != nil {
		return err
	}
	if err := scheduler.Start(); err != nil {
		srv.Shutdown()
		return err
	}
	log.Info("worker started", zap.String("redis", cfg.RedisAddr))

	<-ctx.Done()
	log.Info("shutting down")
	scheduler.Shutdown()
	srv.Shutdown()
	return nil
}
