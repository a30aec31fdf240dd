package payments

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/sudo-init-do/distal/internal/metrics"
	"github.com/sudo-init-do/distal/internal/repository"
)

// TaskReconcile is the periodic task that fails orphaned checkout payments.
const TaskReconcile = "payments:reconcile"

// Reconciler marks processor payments that never received a session reference as failed.
type Reconciler struct {
	payments repository.PaymentRepository
	after    time.Duration
	metrics  *metrics.Metrics
	log      *zap.Logger
	now      func() time.Time
}

func NewReconciler(payments repository.PaymentRepository, after time.Duration, m *metrics.Metrics, log *zap.Logger) *Reconciler {
	return &Reconciler{payments: payments, after: after, metrics: m, log: log.Named("reconcile"), now: time.Now}
}

// Run performs one pass and returns the ids it failed.
func (r *Reconciler) Run(ctx context.Context) ([]string, error) {
	cutoff := r.now().Add(-r.after)
	ids, err := r.payments.FailStale(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		r.metrics.PaymentsReconciled.Add(float64(len(ids)))
		r.log.Warn("failed orphaned payments", zap.Strings("payment_ids", ids), zap.Time("cutoff", cutoff))
	} else {
		r.log.Debug("no orphaned payments", zap.Time("cutoff", cutoff))
	}
	return ids, nil
}

// NewReconcileTask builds the task the scheduler enqueues.
func NewReconcileTask() *asynq.Task {
	return asynq.NewTask(TaskReconcile, nil, asynq.MaxRetry(3), asynq.Timeout(time.Minute), asynq.Unique(5*time.Minute))
}

// ProcessTask lets the worker run reconciliation as an asynq handler.
func (r *Reconciler) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	_, err := r.Run(ctx)
	return err
}
