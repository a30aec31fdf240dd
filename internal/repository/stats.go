package repository

import (
	"context"

	"github.com/sudo-init-do/distal/internal/models"
)

type pgStats struct {
	db querier
}

func (r *pgStats) Snapshot(ctx context.Context) (*models.Stats, error) {
	var s models.Stats
	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE role = 'provider'),
			(SELECT COUNT(*) FROM datasets),
			(SELECT COUNT(*) FROM jobs),
			(SELECT COUNT(*) FROM jobs WHERE status NOT IN ('completed', 'cancelled')),
			(SELECT COUNT(*) FROM messages),
			(SELECT COUNT(*) FROM payments),
			(SELECT COUNT(*) FROM payments WHERE status = 'pending'),
			(SELECT COALESCE(SUM(amount), 0)::text FROM payments WHERE status = 'completed')
	`).Scan(&s.Users, &s.Providers, &s.Datasets, &s.Jobs, &s.OpenJobs,
		&s.Messages, &s.Payments, &s.PendingPayments, &s.CompletedVolume)
	if err != nil {
		return nil, internalErr(err, "load stats")
	}
	return &s, nil
}
