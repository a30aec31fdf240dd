package repository

import (
	"context"
	"time"

	"github.com/sudo-init-do/distal/internal/apperr"
	"github.com/sudo-init-do/distal/internal/db"
	"github.com/sudo-init-do/distal/internal/models"
)

const paymentColumns = `id, job_id, milestone_id, amount::text, method, external_ref, status, created_at, updated_at`

type pgPayments struct {
	db querier
}

func scanPayment(row interface{ Scan(...any) error }) (*models.Payment, error) {
	var p models.Payment
	err := row.Scan(&p.ID, &p.JobID, &p.MilestoneID, &p.Amount, &p.Method, &p.ExternalRef, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pgPayments) Create(ctx context.Context, p *models.Payment) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO payments (id, job_id, milestone_id, amount, method, status)
		VALUES ($1, $2, $3, $4::numeric, $5, $6)
		RETURNING created_at, updated_at
	`, p.ID, p.JobID, p.MilestoneID, p.Amount.String(), p.Method, p.Status).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return apperr.NotFoundOrUnauthorized("Job")
		}
		return internalErr(err, "create payment")
	}
	return nil
}

func (r *pgPayments) Get(ctx context.Context, id string) (*models.Payment, error) {
	if !validID(id) {
		return nil, apperr.NotFoundOrUnauthorized("Payment")
	}
	p, err := scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, apperr.NotFoundOrUnauthorized("Payment")
		}
		return nil, internalErr(err, "get payment")
	}
	return p, nil
}

func (r *pgPayments) SetExternalRef(ctx context.Context, id, ref string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE payments SET external_ref = $1, updated_at = clock_timestamp()
		WHERE id = $2 AND method = 'stripe'
	`, ref, id)
	if err != nil {
		return internalErr(err, "set payment reference")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundOrUnauthorized("Payment")
	}
	return nil
}

func (r *pgPayments) MarkFailed(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE payments SET status = 'failed', updated_at = clock_timestamp()
		WHERE id = $1 AND status = 'pending'
	`, id)
	if err != nil {
		return internalErr(err, "mark payment failed")
	}
	return nil
}

func (r *pgPayments) CompleteByRef(ctx context.Context, ref string) (*models.Payment, bool, error) {
	p, err := scanPayment(r.db.QueryRow(ctx, `
		UPDATE payments SET status = 'completed', updated_at = clock_timestamp()
		WHERE external_ref = $1
		RETURNING `+paymentColumns, ref))
	if err != nil {
		if isNoRows(err) {
			return nil, false, nil
		}
		return nil, false, internalErr(err, "complete payment")
	}
	return p, true, nil
}

func (r *pgPayments) FailByRef(ctx context.Context, ref string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE payments SET status = 'failed', updated_at = clock_timestamp()
		WHERE external_ref = $1 AND status = 'pending'
	`, ref)
	if err != nil {
		return false, internalErr(err, "fail payment")
	}
	return tag.RowsAffected() > 0, nil
}

func (r *pgPayments) ListByJob(ctx context.Context, jobID string) ([]models.Payment, error) {
	out := []models.Payment{}
	if !validID(jobID) {
		return out, nil
	}
	rows, err := r.db.Query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE job_id = $1 ORDER BY created_at, id`, jobID)
	if err != nil {
		return nil, internalErr(err, "list payments")
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, internalErr(err, "scan payment")
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *pgPayments) FailStale(ctx context.Context, createdBefore time.Time) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		UPDATE payments SET status = 'failed', updated_at = clock_timestamp()
		WHERE method = 'stripe' AND status = 'pending' AND external_ref IS NULL AND created_at < $1
		RETURNING id
	`, createdBefore)
	if err != nil {
		return nil, internalErr(err, "reconcile payments")
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, internalErr(err, "scan reconciled payment")
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
