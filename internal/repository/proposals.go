package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sudo-init-do/distal/internal/apperr"
	"github.com/sudo-init-do/distal/internal/db"
	"github.com/sudo-init-do/distal/internal/models"
)

const proposalSelect = `
	SELECT pr.id, pr.job_id, pr.provider_id, u.name, pr.price::text, pr.timeline, pr.approach,
	       pr.status, pr.created_at, pr.updated_at
	FROM proposals pr
	JOIN users u ON u.id = pr.provider_id`

type pgProposals struct {
	pool *pgxpool.Pool
}

func scanProposal(row interface{ Scan(...any) error }) (*models.Proposal, error) {
	var p models.Proposal
	err := row.Scan(&p.ID, &p.JobID, &p.ProviderID, &p.ProviderName, &p.Price, &p.Timeline, &p.Approach,
		&p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pgProposals) Create(ctx context.Context, p *models.Proposal) (*models.Proposal, error) {
	if !validID(p.JobID) {
		return nil, apperr.NotFoundOrUnauthorized("Job")
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var status models.JobStatus
		err := tx.QueryRow(ctx, `SELECT status FROM jobs WHERE id = $1 FOR UPDATE`, p.JobID).Scan(&status)
		if err != nil {
			if isNoRows(err) {
				return apperr.NotFoundOrUnauthorized("Job")
			}
			return internalErr(err, "lock job")
		}
		if status != models.JobDiscussion && status != models.JobQuoted {
			return apperr.New(apperr.CodeConflict, "Job is no longer accepting proposals")
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO proposals (id, job_id, provider_id, price, timeline, approach, status)
			VALUES ($1, $2, $3, $4::numeric, $5, $6, 'pending')
		`, p.ID, p.JobID, p.ProviderID, p.Price.String(), p.Timeline, p.Approach)
		if err != nil {
			if db.IsUniqueViolation(err) {
				return apperr.New(apperr.CodeConflict, "You already have a pending proposal for this job")
			}
			return internalErr(err, "create proposal")
		}

		if status == models.JobDiscussion {
			_, err = tx.Exec(ctx, `
				UPDATE jobs SET status = 'quoted', updated_at = clock_timestamp()
				WHERE id = $1 AND status = 'discussion'
			`, p.JobID)
			if err != nil {
				return internalErr(err, "quote job")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, p.ID)
}

func (r *pgProposals) Get(ctx context.Context, id string) (*models.Proposal, error) {
	if !validID(id) {
		return nil, apperr.NotFoundOrUnauthorized("Proposal")
	}
	p, err := scanProposal(r.pool.QueryRow(ctx, proposalSelect+` WHERE pr.id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, apperr.NotFoundOrUnauthorized("Proposal")
		}
		return nil, internalErr(err, "get proposal")
	}
	return p, nil
}

func (r *pgProposals) ListByJob(ctx context.Context, jobID, providerID string) ([]models.Proposal, error) {
	out := []models.Proposal{}
	if !validID(jobID) {
		return out, nil
	}
	query := proposalSelect + ` WHERE pr.job_id = $1`
	args := []any{jobID}
	if providerID != "" {
		query += ` AND pr.provider_id = $2`
		args = append(args, providerID)
	}
	rows, err := r.pool.Query(ctx, query+` ORDER BY pr.created_at, pr.id`, args...)
	if err != nil {
		return nil, internalErr(err, "list proposals")
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, internalErr(err, "scan proposal")
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *pgProposals) Accept(ctx context.Context, jobID, proposalID, clientID string) (*models.Proposal, error) {
	if !validID(jobID) || !validID(proposalID) {
		return nil, apperr.NotFoundOrUnauthorized("Proposal")
	}
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var status models.JobStatus
		err := tx.QueryRow(ctx, `
			SELECT status FROM jobs WHERE id = $1 AND client_id = $2 FOR UPDATE
		`, jobID, clientID).Scan(&status)
		if err != nil {
			if isNoRows(err) {
				return apperr.NotFoundOrUnauthorized("Job")
			}
			return internalErr(err, "lock job")
		}
		if !status.CanTransitionTo(models.JobAccepted) || status == models.JobAccepted {
			return apperr.New(apperr.CodeInvalidTransition, "Job cannot accept a proposal in status "+string(status))
		}

		var providerID string
		err = tx.QueryRow(ctx, `
			UPDATE proposals SET status = 'accepted', updated_at = clock_timestamp()
			WHERE id = $1 AND job_id = $2 AND status = 'pending'
			RETURNING provider_id
		`, proposalID, jobID).Scan(&providerID)
		if err != nil {
			if isNoRows(err) {
				return apperr.NotFoundOrUnauthorized("Proposal")
			}
			return internalErr(err, "accept proposal")
		}

		if _, err = tx.Exec(ctx, `
			UPDATE proposals SET status = 'rejected', updated_at = clock_timestamp()
			WHERE job_id = $1 AND id <> $2 AND status = 'pending'
		`, jobID, proposalID); err != nil {
			return internalErr(err, "reject proposals")
		}

		if _, err = tx.Exec(ctx, `
			UPDATE jobs SET provider_id = $1, status = 'accepted', updated_at = clock_timestamp()
			WHERE id = $2
		`, providerID, jobID); err != nil {
			return internalErr(err, "assign provider")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, proposalID)
}

func (r *pgProposals) Withdraw(ctx context.Context, jobID, proposalID, providerID string) error {
	if !validID(jobID) || !validID(proposalID) {
		return apperr.NotFoundOrUnauthorized("Proposal")
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE proposals SET status = 'withdrawn', updated_at = clock_timestamp()
		WHERE id = $1 AND job_id = $2 AND provider_id = $3 AND status = 'pending'
	`, proposalID, jobID, providerID)
	if err != nil {
		return internalErr(err, "withdraw proposal")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundOrUnauthorized("Proposal")
	}
	return nil
}
