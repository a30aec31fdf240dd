package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/sudo-init-do/distal/internal/apperr"
	"github.com/sudo-init-do/distal/internal/db"
	"github.com/sudo-init-do/distal/internal/models"
)

const jobSelect = `
	SELECT j.id, j.title, j.description, j.budget::text, j.location, j.status, j.requirements,
	       j.delivery_format, j.timeline, j.client_id, c.name, j.provider_id, COALESCE(p.name, ''),
	       j.escrow_id, j.completion_date, j.created_at, j.updated_at
	FROM jobs j
	JOIN users c ON c.id = j.client_id
	LEFT JOIN users p ON p.id = j.provider_id`

type pgJobs struct {
	db querier
}

func scanJob(row interface{ Scan(...any) error }) (*models.Job, error) {
	var j models.Job
	err := row.Scan(&j.ID, &j.Title, &j.Description, &j.Budget, &j.Location, &j.Status, &j.Requirements,
		&j.DeliveryFormat, &j.Timeline, &j.ClientID, &j.ClientName, &j.ProviderID, &j.ProviderName,
		&j.EscrowID, &j.CompletionDate, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *pgJobs) List(ctx context.Context) ([]models.Job, error) {
	rows, err := r.db.Query(ctx, jobSelect+` ORDER BY j.created_at DESC, j.id`)
	if err != nil {
		return nil, internalErr(err, "list jobs")
	}
	defer rows.Close()

	out := []models.Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, internalErr(err, "scan job")
		}
		out = append(out, *j)
	}
	return out, rows.Err()
}

func (r *pgJobs) Get(ctx context.Context, id string) (*models.Job, error) {
	if !validID(id) {
		return nil, apperr.NotFoundOrUnauthorized("Job")
	}
	j, err := scanJob(r.db.QueryRow(ctx, jobSelect+` WHERE j.id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, apperr.NotFoundOrUnauthorized("Job")
		}
		return nil, internalErr(err, "get job")
	}
	return j, nil
}

func (r *pgJobs) Create(ctx context.Context, clientID string, in models.JobInput) (*models.Job, error) {
	id := uuid.New().String()
	_, err := r.db.Exec(ctx, `
		INSERT INTO jobs (id, title, description, budget, location, status, requirements,
		                  delivery_format, timeline, client_id)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8, $9, $10)
	`, id, in.Title, in.Description, in.Budget.String(), in.Location, models.JobDiscussion,
		in.Requirements, in.DeliveryFormat, in.Timeline, clientID)
	if err != nil {
		return nil, internalErr(err, "create job")
	}
	return r.Get(ctx, id)
}

func (r *pgJobs) Update(ctx context.Context, job *models.Job, observed models.JobStatus) (*models.Job, error) {
	if !validID(job.ID) {
		return nil, apperr.NotFoundOrUnauthorized("Job")
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE jobs
		SET title = $1, description = $2, budget = $3::numeric, location = $4, status = $5,
		    requirements = $6, delivery_format = $7, timeline = $8,
		    completion_date = CASE
		        WHEN $5 = 'completed' AND status <> 'completed' THEN clock_timestamp()
		        ELSE completion_date
		    END,
		    updated_at = clock_timestamp()
		WHERE id = $9 AND client_id = $10 AND status = $11
	`, job.Title, job.Description, job.Budget.String(), job.Location, job.Status,
		job.Requirements, job.DeliveryFormat, job.Timeline, job.ID, job.ClientID, observed)
	if err != nil {
		return nil, internalErr(err, "update job")
	}
	if tag.RowsAffected() == 0 {
		current, err := r.Get(ctx, job.ID)
		if err != nil || current.ClientID != job.ClientID {
			return nil, apperr.NotFoundOrUnauthorized("Job")
		}
		return nil, apperr.New(apperr.CodeConflict, "Job status changed concurrently")
	}
	return r.Get(ctx, job.ID)
}

func (r *pgJobs) Delete(ctx context.Context, id, clientID string) error {
	if !validID(id) {
		return apperr.NotFoundOrUnauthorized("Job")
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM jobs WHERE id = $1 AND client_id = $2`, id, clientID)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return apperr.New(apperr.CodeConflict, "Job has payment records and cannot be deleted")
		}
		return internalErr(err, "delete job")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundOrUnauthorized("Job")
	}
	return nil
}
