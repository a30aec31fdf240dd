package repository

import (
	"context"

	"github.com/sudo-init-do/distal/internal/apperr"
	"github.com/sudo-init-do/distal/internal/models"
)

const deliverableColumns = `id, job_id, uploader_id, title, description, file_name, content_type, size_bytes, storage_key, created_at`

type pgDeliverables struct {
	db querier
}

func scanDeliverable(row interface{ Scan(...any) error }) (*models.Deliverable, error) {
	var d models.Deliverable
	err := row.Scan(&d.ID, &d.JobID, &d.UploaderID, &d.Title, &d.Description, &d.FileName,
		&d.ContentType, &d.SizeBytes, &d.StorageKey, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *pgDeliverables) Create(ctx context.Context, d *models.Deliverable) (*models.Deliverable, error) {
	out, err := scanDeliverable(r.db.QueryRow(ctx, `
		INSERT INTO deliverables (id, job_id, uploader_id, title, description, file_name, content_type, size_bytes, storage_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+deliverableColumns,
		d.ID, d.JobID, d.UploaderID, d.Title, d.Description, d.FileName, d.ContentType, d.SizeBytes, d.StorageKey))
	if err != nil {
		return nil, internalErr(err, "create deliverable")
	}
	return out, nil
}

func (r *pgDeliverables) Get(ctx context.Context, jobID, id string) (*models.Deliverable, error) {
	if !validID(jobID) || !validID(id) {
		return nil, apperr.NotFoundOrUnauthorized("Deliverable")
	}
	d, err := scanDeliverable(r.db.QueryRow(ctx, `
		SELECT `+deliverableColumns+` FROM deliverables WHERE id = $1 AND job_id = $2
	`, id, jobID))
	if err != nil {
		if isNoRows(err) {
			return nil, apperr.NotFoundOrUnauthorized("Deliverable")
		}
		return nil, internalErr(err, "get deliverable")
	}
	return d, nil
}

func (r *pgDeliverables) ListByJob(ctx context.Context, jobID string) ([]models.Deliverable, error) {
	out := []models.Deliverable{}
	if !validID(jobID) {
		return out, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+deliverableColumns+` FROM deliverables WHERE job_id = $1 ORDER BY created_at, id
	`, jobID)
	if err != nil {
		return nil, internalErr(err, "list deliverables")
	}
	defer rows.Close()

	for rows.Next() {
		d, err := scanDeliverable(rows)
		if err != nil {
			return nil, internalErr(err, "scan deliverable")
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}
