package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/sudo-init-do/distal/internal/apperr"
	"github.com/sudo-init-do/distal/internal/models"
)

const datasetSelect = `
	SELECT d.id, d.title, d.description, d.price::text, d.format, d.size, d.preview_url,
	       d.owner_id, u.name, u.email, d.created_at, d.updated_at
	FROM datasets d
	JOIN users u ON u.id = d.owner_id`

type pgDatasets struct {
	db querier
}

func scanDataset(row interface{ Scan(...any) error }) (*models.Dataset, error) {
	var d models.Dataset
	err := row.Scan(&d.ID, &d.Title, &d.Description, &d.Price, &d.Format, &d.Size, &d.PreviewURL,
		&d.OwnerID, &d.OwnerName, &d.OwnerEmail, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *pgDatasets) List(ctx context.Context) ([]models.Dataset, error) {
	rows, err := r.db.Query(ctx, datasetSelect+` ORDER BY d.created_at DESC, d.id`)
	if err != nil {
		return nil, internalErr(err, "list datasets")
	}
	defer rows.Close()

	out := []models.Dataset{}
	for rows.Next() {
		d, err := scanDataset(rows)
		if err != nil {
			return nil, internalErr(err, "scan dataset")
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (r *pgDatasets) Get(ctx context.Context, id string) (*models.Dataset, error) {
	if !validID(id) {
		return nil, apperr.NotFoundOrUnauthorized("Dataset")
	}
	d, err := scanDataset(r.db.QueryRow(ctx, datasetSelect+` WHERE d.id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, apperr.NotFoundOrUnauthorized("Dataset")
		}
		return nil, internalErr(err, "get dataset")
	}
	return d, nil
}

func (r *pgDatasets) Create(ctx context.Context, ownerID string, in models.DatasetInput) (*models.Dataset, error) {
	id := uuid.New().String()
	_, err := r.db.Exec(ctx, `
		INSERT INTO datasets (id, title, description, price, format, size, preview_url, owner_id)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8)
	`, id, in.Title, in.Description, in.Price.String(), in.Format, in.Size, in.PreviewURL, ownerID)
	if err != nil {
		return nil, internalErr(err, "create dataset")
	}
	return r.Get(ctx, id)
}

func (r *pgDatasets) Update(ctx context.Context, id, ownerID string, in models.DatasetInput) (*models.Dataset, error) {
	if !validID(id) {
		return nil, apperr.NotFoundOrUnauthorized("Dataset")
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE datasets
		SET title = $1, description = $2, price = $3::numeric, format = $4, size = $5,
		    preview_url = $6, updated_at = clock_timestamp()
		WHERE id = $7 AND owner_id = $8
	`, in.Title, in.Description, in.Price.String(), in.Format, in.Size, in.PreviewURL, id, ownerID)
	if err != nil {
		return nil, internalErr(err, "update dataset")
	}
	if tag.RowsAffected() == 0 {
		return nil, apperr.NotFoundOrUnauthorized("Dataset")
	}
	return r.Get(ctx, id)
}

func (r *pgDatasets) Delete(ctx context.Context, id, ownerID string) error {
	if !validID(id) {
		return apperr.NotFoundOrUnauthorized("Dataset")
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM datasets WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return internalErr(err, "delete dataset")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundOrUnauthorized("Dataset")
	}
	return nil
}
