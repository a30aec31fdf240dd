package repository

import (
	"context"

	"github.com/sudo-init-do/distal/internal/apperr"
	"github.com/sudo-init-do/distal/internal/db"
	"github.com/sudo-init-do/distal/internal/models"
)

const userColumns = `id, email, password, name, role, specialty, bio, created_at, updated_at`

type pgUsers struct {
	db querier
}

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.Specialty, &u.Bio, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *pgUsers) Create(ctx context.Context, u *models.User) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO users (id, email, password, name, role, specialty, bio)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, u.ID, u.Email, u.PasswordHash, u.Name, u.Role, u.Specialty, u.Bio).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return apperr.New(apperr.CodeDuplicateUser, "User already exists")
		}
		return internalErr(err, "create user")
	}
	return nil
}

func (r *pgUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	if !validID(id) {
		return nil, apperr.NotFoundOrUnauthorized("User")
	}
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, apperr.NotFoundOrUnauthorized("User")
		}
		return nil, internalErr(err, "get user")
	}
	return u, nil
}

func (r *pgUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if isNoRows(err) {
			return nil, apperr.NotFoundOrUnauthorized("User")
		}
		return nil, internalErr(err, "get user by email")
	}
	return u, nil
}

func (r *pgUsers) UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) (*models.User, error) {
	if !validID(id) {
		return nil, apperr.NotFoundOrUnauthorized("User")
	}
	u, err := scanUser(r.db.QueryRow(ctx, `
		UPDATE users
		SET name = COALESCE(NULLIF($1, ''), name),
		    specialty = COALESCE(NULLIF($2, ''), specialty),
		    bio = COALESCE(NULLIF($3, ''), bio),
		    updated_at = clock_timestamp()
		WHERE id = $4
		RETURNING `+userColumns,
		upd.Name, upd.Specialty, upd.Bio, id))
	if err != nil {
		if isNoRows(err) {
			return nil, apperr.NotFoundOrUnauthorized("User")
		}
		return nil, internalErr(err, "update profile")
	}
	return u, nil
}

func (r *pgUsers) ListProviders(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users WHERE role = 'provider' ORDER BY name, id`)
	if err != nil {
		return nil, internalErr(err, "list providers")
	}
	defer rows.Close()

	out := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, internalErr(err, "scan provider")
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (r *pgUsers) SetRole(ctx context.Context, email string, role models.Role) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET role = $1, updated_at = clock_timestamp() WHERE email = $2`, role, email)
	if err != nil {
		return internalErr(err, "set role")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundOrUnauthorized("User")
	}
	return nil
}

func (r *pgUsers) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, internalErr(err, "list users")
	}
	defer rows.Close()

	out := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, internalErr(err, "scan user")
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}
