package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sudo-init-do/distal/internal/apperr"
)

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPostgres wires every repository to one pool.
func NewPostgres(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Users:        &pgUsers{db: pool},
		Datasets:     &pgDatasets{db: pool},
		Jobs:         &pgJobs{db: pool},
		Messages:     &pgMessages{db: pool},
		Payments:     &pgPayments{db: pool},
		Proposals:    &pgProposals{pool: pool},
		Deliverables: &pgDeliverables{db: pool},
		Stats:        &pgStats{db: pool},
	}
}

// validID filters out values Postgres would reject as uuid input.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func internalErr(err error, op string) error {
	return apperr.Internal(err, op+" failed")
}
