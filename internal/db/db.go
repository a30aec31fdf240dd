package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	migrate "github.com/rubenv/sql-migrate"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// ConnectBackOff is the retry policy used while Postgres comes up.
func ConnectBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	return backoff.WithContext(backoff.WithMaxRetries(b, 5), ctx)
}

// Open connects to Postgres, retrying while the server comes up.
func Open(ctx context.Context, dsn string, log *zap.Logger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 25
	cfg.MaxConnLifetime = 5 * time.Minute
	cfg.MaxConnIdleTime = time.Minute

	var pool *pgxpool.Pool
	connect := func() error {
		p, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := p.Ping(pingCtx); err != nil {
			p.Close()
			return err
		}
		pool = p
		return nil
	}
	notify := func(err error, next time.Duration) {
		log.Warn("postgres not ready, retrying", zap.Duration("retry_in", next), zap.Error(err))
	}
	if err := backoff.RetryNotify(connect, ConnectBackOff(ctx), notify); err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	log.Info("connected to postgres")
	return pool, nil
}

// Migrate applies every pending embedded migration and returns how many ran.
func Migrate(pool *pgxpool.Pool, log *zap.Logger) (int, error) {
	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()

	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return 0, fmt.Errorf("open migrations: %w", err)
	}
	source := &migrate.HttpFileSystemMigrationSource{FileSystem: http.FS(sub)}
	migrate.SetTable("schema_migrations")

	n, err := migrate.Exec(sqlDB, "postgres", source, migrate.Up)
	if err != nil {
		return 0, fmt.Errorf("apply migrations: %w", err)
	}
	log.Info("applied migrations", zap.Int("num", n))
	return n, nil
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsUniqueViolation reports a duplicate key error.
func IsUniqueViolation(err error) bool { return pgCode(err) == pgUniqueViolation }

// IsForeignKeyViolation reports a missing or still-referenced row.
func IsForeignKeyViolation(err error) bool { return pgCode(err) == pgForeignKeyViolation }

// IsCheckViolation reports a CHECK constraint failure.
func IsCheckViolation(err error) bool { return pgCode(err) == pgCheckViolation }
