package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"

	"points-exchange-service/internal/app"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Store hands out Postgres-backed repositories.
type Store struct {
	pool *pgxpool.Pool
}

var _ app.Transactor = (*Store)(nil)

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Repositories returns stores that run each statement on the pool.
func (s *Store) Repositories() app.Repositories {
	return reposFor(s.pool)
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx app.Repositories) error) error {
	return s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		return fn(ctx, reposFor(tx))
	})
}

func reposFor(q querier) app.Repositories {
	return app.Repositories{
		Accounts:      &AccountStore{q: q},
		Quizzes:       &QuizStore{q: q},
		Notifications: &NotificationStore{q: q},
	}
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

const foreignKeyViolation = "23503"

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}

// nullTime maps the zero time to NULL so column defaults apply.
func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
