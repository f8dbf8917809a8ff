// Package postgres stores accounts and sessions in PostgreSQL through pgx.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const defaultTimeout = 5 * time.Second

// Store owns the connection pool and hands out the repositories built on it.
type Store struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// Open builds a pool for dsn and checks a connection can be acquired. timeout bounds every
// subsequent store operation. It does not run migrations; see Migrate.
func Open(ctx context.Context, dsn string, timeout time.Duration) (*Store, error) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := ping(ctx, pool, timeout); err != nil {
		pool.Close()
		return nil, err
	}

	log.Info().Str("host", cfg.ConnConfig.Host).Str("database", cfg.ConnConfig.Database).Msg("connected to postgres")
	return &Store{pool: pool, timeout: timeout}, nil
}

func ping(parent context.Context, pool *pgxpool.Pool, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}
	conn.Release()
	return nil
}

func (s *Store) Users() *UserRepo {
	return &UserRepo{store: s}
}

func (s *Store) Sessions() *SessionRepo {
	return &SessionRepo{store: s}
}

// Truncate empties both tables. Used by integration tests to start from an empty store.
func (s *Store) Truncate(ctx context.Context) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	_, err := s.pool.Exec(ctx, `TRUNCATE sessions, users`)
	return err
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// uniqueViolation is the SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
