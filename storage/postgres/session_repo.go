package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	apperrors "github.com/jrsteele09/go-session-server/internal/errors"
	"github.com/jrsteele09/go-session-server/sessions"
)

var _ sessions.Repo = (*SessionRepo)(nil)

const sessionColumns = `
	id, user_id, refresh_token_hash, device_id, user_agent, ip,
	expires_at, revoked_at, last_used_at, created_at, updated_at`

// SessionRepo implements sessions.Repo. Every mutation is a single UPDATE whose WHERE
// clause carries the precondition.
type SessionRepo struct {
	store *Store
}

func (r *SessionRepo) Create(ctx context.Context, s *sessions.Session) error {
	ctx, cancel := r.store.opContext(ctx)
	defer cancel()

	_, err := r.store.pool.Exec(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, s.ID, s.UserID, s.RefreshTokenHash, s.DeviceID, s.UserAgent, s.IP,
		s.ExpiresAt, s.RevokedAt, s.LastUsedAt, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return apperrors.Wrapf(err, "postgres: insert session")
	}
	return nil
}

func (r *SessionRepo) GetByID(ctx context.Context, id string) (*sessions.Session, error) {
	ctx, cancel := r.store.opContext(ctx)
	defer cancel()

	row := r.store.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	s, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, apperrors.Wrapf(err, "postgres: get session")
	}
	return s, nil
}

func (r *SessionRepo) RevokeDeviceSlot(ctx context.Context, userID, deviceID string, now time.Time) (int64, error) {
	ctx, cancel := r.store.opContext(ctx)
	defer cancel()

	ct, err := r.store.pool.Exec(ctx, `
		UPDATE sessions
		SET revoked_at = $3, updated_at = $3
		WHERE user_id = $1 AND device_id = $2 AND revoked_at IS NULL
	`, userID, deviceID, now)
	if err != nil {
		return 0, apperrors.Wrapf(err, "postgres: revoke device sessions")
	}
	return ct.RowsAffected(), nil
}

func (r *SessionRepo) Rotate(ctx context.Context, id, expectedHash, newHash string, now time.Time) (bool, error) {
	ctx, cancel := r.store.opContext(ctx)
	defer cancel()

	ct, err := r.store.pool.Exec(ctx, `
		UPDATE sessions
		SET refresh_token_hash = $3, last_used_at = $4, updated_at = $4
		WHERE id = $1 AND refresh_token_hash = $2 AND revoked_at IS NULL AND expires_at > $4
	`, id, expectedHash, newHash, now)
	if err != nil {
		return false, apperrors.Wrapf(err, "postgres: rotate session")
	}
	return ct.RowsAffected() == 1, nil
}

func (r *SessionRepo) Revoke(ctx context.Context, id string, now time.Time) (bool, error) {
	ctx, cancel := r.store.opContext(ctx)
	defer cancel()

	ct, err := r.store.pool.Exec(ctx, `
		UPDATE sessions
		SET revoked_at = $2, updated_at = $2
		WHERE id = $1 AND revoked_at IS NULL
	`, id, now)
	if err != nil {
		return false, apperrors.Wrapf(err, "postgres: revoke session")
	}
	return ct.RowsAffected() == 1, nil
}

// RevokeForUser only touches a live row, so an already revoked session keeps its first
// timestamp. A miss is resolved by an ownership lookup.
func (r *SessionRepo) RevokeForUser(ctx context.Context, userID, id string, now time.Time) (bool, error) {
	ctx, cancel := r.store.opContext(ctx)
	defer cancel()

	ct, err := r.store.pool.Exec(ctx, `
		UPDATE sessions
		SET revoked_at = $3, updated_at = $3
		WHERE id = $1 AND user_id = $2 AND revoked_at IS NULL
	`, id, userID, now)
	if err != nil {
		return false, apperrors.Wrapf(err, "postgres: revoke user session")
	}
	if ct.RowsAffected() == 1 {
		return true, nil
	}

	var owned bool
	err = r.store.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM sessions WHERE id = $1 AND user_id = $2)`, id, userID,
	).Scan(&owned)
	if err != nil {
		return false, apperrors.Wrapf(err, "postgres: lookup user session")
	}
	if !owned {
		return false, apperrors.ErrNotFound
	}
	return false, nil
}

func (r *SessionRepo) RevokeAllForUser(ctx context.Context, userID string, now time.Time) (int64, error) {
	ctx, cancel := r.store.opContext(ctx)
	defer cancel()

	ct, err := r.store.pool.Exec(ctx, `
		UPDATE sessions
		SET revoked_at = $2, updated_at = $2
		WHERE user_id = $1 AND revoked_at IS NULL
	`, userID, now)
	if err != nil {
		return 0, apperrors.Wrapf(err, "postgres: revoke all sessions")
	}
	return ct.RowsAffected(), nil
}

func (r *SessionRepo) ListActive(ctx context.Context, userID string, now time.Time) ([]*sessions.Session, error) {
	ctx, cancel := r.store.opContext(ctx)
	defer cancel()

	rows, err := r.store.pool.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE user_id = $1 AND revoked_at IS NULL AND expires_at > $2
		ORDER BY last_used_at DESC, created_at DESC
	`, userID, now)
	if err != nil {
		return nil, apperrors.Wrapf(err, "postgres: list sessions")
	}
	defer rows.Close()

	list := make([]*sessions.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, apperrors.Wrapf(err, "postgres: scan session")
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrapf(err, "postgres: list sessions")
	}
	return list, nil
}

func scanSession(row pgx.Row) (*sessions.Session, error) {
	var s sessions.Session
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.RefreshTokenHash,
		&s.DeviceID,
		&s.UserAgent,
		&s.IP,
		&s.ExpiresAt,
		&s.RevokedAt,
		&s.LastUsedAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
