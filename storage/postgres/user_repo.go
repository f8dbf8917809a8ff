package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	apperrors "github.com/jrsteele09/go-session-server/internal/errors"
	"github.com/jrsteele09/go-session-server/users"
)

var _ users.UserRepo = (*UserRepo)(nil)

const userColumns = `
	id, email, phone, password_hash, first_name, last_name, date_of_birth, role, is_active,
	avatar_url, avatar_base64, stats_giving, stats_exchanging, stats_exchanged, stats_given,
	created_at, updated_at`

// UserRepo implements users.UserRepo. An empty phone is stored as '' and is excluded from
// the partial unique index.
type UserRepo struct {
	store *Store
}

func (r *UserRepo) Create(ctx context.Context, u *users.User) error {
	ctx, cancel := r.store.opContext(ctx)
	defer cancel()

	_, err := r.store.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`, u.ID, u.Email, u.Phone, u.PasswordHash, u.FirstName, u.LastName, u.DateOfBirth, string(u.Role), u.IsActive,
		u.Avatar.URL, u.Avatar.Base64, u.Stats.Giving, u.Stats.Exchanging, u.Stats.Exchanged, u.Stats.Given,
		u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return apperrors.Wrapf(err, "postgres: insert user")
	}
	return nil
}

func (r *UserRepo) Update(ctx context.Context, u *users.User) error {
	ctx, cancel := r.store.opContext(ctx)
	defer cancel()

	ct, err := r.store.pool.Exec(ctx, `
		UPDATE users SET
			email = $2, phone = $3, password_hash = $4, first_name = $5, last_name = $6,
			date_of_birth = $7, role = $8, is_active = $9, avatar_url = $10, avatar_base64 = $11,
			stats_giving = $12, stats_exchanging = $13, stats_exchanged = $14, stats_given = $15,
			updated_at = $16
		WHERE id = $1
	`, u.ID, u.Email, u.Phone, u.PasswordHash, u.FirstName, u.LastName,
		u.DateOfBirth, string(u.Role), u.IsActive, u.Avatar.URL, u.Avatar.Base64,
		u.Stats.Giving, u.Stats.Exchanging, u.Stats.Exchanged, u.Stats.Given,
		u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return apperrors.Wrapf(err, "postgres: update user")
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.store.opContext(ctx)
	defer cancel()

	ct, err := r.store.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return apperrors.Wrapf(err, "postgres: delete user")
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepo) GetByPhone(ctx context.Context, phone string) (*users.User, error) {
	if phone == "" {
		return nil, apperrors.ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1`, phone)
}

func (r *UserRepo) SetActive(ctx context.Context, id string, active bool) error {
	ctx, cancel := r.store.opContext(ctx)
	defer cancel()

	ct, err := r.store.pool.Exec(ctx, `UPDATE users SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return apperrors.Wrapf(err, "postgres: set user active")
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *UserRepo) getOne(ctx context.Context, query string, arg string) (*users.User, error) {
	ctx, cancel := r.store.opContext(ctx)
	defer cancel()

	var (
		u    users.User
		role string
	)
	err := r.store.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.Phone, &u.PasswordHash, &u.FirstName, &u.LastName, &u.DateOfBirth, &role, &u.IsActive,
		&u.Avatar.URL, &u.Avatar.Base64, &u.Stats.Giving, &u.Stats.Exchanging, &u.Stats.Exchanged, &u.Stats.Given,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, apperrors.Wrapf(err, "postgres: get user")
	}
	u.Role = users.RoleType(role)
	return &u, nil
}
