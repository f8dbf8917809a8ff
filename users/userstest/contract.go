// Package userstest holds a behavioural test suite every users.UserRepo must pass.
package userstest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-session-server/internal/errors"
	"github.com/jrsteele09/go-session-server/users"
	"github.com/stretchr/testify/require"
)

// RunRepoContract exercises repo implementations through newRepo, which must return an
// empty store for every call.
func RunRepoContract(t *testing.T, newRepo func(t *testing.T) users.UserRepo) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	newUser := func(email, phone string) *users.User {
		u := users.New(email, "hash", now)
		u.ID = uuid.New().String()
		u.Phone = phone
		u.FirstName = "Test"
		return u
	}

	t.Run("create and lookups", func(t *testing.T) {
		repo := newRepo(t)
		dob := time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC)
		u := newUser("a@x.com", "+4412345678")
		u.DateOfBirth = &dob
		require.NoError(t, repo.Create(ctx, u))

		byID, err := repo.GetByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, "a@x.com", byID.Email)
		require.Equal(t, "hash", byID.PasswordHash)
		require.Equal(t, users.RoleUser, byID.Role)
		require.True(t, byID.IsActive)
		require.Equal(t, users.DefaultAvatarURL, byID.Avatar.URL)
		require.True(t, byID.DateOfBirth.Equal(dob))

		byEmail, err := repo.GetByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		require.Equal(t, u.ID, byEmail.ID)

		byPhone, err := repo.GetByPhone(ctx, "+4412345678")
		require.NoError(t, err)
		require.Equal(t, u.ID, byPhone.ID)

		_, err = repo.GetByID(ctx, uuid.New().String())
		require.ErrorIs(t, err, apperrors.ErrNotFound)
		_, err = repo.GetByEmail(ctx, "nobody@x.com")
		require.ErrorIs(t, err, apperrors.ErrNotFound)
		_, err = repo.GetByPhone(ctx, "")
		require.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("email and phone are unique", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, newUser("a@x.com", "+4412345678")))

		require.ErrorIs(t, repo.Create(ctx, newUser("a@x.com", "")), apperrors.ErrDuplicate)
		require.ErrorIs(t, repo.Create(ctx, newUser("b@x.com", "+4412345678")), apperrors.ErrDuplicate)
	})

	t.Run("accounts without a phone do not collide", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, newUser("a@x.com", "")))
		require.NoError(t, repo.Create(ctx, newUser("b@x.com", "")))
	})

	t.Run("update", func(t *testing.T) {
		repo := newRepo(t)
		u := newUser("a@x.com", "+4412345678")
		other := newUser("b@x.com", "+4487654321")
		require.NoError(t, repo.Create(ctx, u))
		require.NoError(t, repo.Create(ctx, other))

		u.FirstName = "Changed"
		u.Avatar = users.Avatar{URL: "https://cdn.example.com/a.png"}
		require.NoError(t, repo.Update(ctx, u))
		got, err := repo.GetByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, "Changed", got.FirstName)
		require.Equal(t, "https://cdn.example.com/a.png", got.Avatar.URL)

		u.Phone = other.Phone
		require.ErrorIs(t, repo.Update(ctx, u), apperrors.ErrDuplicate)

		missing := newUser("c@x.com", "")
		require.ErrorIs(t, repo.Update(ctx, missing), apperrors.ErrNotFound)
	})

	t.Run("set active and delete", func(t *testing.T) {
		repo := newRepo(t)
		u := newUser("a@x.com", "")
		require.NoError(t, repo.Create(ctx, u))

		require.NoError(t, repo.SetActive(ctx, u.ID, false))
		got, err := repo.GetByID(ctx, u.ID)
		require.NoError(t, err)
		require.False(t, got.IsActive)
		require.ErrorIs(t, repo.SetActive(ctx, uuid.New().String(), true), apperrors.ErrNotFound)

		require.NoError(t, repo.Delete(ctx, u.ID))
		_, err = repo.GetByEmail(ctx, "a@x.com")
		require.ErrorIs(t, err, apperrors.ErrNotFound)
		require.ErrorIs(t, repo.Delete(ctx, u.ID), apperrors.ErrNotFound)
	})
}
