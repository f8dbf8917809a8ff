// Package sessionstest holds a behavioural test suite every sessions.Repo must pass.
package sessionstest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-session-server/internal/errors"
	"github.com/jrsteele09/go-session-server/sessions"
	"github.com/stretchr/testify/require"
)

// RunRepoContract exercises repo implementations through newRepo, which must return an
// empty store for every call.
func RunRepoContract(t *testing.T, newRepo func(t *testing.T) sessions.Repo) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	newSession := func(userID, deviceID, hash string) *sessions.Session {
		return &sessions.Session{
			ID:               uuid.New().String(),
			UserID:           userID,
			RefreshTokenHash: hash,
			DeviceID:         deviceID,
			UserAgent:        "contract-test",
			IP:               "127.0.0.1",
			ExpiresAt:        now.Add(time.Hour),
			LastUsedAt:       now,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
	}

	t.Run("create and get", func(t *testing.T) {
		repo := newRepo(t)
		s := newSession("u1", "d1", "h1")
		require.NoError(t, repo.Create(ctx, s))

		got, err := repo.GetByID(ctx, s.ID)
		require.NoError(t, err)
		require.Equal(t, s.UserID, got.UserID)
		require.Equal(t, "h1", got.RefreshTokenHash)
		require.Nil(t, got.RevokedAt)
		require.True(t, got.ExpiresAt.Equal(s.ExpiresAt))

		_, err = repo.GetByID(ctx, uuid.New().String())
		require.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("device slot holds one unrevoked session", func(t *testing.T) {
		repo := newRepo(t)
		expired := newSession("u1", "d1", "e")
		expired.ExpiresAt = now.Add(-time.Minute)
		other := newSession("u1", "d2", "c")
		stranger := newSession("u2", "d1", "d")
		for _, s := range []*sessions.Session{expired, other, stranger} {
			require.NoError(t, repo.Create(ctx, s))
		}

		next := newSession("u1", "d1", "a")
		require.ErrorIs(t, repo.Create(ctx, next), apperrors.ErrDuplicate, "an expired but unrevoked session still holds the slot")

		n, err := repo.RevokeDeviceSlot(ctx, "u1", "d1", now)
		require.NoError(t, err)
		require.EqualValues(t, 1, n)
		require.NoError(t, repo.Create(ctx, next))

		got, err := repo.GetByID(ctx, expired.ID)
		require.NoError(t, err)
		require.NotNil(t, got.RevokedAt)

		n, err = repo.RevokeDeviceSlot(ctx, "u1", "d1", now)
		require.NoError(t, err)
		require.EqualValues(t, 1, n)
		require.NoError(t, repo.Create(ctx, newSession("u1", "d1", "b")))

		for _, id := range []string{other.ID, stranger.ID} {
			got, err := repo.GetByID(ctx, id)
			require.NoError(t, err)
			require.Nil(t, got.RevokedAt)
		}
	})

	t.Run("concurrent creates in one slot have one winner", func(t *testing.T) {
		repo := newRepo(t)
		const workers = 8
		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- repo.Create(ctx, newSession("u1", "d1", uuid.New().String()))
			}()
		}
		wg.Wait()
		close(errs)

		created := 0
		for err := range errs {
			if err == nil {
				created++
				continue
			}
			require.ErrorIs(t, err, apperrors.ErrDuplicate)
		}
		require.Equal(t, 1, created)

		active, err := repo.ListActive(ctx, "u1", now)
		require.NoError(t, err)
		require.Len(t, active, 1)
	})

	t.Run("rotate is compare and set", func(t *testing.T) {
		repo := newRepo(t)
		s := newSession("u1", "d1", "old")
		require.NoError(t, repo.Create(ctx, s))
		later := now.Add(time.Minute)

		ok, err := repo.Rotate(ctx, s.ID, "wrong", "new", later)
		require.NoError(t, err)
		require.False(t, ok)

		ok, err = repo.Rotate(ctx, s.ID, "old", "new", later)
		require.NoError(t, err)
		require.True(t, ok)

		got, err := repo.GetByID(ctx, s.ID)
		require.NoError(t, err)
		require.Equal(t, "new", got.RefreshTokenHash)
		require.True(t, got.LastUsedAt.Equal(later))
		require.True(t, got.ExpiresAt.Equal(s.ExpiresAt), "rotation keeps the absolute expiry")
		require.Equal(t, "d1", got.DeviceID)

		ok, err = repo.Rotate(ctx, s.ID, "old", "newer", later)
		require.NoError(t, err)
		require.False(t, ok, "stale fingerprint must lose")
	})

	t.Run("rotate refuses revoked and expired sessions", func(t *testing.T) {
		repo := newRepo(t)
		revoked := newSession("u1", "d1", "h")
		expired := newSession("u1", "d2", "h")
		expired.ExpiresAt = now.Add(-time.Second)
		require.NoError(t, repo.Create(ctx, revoked))
		require.NoError(t, repo.Create(ctx, expired))
		_, err := repo.Revoke(ctx, revoked.ID, now)
		require.NoError(t, err)

		for _, id := range []string{revoked.ID, expired.ID} {
			ok, err := repo.Rotate(ctx, id, "h", "h2", now)
			require.NoError(t, err)
			require.False(t, ok)
		}
	})

	t.Run("concurrent rotations have one winner", func(t *testing.T) {
		repo := newRepo(t)
		s := newSession("u1", "d1", "shared")
		require.NoError(t, repo.Create(ctx, s))

		type result struct {
			ok  bool
			err error
		}
		const workers = 8
		var wg sync.WaitGroup
		results := make(chan result, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := repo.Rotate(ctx, s.ID, "shared", uuid.New().String(), now)
				results <- result{ok: ok, err: err}
			}()
		}
		wg.Wait()
		close(results)

		winners := 0
		for r := range results {
			require.NoError(t, r.err)
			if r.ok {
				winners++
			}
		}
		require.Equal(t, 1, winners)
	})

	t.Run("revoke is idempotent", func(t *testing.T) {
		repo := newRepo(t)
		s := newSession("u1", "d1", "h")
		require.NoError(t, repo.Create(ctx, s))

		ok, err := repo.Revoke(ctx, s.ID, now)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = repo.Revoke(ctx, s.ID, now.Add(time.Hour))
		require.NoError(t, err)
		require.False(t, ok)

		got, err := repo.GetByID(ctx, s.ID)
		require.NoError(t, err)
		require.True(t, got.RevokedAt.Equal(now), "first revocation timestamp is kept")
	})

	t.Run("revoke for user checks ownership", func(t *testing.T) {
		repo := newRepo(t)
		s := newSession("u1", "d1", "h")
		require.NoError(t, repo.Create(ctx, s))

		_, err := repo.RevokeForUser(ctx, "u2", s.ID, now)
		require.ErrorIs(t, err, apperrors.ErrNotFound)
		_, err = repo.RevokeForUser(ctx, "u1", uuid.New().String(), now)
		require.ErrorIs(t, err, apperrors.ErrNotFound)

		revoked, err := repo.RevokeForUser(ctx, "u1", s.ID, now)
		require.NoError(t, err)
		require.True(t, revoked)

		revoked, err = repo.RevokeForUser(ctx, "u1", s.ID, now.Add(time.Minute))
		require.NoError(t, err)
		require.False(t, revoked, "a second revoke is a no-op")

		got, err := repo.GetByID(ctx, s.ID)
		require.NoError(t, err)
		require.True(t, got.RevokedAt.Equal(now))
	})

	t.Run("revoke all for user", func(t *testing.T) {
		repo := newRepo(t)
		mine := []*sessions.Session{newSession("u1", "d1", "a"), newSession("u1", "d2", "b")}
		theirs := newSession("u2", "d1", "c")
		for _, s := range append(mine, theirs) {
			require.NoError(t, repo.Create(ctx, s))
		}

		n, err := repo.RevokeAllForUser(ctx, "u1", now)
		require.NoError(t, err)
		require.EqualValues(t, 2, n)

		active, err := repo.ListActive(ctx, "u1", now)
		require.NoError(t, err)
		require.Empty(t, active)

		active, err = repo.ListActive(ctx, "u2", now)
		require.NoError(t, err)
		require.Len(t, active, 1)
	})

	t.Run("list active is ordered by recent use", func(t *testing.T) {
		repo := newRepo(t)
		oldest := newSession("u1", "d1", "a")
		oldest.LastUsedAt = now.Add(-3 * time.Minute)
		newest := newSession("u1", "d2", "b")
		newest.LastUsedAt = now.Add(-1 * time.Minute)
		tieOld := newSession("u1", "d3", "c")
		tieOld.LastUsedAt = now.Add(-2 * time.Minute)
		tieOld.CreatedAt = now.Add(-10 * time.Minute)
		tieNew := newSession("u1", "d4", "d")
		tieNew.LastUsedAt = now.Add(-2 * time.Minute)
		tieNew.CreatedAt = now.Add(-5 * time.Minute)
		revoked := newSession("u1", "d5", "e")
		for _, s := range []*sessions.Session{oldest, newest, tieOld, tieNew, revoked} {
			require.NoError(t, repo.Create(ctx, s))
		}
		_, err := repo.Revoke(ctx, revoked.ID, now)
		require.NoError(t, err)

		list, err := repo.ListActive(ctx, "u1", now)
		require.NoError(t, err)
		ids := make([]string, 0, len(list))
		for _, s := range list {
			ids = append(ids, s.ID)
		}
		require.Equal(t, []string{newest.ID, tieNew.ID, tieOld.ID, oldest.ID}, ids)
	})
}
