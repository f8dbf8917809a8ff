package sessions

import (
	"context"
	"sort"
	"time"
)

// Repo defines the session storage operations. Every mutating call must be a single
// atomic store operation; callers hold no locks and never read-modify-write.
type Repo interface {
	// Create inserts a fully formed session. It returns errors.ErrDuplicate when the id is
	// taken or when the (UserID, DeviceID) slot already holds an unrevoked session.
	Create(ctx context.Context, session *Session) error

	// GetByID returns errors.ErrNotFound when the session does not exist
	GetByID(ctx context.Context, id string) (*Session, error)

	// RevokeDeviceSlot revokes every unrevoked session in the (userID, deviceID) slot,
	// expired ones included, so the slot is free for Create.
	RevokeDeviceSlot(ctx context.Context, userID, deviceID string, now time.Time) (int64, error)

	// Rotate swaps the fingerprint and bumps LastUsedAt only if the session is still active
	// and its fingerprint equals expectedHash. It reports whether the swap happened.
	Rotate(ctx context.Context, id, expectedHash, newHash string, now time.Time) (bool, error)

	// Revoke sets RevokedAt if it is unset. It reports whether this call revoked the session.
	Revoke(ctx context.Context, id string, now time.Time) (bool, error)

	// RevokeForUser revokes a session owned by userID, returning errors.ErrNotFound otherwise.
	// It reports whether this call revoked the session; an already revoked one yields false.
	RevokeForUser(ctx context.Context, userID, id string, now time.Time) (bool, error)

	// RevokeAllForUser revokes every not yet revoked session of userID
	RevokeAllForUser(ctx context.Context, userID string, now time.Time) (int64, error)

	// ListActive returns the active sessions of userID, most recently used first
	ListActive(ctx context.Context, userID string, now time.Time) ([]*Session, error)
}

// SortByRecentUse orders sessions by LastUsedAt then CreatedAt, both descending.
func SortByRecentUse(list []*Session) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].LastUsedAt.Equal(list[j].LastUsedAt) {
			return list[i].LastUsedAt.After(list[j].LastUsedAt)
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}
