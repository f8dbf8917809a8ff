package fakesessionrepo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-session-server/internal/errors"
	"github.com/jrsteele09/go-session-server/internal/utils"
	"github.com/jrsteele09/go-session-server/sessions"
)

var _ sessions.Repo = (*FakeSessionRepo)(nil)

// FakeSessionRepo keeps sessions in memory. Each method runs under one lock, which gives
// the same atomicity the real stores get from single conditional updates.
type FakeSessionRepo struct {
	sessions map[string]*sessions.Session
	lock     sync.RWMutex
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{
		sessions: make(map[string]*sessions.Session),
	}
}

func (sr *FakeSessionRepo) Create(_ context.Context, session *sessions.Session) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if _, ok := sr.sessions[session.ID]; ok {
		return apperrors.ErrDuplicate
	}
	if session.RevokedAt == nil {
		for _, s := range sr.sessions {
			if s.UserID == session.UserID && s.DeviceID == session.DeviceID && s.RevokedAt == nil {
				return apperrors.ErrDuplicate
			}
		}
	}
	sr.sessions[session.ID] = copySession(session)
	return nil
}

func (sr *FakeSessionRepo) GetByID(_ context.Context, id string) (*sessions.Session, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	session, ok := sr.sessions[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return copySession(session), nil
}

func (sr *FakeSessionRepo) RevokeDeviceSlot(_ context.Context, userID, deviceID string, now time.Time) (int64, error) {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	var n int64
	for _, s := range sr.sessions {
		if s.UserID == userID && s.DeviceID == deviceID && s.RevokedAt == nil {
			revoke(s, now)
			n++
		}
	}
	return n, nil
}

func (sr *FakeSessionRepo) Rotate(_ context.Context, id, expectedHash, newHash string, now time.Time) (bool, error) {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	s, ok := sr.sessions[id]
	if !ok || !s.IsActive(now) || s.RefreshTokenHash != expectedHash {
		return false, nil
	}
	s.RefreshTokenHash = newHash
	s.LastUsedAt = now
	s.UpdatedAt = now
	return true, nil
}

func (sr *FakeSessionRepo) Revoke(_ context.Context, id string, now time.Time) (bool, error) {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	s, ok := sr.sessions[id]
	if !ok || s.RevokedAt != nil {
		return false, nil
	}
	revoke(s, now)
	return true, nil
}

func (sr *FakeSessionRepo) RevokeForUser(_ context.Context, userID, id string, now time.Time) (bool, error) {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	s, ok := sr.sessions[id]
	if !ok || s.UserID != userID {
		return false, apperrors.ErrNotFound
	}
	if s.RevokedAt != nil {
		return false, nil
	}
	revoke(s, now)
	return true, nil
}

func (sr *FakeSessionRepo) RevokeAllForUser(_ context.Context, userID string, now time.Time) (int64, error) {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	var n int64
	for _, s := range sr.sessions {
		if s.UserID == userID && s.RevokedAt == nil {
			revoke(s, now)
			n++
		}
	}
	return n, nil
}

func (sr *FakeSessionRepo) ListActive(_ context.Context, userID string, now time.Time) ([]*sessions.Session, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	list := make([]*sessions.Session, 0)
	for _, s := range sr.sessions {
		if s.UserID == userID && s.IsActive(now) {
			list = append(list, copySession(s))
		}
	}
	sessions.SortByRecentUse(list)
	return list, nil
}

// All returns a snapshot of every stored session, revoked ones included.
func (sr *FakeSessionRepo) All() []*sessions.Session {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	list := make([]*sessions.Session, 0, len(sr.sessions))
	for _, s := range sr.sessions {
		list = append(list, copySession(s))
	}
	return list
}

func revoke(s *sessions.Session, now time.Time) {
	s.RevokedAt = utils.Ptr(now)
	s.UpdatedAt = now
}

func copySession(s *sessions.Session) *sessions.Session {
	c := *s
	if s.RevokedAt != nil {
		c.RevokedAt = utils.Ptr(*s.RevokedAt)
	}
	return &c
}
