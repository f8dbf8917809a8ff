package fakeuserrepo

import (
	"context"
	"sync"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-session-server/internal/errors"
	"github.com/jrsteele09/go-session-server/internal/utils"
	"github.com/jrsteele09/go-session-server/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users    map[string]*users.User
	emailIds map[string]string // email to user id
	phoneIds map[string]string // phone to user id
	lock     sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:    make(map[string]*users.User),
		emailIds: make(map[string]string),
		phoneIds: make(map[string]string),
	}
}

func (ur *FakeUserRepo) Create(_ context.Context, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if _, ok := ur.emailIds[user.Email]; ok {
		return apperrors.ErrDuplicate
	}
	if _, ok := ur.phoneIds[user.Phone]; ok && user.Phone != "" {
		return apperrors.ErrDuplicate
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	ur.put(user)
	return nil
}

func (ur *FakeUserRepo) Update(_ context.Context, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	existing, ok := ur.users[user.ID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if id, ok := ur.phoneIds[user.Phone]; ok && user.Phone != "" && id != user.ID {
		return apperrors.ErrDuplicate
	}
	delete(ur.emailIds, existing.Email)
	delete(ur.phoneIds, existing.Phone)
	ur.put(user)
	return nil
}

func (ur *FakeUserRepo) Delete(_ context.Context, id string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	delete(ur.emailIds, user.Email)
	delete(ur.phoneIds, user.Phone)
	delete(ur.users, id)
	return nil
}

func (ur *FakeUserRepo) GetByID(_ context.Context, id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	user, ok := ur.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return copyUser(user), nil
}

func (ur *FakeUserRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.emailIds[email]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return copyUser(ur.users[id]), nil
}

func (ur *FakeUserRepo) GetByPhone(_ context.Context, phone string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.phoneIds[phone]
	if !ok || phone == "" {
		return nil, apperrors.ErrNotFound
	}
	return copyUser(ur.users[id]), nil
}

func (ur *FakeUserRepo) SetActive(_ context.Context, id string, active bool) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	user.IsActive = active
	return nil
}

// put stores a private copy so callers cannot mutate repo state without Update.
func (ur *FakeUserRepo) put(user *users.User) {
	stored := copyUser(user)
	ur.users[stored.ID] = stored
	ur.emailIds[stored.Email] = stored.ID
	if stored.Phone != "" {
		ur.phoneIds[stored.Phone] = stored.ID
	}
}

func copyUser(u *users.User) *users.User {
	c := *u
	if u.DateOfBirth != nil {
		c.DateOfBirth = utils.Ptr(*u.DateOfBirth)
	}
	return &c
}
