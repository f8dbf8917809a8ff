package users

import "context"

// UserRepo persists accounts. Lookups return errors.ErrNotFound when nothing matches,
// and Create returns errors.ErrDuplicate when the email or phone is already taken.
type UserRepo interface {
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByPhone(ctx context.Context, phone string) (*User, error)
	SetActive(ctx context.Context, id string, active bool) error
}
