package auth

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/jrsteele09/go-session-server/internal/errors"
	"github.com/jrsteele09/go-session-server/users"
)

func (s *Service) GetProfile(ctx context.Context, userID string) (users.SafeView, error) {
	user, err := s.loadProfile(ctx, userID)
	if err != nil {
		return users.SafeView{}, err
	}
	return user.SafeView(), nil
}

// UpdateProfile applies the allowlisted fields of update after re-checking the current
// password. A new password revokes every session of the account before it is stored.
func (s *Service) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (users.SafeView, error) {
	if update.CurrentPassword == "" {
		return users.SafeView{}, apperrors.ErrCurrentPasswordRequired
	}
	user, err := s.loadProfile(ctx, userID)
	if err != nil {
		return users.SafeView{}, err
	}
	if !users.CheckPasswordHash(update.CurrentPassword, user.PasswordHash) {
		return users.SafeView{}, apperrors.ErrWrongPassword
	}

	if update.FirstName != nil {
		user.FirstName = strings.TrimSpace(*update.FirstName)
	}
	if update.LastName != nil {
		user.LastName = strings.TrimSpace(*update.LastName)
	}
	if update.Phone != nil {
		phone := users.NormalizePhone(*update.Phone)
		if phone != "" && phone != user.Phone {
			taken, err := s.conflictingFields(ctx, "", phone, user.ID)
			if err != nil {
				return users.SafeView{}, err
			}
			if len(taken) > 0 {
				return users.SafeView{}, apperrors.NewConflict(taken...)
			}
		}
		user.Phone = phone
	}
	if update.DateOfBirth != nil {
		dob, err := ParseDateOfBirth(*update.DateOfBirth)
		if err != nil {
			return users.SafeView{}, err
		}
		user.DateOfBirth = dob
	}
	if update.Avatar != nil {
		if update.Avatar.URL != nil {
			user.Avatar.URL = strings.TrimSpace(*update.Avatar.URL)
		}
		if update.Avatar.Base64 != nil {
			user.Avatar.Base64 = *update.Avatar.Base64
		}
	}

	if update.NewPassword != "" {
		hash, err := hashPassword("newPassword", update.NewPassword)
		if err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				return users.SafeView{}, err
			}
			return users.SafeView{}, apperrors.Wrapf(err, "Service.UpdateProfile HashPassword")
		}
		user.PasswordHash = hash
		if err := s.RevokeAllSessions(ctx, user.ID); err != nil {
			return users.SafeView{}, err
		}
	}

	user.UpdatedAt = s.nowTime()
	if err := s.repos.Users.Update(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return users.SafeView{}, apperrors.NewConflict("phone")
		}
		return users.SafeView{}, apperrors.Wrapf(err, "Service.UpdateProfile Update")
	}
	return user.SafeView(), nil
}

// UpdateAvatar replaces the avatar with a hosted image and drops any inline copy.
func (s *Service) UpdateAvatar(ctx context.Context, userID, url string) (users.SafeView, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return users.SafeView{}, apperrors.ErrMissingAvatarURL
	}
	user, err := s.loadProfile(ctx, userID)
	if err != nil {
		return users.SafeView{}, err
	}
	user.Avatar = users.Avatar{URL: url}
	user.UpdatedAt = s.nowTime()
	if err := s.repos.Users.Update(ctx, user); err != nil {
		return users.SafeView{}, apperrors.Wrapf(err, "Service.UpdateAvatar Update")
	}
	return user.SafeView(), nil
}

// DeleteAccount removes the account after revoking all of its sessions.
func (s *Service) DeleteAccount(ctx context.Context, userID, currentPassword string) error {
	if currentPassword == "" {
		return apperrors.ErrCurrentPasswordRequired
	}
	user, err := s.loadProfile(ctx, userID)
	if err != nil {
		return err
	}
	if !users.CheckPasswordHash(currentPassword, user.PasswordHash) {
		return apperrors.ErrWrongPassword
	}
	if err := s.RevokeAllSessions(ctx, user.ID); err != nil {
		return err
	}
	if err := s.repos.Users.Delete(ctx, user.ID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.ErrProfileNotFound
		}
		return apperrors.Wrapf(err, "Service.DeleteAccount Delete")
	}
	s.logger.Info().Str("user_id", user.ID).Msg("account deleted")
	return nil
}

func (s *Service) loadProfile(ctx context.Context, userID string) (*users.User, error) {
	user, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrProfileNotFound
		}
		return nil, apperrors.Wrapf(err, "Service.loadProfile")
	}
	return user, nil
}
