package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-session-server/internal/errors"
	"github.com/jrsteele09/go-session-server/internal/metrics"
	"github.com/jrsteele09/go-session-server/sessions"
	"github.com/jrsteele09/go-session-server/token"
	"github.com/jrsteele09/go-session-server/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultSessionTTL is the absolute lifetime of a session record.
const DefaultSessionTTL = 365 * 24 * time.Hour

// maxSlotAttempts bounds how often openSession clears a device slot that a concurrent
// login keeps refilling.
const maxSlotAttempts = 5

// Service runs the session lifecycle: login, registration, refresh rotation with reuse
// detection, and revocation. It holds no locks; every session mutation is a single
// atomic call on the sessions.Repo.
type Service struct {
	repos      Repos
	codec      *token.Codec
	sessionTTL time.Duration
	nowTime    func() time.Time
	logger     zerolog.Logger
	metrics    *metrics.Metrics
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithSessionTTL sets how long a new session stays refreshable.
func WithSessionTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.sessionTTL = ttl
	}
}

func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

func NewService(repos Repos, codec *token.Codec, options ...ServiceOption) (*Service, error) {
	if repos.Users == nil {
		return nil, errors.New("[NewService] Users repo is required")
	}
	if repos.Sessions == nil {
		return nil, errors.New("[NewService] Sessions repo is required")
	}
	if codec == nil {
		return nil, errors.New("[NewService] token codec is required")
	}

	s := &Service{
		repos:      repos,
		codec:      codec,
		sessionTTL: DefaultSessionTTL,
		nowTime:    time.Now,
		logger:     log.With().Str("component", "auth").Logger(),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.sessionTTL <= 0 {
		s.sessionTTL = DefaultSessionTTL
	}
	return s, nil
}

// AccessTokenTTL reports the lifetime of minted access tokens.
func (s *Service) AccessTokenTTL() time.Duration {
	return s.codec.AccessTTL()
}

// Login verifies credentials and opens a session on the requested device slot. An
// unknown email and a wrong password fail with the same error.
func (s *Service) Login(ctx context.Context, params LoginParameters) (*AuthResult, error) {
	user, err := s.repos.Users.GetByEmail(ctx, users.NormalizeEmail(params.Email))
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Wrapf(err, "Service.Login GetByEmail")
		}
		// Burn the same bcrypt time as a real comparison.
		users.CheckPasswordHash(params.Password, dummyHash())
		s.metrics.Inc(metrics.EventLoginFailed)
		return nil, apperrors.ErrInvalidCredentials
	}

	if !users.CheckPasswordHash(params.Password, user.PasswordHash) {
		s.metrics.Inc(metrics.EventLoginFailed)
		return nil, apperrors.ErrInvalidCredentials
	}
	if params.DeviceID == "" {
		return nil, apperrors.ErrMissingDeviceID
	}
	if !user.IsActive {
		return nil, apperrors.ErrUserInactive
	}

	pair, err := s.openSession(ctx, user, params.DeviceID, params.Client)
	if err != nil {
		return nil, err
	}
	s.metrics.Inc(metrics.EventLogin)
	return &AuthResult{TokenPair: *pair, User: user.SafeView()}, nil
}

// Register creates an account and opens its first session.
func (s *Service) Register(ctx context.Context, params RegisterParameters) (*AuthResult, error) {
	email := users.NormalizeEmail(params.Email)
	phone := users.NormalizePhone(params.Phone)

	taken, err := s.conflictingFields(ctx, email, phone, "")
	if err != nil {
		return nil, err
	}
	if len(taken) > 0 {
		return nil, apperrors.NewConflict(taken...)
	}
	if params.DeviceID == "" {
		return nil, apperrors.ErrMissingDeviceID
	}

	dob, err := ParseDateOfBirth(params.DateOfBirth)
	if err != nil {
		return nil, err
	}
	hash, err := hashPassword("password", params.Password)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return nil, err
		}
		return nil, apperrors.Wrapf(err, "Service.Register HashPassword")
	}

	user := users.New(email, hash, s.nowTime())
	user.ID = uuid.New().String()
	user.FirstName = strings.TrimSpace(params.FirstName)
	user.LastName = strings.TrimSpace(params.LastName)
	user.Phone = phone
	user.DateOfBirth = dob

	if err := s.repos.Users.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, s.duplicateConflict(ctx, email, phone)
		}
		return nil, apperrors.Wrapf(err, "Service.Register Create")
	}

	pair, err := s.openSession(ctx, user, params.DeviceID, params.Client)
	if err != nil {
		return nil, err
	}
	s.metrics.Inc(metrics.EventRegister)
	return &AuthResult{TokenPair: *pair, User: user.SafeView()}, nil
}

// openSession clears the device slot, then inserts a session that already carries the
// fingerprint of its refresh token. The session id is allocated up front so the token
// can embed it before the single insert. The store rejects a second unrevoked session in
// a slot, so a concurrent login on the same device makes Create fail and the slot is
// cleared again.
func (s *Service) openSession(ctx context.Context, user *users.User, deviceID string, client ClientInfo) (*TokenPair, error) {
	now := s.nowTime()

	session := &sessions.Session{
		ID:         uuid.New().String(),
		UserID:     user.ID,
		DeviceID:   deviceID,
		UserAgent:  client.UserAgent,
		IP:         client.IP,
		ExpiresAt:  now.Add(s.sessionTTL),
		LastUsedAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	pair, err := s.mint(user, session.ID)
	if err != nil {
		return nil, err
	}
	session.RefreshTokenHash = token.Fingerprint(pair.RefreshToken)

	for attempt := 1; ; attempt++ {
		evicted, err := s.repos.Sessions.RevokeDeviceSlot(ctx, user.ID, deviceID, now)
		if err != nil {
			return nil, apperrors.Wrapf(err, "Service.openSession RevokeDeviceSlot")
		}
		if evicted > 0 {
			s.metrics.Add(metrics.EventDeviceEviction, float64(evicted))
			s.logger.Debug().Str("user_id", user.ID).Str("device_id", deviceID).Int64("evicted", evicted).Msg("device slot cleared")
		}

		err = s.repos.Sessions.Create(ctx, session)
		if err == nil {
			return pair, nil
		}
		if !errors.Is(err, apperrors.ErrDuplicate) || attempt >= maxSlotAttempts {
			return nil, apperrors.Wrapf(err, "Service.openSession Create")
		}
		s.logger.Debug().Str("user_id", user.ID).Str("device_id", deviceID).Int("attempt", attempt).Msg("device slot taken by a concurrent login")
	}
}

// RefreshAccessToken exchanges a refresh token for a new pair and rotates the session's
// fingerprint. Presenting a token that has already been rotated away revokes the session.
func (s *Service) RefreshAccessToken(ctx context.Context, presented string) (*TokenPair, error) {
	if presented == "" {
		return nil, apperrors.ErrMissingRefreshToken
	}

	claims, err := s.codec.VerifyRefresh(presented)
	if err != nil {
		s.metrics.Inc(metrics.EventRefreshFailed)
		return nil, apperrors.ErrInvalidRefreshToken
	}
	if claims.UserID == "" || claims.SessionID == "" {
		s.metrics.Inc(metrics.EventRefreshFailed)
		return nil, apperrors.ErrInvalidRefreshToken
	}

	now := s.nowTime()
	session, err := s.repos.Sessions.GetByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.metrics.Inc(metrics.EventRefreshFailed)
			return nil, apperrors.ErrSessionExpired
		}
		return nil, apperrors.Wrapf(err, "Service.RefreshAccessToken GetByID")
	}
	if !session.IsActive(now) {
		s.metrics.Inc(metrics.EventRefreshFailed)
		return nil, apperrors.ErrSessionExpired
	}
	if session.UserID != claims.UserID {
		s.metrics.Inc(metrics.EventRefreshFailed)
		return nil, apperrors.ErrInvalidRefreshToken
	}

	if !token.FingerprintMatches(presented, session.RefreshTokenHash) {
		s.revokeOnReuse(ctx, session, now)
		return nil, apperrors.ErrRefreshTokenReused
	}

	user, err := s.repos.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrapf(err, "Service.RefreshAccessToken GetUser")
	}
	if !user.IsActive {
		return nil, apperrors.ErrUserInactive
	}

	pair, err := s.mint(user, session.ID)
	if err != nil {
		return nil, err
	}

	rotated, err := s.repos.Sessions.Rotate(ctx, session.ID, session.RefreshTokenHash, token.Fingerprint(pair.RefreshToken), now)
	if err != nil {
		return nil, apperrors.Wrapf(err, "Service.RefreshAccessToken Rotate")
	}
	if !rotated {
		// Someone else changed the session between our read and the swap.
		current, err := s.repos.Sessions.GetByID(ctx, session.ID)
		if err != nil || !current.IsActive(now) {
			return nil, apperrors.ErrSessionExpired
		}
		s.revokeOnReuse(ctx, current, now)
		return nil, apperrors.ErrRefreshTokenReused
	}

	s.metrics.Inc(metrics.EventRefresh)
	return pair, nil
}

// revokeOnReuse is best effort: the caller fails with RefreshTokenReused either way.
func (s *Service) revokeOnReuse(ctx context.Context, session *sessions.Session, now time.Time) {
	s.metrics.Inc(metrics.EventReuseDetected)
	s.logger.Warn().Str("session_id", session.ID).Str("user_id", session.UserID).Msg("refresh token reuse detected, revoking session")
	if _, err := s.repos.Sessions.Revoke(ctx, session.ID, now); err != nil {
		s.logger.Error().Err(err).Str("session_id", session.ID).Msg("failed to revoke session after reuse")
	}
}

// Logout revokes the session named by the refresh token. It never fails: a bad token or
// a store error is logged and dropped.
func (s *Service) Logout(ctx context.Context, presented string) {
	if presented == "" {
		return
	}
	claims, err := s.codec.VerifyRefresh(presented)
	if err != nil || claims.SessionID == "" {
		s.logger.Debug().Err(err).Msg("logout with unverifiable refresh token ignored")
		return
	}
	revoked, err := s.repos.Sessions.Revoke(ctx, claims.SessionID, s.nowTime())
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", claims.SessionID).Msg("logout revoke failed")
		return
	}
	if revoked {
		s.metrics.Inc(metrics.EventLogout)
	}
}

// ListSessions returns the user's active sessions, most recently used first.
func (s *Service) ListSessions(ctx context.Context, userID string) ([]sessions.View, error) {
	list, err := s.repos.Sessions.ListActive(ctx, userID, s.nowTime())
	if err != nil {
		return nil, apperrors.Wrapf(err, "Service.ListSessions")
	}
	views := make([]sessions.View, 0, len(list))
	for _, session := range list {
		views = append(views, session.View())
	}
	return views, nil
}

// RevokeSessionByID revokes one of the user's sessions. Revoking an already revoked
// session succeeds and keeps the original timestamp.
func (s *Service) RevokeSessionByID(ctx context.Context, userID, sessionID string) error {
	revoked, err := s.repos.Sessions.RevokeForUser(ctx, userID, sessionID, s.nowTime())
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.ErrSessionNotFound
		}
		return apperrors.Wrapf(err, "Service.RevokeSessionByID")
	}
	if revoked {
		s.metrics.Inc(metrics.EventSessionRevoked)
	}
	return nil
}

// RevokeAllSessions revokes every session of the user. Logout-all, password change and
// account deletion all go through here.
func (s *Service) RevokeAllSessions(ctx context.Context, userID string) error {
	n, err := s.repos.Sessions.RevokeAllForUser(ctx, userID, s.nowTime())
	if err != nil {
		return apperrors.Wrapf(err, "Service.RevokeAllSessions")
	}
	s.metrics.Inc(metrics.EventRevokeAll)
	s.logger.Info().Str("user_id", userID).Int64("revoked", n).Msg("all sessions revoked")
	return nil
}

func (s *Service) mint(user *users.User, sessionID string) (*TokenPair, error) {
	access, err := s.codec.SignAccess(user.ID, string(user.Role))
	if err != nil {
		return nil, apperrors.Wrapf(err, "Service.mint SignAccess")
	}
	refresh, err := s.codec.SignRefresh(user.ID, sessionID)
	if err != nil {
		return nil, apperrors.Wrapf(err, "Service.mint SignRefresh")
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// conflictingFields lists which of email and phone already belong to an account other
// than excludeID.
func (s *Service) conflictingFields(ctx context.Context, email, phone, excludeID string) ([]string, error) {
	var taken []string

	if email != "" {
		existing, err := s.repos.Users.GetByEmail(ctx, email)
		switch {
		case err == nil && existing.ID != excludeID:
			taken = append(taken, "email")
		case err != nil && !errors.Is(err, apperrors.ErrNotFound):
			return nil, apperrors.Wrapf(err, "Service.conflictingFields GetByEmail")
		}
	}

	if phone != "" {
		existing, err := s.repos.Users.GetByPhone(ctx, phone)
		switch {
		case err == nil && existing.ID != excludeID:
			taken = append(taken, "phone")
		case err != nil && !errors.Is(err, apperrors.ErrNotFound):
			return nil, apperrors.Wrapf(err, "Service.conflictingFields GetByPhone")
		}
	}
	return taken, nil
}

// duplicateConflict builds the Conflict for a unique violation raised by the store after
// the pre-check passed, i.e. a concurrent registration won the race.
func (s *Service) duplicateConflict(ctx context.Context, email, phone string) error {
	taken, err := s.conflictingFields(ctx, email, phone, "")
	if err != nil || len(taken) == 0 {
		return apperrors.NewConflict("email")
	}
	return apperrors.NewConflict(taken...)
}

var (
	dummyOnce sync.Once
	dummy     string
)

func dummyHash() string {
	dummyOnce.Do(func() {
		dummy, _ = users.HashPassword("timing-equalizer")
	})
	return dummy
}
