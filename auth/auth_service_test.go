package auth_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-session-server/auth"
	apperrors "github.com/jrsteele09/go-session-server/internal/errors"
	"github.com/jrsteele09/go-session-server/internal/metrics"
	"github.com/jrsteele09/go-session-server/sessions"
	fakesessionrepo "github.com/jrsteele09/go-session-server/sessions/repofake"
	"github.com/jrsteele09/go-session-server/token"
	"github.com/jrsteele09/go-session-server/users"
	fakeuserrepo "github.com/jrsteele09/go-session-server/users/repofake"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessSecret     = "access-secret"
	refreshSecret    = "refresh-secret"
	testUserEmail    = "john.doe@example.com"
	testUserPassword = "password123"
	testUserPhone    = "+447700900123"
	testDeviceID     = "d1"
)

// testClock is a settable clock shared by the service and the token codec.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// testFixture holds all test dependencies
type testFixture struct {
	userRepo    *fakeuserrepo.FakeUserRepo
	sessionRepo *fakesessionrepo.FakeSessionRepo
	codec       *token.Codec
	metrics     *metrics.Metrics
	clock       *testClock
	service     *auth.Service
}

// setupTestFixture creates a new test fixture with all dependencies
func setupTestFixture(t *testing.T, opts ...auth.ServiceOption) *testFixture {
	t.Helper()

	clock := &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	f := &testFixture{
		userRepo:    fakeuserrepo.NewFakeUserRepo(),
		sessionRepo: fakesessionrepo.NewFakeSessionRepo(),
		codec:       token.NewHMACCodec(accessSecret, refreshSecret, token.WithNowFunc(clock.Now)),
		metrics:     metrics.New("test"),
		clock:       clock,
	}

	options := append([]auth.ServiceOption{auth.WithNowTime(clock.Now), auth.WithMetrics(f.metrics)}, opts...)
	service, err := auth.NewService(auth.Repos{Users: f.userRepo, Sessions: f.sessionRepo}, f.codec, options...)
	require.NoError(t, err)
	f.service = service
	return f
}

// createUser seeds an account directly. A low bcrypt cost keeps the suite fast; the
// service verifies any cost.
func (f *testFixture) createUser(t *testing.T, email, password, phone string) *users.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user := users.New(email, string(hash), f.clock.Now())
	user.ID = uuid.New().String()
	user.FirstName = "John"
	user.LastName = "Doe"
	user.Phone = phone
	require.NoError(t, f.userRepo.Create(context.Background(), user))
	return user
}

func (f *testFixture) login(t *testing.T, deviceID string) *auth.AuthResult {
	t.Helper()

	result, err := f.service.Login(context.Background(), auth.LoginParameters{
		Email:    testUserEmail,
		Password: testUserPassword,
		DeviceID: deviceID,
		Client:   auth.ClientInfo{UserAgent: "go-test", IP: "10.0.0.1"},
	})
	require.NoError(t, err)
	return result
}

func (f *testFixture) sessionFor(t *testing.T, refreshToken string) *sessions.Session {
	t.Helper()

	claims, err := f.codec.VerifyRefresh(refreshToken)
	require.NoError(t, err)
	s, err := f.sessionRepo.GetByID(context.Background(), claims.SessionID)
	require.NoError(t, err)
	return s
}

func (f *testFixture) event(name string) float64 {
	return testutil.ToFloat64(f.metrics.AuthEvents().WithLabelValues(name))
}

func TestNewService_RequiresDependencies(t *testing.T) {
	codec := token.NewHMACCodec(accessSecret, refreshSecret)

	_, err := auth.NewService(auth.Repos{Sessions: fakesessionrepo.NewFakeSessionRepo()}, codec)
	require.Error(t, err)

	_, err = auth.NewService(auth.Repos{Users: fakeuserrepo.NewFakeUserRepo()}, codec)
	require.Error(t, err)

	_, err = auth.NewService(auth.Repos{Users: fakeuserrepo.NewFakeUserRepo(), Sessions: fakesessionrepo.NewFakeSessionRepo()}, nil)
	require.Error(t, err)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("successful login opens a session bound to the refresh token", func(t *testing.T) {
		f := setupTestFixture(t)
		user := f.createUser(t, testUserEmail, testUserPassword, testUserPhone)

		result := f.login(t, testDeviceID)
		require.Equal(t, user.ID, result.User.ID)
		require.Equal(t, testUserEmail, result.User.Email)

		access, err := f.codec.VerifyAccess(result.AccessToken)
		require.NoError(t, err)
		require.Equal(t, user.ID, access.UserID)
		require.Equal(t, string(users.RoleUser), access.Role)

		s := f.sessionFor(t, result.RefreshToken)
		require.Equal(t, user.ID, s.UserID)
		require.Equal(t, testDeviceID, s.DeviceID)
		require.Equal(t, "go-test", s.UserAgent)
		require.Equal(t, "10.0.0.1", s.IP)
		require.Nil(t, s.RevokedAt)
		require.Equal(t, token.Fingerprint(result.RefreshToken), s.RefreshTokenHash)
		require.True(t, s.ExpiresAt.Equal(f.clock.Now().Add(auth.DefaultSessionTTL)))
		require.Equal(t, float64(1), f.event(metrics.EventLogin))
	})

	t.Run("email is matched case insensitively", func(t *testing.T) {
		f := setupTestFixture(t)
		f.createUser(t, testUserEmail, testUserPassword, "")

		_, err := f.service.Login(ctx, auth.LoginParameters{
			Email:    "  John.Doe@Example.COM ",
			Password: testUserPassword,
			DeviceID: testDeviceID,
		})
		require.NoError(t, err)
	})

	t.Run("unknown email and wrong password are indistinguishable", func(t *testing.T) {
		f := setupTestFixture(t)
		f.createUser(t, testUserEmail, testUserPassword, "")

		_, unknownErr := f.service.Login(ctx, auth.LoginParameters{Email: "nobody@example.com", Password: testUserPassword, DeviceID: testDeviceID})
		_, wrongErr := f.service.Login(ctx, auth.LoginParameters{Email: testUserEmail, Password: "not-the-password", DeviceID: testDeviceID})

		require.ErrorIs(t, unknownErr, apperrors.ErrInvalidCredentials)
		require.ErrorIs(t, wrongErr, apperrors.ErrInvalidCredentials)
		require.Equal(t, unknownErr.Error(), wrongErr.Error())

		a, _ := apperrors.AsAppError(unknownErr)
		b, _ := apperrors.AsAppError(wrongErr)
		require.Equal(t, a.Status, b.Status)
		require.Empty(t, f.sessionRepo.All())
		require.Equal(t, float64(2), f.event(metrics.EventLoginFailed))
	})

	t.Run("missing device id", func(t *testing.T) {
		f := setupTestFixture(t)
		f.createUser(t, testUserEmail, testUserPassword, "")

		_, err := f.service.Login(ctx, auth.LoginParameters{Email: testUserEmail, Password: testUserPassword})
		require.ErrorIs(t, err, apperrors.ErrMissingDeviceID)
	})

	t.Run("inactive user", func(t *testing.T) {
		f := setupTestFixture(t)
		user := f.createUser(t, testUserEmail, testUserPassword, "")
		require.NoError(t, f.userRepo.SetActive(ctx, user.ID, false))

		_, err := f.service.Login(ctx, auth.LoginParameters{Email: testUserEmail, Password: testUserPassword, DeviceID: testDeviceID})
		require.ErrorIs(t, err, apperrors.ErrUserInactive)
		require.Empty(t, f.sessionRepo.All())
	})
}

func TestLogin_DeviceSlotExclusivity(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	user := f.createUser(t, testUserEmail, testUserPassword, "")

	first := f.login(t, testDeviceID)
	f.clock.Advance(time.Second)
	second := f.login(t, testDeviceID)
	f.clock.Advance(time.Second)
	f.login(t, "d2")

	require.NotNil(t, f.sessionFor(t, first.RefreshToken).RevokedAt)
	require.Nil(t, f.sessionFor(t, second.RefreshToken).RevokedAt)

	active, err := f.sessionRepo.ListActive(ctx, user.ID, f.clock.Now())
	require.NoError(t, err)
	require.Len(t, active, 2)

	perDevice := map[string]int{}
	for _, s := range active {
		perDevice[s.DeviceID]++
	}
	require.Equal(t, map[string]int{testDeviceID: 1, "d2": 1}, perDevice)
	require.Equal(t, float64(1), f.event(metrics.EventDeviceEviction))
}

// racingSessionRepo fills the device slot just before the first Create, the way a
// concurrent login on the same device would.
type racingSessionRepo struct {
	sessions.Repo
	once    sync.Once
	rival   *sessions.Session
	creates int
}

func (r *racingSessionRepo) Create(ctx context.Context, s *sessions.Session) error {
	r.creates++
	var err error
	r.once.Do(func() {
		rival := *s
		rival.ID = uuid.New().String()
		rival.RefreshTokenHash = "rival"
		r.rival = &rival
		err = r.Repo.Create(ctx, &rival)
	})
	if err != nil {
		return err
	}
	return r.Repo.Create(ctx, s)
}

func TestLogin_ConcurrentSameDevice(t *testing.T) {
	ctx := context.Background()

	t.Run("slot taken between clear and insert is retried", func(t *testing.T) {
		f := setupTestFixture(t)
		user := f.createUser(t, testUserEmail, testUserPassword, "")
		racing := &racingSessionRepo{Repo: f.sessionRepo}
		service, err := auth.NewService(auth.Repos{Users: f.userRepo, Sessions: racing}, f.codec,
			auth.WithNowTime(f.clock.Now), auth.WithMetrics(f.metrics))
		require.NoError(t, err)

		result, err := service.Login(ctx, auth.LoginParameters{
			Email:    testUserEmail,
			Password: testUserPassword,
			DeviceID: testDeviceID,
		})
		require.NoError(t, err)
		require.Equal(t, 2, racing.creates)

		rival, err := f.sessionRepo.GetByID(ctx, racing.rival.ID)
		require.NoError(t, err)
		require.NotNil(t, rival.RevokedAt)

		active, err := f.sessionRepo.ListActive(ctx, user.ID, f.clock.Now())
		require.NoError(t, err)
		require.Len(t, active, 1)
		require.Equal(t, f.sessionFor(t, result.RefreshToken).ID, active[0].ID)
	})

	t.Run("parallel logins leave one live session", func(t *testing.T) {
		f := setupTestFixture(t)
		user := f.createUser(t, testUserEmail, testUserPassword, "")

		const workers = 8
		errs := make(chan error, workers)
		var wg sync.WaitGroup
		start := make(chan struct{})
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				_, err := f.service.Login(ctx, auth.LoginParameters{
					Email:    testUserEmail,
					Password: testUserPassword,
					DeviceID: testDeviceID,
				})
				errs <- err
			}()
		}
		close(start)
		wg.Wait()
		close(errs)

		succeeded := 0
		for err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			require.ErrorIs(t, err, apperrors.ErrDuplicate)
		}
		require.GreaterOrEqual(t, succeeded, 1)

		active, err := f.sessionRepo.ListActive(ctx, user.ID, f.clock.Now())
		require.NoError(t, err)
		require.Len(t, active, 1)
	})
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	validParams := func() auth.RegisterParameters {
		return auth.RegisterParameters{
			FirstName:   "Jane",
			LastName:    "Smith",
			Email:       " Jane.Smith@Example.com",
			Phone:       "+44 7700 900456",
			Password:    "secret1",
			DateOfBirth: "1990-04-12",
			DeviceID:    testDeviceID,
		}
	}

	t.Run("password longer than bcrypt accepts is a validation error", func(t *testing.T) {
		f := setupTestFixture(t)

		params := validParams()
		params.Password = strings.Repeat("é", 40)
		_, err := f.service.Register(ctx, params)
		require.ErrorIs(t, err, apperrors.ErrValidation)

		_, err = f.userRepo.GetByEmail(ctx, "jane.smith@example.com")
		require.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("creates the account with defaults and opens a session", func(t *testing.T) {
		f := setupTestFixture(t)

		result, err := f.service.Register(ctx, validParams())
		require.NoError(t, err)
		require.NotEmpty(t, result.AccessToken)
		require.NotEmpty(t, result.RefreshToken)

		view := result.User
		require.Equal(t, "jane.smith@example.com", view.Email)
		require.Equal(t, "+447700900456", view.Phone)
		require.Equal(t, users.RoleUser, view.Role)
		require.True(t, view.IsActive)
		require.Equal(t, users.DefaultAvatarURL, view.Avatar.URL)
		require.Equal(t, users.Stats{}, view.Stats)
		require.NotNil(t, view.DateOfBirth)
		require.True(t, view.DateOfBirth.Equal(time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC)))

		stored, err := f.userRepo.GetByID(ctx, view.ID)
		require.NoError(t, err)
		require.True(t, users.CheckPasswordHash("secret1", stored.PasswordHash))

		s := f.sessionFor(t, result.RefreshToken)
		require.Equal(t, view.ID, s.UserID)
		require.Nil(t, s.RevokedAt)
	})

	t.Run("conflict lists every taken field", func(t *testing.T) {
		f := setupTestFixture(t)
		f.createUser(t, "jane.smith@example.com", testUserPassword, "+447700900456")

		_, err := f.service.Register(ctx, validParams())
		require.ErrorIs(t, err, apperrors.ErrConflict)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		require.Equal(t, map[string][]string{"fields": {"email", "phone"}}, appErr.Details)
	})

	t.Run("conflict on phone only", func(t *testing.T) {
		f := setupTestFixture(t)
		f.createUser(t, "someone@example.com", testUserPassword, "+447700900456")

		_, err := f.service.Register(ctx, validParams())
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		require.Equal(t, map[string][]string{"fields": {"phone"}}, appErr.Details)
	})

	t.Run("missing device id", func(t *testing.T) {
		f := setupTestFixture(t)
		params := validParams()
		params.DeviceID = ""

		_, err := f.service.Register(ctx, params)
		require.ErrorIs(t, err, apperrors.ErrMissingDeviceID)
	})

	t.Run("bad date of birth", func(t *testing.T) {
		f := setupTestFixture(t)
		params := validParams()
		params.DateOfBirth = "12/04/1990"

		_, err := f.service.Register(ctx, params)
		require.ErrorIs(t, err, apperrors.ErrValidation)
	})
}

func TestRefreshAccessToken(t *testing.T) {
	ctx := context.Background()

	t.Run("rotation invalidates the predecessor", func(t *testing.T) {
		f := setupTestFixture(t)
		f.createUser(t, testUserEmail, testUserPassword, "")
		original := f.login(t, testDeviceID)

		f.clock.Advance(time.Minute)
		next, err := f.service.RefreshAccessToken(ctx, original.RefreshToken)
		require.NoError(t, err)
		require.NotEqual(t, original.RefreshToken, next.RefreshToken)

		s := f.sessionFor(t, next.RefreshToken)
		require.Equal(t, token.Fingerprint(next.RefreshToken), s.RefreshTokenHash)
		require.True(t, s.LastUsedAt.Equal(f.clock.Now()))

		_, err = f.service.RefreshAccessToken(ctx, original.RefreshToken)
		require.ErrorIs(t, err, apperrors.ErrRefreshTokenReused)
		require.NotNil(t, f.sessionFor(t, next.RefreshToken).RevokedAt)

		// The legitimate holder is locked out too once reuse is detected.
		_, err = f.service.RefreshAccessToken(ctx, next.RefreshToken)
		require.ErrorIs(t, err, apperrors.ErrSessionExpired)
		require.Equal(t, float64(1), f.event(metrics.EventReuseDetected))
	})

	t.Run("missing and malformed tokens", func(t *testing.T) {
		f := setupTestFixture(t)
		f.createUser(t, testUserEmail, testUserPassword, "")
		result := f.login(t, testDeviceID)

		_, err := f.service.RefreshAccessToken(ctx, "")
		require.ErrorIs(t, err, apperrors.ErrMissingRefreshToken)

		_, err = f.service.RefreshAccessToken(ctx, "not.a.jwt")
		require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)

		_, err = f.service.RefreshAccessToken(ctx, result.AccessToken)
		require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
	})

	t.Run("unknown session", func(t *testing.T) {
		f := setupTestFixture(t)
		user := f.createUser(t, testUserEmail, testUserPassword, "")

		forged, err := f.codec.SignRefresh(user.ID, uuid.New().String())
		require.NoError(t, err)
		_, err = f.service.RefreshAccessToken(ctx, forged)
		require.ErrorIs(t, err, apperrors.ErrSessionExpired)
	})

	t.Run("session owned by someone else", func(t *testing.T) {
		f := setupTestFixture(t)
		f.createUser(t, testUserEmail, testUserPassword, "")
		result := f.login(t, testDeviceID)
		s := f.sessionFor(t, result.RefreshToken)

		forged, err := f.codec.SignRefresh(uuid.New().String(), s.ID)
		require.NoError(t, err)
		_, err = f.service.RefreshAccessToken(ctx, forged)
		require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
		require.Nil(t, f.sessionFor(t, result.RefreshToken).RevokedAt)
	})

	t.Run("expired session", func(t *testing.T) {
		f := setupTestFixture(t, auth.WithSessionTTL(time.Hour))
		f.createUser(t, testUserEmail, testUserPassword, "")
		result := f.login(t, testDeviceID)

		f.clock.Advance(2 * time.Hour)
		_, err := f.service.RefreshAccessToken(ctx, result.RefreshToken)
		require.ErrorIs(t, err, apperrors.ErrSessionExpired)
	})

	t.Run("inactive user", func(t *testing.T) {
		f := setupTestFixture(t)
		user := f.createUser(t, testUserEmail, testUserPassword, "")
		result := f.login(t, testDeviceID)
		require.NoError(t, f.userRepo.SetActive(ctx, user.ID, false))

		_, err := f.service.RefreshAccessToken(ctx, result.RefreshToken)
		require.ErrorIs(t, err, apperrors.ErrUserInactive)
	})

	t.Run("deleted user", func(t *testing.T) {
		f := setupTestFixture(t)
		user := f.createUser(t, testUserEmail, testUserPassword, "")
		result := f.login(t, testDeviceID)
		require.NoError(t, f.userRepo.Delete(ctx, user.ID))

		_, err := f.service.RefreshAccessToken(ctx, result.RefreshToken)
		require.ErrorIs(t, err, apperrors.ErrUserNotFound)
	})
}

func TestRefreshAccessToken_ConcurrentReuse(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.createUser(t, testUserEmail, testUserPassword, "")
	result := f.login(t, testDeviceID)

	const workers = 8
	type outcome struct {
		pair *auth.TokenPair
		err  error
	}
	outcomes := make(chan outcome, workers)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			pair, err := f.service.RefreshAccessToken(ctx, result.RefreshToken)
			outcomes <- outcome{pair: pair, err: err}
		}()
	}
	close(start)
	wg.Wait()
	close(outcomes)

	var winners []*auth.TokenPair
	for o := range outcomes {
		if o.err == nil {
			winners = append(winners, o.pair)
			continue
		}
		reused := apperrors.Is(o.err, apperrors.ErrRefreshTokenReused)
		expired := apperrors.Is(o.err, apperrors.ErrSessionExpired)
		require.True(t, reused || expired, "unexpected error: %v", o.err)
	}
	require.Len(t, winners, 1)

	// Every loser either revoked the session or saw it revoked.
	require.NotNil(t, f.sessionFor(t, result.RefreshToken).RevokedAt)
	_, err := f.service.RefreshAccessToken(ctx, winners[0].RefreshToken)
	require.ErrorIs(t, err, apperrors.ErrSessionExpired)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.createUser(t, testUserEmail, testUserPassword, "")
	result := f.login(t, testDeviceID)

	f.service.Logout(ctx, result.RefreshToken)
	revokedAt := f.sessionFor(t, result.RefreshToken).RevokedAt
	require.NotNil(t, revokedAt)

	f.clock.Advance(time.Minute)
	f.service.Logout(ctx, result.RefreshToken)
	f.service.Logout(ctx, "")
	f.service.Logout(ctx, "garbage")
	require.True(t, revokedAt.Equal(*f.sessionFor(t, result.RefreshToken).RevokedAt))

	_, err := f.service.RefreshAccessToken(ctx, result.RefreshToken)
	require.ErrorIs(t, err, apperrors.ErrSessionExpired)
	require.Equal(t, float64(1), f.event(metrics.EventLogout))
}

func TestListSessions(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	user := f.createUser(t, testUserEmail, testUserPassword, "")

	laptop := f.login(t, "laptop")
	f.clock.Advance(time.Minute)
	phone := f.login(t, "phone")
	f.clock.Advance(time.Minute)
	tablet := f.login(t, "tablet")
	f.clock.Advance(time.Minute)

	// Using the laptop moves it to the front.
	_, err := f.service.RefreshAccessToken(ctx, laptop.RefreshToken)
	require.NoError(t, err)
	f.service.Logout(ctx, tablet.RefreshToken)

	views, err := f.service.ListSessions(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.Equal(t, "laptop", views[0].DeviceID)
	require.Equal(t, f.sessionFor(t, phone.RefreshToken).ID, views[1].ID)

	empty, err := f.service.ListSessions(ctx, uuid.New().String())
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestRevokeSessionByID(t *testing.T) {
	ctx := context.Background()

	t.Run("revoke is idempotent", func(t *testing.T) {
		f := setupTestFixture(t)
		user := f.createUser(t, testUserEmail, testUserPassword, "")
		result := f.login(t, testDeviceID)
		id := f.sessionFor(t, result.RefreshToken).ID

		require.NoError(t, f.service.RevokeSessionByID(ctx, user.ID, id))
		first := f.sessionFor(t, result.RefreshToken).RevokedAt
		require.NotNil(t, first)

		require.Equal(t, 1.0, f.event(metrics.EventSessionRevoked))

		f.clock.Advance(time.Minute)
		require.NoError(t, f.service.RevokeSessionByID(ctx, user.ID, id))
		require.True(t, first.Equal(*f.sessionFor(t, result.RefreshToken).RevokedAt))
		require.Equal(t, 1.0, f.event(metrics.EventSessionRevoked), "a repeated revoke is not counted")
	})

	t.Run("other users cannot revoke", func(t *testing.T) {
		f := setupTestFixture(t)
		f.createUser(t, testUserEmail, testUserPassword, "")
		result := f.login(t, testDeviceID)
		id := f.sessionFor(t, result.RefreshToken).ID

		err := f.service.RevokeSessionByID(ctx, uuid.New().String(), id)
		require.ErrorIs(t, err, apperrors.ErrSessionNotFound)
		require.Nil(t, f.sessionFor(t, result.RefreshToken).RevokedAt)

		err = f.service.RevokeSessionByID(ctx, uuid.New().String(), "no-such-session")
		require.ErrorIs(t, err, apperrors.ErrSessionNotFound)
	})
}

func TestRevokeAllSessions(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	user := f.createUser(t, testUserEmail, testUserPassword, "")
	other := f.createUser(t, "other@example.com", testUserPassword, "")

	a := f.login(t, "a")
	b := f.login(t, "b")
	otherResult, err := f.service.Login(ctx, auth.LoginParameters{Email: other.Email, Password: testUserPassword, DeviceID: "a"})
	require.NoError(t, err)

	require.NoError(t, f.service.RevokeAllSessions(ctx, user.ID))

	for _, pair := range []*auth.AuthResult{a, b} {
		_, err := f.service.RefreshAccessToken(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, apperrors.ErrSessionExpired)
	}
	_, err = f.service.RefreshAccessToken(ctx, otherResult.RefreshToken)
	require.NoError(t, err)
}

func TestEndToEnd(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)

	// Register opens the first session.
	registered, err := f.service.Register(ctx, auth.RegisterParameters{Email: "a@x.com", Password: "secret1", DeviceID: "d1"})
	require.NoError(t, err)
	accountID := registered.User.ID
	firstSession := f.sessionFor(t, registered.RefreshToken)
	require.Nil(t, firstSession.RevokedAt)

	// Logging in again on the same device evicts it.
	f.clock.Advance(time.Second)
	loggedIn, err := f.service.Login(ctx, auth.LoginParameters{Email: "a@x.com", Password: "secret1", DeviceID: "d1"})
	require.NoError(t, err)
	require.NotNil(t, f.sessionFor(t, registered.RefreshToken).RevokedAt)
	loginSession := f.sessionFor(t, loggedIn.RefreshToken)
	require.NotEqual(t, firstSession.ID, loginSession.ID)

	// Replaying a rotated token kills the session.
	f.clock.Advance(time.Second)
	rotated, err := f.service.RefreshAccessToken(ctx, loggedIn.RefreshToken)
	require.NoError(t, err)
	_, err = f.service.RefreshAccessToken(ctx, loggedIn.RefreshToken)
	require.ErrorIs(t, err, apperrors.ErrRefreshTokenReused)

	views, err := f.service.ListSessions(ctx, accountID)
	require.NoError(t, err)
	for _, v := range views {
		require.NotEqual(t, loginSession.ID, v.ID)
	}

	// Revoke-all closes anything that was still open.
	other, err := f.service.Login(ctx, auth.LoginParameters{Email: "a@x.com", Password: "secret1", DeviceID: "d2"})
	require.NoError(t, err)
	require.NoError(t, f.service.RevokeAllSessions(ctx, accountID))
	for _, raw := range []string{rotated.RefreshToken, other.RefreshToken} {
		_, err := f.service.RefreshAccessToken(ctx, raw)
		require.ErrorIs(t, err, apperrors.ErrSessionExpired)
	}
}
