package token_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-session-server/token"
	"github.com/stretchr/testify/require"
)

const (
	accessSecret  = "access-secret"
	refreshSecret = "refresh-secret"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func newCodec(clock *testClock) *token.Codec {
	return token.NewHMACCodec(accessSecret, refreshSecret,
		token.WithTokenExpiry(15*time.Minute, 365*24*time.Hour),
		token.WithNowFunc(clock.Now),
	)
}

func TestAccessToken_RoundTrip(t *testing.T) {
	clock := &testClock{now: time.Now()}
	codec := newCodec(clock)

	raw, err := codec.SignAccess("user-1", "user")
	require.NoError(t, err)

	claims, err := codec.VerifyAccess(raw)
	require.NoError(t, err)
	require.Equal(t, token.AccessClaims{UserID: "user-1", Role: "user"}, claims)
}

func TestAccessToken_Expires(t *testing.T) {
	clock := &testClock{now: time.Now()}
	codec := newCodec(clock)

	raw, err := codec.SignAccess("user-1", "user")
	require.NoError(t, err)

	clock.now = clock.now.Add(16 * time.Minute)
	_, err = codec.VerifyAccess(raw)
	require.ErrorIs(t, err, token.ErrTokenExpired)
}

func TestRefreshToken_RoundTrip(t *testing.T) {
	clock := &testClock{now: time.Now()}
	codec := newCodec(clock)

	raw, err := codec.SignRefresh("user-1", "session-1")
	require.NoError(t, err)

	claims, err := codec.VerifyRefresh(raw)
	require.NoError(t, err)
	require.Equal(t, token.RefreshClaims{UserID: "user-1", SessionID: "session-1"}, claims)

	clock.now = clock.now.Add(364 * 24 * time.Hour)
	_, err = codec.VerifyRefresh(raw)
	require.NoError(t, err)

	clock.now = clock.now.Add(2 * 24 * time.Hour)
	_, err = codec.VerifyRefresh(raw)
	require.ErrorIs(t, err, token.ErrTokenExpired)
}

func TestRefreshTokens_AreUnique(t *testing.T) {
	clock := &testClock{now: time.Now()}
	codec := newCodec(clock)

	a, err := codec.SignRefresh("user-1", "session-1")
	require.NoError(t, err)
	b, err := codec.SignRefresh("user-1", "session-1")
	require.NoError(t, err)

	require.NotEqual(t, a, b)
	require.NotEqual(t, token.Fingerprint(a), token.Fingerprint(b))
}

func TestTokenKinds_AreNotInterchangeable(t *testing.T) {
	codec := newCodec(&testClock{now: time.Now()})

	access, err := codec.SignAccess("user-1", "user")
	require.NoError(t, err)
	refresh, err := codec.SignRefresh("user-1", "session-1")
	require.NoError(t, err)

	_, err = codec.VerifyRefresh(access)
	require.ErrorIs(t, err, token.ErrInvalidToken)
	_, err = codec.VerifyAccess(refresh)
	require.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestVerify_Rejects(t *testing.T) {
	codec := newCodec(&testClock{now: time.Now()})

	t.Run("empty", func(t *testing.T) {
		_, err := codec.VerifyAccess("")
		require.ErrorIs(t, err, token.ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := codec.VerifyAccess("not.a.jwt")
		require.ErrorIs(t, err, token.ErrInvalidToken)
	})

	t.Run("tampered signature", func(t *testing.T) {
		raw, err := codec.SignAccess("user-1", "user")
		require.NoError(t, err)
		_, err = codec.VerifyAccess(raw[:len(raw)-2] + "xx")
		require.ErrorIs(t, err, token.ErrInvalidToken)
	})

	t.Run("alg none", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"id":  "user-1",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = codec.VerifyAccess(raw)
		require.ErrorIs(t, err, token.ErrInvalidToken)
	})

	t.Run("missing exp", func(t *testing.T) {
		raw, err := token.NewHMACSigner(accessSecret).Sign(jwt.MapClaims{"id": "user-1"})
		require.NoError(t, err)
		_, err = codec.VerifyAccess(raw)
		require.ErrorIs(t, err, token.ErrInvalidToken)
		require.False(t, errors.Is(err, token.ErrTokenExpired))
	})
}

func TestHMACsigner_RejectsOtherMethods(t *testing.T) {
	signer := token.NewHMACSigner("secret")
	_, err := signer.GetVerificationKey(&jwt.Token{Method: jwt.SigningMethodRS256, Header: map[string]any{"alg": "RS256"}})
	require.ErrorContains(t, err, "unexpected signing method")
}

func TestFingerprint(t *testing.T) {
	// sha256("abc")
	require.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", token.Fingerprint("abc"))
	require.True(t, token.FingerprintMatches("abc", token.Fingerprint("abc")))
	require.False(t, token.FingerprintMatches("abd", token.Fingerprint("abc")))
	require.False(t, token.FingerprintMatches("abc", ""))
}
