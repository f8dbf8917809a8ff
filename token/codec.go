package token

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 365 * 24 * time.Hour
)

// AccessClaims is the payload of an access token.
type AccessClaims struct {
	UserID string
	Role   string
}

// RefreshClaims is the payload of a refresh token.
type RefreshClaims struct {
	UserID    string
	SessionID string
}

// Codec mints and verifies the two bearer token kinds. Access and refresh tokens are
// signed by different signers, so neither verifies as the other.
type Codec struct {
	accessSigner  Signer
	refreshSigner Signer
	accessTTL     time.Duration
	refreshTTL    time.Duration
	nowFunc       func() time.Time
}

type CodecOption func(*Codec)

func WithTokenExpiry(accessTTL, refreshTTL time.Duration) CodecOption {
	return func(c *Codec) {
		c.accessTTL = accessTTL
		c.refreshTTL = refreshTTL
	}
}

func WithNowFunc(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.nowFunc = now
	}
}

func NewCodec(accessSigner, refreshSigner Signer, options ...CodecOption) *Codec {
	c := &Codec{
		accessSigner:  accessSigner,
		refreshSigner: refreshSigner,
	}
	for _, opt := range options {
		opt(c)
	}
	if c.accessTTL <= 0 {
		c.accessTTL = DefaultAccessTTL
	}
	if c.refreshTTL <= 0 {
		c.refreshTTL = DefaultRefreshTTL
	}
	if c.nowFunc == nil {
		c.nowFunc = time.Now
	}
	return c
}

// NewHMACCodec is the common construction from the two configured secrets.
func NewHMACCodec(accessSecret, refreshSecret string, options ...CodecOption) *Codec {
	return NewCodec(NewHMACSigner(accessSecret), NewHMACSigner(refreshSecret), options...)
}

func (c *Codec) AccessTTL() time.Duration {
	return c.accessTTL
}

func (c *Codec) SignAccess(userID, role string) (string, error) {
	now := c.nowFunc()
	return c.accessSigner.Sign(jwt.MapClaims{
		"id":   userID,
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(c.accessTTL).Unix(),
	})
}

// SignRefresh mints a refresh token bound to sessionID. The jti makes every token unique,
// so two rotations inside the same second still produce distinct fingerprints.
func (c *Codec) SignRefresh(userID, sessionID string) (string, error) {
	now := c.nowFunc()
	return c.refreshSigner.Sign(jwt.MapClaims{
		"id":  userID,
		"sid": sessionID,
		"iat": now.Unix(),
		"exp": now.Add(c.refreshTTL).Unix(),
		"jti": uuid.New().String(),
	})
}

func (c *Codec) VerifyAccess(raw string) (AccessClaims, error) {
	claims, err := c.verify(raw, c.accessSigner)
	if err != nil {
		return AccessClaims{}, err
	}
	return AccessClaims{
		UserID: stringClaim(claims, "id"),
		Role:   stringClaim(claims, "role"),
	}, nil
}

func (c *Codec) VerifyRefresh(raw string) (RefreshClaims, error) {
	claims, err := c.verify(raw, c.refreshSigner)
	if err != nil {
		return RefreshClaims{}, err
	}
	return RefreshClaims{
		UserID:    stringClaim(claims, "id"),
		SessionID: stringClaim(claims, "sid"),
	}, nil
}

func (c *Codec) verify(raw string, signer Signer) (jwt.MapClaims, error) {
	if raw == "" {
		return nil, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(raw, jwt.MapClaims{}, signer.GetVerificationKey,
		jwt.WithValidMethods([]string{signer.GetSigningMethod().Alg()}),
		jwt.WithTimeFunc(c.nowFunc),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Fingerprint is the lowercase hex SHA-256 of a token. Only fingerprints are persisted.
func Fingerprint(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// FingerprintMatches compares a presented token against a stored fingerprint in constant time.
func FingerprintMatches(raw, stored string) bool {
	presented := Fingerprint(raw)
	return subtle.ConstantTimeCompare([]byte(presented), []byte(stored)) == 1
}

func stringClaim(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return v
}
