package auth

import (
	"github.com/jrsteele09/go-session-server/users"
)

// ClientInfo is request metadata recorded on a session. It is informational only and
// never used for authorization decisions.
type ClientInfo struct {
	// UserAgent is the raw User-Agent header of the request that opened the session.
	UserAgent string

	// IP is the client address, normally the first X-Forwarded-For hop.
	IP string
}

// LoginParameters are the inputs to Service.Login.
type LoginParameters struct {
	// Email is matched case-insensitively after trimming.
	Email string

	// Password is the plaintext password. It is never logged or stored.
	Password string

	// DeviceID names the device slot. A new login on the same slot revokes the previous
	// session for that slot. Required.
	DeviceID string

	Client ClientInfo
}

// RegisterParameters are the inputs to Service.Register.
type RegisterParameters struct {
	FirstName string
	LastName  string

	// Email is stored lowercased and trimmed and must be unique.
	Email string

	// Phone is optional. Whitespace is stripped and, when present, it must be unique.
	Phone string

	Password string

	// DateOfBirth is optional, "YYYY-MM-DD" or RFC 3339.
	DateOfBirth string

	DeviceID string
	Client   ClientInfo
}

// AvatarUpdate carries the avatar fields a profile update may set. A nil field is left
// unchanged; a non-nil empty string clears the field.
type AvatarUpdate struct {
	URL    *string
	Base64 *string
}

// ProfileUpdate is the allowlist of fields a user may change on their own account.
// Nil pointers are left unchanged.
type ProfileUpdate struct {
	FirstName   *string
	LastName    *string
	Phone       *string
	DateOfBirth *string // "YYYY-MM-DD"
	Avatar      *AvatarUpdate

	// CurrentPassword must match before any change is applied.
	CurrentPassword string

	// NewPassword, when set, replaces the password and revokes every session.
	NewPassword string
}

// TokenPair is a freshly minted access and refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthResult is returned by Login and Register.
type AuthResult struct {
	TokenPair
	User users.SafeView
}
