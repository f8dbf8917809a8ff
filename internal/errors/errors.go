package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Store level sentinels. Repositories return these (optionally wrapped) so callers can
// tell a missing record apart from an infrastructure failure.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)

// Code is the stable machine readable identifier of an AppError.
type Code string

const (
	CodeInvalidCredentials      Code = "INVALID_CREDENTIALS"
	CodeMissingDeviceID         Code = "MISSING_DEVICE_ID"
	CodeUserInactive            Code = "USER_INACTIVE"
	CodeConflict                Code = "CONFLICT"
	CodeMissingRefreshToken     Code = "MISSING_REFRESH_TOKEN"
	CodeInvalidRefreshToken     Code = "INVALID_REFRESH_TOKEN"
	CodeSessionExpired          Code = "SESSION_EXPIRED"
	CodeRefreshTokenReused      Code = "REFRESH_TOKEN_REUSED"
	CodeUserNotFound            Code = "USER_NOT_FOUND"
	CodeSessionNotFound         Code = "SESSION_NOT_FOUND"
	CodeMissingToken            Code = "MISSING_TOKEN"
	CodeInvalidToken            Code = "INVALID_TOKEN"
	CodeTokenExpired            Code = "TOKEN_EXPIRED"
	CodeCurrentPasswordRequired Code = "CURRENT_PASSWORD_REQUIRED"
	CodeWrongPassword           Code = "WRONG_PASSWORD"
	CodeMissingAvatarURL        Code = "MISSING_AVATAR_URL"
	CodeValidation              Code = "VALIDATION_ERROR"
	CodeRouteNotFound           Code = "ROUTE_NOT_FOUND"
	CodeInternal                Code = "INTERNAL_ERROR"
)

// AppError is a failure with an HTTP equivalent status, a stable code and optional
// structured details.
type AppError struct {
	Status  int
	Code    Code
	Message string
	Details any
}

func New(status int, code Code, message string) *AppError {
	return &AppError{Status: status, Code: code, Message: message}
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches on Code so that a copy carrying details still matches its sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithDetails returns a copy of e carrying details.
func (e *AppError) WithDetails(details any) *AppError {
	c := *e
	c.Details = details
	return &c
}

var (
	// Login / registration
	ErrInvalidCredentials = New(http.StatusUnauthorized, CodeInvalidCredentials, "Invalid email or password")
	ErrMissingDeviceID    = New(http.StatusBadRequest, CodeMissingDeviceID, "deviceId is required")
	ErrUserInactive       = New(http.StatusForbidden, CodeUserInactive, "User account is inactive")
	ErrConflict           = New(http.StatusConflict, CodeConflict, "Email or phone already in use")

	// Refresh
	ErrMissingRefreshToken = New(http.StatusUnauthorized, CodeMissingRefreshToken, "No refresh token")
	ErrInvalidRefreshToken = New(http.StatusUnauthorized, CodeInvalidRefreshToken, "Invalid refresh token")
	ErrSessionExpired      = New(http.StatusUnauthorized, CodeSessionExpired, "Session expired")
	ErrRefreshTokenReused  = New(http.StatusUnauthorized, CodeRefreshTokenReused, "Refresh token invalidated")
	ErrUserNotFound        = New(http.StatusUnauthorized, CodeUserNotFound, "User not found")

	// Session management
	ErrSessionNotFound = New(http.StatusNotFound, CodeSessionNotFound, "Session not found")

	// Gateway
	ErrMissingToken = New(http.StatusUnauthorized, CodeMissingToken, "Missing token")
	ErrInvalidToken = New(http.StatusUnauthorized, CodeInvalidToken, "Invalid token")
	ErrTokenExpired = New(http.StatusUnauthorized, CodeTokenExpired, "Token expired")

	// Profile
	ErrProfileNotFound         = New(http.StatusNotFound, CodeUserNotFound, "User not found")
	ErrCurrentPasswordRequired = New(http.StatusBadRequest, CodeCurrentPasswordRequired, "Current password is required")
	ErrWrongPassword           = New(http.StatusUnauthorized, CodeWrongPassword, "Wrong password")
	ErrMissingAvatarURL        = New(http.StatusBadRequest, CodeMissingAvatarURL, "avatarUrl is required")

	// Transport
	ErrValidation    = New(http.StatusBadRequest, CodeValidation, "Validation error")
	ErrRouteNotFound = New(http.StatusNotFound, CodeRouteNotFound, "Route not found")
	ErrInternal      = New(http.StatusInternalServerError, CodeInternal, "Internal Server Error")
)

// NewConflict reports which unique fields were already taken.
func NewConflict(fields ...string) *AppError {
	return ErrConflict.WithDetails(map[string][]string{"fields": fields})
}

// AsAppError unwraps err into an *AppError if it carries one.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}
