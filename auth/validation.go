package auth

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/jrsteele09/go-session-server/internal/errors"
	"github.com/jrsteele09/go-session-server/users"
)

// DateOfBirthLayout is the accepted wire format for dates of birth.
const DateOfBirthLayout = "2006-01-02"

// FieldIssue is one failed rule on one request field.
type FieldIssue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError collects every failed rule of a request body. It matches
// errors.ErrValidation under errors.Is.
type ValidationError struct {
	Issues []FieldIssue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.Path+": "+issue.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return apperrors.ErrValidation.Is(target)
}

type checker struct {
	issues []FieldIssue
}

func (c *checker) add(path, format string, args ...any) {
	c.issues = append(c.issues, FieldIssue{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (c *checker) length(path, value string, lo, hi int) {
	n := utf8.RuneCountInString(value)
	switch {
	case n < lo:
		c.add(path, "must be at least %d characters", lo)
	case hi > 0 && n > hi:
		c.add(path, "must be at most %d characters", hi)
	}
}

// password applies the length rule plus the bcrypt input limit, which counts bytes.
func (c *checker) password(path, value string, lo, hi int) {
	c.length(path, value, lo, hi)
	if len(value) > users.MaxPasswordBytes && utf8.RuneCountInString(value) <= hi {
		c.add(path, "must be at most %d bytes", users.MaxPasswordBytes)
	}
}

func (c *checker) presentLength(path, value string, lo, hi int) {
	if value != "" {
		c.length(path, value, lo, hi)
	}
}

func (c *checker) optionalLength(path string, value *string, lo, hi int) {
	if value != nil {
		c.length(path, *value, lo, hi)
	}
}

func (c *checker) email(path, value string) {
	addr, err := mail.ParseAddress(strings.TrimSpace(value))
	if err != nil || addr.Address != strings.TrimSpace(value) {
		c.add(path, "invalid email")
	}
}

func (c *checker) date(path, value string) {
	if _, err := parseDate(value); err != nil {
		c.add(path, "must be a date in YYYY-MM-DD format")
	}
}

// parseDate accepts a plain date, read as UTC midnight, or a full RFC 3339 timestamp.
func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	t, err := time.ParseInLocation(DateOfBirthLayout, value, time.UTC)
	if err == nil {
		return t, nil
	}
	t, rfcErr := time.Parse(time.RFC3339, value)
	if rfcErr != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func (c *checker) err() error {
	if len(c.issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: c.issues}
}

// ValidateRegister requires email and password. Names, phone and date of birth are
// optional and only checked when present.
func ValidateRegister(p RegisterParameters) error {
	var c checker
	c.presentLength("firstName", strings.TrimSpace(p.FirstName), 2, 30)
	c.presentLength("lastName", strings.TrimSpace(p.LastName), 2, 30)
	c.presentLength("phone", strings.TrimSpace(p.Phone), 8, 20)
	c.email("email", p.Email)
	c.password("password", p.Password, 6, 100)
	if strings.TrimSpace(p.DateOfBirth) != "" {
		c.date("dateOfBirth", p.DateOfBirth)
	}
	return c.err()
}

func ValidateLogin(p LoginParameters) error {
	var c checker
	c.email("email", p.Email)
	c.length("password", p.Password, 1, 0)
	return c.err()
}

// ValidateProfileUpdate checks only the fields that are present. The current password is
// enforced by the service, not here, so that its absence maps to its own error code.
func ValidateProfileUpdate(p ProfileUpdate) error {
	var c checker
	c.optionalLength("firstName", p.FirstName, 2, 30)
	c.optionalLength("lastName", p.LastName, 2, 30)
	c.optionalLength("phone", p.Phone, 6, 30)
	if p.DateOfBirth != nil {
		c.date("dateOfBirth", *p.DateOfBirth)
	}
	if p.CurrentPassword != "" {
		c.length("currentPassword", p.CurrentPassword, 6, 0)
	}
	if p.NewPassword != "" {
		c.password("newPassword", p.NewPassword, 6, 100)
	}
	return c.err()
}

// ValidateDeleteAccount checks a supplied password's shape. A missing one is reported by
// the service as CurrentPasswordRequired.
func ValidateDeleteAccount(currentPassword string) error {
	var c checker
	c.presentLength("currentPassword", currentPassword, 6, 0)
	return c.err()
}

// hashPassword maps the bcrypt input limit onto a field issue at path.
func hashPassword(path, password string) (string, error) {
	hash, err := users.HashPassword(password)
	if errors.Is(err, users.ErrPasswordTooLong) {
		return "", &ValidationError{Issues: []FieldIssue{{Path: path, Message: fmt.Sprintf("must be at most %d bytes", users.MaxPasswordBytes)}}}
	}
	return hash, err
}

// ParseDateOfBirth parses a YYYY-MM-DD date as UTC midnight. An empty string yields nil.
func ParseDateOfBirth(value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, err := parseDate(value)
	if err != nil {
		return nil, &ValidationError{Issues: []FieldIssue{{Path: "dateOfBirth", Message: "must be a date in YYYY-MM-DD format"}}}
	}
	return &t, nil
}
