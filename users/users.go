package users

import (
	"strings"
	"time"
)

// RoleType is the coarse authorization role carried in access tokens.
type RoleType string

// RoleUser is assigned at registration. No other role is issued.
const RoleUser RoleType = "user"

// DefaultAvatarURL is assigned to every new account.
const DefaultAvatarURL = "https://i.pravatar.cc/300"

type Avatar struct {
	URL    string `json:"url" bson:"url"`
	Base64 string `json:"base64" bson:"base64"`
}

// Stats are usage counters owned by the wider application.
type Stats struct {
	Giving     int `json:"giving" bson:"giving"`
	Exchanging int `json:"exchanging" bson:"exchanging"`
	Exchanged  int `json:"exchanged" bson:"exchanged"`
	Given      int `json:"given" bson:"given"`
}

type User struct {
	ID           string     `json:"id,omitempty"`          // Unique identifier for the user
	Email        string     `json:"email,omitempty"`       // Lowercased, trimmed, unique
	Phone        string     `json:"phone,omitempty"`       // Whitespace stripped, unique when set
	PasswordHash string     `json:"-"`                     // Hashed password - never serialize
	FirstName    string     `json:"first_name,omitempty"`  // First name of the user
	LastName     string     `json:"last_name,omitempty"`   // Last name of the user
	DateOfBirth  *time.Time `json:"date_of_birth,omitempty"`
	Role         RoleType   `json:"role,omitempty"`
	IsActive     bool       `json:"is_active"`
	Avatar       Avatar     `json:"avatar"`
	Stats        Stats      `json:"stats"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// New returns an account with the registration defaults applied.
func New(email, passwordHash string, now time.Time) *User {
	return &User{
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		Role:         RoleUser,
		IsActive:     true,
		Avatar:       Avatar{URL: DefaultAvatarURL},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// SafeView is the client facing projection of a User. It never carries the password hash.
type SafeView struct {
	ID          string     `json:"_id"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	DateOfBirth *time.Time `json:"dateOfBirth"`
	Role        RoleType   `json:"role"`
	IsActive    bool       `json:"isActive"`
	Avatar      Avatar     `json:"avatar"`
	Stats       Stats      `json:"stats"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (u *User) SafeView() SafeView {
	return SafeView{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		Phone:       u.Phone,
		DateOfBirth: u.DateOfBirth,
		Role:        u.Role,
		IsActive:    u.IsActive,
		Avatar:      u.Avatar,
		Stats:       u.Stats,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone removes every whitespace rune, so "+44 7700 900123" and
// "+447700900123" collide.
func NormalizePhone(phone string) string {
	return strings.Join(strings.Fields(phone), "")
}
