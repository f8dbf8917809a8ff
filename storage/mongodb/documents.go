package mongodb

import (
	"time"

	"github.com/jrsteele09/go-session-server/sessions"
	"github.com/jrsteele09/go-session-server/users"
)

type userDocument struct {
	ID           string       `bson:"_id"`
	Email        string       `bson:"email"`
	Phone        string       `bson:"phone"`
	PasswordHash string       `bson:"passwordHash"`
	FirstName    string       `bson:"firstName"`
	LastName     string       `bson:"lastName"`
	DateOfBirth  *time.Time   `bson:"dateOfBirth"`
	Role         string       `bson:"role"`
	IsActive     bool         `bson:"isActive"`
	Avatar       users.Avatar `bson:"avatar"`
	Stats        users.Stats  `bson:"stats"`
	CreatedAt    time.Time    `bson:"createdAt"`
	UpdatedAt    time.Time    `bson:"updatedAt"`
}

func toUserDocument(u *users.User) userDocument {
	return userDocument{
		ID:           u.ID,
		Email:        u.Email,
		Phone:        u.Phone,
		PasswordHash: u.PasswordHash,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		DateOfBirth:  u.DateOfBirth,
		Role:         string(u.Role),
		IsActive:     u.IsActive,
		Avatar:       u.Avatar,
		Stats:        u.Stats,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (d userDocument) toUser() *users.User {
	return &users.User{
		ID:           d.ID,
		Email:        d.Email,
		Phone:        d.Phone,
		PasswordHash: d.PasswordHash,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		DateOfBirth:  d.DateOfBirth,
		Role:         users.RoleType(d.Role),
		IsActive:     d.IsActive,
		Avatar:       d.Avatar,
		Stats:        d.Stats,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// sessionDocument keeps revokedAt as an explicit null while active, so {revokedAt: null}
// filters match it.
type sessionDocument struct {
	ID               string     `bson:"_id"`
	UserID           string     `bson:"userId"`
	RefreshTokenHash string     `bson:"refreshTokenHash"`
	DeviceID         string     `bson:"deviceId"`
	UserAgent        string     `bson:"userAgent"`
	IP               string     `bson:"ip"`
	ExpiresAt        time.Time  `bson:"expiresAt"`
	RevokedAt        *time.Time `bson:"revokedAt"`
	LastUsedAt       time.Time  `bson:"lastUsedAt"`
	CreatedAt        time.Time  `bson:"createdAt"`
	UpdatedAt        time.Time  `bson:"updatedAt"`
}

func toSessionDocument(s *sessions.Session) sessionDocument {
	return sessionDocument{
		ID:               s.ID,
		UserID:           s.UserID,
		RefreshTokenHash: s.RefreshTokenHash,
		DeviceID:         s.DeviceID,
		UserAgent:        s.UserAgent,
		IP:               s.IP,
		ExpiresAt:        s.ExpiresAt,
		RevokedAt:        s.RevokedAt,
		LastUsedAt:       s.LastUsedAt,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

func (d sessionDocument) toSession() *sessions.Session {
	return &sessions.Session{
		ID:               d.ID,
		UserID:           d.UserID,
		RefreshTokenHash: d.RefreshTokenHash,
		DeviceID:         d.DeviceID,
		UserAgent:        d.UserAgent,
		IP:               d.IP,
		ExpiresAt:        d.ExpiresAt,
		RevokedAt:        d.RevokedAt,
		LastUsedAt:       d.LastUsedAt,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}
