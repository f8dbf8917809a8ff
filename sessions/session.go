package sessions

import "time"

// DefaultDeviceID is used when a client does not identify its device.
const DefaultDeviceID = "default"

// Session binds one refresh token lineage to a user and a device.
type Session struct {
	ID               string     // Unique session identifier (UUID), embedded in refresh tokens as "sid"
	UserID           string     // Owning account
	RefreshTokenHash string     // Fingerprint of the single currently valid refresh token
	DeviceID         string     // (UserID, DeviceID) is the device slot
	UserAgent        string     // Metadata only
	IP               string     // Metadata only
	ExpiresAt        time.Time  // Absolute expiry, fixed at creation
	RevokedAt        *time.Time // nil while not revoked; once set it is never cleared
	LastUsedAt       time.Time  // Bumped on every rotation
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsActive reports whether the session can still be refreshed at now.
func (s *Session) IsActive(now time.Time) bool {
	return s.RevokedAt == nil && s.ExpiresAt.After(now)
}

// View is the client facing projection of a session.
type View struct {
	ID         string    `json:"id"`
	DeviceID   string    `json:"deviceId"`
	IP         string    `json:"ip"`
	UserAgent  string    `json:"userAgent"`
	CreatedAt  time.Time `json:"createdAt"`
	LastUsedAt time.Time `json:"lastUsedAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

func (s *Session) View() View {
	return View{
		ID:         s.ID,
		DeviceID:   s.DeviceID,
		IP:         s.IP,
		UserAgent:  s.UserAgent,
		CreatedAt:  s.CreatedAt,
		LastUsedAt: s.LastUsedAt,
		ExpiresAt:  s.ExpiresAt,
	}
}
