package auth

import (
	"github.com/jrsteele09/go-session-server/sessions"
	"github.com/jrsteele09/go-session-server/users"
)

// Repos holds all repository dependencies for the Service
type Repos struct {
	Users    users.UserRepo // Repository for account data
	Sessions sessions.Repo  // Repository for device sessions
}
