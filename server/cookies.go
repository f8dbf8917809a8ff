package server

import (
	"net/http"
)

// RefreshCookieName is the cookie that carries the refresh token.
const RefreshCookieName = "refreshToken"

func (s *Server) setRefreshCookie(w http.ResponseWriter, refreshToken string) {
	cookie := s.refreshCookie()
	cookie.Value = refreshToken
	cookie.MaxAge = int(s.config.GetRefreshCookieMaxAge().Seconds())
	http.SetCookie(w, cookie)
}

func (s *Server) clearRefreshCookie(w http.ResponseWriter) {
	cookie := s.refreshCookie()
	cookie.MaxAge = -1
	http.SetCookie(w, cookie)
}

// refreshCookie carries the attributes shared by set and clear. A browser only drops the
// cookie when the clearing attributes match the ones it was set with.
func (s *Server) refreshCookie() *http.Cookie {
	cookie := &http.Cookie{
		Name:     RefreshCookieName,
		Path:     s.config.GetRefreshCookiePath(),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if s.config.IsProduction() {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteNoneMode
	}
	return cookie
}

// refreshTokenFrom prefers the cookie and falls back to a body field for clients that do
// not keep cookies.
func refreshTokenFrom(r *http.Request, bodyToken string) string {
	if c, err := r.Cookie(RefreshCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return bodyToken
}
