package server

import (
	"net/http"

	apperrors "github.com/jrsteele09/go-session-server/internal/errors"
)

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
	if s.metrics != nil {
		s.RegisterRouteHandler("GET "+RouteMetrics, s.metrics.Handler())
	}

	// AUTH
	s.RegisterRouteFunc("POST "+RouteAuthRegister, s.RegisterHandler())
	s.RegisterRouteFunc("POST "+RouteAuthLogin, s.LoginHandler())
	s.RegisterRouteFunc("POST "+RouteAuthRefresh, s.RefreshHandler())
	s.RegisterRouteFunc("POST "+RouteAuthLogout, s.LogoutHandler())

	// AUTH - bearer protected
	s.RegisterRouteHandler("POST "+RouteAuthLogoutAll, ChainMiddleware(s.LogoutAllHandler(), s.RequireAuth()))
	s.RegisterRouteHandler("GET "+RouteAuthSessions, ChainMiddleware(s.ListSessionsHandler(), s.RequireAuth()))
	s.RegisterRouteHandler("POST "+RouteAuthRevokeSession, ChainMiddleware(s.RevokeSessionHandler(), s.RequireAuth()))

	// USERS - bearer protected
	s.RegisterRouteHandler("GET "+RouteUsersMe, ChainMiddleware(s.GetMeHandler(), s.RequireAuth()))
	s.RegisterRouteHandler("PATCH "+RouteUsersMe, ChainMiddleware(s.UpdateMeHandler(), s.RequireAuth()))
	s.RegisterRouteHandler("DELETE "+RouteUsersMe, ChainMiddleware(s.DeleteMeHandler(), s.RequireAuth()))
	s.RegisterRouteHandler("PATCH "+RouteUsersMeAvatar, ChainMiddleware(s.UpdateAvatarHandler(), s.RequireAuth()))

	s.RegisterRouteFunc("/", s.NotFoundHandler())
}

// HealthHandler answers liveness checks.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "message": "API is running"})
	}
}

func (s *Server) NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, apperrors.ErrRouteNotFound)
	}
}
