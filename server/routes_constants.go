package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteHealth  = "/{$}"
	RouteMetrics = "/metrics"

	// Auth Routes - Session lifecycle
	RouteAuthRegister  = "/api/auth/register"
	RouteAuthLogin     = "/api/auth/login"
	RouteAuthRefresh   = "/api/auth/refresh"
	RouteAuthLogout    = "/api/auth/logout"
	RouteAuthLogoutAll = "/api/auth/logout-all"

	// Auth Routes - Session management
	RouteAuthSessions      = "/api/auth/sessions"
	RouteAuthRevokeSession = "/api/auth/sessions/{sessionId}/revoke"

	// User Routes
	RouteUsersMe       = "/api/users/me"
	RouteUsersMeAvatar = "/api/users/me/avatar"
)
