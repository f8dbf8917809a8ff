package server

import (
	"net/http"

	"github.com/jrsteele09/go-session-server/auth"
	apperrors "github.com/jrsteele09/go-session-server/internal/errors"
	"github.com/jrsteele09/go-session-server/sessions"
)

type registerRequest struct {
	FirstName      string `json:"firstName"`
	FirstNameSnake string `json:"first_name"`
	LastName       string `json:"lastName"`
	LastNameSnake  string `json:"last_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Password       string `json:"password"`
	DateOfBirth    string `json:"dateOfBirth"`
	DeviceID       string `json:"deviceId"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	DeviceID string `json:"deviceId"`
}

// refreshRequest lets non-browser clients send the refresh token in the body.
type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func deviceIDOrDefault(id string) string {
	if id == "" {
		return sessions.DefaultDeviceID
	}
	return id
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// RegisterHandler creates an account and opens its first session.
func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body registerRequest
		if err := decodeJSON(r, &body); err != nil {
			s.writeError(w, r, err)
			return
		}

		params := auth.RegisterParameters{
			FirstName:   firstNonEmpty(body.FirstName, body.FirstNameSnake),
			LastName:    firstNonEmpty(body.LastName, body.LastNameSnake),
			Email:       body.Email,
			Phone:       body.Phone,
			Password:    body.Password,
			DateOfBirth: body.DateOfBirth,
			DeviceID:    deviceIDOrDefault(body.DeviceID),
			Client:      clientInfo(r),
		}
		if err := auth.ValidateRegister(params); err != nil {
			s.writeError(w, r, err)
			return
		}

		result, err := s.auth.Register(r.Context(), params)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		s.setRefreshCookie(w, result.RefreshToken)
		writeJSON(w, http.StatusCreated, map[string]any{
			"success":       true,
			"authenticated": true,
			"message":       "Registration successful",
			"user":          result.User,
			"accessToken":   result.AccessToken,
		})
	}
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body loginRequest
		if err := decodeJSON(r, &body); err != nil {
			s.writeError(w, r, err)
			return
		}

		params := auth.LoginParameters{
			Email:    body.Email,
			Password: body.Password,
			DeviceID: deviceIDOrDefault(body.DeviceID),
			Client:   clientInfo(r),
		}
		if err := auth.ValidateLogin(params); err != nil {
			s.writeError(w, r, err)
			return
		}

		result, err := s.auth.Login(r.Context(), params)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		s.setRefreshCookie(w, result.RefreshToken)
		writeJSON(w, http.StatusOK, map[string]any{
			"success":       true,
			"authenticated": true,
			"message":       "Login successful",
			"accessToken":   result.AccessToken,
		})
	}
}

// RefreshHandler rotates the refresh token and returns a new access token.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body refreshRequest
		_ = decodeJSON(r, &body)

		pair, err := s.auth.RefreshAccessToken(r.Context(), refreshTokenFrom(r, body.RefreshToken))
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		s.setRefreshCookie(w, pair.RefreshToken)
		writeJSON(w, http.StatusOK, map[string]any{
			"success":     true,
			"accessToken": pair.AccessToken,
		})
	}
}

// LogoutHandler always succeeds and always clears the cookie.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body refreshRequest
		_ = decodeJSON(r, &body)

		s.auth.Logout(r.Context(), refreshTokenFrom(r, body.RefreshToken))
		s.clearRefreshCookie(w)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) LogoutAllHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := UserIDFromContext(r.Context())
		if err := s.auth.RevokeAllSessions(r.Context(), userID); err != nil {
			s.writeError(w, r, err)
			return
		}

		s.clearRefreshCookie(w)
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Logged out from all devices",
		})
	}
}

func (s *Server) ListSessionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := UserIDFromContext(r.Context())
		views, err := s.auth.ListSessions(r.Context(), userID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":  true,
			"sessions": views,
		})
	}
}

func (s *Server) RevokeSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := UserIDFromContext(r.Context())
		sessionID := r.PathValue("sessionId")
		if sessionID == "" {
			s.writeError(w, r, apperrors.ErrSessionNotFound)
			return
		}

		if err := s.auth.RevokeSessionByID(r.Context(), userID, sessionID); err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Session revoked",
		})
	}
}
