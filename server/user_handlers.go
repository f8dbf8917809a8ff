package server

import (
	"net/http"

	"github.com/jrsteele09/go-session-server/auth"
)

type updateMeRequest struct {
	FirstName   *string `json:"firstName"`
	LastName    *string `json:"lastName"`
	Phone       *string `json:"phone"`
	DateOfBirth *string `json:"dateOfBirth"`
	Avatar      *struct {
		URL    *string `json:"url"`
		Base64 *string `json:"base64"`
	} `json:"avatar"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type updateAvatarRequest struct {
	AvatarURL string `json:"avatarUrl"`
}

type deleteMeRequest struct {
	CurrentPassword string `json:"currentPassword"`
}

func (s *Server) GetMeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := UserIDFromContext(r.Context())
		view, err := s.auth.GetProfile(r.Context(), userID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": view})
	}
}

// UpdateMeHandler applies a profile update. Fields outside the allowlist are ignored by
// the decoder.
func (s *Server) UpdateMeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body updateMeRequest
		if err := decodeJSON(r, &body); err != nil {
			s.writeError(w, r, err)
			return
		}

		update := auth.ProfileUpdate{
			FirstName:       body.FirstName,
			LastName:        body.LastName,
			Phone:           body.Phone,
			DateOfBirth:     body.DateOfBirth,
			CurrentPassword: body.CurrentPassword,
			NewPassword:     body.NewPassword,
		}
		if body.Avatar != nil {
			update.Avatar = &auth.AvatarUpdate{URL: body.Avatar.URL, Base64: body.Avatar.Base64}
		}
		if err := auth.ValidateProfileUpdate(update); err != nil {
			s.writeError(w, r, err)
			return
		}

		userID, _ := UserIDFromContext(r.Context())
		view, err := s.auth.UpdateProfile(r.Context(), userID, update)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if update.NewPassword != "" {
			s.clearRefreshCookie(w)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Profile updated",
			"user":    view,
		})
	}
}

func (s *Server) UpdateAvatarHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body updateAvatarRequest
		if err := decodeJSON(r, &body); err != nil {
			s.writeError(w, r, err)
			return
		}

		userID, _ := UserIDFromContext(r.Context())
		view, err := s.auth.UpdateAvatar(r.Context(), userID, body.AvatarURL)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": view})
	}
}

func (s *Server) DeleteMeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body deleteMeRequest
		if err := decodeJSON(r, &body); err != nil {
			s.writeError(w, r, err)
			return
		}
		if err := auth.ValidateDeleteAccount(body.CurrentPassword); err != nil {
			s.writeError(w, r, err)
			return
		}

		userID, _ := UserIDFromContext(r.Context())
		if err := s.auth.DeleteAccount(r.Context(), userID, body.CurrentPassword); err != nil {
			s.writeError(w, r, err)
			return
		}

		s.clearRefreshCookie(w)
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Account deleted",
		})
	}
}
