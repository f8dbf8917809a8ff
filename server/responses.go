package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jrsteele09/go-session-server/auth"
	apperrors "github.com/jrsteele09/go-session-server/internal/errors"
	"github.com/rs/zerolog/log"
)

// errorResponse is the envelope of every failed request.
type errorResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Details any               `json:"details,omitempty"`
	Errors  []auth.FieldIssue `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// writeError maps err onto the envelope. Anything outside the taxonomy is logged and
// reported as a bare 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *auth.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, apperrors.ErrValidation.Status, errorResponse{
			Message: apperrors.ErrValidation.Message,
			Code:    string(apperrors.ErrValidation.Code),
			Errors:  verr.Issues,
		})
		return
	}

	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		userID, _ := UserIDFromContext(r.Context())
		log.Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("user_id", userID).
			Str("role", RoleFromContext(r.Context())).
			Msg("unhandled error")
		appErr = apperrors.ErrInternal
	}
	writeJSON(w, appErr.Status, errorResponse{
		Message: appErr.Message,
		Code:    string(appErr.Code),
		Details: appErr.Details,
	})
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return &auth.ValidationError{Issues: []auth.FieldIssue{{Path: "body", Message: "invalid JSON"}}}
}
