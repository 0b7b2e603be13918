package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"financeflow/internal/codec"
	"financeflow/internal/core"
	"financeflow/internal/log"
	"financeflow/internal/services"
	"financeflow/internal/store"
)

// maxBodyBytes caps JSON request bodies other than imports.
const maxBodyBytes = 64 << 10

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case services.IsValidation(err), errors.Is(err, store.ErrInvalidSnapshot):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, codec.ErrMalformedImport), errors.Is(err, codec.ErrNothingImported):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrImportInProgress):
		return http.StatusConflict
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}

	var ve *services.ValidationError
	if errors.As(err, &ve) {
		resp.Error = ve.Reason
		resp.Field = ve.Field
	}

	logger := log.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		// Internal details stay in the log.
		logger.ErrorContext(r.Context(), "Request failed",
			log.FieldPath, r.URL.Path, log.FieldError, err)
		resp.Error = http.StatusText(status)
	} else {
		logger.DebugContext(r.Context(), "Request rejected",
			log.FieldPath, r.URL.Path, log.FieldStatusCode, status, log.FieldError, err)
	}
	writeJSON(w, status, resp)
}

// decodeJSON reads a small JSON body into v. A syntax problem is reported
// as a validation failure on the body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return &services.ValidationError{Field: "body", Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return nil
}
