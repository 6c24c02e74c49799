package response

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/baechuer/gig-tickets/internal/domain"
	"github.com/baechuer/gig-tickets/internal/logger"
)

const (
	msgInvalidRequest = "Invalid request"
	msgInvalidJSON    = "Invalid content, expected valid JSON"
	msgGigNotFound    = "Gig not found"
	msgInternal       = "Internal server error"
)

// ErrorBody is the client error shape: {"error": "...", "errors": [...]}.
type ErrorBody struct {
	Error  string              `json:"error"`
	Errors []domain.FieldError `json:"errors,omitempty"`
}

// InternalBody is returned for every 5xx. Details stay in the logs.
type InternalBody struct {
	Message string `json:"message"`
}

// JSON writes v with status and Content-Type application/json.
func JSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

// Err maps an AppError to its status and body. Anything else is a 500.
func Err(w http.ResponseWriter, r *http.Request, err error) {
	var ae *domain.AppError
	if errors.As(err, &ae) {
		switch ae.Code {
		case domain.CodeMalformedPayload:
			JSON(w, r, http.StatusBadRequest, ErrorBody{Error: msgInvalidJSON})
			return
		case domain.CodeValidation:
			JSON(w, r, http.StatusBadRequest, ErrorBody{Error: msgInvalidRequest, Errors: ae.Fields})
			return
		case domain.CodeGigNotFound:
			JSON(w, r, http.StatusNotFound, ErrorBody{Error: msgGigNotFound})
			return
		}
	}

	logger.WithCtx(r.Context()).Error().Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("unhandled error")
	JSON(w, r, http.StatusInternalServerError, InternalBody{Message: msgInternal})
}
