package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/ckcelina/my-wishlist-sub002/pkg/errors"
	"github.com/ckcelina/my-wishlist-sub002/pkg/logger"
	"github.com/ckcelina/my-wishlist-sub002/pkg/validator"
)

// ErrorBody is the JSON shape of every error response: {"error": {...}}.
type ErrorBody struct {
	Error ErrorResponse `json:"error"`
}

// ErrorResponse describes a failed request.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err to a status and writes an ErrorBody. Non-AppError
// values and AppErrors with status 500 are logged through the request
// logger (or fallback when none is mounted) and never echoed to the client.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	l := logger.FromContext(r.Context())
	if l == slog.Default() && fallback != nil {
		l = fallback
	}
	requestID := logger.CorrelationIDFromContext(r.Context())

	resp := ErrorResponse{
		Code:      "INTERNAL_ERROR",
		Message:   "an internal error occurred",
		RequestID: requestID,
	}
	status := apperrors.HTTPStatus(err)

	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		resp.Code = appErr.Code
		resp.Message = appErr.Message
	case errors.Is(err, apperrors.ErrNotFound):
		resp.Code, resp.Message = "NOT_FOUND", "resource not found"
	case errors.Is(err, apperrors.ErrInvalidInput):
		resp.Code, resp.Message = "INVALID_INPUT", err.Error()
	}

	if status >= http.StatusInternalServerError {
		l.ErrorContext(r.Context(), "request failed",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("user_id", logger.UserIDFromContext(r.Context())),
		)
	}

	WriteJSON(w, status, ErrorBody{Error: resp})
}

// WriteValidationError writes a 400 for a decode or validation failure,
// listing per-field messages when err is a *validator.ValidationError.
func WriteValidationError(w http.ResponseWriter, r *http.Request, err error) {
	resp := ErrorResponse{
		Code:      "INVALID_INPUT",
		Message:   err.Error(),
		RequestID: logger.CorrelationIDFromContext(r.Context()),
	}

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		resp.Code = "VALIDATION_ERROR"
		resp.Message = "request validation failed"
		resp.Fields = valErr.Fields()
	}

	WriteJSON(w, http.StatusBadRequest, ErrorBody{Error: resp})
}
