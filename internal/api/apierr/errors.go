package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/connectaword/internal/model"
	"github.com/mcoot/connectaword/internal/services/rooms"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeNotHost             = "NOT_HOST"
	CodeRoomNotFound        = "ROOM_NOT_FOUND"
	CodeSessionNotFound     = "SESSION_NOT_FOUND"
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodeHostHasRoom         = "HOST_HAS_ROOM"
	CodeUnsupportedLanguage = "UNSUPPORTED_LANGUAGE"
	CodeEmailTaken          = "EMAIL_TAKEN"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeInternalError       = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status an error maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, model.ErrRoomNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeRoomNotFound, "Room not found"}}
	case errors.Is(err, model.ErrSessionNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeSessionNotFound, "No game is running in this room"}}
	case errors.Is(err, model.ErrUserNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeUserNotFound, "User not found"}}
	case errors.Is(err, model.ErrHostHasRoom):
		return &httpError{http.StatusConflict, APIError{CodeHostHasRoom, "You already have an active room."}}
	case errors.Is(err, model.ErrNotHost):
		return &httpError{http.StatusForbidden, APIError{CodeNotHost, "Only the host can perform this action"}}
	case errors.Is(err, model.ErrUnsupportedLanguage):
		return &httpError{http.StatusBadRequest, APIError{CodeUnsupportedLanguage, err.Error()}}
	case errors.Is(err, rooms.ErrNameRequired),
		errors.Is(err, rooms.ErrNameTooLong),
		errors.Is(err, rooms.ErrInvalidWordSource):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, err.Error()}}

	// Map auth errors
	case errors.Is(err, model.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid email or password"}}
	case errors.Is(err, model.ErrInvalidToken):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired token"}}
	case errors.Is(err, model.ErrEmailTaken):
		return &httpError{http.StatusConflict, APIError{CodeEmailTaken, "Email already registered"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
