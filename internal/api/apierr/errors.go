package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/quizroom/internal/model"
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
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeGameNotFound   = "GAME_NOT_FOUND"
	CodeGameNotActive  = "GAME_NOT_ACTIVE"
	CodePlayerNotFound = "PLAYER_NOT_FOUND"
	CodeInternalError  = "INTERNAL_ERROR"
	CodeUnavailable    = "SERVICE_UNAVAILABLE"
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

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, model.ErrGameNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeGameNotFound, err.Error()}}
	case errors.Is(err, model.ErrGameNotActive):
		return &httpError{http.StatusConflict, APIError{CodeGameNotActive, "Game is not active"}}
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}

// NewUnavailableError creates an error for requests arriving during shutdown
func NewUnavailableError() error {
	return &httpError{http.StatusServiceUnavailable, APIError{CodeUnavailable, "Server is shutting down"}}
}
