package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xraph/subwave"
)

// envelope is the JSON response wrapper.
type envelope struct {
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Data: data})
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Error: message})
}

// StatusFor maps an engine error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case subwave.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, subwave.ErrAlreadyExists):
		return http.StatusConflict
	case subwave.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, subwave.ErrUnauthorized):
		return http.StatusForbidden
	case subwave.IsState(err):
		return http.StatusConflict
	case errors.Is(err, subwave.ErrMathOverflow):
		return http.StatusUnprocessableEntity
	case errors.Is(err, subwave.ErrPaymentFailed):
		return http.StatusPaymentRequired
	case errors.Is(err, subwave.ErrStoreBusy):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
