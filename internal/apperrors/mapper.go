package apperrors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"gorm.io/gorm"
)

// HTTPStatus converts core errors into an HTTP status code.
// Keeps handlers clean by centralizing error mapping.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest

	case errors.Is(err, ErrNotAuthenticated):
		return http.StatusUnauthorized

	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout

	case errors.Is(err, context.Canceled):
		// 499: client closed request (no net/http constant)
		return 499

	default:
		return http.StatusInternalServerError
	}
}

// WriteError resolves err to a status code and a JSON body with a
// human-readable message.
func WriteError(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
