package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/samiul-it/parts-station-server/internal/repository"
)

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteJSONResponse writes a JSON response with the given status code and data.
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteErrorResponse writes an error response with the given status code and message.
func WriteErrorResponse(w http.ResponseWriter, statusCode int, err, message string) {
	WriteJSONResponse(w, statusCode, ErrorResponse{
		Error:   err,
		Message: message,
	})
}

// IsNotFound reports whether err is a repository NotFoundError.
func IsNotFound(err error) bool {
	var notFound *repository.NotFoundError
	return errors.As(err, &notFound)
}
