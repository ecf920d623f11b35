package common

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
)

type errorResponse struct {
	Error string `json:"error"`
}

// WriteJSON renders v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// WriteError maps an error from the taxonomy to an HTTP status and a
// JSON error body. Anything unclassified becomes a generic 500 so no
// internal detail leaks to the client.
func WriteError(w http.ResponseWriter, err error) {
	switch {
	case IsValidation(err):
		WriteJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, ErrUnauthorized):
		WriteJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
	case errors.Is(err, ErrForbidden):
		WriteJSON(w, http.StatusForbidden, errorResponse{Error: "forbidden"})
	case errors.Is(err, ErrNotFound):
		WriteJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case IsTransientStore(err):
		WriteJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "temporarily unavailable"})
	default:
		log.Printf("Unhandled error: %v", err)
		WriteJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
