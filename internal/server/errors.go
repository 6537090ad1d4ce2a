package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/teemow/calbook/internal/provider"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// StatusForError maps a booking error to an HTTP status code.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, provider.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, provider.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, provider.ErrNetwork):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusForError(err), errorResponse{
		Error: err.Error(),
		Kind:  string(provider.KindOf(err)),
	})
}
