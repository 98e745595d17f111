package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/neexbeast/hotel-lister/internal/auth"
	"github.com/neexbeast/hotel-lister/internal/hotel"
)

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps err onto a status code and a client-safe message.
// Unclassified errors are logged and reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var herr *hotel.Error
	if errors.As(err, &herr) {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(herr.Kind, hotel.ErrInvalidInput):
			status = http.StatusBadRequest
		case errors.Is(herr.Kind, hotel.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(herr.Kind, hotel.ErrUpstream):
			status = http.StatusBadGateway
		}
		if herr.Err != nil {
			log.WarnContext(r.Context(), "request failed", "path", r.URL.Path, "status", status, "err", err)
		}
		writeErrorMessage(w, status, herr.Message)
		return
	}

	var verr *auth.ValidationError
	switch {
	case errors.As(err, &verr):
		writeErrorMessage(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, auth.ErrUsernameTaken), errors.Is(err, hotel.ErrBookmarkExists):
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInactiveUser):
		writeErrorMessage(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrInvalidToken):
		// parser detail stays out of the response
		writeErrorMessage(w, http.StatusUnauthorized, auth.ErrInvalidToken.Error())
	default:
		log.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "err", err)
		writeErrorMessage(w, http.StatusInternalServerError, "internal server error")
	}
}
