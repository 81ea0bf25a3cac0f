package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

const (
	// browserSessionCookieName identifies the browser whose credentials are held server side
	browserSessionCookieName = "hub_session"
	// browserSessionMaxAge keeps the cookie for a year; signing out clears credentials, not the cookie
	browserSessionMaxAge = 365 * 24 * 60 * 60
)

func setBrowserSessionCookie(w http.ResponseWriter, r *http.Request, scope string) {
	http.SetCookie(w, &http.Cookie{
		Name:     browserSessionCookieName,
		Value:    scope,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   browserSessionMaxAge,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("Failed to encode JSON response")
	}
}

type apiError struct {
	Error string `json:"error"`
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiError{Error: msg})
}
