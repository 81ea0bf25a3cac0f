package server

import (
	"errors"
	"net/http"

	hubErrors "github.com/jrsteele09/sekai-hub/internal/errors"
	"github.com/rs/zerolog/log"
)

func (s *Server) OAuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Query response mode only: a cross-site form_post would arrive without
		// the SameSite=Lax hub_session cookie and could never match the state.
		query := r.URL.Query()
		state := query.Get("state")
		code := query.Get("code")
		errorParam := query.Get("error")
		errorDesc := query.Get("error_description")

		// Check for authorization errors
		if errorParam != "" {
			log.Warn().Str("error", errorParam).Str("description", errorDesc).Msg("Authorization denied by provider")
			s.renderError(w, http.StatusBadRequest, "Authorization failed: "+errorParam, errorDesc)
			return
		}

		if code == "" || state == "" {
			s.renderError(w, http.StatusBadRequest, "Missing code or state parameter.", "")
			return
		}

		session := s.session(r)
		if _, err := session.HandleCallback(r.Context(), code, state); err != nil {
			log.Err(err).Str("scope", session.Scope()).Msg("Callback failed")
			switch {
			case errors.Is(err, hubErrors.ErrStateMismatch):
				s.renderError(w, http.StatusBadRequest, "Invalid state parameter.", "The sign in request did not start from this browser. Please sign in again.")
			case errors.Is(err, hubErrors.ErrTokenExchangeFailed), errors.Is(err, hubErrors.ErrNetworkFailure):
				s.renderError(w, http.StatusBadGateway, "Token exchange failed.", "The identity provider did not accept the sign in. Please try again.")
			default:
				s.renderError(w, http.StatusInternalServerError, "Sign in could not be completed.", "")
			}
			return
		}

		http.Redirect(w, r, RouteIndex, http.StatusSeeOther)
	}
}
