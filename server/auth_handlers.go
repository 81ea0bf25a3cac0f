package server

import (
	"net/http"

	"github.com/rs/zerolog/log"
)

// LoginHandler starts the authorization code flow and sends the browser to
// the identity provider.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authURL, err := s.session(r).Login(r.Context())
		if err != nil {
			log.Err(err).Msg("Failed to start login")
			s.renderError(w, http.StatusInternalServerError, "Sign in could not be started.", "")
			return
		}
		http.Redirect(w, r, authURL, http.StatusFound)
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.session(r).Logout(r.Context()); err != nil {
			log.Err(err).Msg("Failed to sign out")
			s.renderError(w, http.StatusInternalServerError, "Sign out failed.", "")
			return
		}
		http.Redirect(w, r, RouteIndex, http.StatusSeeOther)
	}
}

// AccountHandler sends the browser to the identity provider's account settings.
func (s *Server) AccountHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, s.config.GetAccountURL(), http.StatusFound)
	}
}
