package server

import (
	"errors"
	"net/http"

	"github.com/jrsteele09/sekai-hub/auth"
	hubErrors "github.com/jrsteele09/sekai-hub/internal/errors"
	"github.com/rs/zerolog/log"
)

type publicPage struct {
	AppName string
	Notice  string
}

type dashboardPage struct {
	AppName   string
	Username  string
	User      *auth.UserInfo
	Dashboard *Dashboard
}

type errorPage struct {
	AppName     string
	Title       string
	Message     string
	Description string
}

// IndexHandler renders the dashboard for a signed in browser and the public
// landing page for everyone else.
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		session := s.session(r)

		if !session.IsAuthenticated(ctx) {
			s.renderPublic(w, "")
			return
		}

		user, err := session.GetUserInfo(ctx)
		if err != nil {
			if errors.Is(err, hubErrors.ErrMissingCredential) {
				s.renderPublic(w, "")
				return
			}
			log.Err(err).Str("scope", session.Scope()).Msg("Failed to load user info")
			s.renderPublic(w, "Your profile could not be loaded. Please try again.")
			return
		}

		dashboard, err := loadDashboard(ctx, s.apiClient(r), s.config.GetActivityLimit())
		if err != nil {
			// Only a lost credential gets here.
			s.renderPublic(w, "")
			return
		}

		s.render(w, http.StatusOK, "dashboard.html", dashboardPage{
			AppName:   s.config.GetAppName(),
			Username:  user.DisplayName(),
			User:      user,
			Dashboard: dashboard,
		})
	}
}

func (s *Server) renderPublic(w http.ResponseWriter, notice string) {
	s.render(w, http.StatusOK, "public.html", publicPage{
		AppName: s.config.GetAppName(),
		Notice:  notice,
	})
}

func (s *Server) renderError(w http.ResponseWriter, status int, message, description string) {
	s.render(w, status, "error.html", errorPage{
		AppName:     s.config.GetAppName(),
		Title:       http.StatusText(status),
		Message:     message,
		Description: description,
	})
}
