package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/jrsteele09/sekai-hub/api"
	hubErrors "github.com/jrsteele09/sekai-hub/internal/errors"
	"github.com/rs/zerolog/log"
)

const maxEventBody = 64 << 10

// DashboardAPIHandler serves the dashboard panels as JSON.
func (s *Server) DashboardAPIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.session(r).IsAuthenticated(r.Context()) {
			writeJSONError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		dashboard, err := loadDashboard(r.Context(), s.apiClient(r), s.config.GetActivityLimit())
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		writeJSON(w, http.StatusOK, dashboard)
	}
}

// ReportEventAPIHandler forwards a browser event to the hub.
func (s *Server) ReportEventAPIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var event api.Event
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBody)).Decode(&event); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid event body")
			return
		}
		event.Project = strings.TrimSpace(event.Project)
		event.EventType = strings.TrimSpace(event.EventType)
		if event.Project == "" || event.EventType == "" {
			writeJSONError(w, http.StatusBadRequest, "project and event_type are required")
			return
		}

		receipt, err := s.apiClient(r).ReportEvent(r.Context(), event.Project, event.EventType, event.Metadata)
		if err != nil {
			switch {
			case errors.Is(err, hubErrors.ErrMissingCredential):
				writeJSONError(w, http.StatusUnauthorized, "not authenticated")
			case hubErrors.StatusCode(err) != 0, errors.Is(err, hubErrors.ErrNetworkFailure):
				log.Warn().Err(err).Str("project", event.Project).Msg("Failed to report event")
				writeJSONError(w, http.StatusBadGateway, "the hub rejected the event")
			default:
				logError(r.Method, r.URL.Path, err)
				writeJSONError(w, http.StatusInternalServerError, "failed to report event")
			}
			return
		}
		writeJSON(w, http.StatusOK, receipt)
	}
}
