package server

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/sekai-hub/api"
	"github.com/jrsteele09/sekai-hub/auth"
	"github.com/jrsteele09/sekai-hub/internal/config"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env        string // Environment (e.g., "DEV", "PROD")
	mux        *http.ServeMux
	routes     []string
	config     config.Config
	auth       *auth.Manager
	httpClient *http.Client
	templates  *template.Template
}

// ServerOption defines a function type to modify the Server instance.
type ServerOption func(*Server)

// WithHTTPClient sets the client used for calls to the hub API.
func WithHTTPClient(client *http.Client) ServerOption {
	return func(s *Server) {
		s.httpClient = client
	}
}

func New(config config.Config, authManager *auth.Manager, opts ...ServerOption) (*Server, error) {
	s := &Server{
		env:        config.GetEnv(),
		mux:        http.NewServeMux(),
		config:     config,
		auth:       authManager,
		httpClient: &http.Client{Timeout: config.GetHTTPTimeout()},
	}
	for _, opt := range opts {
		opt(s)
	}

	templates, err := ParseTemplates()
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to parse templates: %w", err)
	}
	s.templates = templates

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// session returns the token lifecycle of the browser that sent r.
func (s *Server) session(r *http.Request) *auth.Session {
	return s.auth.Session(scopeFromContext(r.Context()))
}

// apiClient builds a hub API client that authenticates as the browser that sent r.
func (s *Server) apiClient(r *http.Request) *api.Client {
	return api.New(s.config.GetAPIBaseURL(), s.session(r), api.WithHTTPClient(s.httpClient))
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Info().Msgf("[%-19s] %s", displayMethod, path)
}

func logRequest(r *http.Request, status int, elapsed time.Duration) {
	event := log.Info()
	if status >= http.StatusInternalServerError {
		event = log.Warn()
	}
	event.Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Dur("elapsed", elapsed).
		Msg("request")
}

func logError(method, path string, err error) {
	log.Err(err).Str("method", method).Str("path", path).Msg("request failed")
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
