package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/jrsteele09/sekai-hub/auth"
	"github.com/jrsteele09/sekai-hub/credentials"
	"github.com/jrsteele09/sekai-hub/internal/config"
	"github.com/jrsteele09/sekai-hub/server"
	"github.com/stretchr/testify/require"
)

const testAccountURL = "https://id.example.com/account"

// fakeIdP answers token and userinfo requests.
type fakeIdP struct {
	server *httptest.Server

	mu         sync.Mutex
	tokenCalls int
	tokenReply func() (int, any)
}

func newFakeIdP(t *testing.T) *fakeIdP {
	t.Helper()

	idp := &fakeIdP{
		tokenReply: func() (int, any) {
			return http.StatusOK, map[string]any{
				"access_token":  "A1",
				"refresh_token": "R1",
				"token_type":    "Bearer",
				"expires_in":    3600,
			}
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth/token", func(w http.ResponseWriter, r *http.Request) {
		idp.mu.Lock()
		idp.tokenCalls++
		reply := idp.tokenReply
		idp.mu.Unlock()
		status, body := reply()
		writeJSON(w, status, body)
	})
	mux.HandleFunc("GET /oauth/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer A1" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid_token"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"sub":                "user-1",
			"preferred_username": "kanade",
		})
	})
	idp.server = httptest.NewServer(mux)
	t.Cleanup(idp.server.Close)
	return idp
}

func (idp *fakeIdP) setTokenReply(reply func() (int, any)) {
	idp.mu.Lock()
	defer idp.mu.Unlock()
	idp.tokenReply = reply
}

// fakeHub is the resource API. Paths listed in failing answer 500.
type fakeHub struct {
	server *httptest.Server

	mu      sync.Mutex
	failing map[string]bool
	events  []map[string]any
}

func newFakeHub(t *testing.T) *fakeHub {
	t.Helper()

	hub := &fakeHub{failing: map[string]bool{}}
	replies := map[string]any{
		"/user/stats": map[string]any{"songs_played": 12, "play_time": 3.5},
		"/user/achievements": map[string]any{
			"achievements": []map[string]any{{"id": "a1", "name": "First Song", "unlocked_at": "2024-01-02T03:04:05Z"}},
			"total":        1,
		},
		"/user/activity": map[string]any{
			"activities": []map[string]any{{"id": "e1", "project": "nightcord", "event_type": "login", "created_at": "2024-01-02T03:04:05Z"}},
			"total":      1,
			"limit":      20,
			"offset":     0,
		},
		"/user/sync": map[string]any{"nightcord": map[string]any{"volume": 7}},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /user/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer A1" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
			return
		}
		hub.mu.Lock()
		fail := hub.failing[r.URL.Path]
		hub.mu.Unlock()
		if fail {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "boom"})
			return
		}
		reply, ok := replies[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, http.StatusOK, reply)
	})
	mux.HandleFunc("POST /user/events", func(w http.ResponseWriter, r *http.Request) {
		var event map[string]any
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		hub.mu.Lock()
		hub.events = append(hub.events, event)
		fail := hub.failing[r.URL.Path]
		hub.mu.Unlock()
		if fail {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "boom"})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": "evt-1", "status": "recorded"})
	})
	hub.server = httptest.NewServer(mux)
	t.Cleanup(hub.server.Close)
	return hub
}

func (h *fakeHub) fail(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failing[path] = true
}

func (h *fakeHub) reportedEvents() []map[string]any {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]map[string]any(nil), h.events...)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// testFixture holds all test dependencies
type testFixture struct {
	idp    *fakeIdP
	hub    *fakeHub
	repo   *credentials.InMemoryRepo
	server *httptest.Server
	client *http.Client
}

// setupTestFixture creates a new test fixture with all dependencies
func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	idp := newFakeIdP(t)
	hub := newFakeHub(t)

	t.Setenv("ENV", "TEST")
	t.Setenv("OAUTH_CLIENT_ID", "sekai_hub_client")
	t.Setenv("OAUTH_ISSUER", "")
	t.Setenv("OAUTH_REDIRECT_URI", "http://localhost:8080/callback")
	t.Setenv("OAUTH_AUTH_ENDPOINT", idp.server.URL+"/oauth/authorize")
	t.Setenv("OAUTH_TOKEN_ENDPOINT", idp.server.URL+"/oauth/token")
	t.Setenv("OAUTH_USERINFO_ENDPOINT", idp.server.URL+"/oauth/userinfo")
	t.Setenv("API_BASE_URL", hub.server.URL)
	t.Setenv("ACCOUNT_URL", testAccountURL)

	c := config.New()
	repo := credentials.NewInMemoryRepo()
	manager, err := auth.NewManager(context.Background(), c, repo)
	require.NoError(t, err)

	s, err := server.New(c, manager)
	require.NoError(t, err)

	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testFixture{
		idp:    idp,
		hub:    hub,
		repo:   repo,
		server: ts,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (f *testFixture) get(t *testing.T, path string) *http.Response {
	t.Helper()

	resp, err := f.client.Get(f.server.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (f *testFixture) postJSON(t *testing.T, path, body string) *http.Response {
	t.Helper()

	resp, err := f.client.Post(f.server.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// login follows /auth/login and returns the state sent to the provider.
func (f *testFixture) login(t *testing.T) string {
	t.Helper()

	resp := f.get(t, "/auth/login")
	require.Equal(t, http.StatusFound, resp.StatusCode)

	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

// signIn runs the whole browser flow up to the redirect back to the index.
func (f *testFixture) signIn(t *testing.T) {
	t.Helper()

	state := f.login(t)
	resp := f.get(t, "/callback?code=code-1&state="+url.QueryEscape(state))
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/", resp.Header.Get("Location"))
}

// scope is the browser session id the server issued to the test client.
func (f *testFixture) scope(t *testing.T) string {
	t.Helper()

	u, err := url.Parse(f.server.URL)
	require.NoError(t, err)
	for _, c := range f.client.Jar.Cookies(u) {
		if c.Name == "hub_session" {
			return c.Value
		}
	}
	t.Fatal("no hub_session cookie")
	return ""
}
