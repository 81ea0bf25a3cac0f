package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/sekai-hub/auth"
	"github.com/jrsteele09/sekai-hub/credentials"
	"github.com/jrsteele09/sekai-hub/internal/config"
	"github.com/stretchr/testify/require"
)

const (
	testClientID    = "sekai_hub_client"
	testRedirectURI = "http://localhost:8080/callback"
	testScope       = "browser-1"
	testCode        = "auth-code-1"
	testKeyID       = "test-key"
)

var (
	signingKeyOnce sync.Once
	signingKey     *rsa.PrivateKey
)

// testSigningKey is shared by every fake provider; generating RSA keys is slow.
func testSigningKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()

	signingKeyOnce.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		signingKey = key
	})
	return signingKey
}

// testClock is a settable clock shared by the manager and the test.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeIdP is an identity provider with a token and a userinfo endpoint.
type fakeIdP struct {
	server *httptest.Server

	mu            sync.Mutex
	tokenForms    []url.Values
	tokenReply    func(form url.Values) (int, any)
	userInfoCalls []string // Authorization headers
	userInfoReply func() (int, any)
	key           *rsa.PrivateKey
}

func newFakeIdP(t *testing.T) *fakeIdP {
	t.Helper()

	idp := &fakeIdP{
		key: testSigningKey(t),
		tokenReply: func(url.Values) (int, any) {
			return http.StatusOK, map[string]any{
				"access_token":  "A1",
				"refresh_token": "R1",
				"token_type":    "Bearer",
				"expires_in":    3600,
			}
		},
		userInfoReply: func() (int, any) {
			return http.StatusOK, map[string]any{
				"sub":                "user-1",
				"preferred_username": "kanade",
				"email":              "kanade@example.com",
			}
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth/token", idp.handleToken)
	mux.HandleFunc("GET /oauth/userinfo", idp.handleUserInfo)
	mux.HandleFunc("GET /.well-known/openid-configuration", idp.handleDiscovery)
	mux.HandleFunc("GET /jwks.json", idp.handleJWKS)
	idp.server = httptest.NewServer(mux)
	t.Cleanup(idp.server.Close)
	return idp
}

func (idp *fakeIdP) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	idp.mu.Lock()
	idp.tokenForms = append(idp.tokenForms, r.PostForm)
	reply := idp.tokenReply
	idp.mu.Unlock()

	status, body := reply(r.PostForm)
	if form, ok := body.(url.Values); ok {
		w.Header().Set("Content-Type", "application/x-www-form-urlencoded")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(form.Encode()))
		return
	}
	writeJSON(w, status, body)
}

func (idp *fakeIdP) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	idp.mu.Lock()
	idp.userInfoCalls = append(idp.userInfoCalls, r.Header.Get("Authorization"))
	reply := idp.userInfoReply
	idp.mu.Unlock()

	status, body := reply()
	writeJSON(w, status, body)
}

func (idp *fakeIdP) handleDiscovery(w http.ResponseWriter, _ *http.Request) {
	base := idp.server.URL
	writeJSON(w, http.StatusOK, map[string]any{
		"issuer":                 base,
		"authorization_endpoint": base + "/discovered/authorize",
		"token_endpoint":         base + "/oauth/token",
		"userinfo_endpoint":      base + "/oauth/userinfo",
		"jwks_uri":               base + "/jwks.json",
		"id_token_signing_alg_values_supported": []string{"RS256"},
	})
}

func (idp *fakeIdP) handleJWKS(w http.ResponseWriter, _ *http.Request) {
	pub := idp.key.PublicKey
	writeJSON(w, http.StatusOK, map[string]any{
		"keys": []map[string]any{{
			"kty": "RSA",
			"kid": testKeyID,
			"use": "sig",
			"alg": "RS256",
			"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}},
	})
}

// signIDToken returns an RS256 ID token signed with the key published at /jwks.json.
func (idp *fakeIdP) signIDToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = testKeyID
	signed, err := tok.SignedString(idp.key)
	require.NoError(t, err)
	return signed
}

func (idp *fakeIdP) setTokenReply(reply func(form url.Values) (int, any)) {
	idp.mu.Lock()
	defer idp.mu.Unlock()
	idp.tokenReply = reply
}

func (idp *fakeIdP) setUserInfoReply(reply func() (int, any)) {
	idp.mu.Lock()
	defer idp.mu.Unlock()
	idp.userInfoReply = reply
}

func (idp *fakeIdP) tokenCalls() []url.Values {
	idp.mu.Lock()
	defer idp.mu.Unlock()
	return append([]url.Values(nil), idp.tokenForms...)
}

func (idp *fakeIdP) userInfoRequests() []string {
	idp.mu.Lock()
	defer idp.mu.Unlock()
	return append([]string(nil), idp.userInfoCalls...)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// testFixture holds all test dependencies
type testFixture struct {
	idp     *fakeIdP
	clock   *testClock
	repo    *credentials.InMemoryRepo
	store   *credentials.Store
	manager *auth.Manager
	session *auth.Session
}

// setOAuthEnv points the OAuth configuration at the fake provider.
func setOAuthEnv(t *testing.T, idp *fakeIdP) {
	t.Helper()

	t.Setenv("OAUTH_CLIENT_ID", testClientID)
	t.Setenv("OAUTH_REDIRECT_URI", testRedirectURI)
	t.Setenv("OAUTH_SCOPES", "openid profile email")
	t.Setenv("OAUTH_AUTH_ENDPOINT", idp.server.URL+"/oauth/authorize")
	t.Setenv("OAUTH_TOKEN_ENDPOINT", idp.server.URL+"/oauth/token")
	t.Setenv("OAUTH_USERINFO_ENDPOINT", idp.server.URL+"/oauth/userinfo")
	t.Setenv("OAUTH_ISSUER", "")
}

// setupTestFixture creates a new test fixture with all dependencies
func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	idp := newFakeIdP(t)
	setOAuthEnv(t, idp)

	clock := &testClock{now: time.Now()}
	repo := credentials.NewInMemoryRepo()

	manager, err := auth.NewManager(context.Background(), config.New(), repo, auth.WithNowTime(clock.Now))
	require.NoError(t, err)

	return &testFixture{
		idp:     idp,
		clock:   clock,
		repo:    repo,
		store:   credentials.NewStore(repo, testScope),
		manager: manager,
		session: manager.Session(testScope),
	}
}

// storeCredentials seeds the store as if a sign-in had completed.
func (f *testFixture) storeCredentials(t *testing.T, access, refresh string, expiresAt time.Time) {
	t.Helper()

	require.NoError(t, f.store.SaveCredentials(context.Background(), credentials.Record{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	}))
}

// signIn runs Login and HandleCallback against the fake provider.
func (f *testFixture) signIn(t *testing.T) *auth.TokenPayload {
	t.Helper()
	ctx := context.Background()

	authURL, err := f.session.Login(ctx)
	require.NoError(t, err)

	u, err := url.Parse(authURL)
	require.NoError(t, err)

	payload, err := f.session.HandleCallback(ctx, testCode, u.Query().Get("state"))
	require.NoError(t, err)
	return payload
}
