package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/sekai-hub/credentials"
	"github.com/jrsteele09/sekai-hub/internal/config"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// Manager owns the OAuth2 client configuration and the token lifecycle for
// every browser scope. It is created once at startup and shared.
type Manager struct {
	oauth           *oauth2.Config
	userInfoURL     string
	verifier        *oidc.IDTokenVerifier // nil unless an issuer is configured
	repo            credentials.Repo
	httpClient      *http.Client
	refreshMargin   time.Duration
	defaultLifetime time.Duration
	refreshes       singleflight.Group // keyed by scope
	nowTime         func() time.Time
	random          io.Reader
}

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// WithHTTPClient sets the client used for every call to the identity provider.
func WithHTTPClient(client *http.Client) ManagerOption {
	return func(m *Manager) {
		m.httpClient = client
	}
}

// WithRandom replaces the source of PKCE randomness.
func WithRandom(r io.Reader) ManagerOption {
	return func(m *Manager) {
		m.random = r
	}
}

// NewManager builds the manager. When the config names an issuer the
// provider's endpoints are discovered and ID tokens are verified; otherwise
// the static endpoints from the config are used.
func NewManager(ctx context.Context, c config.OAuthConfig, repo credentials.Repo, opts ...ManagerOption) (*Manager, error) {
	if repo == nil {
		return nil, fmt.Errorf("[auth NewManager] credentials repo is required")
	}

	m := &Manager{
		repo:            repo,
		httpClient:      &http.Client{Timeout: c.GetHTTPTimeout()},
		refreshMargin:   c.GetRefreshMargin(),
		defaultLifetime: c.GetDefaultTokenLifetime(),
		nowTime:         time.Now,
		random:          rand.Reader,
	}
	for _, opt := range opts {
		opt(m)
	}

	m.oauth = &oauth2.Config{
		ClientID:    c.GetClientID(),
		RedirectURL: c.GetRedirectURI(),
		Scopes:      c.GetScopes(),
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.GetAuthEndpoint(),
			TokenURL:  c.GetTokenEndpoint(),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	m.userInfoURL = c.GetUserInfoEndpoint()

	if issuer := c.GetIssuer(); issuer != "" {
		if err := m.discover(ctx, issuer); err != nil {
			return nil, fmt.Errorf("[auth NewManager] %w", err)
		}
	}

	log.Info().
		Str("client_id", m.oauth.ClientID).
		Str("authorize", m.oauth.Endpoint.AuthURL).
		Str("token", m.oauth.Endpoint.TokenURL).
		Str("userinfo", m.userInfoURL).
		Bool("id_token_verification", m.verifier != nil).
		Msg("OAuth client configured")

	return m, nil
}

func (m *Manager) discover(ctx context.Context, issuer string) error {
	provider, err := oidc.NewProvider(oidc.ClientContext(ctx, m.httpClient), issuer)
	if err != nil {
		return fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	var claims struct {
		UserInfoURL string `json:"userinfo_endpoint"`
	}
	if err := provider.Claims(&claims); err != nil {
		return fmt.Errorf("failed to read discovery document: %w", err)
	}

	endpoint := provider.Endpoint()
	endpoint.AuthStyle = oauth2.AuthStyleInParams
	m.oauth.Endpoint = endpoint
	if claims.UserInfoURL != "" {
		m.userInfoURL = claims.UserInfoURL
	}
	m.verifier = provider.Verifier(&oidc.Config{
		ClientID: m.oauth.ClientID,
		Now:      m.nowTime,
	})
	return nil
}

// Session returns the session for one browser scope.
func (m *Manager) Session(scope string) *Session {
	return &Session{
		m:     m,
		store: credentials.NewStore(m.repo, scope),
	}
}

// clientContext makes the oauth2 and oidc libraries use the manager's HTTP client.
func (m *Manager) clientContext(ctx context.Context) context.Context {
	return oidc.ClientContext(ctx, m.httpClient)
}

// expiringSoon reports whether now is within the refresh margin of expiry, inclusive.
func (m *Manager) expiringSoon(rec credentials.Record) bool {
	return !m.nowTime().Before(rec.ExpiresAt.Add(-m.refreshMargin))
}
