package config

import (
	"strings"
	"time"
)

type OAuthConfig interface {
	GetClientID() string
	GetIssuer() string
	GetAuthEndpoint() string
	GetTokenEndpoint() string
	GetUserInfoEndpoint() string
	GetRedirectURI() string
	GetScopes() []string
	GetRefreshMargin() time.Duration
	GetDefaultTokenLifetime() time.Duration
	GetHTTPTimeout() time.Duration
}

const defaultIdentityURL = "https://id.nightcord.de5.net"

type OAuth struct {
	file *File
}

var _ OAuthConfig = OAuth{}

func (o OAuth) GetClientID() string {
	return GetEnv("OAUTH_CLIENT_ID", o.file.OAuth.ClientID, "sekai_hub_client")
}

// GetIssuer enables OIDC discovery when set. Empty means the static endpoints are used.
func (o OAuth) GetIssuer() string {
	return GetEnv("OAUTH_ISSUER", o.file.OAuth.Issuer, "")
}

func (o OAuth) GetAuthEndpoint() string {
	return GetEnv("OAUTH_AUTH_ENDPOINT", o.file.OAuth.AuthEndpoint, defaultIdentityURL+"/oauth/authorize")
}

func (o OAuth) GetTokenEndpoint() string {
	return GetEnv("OAUTH_TOKEN_ENDPOINT", o.file.OAuth.TokenEndpoint, defaultIdentityURL+"/oauth/token")
}

func (o OAuth) GetUserInfoEndpoint() string {
	return GetEnv("OAUTH_USERINFO_ENDPOINT", o.file.OAuth.UserInfoEndpoint, defaultIdentityURL+"/oauth/userinfo")
}

func (o OAuth) GetRedirectURI() string {
	return GetEnv("OAUTH_REDIRECT_URI", o.file.OAuth.RedirectURI, EnvVars{file: o.file}.GetBaseURL()+"/callback")
}

func (o OAuth) GetScopes() []string {
	if v := GetEnv("OAUTH_SCOPES", "", ""); v != "" {
		return strings.Fields(v)
	}
	if len(o.file.OAuth.Scopes) > 0 {
		return o.file.OAuth.Scopes
	}
	return []string{"openid", "profile", "email"}
}

// GetRefreshMargin is how long before expiry an access token is refreshed proactively.
func (o OAuth) GetRefreshMargin() time.Duration {
	return getEnvDuration("OAUTH_REFRESH_MARGIN", o.file.OAuth.RefreshMargin, 5*time.Minute)
}

// GetDefaultTokenLifetime is used when the token response carries no usable expiry.
func (o OAuth) GetDefaultTokenLifetime() time.Duration {
	return getEnvDuration("OAUTH_DEFAULT_TOKEN_LIFETIME", o.file.OAuth.DefaultLifetime, 1*time.Hour)
}

func (o OAuth) GetHTTPTimeout() time.Duration {
	return getEnvDuration("HTTP_TIMEOUT", o.file.OAuth.HTTPTimeout, 30*time.Second)
}
