package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	hubErrors "github.com/jrsteele09/sekai-hub/internal/errors"
	"golang.org/x/oauth2"
)

// TokenPayload is the token endpoint response as returned by HandleCallback.
type TokenPayload struct {
	// AccessToken is the bearer credential for the hub API.
	AccessToken string `json:"access_token"`

	// RefreshToken obtains a new access token without signing in again.
	// It may be rotated on each refresh.
	RefreshToken string `json:"refresh_token,omitempty"`

	TokenType string `json:"token_type,omitempty"`

	// ExpiresIn is the lifetime in seconds as sent by the provider, 0 if absent.
	ExpiresIn int64 `json:"expires_in,omitempty"`

	Scope string `json:"scope,omitempty"`

	// IDToken is only present when the "openid" scope was granted.
	IDToken string `json:"id_token,omitempty"`

	// ExpiresAt is the absolute expiry the session stores.
	ExpiresAt time.Time `json:"-"`
}

func (m *Manager) newTokenPayload(tok *oauth2.Token) *TokenPayload {
	expiresIn := expiresInSeconds(tok)
	p := &TokenPayload{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		ExpiresIn:    expiresIn,
		ExpiresAt:    m.expiryFor(tok, expiresIn),
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		p.Scope = scope
	}
	if idToken, ok := tok.Extra("id_token").(string); ok {
		p.IDToken = idToken
	}
	return p
}

// expiryFor picks the first available of: expires_in relative to the manager's
// clock, the library computed expiry, the exp claim of a JWT access token, the
// default lifetime.
func (m *Manager) expiryFor(tok *oauth2.Token, expiresIn int64) time.Time {
	now := m.nowTime()
	if expiresIn > 0 {
		return now.Add(time.Duration(expiresIn) * time.Second)
	}
	if !tok.Expiry.IsZero() {
		return tok.Expiry
	}
	if exp, ok := jwtExpiry(tok.AccessToken); ok {
		return exp
	}
	return now.Add(m.defaultLifetime)
}

// expiresInSeconds reads expires_in from the raw token response. oauth2.Token
// only keeps the absolute Expiry, computed from the wall clock.
func expiresInSeconds(tok *oauth2.Token) int64 {
	if tok.ExpiresIn > 0 {
		return tok.ExpiresIn
	}
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0
		}
		return n
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

// jwtExpiry reads the exp claim without verifying the signature. The hub only
// uses it to schedule a refresh; the resource server does the verification.
func jwtExpiry(raw string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

func (m *Manager) verifyIDToken(ctx context.Context, tok *oauth2.Token) error {
	if m.verifier == nil {
		return nil
	}
	raw, ok := tok.Extra("id_token").(string)
	if !ok || raw == "" {
		return nil
	}
	if _, err := m.verifier.Verify(m.clientContext(ctx), raw); err != nil {
		return &hubErrors.TokenExchangeError{Body: fmt.Sprintf("ID token verification failed: %v", err)}
	}
	return nil
}

// classifyTokenError maps oauth2 library errors onto the hub taxonomy: a
// response from the token endpoint is a TokenExchangeError, a transport fault
// is ErrNetworkFailure.
func classifyTokenError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		status := 0
		if retrieveErr.Response != nil {
			status = retrieveErr.Response.StatusCode
		}
		body := string(retrieveErr.Body)
		if body == "" {
			body = retrieveErr.ErrorCode
		}
		return &hubErrors.TokenExchangeError{StatusCode: status, Body: body}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %v", hubErrors.ErrNetworkFailure, err)
	}
	return &hubErrors.TokenExchangeError{Body: err.Error()}
}
