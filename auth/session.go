package auth

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/jrsteele09/sekai-hub/credentials"
	hubErrors "github.com/jrsteele09/sekai-hub/internal/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Session is the token lifecycle of one browser scope.
//
// Anonymous -> PendingCallback -> Authenticated -> (refresh) -> Authenticated | Anonymous.
// PendingCallback only exists in the credential store, between Login and HandleCallback.
type Session struct {
	m     *Manager
	store *credentials.Store
}

func (s *Session) Scope() string {
	return s.store.Scope()
}

// Login starts a PKCE transaction and returns the authorization URL the
// browser must be sent to.
func (s *Session) Login(ctx context.Context) (string, error) {
	tx, err := newTransaction(s.m.random)
	if err != nil {
		return "", fmt.Errorf("[auth Login] %w", err)
	}
	if err := s.store.SaveTransaction(ctx, tx); err != nil {
		return "", fmt.Errorf("[auth Login] %w", err)
	}
	return s.m.oauth.AuthCodeURL(tx.State, oauth2.S256ChallengeOption(tx.CodeVerifier)), nil
}

// HandleCallback completes the flow started by Login. A state that does not
// match the stored one fails with ErrStateMismatch before any network call.
// The PKCE transaction is deleted in every case.
func (s *Session) HandleCallback(ctx context.Context, code, state string) (*TokenPayload, error) {
	tx, ok, err := s.store.Transaction(ctx)
	if err != nil {
		return nil, fmt.Errorf("[auth HandleCallback] %w", err)
	}
	defer s.clearTransaction(ctx)

	if !ok || state == "" || subtle.ConstantTimeCompare([]byte(state), []byte(tx.State)) != 1 {
		return nil, fmt.Errorf("[auth HandleCallback] %w", hubErrors.ErrStateMismatch)
	}
	if code == "" {
		return nil, fmt.Errorf("[auth HandleCallback] %w", &hubErrors.TokenExchangeError{Body: "missing authorization code"})
	}

	tok, err := s.m.oauth.Exchange(s.m.clientContext(ctx), code, oauth2.VerifierOption(tx.CodeVerifier))
	if err != nil {
		return nil, fmt.Errorf("[auth HandleCallback] %w", classifyTokenError(err))
	}
	if err := s.m.verifyIDToken(ctx, tok); err != nil {
		return nil, fmt.Errorf("[auth HandleCallback] %w", err)
	}

	payload := s.m.newTokenPayload(tok)
	if err := s.store.SaveCredentials(ctx, credentials.Record{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		ExpiresAt:    payload.ExpiresAt,
	}); err != nil {
		return nil, fmt.Errorf("[auth HandleCallback] %w", err)
	}

	log.Info().Str("scope", s.Scope()).Time("expires_at", payload.ExpiresAt).Msg("Signed in")
	return payload, nil
}

func (s *Session) clearTransaction(ctx context.Context) {
	if err := s.store.ClearTransaction(ctx); err != nil {
		log.Err(err).Str("scope", s.Scope()).Msg("Failed to clear PKCE transaction")
	}
}

// IsAuthenticated is an optimistic check: an access token is stored. Its
// expiry is not looked at.
func (s *Session) IsAuthenticated(ctx context.Context) bool {
	ok, err := s.store.HasAccessToken(ctx)
	if err != nil {
		log.Err(err).Str("scope", s.Scope()).Msg("Failed to read access token")
		return false
	}
	return ok
}

// Logout removes every stored key for this scope. No revocation request is made.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("[auth Logout] %w", err)
	}
	return nil
}
