package auth

import (
	"context"
	"fmt"

	"github.com/jrsteele09/sekai-hub/credentials"
	hubErrors "github.com/jrsteele09/sekai-hub/internal/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// GetValidAccessToken returns a token that is not within the refresh margin of
// its expiry, refreshing first when needed.
//
// ErrMissingCredential means the caller is anonymous, either because nothing is
// stored or because the identity provider rejected the refresh token with a 4xx.
// A transport failure during refresh is ErrNetworkFailure and a 5xx is an
// *errors.HTTPError; both leave the stored credentials in place.
func (s *Session) GetValidAccessToken(ctx context.Context) (string, error) {
	rec, ok, err := s.store.Credentials(ctx)
	if err != nil {
		return "", fmt.Errorf("[auth GetValidAccessToken] %w", err)
	}
	if !ok {
		return "", fmt.Errorf("[auth GetValidAccessToken] %w", hubErrors.ErrMissingCredential)
	}
	if !s.m.expiringSoon(rec) {
		return rec.AccessToken, nil
	}

	token, err := s.refresh(ctx, false)
	if hubErrors.Is(err, hubErrors.ErrTokenExchangeFailed) {
		return "", fmt.Errorf("[auth GetValidAccessToken] %w: %w", hubErrors.ErrMissingCredential, err)
	}
	if err != nil {
		return "", fmt.Errorf("[auth GetValidAccessToken] %w", err)
	}
	return token, nil
}

// RefreshAccessToken exchanges the stored refresh token for a new token pair.
// Without a refresh token it fails with ErrMissingCredential and no network
// call. A 4xx rejection by the token endpoint wipes the stored credentials.
func (s *Session) RefreshAccessToken(ctx context.Context) error {
	_, err := s.refresh(ctx, true)
	return err
}

// refresh runs at most one refresh per scope at a time; concurrent callers
// share the result of the one in flight. Unless forced, the record is re-read
// inside the flight so a refresh that completed just before is not repeated.
func (s *Session) refresh(ctx context.Context, force bool) (string, error) {
	// One caller's cancellation must not fail the others sharing the flight.
	flightCtx := context.WithoutCancel(ctx)

	v, err, shared := s.m.refreshes.Do(s.Scope(), func() (interface{}, error) {
		rec, ok, err := s.store.Credentials(flightCtx)
		if err != nil {
			return "", err
		}
		if !force && ok && !s.m.expiringSoon(rec) {
			return rec.AccessToken, nil
		}
		if !ok || rec.RefreshToken == "" {
			return "", hubErrors.ErrMissingCredential
		}
		return s.exchangeRefreshToken(flightCtx, rec.RefreshToken)
	})
	if shared {
		log.Debug().Str("scope", s.Scope()).Msg("Joined in-flight token refresh")
	}
	if err != nil {
		return "", fmt.Errorf("[auth RefreshAccessToken] %w", err)
	}
	return v.(string), nil
}

func (s *Session) exchangeRefreshToken(ctx context.Context, refreshToken string) (string, error) {
	src := s.m.oauth.TokenSource(s.m.clientContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		err = classifyTokenError(err)
		if !hubErrors.IsGrantRejected(err) {
			log.Err(err).Str("scope", s.Scope()).Msg("Token refresh failed, keeping credentials")
			return "", transientRefreshError(err)
		}

		// A rejected refresh token is not retryable; the user has to sign in again.
		log.Warn().Err(err).Str("scope", s.Scope()).Msg("Refresh token rejected, signing out")
		if clearErr := s.store.Clear(ctx); clearErr != nil {
			log.Err(clearErr).Str("scope", s.Scope()).Msg("Failed to clear credentials")
		}
		return "", err
	}

	payload := s.m.newTokenPayload(tok)
	if payload.RefreshToken == "" {
		payload.RefreshToken = refreshToken
	}
	if err := s.store.SaveCredentials(ctx, credentials.Record{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		ExpiresAt:    payload.ExpiresAt,
	}); err != nil {
		return "", err
	}

	log.Debug().Str("scope", s.Scope()).Time("expires_at", payload.ExpiresAt).Msg("Access token refreshed")
	return payload.AccessToken, nil
}

// transientRefreshError turns a token endpoint failure that did not reject the
// grant (5xx, malformed response) into an HTTPError, so callers do not read it
// as a lost credential.
func transientRefreshError(err error) error {
	var exchangeErr *hubErrors.TokenExchangeError
	if hubErrors.As(err, &exchangeErr) {
		return &hubErrors.HTTPError{StatusCode: exchangeErr.StatusCode, Body: exchangeErr.Body}
	}
	return err
}
