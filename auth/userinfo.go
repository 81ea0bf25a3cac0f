package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	hubErrors "github.com/jrsteele09/sekai-hub/internal/errors"
	"github.com/rs/zerolog/log"
)

const maxErrorBody = 4 << 10

// UserInfo is the identity provider's profile of the signed in user.
type UserInfo struct {
	Subject           string `json:"sub"`
	PreferredUsername string `json:"preferred_username,omitempty"`
	Name              string `json:"name,omitempty"`
	Email             string `json:"email,omitempty"`

	// Claims holds every claim returned, including the ones above.
	Claims map[string]any `json:"-"`
}

// DisplayName is the first non-empty of username, name and email.
func (u *UserInfo) DisplayName() string {
	switch {
	case u.PreferredUsername != "":
		return u.PreferredUsername
	case u.Name != "":
		return u.Name
	case u.Email != "":
		return u.Email
	}
	return "User"
}

// GetUserInfo fetches the profile with a valid access token. A 401 from the
// provider means the session cannot be recovered: the scope is signed out and
// ErrMissingCredential returned. Other statuses are *errors.HTTPError and keep
// the credentials.
func (s *Session) GetUserInfo(ctx context.Context) (*UserInfo, error) {
	token, err := s.GetValidAccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("[auth GetUserInfo] %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.m.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("[auth GetUserInfo] %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := s.m.httpClient.Do(req)
	if err != nil {
		log.Err(err).Str("scope", s.Scope()).Msg("Userinfo request failed")
		return nil, fmt.Errorf("[auth GetUserInfo] %w: %v", hubErrors.ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		log.Warn().Str("scope", s.Scope()).Msg("Userinfo rejected the access token, signing out")
		if err := s.Logout(ctx); err != nil {
			log.Err(err).Str("scope", s.Scope()).Msg("Failed to clear credentials")
		}
		return nil, fmt.Errorf("[auth GetUserInfo] %w", hubErrors.ErrMissingCredential)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("[auth GetUserInfo] %w", &hubErrors.HTTPError{StatusCode: resp.StatusCode, Body: string(body)})
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Err(err).Str("scope", s.Scope()).Msg("Failed to read userinfo response")
		return nil, fmt.Errorf("[auth GetUserInfo] %w: %v", hubErrors.ErrNetworkFailure, err)
	}

	var info UserInfo
	if err := json.Unmarshal(data, &info); err != nil {
		log.Err(err).Str("scope", s.Scope()).Msg("Failed to decode userinfo response")
		return nil, fmt.Errorf("[auth GetUserInfo] decode: %w", err)
	}
	if err := json.Unmarshal(data, &info.Claims); err != nil {
		return nil, fmt.Errorf("[auth GetUserInfo] decode claims: %w", err)
	}
	return &info, nil
}
