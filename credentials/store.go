package credentials

import (
	"context"
	"fmt"
	"strconv"
	"time"

	hubErrors "github.com/jrsteele09/sekai-hub/internal/errors"
)

// Well-known keys
const (
	KeyAccessToken  = "sekai_access_token"
	KeyRefreshToken = "sekai_refresh_token"
	KeyExpiresAt    = "sekai_expires_at"
	KeyState        = "sekai_auth_state"
	KeyCodeVerifier = "sekai_code_verifier"
)

var (
	credentialKeys  = []string{KeyAccessToken, KeyRefreshToken, KeyExpiresAt}
	transactionKeys = []string{KeyState, KeyCodeVerifier}
)

// AllKeys lists every key the store manages.
func AllKeys() []string {
	return append(append([]string{}, credentialKeys...), transactionKeys...)
}

// Record is the persisted token pair.
type Record struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Transaction is the PKCE state kept between login and callback.
type Transaction struct {
	State        string
	CodeVerifier string
}

// Store is a typed façade over a Repo bound to a single scope.
type Store struct {
	repo  Repo
	scope string
}

func NewStore(repo Repo, scope string) *Store {
	return &Store{repo: repo, scope: scope}
}

func (s *Store) Scope() string {
	return s.scope
}

// Get returns the value and whether it was present.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.repo.Get(ctx, s.scope, key)
	if hubErrors.Is(err, hubErrors.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, hubErrors.Wrapf(err, "[credentials Get] %s", key)
	}
	return v, v != "", nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.repo.Set(ctx, s.scope, key, value); err != nil {
		return hubErrors.Wrapf(err, "[credentials Set] %s", key)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, keys ...string) error {
	if err := s.repo.Delete(ctx, s.scope, keys...); err != nil {
		return fmt.Errorf("[credentials Remove] %w", err)
	}
	return nil
}

// HasAccessToken reports whether an access token is stored. Expiry is not checked.
func (s *Store) HasAccessToken(ctx context.Context) (bool, error) {
	_, ok, err := s.Get(ctx, KeyAccessToken)
	return ok, err
}

// Credentials loads the record. Without an access token the record is absent
// regardless of what else is stored. An unreadable expiry is treated as already
// expired.
func (s *Store) Credentials(ctx context.Context) (Record, bool, error) {
	access, ok, err := s.Get(ctx, KeyAccessToken)
	if err != nil || !ok {
		return Record{}, false, err
	}
	refresh, _, err := s.Get(ctx, KeyRefreshToken)
	if err != nil {
		return Record{}, false, err
	}
	rawExpiry, _, err := s.Get(ctx, KeyExpiresAt)
	if err != nil {
		return Record{}, false, err
	}

	var expiresAt time.Time
	if ms, err := strconv.ParseInt(rawExpiry, 10, 64); err == nil {
		expiresAt = time.UnixMilli(ms)
	}

	return Record{AccessToken: access, RefreshToken: refresh, ExpiresAt: expiresAt}, true, nil
}

// SaveCredentials writes the record. An empty refresh token removes the stored one.
func (s *Store) SaveCredentials(ctx context.Context, r Record) error {
	if r.AccessToken == "" {
		return fmt.Errorf("[credentials SaveCredentials] access token is required")
	}
	if err := s.Set(ctx, KeyAccessToken, r.AccessToken); err != nil {
		return err
	}
	if r.RefreshToken == "" {
		if err := s.Remove(ctx, KeyRefreshToken); err != nil {
			return err
		}
	} else if err := s.Set(ctx, KeyRefreshToken, r.RefreshToken); err != nil {
		return err
	}
	return s.Set(ctx, KeyExpiresAt, strconv.FormatInt(r.ExpiresAt.UnixMilli(), 10))
}

func (s *Store) ClearCredentials(ctx context.Context) error {
	return s.Remove(ctx, credentialKeys...)
}

// Transaction loads the pending PKCE transaction, if any.
func (s *Store) Transaction(ctx context.Context) (Transaction, bool, error) {
	state, ok, err := s.Get(ctx, KeyState)
	if err != nil || !ok {
		return Transaction{}, false, err
	}
	verifier, _, err := s.Get(ctx, KeyCodeVerifier)
	if err != nil {
		return Transaction{}, false, err
	}
	return Transaction{State: state, CodeVerifier: verifier}, true, nil
}

func (s *Store) SaveTransaction(ctx context.Context, t Transaction) error {
	if err := s.Set(ctx, KeyState, t.State); err != nil {
		return err
	}
	return s.Set(ctx, KeyCodeVerifier, t.CodeVerifier)
}

func (s *Store) ClearTransaction(ctx context.Context) error {
	return s.Remove(ctx, transactionKeys...)
}

// Clear removes every managed key.
func (s *Store) Clear(ctx context.Context) error {
	return s.Remove(ctx, AllKeys()...)
}
