package errors

import (
	"errors"
	"fmt"
)

// Common error types for the hub client
var (
	// Credential lifecycle errors
	ErrMissingCredential   = errors.New("missing credential")
	ErrStateMismatch       = errors.New("state mismatch")
	ErrTokenExchangeFailed = errors.New("token exchange failed")

	// Transport errors
	ErrNetworkFailure = errors.New("network failure")

	// Storage errors
	ErrNotFound = errors.New("not found")
)

// HTTPError is returned when a server answers with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("http error: status %d: %s", e.StatusCode, e.Body)
}

// TokenExchangeError carries the identity provider's response when it rejects
// an authorization code or a refresh token.
type TokenExchangeError struct {
	StatusCode int
	Body       string
}

func (e *TokenExchangeError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", ErrTokenExchangeFailed, e.Body)
	}
	return fmt.Sprintf("%s: status %d: %s", ErrTokenExchangeFailed, e.StatusCode, e.Body)
}

func (e *TokenExchangeError) Unwrap() error {
	return ErrTokenExchangeFailed
}

// IsGrantRejected reports whether err is the token endpoint refusing the grant
// itself (a 4xx such as invalid_grant). Such a grant will never succeed again.
func IsGrantRejected(err error) bool {
	var exchangeErr *TokenExchangeError
	if !errors.As(err, &exchangeErr) {
		return false
	}
	return exchangeErr.StatusCode >= 400 && exchangeErr.StatusCode < 500
}

// StatusCode extracts the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	var exchangeErr *TokenExchangeError
	if errors.As(err, &exchangeErr) {
		return exchangeErr.StatusCode
	}
	return 0
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
