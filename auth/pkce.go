package auth

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/jrsteele09/sekai-hub/credentials"
	"golang.org/x/oauth2"
)

const (
	stateLength        = 16 // bytes before hex encoding
	codeVerifierLength = 32
)

// randomHex reads n bytes from r and hex encodes them.
func randomHex(r io.Reader, n int) (string, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func newTransaction(r io.Reader) (credentials.Transaction, error) {
	state, err := randomHex(r, stateLength)
	if err != nil {
		return credentials.Transaction{}, err
	}
	verifier, err := randomHex(r, codeVerifierLength)
	if err != nil {
		return credentials.Transaction{}, err
	}
	return credentials.Transaction{State: state, CodeVerifier: verifier}, nil
}

// CodeChallenge is the S256 PKCE challenge: base64url(SHA-256(verifier)) without padding.
func CodeChallenge(verifier string) string {
	return oauth2.S256ChallengeFromVerifier(verifier)
}
