package auth_test

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/jrsteele09/sekai-hub/auth"
	"github.com/stretchr/testify/require"
)

func TestCodeChallengeRFC7636Vector(t *testing.T) {
	require.Equal(t,
		"E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM",
		auth.CodeChallenge("dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"))
}

func TestCodeChallengeIsUnpaddedBase64URL(t *testing.T) {
	for i := 0; i < 200; i++ {
		b := make([]byte, 32)
		_, err := rand.Read(b)
		require.NoError(t, err)
		verifier := hex.EncodeToString(b)

		challenge := auth.CodeChallenge(verifier)

		require.False(t, strings.ContainsAny(challenge, "+/="), challenge)
		sum := sha256.Sum256([]byte(verifier))
		require.Equal(t, base64.RawURLEncoding.EncodeToString(sum[:]), challenge)
	}
}
