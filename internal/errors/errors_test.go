package errors_test

import (
	"fmt"
	"testing"

	hubErrors "github.com/jrsteele09/sekai-hub/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestTokenExchangeErrorUnwraps(t *testing.T) {
	err := fmt.Errorf("[auth HandleCallback] %w", &hubErrors.TokenExchangeError{StatusCode: 400, Body: `{"error":"invalid_grant"}`})

	require.True(t, hubErrors.Is(err, hubErrors.ErrTokenExchangeFailed))
	require.Equal(t, 400, hubErrors.StatusCode(err))
	require.Contains(t, err.Error(), "invalid_grant")
}

func TestHTTPErrorStatus(t *testing.T) {
	err := hubErrors.Wrapf(&hubErrors.HTTPError{StatusCode: 503}, "GET %s", "/user/stats")

	var httpErr *hubErrors.HTTPError
	require.True(t, hubErrors.As(err, &httpErr))
	require.Equal(t, 503, httpErr.StatusCode)
	require.Equal(t, 503, hubErrors.StatusCode(err))
	require.Equal(t, 0, hubErrors.StatusCode(hubErrors.ErrNetworkFailure))
}

func TestWrapfNil(t *testing.T) {
	require.NoError(t, hubErrors.Wrapf(nil, "nothing"))
}

func TestIsGrantRejected(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "invalid grant", err: &hubErrors.TokenExchangeError{StatusCode: 400}, want: true},
		{name: "unauthorized", err: fmt.Errorf("refresh: %w", &hubErrors.TokenExchangeError{StatusCode: 401}), want: true},
		{name: "server error", err: &hubErrors.TokenExchangeError{StatusCode: 503}},
		{name: "no status", err: &hubErrors.TokenExchangeError{Body: "missing access_token"}},
		{name: "http error", err: &hubErrors.HTTPError{StatusCode: 400}},
		{name: "network", err: hubErrors.ErrNetworkFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, hubErrors.IsGrantRejected(tt.err))
		})
	}
}
