package redact

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmail(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		in, want string
	}{
		{"foobar@example.com", "fo***@example.com"},
		{"ab@ex.com", "***@ex.com"},
		{"user@", "us***@"},
		{"no-at", "***"},
		{"a@b@c", "***"},
		{"юзер@пример.рф", "юз***@пример.рф"},
	}

	for _, tc := range tcs {
		require.Equal(t, tc.want, Email(tc.in), tc.in)
	}
}

func TestToken(t *testing.T) {
	t.Parallel()

	require.Equal(t, "", Token(""))
	require.Equal(t, "[REDACTED_TOKEN]", Token("eyJhbGciOi..."))
}

func TestHeader(t *testing.T) {
	t.Parallel()

	require.Equal(t, "[REDACTED_TOKEN]", Header("authorization", "Bearer abc"))
	require.Equal(t, "[REDACTED_TOKEN]", Header("Cookie", "sid=1"))
	require.Equal(t, "library-client", Header("User-Agent", "library-client"))
}
