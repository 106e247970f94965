package lock

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestParseCredential accepts exactly five digits and rejects everything else.
func TestParseCredential(t *testing.T) {
	t.Parallel()

	c, err := ParseCredential("13579")
	require.NoError(t, err)
	require.Equal(t, Credential("13579"), c)

	for _, bad := range []string{"", "1234", "123456", "12a45", " 2345"} {
		_, err = ParseCredential(bad)
		require.ErrorIs(t, err, ErrInvalidCredential, bad)
	}
}

// TestCredentialEqual checks matching, mismatching and invalid credentials.
func TestCredentialEqual(t *testing.T) {
	t.Parallel()

	require.True(t, Credential("24680").Equal("24680"))
	require.False(t, Credential("24680").Equal("00000"))
	require.False(t, Credential("2468").Equal("2468"))
	require.False(t, Credential("\xff\xff\xff\xff\xff").Equal("\xff\xff\xff\xff\xff"))
}

// TestCredentialString never reveals the digits.
func TestCredentialString(t *testing.T) {
	t.Parallel()

	require.NotContains(t, Credential("24680").String(), "2")
}
