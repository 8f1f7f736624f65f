package session

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateSalt(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)
	require.NotEmpty(t, salt)

	decoded, err := base64.RawURLEncoding.DecodeString(salt)
	require.NoError(t, err)
	require.Len(t, decoded, 32)
}

func TestGenerateSaltIsRandom(t *testing.T) {
	a, err := GenerateSalt()
	require.NoError(t, err)
	b, err := GenerateSalt()
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}
