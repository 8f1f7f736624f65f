// SPDX-License-Identifier: LGPL-3.0-or-later

package identity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	require.Equal(t, "alice@example.com", NormalizeEmail("  Alice@Example.com  "))
}

func TestUserIDDeterministic(t *testing.T) {
	var master [32]byte
	for i := range master {
		master[i] = byte(i)
	}

	id1, err := UserID(master, "alice@example.com")
	require.NoError(t, err)
	id2, err := UserID(master, "Alice@Example.com ")
	require.NoError(t, err)
	require.Equal(t, id1, id2)

	id3, err := UserID(master, "bob@example.com")
	require.NoError(t, err)
	require.NotEqual(t, id1, id3)
}

func TestDeriveUserKeysDeterministic(t *testing.T) {
	ctx := [32]byte{1, 2, 3}

	k1, err := DeriveUserKeys("alice@example.com", ctx)
	require.NoError(t, err)
	k2, err := DeriveUserKeys("alice@example.com", ctx)
	require.NoError(t, err)

	require.Equal(t, k1.Ed25519.PublicKey(), k2.Ed25519.PublicKey())
	require.Equal(t, k1.X25519.PublicKey(), k2.X25519.PublicKey())
}

func TestDeriveUserKeysDistinctPerContext(t *testing.T) {
	ctxA := [32]byte{1}
	ctxB := [32]byte{2}

	kA, err := DeriveUserKeys("alice@example.com", ctxA)
	require.NoError(t, err)
	kB, err := DeriveUserKeys("alice@example.com", ctxB)
	require.NoError(t, err)

	require.NotEqual(t, kA.Ed25519.PublicKey(), kB.Ed25519.PublicKey())
}
