// SPDX-License-Identifier: LGPL-3.0-or-later

package envelope

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"
)

type testPayload struct {
	Email string `json:"email"`
	Next  string `json:"next"`
	Count int    `json:"count"`
}

func TestSealOpenRoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	in := testPayload{Email: "alice@example.com", Next: "/dashboard", Count: 3}
	env, err := Seal(priv, in)
	require.NoError(t, err)
	require.NotEmpty(t, env.Payload)
	require.NotEmpty(t, env.Signature)

	var out testPayload
	require.NoError(t, Open(pub, env, &out))
	require.Equal(t, in, out)
}

func TestOpenRejectsTamperedPayload(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	env, err := Seal(priv, testPayload{Email: "alice@example.com"})
	require.NoError(t, err)

	env.Payload = env.Payload + "x"

	var out testPayload
	err = Open(pub, env, &out)
	require.Error(t, err)
	var envErr *Error
	require.ErrorAs(t, err, &envErr)
	require.Equal(t, KindInvalidSignature, envErr.Kind)
}

func TestOpenRejectsWrongKey(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	otherPub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	env, err := Seal(priv, testPayload{Email: "alice@example.com"})
	require.NoError(t, err)

	var out testPayload
	err = Open(otherPub, env, &out)
	require.Error(t, err)
}

func TestOpenRejectsMalformedSignature(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	env, err := Seal(priv, testPayload{Email: "alice@example.com"})
	require.NoError(t, err)
	env.Signature = "not-base58!!"

	var out testPayload
	err = Open(pub, env, &out)
	require.Error(t, err)
	var envErr *Error
	require.ErrorAs(t, err, &envErr)
	require.Equal(t, KindInvalidEncoding, envErr.Kind)
}

func TestCanonicalSortsKeysAndIsDeterministic(t *testing.T) {
	a := map[string]interface{}{"b": 1, "a": 2, "c": map[string]interface{}{"z": 1, "y": 2}}

	encoded1, err := Canonical(a)
	require.NoError(t, err)
	encoded2, err := Canonical(a)
	require.NoError(t, err)
	require.Equal(t, encoded1, encoded2)
	require.Equal(t, `{"a":2,"b":1,"c":{"y":2,"z":1}}`, string(encoded1))
}
