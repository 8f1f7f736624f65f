// SPDX-License-Identifier: LGPL-3.0-or-later

package envelope

import (
	"crypto/ed25519"
	"encoding/json"

	"github.com/hashrand-project/hashrand/crypto"
)

// Envelope is the wire shape every signed request and response body uses:
// a base64url-encoded canonical JSON payload, and a base58-encoded
// Ed25519 signature over the exact bytes of that base64url string (not
// over the JSON itself, so a verifier needs no canonicalization agreement
// beyond the encoding).
type Envelope struct {
	Payload   string `json:"payload"`
	Signature string `json:"signature"`
}

// Seal canonically encodes payload, base64url-wraps it, and signs the
// resulting string with priv. The signed bytes are the ASCII bytes of the
// base64url string itself.
func Seal(priv ed25519.PrivateKey, payload interface{}) (*Envelope, error) {
	canon, err := Canonical(payload)
	if err != nil {
		return nil, newError(KindInvalidEncoding, "marshal payload: %v", err)
	}

	encoded := crypto.B64URLEncode(canon)
	sig := ed25519.Sign(priv, []byte(encoded))

	return &Envelope{
		Payload:   encoded,
		Signature: crypto.Base58Encode(sig),
	}, nil
}

// Open verifies env's signature against pub and decodes its payload into
// out. Verification happens before decoding: a forged or corrupted
// envelope never reaches the application's JSON unmarshaling.
func Open(pub ed25519.PublicKey, env *Envelope, out interface{}) error {
	sig, err := crypto.Base58Decode(env.Signature)
	if err != nil {
		return newError(KindInvalidEncoding, "decode signature: %v", err)
	}

	if !ed25519.Verify(pub, []byte(env.Payload), sig) {
		return newError(KindInvalidSignature, "signature does not match payload")
	}

	raw, err := crypto.B64URLDecode(env.Payload)
	if err != nil {
		return newError(KindInvalidEncoding, "decode payload: %v", err)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return newError(KindInvalidEncoding, "unmarshal payload: %v", err)
	}
	return nil
}

// SignedBytes returns the exact bytes that Seal signs for a given
// envelope, useful for callers that verify signatures against a detached
// key source (e.g. a JWT-embedded public key) without going through Open.
func SignedBytes(env *Envelope) []byte {
	return []byte(env.Payload)
}
