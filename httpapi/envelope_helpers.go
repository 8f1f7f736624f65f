// SPDX-License-Identifier: LGPL-3.0-or-later

package httpapi

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	hrcrypto "github.com/hashrand-project/hashrand/crypto"
	"github.com/hashrand-project/hashrand/envelope"
)

const maxRequestBody = 64 * 1024

// pubKeyPair mirrors a client's ephemeral keypair halves as carried in
// JSON request bodies, base64url-encoded per envelope.Canonical's wire
// convention.
type pubKeyPair struct {
	Ed25519PubKey string `json:"ed25519_pub_key"`
	X25519PubKey  string `json:"x25519_pub_key"`
}

func (p pubKeyPair) decode() (ed [32]byte, x [32]byte, err error) {
	edBytes, err := hrcrypto.B64URLDecode(p.Ed25519PubKey)
	if err != nil || len(edBytes) != 32 {
		return ed, x, fmt.Errorf("invalid ed25519_pub_key")
	}
	xBytes, err := hrcrypto.B64URLDecode(p.X25519PubKey)
	if err != nil || len(xBytes) != 32 {
		return ed, x, fmt.Errorf("invalid x25519_pub_key")
	}
	copy(ed[:], edBytes)
	copy(x[:], xBytes)
	return ed, x, nil
}

func encodePubKey(b [32]byte) string { return hrcrypto.B64URLEncode(b[:]) }

// readEnvelope decodes the JSON request body into an envelope.Envelope.
func readEnvelope(r *http.Request) (*envelope.Envelope, error) {
	var env envelope.Envelope
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if err := dec.Decode(&env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return &env, nil
}

// peekPayload base64url-decodes env's payload and unmarshals it into out
// WITHOUT verifying the signature. Used only on pre-auth endpoints, where
// the key the signature is then checked against is either the payload's
// self-asserted public key (/login, via decodeTOFU) or the key on file for
// the magic link the payload names (/login/magiclink).
func peekPayload(env *envelope.Envelope, out interface{}) error {
	raw, err := hrcrypto.B64URLDecode(env.Payload)
	if err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return json.Unmarshal(raw, out)
}

// decodeTOFU implements the trust-on-first-use pattern for /login: the
// envelope's own payload carries the client's
// self-asserted ephemeral Ed25519 public key. A signature that verifies
// against that declared key is the only authentication a brand-new,
// not-yet-established identity can offer.
func decodeTOFU(env *envelope.Envelope, out interface{ tofuPubKey() (ed25519.PublicKey, error) }) error {
	if err := peekPayload(env, out); err != nil {
		return err
	}
	pub, err := out.tofuPubKey()
	if err != nil {
		return err
	}
	return envelope.Open(pub, env, out)
}

// sealResponse seals v under priv and writes the resulting envelope as the
// JSON response body.
func sealResponse(w http.ResponseWriter, priv ed25519.PrivateKey, v interface{}) error {
	env, err := envelope.Seal(priv, v)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, env)
	return nil
}
