// Copyright (C) 2025 hashrand-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package keys

import (
	"bytes"
	"crypto"
	"crypto/ecdh"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"

	"filippo.io/edwards25519"
	hrcrypto "github.com/hashrand-project/hashrand/crypto"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/cloudflare/circl/hpke"
)

// X25519KeyPair holds an X25519 private key and its corresponding public key.
type X25519KeyPair struct {
	privateKey *ecdh.PrivateKey
	publicKey  *ecdh.PublicKey
	id         string
}

// GenerateX25519KeyPair generates a new ephemeral X25519 key pair.
func GenerateX25519KeyPair() (hrcrypto.KeyPair, error) {
	privateKey, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ephemeral ECDH key: %w", err)
	}
	publicKey := privateKey.PublicKey()

	pubKeyBytes := publicKey.Bytes()
	hash := sha256.Sum256(pubKeyBytes)
	id := hex.EncodeToString(hash[:8])

	return &X25519KeyPair{
		privateKey: privateKey,
		publicKey:  publicKey,
		id:         id,
	}, nil
}

// PublicKey returns the public key.
func (kp *X25519KeyPair) PublicKey() crypto.PublicKey {
	return kp.publicKey
}

// PublicBytesKey returns the raw public key bytes.
func (kp *X25519KeyPair) PublicBytesKey() []byte {
	return kp.publicKey.Bytes()
}

// PrivateKey returns the private key.
func (kp *X25519KeyPair) PrivateKey() crypto.PrivateKey {
	return kp.privateKey
}

// Type returns the key type.
func (kp *X25519KeyPair) Type() hrcrypto.KeyType {
	return hrcrypto.KeyTypeX25519
}

// ID returns a unique identifier for this key pair.
func (kp *X25519KeyPair) ID() string {
	return kp.id
}

// Sign returns an error as X25519 is a key agreement algorithm and does not
// support signing. Use Ed25519 keys for signatures.
func (kp *X25519KeyPair) Sign(message []byte) ([]byte, error) {
	return nil, hrcrypto.ErrSignNotSupported
}

// Verify returns an error as X25519 does not support signature verification.
func (kp *X25519KeyPair) Verify(message, signature []byte) error {
	return hrcrypto.ErrVerifyNotSupported
}

// DeriveSharedSecret computes a 32-byte session key from an X25519 ECDH
// exchange: SHA-256 of the raw ECDH shared secret.
func (kp *X25519KeyPair) DeriveSharedSecret(peerPubBytes []byte) ([]byte, error) {
	curve := ecdh.X25519()
	peerPub, err := curve.NewPublicKey(peerPubBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse peer public key: %w", err)
	}

	shared, err := kp.privateKey.ECDH(peerPub)
	if err != nil {
		return nil, fmt.Errorf("failed to compute shared secret: %w", err)
	}

	sum := sha256.Sum256(shared)
	return sum[:], nil
}

// Encrypt performs ECIES-like encryption using X25519 ECDH: it generates an
// ephemeral shared key with recipientPub and seals plaintext under
// ChaCha20-Poly1305. Returns the random nonce and ciphertext.
func (kp *X25519KeyPair) Encrypt(recipientPub []byte, plaintext []byte) (nonce, ciphertext []byte, err error) {
	key, err := kp.DeriveSharedSecret(recipientPub)
	if err != nil {
		return nil, nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, nil, err
	}
	nonce = make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, err
	}
	ciphertext = aead.Seal(nil, nonce, plaintext, nil)
	return nonce, ciphertext, nil
}

// DecryptWithX25519 decrypts data produced by Encrypt. It takes the sender's
// ephemeral public key, the nonce, and the ciphertext.
func (kp *X25519KeyPair) DecryptWithX25519(ephPub, nonce, ciphertext []byte) ([]byte, error) {
	key, err := kp.DeriveSharedSecret(ephPub)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, err
	}
	return pt, nil
}

// EncryptWithEd25519Peer performs Ephemeral-Static encryption against an
// Ed25519 peer: it converts the peer's Ed25519 public key to X25519, runs
// ECDH, derives a key with HKDF, and seals under ChaCha20-Poly1305. Returns
// ephPub‖nonce‖ciphertext.
func EncryptWithEd25519Peer(edPeerPub crypto.PublicKey, plaintext []byte) ([]byte, error) {
	kp, err := GenerateX25519KeyPair()
	if err != nil {
		return nil, err
	}

	peerX, err := convertEd25519PubToX25519(edPeerPub)
	if err != nil {
		return nil, err
	}

	peerPubKey, err := ecdh.X25519().NewPublicKey(peerX)
	if err != nil {
		return nil, err
	}

	privKey, ok := kp.PrivateKey().(*ecdh.PrivateKey)
	if !ok {
		return nil, err
	}

	raw, err := sharedSecret(privKey.ECDH(peerPubKey))
	if err != nil {
		return nil, err
	}

	pubKey, ok := kp.PublicKey().(*ecdh.PublicKey)
	if !ok {
		return nil, err
	}
	transcript := appendPrefix(pubKey.Bytes(), peerX)
	key, err := deriveHKDFKey(raw, transcript)
	if err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	ct := aead.Seal(nil, nonce, plaintext, transcript)

	return appendPrefix(pubKey.Bytes(), nonce, ct), nil
}

// DecryptWithEd25519Peer reverses EncryptWithEd25519Peer.
func DecryptWithEd25519Peer(privateKey crypto.PrivateKey, packet []byte) ([]byte, error) {
	ePubLen := 32
	nonceLen := chacha20poly1305.NonceSize
	if len(packet) < ePubLen+nonceLen {
		return nil, fmt.Errorf("packet too short")
	}
	ePubBytes := packet[:ePubLen]
	nonce := packet[ePubLen : ePubLen+nonceLen]
	ct := packet[ePubLen+nonceLen:]

	ePubKey, err := ecdh.X25519().NewPublicKey(ePubBytes)
	if err != nil {
		return nil, fmt.Errorf("invalid ephemeral public key: %w", err)
	}

	selfXPrivBytes, err := convertEd25519PrivToX25519(privateKey)
	if err != nil {
		return nil, err
	}

	selfXPrivKey, err := ecdh.X25519().NewPrivateKey(selfXPrivBytes)
	if err != nil {
		return nil, err
	}

	raw, err := sharedSecret(selfXPrivKey.ECDH(ePubKey))
	if err != nil {
		return nil, err
	}

	selfXPub := selfXPrivKey.PublicKey()
	transcript := appendPrefix(ePubBytes, selfXPub.Bytes())
	key, err := deriveHKDFKey(raw, transcript)
	if err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	return aead.Open(nil, nonce, ct, transcript)
}

// deriveHKDFKey derives a 32-byte key using HKDF-SHA256, with the transcript
// as salt and a fixed protocol label as info.
func deriveHKDFKey(raw, transcript []byte) ([]byte, error) {
	h := hkdf.New(sha256.New, raw, transcript, []byte("HashRand-X25519-ChaCha20Poly1305"))
	key := make([]byte, 32)
	if _, err := io.ReadFull(h, key); err != nil {
		return nil, fmt.Errorf("hkdf: %w", err)
	}
	return key, nil
}

// convertEd25519PrivToX25519 turns an Ed25519 private key into the X25519 scalar.
func convertEd25519PrivToX25519(privKey crypto.PrivateKey) ([]byte, error) {
	edPriv, ok := privKey.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("expected ed25519.PrivateKey, got %T", privKey)
	}

	if l := len(edPriv); l != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("bad Ed25519 priv length: %d", l)
	}
	seed := edPriv.Seed()
	h := sha512.Sum512(seed)
	h[0] &= 248
	h[31] &= 127
	h[31] |= 64

	var xPriv [32]byte
	copy(xPriv[:], h[:32])
	return xPriv[:], nil
}

// convertEd25519PubToX25519 turns an Ed25519 public key into the X25519 public key.
func convertEd25519PubToX25519(pubKey crypto.PublicKey) ([]byte, error) {
	edPub, ok := pubKey.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("expected ed25519.PublicKey, got %T", pubKey)
	}

	if l := len(edPub); l != ed25519.PublicKeySize {
		return nil, fmt.Errorf("bad Ed25519 pub length: %d", l)
	}
	P, err := new(edwards25519.Point).SetBytes(edPub)
	if err != nil {
		return nil, fmt.Errorf("invalid Ed25519 pub: %w", err)
	}
	return P.BytesMontgomery(), nil
}

func sharedSecret(dh []byte, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}
	var zero [32]byte
	if subtle.ConstantTimeCompare(dh, zero[:]) == 1 {
		return nil, fmt.Errorf("x25519: low-order or identity point")
	}
	return dh, nil
}

// appendPrefix concatenates multiple byte slices into one.
func appendPrefix(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

// HPKEDeriveSharedSecretToX25519Peer establishes an HPKE Base context to the
// recipient's X25519 public key and returns (enc, exporterSecret), used to
// deliver privkey_context per spec.md §5.C. Both parties must use identical
// info and exportCtx.
func HPKEDeriveSharedSecretToX25519Peer(
	peer *ecdh.PublicKey,
	info []byte,
	exportCtx []byte,
	exportLen int,
) (enc []byte, exporterSecret []byte, err error) {
	suite := hpke.NewSuite(
		hpke.KEM_X25519_HKDF_SHA256,
		hpke.KDF_HKDF_SHA256,
		hpke.AEAD_ChaCha20Poly1305,
	)

	kem := hpke.KEM_X25519_HKDF_SHA256.Scheme()
	rp, err := kem.UnmarshalBinaryPublicKey(peer.Bytes())
	if err != nil {
		return nil, nil, fmt.Errorf("hpke unmarshal pub: %w", err)
	}

	sender, err := suite.NewSender(rp, info)
	if err != nil {
		return nil, nil, fmt.Errorf("hpke new sender: %w", err)
	}

	enc, sealer, err := sender.Setup(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("hpke setup: %w", err)
	}

	secret := sealer.Export(exportCtx, uint(exportLen))
	return enc, secret, nil
}

// HPKEOpenSharedSecretWithX25519Priv takes the recipient's X25519 private key
// and the sender's enc, and reproduces the same exporterSecret.
func HPKEOpenSharedSecretWithX25519Priv(
	priv *ecdh.PrivateKey,
	enc []byte,
	info []byte,
	exportCtx []byte,
	exportLen int,
) (exporterSecret []byte, err error) {
	suite := hpke.NewSuite(
		hpke.KEM_X25519_HKDF_SHA256,
		hpke.KDF_HKDF_SHA256,
		hpke.AEAD_ChaCha20Poly1305,
	)

	kem := hpke.KEM_X25519_HKDF_SHA256.Scheme()
	skR, err := kem.UnmarshalBinaryPrivateKey(priv.Bytes())
	if err != nil {
		return nil, fmt.Errorf("hpke unmarshal priv: %w", err)
	}

	receiver, err := suite.NewReceiver(skR, info)
	if err != nil {
		return nil, fmt.Errorf("hpke new receiver: %w", err)
	}

	opener, err := receiver.Setup(enc)
	if err != nil {
		return nil, fmt.Errorf("hpke receiver setup: %w", err)
	}

	secret := opener.Export(exportCtx, uint(exportLen))
	return secret, nil
}

// HPKEDeriveSharedSecretToPeer and HPKEOpenSharedSecretWithPriv accept
// crypto.PublicKey/crypto.PrivateKey and type-assert to *ecdh.PublicKey/*ecdh.PrivateKey.

func HPKEDeriveSharedSecretToPeer(
	pub crypto.PublicKey,
	info []byte,
	exportCtx []byte,
	exportLen int,
) (enc []byte, exporterSecret []byte, err error) {
	p, ok := pub.(*ecdh.PublicKey)
	if !ok {
		return nil, nil, fmt.Errorf("expected *ecdh.PublicKey, got %T", pub)
	}

	if p.Curve() != ecdh.X25519() {
		return nil, nil, fmt.Errorf("unsupported KEM curve: want X25519")
	}
	return HPKEDeriveSharedSecretToX25519Peer(p, info, exportCtx, exportLen)
}

func HPKEOpenSharedSecretWithPriv(
	priv crypto.PrivateKey,
	enc []byte,
	info []byte,
	exportCtx []byte,
	exportLen int,
) (exporterSecret []byte, err error) {
	p, ok := priv.(*ecdh.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("expected *ecdh.PrivateKey, got %T", priv)
	}

	if p.Curve() != ecdh.X25519() {
		return nil, fmt.Errorf("unsupported KEM curve: want X25519")
	}
	return HPKEOpenSharedSecretWithX25519Priv(p, enc, info, exportCtx, exportLen)
}

// HPKESealAndExportToX25519Peer seals plaintext to peer while also exporting
// a shared secret, returning packet = enc‖ciphertext.
func HPKESealAndExportToX25519Peer(
	peer crypto.PublicKey,
	plaintext []byte,
	info []byte,
	exportCtx []byte,
	exportLen int,
) (packet []byte, exporterSecret []byte, err error) {

	pubKey, ok := peer.(*ecdh.PublicKey)
	if !ok {
		return nil, nil, fmt.Errorf("hpke: invalid key type, expected ECDH but got %T", peer)
	}
	suite := hpke.NewSuite(
		hpke.KEM_X25519_HKDF_SHA256,
		hpke.KDF_HKDF_SHA256,
		hpke.AEAD_ChaCha20Poly1305,
	)

	kem := hpke.KEM_X25519_HKDF_SHA256.Scheme()
	rp, err := kem.UnmarshalBinaryPublicKey(pubKey.Bytes())
	if err != nil {
		return nil, nil, fmt.Errorf("hpke unmarshal pub: %w", err)
	}

	sender, err := suite.NewSender(rp, info)
	if err != nil {
		return nil, nil, fmt.Errorf("hpke new sender: %w", err)
	}

	enc, sealer, err := sender.Setup(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("hpke setup: %w", err)
	}

	ct, err := sealer.Seal(plaintext, info)
	if err != nil {
		return nil, nil, fmt.Errorf("hpke seal: %w", err)
	}

	secret := sealer.Export(exportCtx, uint(exportLen))
	return append(append([]byte{}, enc...), ct...), secret, nil
}

// HPKEOpenAndExportWithX25519Priv reverses HPKESealAndExportToX25519Peer.
func HPKEOpenAndExportWithX25519Priv(
	priv crypto.PrivateKey,
	packet []byte,
	info []byte,
	exportCtx []byte,
	exportLen int,
) (plaintext []byte, exporterSecret []byte, err error) {
	privKey, ok := priv.(*ecdh.PrivateKey)
	if !ok {
		return nil, nil, fmt.Errorf("hpke: invalid key type, expected ECDH but got %T", priv)
	}

	const encLen = 32
	if len(packet) < encLen {
		return nil, nil, fmt.Errorf("packet too short: %d", len(packet))
	}
	enc := packet[:encLen]
	ct := packet[encLen:]

	suite := hpke.NewSuite(
		hpke.KEM_X25519_HKDF_SHA256,
		hpke.KDF_HKDF_SHA256,
		hpke.AEAD_ChaCha20Poly1305,
	)

	kem := hpke.KEM_X25519_HKDF_SHA256.Scheme()
	skR, err := kem.UnmarshalBinaryPrivateKey(privKey.Bytes())
	if err != nil {
		return nil, nil, fmt.Errorf("hpke unmarshal priv: %w", err)
	}

	receiver, err := suite.NewReceiver(skR, info)
	if err != nil {
		return nil, nil, fmt.Errorf("hpke new receiver: %w", err)
	}

	opener, err := receiver.Setup(enc)
	if err != nil {
		return nil, nil, fmt.Errorf("hpke receiver setup: %w", err)
	}

	pt, err := opener.Open(ct, info)
	if err != nil {
		return nil, nil, fmt.Errorf("hpke open: %w", err)
	}

	secret := opener.Export(exportCtx, uint(exportLen))
	return pt, secret, nil
}
