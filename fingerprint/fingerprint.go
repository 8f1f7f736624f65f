// SPDX-License-Identifier: LGPL-3.0-or-later

// Package fingerprint encodes and decodes the opaque URL hash used to
// route shared-secret requests (spec.md §4.F): an encrypted, checksummed
// token carrying reference_hash, user_id, and role, so that a URL alone
// never discloses which secret or user it points to, and a tampered URL
// is rejected before any storage lookup happens.
package fingerprint

import (
	"crypto/rand"

	"golang.org/x/crypto/chacha20"

	hrcrypto "github.com/hashrand-project/hashrand/crypto"
)

const (
	referenceHashSize = 32
	userIDSize        = 16
	roleSize          = 1
	checksumSize      = 7
	tweakSize         = chacha20.NonceSize // 12 bytes

	innerSize = referenceHashSize + userIDSize + roleSize
	plainSize = innerSize + checksumSize
	tokenSize = tweakSize + plainSize
)

// Role identifies which side of a shared secret a fingerprint was minted
// for. The two roles share reference_hash but diverge in user_id and
// role, so their URLs are unlinkable from each other.
type Role byte

const (
	RoleSender   Role = 0
	RoleReceiver Role = 1
)

// ErrorKind classifies fingerprint decode failures.
type ErrorKind int

const (
	KindInvalidEncoding ErrorKind = iota
	KindInvalidChecksum
)

// Error wraps a fingerprint decode failure with its classification.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func newError(kind ErrorKind, msg string) *Error { return &Error{Kind: kind, Msg: msg} }

// Fingerprint is the decoded content of a URL hash.
type Fingerprint struct {
	ReferenceHash [referenceHashSize]byte
	UserID        [userIDSize]byte
	Role          Role
}

func cipherKey(master [hrcrypto.MasterKeySize]byte) ([32]byte, error) {
	return hrcrypto.KDF32(master, "url_fingerprint_cipher", []byte("static"))
}

// Encode builds the URL hash for (referenceHash, userID, role) under
// master, returning its Base58 text form. Each call draws a fresh random
// tweak, so encoding the same triple twice yields different-looking but
// equally valid tokens.
func Encode(master [hrcrypto.MasterKeySize]byte, referenceHash [referenceHashSize]byte, userID [userIDSize]byte, role Role) (string, error) {
	inner := make([]byte, 0, innerSize)
	inner = append(inner, referenceHash[:]...)
	inner = append(inner, userID[:]...)
	inner = append(inner, byte(role))

	mac, err := hrcrypto.KDF32(master, "url_fingerprint_mac", inner)
	if err != nil {
		return "", err
	}

	plain := make([]byte, 0, plainSize)
	plain = append(plain, inner...)
	plain = append(plain, mac[:checksumSize]...)

	var tweak [tweakSize]byte
	if _, err := rand.Read(tweak[:]); err != nil {
		return "", err
	}

	key, err := cipherKey(master)
	if err != nil {
		return "", err
	}
	stream, err := chacha20.NewUnauthenticatedCipher(key[:], tweak[:])
	if err != nil {
		return "", err
	}
	cipherText := make([]byte, plainSize)
	stream.XORKeyStream(cipherText, plain)

	token := make([]byte, 0, tokenSize)
	token = append(token, tweak[:]...)
	token = append(token, cipherText...)

	return hrcrypto.Base58Encode(token), nil
}

// Decode reverses Encode. Input that is not Base58 or not a full-length
// token is rejected with KindInvalidEncoding; otherwise the checksum is
// recomputed in constant time and any mismatch (tampering) is rejected with
// KindInvalidChecksum.
func Decode(master [hrcrypto.MasterKeySize]byte, urlHash string) (*Fingerprint, error) {
	token, err := hrcrypto.Base58Decode(urlHash)
	if err != nil {
		return nil, newError(KindInvalidEncoding, "invalid base58 encoding")
	}
	if len(token) != tokenSize {
		return nil, newError(KindInvalidEncoding, "unexpected token length")
	}

	tweak := token[:tweakSize]
	cipherText := token[tweakSize:]

	key, err := cipherKey(master)
	if err != nil {
		return nil, err
	}
	stream, err := chacha20.NewUnauthenticatedCipher(key[:], tweak)
	if err != nil {
		return nil, newError(KindInvalidEncoding, "invalid tweak")
	}
	plain := make([]byte, plainSize)
	stream.XORKeyStream(plain, cipherText)

	inner := plain[:innerSize]
	gotChecksum := plain[innerSize:]

	wantMAC, err := hrcrypto.KDF32(master, "url_fingerprint_mac", inner)
	if err != nil {
		return nil, err
	}
	if !hrcrypto.ConstantTimeEqual(gotChecksum, wantMAC[:checksumSize]) {
		return nil, newError(KindInvalidChecksum, "checksum mismatch")
	}

	fp := &Fingerprint{Role: Role(inner[innerSize-1])}
	copy(fp.ReferenceHash[:], inner[:referenceHashSize])
	copy(fp.UserID[:], inner[referenceHashSize:referenceHashSize+userIDSize])
	return fp, nil
}
