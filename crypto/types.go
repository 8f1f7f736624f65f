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

// Package crypto provides the dependency-free cryptographic primitives
// HashRand is built on: Ed25519/X25519 key pairs, the ChaCha20-Poly1305
// AEAD, the Blake3-keyed KDF, and the Base58/base64url codecs. No I/O and
// no global state live here.
package crypto

import "crypto"

// KeyType represents the type of cryptographic key.
type KeyType string

const (
	KeyTypeEd25519 KeyType = "Ed25519"
	KeyTypeX25519  KeyType = "X25519"
)

// KeyPair represents a cryptographic key pair. X25519 pairs return
// ErrSignNotSupported/ErrVerifyNotSupported from Sign/Verify since
// key-agreement keys do not sign.
type KeyPair interface {
	// PublicKey returns the public key
	PublicKey() crypto.PublicKey

	// PrivateKey returns the private key
	PrivateKey() crypto.PrivateKey

	// Type returns the key type
	Type() KeyType

	// Sign signs the given message
	Sign(message []byte) ([]byte, error)

	// Verify verifies the signature
	Verify(message, signature []byte) error

	// ID returns a unique identifier for this key pair
	ID() string
}

// KeyStorage provides in-process storage for ephemeral key pairs (used by
// the session layer to hold Sistema A keys). It is never used for permanent
// user keys,
// which the server never possesses.
type KeyStorage interface {
	Store(id string, keyPair KeyPair) error
	Load(id string) (KeyPair, error)
	Delete(id string) error
	List() ([]string, error)
	Exists(id string) bool
}

// ErrorKind enumerates the crypto failure classes spec.md §4.A allows to
// be surfaced to callers. No information beyond the kind is ever attached.
type ErrorKind string

const (
	KindInvalidSignature ErrorKind = "InvalidSignature"
	KindDecryptionFailed ErrorKind = "DecryptionFailed"
	KindInvalidEncoding  ErrorKind = "InvalidEncoding"
	KindInvalidLength    ErrorKind = "InvalidLength"
	KindKeyNotFound      ErrorKind = "KeyNotFound"
)

// Error is the uniform error type returned by this package.
type Error struct {
	Kind ErrorKind
}

func (e *Error) Error() string { return string(e.Kind) }

// Is allows errors.Is(err, crypto.ErrInvalidSignature) comparisons.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newErr(kind ErrorKind) error { return &Error{Kind: kind} }

// Sentinel errors for errors.Is comparisons.
var (
	ErrInvalidSignature   = newErr(KindInvalidSignature)
	ErrDecryptionFailed   = newErr(KindDecryptionFailed)
	ErrInvalidEncoding    = newErr(KindInvalidEncoding)
	ErrInvalidLength      = newErr(KindInvalidLength)
	ErrSignNotSupported   = newErr(KindInvalidSignature)
	ErrVerifyNotSupported = newErr(KindInvalidSignature)
	ErrKeyNotFound        = newErr(KindKeyNotFound)
)
