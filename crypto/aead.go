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

package crypto

import "golang.org/x/crypto/chacha20poly1305"

// AEADSeal encrypts plaintext under key/nonce/aad using ChaCha20-Poly1305,
// returning ciphertext‖tag16 as spec.md §4.A requires.
func AEADSeal(key [32]byte, nonce [chacha20poly1305.NonceSize]byte, aad, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, ErrInvalidLength
	}
	return aead.Seal(nil, nonce[:], plaintext, aad), nil
}

// AEADOpen decrypts a ChaCha20-Poly1305 sealed box. On any failure it
// returns ErrDecryptionFailed without distinguishing authentication
// failure from any other cause, per spec.md §4.A.
func AEADOpen(key [32]byte, nonce [chacha20poly1305.NonceSize]byte, aad, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	pt, err := aead.Open(nil, nonce[:], ciphertext, aad)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return pt, nil
}

// NonceFromPrefix builds a 12-byte AEAD nonce from the leading bytes of a
// larger value (e.g. reference_hash[..12] per spec.md §4.E step 4).
func NonceFromPrefix(b []byte) ([chacha20poly1305.NonceSize]byte, error) {
	var n [chacha20poly1305.NonceSize]byte
	if len(b) < chacha20poly1305.NonceSize {
		return n, ErrInvalidLength
	}
	copy(n[:], b[:chacha20poly1305.NonceSize])
	return n, nil
}
