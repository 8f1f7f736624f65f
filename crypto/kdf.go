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

import (
	"io"

	"github.com/zeebo/blake3"
)

// MasterKeySize is the required length of the server master key.
const MasterKeySize = 32

// KDF is HashRand's domain-separated Blake3-keyed derivation function.
// Every call site MUST supply a unique literal context string (spec.md
// §4.A enumerates them: "user_id_v1", "db_index", "url_fingerprint_cipher",
// "url_fingerprint_mac", "payload_key", "sender_copy_key", "ed25519_seed",
// "x25519_seed"). The context is length-prefixed before the caller's input
// so that, e.g., ctx="ab"+input="cd" can never collide with ctx="a"+input="bcd".
//
// Construction: open a Blake3 keyed hasher under `key`, write
// len(ctx)||ctx||input, then read outLen bytes from the hasher's
// extensible digest.
func KDF(key [MasterKeySize]byte, ctx string, input []byte, outLen int) ([]byte, error) {
	if len(ctx) > 255 {
		return nil, ErrInvalidLength
	}
	h, err := blake3.NewKeyed(key[:])
	if err != nil {
		return nil, ErrInvalidLength
	}
	if _, err := h.Write([]byte{byte(len(ctx))}); err != nil {
		return nil, ErrInvalidLength
	}
	if _, err := h.Write([]byte(ctx)); err != nil {
		return nil, ErrInvalidLength
	}
	if _, err := h.Write(input); err != nil {
		return nil, ErrInvalidLength
	}

	out := make([]byte, outLen)
	if _, err := io.ReadFull(h.Digest(), out); err != nil {
		return nil, ErrInvalidLength
	}
	return out, nil
}

// KDF32 is KDF specialized to the common 32-byte output case.
func KDF32(key [MasterKeySize]byte, ctx string, input []byte) ([32]byte, error) {
	var out [32]byte
	b, err := KDF(key, ctx, input, 32)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}
