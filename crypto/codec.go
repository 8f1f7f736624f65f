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
	"crypto/subtle"
	"encoding/base64"

	"github.com/mr-tron/base58"
)

// Base58Encode encodes using the Bitcoin alphabet (no 0OIl), for
// human-visible identifiers: reference codes, URL hashes, magic tokens.
func Base58Encode(b []byte) string { return base58.Encode(b) }

// Base58Decode reverses Base58Encode.
func Base58Decode(s string) ([]byte, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return nil, ErrInvalidEncoding
	}
	return b, nil
}

// B64URLEncode encodes using URL-safe base64 without padding, for
// envelope payloads.
func B64URLEncode(b []byte) string { return base64.RawURLEncoding.EncodeToString(b) }

// B64URLDecode reverses B64URLEncode.
func B64URLDecode(s string) ([]byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, ErrInvalidEncoding
	}
	return b, nil
}

// ConstantTimeEqual compares two secret-derived byte slices without
// leaking timing information. Unequal-length inputs are never equal but
// that length comparison is not constant-time; callers must not rely on
// it to hide a length secret (none of HashRand's comparisons do — all
// compared values have a fixed, public length).
func ConstantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
