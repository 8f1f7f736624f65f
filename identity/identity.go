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

// Package identity derives a user's stable user_id and permanent Sistema B
// keypairs from their email address and server-held material (spec.md
// §4.C). It never persists email; every derivation here is a pure
// function of its inputs.
package identity

import (
	"crypto/ecdh"
	"crypto/ed25519"
	"strings"

	"golang.org/x/text/unicode/norm"

	hrcrypto "github.com/hashrand-project/hashrand/crypto"
	"github.com/hashrand-project/hashrand/crypto/keys"
)

// UserIDSize is the truncated length of a derived user_id.
const UserIDSize = 16

// NormalizeEmail lowercases, trims, and NFC-composes an email address so
// that two textually-equivalent addresses derive identical keys and IDs.
func NormalizeEmail(email string) string {
	return norm.NFC.String(strings.ToLower(strings.TrimSpace(email)))
}

// UserID computes the stable 16-byte user_id = KDF("user_id_v1",
// server_master, email_normalized). No row keyed on email is ever
// persisted; this is the only place email touches server-held material.
func UserID(serverMaster [hrcrypto.MasterKeySize]byte, email string) ([UserIDSize]byte, error) {
	var id [UserIDSize]byte
	out, err := hrcrypto.KDF(serverMaster, "user_id_v1", []byte(NormalizeEmail(email)), UserIDSize)
	if err != nil {
		return id, err
	}
	copy(id[:], out)
	return id, nil
}

// Keys holds a user's permanent Sistema B keypairs.
type Keys struct {
	Ed25519 hrcrypto.KeyPair
	X25519  hrcrypto.KeyPair
}

// DeriveUserKeys deterministically derives a user's permanent Ed25519 and
// X25519 keypairs from their normalized email and privkey_context. Rerunning
// with the same inputs, on any platform, reproduces bit-identical keys
// (spec.md §4.C invariant).
func DeriveUserKeys(email string, privkeyContext [32]byte) (*Keys, error) {
	normalized := []byte(NormalizeEmail(email))

	seedEd, err := hrcrypto.KDF32(privkeyContext, "ed25519_seed", normalized)
	if err != nil {
		return nil, err
	}
	edPriv := ed25519.NewKeyFromSeed(seedEd[:])
	edKeyPair, err := keys.NewEd25519KeyPair(edPriv, "")
	if err != nil {
		return nil, err
	}

	seedX, err := hrcrypto.KDF32(privkeyContext, "x25519_seed", normalized)
	if err != nil {
		return nil, err
	}
	xPriv, err := ecdh.X25519().NewPrivateKey(seedX[:])
	if err != nil {
		return nil, err
	}
	xKeyPair, err := keys.NewX25519KeyPair(xPriv, "")
	if err != nil {
		return nil, err
	}

	return &Keys{Ed25519: edKeyPair, X25519: xKeyPair}, nil
}
