// SPDX-License-Identifier: LGPL-3.0-or-later

// Package storage expresses HashRand's persistence needs as typed
// interfaces, mirroring the teacher's three-interface-plus-facade shape:
// a value type per table, a store interface per concern, and a Store
// facade that hands out each one. storage/memory and storage/postgres
// both implement Store.
package storage

import "time"

// Role distinguishes the sender and receiver views of a shared secret.
type Role uint8

const (
	RoleSender Role = iota
	RoleReceiver
)

func (r Role) String() string {
	if r == RoleReceiver {
		return "receiver"
	}
	return "sender"
}

// RefreshRecord is the server-side half of a refresh cookie: §3's
// "opaque HTTP-only cookie bound to a server-side refresh record".
//
// ClientEd25519Pub/ClientX25519Pub are the client's most recently reported
// ephemeral public keys. The server's own ephemeral signing/ECDH keypair
// for the window is deliberately NOT part of this durable record: it lives
// in the session manager's in-process key store, keyed by Token, and is
// regenerated on rotation or on process restart.
type RefreshRecord struct {
	Token            string
	UserID           [16]byte
	IssuedAt         time.Time
	RefreshExpiresAt time.Time
	ClientEd25519Pub [32]byte
	ClientX25519Pub  [32]byte
}

// MagicLink is the single-use, TTL-bound record a `/login` call creates
// and `/login/magiclink` consumes exactly once.
type MagicLink struct {
	Token           string
	Email           string
	UIHost          string
	Next            string
	EmailLang       string
	ClientEd25519Pub [32]byte
	ClientX25519Pub  [32]byte
	ExpiresAt       time.Time
	CreatedAt       time.Time
}

// PrivkeyContext is the 32-byte seed minted at first magic-link validation
// from which a user's permanent Sistema B keys are deterministically
// re-derived client-side on every login.
type PrivkeyContext struct {
	UserID    [16]byte
	Context   [32]byte
	CreatedAt time.Time
}

// SecretRow is one role's view of a shared secret (table `shared_secrets`).
type SecretRow struct {
	DBIndex          [32]byte
	ReferenceHash    [32]byte
	EncryptedPayload []byte
	ExpiresAt        time.Time
	Role             Role
}

// TrackingRow is the read-accounting row shared by both role views
// (table `shared_secrets_tracking`).
type TrackingRow struct {
	ReferenceHash [32]byte
	PendingReads  int // gates receiver views only; sender views never check or decrement it
	MaxReads      int
	ReadAt        *time.Time
	ExpiresAt     time.Time
	CreatedAt     time.Time
}

// PublicKeyRecord is a user's current permanent Sistema B public key pair,
// published via `/keys/rotate` (table `public_keys`). Unlike PrivkeyContext,
// which is a derivation seed the server mints once, this record is
// client-authored: the server only stores whatever public halves the
// client last asserted, overwriting on every rotation.
type PublicKeyRecord struct {
	UserID        [16]byte
	Ed25519PubKey [32]byte
	X25519PubKey  [32]byte
	UpdatedAt     time.Time
}
