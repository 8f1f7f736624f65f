// SPDX-License-Identifier: LGPL-3.0-or-later

// Package memory implements storage.Store with in-process maps guarded by
// mutexes, adapted from the teacher's map-based session/nonce/DID store for
// HashRand's refresh/magic-link/secret tables. Used for tests and whenever
// STORAGE_DRIVER is "memory" or unset.
package memory

import (
	"context"

	"github.com/hashrand-project/hashrand/storage"
)

// Store is an in-memory storage.Store. Zero value is not usable; use NewStore.
type Store struct {
	refresh   *refreshStore
	magic     *magicLinkStore
	privkey   *privkeyContextStore
	secret    *secretStore
	publicKey *publicKeyStore
}

func NewStore() *Store {
	return &Store{
		refresh: &refreshStore{records: make(map[string]*storage.RefreshRecord)},
		magic:   &magicLinkStore{links: make(map[string]*storage.MagicLink)},
		privkey: &privkeyContextStore{contexts: make(map[[16]byte]*storage.PrivkeyContext)},
		secret: &secretStore{
			rows:     make(map[[32]byte]*storage.SecretRow),
			tracking: make(map[[32]byte]*storage.TrackingRow),
		},
		publicKey: &publicKeyStore{keys: make(map[[16]byte]*storage.PublicKeyRecord)},
	}
}

func (s *Store) RefreshStore() storage.RefreshStore             { return s.refresh }
func (s *Store) MagicLinkStore() storage.MagicLinkStore         { return s.magic }
func (s *Store) PrivkeyContextStore() storage.PrivkeyContextStore { return s.privkey }
func (s *Store) SecretStore() storage.SecretStore               { return s.secret }
func (s *Store) PublicKeyStore() storage.PublicKeyStore         { return s.publicKey }

func (s *Store) Close() error { return nil }

func (s *Store) Ping(ctx context.Context) error { return nil }

// Clear removes all data; useful for tests.
func (s *Store) Clear() {
	s.refresh.mu.Lock()
	s.refresh.records = make(map[string]*storage.RefreshRecord)
	s.refresh.mu.Unlock()

	s.magic.mu.Lock()
	s.magic.links = make(map[string]*storage.MagicLink)
	s.magic.mu.Unlock()

	s.privkey.mu.Lock()
	s.privkey.contexts = make(map[[16]byte]*storage.PrivkeyContext)
	s.privkey.mu.Unlock()

	s.secret.mu.Lock()
	s.secret.rows = make(map[[32]byte]*storage.SecretRow)
	s.secret.tracking = make(map[[32]byte]*storage.TrackingRow)
	s.secret.mu.Unlock()

	s.publicKey.mu.Lock()
	s.publicKey.keys = make(map[[16]byte]*storage.PublicKeyRecord)
	s.publicKey.mu.Unlock()
}
