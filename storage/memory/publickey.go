// SPDX-License-Identifier: LGPL-3.0-or-later

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hashrand-project/hashrand/storage"
)

type publicKeyStore struct {
	mu   sync.Mutex
	keys map[[16]byte]*storage.PublicKeyRecord
}

func (s *publicKeyStore) Upsert(ctx context.Context, rec *storage.PublicKeyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *rec
	cp.UpdatedAt = time.Now()
	s.keys[rec.UserID] = &cp
	return nil
}

func (s *publicKeyStore) Get(ctx context.Context, userID [16]byte) (*storage.PublicKeyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.keys[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}
