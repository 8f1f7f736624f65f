// SPDX-License-Identifier: LGPL-3.0-or-later

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hashrand-project/hashrand/storage"
)

type privkeyContextStore struct {
	mu       sync.Mutex
	contexts map[[16]byte]*storage.PrivkeyContext
}

func (s *privkeyContextStore) Get(ctx context.Context, userID [16]byte) (*storage.PrivkeyContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pc, ok := s.contexts[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *pc
	return &cp, nil
}

func (s *privkeyContextStore) GetOrCreate(ctx context.Context, userID [16]byte, mint func() ([32]byte, error)) (*storage.PrivkeyContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pc, ok := s.contexts[userID]; ok {
		cp := *pc
		return &cp, nil
	}

	seed, err := mint()
	if err != nil {
		return nil, err
	}

	pc := &storage.PrivkeyContext{
		UserID:    userID,
		Context:   seed,
		CreatedAt: time.Now(),
	}
	s.contexts[userID] = pc

	cp := *pc
	return &cp, nil
}
