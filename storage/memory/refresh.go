// SPDX-License-Identifier: LGPL-3.0-or-later

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hashrand-project/hashrand/storage"
)

type refreshStore struct {
	mu      sync.RWMutex
	records map[string]*storage.RefreshRecord
}

func (s *refreshStore) Create(ctx context.Context, record *storage.RefreshRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *record
	s.records[record.Token] = &cp
	return nil
}

func (s *refreshStore) Get(ctx context.Context, token string) (*storage.RefreshRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[token]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *record
	return &cp, nil
}

func (s *refreshStore) Rotate(ctx context.Context, oldToken string, fresh *storage.RefreshRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[oldToken]; !ok {
		return storage.ErrNotFound
	}
	delete(s.records, oldToken)

	cp := *fresh
	s.records[fresh.Token] = &cp
	return nil
}

func (s *refreshStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[token]; !ok {
		return storage.ErrNotFound
	}
	delete(s.records, token)
	return nil
}

func (s *refreshStore) DeleteExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var count int64
	for token, record := range s.records {
		if now.After(record.RefreshExpiresAt) {
			delete(s.records, token)
			count++
		}
	}
	return count, nil
}

func (s *refreshStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	var count int64
	for _, record := range s.records {
		if now.Before(record.RefreshExpiresAt) {
			count++
		}
	}
	return count, nil
}
