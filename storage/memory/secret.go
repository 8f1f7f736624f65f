// SPDX-License-Identifier: LGPL-3.0-or-later

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hashrand-project/hashrand/storage"
)

type secretStore struct {
	mu       sync.Mutex
	rows     map[[32]byte]*storage.SecretRow
	tracking map[[32]byte]*storage.TrackingRow
}

func (s *secretStore) CreatePair(ctx context.Context, sender, receiver *storage.SecretRow, tracking *storage.TrackingRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	senderCp := *sender
	receiverCp := *receiver
	trackingCp := *tracking

	s.rows[sender.DBIndex] = &senderCp
	s.rows[receiver.DBIndex] = &receiverCp
	s.tracking[tracking.ReferenceHash] = &trackingCp
	return nil
}

func (s *secretStore) GetRow(ctx context.Context, dbIndex [32]byte) (*storage.SecretRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[dbIndex]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (s *secretStore) GetTracking(ctx context.Context, referenceHash [32]byte) (*storage.TrackingRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tracking[referenceHash]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

// DecrementPendingReads performs the conditional decrement under the same
// lock used by every other operation, so it can never race a concurrent
// viewer down below zero.
func (s *secretStore) DecrementPendingReads(ctx context.Context, referenceHash [32]byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tracking[referenceHash]
	if !ok {
		return 0, storage.ErrNotFound
	}
	if t.PendingReads > 0 {
		t.PendingReads--
	}
	return t.PendingReads, nil
}

func (s *secretStore) MarkRead(ctx context.Context, referenceHash [32]byte, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tracking[referenceHash]
	if !ok {
		return storage.ErrNotFound
	}
	readAt := at
	t.ReadAt = &readAt
	return nil
}

func (s *secretStore) DeleteRow(ctx context.Context, dbIndex [32]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[dbIndex]; !ok {
		return storage.ErrNotFound
	}
	delete(s.rows, dbIndex)
	return nil
}

func (s *secretStore) DeleteCascade(ctx context.Context, referenceHash [32]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for dbIndex, row := range s.rows {
		if row.ReferenceHash == referenceHash {
			delete(s.rows, dbIndex)
			found = true
		}
	}
	if _, ok := s.tracking[referenceHash]; ok {
		delete(s.tracking, referenceHash)
		found = true
	}
	if !found {
		return storage.ErrNotFound
	}
	return nil
}

func (s *secretStore) DeleteExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var count int64
	expired := make(map[[32]byte]bool)
	for ref, t := range s.tracking {
		if now.After(t.ExpiresAt) {
			expired[ref] = true
			delete(s.tracking, ref)
		}
	}
	for dbIndex, row := range s.rows {
		if expired[row.ReferenceHash] || now.After(row.ExpiresAt) {
			delete(s.rows, dbIndex)
			count++
		}
	}
	return count, nil
}

func (s *secretStore) CountActive(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var count int64
	for _, t := range s.tracking {
		if now.Before(t.ExpiresAt) {
			count++
		}
	}
	return count, nil
}
