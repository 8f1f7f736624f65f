// SPDX-License-Identifier: LGPL-3.0-or-later

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hashrand-project/hashrand/storage"
)

type magicLinkStore struct {
	mu    sync.Mutex
	links map[string]*storage.MagicLink
}

func (s *magicLinkStore) Create(ctx context.Context, link *storage.MagicLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *link
	s.links[link.Token] = &cp
	return nil
}

func (s *magicLinkStore) Consume(ctx context.Context, token string) (*storage.MagicLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.links[token]
	if !ok {
		return nil, storage.ErrNotFound
	}
	delete(s.links, token)
	return link, nil
}

func (s *magicLinkStore) DeleteExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var count int64
	for token, link := range s.links {
		if now.After(link.ExpiresAt) {
			delete(s.links, token)
			count++
		}
	}
	return count, nil
}
