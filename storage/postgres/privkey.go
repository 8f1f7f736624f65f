// SPDX-License-Identifier: LGPL-3.0-or-later

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hashrand-project/hashrand/storage"
)

// privkeyContextStore implements storage.PrivkeyContextStore against table
// `privkey_contexts`.
type privkeyContextStore struct {
	db *pgxpool.Pool
}

func (s *privkeyContextStore) Get(ctx context.Context, userID [16]byte) (*storage.PrivkeyContext, error) {
	query := `SELECT user_id, context, created_at FROM privkey_contexts WHERE user_id = $1`

	var pc storage.PrivkeyContext
	var uid, ctxBytes []byte

	err := s.db.QueryRow(ctx, query, userID[:]).Scan(&uid, &ctxBytes, &pc.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get privkey context: %w", err)
	}

	copy(pc.UserID[:], uid)
	copy(pc.Context[:], ctxBytes)
	return &pc, nil
}

// GetOrCreate relies on ON CONFLICT DO NOTHING plus a follow-up read to stay
// race-free when two requests mint a context for the same user_id at once.
func (s *privkeyContextStore) GetOrCreate(ctx context.Context, userID [16]byte, mint func() ([32]byte, error)) (*storage.PrivkeyContext, error) {
	if existing, err := s.Get(ctx, userID); err == nil {
		return existing, nil
	} else if err != storage.ErrNotFound {
		return nil, err
	}

	seed, err := mint()
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO privkey_contexts (user_id, context, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO NOTHING
	`
	if _, err := s.db.Exec(ctx, query, userID[:], seed[:]); err != nil {
		return nil, fmt.Errorf("failed to create privkey context: %w", err)
	}

	return s.Get(ctx, userID)
}
