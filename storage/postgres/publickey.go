// SPDX-License-Identifier: LGPL-3.0-or-later

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hashrand-project/hashrand/storage"
)

// publicKeyStore implements storage.PublicKeyStore against table
// `public_keys`.
type publicKeyStore struct {
	db *pgxpool.Pool
}

func (s *publicKeyStore) Upsert(ctx context.Context, rec *storage.PublicKeyRecord) error {
	query := `
		INSERT INTO public_keys (user_id, ed25519_pub_key, x25519_pub_key, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET ed25519_pub_key = EXCLUDED.ed25519_pub_key,
		    x25519_pub_key = EXCLUDED.x25519_pub_key,
		    updated_at = NOW()
	`
	if _, err := s.db.Exec(ctx, query, rec.UserID[:], rec.Ed25519PubKey[:], rec.X25519PubKey[:]); err != nil {
		return fmt.Errorf("failed to upsert public key: %w", err)
	}
	return nil
}

func (s *publicKeyStore) Get(ctx context.Context, userID [16]byte) (*storage.PublicKeyRecord, error) {
	query := `SELECT user_id, ed25519_pub_key, x25519_pub_key, updated_at FROM public_keys WHERE user_id = $1`

	var rec storage.PublicKeyRecord
	var uid, edPub, xPub []byte

	err := s.db.QueryRow(ctx, query, userID[:]).Scan(&uid, &edPub, &xPub, &rec.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get public key: %w", err)
	}

	copy(rec.UserID[:], uid)
	copy(rec.Ed25519PubKey[:], edPub)
	copy(rec.X25519PubKey[:], xPub)
	return &rec, nil
}
