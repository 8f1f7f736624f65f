// SPDX-License-Identifier: LGPL-3.0-or-later

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hashrand-project/hashrand/storage"
)

// magicLinkStore implements storage.MagicLinkStore against table
// `magic_links`.
type magicLinkStore struct {
	db *pgxpool.Pool
}

func (s *magicLinkStore) Create(ctx context.Context, link *storage.MagicLink) error {
	query := `
		INSERT INTO magic_links
			(token, email, ui_host, next, email_lang, client_ed25519_pub, client_x25519_pub, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.Exec(ctx, query,
		link.Token, link.Email, link.UIHost, link.Next, link.EmailLang,
		link.ClientEd25519Pub[:], link.ClientX25519Pub[:],
		link.ExpiresAt, link.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create magic link: %w", err)
	}
	return nil
}

// Consume deletes the row in the same statement that reads it, using
// DELETE ... RETURNING so the redemption is atomic even under concurrent
// requests racing the same token.
func (s *magicLinkStore) Consume(ctx context.Context, token string) (*storage.MagicLink, error) {
	query := `
		DELETE FROM magic_links
		WHERE token = $1
		RETURNING token, email, ui_host, next, email_lang, client_ed25519_pub, client_x25519_pub, expires_at, created_at
	`
	var link storage.MagicLink
	var edPub, xPub []byte

	err := s.db.QueryRow(ctx, query, token).Scan(
		&link.Token, &link.Email, &link.UIHost, &link.Next, &link.EmailLang,
		&edPub, &xPub, &link.ExpiresAt, &link.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume magic link: %w", err)
	}

	copy(link.ClientEd25519Pub[:], edPub)
	copy(link.ClientX25519Pub[:], xPub)
	return &link, nil
}

func (s *magicLinkStore) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := s.db.Exec(ctx, `DELETE FROM magic_links WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired magic links: %w", err)
	}
	return result.RowsAffected(), nil
}
