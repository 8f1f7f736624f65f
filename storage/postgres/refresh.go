// SPDX-License-Identifier: LGPL-3.0-or-later

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hashrand-project/hashrand/storage"
)

// refreshStore implements storage.RefreshStore against table
// `refresh_records`.
type refreshStore struct {
	db *pgxpool.Pool
}

func (s *refreshStore) Create(ctx context.Context, record *storage.RefreshRecord) error {
	query := `
		INSERT INTO refresh_records
			(token, user_id, issued_at, refresh_expires_at, client_ed25519_pub, client_x25519_pub)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.Exec(ctx, query,
		record.Token,
		record.UserID[:],
		record.IssuedAt,
		record.RefreshExpiresAt,
		record.ClientEd25519Pub[:],
		record.ClientX25519Pub[:],
	)
	if err != nil {
		return fmt.Errorf("failed to create refresh record: %w", err)
	}
	return nil
}

func (s *refreshStore) Get(ctx context.Context, token string) (*storage.RefreshRecord, error) {
	query := `
		SELECT token, user_id, issued_at, refresh_expires_at, client_ed25519_pub, client_x25519_pub
		FROM refresh_records
		WHERE token = $1
	`
	var record storage.RefreshRecord
	var userID, clientEd, clientX []byte

	err := s.db.QueryRow(ctx, query, token).Scan(
		&record.Token, &userID, &record.IssuedAt, &record.RefreshExpiresAt, &clientEd, &clientX,
	)
	if err == pgx.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get refresh record: %w", err)
	}

	copy(record.UserID[:], userID)
	copy(record.ClientEd25519Pub[:], clientEd)
	copy(record.ClientX25519Pub[:], clientX)
	return &record, nil
}

// Rotate retires oldToken and inserts fresh inside one transaction, so a
// crash between the two can never leave both tokens valid.
func (s *refreshStore) Rotate(ctx context.Context, oldToken string, fresh *storage.RefreshRecord) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `DELETE FROM refresh_records WHERE token = $1`, oldToken)
	if err != nil {
		return fmt.Errorf("failed to delete old refresh record: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO refresh_records
			(token, user_id, issued_at, refresh_expires_at, client_ed25519_pub, client_x25519_pub)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		fresh.Token,
		fresh.UserID[:],
		fresh.IssuedAt,
		fresh.RefreshExpiresAt,
		fresh.ClientEd25519Pub[:],
		fresh.ClientX25519Pub[:],
	)
	if err != nil {
		return fmt.Errorf("failed to insert rotated refresh record: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *refreshStore) Delete(ctx context.Context, token string) error {
	result, err := s.db.Exec(ctx, `DELETE FROM refresh_records WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("failed to delete refresh record: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *refreshStore) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := s.db.Exec(ctx, `DELETE FROM refresh_records WHERE refresh_expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired refresh records: %w", err)
	}
	return result.RowsAffected(), nil
}

func (s *refreshStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM refresh_records WHERE refresh_expires_at > NOW()`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count refresh records: %w", err)
	}
	return count, nil
}
