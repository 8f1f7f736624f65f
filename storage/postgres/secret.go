// SPDX-License-Identifier: LGPL-3.0-or-later

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hashrand-project/hashrand/storage"
)

// secretStore implements storage.SecretStore against tables
// `shared_secrets` and `shared_secrets_tracking`.
type secretStore struct {
	db *pgxpool.Pool
}

// CreatePair inserts both role rows and the tracking row in one transaction
// so a create is all-or-nothing from the caller's perspective.
func (s *secretStore) CreatePair(ctx context.Context, sender, receiver *storage.SecretRow, tracking *storage.TrackingRow) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	const insertRow = `
		INSERT INTO shared_secrets (db_index, reference_hash, encrypted_payload, expires_at, role)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, row := range []*storage.SecretRow{sender, receiver} {
		if _, err := tx.Exec(ctx, insertRow,
			row.DBIndex[:], row.ReferenceHash[:], row.EncryptedPayload, row.ExpiresAt, uint8(row.Role),
		); err != nil {
			return fmt.Errorf("failed to insert secret row: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO shared_secrets_tracking (reference_hash, pending_reads, max_reads, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		tracking.ReferenceHash[:], tracking.PendingReads, tracking.MaxReads, tracking.ExpiresAt, tracking.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert tracking row: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *secretStore) GetRow(ctx context.Context, dbIndex [32]byte) (*storage.SecretRow, error) {
	query := `SELECT db_index, reference_hash, encrypted_payload, expires_at, role FROM shared_secrets WHERE db_index = $1`

	var row storage.SecretRow
	var idx, ref []byte
	var role uint8

	err := s.db.QueryRow(ctx, query, dbIndex[:]).Scan(&idx, &ref, &row.EncryptedPayload, &row.ExpiresAt, &role)
	if err == pgx.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get secret row: %w", err)
	}

	copy(row.DBIndex[:], idx)
	copy(row.ReferenceHash[:], ref)
	row.Role = storage.Role(role)
	return &row, nil
}

func (s *secretStore) GetTracking(ctx context.Context, referenceHash [32]byte) (*storage.TrackingRow, error) {
	query := `
		SELECT reference_hash, pending_reads, max_reads, read_at, expires_at, created_at
		FROM shared_secrets_tracking
		WHERE reference_hash = $1
	`
	var t storage.TrackingRow
	var ref []byte

	err := s.db.QueryRow(ctx, query, referenceHash[:]).Scan(
		&ref, &t.PendingReads, &t.MaxReads, &t.ReadAt, &t.ExpiresAt, &t.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tracking row: %w", err)
	}

	copy(t.ReferenceHash[:], ref)
	return &t, nil
}

// DecrementPendingReads issues the single conditional UPDATE that lets
// concurrent viewers race safely: the WHERE clause guarantees the
// counter never goes negative no matter how many requests arrive at once.
func (s *secretStore) DecrementPendingReads(ctx context.Context, referenceHash [32]byte) (int, error) {
	query := `
		UPDATE shared_secrets_tracking
		SET pending_reads = pending_reads - 1
		WHERE reference_hash = $1 AND pending_reads > 0
		RETURNING pending_reads
	`
	var remaining int
	err := s.db.QueryRow(ctx, query, referenceHash[:]).Scan(&remaining)
	if err == pgx.ErrNoRows {
		// Either the row doesn't exist, or pending_reads is already 0;
		// fetch the current value so the caller can distinguish the two.
		t, getErr := s.GetTracking(ctx, referenceHash)
		if getErr != nil {
			return 0, getErr
		}
		return t.PendingReads, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to decrement pending reads: %w", err)
	}
	return remaining, nil
}

func (s *secretStore) MarkRead(ctx context.Context, referenceHash [32]byte, at time.Time) error {
	result, err := s.db.Exec(ctx, `UPDATE shared_secrets_tracking SET read_at = $1 WHERE reference_hash = $2`, at, referenceHash[:])
	if err != nil {
		return fmt.Errorf("failed to mark tracking row read: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *secretStore) DeleteRow(ctx context.Context, dbIndex [32]byte) error {
	result, err := s.db.Exec(ctx, `DELETE FROM shared_secrets WHERE db_index = $1`, dbIndex[:])
	if err != nil {
		return fmt.Errorf("failed to delete secret row: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteCascade removes every row for a reference hash in one transaction:
// both role views plus the shared tracking row.
func (s *secretStore) DeleteCascade(ctx context.Context, referenceHash [32]byte) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rowResult, err := tx.Exec(ctx, `DELETE FROM shared_secrets WHERE reference_hash = $1`, referenceHash[:])
	if err != nil {
		return fmt.Errorf("failed to delete secret rows: %w", err)
	}

	trackingResult, err := tx.Exec(ctx, `DELETE FROM shared_secrets_tracking WHERE reference_hash = $1`, referenceHash[:])
	if err != nil {
		return fmt.Errorf("failed to delete tracking row: %w", err)
	}

	if rowResult.RowsAffected() == 0 && trackingResult.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	return tx.Commit(ctx)
}

func (s *secretStore) DeleteExpired(ctx context.Context) (int64, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rowResult, err := tx.Exec(ctx, `
		DELETE FROM shared_secrets
		WHERE expires_at <= NOW()
		   OR reference_hash IN (SELECT reference_hash FROM shared_secrets_tracking WHERE expires_at <= NOW())
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired secret rows: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM shared_secrets_tracking WHERE expires_at <= NOW()`); err != nil {
		return 0, fmt.Errorf("failed to delete expired tracking rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit expiry sweep: %w", err)
	}

	return rowResult.RowsAffected(), nil
}

func (s *secretStore) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM shared_secrets_tracking WHERE expires_at > NOW()`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active secrets: %w", err)
	}
	return count, nil
}
