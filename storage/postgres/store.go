// SPDX-License-Identifier: LGPL-3.0-or-later

// Package postgres implements storage.Store against a PostgreSQL database
// reached through pgxpool, adapted from the teacher's pgx-based session
// store for HashRand's refresh/magic-link/secret tables.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hashrand-project/hashrand/storage"
)

// Store implements storage.Store backed by PostgreSQL.
type Store struct {
	pool      *pgxpool.Pool
	refresh   *refreshStore
	magic     *magicLinkStore
	privkey   *privkeyContextStore
	secret    *secretStore
	publicKey *publicKeyStore
}

// Config holds PostgreSQL connection configuration.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// NewStore creates a connection pool and verifies it before returning.
func NewStore(ctx context.Context, cfg *Config) (*Store, error) {
	connString := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)
	return newStoreFromConnString(ctx, connString)
}

// NewStoreFromDSN is NewStore's counterpart for a caller that already has
// a connection string (e.g. from internal/config's STORAGE_DSN), rather
// than the individual fields.
func NewStoreFromDSN(ctx context.Context, dsn string) (*Store, error) {
	return newStoreFromConnString(ctx, dsn)
}

func newStoreFromConnString(ctx context.Context, connString string) (*Store, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &Store{pool: pool}
	store.refresh = &refreshStore{db: pool}
	store.magic = &magicLinkStore{db: pool}
	store.privkey = &privkeyContextStore{db: pool}
	store.secret = &secretStore{db: pool}
	store.publicKey = &publicKeyStore{db: pool}

	return store, nil
}

func (s *Store) RefreshStore() storage.RefreshStore                { return s.refresh }
func (s *Store) MagicLinkStore() storage.MagicLinkStore             { return s.magic }
func (s *Store) PrivkeyContextStore() storage.PrivkeyContextStore { return s.privkey }
func (s *Store) SecretStore() storage.SecretStore                   { return s.secret }
func (s *Store) PublicKeyStore() storage.PublicKeyStore             { return s.publicKey }

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
