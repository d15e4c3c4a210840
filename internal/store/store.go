package store

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store wraps database access for the air-quality entity store.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store backed by a pgx pool.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Init creates the schema if needed and applies the idempotent seed rows
// (the single province and the component definitions). Seeds use the same
// upsert-on-conflict discipline as ordinary ingestion, so Init is safe to run
// on every boot.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if err := s.seedProvince(ctx); err != nil {
		return fmt.Errorf("seed province: %w", err)
	}
	if err := s.seedComponents(ctx); err != nil {
		return fmt.Errorf("seed components: %w", err)
	}
	return nil
}

// lockKeyspace separates this application's advisory locks from other users of
// the same database.
const lockKeyspace = int32(0x41515331) // "AQS1"

func feedLockKey(feed string) int32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(feed))
	return int32(h.Sum32())
}

// WithFeedLock runs fn while holding the session-level advisory lock for one
// feed kind. Batches for the same feed kind serialize on this lock; different
// feed kinds proceed concurrently. The lock is held on a dedicated connection
// for the duration of fn.
func (s *Store) WithFeedLock(ctx context.Context, feed string, fn func(ctx context.Context) error) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire lock connection: %w", err)
	}
	defer conn.Release()

	key := feedLockKey(feed)
	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock($1, $2)`, lockKeyspace, key); err != nil {
		return fmt.Errorf("advisory lock %s: %w", feed, err)
	}
	defer func() {
		_, _ = conn.Exec(context.WithoutCancel(ctx), `SELECT pg_advisory_unlock($1, $2)`, lockKeyspace, key)
	}()

	return fn(ctx)
}

// withTx runs fn inside a transaction, committing on success and rolling back
// on error. Multi-row repository writes use this so partial application is
// never observable.
func (s *Store) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
