package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const upsertKV = `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
	 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

// KVStore is a durable string-keyed store, one row per key.
type KVStore struct {
	db *sql.DB
}

// NewKVStore wraps db, which must already carry the kv table.
func NewKVStore(db *sql.DB) *KVStore {
	return &KVStore{db: db}
}

// Entry is one key and its value.
type Entry struct {
	Key   string
	Value string
}

// Get returns the value for key. ok is false when the key was never written.
func (s *KVStore) Get(key string) (value string, ok bool, err error) {
	err = s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

// Set writes one key, replacing any previous value.
func (s *KVStore) Set(key, value string) error {
	if _, err := s.db.Exec(upsertKV, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// SetMany writes every entry in one transaction. Either all keys change or
// none do.
func (s *KVStore) SetMany(ctx context.Context, entries []Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, upsertKV, e.Key, e.Value, now); err != nil {
			return fmt.Errorf("set %q: %w", e.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
