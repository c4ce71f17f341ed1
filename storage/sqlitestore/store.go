/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package sqlitestore provides a SQLite-backed storage for persisted evaluation caches.
package sqlitestore

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	// Registers the pure-Go "sqlite" database/sql driver.
	_ "modernc.org/sqlite"

	"github.com/acronis/go-evalcache/payload"
	"github.com/acronis/go-evalcache/storage"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS preferences (
    key TEXT PRIMARY KEY,
    blob BLOB NOT NULL,
    updated_at INTEGER NOT NULL
);
`

// Store persists blobs in a SQLite table, one row per storage key.
type Store struct {
	sqlDB *sql.DB
}

var _ storage.Storage = (*Store)(nil)

// Open opens (or creates) a SQLite database at the provided path and ensures the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err = sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err = sqlDB.Exec(schemaSQL); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Load implements storage.Storage.
func (s *Store) Load(key string) (payload.Value, bool, error) {
	if s == nil || s.sqlDB == nil {
		return payload.Value{}, false, fmt.Errorf("storage is not configured")
	}
	var data []byte
	err := s.sqlDB.QueryRow(`SELECT blob FROM preferences WHERE key = ?`, key).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return payload.Value{}, false, nil
		}
		return payload.Value{}, false, fmt.Errorf("select preference %q: %w", key, err)
	}
	blob, err := payload.ParseJSON(data)
	if err != nil {
		return payload.Value{}, false, fmt.Errorf("decode preference %q: %w", key, err)
	}
	return blob, true, nil
}

// Save implements storage.Storage.
func (s *Store) Save(key string, blob payload.Value) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	data, err := blob.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode preference %q: %w", key, err)
	}
	_, err = s.sqlDB.Exec(
		`INSERT INTO preferences (key, blob, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET blob = excluded.blob, updated_at = excluded.updated_at`,
		key, data, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upsert preference %q: %w", key, err)
	}
	return nil
}

// Remove implements storage.Storage.
func (s *Store) Remove(key string) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if _, err := s.sqlDB.Exec(`DELETE FROM preferences WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete preference %q: %w", key, err)
	}
	return nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}
