/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package backends opens a storage.Storage described by storage.Config.
// It lives apart from the storage package so that importing storage does not pull in SQLite and Redis drivers.
package backends

import (
	"fmt"

	"github.com/acronis/go-evalcache/storage"
	"github.com/acronis/go-evalcache/storage/redisstore"
	"github.com/acronis/go-evalcache/storage/sqlitestore"
)

// Open creates the storage selected by cfg.Type.
func Open(cfg *storage.Config) (storage.Storage, error) {
	switch cfg.Type {
	case storage.TypeMemory, "":
		return storage.NewMemory(), nil
	case storage.TypeFile:
		return storage.NewFile(cfg.File.Path, cfg.File.Format)
	case storage.TypeSQLite:
		return sqlitestore.Open(cfg.SQLite.Path)
	case storage.TypeRedis:
		return redisstore.New(cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
