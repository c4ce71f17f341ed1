/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package evalcache

import (
	"fmt"
	"time"

	"github.com/rs/xid"
	"golang.org/x/time/rate"

	"github.com/acronis/go-evalcache/internal/namehash"
	"github.com/acronis/go-evalcache/log"
	"github.com/acronis/go-evalcache/lrucache"
	"github.com/acronis/go-evalcache/payload"
	"github.com/acronis/go-evalcache/storage"
)

// Default values.
const (
	DefaultMaxUsers   = 5
	DefaultStorageKey = "evalcache.Store.localStorageKey"
)

const persistFailureLogInterval = time.Minute

// Options represents options for the Store.
type Options struct {
	// MaxUsers is the maximum number of users whose snapshots are kept. Zero means DefaultMaxUsers.
	MaxUsers int

	// StorageKey is the key under which the cache is persisted. Empty means DefaultStorageKey.
	StorageKey string

	// NameHashMemoSize is the number of memoized name hashes.
	// Zero means the process-wide memo shared by all stores and ValueSets is used.
	NameHashMemoSize int

	// NameHashMetricsCollector collects usage statistics of the store's own name hash memo.
	// It is ignored when NameHashMemoSize is zero. Nil means metrics are disabled.
	NameHashMetricsCollector lrucache.MetricsCollector

	// Logger is used for logging. Nil means logging is disabled.
	Logger log.FieldLogger

	// MetricsCollector collects usage statistics. Nil means metrics are disabled.
	MetricsCollector MetricsCollector
}

// Store keeps evaluation snapshots of a bounded number of users and persists them into a storage.
// Store is not safe for concurrent use.
type Store struct {
	storage    storage.Storage
	storageKey string
	maxUsers   int
	hasher     *namehash.Hasher
	logger     log.FieldLogger
	metrics    MetricsCollector

	cache map[string]*ValueSet

	persistFailureLog rate.Sometimes
}

// New creates a new empty Store on top of the given storage. Nothing is read from the storage until Load is called.
func New(st storage.Storage, opts Options) (*Store, error) {
	if st == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if opts.MaxUsers < 0 {
		return nil, fmt.Errorf("max users must be greater than 0")
	}
	if opts.MaxUsers == 0 {
		opts.MaxUsers = DefaultMaxUsers
	}
	if opts.StorageKey == "" {
		opts.StorageKey = DefaultStorageKey
	}
	if opts.NameHashMemoSize < 0 {
		return nil, fmt.Errorf("name hash memo size must be greater or equal to 0")
	}
	hasher := namehash.Default()
	if opts.NameHashMemoSize > 0 {
		var err error
		if hasher, err = namehash.New(opts.NameHashMemoSize, opts.NameHashMetricsCollector); err != nil {
			return nil, err
		}
	}
	if opts.Logger == nil {
		opts.Logger = log.NewDisabledLogger()
	}
	if opts.MetricsCollector == nil {
		opts.MetricsCollector = disabledMetrics{}
	}

	return &Store{
		storage:    st,
		storageKey: opts.StorageKey,
		maxUsers:   opts.MaxUsers,
		hasher:     hasher,
		logger:     opts.Logger.With(log.String("store_id", xid.New().String())),
		metrics:    opts.MetricsCollector,
		cache:      make(map[string]*ValueSet),
		persistFailureLog: rate.Sometimes{
			First:    1,
			Interval: persistFailureLogInterval,
		},
	}, nil
}

// Open creates a new Store and loads the persisted cache.
// If loading fails, the error is logged and the Store starts empty.
func Open(st storage.Storage, opts Options) (*Store, error) {
	s, err := New(st, opts)
	if err != nil {
		return nil, err
	}
	if err = s.Load(); err != nil {
		s.logger.Warn("failed to load persisted evaluation cache, starting with empty one", log.Error(err))
	}
	return s, nil
}

// Load replaces the in-memory cache with the persisted one.
// Entries that are not objects are skipped. Only storage errors are returned.
func (s *Store) Load() error {
	blob, found, err := s.storage.Load(s.storageKey)
	if err != nil {
		return fmt.Errorf("load %q from storage: %w", s.storageKey, err)
	}

	cache := make(map[string]*ValueSet)
	skipped := 0
	switch {
	case !found:
	case !blob.IsObject():
		s.logger.Warn("persisted evaluation cache is not an object, ignoring it",
			log.String("kind", blob.Kind().String()))
	default:
		blob.Range(func(userKey string, raw payload.Value) bool {
			if !raw.IsObject() {
				skipped++
				s.logger.Warn("skipping malformed persisted entry",
					log.String("user_key", userKey), log.String("kind", raw.Kind().String()))
				return true
			}
			cache[userKey] = NewValueSet(raw)
			return true
		})
	}
	if skipped > 0 {
		s.metrics.AddLoadSkips(skipped)
	}

	s.cache = cache
	s.evictOverflow()
	s.metrics.SetAmount(len(s.cache))
	s.logger.Debug("persisted evaluation cache loaded", log.Int("users", len(s.cache)), log.Int("skipped", skipped))
	return nil
}

// Save persists the whole cache as a single blob mapping user keys to raw payloads.
func (s *Store) Save() error {
	rawCache := make(map[string]payload.Value, len(s.cache))
	for userKey, vs := range s.cache {
		rawCache[userKey] = vs.RawData()
	}
	if err := s.storage.Save(s.storageKey, payload.Object(rawCache)); err != nil {
		return fmt.Errorf("save %q to storage: %w", s.storageKey, err)
	}
	return nil
}

// Get returns the snapshot cached for the user.
func (s *Store) Get(user User) (*ValueSet, bool) {
	vs, ok := s.cache[user.Key()]
	if !ok {
		s.metrics.IncMisses()
		return nil, false
	}
	s.metrics.IncHits()
	return vs, true
}

// CheckGate returns the gate cached for the user.
// A missing snapshot and a missing gate are not distinguished.
func (s *Store) CheckGate(user User, gateName string) (GateResult, bool) {
	vs, ok := s.Get(user)
	if !ok {
		return GateResult{}, false
	}
	return vs.checkGate(s.hasher, gateName)
}

// GetConfig returns the dynamic config cached for the user.
// A missing snapshot and a missing config are not distinguished.
func (s *Store) GetConfig(user User, configName string) (ConfigResult, bool) {
	vs, ok := s.Get(user)
	if !ok {
		return ConfigResult{}, false
	}
	return vs.getConfig(s.hasher, configName)
}

// GetLayer returns the layer cached for the user.
// A missing snapshot and a missing layer are not distinguished.
func (s *Store) GetLayer(user User, layerName string) (LayerResult, bool) {
	vs, ok := s.Get(user)
	if !ok {
		return LayerResult{}, false
	}
	return vs.getLayer(s.hasher, layerName)
}

// Set replaces the snapshot of the user, evicts the oldest snapshots while there are too many users
// and persists the whole cache. A persistence failure is logged and counted but not returned,
// the in-memory cache stays updated. A nil values is ignored: the cached snapshot is kept and nothing is written.
func (s *Store) Set(user User, values *ValueSet) {
	if values == nil {
		return
	}
	s.cache[user.Key()] = values
	s.evictOverflow()
	s.metrics.SetAmount(len(s.cache))

	if err := s.Save(); err != nil {
		s.metrics.IncPersistFailures()
		s.persistFailureLog.Do(func() {
			s.logger.Warn("failed to persist evaluation cache", log.Error(err))
		})
	}
}

// Len returns the number of users whose snapshots are cached.
func (s *Store) Len() int {
	return len(s.cache)
}

// UserKeys returns sorted keys of cached users.
func (s *Store) UserKeys() []string {
	return sortedKeys(s.cache)
}

// Reset clears the in-memory cache and removes the persisted blob.
func (s *Store) Reset() error {
	s.cache = make(map[string]*ValueSet)
	s.metrics.SetAmount(0)
	if err := s.storage.Remove(s.storageKey); err != nil {
		return fmt.Errorf("remove %q from storage: %w", s.storageKey, err)
	}
	return nil
}

// DeleteLocalStorage removes the persisted blob stored under the key (DefaultStorageKey if empty).
// A Store that is already built keeps its in-memory cache and will persist it again on the next Set.
// Use Store.Reset to clear both.
func DeleteLocalStorage(st storage.Storage, key string) error {
	if key == "" {
		key = DefaultStorageKey
	}
	if err := st.Remove(key); err != nil {
		return fmt.Errorf("remove %q from storage: %w", key, err)
	}
	return nil
}

// evictOverflow removes snapshots with the smallest creation time until the cache fits.
// Among equally old snapshots any one may be removed.
func (s *Store) evictOverflow() {
	evicted := 0
	for len(s.cache) > s.maxUsers {
		var oldestKey string
		var oldest *ValueSet
		for userKey, vs := range s.cache {
			if oldest == nil || vs.creationTime.Before(oldest.creationTime) {
				oldestKey, oldest = userKey, vs
			}
		}
		delete(s.cache, oldestKey)
		evicted++
		s.logger.Debug("evicted oldest user snapshot",
			log.String("user_key", oldestKey), log.Time("creation_time", oldest.creationTime))
	}
	if evicted > 0 {
		s.metrics.AddEvictions(evicted)
	}
}
