// Package memory is a process-local db.Store for single-node deployments
// and local development, backed by ttlcache. Expired keys are never
// returned and are removed by the cache's expiry loop.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/kailas-cloud/glossameta/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Store keeps values in a ttlcache without a capacity, so only TTL removes keys.
type Store struct {
	// mu orders writers so Expire cannot resurrect a key deleted concurrently.
	mu        sync.Mutex
	cache     *ttlcache.Cache[string, []byte]
	closeOnce sync.Once
}

// NewStore creates an empty store and starts its expiry loop. Close stops it.
func NewStore() *Store {
	cache := ttlcache.New[string, []byte](
		// Reads behave like Redis GET: they never extend the TTL.
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	)
	go cache.Start()
	return &Store{cache: cache}
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error { return nil }

// WaitForReady returns immediately.
func (s *Store) WaitForReady(_ context.Context, _ time.Duration) error { return nil }

// Close stops the expiry loop and drops all keys. Safe to call more than once.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		s.cache.Stop()
		s.cache.DeleteAll()
	})
}

// Get retrieves a copy of the value stored at key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	item := s.cache.Get(key)
	if item == nil {
		return nil, db.ErrKeyNotFound
	}
	return clone(item.Value()), nil
}

// SetWithTTL stores a copy of value. A non-positive ttl never expires.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Set(key, clone(value), cacheTTL(ttl))
	return nil
}

// Expire resets the TTL of an existing key.
func (s *Store) Expire(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.cache.Get(key)
	if item == nil {
		return db.ErrKeyNotFound
	}
	if item.TTL() == cacheTTL(ttl) {
		s.cache.Touch(key)
		return nil
	}
	s.cache.Set(key, item.Value(), cacheTTL(ttl))
	return nil
}

// Del deletes a key. Deleting a missing key is not an error.
func (s *Store) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Delete(key)
	return nil
}

// Len returns the number of stored keys. Expired keys count until the
// expiry loop removes them.
func (s *Store) Len() int {
	return s.cache.Len()
}

func cacheTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return ttlcache.NoTTL
	}
	return ttl
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
