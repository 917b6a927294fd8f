package cache

import (
	"context"
	"fmt"
	"time"

	"spendwise/internal/core"
	applog "spendwise/internal/log"

	"golang.org/x/sync/singleflight"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Cleaner interface for caches that support cleanup
type Cleaner interface {
	CleanExpired() int
}

// ResponseCache memoises derived views of the expense collection. Entries
// are keyed by endpoint, collection version and reference date, so a write
// to the collection makes every older entry unreachable.
type ResponseCache[T any] struct {
	lru   *LRUCache[T]
	group singleflight.Group
}

// NewResponseCache creates a response cache holding at most maxSize entries
func NewResponseCache[T any](maxSize int, ttl time.Duration) *ResponseCache[T] {
	return &ResponseCache[T]{lru: NewLRUCache[T](maxSize, ttl)}
}

// Key builds the cache key for one derived view
func Key(endpoint string, version uint64, ref core.Date) string {
	return fmt.Sprintf("%s|v%d|%s", endpoint, version, ref.String())
}

// GetOrCompute returns the cached value for the key or runs compute once,
// sharing the result with concurrent callers asking for the same key.
// Errors are not cached.
func (rc *ResponseCache[T]) GetOrCompute(key string, compute func() (T, error)) (T, bool, error) {
	if v, ok := rc.lru.Get(key); ok {
		return v, true, nil
	}

	v, err, _ := rc.group.Do(key, func() (any, error) {
		res, err := compute()
		if err != nil {
			return res, err
		}
		rc.lru.Set(key, res)
		return res, nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return v.(T), false, nil
}

// Purge drops every cached response
func (rc *ResponseCache[T]) Purge() { rc.lru.Purge() }

// CleanExpired implements Cleaner
func (rc *ResponseCache[T]) CleanExpired() int { return rc.lru.CleanExpired() }

// Stats returns the underlying cache statistics
func (rc *ResponseCache[T]) Stats() Stats { return rc.lru.Stats() }

// Manager handles cache lifecycle and cleanup
type Manager struct {
	caches      []Cleaner
	logger      *applog.Logger
	stopCleanup chan struct{}
	cleanupDone chan struct{}
	started     bool
}

// NewManager creates a new cache manager
func NewManager(logger *applog.Logger) *Manager {
	return &Manager{
		logger:      logger,
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adds a cache to the manager for cleanup
func (m *Manager) Register(cache Cleaner) {
	m.caches = append(m.caches, cache)
}

// StartCleanup begins periodic cleanup of all registered caches
func (m *Manager) StartCleanup(interval time.Duration) {
	m.started = true
	go m.cleanup(interval)
}

// CleanNow runs one cleanup pass and returns the number of removed entries
func (m *Manager) CleanNow() int {
	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	return total
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.CleanNow(); n > 0 && m.logger != nil {
				m.logger.WithComponent(applog.ComponentCache).DebugContext(context.Background(), "Expired cache entries removed",
					"removed", n)
			}
		case <-m.stopCleanup:
			return
		}
	}
}

// Stop stops the cleanup routine and waits for it to exit
func (m *Manager) Stop() {
	if !m.started {
		return
	}
	m.started = false
	close(m.stopCleanup)
	<-m.cleanupDone
}
