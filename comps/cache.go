package comps

import (
	"sync"
	"time"

	"yard-sniper/models"
	"yard-sniper/storage"
	"yard-sniper/utils"
)

// DefaultTTL is how long a cached comparable is served before it is refreshed.
const DefaultTTL = 24 * time.Hour

// Cache holds comparable results for the process lifetime. It is loaded fully
// from its store at construction and rewritten fully on every Put.
// It is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]models.ComparableCacheEntry
	store   storage.CompCacheStore
	ttl     time.Duration
	logger  *utils.Logger
}

// NewCache loads every entry with samples from store. A nil store keeps the
// cache in memory only. Load failures are logged and start an empty cache.
func NewCache(store storage.CompCacheStore, ttl time.Duration, logger *utils.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		entries: make(map[string]models.ComparableCacheEntry),
		store:   store,
		ttl:     ttl,
		logger:  logger,
	}
	if store == nil {
		return c
	}

	loaded, err := store.Load()
	if err != nil {
		logger.Warn("[comps] Cache load failed, starting empty: %v", err)
		return c
	}
	skipped := 0
	for k, e := range loaded {
		if e.SampleCount <= 0 {
			skipped++
			continue
		}
		c.entries[k] = e
	}
	logger.Debug("[comps] Loaded %d cached comparables (%d empty skipped)", len(c.entries), skipped)
	return c
}

// Get returns the stats cached for key when the entry is younger than the TTL
// at now. Entries without samples are never served.
func (c *Cache) Get(key string, now time.Time) (models.ComparableStats, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.SampleCount <= 0 || !e.Fresh(now, c.ttl) {
		return models.ComparableStats{}, false
	}
	return e.Stats(), true
}

// Put records an entry and persists the full set. The in-memory entry is
// kept even when persisting fails.
func (c *Cache) Put(e models.ComparableCacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[e.QueryKey] = e
	if c.store == nil {
		return nil
	}
	snapshot := make(map[string]models.ComparableCacheEntry, len(c.entries))
	for k, v := range c.entries {
		snapshot[k] = v
	}
	return c.store.Save(snapshot)
}

// Len returns the number of entries held, fresh or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// FailureCounter counts primary scrape misses per query string for the
// process lifetime. It is safe for concurrent use.
type FailureCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewFailureCounter creates an empty FailureCounter.
func NewFailureCounter() *FailureCounter {
	return &FailureCounter{counts: make(map[string]int)}
}

// Inc records a miss for key and returns the new count.
func (f *FailureCounter) Inc(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[key]++
	return f.counts[key]
}

// Count returns the misses recorded for key.
func (f *FailureCounter) Count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[key]
}
