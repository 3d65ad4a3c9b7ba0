package comps

import (
	"errors"
	"testing"
	"time"

	"yard-sniper/models"
)

type failingStore struct{}

func (failingStore) Load() (map[string]models.ComparableCacheEntry, error) {
	return nil, errors.New("disk on fire")
}
func (failingStore) Save(map[string]models.ComparableCacheEntry) error { return errors.New("read-only") }
func (failingStore) Close() error                                      { return nil }

func TestCacheFreshness(t *testing.T) {
	now := time.Date(2025, 7, 30, 12, 0, 0, 0, time.UTC)
	store := &memStore{entries: map[string]models.ComparableCacheEntry{
		"fresh": {QueryKey: "fresh", AvgPrice: 10, SampleCount: 1, FetchedAt: now.Add(-time.Hour)},
		"stale": {QueryKey: "stale", AvgPrice: 10, SampleCount: 1, FetchedAt: now.Add(-25 * time.Hour)},
	}}
	c := NewCache(store, DefaultTTL, quietLogger())

	if _, ok := c.Get("fresh", now); !ok {
		t.Error("fresh entry not served")
	}
	if _, ok := c.Get("stale", now); ok {
		t.Error("stale entry served")
	}
	if _, ok := c.Get("missing", now); ok {
		t.Error("missing entry served")
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d; want 2", c.Len())
	}
}

func TestCacheIgnoresEmptyEntries(t *testing.T) {
	now := time.Date(2025, 7, 30, 12, 0, 0, 0, time.UTC)
	store := &memStore{entries: map[string]models.ComparableCacheEntry{
		"empty":    {QueryKey: "empty", AvgPrice: 0, SampleCount: 0, FetchedAt: now.Add(-time.Hour)},
		"negative": {QueryKey: "negative", AvgPrice: 12, SampleCount: -1, FetchedAt: now.Add(-time.Hour)},
		"good":     {QueryKey: "good", AvgPrice: 40, SampleCount: 3, FetchedAt: now.Add(-time.Hour)},
	}}
	c := NewCache(store, DefaultTTL, quietLogger())

	for _, key := range []string{"empty", "negative"} {
		if got, ok := c.Get(key, now); ok {
			t.Errorf("Get(%q) = %+v, true; want absent", key, got)
		}
	}
	if got, ok := c.Get("good", now); !ok || got.SampleCount != 3 {
		t.Errorf("Get(%q) = %+v, %v; want 3 samples", "good", got, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d; want 1", c.Len())
	}

	if err := c.Put(models.ComparableCacheEntry{QueryKey: "put-empty", FetchedAt: now}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, ok := c.Get("put-empty", now); ok {
		t.Error("entry without samples served after Put")
	}
}

func TestCacheStoreFailures(t *testing.T) {
	c := NewCache(failingStore{}, DefaultTTL, quietLogger())
	if c.Len() != 0 {
		t.Fatalf("expected empty cache after load failure")
	}

	now := time.Now()
	err := c.Put(models.ComparableCacheEntry{QueryKey: "x", AvgPrice: 5, SampleCount: 1, FetchedAt: now})
	if err == nil {
		t.Error("expected save error")
	}
	if _, ok := c.Get("x", now); !ok {
		t.Error("entry should stay in memory after a failed save")
	}
}

func TestFailureCounter(t *testing.T) {
	f := NewFailureCounter()
	f.Inc("a")
	if got := f.Inc("a"); got != 2 {
		t.Errorf("Inc = %d; want 2", got)
	}
	if f.Count("b") != 0 {
		t.Error("counters should be independent per query")
	}
}
