package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"yard-sniper/models"
)

// JSONCacheStore keeps comparable entries in a single JSON file of the form
// {"<query>": {"avg_price": 100.0, "count": 5, "timestamp": 1700000000.0}}.
// The timestamp is in Unix seconds. It is safe for concurrent use within one
// process.
type JSONCacheStore struct {
	mu   sync.Mutex
	path string
}

type jsonCacheEntry struct {
	AvgPrice  *float64 `json:"avg_price"`
	Count     int      `json:"count"`
	Timestamp float64  `json:"timestamp"`
}

// NewJSONCacheStore returns a store backed by path. The file is created on
// the first Save.
func NewJSONCacheStore(path string) *JSONCacheStore {
	return &JSONCacheStore{path: path}
}

// Load reads every entry. A missing file is an empty cache.
func (s *JSONCacheStore) Load() (map[string]models.ComparableCacheEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]models.ComparableCacheEntry)
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return out, fmt.Errorf("cache: read %q: %w", s.path, err)
	}

	var raw map[string]jsonCacheEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return out, fmt.Errorf("cache: parse %q: %w", s.path, err)
	}
	for key, e := range raw {
		entry := models.ComparableCacheEntry{
			QueryKey:    key,
			SampleCount: e.Count,
			FetchedAt:   fromUnixSeconds(e.Timestamp),
		}
		if e.AvgPrice != nil {
			entry.AvgPrice = *e.AvgPrice
		}
		out[key] = entry
	}
	return out, nil
}

// Save rewrites the whole file with entries.
func (s *JSONCacheStore) Save(entries map[string]models.ComparableCacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw := make(map[string]jsonCacheEntry, len(entries))
	for key, e := range entries {
		avg := e.AvgPrice
		raw[key] = jsonCacheEntry{
			AvgPrice:  &avg,
			Count:     e.SampleCount,
			Timestamp: float64(e.FetchedAt.UnixNano()) / float64(time.Second),
		}
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("cache: encode: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("cache: create dir: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("cache: write %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("cache: replace %q: %w", s.path, err)
	}
	return nil
}

// Close is a no-op; the file is not held open.
func (s *JSONCacheStore) Close() error {
	return nil
}

func fromUnixSeconds(ts float64) time.Time {
	sec, frac := math.Modf(ts)
	return time.Unix(int64(sec), int64(frac*float64(time.Second)))
}
