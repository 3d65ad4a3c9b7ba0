package storage

import "yard-sniper/models"

// CompCacheStore is the interface any comparable cache backend must satisfy.
// Load returns every stored entry; Save replaces the stored set with entries.
type CompCacheStore interface {
	Load() (map[string]models.ComparableCacheEntry, error)
	Save(entries map[string]models.ComparableCacheEntry) error
	Close() error
}

// ScanHistoryWriter is the interface for persisting per (yard, query) scan outcomes.
type ScanHistoryWriter interface {
	WriteEntries(entries []models.ScanEntry) error
	Close() error
}
