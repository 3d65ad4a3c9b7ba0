package models

import "time"

// ComparableStats summarises sold-price samples for one marketplace query.
// AvgPrice is only meaningful when SampleCount > 0.
type ComparableStats struct {
	AvgPrice    float64
	SampleCount int
}

// HasData reports whether any sample was collected.
func (s ComparableStats) HasData() bool {
	return s.SampleCount > 0
}

// ComparableCacheEntry is one persisted comparable result.
type ComparableCacheEntry struct {
	QueryKey    string
	AvgPrice    float64
	SampleCount int
	FetchedAt   time.Time
}

// Fresh reports whether the entry is younger than ttl at now.
func (e ComparableCacheEntry) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.FetchedAt) < ttl
}

// Stats returns the entry as ComparableStats.
func (e ComparableCacheEntry) Stats() ComparableStats {
	return ComparableStats{AvgPrice: e.AvgPrice, SampleCount: e.SampleCount}
}

// ProfitabilityProfile is the scored outcome for one part query. It is
// derived on demand and never persisted.
type ProfitabilityProfile struct {
	Lane          string
	EbayQuery     string
	AvgPrice      float64
	SampleCount   int
	FlipETA       string
	ConfidencePct int
	Cost          float64
	Ship          float64
	Fee           float64
	NetProfit     float64
	MarginPct     float64
	AutoBuy       bool
	BuyBoth       bool
}
