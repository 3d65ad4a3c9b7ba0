// Package comps estimates sold-price comparables for a marketplace query:
// a time-bounded cache, then the marketplace's own sold results, then a
// hosted search API.
package comps

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"yard-sniper/models"
	"yard-sniper/utils"
)

const (
	// DefaultMaxSamples caps the prices collected per call.
	DefaultMaxSamples = 20
	// DefaultFailThreshold is how many primary misses a query may suffer
	// before the primary scrape is skipped for it.
	DefaultFailThreshold = 2
)

// Stage names where an estimate came from.
type Stage string

const (
	StageCache  Stage = "cache"
	StageScrape Stage = "scrape"
	StageAPI    Stage = "api"
	StageNone   Stage = "none"
)

// Diagnostic sources.
const (
	sourceScrape = "ebay"
	sourceAPI    = "serpapi"
	sourceCache  = "comp-cache"
)

// Result is the outcome of one Estimate call. Stats has SampleCount 0 when
// nothing was found.
type Result struct {
	Stats       models.ComparableStats
	Stage       Stage
	Diagnostics []models.Diagnostic
}

func (r *Result) warn(source string, kind models.DiagnosticKind, format string, args ...any) {
	r.Diagnostics = append(r.Diagnostics, models.Diagnostic{
		Source:  source,
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	})
}

// Config wires an Estimator. Primary and Fallback may be nil to disable a
// stage; Cache and Failures default to fresh in-memory state.
type Config struct {
	Primary       PriceSource
	Fallback      PriceSource
	Cache         *Cache
	Failures      *FailureCounter
	FailThreshold int
	Now           func() time.Time
	Logger        *utils.Logger
}

// Estimator runs the comparable pipeline. Its cache and failure counters live
// as long as the Estimator and are safe for concurrent Estimate calls.
type Estimator struct {
	primary       PriceSource
	fallback      PriceSource
	cache         *Cache
	failures      *FailureCounter
	failThreshold int
	now           func() time.Time
	logger        *utils.Logger
}

// NewEstimator creates an Estimator from cfg, filling defaults.
func NewEstimator(cfg Config) *Estimator {
	e := &Estimator{
		primary:       cfg.Primary,
		fallback:      cfg.Fallback,
		cache:         cfg.Cache,
		failures:      cfg.Failures,
		failThreshold: cfg.FailThreshold,
		now:           cfg.Now,
		logger:        cfg.Logger,
	}
	if e.logger == nil {
		e.logger = utils.NewLogger()
	}
	if e.cache == nil {
		e.cache = NewCache(nil, DefaultTTL, e.logger)
	}
	if e.failures == nil {
		e.failures = NewFailureCounter()
	}
	if e.failThreshold <= 0 {
		e.failThreshold = DefaultFailThreshold
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Estimate returns the average sold price and sample count for query. A fresh
// cache entry is returned without any network call. Otherwise the primary
// scrape runs (unless the query has reached the failure threshold), then the
// API fallback when the scrape produced nothing. Found prices are cached;
// an empty outcome is not.
func (e *Estimator) Estimate(ctx context.Context, query string, maxSamples int) Result {
	query = strings.TrimSpace(query)
	if query == "" {
		return Result{Stage: StageNone}
	}
	if maxSamples <= 0 {
		maxSamples = DefaultMaxSamples
	}
	now := e.now()

	if stats, ok := e.cache.Get(query, now); ok {
		return Result{Stats: stats, Stage: StageCache}
	}

	var res Result
	stage := StageScrape
	prices := e.scrape(ctx, query, maxSamples, &res)
	if len(prices) == 0 {
		stage = StageAPI
		prices = e.searchAPI(ctx, query, maxSamples, &res)
	}

	if len(prices) == 0 {
		res.Stage = StageNone
		return res
	}

	res.Stage = stage
	res.Stats = models.ComparableStats{AvgPrice: Mean(prices), SampleCount: len(prices)}
	e.logger.Info("[comps] %q: %d sold items via %s, avg $%.2f", query, len(prices), stage, res.Stats.AvgPrice)

	err := e.cache.Put(models.ComparableCacheEntry{
		QueryKey:    query,
		AvgPrice:    res.Stats.AvgPrice,
		SampleCount: res.Stats.SampleCount,
		FetchedAt:   now,
	})
	if err != nil {
		e.logger.Warn("[comps] Cache write failed: %v", err)
		res.warn(sourceCache, models.DiagConfig, "cache write failed: %v", err)
	}
	return res
}

func (e *Estimator) scrape(ctx context.Context, query string, max int, res *Result) []float64 {
	if e.primary == nil {
		return nil
	}
	if n := e.failures.Count(query); n >= e.failThreshold {
		e.logger.Debug("[comps] Skipping sold scrape for %q after %d misses", query, n)
		return nil
	}

	prices, err := e.primary.SoldPrices(ctx, query, max)
	if err != nil {
		n := e.failures.Inc(query)
		res.warn(sourceScrape, models.DiagTransport, "sold search miss %d for %q: %v", n, query, err)
		return nil
	}
	return prices
}

func (e *Estimator) searchAPI(ctx context.Context, query string, max int, res *Result) []float64 {
	if e.fallback == nil {
		res.warn(sourceAPI, models.DiagConfig, "search API fallback not configured")
		return nil
	}

	prices, err := e.fallback.SoldPrices(ctx, query, max)
	switch {
	case errors.Is(err, ErrNoAPIKey):
		res.warn(sourceAPI, models.DiagConfig, "SERPAPI_KEY not set; search API fallback disabled")
		return nil
	case err != nil:
		res.warn(sourceAPI, models.DiagTransport, "%v", err)
		return nil
	}
	return prices
}
