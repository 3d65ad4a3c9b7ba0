package services

import (
	"context"
	"time"

	"yard-sniper/models"
	"yard-sniper/scraper"
	"yard-sniper/storage"
	"yard-sniper/utils"
)

// ScanRequest is one scan over a set of yards.
type ScanRequest struct {
	// Lines are raw query lines; "<base> : v1, v2" lines expand to one query per variant.
	Lines   []string
	Yards   []models.Yard
	Options RefineOptions
}

// ScannerConfig wires a Scanner. History may be nil.
type ScannerConfig struct {
	Registry       *Registry
	Decoder        scraper.VINDecoder
	History        storage.ScanHistoryWriter
	MaxConcurrency int
	RateLimitMs    int
	Now            func() time.Time
	Logger         *utils.Logger
}

// Scanner runs queries against yards one (yard, query) pair at a time.
type Scanner struct {
	registry    *Registry
	decoder     scraper.VINDecoder
	history     storage.ScanHistoryWriter
	refiner     *Refiner
	maxWorkers  int
	rateLimitMs int
	now         func() time.Time
	logger      *utils.Logger
}

// NewScanner creates a Scanner from cfg.
func NewScanner(cfg ScannerConfig) *Scanner {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Scanner{
		registry:    cfg.Registry,
		decoder:     cfg.Decoder,
		history:     cfg.History,
		refiner:     NewRefiner(cfg.Logger),
		maxWorkers:  cfg.MaxConcurrency,
		rateLimitMs: cfg.RateLimitMs,
		now:         now,
		logger:      cfg.Logger,
	}
}

// Scan queries every enabled yard with every expanded query line. A failing
// source only adds diagnostics. Cancelling ctx stops the scan before the next
// (yard, query) pair; what was gathered so far is still returned.
func (s *Scanner) Scan(ctx context.Context, req ScanRequest) *models.ScanReport {
	report := &models.ScanReport{}
	lines := ExpandVariants(req.Lines)
	if len(lines) == 0 {
		report.Diagnostics = append(report.Diagnostics, models.Diagnostic{
			Source: "scanner", Kind: models.DiagInput, Message: "no queries to scan",
		})
		return report
	}

	queries := make([]models.Query, len(lines))
	for i, line := range lines {
		queries[i] = ParseQuery(line)
	}

	var listings []*models.Listing
scan:
	for _, y := range req.Yards {
		if !y.Enabled {
			continue
		}
		adapter := s.registry.Adapter(y)

		for _, q := range queries {
			if ctx.Err() != nil {
				s.logger.Warn("[scanner] Scan cancelled: %v", ctx.Err())
				break scan
			}

			res := s.fetch(ctx, adapter, y, q)
			s.enrich(ctx, res.Listings)
			kept := s.refiner.Refine(res.Listings, q, req.Options)

			s.logger.Info("[scanner] %s | %q: %d found, %d kept", y.Name, q.Raw, len(res.Listings), len(kept))
			for _, d := range res.Diagnostics {
				s.logger.Warn("[scanner] %s (%s): %s", d.Source, d.Kind, d.Message)
			}

			listings = append(listings, kept...)
			report.Diagnostics = append(report.Diagnostics, res.Diagnostics...)
			report.Entries = append(report.Entries, models.ScanEntry{
				Timestamp: s.now(),
				Yard:      y.Name,
				Query:     q.Raw,
				Count:     len(kept),
			})
		}
	}

	report.Listings = s.refiner.Dedup(listings)

	if s.history != nil && len(report.Entries) > 0 {
		if err := s.history.WriteEntries(report.Entries); err != nil {
			s.logger.Warn("[scanner] Scan history write failed: %v", err)
		}
	}
	return report
}

// fetch calls the adapter, turning a panic into a diagnostic so the scan goes on.
func (s *Scanner) fetch(ctx context.Context, a scraper.Adapter, y models.Yard, q models.Query) (res scraper.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = scraper.Result{}
			res.Warn(y.Slug, models.DiagParse, "%s: adapter panic: %v", y.Name, r)
		}
	}()
	return a.FetchListings(ctx, q)
}

// enrich decodes every listing that has a VIN but no decode yet.
func (s *Scanner) enrich(ctx context.Context, listings []*models.Listing) {
	if s.decoder == nil {
		return
	}
	pool := utils.NewWorkerPool(s.maxWorkers, s.rateLimitMs)
	for _, l := range listings {
		if !l.HasVIN() || l.Decoded != nil {
			continue
		}
		l := l
		pool.Submit(func() {
			info := s.decoder.Decode(ctx, l.VIN)
			if !info.IsZero() {
				l.Decoded = &info
			}
		})
	}
	pool.Wait()
}
