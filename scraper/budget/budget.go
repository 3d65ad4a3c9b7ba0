// Package budget reads make/model inventory pages that list vehicles only by
// VIN. Every VIN on the page is decoded to recover year, make and model.
package budget

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"yard-sniper/models"
	"yard-sniper/scraper"
	"yard-sniper/utils"
)

// Config controls the adapter.
type Config struct {
	BaseURL       string
	SnippetRadius int
	// Narrow keeps only VINs whose surrounding text contains every query keyword.
	Narrow bool
}

// Adapter scrapes one VIN-only inventory.
type Adapter struct {
	yard    models.Yard
	cfg     Config
	fetcher scraper.Fetcher
	decoder scraper.VINDecoder
	logger  *utils.Logger
}

// New creates an Adapter. fetcher may render script, since the page is only
// ever read with GET.
func New(yard models.Yard, cfg Config, fetcher scraper.Fetcher, decoder scraper.VINDecoder, logger *utils.Logger) *Adapter {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.SnippetRadius <= 0 {
		cfg.SnippetRadius = scraper.DefaultSnippetRadius
	}
	return &Adapter{yard: yard, cfg: cfg, fetcher: fetcher, decoder: decoder, logger: logger}
}

// InventoryURL returns the page listing make and model.
func (a *Adapter) InventoryURL(mk, model string) string {
	return fmt.Sprintf("%s/current-inventory/?make=%s&model=%s",
		a.cfg.BaseURL, url.QueryEscape(mk), url.QueryEscape(model))
}

// FetchListings implements scraper.Adapter.
func (a *Adapter) FetchListings(ctx context.Context, q models.Query) scraper.Result {
	var res scraper.Result
	if !q.HasMakeModel() {
		res.Warn(a.yard.Slug, models.DiagInput, "%s: could not parse make/model from query %q", a.yard.Name, q.Raw)
		return res
	}

	pageURL := a.InventoryURL(q.Make, q.Model)
	page, err := a.fetcher.Get(ctx, pageURL)
	if err != nil {
		res.Warn(a.yard.Slug, models.DiagTransport, "%s: %v", a.yard.Name, err)
		return res
	}

	text := scraper.VisibleText(page.Body)
	radius := 0
	if a.cfg.Narrow {
		radius = a.cfg.SnippetRadius
	}
	hits := scraper.SweepVINs(text, q.Keywords, radius)

	template := models.Listing{
		SourceID:  a.yard.Slug,
		Yard:      a.yard.Name,
		Query:     q.Raw,
		Link:      pageURL,
		FoundDate: scraper.NormalizeDate(text),
	}
	res.Listings = scraper.SweepListings(ctx, a.decoder, hits, q, template)

	a.logger.Debug("[budget] %s: %d VINs on page, %d kept", a.yard.Name, len(hits), len(res.Listings))
	return res
}
