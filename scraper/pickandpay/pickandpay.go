// Package pickandpay reads inventories published as a plain-text table with
// one vehicle per line:
//
//	Year Make Model Color Engine Row Arrival Date VIN
//	2011 MAZDA MAZDA6 WHITE L4, 2.5L 99 07/30/25 1YVHZ8BH2B5M22295
//
// When no line has that shape the page is swept for VINs instead.
package pickandpay

import (
	"context"
	"regexp"
	"strings"

	"yard-sniper/models"
	"yard-sniper/scraper"
	"yard-sniper/utils"
	"yard-sniper/vin"
)

const header = "Year Make Model Color Engine Row Arrival Date VIN"

// structuralTokens is year, make, model, color, row, date and VIN.
const structuralTokens = 7

var fourDigits = regexp.MustCompile(`^\d{4}$`)

// Config controls the adapter.
type Config struct {
	URL           string
	MinLineTokens int
	SnippetRadius int
	// Narrow keeps only swept VINs whose surrounding text contains every
	// query keyword.
	Narrow bool
}

// Adapter scrapes one line-table inventory page.
type Adapter struct {
	yard    models.Yard
	cfg     Config
	fetcher scraper.Fetcher
	decoder scraper.VINDecoder
	logger  *utils.Logger
}

// New creates an Adapter. Zero thresholds take the package defaults.
func New(yard models.Yard, cfg Config, fetcher scraper.Fetcher, decoder scraper.VINDecoder, logger *utils.Logger) *Adapter {
	if cfg.MinLineTokens <= 0 {
		cfg.MinLineTokens = scraper.DefaultMinLineTokens
	}
	if cfg.SnippetRadius <= 0 {
		cfg.SnippetRadius = scraper.DefaultSnippetRadius
	}
	return &Adapter{yard: yard, cfg: cfg, fetcher: fetcher, decoder: decoder, logger: logger}
}

// FetchListings implements scraper.Adapter.
func (a *Adapter) FetchListings(ctx context.Context, q models.Query) scraper.Result {
	var res scraper.Result

	page, err := a.fetcher.Get(ctx, a.cfg.URL)
	if err != nil {
		res.Warn(a.yard.Slug, models.DiagTransport, "%s: %v", a.yard.Name, err)
		return res
	}

	lines := scraper.VisibleLines(page.Body)
	res.Listings = a.parseLines(lines, q)
	if len(res.Listings) > 0 {
		a.logger.Debug("[pickandpay] %s: %d table lines", a.yard.Name, len(res.Listings))
		return res
	}

	radius := 0
	if a.cfg.Narrow {
		radius = a.cfg.SnippetRadius
	}
	text := strings.Join(lines, "\n")
	hits := scraper.SweepVINs(text, q.Keywords, radius)

	template := models.Listing{
		SourceID:  a.yard.Slug,
		Yard:      a.yard.Name,
		Query:     q.Raw,
		Link:      a.cfg.URL,
		FoundDate: scraper.NormalizeDate(text),
	}
	res.Listings = scraper.SweepListings(ctx, a.decoder, hits, q, template)
	if len(hits) == 0 {
		res.Warn(a.yard.Slug, models.DiagParse, "%s: no table lines or VINs found", a.yard.Name)
	}
	a.logger.Debug("[pickandpay] %s: VIN sweep kept %d of %d", a.yard.Name, len(res.Listings), len(hits))
	return res
}

func (a *Adapter) parseLines(lines []string, q models.Query) []*models.Listing {
	start := 0
	for i, ln := range lines {
		if strings.HasPrefix(strings.Join(strings.Fields(ln), " "), header) {
			start = i + 1
			break
		}
	}

	var out []*models.Listing
	for _, ln := range lines[start:] {
		if l := a.parseLine(ln, q); l != nil {
			out = append(out, l)
		}
	}
	return out
}

// parseLine reads one table row. The last three tokens are row, arrival date
// and VIN; everything between color and row is the engine.
func (a *Adapter) parseLine(ln string, q models.Query) *models.Listing {
	parts := strings.Fields(ln)
	minTokens := a.cfg.MinLineTokens
	if minTokens < structuralTokens {
		minTokens = structuralTokens
	}
	if len(parts) < minTokens || !fourDigits.MatchString(parts[0]) {
		return nil
	}

	n := len(parts)
	return &models.Listing{
		SourceID:   a.yard.Slug,
		Yard:       a.yard.Name,
		Query:      q.Raw,
		Title:      strings.Join(parts[:3], " "),
		Link:       a.cfg.URL,
		RawSnippet: ln,
		FoundDate:  scraper.NormalizeDate(parts[n-2]),
		Row:        parts[n-3],
		EngineTag:  strings.Join(parts[4:n-3], " "),
		VIN:        vin.Normalize(parts[n-1]),
	}
}
