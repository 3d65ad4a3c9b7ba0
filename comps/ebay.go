package comps

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"yard-sniper/scraper"
)

// ErrBotChallenge is returned when the marketplace served a challenge page
// instead of results.
var ErrBotChallenge = errors.New("comps: bot challenge page")

// priceSelectors are tried in order; the first one yielding a price wins.
var priceSelectors = []string{
	".s-item__price",
	".x-price-approx__price",
	"[itemprop='price']",
}

// PriceSource returns up to max sold prices for a query. An error means the
// source missed; a nil error with no prices means it answered with nothing usable.
type PriceSource interface {
	SoldPrices(ctx context.Context, query string, max int) ([]float64, error)
}

// SoldScraper reads prices from the marketplace's sold and completed search
// results page.
type SoldScraper struct {
	baseURL string
	fetcher scraper.Fetcher
}

// NewSoldScraper creates a SoldScraper for baseURL (for example https://www.ebay.com).
func NewSoldScraper(baseURL string, fetcher scraper.Fetcher) *SoldScraper {
	return &SoldScraper{baseURL: strings.TrimRight(baseURL, "/"), fetcher: fetcher}
}

// SearchURL returns the sold and completed results URL for query.
func (s *SoldScraper) SearchURL(query string) string {
	v := url.Values{}
	v.Set("_nkw", query)
	v.Set("LH_Sold", "1")
	v.Set("LH_Complete", "1")
	return s.baseURL + "/sch/i.html?" + v.Encode()
}

// SoldPrices fetches the results page once. Transport failures, non-2xx
// statuses and challenge pages are misses.
func (s *SoldScraper) SoldPrices(ctx context.Context, query string, max int) ([]float64, error) {
	page, err := s.fetcher.Get(ctx, s.SearchURL(query))
	if err != nil {
		return nil, fmt.Errorf("comps: sold search: %w", err)
	}
	if bytes.Contains(bytes.ToLower(page.Body), []byte("captcha")) {
		return nil, ErrBotChallenge
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, fmt.Errorf("comps: parse sold page: %w", err)
	}
	return ExtractPrices(doc, max), nil
}

// ExtractPrices pulls up to max prices from a results page: the first
// selector that yields any price wins, otherwise every "$" amount in the page
// text is used.
func ExtractPrices(doc *goquery.Document, max int) []float64 {
	for _, sel := range priceSelectors {
		var prices []float64
		doc.Find(sel).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			if v, ok := FirstPrice(el.Text()); ok {
				prices = append(prices, v)
			}
			return len(prices) < max
		})
		if len(prices) > 0 {
			return prices
		}
	}
	return CurrencyPrices(scraper.NodeText(doc.Get(0)), max)
}
