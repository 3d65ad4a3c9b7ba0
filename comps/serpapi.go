package comps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrNoAPIKey is returned by SerpAPI when no key is configured.
var ErrNoAPIKey = errors.New("comps: search API key not configured")

// SerpAPI queries the hosted search API's marketplace engine for sold listings.
type SerpAPI struct {
	url    string
	key    string
	client *resty.Client
}

// NewSerpAPI creates a client for endpoint (for example
// https://serpapi.com/search.json). An empty key disables it.
func NewSerpAPI(endpoint, key string, timeout time.Duration) *SerpAPI {
	client := resty.New()
	client.SetTimeout(timeout)

	return &SerpAPI{url: endpoint, key: key, client: client}
}

// Configured reports whether an API key is set.
func (s *SerpAPI) Configured() bool {
	return s.key != ""
}

type serpResponse struct {
	OrganicResults []struct {
		Price json.RawMessage `json:"price"`
	} `json:"organic_results"`
}

// SoldPrices issues one sold-only search and returns up to max prices.
func (s *SerpAPI) SoldPrices(ctx context.Context, query string, max int) ([]float64, error) {
	if !s.Configured() {
		return nil, ErrNoAPIKey
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"engine":      "ebay",
			"api_key":     s.key,
			"ebay_domain": "ebay.com",
			"_nkw":        query,
			"show_only":   "Sold",
			"_ipg":        "50",
		}).
		Get(s.url)
	if err != nil {
		return nil, fmt.Errorf("comps: search api: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("comps: search api: status %d", resp.StatusCode())
	}

	var body serpResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("comps: search api: parse: %w", err)
	}

	var prices []float64
	for _, r := range body.OrganicResults {
		if v, ok := resultPrice(r.Price); ok {
			prices = append(prices, v)
			if len(prices) >= max {
				break
			}
		}
	}
	return prices, nil
}

// resultPrice accepts the shapes the API uses for a price: an object with an
// extracted number or a raw display string, a bare string or a bare number.
func resultPrice(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}

	var obj struct {
		Extracted *float64 `json:"extracted"`
		Raw       *string  `json:"raw"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.Extracted != nil {
			return validPrice(*obj.Extracted)
		}
		if obj.Raw != nil {
			return LoosePrice(*obj.Raw)
		}
		return 0, false
	}

	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return LoosePrice(str)
	}

	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return validPrice(num)
	}
	return 0, false
}
