// Package scraper defines the contract shared by every inventory source
// adapter, and the fetchers and text helpers they are built on.
package scraper

import (
	"context"
	"errors"
	"fmt"

	"yard-sniper/models"
)

// ErrMethodNotSupported is returned by fetchers that cannot issue a request kind.
var ErrMethodNotSupported = errors.New("scraper: method not supported by fetcher")

// Page is a fetched document.
type Page struct {
	URL        string
	StatusCode int
	Body       []byte
}

// Fetcher retrieves documents from a source. Implementations return a non-nil
// error for transport failures and non-2xx responses.
type Fetcher interface {
	Get(ctx context.Context, url string) (*Page, error)
	PostForm(ctx context.Context, url string, form map[string]string) (*Page, error)
}

// VINDecoder resolves a VIN to vehicle details. Decode never fails; an empty
// VinInfo means nothing is known.
type VINDecoder interface {
	Decode(ctx context.Context, vin string) models.VinInfo
}

// Result is what one adapter call produces. Failures are reported as
// diagnostics alongside whatever listings were extracted.
type Result struct {
	Listings    []*models.Listing
	Diagnostics []models.Diagnostic
}

// Warn appends a diagnostic to the result.
func (r *Result) Warn(source string, kind models.DiagnosticKind, format string, args ...any) {
	r.Diagnostics = append(r.Diagnostics, models.Diagnostic{
		Source:  source,
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	})
}

// Adapter extracts listings for one yard. FetchListings must not panic and
// reports every failure through Result.Diagnostics.
type Adapter interface {
	FetchListings(ctx context.Context, q models.Query) Result
}

// AdapterFunc lets a plain function act as an Adapter.
type AdapterFunc func(ctx context.Context, q models.Query) Result

func (f AdapterFunc) FetchListings(ctx context.Context, q models.Query) Result {
	return f(ctx, q)
}

const (
	// DefaultMinLineTokens is the fewest whitespace tokens a line-table row may have.
	DefaultMinLineTokens = 8
	// DefaultSnippetRadius is the window, in characters, searched around a VIN
	// for query keywords.
	DefaultSnippetRadius = 120
)
