// Package upullandpay marks inventories that are rendered entirely by
// client-side script and cannot be read by the plain-HTTP scanner.
package upullandpay

import (
	"context"

	"yard-sniper/models"
	"yard-sniper/scraper"
)

// Message explains why the yard yields nothing.
const Message = "inventory is a client-side application; the yard is skipped"

// Adapter always returns an unsupported diagnostic and no listings. It makes
// no network calls and should not be retried.
type Adapter struct {
	yard models.Yard
}

// New creates an Adapter for yard.
func New(yard models.Yard) *Adapter {
	return &Adapter{yard: yard}
}

// FetchListings implements scraper.Adapter.
func (a *Adapter) FetchListings(_ context.Context, _ models.Query) scraper.Result {
	var res scraper.Result
	res.Warn(a.yard.Slug, models.DiagUnsupported, "%s: %s", a.yard.Name, Message)
	return res
}
