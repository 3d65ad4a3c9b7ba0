package upullandpay

import (
	"context"
	"testing"

	"yard-sniper/models"
)

func TestFetchListingsUnsupported(t *testing.T) {
	a := New(models.Yard{Name: "U-Pull-&-Pay Orlando", Slug: "upullandpay-orlando"})

	for i := 0; i < 2; i++ {
		res := a.FetchListings(context.Background(), models.Query{Raw: "2012 honda accord"})
		if len(res.Listings) != 0 {
			t.Errorf("expected no listings, got %d", len(res.Listings))
		}
		if len(res.Diagnostics) != 1 {
			t.Fatalf("expected one diagnostic, got %d", len(res.Diagnostics))
		}
		d := res.Diagnostics[0]
		if d.Kind != models.DiagUnsupported || d.Source != "upullandpay-orlando" {
			t.Errorf("unexpected diagnostic %+v", d)
		}
	}
}
