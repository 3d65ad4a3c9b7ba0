package budget

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"yard-sniper/models"
	"yard-sniper/scraper"
	"yard-sniper/utils"
)

type stubDecoder map[string]models.VinInfo

func (s stubDecoder) Decode(_ context.Context, v string) models.VinInfo { return s[v] }

func newTestLogger() *utils.Logger {
	l := utils.NewLogger()
	l.SetOutput(io.Discard)
	return l
}

func TestFetchListingsVINSweep(t *testing.T) {
	var gotMake, gotModel string
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/current-inventory/" {
			http.NotFound(w, r)
			return
		}
		gotMake, gotModel = r.URL.Query().Get("make"), r.URL.Query().Get("model")
		fmt.Fprint(w, `<ul>
			<li>1YVHZ8BH2B5M22295 arrived 08/02/25</li>
			<li>JM1GJ1V58F1012345</li>
			<li>1YVHZ8BH2B5M22295</li>
			<li>2T1BURHE0JC012345</li>
		</ul>`)
	}))
	defer testServer.Close()

	dec := stubDecoder{
		"1YVHZ8BH2B5M22295": {Year: 2011, Make: "MAZDA", Model: "Mazda6"},
		"JM1GJ1V58F1012345": {Year: 2015, Make: "MAZDA", Model: "6"},
		"2T1BURHE0JC012345": {Year: 2018, Make: "TOYOTA", Model: "Corolla"},
	}
	yard := models.Yard{Name: "Budget U Pull It", Slug: "budgetupullit"}
	a := New(yard, Config{BaseURL: testServer.URL + "/"}, scraper.NewCollyFetcher(5*time.Second), dec, newTestLogger())

	q := models.Query{Raw: "2010-2013 Mazda 6", Make: "MAZDA", Model: "MAZDA6"}
	res := a.FetchListings(context.Background(), q)

	if gotMake != "MAZDA" || gotModel != "MAZDA6" {
		t.Errorf("query params = %q/%q", gotMake, gotModel)
	}
	if len(res.Listings) != 1 {
		t.Fatalf("got %d listings, want 1 (%+v)", len(res.Listings), res.Listings)
	}
	l := res.Listings[0]
	if l.Title != "2011 MAZDA Mazda6" || l.VIN != "1YVHZ8BH2B5M22295" {
		t.Errorf("unexpected listing %+v", l)
	}
	if l.Link != a.InventoryURL("MAZDA", "MAZDA6") {
		t.Errorf("link = %q", l.Link)
	}
	if l.FoundDate.IsZero() {
		t.Error("expected a best-effort found date")
	}
}

func TestFetchListingsUnparseableQuery(t *testing.T) {
	var hits int
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer testServer.Close()

	a := New(models.Yard{Name: "Budget", Slug: "budgetupullit"}, Config{BaseURL: testServer.URL},
		scraper.NewCollyFetcher(time.Second), stubDecoder{}, newTestLogger())
	res := a.FetchListings(context.Background(), models.Query{Raw: "2012 AWD"})

	if len(res.Listings) != 0 || hits != 0 {
		t.Errorf("expected no listings and no request, got %d listings, %d requests", len(res.Listings), hits)
	}
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Kind != models.DiagInput {
		t.Errorf("expected an input diagnostic, got %+v", res.Diagnostics)
	}
}
