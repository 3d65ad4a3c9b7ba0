package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"yard-sniper/models"
	"yard-sniper/scraper"
	"yard-sniper/scraper/budget"
	"yard-sniper/scraper/budgets3"
	"yard-sniper/scraper/lkq"
	"yard-sniper/scraper/pickandpay"
	"yard-sniper/scraper/upullandpay"
)

type mapDecoder struct {
	infos map[string]models.VinInfo
	calls int64
}

func (d *mapDecoder) Decode(_ context.Context, v string) models.VinInfo {
	atomic.AddInt64(&d.calls, 1)
	return d.infos[v]
}

type memHistory struct {
	mu      sync.Mutex
	entries []models.ScanEntry
}

func (h *memHistory) WriteEntries(entries []models.ScanEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, entries...)
	return nil
}

func (h *memHistory) Close() error { return nil }

const sorentoVIN = "5XYKUDA22CG123456"

func goodYard(ctx context.Context, q models.Query) scraper.Result {
	return scraper.Result{Listings: []*models.Listing{
		{SourceID: "good", Yard: "Good Yard", Title: "2012 KIA SORENTO", VIN: sorentoVIN, Link: "u1"},
		{SourceID: "good", Yard: "Good Yard", Title: "2012 KIA SORENTO LX", VIN: sorentoVIN, Link: "u2"},
		{SourceID: "good", Yard: "Good Yard", Title: "2012 HONDA ACCORD", Link: "u3"},
		{SourceID: "good", Yard: "Good Yard", Title: "2010 KIA SORENTO", Link: "u4"},
	}}
}

func brokenYard(ctx context.Context, q models.Query) scraper.Result {
	var res scraper.Result
	res.Warn("broken", models.DiagTransport, "connection refused")
	return res
}

func newTestScanner(dec *mapDecoder, hist *memHistory) *Scanner {
	reg := NewRegistry(func(models.Yard) scraper.Adapter { return scraper.AdapterFunc(brokenYard) })
	reg.Register("good", func(models.Yard) scraper.Adapter { return scraper.AdapterFunc(goodYard) })
	reg.Register("panics", func(models.Yard) scraper.Adapter {
		return scraper.AdapterFunc(func(context.Context, models.Query) scraper.Result { panic("nil card") })
	})

	cfg := ScannerConfig{
		Registry:       reg,
		Decoder:        dec,
		MaxConcurrency: 2,
		Now:            func() time.Time { return time.Date(2025, 7, 30, 9, 0, 0, 0, time.UTC) },
		Logger:         newTestLogger(),
	}
	if hist != nil {
		cfg.History = hist
	}
	return NewScanner(cfg)
}

func TestScanFailingSourceDoesNotStopOthers(t *testing.T) {
	dec := &mapDecoder{infos: map[string]models.VinInfo{
		sorentoVIN: {Year: 2012, Make: "KIA", Model: "Sorento", Drivetrain: models.DriveAWD},
	}}
	hist := &memHistory{}
	s := newTestScanner(dec, hist)

	report := s.Scan(context.Background(), ScanRequest{
		Lines: []string{"2011-2013 Kia Sorento", "  "},
		Yards: []models.Yard{
			{Name: "Broken Yard", Slug: "broken", Enabled: true},
			{Name: "Panicky Yard", Slug: "panics", Enabled: true},
			{Name: "Good Yard", Slug: "good", Enabled: true},
			{Name: "Closed Yard", Slug: "good", Enabled: false},
		},
	})

	if diff := cmp.Diff([]string{"2012 KIA SORENTO"}, titles(report.Listings)); diff != "" {
		t.Errorf("listings mismatch (-want +got):\n%s", diff)
	}
	if got := report.Listings[0].Decoded; got == nil || got.Drivetrain != models.DriveAWD {
		t.Errorf("listing not enriched: %+v", got)
	}

	wantEntries := []models.ScanEntry{
		{Timestamp: time.Date(2025, 7, 30, 9, 0, 0, 0, time.UTC), Yard: "Broken Yard", Query: "2011-2013 Kia Sorento", Count: 0},
		{Timestamp: time.Date(2025, 7, 30, 9, 0, 0, 0, time.UTC), Yard: "Panicky Yard", Query: "2011-2013 Kia Sorento", Count: 0},
		{Timestamp: time.Date(2025, 7, 30, 9, 0, 0, 0, time.UTC), Yard: "Good Yard", Query: "2011-2013 Kia Sorento", Count: 1},
	}
	if diff := cmp.Diff(wantEntries, report.Entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantEntries, hist.entries); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}

	kinds := map[models.DiagnosticKind]int{}
	for _, d := range report.Diagnostics {
		kinds[d.Kind]++
	}
	if kinds[models.DiagTransport] != 1 || kinds[models.DiagParse] != 1 {
		t.Errorf("diagnostics = %+v", report.Diagnostics)
	}
}

func TestScanEnrichSkipsDecodedListings(t *testing.T) {
	dec := &mapDecoder{}
	reg := NewRegistry(func(models.Yard) scraper.Adapter {
		return scraper.AdapterFunc(func(context.Context, models.Query) scraper.Result {
			return scraper.Result{Listings: []*models.Listing{
				{Title: "2012 KIA SORENTO", VIN: sorentoVIN, Link: "a", Decoded: &models.VinInfo{Year: 2012}},
				{Title: "2012 KIA SORENTO", VIN: "KNDJN2A2XC7012345", Link: "b"},
				{Title: "2012 KIA SORENTO", Link: "c"},
			}}
		})
	})
	s := NewScanner(ScannerConfig{Registry: reg, Decoder: dec, Logger: newTestLogger()})

	report := s.Scan(context.Background(), ScanRequest{
		Lines: []string{"kia sorento"},
		Yards: []models.Yard{{Name: "Any", Slug: "x", Enabled: true}},
	})
	if dec.calls != 1 {
		t.Errorf("decoder called %d times; want 1", dec.calls)
	}
	if len(report.Listings) != 3 {
		t.Errorf("got %d listings; want 3", len(report.Listings))
	}
	// An empty decode leaves the listing undecoded.
	if report.Listings[1].Decoded != nil {
		t.Errorf("zero decode should not be attached")
	}
}

func TestScanExpandsVariants(t *testing.T) {
	var seen []string
	reg := NewRegistry(func(models.Yard) scraper.Adapter {
		return scraper.AdapterFunc(func(_ context.Context, q models.Query) scraper.Result {
			seen = append(seen, q.Search)
			return scraper.Result{}
		})
	})
	s := NewScanner(ScannerConfig{Registry: reg, Logger: newTestLogger()})

	report := s.Scan(context.Background(), ScanRequest{
		Lines: []string{"2012 kia sorento : lx, ex/sx"},
		Yards: []models.Yard{{Name: "Any", Slug: "x", Enabled: true}},
	})
	want := []string{"kia sorento lx", "kia sorento ex", "kia sorento sx"}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Errorf("searches mismatch (-want +got):\n%s", diff)
	}
	if len(report.Entries) != 3 {
		t.Errorf("got %d entries; want 3", len(report.Entries))
	}
}

func TestScanCancelled(t *testing.T) {
	s := newTestScanner(&mapDecoder{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := s.Scan(ctx, ScanRequest{
		Lines: []string{"kia sorento"},
		Yards: []models.Yard{{Name: "Good Yard", Slug: "good", Enabled: true}},
	})
	if len(report.Entries) != 0 || len(report.Listings) != 0 {
		t.Errorf("cancelled scan still ran: %+v", report)
	}
}

func TestScanNoQueries(t *testing.T) {
	s := newTestScanner(&mapDecoder{}, nil)
	report := s.Scan(context.Background(), ScanRequest{Lines: []string{""}})
	if len(report.Diagnostics) != 1 || report.Diagnostics[0].Kind != models.DiagInput {
		t.Errorf("diagnostics = %+v", report.Diagnostics)
	}
}

func TestDefaultRegistryDispatch(t *testing.T) {
	reg := NewDefaultRegistry(Sources{Logger: newTestLogger()})

	tests := []struct {
		slug  string
		check func(scraper.Adapter) bool
	}{
		{SlugPickAndPay, func(a scraper.Adapter) bool { _, ok := a.(*pickandpay.Adapter); return ok }},
		{SlugBudget, func(a scraper.Adapter) bool { _, ok := a.(*budget.Adapter); return ok }},
		{SlugBudgetS3, func(a scraper.Adapter) bool { _, ok := a.(*budgets3.Adapter); return ok }},
		{SlugUPullAndPay, func(a scraper.Adapter) bool { _, ok := a.(*upullandpay.Adapter); return ok }},
		{"orlando-1126", func(a scraper.Adapter) bool { _, ok := a.(*lkq.Adapter); return ok }},
	}
	for _, tt := range tests {
		if a := reg.Adapter(models.Yard{Slug: tt.slug}); !tt.check(a) {
			t.Errorf("slug %q dispatched to %T", tt.slug, a)
		}
	}
}
