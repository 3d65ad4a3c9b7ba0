package services

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"yard-sniper/models"
)

func sampleReport() *models.ScanReport {
	return &models.ScanReport{
		Listings: []*models.Listing{
			{Yard: "LKQ Orlando", Title: "2012 KIA SORENTO", Link: "a", VIN: "5XYKUDA22CG123456",
				Decoded: &models.VinInfo{Year: 2012, Make: "KIA", Model: "Sorento"}},
			{Yard: "Central Florida", Title: "2011 KIA SORENTO", Link: "b", VIN: "KNDJN2A2XC7012345"},
			{Yard: "LKQ Orlando", Title: "2013 KIA SORENTO", Link: "c"},
		},
		Entries: []models.ScanEntry{{Yard: "LKQ Orlando"}, {Yard: "Central Florida"}},
		Diagnostics: []models.Diagnostic{
			{Source: "upullandpay-orlando", Kind: models.DiagUnsupported, Message: "skipped"},
		},
	}
}

func TestSummarize(t *testing.T) {
	got := Summarize(sampleReport())
	want := ScanSummary{
		TotalListings: 3,
		WithVIN:       2,
		Decoded:       1,
		Pairs:         2,
		ByYard:        []YardCount{{"LKQ Orlando", 2}, {"Central Florida", 1}},
		ByKind:        map[models.DiagnosticKind]int{models.DiagUnsupported: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestPrintScanLimit(t *testing.T) {
	var buf bytes.Buffer
	NewReporter(&buf).PrintScan(sampleReport(), 2)
	out := buf.String()

	if !strings.Contains(out, "2012 KIA Sorento") {
		t.Error("decoded label not shown")
	}
	if strings.Contains(out, "2013 KIA SORENTO") {
		t.Error("limit not applied")
	}
	if !strings.Contains(out, "... 1 more") || !strings.Contains(out, "[unsupported]") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestPrintAnalysisBuyBoth(t *testing.T) {
	an := Analysis{Subject: "VIN"}
	an.Lanes = []models.ProfitabilityProfile{
		{Lane: "Front AWD cradle", AvgPrice: 300, SampleCount: 16, AutoBuy: true},
		{Lane: "Rear AWD cradle", AvgPrice: 250, SampleCount: 9, AutoBuy: true},
	}
	an.Best, an.HasBest = BestLane(an.Lanes)

	var buf bytes.Buffer
	NewReporter(&buf).PrintAnalysis(an)
	if !strings.Contains(buf.String(), "BUY BOTH") {
		t.Errorf("missing BUY BOTH:\n%s", buf.String())
	}
}
