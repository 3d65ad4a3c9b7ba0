package services

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"yard-sniper/models"
)

func TestCompQuery(t *testing.T) {
	decoded := &models.Listing{
		Title:   "2012 KIA SORENTO",
		Decoded: &models.VinInfo{Year: 2012, Make: "KIA", Model: "Sorento"},
	}
	undecoded := &models.Listing{Title: "2011 MAZDA MAZDA6"}

	tests := []struct {
		l         *models.Listing
		part, pos string
		want      string
	}{
		{decoded, "Cradle", "rear", "2012 KIA Sorento rear subframe rear suspension subframe rear crossmember"},
		{decoded, "Cradle", "Front AWD", "2012 KIA Sorento front subframe engine cradle front suspension subframe"},
		{decoded, "", "", "2012 KIA Sorento subframe engine cradle k frame"},
		{undecoded, "Steering Rack", "", "2011 MAZDA MAZDA6 steering rack rack and pinion power steering rack"},
		{undecoded, "PS Pump", "", "2011 MAZDA MAZDA6 power steering pump ps pump steering pump"},
		{undecoded, "Motor", "", "2011 MAZDA MAZDA6 complete engine engine long block engine assembly"},
		{undecoded, "Transmission", "", "2011 MAZDA MAZDA6 automatic transmission transmission assembly gearbox"},
		{undecoded, "Wheels", "", "2011 MAZDA MAZDA6 subframe engine cradle k frame"},
	}
	for _, tt := range tests {
		if got := CompQuery(tt.l, tt.part, tt.pos); got != tt.want {
			t.Errorf("CompQuery(%q, %q, %q) = %q; want %q", tt.l.Title, tt.part, tt.pos, got, tt.want)
		}
	}

	ecu := CompQuery(undecoded, "ECU", "")
	if ecu != "2011 MAZDA MAZDA6 ECU engine control module engine computer PCM ECM TCM transmission control module BCM body control module" {
		t.Errorf("ECU query = %q", ecu)
	}
}

func TestCradleLanes(t *testing.T) {
	info := models.VinInfo{Year: 2012, Make: "KIA", Model: "Sorento"}

	info.Drivetrain = models.DriveAWD
	want := []Lane{
		{"Front AWD cradle", "2012 KIA Sorento front subframe engine cradle k frame"},
		{"Rear AWD cradle", "2012 KIA Sorento rear subframe engine cradle k frame"},
	}
	if diff := cmp.Diff(want, CradleLanes(info)); diff != "" {
		t.Errorf("AWD lanes mismatch (-want +got):\n%s", diff)
	}

	info.Drivetrain = models.DriveFWD
	if got := CradleLanes(info); len(got) != 1 || got[0].Label != "Front cradle" {
		t.Errorf("FWD lanes = %+v", got)
	}
	info.Drivetrain = models.DriveRWD
	if got := CradleLanes(info); len(got) != 1 || got[0].Label != "Rear cradle" {
		t.Errorf("RWD lanes = %+v", got)
	}
	info.Drivetrain = "4x2"
	if got := CradleLanes(info); len(got) != 1 || got[0].Query != "2012 KIA Sorento subframe engine cradle k frame" {
		t.Errorf("unknown drivetrain lanes = %+v", got)
	}
	if got := CradleLanes(models.VinInfo{}); got != nil {
		t.Errorf("empty decode should have no lanes, got %+v", got)
	}
}

func TestRewriteAirbagQuery(t *testing.T) {
	tests := []struct {
		raw       string
		want      string
		rewritten bool
	}{
		{"camry driver bag", "camry driver bag airbag steering wheel black", true},
		{"2018 rogue curtain air bag", "2018 rogue curtain airbag black", true},
		{"passenger Air-Bag tan", "passenger airbag tan dash", true},
		{"2015 f150 driver airbag steering wheel gray", "2015 f150 driver airbag steering wheel gray", true},
		{"2012 kia sorento rear subframe", "2012 kia sorento rear subframe", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := RewriteAirbagQuery(tt.raw)
		if got != tt.want || ok != tt.rewritten {
			t.Errorf("RewriteAirbagQuery(%q) = %q, %v; want %q, %v", tt.raw, got, ok, tt.want, tt.rewritten)
		}
	}
}

func TestModuleQueries(t *testing.T) {
	info := models.VinInfo{Year: 2014, Make: "LAND ROVER", Model: "Range Rover Sport"}
	lanes := ModuleQueries(info, DefaultPlatformFeatures)

	if len(lanes) != 5+len(DefaultPlatformFeatures["RANGE ROVER SPORT"]) {
		t.Fatalf("got %d lanes", len(lanes))
	}
	if lanes[0] != (Lane{"BCM", "2014 LAND ROVER Range Rover Sport body control module"}) {
		t.Errorf("first lane = %+v", lanes[0])
	}
	if lanes[5].Label != "Feature: adaptive cruise control module" {
		t.Errorf("first feature lane = %+v", lanes[5])
	}

	if got := ModuleQueries(models.VinInfo{Make: "KIA", Model: "Sorento"}, nil); got != nil {
		t.Errorf("missing year should yield no lanes, got %d", len(got))
	}
}

func TestRankModules(t *testing.T) {
	ps := []models.ProfitabilityProfile{
		{Lane: "a", SampleCount: 3, AvgPrice: 500},
		{Lane: "b", SampleCount: 12, AvgPrice: 90},
		{Lane: "c", SampleCount: 12, AvgPrice: 150},
	}
	RankModules(ps)
	if ps[0].Lane != "c" || ps[1].Lane != "b" || ps[2].Lane != "a" {
		t.Errorf("rank order = %s %s %s", ps[0].Lane, ps[1].Lane, ps[2].Lane)
	}
}
