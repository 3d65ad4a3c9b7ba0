package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"yard-sniper/models"
	"yard-sniper/scraper"
)

// YardCount is the number of listings kept for one yard.
type YardCount struct {
	Yard  string
	Count int
}

// ScanSummary condenses a scan report for display.
type ScanSummary struct {
	TotalListings int
	WithVIN       int
	Decoded       int
	Pairs         int
	ByYard        []YardCount
	ByKind        map[models.DiagnosticKind]int
}

// Summarize counts a scan report. Yards are ordered by count, busiest first.
func Summarize(r *models.ScanReport) ScanSummary {
	s := ScanSummary{
		TotalListings: len(r.Listings),
		Pairs:         len(r.Entries),
		ByKind:        make(map[models.DiagnosticKind]int),
	}

	byYard := make(map[string]int)
	for _, l := range r.Listings {
		if l.HasVIN() {
			s.WithVIN++
		}
		if l.Decoded != nil {
			s.Decoded++
		}
		byYard[l.Yard]++
	}
	for yard, n := range byYard {
		s.ByYard = append(s.ByYard, YardCount{Yard: yard, Count: n})
	}
	sort.Slice(s.ByYard, func(i, j int) bool {
		if s.ByYard[i].Count != s.ByYard[j].Count {
			return s.ByYard[i].Count > s.ByYard[j].Count
		}
		return s.ByYard[i].Yard < s.ByYard[j].Yard
	})

	for _, d := range r.Diagnostics {
		s.ByKind[d.Kind]++
	}
	return s
}

// Reporter prints scan and analysis results for a terminal.
type Reporter struct {
	out io.Writer
}

// NewReporter creates a Reporter writing to out.
func NewReporter(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

var (
	reportSep  = strings.Repeat("═", 72)
	reportThin = strings.Repeat("─", 72)
)

func (p *Reporter) section(title string) {
	fmt.Fprintf(p.out, "\033[1;33m  %s\033[0m\n", title)
	fmt.Fprintf(p.out, "  %s\n", reportThin)
}

// PrintScan prints a scan report, showing at most limit listings.
func (p *Reporter) PrintScan(r *models.ScanReport, limit int) {
	s := Summarize(r)

	fmt.Fprintf(p.out, "\n\033[1;35m%s\033[0m\n", reportSep)
	fmt.Fprintf(p.out, "\033[1;35m  YARD SCAN RESULTS\033[0m\n")
	fmt.Fprintf(p.out, "\033[1;35m%s\033[0m\n\n", reportSep)

	p.section("Overview")
	fmt.Fprintf(p.out, "  (yard, query) pairs scanned : \033[1m%d\033[0m\n", s.Pairs)
	fmt.Fprintf(p.out, "  Listings kept               : \033[1m%d\033[0m\n", s.TotalListings)
	fmt.Fprintf(p.out, "  With VIN / decoded          : \033[1m%d / %d\033[0m\n", s.WithVIN, s.Decoded)
	fmt.Fprintln(p.out)

	p.section("Listings by Yard")
	if len(s.ByYard) == 0 {
		fmt.Fprintf(p.out, "  No listings matched\n")
	}
	for _, yc := range s.ByYard {
		bar := strings.Repeat("█", yc.Count)
		fmt.Fprintf(p.out, "  %-30s %s (%d)\n", scraper.Truncate(yc.Yard, 28), bar, yc.Count)
	}
	fmt.Fprintln(p.out)

	if len(r.Listings) > 0 {
		p.section("Listings")
		shown := r.Listings
		if limit > 0 && len(shown) > limit {
			shown = shown[:limit]
		}
		for i, l := range shown {
			date := "-"
			if !l.FoundDate.IsZero() {
				date = l.FoundDate.Format("2006-01-02")
			}
			fmt.Fprintf(p.out, "  \033[1m%3d.\033[0m %-36s %-18s row %-4s %s %-4s %s\n",
				i+1, scraper.Truncate(listingLabel(l), 36), scraper.Truncate(l.Yard, 18),
				dash(l.Row), date, dash(l.Drivetrain()), dash(l.VIN))
			fmt.Fprintf(p.out, "       %s\n", l.Link)
		}
		if len(shown) < len(r.Listings) {
			fmt.Fprintf(p.out, "  ... %d more\n", len(r.Listings)-len(shown))
		}
		fmt.Fprintln(p.out)
	}

	if len(r.Diagnostics) > 0 {
		p.section("Diagnostics")
		for _, d := range r.Diagnostics {
			fmt.Fprintf(p.out, "  \033[0;33m[%s]\033[0m %s: %s\n", d.Kind, d.Source, d.Message)
		}
	}

	fmt.Fprintf(p.out, "\n\033[1;35m%s\033[0m\n\n", reportSep)
}

// PrintAnalysis prints every lane of an analysis and the buy signal of the best one.
func (p *Reporter) PrintAnalysis(an Analysis) {
	p.section("Parts Matrix: " + an.Subject)
	if len(an.Lanes) == 0 {
		fmt.Fprintf(p.out, "  No lanes evaluated\n")
	}
	for _, l := range an.Lanes {
		avg := "-"
		if l.SampleCount > 0 {
			avg = fmt.Sprintf("$%.2f", l.AvgPrice)
		}
		signal := ""
		if l.AutoBuy {
			signal = " \033[1;32mAUTO BUY\033[0m"
		}
		fmt.Fprintf(p.out, "  %-40s %9s x%-3d %-11s %3d%%  net \033[1m$%.2f\033[0m (%.2f%%)%s\n",
			scraper.Truncate(l.Lane, 40), avg, l.SampleCount, l.FlipETA, l.ConfidencePct,
			l.NetProfit, l.MarginPct, signal)
	}
	if an.HasBest {
		fmt.Fprintf(p.out, "  Best: \033[1m%s\033[0m  %s\n", an.Best.Lane, an.Best.EbayQuery)
		if an.Best.BuyBoth {
			fmt.Fprintf(p.out, "  \033[1;32mBUY BOTH\033[0m: more than one lane clears auto-buy\n")
		}
	}
	for _, d := range an.Diagnostics {
		fmt.Fprintf(p.out, "  \033[0;33m[%s]\033[0m %s: %s\n", d.Kind, d.Source, d.Message)
	}
	fmt.Fprintln(p.out)
}

func listingLabel(l *models.Listing) string {
	if l.Decoded != nil {
		if label := l.Decoded.Label(); label != "" {
			return label
		}
	}
	return l.Title
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
