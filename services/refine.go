package services

import (
	"strings"
	"time"

	"yard-sniper/models"
	"yard-sniper/scraper"
	"yard-sniper/utils"
	"yard-sniper/vin"
)

// RefineOptions are the caller-selected filters applied on top of the query.
// Zero values disable a filter.
type RefineOptions struct {
	// Drivetrain keeps only listings whose best known drivetrain is in the
	// same bucket. "ANY" and "" disable it; 4WD matches 4X4.
	Drivetrain string
	// Engine keeps listings whose engine description contains it.
	Engine string
	// MaxAge keeps listings that arrived at most this long before Now.
	MaxAge time.Duration
	// Now anchors MaxAge; time.Now is used when zero.
	Now time.Time
}

// Refiner filters and deduplicates listings returned by source adapters.
type Refiner struct {
	logger *utils.Logger
}

// NewRefiner creates a Refiner with the given logger.
func NewRefiner(logger *utils.Logger) *Refiner {
	return &Refiner{logger: logger}
}

// Refine keeps listings that match every keyword of q, fall within its year
// range and pass opts, then drops duplicates. Order is preserved.
func (r *Refiner) Refine(listings []*models.Listing, q models.Query, opts RefineOptions) []*models.Listing {
	result := make([]*models.Listing, 0, len(listings))

	for _, l := range listings {
		if !matchesKeywords(l, q.Keywords) {
			continue
		}
		if q.HasYears() {
			y := ResolveYear(l)
			if y == 0 || !q.InYears(y) {
				continue
			}
		}
		if !matchesDrivetrain(l, opts.Drivetrain) {
			continue
		}
		if !matchesEngine(l, opts.Engine) {
			continue
		}
		if !withinAge(l, opts) {
			continue
		}
		result = append(result, l)
	}

	result = r.Dedup(result)
	r.logger.Debug("[refine] %q: %d → %d listings", q.Raw, len(listings), len(result))
	return result
}

// Dedup drops repeated listings, keeping the first seen. Listings with a VIN
// are keyed by source and VIN, others by link.
func (r *Refiner) Dedup(listings []*models.Listing) []*models.Listing {
	seen := utils.NewKeySet()
	out := make([]*models.Listing, 0, len(listings))
	for _, l := range listings {
		if !seen.Add(dedupKey(l)) {
			r.logger.Debug("[refine] Duplicate skipped: %s", dedupKey(l))
			continue
		}
		out = append(out, l)
	}
	return out
}

func dedupKey(l *models.Listing) string {
	if l.HasVIN() {
		return "vin|" + l.SourceID + "|" + l.VIN
	}
	return "link|" + strings.TrimSpace(l.Link)
}

// ResolveYear returns the listing's model year: the decoded year, else the
// first year in the title, else the first in the snippet, else the year
// coded in the VIN. It returns 0 when none is known.
func ResolveYear(l *models.Listing) int {
	if l.Decoded != nil && l.Decoded.Year > 0 {
		return l.Decoded.Year
	}
	if y := scraper.FindYear(l.Title); y > 0 {
		return y
	}
	if y := scraper.FindYear(l.RawSnippet); y > 0 {
		return y
	}
	return vin.ModelYear(l.VIN)
}

func matchesKeywords(l *models.Listing, keywords []string) bool {
	hay := strings.ToLower(l.Title + " " + l.RawSnippet)
	for _, k := range keywords {
		if !strings.Contains(hay, k) {
			return false
		}
	}
	return true
}

func matchesDrivetrain(l *models.Listing, want string) bool {
	want = strings.TrimSpace(want)
	if want == "" || strings.EqualFold(want, string(models.DriveAny)) {
		return true
	}
	return vin.SameBucket(l.Drivetrain(), want)
}

func matchesEngine(l *models.Listing, want string) bool {
	want = strings.ToUpper(strings.TrimSpace(want))
	if want == "" {
		return true
	}
	engine := l.EngineTag
	if l.Decoded != nil && l.Decoded.Engine != "" {
		engine = l.Decoded.Engine
	}
	return strings.Contains(strings.ToUpper(engine), want)
}

func withinAge(l *models.Listing, opts RefineOptions) bool {
	if opts.MaxAge <= 0 {
		return true
	}
	if l.FoundDate.IsZero() {
		return false
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	found := time.Date(l.FoundDate.Year(), l.FoundDate.Month(), l.FoundDate.Day(), 0, 0, 0, 0, time.UTC)
	return today.Sub(found) <= opts.MaxAge
}
