package scraper

import (
	"context"
	"strings"

	"yard-sniper/models"
	"yard-sniper/vin"
)

// VINHit is one distinct VIN found by a page sweep together with the text
// around it.
type VINHit struct {
	VIN     string
	Snippet string
}

// SweepVINs returns the distinct VINs in text in order of first appearance.
// When radius is positive and keywords is non-empty a VIN is kept only if
// every keyword occurs in the lowercase window of radius characters on each
// side of it.
func SweepVINs(text string, keywords []string, radius int) []VINHit {
	seen := make(map[string]struct{})
	var hits []VINHit

	for _, m := range vin.Find(text) {
		if _, dup := seen[m.VIN]; dup {
			continue
		}

		snippet := m.VIN
		if radius > 0 {
			start := m.Start - radius
			if start < 0 {
				start = 0
			}
			end := m.End + radius
			if end > len(text) {
				end = len(text)
			}
			snippet = strings.ToLower(text[start:end])
			if !containsAll(snippet, keywords) {
				continue
			}
		}

		seen[m.VIN] = struct{}{}
		hits = append(hits, VINHit{VIN: m.VIN, Snippet: snippet})
	}
	return hits
}

// SweepListings decodes every hit and turns it into a listing copied from
// template. A hit is dropped when its decoded make or model contradicts the
// query; hits that decode to nothing are kept. Titles come from the decode,
// falling back to the VIN.
func SweepListings(ctx context.Context, dec VINDecoder, hits []VINHit, q models.Query, template models.Listing) []*models.Listing {
	out := make([]*models.Listing, 0, len(hits))
	for _, h := range hits {
		info := dec.Decode(ctx, h.VIN)
		if !compatible(info, q) {
			continue
		}

		l := template
		l.VIN = h.VIN
		l.RawSnippet = h.Snippet
		l.Title = h.VIN
		if !info.IsZero() {
			decoded := info
			l.Decoded = &decoded
			if label := info.Label(); label != "" {
				l.Title = label
			}
		}
		out = append(out, &l)
	}
	return out
}

func compatible(info models.VinInfo, q models.Query) bool {
	mk := strings.ToUpper(info.Make)
	md := strings.ReplaceAll(strings.ToUpper(info.Model), " ", "")
	if q.Make != "" && mk != "" && !strings.Contains(mk, q.Make) {
		return false
	}
	if q.Model != "" && md != "" && !strings.Contains(md, q.Model) {
		return false
	}
	return true
}

func containsAll(haystack string, keywords []string) bool {
	for _, k := range keywords {
		if !strings.Contains(haystack, strings.ToLower(k)) {
			return false
		}
	}
	return true
}
