// Package lkq reads card-style inventory search pages.
package lkq

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"yard-sniper/models"
	"yard-sniper/scraper"
	"yard-sniper/utils"
	"yard-sniper/vin"
)

var (
	cardClassPattern = regexp.MustCompile(`(?i)(card|result|vehicle|inventory)`)
	imagePattern     = regexp.MustCompile(`(?i)\.(?:jpe?g|png|gif)(?:\?|$)`)
)

const cdnHost = "cdn.lkqcorp.com"

// Config controls one card-style yard.
type Config struct {
	BaseURL string
	// FollowDetails fetches a card's detail page to find a VIN when the card
	// itself shows none.
	FollowDetails bool
}

// Adapter scrapes the search results page of one yard.
type Adapter struct {
	yard    models.Yard
	cfg     Config
	fetcher scraper.Fetcher
	logger  *utils.Logger
}

// New creates an Adapter for yard.
func New(yard models.Yard, cfg Config, fetcher scraper.Fetcher, logger *utils.Logger) *Adapter {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Adapter{yard: yard, cfg: cfg, fetcher: fetcher, logger: logger}
}

// SearchURL returns the results page for q.
func (a *Adapter) SearchURL(q models.Query) string {
	return fmt.Sprintf("%s/inventory/%s/?search=%s", a.cfg.BaseURL, a.yard.Slug, url.QueryEscape(q.Search))
}

// FetchListings implements scraper.Adapter.
func (a *Adapter) FetchListings(ctx context.Context, q models.Query) scraper.Result {
	var res scraper.Result
	searchURL := a.SearchURL(q)

	page, err := a.fetcher.Get(ctx, searchURL)
	if err != nil {
		res.Warn(a.yard.Slug, models.DiagTransport, "%s: %v", a.yard.Name, err)
		return res
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		res.Warn(a.yard.Slug, models.DiagParse, "%s: parse results: %v", a.yard.Name, err)
		return res
	}

	for _, card := range extractCards(doc) {
		l := a.cardToListing(card, q, searchURL)
		if l.VIN == "" && a.cfg.FollowDetails && isDetailLink(l.Link) {
			a.readDetailVIN(ctx, l)
		}
		res.Listings = append(res.Listings, l)
	}

	a.logger.Debug("[lkq] %s: %d cards for %q", a.yard.Name, len(res.Listings), q.Raw)
	return res
}

// extractCards finds candidate listing containers: the nearest div, article
// or li around every inventory detail link, plus divs whose class looks like
// a result card. Among class matches only the innermost are kept, and a
// class match wrapping several detail links is treated as a list wrapper.
// A link container inside a kept card is covered by that card.
func extractCards(doc *goquery.Document) []*goquery.Selection {
	var linkNodes, classNodes []*html.Node
	seen := make(map[*html.Node]struct{})

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if !isDetailLink(href) {
			return
		}
		n := s.Get(0)
		if parent := s.ParentsFiltered("div, article, li").First(); parent.Length() > 0 {
			n = parent.Get(0)
		}
		if _, dup := seen[n]; !dup {
			seen[n] = struct{}{}
			linkNodes = append(linkNodes, n)
		}
	})

	doc.Find("div[class]").Each(func(_ int, s *goquery.Selection) {
		class, _ := s.Attr("class")
		if cardClassPattern.MatchString(class) {
			classNodes = append(classNodes, s.Get(0))
		}
	})

	var cards []*html.Node
	for _, n := range classNodes {
		if countInside(n, classNodes) > 0 || countInside(n, linkNodes) > 1 {
			continue
		}
		cards = append(cards, n)
	}
	for _, n := range linkNodes {
		covered := false
		for _, c := range cards {
			if c == n || isAncestor(c, n) {
				covered = true
				break
			}
		}
		if !covered {
			cards = append(cards, n)
		}
	}

	out := make([]*goquery.Selection, 0, len(cards))
	for _, n := range cards {
		out = append(out, doc.FindNodes(n))
	}
	return out
}

// countInside counts the nodes strictly below n.
func countInside(n *html.Node, nodes []*html.Node) int {
	count := 0
	for _, other := range nodes {
		if other != n && isAncestor(n, other) {
			count++
		}
	}
	return count
}

func isAncestor(a, b *html.Node) bool {
	for p := b.Parent; p != nil; p = p.Parent {
		if p == a {
			return true
		}
	}
	return false
}

func isDetailLink(href string) bool {
	if !strings.Contains(href, "/inventory/") {
		return false
	}
	return strings.Contains(href, "vehicle") || strings.Contains(href, "details") || strings.Contains(href, "stock")
}

func (a *Adapter) cardToListing(card *goquery.Selection, q models.Query, searchURL string) *models.Listing {
	text := scraper.NodeText(card.Get(0))

	l := &models.Listing{
		SourceID:      a.yard.Slug,
		Yard:          a.yard.Name,
		Query:         q.Raw,
		Title:         cardTitle(card, text),
		RawSnippet:    text,
		FoundDate:     scraper.NormalizeDate(text),
		DrivetrainTag: scraper.DriveTag(text),
	}
	if m := vin.Find(text); len(m) > 0 {
		l.VIN = m[0].VIN
	}

	l.Link = a.cardLink(card)
	if l.Link == "" {
		l.Link = searchURL
		if y := yearOf(l); y > 0 && q.Search != "" {
			l.Link = fmt.Sprintf("%s/inventory/%s/?search=%d+%s",
				a.cfg.BaseURL, a.yard.Slug, y, url.QueryEscape(q.Search))
		}
	}
	return l
}

// cardLink returns the card's absolute inventory link, or "" when the card
// has none worth following.
func (a *Adapter) cardLink(card *goquery.Selection) string {
	var href string
	if goquery.NodeName(card) == "a" {
		href, _ = card.Attr("href")
	} else {
		href, _ = card.Find("a[href]").First().Attr("href")
	}
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	if base, err := url.Parse(a.cfg.BaseURL + "/"); err == nil {
		if ref, err := url.Parse(href); err == nil {
			href = base.ResolveReference(ref).String()
		}
	}

	if strings.Contains(href, cdnHost) || imagePattern.MatchString(href) || !strings.Contains(href, "/inventory/") {
		return ""
	}
	return href
}

func cardTitle(card *goquery.Selection, text string) string {
	for _, tag := range []string{"h1", "h2", "h3", "h4"} {
		if h := card.Find(tag).First(); h.Length() > 0 {
			if t := scraper.NodeText(h.Get(0)); t != "" {
				return t
			}
		}
	}
	return scraper.Truncate(text, 80)
}

func yearOf(l *models.Listing) int {
	if y := scraper.FindYear(l.Title); y > 0 {
		return y
	}
	return scraper.FindYear(l.RawSnippet)
}

func (a *Adapter) readDetailVIN(ctx context.Context, l *models.Listing) {
	page, err := a.fetcher.Get(ctx, l.Link)
	if err != nil {
		a.logger.Debug("[lkq] detail page %s: %v", l.Link, err)
		return
	}
	if m := vin.Find(scraper.VisibleText(page.Body)); len(m) > 0 {
		l.VIN = m[0].VIN
	}
}
