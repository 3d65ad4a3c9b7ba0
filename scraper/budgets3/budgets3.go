// Package budgets3 reads an ASP.NET inventory page that only shows vehicles
// after its make/model form is posted back with the page's hidden state.
package budgets3

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"yard-sniper/models"
	"yard-sniper/scraper"
	"yard-sniper/utils"
)

var stateFields = []string{"__VIEWSTATE", "__VIEWSTATEGENERATOR", "__EVENTVALIDATION"}

// Config controls the adapter.
type Config struct {
	URL string
}

// Adapter posts the inventory search form of one yard.
type Adapter struct {
	yard    models.Yard
	cfg     Config
	fetcher scraper.Fetcher
	logger  *utils.Logger
}

// New creates an Adapter. fetcher must support PostForm.
func New(yard models.Yard, cfg Config, fetcher scraper.Fetcher, logger *utils.Logger) *Adapter {
	return &Adapter{yard: yard, cfg: cfg, fetcher: fetcher, logger: logger}
}

// FetchListings implements scraper.Adapter.
func (a *Adapter) FetchListings(ctx context.Context, q models.Query) scraper.Result {
	var res scraper.Result
	if !q.HasMakeModel() {
		res.Warn(a.yard.Slug, models.DiagInput, "%s: could not parse make/model from query %q", a.yard.Name, q.Raw)
		return res
	}

	form := map[string]string{
		"__EVENTTARGET":   "ddlModel",
		"__EVENTARGUMENT": "",
		"__LASTFOCUS":     "",
		"ddlMake":         q.Make,
		"ddlModel":        q.Model,
	}
	for _, name := range stateFields {
		form[name] = ""
	}

	// Without the hidden state the post is still attempted with empty values.
	if page, err := a.fetcher.Get(ctx, a.cfg.URL); err != nil {
		res.Warn(a.yard.Slug, models.DiagTransport, "%s: read form state: %v", a.yard.Name, err)
	} else {
		for name, value := range hiddenFields(page.Body) {
			form[name] = value
		}
	}

	page, err := a.fetcher.PostForm(ctx, a.cfg.URL, form)
	if err != nil {
		res.Warn(a.yard.Slug, models.DiagTransport, "%s: %v", a.yard.Name, err)
		return res
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		res.Warn(a.yard.Slug, models.DiagParse, "%s: parse results: %v", a.yard.Name, err)
		return res
	}

	tables := inventoryTables(doc)
	if len(tables) == 0 {
		res.Warn(a.yard.Slug, models.DiagParse, "%s: no inventory table in response", a.yard.Name)
		return res
	}

	for _, table := range tables {
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			if l := a.rowToListing(tr, q); l != nil {
				res.Listings = append(res.Listings, l)
			}
		})
	}

	a.logger.Debug("[budgets3] %s: %d rows for %s %s", a.yard.Name, len(res.Listings), q.Make, q.Model)
	return res
}

func hiddenFields(body []byte) map[string]string {
	out := make(map[string]string, len(stateFields))
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return out
	}
	for _, name := range stateFields {
		if v, ok := doc.Find(`input[name="` + name + `"]`).First().Attr("value"); ok {
			out[name] = v
		}
	}
	return out
}

// inventoryTables returns the tables whose text mentions year, make and
// model. A layout table wrapping a matching table is skipped so rows are not
// read twice.
func inventoryTables(doc *goquery.Document) []*goquery.Selection {
	var found []*goquery.Selection
	doc.Find("table").Each(func(_ int, t *goquery.Selection) {
		if !mentionsColumns(t) {
			return
		}
		nested := false
		t.Find("table").Each(func(_ int, inner *goquery.Selection) {
			if mentionsColumns(inner) {
				nested = true
			}
		})
		if !nested {
			found = append(found, t)
		}
	})
	return found
}

func mentionsColumns(t *goquery.Selection) bool {
	text := strings.ToLower(t.Text())
	return strings.Contains(text, "year") && strings.Contains(text, "make") && strings.Contains(text, "model")
}

func (a *Adapter) rowToListing(tr *goquery.Selection, q models.Query) *models.Listing {
	tds := tr.ChildrenFiltered("td")
	if tds.Length() < 3 {
		return nil
	}

	cells := make([]string, 0, tds.Length())
	tds.Each(func(_ int, td *goquery.Selection) {
		cells = append(cells, scraper.NodeText(td.Get(0)))
	})
	line := strings.Join(cells, " ")

	title := strings.TrimSpace(strings.Join(cells[:3], " "))
	if title == "" {
		title = scraper.Truncate(line, 80)
	}

	l := &models.Listing{
		SourceID:      a.yard.Slug,
		Yard:          a.yard.Name,
		Query:         q.Raw,
		Title:         title,
		Link:          a.cfg.URL,
		RawSnippet:    line,
		DrivetrainTag: scraper.DriveTag(line),
	}
	for i := len(cells) - 1; i >= 0; i-- {
		if d := scraper.NormalizeDate(cells[i]); !d.IsZero() {
			l.FoundDate = d
			break
		}
	}
	return l
}
