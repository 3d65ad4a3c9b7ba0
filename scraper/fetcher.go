package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"
)

// CollyFetcher issues plain HTTP requests through a colly collector configured
// to look like a desktop browser. It is safe for concurrent use: every request
// runs on a clone sharing the base collector's HTTP backend.
type CollyFetcher struct {
	base *colly.Collector
}

// NewCollyFetcher creates a fetcher whose requests time out after timeout.
func NewCollyFetcher(timeout time.Duration) *CollyFetcher {
	c := colly.NewCollector(colly.AllowURLRevisit())
	c.SetRequestTimeout(timeout)
	c.ParseHTTPErrorResponse = true
	return &CollyFetcher{base: c}
}

func (f *CollyFetcher) collector(ctx context.Context) (*colly.Collector, *Page, *error) {
	c := f.base.Clone()
	extensions.RandomUserAgent(c)

	page := &Page{}
	var fetchErr error

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Upgrade-Insecure-Requests", "1")
	})
	c.OnResponse(func(r *colly.Response) {
		page.URL = r.Request.URL.String()
		page.StatusCode = r.StatusCode
		page.Body = r.Body
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			page.StatusCode = r.StatusCode
			page.Body = r.Body
		}
		fetchErr = err
	})
	return c, page, &fetchErr
}

// Get fetches url.
func (f *CollyFetcher) Get(ctx context.Context, url string) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scraper: get %s: %w", url, err)
	}
	c, page, fetchErr := f.collector(ctx)
	if err := c.Visit(url); err != nil {
		return nil, fmt.Errorf("scraper: get %s: %w", url, err)
	}
	return finish("get", url, page, *fetchErr)
}

// PostForm submits form to url as application/x-www-form-urlencoded.
func (f *CollyFetcher) PostForm(ctx context.Context, url string, form map[string]string) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scraper: post %s: %w", url, err)
	}
	c, page, fetchErr := f.collector(ctx)
	if err := c.Post(url, form); err != nil {
		return nil, fmt.Errorf("scraper: post %s: %w", url, err)
	}
	return finish("post", url, page, *fetchErr)
}

func finish(op, url string, page *Page, fetchErr error) (*Page, error) {
	if page.URL == "" {
		page.URL = url
	}
	if fetchErr != nil {
		return page, fmt.Errorf("scraper: %s %s: %w", op, url, fetchErr)
	}
	if page.StatusCode < 200 || page.StatusCode > 299 {
		return page, fmt.Errorf("scraper: %s %s: status %d", op, url, page.StatusCode)
	}
	return page, nil
}
