// File: internal/engine/crawl.go
package engine

import (
	"context"
	"fmt"
	"net/url"
	"regexp"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// CrawlOptions tune a crawl. MaxPages defaults to 10; SameDomain
// defaults to true.
type CrawlOptions struct {
	MaxPages       int
	SameDomain     *bool
	IncludePattern string
	ExcludePattern string
}

// CrawlResult summarizes a finished crawl.
type CrawlResult struct {
	StartURL     string          `json:"startUrl"`
	CrawledPages int             `json:"crawledPages"`
	Results      []*ScrapeResult `json:"results"`
}

// Crawl walks the site breadth-first from startURL, scraping pages
// until the frontier is empty or MaxPages pages succeeded. A page
// that fails to scrape is logged and skipped; it does not abort the
// crawl.
func (e *Engine) Crawl(ctx context.Context, startURL string, opts CrawlOptions) (*CrawlResult, error) {
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = 10
	}
	sameDomain := true
	if opts.SameDomain != nil {
		sameDomain = *opts.SameDomain
	}

	var includeRE, excludeRE *regexp.Regexp
	var err error
	if opts.IncludePattern != "" {
		if includeRE, err = regexp.Compile(opts.IncludePattern); err != nil {
			return nil, fmt.Errorf("invalid includePattern: %w", err)
		}
	}
	if opts.ExcludePattern != "" {
		if excludeRE, err = regexp.Compile(opts.ExcludePattern); err != nil {
			return nil, fmt.Errorf("invalid excludePattern: %w", err)
		}
	}

	start, err := url.Parse(startURL)
	if err != nil {
		return nil, fmt.Errorf("invalid startUrl: %w", err)
	}
	startHost := start.Hostname()

	// Politeness limiter between page fetches. Gotta be a good net
	// citizen.
	limiter := rate.NewLimiter(rate.Inf, 1)
	if rps := e.cfg.Network.CrawlRatePerSecond; rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}

	visited := make(map[string]bool)
	queued := map[string]bool{startURL: true}
	frontier := []string{startURL}
	results := make([]*ScrapeResult, 0, maxPages)

	for len(frontier) > 0 && len(results) < maxPages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		current := frontier[0]
		frontier = frontier[1:]

		if visited[current] {
			continue
		}
		visited[current] = true

		if includeRE != nil && !includeRE.MatchString(current) {
			continue
		}
		if excludeRE != nil && excludeRE.MatchString(current) {
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		e.logger.Info("Crawling", zap.String("url", current))
		result, err := e.crawlFetch(ctx, current)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			e.logger.Warn("Crawl page failed",
				zap.String("url", current), zap.Error(err))
			continue
		}
		results = append(results, result)

		for _, link := range result.Links {
			linkURL, err := url.Parse(link.Href)
			if err != nil {
				continue
			}
			// Exact host match: a same-domain crawl never wanders onto
			// sibling subdomains.
			if sameDomain && linkURL.Hostname() != startHost {
				continue
			}
			if !visited[link.Href] && !queued[link.Href] {
				queued[link.Href] = true
				frontier = append(frontier, link.Href)
			}
		}
	}

	return &CrawlResult{
		StartURL:     startURL,
		CrawledPages: len(results),
		Results:      results,
	}, nil
}
