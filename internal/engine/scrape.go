// File: internal/engine/scrape.go
package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Tamas54/bravectl/internal/extract"
)

// ScrapeOptions tune a single scrape call.
type ScrapeOptions struct {
	WaitForSelector string
	WaitTime        time.Duration
	Screenshot      bool
	IncludeHTML     bool
	IncludeLinks    bool
}

// ScrapeResult is a structured page capture.
type ScrapeResult struct {
	URL        string           `json:"url"`
	Title      string           `json:"title"`
	Metadata   extract.Metadata `json:"metadata"`
	Markdown   string           `json:"markdown"`
	Text       string           `json:"text"`
	HTML       string           `json:"html,omitempty"`
	Links      []extract.Link   `json:"links,omitempty"`
	Screenshot string           `json:"screenshot,omitempty"`
}

// Scrape loads url in a fresh tab and extracts its content.
func (e *Engine) Scrape(ctx context.Context, url string, opts ScrapeOptions) (*ScrapeResult, error) {
	p, err := e.newPage(ctx)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	if err := p.Navigate(ctx, url, e.cfg.Network.NavigationTimeout); err != nil {
		return nil, err
	}

	if opts.WaitForSelector != "" {
		if err := p.WaitVisible(ctx, opts.WaitForSelector, e.cfg.Network.SelectorTimeout); err != nil {
			return nil, err
		}
	}
	if opts.WaitTime > 0 {
		if err := e.humanDelay(ctx, opts.WaitTime, opts.WaitTime); err != nil {
			return nil, err
		}
	}

	var screenshot string
	if opts.Screenshot {
		screenshot, err = p.Screenshot(ctx, true)
		if err != nil {
			return nil, err
		}
	}

	html, err := p.HTML(ctx)
	if err != nil {
		return nil, err
	}
	finalURL, err := p.Location(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := e.extractor.Parse(html, finalURL, extract.Options{
		IncludeHTML:  opts.IncludeHTML,
		IncludeLinks: opts.IncludeLinks,
	})
	if err != nil {
		return nil, err
	}

	e.logger.Debug("Scraped page",
		zap.String("url", finalURL),
		zap.Int("links", len(doc.Links)))

	return &ScrapeResult{
		URL:        doc.URL,
		Title:      doc.Title,
		Metadata:   doc.Metadata,
		Markdown:   doc.Markdown,
		Text:       doc.Text,
		HTML:       doc.HTML,
		Links:      doc.Links,
		Screenshot: screenshot,
	}, nil
}
