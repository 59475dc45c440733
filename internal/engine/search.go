// File: internal/engine/search.go
package engine

import (
	"context"
	"net/url"

	"go.uber.org/zap"
)

// SearchResult is one organic result from Brave Search.
type SearchResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// SearchResponse pairs the query with its results.
type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

const searchResultsJS = `(function() {
	const items = [];
	document.querySelectorAll('.snippet').forEach(snippet => {
		const titleEl = snippet.querySelector('.snippet-title');
		const descEl = snippet.querySelector('.snippet-description');
		const urlEl = snippet.querySelector('.snippet-url');
		if (titleEl && urlEl) {
			items.push({
				title: titleEl.innerText,
				url: urlEl.innerText,
				description: descEl ? descEl.innerText : ''
			});
		}
	});
	return items;
})()`

// Search runs query through search.brave.com and harvests the result
// snippets. limit caps the results; 0 means 10.
func (e *Engine) Search(ctx context.Context, query string, limit int) (*SearchResponse, error) {
	if limit <= 0 {
		limit = 10
	}

	searchURL := "https://search.brave.com/search?q=" + url.QueryEscape(query)

	p, err := e.newPage(ctx)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	if err := p.Navigate(ctx, searchURL, e.cfg.Network.NavigationTimeout); err != nil {
		return nil, err
	}

	// The result markup shifts between rollouts; fall back to the
	// alternate selector before giving up.
	if err := p.WaitVisible(ctx, ".snippet", e.cfg.Network.SearchWaitTimeout); err != nil {
		if err := p.WaitVisible(ctx, `[data-testid="result"]`, e.cfg.Network.SearchWaitTimeout); err != nil {
			return nil, err
		}
	}

	var results []SearchResult
	if err := p.Evaluate(ctx, searchResultsJS, &results); err != nil {
		return nil, err
	}
	if len(results) > limit {
		results = results[:limit]
	}

	e.logger.Debug("Search finished",
		zap.String("query", query), zap.Int("results", len(results)))

	return &SearchResponse{Query: query, Results: results}, nil
}
