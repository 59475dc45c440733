// File: internal/engine/inspect.go
package engine

import (
	"context"
	"fmt"
)

const fullAnalysisJS = `(function() {
	const elements = [];
	const selectors = [
		'button', 'a', 'input', 'select', 'textarea',
		'[onclick]', '[role="button"]', '[role="link"]',
		'.btn', '.button', '[class*="button"]'
	];
	const processed = new Set();

	selectors.forEach(selector => {
		document.querySelectorAll(selector).forEach(el => {
			if (processed.has(el)) return;
			processed.add(el);

			const rect = el.getBoundingClientRect();
			const style = window.getComputedStyle(el);
			const isVisible = rect.width > 0 && rect.height > 0 &&
				style.display !== 'none' &&
				style.visibility !== 'hidden' &&
				style.opacity !== '0';

			if (isVisible) {
				elements.push({
					type: el.tagName.toLowerCase(),
					text: el.textContent?.trim() || el.value || el.placeholder || el.alt || '',
					ariaLabel: el.getAttribute('aria-label'),
					position: {
						x: Math.round(rect.x + rect.width/2),
						y: Math.round(rect.y + rect.height/2)
					},
					bounds: {
						x: Math.round(rect.x),
						y: Math.round(rect.y),
						width: Math.round(rect.width),
						height: Math.round(rect.height)
					},
					style: {
						backgroundColor: style.backgroundColor,
						color: style.color,
						fontSize: style.fontSize
					},
					clickable: true,
					href: el.href || null
				});
			}
		});
	});

	elements.sort((a, b) => {
		if (Math.abs(a.bounds.y - b.bounds.y) < 10) {
			return a.bounds.x - b.bounds.x;
		}
		return a.bounds.y - b.bounds.y;
	});

	return {
		elements,
		pageInfo: {
			title: document.title,
			url: window.location.href,
			scrollHeight: document.documentElement.scrollHeight,
			clientHeight: document.documentElement.clientHeight
		}
	};
})()`

const findElementJS = `(function(query) {
	const normalizedQuery = query.toLowerCase().trim();
	const elements = Array.from(document.querySelectorAll('*'));
	const matches = [];

	elements.forEach(el => {
		const text = (el.textContent?.trim() || '').toLowerCase();
		const aria = (el.getAttribute('aria-label') || '').toLowerCase();
		const value = (el.value || '').toLowerCase();
		const placeholder = (el.placeholder || '').toLowerCase();
		const title = (el.title || '').toLowerCase();

		const isMatch = text.includes(normalizedQuery) ||
			aria.includes(normalizedQuery) ||
			value.includes(normalizedQuery) ||
			placeholder.includes(normalizedQuery) ||
			title.includes(normalizedQuery);

		if (isMatch && el.offsetWidth > 0 && el.offsetHeight > 0) {
			const rect = el.getBoundingClientRect();
			matches.push({
				text: el.textContent?.trim() || value || placeholder,
				type: el.tagName.toLowerCase(),
				center: {
					x: Math.round(rect.x + rect.width/2),
					y: Math.round(rect.y + rect.height/2)
				},
				bounds: {
					x: Math.round(rect.x),
					y: Math.round(rect.y),
					width: Math.round(rect.width),
					height: Math.round(rect.height)
				},
				matchedIn: text.includes(normalizedQuery) ? 'text' :
					aria.includes(normalizedQuery) ? 'aria-label' :
					value.includes(normalizedQuery) ? 'value' :
					placeholder.includes(normalizedQuery) ? 'placeholder' : 'title'
			});
		}
	});

	return matches;
})(%s)`

const highlightMatchesJS = `(function(matches) {
	matches.forEach((match, index) => {
		const highlight = document.createElement('div');
		highlight.style.position = 'fixed';
		highlight.style.left = match.bounds.x + 'px';
		highlight.style.top = match.bounds.y + 'px';
		highlight.style.width = match.bounds.width + 'px';
		highlight.style.height = match.bounds.height + 'px';
		highlight.style.border = '3px solid red';
		highlight.style.backgroundColor = 'rgba(255,0,0,0.1)';
		highlight.style.zIndex = '999998';
		highlight.style.pointerEvents = 'none';
		highlight.className = 'search-highlight';

		const label = document.createElement('div');
		label.style.position = 'absolute';
		label.style.top = '-25px';
		label.style.left = '0';
		label.style.backgroundColor = 'red';
		label.style.color = 'white';
		label.style.padding = '2px 5px';
		label.style.fontSize = '12px';
		label.style.fontWeight = 'bold';
		label.textContent = '#' + (index + 1);

		highlight.appendChild(label);
		document.body.appendChild(highlight);
	});
})(%s)`

const clearHighlightsJS = `document.querySelectorAll('.search-highlight').forEach(el => el.remove())`

const interactiveMapJS = `(function() {
	const elements = [];
	let counter = 1;

	document.querySelectorAll('button, a, input, select, [onclick], [role="button"]').forEach(el => {
		const rect = el.getBoundingClientRect();
		if (rect.width > 0 && rect.height > 0) {
			const marker = document.createElement('div');
			marker.style.position = 'fixed';
			marker.style.left = (rect.x + rect.width/2 - 12) + 'px';
			marker.style.top = (rect.y + rect.height/2 - 12) + 'px';
			marker.style.width = '24px';
			marker.style.height = '24px';
			marker.style.backgroundColor = '#ff0000';
			marker.style.color = 'white';
			marker.style.borderRadius = '50%';
			marker.style.display = 'flex';
			marker.style.alignItems = 'center';
			marker.style.justifyContent = 'center';
			marker.style.fontSize = '12px';
			marker.style.fontWeight = 'bold';
			marker.style.zIndex = '999999';
			marker.style.pointerEvents = 'none';
			marker.className = 'element-marker';
			marker.textContent = counter;
			document.body.appendChild(marker);

			elements.push({
				number: counter,
				text: el.textContent?.trim() || el.value || '',
				type: el.tagName.toLowerCase(),
				center: {
					x: Math.round(rect.x + rect.width/2),
					y: Math.round(rect.y + rect.height/2)
				}
			});
			counter++;
		}
	});

	return elements;
})()`

const clearMarkersJS = `document.querySelectorAll('.element-marker').forEach(el => el.remove())`

// InspectedElement is one interactive element found on the page.
type InspectedElement struct {
	Type      string         `json:"type"`
	Text      string         `json:"text"`
	AriaLabel string         `json:"ariaLabel"`
	Position  Coordinates    `json:"position"`
	Bounds    Bounds         `json:"bounds"`
	Style     map[string]any `json:"style"`
	Clickable bool           `json:"clickable"`
	Href      *string        `json:"href"`
}

// FoundElement is one text-match from a find_element call.
type FoundElement struct {
	Text      string      `json:"text"`
	Type      string      `json:"type"`
	Center    Coordinates `json:"center"`
	Bounds    Bounds      `json:"bounds"`
	MatchedIn string      `json:"matchedIn"`
}

// MappedElement is one numbered marker from an interactive_map call.
type MappedElement struct {
	Number int         `json:"number"`
	Text   string      `json:"text"`
	Type   string      `json:"type"`
	Center Coordinates `json:"center"`
}

// VisualInspect analyzes the page visually: a full interactive-element
// inventory, a text search with highlighted matches, or a numbered
// click map. Each call runs on its own tab; pass URL to open the page
// first.
func (e *Engine) VisualInspect(ctx context.Context, params VisualInspectParams) (any, error) {
	p, err := e.openVisualPage(ctx, params.URL)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	switch params.Mode {
	case "full_analysis":
		var analysis struct {
			Elements []InspectedElement `json:"elements"`
			PageInfo map[string]any     `json:"pageInfo"`
		}
		if err := p.Evaluate(ctx, fullAnalysisJS, &analysis); err != nil {
			return nil, err
		}
		screenshot, err := p.Screenshot(ctx, false)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"screenshot":          screenshot,
			"interactiveElements": analysis.Elements,
			"pageInfo":            analysis.PageInfo,
			"totalElements":       len(analysis.Elements),
			"hint":                fmt.Sprintf("Found %d interactive elements. Use the coordinates with the brave_mouse_control tool!", len(analysis.Elements)),
		}, nil

	case "find_element":
		if params.Query == "" {
			return nil, fmt.Errorf("find_element needs a query")
		}
		var found []FoundElement
		if err := p.Evaluate(ctx, fmt.Sprintf(findElementJS, jsString(params.Query)), &found); err != nil {
			return nil, err
		}
		if len(found) == 0 {
			return map[string]any{
				"found":    0,
				"elements": []FoundElement{},
				"message":  fmt.Sprintf("No element containing %q was found on the page.", params.Query),
			}, nil
		}

		matchesJSON, err := jsonMarshal(found)
		if err != nil {
			return nil, err
		}
		if err := p.Evaluate(ctx, fmt.Sprintf(highlightMatchesJS, matchesJSON), nil); err != nil {
			return nil, err
		}
		screenshot, err := p.Screenshot(ctx, false)
		if err != nil {
			return nil, err
		}
		if err := p.Evaluate(ctx, clearHighlightsJS, nil); err != nil {
			return nil, err
		}
		return map[string]any{
			"found":      len(found),
			"elements":   found,
			"screenshot": screenshot,
			"suggestion": fmt.Sprintf("Found %d elements for %q. The first element (#1) is at x=%.0f, y=%.0f",
				len(found), params.Query, found[0].Center.X, found[0].Center.Y),
		}, nil

	case "interactive_map":
		var numbered []MappedElement
		if err := p.Evaluate(ctx, interactiveMapJS, &numbered); err != nil {
			return nil, err
		}
		screenshot, err := p.Screenshot(ctx, false)
		if err != nil {
			return nil, err
		}
		if err := p.Evaluate(ctx, clearMarkersJS, nil); err != nil {
			return nil, err
		}
		return map[string]any{
			"screenshot":    screenshot,
			"elements":      numbered,
			"totalElements": len(numbered),
			"hint":          "Every clickable element is numbered. Use the number or the coordinates to click!",
		}, nil

	default:
		return nil, fmt.Errorf("unknown inspection mode: %s", params.Mode)
	}
}
