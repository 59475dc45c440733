// File: internal/extract/extract.go
// Package extract turns raw page HTML into the structured content
// payload returned by scrape and crawl operations: metadata, a
// markdown rendition, collapsed plain text, and harvested links.
package extract

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// Link is a single harvested anchor, absolutized against the page URL.
type Link struct {
	Href string `json:"href"`
	Text string `json:"text"`
}

// Metadata holds the document head fields collected from a page.
type Metadata struct {
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	URL           string `json:"url"`
	Language      string `json:"language"`
	Author        string `json:"author,omitempty"`
	PublishedTime string `json:"publishedTime,omitempty"`
	ModifiedTime  string `json:"modifiedTime,omitempty"`
}

// Document is the structured content of a scraped page.
type Document struct {
	URL      string   `json:"url"`
	Title    string   `json:"title"`
	Metadata Metadata `json:"metadata"`
	Markdown string   `json:"markdown"`
	Text     string   `json:"text"`
	HTML     string   `json:"html,omitempty"`
	Links    []Link   `json:"links,omitempty"`
}

// Options control which optional Document fields are populated.
type Options struct {
	IncludeHTML  bool
	IncludeLinks bool
}

var whitespaceRE = regexp.MustCompile(`\s+`)

// Extractor converts page HTML into Documents. It is safe for
// concurrent use.
type Extractor struct {
	conv *md.Converter
}

// New builds an Extractor with the markdown conversion rules used for
// page content: ATX headings, fenced code blocks, "-" bullets, and
// non-content elements stripped.
func New() *Extractor {
	conv := md.NewConverter("", true, &md.Options{
		HeadingStyle:     "atx",
		CodeBlockStyle:   "fenced",
		BulletListMarker: "-",
	})
	conv.Remove("script", "style", "nav", "footer", "iframe")
	return &Extractor{conv: conv}
}

// Parse extracts a Document from html. pageURL is the page's final URL
// after redirects; relative links are resolved against it.
func (e *Extractor) Parse(html, pageURL string, opts Options) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	meta := e.metadata(doc, pageURL)

	body := doc.Find("body")
	bodyHTML, err := body.Html()
	if err != nil || strings.TrimSpace(bodyHTML) == "" {
		bodyHTML = html
	}

	markdown, err := e.conv.ConvertString(bodyHTML)
	if err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}

	text := strings.TrimSpace(whitespaceRE.ReplaceAllString(body.Text(), " "))

	out := &Document{
		URL:      pageURL,
		Title:    meta.Title,
		Metadata: meta,
		Markdown: markdown,
		Text:     text,
	}
	if opts.IncludeHTML {
		out.HTML = html
	}
	if opts.IncludeLinks {
		out.Links = Links(doc, pageURL)
	}
	return out, nil
}

func (e *Extractor) metadata(doc *goquery.Document, pageURL string) Metadata {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = metaContent(doc, `meta[property="og:title"]`)
	}
	description := metaContent(doc, `meta[name="description"]`)
	if description == "" {
		description = metaContent(doc, `meta[property="og:description"]`)
	}
	language := strings.TrimSpace(doc.Find("html").AttrOr("lang", ""))
	if language == "" {
		language = "en"
	}
	return Metadata{
		Title:         title,
		Description:   description,
		URL:           pageURL,
		Language:      language,
		Author:        metaContent(doc, `meta[name="author"]`),
		PublishedTime: metaContent(doc, `meta[property="article:published_time"]`),
		ModifiedTime:  metaContent(doc, `meta[property="article:modified_time"]`),
	}
}

func metaContent(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().AttrOr("content", ""))
}

// Links harvests every anchor on the page. Fragment-only hrefs are
// skipped, relative hrefs are resolved against pageURL, and anchors
// without visible text get the placeholder "No text".
func Links(doc *goquery.Document, pageURL string) []Link {
	base, baseErr := url.Parse(pageURL)
	var links []Link
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		if baseErr == nil {
			ref, err := url.Parse(href)
			if err != nil {
				return
			}
			href = base.ResolveReference(ref).String()
		}
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			text = "No text"
		}
		links = append(links, Link{Href: href, Text: text})
	})
	return links
}
