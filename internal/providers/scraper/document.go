package scraper

import (
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// NoTitle is reported when a page has no <title>
const NoTitle = "No title found"

// Element is a plain-data view of a selected node
type Element struct {
	Text  string            `json:"text"`
	HTML  string            `json:"html"`
	Attrs map[string]string `json:"attrs"`
}

// Document is a parsed page supporting CSS and XPath queries
type Document struct {
	raw string
	doc *goquery.Document
	kit *Toolkit

	nodeOnce sync.Once
	node     *html.Node
	nodeErr  error
}

// Parse parses HTML into a Document
func (t *Toolkit) Parse(htmlStr string) (*Document, error) {
	doc, err := LoadHTML(htmlStr)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{raw: htmlStr, doc: doc, kit: t}, nil
}

// Title returns the trimmed page title, or "" when absent
func (d *Document) Title() string {
	return NormalizeWhitespace(d.doc.Find("title").First().Text())
}

// TitleOr returns the page title or fallback when absent
func (d *Document) TitleOr(fallback string) string {
	if title := d.Title(); title != "" {
		return title
	}
	return fallback
}

// Text returns the whitespace-normalized text of the body, without scripts
// and styles
func (d *Document) Text() string {
	body := d.doc.Find("body")
	if body.Length() == 0 {
		body = d.doc.Selection
	}
	body = body.Clone()
	body.Find("script, style, noscript").Remove()
	return NormalizeWhitespace(body.Text())
}

// Select returns the elements matching a CSS selector
func (d *Document) Select(selector string) []Element {
	sel := d.doc.Find(selector)
	out := make([]Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, d.element(s))
	})
	return out
}

func (d *Document) element(s *goquery.Selection) Element {
	el := Element{
		Text:  NormalizeWhitespace(s.Text()),
		Attrs: map[string]string{},
	}
	if inner, err := s.Html(); err == nil {
		el.HTML = d.kit.SanitizeHTML(strings.TrimSpace(inner))
	}
	if n := s.Get(0); n != nil {
		for _, a := range n.Attr {
			el.Attrs[a.Key] = a.Val
		}
	}
	return el
}

// XPath evaluates expr and returns the text of each matching node
func (d *Document) XPath(expr string) ([]string, error) {
	d.nodeOnce.Do(func() {
		d.node, d.nodeErr = LoadHTMLNode(d.raw)
	})
	if d.nodeErr != nil {
		return nil, d.nodeErr
	}

	nodes, err := htmlquery.QueryAll(d.node, expr)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath %q: %w", expr, err)
	}
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, NormalizeWhitespace(htmlquery.InnerText(n)))
	}
	return out, nil
}

// Links returns the absolute-or-relative href of every anchor, deduplicated
func (d *Document) Links() []string {
	var links []string
	d.doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok && strings.TrimSpace(href) != "" {
			links = append(links, strings.TrimSpace(href))
		}
	})
	return Deduplicate(links)
}
