package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/bytedance/sonic"
)

// Table is an HTML table split into header and body cells
type Table struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Records keys each row by header. Rows without headers use col_1, col_2...
// and cells past the last header get positional keys too.
func (t Table) Records() []map[string]any {
	out := make([]map[string]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]any, len(row))
		for i, cell := range row {
			key := ""
			if i < len(t.Headers) {
				key = t.Headers[i]
			}
			if key == "" {
				key = fmt.Sprintf("col_%d", i+1)
			}
			rec[key] = cell
		}
		out = append(out, rec)
	}
	return out
}

// Tables parses every table matching selector ("table" when empty). A first
// row made of <th> cells becomes the header.
func (d *Document) Tables(selector string) []Table {
	if strings.TrimSpace(selector) == "" {
		selector = "table"
	}

	var tables []Table
	d.doc.Find(selector).Each(func(_ int, table *goquery.Selection) {
		var t Table
		hasHeaders := table.Find("tr").First().Find("th").Length() > 0

		table.Find("tr").Each(func(i int, row *goquery.Selection) {
			var cells []string
			row.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, NormalizeWhitespace(cell.Text()))
			})
			switch {
			case i == 0 && hasHeaders:
				t.Headers = cells
			case len(cells) > 0:
				t.Rows = append(t.Rows, cells)
			}
		})
		tables = append(tables, t)
	})
	return tables
}

// Meta groups <meta> tags by vocabulary
type Meta struct {
	Standard  map[string]string `json:"standard"`
	OpenGraph map[string]string `json:"open_graph"`
	Twitter   map[string]string `json:"twitter"`
}

// Meta collects name/property meta tags. Open Graph keys lose their og:
// prefix; twitter: keys keep theirs.
func (d *Document) Meta() Meta {
	m := Meta{
		Standard:  map[string]string{},
		OpenGraph: map[string]string{},
		Twitter:   map[string]string{},
	}
	d.doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		content := strings.TrimSpace(s.AttrOr("content", ""))
		if content == "" {
			return
		}
		property := s.AttrOr("property", "")
		name := s.AttrOr("name", "")
		switch {
		case strings.HasPrefix(property, "og:"):
			m.OpenGraph[strings.TrimPrefix(property, "og:")] = content
		case strings.HasPrefix(name, "twitter:"), strings.HasPrefix(property, "twitter:"):
			m.Twitter[name+property] = content
		case name != "":
			m.Standard[name] = content
		}
	})
	return m
}

// JSONLD decodes every application/ld+json block, skipping malformed ones
func (d *Document) JSONLD() []any {
	var out []any
	d.doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		content := strings.TrimSpace(s.Text())
		if content == "" {
			return
		}
		var v any
		if err := sonic.UnmarshalString(content, &v); err == nil {
			out = append(out, v)
		}
	})
	return out
}

// Heading is one h1-h6 element
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	ID    string `json:"id,omitempty"`
}

// Headings returns non-empty headings in document order
func (d *Document) Headings() []Heading {
	var out []Heading
	d.doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		text := NormalizeWhitespace(s.Text())
		if text == "" {
			return
		}
		level := int(goquery.NodeName(s)[1] - '0')
		out = append(out, Heading{Level: level, Text: text, ID: s.AttrOr("id", "")})
	})
	return out
}

// List is a ul or ol with its direct item texts
type List struct {
	Ordered bool     `json:"ordered"`
	Items   []string `json:"items"`
}

// Lists returns every non-empty list. Item text excludes nested lists.
func (d *Document) Lists() []List {
	var out []List
	d.doc.Find("ul, ol").Each(func(_ int, list *goquery.Selection) {
		var items []string
		list.ChildrenFiltered("li").Each(func(_ int, item *goquery.Selection) {
			clone := item.Clone()
			clone.Find("ul, ol").Remove()
			if text := NormalizeWhitespace(clone.Text()); text != "" {
				items = append(items, text)
			}
		})
		if len(items) > 0 {
			out = append(out, List{Ordered: list.Is("ol"), Items: items})
		}
	})
	return out
}

// Image is an img element with a source
type Image struct {
	Src   string `json:"src"`
	Alt   string `json:"alt"`
	Title string `json:"title,omitempty"`
}

// Images returns every img with a non-empty src
func (d *Document) Images() []Image {
	var out []Image
	d.doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src := strings.TrimSpace(s.AttrOr("src", ""))
		if src == "" {
			return
		}
		out = append(out, Image{Src: src, Alt: s.AttrOr("alt", ""), Title: s.AttrOr("title", "")})
	})
	return out
}
