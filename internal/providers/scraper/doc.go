// Package scraper provides the HTML and text helpers shared by the sandbox
// scope and the fallback tiers.
//
// A Toolkit is safe for concurrent use and is shared process-wide. It caches
// compiled regular expressions and holds the HTML sanitizer. Toolkit.Parse
// yields a Document that answers CSS (goquery) and XPath (htmlquery) queries
// and the structured views built on them: tables, meta tags, JSON-LD,
// headings, lists and images.
//
// Input is size-limited (MaxHTMLSize) and decoded to UTF-8 using the
// declared charset, falling back to chardet detection.
//
//	kit := scraper.NewToolkit()
//	doc, err := kit.Parse(html)
//	if err != nil {
//		return err
//	}
//	for _, row := range doc.Tables("table.prices")[0].Records() {
//		...
//	}
package scraper
