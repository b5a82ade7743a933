package scraper

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// MaxHTMLSize limits HTML input to 10MB to prevent memory exhaustion
const MaxHTMLSize = 10 * 1024 * 1024

var ErrEmptyHTML = errors.New("html content required")

// Toolkit holds the shared, concurrency-safe helpers: a compiled regex cache
// and an HTML sanitizer. One Toolkit is shared by every sandbox and tier.
type Toolkit struct {
	regexCache sync.Map
	sanitizer  *bluemonday.Policy
}

// NewToolkit creates a toolkit with a UGC sanitizer
func NewToolkit() *Toolkit {
	return &Toolkit{
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// SanitizeHTML strips scripts, handlers and other active content
func (t *Toolkit) SanitizeHTML(htmlStr string) string {
	return t.sanitizer.Sanitize(htmlStr)
}

// Regex returns a cached compiled regex
func (t *Toolkit) Regex(pattern string) (*regexp.Regexp, error) {
	if cached, ok := t.regexCache.Load(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	actual, _ := t.regexCache.LoadOrStore(pattern, re)
	return actual.(*regexp.Regexp), nil
}

// ValidateHTML checks HTML size and returns error if too large
func ValidateHTML(htmlStr string) error {
	if len(htmlStr) == 0 {
		return ErrEmptyHTML
	}
	if len(htmlStr) > MaxHTMLSize {
		return fmt.Errorf("html exceeds maximum size of %d bytes", MaxHTMLSize)
	}
	return nil
}

// DetectCharset detects and returns charset from HTML bytes
func DetectCharset(data []byte) string {
	detector := chardet.NewHtmlDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

// utf8Reader returns a reader that yields UTF-8. Valid UTF-8 input is used
// as is; anything else is decoded from its detected charset, falling back to
// the raw bytes when that charset is unsupported.
func utf8Reader(htmlStr string) io.Reader {
	if utf8.ValidString(htmlStr) {
		return strings.NewReader(htmlStr)
	}
	data := []byte(htmlStr)
	r, err := charset.NewReader(bytes.NewReader(data), "text/html; charset="+DetectCharset(data))
	if err != nil {
		return strings.NewReader(htmlStr)
	}
	return r
}

// LoadHTML loads HTML with automatic charset detection
func LoadHTML(htmlStr string) (*goquery.Document, error) {
	if err := ValidateHTML(htmlStr); err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(utf8Reader(htmlStr))
}

// LoadHTMLNode loads HTML into an xpath-compatible node
func LoadHTMLNode(htmlStr string) (*html.Node, error) {
	if err := ValidateHTML(htmlStr); err != nil {
		return nil, err
	}
	return htmlquery.Parse(utf8Reader(htmlStr))
}

// NormalizeWhitespace collapses whitespace runs into one space and trims
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TruncateText truncates text to max length with ellipsis
func TruncateText(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// Deduplicate removes duplicate strings while preserving order
func Deduplicate(items []string) []string {
	seen := make(map[string]bool, len(items))
	result := make([]string, 0, len(items))

	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}
	return result
}
