package scraper

import "strings"

// Common regex patterns
const (
	EmailPattern     = `[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`
	PhoneUSPattern   = `\+?1?\s*\(?([0-9]{3})\)?[\s.-]?([0-9]{3})[\s.-]?([0-9]{4})`
	PhoneIntlPattern = `\+?([0-9]{1,3})?[\s.-]?\(?([0-9]{2,4})\)?[\s.-]?([0-9]{3,4})[\s.-]?([0-9]{4})`
)

// Digit-run phone patterns used by the rendered fallback tier, tried in
// order: Indian mobile with country code, bare ten digits, generic
// international digit runs.
var FallbackPhonePatterns = []string{
	`\+?91[0-9]{10}`,
	`[0-9]{10}`,
	`\+?[0-9]{10,12}`,
}

// FindAll returns every match of pattern in text, in order
func (t *Toolkit) FindAll(pattern, text string) ([]string, error) {
	re, err := t.Regex(pattern)
	if err != nil {
		return nil, err
	}
	matches := re.FindAllString(text, -1)
	if matches == nil {
		matches = []string{}
	}
	return matches, nil
}

// matchAll runs each pattern over text and returns unique, trimmed matches
// in first-seen order
func (t *Toolkit) matchAll(text string, patterns ...string) []string {
	var found []string
	for _, pattern := range patterns {
		re, err := t.Regex(pattern)
		if err != nil {
			continue
		}
		for _, m := range re.FindAllString(text, -1) {
			if m = strings.TrimSpace(m); m != "" {
				found = append(found, m)
			}
		}
	}
	return Deduplicate(found)
}

// ExtractEmails finds unique email addresses in text
func (t *Toolkit) ExtractEmails(text string) []string {
	return t.matchAll(text, EmailPattern)
}

// ExtractPhones finds unique phone numbers in US and international formats
func (t *Toolkit) ExtractPhones(text string) []string {
	return t.matchAll(text, PhoneUSPattern, PhoneIntlPattern)
}

// ExtractFallbackPhones finds unique digit-run phone numbers using
// FallbackPhonePatterns
func (t *Toolkit) ExtractFallbackPhones(text string) []string {
	return t.matchAll(text, FallbackPhonePatterns...)
}
