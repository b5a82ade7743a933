package codegen

import (
	"fmt"
	"strings"
)

const systemPrompt = `You write JavaScript that extracts data from one web page.

The code runs in a restricted interpreter. There is no require, import,
process, JSON, Date, eval, Function, Reflect or Proxy. Only these names are
available besides plain language built-ins (Object, Array, String, Number,
Math, RegExp, Map, Set):

  url                      the target URL (string)
  results                  an array; push one plain object per extracted item
  fetch(url)               returns the page HTML as a string
  render(url)              returns the HTML after a headless browser ran the page;
                           use it when fetch is blocked or the content is built by scripts
  parseHTML(html)          returns a document with:
                             title()          page title
                             text()           visible body text
                             select(css)      [{text, html, attrs, attr(name)}]
                             xpath(expr)      [string]
                             links()          [href]
                             tables(css?)     [{headers, rows, records}]; records
                                              are objects keyed by header
                             meta()           {standard, openGraph, twitter}
                             jsonLD()         parsed ld+json blocks
                             headings()       [{level, text, id}]
                             lists()          [{ordered, items}]
                             images()         [{src, alt, title}]
  findAll(pattern, text)   all regex matches as strings
  extractEmails(text)      unique email addresses
  extractPhones(text)      unique phone numbers
  sleep(minMs, maxMs)      pause a random time (at most 5 seconds)
  console.log(...)         debug output

Rules:
- Always push the requested data into results as flat objects with
  descriptive keys.
- Try fetch first; if it throws or the data is missing, try render.
- Never leave results empty when data can be found.
- Return only the code in a single ` + "```javascript" + ` block.`

// Example is shown to the model as the expected shape
const example = `var doc = parseHTML(fetch(url));
var emails = extractEmails(doc.text());
emails.forEach(function (email) {
	results.push({ email: email, url: url });
});`

func generatePrompt(prompt, url string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "URL: %s\n", url)
	fmt.Fprintf(&b, "User request: %s\n\n", strings.TrimSpace(prompt))
	b.WriteString("Write code that extracts the requested data from this URL.\n")
	b.WriteString("For phone numbers look for +91 prefixes and 10-digit runs.\n\n")
	b.WriteString("Example of the expected shape:\n```javascript\n")
	b.WriteString(example)
	b.WriteString("\n```\n")
	return b.String()
}

func repairPrompt(code, errText, url string) string {
	var b strings.Builder
	b.WriteString("The following scraping code failed. Fix it.\n\n")
	b.WriteString("Original code:\n```javascript\n")
	b.WriteString(strings.TrimSpace(code))
	b.WriteString("\n```\n\n")
	fmt.Fprintf(&b, "Error message:\n%s\n\n", errText)
	fmt.Fprintf(&b, "Target URL: %s\n\n", url)
	b.WriteString("Return only the corrected code in a single ```javascript block.\n")
	return b.String()
}
