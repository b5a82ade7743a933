package scraper

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
	<title>  Acme   Contacts </title>
	<style>.x { color: red }</style>
</head>
<body>
	<h1 id="main">Directory</h1>
	<ul class="people">
		<li class="person" data-id="1"><span class="name">Ada Lovelace</span> ada@example.com</li>
		<li class="person" data-id="2"><span class="name">Alan Turing</span> alan@example.org</li>
	</ul>
	<p>Call +919876543210 or 9876543210 or (555) 123-4567.</p>
	<a href="/about">About</a>
	<a href="https://example.com/x">X</a>
	<a href="/about">About again</a>
	<div class="bio"><b>Bold</b><script>alert(1)</script></div>
	<script>var hidden = "do not index";</script>
</body>
</html>`

func parse(t *testing.T) *Document {
	t.Helper()
	doc, err := NewToolkit().Parse(samplePage)
	require.NoError(t, err)
	return doc
}

func TestParseRejectsEmpty(t *testing.T) {
	_, err := NewToolkit().Parse("")
	assert.ErrorIs(t, err, ErrEmptyHTML)
}

func TestTitle(t *testing.T) {
	doc := parse(t)
	assert.Equal(t, "Acme Contacts", doc.Title())

	bare, err := NewToolkit().Parse("<html><body><p>no title</p></body></html>")
	require.NoError(t, err)
	assert.Equal(t, "", bare.Title())
	assert.Equal(t, NoTitle, bare.TitleOr(NoTitle))
}

func TestText(t *testing.T) {
	text := parse(t).Text()
	assert.Contains(t, text, "Ada Lovelace ada@example.com")
	assert.NotContains(t, text, "do not index")
	assert.NotContains(t, text, "color: red")
}

func TestSelect(t *testing.T) {
	people := parse(t).Select("li.person")
	require.Len(t, people, 2)
	assert.Equal(t, "Ada Lovelace ada@example.com", people[0].Text)
	assert.Equal(t, "2", people[1].Attrs["data-id"])
	assert.Contains(t, people[0].HTML, "Ada Lovelace")

	assert.Empty(t, parse(t).Select(".missing"))
}

func TestSelectSanitizesHTML(t *testing.T) {
	bio := parse(t).Select(".bio")
	require.Len(t, bio, 1)
	assert.Contains(t, bio[0].HTML, "Bold")
	assert.NotContains(t, bio[0].HTML, "alert")
}

func TestXPath(t *testing.T) {
	doc := parse(t)

	names, err := doc.XPath(`//span[@class="name"]`)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ada Lovelace", "Alan Turing"}, names)

	_, err = doc.XPath(`//span[`)
	assert.Error(t, err)
}

func TestLinks(t *testing.T) {
	assert.Equal(t, []string{"/about", "https://example.com/x"}, parse(t).Links())
}

func TestExtractors(t *testing.T) {
	kit := NewToolkit()
	text := parse(t).Text()

	assert.Equal(t, []string{"ada@example.com", "alan@example.org"}, kit.ExtractEmails(text))
	assert.NotEmpty(t, kit.ExtractPhones(text))
}

func TestExtractFallbackPhones(t *testing.T) {
	kit := NewToolkit()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "bare numbers deduplicated in order",
			text: "Call 9876543210, 9876543210 or 0123456789",
			want: []string{"9876543210", "0123456789"},
		},
		{
			name: "country code form listed first",
			text: "Reach +919876543210",
			want: []string{"+919876543210", "9198765432"},
		},
		{
			name: "no digits",
			text: "Contact us by mail",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, kit.ExtractFallbackPhones(tt.text))
		})
	}
}

func TestFindAll(t *testing.T) {
	kit := NewToolkit()

	got, err := kit.FindAll(`\d+`, "a1 b22 c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "22", "1"}, got)

	none, err := kit.FindAll(`z`, "abc")
	require.NoError(t, err)
	assert.Equal(t, []string{}, none)

	_, err = kit.FindAll(`(`, "abc")
	assert.Error(t, err)
}

func TestRegexCache(t *testing.T) {
	kit := NewToolkit()
	a, err := kit.Regex(`\w+`)
	require.NoError(t, err)
	b, err := kit.Regex(`\w+`)
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestValidateHTMLSize(t *testing.T) {
	assert.NoError(t, ValidateHTML("<p>x</p>"))
	assert.Error(t, ValidateHTML(strings.Repeat("a", MaxHTMLSize+1)))
}

func TestNormalizeAndDeduplicate(t *testing.T) {
	assert.Equal(t, "a b c", NormalizeWhitespace("  a\n\tb   c "))
	assert.Equal(t, []string{"x", "y"}, Deduplicate([]string{"x", "y", "x"}))
	assert.Equal(t, "abc...", TruncateText("abcdefghij", 6))
}
