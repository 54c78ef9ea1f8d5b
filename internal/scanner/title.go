package scanner

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// SourceUnknown is stored when a title carries no trailing source segment.
const SourceUnknown = "Unknown"

// Google News titles end with " - <publisher>"; the trailing segment never
// contains a further hyphen.
var sourcePattern = regexp.MustCompile(`\s-\s([^-]+)$`)

// ParseTitle splits a raw feed-item title into a cleaned title and a display
// source. Markup and entities are stripped first; when no trailing source
// segment is present the trimmed title is returned with SourceUnknown.
func ParseTitle(raw string) (title, source string) {
	raw = stripMarkup(raw)

	m := sourcePattern.FindStringSubmatchIndex(raw)
	if m == nil {
		return strings.TrimSpace(raw), SourceUnknown
	}
	source = strings.TrimSpace(raw[m[2]:m[3]])
	title = strings.TrimSpace(raw[:m[0]])
	return title, source
}

// stripMarkup drops HTML tags and decodes entities from a title string.
// Some upstream feeds wrap titles in markup like <b> or escape quotes.
func stripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}
