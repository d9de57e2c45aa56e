// Package markers finds and rewrites citation markers embedded in document
// bodies.
//
// HTML bodies carry markers as
//
//	<span data-citation-id="c1" data-article-id="a1" data-number="3">[3]</span>
//
// and Markdown bodies as
//
//	[[3]](cite:c1 "a1")
package markers

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/matsen/citenum/internal/numbering"
	"golang.org/x/net/html"
)

// Format is a document body format.
type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
)

// ValidFormats lists the supported body formats.
var ValidFormats = []Format{FormatHTML, FormatMarkdown}

// ParseFormat validates a format name. "md" is accepted for Markdown.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "html", "htm":
		return FormatHTML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown content format %q (valid: %v)", s, ValidFormats)
}

// Extension returns the file extension for bodies in this format.
func (f Format) Extension() string {
	if f == FormatHTML {
		return ".html"
	}
	return ".md"
}

// FormatForPath guesses the format from a file extension.
func FormatForPath(path string) (Format, error) {
	return ParseFormat(strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
}

// Marker is one citation marker found in a body.
type Marker struct {
	CitationID string `json:"citation_id"`
	Number     int    `json:"number"`
	ArticleID  string `json:"article_id,omitempty"`
	// Visible is the [n] an HTML marker displays next to its data-number
	// attribute; 0 when there is no attribute or no displayed number.
	Visible int `json:"visible,omitempty"`
}

// Shows reports whether the marker both records and displays n.
func (m Marker) Shows(n int) bool {
	return m.Number == n && (m.Visible == 0 || m.Visible == n)
}

// Displayed returns the number a reader sees.
func (m Marker) Displayed() int {
	if m.Visible != 0 {
		return m.Visible
	}
	return m.Number
}

// Render returns the marker text for m in the given format.
func Render(format Format, m Marker) string {
	if format == FormatHTML {
		return fmt.Sprintf(`<span data-citation-id="%s" data-article-id="%s" data-number="%d">[%d]</span>`,
			html.EscapeString(m.CitationID), html.EscapeString(m.ArticleID), m.Number, m.Number)
	}
	return fmt.Sprintf(`[[%d]](%s%s %q)`, m.Number, citeScheme, m.CitationID, m.ArticleID)
}

// Extract returns the markers of content in document order.
func Extract(content string, format Format) ([]Marker, error) {
	switch format {
	case FormatHTML:
		return extractHTML(content)
	case FormatMarkdown:
		return extractMarkdown(content), nil
	}
	return nil, fmt.Errorf("unknown content format %q", format)
}

// UpdateMarkersInContent rewrites the markers whose citation id appears in
// changes with Old != New, updating both the machine-readable number and the
// visible [n]. Everything else in content is returned byte for byte; an
// empty map returns content unchanged.
func UpdateMarkersInContent(content string, format Format, changes map[string]numbering.Change) (string, error) {
	if !hasEffectiveChange(changes) {
		return content, nil
	}
	switch format {
	case FormatHTML:
		return updateHTML(content, changes)
	case FormatMarkdown:
		return updateMarkdown(content, changes), nil
	}
	return "", fmt.Errorf("unknown content format %q", format)
}

func hasEffectiveChange(changes map[string]numbering.Change) bool {
	for _, ch := range changes {
		if ch.Old != ch.New {
			return true
		}
	}
	return false
}

// lookup returns the change for id when it actually renumbers.
func lookup(changes map[string]numbering.Change, id string) (numbering.Change, bool) {
	ch, ok := changes[id]
	if !ok || ch.Old == ch.New {
		return numbering.Change{}, false
	}
	return ch, true
}

// visibleNumber matches the leading number of a displayed marker such as
// "[3]", "[3#2]" or "[3, p. 12]".
var visibleNumber = regexp.MustCompile(`\[(\d+)([\]#,;:\s])`)

// replaceVisible rewrites every displayed [old...] in s to [new...].
func replaceVisible(s string, ch numbering.Change) string {
	old := strconv.Itoa(ch.Old)
	return visibleNumber.ReplaceAllStringFunc(s, func(m string) string {
		sub := visibleNumber.FindStringSubmatch(m)
		if sub[1] != old {
			return m
		}
		return "[" + strconv.Itoa(ch.New) + sub[2]
	})
}

// parseVisible returns the first displayed number in s, or 0.
func parseVisible(s string) int {
	sub := visibleNumber.FindStringSubmatch(s)
	if sub == nil {
		return 0
	}
	n, _ := strconv.Atoi(sub[1])
	return n
}
