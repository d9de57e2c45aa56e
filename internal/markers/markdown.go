package markers

import (
	"sort"
	"strings"

	"github.com/matsen/citenum/internal/numbering"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// citeScheme is the link destination prefix of a Markdown marker.
const citeScheme = "cite:"

// mdMarker is a Markdown marker with the byte span of its visible label.
type mdMarker struct {
	Marker
	start, stop int
}

// scanMarkdown parses src and returns its markers in document order.
func scanMarkdown(src []byte) []mdMarker {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var found []mdMarker
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		link, ok := n.(*ast.Link)
		if !ok {
			return ast.WalkContinue, nil
		}
		dest := string(link.Destination)
		if !strings.HasPrefix(dest, citeScheme) {
			return ast.WalkContinue, nil
		}

		start, stop, label := labelSpan(link, src)
		found = append(found, mdMarker{
			Marker: Marker{
				CitationID: strings.TrimPrefix(dest, citeScheme),
				Number:     parseVisible(label),
				ArticleID:  string(link.Title),
			},
			start: start,
			stop:  stop,
		})
		return ast.WalkSkipChildren, nil
	})

	return found
}

// labelSpan returns the source span covered by the text nodes under link
// and the label text itself. start is -1 when the label has no text.
func labelSpan(link *ast.Link, src []byte) (int, int, string) {
	start, stop := -1, -1
	_ = ast.Walk(link, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := n.(*ast.Text); ok && entering {
			if start == -1 || t.Segment.Start < start {
				start = t.Segment.Start
			}
			if t.Segment.Stop > stop {
				stop = t.Segment.Stop
			}
		}
		return ast.WalkContinue, nil
	})
	if start == -1 {
		return -1, -1, ""
	}
	// Pull in the inner brackets if the parser left them out of the text nodes.
	if src[start] != '[' && start > 0 && src[start-1] == '[' {
		start--
	}
	if src[stop-1] != ']' && stop < len(src) && src[stop] == ']' {
		stop++
	}
	return start, stop, string(src[start:stop])
}

func extractMarkdown(content string) []Marker {
	scanned := scanMarkdown([]byte(content))
	out := make([]Marker, len(scanned))
	for i, m := range scanned {
		out[i] = m.Marker
	}
	return out
}

// updateMarkdown splices new labels into content, back to front so earlier
// offsets stay valid.
func updateMarkdown(content string, changes map[string]numbering.Change) string {
	scanned := scanMarkdown([]byte(content))
	sort.SliceStable(scanned, func(i, j int) bool { return scanned[i].start > scanned[j].start })

	out := content
	for _, m := range scanned {
		ch, ok := lookup(changes, m.CitationID)
		if !ok || m.start < 0 {
			continue
		}
		label := out[m.start:m.stop]
		out = out[:m.start] + replaceVisible(label, ch) + out[m.stop:]
	}
	return out
}
