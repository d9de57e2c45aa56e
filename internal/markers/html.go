package markers

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/matsen/citenum/internal/numbering"
	"golang.org/x/net/html"
)

// HTML marker attributes.
const (
	attrCitationID = "data-citation-id"
	attrArticleID  = "data-article-id"
	attrNumber     = "data-number"
)

func extractHTML(content string) ([]Marker, error) {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var found []Marker
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if id := attr(n, attrCitationID); id != "" {
				m := Marker{CitationID: id, ArticleID: attr(n, attrArticleID)}
				visible := parseVisible(textContent(n))
				if num, err := strconv.Atoi(attr(n, attrNumber)); err == nil {
					m.Number = num
					m.Visible = visible
				} else {
					m.Number = visible
				}
				found = append(found, m)
				return // Markers do not nest
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return found, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

// voidElements never have an end tag.
var voidElements = map[string]bool{
	"area": true, "br": true, "col": true, "embed": true, "hr": true, "img": true,
	"input": true, "link": true, "meta": true, "source": true, "track": true, "wbr": true,
}

// updateHTML streams the body through the tokenizer, copying raw bytes for
// every token except the start tag and text of markers being renumbered.
func updateHTML(content string, changes map[string]numbering.Change) (string, error) {
	z := html.NewTokenizer(strings.NewReader(content))
	var b strings.Builder
	b.Grow(len(content))

	var active numbering.Change
	depth := 0 // Open elements inside the marker being rewritten, including itself

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if errors.Is(z.Err(), io.EOF) {
				return b.String(), nil
			}
			return "", fmt.Errorf("tokenize html: %w", z.Err())
		}

		raw := string(z.Raw())

		switch tt {
		case html.StartTagToken:
			tok := z.Token()
			if depth > 0 {
				if !voidElements[tok.Data] {
					depth++
				}
				b.WriteString(raw)
				continue
			}
			if ch, ok := markerChange(tok, changes); ok {
				setAttr(&tok, attrNumber, strconv.Itoa(ch.New))
				b.WriteString(tok.String())
				active = ch
				depth = 1
				continue
			}
			b.WriteString(raw)

		case html.EndTagToken:
			if depth > 0 {
				depth--
			}
			b.WriteString(raw)

		case html.SelfClosingTagToken:
			tok := z.Token()
			if ch, ok := markerChange(tok, changes); ok && depth == 0 {
				setAttr(&tok, attrNumber, strconv.Itoa(ch.New))
				b.WriteString(tok.String())
				continue
			}
			b.WriteString(raw)

		case html.TextToken:
			if depth > 0 {
				b.WriteString(replaceVisible(raw, active))
				continue
			}
			b.WriteString(raw)

		default:
			b.WriteString(raw)
		}
	}
}

func markerChange(tok html.Token, changes map[string]numbering.Change) (numbering.Change, bool) {
	for _, a := range tok.Attr {
		if a.Key == attrCitationID {
			return lookup(changes, a.Val)
		}
	}
	return numbering.Change{}, false
}

func setAttr(tok *html.Token, key, val string) {
	for i, a := range tok.Attr {
		if a.Key == key {
			tok.Attr[i].Val = val
			return
		}
	}
	tok.Attr = append(tok.Attr, html.Attribute{Key: key, Val: val})
}
