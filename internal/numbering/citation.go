// Package numbering maintains citation numbers across a citation scope.
//
// Every function here is a pure transform: it takes the current citation
// list of a scope (a document, or a whole project flattened in document
// order) and returns a new list or a delta map. Callers serialize edits to
// a scope and persist the returned list as one write.
//
// Within a scope, after any operation:
//   - distinct inline numbers are exactly 1..K
//   - citations of the same source share one inline number
//   - sub-numbers of a source are exactly 1..M
//   - sources are numbered in order of first appearance
package numbering

// Citation is one in-document reference to a logical source.
type Citation struct {
	ID           string `json:"id"`
	DocumentID   string `json:"document_id,omitempty"`
	ArticleID    string `json:"article_id"`
	InlineNumber int    `json:"inline_number"` // The [n] shown to the reader
	SubNumber    int    `json:"sub_number"`    // Position among citations of the same source, from 1
	Note         string `json:"note,omitempty"`
	PageRange    string `json:"page_range,omitempty"`

	// Key is the dedupe key of the cited article. It is attached when a
	// scope is loaded and never persisted.
	Key string `json:"-"`
}

// sourceKey returns the grouping key, falling back to the article id for
// citations whose key was not attached.
func (c Citation) sourceKey() string {
	if c.Key != "" {
		return c.Key
	}
	return "article:" + c.ArticleID
}

// Numbers is the inline number and sub-number pair for a citation.
type Numbers struct {
	InlineNumber int `json:"inline_number"`
	SubNumber    int `json:"sub_number"`
}

// Change records an inline number before and after a renumbering.
type Change struct {
	Old int `json:"old"`
	New int `json:"new"`
}

// clone copies a citation list so transforms never alias caller memory.
func clone(cs []Citation) []Citation {
	out := make([]Citation, len(cs))
	copy(out, cs)
	return out
}
