// Package conflict resolves git merge conflicts in articles.jsonl using what
// the library knows about articles: records with the same dedupe key are
// the same publication, and the more complete record wins.
package conflict

import (
	"fmt"

	"github.com/matsen/citenum/internal/reference"
)

// Region is one git conflict region in a JSONL file.
type Region struct {
	// Line numbers in the original file (1-indexed)
	StartLine int // Line of <<<<<<< marker
	EndLine   int // Line of >>>>>>> marker

	Ours   []reference.Reference // Articles from the HEAD side
	Theirs []reference.Reference // Articles from the incoming side

	OursRaw   string // Raw JSONL, for error messages
	TheirsRaw string
}

// Match is an article that appears on both sides of a region.
type Match struct {
	Ours   reference.Reference
	Theirs reference.Reference
	Key    string // Dedupe key both sides share, or "id:<ID>"
}

// FieldConflict is a field both sides set to different values.
type FieldConflict struct {
	Field  string `json:"field"`
	Ours   string `json:"ours"`
	Theirs string `json:"theirs"`
}

// Plan describes how a matched pair will be resolved.
type Plan struct {
	ArticleID string          `json:"article_id"`
	Key       string          `json:"key"`
	Action    Action          `json:"action"`
	Reason    string          `json:"reason"`
	Conflicts []FieldConflict `json:"conflicts,omitempty"` // Empty if auto-resolvable
}

// Action is the kind of resolution applied to an article.
type Action string

const (
	ActionKeepOurs   Action = "keep_ours"   // Ours is more complete
	ActionKeepTheirs Action = "keep_theirs" // Theirs is more complete
	ActionMerge      Action = "merge"       // Complementary metadata merged
	ActionAddOurs    Action = "add_ours"    // Article only in ours
	ActionAddTheirs  Action = "add_theirs"  // Article only in theirs
	ActionConflict   Action = "conflict"    // Needs a human choice
)

// ParseError is a malformed conflict marker or JSONL line.
type ParseError struct {
	Line    int    // 1-indexed
	Message string
	Context string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// ParseResult is a conflicted file split into clean lines and regions.
type ParseResult struct {
	CleanLines []CleanLine
	Regions    []Region
}

// CleanLine is a line outside any conflict region.
type CleanLine struct {
	LineNum int
	Content string
}

// MatchResult pairs the articles of a region.
type MatchResult struct {
	Matches    []Match
	OursOnly   []reference.Reference
	TheirsOnly []reference.Reference
}
