package reference

import "strings"

// Author represents a paper author with optional ORCID identifier.
type Author struct {
	First string `json:"first"`           // First/given name(s)
	Last  string `json:"last"`            // Last/family name
	ORCID string `json:"orcid,omitempty"` // ORCID identifier (without URL prefix)
}

// SortName formats the author as "Last First", the form search providers
// such as PubMed use for author strings.
func (a Author) SortName() string {
	if a.First == "" {
		return a.Last
	}
	return a.Last + " " + a.First
}

// ParseSortName parses a "Last First" string. Returns false for blank input.
func ParseSortName(s string) (Author, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return Author{}, false
	}
	return Author{Last: fields[0], First: strings.Join(fields[1:], " ")}, true
}
