// Package identity decides when article records from different providers
// denote the same publication.
package identity

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ArticleIdentity is a candidate bibliographic record before resolution.
// All fields are optional.
type ArticleIdentity struct {
	PMID     string          `json:"pmid,omitempty"`
	DOI      string          `json:"doi,omitempty"` // Unnormalized, as received
	Title    string          `json:"title,omitempty"`
	Year     Year            `json:"year,omitempty"`
	Authors  AuthorList      `json:"authors,omitempty"`
	Source   string          `json:"source,omitempty"` // Provider tag: pubmed, crossref, paperpile, ...
	RecordID string          `json:"record_id,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// Year is a publication year. Zero means absent. It unmarshals from a
// JSON number or string; anything unparseable degrades to zero.
type Year int

func (y *Year) UnmarshalJSON(data []byte) error {
	*y = 0
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && n > 0 {
		*y = Year(n)
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		*y = Year(int(f))
	}
	return nil
}

// String returns the year, or "" when absent.
func (y Year) String() string {
	if y <= 0 {
		return ""
	}
	return strconv.Itoa(int(y))
}

// AuthorList holds authors either as an ordered list of names or as a single
// free-text string (e.g. "Smith J, Doe A").
type AuthorList struct {
	Names []string // Set when the source provided a list
	Text  string   // Set when the source provided one string
}

// Authors builds a list-form AuthorList.
func Authors(names ...string) AuthorList {
	return AuthorList{Names: names}
}

// AuthorText builds a string-form AuthorList.
func AuthorText(s string) AuthorList {
	return AuthorList{Text: s}
}

// IsZero reports whether no authors are present.
func (a AuthorList) IsZero() bool {
	return len(a.Names) == 0 && a.Text == ""
}

func (a *AuthorList) UnmarshalJSON(data []byte) error {
	*a = AuthorList{}
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil
	}

	var names []string
	if err := json.Unmarshal(data, &names); err == nil {
		a.Names = names
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		a.Text = s
		return nil
	}

	// Lists of objects ({"name": ...} or {"first","last"}) from some providers
	var objs []map[string]any
	if err := json.Unmarshal(data, &objs); err == nil {
		for _, o := range objs {
			a.Names = append(a.Names, nameFromObject(o))
		}
		return nil
	}

	// Anything else is treated as absent rather than failing the record
	return nil
}

func (a AuthorList) MarshalJSON() ([]byte, error) {
	if a.Names != nil {
		return json.Marshal(a.Names)
	}
	if a.Text != "" {
		return json.Marshal(a.Text)
	}
	return []byte("null"), nil
}

func nameFromObject(o map[string]any) string {
	if n, ok := o["name"].(string); ok {
		return n
	}
	last, _ := o["last"].(string)
	first, _ := o["first"].(string)
	if last != "" && first != "" {
		return last + " " + first
	}
	return last + first
}
