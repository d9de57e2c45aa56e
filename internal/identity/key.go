package identity

import (
	"regexp"
	"strings"
	"unicode"
)

// Key prefixes, in precedence order.
const (
	PMIDPrefix   = "pmid:"
	DOIPrefix    = "doi:"
	RecordPrefix = "record:"
)

// Options controls how keys are derived.
type Options struct {
	// EnableSoftMatch adds the title|year|first-author key for records
	// that carry neither a PMID nor a DOI.
	EnableSoftMatch bool `json:"enable_soft_match" yaml:"enable_soft_match"`
}

var doiURLPrefix = regexp.MustCompile(`^https?://doi\.org/`)

// NormalizeDOI trims and lowercases a DOI and strips a leading
// https://doi.org/ (or http://) and doi: prefix. An empty result means no DOI.
func NormalizeDOI(doi string) string {
	d := strings.ToLower(strings.TrimSpace(doi))
	d = doiURLPrefix.ReplaceAllString(d, "")
	d = strings.TrimPrefix(d, "doi:")
	return d
}

// NormalizeTitle lowercases a title, replaces every character that is not a
// letter, digit or space with a space, collapses whitespace runs and trims.
func NormalizeTitle(title string) string {
	lower := strings.ToLower(title)
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' {
			return r
		}
		return ' '
	}, lower)
	return strings.Join(strings.Fields(mapped), " ")
}

// FirstAuthor returns the lowercased first author: element 0 of a list, or
// the first comma-separated segment of a string. Missing authors yield "".
func FirstAuthor(a AuthorList) string {
	var first string
	switch {
	case len(a.Names) > 0:
		first = a.Names[0]
	case a.Text != "":
		first = strings.SplitN(a.Text, ",", 2)[0]
	}
	return strings.ToLower(strings.TrimSpace(first))
}

// SoftKey returns "title|year|author" for fuzzy matching, or "" when the
// normalized title is empty. Year and author alone are too common to
// identify a publication.
func SoftKey(item ArticleIdentity) string {
	title := NormalizeTitle(item.Title)
	if title == "" {
		return ""
	}
	return title + "|" + item.Year.String() + "|" + FirstAuthor(item.Authors)
}

// DedupeKey derives the logical-source key of a record using the precedence
// pmid > doi > soft key (only when enabled) > record id. It never returns "".
func DedupeKey(item ArticleIdentity, opts Options) string {
	if pmid := strings.TrimSpace(item.PMID); pmid != "" {
		return PMIDPrefix + pmid
	}
	if doi := NormalizeDOI(item.DOI); doi != "" {
		return DOIPrefix + doi
	}
	if opts.EnableSoftMatch {
		if soft := SoftKey(item); soft != "" {
			return soft
		}
	}
	return RecordPrefix + strings.TrimSpace(item.RecordID)
}

// IsAnonymous reports whether key is a fallback key with no record id.
// Such keys identify nothing and never match another record.
func IsAnonymous(key string) bool {
	return key == RecordPrefix
}
