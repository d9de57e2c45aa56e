package export

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/matsen/citenum/internal/identity"
	"github.com/matsen/citenum/internal/reference"
)

// BibIndex records which articles a .bib file already holds. Entries are
// indexed under the same dedupe keys the library resolves articles with,
// and under their citekeys.
type BibIndex struct {
	opts     identity.Options
	byKey    map[string]string // dedupe key -> citekey
	citekeys map[string]bool
}

// NewBibIndex returns an empty index that derives keys with opts.
func NewBibIndex(opts identity.Options) *BibIndex {
	return &BibIndex{
		opts:     opts,
		byKey:    make(map[string]string),
		citekeys: make(map[string]bool),
	}
}

// Add indexes an entry under its citekey, its aliases and its identity.
// The first entry to claim a dedupe key keeps it.
func (idx *BibIndex) Add(citekey string, aliases []string, item identity.ArticleIdentity) {
	idx.citekeys[citekey] = true
	for _, alias := range aliases {
		idx.citekeys[alias] = true
	}
	for _, key := range matchKeys(item, idx.opts) {
		if _, taken := idx.byKey[key]; !taken {
			idx.byKey[key] = citekey
		}
	}
}

// Lookup returns the citekey of the entry that already holds ref. An entry
// matches when it shares any identity key with ref (PMID, DOI or, with
// soft matching, title/year/author) or carries ref's ID as a citekey.
func (idx *BibIndex) Lookup(ref reference.Reference) (string, bool) {
	for _, key := range matchKeys(ref.Identity(), idx.opts) {
		if citekey, ok := idx.byKey[key]; ok {
			return citekey, true
		}
	}
	for _, id := range append([]string{ref.ID}, ref.MergedFrom...) {
		if id != "" && idx.citekeys[id] {
			return id, true
		}
	}
	return "", false
}

// Len returns the number of citekeys indexed.
func (idx *BibIndex) Len() int {
	return len(idx.citekeys)
}

// matchKeys lists the dedupe keys item answers to: its own key, then the
// keys it would have with its strongest identifiers dropped in turn, so an
// entry with both PMID and DOI still meets a record that has only the DOI.
// Record keys are left out; citekeys are matched separately.
func matchKeys(item identity.ArticleIdentity, opts identity.Options) []string {
	item.RecordID = ""
	var keys []string
	for {
		key := identity.DedupeKey(item, opts)
		if identity.IsAnonymous(key) {
			return keys
		}
		keys = append(keys, key)
		switch {
		case strings.TrimSpace(item.PMID) != "":
			item.PMID = ""
		case identity.NormalizeDOI(item.DOI) != "":
			item.DOI = ""
		default:
			return keys
		}
	}
}

// ParseBibTeXFile indexes the entries of an existing .bib file. A missing
// file yields an empty index.
func ParseBibTeXFile(path string, opts identity.Options) (*BibIndex, error) {
	idx := NewBibIndex(opts)

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, err
	}
	defer file.Close()

	err = scanBibEntries(file, func(e bibEntry) {
		ref := e.reference()
		idx.Add(e.key, ref.MergedFrom, ref.Identity())
	})
	return idx, err
}

// AppendToBibFile appends rendered entries to a .bib file, creating it if needed.
func AppendToBibFile(path, content string) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	if _, err := file.WriteString("\n" + content); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// bibEntry is one parsed @type{key, ...} block with lowercased field names.
type bibEntry struct {
	key    string
	fields map[string]string
}

var (
	bibEntryStart = regexp.MustCompile(`^\s*@(\w+)\s*\{\s*([^,\s]+)\s*,`)
	bibFieldStart = regexp.MustCompile(`^\s*(\w+)\s*=\s*(.*)$`)
)

// Entry types that hold no reference.
var bibDirectives = map[string]bool{"comment": true, "string": true, "preamble": true}

// scanBibEntries calls fn for each entry in r. Field values may span lines
// while their braces are open.
func scanBibEntries(r io.Reader, fn func(bibEntry)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var cur *bibEntry
	var open string // field whose value continues on the next line
	var value strings.Builder
	depth := 0

	flush := func() {
		if open != "" {
			cur.fields[open] = bibValue(value.String())
			open = ""
		}
		if cur != nil {
			fn(*cur)
		}
		cur = nil
	}

	for scanner.Scan() {
		line := scanner.Text()

		if open != "" {
			value.WriteByte(' ')
			value.WriteString(strings.TrimSpace(line))
			if depth += braceDepth(line); depth <= 0 {
				cur.fields[open] = bibValue(value.String())
				open = ""
			}
			continue
		}

		if m := bibEntryStart.FindStringSubmatch(line); m != nil {
			flush()
			if !bibDirectives[strings.ToLower(m[1])] {
				cur = &bibEntry{key: m[2], fields: make(map[string]string)}
			}
			continue
		}
		if cur == nil {
			continue
		}

		if m := bibFieldStart.FindStringSubmatch(line); m != nil {
			name := strings.ToLower(m[1])
			if depth = braceDepth(m[2]); depth > 0 {
				open = name
				value.Reset()
				value.WriteString(strings.TrimSpace(m[2]))
				continue
			}
			cur.fields[name] = bibValue(m[2])
		}
	}
	flush()
	return scanner.Err()
}

// braceDepth returns the unescaped '{' count minus the '}' count of s.
func braceDepth(s string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			depth--
		}
	}
	return depth
}

var bibUnbrace = strings.NewReplacer(`\{`, "{", `\}`, "}", "{", "", "}", "")

// bibValue strips the delimiters, inner grouping braces and trailing comma
// of a raw field value and collapses whitespace.
func bibValue(raw string) string {
	v := strings.TrimSuffix(strings.TrimSpace(raw), ",")
	v = strings.TrimSpace(v)
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		v = v[1 : len(v)-1]
	}
	return strings.Join(strings.Fields(bibUnbrace.Replace(v)), " ")
}

// reference converts the fields that identify an article.
func (e bibEntry) reference() reference.Reference {
	ref := reference.Reference{
		ID:    e.key,
		PMID:  e.fields["pmid"],
		DOI:   identity.NormalizeDOI(e.fields["doi"]),
		Title: e.fields["title"],
	}
	ref.Published.Year, _ = strconv.Atoi(e.fields["year"])

	if names := e.fields["author"]; names != "" {
		for _, name := range strings.Split(names, " and ") {
			if a, ok := bibAuthor(name); ok {
				ref.Authors = append(ref.Authors, a)
			}
		}
	}

	if ids := e.fields["ids"]; ids != "" {
		for _, id := range strings.Split(ids, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ref.MergedFrom = append(ref.MergedFrom, id)
			}
		}
	}
	return ref
}

// bibAuthor parses "Last, First" or "First Last".
func bibAuthor(name string) (reference.Author, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return reference.Author{}, false
	}
	if last, first, ok := strings.Cut(name, ","); ok {
		return reference.Author{Last: strings.TrimSpace(last), First: strings.TrimSpace(first)}, true
	}
	words := strings.Fields(name)
	return reference.Author{Last: words[len(words)-1], First: strings.Join(words[:len(words)-1], " ")}, true
}
