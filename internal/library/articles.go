package library

import (
	"fmt"

	"github.com/matsen/citenum/internal/config"
	"github.com/matsen/citenum/internal/identity"
	"github.com/matsen/citenum/internal/numbering"
	"github.com/matsen/citenum/internal/reference"
	"github.com/matsen/citenum/internal/storage"
)

// ImportResult reports how harvested identities landed in the library.
type ImportResult struct {
	Added   []string       `json:"added"`   // IDs of new article records
	Matched map[int]string `json:"matched"` // Input index -> existing or earlier-added article ID
	Total   int            `json:"total"`   // Articles in the library afterwards
	DryRun  bool           `json:"dry_run"`
}

// AddArticles adds harvested identities to the library. See AddReferences.
func (l *Library) AddArticles(items []identity.ArticleIdentity) (*ImportResult, error) {
	refs := make([]reference.Reference, len(items))
	for i, item := range items {
		refs[i] = reference.FromIdentity(item)
		refs[i].ID = ""
	}
	return l.AddReferences(refs)
}

// AddReferences resolves incoming records against the library and each
// other. Records whose dedupe key is new become articles; the rest are
// matched to the canonical record, filling in fields it lacks. Incoming
// IDs are kept when free; empty IDs are derived from author and year.
func (l *Library) AddReferences(incoming []reference.Reference) (*ImportResult, error) {
	return l.addReferences(incoming, false)
}

// PreviewReferences reports what AddReferences would do without writing.
func (l *Library) PreviewReferences(incoming []reference.Reference) (*ImportResult, error) {
	return l.addReferences(incoming, true)
}

func (l *Library) addReferences(incoming []reference.Reference, dryRun bool) (*ImportResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	path := config.ArticlesPath(l.root)
	refs, err := storage.ReadAll(path)
	if err != nil {
		return nil, err
	}

	// Existing records go first so they stay canonical.
	all := make([]identity.ArticleIdentity, 0, len(refs)+len(incoming))
	for _, r := range refs {
		all = append(all, r.Identity())
	}
	for _, r := range incoming {
		all = append(all, r.Identity())
	}
	resolved := identity.Resolve(all, l.opts)

	result := &ImportResult{Matched: make(map[int]string), DryRun: dryRun}
	idOf := make(map[int]string, len(all)) // canonical input index -> article ID
	for i, r := range refs {
		idOf[i] = r.ID
	}

	base := len(refs)
	for j, ref := range incoming {
		i := base + j
		canon := resolved.Canonical(i)
		if canon != i {
			result.Matched[j] = idOf[canon]
			idx, _ := storage.FindByID(refs, idOf[canon])
			refs[idx] = enrich(refs[idx], ref)
			continue
		}

		id := ref.ID
		if id == "" {
			id = ref.BaseID()
		}
		ref.ID = storage.GenerateUniqueID(refs, id)
		refs = append(refs, ref)
		idOf[i] = ref.ID
		result.Added = append(result.Added, ref.ID)
	}

	result.Total = len(refs)
	if dryRun {
		return result, nil
	}

	if err := storage.WriteAll(path, refs); err != nil {
		return nil, err
	}
	l.keys.Purge()

	l.logger.Debug("imported articles", "added", len(result.Added), "matched", len(result.Matched))
	return result, nil
}

// enrich copies identifiers and metadata from dup into canon where canon has none.
func enrich(canon, dup reference.Reference) reference.Reference {
	if canon.PMID == "" {
		canon.PMID = dup.PMID
	}
	if canon.DOI == "" {
		canon.DOI = dup.DOI
	}
	if canon.Title == "" {
		canon.Title = dup.Title
	}
	if len(canon.Authors) == 0 {
		canon.Authors = dup.Authors
	}
	if canon.Abstract == "" {
		canon.Abstract = dup.Abstract
	}
	if canon.Venue == "" {
		canon.Venue = dup.Venue
	}
	if canon.Published.Year == 0 {
		canon.Published = dup.Published
	}
	if canon.PDFPath == "" {
		canon.PDFPath = dup.PDFPath
	}
	return canon
}

// DedupeResult reports a library-wide merge of duplicate records.
type DedupeResult struct {
	Groups     []DedupeGroup                          `json:"groups"`
	Removed    int                                    `json:"removed"`
	Redirected int                                    `json:"redirected"`        // Citations pointed at a new article ID
	Changes    map[string]map[string]numbering.Change `json:"changes,omitempty"` // Project -> citation -> change
	DryRun     bool                                   `json:"dry_run"`
}

// DedupeGroup is one canonical record and the records merged into it.
type DedupeGroup struct {
	Key        string   `json:"key"`
	Canonical  string   `json:"canonical"`
	Duplicates []string `json:"duplicates"`
}

// Dedupe merges article records that share a dedupe key into the first of
// them, redirects citations of the removed records (and of IDs listed in
// any record's MergedFrom) and compactifies every project whose numbering
// changed.
func (l *Library) Dedupe(dryRun bool) (*DedupeResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	refs, err := storage.ReadAll(config.ArticlesPath(l.root))
	if err != nil {
		return nil, err
	}

	items := make([]identity.ArticleIdentity, len(refs))
	for i, r := range refs {
		items[i] = r.Identity()
	}
	resolved := identity.Resolve(items, l.opts)

	result := &DedupeResult{DryRun: dryRun}
	redirect := make(map[string]string)
	for _, g := range resolved.Groups() {
		group := DedupeGroup{Key: g.Key, Canonical: refs[g.Canonical].ID}
		for _, d := range g.Duplicates {
			group.Duplicates = append(group.Duplicates, refs[d].ID)
			redirect[refs[d].ID] = refs[g.Canonical].ID
		}
		result.Groups = append(result.Groups, group)
	}
	result.Removed = len(redirect)

	// Citations may still name a record that was merged away outside
	// Dedupe, e.g. while resolving a merge conflict in articles.jsonl.
	present := make(map[string]bool, len(refs))
	for _, r := range refs {
		present[r.ID] = true
	}
	for _, r := range refs {
		to := r.ID
		if canon, ok := redirect[r.ID]; ok {
			to = canon
		}
		for _, old := range r.MergedFrom {
			if _, ok := redirect[old]; !ok && !present[old] {
				redirect[old] = to
			}
		}
	}

	if dryRun || len(redirect) == 0 {
		return result, nil
	}

	kept := make([]reference.Reference, 0, len(resolved.Unique))
	for _, i := range resolved.UniqueIndex {
		ref := refs[i]
		for _, j := range resolved.DuplicateIndex {
			if resolved.Canonical(j) == i {
				ref = enrich(ref, refs[j])
				ref.MergedFrom = append(ref.MergedFrom, refs[j].ID)
			}
		}
		kept = append(kept, ref)
	}

	docs, err := storage.ReadAllDocuments(config.DocumentsPath(l.root))
	if err != nil {
		return nil, err
	}
	touched := make(map[string]bool)
	for i := range docs {
		for k, c := range docs[i].Citations {
			if to, ok := redirect[c.ArticleID]; ok {
				docs[i].Citations[k].ArticleID = to
				result.Redirected++
				touched[docs[i].ProjectID] = true
			}
		}
	}

	if err := storage.WriteAll(config.ArticlesPath(l.root), kept); err != nil {
		return nil, err
	}
	if err := storage.WriteAllDocuments(config.DocumentsPath(l.root), docs); err != nil {
		return nil, err
	}
	l.keys.Purge()

	result.Changes = make(map[string]map[string]numbering.Change)
	for projectID := range touched {
		res, err := l.renumberLocked(projectID)
		if err != nil {
			return nil, fmt.Errorf("renumbering %s: %w", projectID, err)
		}
		if len(res.Changes) > 0 {
			result.Changes[projectID] = res.Changes
		}
	}

	return result, nil
}

// renumberLocked compactifies one project. Callers hold l.mu.
func (l *Library) renumberLocked(projectID string) (*EditResult, error) {
	s, err := l.load(projectID)
	if err != nil {
		return nil, err
	}
	return l.commit(s, numbering.Compactify(s.Citations), false)
}
