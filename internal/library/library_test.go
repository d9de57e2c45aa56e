package library

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matsen/citenum/internal/config"
	"github.com/matsen/citenum/internal/document"
	"github.com/matsen/citenum/internal/identity"
	"github.com/matsen/citenum/internal/markers"
	"github.com/matsen/citenum/internal/numbering"
	"github.com/matsen/citenum/internal/reference"
	"github.com/matsen/citenum/internal/storage"
)

// newTestLibrary creates a repository with a two-document project and
// three articles: Smith2020, Jones and Lee.
func newTestLibrary(t *testing.T) *Library {
	t.Helper()

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(config.EnvSoftMatch, "")
	config.ResetGlobalConfigCache()
	t.Cleanup(config.ResetGlobalConfigCache)

	root := t.TempDir()
	if _, err := config.Init(root); err != nil {
		t.Fatalf("config.Init() error = %v", err)
	}

	lib, err := Open(root)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if _, err := lib.CreateProject(document.Project{ID: "thesis", Name: "Thesis"}); err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	for _, id := range []string{"intro", "methods"} {
		if _, err := lib.CreateDocument(document.Document{ID: id, ProjectID: "thesis", Title: id}); err != nil {
			t.Fatalf("CreateDocument(%s) error = %v", id, err)
		}
	}

	res, err := lib.AddArticles([]identity.ArticleIdentity{
		{PMID: "1", Title: "Alpha", Year: 2020, Authors: identity.AuthorText("Smith J")},
		{DOI: "10.1/B", Title: "Beta", Authors: identity.Authors("Jones K")},
		{PMID: "3", Title: "Gamma", Authors: identity.AuthorText("Lee")},
	})
	if err != nil {
		t.Fatalf("AddArticles() error = %v", err)
	}
	if want := []string{"Smith2020", "Jones", "Lee"}; !reflect.DeepEqual(res.Added, want) {
		t.Fatalf("AddArticles() added %v, want %v", res.Added, want)
	}

	return lib
}

// cite inserts a citation at the end of a document and returns its ID.
func cite(t *testing.T, lib *Library, doc, article string) string {
	t.Helper()
	res, err := lib.InsertCitation(InsertRequest{ProjectID: "thesis", DocumentID: doc, ArticleID: article, Position: -1})
	if err != nil {
		t.Fatalf("InsertCitation(%s, %s) error = %v", doc, article, err)
	}
	if res.Citation == nil {
		t.Fatal("InsertCitation() returned no citation")
	}
	return res.Citation.ID
}

func snapshot(t *testing.T, lib *Library) *Snapshot {
	t.Helper()
	s, err := lib.Snapshot("thesis")
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	return s
}

func check(t *testing.T, lib *Library) *CheckResult {
	t.Helper()
	result, err := lib.Check("thesis")
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	return result
}

// numbersByID maps citation ID to its numbers in the project scope.
func numbersByID(t *testing.T, lib *Library) map[string]numbering.Numbers {
	t.Helper()
	s := snapshot(t, lib)
	out := make(map[string]numbering.Numbers, len(s.Citations))
	for _, c := range s.Citations {
		out[c.ID] = numbering.Numbers{InlineNumber: c.InlineNumber, SubNumber: c.SubNumber}
	}
	return out
}

func checkChanges(t *testing.T, got, want map[string]numbering.Change) {
	t.Helper()
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Changes = %v, want %v", got, want)
	}
}

// writeContent writes a body holding a marker per citation of doc.
func writeContent(t *testing.T, lib *Library, doc string, format markers.Format) string {
	t.Helper()
	var b strings.Builder
	for _, c := range snapshot(t, lib).Citations {
		if c.DocumentID != doc {
			continue
		}
		b.WriteString("See ")
		b.WriteString(markers.Render(format, markers.Marker{CitationID: c.ID, Number: c.InlineNumber, ArticleID: c.ArticleID}))
		b.WriteString(".\n")
	}

	path := filepath.Join(lib.Root(), config.ContentDir, doc+format.Extension())
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestAddArticles_MatchesDuplicates(t *testing.T) {
	lib := newTestLibrary(t)

	res, err := lib.AddArticles([]identity.ArticleIdentity{
		{PMID: "1", DOI: "10.1/alpha"},
		{Title: "Delta", Authors: identity.AuthorText("Smith J"), Year: 2020},
		{PMID: "1"},
	})
	if err != nil {
		t.Fatalf("AddArticles() error = %v", err)
	}

	if want := map[int]string{0: "Smith2020", 2: "Smith2020"}; !reflect.DeepEqual(res.Matched, want) {
		t.Errorf("Matched = %v, want %v", res.Matched, want)
	}
	if want := []string{"Smith2020-2"}; !reflect.DeepEqual(res.Added, want) {
		t.Errorf("Added = %v, want %v", res.Added, want)
	}
	if res.Total != 4 {
		t.Errorf("Total = %d, want 4", res.Total)
	}

	smith, err := lib.Article("Smith2020")
	if err != nil {
		t.Fatal(err)
	}
	if smith.DOI != "10.1/alpha" {
		t.Errorf("DOI = %q, want it filled from the duplicate", smith.DOI)
	}
}

func TestPreviewReferences_DoesNotWrite(t *testing.T) {
	lib := newTestLibrary(t)

	res, err := lib.PreviewReferences([]reference.Reference{
		{ID: "Lee2021", PMID: "3"},
		{Title: "Epsilon", Authors: []reference.Author{{Last: "Park"}}, Published: reference.PublicationDate{Year: 2021}},
	})
	if err != nil {
		t.Fatalf("PreviewReferences() error = %v", err)
	}

	if !res.DryRun {
		t.Error("DryRun = false")
	}
	if want := map[int]string{0: "Lee"}; !reflect.DeepEqual(res.Matched, want) {
		t.Errorf("Matched = %v, want %v", res.Matched, want)
	}
	if want := []string{"Park2021"}; !reflect.DeepEqual(res.Added, want) {
		t.Errorf("Added = %v, want %v", res.Added, want)
	}
	if res.Total != 4 {
		t.Errorf("Total = %d, want 4", res.Total)
	}
	if ids, want := articleIDs(t, lib), []string{"Smith2020", "Jones", "Lee"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("articles = %v, want %v", ids, want)
	}
}

func TestInsertCitation(t *testing.T) {
	lib := newTestLibrary(t)

	c1 := cite(t, lib, "intro", "Smith2020")
	c2 := cite(t, lib, "intro", "Jones")
	c3 := cite(t, lib, "methods", "Smith2020")
	c4 := cite(t, lib, "methods", "Lee")

	want := map[string]numbering.Numbers{
		c1: {InlineNumber: 1, SubNumber: 1},
		c2: {InlineNumber: 2, SubNumber: 1},
		c3: {InlineNumber: 1, SubNumber: 2},
		c4: {InlineNumber: 3, SubNumber: 1},
	}
	if got := numbersByID(t, lib); !reflect.DeepEqual(got, want) {
		t.Errorf("numbers = %v, want %v", got, want)
	}

	result := check(t, lib)
	if !result.Numbering.Valid {
		t.Errorf("Numbering errors = %v", result.Numbering.Errors)
	}
	if len(result.Dangling) != 0 {
		t.Errorf("Dangling = %v", result.Dangling)
	}
}

func TestInsertCitation_AtFrontResequences(t *testing.T) {
	lib := newTestLibrary(t)

	c1 := cite(t, lib, "intro", "Smith2020")
	res, err := lib.InsertCitation(InsertRequest{ProjectID: "thesis", DocumentID: "intro", ArticleID: "Lee", Position: 0})
	if err != nil {
		t.Fatalf("InsertCitation() error = %v", err)
	}

	if res.Citation.InlineNumber != 1 {
		t.Errorf("new citation number = %d, want 1", res.Citation.InlineNumber)
	}
	checkChanges(t, res.Changes, map[string]numbering.Change{c1: {Old: 1, New: 2}})
}

func TestInsertCitation_Errors(t *testing.T) {
	lib := newTestLibrary(t)

	tests := []struct {
		name string
		req  InsertRequest
		want error
	}{
		{"unknown article", InsertRequest{ProjectID: "thesis", DocumentID: "intro", ArticleID: "Nobody"}, ErrArticleNotFound},
		{"unknown document", InsertRequest{ProjectID: "thesis", DocumentID: "appendix", ArticleID: "Lee"}, document.ErrDocumentNotFound},
		{"unknown project", InsertRequest{ProjectID: "grant", DocumentID: "intro", ArticleID: "Lee"}, document.ErrProjectNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := lib.InsertCitation(tt.req); !errors.Is(err, tt.want) {
				t.Errorf("InsertCitation() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDeleteCitation_RewritesMarkers(t *testing.T) {
	lib := newTestLibrary(t)

	cite(t, lib, "intro", "Smith2020")
	c2 := cite(t, lib, "intro", "Jones")
	cite(t, lib, "methods", "Smith2020")
	c4 := cite(t, lib, "methods", "Lee")
	methods := writeContent(t, lib, "methods", markers.FormatMarkdown)

	res, err := lib.DeleteCitation("thesis", c2, "")
	if err != nil {
		t.Fatalf("DeleteCitation() error = %v", err)
	}

	checkChanges(t, res.Changes, map[string]numbering.Change{c4: {Old: 3, New: 2}})
	if want := []string{"methods"}; !reflect.DeepEqual(res.Rewritten, want) {
		t.Errorf("Rewritten = %v, want %v", res.Rewritten, want)
	}

	body := readFile(t, methods)
	if !strings.Contains(body, "[[2]](cite:"+c4) || strings.Contains(body, "[[3]]") {
		t.Errorf("methods body not renumbered:\n%s", body)
	}

	if result := check(t, lib); !result.Numbering.Valid {
		t.Errorf("Numbering errors = %v", result.Numbering.Errors)
	}

	if _, err := lib.DeleteCitation("thesis", c2, ""); !errors.Is(err, numbering.ErrCitationNotFound) {
		t.Errorf("second DeleteCitation() error = %v, want ErrCitationNotFound", err)
	}
}

func TestStaleRevision(t *testing.T) {
	lib := newTestLibrary(t)

	c1 := cite(t, lib, "intro", "Smith2020")
	before := snapshot(t, lib)

	cite(t, lib, "intro", "Jones")

	if _, err := lib.DeleteCitation("thesis", c1, before.Revision); !errors.Is(err, ErrStaleRevision) {
		t.Errorf("DeleteCitation(stale) error = %v, want ErrStaleRevision", err)
	}

	current := snapshot(t, lib)
	if _, err := lib.DeleteCitation("thesis", c1, current.Revision); err != nil {
		t.Errorf("DeleteCitation(current) error = %v", err)
	}
}

func TestReorderCitations(t *testing.T) {
	lib := newTestLibrary(t)

	c1 := cite(t, lib, "intro", "Smith2020")
	c2 := cite(t, lib, "intro", "Jones")
	c3 := cite(t, lib, "methods", "Lee")

	res, err := lib.ReorderCitations("thesis", "intro", []string{c2, c1}, "")
	if err != nil {
		t.Fatalf("ReorderCitations() error = %v", err)
	}

	checkChanges(t, res.Changes, map[string]numbering.Change{
		c1: {Old: 1, New: 2},
		c2: {Old: 2, New: 1},
	})
	if n := numbersByID(t, lib)[c3].InlineNumber; n != 3 {
		t.Errorf("methods citation number = %d, want 3", n)
	}

	if _, err := lib.ReorderCitations("thesis", "intro", []string{c1}, ""); !errors.Is(err, numbering.ErrOrderMismatch) {
		t.Errorf("ReorderCitations(short) error = %v, want ErrOrderMismatch", err)
	}
	if _, err := lib.ReorderCitations("thesis", "intro", []string{c1, c3}, ""); !errors.Is(err, numbering.ErrCitationNotFound) {
		t.Errorf("ReorderCitations(foreign) error = %v, want ErrCitationNotFound", err)
	}
}

func TestMoveCitation_AcrossDocuments(t *testing.T) {
	lib := newTestLibrary(t)

	c1 := cite(t, lib, "intro", "Smith2020")
	c2 := cite(t, lib, "intro", "Jones")
	c3 := cite(t, lib, "methods", "Lee")

	if _, err := lib.MoveCitation(MoveRequest{ProjectID: "thesis", CitationID: c3, DocumentID: "intro", Position: 0}); err != nil {
		t.Fatalf("MoveCitation() error = %v", err)
	}

	s := snapshot(t, lib)
	if len(s.Citations) != 3 {
		t.Fatalf("scope has %d citations, want 3", len(s.Citations))
	}
	for i, want := range []string{c3, c1, c2} {
		c := s.Citations[i]
		if c.ID != want || c.InlineNumber != i+1 {
			t.Errorf("scope[%d] = %s [%d], want %s [%d]", i, c.ID, c.InlineNumber, want, i+1)
		}
	}
	if s.Citations[0].DocumentID != "intro" {
		t.Errorf("moved citation document = %s, want intro", s.Citations[0].DocumentID)
	}
}

func TestMoveCitation_WithinDocument(t *testing.T) {
	lib := newTestLibrary(t)

	c1 := cite(t, lib, "intro", "Smith2020")
	c2 := cite(t, lib, "intro", "Jones")

	res, err := lib.MoveCitation(MoveRequest{ProjectID: "thesis", CitationID: c1, Position: 1})
	if err != nil {
		t.Fatalf("MoveCitation() error = %v", err)
	}
	checkChanges(t, res.Changes, map[string]numbering.Change{
		c1: {Old: 1, New: 2},
		c2: {Old: 2, New: 1},
	})
}

func TestMoveDocument(t *testing.T) {
	lib := newTestLibrary(t)

	cite(t, lib, "intro", "Smith2020")
	c2 := cite(t, lib, "intro", "Jones")
	cite(t, lib, "methods", "Smith2020")
	c4 := cite(t, lib, "methods", "Lee")

	res, err := lib.MoveDocument("thesis", "methods", 0, "")
	if err != nil {
		t.Fatalf("MoveDocument() error = %v", err)
	}
	checkChanges(t, res.Changes, map[string]numbering.Change{
		c2: {Old: 2, New: 3},
		c4: {Old: 3, New: 2},
	})

	docs, err := lib.Documents("thesis")
	if err != nil {
		t.Fatal(err)
	}
	if docs[0].ID != "methods" {
		t.Errorf("first document = %s, want methods", docs[0].ID)
	}
}

func TestMoveDocument_EmptyDocumentChangesRevision(t *testing.T) {
	lib := newTestLibrary(t)
	if _, err := lib.CreateDocument(document.Document{ID: "appendix", ProjectID: "thesis", Title: "appendix"}); err != nil {
		t.Fatal(err)
	}
	cite(t, lib, "intro", "Smith2020")

	before := snapshot(t, lib)
	res, err := lib.MoveDocument("thesis", "appendix", 0, before.Revision)
	if err != nil {
		t.Fatalf("MoveDocument() error = %v", err)
	}
	checkChanges(t, res.Changes, nil)
	if res.Revision == before.Revision {
		t.Error("moving a document without citations left the revision unchanged")
	}
	if after := snapshot(t, lib); after.Revision != res.Revision {
		t.Errorf("Snapshot().Revision = %s, want %s", after.Revision, res.Revision)
	}

	if _, err := lib.MoveDocument("thesis", "appendix", 2, before.Revision); !errors.Is(err, ErrStaleRevision) {
		t.Errorf("MoveDocument(stale) error = %v, want ErrStaleRevision", err)
	}
}

func TestRenumber_RepairsHandEditedNumbers(t *testing.T) {
	lib := newTestLibrary(t)

	c1 := cite(t, lib, "intro", "Smith2020")
	c2 := cite(t, lib, "intro", "Jones")

	// Simulate a hand edit that leaves a gap.
	docs, err := lib.Documents("thesis")
	if err != nil {
		t.Fatal(err)
	}
	docs[0].Citations[1].InlineNumber = 5
	if err := writeDocuments(lib, docs); err != nil {
		t.Fatal(err)
	}

	if check(t, lib).Numbering.Valid {
		t.Error("Check() accepted a numbering gap")
	}

	res, err := lib.Renumber("thesis", Compact, "")
	if err != nil {
		t.Fatalf("Renumber() error = %v", err)
	}
	checkChanges(t, res.Changes, map[string]numbering.Change{c2: {Old: 5, New: 2}})
	if n := numbersByID(t, lib)[c1].InlineNumber; n != 1 {
		t.Errorf("first citation number = %d, want 1", n)
	}

	// Nothing left to do.
	res, err = lib.Renumber("thesis", ByAppearance, "")
	if err != nil {
		t.Fatalf("Renumber() error = %v", err)
	}
	checkChanges(t, res.Changes, nil)
}

func TestCheckAndSyncMarkers(t *testing.T) {
	lib := newTestLibrary(t)

	cite(t, lib, "intro", "Smith2020")
	c2 := cite(t, lib, "intro", "Jones")
	path := writeContent(t, lib, "intro", markers.FormatMarkdown)

	stale := strings.Replace(readFile(t, path), "[[2]]", "[[7]]", 1)
	if err := os.WriteFile(path, []byte(stale), 0644); err != nil {
		t.Fatal(err)
	}

	result := check(t, lib)
	if len(result.Markers) != 1 || !strings.Contains(result.Markers[0], c2) {
		t.Fatalf("Markers = %v, want one problem for %s", result.Markers, c2)
	}
	if result.OK() {
		t.Error("OK() = true with a stale marker")
	}

	rewritten, err := lib.SyncMarkers("thesis")
	if err != nil {
		t.Fatalf("SyncMarkers() error = %v", err)
	}
	if want := []string{"intro"}; !reflect.DeepEqual(rewritten, want) {
		t.Errorf("SyncMarkers() = %v, want %v", rewritten, want)
	}

	if result := check(t, lib); !result.OK() {
		t.Errorf("Check() after sync: %v", result.Markers)
	}
}

func TestCheckAndSyncMarkers_HTMLStaleText(t *testing.T) {
	lib := newTestLibrary(t)
	if _, err := lib.CreateDocument(document.Document{ID: "appendix", ProjectID: "thesis", Title: "appendix", Format: "html"}); err != nil {
		t.Fatal(err)
	}

	cite(t, lib, "appendix", "Smith2020")
	c2 := cite(t, lib, "appendix", "Jones")
	path := writeContent(t, lib, "appendix", markers.FormatHTML)

	// The attribute still says 2; only the text a reader sees is wrong.
	body := readFile(t, path)
	stale := strings.Replace(body, `data-number="2">[2]</span>`, `data-number="2">[9]</span>`, 1)
	if stale == body {
		t.Fatalf("marker for %s not found in:\n%s", c2, body)
	}
	if err := os.WriteFile(path, []byte(stale), 0644); err != nil {
		t.Fatal(err)
	}

	result := check(t, lib)
	if len(result.Markers) != 1 || !strings.Contains(result.Markers[0], c2) || !strings.Contains(result.Markers[0], "[9]") {
		t.Fatalf("Markers = %v, want one problem for %s displaying [9]", result.Markers, c2)
	}

	rewritten, err := lib.SyncMarkers("thesis")
	if err != nil {
		t.Fatalf("SyncMarkers() error = %v", err)
	}
	if want := []string{"appendix"}; !reflect.DeepEqual(rewritten, want) {
		t.Errorf("SyncMarkers() = %v, want %v", rewritten, want)
	}
	if got := readFile(t, path); got != body {
		t.Errorf("repaired body =\n%s\nwant\n%s", got, body)
	}
	if result := check(t, lib); !result.OK() {
		t.Errorf("Check() after sync: %v", result.Markers)
	}
}

func TestDedupe(t *testing.T) {
	lib := newTestLibrary(t)

	// A second record of Jones under a differently written DOI, added behind
	// the resolver's back.
	refs, err := lib.Articles()
	if err != nil {
		t.Fatal(err)
	}
	dup := refs[1]
	dup.ID = "Jones-2"
	dup.DOI = "https://doi.org/10.1/b"
	refs = append(refs, dup)
	if err := writeArticles(lib, refs); err != nil {
		t.Fatal(err)
	}

	cite(t, lib, "intro", "Jones")
	c2 := cite(t, lib, "intro", "Jones-2")
	if got, want := numbersByID(t, lib)[c2], (numbering.Numbers{InlineNumber: 1, SubNumber: 2}); got != want {
		t.Errorf("Jones-2 citation = %+v, want %+v", got, want)
	}

	dry, err := lib.Dedupe(true)
	if err != nil {
		t.Fatalf("Dedupe(dry) error = %v", err)
	}
	if dry.Removed != 1 {
		t.Errorf("dry Removed = %d, want 1", dry.Removed)
	}
	if n := len(articleIDs(t, lib)); n != 4 {
		t.Errorf("dry run left %d articles, want 4", n)
	}

	res, err := lib.Dedupe(false)
	if err != nil {
		t.Fatalf("Dedupe() error = %v", err)
	}
	if res.Removed != 1 || res.Redirected != 1 {
		t.Errorf("Removed = %d Redirected = %d, want 1 and 1", res.Removed, res.Redirected)
	}
	want := []DedupeGroup{{Key: "doi:10.1/b", Canonical: "Jones", Duplicates: []string{"Jones-2"}}}
	if !reflect.DeepEqual(res.Groups, want) {
		t.Errorf("Groups = %+v, want %+v", res.Groups, want)
	}

	if n := len(articleIDs(t, lib)); n != 3 {
		t.Errorf("%d articles after dedupe, want 3", n)
	}
	jones, err := lib.Article("Jones")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(jones.MergedFrom, []string{"Jones-2"}) {
		t.Errorf("MergedFrom = %v, want [Jones-2]", jones.MergedFrom)
	}

	for _, c := range snapshot(t, lib).Citations {
		if c.ArticleID != "Jones" {
			t.Errorf("citation %s cites %s, want Jones", c.ID, c.ArticleID)
		}
	}
}

func TestDedupe_RedirectsMergedFromAliases(t *testing.T) {
	lib := newTestLibrary(t)
	c1 := cite(t, lib, "intro", "Lee")

	// The record was renamed elsewhere and only its old ID survives in MergedFrom.
	refs, err := lib.Articles()
	if err != nil {
		t.Fatal(err)
	}
	refs[2].ID = "Lee2019"
	refs[2].MergedFrom = []string{"Lee"}
	if err := writeArticles(lib, refs); err != nil {
		t.Fatal(err)
	}

	if n := len(check(t, lib).Dangling); n != 1 {
		t.Errorf("Dangling = %d, want 1", n)
	}

	res, err := lib.Dedupe(false)
	if err != nil {
		t.Fatalf("Dedupe() error = %v", err)
	}
	if res.Removed != 0 || res.Redirected != 1 {
		t.Errorf("Removed = %d Redirected = %d, want 0 and 1", res.Removed, res.Redirected)
	}

	s := snapshot(t, lib)
	if len(s.Citations) != 1 {
		t.Fatalf("scope has %d citations, want 1", len(s.Citations))
	}
	if c := s.Citations[0]; c.ID != c1 || c.ArticleID != "Lee2019" {
		t.Errorf("citation = %s -> %s, want %s -> Lee2019", c.ID, c.ArticleID, c1)
	}
}

func TestBibliography(t *testing.T) {
	lib := newTestLibrary(t)

	cite(t, lib, "intro", "Lee")
	cite(t, lib, "intro", "Smith2020")
	cite(t, lib, "methods", "Lee")

	entries, err := lib.Bibliography("thesis")
	if err != nil {
		t.Fatalf("Bibliography() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Bibliography() returned %d entries, want 2", len(entries))
	}
	if e := entries[0]; e.Number != 1 || e.Article.ID != "Lee" || e.Citations != 2 {
		t.Errorf("entries[0] = [%d] %s x%d, want [1] Lee x2", e.Number, e.Article.ID, e.Citations)
	}
	if entries[1].Article.ID != "Smith2020" {
		t.Errorf("entries[1] = %s, want Smith2020", entries[1].Article.ID)
	}
}

func TestIndex_CitedIn(t *testing.T) {
	lib := newTestLibrary(t)

	cite(t, lib, "intro", "Smith2020")
	cite(t, lib, "methods", "Smith2020")

	db, err := lib.Index()
	if err != nil {
		t.Fatalf("Index() error = %v", err)
	}
	defer db.Close()

	sites, err := db.CitedIn("Smith2020")
	if err != nil {
		t.Fatalf("CitedIn() error = %v", err)
	}
	if len(sites) != 2 {
		t.Fatalf("CitedIn() = %d sites, want 2", len(sites))
	}
	if sites[1].SubNumber != 2 {
		t.Errorf("second site sub-number = %d, want 2", sites[1].SubNumber)
	}

	nArticles, nCitations, err := lib.Rebuild()
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if nArticles != 3 || nCitations != 2 {
		t.Errorf("Rebuild() = %d articles %d citations, want 3 and 2", nArticles, nCitations)
	}
}

func articleIDs(t *testing.T, lib *Library) []string {
	t.Helper()
	refs, err := lib.Articles()
	if err != nil {
		t.Fatal(err)
	}
	ids := make([]string, len(refs))
	for i, r := range refs {
		ids[i] = r.ID
	}
	return ids
}

func writeDocuments(lib *Library, docs []document.Document) error {
	return storage.WriteAllDocuments(config.DocumentsPath(lib.Root()), docs)
}

func writeArticles(lib *Library, refs []reference.Reference) error {
	return storage.WriteAll(config.ArticlesPath(lib.Root()), refs)
}
