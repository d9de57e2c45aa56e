package main

import (
	"fmt"

	"github.com/matsen/citenum/internal/author"
	"github.com/matsen/citenum/internal/reference"
	"github.com/matsen/citenum/internal/storage"
	"github.com/spf13/cobra"
)

var (
	searchLimit   int
	searchAuthors []string
)

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", DefaultSearchLimit, "Maximum number of results")
	listCmd.Flags().IntVarP(&searchLimit, "limit", "n", DefaultSearchLimit, "Maximum number of results (0 for all)")
	for _, c := range []*cobra.Command{searchCmd, listCmd} {
		c.Flags().StringArrayVarP(&searchAuthors, "author", "a", nil, `Only articles with this author ("Yu", "Timothy Yu", "Yu, Timothy", "Bloom JD"); repeat to require several`)
	}

	rootCmd.AddCommand(rebuildCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(citedInCmd)
	rootCmd.AddCommand(uncitedCmd)
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the query index from JSONL",
	Args:  cobra.NoArgs,
	RunE:  runRebuild,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over article titles, abstracts and authors",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List articles in the library",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var getCmd = &cobra.Command{
	Use:   "get <article>",
	Short: "Show one article",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

var citedInCmd = &cobra.Command{
	Use:   "cited-in <article>",
	Short: "List every citation of an article across projects",
	Args:  cobra.ExactArgs(1),
	RunE:  runCitedIn,
}

var uncitedCmd = &cobra.Command{
	Use:   "uncited",
	Short: "List articles no project cites",
	Args:  cobra.NoArgs,
	RunE:  runUncited,
}

// RebuildResponse is the response for the rebuild command.
type RebuildResponse struct {
	Status    string `json:"status"`
	Articles  int    `json:"articles"`
	Citations int    `json:"citations"`
}

func runRebuild(cmd *cobra.Command, args []string) error {
	lib := mustOpenLibrary()

	nArticles, nCitations, err := lib.Rebuild()
	if err != nil {
		exitForError(err, "rebuilding index")
	}

	if humanOutput {
		fmt.Printf("Indexed %d articles and %d citations\n", nArticles, nCitations)
	} else {
		outputJSON(RebuildResponse{Status: "rebuilt", Articles: nArticles, Citations: nCitations})
	}
	return nil
}

// mustOpenIndex rebuilds and opens the query index, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenIndex() *storage.DB {
	db, err := mustOpenLibrary().Index()
	if err != nil {
		exitWithError(ExitError, "opening index: %v", err)
	}
	return db
}

func runSearch(cmd *cobra.Command, args []string) error {
	db := mustOpenIndex()
	defer db.Close()

	refs, err := db.Search(args[0], fetchLimit())
	if err != nil {
		exitWithError(ExitError, "searching: %v", err)
	}
	printRefs(filterByAuthor(refs))
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	db := mustOpenIndex()
	defer db.Close()

	refs, err := db.ListAll(fetchLimit())
	if err != nil {
		exitWithError(ExitError, "listing: %v", err)
	}
	printRefs(filterByAuthor(refs))
	return nil
}

// fetchLimit is the row limit for the index query. Author filters run after
// the query, so they need every row.
func fetchLimit() int {
	if len(searchAuthors) > 0 {
		return 0
	}
	return searchLimit
}

// filterByAuthor applies --author filters and the result limit.
func filterByAuthor(refs []reference.Reference) []reference.Reference {
	if len(searchAuthors) == 0 {
		return refs
	}
	queries := make([]author.Query, 0, len(searchAuthors))
	for _, a := range searchAuthors {
		q := author.ParseQuery(a)
		if q.Last == "" {
			exitWithError(ExitError, "invalid --author value %q", a)
		}
		queries = append(queries, q)
	}
	return author.Filter(refs, queries, searchLimit)
}

func printRefs(refs []reference.Reference) {
	if !humanOutput {
		if refs == nil {
			refs = []reference.Reference{}
		}
		outputJSON(refs)
		return
	}
	if len(refs) == 0 {
		fmt.Println("No articles found.")
		return
	}
	for _, ref := range refs {
		printRefSummary(ref)
	}
}

func runGet(cmd *cobra.Command, args []string) error {
	lib := mustOpenLibrary()

	ref, err := lib.Article(args[0])
	if err != nil {
		exitForError(err, "reading article")
	}

	if !humanOutput {
		outputJSON(ref)
		return nil
	}
	printRefSummary(ref)
	if ref.PMID != "" {
		fmt.Printf("  PMID: %s\n", ref.PMID)
	}
	if ref.DOI != "" {
		fmt.Printf("  DOI:  %s\n", ref.DOI)
	}
	if ref.Venue != "" {
		fmt.Printf("  %s\n", ref.Venue)
	}
	if len(ref.MergedFrom) > 0 {
		fmt.Printf("  merged from: %v\n", ref.MergedFrom)
	}
	return nil
}

func runCitedIn(cmd *cobra.Command, args []string) error {
	db := mustOpenIndex()
	defer db.Close()

	sites, err := db.CitedIn(args[0])
	if err != nil {
		exitWithError(ExitError, "querying citations: %v", err)
	}

	if !humanOutput {
		if sites == nil {
			sites = []storage.CitationSite{}
		}
		outputJSON(sites)
		return nil
	}
	if len(sites) == 0 {
		fmt.Printf("%s is not cited.\n", args[0])
		return nil
	}
	for _, s := range sites {
		fmt.Printf("%-16s %-16s [%d.%d]  %s\n", s.ProjectID, s.DocumentID, s.InlineNumber, s.SubNumber, s.CitationID)
	}
	return nil
}

func runUncited(cmd *cobra.Command, args []string) error {
	db := mustOpenIndex()
	defer db.Close()

	ids, err := db.UncitedArticles()
	if err != nil {
		exitWithError(ExitError, "querying articles: %v", err)
	}

	if !humanOutput {
		if ids == nil {
			ids = []string{}
		}
		outputJSON(ids)
		return nil
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}
