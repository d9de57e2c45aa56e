package main

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"github.com/matsen/citenum/internal/importer"
	"github.com/matsen/citenum/internal/library"
	"github.com/matsen/citenum/internal/reference"
	"github.com/spf13/cobra"
)

var (
	importFormat string
	importSource string
	importDryRun bool
)

func init() {
	importCmd.Flags().StringVar(&importFormat, "format", "", "Import format (paperpile, pubmed, search)")
	importCmd.Flags().StringVar(&importSource, "source", "", "Provider tag for search results (e.g. crossref)")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Show what would be imported without writing")
	importCmd.MarkFlagRequired("format")
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import articles from an external format",
	Long: `Import articles from an external format.

Incoming records are matched against the library by PMID, then DOI, then
(when soft-match is on) normalized title, year and first author. Matches
fill in fields the existing article lacks; everything else becomes a new
article.

Usage:
  cite import --format paperpile export.json
  cite import --format pubmed efetch.xml --dry-run
  cite import --format search --source crossref results.json

Supported formats:
  paperpile  - Paperpile JSON export
  pubmed     - PubMed efetch XML (PubmedArticleSet)
  search     - JSON array, {"results": [...]} or JSON lines of search hits`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

// ImportResponse is the response for the import command.
type ImportResponse struct {
	*library.ImportResult
	Errors []string `json:"errors"`
}

func runImport(cmd *cobra.Command, args []string) error {
	lib := mustOpenLibrary()

	data, err := os.ReadFile(args[0])
	if err != nil {
		exitWithError(ExitError, "reading %s: %v", args[0], err)
	}

	var refs []reference.Reference
	var parseErrors []error
	switch importFormat {
	case "paperpile":
		refs, parseErrors = importer.ParsePaperpile(data)
	case "pubmed":
		refs, err = importer.ParsePubMed(bytes.NewReader(data))
		if err != nil {
			exitWithError(ExitDataError, "%v", err)
		}
	case "search":
		items, err := importer.ParseSearchResults(data, importSource)
		if err != nil {
			exitWithError(ExitDataError, "%v", err)
		}
		for _, item := range items {
			ref := reference.FromIdentity(item)
			ref.ID = ""
			refs = append(refs, ref)
		}
	default:
		exitWithError(ExitError, "unknown format: %s", importFormat)
	}

	var result *library.ImportResult
	if importDryRun {
		result, err = lib.PreviewReferences(refs)
	} else {
		result, err = lib.AddReferences(refs)
	}
	if err != nil {
		exitForError(err, "importing")
	}

	errStrs := errorsToStrings(parseErrors)
	if humanOutput {
		reportImportHuman(result, refs, errStrs)
	} else {
		outputJSON(ImportResponse{ImportResult: result, Errors: errStrs})
	}
	return nil
}

func errorsToStrings(errs []error) []string {
	strs := make([]string, len(errs))
	for i, e := range errs {
		strs[i] = e.Error()
	}
	return strs
}

func reportImportHuman(result *library.ImportResult, refs []reference.Reference, errStrs []string) {
	verb := "Imported"
	if result.DryRun {
		verb = "Dry run - would import"
	}
	fmt.Printf("%s from %s:\n", verb, importFormat)
	fmt.Printf("  Added:   %d new articles\n", len(result.Added))
	fmt.Printf("  Matched: %d existing articles\n", len(result.Matched))
	fmt.Printf("  Skipped: %d (parse errors)\n", len(errStrs))
	fmt.Printf("  Library: %d articles\n", result.Total)

	if len(result.Matched) > 0 {
		idx := make([]int, 0, len(result.Matched))
		for i := range result.Matched {
			idx = append(idx, i)
		}
		sort.Ints(idx)
		fmt.Println("\nMatched:")
		for _, i := range idx {
			fmt.Printf("  %s -> %s\n", truncateString(refs[i].Title, ListTitleMaxLen), result.Matched[i])
		}
	}

	if len(errStrs) > 0 {
		fmt.Println("\nErrors:")
		for _, e := range errStrs {
			fmt.Printf("  - %s\n", e)
		}
	}
}
