package main

import (
	"fmt"
	"strings"

	"github.com/matsen/citenum/internal/export"
	"github.com/matsen/citenum/internal/library"
	"github.com/matsen/citenum/internal/reference"
	"github.com/spf13/cobra"
)

var (
	bibFormat string
	bibAppend string
)

func init() {
	bibCmd.Flags().StringVar(&bibFormat, "format", "list", "Output format: list, bibtex")
	bibCmd.Flags().StringVar(&bibAppend, "append", "", "Append BibTeX entries missing from this .bib file (matched by PMID, DOI, soft key or citekey)")
	rootCmd.AddCommand(bibCmd)
}

var bibCmd = &cobra.Command{
	Use:   "bib <project>",
	Short: "Print a project's numbered bibliography",
	Long: `Print a project's numbered bibliography, one entry per source in
inline-number order.

Formats:
  list    [1] Smith J, Doe J. Title. Venue (2020). doi:...
  bibtex  BibTeX entries in number order (use an unsrt-style .bst)

Without --human the entries are printed as JSON unless a format is given
explicitly.`,
	Args: cobra.ExactArgs(1),
	RunE: runBib,
}

// BibAppendResult is the response for bib --append.
type BibAppendResult struct {
	Path     string            `json:"path"`
	Appended []string          `json:"appended"`
	Skipped  []string          `json:"skipped"`
	Existing map[string]string `json:"existing"` // Skipped article ID -> citekey already in the file
}

func runBib(cmd *cobra.Command, args []string) error {
	lib := mustOpenLibrary()

	entries, err := lib.Bibliography(args[0])
	if err != nil {
		exitForError(err, "building bibliography")
	}

	if bibAppend != "" {
		appendBib(lib, entries)
		return nil
	}

	switch bibFormat {
	case "list":
		if !humanOutput && !cmd.Flags().Changed("format") {
			if entries == nil {
				entries = []library.BibEntry{}
			}
			outputJSON(entries)
			return nil
		}
		fmt.Print(export.ToNumberedList(numbered(entries)))
	case "bibtex":
		fmt.Print(export.ToBibTeXList(refsOf(entries)))
	default:
		exitWithError(ExitError, "unknown format: %s", bibFormat)
	}
	return nil
}

// appendBib appends entries the .bib file does not have yet.
func appendBib(lib *library.Library, entries []library.BibEntry) {
	idx, err := export.ParseBibTeXFile(bibAppend, lib.IdentityOptions())
	if err != nil {
		exitWithError(ExitError, "reading %s: %v", bibAppend, err)
	}

	result := BibAppendResult{
		Path:     bibAppend,
		Appended: []string{},
		Skipped:  []string{},
		Existing: map[string]string{},
	}
	var missing []reference.Reference
	for _, e := range entries {
		if citekey, ok := idx.Lookup(e.Article); ok {
			result.Skipped = append(result.Skipped, e.Article.ID)
			result.Existing[e.Article.ID] = citekey
			continue
		}
		missing = append(missing, e.Article)
		result.Appended = append(result.Appended, e.Article.ID)
	}

	if len(missing) > 0 {
		if err := export.AppendToBibFile(bibAppend, export.ToBibTeXList(missing)); err != nil {
			exitWithError(ExitError, "writing %s: %v", bibAppend, err)
		}
	}

	if humanOutput {
		fmt.Printf("Appended %d entries to %s (%d already present)\n", len(result.Appended), bibAppend, len(result.Skipped))
		if len(result.Appended) > 0 {
			fmt.Printf("  %s\n", strings.Join(result.Appended, ", "))
		}
	} else {
		outputJSON(result)
	}
}

func numbered(entries []library.BibEntry) []export.Numbered {
	out := make([]export.Numbered, len(entries))
	for i, e := range entries {
		out[i] = export.Numbered{Number: e.Number, Ref: e.Article}
	}
	return out
}

func refsOf(entries []library.BibEntry) []reference.Reference {
	out := make([]reference.Reference, len(entries))
	for i, e := range entries {
		out[i] = e.Article
	}
	return out
}
