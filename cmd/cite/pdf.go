package main

import (
	"fmt"

	"github.com/matsen/citenum/internal/config"
	"github.com/matsen/citenum/internal/pdf"
	"github.com/matsen/citenum/internal/reference"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(addPDFCmd)
}

var addPDFCmd = &cobra.Command{
	Use:   "add-pdf <path>...",
	Short: "Add articles from local PDFs",
	Long: `Add articles from local PDFs.

Paths are relative to pdf-root. The DOI and PMID printed on the first
pages are used to match existing articles. PDFs with neither fall back
to their title, which only matches when soft-match is on.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAddPDF,
}

func runAddPDF(cmd *cobra.Command, args []string) error {
	lib := mustOpenLibrary()
	pdfRoot := config.ExpandPath(lib.Config().PDFRoot)

	var refs []reference.Reference
	var errs []error
	for _, path := range args {
		item, err := pdf.Identify(pdfRoot, path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ref := reference.FromIdentity(item)
		ref.ID = ""
		ref.PDFPath = path
		ref.Source = reference.ImportSource{Type: "pdf", ID: path}
		refs = append(refs, ref)
	}

	result, err := lib.AddReferences(refs)
	if err != nil {
		exitForError(err, "adding PDFs")
	}

	errStrs := errorsToStrings(errs)
	if humanOutput {
		fmt.Printf("Added %d, matched %d, skipped %d PDFs\n", len(result.Added), len(result.Matched), len(errStrs))
		for _, e := range errStrs {
			fmt.Printf("  - %s\n", e)
		}
	} else {
		outputJSON(ImportResponse{ImportResult: result, Errors: errStrs})
	}
	return nil
}
