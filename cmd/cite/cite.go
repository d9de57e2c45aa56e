package main

import (
	"fmt"
	"os"

	"github.com/matsen/citenum/internal/clipboard"
	"github.com/matsen/citenum/internal/library"
	"github.com/matsen/citenum/internal/markers"
	"github.com/spf13/cobra"
)

var (
	citeAt    int
	citeNote  string
	citePages string
	citeToDoc string
	citeCopy  bool
)

func init() {
	for _, c := range []*cobra.Command{addCmd, rmCmd, mvCmd, reorderCmd, renumberCmd, docMoveCmd} {
		c.Flags().StringVar(&expectedRevision, "revision", "", "Refuse to write unless the project is still at this revision")
	}

	addCmd.Flags().IntVar(&citeAt, "at", -1, "Position within the document (default: append)")
	addCmd.Flags().StringVar(&citeNote, "note", "", "Free-text note stored with the citation")
	addCmd.Flags().StringVar(&citePages, "pages", "", "Page range, e.g. 12-14")
	addCmd.Flags().BoolVar(&citeCopy, "copy", false, "Copy the marker to the clipboard")

	mvCmd.Flags().IntVar(&citeAt, "at", -1, "Position within the target document (default: end)")
	mvCmd.Flags().StringVar(&citeToDoc, "to", "", "Target document (default: the current one)")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(mvCmd)
	rootCmd.AddCommand(reorderCmd)
}

var addCmd = &cobra.Command{
	Use:   "add <project> <document> <article>",
	Short: "Cite an article in a document",
	Long: `Cite an article in a document.

A source already cited in the project reuses its number and gets the next
sub-number; a new source takes the smallest free number. Citing before
existing citations renumbers so sources stay in order of first appearance.

The marker to paste into the content is printed, and with --copy placed
on the clipboard.`,
	Args: cobra.ExactArgs(3),
	RunE: runAdd,
}

var rmCmd = &cobra.Command{
	Use:   "rm <project> <citation>",
	Short: "Remove a citation and close the numbering gap",
	Args:  cobra.ExactArgs(2),
	RunE:  runRm,
}

var mvCmd = &cobra.Command{
	Use:   "mv <project> <citation>",
	Short: "Move a citation within or between documents",
	Args:  cobra.ExactArgs(2),
	RunE:  runMv,
}

var reorderCmd = &cobra.Command{
	Use:   "reorder <project> <document> <citation>...",
	Short: "Set the order of a document's citations",
	Long: `Set the order of a document's citations, e.g. after editing the text.

Every citation of the document must be listed exactly once.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runReorder,
}

// AddResponse is the response for the add command.
type AddResponse struct {
	*library.EditResult
	Marker string `json:"marker"`
	Copied bool   `json:"copied"`
}

func runAdd(cmd *cobra.Command, args []string) error {
	lib := mustOpenLibrary()

	res, err := lib.InsertCitation(library.InsertRequest{
		ProjectID:  args[0],
		DocumentID: args[1],
		ArticleID:  args[2],
		Position:   citeAt,
		Note:       citeNote,
		PageRange:  citePages,
		Revision:   expectedRevision,
	})
	if err != nil {
		exitForError(err, "adding citation")
	}

	marker := renderMarker(lib, args[0], args[1], res)
	copied := false
	if citeCopy {
		if err := clipboard.Copy(marker); err != nil {
			fmt.Fprintf(os.Stderr, "warning: copying marker: %v\n", err)
		} else {
			copied = true
		}
	}

	if humanOutput {
		fmt.Printf("Cited %s as [%d] (%s)\n", args[2], res.Citation.InlineNumber, res.Citation.ID)
		fmt.Printf("  %s\n", marker)
		if copied {
			fmt.Println("  (copied to clipboard)")
		}
		if len(res.Changes) > 0 {
			fmt.Println("Renumbered:")
			printChanges(res.Changes)
		}
	} else {
		outputJSON(AddResponse{EditResult: res, Marker: marker, Copied: copied})
	}
	return nil
}

// renderMarker renders the new citation's marker in its document's format.
func renderMarker(lib *library.Library, projectID, documentID string, res *library.EditResult) string {
	format := markers.FormatMarkdown
	if docs, err := lib.Documents(projectID); err == nil {
		for _, d := range docs {
			if d.ID == documentID {
				if f, err := markers.ParseFormat(d.Format); err == nil {
					format = f
				}
			}
		}
	}
	return markers.Render(format, markers.Marker{
		CitationID: res.Citation.ID,
		Number:     res.Citation.InlineNumber,
		ArticleID:  res.Citation.ArticleID,
	})
}

func runRm(cmd *cobra.Command, args []string) error {
	lib := mustOpenLibrary()

	res, err := lib.DeleteCitation(args[0], args[1], expectedRevision)
	if err != nil {
		exitForError(err, "removing citation")
	}
	reportEdit(fmt.Sprintf("Removed %s", args[1]), res)
	return nil
}

func runMv(cmd *cobra.Command, args []string) error {
	lib := mustOpenLibrary()

	res, err := lib.MoveCitation(library.MoveRequest{
		ProjectID:  args[0],
		CitationID: args[1],
		DocumentID: citeToDoc,
		Position:   citeAt,
		Revision:   expectedRevision,
	})
	if err != nil {
		exitForError(err, "moving citation")
	}
	reportEdit(fmt.Sprintf("Moved %s", args[1]), res)
	return nil
}

func runReorder(cmd *cobra.Command, args []string) error {
	lib := mustOpenLibrary()

	res, err := lib.ReorderCitations(args[0], args[1], args[2:], expectedRevision)
	if err != nil {
		exitForError(err, "reordering citations")
	}
	reportEdit(fmt.Sprintf("Reordered %s", args[1]), res)
	return nil
}

// reportEdit prints an edit result.
func reportEdit(headline string, res *library.EditResult) {
	if !humanOutput {
		outputJSON(res)
		return
	}
	fmt.Println(headline)
	printChanges(res.Changes)
	for _, d := range res.Rewritten {
		fmt.Printf("  rewrote markers in %s\n", d)
	}
	fmt.Printf("revision: %s\n", res.Revision)
}
