package main

import (
	"fmt"
	"strconv"

	"github.com/matsen/citenum/internal/document"
	"github.com/spf13/cobra"
)

var (
	docTitle   string
	docFormat  string
	docContent string
)

func init() {
	docNewCmd.Flags().StringVar(&docTitle, "title", "", "Document title (default: the id)")
	docNewCmd.Flags().StringVar(&docFormat, "format", "", "Marker format: html or markdown (default: config default-format)")
	docNewCmd.Flags().StringVar(&docContent, "content", "", "Existing content file, relative to the library root")

	docCmd.AddCommand(docNewCmd)
	docCmd.AddCommand(docListCmd)
	docCmd.AddCommand(docMoveCmd)
	rootCmd.AddCommand(docCmd)
}

var docCmd = &cobra.Command{
	Use:   "doc",
	Short: "Manage the documents of a project",
}

var docNewCmd = &cobra.Command{
	Use:   "new <project> <id>",
	Short: "Add a document to the end of a project",
	Args:  cobra.ExactArgs(2),
	RunE:  runDocNew,
}

var docListCmd = &cobra.Command{
	Use:   "list <project>",
	Short: "List a project's documents in reading order",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocList,
}

var docMoveCmd = &cobra.Command{
	Use:   "move <project> <id> <position>",
	Short: "Move a document within the reading order",
	Long: `Move a document within the reading order (0 is first).

Sources are renumbered in order of first appearance across the new
reading order, and content markers are rewritten.`,
	Args: cobra.ExactArgs(3),
	RunE: runDocMove,
}

func runDocNew(cmd *cobra.Command, args []string) error {
	lib := mustOpenLibrary()

	title := docTitle
	if title == "" {
		title = args[1]
	}
	d, err := lib.CreateDocument(document.Document{
		ID:          args[1],
		ProjectID:   args[0],
		Title:       title,
		Format:      docFormat,
		ContentPath: docContent,
	})
	if err != nil {
		exitForError(err, "creating document")
	}

	if humanOutput {
		fmt.Printf("Created document %s in %s (%s)\n", d.ID, d.ProjectID, d.ContentPath)
	} else {
		outputJSON(d)
	}
	return nil
}

func runDocList(cmd *cobra.Command, args []string) error {
	lib := mustOpenLibrary()

	docs, err := lib.Documents(args[0])
	if err != nil {
		exitForError(err, "reading documents")
	}

	if !humanOutput {
		if docs == nil {
			docs = []document.Document{}
		}
		outputJSON(docs)
		return nil
	}
	for i, d := range docs {
		fmt.Printf("%2d. %-20s %-30s %d citations\n", i, d.ID, truncateString(d.Title, 30), len(d.Citations))
	}
	return nil
}

func runDocMove(cmd *cobra.Command, args []string) error {
	to, err := strconv.Atoi(args[2])
	if err != nil {
		exitWithError(ExitError, "position must be an integer, got %q", args[2])
	}

	lib := mustOpenLibrary()
	res, err := lib.MoveDocument(args[0], args[1], to, expectedRevision)
	if err != nil {
		exitForError(err, "moving document")
	}

	if humanOutput {
		fmt.Printf("Moved %s to position %d\n", args[1], to)
		printChanges(res.Changes)
	} else {
		outputJSON(res)
	}
	return nil
}
