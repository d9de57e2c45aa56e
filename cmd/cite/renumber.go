package main

import (
	"github.com/matsen/citenum/internal/library"
	"github.com/spf13/cobra"
)

var renumberByAppearance bool

func init() {
	renumberCmd.Flags().BoolVar(&renumberByAppearance, "by-appearance", false, "Number sources by first appearance instead of closing gaps")
	rootCmd.AddCommand(renumberCmd)
}

var renumberCmd = &cobra.Command{
	Use:   "renumber <project>",
	Short: "Repair a project's numbering",
	Long: `Repair a project's numbering and rewrite content markers.

By default gaps are closed and the relative order of existing numbers is
kept, so [1] [3] [4] become [1] [2] [3]. With --by-appearance sources are
numbered in order of first appearance across the reading order.`,
	Args: cobra.ExactArgs(1),
	RunE: runRenumber,
}

func runRenumber(cmd *cobra.Command, args []string) error {
	lib := mustOpenLibrary()

	mode := library.Compact
	if renumberByAppearance {
		mode = library.ByAppearance
	}
	res, err := lib.Renumber(args[0], mode, expectedRevision)
	if err != nil {
		exitForError(err, "renumbering")
	}
	reportEdit("Renumbered "+args[0], res)
	return nil
}
