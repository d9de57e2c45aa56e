package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var dedupeDryRun bool

func init() {
	dedupeCmd.Flags().BoolVar(&dedupeDryRun, "dry-run", false, "Show duplicates without making changes")
	rootCmd.AddCommand(dedupeCmd)
}

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Merge articles that denote the same publication",
	Long: `Merge articles that share a dedupe key (PMID, DOI, or with soft-match
the normalized title, year and first author).

The first record of each group is kept and fills in missing fields from
the others. Citations of removed records are pointed at the kept one and
every affected project is renumbered.

Examples:
  cite dedupe --dry-run    # Show duplicate groups without making changes
  cite dedupe              # Merge them`,
	RunE: runDedupe,
}

func runDedupe(cmd *cobra.Command, args []string) error {
	lib := mustOpenLibrary()

	result, err := lib.Dedupe(dedupeDryRun)
	if err != nil {
		exitForError(err, "deduplicating")
	}

	if !humanOutput {
		outputJSON(result)
		return nil
	}

	if len(result.Groups) == 0 {
		fmt.Println("No duplicates found.")
		return nil
	}

	if result.DryRun {
		fmt.Printf("Found %d duplicate groups (%d records would be removed):\n\n", len(result.Groups), result.Removed)
	} else {
		fmt.Printf("Merged %d duplicate groups (%d records removed, %d citations redirected):\n\n",
			len(result.Groups), result.Removed, result.Redirected)
	}
	for _, g := range result.Groups {
		fmt.Printf("  %s\n", g.Key)
		fmt.Printf("    keep:   %s\n", g.Canonical)
		fmt.Printf("    remove: %s\n", strings.Join(g.Duplicates, ", "))
	}
	for projectID, changes := range result.Changes {
		fmt.Printf("\nRenumbered %s:\n", projectID)
		printChanges(changes)
	}
	return nil
}
