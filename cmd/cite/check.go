package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check <project>",
	Short: "Verify a project's numbering and content markers",
	Long: `Verify a project's numbering and content markers.

Reports numbering that breaks the rules (gaps, sources sharing a number,
sub-numbers out of sequence, numbers out of appearance order), markers
that disagree with the stored citations, and citations of articles that
are no longer in the library. Exits non-zero when anything is found.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	lib := mustOpenLibrary()

	result, err := lib.Check(args[0])
	if err != nil {
		exitForError(err, "checking project")
	}

	if humanOutput {
		if result.OK() {
			fmt.Printf("%s: OK (revision %s)\n", result.ProjectID, result.Revision)
		} else {
			fmt.Printf("%s: problems found\n", result.ProjectID)
			for _, section := range []struct {
				name  string
				items []string
			}{
				{"numbering", result.Numbering.Errors},
				{"markers", result.Markers},
				{"dangling", result.Dangling},
			} {
				for _, item := range section.items {
					fmt.Printf("  [%s] %s\n", section.name, item)
				}
			}
		}
	} else {
		outputJSON(result)
	}

	if !result.OK() {
		os.Exit(ExitDataError)
	}
	return nil
}
