package main

import (
	"errors"
	"fmt"

	"github.com/matsen/citenum/internal/config"
	"github.com/matsen/citenum/internal/git"
	"github.com/spf13/cobra"
)

var diffSince string

func init() {
	diffCmd.Flags().StringVar(&diffSince, "since", "HEAD", "Commit to compare against (SHA, HEAD~N, branch or tag)")
	rootCmd.AddCommand(diffCmd)
}

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Show articles added, removed or changed since a commit",
	Long: `Compare articles.jsonl with its version at a git commit.

Examples:
  cite diff                 # Uncommitted changes
  cite diff --since HEAD~5  # Changes over the last five commits
  cite diff --since main    # Changes on this branch`,
	Args: cobra.NoArgs,
	RunE: runDiff,
}

func runDiff(cmd *cobra.Command, args []string) error {
	path := config.ArticlesPath(mustFindRepository())

	d, err := git.DiffSince(path, diffSince)
	if err != nil {
		switch {
		case errors.Is(err, git.ErrNotGitRepo):
			exitWithError(ExitConfigError, "library is not inside a git repository")
		case errors.Is(err, git.ErrCommitNotFound):
			exitWithError(ExitNotFound, "%v", err)
		default:
			exitWithError(ExitError, "comparing articles: %v", err)
		}
	}

	if !humanOutput {
		outputJSON(d)
		return nil
	}

	if len(d.Added)+len(d.Removed)+len(d.Changed) == 0 {
		fmt.Printf("No article changes since %s.\n", d.Since)
		return nil
	}
	if len(d.Added) > 0 {
		fmt.Printf("Added (%d):\n", len(d.Added))
		for _, ref := range d.Added {
			printRefSummary(ref)
		}
	}
	if len(d.Removed) > 0 {
		fmt.Printf("Removed (%d):\n", len(d.Removed))
		for _, ref := range d.Removed {
			printRefSummary(ref)
		}
	}
	if len(d.Changed) > 0 {
		fmt.Printf("Changed (%d):\n", len(d.Changed))
		for _, id := range d.Changed {
			fmt.Printf("  %s\n", id)
		}
	}
	return nil
}
