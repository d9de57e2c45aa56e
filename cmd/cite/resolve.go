package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/matsen/citenum/internal/config"
	"github.com/matsen/citenum/internal/conflict"
	"github.com/matsen/citenum/internal/library"
	"github.com/matsen/citenum/internal/reference"
	"github.com/matsen/citenum/internal/storage"
	"github.com/spf13/cobra"
)

// Interactive prompt choices
const (
	choiceOurs   = "1"
	choiceTheirs = "2"
)

var (
	resolveDryRun      bool
	resolveInteractive bool
)

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().BoolVar(&resolveDryRun, "dry-run", false, "Show proposed resolution without modifying files")
	resolveCmd.Flags().BoolVar(&resolveInteractive, "interactive", false, "Prompt for true conflicts that cannot be auto-resolved")
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve git merge conflicts in articles.jsonl",
	Long: `Resolve git merge conflicts in articles.jsonl using what cite knows
about articles:
- Records with the same PMID or DOI (or soft key) are the same article
- One version might have metadata the other lacks
- The record with more complete metadata wins
- Author lists can be merged if one is longer

When the two sides used different IDs for one article, the losing ID is
kept in merged_from and citations of it are redirected afterwards.

Examples:
  cite resolve                   # Auto-resolve and write result
  cite resolve --dry-run         # Preview what would happen
  cite resolve --interactive     # Prompt for true conflicts
  cite resolve --dry-run --human # Human-readable preview`,
	RunE: runResolve,
}

// ResolveResult is the output of the resolve command.
type ResolveResult struct {
	TotalArticles  int                   `json:"total_articles"`
	Merged         int                   `json:"merged"`
	OursArticles   int                   `json:"ours_articles"`
	TheirsArticles int                   `json:"theirs_articles"`
	Operations     []conflict.Plan       `json:"operations"`
	Unresolved     []UnresolvedInfo      `json:"unresolved,omitempty"`
	Dedupe         *library.DedupeResult `json:"dedupe,omitempty"`
	DryRun         bool                  `json:"dry_run"`
}

// UnresolvedInfo names an article whose conflicts need a human choice.
type UnresolvedInfo struct {
	ArticleID string   `json:"article_id"`
	Key       string   `json:"key"`
	Fields    []string `json:"fields"`
}

func runResolve(cmd *cobra.Command, args []string) error {
	lib := mustOpenLibrary()
	articlesPath := config.ArticlesPath(lib.Root())

	f, err := os.Open(articlesPath)
	if err != nil {
		if os.IsNotExist(err) {
			exitWithError(ExitDataError, "articles.jsonl not found at %s", articlesPath)
		}
		exitWithError(ExitError, "reading articles.jsonl: %v", err)
	}
	parsed, err := conflict.Parse(f)
	f.Close()
	if err != nil {
		var parseErr conflict.ParseError
		if errors.As(err, &parseErr) {
			exitWithError(ExitDataError, "parsing articles.jsonl: %s", parseErr.Error())
		}
		exitWithError(ExitError, "parsing articles.jsonl: %v", err)
	}

	if !parsed.HasConflicts() {
		result := ResolveResult{
			TotalArticles: len(parsed.Articles(nil)),
			Operations:    []conflict.Plan{},
			DryRun:        resolveDryRun,
		}
		if humanOutput {
			fmt.Println("No conflicts detected in articles.jsonl.")
		} else {
			outputJSON(result)
		}
		return nil
	}

	result, resolved, hasUnresolved := resolveRegions(parsed, lib)
	result.DryRun = resolveDryRun

	if resolveDryRun {
		if humanOutput {
			printResolveResultHuman(result)
		} else {
			outputJSON(result)
		}
		return nil
	}

	if hasUnresolved {
		if humanOutput {
			printResolveResultHuman(result)
			fmt.Fprintln(os.Stderr, "\nerror: unresolvable conflicts require --interactive flag")
		} else {
			outputJSON(result)
		}
		os.Exit(ExitDataError)
	}

	if err := storage.WriteAll(articlesPath, parsed.Articles(resolved)); err != nil {
		exitWithError(ExitError, "writing resolved file: %v", err)
	}

	// Fold records that now share a key and redirect citations of merged IDs.
	result.Dedupe, err = lib.Dedupe(false)
	if err != nil {
		exitForError(err, "redirecting citations")
	}

	if humanOutput {
		printResolveResultHuman(result)
		fmt.Printf("\nResolved articles.jsonl written to %s\n", articlesPath)
	} else {
		outputJSON(result)
	}
	return nil
}

// resolveRegions resolves every conflict region. It returns the resolved
// articles per region and whether any conflict was left unresolved.
func resolveRegions(parsed *conflict.ParseResult, lib *library.Library) (ResolveResult, [][]reference.Reference, bool) {
	result := ResolveResult{Operations: []conflict.Plan{}}
	resolved := make([][]reference.Reference, len(parsed.Regions))
	hasUnresolved := false

	var choose func(conflict.Match, conflict.Plan) map[string]string
	if resolveInteractive && !resolveDryRun {
		reader := bufio.NewReader(os.Stdin)
		choose = func(m conflict.Match, p conflict.Plan) map[string]string {
			return promptForConflict(reader, p)
		}
	}

	for i, region := range parsed.Regions {
		match := conflict.MatchArticles(region, lib.IdentityOptions())
		refs, plans, ok := conflict.ResolveRegion(match, choose)
		resolved[i] = refs
		if !ok {
			hasUnresolved = true
		}

		for _, plan := range plans {
			result.Operations = append(result.Operations, plan)
			switch plan.Action {
			case conflict.ActionMerge:
				result.Merged++
			case conflict.ActionAddOurs:
				result.OursArticles++
			case conflict.ActionAddTheirs:
				result.TheirsArticles++
			case conflict.ActionConflict:
				if choose != nil {
					result.Merged++
					continue
				}
				fields := make([]string, len(plan.Conflicts))
				for j, c := range plan.Conflicts {
					fields[j] = c.Field
				}
				result.Unresolved = append(result.Unresolved, UnresolvedInfo{
					ArticleID: plan.ArticleID,
					Key:       plan.Key,
					Fields:    fields,
				})
			}
		}
	}

	result.TotalArticles = len(parsed.Articles(resolved))
	return result, resolved, hasUnresolved
}

// promptForConflict asks which side wins for each conflicting field.
func promptForConflict(reader *bufio.Reader, plan conflict.Plan) map[string]string {
	choices := make(map[string]string, len(plan.Conflicts))
	total := len(plan.Conflicts)

	for i, fc := range plan.Conflicts {
		fmt.Printf("\nResolving conflict %d of %d for article %s...\n", i+1, total, plan.ArticleID)
		fmt.Printf("Conflict in field '%s':\n", fc.Field)
		fmt.Printf("  [%s] ours:   %q\n", choiceOurs, truncateString(fc.Ours, 60))
		fmt.Printf("  [%s] theirs: %q\n", choiceTheirs, truncateString(fc.Theirs, 60))

		for {
			fmt.Printf("Enter choice [%s/%s]: ", choiceOurs, choiceTheirs)
			input, err := reader.ReadString('\n')
			input = strings.TrimSpace(input)

			if input == choiceOurs {
				choices[fc.Field] = "ours"
				break
			}
			if input == choiceTheirs {
				choices[fc.Field] = "theirs"
				break
			}
			if err != nil {
				exitWithError(ExitError, "reading choice: %v", err)
			}
			fmt.Printf("Invalid choice. Please enter %s or %s.\n", choiceOurs, choiceTheirs)
		}
	}
	return choices
}

func printResolveResultHuman(result ResolveResult) {
	if result.DryRun {
		fmt.Println("Dry run - no changes made")
		fmt.Println()
	}

	fmt.Printf("Resolution summary:\n")
	fmt.Printf("  Total articles: %d\n", result.TotalArticles)
	if result.Merged > 0 {
		fmt.Printf("  Merged: %d\n", result.Merged)
	}
	if result.OursArticles > 0 {
		fmt.Printf("  Added from ours: %d\n", result.OursArticles)
	}
	if result.TheirsArticles > 0 {
		fmt.Printf("  Added from theirs: %d\n", result.TheirsArticles)
	}

	if len(result.Operations) > 0 {
		fmt.Println()
		fmt.Println("Operations:")
		for _, op := range result.Operations {
			fmt.Printf("  %s: %s (%s)\n", op.ArticleID, op.Action, op.Reason)
		}
	}

	if len(result.Unresolved) > 0 {
		fmt.Println()
		fmt.Printf("Unresolved conflicts (%d):\n", len(result.Unresolved))
		for _, u := range result.Unresolved {
			fmt.Printf("  %s: conflicts on %s\n", u.ArticleID, strings.Join(u.Fields, ", "))
		}
		fmt.Println()
		fmt.Println("Use --interactive to resolve these conflicts manually.")
	}

	if result.Dedupe != nil && result.Dedupe.Redirected > 0 {
		fmt.Printf("\nRedirected %d citations to merged articles.\n", result.Dedupe.Redirected)
	}
}
