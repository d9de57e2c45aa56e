// Package main provides the cite CLI entry point.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/matsen/citenum/internal/config"
	"github.com/matsen/citenum/internal/document"
	"github.com/matsen/citenum/internal/library"
	"github.com/matsen/citenum/internal/numbering"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	// verbose enables debug logging on stderr
	verbose bool
	// expectedRevision guards edits against a scope that moved on
	expectedRevision string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cite",
	Short: "Numbered citations for multi-document writing projects",
	Long: `cite keeps a library of articles and the numbered citations that
point at them from the documents of a writing project.

Core features:
  - Import from Paperpile, PubMed XML, search results and PDFs
  - One article per logical source (PMID, then DOI, then optional title match)
  - Stable [n] numbering across every document of a project
  - Marker rewriting in HTML and Markdown content

Data is stored in git-versionable JSONL with an ephemeral SQLite index.
All commands output JSON by default for agent integration.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env is fine
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log library activity to stderr")
	rootCmd.Version = Version
}

// newLogger returns the logger handed to the library.
func newLogger() *slog.Logger {
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// mustFindRepository finds and validates the repository, exits on error.
// Returns the repository root path.
func mustFindRepository() string {
	cwd, err := os.Getwd()
	if err != nil {
		exitWithError(ExitError, "getting current directory: %v", err)
	}

	repoRoot, err := config.ResolveRepository(cwd)
	if err != nil {
		// Show helpful message if no global config exists
		fmt.Fprintln(os.Stderr, config.HelpfulConfigMessage())
		os.Exit(ExitConfigError)
	}
	return repoRoot
}

// mustOpenLibrary opens the repository's library, exits on error.
func mustOpenLibrary() *library.Library {
	lib, err := library.Open(mustFindRepository(), library.WithLogger(newLogger()))
	if err != nil {
		exitWithError(ExitConfigError, "opening library: %v", err)
	}
	return lib
}

// exitForError maps library errors to exit codes and exits.
func exitForError(err error, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	switch {
	case errors.Is(err, library.ErrStaleRevision):
		exitWithError(ExitStaleRevision, "%s: %v\n\nRe-read the project and retry with the new revision.", msg, err)
	case errors.Is(err, document.ErrProjectNotFound),
		errors.Is(err, document.ErrDocumentNotFound),
		errors.Is(err, library.ErrArticleNotFound),
		errors.Is(err, numbering.ErrCitationNotFound):
		exitWithError(ExitNotFound, "%s: %v", msg, err)
	case errors.Is(err, document.ErrDuplicateID),
		errors.Is(err, document.ErrInvalidID),
		errors.Is(err, document.ErrEmptyID),
		errors.Is(err, document.ErrEmptyName),
		errors.Is(err, numbering.ErrOrderMismatch):
		exitWithError(ExitDataError, "%s: %v", msg, err)
	default:
		exitWithError(ExitError, "%s: %v", msg, err)
	}
}
