package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/matsen/citenum/internal/config"
	"github.com/spf13/cobra"
)

var (
	initPDFRoot   string
	initFormat    string
	initSoftMatch bool
)

func init() {
	initCmd.Flags().StringVar(&initPDFRoot, "pdf-root", "", "Folder that add-pdf resolves paths against")
	initCmd.Flags().StringVar(&initFormat, "format", "markdown", "Marker format for new documents (html, markdown)")
	initCmd.Flags().BoolVar(&initSoftMatch, "soft-match", false, "Match records without PMID or DOI by title, year and first author")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Create a citation library",
	Long: `Create a citation library in dir (default: current directory).

Creates .citenum/ with empty articles, projects and documents files,
a content/ folder for document bodies and a git-ignored cache/.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	root, err := filepath.Abs(root)
	if err != nil {
		exitWithError(ExitError, "resolving %s: %v", root, err)
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		exitWithError(ExitError, "creating %s: %v", root, err)
	}

	if err := config.ValidateFormat(initFormat); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	pdfRoot := config.ExpandPath(initPDFRoot)
	if err := config.ValidatePDFRoot(pdfRoot); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	cfg, err := config.Init(root)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	cfg.PDFRoot = pdfRoot
	cfg.DefaultFormat = initFormat
	cfg.SoftMatch = initSoftMatch
	if err := cfg.Save(root); err != nil {
		exitWithError(ExitError, "saving config: %v", err)
	}

	if humanOutput {
		fmt.Printf("Initialized citation library in %s\n", config.CitenumPath(root))
	} else {
		outputJSON(StatusResponse{Status: "initialized", Path: root})
	}
	return nil
}
