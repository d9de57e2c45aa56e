package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matsen/citenum/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set configuration values.

Usage:
  cite config                          # Show all config
  cite config pdf-root                 # Get specific value
  cite config pdf-root /path/to/pdfs   # Set value
  cite config soft-match true

Keys:
  pdf-root        Path to PDF folder (e.g., ~/Google Drive/Paperpile)
  soft-match      Match records without PMID or DOI by title|year|first author
  default-format  Marker format for new documents (html, markdown)
  key-cache-size  Entries kept in the article key cache

soft-match can also be set in ~/.config/cite/config.yml or with
CITENUM_SOFT_MATCH; the environment wins, then the global file.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

// ConfigResponse is the response for config get commands.
type ConfigResponse struct {
	PDFRoot       string `json:"pdf_root"`
	SoftMatch     bool   `json:"soft_match"`
	Effective     bool   `json:"soft_match_effective"` // After global config and environment
	DefaultFormat string `json:"default_format"`
	KeyCacheSize  int    `json:"key_cache_size"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg, err := config.Load(repoRoot)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}

	// No args: show all config
	if len(args) == 0 {
		resp := ConfigResponse{
			PDFRoot:       cfg.PDFRoot,
			SoftMatch:     cfg.SoftMatch,
			Effective:     config.SoftMatchEnabled(cfg),
			DefaultFormat: cfg.DefaultFormat,
			KeyCacheSize:  cfg.CacheSize(),
		}
		if humanOutput {
			fmt.Printf("pdf-root:        %s\n", resp.PDFRoot)
			fmt.Printf("soft-match:      %t (effective %t)\n", resp.SoftMatch, resp.Effective)
			fmt.Printf("default-format:  %s\n", resp.DefaultFormat)
			fmt.Printf("key-cache-size:  %d\n", resp.KeyCacheSize)
		} else {
			outputJSON(resp)
		}
		return nil
	}

	key := normalizeKey(args[0])

	// One arg: get specific value
	if len(args) == 1 {
		var value string
		switch key {
		case "pdf-root":
			value = cfg.PDFRoot
		case "soft-match":
			value = strconv.FormatBool(cfg.SoftMatch)
		case "default-format":
			value = cfg.DefaultFormat
		case "key-cache-size":
			value = strconv.Itoa(cfg.CacheSize())
		default:
			exitWithError(ExitError, "unknown configuration key: %s", args[0])
		}
		if humanOutput {
			fmt.Println(value)
		} else {
			outputJSON(map[string]string{strings.ReplaceAll(key, "-", "_"): value})
		}
		return nil
	}

	// Two args: set value
	value := args[1]

	switch key {
	case "pdf-root":
		expanded := config.ExpandPath(value)
		if err := config.ValidatePDFRoot(expanded); err != nil {
			exitWithError(ExitConfigError, "%v", err)
		}
		cfg.PDFRoot = expanded
	case "soft-match":
		b, err := strconv.ParseBool(value)
		if err != nil {
			exitWithError(ExitError, "soft-match must be true or false, got %q", value)
		}
		cfg.SoftMatch = b
	case "default-format":
		if err := config.ValidateFormat(value); err != nil {
			exitWithError(ExitConfigError, "%v", err)
		}
		cfg.DefaultFormat = value
	case "key-cache-size":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			exitWithError(ExitError, "key-cache-size must be a non-negative integer, got %q", value)
		}
		cfg.KeyCacheSize = n
	default:
		exitWithError(ExitError, "unknown configuration key: %s", args[0])
	}

	if err := cfg.Save(repoRoot); err != nil {
		exitWithError(ExitError, "saving config: %v", err)
	}

	if humanOutput {
		fmt.Printf("Updated %s to %s\n", key, value)
	} else {
		outputJSON(UpdateResponse{Status: "updated", Key: key, Value: value})
	}
	return nil
}

// normalizeKey converts key formats (pdf-root, pdf_root, PDF_ROOT) to one form
func normalizeKey(key string) string {
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, "_", "-")
	return key
}
