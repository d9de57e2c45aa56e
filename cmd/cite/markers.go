package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	markersCmd.AddCommand(markersSyncCmd)
	rootCmd.AddCommand(markersCmd)
}

var markersCmd = &cobra.Command{
	Use:   "markers",
	Short: "Work with the citation markers in content files",
}

var markersSyncCmd = &cobra.Command{
	Use:   "sync <project>",
	Short: "Rewrite markers so their numbers match the stored citations",
	Args:  cobra.ExactArgs(1),
	RunE:  runMarkersSync,
}

// MarkersSyncResponse is the response for markers sync.
type MarkersSyncResponse struct {
	ProjectID string   `json:"project_id"`
	Rewritten []string `json:"rewritten"`
}

func runMarkersSync(cmd *cobra.Command, args []string) error {
	lib := mustOpenLibrary()

	rewritten, err := lib.SyncMarkers(args[0])
	if err != nil {
		exitForError(err, "syncing markers")
	}
	if rewritten == nil {
		rewritten = []string{}
	}

	if humanOutput {
		if len(rewritten) == 0 {
			fmt.Println("All markers already match.")
		} else {
			fmt.Printf("Rewrote markers in %s\n", strings.Join(rewritten, ", "))
		}
	} else {
		outputJSON(MarkersSyncResponse{ProjectID: args[0], Rewritten: rewritten})
	}
	return nil
}
