package main

import (
	"fmt"

	"github.com/matsen/citenum/internal/document"
	"github.com/spf13/cobra"
)

var (
	projectName        string
	projectDescription string
)

func init() {
	projectNewCmd.Flags().StringVar(&projectName, "name", "", "Display name (default: the id)")
	projectNewCmd.Flags().StringVar(&projectDescription, "description", "", "Optional description")

	projectCmd.AddCommand(projectNewCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectShowCmd)
	rootCmd.AddCommand(projectCmd)
}

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage writing projects",
	Long: `Manage writing projects.

A project is an ordered set of documents whose citations share one
numbering: a source cited in chapter 1 as [3] is [3] everywhere.`,
}

var projectNewCmd = &cobra.Command{
	Use:   "new <id>",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectNew,
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	Args:  cobra.NoArgs,
	RunE:  runProjectList,
}

var projectShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a project's documents, citations and revision",
	Long: `Show a project's documents, citations and revision.

Pass the revision to edit commands with --revision to have them refuse
to write if someone else changed the project in between.`,
	Args: cobra.ExactArgs(1),
	RunE: runProjectShow,
}

func runProjectNew(cmd *cobra.Command, args []string) error {
	lib := mustOpenLibrary()

	name := projectName
	if name == "" {
		name = args[0]
	}
	p, err := lib.CreateProject(document.Project{ID: args[0], Name: name, Description: projectDescription})
	if err != nil {
		exitForError(err, "creating project")
	}

	if humanOutput {
		fmt.Printf("Created project %s (%s)\n", p.ID, p.Name)
	} else {
		outputJSON(p)
	}
	return nil
}

func runProjectList(cmd *cobra.Command, args []string) error {
	lib := mustOpenLibrary()

	projects, err := lib.Projects()
	if err != nil {
		exitForError(err, "reading projects")
	}

	if !humanOutput {
		if projects == nil {
			projects = []document.Project{}
		}
		outputJSON(projects)
		return nil
	}
	if len(projects) == 0 {
		fmt.Println("No projects.")
		return nil
	}
	for _, p := range projects {
		fmt.Printf("%-20s %-30s %d documents\n", p.ID, truncateString(p.Name, 30), len(p.Documents))
	}
	return nil
}

func runProjectShow(cmd *cobra.Command, args []string) error {
	lib := mustOpenLibrary()

	s, err := lib.Snapshot(args[0])
	if err != nil {
		exitForError(err, "reading project")
	}

	if !humanOutput {
		outputJSON(s)
		return nil
	}

	fmt.Printf("%s  %s\n", s.Project.ID, s.Project.Name)
	fmt.Printf("revision: %s\n", s.Revision)
	for _, d := range s.Documents {
		fmt.Printf("\n%s  %s (%s)\n", d.ID, d.Title, d.Format)
		if len(d.Citations) == 0 {
			fmt.Println("  (no citations)")
		}
		for _, c := range d.Citations {
			fmt.Printf("  [%d.%d] %-14s %s\n", c.InlineNumber, c.SubNumber, c.ArticleID, c.ID)
		}
	}
	return nil
}
