package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jywlabs/kickoff/internal/display"
	"github.com/jywlabs/kickoff/internal/output"
)

var validateKindFlag string

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a document against the quality rules",
	Long: `Check a PRD, milestone plan or task backlog against the same quality
rules used during generation. Nothing is sent to a generator.

The file is JSON (code fences, comments and trailing commas are tolerated)
or a TASKS.csv written by 'kickoff plan'. The kind is detected from the
document's keys unless --kind is given.

Exits with code 1 when issues are found.

Examples:
  kickoff validate prd.json
  kickoff validate output/TASKS.csv
  kickoff validate draft.json --kind milestones`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVarP(&validateKindFlag, "kind", "k", kindAuto, "Document kind: auto, prd, milestones, tasks")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	d, err := loadDocument(args[0], validateKindFlag)
	if err != nil {
		return err
	}
	return reportIssues(cmd.OutOrStdout(), args[0], d)
}

// reportIssues prints the document's issues and returns an ExitError with
// code 1 when there are any.
func reportIssues(w io.Writer, path string, d *document) error {
	issues := d.Issues()
	if len(issues) == 0 {
		fmt.Fprintf(w, "%s %s is valid (%s)\n", display.StyleSuccess.Render("✓"), d.Label(), path)
		return nil
	}

	fmt.Fprintf(w, "%s %s has %s (%s)\n", display.StyleError.Render("✗"), d.Label(), output.Plural(len(issues), "issue"), path)
	for _, issue := range issues {
		fmt.Fprintf(w, "  - %s\n", issue)
	}
	return &ExitError{Code: 1, Err: fmt.Errorf("%s failed validation", d.Label())}
}
