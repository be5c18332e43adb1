package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jywlabs/kickoff/internal/render"
)

// Render formats.
const (
	formatAuto     = "auto"
	formatMarkdown = "md"
	formatHTML     = "html"
	formatCSV      = "csv"
	formatTable    = "table"
)

var (
	renderKindFlag   string
	renderFormatFlag string
)

var renderCmd = &cobra.Command{
	Use:   "render <file>",
	Short: "Render a document as Markdown, HTML, CSV or a table",
	Long: `Render a PRD, milestone plan or task backlog to stdout.

By default PRDs and milestone plans render as Markdown and task backlogs
as CSV. PRDs and milestone plans also render as a standalone HTML page;
task backlogs also render as a terminal table.

Examples:
  kickoff render prd.json
  kickoff render prd.json --format html > PRD.html
  kickoff render output/TASKS.csv --format table`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := loadDocument(args[0], renderKindFlag)
		if err != nil {
			return err
		}
		return renderDocument(cmd.OutOrStdout(), d, renderFormatFlag)
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderKindFlag, "kind", "k", kindAuto, "Document kind: auto, prd, milestones, tasks")
	renderCmd.Flags().StringVarP(&renderFormatFlag, "format", "f", formatAuto, "Output format: auto, md, html, csv, table")
	rootCmd.AddCommand(renderCmd)
}

func renderDocument(w io.Writer, d *document, format string) error {
	format = strings.ToLower(format)
	if format == formatAuto || format == "" {
		format = formatMarkdown
		if d.Kind == kindTasks {
			format = formatCSV
		}
	}

	if d.Kind == kindTasks {
		switch format {
		case formatCSV:
			return render.WriteTasksCSV(w, d.Tasks)
		case formatTable:
			render.TasksTable(w, d.Tasks, 0)
			return nil
		default:
			return fmt.Errorf("tasks render as csv or table, not %s", format)
		}
	}

	var title, md string
	switch d.Kind {
	case kindPRD:
		title, md = d.PRD.Title, render.PRDMarkdown(d.PRD)
	default:
		title, md = d.Milestones.Title, render.MilestonesMarkdown(d.Milestones)
	}

	switch format {
	case formatMarkdown:
		_, err := io.WriteString(w, md)
		return err
	case formatHTML:
		body, err := render.HTML(md)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, render.HTMLPage(title, body))
		return err
	default:
		return fmt.Errorf("%s renders as md or html, not %s", strings.ToLower(d.Label()), format)
	}
}
