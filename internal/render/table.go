package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/jywlabs/kickoff/internal/doc"
)

// TasksTable writes a terminal table of the backlog to w. At most limit
// tasks are listed when limit is positive.
func TasksTable(w io.Writer, td doc.TasksDoc, limit int) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"ID", "Title", "Type", "Priority", "Hours", "Depends on"})

	shown := td.Tasks
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	for _, t := range shown {
		deps := "-"
		if len(t.DependsOn) > 0 {
			deps = strings.Join(t.DependsOn, DependsOnSep)
		}
		tw.AppendRow(table.Row{t.TaskID, t.Title, t.Type, t.Priority, formatHours(t.EstimateHours), deps})
	}
	if hidden := len(td.Tasks) - len(shown); hidden > 0 {
		tw.AppendRow(table.Row{"", fmt.Sprintf("... %d more", hidden), "", "", "", ""})
	}
	tw.AppendFooter(table.Row{"", fmt.Sprintf("%d tasks", len(td.Tasks)), "", "", formatHours(td.TotalHours()), ""})
	tw.Render()
}
