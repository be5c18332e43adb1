// Package render turns accepted planning documents into Markdown, CSV, HTML
// and terminal tables.
package render

import (
	"fmt"
	"strings"

	"github.com/jywlabs/kickoff/internal/doc"
)

// PRDMarkdown renders a PRD as Markdown. Empty lists render as "- (none)".
func PRDMarkdown(p doc.PRD) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", p.Title)
	fmt.Fprintf(&b, "## Problem\n%s\n\n", p.Problem)
	section(&b, "Target users", p.TargetUsers)
	section(&b, "Goals", p.Goals)
	section(&b, "Non-goals", p.NonGoals)
	section(&b, "User stories", p.UserStories)
	section(&b, "Functional requirements", p.FunctionalRequirements)
	section(&b, "Non-functional requirements", p.NonfunctionalRequirements)
	section(&b, "Risks", p.Risks)
	fmt.Fprintf(&b, "## Open questions\n%s\n", bullets(p.OpenQuestions))
	return b.String()
}

// MilestonesMarkdown renders a milestone plan as Markdown, numbering
// milestones from 1 in document order.
func MilestonesMarkdown(m doc.MilestonesDoc) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", m.Title)
	for i, ms := range m.Milestones {
		fmt.Fprintf(&b, "\n## %d. %s\n", i+1, ms.Name)
		fmt.Fprintf(&b, "%s\n\n", ms.Objective)
		fmt.Fprintf(&b, "Estimated days: %d\n\n", ms.EstDays)
		fmt.Fprintf(&b, "### Deliverables\n%s\n", bullets(ms.Deliverables))
	}
	return b.String()
}

func section(b *strings.Builder, heading string, items []string) {
	fmt.Fprintf(b, "## %s\n%s\n\n", heading, bullets(items))
}

func bullets(items []string) string {
	if len(items) == 0 {
		return "- (none)"
	}
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item
	}
	return strings.Join(lines, "\n")
}
