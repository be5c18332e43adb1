// Package output prints plain progress lines and writes run artifacts.
package output

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jywlabs/kickoff/internal/doc"
	"github.com/jywlabs/kickoff/internal/pipeline"
	"github.com/jywlabs/kickoff/internal/revise"
)

// Printer writes one line per pipeline event. It is used when stdout is not
// a terminal.
type Printer struct {
	w io.Writer
}

// New creates a new Printer that writes to the given writer.
func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

// OnStageStart prints the step being generated.
// Format: "Step 2/4: PRD"
func (p *Printer) OnStageStart(_ context.Context, _ string, step string) {
	fmt.Fprintf(p.w, "Step %d/%d: %s\n", pipeline.StepIndex(step), len(pipeline.Steps), pipeline.StepLabel(step))
}

// OnGoal prints the interpreted project title.
// Format: "✓ Goal: <title> - <one liner>"
func (p *Printer) OnGoal(_ context.Context, _ string, goal doc.GoalInterpretation) {
	if goal.OneLiner == "" {
		fmt.Fprintf(p.w, "✓ Goal: %s\n", goal.Title)
		return
	}
	fmt.Fprintf(p.w, "✓ Goal: %s - %s\n", goal.Title, goal.OneLiner)
}

// OnAttempt prints the validation outcome of one attempt.
func (p *Printer) OnAttempt(_ context.Context, _ string, ev revise.AttemptEvent) {
	label := pipeline.StepLabel(ev.Stage)
	switch ev.State {
	case revise.StateAccepted:
		fmt.Fprintf(p.w, "✓ %s accepted (attempt %d/%d)\n", label, ev.Attempt, ev.MaxAttempts)
	case revise.StateRevising:
		fmt.Fprintf(p.w, "✗ %s has %s (attempt %d/%d), revising\n", label, Plural(len(ev.Issues), "issue"), ev.Attempt, ev.MaxAttempts)
	case revise.StateExhausted:
		fmt.Fprintf(p.w, "! %s kept with %s after %s\n", label, Plural(len(ev.Issues), "issue"), Plural(ev.Attempt, "attempt"))
	}
}

// OnComplete prints residual warnings and the run duration.
// Format: "Project plan generated in 1m 3.2s"
func (p *Printer) OnComplete(_ context.Context, res *pipeline.Result) {
	for _, w := range res.Warnings() {
		fmt.Fprintf(p.w, "Warning: %s has unresolved issues:\n", pipeline.StepLabel(w.Step))
		for _, issue := range w.Issues {
			fmt.Fprintf(p.w, "  - %s\n", issue)
		}
	}
	fmt.Fprintf(p.w, "Project plan generated in %s\n", FormatDuration(res.Duration))
}

// OnFailure prints the fatal error.
// Format: "✗ Run failed: <reason>"
func (p *Printer) OnFailure(_ context.Context, _ string, err error) {
	fmt.Fprintf(p.w, "✗ Run failed: %v\n", err)
}

// ShowCommandHeader prints the command, its target and the engine.
// Format: "kickoff plan: <target> (engine: openai)"
func (p *Printer) ShowCommandHeader(command, target, engine string) {
	line := "kickoff " + strings.ToLower(command)
	if target != "" {
		line += ": " + target
	}
	if engine != "" {
		line += " (engine: " + engine + ")"
	}
	fmt.Fprintln(p.w, line)
}

// ShowArtifacts lists the files written by the run.
func (p *Printer) ShowArtifacts(paths []string) {
	for _, path := range paths {
		fmt.Fprintf(p.w, "Wrote %s\n", path)
	}
}

// FormatDuration renders d as "42.0s" below a minute and "1m 3.2s" above.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := d.Seconds()
	if secs < 60 {
		return fmt.Sprintf("%.1fs", secs)
	}
	mins := int(secs) / 60
	return fmt.Sprintf("%dm %.1fs", mins, secs-float64(mins*60))
}

// Plural formats a count with its noun, e.g. "1 issue", "3 issues".
func Plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
