// Package display renders pipeline progress for an interactive terminal.
package display

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jywlabs/kickoff/internal/doc"
	"github.com/jywlabs/kickoff/internal/output"
	"github.com/jywlabs/kickoff/internal/pipeline"
	"github.com/jywlabs/kickoff/internal/revise"
)

const (
	barFilled = "█"
	barEmpty  = "░"

	// maxShownIssues caps the issues listed under a revising attempt.
	maxShownIssues = 3
)

// Flusher is an optional interface for writers that support flushing.
type Flusher interface {
	Sync() error
}

// Display handles terminal output with spinners and formatted status.
type Display struct {
	out     io.Writer
	animate bool

	mu       sync.Mutex
	spinMu   sync.Mutex // Separate mutex for spinner to avoid deadlock
	spinning bool
	spinStop chan struct{}
	spinDone chan struct{}
	spinMsg  string
	fsm      spinnerFSM

	runStart  time.Time
	stepStart time.Time
}

// New creates a display writer. The spinner animates only when out is a terminal.
func New(out io.Writer) *Display {
	animate := false
	if f, ok := out.(*os.File); ok {
		animate = IsTerminal(f)
	}
	now := time.Now()
	return &Display{out: out, animate: animate, runStart: now, stepStart: now}
}

func (d *Display) flush() {
	if f, ok := d.out.(Flusher); ok {
		f.Sync()
	}
}

// StartSpinner begins the loading spinner with a message. When a spinner is
// already running only its message changes. Outside the Generating and
// Revising states there is no call in flight and the spinner stays off.
func (d *Display) StartSpinner(msg string) {
	d.spinMu.Lock()
	if !d.fsm.State().Busy() {
		d.spinMu.Unlock()
		return
	}
	d.spinMsg = msg
	if d.spinning || !d.animate {
		d.spinMu.Unlock()
		return
	}
	d.spinning = true
	d.spinStop = make(chan struct{})
	d.spinDone = make(chan struct{})
	stop, done := d.spinStop, d.spinDone
	start := d.stepStart
	d.spinMu.Unlock()

	go func() {
		defer close(done)
		frame := 0
		printed := false
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				if printed {
					d.mu.Lock()
					fmt.Fprint(d.out, "\033[1A\r\033[K")
					d.flush()
					d.mu.Unlock()
				}
				return
			case <-ticker.C:
				d.spinMu.Lock()
				msg := d.spinMsg
				d.spinMu.Unlock()

				line := fmt.Sprintf("   %s %s (%s)\n",
					StyleAccent.Render(SpinnerFrames[frame]), msg, formatElapsed(time.Since(start)))
				d.mu.Lock()
				if printed {
					fmt.Fprint(d.out, "\033[1A\r\033[K")
				}
				fmt.Fprint(d.out, line)
				d.flush()
				d.mu.Unlock()
				printed = true
				frame = (frame + 1) % len(SpinnerFrames)
			}
		}
	}()
}

// StopSpinner stops the loading spinner and clears its line.
func (d *Display) StopSpinner() {
	d.spinMu.Lock()
	if !d.spinning {
		d.spinMu.Unlock()
		return
	}
	d.spinning = false
	close(d.spinStop)
	done := d.spinDone
	d.spinMu.Unlock()
	<-done
}

// goTo moves the spinner state machine and reports whether the move was allowed.
func (d *Display) goTo(to SpinnerState) bool {
	d.spinMu.Lock()
	defer d.spinMu.Unlock()
	return d.fsm.GoTo(to)
}

// ShowCommandHeader prints the one-line header shown at the top of a command.
func (d *Display) ShowCommandHeader(command, target, engine string) {
	parts := []string{StyleTitle.Render(command)}
	if target != "" {
		parts = append(parts, target)
	}
	if engine != "" {
		parts = append(parts, StyleMuted.Render(engine))
	}
	d.printf("%s %s\n\n", StyleCommandIcon.String(), strings.Join(parts, StyleMuted.Render("  ·  ")))
}

// ShowRunHeader displays the run settings in a box.
func (d *Display) ShowRunHeader(engine string, maxAttempts int, idea string) {
	d.runStart = time.Now()
	lines := []string{
		StyleBold.Render("Project kickoff"),
		fmt.Sprintf("Engine: %s", engine),
		fmt.Sprintf("Max attempts per stage: %d", maxAttempts),
	}
	if idea != "" {
		lines = append(lines, fmt.Sprintf("Idea: %s", truncate(idea, 70)))
	}
	d.printf("%s\n\n", HeaderBox().Render(strings.Join(lines, "\n")))
}

// OnStageStart prints the step banner and starts the spinner.
func (d *Display) OnStageStart(_ context.Context, _ string, step string) {
	d.StopSpinner()
	if s := d.fsm.State(); s == StateCompletion || s == StateError {
		d.goTo(StateIdle)
	}
	d.goTo(StateGenerating)
	d.stepStart = time.Now()

	index, total := pipeline.StepIndex(step), len(pipeline.Steps)
	d.printf("%s  %s  %s\n",
		stepBar(index-1, total),
		StyleMuted.Render(fmt.Sprintf("Step %d/%d", index, total)),
		StyleBold.Render(pipeline.StepLabel(step)))
	d.StartSpinner(fmt.Sprintf("generating %s...", strings.ToLower(pipeline.StepLabel(step))))
}

// OnGoal prints the interpreted goal.
func (d *Display) OnGoal(_ context.Context, _ string, goal doc.GoalInterpretation) {
	d.StopSpinner()
	d.goTo(StateIdle)
	line := StyleBold.Render(goal.Title)
	if goal.OneLiner != "" {
		line += StyleMuted.Render(": " + goal.OneLiner)
	}
	d.printf("   %s %s %s\n", StyleSuccess.Render("[ok]"), line, StyleMuted.Render(d.stepElapsed()))
}

// OnAttempt prints a validation outcome and restarts the spinner while a
// revision is requested.
func (d *Display) OnAttempt(_ context.Context, _ string, ev revise.AttemptEvent) {
	d.StopSpinner()
	label := pipeline.StepLabel(ev.Stage)
	attempt := fmt.Sprintf("attempt %d/%d", ev.Attempt, ev.MaxAttempts)

	switch ev.State {
	case revise.StateAccepted:
		d.goTo(StateIdle)
		d.printf("   %s %s accepted on %s %s\n",
			StyleSuccess.Render("[ok]"), label, attempt, StyleMuted.Render(d.stepElapsed()))

	case revise.StateRevising:
		d.goTo(StateRevising)
		d.printf("   %s %s on %s\n",
			StyleWarning.Render("[!!]"), output.Plural(len(ev.Issues), "issue"), attempt)
		d.showIssues(ev.Issues)
		d.StartSpinner(fmt.Sprintf("revising %s (attempt %d/%d)...", strings.ToLower(label), ev.Attempt+1, ev.MaxAttempts))

	case revise.StateExhausted:
		d.goTo(StateIdle)
		d.printf("   %s %s kept with %s after %s\n",
			StyleWarning.Render("[--]"), label, output.Plural(len(ev.Issues), "issue"), output.Plural(ev.Attempt, "attempt"))
		d.showIssues(ev.Issues)
	}
}

// OnComplete prints the final summary box once per run.
func (d *Display) OnComplete(_ context.Context, res *pipeline.Result) {
	d.StopSpinner()
	if !d.goTo(StateCompletion) {
		return
	}

	title := StyleSuccess.Render("[ok] Project plan generated in " + output.FormatDuration(res.Duration))
	box := SuccessBox()
	if res.HasWarnings() {
		title = StyleWarning.Render("[--] Project plan generated with warnings in " + output.FormatDuration(res.Duration))
		box = WarningBox()
	}

	lines := []string{
		title,
		fmt.Sprintf("Milestones: %d (%d days)", len(res.Milestones.Milestones), res.Milestones.TotalDays()),
		fmt.Sprintf("Tasks: %d (%s hours)", len(res.Tasks.Tasks), formatHours(res.Tasks.TotalHours())),
		fmt.Sprintf("Generation calls: %d", res.GenerationCalls()),
	}
	for _, w := range res.Warnings() {
		lines = append(lines, StyleWarning.Render(fmt.Sprintf("%s: %s unresolved", pipeline.StepLabel(w.Step), output.Plural(len(w.Issues), "issue"))))
	}
	d.printf("\n%s\n", box.Render(strings.Join(lines, "\n")))
}

// OnFailure prints the error box, unless the run already ended.
func (d *Display) OnFailure(_ context.Context, _ string, err error) {
	d.StopSpinner()
	if !d.goTo(StateError) {
		return
	}

	lines := []string{StyleError.Render("[!!] Error")}
	if stage := pipeline.FailedStage(err); stage != "" {
		lines = append(lines, fmt.Sprintf("Stage: %s", pipeline.StepLabel(stage)))
	}
	lines = append(lines, err.Error(), StyleMuted.Render(fmt.Sprintf("After %s", output.FormatDuration(time.Since(d.runStart)))))
	d.printf("\n%s\n", ErrorBox().Render(strings.Join(lines, "\n")))
}

// ShowArtifacts lists the files written by the run.
func (d *Display) ShowArtifacts(paths []string) {
	if len(paths) == 0 {
		return
	}
	d.printf("\n%s\n", StyleTitle.Render("Artifacts"))
	for _, p := range paths {
		d.printf("   %s %s\n", StyleMuted.Render(">"), p)
	}
}

// ShowInfo displays an info message.
func (d *Display) ShowInfo(format string, args ...any) {
	d.printf(format, args...)
}

// ShowRetry displays a backend retry and keeps the spinner running through
// the backoff.
func (d *Display) ShowRetry(delay time.Duration, attempt, max int) {
	d.spinMu.Lock()
	msg := d.spinMsg
	d.spinMu.Unlock()

	d.StopSpinner()
	d.printf("   %s\n", StyleMuted.Render(fmt.Sprintf("... retrying in %s (attempt %d/%d)", delay.Round(time.Millisecond), attempt, max)))
	d.StartSpinner(msg)
}

func (d *Display) showIssues(issues []string) {
	for i, issue := range issues {
		if i == maxShownIssues {
			d.printf("      %s\n", StyleMuted.Render(fmt.Sprintf("... and %d more", len(issues)-maxShownIssues)))
			return
		}
		d.printf("      %s %s\n", StyleMuted.Render("-"), issue)
	}
}

func (d *Display) printf(format string, args ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, format, args...)
	d.flush()
}

func (d *Display) stepElapsed() string {
	return "(" + strings.TrimSpace(formatElapsed(time.Since(d.stepStart))) + ")"
}

// stepBar renders done of total segments, e.g. "██░░".
func stepBar(done, total int) string {
	if done < 0 {
		done = 0
	}
	if done > total {
		done = total
	}
	return StyleProgressFilled.Render(strings.Repeat(barFilled, done)) +
		StyleProgressEmpty.Render(strings.Repeat(barEmpty, total-done))
}

// formatElapsed formats duration with fixed width (always 6 chars like " 1.04s")
func formatElapsed(d time.Duration) string {
	secs := d.Seconds()
	if secs < 10 {
		return fmt.Sprintf("%5.2fs", secs)
	} else if secs < 100 {
		return fmt.Sprintf("%5.1fs", secs)
	}
	return fmt.Sprintf("%5.0fs", secs)
}

func formatHours(h float64) string {
	if h == float64(int(h)) {
		return fmt.Sprintf("%d", int(h))
	}
	return fmt.Sprintf("%.1f", h)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
