package pipeline

import (
	"time"

	"github.com/jywlabs/kickoff/internal/doc"
)

// Pipeline steps, in execution order.
const (
	StepGoal       = "goal"
	StepPRD        = "prd"
	StepMilestones = "milestones"
	StepTasks      = "tasks"
)

// Steps lists every step in execution order.
var Steps = []string{StepGoal, StepPRD, StepMilestones, StepTasks}

// ValidatedSteps lists the steps gated by a validator.
var ValidatedSteps = []string{StepPRD, StepMilestones, StepTasks}

var stepLabels = map[string]string{
	StepGoal:       "Goal interpretation",
	StepPRD:        "PRD",
	StepMilestones: "Milestones",
	StepTasks:      "Tasks",
}

// StepLabel returns the human-readable name of a step.
func StepLabel(step string) string {
	if l, ok := stepLabels[step]; ok {
		return l
	}
	return step
}

// StepIndex returns the 1-based position of step, or 0 if unknown.
func StepIndex(step string) int {
	for i, s := range Steps {
		if s == step {
			return i + 1
		}
	}
	return 0
}

// Input is a project idea and its optional constraints.
type Input struct {
	Idea        string   `json:"idea"`
	Constraints []string `json:"constraints"`
}

// Result is the bundle produced by a successful run. Documents are always
// present; Issues carries residual validation issues per validated step.
type Result struct {
	RunID       string                 `json:"run_id"`
	Input       Input                  `json:"input"`
	Goal        doc.GoalInterpretation `json:"goal"`
	PRD         doc.PRD                `json:"prd"`
	Milestones  doc.MilestonesDoc      `json:"milestones"`
	Tasks       doc.TasksDoc           `json:"tasks"`
	Issues      map[string][]string    `json:"issues"`
	Attempts    map[string]int         `json:"attempts"`
	MaxAttempts int                    `json:"max_attempts"`

	PRDMarkdown        string `json:"prd_md"`
	MilestonesMarkdown string `json:"milestones_md"`
	TasksCSV           string `json:"tasks_csv"`

	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"-"`
}

// DurationSeconds returns the run duration in seconds.
func (r *Result) DurationSeconds() float64 {
	return r.Duration.Seconds()
}

// Warning is a step whose final candidate still had issues.
type Warning struct {
	Step   string   `json:"step"`
	Issues []string `json:"issues"`
}

// HasWarnings reports whether any step kept residual issues.
func (r *Result) HasWarnings() bool {
	return len(r.Warnings()) > 0
}

// Warnings returns the steps with residual issues, in execution order.
func (r *Result) Warnings() []Warning {
	var out []Warning
	for _, step := range ValidatedSteps {
		if issues := r.Issues[step]; len(issues) > 0 {
			out = append(out, Warning{Step: step, Issues: issues})
		}
	}
	return out
}

// IssueCount returns the total number of residual issues.
func (r *Result) IssueCount() int {
	n := 0
	for _, issues := range r.Issues {
		n += len(issues)
	}
	return n
}

// GenerationCalls returns the number of generation calls made by the run.
func (r *Result) GenerationCalls() int {
	n := 0
	for _, attempts := range r.Attempts {
		n += attempts
	}
	return n
}
