package template

import (
	_ "embed"
	"strconv"
)

//go:embed config.yaml
var DefaultConfig string

// KickoffDir is the name of the kickoff configuration directory.
const KickoffDir = ".kickoff"

// File name constants for consistent usage across the codebase.
const (
	ConfigFile     = "config.yaml"
	EnvFile        = ".env"
	ConstraintsDir = "constraints"

	// Artifacts written to the output directory.
	GoalFile           = "GOAL.json"
	PRDFile            = "PRD.md"
	MilestonesFile     = "MILESTONES.md"
	TasksFile          = "TASKS.csv"
	PRDHTMLFile        = "PRD.html"
	MilestonesHTMLFile = "MILESTONES.html"
	EventsFile         = "events.jsonl"
)

// DefaultOutputDir is where artifacts are written unless configured otherwise.
const DefaultOutputDir = "output"

// constraintsReadme is all comment, so it adds no constraints.
const constraintsReadme = `<!--
Project-wide constraints, added to every plan.
Write one constraint per line in any .md or .txt file here, e.g.

- Go backend, PostgreSQL storage
- Must run on a single small VM
-->
`

// DefaultFiles returns the default files to create in .kickoff/, keyed by
// slash-separated path.
func DefaultFiles() map[string]string {
	return map[string]string{
		ConfigFile:                     DefaultConfig,
		ConstraintsDir + "/README.md": constraintsReadme,
	}
}

// SnapshotFile returns the per-iteration snapshot name for a step, e.g.
// "PRD_iteration_2.md". The step must be one of prd, milestones, tasks.
func SnapshotFile(step string, attempt int) string {
	switch step {
	case "prd":
		return snapshotName("PRD", attempt, ".md")
	case "milestones":
		return snapshotName("MILESTONES", attempt, ".md")
	case "tasks":
		return snapshotName("TASKS", attempt, ".csv")
	default:
		return ""
	}
}

// SnapshotPatterns matches every snapshot file SnapshotFile can name.
var SnapshotPatterns = []string{
	"PRD_iteration_*.md",
	"MILESTONES_iteration_*.md",
	"TASKS_iteration_*.csv",
}

func snapshotName(base string, attempt int, ext string) string {
	return base + "_iteration_" + strconv.Itoa(attempt) + ext
}
