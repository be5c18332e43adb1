// Package validate holds the quality gates for each pipeline stage.
//
// Every validator is a pure function returning an ordered list of
// human-readable issues; an empty list means the document is accepted.
// Document-level checks are exhaustive, per-task field checks stop at the
// first failure for that task, and the dependency pass stops at the first
// violation in the whole document. The issues feed the revision
// instruction, so this ordering is part of the contract.
package validate

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jywlabs/kickoff/internal/doc"
)

// Validator checks one document kind.
type Validator[T any] func(T) []string

// Bounds used by the validators.
const (
	MinProblemChars = 40

	MinFunctionalReqs    = 6
	MaxFunctionalReqs    = 10
	MinNonfunctionalReqs = 4
	MaxNonfunctionalReqs = 8
	MinUserStories       = 6
	MaxUserStories       = 10
	MinGoals             = 3
	MinNonGoals          = 2

	MinMilestones     = 3
	MaxMilestones     = 6
	MinMilestoneName  = 3
	MinObjectiveChars = 20
	MinDeliverables   = 2
	MinEstDays        = 1
	MaxEstDays        = 14

	MinTasks          = 20
	MaxTasks          = 45
	MinTaskTitleChars = 5
	MinEstimateHours  = 0.5
	MaxEstimateHours  = 24
)

// PRD checks a product requirements document.
func PRD(p doc.PRD) []string {
	issues := []string{}

	if strings.TrimSpace(p.Title) == "" {
		issues = append(issues, "PRD title is empty.")
	}
	if chars(p.Problem) < MinProblemChars {
		issues = append(issues, fmt.Sprintf("PRD problem statement is too short (aim for %d+ characters).", MinProblemChars))
	}
	if len(p.TargetUsers) < 1 {
		issues = append(issues, "PRD target_users should have at least 1 item.")
	}
	if n := len(p.FunctionalRequirements); !within(n, MinFunctionalReqs, MaxFunctionalReqs) {
		issues = append(issues, fmt.Sprintf("functional_requirements should be %d-%d items, got %d.", MinFunctionalReqs, MaxFunctionalReqs, n))
	}
	if n := len(p.NonfunctionalRequirements); !within(n, MinNonfunctionalReqs, MaxNonfunctionalReqs) {
		issues = append(issues, fmt.Sprintf("nonfunctional_requirements should be %d-%d items, got %d.", MinNonfunctionalReqs, MaxNonfunctionalReqs, n))
	}
	if n := len(p.UserStories); !within(n, MinUserStories, MaxUserStories) {
		issues = append(issues, fmt.Sprintf("user_stories should be %d-%d items, got %d.", MinUserStories, MaxUserStories, n))
	}
	if len(p.Goals) < MinGoals {
		issues = append(issues, fmt.Sprintf("goals should have at least %d items.", MinGoals))
	}
	if len(p.NonGoals) < MinNonGoals {
		issues = append(issues, fmt.Sprintf("non_goals should have at least %d items.", MinNonGoals))
	}

	return issues
}

// Milestones checks a milestone plan. Each milestone is checked in full.
func Milestones(m doc.MilestonesDoc) []string {
	issues := []string{}

	if n := len(m.Milestones); !within(n, MinMilestones, MaxMilestones) {
		issues = append(issues, fmt.Sprintf("milestones should be %d-%d items, got %d.", MinMilestones, MaxMilestones, n))
	}

	for i, ms := range m.Milestones {
		label := fmt.Sprintf("Milestone %d", i+1)
		if chars(ms.Name) < MinMilestoneName {
			issues = append(issues, fmt.Sprintf("%s: name is too short (min %d characters).", label, MinMilestoneName))
		}
		if chars(ms.Objective) < MinObjectiveChars {
			issues = append(issues, fmt.Sprintf("%s: objective is too short (min %d characters).", label, MinObjectiveChars))
		}
		if n := len(ms.Deliverables); n < MinDeliverables {
			issues = append(issues, fmt.Sprintf("%s: deliverables should have at least %d items, got %d.", label, MinDeliverables, n))
		}
		if !within(ms.EstDays, MinEstDays, MaxEstDays) {
			issues = append(issues, fmt.Sprintf("%s: est_days should be %d-%d, got %d.", label, MinEstDays, MaxEstDays, ms.EstDays))
		}
	}

	return issues
}

// Tasks checks a task backlog.
func Tasks(td doc.TasksDoc) []string {
	issues := []string{}

	if n := len(td.Tasks); !within(n, MinTasks, MaxTasks) {
		issues = append(issues, fmt.Sprintf("tasks should be %d-%d items, got %d.", MinTasks, MaxTasks, n))
	}

	if dups := duplicateIDs(td.Tasks); len(dups) > 0 {
		issues = append(issues, fmt.Sprintf("task_id values must be unique; duplicates: %s.", strings.Join(dups, ", ")))
	}

	for i, t := range td.Tasks {
		if issue := checkTask(i, t); issue != "" {
			issues = append(issues, issue)
		}
	}

	ids := make(map[string]bool, len(td.Tasks))
	for _, t := range td.Tasks {
		ids[t.TaskID] = true
	}
	for i, t := range td.Tasks {
		for _, dep := range t.DependsOn {
			if !ids[dep] {
				return append(issues, fmt.Sprintf("%s: depends_on references unknown task_id %q.", taskLabel(i, t), dep))
			}
			if dep == t.TaskID {
				return append(issues, fmt.Sprintf("%s: depends_on must not reference itself.", taskLabel(i, t)))
			}
		}
	}

	return issues
}

// checkTask returns the first field violation for a task, or "".
func checkTask(i int, t doc.Task) string {
	label := taskLabel(i, t)
	switch {
	case strings.TrimSpace(t.TaskID) == "":
		return fmt.Sprintf("%s: task_id is empty.", label)
	case chars(t.Title) < MinTaskTitleChars:
		return fmt.Sprintf("%s: title is too short (min %d characters).", label, MinTaskTitleChars)
	case !doc.IsTaskType(t.Type):
		return fmt.Sprintf("%s: type %q must be one of %s.", label, t.Type, strings.Join(doc.TaskTypes, ", "))
	case !doc.IsTaskPriority(t.Priority):
		return fmt.Sprintf("%s: priority %q must be one of %s.", label, t.Priority, strings.Join(doc.TaskPriorities, ", "))
	case t.EstimateHours < MinEstimateHours || t.EstimateHours > MaxEstimateHours:
		return fmt.Sprintf("%s: estimate_hours should be %s-%s, got %s.", label,
			formatHours(MinEstimateHours), formatHours(MaxEstimateHours), formatHours(t.EstimateHours))
	case len(t.AcceptanceCriteria) < 1:
		return fmt.Sprintf("%s: acceptance_criteria should have at least 1 item.", label)
	}
	return ""
}

func duplicateIDs(tasks []doc.Task) []string {
	seen := make(map[string]int, len(tasks))
	var dups []string
	for _, t := range tasks {
		seen[t.TaskID]++
		if seen[t.TaskID] == 2 {
			dups = append(dups, strconv.Quote(t.TaskID))
		}
	}
	return dups
}

func taskLabel(i int, t doc.Task) string {
	if id := strings.TrimSpace(t.TaskID); id != "" {
		return "Task " + id
	}
	return fmt.Sprintf("Task #%d", i+1)
}

func chars(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}

func within(n, lo, hi int) bool {
	return n >= lo && n <= hi
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'g', -1, 64)
}
