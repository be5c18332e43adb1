// Package doc defines the planning documents produced by each pipeline stage
// and the strict decoders that turn generator output into them.
package doc

// GoalInterpretation is the first stage's reading of the raw project idea.
type GoalInterpretation struct {
	Title          string   `json:"title"`
	OneLiner       string   `json:"one_liner"`
	TargetUsers    []string `json:"target_users"`
	Constraints    []string `json:"constraints"`
	Assumptions    []string `json:"assumptions"`
	SuccessMetrics []string `json:"success_metrics"`
}

// PRD is a product requirements document.
type PRD struct {
	Title                     string   `json:"title"`
	Problem                   string   `json:"problem"`
	TargetUsers               []string `json:"target_users"`
	Goals                     []string `json:"goals"`
	NonGoals                  []string `json:"non_goals"`
	UserStories               []string `json:"user_stories"`
	FunctionalRequirements    []string `json:"functional_requirements"`
	NonfunctionalRequirements []string `json:"nonfunctional_requirements"`
	Risks                     []string `json:"risks"`
	OpenQuestions             []string `json:"open_questions"`
}

// Milestone is one phase of the delivery plan.
type Milestone struct {
	Name         string   `json:"name"`
	Objective    string   `json:"objective"`
	Deliverables []string `json:"deliverables"`
	EstDays      int      `json:"est_days"`
}

// MilestonesDoc is the ordered milestone plan.
type MilestonesDoc struct {
	Title      string      `json:"title"`
	Milestones []Milestone `json:"milestones"`
}

// Task is a single backlog item.
type Task struct {
	TaskID             string   `json:"task_id"`
	Title              string   `json:"title"`
	Type               string   `json:"type"`
	Priority           string   `json:"priority"`
	EstimateHours      float64  `json:"estimate_hours"`
	DependsOn          []string `json:"depends_on"`
	AcceptanceCriteria []string `json:"acceptance_criteria"`
}

// TasksDoc is the task backlog.
type TasksDoc struct {
	Title string `json:"title"`
	Tasks []Task `json:"tasks"`
}

// Document kinds, used in error messages and instructions.
const (
	KindGoal       = "GoalInterpretation"
	KindPRD        = "PRD"
	KindMilestones = "MilestonesDoc"
	KindTasks      = "TasksDoc"
)

// Allowed task types, in the order they are presented to the generator.
var TaskTypes = []string{"backend", "frontend", "data", "ml", "infra", "docs", "testing"}

// Allowed task priorities.
var TaskPriorities = []string{"P0", "P1", "P2"}

// Keys lists the top-level JSON keys of each document kind.
var Keys = map[string][]string{
	KindGoal:       {"title", "one_liner", "target_users", "constraints", "assumptions", "success_metrics"},
	KindPRD:        {"title", "problem", "target_users", "goals", "non_goals", "user_stories", "functional_requirements", "nonfunctional_requirements", "risks", "open_questions"},
	KindMilestones: {"title", "milestones"},
	KindTasks:      {"title", "tasks"},
}

// IsTaskType reports whether t is an allowed task type.
func IsTaskType(t string) bool {
	return contains(TaskTypes, t)
}

// IsTaskPriority reports whether p is an allowed task priority.
func IsTaskPriority(p string) bool {
	return contains(TaskPriorities, p)
}

// TaskIDs returns the task ids in document order.
func (d TasksDoc) TaskIDs() []string {
	ids := make([]string, len(d.Tasks))
	for i, t := range d.Tasks {
		ids[i] = t.TaskID
	}
	return ids
}

// TotalDays sums the milestone estimates.
func (d MilestonesDoc) TotalDays() int {
	total := 0
	for _, m := range d.Milestones {
		total += m.EstDays
	}
	return total
}

// TotalHours sums the task estimates.
func (d TasksDoc) TotalHours() float64 {
	var total float64
	for _, t := range d.Tasks {
		total += t.EstimateHours
	}
	return total
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
