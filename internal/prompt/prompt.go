// Package prompt builds the instructions sent to the generator at each stage.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jywlabs/kickoff/internal/doc"
)

// System is the system instruction used for every generation call.
const System = "Return ONLY valid JSON. No markdown, no extra text."

// Goal builds the goal interpretation instruction.
func Goal(idea string, constraints []string) (string, error) {
	if constraints == nil {
		constraints = []string{}
	}
	c, err := encode(constraints, "")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`Return %s JSON with keys:
%s.

Idea: %s
Constraints: %s
`, doc.KindGoal, keyList(doc.KindGoal), idea, c), nil
}

// PRD builds the PRD instruction seeded from the goal interpretation.
func PRD(goal doc.GoalInterpretation) (string, error) {
	g, err := indent(goal)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`Using this goal interpretation, return %s JSON with keys:
%s.

%s:
%s

Rules:
- Provide 6-10 functional_requirements
- Provide 4-8 nonfunctional_requirements
- Provide 6-10 user_stories
- Keep scope MVP-realistic
`, doc.KindPRD, keyList(doc.KindPRD), doc.KindGoal, g), nil
}

// Milestones builds the milestone plan instruction seeded from the PRD.
func Milestones(prd doc.PRD) (string, error) {
	p, err := indent(prd)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`Using this PRD JSON, return %s JSON with keys:
%s (array). Each milestone: name, objective, deliverables, est_days.

PRD:
%s

Rules:
- Provide 3-6 milestones
- Each milestone: 2-5 deliverables
- est_days realistic for solo MVP
- Order logically
`, doc.KindMilestones, keyList(doc.KindMilestones), p), nil
}

// Tasks builds the backlog instruction seeded from the PRD and milestones.
func Tasks(prd doc.PRD, milestones doc.MilestonesDoc) (string, error) {
	p, err := indent(prd)
	if err != nil {
		return "", err
	}
	m, err := indent(milestones)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`Using this PRD and Milestones, return %s JSON with keys:
%s (array). Each task: task_id, title, type, priority, estimate_hours, depends_on, acceptance_criteria.

PRD:
%s

Milestones:
%s

Rules:
- Return 20-45 tasks
- task_id like T001, T002, ...
- type in: %s
- priority in: %s
- depends_on references earlier task_ids only
- every task has >=1 acceptance_criteria
`, doc.KindTasks, keyList(doc.KindTasks), p, m,
		strings.Join(doc.TaskTypes, ", "), strings.Join(doc.TaskPriorities, ", ")), nil
}

// Revise builds a revision instruction from the previous candidate and its issues.
// The generator is asked for minimal changes and the same top-level keys.
func Revise(kind string, previous any, issues []string) (string, error) {
	prev, err := indent(previous)
	if err != nil {
		return "", err
	}
	if issues == nil {
		issues = []string{}
	}
	iss, err := indent(issues)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`You previously returned this %s JSON:
%s

Issues:
%s

Fix with minimal changes.
Return corrected %s JSON ONLY with the same keys: %s.
`, kind, prev, iss, kind, keyList(kind)), nil
}

func keyList(kind string) string {
	return strings.Join(doc.Keys[kind], ", ")
}

func indent(v any) (string, error) {
	return encode(v, "  ")
}

// encode writes v as JSON without HTML escaping, so "<18" and "R&D" reach
// the model as written.
func encode(v any, prefix string) (string, error) {
	var buf strings.Builder
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if prefix != "" {
		enc.SetIndent("", prefix)
	}
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encode %T: %w", v, err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
