package generatortest

import (
	"encoding/json"
	"fmt"

	"github.com/jywlabs/kickoff/internal/doc"
	"github.com/jywlabs/kickoff/internal/generator"
)

// Raw converts a typed document to the generator's raw form.
// It panics if v cannot be encoded.
func Raw(v any) generator.RawDocument {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("generatortest: encode %T: %v", v, err))
	}
	var raw generator.RawDocument
	if err := json.Unmarshal(b, &raw); err != nil {
		panic(fmt.Sprintf("generatortest: decode %T: %v", v, err))
	}
	return raw
}

// Goal returns a goal interpretation for a study planner.
func Goal() doc.GoalInterpretation {
	return doc.GoalInterpretation{
		Title:          "Study Planner",
		OneLiner:       "Turn course syllabi into weekly study plans.",
		TargetUsers:    []string{"university students"},
		Constraints:    []string{"Solo developer"},
		Assumptions:    []string{"syllabi are PDFs"},
		SuccessMetrics: []string{"weekly active students"},
	}
}

// PRD returns a PRD that passes validation.
func PRD() doc.PRD {
	return doc.PRD{
		Title:                     "Study Planner",
		Problem:                   "Students juggle deadlines from many syllabi and miss assignments as a result.",
		TargetUsers:               []string{"university students"},
		Goals:                     items("goal", 3),
		NonGoals:                  items("non-goal", 2),
		UserStories:               items("story", 6),
		FunctionalRequirements:    items("requirement", 6),
		NonfunctionalRequirements: items("quality", 4),
		Risks:                     []string{"PDF parsing quality"},
		OpenQuestions:             []string{},
	}
}

// Milestones returns a milestone plan that passes validation.
func Milestones() doc.MilestonesDoc {
	m := doc.MilestonesDoc{Title: "Delivery plan"}
	for i := 1; i <= 3; i++ {
		m.Milestones = append(m.Milestones, doc.Milestone{
			Name:         fmt.Sprintf("Milestone %d", i),
			Objective:    "Ship a usable increment of the planner",
			Deliverables: []string{"feature", "tests"},
			EstDays:      3,
		})
	}
	return m
}

// Tasks returns a backlog of n chained tasks; it passes validation for 20 <= n <= 45.
func Tasks(n int) doc.TasksDoc {
	td := doc.TasksDoc{Title: "Backlog"}
	for i := 1; i <= n; i++ {
		task := doc.Task{
			TaskID:             fmt.Sprintf("T%03d", i),
			Title:              fmt.Sprintf("Implement step %d", i),
			Type:               "backend",
			Priority:           "P1",
			EstimateHours:      2,
			DependsOn:          []string{},
			AcceptanceCriteria: []string{"covered by a test"},
		}
		if i > 1 {
			task.DependsOn = []string{fmt.Sprintf("T%03d", i-1)}
		}
		td.Tasks = append(td.Tasks, task)
	}
	return td
}

// Plan returns a Recorder scripted with one valid document per step.
func Plan() *Recorder {
	return Docs(Raw(Goal()), Raw(PRD()), Raw(Milestones()), Raw(Tasks(20)))
}

func items(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s %d", prefix, i+1)
	}
	return out
}
