package pipeline

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/jywlabs/kickoff/internal/doc"
	"github.com/jywlabs/kickoff/internal/generator"
)

func toRaw(t *testing.T, v any) generator.RawDocument {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	var raw generator.RawDocument
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	return raw
}

func list(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s %d", prefix, i+1)
	}
	return out
}

func goalDoc() doc.GoalInterpretation {
	return doc.GoalInterpretation{
		Title:          "Syllabus Study Planner",
		OneLiner:       "Turn course syllabi into weekly study plans.",
		TargetUsers:    []string{"university students"},
		Constraints:    []string{"Solo developer", "MVP in 2 weeks"},
		Assumptions:    []string{"syllabi are PDFs"},
		SuccessMetrics: []string{"weekly active students"},
	}
}

func prdDoc() doc.PRD {
	return doc.PRD{
		Title:                     "Syllabus Study Planner",
		Problem:                   "Students juggle deadlines from many syllabi and miss assignments as a result.",
		TargetUsers:               []string{"university students"},
		Goals:                     list("goal", 3),
		NonGoals:                  list("non-goal", 2),
		UserStories:               list("story", 6),
		FunctionalRequirements:    list("fr", 7),
		NonfunctionalRequirements: list("nfr", 4),
		Risks:                     []string{"PDF parsing quality"},
		OpenQuestions:             []string{},
	}
}

func milestonesDoc() doc.MilestonesDoc {
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

func tasksDoc(n int) doc.TasksDoc {
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
