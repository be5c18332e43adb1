package server

import (
	"github.com/jywlabs/kickoff/internal/doc"
	"github.com/jywlabs/kickoff/internal/pipeline"
)

// PlanRequest is the body of POST /v1/plans.
type PlanRequest struct {
	Idea        string   `json:"idea" maxLength:"10000" doc:"Free-text project idea" example:"A web app that turns course syllabi into weekly study plans"`
	Constraints []string `json:"constraints,omitempty" doc:"Optional constraints, one per entry"`
	MaxAttempts int      `json:"max_attempts,omitempty" minimum:"1" maximum:"5" doc:"Attempt budget per validated stage; server default when omitted"`
}

// PlanResponse is the result bundle of a successful run.
type PlanResponse struct {
	RunID       string                 `json:"run_id"`
	Goal        doc.GoalInterpretation `json:"goal"`
	PRD         doc.PRD                `json:"prd"`
	Milestones  doc.MilestonesDoc      `json:"milestones"`
	Tasks       doc.TasksDoc           `json:"tasks"`
	Issues      map[string][]string    `json:"issues" doc:"Residual validation issues per stage"`
	Attempts    map[string]int         `json:"attempts"`
	MaxAttempts int                    `json:"max_attempts"`
	Warnings    []pipeline.Warning     `json:"warnings"`

	PRDMarkdown        string `json:"prd_md"`
	MilestonesMarkdown string `json:"milestones_md"`
	TasksCSV           string `json:"tasks_csv"`
	PRDHTML            string `json:"prd_html,omitempty"`
	MilestonesHTML     string `json:"milestones_html,omitempty"`

	DurationSeconds float64 `json:"duration_seconds"`
}
