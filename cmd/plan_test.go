package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jywlabs/kickoff/internal/generator/generatortest"
	"github.com/jywlabs/kickoff/internal/output"
	"github.com/jywlabs/kickoff/internal/pipeline"
	"github.com/jywlabs/kickoff/internal/template"
)

var quietLogger = slog.New(slog.DiscardHandler)

func planOpts(dir string) planOptions {
	return planOptions{Engine: "recorder", MaxAttempts: 3, OutputDir: dir}
}

func TestExecutePlan_WritesArtifacts(t *testing.T) {
	dir := t.TempDir()
	rec := generatortest.Plan()
	var out bytes.Buffer

	in := pipeline.Input{Idea: "study planner", Constraints: []string{"solo developer"}}
	if err := executePlan(context.Background(), rec, in, planOpts(dir), output.New(&out), &out, quietLogger); err != nil {
		t.Fatalf("executePlan() unexpected error: %v", err)
	}

	if rec.CallCount() != 4 {
		t.Errorf("generation calls = %d, want 4", rec.CallCount())
	}
	for _, name := range []string{template.GoalFile, template.PRDFile, template.MilestonesFile, template.TasksFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}

	events, err := os.ReadFile(filepath.Join(dir, template.EventsFile))
	if err != nil {
		t.Fatalf("event log not written: %v", err)
	}
	if !strings.Contains(string(events), `"event":"pipeline_complete"`) {
		t.Errorf("event log missing completion:\n%s", events)
	}

	got := out.String()
	for _, want := range []string{
		"kickoff plan: study planner (engine: recorder)",
		"Step 4/4: Tasks",
		"Project plan generated in",
		"Wrote " + filepath.Join(dir, template.TasksFile),
		"T001",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestExecutePlan_NoWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	opts := planOpts(dir)
	opts.NoWrite = true

	if err := executePlan(context.Background(), generatortest.Plan(), pipeline.Input{Idea: "study planner"}, opts, output.New(&bytes.Buffer{}), &bytes.Buffer{}, quietLogger); err != nil {
		t.Fatalf("executePlan() unexpected error: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("output directory created with --no-write: %v", err)
	}
}

func TestExecutePlan_ExplicitLogWithNoWrite(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "runs", "events.jsonl")
	opts := planOpts(filepath.Join(t.TempDir(), "out"))
	opts.NoWrite = true
	opts.LogPath = logPath

	if err := executePlan(context.Background(), generatortest.Plan(), pipeline.Input{Idea: "study planner"}, opts, output.New(&bytes.Buffer{}), &bytes.Buffer{}, quietLogger); err != nil {
		t.Fatalf("executePlan() unexpected error: %v", err)
	}
	if _, err := os.Stat(logPath); err != nil {
		t.Errorf("event log not written: %v", err)
	}
}

func TestExecutePlan_JSON(t *testing.T) {
	opts := planOpts(t.TempDir())
	opts.JSON = true
	var progress, out bytes.Buffer

	if err := executePlan(context.Background(), generatortest.Plan(), pipeline.Input{Idea: "study planner"}, opts, output.New(&progress), &out, quietLogger); err != nil {
		t.Fatalf("executePlan() unexpected error: %v", err)
	}

	var res pipeline.Result
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("stdout is not a JSON result: %v\n%s", err, out.String())
	}
	if res.RunID == "" || res.Goal.Title != "Study Planner" || len(res.Tasks.Tasks) != 20 {
		t.Errorf("result = %+v", res)
	}
	if !strings.Contains(progress.String(), "Project plan generated in") {
		t.Errorf("progress missing completion line:\n%s", progress.String())
	}
}

func TestExecutePlan_StrictWithWarnings(t *testing.T) {
	prd := generatortest.PRD()
	prd.FunctionalRequirements = prd.FunctionalRequirements[:5]
	rec := generatortest.Docs(
		generatortest.Raw(generatortest.Goal()),
		generatortest.Raw(prd),
		generatortest.Raw(generatortest.Milestones()),
		generatortest.Raw(generatortest.Tasks(20)),
	)
	opts := planOpts(t.TempDir())
	opts.MaxAttempts = 1
	opts.Strict = true
	var out bytes.Buffer

	err := executePlan(context.Background(), rec, pipeline.Input{Idea: "study planner"}, opts, output.New(&out), &out, quietLogger)

	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 2 {
		t.Fatalf("executePlan() error = %v, want ExitError code 2", err)
	}
	if !strings.Contains(out.String(), "functional_requirements should be 6-10 items, got 5.") {
		t.Errorf("warning missing from output:\n%s", out.String())
	}
	if _, err := os.Stat(filepath.Join(opts.OutputDir, template.PRDFile)); err != nil {
		t.Errorf("artifacts should be written before the strict exit: %v", err)
	}
}

func TestExecutePlan_WarningsWithoutStrictSucceed(t *testing.T) {
	prd := generatortest.PRD()
	prd.Goals = prd.Goals[:2]
	rec := generatortest.Docs(
		generatortest.Raw(generatortest.Goal()),
		generatortest.Raw(prd),
		generatortest.Raw(generatortest.Milestones()),
		generatortest.Raw(generatortest.Tasks(20)),
	)
	opts := planOpts(t.TempDir())
	opts.MaxAttempts = 1

	if err := executePlan(context.Background(), rec, pipeline.Input{Idea: "study planner"}, opts, output.New(&bytes.Buffer{}), &bytes.Buffer{}, quietLogger); err != nil {
		t.Errorf("executePlan() error = %v, want nil", err)
	}
}

func TestExecutePlan_GenerationFailure(t *testing.T) {
	dir := t.TempDir()
	rec := &generatortest.Recorder{Responses: []generatortest.Response{{Err: errors.New("connection refused")}}}
	var out bytes.Buffer

	err := executePlan(context.Background(), rec, pipeline.Input{Idea: "study planner"}, planOpts(dir), output.New(&out), &out, quietLogger)
	if err == nil {
		t.Fatal("executePlan() should fail")
	}
	if pipeline.FailedStage(err) != pipeline.StepGoal {
		t.Errorf("failed stage = %q, want goal", pipeline.FailedStage(err))
	}
	if _, statErr := os.Stat(filepath.Join(dir, template.PRDFile)); !os.IsNotExist(statErr) {
		t.Error("no artifacts should be written after a failure")
	}
	if !strings.Contains(out.String(), "Run failed") {
		t.Errorf("failure not reported:\n%s", out.String())
	}
}

func TestCollectConstraints(t *testing.T) {
	file := writeFile(t, "constraints.txt", "  offline first \n\n budget under $50\n")

	got, err := collectConstraints([]string{"solo developer", "  "}, file)
	if err != nil {
		t.Fatalf("collectConstraints() unexpected error: %v", err)
	}
	want := []string{"solo developer", "offline first", "budget under $50"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("collectConstraints() = %q, want %q", got, want)
	}

	none, err := collectConstraints(nil, "")
	if err != nil || none == nil || len(none) != 0 {
		t.Errorf("collectConstraints(nil) = %#v, %v; want empty non-nil", none, err)
	}

	if _, err := collectConstraints(nil, filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("collectConstraints() should fail for a missing file")
	}
}
