package doc

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
)

func mustRaw(t *testing.T, s string) map[string]any {
	t.Helper()
	var raw map[string]any
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	return raw
}

func TestDecodeGoal_OptionalListsDefaultEmpty(t *testing.T) {
	g, err := DecodeGoal(mustRaw(t, `{"title":"Study Planner","one_liner":"Weekly plans from syllabi."}`))
	if err != nil {
		t.Fatalf("DecodeGoal() unexpected error: %v", err)
	}
	if g.Title != "Study Planner" {
		t.Errorf("Title = %q, want %q", g.Title, "Study Planner")
	}
	if g.TargetUsers == nil || len(g.TargetUsers) != 0 {
		t.Errorf("TargetUsers = %#v, want empty non-nil slice", g.TargetUsers)
	}
	if g.SuccessMetrics == nil {
		t.Error("SuccessMetrics is nil, want empty slice")
	}
}

func TestDecodeGoal_MissingTitle(t *testing.T) {
	_, err := DecodeGoal(mustRaw(t, `{"one_liner":"x"}`))
	var mismatch *SchemaMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("DecodeGoal() error = %v, want SchemaMismatchError", err)
	}
	if mismatch.Field != "title" {
		t.Errorf("Field = %q, want %q", mismatch.Field, "title")
	}
	if mismatch.Kind != KindGoal {
		t.Errorf("Kind = %q, want %q", mismatch.Kind, KindGoal)
	}
}

func TestDecodePRD(t *testing.T) {
	full := `{
		"title": "Syllabus Planner",
		"problem": "Students lose track of deadlines spread across many syllabi.",
		"target_users": ["students"],
		"goals": ["a", "b", "c"],
		"non_goals": ["x", "y"],
		"user_stories": ["s1"],
		"functional_requirements": ["f1"],
		"nonfunctional_requirements": ["n1"],
		"risks": [],
		"open_questions": []
	}`

	tests := []struct {
		name      string
		mutate    func(map[string]any)
		wantField string
	}{
		{name: "valid", mutate: func(map[string]any) {}},
		{name: "missing risks", mutate: func(m map[string]any) { delete(m, "risks") }, wantField: "risks"},
		{name: "problem not a string", mutate: func(m map[string]any) { m["problem"] = 12.0 }, wantField: "problem"},
		{name: "goals not a list", mutate: func(m map[string]any) { m["goals"] = "a, b, c" }, wantField: "goals"},
		{name: "goal item not a string", mutate: func(m map[string]any) { m["goals"] = []any{"a", 2.0} }, wantField: "goals[1]"},
		{name: "null title", mutate: func(m map[string]any) { m["title"] = nil }, wantField: "title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := mustRaw(t, full)
			tt.mutate(raw)
			p, err := DecodePRD(raw)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("DecodePRD() unexpected error: %v", err)
				}
				if p.Title != "Syllabus Planner" || len(p.Goals) != 3 || p.Risks == nil {
					t.Errorf("DecodePRD() = %+v", p)
				}
				return
			}
			var mismatch *SchemaMismatchError
			if !errors.As(err, &mismatch) {
				t.Fatalf("DecodePRD() error = %v, want SchemaMismatchError", err)
			}
			if mismatch.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", mismatch.Field, tt.wantField)
			}
		})
	}
}

func TestDecodeMilestones(t *testing.T) {
	raw := mustRaw(t, `{"title":"Plan","milestones":[
		{"name":"Setup","objective":"Create the project skeleton","deliverables":["repo","ci"],"est_days":2},
		{"name":"Core","objective":"Build the core planner","deliverables":["api"],"est_days":3.0}
	]}`)
	m, err := DecodeMilestones(raw)
	if err != nil {
		t.Fatalf("DecodeMilestones() unexpected error: %v", err)
	}
	if len(m.Milestones) != 2 {
		t.Fatalf("len(Milestones) = %d, want 2", len(m.Milestones))
	}
	if m.Milestones[1].EstDays != 3 {
		t.Errorf("EstDays = %d, want 3", m.Milestones[1].EstDays)
	}
	if m.TotalDays() != 5 {
		t.Errorf("TotalDays() = %d, want 5", m.TotalDays())
	}
}

func TestDecodeMilestones_FractionalDays(t *testing.T) {
	raw := mustRaw(t, `{"title":"Plan","milestones":[{"name":"Setup","objective":"o","deliverables":[],"est_days":2.5}]}`)
	_, err := DecodeMilestones(raw)
	var mismatch *SchemaMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("DecodeMilestones() error = %v, want SchemaMismatchError", err)
	}
	if mismatch.Field != "milestones[0].est_days" {
		t.Errorf("Field = %q, want %q", mismatch.Field, "milestones[0].est_days")
	}
}

func TestDecodeMilestones_DaysRange(t *testing.T) {
	tests := []struct {
		name    string
		days    string
		want    int
		wantErr bool
	}{
		{name: "int32 max", days: "2147483647", want: math.MaxInt32},
		{name: "negative", days: "-3", want: -3},
		{name: "huge", days: "1e20", wantErr: true},
		{name: "huge negative", days: "-1e20", wantErr: true},
		{name: "just past int32", days: "2147483648", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := mustRaw(t, `{"title":"Plan","milestones":[{"name":"Setup","objective":"o","deliverables":[],"est_days":`+tt.days+`}]}`)
			m, err := DecodeMilestones(raw)
			if tt.wantErr {
				var mismatch *SchemaMismatchError
				if !errors.As(err, &mismatch) {
					t.Fatalf("DecodeMilestones() error = %v, want SchemaMismatchError", err)
				}
				if mismatch.Field != "milestones[0].est_days" {
					t.Errorf("Field = %q", mismatch.Field)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeMilestones() unexpected error: %v", err)
			}
			if m.Milestones[0].EstDays != tt.want {
				t.Errorf("EstDays = %d, want %d", m.Milestones[0].EstDays, tt.want)
			}
		})
	}
}

func TestDecodeMilestones_ItemNotObject(t *testing.T) {
	_, err := DecodeMilestones(mustRaw(t, `{"title":"Plan","milestones":["Setup"]}`))
	if !IsSchemaMismatch(err) {
		t.Fatalf("DecodeMilestones() error = %v, want SchemaMismatchError", err)
	}
	if !strings.Contains(err.Error(), "milestones[0]") {
		t.Errorf("error %q does not name the offending item", err)
	}
}

func TestDecodeTasks(t *testing.T) {
	raw := mustRaw(t, `{"title":"Backlog","tasks":[
		{"task_id":"T001","title":"Init repo","type":"infra","priority":"P0","estimate_hours":1,"acceptance_criteria":["repo exists"]},
		{"task_id":"T002","title":"Add API","type":"backend","priority":"P1","estimate_hours":2.5,"depends_on":["T001"],"acceptance_criteria":["returns 200"]}
	]}`)
	td, err := DecodeTasks(raw)
	if err != nil {
		t.Fatalf("DecodeTasks() unexpected error: %v", err)
	}
	if got := td.TaskIDs(); strings.Join(got, ",") != "T001,T002" {
		t.Errorf("TaskIDs() = %v", got)
	}
	if td.Tasks[0].DependsOn == nil || len(td.Tasks[0].DependsOn) != 0 {
		t.Errorf("absent depends_on = %#v, want empty slice", td.Tasks[0].DependsOn)
	}
	if td.Tasks[1].EstimateHours != 2.5 {
		t.Errorf("EstimateHours = %v, want 2.5", td.Tasks[1].EstimateHours)
	}
	if td.TotalHours() != 3.5 {
		t.Errorf("TotalHours() = %v, want 3.5", td.TotalHours())
	}
}

func TestDecodeTasks_Mismatches(t *testing.T) {
	tests := []struct {
		name      string
		task      string
		wantField string
	}{
		{"estimate as string", `{"task_id":"T1","title":"t","type":"x","priority":"P0","estimate_hours":"2h","acceptance_criteria":[]}`, "tasks[0].estimate_hours"},
		{"missing acceptance criteria", `{"task_id":"T1","title":"t","type":"x","priority":"P0","estimate_hours":2}`, "tasks[0].acceptance_criteria"},
		{"task_id as number", `{"task_id":1,"title":"t","type":"x","priority":"P0","estimate_hours":2,"acceptance_criteria":[]}`, "tasks[0].task_id"},
		{"depends_on as string", `{"task_id":"T1","title":"t","type":"x","priority":"P0","estimate_hours":2,"depends_on":"T0","acceptance_criteria":[]}`, "tasks[0].depends_on"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := mustRaw(t, fmt.Sprintf(`{"title":"B","tasks":[%s]}`, tt.task))
			_, err := DecodeTasks(raw)
			var mismatch *SchemaMismatchError
			if !errors.As(err, &mismatch) {
				t.Fatalf("DecodeTasks() error = %v, want SchemaMismatchError", err)
			}
			if mismatch.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", mismatch.Field, tt.wantField)
			}
		})
	}
}

func TestDecodeTasks_NativeGoValues(t *testing.T) {
	raw := map[string]any{
		"title": "B",
		"tasks": []any{map[string]any{
			"task_id":             "T001",
			"title":               "Write docs",
			"type":                "docs",
			"priority":            "P2",
			"estimate_hours":      3,
			"depends_on":          []string{},
			"acceptance_criteria": []string{"README updated"},
		}},
	}
	td, err := DecodeTasks(raw)
	if err != nil {
		t.Fatalf("DecodeTasks() unexpected error: %v", err)
	}
	if td.Tasks[0].EstimateHours != 3 {
		t.Errorf("EstimateHours = %v, want 3", td.Tasks[0].EstimateHours)
	}
}

func TestTaskEnums(t *testing.T) {
	if !IsTaskType("ml") || IsTaskType("design") {
		t.Error("IsTaskType membership wrong")
	}
	if !IsTaskPriority("P1") || IsTaskPriority("P3") {
		t.Error("IsTaskPriority membership wrong")
	}
}
