package doc

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// SchemaMismatchError reports a parsed document that lacks a required field
// or carries a value of the wrong shape for the target document kind.
type SchemaMismatchError struct {
	Kind   string // Document kind (PRD, TasksDoc, ...)
	Field  string // Path to the offending field, e.g. "tasks[3].estimate_hours"
	Reason string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("%s schema mismatch at %s: %s", e.Kind, e.Field, e.Reason)
}

// IsSchemaMismatch reports whether err is or wraps a SchemaMismatchError.
func IsSchemaMismatch(err error) bool {
	var mismatch *SchemaMismatchError
	return errors.As(err, &mismatch)
}

// DecodeGoal converts a raw document into a GoalInterpretation.
func DecodeGoal(raw map[string]any) (GoalInterpretation, error) {
	d := decoder{kind: KindGoal}
	g := GoalInterpretation{
		Title:          d.str(raw, "", "title"),
		OneLiner:       d.str(raw, "", "one_liner"),
		TargetUsers:    d.optionalStrings(raw, "", "target_users"),
		Constraints:    d.optionalStrings(raw, "", "constraints"),
		Assumptions:    d.optionalStrings(raw, "", "assumptions"),
		SuccessMetrics: d.optionalStrings(raw, "", "success_metrics"),
	}
	if d.err != nil {
		return GoalInterpretation{}, d.err
	}
	return g, nil
}

// DecodePRD converts a raw document into a PRD.
func DecodePRD(raw map[string]any) (PRD, error) {
	d := decoder{kind: KindPRD}
	p := PRD{
		Title:                     d.str(raw, "", "title"),
		Problem:                   d.str(raw, "", "problem"),
		TargetUsers:               d.strings(raw, "", "target_users"),
		Goals:                     d.strings(raw, "", "goals"),
		NonGoals:                  d.strings(raw, "", "non_goals"),
		UserStories:               d.strings(raw, "", "user_stories"),
		FunctionalRequirements:    d.strings(raw, "", "functional_requirements"),
		NonfunctionalRequirements: d.strings(raw, "", "nonfunctional_requirements"),
		Risks:                     d.strings(raw, "", "risks"),
		OpenQuestions:             d.strings(raw, "", "open_questions"),
	}
	if d.err != nil {
		return PRD{}, d.err
	}
	return p, nil
}

// DecodeMilestones converts a raw document into a MilestonesDoc.
func DecodeMilestones(raw map[string]any) (MilestonesDoc, error) {
	d := decoder{kind: KindMilestones}
	m := MilestonesDoc{Title: d.str(raw, "", "title")}
	for i, item := range d.objects(raw, "", "milestones") {
		prefix := fmt.Sprintf("milestones[%d].", i)
		m.Milestones = append(m.Milestones, Milestone{
			Name:         d.str(item, prefix, "name"),
			Objective:    d.str(item, prefix, "objective"),
			Deliverables: d.strings(item, prefix, "deliverables"),
			EstDays:      d.integer(item, prefix, "est_days"),
		})
	}
	if d.err != nil {
		return MilestonesDoc{}, d.err
	}
	if m.Milestones == nil {
		m.Milestones = []Milestone{}
	}
	return m, nil
}

// DecodeTasks converts a raw document into a TasksDoc.
func DecodeTasks(raw map[string]any) (TasksDoc, error) {
	d := decoder{kind: KindTasks}
	td := TasksDoc{Title: d.str(raw, "", "title")}
	for i, item := range d.objects(raw, "", "tasks") {
		prefix := fmt.Sprintf("tasks[%d].", i)
		td.Tasks = append(td.Tasks, Task{
			TaskID:             d.str(item, prefix, "task_id"),
			Title:              d.str(item, prefix, "title"),
			Type:               d.str(item, prefix, "type"),
			Priority:           d.str(item, prefix, "priority"),
			EstimateHours:      d.number(item, prefix, "estimate_hours"),
			DependsOn:          d.optionalStrings(item, prefix, "depends_on"),
			AcceptanceCriteria: d.strings(item, prefix, "acceptance_criteria"),
		})
	}
	if d.err != nil {
		return TasksDoc{}, d.err
	}
	if td.Tasks == nil {
		td.Tasks = []Task{}
	}
	return td, nil
}

// decoder walks a raw document and keeps the first mismatch it meets.
// Later lookups become no-ops once an error is recorded.
type decoder struct {
	kind string
	err  error
}

func (d *decoder) fail(path, format string, args ...any) {
	if d.err == nil {
		d.err = &SchemaMismatchError{Kind: d.kind, Field: path, Reason: fmt.Sprintf(format, args...)}
	}
}

func (d *decoder) lookup(raw map[string]any, prefix, key string, required bool) (any, bool) {
	if d.err != nil {
		return nil, false
	}
	v, ok := raw[key]
	if !ok {
		if required {
			d.fail(prefix+key, "field required")
		}
		return nil, false
	}
	if v == nil {
		d.fail(prefix+key, "must not be null")
		return nil, false
	}
	return v, true
}

func (d *decoder) str(raw map[string]any, prefix, key string) string {
	v, ok := d.lookup(raw, prefix, key, true)
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		d.fail(prefix+key, "expected string, got %s", typeName(v))
		return ""
	}
	return s
}

func (d *decoder) strings(raw map[string]any, prefix, key string) []string {
	v, ok := d.lookup(raw, prefix, key, true)
	if !ok {
		return []string{}
	}
	return d.stringList(v, prefix+key)
}

func (d *decoder) optionalStrings(raw map[string]any, prefix, key string) []string {
	v, ok := d.lookup(raw, prefix, key, false)
	if !ok {
		return []string{}
	}
	return d.stringList(v, prefix+key)
}

func (d *decoder) stringList(v any, path string) []string {
	switch list := v.(type) {
	case []string:
		return append([]string{}, list...)
	case []any:
		out := make([]string, 0, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				d.fail(fmt.Sprintf("%s[%d]", path, i), "expected string, got %s", typeName(item))
				return []string{}
			}
			out = append(out, s)
		}
		return out
	default:
		d.fail(path, "expected array of strings, got %s", typeName(v))
		return []string{}
	}
}

func (d *decoder) objects(raw map[string]any, prefix, key string) []map[string]any {
	v, ok := d.lookup(raw, prefix, key, true)
	if !ok {
		return nil
	}
	switch list := v.(type) {
	case []map[string]any:
		return list
	case []any:
		out := make([]map[string]any, 0, len(list))
		for i, item := range list {
			obj, ok := asObject(item)
			if !ok {
				d.fail(fmt.Sprintf("%s%s[%d]", prefix, key, i), "expected object, got %s", typeName(item))
				return nil
			}
			out = append(out, obj)
		}
		return out
	default:
		d.fail(prefix+key, "expected array of objects, got %s", typeName(v))
		return nil
	}
}

func (d *decoder) number(raw map[string]any, prefix, key string) float64 {
	v, ok := d.lookup(raw, prefix, key, true)
	if !ok {
		return 0
	}
	f, ok := asFloat(v)
	if !ok {
		d.fail(prefix+key, "expected number, got %s", typeName(v))
		return 0
	}
	return f
}

func (d *decoder) integer(raw map[string]any, prefix, key string) int {
	v, ok := d.lookup(raw, prefix, key, true)
	if !ok {
		return 0
	}
	f, ok := asFloat(v)
	if !ok {
		d.fail(prefix+key, "expected integer, got %s", typeName(v))
		return 0
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		d.fail(prefix+key, "expected integer, got %v", f)
		return 0
	}
	if f < math.MinInt32 || f > math.MaxInt32 {
		d.fail(prefix+key, "integer %v out of range", f)
		return 0
	}
	return int(f)
}

func asObject(v any) (map[string]any, bool) {
	switch obj := v.(type) {
	case map[string]any:
		return obj, true
	default:
		return nil, false
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int64, json.Number:
		return "number"
	case []any, []string, []map[string]any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
