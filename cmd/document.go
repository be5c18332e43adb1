package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jywlabs/kickoff/internal/doc"
	"github.com/jywlabs/kickoff/internal/generator"
	"github.com/jywlabs/kickoff/internal/render"
	"github.com/jywlabs/kickoff/internal/validate"
)

// Document kinds accepted by validate and render.
const (
	kindAuto       = "auto"
	kindPRD        = "prd"
	kindMilestones = "milestones"
	kindTasks      = "tasks"
)

var documentKinds = []string{kindAuto, kindPRD, kindMilestones, kindTasks}

// document is one decoded PRD, milestone plan or task backlog.
type document struct {
	Kind       string
	PRD        doc.PRD
	Milestones doc.MilestonesDoc
	Tasks      doc.TasksDoc
}

// Label returns the display name of the document kind.
func (d *document) Label() string {
	switch d.Kind {
	case kindPRD:
		return "PRD"
	case kindMilestones:
		return "Milestones"
	default:
		return "Tasks"
	}
}

// Issues runs the quality rules for the document kind.
func (d *document) Issues() []string {
	switch d.Kind {
	case kindPRD:
		return validate.PRD(d.PRD)
	case kindMilestones:
		return validate.Milestones(d.Milestones)
	default:
		return validate.Tasks(d.Tasks)
	}
}

// loadDocument reads path as a JSON document (or a tasks CSV) of the given
// kind. With kindAuto the kind is detected from the top-level keys.
func loadDocument(path, kind string) (*document, error) {
	kind = strings.ToLower(kind)
	if kind == "" {
		kind = kindAuto
	}
	if !slices.Contains(documentKinds, kind) {
		return nil, fmt.Errorf("unknown kind %q (want one of %s)", kind, strings.Join(documentKinds, ", "))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		if kind != kindAuto && kind != kindTasks {
			return nil, fmt.Errorf("%s: csv files hold tasks, not %s", path, kind)
		}
		td, err := render.ParseTasksCSV(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return &document{Kind: kindTasks, Tasks: td}, nil
	}

	raw, err := generator.ParseDocument(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if kind == kindAuto {
		if kind = detectKind(raw); kind == "" {
			return nil, fmt.Errorf("%s: cannot tell the document kind, use --kind", path)
		}
	}

	d := &document{Kind: kind}
	switch kind {
	case kindPRD:
		d.PRD, err = doc.DecodePRD(raw)
	case kindMilestones:
		d.Milestones, err = doc.DecodeMilestones(raw)
	case kindTasks:
		d.Tasks, err = doc.DecodeTasks(raw)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// detectKind guesses the kind from the keys each document requires.
func detectKind(raw generator.RawDocument) string {
	switch {
	case has(raw, "tasks"):
		return kindTasks
	case has(raw, "milestones"):
		return kindMilestones
	case has(raw, "problem"), has(raw, "functional_requirements"):
		return kindPRD
	default:
		return ""
	}
}

func has(raw generator.RawDocument, key string) bool {
	_, ok := raw[key]
	return ok
}
