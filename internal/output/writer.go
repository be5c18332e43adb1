package output

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jywlabs/kickoff/internal/doc"
	"github.com/jywlabs/kickoff/internal/pipeline"
	"github.com/jywlabs/kickoff/internal/render"
	"github.com/jywlabs/kickoff/internal/revise"
	"github.com/jywlabs/kickoff/internal/template"
)

type artifact struct {
	name    string
	content string
}

// Writer saves run artifacts to a directory. As an observer it also saves a
// snapshot of every validated candidate when Snapshots is set.
type Writer struct {
	pipeline.NopObserver

	Dir       string
	HTML      bool
	Snapshots bool

	mu      sync.Mutex
	written []string
	errs    []error
	cleared bool
}

// NewWriter creates a Writer for dir.
func NewWriter(dir string, html, snapshots bool) *Writer {
	return &Writer{Dir: dir, HTML: html, Snapshots: snapshots}
}

// OnAttempt writes the candidate snapshot for a validated attempt. Snapshots
// left in Dir by an earlier run are removed before the first one is written.
func (w *Writer) OnAttempt(_ context.Context, _ string, ev revise.AttemptEvent) {
	if !w.Snapshots {
		return
	}
	name := template.SnapshotFile(ev.Stage, ev.Attempt)
	if name == "" {
		return
	}
	w.clearSnapshots()
	content, err := snapshot(ev.Doc)
	if err == nil {
		err = w.save(name, content)
	}
	if err != nil {
		w.mu.Lock()
		w.errs = append(w.errs, fmt.Errorf("snapshot %s: %w", name, err))
		w.mu.Unlock()
	}
}

// Err returns the snapshot errors collected so far.
func (w *Writer) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return errors.Join(w.errs...)
}

// Write saves the final artifacts of res and returns every path written
// during the run, snapshots included, in write order.
func (w *Writer) Write(res *pipeline.Result) ([]string, error) {
	goal, err := json.MarshalIndent(res.Goal, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode goal: %w", err)
	}

	files := []artifact{
		{template.GoalFile, string(goal) + "\n"},
		{template.PRDFile, res.PRDMarkdown},
		{template.MilestonesFile, res.MilestonesMarkdown},
		{template.TasksFile, res.TasksCSV},
	}
	if w.HTML {
		prd, err := page(res.PRD.Title, res.PRDMarkdown)
		if err != nil {
			return nil, err
		}
		milestones, err := page(res.Milestones.Title, res.MilestonesMarkdown)
		if err != nil {
			return nil, err
		}
		files = append(files,
			artifact{template.PRDHTMLFile, prd},
			artifact{template.MilestonesHTMLFile, milestones},
		)
	}

	for _, f := range files {
		if err := w.save(f.name, f.content); err != nil {
			return nil, err
		}
	}
	return w.Written(), nil
}

// Written returns the paths written so far.
func (w *Writer) Written() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.written...)
}

func (w *Writer) clearSnapshots() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cleared {
		return
	}
	w.cleared = true
	for _, pattern := range template.SnapshotPatterns {
		stale, err := filepath.Glob(filepath.Join(w.Dir, pattern))
		if err != nil {
			w.errs = append(w.errs, fmt.Errorf("find old snapshots: %w", err))
			continue
		}
		for _, path := range stale {
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				w.errs = append(w.errs, fmt.Errorf("remove old snapshot: %w", err))
			}
		}
	}
}

func (w *Writer) save(name, content string) error {
	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", w.Dir, err)
	}
	path := filepath.Join(w.Dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	w.mu.Lock()
	w.written = append(w.written, path)
	w.mu.Unlock()
	return nil
}

func snapshot(d any) (string, error) {
	switch v := d.(type) {
	case doc.PRD:
		return render.PRDMarkdown(v), nil
	case doc.MilestonesDoc:
		return render.MilestonesMarkdown(v), nil
	case doc.TasksDoc:
		return render.TasksCSV(v)
	default:
		return "", fmt.Errorf("unsupported document %T", d)
	}
}

func page(title, md string) (string, error) {
	body, err := render.HTML(md)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", title, err)
	}
	return render.HTMLPage(title, body), nil
}
