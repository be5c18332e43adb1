// Package eventlog records pipeline progress as JSON Lines, one event per
// line, appended to a file or any writer.
package eventlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jywlabs/kickoff/internal/doc"
	"github.com/jywlabs/kickoff/internal/pipeline"
	"github.com/jywlabs/kickoff/internal/revise"
)

// Event names.
const (
	EventGoal     = "goal_interpretation"
	EventComplete = "pipeline_complete"
	EventFailed   = "pipeline_failed"
)

// ValidationEvent returns the event name for a validated step, e.g. "prd_validation".
func ValidationEvent(step string) string {
	return step + "_validation"
}

// Log is a pipeline observer writing one JSON object per event.
type Log struct {
	pipeline.NopObserver

	logger *slog.Logger
	closer io.Closer
}

// New creates a Log writing to w.
func New(w io.Writer) *Log {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}
			switch a.Key {
			case slog.LevelKey:
				return slog.Attr{}
			case slog.MessageKey:
				a.Key = "event"
			case slog.TimeKey:
				a.Key = "ts"
			}
			return a
		},
	})
	return &Log{logger: slog.New(handler)}
}

// Open appends events to the file at path, creating it and its directory.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create event log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	l := New(f)
	l.closer = f
	return l, nil
}

// Close closes the underlying file, if any.
func (l *Log) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// OnGoal implements pipeline.Observer.
func (l *Log) OnGoal(ctx context.Context, runID string, goal doc.GoalInterpretation) {
	l.logger.InfoContext(ctx, EventGoal,
		slog.String("run_id", runID),
		slog.Any("goal", goal),
	)
}

// OnAttempt implements pipeline.Observer.
func (l *Log) OnAttempt(ctx context.Context, runID string, ev revise.AttemptEvent) {
	l.logger.InfoContext(ctx, ValidationEvent(ev.Stage),
		slog.String("run_id", runID),
		slog.Int("attempt", ev.Attempt),
		slog.Int("max_attempts", ev.MaxAttempts),
		slog.String("state", ev.State.String()),
		slog.Any("issues", ev.Issues),
		slog.Int("issue_count", len(ev.Issues)),
	)
}

// OnComplete implements pipeline.Observer.
func (l *Log) OnComplete(ctx context.Context, res *pipeline.Result) {
	warnings := make([]string, 0)
	for _, w := range res.Warnings() {
		warnings = append(warnings, w.Step)
	}
	l.logger.InfoContext(ctx, EventComplete,
		slog.String("run_id", res.RunID),
		slog.Float64("duration_seconds", res.DurationSeconds()),
		slog.Any("attempts", res.Attempts),
		slog.Any("warnings", warnings),
		slog.Int("issue_count", res.IssueCount()),
	)
}

// OnFailure implements pipeline.Observer.
func (l *Log) OnFailure(ctx context.Context, runID string, err error) {
	l.logger.ErrorContext(ctx, EventFailed,
		slog.String("run_id", runID),
		slog.String("stage", pipeline.FailedStage(err)),
		slog.String("error", err.Error()),
	)
}
