// Package pipeline turns a project idea into a goal interpretation, a PRD,
// a milestone plan and a task backlog, revising each validated document
// until it passes or the attempt budget runs out.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jywlabs/kickoff/internal/doc"
	"github.com/jywlabs/kickoff/internal/generator"
	"github.com/jywlabs/kickoff/internal/prompt"
	"github.com/jywlabs/kickoff/internal/render"
	"github.com/jywlabs/kickoff/internal/revise"
	"github.com/jywlabs/kickoff/internal/validate"
)

// DefaultMaxAttempts is the attempt budget per validated step.
const DefaultMaxAttempts = 3

// Pipeline runs the four steps against one generator. It holds no per-run
// state, so one Pipeline may serve concurrent runs if the generator allows it.
type Pipeline struct {
	gen         generator.Generator
	maxAttempts int
	observer    Observer
	logger      *slog.Logger
	now         func() time.Time
	newID       func() string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMaxAttempts sets the attempt budget per validated step.
func WithMaxAttempts(n int) Option {
	return func(p *Pipeline) { p.maxAttempts = n }
}

// WithObserver adds an observer. Repeated calls accumulate.
func WithObserver(obs Observer) Option {
	return func(p *Pipeline) {
		if obs == nil {
			return
		}
		if multi, ok := p.observer.(Observers); ok {
			p.observer = append(multi, obs)
			return
		}
		p.observer = Observers{obs}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock overrides the time source used for timing.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithIDGenerator overrides the run id source.
func WithIDGenerator(newID func() string) Option {
	return func(p *Pipeline) {
		if newID != nil {
			p.newID = newID
		}
	}
}

// New creates a Pipeline around gen.
func New(gen generator.Generator, opts ...Option) *Pipeline {
	p := &Pipeline{
		gen:         gen,
		maxAttempts: DefaultMaxAttempts,
		observer:    NopObserver{},
		logger:      slog.New(slog.DiscardHandler),
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// MaxAttempts returns the configured attempt budget.
func (p *Pipeline) MaxAttempts() int { return p.maxAttempts }

// Run executes every step in order. A blank idea fails with ErrEmptyIdea
// before any generation call. Generation, format and schema failures abort
// the run with a *StageError and no partial result. Residual validation
// issues do not fail the run; they are reported in Result.Issues.
func (p *Pipeline) Run(ctx context.Context, in Input) (*Result, error) {
	in = normalize(in)
	if in.Idea == "" {
		return nil, ErrEmptyIdea
	}
	if p.maxAttempts < 1 {
		return nil, fmt.Errorf("pipeline: %w (got %d)", revise.ErrInvalidAttempts, p.maxAttempts)
	}

	start := p.now()
	res := &Result{
		RunID:       p.newID(),
		Input:       in,
		MaxAttempts: p.maxAttempts,
		Issues:      map[string][]string{StepPRD: {}, StepMilestones: {}, StepTasks: {}},
		Attempts:    map[string]int{},
		StartedAt:   start,
	}
	log := p.logger.With("run_id", res.RunID)
	log.Info("pipeline started", "engine", p.gen.Name(), "max_attempts", p.maxAttempts, "constraints", len(in.Constraints))

	fail := func(step string, err error) (*Result, error) {
		stageErr := &StageError{Stage: step, Err: err}
		log.Error("pipeline failed", "step", step, "error", err)
		p.observer.OnFailure(ctx, res.RunID, stageErr)
		return nil, stageErr
	}
	opts := revise.Options{
		MaxAttempts: p.maxAttempts,
		Observer:    attemptObserver{runID: res.RunID, obs: p.observer},
	}

	// Goal interpretation is decoded but not validated.
	p.observer.OnStageStart(ctx, res.RunID, StepGoal)
	goal, err := p.interpretGoal(ctx, in)
	if err != nil {
		return fail(StepGoal, err)
	}
	res.Goal = goal
	res.Attempts[StepGoal] = 1
	p.observer.OnGoal(ctx, res.RunID, goal)
	log.Debug("goal interpreted", "title", goal.Title)

	p.observer.OnStageStart(ctx, res.RunID, StepPRD)
	initial, err := prompt.PRD(goal)
	if err != nil {
		return fail(StepPRD, err)
	}
	prd, err := revise.Run(ctx, p.gen, prompt.System, initial, prdStage(), opts)
	if err != nil {
		return fail(StepPRD, err)
	}
	res.PRD = prd.Doc
	record(res, log, StepPRD, prd.Issues, prd.Attempts, prd.State)

	p.observer.OnStageStart(ctx, res.RunID, StepMilestones)
	initial, err = prompt.Milestones(res.PRD)
	if err != nil {
		return fail(StepMilestones, err)
	}
	milestones, err := revise.Run(ctx, p.gen, prompt.System, initial, milestonesStage(), opts)
	if err != nil {
		return fail(StepMilestones, err)
	}
	res.Milestones = milestones.Doc
	record(res, log, StepMilestones, milestones.Issues, milestones.Attempts, milestones.State)

	p.observer.OnStageStart(ctx, res.RunID, StepTasks)
	initial, err = prompt.Tasks(res.PRD, res.Milestones)
	if err != nil {
		return fail(StepTasks, err)
	}
	tasks, err := revise.Run(ctx, p.gen, prompt.System, initial, tasksStage(), opts)
	if err != nil {
		return fail(StepTasks, err)
	}
	res.Tasks = tasks.Doc
	record(res, log, StepTasks, tasks.Issues, tasks.Attempts, tasks.State)

	res.PRDMarkdown = render.PRDMarkdown(res.PRD)
	res.MilestonesMarkdown = render.MilestonesMarkdown(res.Milestones)
	res.TasksCSV, err = render.TasksCSV(res.Tasks)
	if err != nil {
		return fail(StepTasks, err)
	}

	res.Duration = p.now().Sub(start)
	log.Info("pipeline complete",
		"duration_seconds", res.DurationSeconds(), "warnings", len(res.Warnings()), "generation_calls", res.GenerationCalls())
	p.observer.OnComplete(ctx, res)
	return res, nil
}

func (p *Pipeline) interpretGoal(ctx context.Context, in Input) (doc.GoalInterpretation, error) {
	user, err := prompt.Goal(in.Idea, in.Constraints)
	if err != nil {
		return doc.GoalInterpretation{}, err
	}
	raw, err := p.gen.Generate(ctx, prompt.System, user)
	if err != nil {
		return doc.GoalInterpretation{}, err
	}
	return doc.DecodeGoal(raw)
}

func record(res *Result, log *slog.Logger, step string, issues []string, attempts int, state revise.State) {
	res.Issues[step] = issues
	res.Attempts[step] = attempts
	log.Info("step finished", "step", step, "state", state, "attempts", attempts, "issues", len(issues))
}

// normalize trims the idea and drops blank constraints.
func normalize(in Input) Input {
	out := Input{Idea: strings.TrimSpace(in.Idea), Constraints: []string{}}
	for _, c := range in.Constraints {
		if c = strings.TrimSpace(c); c != "" {
			out.Constraints = append(out.Constraints, c)
		}
	}
	return out
}

func prdStage() revise.Stage[doc.PRD] {
	return revise.Stage[doc.PRD]{
		Name:     StepPRD,
		Kind:     doc.KindPRD,
		Decode:   func(raw generator.RawDocument) (doc.PRD, error) { return doc.DecodePRD(raw) },
		Validate: validate.PRD,
		Revise: func(prev doc.PRD, issues []string) (string, error) {
			return prompt.Revise(doc.KindPRD, prev, issues)
		},
	}
}

func milestonesStage() revise.Stage[doc.MilestonesDoc] {
	return revise.Stage[doc.MilestonesDoc]{
		Name:     StepMilestones,
		Kind:     doc.KindMilestones,
		Decode:   func(raw generator.RawDocument) (doc.MilestonesDoc, error) { return doc.DecodeMilestones(raw) },
		Validate: validate.Milestones,
		Revise: func(prev doc.MilestonesDoc, issues []string) (string, error) {
			return prompt.Revise(doc.KindMilestones, prev, issues)
		},
	}
}

func tasksStage() revise.Stage[doc.TasksDoc] {
	return revise.Stage[doc.TasksDoc]{
		Name:     StepTasks,
		Kind:     doc.KindTasks,
		Decode:   func(raw generator.RawDocument) (doc.TasksDoc, error) { return doc.DecodeTasks(raw) },
		Validate: validate.Tasks,
		Revise: func(prev doc.TasksDoc, issues []string) (string, error) {
			return prompt.Revise(doc.KindTasks, prev, issues)
		},
	}
}
