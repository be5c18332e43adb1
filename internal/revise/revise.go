// Package revise drives the generate, validate and revise loop of a single
// pipeline stage.
package revise

import (
	"context"
	"errors"
	"fmt"

	"github.com/jywlabs/kickoff/internal/generator"
)

// ErrInvalidAttempts is returned when the attempt budget is below one.
var ErrInvalidAttempts = errors.New("max attempts must be at least 1")

// Stage binds a document type to its decoder, validator and revision instruction.
type Stage[T any] struct {
	Name     string // Step name ("prd", "milestones", "tasks")
	Kind     string // Document kind used in instructions ("PRD", ...)
	Decode   func(generator.RawDocument) (T, error)
	Validate func(T) []string
	Revise   func(previous T, issues []string) (string, error)
}

// Outcome is the result of a finished loop.
type Outcome[T any] struct {
	Doc      T
	Issues   []string // Empty when accepted
	Attempts int
	State    State // StateAccepted or StateExhausted
}

// Accepted reports whether the final candidate passed validation.
func (o Outcome[T]) Accepted() bool {
	return o.State == StateAccepted
}

// AttemptEvent describes one validated candidate.
type AttemptEvent struct {
	Stage       string
	Attempt     int
	MaxAttempts int
	State       State // State entered after validation
	Issues      []string
	Doc         any
}

// Observer is notified after every validation.
type Observer interface {
	OnAttempt(ctx context.Context, ev AttemptEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ev AttemptEvent)

// OnAttempt implements Observer.
func (f ObserverFunc) OnAttempt(ctx context.Context, ev AttemptEvent) { f(ctx, ev) }

// Options configures Run.
type Options struct {
	MaxAttempts int
	Observer    Observer
}

// Run generates a candidate from the initial instruction and revises it until
// it validates or the attempt budget is spent. Each attempt makes exactly one
// generation call. Generator and decode errors end the loop immediately.
func Run[T any](ctx context.Context, gen generator.Generator, system, initial string, stage Stage[T], opts Options) (Outcome[T], error) {
	if opts.MaxAttempts < 1 {
		return Outcome[T]{}, fmt.Errorf("%s: %w (got %d)", stage.Name, ErrInvalidAttempts, opts.MaxAttempts)
	}

	m := machine{stage: stage.Name}
	user := initial
	for attempt := 1; ; attempt++ {
		raw, err := gen.Generate(ctx, system, user)
		if err != nil {
			return Outcome[T]{Attempts: attempt}, fmt.Errorf("%s attempt %d: %w", stage.Name, attempt, err)
		}
		if err := m.enter(StateGenerated); err != nil {
			return Outcome[T]{Attempts: attempt}, err
		}

		if err := m.enter(StateValidating); err != nil {
			return Outcome[T]{Attempts: attempt}, err
		}
		doc, err := stage.Decode(raw)
		if err != nil {
			return Outcome[T]{Attempts: attempt}, fmt.Errorf("%s attempt %d: %w", stage.Name, attempt, err)
		}
		issues := stage.Validate(doc)
		if issues == nil {
			issues = []string{}
		}

		next := StateRevising
		switch {
		case len(issues) == 0:
			next = StateAccepted
		case attempt >= opts.MaxAttempts:
			next = StateExhausted
		}
		if err := m.enter(next); err != nil {
			return Outcome[T]{Attempts: attempt}, err
		}

		if opts.Observer != nil {
			opts.Observer.OnAttempt(ctx, AttemptEvent{
				Stage:       stage.Name,
				Attempt:     attempt,
				MaxAttempts: opts.MaxAttempts,
				State:       next,
				Issues:      issues,
				Doc:         doc,
			})
		}

		if next.Terminal() {
			return Outcome[T]{Doc: doc, Issues: issues, Attempts: attempt, State: next}, nil
		}

		user, err = stage.Revise(doc, issues)
		if err != nil {
			return Outcome[T]{Attempts: attempt}, fmt.Errorf("%s attempt %d: build revision: %w", stage.Name, attempt, err)
		}
	}
}

// machine tracks the loop state and rejects transitions outside the allow-list.
type machine struct {
	stage   string
	state   State
	started bool
}

func (m *machine) enter(to State) error {
	if m.started {
		if err := Transition(m.state, to); err != nil {
			return fmt.Errorf("%s: %w", m.stage, err)
		}
	} else if to != StateGenerated {
		return fmt.Errorf("%s: loop must start in %s, not %s", m.stage, StateGenerated, to)
	}
	m.state = to
	m.started = true
	return nil
}
