package pipeline

import (
	"context"

	"github.com/jywlabs/kickoff/internal/doc"
	"github.com/jywlabs/kickoff/internal/revise"
)

// Observer receives progress notifications during a run.
// Calls happen on the run's goroutine, in order.
type Observer interface {
	OnStageStart(ctx context.Context, runID, step string)
	OnGoal(ctx context.Context, runID string, goal doc.GoalInterpretation)
	OnAttempt(ctx context.Context, runID string, ev revise.AttemptEvent)
	OnComplete(ctx context.Context, res *Result)
	OnFailure(ctx context.Context, runID string, err error)
}

// NopObserver ignores every notification. Embed it to implement a subset.
type NopObserver struct{}

func (NopObserver) OnStageStart(context.Context, string, string) {}
func (NopObserver) OnGoal(context.Context, string, doc.GoalInterpretation) {}
func (NopObserver) OnAttempt(context.Context, string, revise.AttemptEvent) {}
func (NopObserver) OnComplete(context.Context, *Result) {}
func (NopObserver) OnFailure(context.Context, string, error) {}

// Observers fans notifications out to several observers in order.
type Observers []Observer

func (o Observers) OnStageStart(ctx context.Context, runID, step string) {
	for _, obs := range o {
		obs.OnStageStart(ctx, runID, step)
	}
}

func (o Observers) OnGoal(ctx context.Context, runID string, goal doc.GoalInterpretation) {
	for _, obs := range o {
		obs.OnGoal(ctx, runID, goal)
	}
}

func (o Observers) OnAttempt(ctx context.Context, runID string, ev revise.AttemptEvent) {
	for _, obs := range o {
		obs.OnAttempt(ctx, runID, ev)
	}
}

func (o Observers) OnComplete(ctx context.Context, res *Result) {
	for _, obs := range o {
		obs.OnComplete(ctx, res)
	}
}

func (o Observers) OnFailure(ctx context.Context, runID string, err error) {
	for _, obs := range o {
		obs.OnFailure(ctx, runID, err)
	}
}

// attemptObserver binds a run id to the revision loop's observer hook.
type attemptObserver struct {
	runID string
	obs   Observer
}

func (a attemptObserver) OnAttempt(ctx context.Context, ev revise.AttemptEvent) {
	a.obs.OnAttempt(ctx, a.runID, ev)
}
