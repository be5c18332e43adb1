package revise

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jywlabs/kickoff/internal/doc"
	"github.com/jywlabs/kickoff/internal/generator"
	"github.com/jywlabs/kickoff/internal/generator/generatortest"
)

type note struct {
	Text string
}

func noteStage() Stage[note] {
	return Stage[note]{
		Name: "note",
		Kind: "Note",
		Decode: func(raw generator.RawDocument) (note, error) {
			s, ok := raw["text"].(string)
			if !ok {
				return note{}, &doc.SchemaMismatchError{Kind: "Note", Field: "text", Reason: "field required"}
			}
			return note{Text: s}, nil
		},
		Validate: func(n note) []string {
			if n.Text != "ok" {
				return []string{fmt.Sprintf("text should be ok, got %q.", n.Text)}
			}
			return nil
		},
		Revise: func(prev note, issues []string) (string, error) {
			return "revise " + prev.Text + ": " + strings.Join(issues, "; "), nil
		},
	}
}

func texts(values ...string) *generatortest.Recorder {
	docs := make([]generator.RawDocument, len(values))
	for i, v := range values {
		docs[i] = generator.RawDocument{"text": v}
	}
	return generatortest.Docs(docs...)
}

type eventLog []AttemptEvent

func (l *eventLog) OnAttempt(_ context.Context, ev AttemptEvent) { *l = append(*l, ev) }

func TestRun_AcceptedFirstTryMakesOneCall(t *testing.T) {
	rec := texts("ok", "unused")
	var events eventLog

	out, err := Run(context.Background(), rec, "SYS", "make a note", noteStage(), Options{MaxAttempts: 3, Observer: &events})
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}
	if rec.CallCount() != 1 {
		t.Errorf("generation calls = %d, want 1", rec.CallCount())
	}
	if !out.Accepted() || out.Attempts != 1 || out.Doc.Text != "ok" {
		t.Errorf("Outcome = %+v", out)
	}
	if out.Issues == nil || len(out.Issues) != 0 {
		t.Errorf("Issues = %#v, want empty non-nil", out.Issues)
	}
	if len(events) != 1 || events[0].State != StateAccepted || events[0].Stage != "note" {
		t.Errorf("events = %+v", events)
	}
	calls := rec.Calls()
	if calls[0].System != "SYS" || calls[0].User != "make a note" {
		t.Errorf("first call = %+v", calls[0])
	}
}

func TestRun_RevisesUntilAccepted(t *testing.T) {
	rec := texts("draft", "better", "ok")
	var events eventLog

	out, err := Run(context.Background(), rec, "SYS", "make a note", noteStage(), Options{MaxAttempts: 3, Observer: &events})
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}
	if out.State != StateAccepted || out.Attempts != 3 {
		t.Errorf("Outcome = %+v", out)
	}

	calls := rec.Calls()
	if len(calls) != 3 {
		t.Fatalf("calls = %d, want 3", len(calls))
	}
	if calls[1].User != `revise draft: text should be ok, got "draft".` {
		t.Errorf("second instruction = %q", calls[1].User)
	}
	if !strings.HasPrefix(calls[2].User, "revise better") {
		t.Errorf("third instruction = %q", calls[2].User)
	}

	wantStates := []State{StateRevising, StateRevising, StateAccepted}
	for i, ev := range events {
		if ev.State != wantStates[i] || ev.Attempt != i+1 || ev.MaxAttempts != 3 {
			t.Errorf("event %d = %+v", i, ev)
		}
	}
}

func TestRun_ExhaustionReturnsLastCandidate(t *testing.T) {
	for _, n := range []int{1, 2, 4} {
		t.Run(fmt.Sprintf("max_attempts=%d", n), func(t *testing.T) {
			values := make([]string, n+1)
			for i := range values {
				values[i] = fmt.Sprintf("bad-%d", i+1)
			}
			rec := texts(values...)

			out, err := Run(context.Background(), rec, "SYS", "make a note", noteStage(), Options{MaxAttempts: n})
			if err != nil {
				t.Fatalf("Run() unexpected error: %v", err)
			}
			if rec.CallCount() != n {
				t.Errorf("generation calls = %d, want %d", rec.CallCount(), n)
			}
			want := fmt.Sprintf("bad-%d", n)
			if out.Doc.Text != want {
				t.Errorf("Doc = %q, want the %d-th candidate %q", out.Doc.Text, n, want)
			}
			if out.State != StateExhausted || out.Attempts != n {
				t.Errorf("Outcome = %+v", out)
			}
			if len(out.Issues) != 1 || !strings.Contains(out.Issues[0], want) {
				t.Errorf("Issues = %v, want the last candidate's issues", out.Issues)
			}
		})
	}
}

func TestRun_SchemaMismatchIsFatal(t *testing.T) {
	rec := generatortest.Docs(
		generator.RawDocument{"text": "draft"},
		generator.RawDocument{"body": "missing text"},
		generator.RawDocument{"text": "ok"},
	)

	_, err := Run(context.Background(), rec, "SYS", "make a note", noteStage(), Options{MaxAttempts: 3})
	if !doc.IsSchemaMismatch(err) {
		t.Fatalf("Run() error = %v, want SchemaMismatchError", err)
	}
	if !strings.Contains(err.Error(), "note attempt 2") {
		t.Errorf("error %q does not name stage and attempt", err)
	}
	if rec.CallCount() != 2 {
		t.Errorf("generation calls = %d, want 2", rec.CallCount())
	}
}

func TestRun_GeneratorErrorPropagates(t *testing.T) {
	boom := errors.New("connection refused")
	rec := &generatortest.Recorder{Responses: []generatortest.Response{
		{Doc: generator.RawDocument{"text": "draft"}},
		{Err: boom},
	}}

	_, err := Run(context.Background(), rec, "SYS", "make a note", noteStage(), Options{MaxAttempts: 3})
	if !errors.Is(err, boom) {
		t.Fatalf("Run() error = %v, want wrapped generator error", err)
	}
}

func TestRun_FormatErrorPropagates(t *testing.T) {
	formatErr := &generator.FormatError{Raw: "nope", Err: errors.New("no JSON object found")}
	rec := &generatortest.Recorder{Responses: []generatortest.Response{{Err: formatErr}}}

	_, err := Run(context.Background(), rec, "SYS", "make a note", noteStage(), Options{MaxAttempts: 3})
	if !generator.IsFormatError(err) {
		t.Fatalf("Run() error = %v, want FormatError", err)
	}
}

func TestRun_InvalidAttempts(t *testing.T) {
	for _, n := range []int{0, -1} {
		rec := texts("ok")
		_, err := Run(context.Background(), rec, "SYS", "make a note", noteStage(), Options{MaxAttempts: n})
		if !errors.Is(err, ErrInvalidAttempts) {
			t.Errorf("MaxAttempts=%d: error = %v, want ErrInvalidAttempts", n, err)
		}
		if rec.CallCount() != 0 {
			t.Errorf("MaxAttempts=%d: generation calls = %d, want 0", n, rec.CallCount())
		}
	}
}

func TestRun_ReviseErrorStopsLoop(t *testing.T) {
	stage := noteStage()
	stage.Revise = func(note, []string) (string, error) { return "", errors.New("encode failed") }

	_, err := Run(context.Background(), texts("draft", "ok"), "SYS", "x", stage, Options{MaxAttempts: 2})
	if err == nil || !strings.Contains(err.Error(), "build revision") {
		t.Errorf("Run() error = %v", err)
	}
}

func TestRun_ObserverFunc(t *testing.T) {
	var got []State
	obs := ObserverFunc(func(_ context.Context, ev AttemptEvent) { got = append(got, ev.State) })

	if _, err := Run(context.Background(), texts("a", "b"), "SYS", "x", noteStage(), Options{MaxAttempts: 2, Observer: obs}); err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != StateRevising || got[1] != StateExhausted {
		t.Errorf("states = %v", got)
	}
}
