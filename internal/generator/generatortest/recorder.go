// Package generatortest provides a scripted generator for tests.
package generatortest

import (
	"context"
	"errors"
	"sync"

	"github.com/jywlabs/kickoff/internal/generator"
)

// ErrExhausted is returned once every scripted response has been consumed.
var ErrExhausted = errors.New("generatortest: no scripted response left")

// Response is one scripted reply. Err takes precedence over Doc.
type Response struct {
	Doc generator.RawDocument
	Err error
}

// Call records the instructions passed to Generate.
type Call struct {
	System string
	User   string
}

// Recorder is a thread-safe scripted generator.
// It returns Responses in sequence and records every call.
//
// Usage:
//
//	rec := &generatortest.Recorder{
//	    Responses: []generatortest.Response{
//	        {Doc: generator.RawDocument{"title": "Plan"}},
//	        {Err: errors.New("connection failed")},
//	    },
//	}
type Recorder struct {
	Responses []Response

	mu    sync.Mutex
	calls []Call
	next  int
}

// Docs builds a Recorder that answers with docs in order.
func Docs(docs ...generator.RawDocument) *Recorder {
	r := &Recorder{}
	for _, d := range docs {
		r.Responses = append(r.Responses, Response{Doc: d})
	}
	return r
}

// Name implements generator.Generator.
func (r *Recorder) Name() string { return "recorder" }

// Generate implements generator.Generator.
func (r *Recorder) Generate(ctx context.Context, system, user string) (generator.RawDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, Call{System: system, User: user})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.next >= len(r.Responses) {
		return nil, ErrExhausted
	}
	resp := r.Responses[r.next]
	r.next++
	if resp.Err != nil {
		return nil, resp.Err
	}
	return clone(resp.Doc), nil
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// CallCount returns the number of Generate calls.
func (r *Recorder) CallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func clone(doc generator.RawDocument) generator.RawDocument {
	out := make(generator.RawDocument, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
