// Package llmtest provides a scripted llm.Gateway for tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/fmuoria/resmo/internal/llm"
)

// Call records one request made to the gateway
type Call struct {
	Structured bool
	Schema     *llm.Schema
	Parts      []llm.Part
}

// Gateway answers each request with the next queued response. Structured
// responses are raw JSON strings decoded the same way the real clients do.
type Gateway struct {
	mu        sync.Mutex
	responses []Response
	calls     []Call
}

// Response is either a raw model answer or an error
type Response struct {
	Text string
	Err  error
}

// New queues responses in the order they will be returned.
func New(responses ...Response) *Gateway {
	return &Gateway{responses: responses}
}

// Reply is shorthand for a successful response.
func Reply(text string) Response {
	return Response{Text: text}
}

// Fail is shorthand for a failed response.
func Fail(err error) Response {
	return Response{Err: err}
}

func (g *Gateway) next(call Call) Response {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, call)
	if len(g.responses) == 0 {
		return Response{Text: ""}
	}
	r := g.responses[0]
	g.responses = g.responses[1:]
	return r
}

func (g *Gateway) GenerateStructured(ctx context.Context, schema *llm.Schema, out any, parts ...llm.Part) error {
	r := g.next(Call{Structured: true, Schema: schema, Parts: parts})
	if r.Err != nil {
		return r.Err
	}
	return llm.DecodeJSON(r.Text, out)
}

func (g *Gateway) GenerateText(ctx context.Context, parts ...llm.Part) (string, error) {
	r := g.next(Call{Parts: parts})
	return r.Text, r.Err
}

func (g *Gateway) Close() error { return nil }

// Calls returns the requests made so far.
func (g *Gateway) Calls() []Call {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Call, len(g.calls))
	copy(out, g.calls)
	return out
}
