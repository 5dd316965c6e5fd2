package tools

import "context"

// Tool is a named, schema-described capability the model may invoke.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any
	Execute(ctx context.Context, args map[string]any) *Result
}

// Result is what a tool execution hands back to the conversation. Failures
// are carried in ForLLM with IsError set, never as panics or Go errors: a
// failed tool call is valid transcript content the model is expected to see.
type Result struct {
	ForLLM  string
	IsError bool
	Err     error
}

func NewResult(forLLM string) *Result {
	return &Result{ForLLM: forLLM}
}

func ErrorResult(message string) *Result {
	return &Result{ForLLM: message, IsError: true}
}

func (r *Result) WithError(err error) *Result {
	r.Err = err
	return r
}
