package executil

import (
	"context"
	"sync"
)

// Call records a single invocation seen by the Fake runner.
type Call struct {
	Name string
	Args []string
}

// Fake is a scripted Runner for tests. Responses are matched by
// command name plus first argument (the verb); unmatched commands
// succeed with empty output. Safe for concurrent use.
type Fake struct {
	mu        sync.Mutex
	calls     []Call
	responses map[string]fakeResponse
}

type fakeResponse struct {
	out Output
	err error
}

// NewFake returns an empty Fake runner.
func NewFake() *Fake {
	return &Fake{responses: make(map[string]fakeResponse)}
}

// Respond scripts the output for invocations of name whose first
// argument is verb. An empty verb matches any invocation of name.
func (f *Fake) Respond(name, verb string, out Output) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[name+"\x00"+verb] = fakeResponse{out: out}
	return f
}

// Fail scripts an error (spawn failure) for invocations of name/verb.
func (f *Fake) Fail(name, verb string, err error) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[name+"\x00"+verb] = fakeResponse{err: err}
	return f
}

// Run records the call and replays the scripted response.
func (f *Fake) Run(_ context.Context, name string, args ...string) (Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, Call{Name: name, Args: append([]string(nil), args...)})

	verb := ""
	if len(args) > 0 {
		verb = args[0]
	}
	if resp, ok := f.responses[name+"\x00"+verb]; ok {
		return resp.out, resp.err
	}
	if resp, ok := f.responses[name+"\x00"]; ok {
		return resp.out, resp.err
	}
	return Output{Success: true}, nil
}

// Calls returns a copy of every invocation recorded so far.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

var _ Runner = (*Fake)(nil)
