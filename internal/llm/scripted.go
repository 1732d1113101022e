package llm

import (
	"context"
	"fmt"
	"sync"
)

// Scripted is a canned-response client for tests and offline CLI runs. It
// returns queued responses in order and errors once the script is exhausted.
type Scripted struct {
	mu        sync.Mutex
	responses []string
	calls     []Request
}

func NewScripted(responses ...string) *Scripted {
	return &Scripted{responses: responses}
}

func (s *Scripted) Complete(_ context.Context, req Request) (*Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, req)
	if len(s.responses) == 0 {
		return nil, fmt.Errorf("scripted llm: no responses left (call %d)", len(s.calls))
	}
	next := s.responses[0]
	s.responses = s.responses[1:]
	return &Response{Content: next}, nil
}

// Calls returns every request seen so far.
func (s *Scripted) Calls() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.calls))
	copy(out, s.calls)
	return out
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, req Request) (*Response, error)

func (f ClientFunc) Complete(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}
