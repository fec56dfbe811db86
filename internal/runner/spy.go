package runner

import (
	"context"
	"sync"

	"github.com/nielsdekker/detekt-ls/internal/invoke"
)

// Spy is a Runner test double that records every started invocation
// and replies with a scripted outcome.
type Spy struct {
	mu      sync.Mutex
	started []invoke.Invocation

	// Outcome is delivered for every Start call.
	Outcome Outcome

	// OnStart, when non-nil, is called with each invocation before the
	// outcome is delivered; it may write the scratch report file.
	OnStart func(inv invoke.Invocation)
}

// Start records the invocation and delivers the scripted outcome.
func (s *Spy) Start(_ context.Context, inv invoke.Invocation) <-chan Outcome {
	s.mu.Lock()
	s.started = append(s.started, inv)
	s.mu.Unlock()

	if s.OnStart != nil {
		s.OnStart(inv)
	}

	out := make(chan Outcome, 1)
	out <- s.Outcome

	return out
}

// Started returns a copy of the invocations started so far.
func (s *Spy) Started() []invoke.Invocation {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]invoke.Invocation(nil), s.started...)
}
