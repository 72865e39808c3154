package llmclient

import "context"

// Stub is a deterministic, no-network Backend for tests and the demo CLI
// (spec §9 "cloud vs placeholder vs local" tagged variants). It returns a
// fixed response, or calls a caller-supplied function when one is set,
// so tests can script a sequence of rewrite attempts without a live
// provider.
type Stub struct {
	Response string
	Err      error
	Fn       func(ctx context.Context, system, user string) (string, error)
}

func (s *Stub) Complete(ctx context.Context, system, user string) (string, error) {
	if s.Fn != nil {
		return s.Fn(ctx, system, user)
	}
	return s.Response, s.Err
}

func (s *Stub) IsAvailable() bool   { return true }
func (s *Stub) BackendName() string { return "stub" }
