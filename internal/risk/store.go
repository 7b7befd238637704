package risk

import (
	"context"
	"sync"
)

type storeKey struct{}

// Store holds the request-scoped outputs of the risk evaluation: the last
// verdict and context, plus the enforcement-termination tag. The surrounding
// application reads it after the auth flow ran (e.g. a post-login challenge
// view checking for an ActionChallenge verdict). Install it with WithStore
// before the auth handlers run.
//
// All methods are nil-safe so callers outside the middleware chain degrade to
// no-ops instead of panicking.
type Store struct {
	mu         sync.Mutex
	verdict    *Verdict
	context    *Context
	terminated bool
}

// WithStore installs a fresh Store on the context.
func WithStore(ctx context.Context) context.Context {
	return context.WithValue(ctx, storeKey{}, &Store{})
}

// StoreFrom returns the request's Store, or nil when none was installed.
func StoreFrom(ctx context.Context) *Store {
	s, _ := ctx.Value(storeKey{}).(*Store)
	return s
}

// SetOutcome records the verdict and context of the latest scoring call.
func (s *Store) SetOutcome(c *Context, v *Verdict) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.context = c
	s.verdict = v
}

// Verdict returns the last recorded verdict, or nil.
func (s *Store) Verdict() *Verdict {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.verdict
}

// Context returns the last recorded context, or nil.
func (s *Store) Context() *Context {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.context
}

// MarkEnforcementTermination tags this request as terminated by enforcement
// rather than by a user-caused authentication failure.
func (s *Store) MarkEnforcementTermination() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terminated = true
}

// EnforcementTerminated reports whether enforcement terminated this request.
func (s *Store) EnforcementTerminated() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terminated
}

// ChallengeRequested reports whether the last verdict on this request asked
// for a step-up challenge. Returns false when no scoring call was made.
func ChallengeRequested(ctx context.Context) bool {
	v := StoreFrom(ctx).Verdict()
	return v != nil && v.Action() == ActionChallenge
}
