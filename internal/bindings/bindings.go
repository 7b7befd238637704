// Package bindings wires risk scoring into the authentication lifecycle.
// Each binding covers one lifecycle moment: it decides which event and
// status to send, calls the scoring gateway, hands the outcome to the policy
// enforcer, and applies the resulting decision to the in-flight flow.
// Enforcement semantics stay uniform across entry points: explicit deny or
// instrumentation error blocks, everything else fails open.
package bindings

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"riskgate/internal/policy"
	"riskgate/internal/risk"
	dErrors "riskgate/pkg/domain-errors"
)

// Generic user-visible rejection messages. They deliberately reveal nothing
// about why the request was blocked.
const (
	MsgRegistrationBlocked = "Account cannot be created at this moment. Please try again later."
	MsgLoginFailed         = "Invalid email or password."
)

// Gateway is the scoring facade consumed by the bindings.
type Gateway interface {
	Filter(ctx context.Context, event risk.Event, status risk.Status, rc *risk.Context) (*risk.Verdict, error)
	Risk(ctx context.Context, event risk.Event, status risk.Status, rc *risk.Context) (*risk.Verdict, error)
	Log(ctx context.Context, event risk.Event, status risk.Status, rc *risk.Context) (*risk.Verdict, error)
}

// Bindings holds the dependencies shared by all lifecycle bindings.
type Bindings struct {
	gateway    Gateway
	enforcer   *policy.Enforcer
	hooks      HookConfig
	terminator risk.SessionTerminator
	logger     *slog.Logger
}

// Option configures the Bindings.
type Option func(*Bindings)

// WithTerminator wires the session terminator used when a decision says
// TerminateSession. Without it, termination only tags the request store.
func WithTerminator(t risk.SessionTerminator) Option {
	return func(b *Bindings) {
		b.terminator = t
	}
}

// WithLogger sets the logger for the bindings.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bindings) {
		b.logger = l
	}
}

// New creates the binding layer. Panics if gateway or enforcer is nil - fail
// fast at startup.
func New(gateway Gateway, enforcer *policy.Enforcer, hooks HookConfig, opts ...Option) *Bindings {
	if gateway == nil {
		panic("bindings.New: gateway is required")
	}
	if enforcer == nil {
		panic("bindings.New: enforcer is required")
	}
	b := &Bindings{
		gateway:  gateway,
		enforcer: enforcer,
		hooks:    hooks,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BeforeRegistration screens a registration before it executes. Identity is
// not confirmed yet, so this is a filter call without a principal. A deny or
// an instrumentation error outside monitoring mode rejects the registration
// with a generic message; any other failure lets it proceed.
//
// The returned error is non-nil only for instrumentation-hook failures,
// which are configuration bugs and propagate instead of failing open.
func (b *Bindings) BeforeRegistration(r *http.Request, scope string) (policy.Decision, error) {
	if !b.hooks.For(scope).BeforeRegistration {
		return policy.Continue(), nil
	}

	rc := risk.NewContext(r, scope, nil)
	verdict, err := b.gateway.Filter(r.Context(), risk.EventRegistration, "", rc)
	if hookErr := hookError(err); hookErr != nil {
		return policy.Continue(), hookErr
	}
	return b.enforcer.Enforce(risk.OpFilter, policy.Reject(MsgRegistrationBlocked), verdict, err), nil
}

// AfterLogin assesses a successful credential verification before the
// session is finalized. The verdict and context are stashed request-scoped
// for downstream inspection (e.g. a challenge view). A deny terminates the
// session immediately, tagged so the failure-path binding does not score the
// termination as a user-caused login failure.
func (b *Bindings) AfterLogin(w http.ResponseWriter, r *http.Request, scope string, principal risk.Principal) (policy.Decision, error) {
	if !b.hooks.For(scope).AfterLogin {
		return policy.Continue(), nil
	}

	rc := risk.NewContext(r, scope, principal, risk.WithTerminator(b.terminator))
	verdict, err := b.gateway.Risk(r.Context(), risk.EventLogin, "", rc)
	risk.StoreFrom(r.Context()).SetOutcome(rc, verdict)
	if hookErr := hookError(err); hookErr != nil {
		return policy.Continue(), hookErr
	}

	decision := b.enforcer.Enforce(risk.OpRisk, policy.Terminate(), verdict, err)
	if decision.Kind == policy.KindTerminateSession {
		rc.TerminateSession(w)
	}
	return decision, nil
}

// AfterLoginFailure reports a failed login attempt. Fire-and-forget: it is
// skipped when enforcement itself caused the failure (checked via the
// termination tag) or when the failure was not a genuine credential attempt,
// and every error is logged but never surfaced.
func (b *Bindings) AfterLoginFailure(r *http.Request, scope string, genuineAttempt bool) {
	if !b.hooks.For(scope).AfterLogin {
		return
	}
	if !genuineAttempt || risk.StoreFrom(r.Context()).EnforcementTerminated() {
		return
	}

	rc := risk.NewContext(r, scope, nil)
	if _, err := b.gateway.Filter(r.Context(), risk.EventLogin, risk.StatusFailed, rc); err != nil {
		b.logAuditFailure("filter", risk.EventLogin, err)
	}
}

// AfterPasswordResetRequest audits a password reset request, whatever its
// outcome. persisted tells whether a matching account was found and a reset
// actually initiated. Fire-and-forget.
func (b *Bindings) AfterPasswordResetRequest(r *http.Request, scope string, principal risk.Principal, persisted bool) {
	if !b.hooks.For(scope).AfterPasswordResetRequest {
		return
	}

	status := risk.StatusFailed
	if persisted {
		status = risk.StatusSucceeded
	}
	rc := risk.NewContext(r, scope, principal)
	if _, err := b.gateway.Log(r.Context(), risk.EventPasswordResetRequested, status, rc); err != nil {
		b.logAuditFailure("log", risk.EventPasswordResetRequested, err)
	}
}

// BeforeProfileUpdate assesses a profile or password change before the
// mutation is applied. A deny terminates the session pre-emptively and the
// caller must skip the mutation entirely, including the follow-up audit
// call. The returned context is shared with AfterProfileUpdate so both calls
// describe the same request snapshot; it is nil when the hook is disabled.
func (b *Bindings) BeforeProfileUpdate(w http.ResponseWriter, r *http.Request, scope string, principal risk.Principal) (policy.Decision, *risk.Context, error) {
	if !b.hooks.For(scope).ProfileUpdate {
		return policy.Continue(), nil, nil
	}

	rc := risk.NewContext(r, scope, principal, risk.WithTerminator(b.terminator))
	verdict, err := b.gateway.Risk(r.Context(), risk.EventProfileUpdate, risk.StatusAttempted, rc)
	risk.StoreFrom(r.Context()).SetOutcome(rc, verdict)
	if hookErr := hookError(err); hookErr != nil {
		return policy.Continue(), rc, hookErr
	}

	decision := b.enforcer.Enforce(risk.OpRisk, policy.Terminate(), verdict, err)
	if decision.Kind == policy.KindTerminateSession {
		rc.TerminateSession(w)
	}
	return decision, rc, nil
}

// AfterProfileUpdate audits the outcome of a profile update attempt, using
// the context built by BeforeProfileUpdate. Fire-and-forget. No-op when the
// hook was disabled (nil context).
func (b *Bindings) AfterProfileUpdate(ctx context.Context, rc *risk.Context, succeeded bool) {
	if rc == nil {
		return
	}

	status := risk.StatusFailed
	if succeeded {
		status = risk.StatusSucceeded
	}
	if _, err := b.gateway.Log(ctx, risk.EventProfileUpdate, status, rc); err != nil {
		b.logAuditFailure("log", risk.EventProfileUpdate, err)
	}
}

func (b *Bindings) logAuditFailure(op string, event risk.Event, err error) {
	if b.logger != nil {
		b.logger.Error("fire-and-forget scoring call failed",
			"operation", op,
			"event", string(event),
			"error", err,
		)
	}
}

// hookError separates instrumentation-hook failures from scoring API errors.
// API errors carry a domain-errors code and feed the enforcement table; any
// other error came from a hook and propagates, because a broken hook is a
// configuration bug rather than a runtime condition to mask.
func hookError(err error) error {
	if err == nil {
		return nil
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return nil
	}
	return err
}
