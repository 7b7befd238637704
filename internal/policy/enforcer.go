// Package policy interprets scoring verdicts against configuration and turns
// them into explicit enforcement decisions. Control flow stays a return
// value: the binding layer inspects the decision and acts on it, never a
// non-local transfer.
package policy

import (
	"log/slog"

	"riskgate/internal/risk"
	"riskgate/internal/scoring/metrics"
	dErrors "riskgate/pkg/domain-errors"
)

// Kind enumerates the enforcement outcomes.
type Kind string

const (
	KindContinue         Kind = "continue"
	KindRejectAction     Kind = "reject_action"
	KindTerminateSession Kind = "terminate_session"
)

// Decision is the enforcement outcome for one scoring call. Reason carries a
// generic user-visible message for rejections; it never exposes risk scores
// or signals.
type Decision struct {
	Kind   Kind
	Reason string
}

// Continue lets the action proceed.
func Continue() Decision { return Decision{Kind: KindContinue} }

// Reject blocks the action with a generic user-visible reason.
func Reject(reason string) Decision {
	return Decision{Kind: KindRejectAction, Reason: reason}
}

// Terminate invalidates the current session and aborts the pipeline.
func Terminate() Decision { return Decision{Kind: KindTerminateSession} }

// Blocks reports whether the decision stops the underlying action.
func (d Decision) Blocks() bool { return d.Kind != KindContinue }

// instrumentationGuidance is logged with client-instrumentation errors: they
// usually mean the browser script is not installed, or the request came from
// a non-browser client (cURL, bot).
const instrumentationGuidance = "scoring request contained invalid parameters; " +
	"either the client-side script is not configured, or the request was made " +
	"without it (e.g. cURL/bot); treated as a deny outside monitoring mode"

// Enforcer applies the decision table to verdicts and errors.
//
// Only filter and risk operations ever enforce; log operations are
// fire-and-forget audits. Outside monitoring mode a deny verdict or a
// client-instrumentation error blocks; every other failure mode fails open
// so the scoring service can never take authentication down with it.
type Enforcer struct {
	monitoring bool
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// Option configures the Enforcer.
type Option func(*Enforcer)

// WithLogger sets the logger for the enforcer.
func WithLogger(l *slog.Logger) Option {
	return func(e *Enforcer) {
		e.logger = l
	}
}

// WithMetrics sets the metrics collector for the enforcer.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Enforcer) {
		e.metrics = m
	}
}

// New creates an Enforcer. With monitoring true, verdicts are recorded but
// never enforced.
func New(monitoring bool, opts ...Option) *Enforcer {
	e := &Enforcer{monitoring: monitoring}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Monitoring reports whether monitoring mode is on.
func (e *Enforcer) Monitoring() bool { return e.monitoring }

// Enforce maps one scoring outcome to a decision. onDeny is the blocking
// decision appropriate for the calling lifecycle moment (Reject for
// pre-action screens, Terminate for authenticated sessions); it is returned
// whenever the table says block.
func (e *Enforcer) Enforce(op risk.Operation, onDeny Decision, verdict *risk.Verdict, err error) Decision {
	d := e.decide(op, onDeny, verdict, err)
	e.metrics.ObserveDecision(string(d.Kind))
	return d
}

func (e *Enforcer) decide(op risk.Operation, onDeny Decision, verdict *risk.Verdict, err error) Decision {
	if op == risk.OpLog {
		if err != nil {
			e.logError(op, err)
		}
		return Continue()
	}

	if err != nil {
		if dErrors.IsInstrumentationError(err) {
			if e.logger != nil {
				e.logger.Warn(instrumentationGuidance,
					"operation", string(op),
					"error", err,
					"monitoring", e.monitoring,
				)
			}
			if !e.monitoring {
				return onDeny
			}
			return Continue()
		}
		e.logError(op, err)
		return Continue()
	}

	switch verdict.Action() {
	case risk.ActionDeny:
		if e.monitoring {
			if e.logger != nil {
				e.logger.Info("deny verdict recorded but not enforced",
					"operation", string(op),
				)
			}
			return Continue()
		}
		return onDeny
	case risk.ActionChallenge:
		// extension point for step-up auth; the verdict is stashed
		// request-scoped so the application can mount a challenge flow
		return Continue()
	default:
		return Continue()
	}
}

func (e *Enforcer) logError(op risk.Operation, err error) {
	if e.logger != nil {
		e.logger.Error("scoring call failed, failing open",
			"operation", string(op),
			"error", err,
		)
	}
}
