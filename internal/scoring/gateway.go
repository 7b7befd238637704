package scoring

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"riskgate/internal/risk"
	"riskgate/internal/scoring/metrics"
)

// BeforeHook runs before a payload is transmitted and may mutate it in place.
// An error aborts the remaining hook chain and the call: a broken
// instrumentation hook is a configuration bug, not a condition to mask.
type BeforeHook func(op risk.Operation, rc *risk.Context, payload *Payload) error

// AfterHook runs after a response was received, with the (possibly mutated)
// payload and the verdict. An error propagates to the caller.
type AfterHook func(op risk.Operation, rc *risk.Context, payload *Payload, verdict *risk.Verdict) error

// Gateway is the facade over the scoring API client. Each operation builds
// its payload, runs the before-hook pipeline, performs the call, runs the
// after-hook pipeline, and returns the response verbatim. Errors from the
// client propagate unmodified: which of them fail open is the binding
// layer's decision, because the correct fallback differs per lifecycle
// moment.
type Gateway struct {
	client  Client
	before  []BeforeHook
	after   []AfterHook
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// Option configures the Gateway.
type Option func(*Gateway)

// WithBeforeHooks appends hooks invoked, in order, before each transmission.
func WithBeforeHooks(hooks ...BeforeHook) Option {
	return func(g *Gateway) {
		g.before = append(g.before, hooks...)
	}
}

// WithAfterHooks appends hooks invoked, in order, after each response.
func WithAfterHooks(hooks ...AfterHook) Option {
	return func(g *Gateway) {
		g.after = append(g.after, hooks...)
	}
}

// WithLogger sets the logger for the gateway.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) {
		g.logger = l
	}
}

// WithMetrics sets the metrics collector for the gateway.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gateway) {
		g.metrics = m
	}
}

// New creates a scoring gateway. Panics if client is nil - fail fast at startup.
func New(client Client, opts ...Option) *Gateway {
	if client == nil {
		panic("scoring.New: client is required")
	}
	g := &Gateway{
		client: client,
		tracer: otel.Tracer("riskgate/scoring"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Filter screens an action before it executes, before identity is confirmed.
// status is empty except on failure paths.
func (g *Gateway) Filter(ctx context.Context, event risk.Event, status risk.Status, rc *risk.Context) (*risk.Verdict, error) {
	return g.call(ctx, risk.OpFilter, BuildFilterPayload(event, status, rc), rc, g.client.Filter)
}

// Risk assesses a completed authentication step before it is finalized.
func (g *Gateway) Risk(ctx context.Context, event risk.Event, status risk.Status, rc *risk.Context) (*risk.Verdict, error) {
	return g.call(ctx, risk.OpRisk, BuildRiskPayload(event, status, rc), rc, g.client.Risk)
}

// Log reports an event outcome for auditing. Callers treat it as
// fire-and-forget; the gateway itself still surfaces errors so hooks and
// tests can observe them.
func (g *Gateway) Log(ctx context.Context, event risk.Event, status risk.Status, rc *risk.Context) (*risk.Verdict, error) {
	return g.call(ctx, risk.OpLog, BuildLogPayload(event, status, rc), rc, g.client.Log)
}

func (g *Gateway) call(
	ctx context.Context,
	op risk.Operation,
	payload *Payload,
	rc *risk.Context,
	send func(context.Context, *Payload) (*risk.Verdict, error),
) (*risk.Verdict, error) {
	ctx, span := g.tracer.Start(ctx, "scoring."+string(op), trace.WithAttributes(
		attribute.String("scoring.operation", string(op)),
		attribute.String("scoring.event", string(payload.Event)),
	))

	start := time.Now()
	verdict, err := g.doCall(ctx, op, payload, rc, send)
	g.observe(op, verdict, err, time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.String("scoring.action", string(verdict.Action())))
	}
	span.End()

	return verdict, err
}

func (g *Gateway) doCall(
	ctx context.Context,
	op risk.Operation,
	payload *Payload,
	rc *risk.Context,
	send func(context.Context, *Payload) (*risk.Verdict, error),
) (*risk.Verdict, error) {
	for _, hook := range g.before {
		if err := hook(op, rc, payload); err != nil {
			return nil, err
		}
	}

	verdict, err := send(ctx, payload)
	if err != nil {
		return nil, err
	}

	for _, hook := range g.after {
		if err := hook(op, rc, payload, verdict); err != nil {
			return nil, err
		}
	}

	return verdict, nil
}

func (g *Gateway) observe(op risk.Operation, verdict *risk.Verdict, err error, d time.Duration) {
	outcome := "error"
	if err == nil {
		outcome = string(verdict.Action())
	}
	g.metrics.ObserveCall(string(op), outcome, d)

	if g.logger != nil {
		g.logger.Debug("scoring call",
			"operation", string(op),
			"outcome", outcome,
			"duration_ms", d.Milliseconds(),
		)
	}
}
