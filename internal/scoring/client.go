package scoring

import (
	"context"

	"riskgate/internal/risk"
)

// Client performs the wire calls against the scoring API.
//
// Error Contract: implementations return pkg/domain-errors codes.
// CodeInvalidRequestToken for a missing/malformed anti-fraud token,
// CodeInvalidParameters for any other payload rejection, CodeTimeout for
// deadline overruns, and CodeServiceError for network failures and 5xx
// responses. Implementations never retry; retries are the operator's choice
// at the transport layer, not the core's.
type Client interface {
	Filter(ctx context.Context, payload *Payload) (*risk.Verdict, error)
	Risk(ctx context.Context, payload *Payload) (*risk.Verdict, error)
	Log(ctx context.Context, payload *Payload) (*risk.Verdict, error)
}
