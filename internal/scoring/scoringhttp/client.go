// Package scoringhttp is the default HTTP implementation of the scoring API
// client. It speaks JSON over HTTPS to the /v1/filter, /v1/risk, and /v1/log
// endpoints, authenticates with the API secret, and maps responses onto the
// pkg/domain-errors taxonomy. It never retries: availability policy lives in
// the binding layer, which fails open on service errors.
package scoringhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"riskgate/internal/risk"
	"riskgate/internal/scoring"
	dErrors "riskgate/pkg/domain-errors"
)

const (
	filterPath = "/v1/filter"
	riskPath   = "/v1/risk"
	logPath    = "/v1/log"

	defaultTimeout = 5 * time.Second
)

// apiError is the error body returned by the scoring API on 4xx responses.
type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Client implements scoring.Client over HTTP.
type Client struct {
	baseURL string
	secret  string
	http    *http.Client
	breaker *breaker
	logger  *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. The default carries a
// 5s timeout; the core itself imposes no deadline beyond the transport's.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger for the client.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithCircuitBreaker guards the API with a circuit breaker: after
// failureThreshold consecutive transport failures, calls fail fast with
// CodeServiceError (which enforcement fails open on) until a probe succeeds
// after cooldown.
func WithCircuitBreaker(failureThreshold int, cooldown time.Duration) Option {
	return func(c *Client) {
		if failureThreshold > 0 && cooldown > 0 {
			c.breaker = newBreaker(failureThreshold, cooldown)
		}
	}
}

// NewClient creates a scoring API client for the given base URL and secret.
func NewClient(baseURL, apiSecret string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		secret:  apiSecret,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ready reports whether the client is currently willing to call the scoring
// API, for readiness probes. It fails while the circuit breaker is open.
func (c *Client) Ready() error {
	if c.breaker != nil && c.breaker.isOpen() {
		return dErrors.New(dErrors.CodeServiceError, "scoring api circuit open")
	}
	return nil
}

// Filter calls the pre-action screening endpoint.
func (c *Client) Filter(ctx context.Context, payload *scoring.Payload) (*risk.Verdict, error) {
	return c.post(ctx, filterPath, payload)
}

// Risk calls the synchronous risk assessment endpoint.
func (c *Client) Risk(ctx context.Context, payload *scoring.Payload) (*risk.Verdict, error) {
	return c.post(ctx, riskPath, payload)
}

// Log calls the audit endpoint.
func (c *Client) Log(ctx context.Context, payload *scoring.Payload) (*risk.Verdict, error) {
	return c.post(ctx, logPath, payload)
}

func (c *Client) post(ctx context.Context, path string, payload *scoring.Payload) (*risk.Verdict, error) {
	if c.breaker != nil && !c.breaker.allow() {
		return nil, dErrors.New(dErrors.CodeServiceError, "scoring api circuit open")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "encode scoring payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "build scoring request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth("", c.secret)

	resp, err := c.http.Do(req)
	if err != nil {
		c.recordFailure()
		return nil, c.transportError(err)
	}
	defer resp.Body.Close() //nolint:errcheck

	return c.decode(path, resp)
}

func (c *Client) decode(path string, resp *http.Response) (*risk.Verdict, error) {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		c.recordSuccess()
		var verdict risk.Verdict
		if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeServiceError, "malformed scoring response")
		}
		return &verdict, nil

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.recordSuccess()
		return nil, dErrors.New(dErrors.CodeUnauthorized, "scoring api rejected credentials")

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// the service answered; a payload rejection is not a breaker failure
		c.recordSuccess()
		return nil, c.clientError(resp)

	default:
		c.recordFailure()
		return nil, dErrors.New(dErrors.CodeServiceError,
			fmt.Sprintf("scoring api returned status %d on %s", resp.StatusCode, path))
	}
}

func (c *Client) clientError(resp *http.Response) error {
	var apiErr apiError
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096)) //nolint:errcheck
	_ = json.Unmarshal(raw, &apiErr)                      //nolint:errcheck

	if apiErr.Type == "invalid_request_token" {
		return dErrors.New(dErrors.CodeInvalidRequestToken, "anti-fraud token missing or malformed")
	}
	msg := apiErr.Message
	if msg == "" {
		msg = fmt.Sprintf("scoring api rejected the payload with status %d", resp.StatusCode)
	}
	return dErrors.New(dErrors.CodeInvalidParameters, msg)
}

func (c *Client) transportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "scoring api timed out")
	}
	return dErrors.Wrap(err, dErrors.CodeServiceError, "scoring api unreachable")
}

func (c *Client) recordSuccess() {
	if c.breaker != nil {
		c.breaker.recordSuccess()
	}
}

func (c *Client) recordFailure() {
	if c.breaker == nil {
		return
	}
	if opened := c.breaker.recordFailure(); opened && c.logger != nil {
		c.logger.Error("scoring api circuit opened")
	}
}
