package scoringhttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskgate/internal/risk"
	"riskgate/internal/scoring"
	dErrors "riskgate/pkg/domain-errors"
)

func testPayload() *scoring.Payload {
	return &scoring.Payload{
		Event:        risk.EventLogin,
		Status:       risk.StatusSucceeded,
		User:         scoring.UserPayload{ID: "u-1", Email: "a@b.c"},
		RequestToken: "tok",
	}
}

func TestClientSuccess(t *testing.T) {
	var gotPath, gotSecret string
	var gotBody scoring.Payload

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, gotSecret, _ = r.BasicAuth()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(risk.Verdict{ //nolint:errcheck
			Policy: risk.Policy{Action: "deny", ID: "p-1"},
			Risk:   0.93,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk-test")
	verdict, err := c.Risk(context.Background(), testPayload())

	require.NoError(t, err)
	assert.Equal(t, "/v1/risk", gotPath)
	assert.Equal(t, "sk-test", gotSecret)
	assert.Equal(t, risk.EventLogin, gotBody.Event)
	assert.Equal(t, risk.ActionDeny, verdict.Action())
	assert.InDelta(t, 0.93, verdict.Risk, 0.001)
}

func TestClientEndpointPaths(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		_, _ = w.Write([]byte(`{"policy":{"action":"allow"}}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk-test")
	_, _ = c.Filter(context.Background(), testPayload())
	_, _ = c.Risk(context.Background(), testPayload())
	_, _ = c.Log(context.Background(), testPayload())

	assert.Equal(t, []string{"/v1/filter", "/v1/risk", "/v1/log"}, paths)
}

func TestClientErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		body     string
		wantCode dErrors.Code
	}{
		{"invalid request token", http.StatusBadRequest, `{"type":"invalid_request_token","message":"token invalid"}`, dErrors.CodeInvalidRequestToken},
		{"other validation error", http.StatusUnprocessableEntity, `{"type":"invalid_parameters","message":"bad event"}`, dErrors.CodeInvalidParameters},
		{"opaque 400", http.StatusBadRequest, `not json`, dErrors.CodeInvalidParameters},
		{"unauthorized", http.StatusUnauthorized, `{}`, dErrors.CodeUnauthorized},
		{"server error", http.StatusBadGateway, ``, dErrors.CodeServiceError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body)) //nolint:errcheck
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "sk-test")
			verdict, err := c.Filter(context.Background(), testPayload())

			assert.Nil(t, verdict)
			assert.True(t, dErrors.HasCode(err, tc.wantCode), "got %v", err)
		})
	}
}

func TestClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk-test", WithHTTPClient(&http.Client{Timeout: 20 * time.Millisecond}))
	_, err := c.Risk(context.Background(), testPayload())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout), "got %v", err)
}

func TestClientUnreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "sk-test")
	_, err := c.Log(context.Background(), testPayload())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeServiceError), "got %v", err)
}

func TestClientCircuitBreaker(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk-test", WithCircuitBreaker(2, time.Hour))

	_, _ = c.Filter(context.Background(), testPayload())
	_, _ = c.Filter(context.Background(), testPayload())
	assert.Equal(t, 2, hits)

	// circuit is open: fail fast without touching the wire
	_, err := c.Filter(context.Background(), testPayload())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeServiceError))
	assert.Equal(t, 2, hits)
}

func TestClientCircuitBreakerProbeCloses(t *testing.T) {
	b := newBreaker(1, time.Minute)
	now := time.Unix(0, 0)
	b.now = func() time.Time { return now }

	b.recordFailure()
	assert.False(t, b.allow(), "open circuit rejects before cooldown")

	now = now.Add(2 * time.Minute)
	assert.True(t, b.allow(), "cooldown elapsed: one probe allowed")
	assert.False(t, b.allow(), "only one probe at a time")

	b.recordSuccess()
	assert.True(t, b.allow(), "successful probe closes the circuit")
}

func TestClient4xxDoesNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk-test", WithCircuitBreaker(1, time.Hour))
	_, _ = c.Filter(context.Background(), testPayload())

	_, err := c.Filter(context.Background(), testPayload())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidParameters),
		"payload rejections keep the circuit closed")
}
