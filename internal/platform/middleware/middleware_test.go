package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"riskgate/internal/risk"
)

func TestRiskEvaluationInstallsStore(t *testing.T) {
	var store *risk.Store
	handler := RiskEvaluation(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		store = risk.StoreFrom(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.NotNil(t, store)
}

func TestRequestID(t *testing.T) {
	t.Run("generates an id", func(t *testing.T) {
		var got string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = GetRequestID(r.Context())
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, got)
		assert.Equal(t, got, rec.Header().Get("X-Request-ID"))
	})

	t.Run("honors client id", func(t *testing.T) {
		var got string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = GetRequestID(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "req-42")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "req-42", got)
	})
}

func TestRecovery(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
