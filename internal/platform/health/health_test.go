package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h *Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	h.Register(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestLiveness(t *testing.T) {
	rec := serve(t, New(), "/health/live")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadinessAllHealthy(t *testing.T) {
	h := New()
	h.RegisterCheck("scoring_api", func() error { return nil })

	rec := serve(t, h, "/health/ready")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ready", resp.Status)
	assert.Equal(t, "up", resp.Checks["scoring_api"])
}

func TestReadinessDependencyDown(t *testing.T) {
	h := New()
	h.RegisterCheck("scoring_api", func() error { return errors.New("circuit open") })

	rec := serve(t, h, "/health/ready")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "not_ready", resp.Status)
	assert.Equal(t, "down: circuit open", resp.Checks["scoring_api"])
}

func TestStatusReportsUptime(t *testing.T) {
	rec := serve(t, New(), "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "dev", resp.Version)
}
