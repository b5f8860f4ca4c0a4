package status

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smanolloff/vcmi-mlclient/internal/metrics"
	"github.com/smanolloff/vcmi-mlclient/internal/model"
	"github.com/smanolloff/vcmi-mlclient/internal/schema"
	"github.com/smanolloff/vcmi-mlclient/internal/session"
	"github.com/smanolloff/vcmi-mlclient/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *metrics.Collector, *storage.MemoryBackend, *session.Context) {
	t.Helper()
	logger := zerolog.New(io.Discard)

	left, err := model.NewScripted(model.StupidAI, logger)
	require.NoError(t, err)
	sess := &session.Context{
		ID:    uuid.New(),
		Left:  left,
		Right: model.NewExternalPath("m.zip", logger),
	}
	collector := metrics.NewCollector(logger)
	backend := storage.NewMemoryBackend()
	t.Cleanup(func() { backend.Close() })

	return NewServer(collector, backend, sess, logger), collector, backend, sess
}

func get(t *testing.T, h http.Handler, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	res := httptest.NewRecorder()
	h.ServeHTTP(res, httptest.NewRequest(http.MethodGet, target, nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	return res, body
}

func TestHealthz(t *testing.T) {
	server, collector, _, _ := newTestServer(t)
	routes := server.Routes()

	res, body := get(t, routes, "/healthz")
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "idle", body["status"])
	assert.NotEmpty(t, res.Header().Get("X-Correlation-ID"))

	collector.SetRunning(true)
	_, body = get(t, routes, "/healthz")
	assert.Equal(t, "ok", body["status"])
}

func TestThroughput(t *testing.T) {
	server, collector, _, _ := newTestServer(t)
	collector.Throughput("UserAgent (v10)", schema.SideLeft, 900, 2.5)

	res, body := get(t, server.Routes(), "/api/v1/throughput")
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "application/json", res.Header().Get("Content-Type"))

	tp := body["throughput"].(map[string]any)
	assert.Equal(t, "UserAgent (v10)", tp["agent"])
	assert.Equal(t, 900.0, tp["steps_per_sec"])
}

func TestSessionEndpoint(t *testing.T) {
	server, _, _, sess := newTestServer(t)

	_, body := get(t, server.Routes(), "/api/v1/session")
	assert.Equal(t, sess.ID.String(), body["id"])

	right := body["right"].(map[string]any)
	assert.Equal(t, "EXTERNAL_PATH", right["type"])
	assert.Equal(t, "m.zip", right["name"])
}

func TestDecisionStats(t *testing.T) {
	server, _, backend, sess := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, backend.Store(ctx, &storage.Decision{SessionID: sess.ID.String(), Action: 3}))
	require.NoError(t, backend.Store(ctx, &storage.Decision{SessionID: "other", Action: schema.ActionReset}))

	_, body := get(t, server.Routes(), "/api/v1/decisions/stats")
	assert.Equal(t, 1.0, body["TotalDecisions"])

	_, body = get(t, server.Routes(), "/api/v1/decisions/stats?session=all")
	assert.Equal(t, 2.0, body["TotalDecisions"])
	assert.Equal(t, 1.0, body["Resets"])
}

func TestDecisionStatsBackendError(t *testing.T) {
	server, _, backend, _ := newTestServer(t)
	require.NoError(t, backend.Close())

	res, body := get(t, server.Routes(), "/api/v1/decisions/stats")
	assert.Equal(t, http.StatusInternalServerError, res.Code)
	assert.Contains(t, body["error"], "closed")
}

func TestCorrelationIDIsKept(t *testing.T) {
	server, _, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Correlation-ID", "abc-123")
	res := httptest.NewRecorder()
	server.Routes().ServeHTTP(res, req)

	assert.Equal(t, "abc-123", res.Header().Get("X-Correlation-ID"))
}
