package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	mode string
	err  error
}

func (q fakeQueue) Mode() string { return q.mode }

func (q fakeQueue) Check(ctx context.Context) error { return q.err }

func serveHealth(t *testing.T, h *HealthHandler) (int, healthResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestHealth_ReportsQueueMode(t *testing.T) {
	code, body := serveHealth(t, NewHealthHandler(nil, nil, fakeQueue{mode: "local"}))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, map[string]string{"database": "memory", "queue": "local"}, body.Checks)
}

func TestHealth_QueueDown(t *testing.T) {
	code, body := serveHealth(t, NewHealthHandler(nil, nil, fakeQueue{mode: "local", err: errors.New("queue: closed")}))
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "local down: queue: closed", body.Checks["queue"])
}

func TestHealth_NoQueue(t *testing.T) {
	code, body := serveHealth(t, NewHealthHandler(nil, nil, nil))
	assert.Equal(t, http.StatusOK, code)
	assert.NotContains(t, body.Checks, "queue")
}
