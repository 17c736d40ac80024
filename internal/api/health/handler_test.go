package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wsbsentiment/pkg/logger"
)

type checkerFunc func(ctx context.Context) error

func (f checkerFunc) Health(ctx context.Context) error { return f(ctx) }

var (
	up   = checkerFunc(func(context.Context) error { return nil })
	down = checkerFunc(func(context.Context) error { return errors.New("connection refused") })
)

func serve(t *testing.T, fn http.HandlerFunc) (int, HealthStatus) {
	t.Helper()
	rec := httptest.NewRecorder()
	fn(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var st HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	return rec.Code, st
}

func TestHandleHealth(t *testing.T) {
	h := New(logger.Nop(), nil, "wsbsentiment", "test")
	code, st := serve(t, h.HandleHealth)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", st.Status)
	assert.Equal(t, "wsbsentiment", st.Service)

	h = New(logger.Nop(), map[string]Checker{"redis": up, "postgres": down}, "wsbsentiment", "test")
	code, st = serve(t, h.HandleHealth)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "degraded", st.Status)
	assert.Equal(t, "connection refused", st.Checks["postgres"].Error)

	h = New(logger.Nop(), map[string]Checker{"postgres": down}, "wsbsentiment", "test")
	code, st = serve(t, h.HandleHealth)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", st.Status)
}

func TestHandleReadiness(t *testing.T) {
	h := New(logger.Nop(), map[string]Checker{"redis": up}, "wsbsentiment", "test")
	code, _ := serve(t, h.HandleReadiness)
	assert.Equal(t, http.StatusOK, code)

	h = New(logger.Nop(), map[string]Checker{"redis": up, "clickhouse": down}, "wsbsentiment", "test")
	code, st := serve(t, h.HandleReadiness)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", st.Status)
}

func TestHandleLiveness(t *testing.T) {
	h := New(logger.Nop(), map[string]Checker{"postgres": down}, "wsbsentiment", "test")
	rec := httptest.NewRecorder()
	h.HandleLiveness(rec, httptest.NewRequest(http.MethodGet, "/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())
}
