package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestMetrics_Recorders(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.BackendRequest("diff", "ok", 120*time.Millisecond)
	m.BackendRequest("diff", "cached", 0)
	m.CacheLookup("hit")
	m.Action("select_date")
	m.StaleResult("report")
	m.StaleResult("report")
	m.BreakerChanged(1)
	m.BreakerChanged(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendRequests.WithLabelValues("diff", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendRequests.WithLabelValues("diff", "cached")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.BackendDuration), "cached hits stay out of the histogram")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Actions.WithLabelValues("select_date")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.StaleResults.WithLabelValues("report")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BreakerState))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BreakerTrips))
}

func TestMetrics_RegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)
	assert.Panics(t, func() { NewMetrics(reg) }, "duplicate registration")
	assert.NotPanics(t, func() { NewMetrics(prometheus.NewRegistry()) })
}

func TestHealth_Statuses(t *testing.T) {
	h := NewHealthStatus("sqlite")

	code, rep := h.Report()
	assert.Equal(t, http.StatusServiceUnavailable, code, "unchecked backend is unhealthy")
	assert.Equal(t, "unhealthy", rep.Status)

	h.CheckBackend(context.Background(), pingFunc(func(context.Context) error { return nil }))
	code, rep = h.Report()
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "degraded", rep.Status, "sqlite cache not yet checked")

	h.mu.Lock()
	h.SQLiteOK = true
	h.mu.Unlock()
	_, rep = h.Report()
	assert.Equal(t, "healthy", rep.Status)

	h.SetBreakerState("open")
	_, rep = h.Report()
	assert.Equal(t, "degraded", rep.Status)
}

func TestHealth_BackendError(t *testing.T) {
	h := NewHealthStatus("")
	h.CheckBackend(context.Background(), pingFunc(func(context.Context) error {
		return errors.New("connection refused")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "connection refused", body["backend_error"])
	assert.Equal(t, "none", body["cache_backend"])
	assert.Equal(t, true, body["cache_ok"])
}

func TestServer_ExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.Action("go_to_page")

	s := NewServer(":0", reg, NewHealthStatus("none"))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `reconviewer_actions_total{action="go_to_page"} 1`))
}
