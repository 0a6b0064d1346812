package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors of the report viewer. It
// implements viewer.Observer and reportapi.Recorder.
type Metrics struct {
	// Backend client
	BackendRequests *prometheus.CounterVec   // labels: endpoint, outcome
	BackendDuration *prometheus.HistogramVec // labels: endpoint
	BreakerState    prometheus.Gauge         // 0=closed, 1=open, 2=half-open
	BreakerTrips    prometheus.Counter

	// Response cache
	CacheLookups *prometheus.CounterVec // labels: result=hit|miss|error

	// Session
	Actions      *prometheus.CounterVec // labels: action
	StaleResults *prometheus.CounterVec // labels: kind

	// Gateway
	WSClients   prometheus.Gauge
	ViewsPushed prometheus.Counter
}

// NewMetrics creates the collectors and registers them on reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BackendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reconviewer_backend_requests_total",
			Help: "Report backend requests by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
		BackendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "reconviewer_backend_request_duration_seconds",
			Help:    "Report backend request latency including retries",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),
		BreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "reconviewer_breaker_state",
			Help: "Backend circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
		BreakerTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reconviewer_breaker_trips_total",
			Help: "Times the backend circuit breaker tripped open",
		}),

		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reconviewer_cache_lookups_total",
			Help: "Response cache lookups by result",
		}, []string{"result"}),

		Actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reconviewer_actions_total",
			Help: "User actions dispatched to the viewer session",
		}, []string{"action"}),
		StaleResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reconviewer_stale_results_total",
			Help: "Fetch results discarded because a newer request superseded them",
		}, []string{"kind"}),

		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "reconviewer_ws_clients",
			Help: "Connected WebSocket view subscribers",
		}),
		ViewsPushed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reconviewer_views_pushed_total",
			Help: "View snapshots broadcast to WebSocket clients",
		}),
	}

	reg.MustRegister(
		m.BackendRequests,
		m.BackendDuration,
		m.BreakerState,
		m.BreakerTrips,
		m.CacheLookups,
		m.Actions,
		m.StaleResults,
		m.WSClients,
		m.ViewsPushed,
	)
	return m
}

// BackendRequest records one backend call. Cache hits are counted but kept
// out of the latency histogram.
func (m *Metrics) BackendRequest(endpoint, outcome string, d time.Duration) {
	m.BackendRequests.WithLabelValues(endpoint, outcome).Inc()
	if outcome != "cached" && outcome != "circuit_open" {
		m.BackendDuration.WithLabelValues(endpoint).Observe(d.Seconds())
	}
}

// CacheLookup records a response cache lookup.
func (m *Metrics) CacheLookup(result string) {
	m.CacheLookups.WithLabelValues(result).Inc()
}

// BreakerChanged records a breaker transition.
func (m *Metrics) BreakerChanged(state int) {
	m.BreakerState.Set(float64(state))
	if state == 1 {
		m.BreakerTrips.Inc()
	}
}

// Action records a dispatched session action.
func (m *Metrics) Action(name string) {
	m.Actions.WithLabelValues(name).Inc()
}

// StaleResult records a discarded fetch result.
func (m *Metrics) StaleResult(kind string) {
	m.StaleResults.WithLabelValues(kind).Inc()
}

// ClientsConnected sets the number of connected WebSocket clients.
func (m *Metrics) ClientsConnected(n int) {
	m.WSClients.Set(float64(n))
}

// ViewPushed counts one view fan-out to WebSocket clients.
func (m *Metrics) ViewPushed() {
	m.ViewsPushed.Inc()
}
