package gateway

import (
	"runtime"
	"time"

	"reconviewer/internal/reportapi"
)

// MetricsFrame is the periodic {"type":"metrics"} payload: the viewer
// process's Go runtime figures plus report backend health.
type MetricsFrame struct {
	Goroutines  int     `json:"goroutines"`
	HeapAllocMB float64 `json:"heap_alloc_mb"`
	SysMB       float64 `json:"sys_mb"`
	GCRuns      uint32  `json:"gc_runs"`
	UptimeSec   int64   `json:"uptime_sec"`
	TS          string  `json:"ts"`

	Breaker string                `json:"breaker,omitempty"`
	Backend map[string]LatencyOut `json:"backend_latency,omitempty"`
}

// NewMetricsFrame samples the runtime at now. stats may be nil.
func NewMetricsFrame(start, now time.Time, stats BackendStats) MetricsFrame {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	f := MetricsFrame{
		Goroutines:  runtime.NumGoroutine(),
		HeapAllocMB: mb(ms.HeapAlloc),
		SysMB:       mb(ms.Sys),
		GCRuns:      ms.NumGC,
		UptimeSec:   int64(now.Sub(start).Seconds()),
		TS:          now.UTC().Format(time.RFC3339Nano),
	}
	if stats != nil {
		f.Breaker = stats.BreakerState().String()
		f.Backend = backendLatency(stats)
	}
	return f
}

func mb(b uint64) float64 { return float64(b) / (1 << 20) }

func backendLatency(stats BackendStats) map[string]LatencyOut {
	out := make(map[string]LatencyOut, len(reportapi.Endpoints))
	for _, ep := range reportapi.Endpoints {
		p50, p95, p99 := stats.Latency(ep)
		out[ep] = LatencyOut{P50: p50, P95: p95, P99: p99}
	}
	return out
}
