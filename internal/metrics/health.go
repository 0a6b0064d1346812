package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

// Pinger is a dependency that can be probed, such as the report backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthStatus tracks the viewer's dependencies for /healthz.
type HealthStatus struct {
	mu sync.RWMutex

	BackendOK        bool
	BackendLatencyMs float64
	BackendError     string
	BreakerState     string

	CacheBackend    string // none, redis or sqlite
	RedisConnected  bool
	RedisLatencyMs  float64
	SQLiteOK        bool
	SQLiteLatencyMs float64

	WSClients   int
	LastCheckAt time.Time
	StartedAt   time.Time
}

// NewHealthStatus returns a status for the given cache backend.
func NewHealthStatus(cacheBackend string) *HealthStatus {
	if cacheBackend == "" {
		cacheBackend = "none"
	}
	return &HealthStatus{CacheBackend: cacheBackend, BreakerState: "closed", StartedAt: time.Now()}
}

func (h *HealthStatus) SetBreakerState(s string) {
	h.mu.Lock()
	h.BreakerState = s
	h.mu.Unlock()
}

func (h *HealthStatus) SetWSClients(n int) {
	h.mu.Lock()
	h.WSClients = n
	h.mu.Unlock()
}

// CheckBackend probes the report backend and records latency.
func (h *HealthStatus) CheckBackend(ctx context.Context, p Pinger) {
	start := time.Now()
	err := p.Ping(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.BackendOK = err == nil
	h.BackendLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.BackendError = ""
	if err != nil {
		h.BackendError = err.Error()
	}
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckSQLite pings the cache database and records latency + health.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// Probes are the dependencies checked by StartLivenessChecker. Nil fields
// are skipped.
type Probes struct {
	Backend Pinger
	Redis   *goredis.Client
	SQLite  *sql.DB
}

// RunChecks probes every configured dependency once.
func (h *HealthStatus) RunChecks(ctx context.Context, p Probes) {
	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if p.Backend != nil {
		h.CheckBackend(probeCtx, p.Backend)
	}
	if p.Redis != nil {
		h.CheckRedis(probeCtx, p.Redis)
	}
	if p.SQLite != nil {
		h.CheckSQLite(probeCtx, p.SQLite)
	}
}

// StartLivenessChecker probes immediately and then every interval until ctx
// is cancelled.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, p Probes, interval time.Duration) {
	go func() {
		h.RunChecks(ctx, p)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.RunChecks(ctx, p)
			}
		}
	}()
}

// HealthReport is the /healthz payload.
type HealthReport struct {
	Status           string  `json:"status"`
	Uptime           string  `json:"uptime"`
	BackendOK        bool    `json:"backend_ok"`
	BackendLatencyMs float64 `json:"backend_latency_ms"`
	BackendError     string  `json:"backend_error,omitempty"`
	BreakerState     string  `json:"breaker_state"`
	CacheBackend     string  `json:"cache_backend"`
	CacheOK          bool    `json:"cache_ok"`
	RedisLatencyMs   float64 `json:"redis_latency_ms,omitempty"`
	SQLiteLatencyMs  float64 `json:"sqlite_latency_ms,omitempty"`
	WSClients        int     `json:"ws_clients"`
	LastCheckAt      string  `json:"last_check_at"`
}

// Report computes the overall status. An unreachable backend is unhealthy;
// a failing response cache only degrades the viewer since it is bypassed.
func (h *HealthStatus) Report() (int, HealthReport) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	cacheOK := true
	switch h.CacheBackend {
	case "redis":
		cacheOK = h.RedisConnected
	case "sqlite":
		cacheOK = h.SQLiteOK
	}

	status, code := "healthy", http.StatusOK
	switch {
	case !h.BackendOK:
		status, code = "unhealthy", http.StatusServiceUnavailable
	case !cacheOK || h.BreakerState != "closed":
		status = "degraded"
	}

	return code, HealthReport{
		Status:           status,
		Uptime:           time.Since(h.StartedAt).Round(time.Second).String(),
		BackendOK:        h.BackendOK,
		BackendLatencyMs: h.BackendLatencyMs,
		BackendError:     h.BackendError,
		BreakerState:     h.BreakerState,
		CacheBackend:     h.CacheBackend,
		CacheOK:          cacheOK,
		RedisLatencyMs:   h.RedisLatencyMs,
		SQLiteLatencyMs:  h.SQLiteLatencyMs,
		WSClients:        h.WSClients,
		LastCheckAt:      h.LastCheckAt.Format(time.RFC3339),
	}
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	code, rep := h.Report()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(rep)
}
