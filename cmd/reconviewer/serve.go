package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"reconviewer/internal/gateway"
	"reconviewer/internal/metrics"
	"reconviewer/internal/reportapi"
	"reconviewer/internal/viewer"
)

var processStart = time.Now()

// serveRecorder forwards client telemetry to Prometheus and mirrors breaker
// transitions into the health status.
type serveRecorder struct {
	*metrics.Metrics
	health *metrics.HealthStatus
}

func (r serveRecorder) BreakerChanged(state int) {
	r.Metrics.BreakerChanged(state)
	r.health.SetBreakerState(reportapi.BreakerState(state).String())
}

// hubObserver updates both the ws_clients gauge and the health status.
type hubObserver struct {
	*metrics.Metrics
	health *metrics.HealthStatus
}

func (o hubObserver) ClientsConnected(n int) {
	o.Metrics.ClientsConnected(n)
	o.health.SetWSClients(n)
}

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the viewer gateway (REST + WebSocket) and metrics server.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve()
		},
	}
	cmd.Flags().String("listen", "", "gateway listen address")
	cmd.Flags().String("metrics-listen", "", "metrics and health listen address")
	a.v.BindPFlag("listen_addr", cmd.Flags().Lookup("listen"))
	a.v.BindPFlag("metrics_addr", cmd.Flags().Lookup("metrics-listen"))
	return cmd
}

func (a *app) serve() error {
	cfg := a.cfg
	log.Printf("[reconviewer] starting (backend=%s cache=%s)", cfg.APIBase, cfg.CacheBackend)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	caches, err := a.openCache()
	if err != nil {
		return err
	}
	defer caches.Close()

	m := metrics.NewMetrics(prometheus.DefaultRegisterer)
	health := metrics.NewHealthStatus(cfg.CacheBackend)
	client := a.client(caches, serveRecorder{Metrics: m, health: health})

	probes := metrics.Probes{Backend: client}
	if caches.redis != nil {
		probes.Redis = caches.redis.Client()
	}
	if caches.sqlite != nil {
		probes.SQLite = caches.sqlite.DB()
		go caches.sqlite.RunJanitor(ctx, time.Minute)
	}
	health.StartLivenessChecker(ctx, probes, 15*time.Second)

	metricsSrv := metrics.NewServer(cfg.MetricsAddr, prometheus.DefaultGatherer, health)
	metricsSrv.Start()

	session := viewer.NewSession(client,
		viewer.WithLogger(a.log),
		viewer.WithObserver(m),
		viewer.WithPageSize(cfg.PageSize),
	)
	sessionDone := make(chan error, 1)
	go func() { sessionDone <- session.Run(ctx) }()

	hub := gateway.NewHub(session, hubObserver{Metrics: m, health: health})
	go hub.Run(ctx)
	go hub.StartMetricsBroadcast(ctx, processStart, client, 2*time.Second)

	mux := http.NewServeMux()
	gateway.RegisterRoutes(mux, hub, client, processStart)
	srv := &http.Server{Addr: cfg.ListenAddr, Handler: mux}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	srvErr := make(chan error, 1)
	go func() {
		log.Printf("[reconviewer] gateway listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
	}()

	select {
	case sig := <-sigCh:
		log.Printf("[reconviewer] received %v, shutting down", sig)
	case err = <-srvErr:
		log.Printf("[reconviewer] gateway error: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)
	hub.CloseAll()
	metricsSrv.Stop(shutdownCtx)
	cancel()
	<-sessionDone

	log.Println("[reconviewer] stopped")
	return err
}
