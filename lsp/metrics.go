// Copyright © 2024 The wlscope authors

package lsp

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// requestsTotal counts handled LSP messages.
	// Labels: method, status (ok, error)
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wlscope",
		Subsystem: "lsp",
		Name:      "requests_total",
		Help:      "Total LSP requests and notifications by method and status",
	}, []string{"method", "status"})

	// requestDuration measures handler latency.
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "wlscope",
		Subsystem: "lsp",
		Name:      "request_duration_seconds",
		Help:      "Duration of LSP handlers in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"method"})

	// workspaceFiles is the number of files in the workspace index.
	workspaceFiles = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "wlscope",
		Subsystem: "lsp",
		Name:      "workspace_files",
		Help:      "Number of source files in the workspace index",
	})

	// diagnosticsPublished counts diagnostics sent to the client.
	// Labels: severity
	diagnosticsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wlscope",
		Subsystem: "lsp",
		Name:      "diagnostics_published_total",
		Help:      "Total diagnostics published by severity",
	}, []string{"severity"})
)

// ServeMetrics serves the Prometheus registry at /metrics on addr until ctx
// is done.
func ServeMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Infof("serving metrics on %s", ln.Addr())
	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
