// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Walletd Contributors

// Package observability provides HTTP endpoints for metrics and health checks.
package observability

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/oops"
)

// ReadinessChecker returns whether the service is ready to accept connections.
type ReadinessChecker func() bool

// Metrics contains custom Prometheus metrics for walletd.
type Metrics struct {
	// AuthOperationsTotal counts auth operations by operation and outcome
	// (labels: operation=register|login|forgot_password|reset_password,
	// outcome=success|failure).
	AuthOperationsTotal *prometheus.CounterVec

	// HTTPRequestsTotal counts API requests by route and status class.
	HTTPRequestsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers custom walletd metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AuthOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletd_auth_operations_total",
				Help: "Total number of auth operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletd_http_requests_total",
				Help: "Total number of HTTP requests by route and status class",
			},
			[]string{"route", "status"},
		),
	}

	reg.MustRegister(m.AuthOperationsTotal)
	reg.MustRegister(m.HTTPRequestsTotal)

	return m
}

// Server provides HTTP endpoints for observability (metrics and health probes).
type Server struct {
	addr       string
	listener   net.Listener
	httpServer *http.Server
	registry   *prometheus.Registry
	metrics    *Metrics
	isReady    ReadinessChecker
	running    atomic.Bool
}

// NewServer creates a new observability server.
// addr: listen address in "host:port" format (":9100" for all interfaces).
func NewServer(addr string, readinessChecker ReadinessChecker) *Server {
	// Private registry so tests and the default registry stay clean.
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &Server{
		addr:     addr,
		registry: registry,
		metrics:  NewMetrics(registry),
		isReady:  readinessChecker,
	}
}

// Metrics returns the custom metrics for recording application events.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Start begins serving observability endpoints. It returns an error channel
// that receives any post-start server failure and is closed on graceful stop.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("observability server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	mux.HandleFunc("/healthz/liveness", s.handleLiveness)
	mux.HandleFunc("/healthz/readiness", s.handleReadiness)

	httpSrv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			slog.Error("observability server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	slog.Info("observability server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts down the observability server.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			// Restore running state so the server can be stopped again.
			s.running.Store(true)
			return oops.With("operation", "shutdown_observability_server").Wrap(err)
		}
	}

	slog.Info("observability server stopped")
	return nil
}

// Addr returns the address the server is listening on, or "" if not running.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // health check write error is acceptable, client may disconnect
	w.Write([]byte("ok\n"))
}

func (s *Server) handleReadiness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if s.isReady == nil || s.isReady() {
		w.WriteHeader(http.StatusOK)
		//nolint:errcheck // health check write error is acceptable, client may disconnect
		w.Write([]byte("ok\n"))
		return
	}

	w.WriteHeader(http.StatusServiceUnavailable)
	//nolint:errcheck // health check write error is acceptable, client may disconnect
	w.Write([]byte("not ready\n"))
}
