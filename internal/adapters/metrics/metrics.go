// Package metrics implements ports.Metrics with Prometheus collectors.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

const namespace = "kiln"

// Metrics records operations and frames on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	frames            *prometheus.CounterVec
	frameDuration     *prometheus.HistogramVec
}

// New creates a Metrics with all collectors registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Port operations by phase, component kind and outcome.",
			},
			[]string{"phase", "kind", "outcome"},
		),
		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of port operations that ran.",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"phase", "kind"},
		),
		frames: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "frames_total",
				Help:      "Frames by kind and status.",
			},
			[]string{"kind", "status"},
		),
		frameDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "frame_duration_seconds",
				Help:      "Duration of frames.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
	}

	registry.MustRegister(m.operations, m.operationDuration, m.frames, m.frameDuration)
	return m
}

// RecordOperation implements ports.Metrics.
func (m *Metrics) RecordOperation(phase domain.Phase, kind string, outcome domain.Outcome, duration time.Duration) {
	m.operations.WithLabelValues(string(phase), kind, string(outcome)).Inc()
	if outcome == domain.OutcomeRan {
		m.operationDuration.WithLabelValues(string(phase), kind).Observe(duration.Seconds())
	}
}

// RecordFrame implements ports.Metrics.
func (m *Metrics) RecordFrame(kind domain.FrameKind, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "failed"
	}
	m.frames.WithLabelValues(string(kind), status).Inc()
	m.frameDuration.WithLabelValues(string(kind)).Observe(duration.Seconds())
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler exposing the collectors in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Serve exposes Handler on addr under /metrics until ctx is done.
// The listener is bound before Serve returns so that bind errors reach the caller.
func (m *Metrics) Serve(ctx context.Context, addr string) (net.Addr, <-chan error, error) {
	lis, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, nil, zerr.With(zerr.Wrap(err, "failed to listen for metrics"), "addr", addr)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	done := make(chan error, 1)
	go func() {
		err := server.Serve(lis)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		done <- err
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	return lis.Addr(), done, nil
}
