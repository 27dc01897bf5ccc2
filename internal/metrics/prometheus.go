package metrics

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the workflow.
type Metrics struct {
	// Aggregate workflow verdict counters
	WorkflowSuccess prometheus.Counter
	WorkflowFailure prometheus.Counter

	// Stage duration histogram (buckets sized for browser-driven stages)
	StageDuration *prometheus.HistogramVec

	registry *prometheus.Registry

	// HTTP server
	server *http.Server
	mu     sync.Mutex
}

// New creates a new Metrics instance with the given namespace. Metrics
// are registered on a private registry so concurrent test instances do
// not collide.
func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		WorkflowSuccess: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_success_total",
			Help:      "Total number of successful workflow runs",
		}),
		WorkflowFailure: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_failure_total",
			Help:      "Total number of failed workflow runs or stages",
		}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each workflow stage in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}, []string{"stage"}),
		registry: registry,
	}
}

// RecordOutcome increments the counter matching the aggregate verdict.
func (m *Metrics) RecordOutcome(ok bool) {
	if ok {
		m.WorkflowSuccess.Inc()
		return
	}
	m.WorkflowFailure.Inc()
}

// RecordStageDuration records the duration of a workflow stage.
func (m *Metrics) RecordStageDuration(stage string, duration time.Duration) {
	m.StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// Start starts the HTTP server exposing the metrics endpoint.
func (m *Metrics) Start(_ context.Context, port int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.server != nil {
		return fmt.Errorf("metrics server already running")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	m.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := m.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("Metrics server error: %v\n", err)
		}
	}()

	return nil
}

// Stop stops the HTTP server gracefully.
func (m *Metrics) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.server == nil {
		return nil
	}

	err := m.server.Shutdown(ctx)
	m.server = nil
	return err
}

// IsRunning returns true if the metrics server is running.
func (m *Metrics) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.server != nil
}
