package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valter-silva-au/taskcard/pkg/models"
)

// Recorder receives live counters from the workflow and the state store.
type Recorder interface {
	RecordTransition(to models.AppState)
	RecordFetch(outcome string, elapsed time.Duration)
	RecordFallback()
}

// NoopRecorder discards everything.
type NoopRecorder struct{}

func (NoopRecorder) RecordTransition(models.AppState)   {}
func (NoopRecorder) RecordFetch(string, time.Duration) {}
func (NoopRecorder) RecordFallback()                   {}

// PrometheusRecorder implements Recorder with Prometheus collectors.
type PrometheusRecorder struct {
	registry      *prom.Registry
	transitions   *prom.CounterVec
	fetches       *prom.CounterVec
	fetchDuration prom.Histogram
	fallbacks     prom.Counter
	currentState  *prom.GaugeVec
}

// NewPrometheusRecorder registers the taskcard collectors on reg. A nil reg
// gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	p := &PrometheusRecorder{
		registry: reg,
		transitions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "taskcard",
			Name:      "state_transitions_total",
			Help:      "Persisted state transitions by target state",
		}, []string{"state"}),
		fetches: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "taskcard",
			Name:      "task_fetches_total",
			Help:      "Completed task fetches by outcome",
		}, []string{"outcome"}),
		fetchDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "taskcard",
			Name:      "task_fetch_duration_seconds",
			Help:      "Time from request to completed fetch",
			Buckets:   prom.DefBuckets,
		}),
		fallbacks: prom.NewCounter(prom.CounterOpts{
			Namespace: "taskcard",
			Name:      "state_fallback_reads_total",
			Help:      "Reads that served the fallback error state",
		}),
		currentState: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "taskcard",
			Name:      "current_state",
			Help:      "1 for the state the application is in, 0 otherwise",
		}, []string{"state"}),
	}
	reg.MustRegister(p.transitions, p.fetches, p.fetchDuration, p.fallbacks, p.currentState)
	return p
}

func (p *PrometheusRecorder) RecordTransition(to models.AppState) {
	if p == nil {
		return
	}
	p.transitions.WithLabelValues(string(to)).Inc()
	for _, s := range models.AppStates {
		v := 0.0
		if s == to {
			v = 1
		}
		p.currentState.WithLabelValues(string(s)).Set(v)
	}
}

func (p *PrometheusRecorder) RecordFetch(outcome string, elapsed time.Duration) {
	if p == nil {
		return
	}
	p.fetches.WithLabelValues(outcome).Inc()
	p.fetchDuration.Observe(elapsed.Seconds())
}

func (p *PrometheusRecorder) RecordFallback() {
	if p == nil {
		return
	}
	p.fallbacks.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// ServeMetrics serves /metrics on addr until ctx is cancelled. It returns the
// address actually bound, which differs from addr when addr has port 0.
func (p *PrometheusRecorder) ServeMetrics(ctx context.Context, addr string, logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("listening on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", p.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving metrics", "addr", ln.Addr().String())
	return ln.Addr().String(), nil
}
