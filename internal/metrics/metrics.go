package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics holds the watcher's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	BlocksProcessed prometheus.Counter
	LastBlock       prometheus.Gauge
	ItemsScanned    *prometheus.CounterVec
	Matches         *prometheus.CounterVec
	AlertsSent      prometheus.Counter
	AlertsDuplicate prometheus.Counter
	Errors          *prometheus.CounterVec
	BlockDuration   prometheus.Histogram
}

// New creates and registers the collectors on a dedicated registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		BlocksProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ctfwatch_blocks_processed_total",
			Help: "Blocks that finished processing, including failed ones.",
		}),
		LastBlock: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ctfwatch_last_block",
			Help: "Highest block number processed.",
		}),
		ItemsScanned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ctfwatch_items_scanned_total",
			Help: "Logs or transactions fetched and scanned.",
		}, []string{"source"}),
		Matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ctfwatch_matches_total",
			Help: "Items that matched a target wallet, by action.",
		}, []string{"action"}),
		AlertsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ctfwatch_alerts_sent_total",
			Help: "Alerts delivered to the notification sink.",
		}),
		AlertsDuplicate: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ctfwatch_alerts_duplicate_total",
			Help: "Alerts dropped because their key was already dispatched.",
		}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ctfwatch_errors_total",
			Help: "Errors by kind.",
		}, []string{"kind"}),
		BlockDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ctfwatch_block_duration_seconds",
			Help:    "Time spent processing a block.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	m.registry.MustRegister(
		m.BlocksProcessed,
		m.LastBlock,
		m.ItemsScanned,
		m.Matches,
		m.AlertsSent,
		m.AlertsDuplicate,
		m.Errors,
		m.BlockDuration,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveBlock(started time.Time) {
	if m == nil {
		return
	}
	m.BlocksProcessed.Inc()
	m.BlockDuration.Observe(time.Since(started).Seconds())
}

func (m *Metrics) SetLastBlock(block uint64) {
	if m == nil {
		return
	}
	m.LastBlock.Set(float64(block))
}

func (m *Metrics) AddScanned(source string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.ItemsScanned.WithLabelValues(source).Add(float64(n))
}

func (m *Metrics) IncMatch(action string) {
	if m == nil {
		return
	}
	m.Matches.WithLabelValues(action).Inc()
}

func (m *Metrics) IncAlertSent() {
	if m == nil {
		return
	}
	m.AlertsSent.Inc()
}

func (m *Metrics) IncDuplicate() {
	if m == nil {
		return
	}
	m.AlertsDuplicate.Inc()
}

func (m *Metrics) IncError(kind string) {
	if m == nil {
		return
	}
	m.Errors.WithLabelValues(kind).Inc()
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics server listening", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
